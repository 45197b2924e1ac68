package party

import (
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"reveal-party-service/internal/domain"
)

// drawingPlacePoints is the fixed award schedule, indexed by rank group.
var drawingPlacePoints = [3]int{5, 3, 1}

// drawingRound is the working state of one drawing contest. The epoch
// guards against a dangling countdown goroutine touching a later round.
type drawingRound struct {
	prompt      domain.Prompt
	remaining   int
	epoch       int
	submissions map[string]drawingSubmission
	order       []string
	votes       map[string]map[string]bool
	ballot      []BallotEntry
	stop        chan struct{}
	stopped     bool
}

type drawingSubmission struct {
	id          string
	image       string
	submittedAt time.Time
}

// StartDrawing opens a drawing round with a countdown of durationSeconds
// (default 120). Prior submissions and votes are cleared.
func (s *Session) StartDrawing(prompt domain.Prompt, durationSeconds int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.applyLocked(CmdStartDrawing) {
		return false
	}
	if durationSeconds <= 0 {
		durationSeconds = DefaultDrawingDuration
	}

	s.stopDrawingLocked()
	s.drawingEpoch++
	s.drawing = &drawingRound{
		prompt:      prompt,
		remaining:   durationSeconds,
		epoch:       s.drawingEpoch,
		submissions: make(map[string]drawingSubmission),
		votes:       make(map[string]map[string]bool),
		stop:        make(chan struct{}),
	}

	s.emitAllLocked(EvDrawingStarted, DrawingStarted{
		PromptID: prompt.ID,
		Theme:    prompt.Theme,
		Duration: durationSeconds,
	})
	log.Printf("drawing round started: %s (%ds)", prompt.Theme, durationSeconds)

	go s.runCountdown(s.drawingEpoch, s.drawing.stop)
	return true
}

func (s *Session) runCountdown(epoch int, stop chan struct{}) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !s.countdownTick(epoch) {
				return
			}
		}
	}
}

// countdownTick decrements and broadcasts the countdown. A tick from a
// stale epoch, or one arriving after the round advanced, does nothing:
// the phase transition itself is the idempotency guard.
func (s *Session) countdownTick(epoch int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	round := s.drawing
	if round == nil || round.epoch != epoch || s.phase != domain.PhaseDrawingActive {
		return false
	}

	round.remaining--
	s.emitAllLocked(EvDrawingCountdown, DrawingCountdown{Remaining: round.remaining})
	if round.remaining <= 0 {
		s.advanceToVotingLocked()
		return false
	}
	return true
}

// SubmitDrawing accepts at most one drawing per guest per round; repeats
// are silently ignored. Once every connected guest has submitted, the
// round advances to voting without waiting out the timer.
func (s *Session) SubmitDrawing(guestID, image string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	round := s.drawing
	if s.phase != domain.PhaseDrawingActive || round == nil {
		return nil
	}
	g, ok := s.guests[guestID]
	if !ok {
		return domain.ErrGuestNotFound
	}
	if _, dup := round.submissions[guestID]; dup {
		return nil
	}

	round.submissions[guestID] = drawingSubmission{
		id:          uuid.NewString(),
		image:       image,
		submittedAt: s.now(),
	}
	round.order = append(round.order, guestID)

	s.emitStaffLocked(EvDrawingSubmission, DrawingSubmission{
		GuestName:        g.Name,
		TotalSubmissions: len(round.submissions),
		TotalGuests:      s.connectedCountLocked(),
	})

	if connected := s.connectedCountLocked(); connected >= 1 && len(round.submissions) >= connected {
		s.advanceToVotingLocked()
	}
	return nil
}

// AdvanceDrawingVoting lets the admin cut the countdown short.
func (s *Session) AdvanceDrawingVoting() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceToVotingLocked()
}

// advanceToVotingLocked snapshots the ballot and opens voting. Both the
// timeout and the all-submitted path land here; the phase gate makes the
// second arrival a no-op, so a racing tick can never double-advance.
func (s *Session) advanceToVotingLocked() {
	round := s.drawing
	if round == nil || !s.applyLocked(CmdDrawingVoting) {
		return
	}
	s.stopDrawingLocked()

	round.ballot = make([]BallotEntry, 0, len(round.order))
	for _, guestID := range round.order {
		sub := round.submissions[guestID]
		name := ""
		if g, ok := s.guests[guestID]; ok {
			name = g.Name
		}
		round.ballot = append(round.ballot, BallotEntry{
			DrawingID: sub.id,
			GuestID:   guestID,
			GuestName: name,
			Image:     sub.image,
		})
	}

	s.emitAllLocked(EvDrawingVotingStarted, DrawingVotingStarted{
		Theme:  round.prompt.Theme,
		Ballot: round.ballot,
	})
	log.Printf("drawing voting opened with %d submissions", len(round.ballot))
}

// VoteDrawing toggles a guest's vote on one ballot entry. A voter may
// hold votes on any number of drawings, their own included.
func (s *Session) VoteDrawing(guestID, drawingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	round := s.drawing
	if s.phase != domain.PhaseDrawingVoting || round == nil {
		return nil
	}
	if _, ok := s.guests[guestID]; !ok {
		return domain.ErrGuestNotFound
	}
	if !round.onBallot(drawingID) {
		return nil
	}

	set := round.votes[guestID]
	if set == nil {
		set = make(map[string]bool)
		round.votes[guestID] = set
	}
	if set[drawingID] {
		delete(set, drawingID)
	} else {
		set[drawingID] = true
	}

	ballot, totalVotes := round.tally()
	s.emitAllLocked(EvDrawingVotesUpdate, DrawingVotesUpdate{Ballot: ballot, TotalVotes: totalVotes})
	return nil
}

// ShowDrawingResults ranks the ballot by votes and pays the 5/3/1
// schedule by rank group: tied drawings share a place and its points,
// the next distinct count takes the next place, and a drawing with zero
// votes is never paid regardless of position.
func (s *Session) ShowDrawingResults() {
	s.mu.Lock()
	defer s.mu.Unlock()

	round := s.drawing
	if round == nil || !s.applyLocked(CmdShowDrawingResults) {
		return
	}

	ballot, totalVotes := round.tally()
	sort.SliceStable(ballot, func(i, j int) bool {
		return ballot[i].Votes > ballot[j].Votes
	})

	ranking := make([]RankedDrawing, 0, len(ballot))
	winners := make([]string, 0, 3)
	place, lastVotes := 0, -1
	for _, entry := range ballot {
		if entry.Votes != lastVotes {
			place++
			lastVotes = entry.Votes
		}
		points := 0
		if entry.Votes > 0 && place <= len(drawingPlacePoints) {
			points = drawingPlacePoints[place-1]
		}
		ranking = append(ranking, RankedDrawing{
			DrawingID: entry.DrawingID,
			GuestID:   entry.GuestID,
			GuestName: entry.GuestName,
			Votes:     entry.Votes,
			Place:     place,
			Points:    points,
		})
		if points > 0 {
			winners = append(winners, entry.GuestName)
			s.drawingPoints[entry.GuestID] += points
			s.emitGuestLocked(entry.GuestID, EvPointsAwarded, PointsAwarded{
				Source:     "drawing",
				Points:     points,
				TotalScore: s.totalLocked(entry.GuestID),
			})
		}
	}

	s.emitAllLocked(EvDrawingResults, DrawingResults{
		Ranking:      ranking,
		Winners:      winners,
		Participants: len(round.submissions),
		TotalVotes:   totalVotes,
	})
	s.drawing = nil
	log.Printf("drawing results shown: %d drawings, %d votes", len(ranking), totalVotes)
}

// stopDrawingLocked cancels the countdown goroutine exactly once.
func (s *Session) stopDrawingLocked() {
	if s.drawing != nil && !s.drawing.stopped {
		close(s.drawing.stop)
		s.drawing.stopped = true
	}
}

func (r *drawingRound) onBallot(drawingID string) bool {
	for _, entry := range r.ballot {
		if entry.DrawingID == drawingID {
			return true
		}
	}
	return false
}

// tally recomputes per-drawing counts: a drawing's count is the number of
// distinct guests whose vote set contains it.
func (r *drawingRound) tally() ([]BallotEntry, int) {
	counts := make(map[string]int)
	total := 0
	for _, set := range r.votes {
		for drawingID := range set {
			counts[drawingID]++
			total++
		}
	}
	ballot := make([]BallotEntry, len(r.ballot))
	copy(ballot, r.ballot)
	for i := range ballot {
		ballot[i].Votes = counts[ballot[i].DrawingID]
	}
	return ballot, total
}
