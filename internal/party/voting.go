package party

import (
	"log"
	"sort"

	"reveal-party-service/internal/domain"
)

// StartVoting opens the gender guess, discarding any prior votes.
func (s *Session) StartVoting() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.applyLocked(CmdStartVoting) {
		return
	}
	s.votes = make(map[string]domain.GenderChoice)
	s.votingClosed = false
	s.emitAllLocked(EvVotingStarted, nil)
	log.Printf("gender voting started")
}

// CastVote records or replaces a guest's guess. Last write wins; guests
// may change their mind any number of times while voting is open.
func (s *Session) CastVote(guestID string, choice domain.GenderChoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != domain.PhaseVotingActive {
		return nil
	}
	if _, ok := s.guests[guestID]; !ok {
		return domain.ErrGuestNotFound
	}
	if !domain.ValidGender(string(choice)) {
		return domain.ErrInvalidChoice
	}

	s.votes[guestID] = choice

	s.emitGuestLocked(guestID, EvVoteConfirmed, VoteConfirmed{Vote: choice, CanChange: true})
	s.emitAllLocked(EvVotesUpdate, s.tallyLocked())
	return nil
}

// EndVoting freezes the vote set and reports the outcome. A tie stays a
// tie. If the secret is already configured the guess bonus is paid now;
// otherwise it waits for the reveal.
func (s *Session) EndVoting() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.applyLocked(CmdEndVoting) {
		return
	}
	s.votingClosed = true

	tally := s.tallyLocked()
	winner := "tie"
	switch {
	case tally.Boy.Count > tally.Girl.Count:
		winner = string(domain.GenderBoy)
	case tally.Girl.Count > tally.Boy.Count:
		winner = string(domain.GenderGirl)
	}

	s.emitAllLocked(EvVotingFinalResults, VotingFinalResults{
		Results:    tally,
		Winner:     winner,
		TotalVotes: tally.Boy.Count + tally.Girl.Count,
	})
	log.Printf("gender voting closed, outcome: %s", winner)

	s.awardGenderBonusLocked()
}

// RevealGender publishes the secret and settles the deferred bonus.
func (s *Session) RevealGender() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.applyLocked(CmdRevealGender) {
		return
	}
	s.emitAllLocked(EvGenderRevealed, GenderRevealed{Gender: s.secret})
	log.Printf("gender revealed: %s", s.secret)

	s.awardGenderBonusLocked()
}

// awardGenderBonusLocked pays GenderBonusPoints to every guest whose
// frozen vote matches the secret. Runs from both EndVoting and
// RevealGender; the paid flag keeps it a once-only event no matter which
// of the two happens second.
func (s *Session) awardGenderBonusLocked() {
	if s.genderBonusPaid || !s.votingClosed || s.secret == "" {
		return
	}
	s.genderBonusPaid = true

	for guestID, choice := range s.votes {
		if choice != s.secret {
			continue
		}
		if _, ok := s.guests[guestID]; !ok {
			continue
		}
		s.genderPoints[guestID] += GenderBonusPoints
		s.emitGuestLocked(guestID, EvPointsAwarded, PointsAwarded{
			Source:     "gender",
			Points:     GenderBonusPoints,
			TotalScore: s.fullTotalLocked(guestID),
		})
	}
}

// ShowWinner sums all three ledgers per guest and reveals the single
// strictly-highest total, with earliest registration breaking ties. A
// zero maximum means no winner; the leaderboard still goes out.
func (s *Session) ShowWinner() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.canApplyLocked(CmdShowWinner) {
		return
	}

	scores := make([]ScoreLine, 0, len(s.guests))
	for id, g := range s.guests {
		line := ScoreLine{
			GuestID:       id,
			GuestName:     g.Name,
			TriviaPoints:  s.triviaPoints[id],
			DrawingPoints: s.drawingPoints[id],
			GenderPoints:  s.genderPoints[id],
		}
		line.TotalScore = line.TriviaPoints + line.DrawingPoints + line.GenderPoints
		if line.TotalScore == 0 {
			continue
		}
		scores = append(scores, line)
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].TotalScore != scores[j].TotalScore {
			return scores[i].TotalScore > scores[j].TotalScore
		}
		gi, gj := s.guests[scores[i].GuestID], s.guests[scores[j].GuestID]
		if !gi.JoinedAt.Equal(gj.JoinedAt) {
			return gi.JoinedAt.Before(gj.JoinedAt)
		}
		return scores[i].GuestName < scores[j].GuestName
	})

	var winner *ScoreLine
	if len(scores) > 0 && scores[0].TotalScore > 0 {
		w := scores[0]
		winner = &w
		s.applyLocked(CmdShowWinner)
		log.Printf("final winner: %s with %d points", w.GuestName, w.TotalScore)
	} else {
		log.Printf("no final winner: no positive totals")
	}

	s.emitAllLocked(EvTriviaWinnerRevealed, TriviaWinnerRevealed{
		Winner:    winner,
		AllScores: scores,
	})
}

// tallyLocked derives the current gender-vote tally. The tally is never
// stored; it is recomputed on every change.
func (s *Session) tallyLocked() VoteTally {
	tally := VoteTally{
		Boy:  ChoiceTally{Names: []string{}},
		Girl: ChoiceTally{Names: []string{}},
	}
	type votedGuest struct {
		name     string
		joinedAt int64
		choice   domain.GenderChoice
	}
	voters := make([]votedGuest, 0, len(s.votes))
	for guestID, choice := range s.votes {
		g, ok := s.guests[guestID]
		if !ok {
			continue
		}
		voters = append(voters, votedGuest{name: g.Name, joinedAt: g.JoinedAt.UnixNano(), choice: choice})
	}
	sort.Slice(voters, func(i, j int) bool { return voters[i].joinedAt < voters[j].joinedAt })

	for _, v := range voters {
		switch v.choice {
		case domain.GenderBoy:
			tally.Boy.Count++
			tally.Boy.Names = append(tally.Boy.Names, v.name)
		case domain.GenderGirl:
			tally.Girl.Count++
			tally.Girl.Names = append(tally.Girl.Names, v.name)
		}
	}
	return tally
}
