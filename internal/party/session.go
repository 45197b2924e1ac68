package party

import (
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"reveal-party-service/internal/domain"
)

const (
	// DefaultDisconnectGrace is how long a disconnected guest keeps their
	// roster slot before hard deletion.
	DefaultDisconnectGrace = 30 * time.Minute
	// DefaultDrawingDuration is the drawing-round budget in seconds.
	DefaultDrawingDuration = 120
	// GenderBonusPoints is awarded per correct gender guess. Two values
	// shipped at different times; 20 is the one product settled on.
	GenderBonusPoints = 20
)

// Session is the single in-memory authority for one party: roster,
// ledgers, phase and the per-round working state of every engine. All
// mutations happen under one mutex, so a handler invocation is the unit
// of consistency and every broadcast is emitted inside the same critical
// section as the mutation it reports.
type Session struct {
	mu    sync.Mutex
	now   func() time.Time
	tick  time.Duration
	grace time.Duration

	phase  domain.Phase
	guests map[string]*guestState
	// transport handle -> guest id; exactly one live handle per guest
	handles map[string]string

	triviaPoints  map[string]int
	drawingPoints map[string]int
	genderPoints  map[string]int

	trivia  *triviaRound
	history []QuestionResults

	drawing      *drawingRound
	drawingEpoch int

	votes           map[string]domain.GenderChoice
	votingClosed    bool
	genderBonusPaid bool
	secret          domain.GenderChoice

	subscribers map[*subscriber]struct{}
}

type guestState struct {
	domain.Guest
	handle  string
	removal *time.Timer
}

type subscriber struct {
	role    domain.Role
	guestID string
	ch      chan Event
}

// NewSession creates an empty session in the waiting phase.
func NewSession() *Session {
	return newSession(time.Now, time.Second, DefaultDisconnectGrace)
}

// NewSessionForTest allows deterministic clocks and fast countdown ticks.
func NewSessionForTest(now func() time.Time, tick, grace time.Duration) *Session {
	return newSession(now, tick, grace)
}

func newSession(now func() time.Time, tick, grace time.Duration) *Session {
	return &Session{
		now:           now,
		tick:          tick,
		grace:         grace,
		phase:         domain.PhaseWaiting,
		guests:        make(map[string]*guestState),
		handles:       make(map[string]string),
		triviaPoints:  make(map[string]int),
		drawingPoints: make(map[string]int),
		genderPoints:  make(map[string]int),
		votes:         make(map[string]domain.GenderChoice),
		subscribers:   make(map[*subscriber]struct{}),
	}
}

// Phase returns the current phase.
func (s *Session) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Subscribe registers a listener for this session's events. Guests pass
// their id so private events reach them; admin and projection pass "".
// The returned cancel must be called to avoid leaks.
func (s *Session) Subscribe(role domain.Role, guestID string) (<-chan Event, func()) {
	sub := &subscriber{role: role, guestID: guestID, ch: make(chan Event, 32)}

	s.mu.Lock()
	s.subscribers[sub] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[sub]; ok {
			delete(s.subscribers, sub)
			close(sub.ch)
		}
		s.mu.Unlock()
	}
	return sub.ch, cancel
}

// emitLocked fans an event out to every matching subscriber. Slow clients
// lose their oldest pending update rather than blocking the session.
func (s *Session) emitLocked(ev Event) {
	for sub := range s.subscribers {
		if !ev.matches(sub.role, sub.guestID) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- ev
		}
	}
}

func (s *Session) emitAllLocked(typ string, payload any) {
	s.emitLocked(Event{Type: typ, Payload: payload})
}

func (s *Session) emitRolesLocked(typ string, payload any, roles ...domain.Role) {
	s.emitLocked(Event{Type: typ, Payload: payload, roles: roles})
}

func (s *Session) emitGuestLocked(guestID, typ string, payload any) {
	s.emitLocked(Event{Type: typ, Payload: payload, guestID: guestID})
}

// emitStaffLocked targets admin and projection only.
func (s *Session) emitStaffLocked(typ string, payload any) {
	s.emitRolesLocked(typ, payload, domain.RoleAdmin, domain.RoleProjection)
}

// SendMessage relays a public chat line from a registered guest. The
// censor filter runs in the transport layer before this call.
func (s *Session) SendMessage(guestID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.guests[guestID]
	if !ok {
		return domain.ErrGuestNotFound
	}
	s.emitAllLocked(EvNewMessage, ChatMessage{
		ID:        uuid.NewString(),
		Name:      g.Name,
		Message:   text,
		Timestamp: s.now().Format("15:04:05"),
	})
	return nil
}

// SendEmoji relays an emoji reaction with randomized overlay placement.
func (s *Session) SendEmoji(guestID, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.guests[guestID]
	if !ok {
		return domain.ErrGuestNotFound
	}
	s.emitAllLocked(EvNewEmoji, EmojiReaction{
		Emoji: symbol,
		Name:  g.Name,
		X:     rand.Float64() * 100,
		Y:     rand.Float64() * 100,
	})
	return nil
}

// SetGender stores the reveal secret. Allowed at any time before the
// reveal; a late change after the bonus has been paid does not re-score.
func (s *Session) SetGender(choice domain.GenderChoice) error {
	if !domain.ValidGender(string(choice)) {
		return domain.ErrInvalidChoice
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secret = choice
	return nil
}

// Gender returns the configured secret, or "" if unset.
func (s *Session) Gender() domain.GenderChoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.secret
}

// StartCountdown moves the party into the pre-reveal countdown.
func (s *Session) StartCountdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.applyLocked(CmdStartCountdown) {
		return
	}
	s.emitAllLocked(EvCountdownStarted, nil)
}

// Reset wipes every engine's working data and all ledgers, returning to
// the waiting phase. The roster and the reveal secret survive; a reset
// mid-party should not force everyone to re-register.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.applyLocked(CmdReset) {
		return
	}

	s.stopDrawingLocked()
	s.trivia = nil
	s.history = nil
	s.drawing = nil
	s.votes = make(map[string]domain.GenderChoice)
	s.votingClosed = false
	s.genderBonusPaid = false
	s.triviaPoints = make(map[string]int)
	s.drawingPoints = make(map[string]int)
	s.genderPoints = make(map[string]int)

	s.emitAllLocked(EvEventReset, nil)
	log.Printf("event reset to %s", domain.PhaseWaiting)
}

// totalLocked is a guest's public running total: trivia plus drawing.
// Gender points stay hidden until the reveal.
func (s *Session) totalLocked(guestID string) int {
	return s.triviaPoints[guestID] + s.drawingPoints[guestID]
}

// fullTotalLocked includes gender points, for post-reveal payloads.
func (s *Session) fullTotalLocked(guestID string) int {
	return s.totalLocked(guestID) + s.genderPoints[guestID]
}

func (s *Session) connectedCountLocked() int {
	n := 0
	for _, g := range s.guests {
		if g.Connected {
			n++
		}
	}
	return n
}

// rosterLocked returns guests ordered by registration time.
func (s *Session) rosterLocked() []domain.Guest {
	roster := make([]domain.Guest, 0, len(s.guests))
	for _, g := range s.guests {
		roster = append(roster, g.Guest)
	}
	sort.Slice(roster, func(i, j int) bool {
		if !roster[i].JoinedAt.Equal(roster[j].JoinedAt) {
			return roster[i].JoinedAt.Before(roster[j].JoinedAt)
		}
		return roster[i].ID < roster[j].ID
	})
	return roster
}

// Status is the admin dashboard snapshot served by the HTTP API.
type Status struct {
	Phase          domain.Phase     `json:"eventState"`
	GuestCount     int              `json:"guestCount"`
	ConnectedCount int              `json:"connectedCount"`
	CurrentTrivia  *QuestionStarted `json:"currentTrivia"`
	TriviaAnswers  int              `json:"triviaResponses"`
	Votes          VoteTally        `json:"votes"`
	GenderSet      bool             `json:"genderSet"`
}

// StatusSnapshot summarizes session state without exposing the answer
// or the secret value itself.
func (s *Session) StatusSnapshot() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Phase:          s.phase,
		GuestCount:     len(s.guests),
		ConnectedCount: s.connectedCountLocked(),
		Votes:          s.tallyLocked(),
		GenderSet:      s.secret != "",
	}
	if s.trivia != nil && s.trivia.open {
		q := s.trivia.question
		st.CurrentTrivia = &QuestionStarted{
			QuestionID: q.ID,
			Question:   q.Question,
			Type:       q.Type,
			Points:     q.Points,
			Options:    q.Options,
		}
		st.TriviaAnswers = len(s.trivia.responses)
	}
	return st
}

// Roster returns the current guest list, admin view.
func (s *Session) Roster() []domain.Guest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rosterLocked()
}
