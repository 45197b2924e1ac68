package domain

import "time"

// Role identifies a class of connected client. Guests see public tallies
// and their own private results; admin sees full identities; projection
// mirrors admin visibility but never issues commands.
type Role string

const (
	RoleGuest      Role = "guest"
	RoleAdmin      Role = "admin"
	RoleProjection Role = "projection"
)

// Phase is the single process-wide state gating which engine accepts input.
type Phase string

const (
	PhaseWaiting        Phase = "waiting"
	PhaseTriviaActive   Phase = "trivia-active"
	PhaseTriviaResults  Phase = "trivia-results"
	PhaseTriviaFinal    Phase = "trivia-final"
	PhaseVotingActive   Phase = "voting-active"
	PhaseVotingResults  Phase = "voting-results"
	PhaseDrawingActive  Phase = "drawing-active"
	PhaseDrawingVoting  Phase = "drawing-voting"
	PhaseDrawingResults Phase = "drawing-results"
	PhaseCountdown      Phase = "countdown"
	PhaseRevealed       Phase = "revealed"
	PhaseTriviaWinner   Phase = "trivia-winner"
)

// QuestionKind selects how raw answers are validated and graded.
type QuestionKind string

const (
	KindText   QuestionKind = "text"
	KindNumber QuestionKind = "number"
	KindChoice QuestionKind = "choice"
)

// Question is one trivia question from the bank. Options and the
// letter-coded CorrectAnswer ("a", "b", ...) are only meaningful for
// KindChoice. Questions referenced by a graded round must not be edited;
// the CRUD layer enforces that, not the engines.
type Question struct {
	ID            string       `json:"id"`
	Question      string       `json:"question"`
	CorrectAnswer string       `json:"correctAnswer"`
	Points        int          `json:"points"`
	Type          QuestionKind `json:"type"`
	Options       []string     `json:"options,omitempty"`
}

// Prompt is one drawing theme. Prompts are memory-only.
type Prompt struct {
	ID        string    `json:"id"`
	Theme     string    `json:"theme"`
	CreatedAt time.Time `json:"createdAt"`
}

// Guest is a registered participant. The ID is stable across reconnects;
// Connected flips on transport loss and back on reconnection.
type Guest struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Connected bool      `json:"connected"`
	JoinedAt  time.Time `json:"joinedAt"`
	LastSeen  time.Time `json:"lastSeen"`
}

// GenderChoice is one of the two vote options.
type GenderChoice string

const (
	GenderBoy  GenderChoice = "boy"
	GenderGirl GenderChoice = "girl"
)

// ValidGender reports whether raw names one of the two options.
func ValidGender(raw string) bool {
	return GenderChoice(raw) == GenderBoy || GenderChoice(raw) == GenderGirl
}
