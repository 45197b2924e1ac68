package party

import (
	"reveal-party-service/internal/domain"
)

// Event is one broadcast emitted by the session. Events are scoped either
// to every subscriber, to a set of roles, or privately to a single guest.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`

	roles   []domain.Role
	guestID string
}

func (e Event) matches(role domain.Role, guestID string) bool {
	if e.guestID != "" {
		return role == domain.RoleGuest && guestID == e.guestID
	}
	if len(e.roles) == 0 {
		return true
	}
	for _, r := range e.roles {
		if r == role {
			return true
		}
	}
	return false
}

// Outbound event names, matching the original socket protocol.
const (
	EvRegistrationSuccess   = "registration-success"
	EvGuestUpdate           = "guest-update"
	EvNewMessage            = "new-message"
	EvNewEmoji              = "new-emoji"
	EvQuestionStarted       = "trivia-question-started"
	EvResponseAck           = "trivia-response-ack"
	EvResponseProgress      = "trivia-response-received"
	EvPersonalResult        = "trivia-personal-result"
	EvQuestionResults       = "trivia-question-results"
	EvTriviaFinalResults    = "trivia-final-results"
	EvVotingStarted         = "voting-started"
	EvVoteConfirmed         = "vote-confirmed"
	EvVotesUpdate           = "votes-update"
	EvVotingFinalResults    = "voting-final-results"
	EvDrawingStarted        = "drawing-started"
	EvDrawingCountdown      = "drawing-countdown"
	EvDrawingSubmission     = "drawing-submission-received"
	EvDrawingVotingStarted  = "drawing-voting-started"
	EvDrawingVotesUpdate    = "drawing-votes-update"
	EvDrawingResults        = "drawing-results"
	EvCountdownStarted      = "countdown-started"
	EvGenderRevealed        = "gender-revealed"
	EvTriviaWinnerRevealed  = "trivia-winner-revealed"
	EvPointsAwarded         = "points-awarded"
	EvEventReset            = "event-reset"
)

// RegistrationSuccess confirms a (re)registration to the joining guest.
type RegistrationSuccess struct {
	GuestID        string `json:"guestId"`
	Name           string `json:"name"`
	IsReconnection bool   `json:"isReconnection"`
	TotalScore     int    `json:"totalScore"`
}

// ChatMessage is a public chat line, already censored by the relay.
type ChatMessage struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// EmojiReaction floats an emoji across the projection overlay.
type EmojiReaction struct {
	Emoji string  `json:"emoji"`
	Name  string  `json:"name"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// QuestionStarted announces an open trivia round. The correct answer is
// never part of this payload.
type QuestionStarted struct {
	QuestionID string              `json:"questionId"`
	Question   string              `json:"question"`
	Type       domain.QuestionKind `json:"type"`
	Points     int                 `json:"points"`
	Options    []string            `json:"options,omitempty"`
}

// ResponseAck privately confirms receipt without revealing correctness.
type ResponseAck struct {
	Answer string `json:"answer"`
}

// ResponseProgress is the admin-facing running response counter.
type ResponseProgress struct {
	GuestName      string `json:"guestName"`
	TotalResponses int    `json:"totalResponses"`
	TotalGuests    int    `json:"totalGuests"`
}

// PersonalResult is one guest's private outcome for a graded question.
// TotalScore excludes gender points until the reveal.
type PersonalResult struct {
	IsCorrect     bool   `json:"isCorrect"`
	CorrectAnswer string `json:"correctAnswer"`
	Points        int    `json:"points"`
	TotalScore    int    `json:"totalScore"`
}

// GuestResult is one row of the aggregate (admin/projection) result list.
type GuestResult struct {
	GuestID    string `json:"guestId"`
	GuestName  string `json:"guestName"`
	Answer     string `json:"answer"`
	IsCorrect  bool   `json:"isCorrect"`
	Points     int    `json:"points"`
	TotalScore int    `json:"totalScore"`
}

// QuestionResults aggregates one graded round.
type QuestionResults struct {
	QuestionID       string        `json:"questionId"`
	Question         string        `json:"question"`
	CorrectAnswer    string        `json:"correctAnswer"`
	Results          []GuestResult `json:"results"`
	QuestionComplete bool          `json:"questionComplete"`
}

// FinalStanding is one row of the end-of-trivia ranking.
type FinalStanding struct {
	GuestID    string `json:"guestId"`
	GuestName  string `json:"guestName"`
	TotalScore int    `json:"totalScore"`
}

// TriviaFinalResults carries the ranking plus the full round history.
type TriviaFinalResults struct {
	FinalScores []FinalStanding   `json:"finalScores"`
	AllResults  []QuestionResults `json:"allResults"`
}

// VoteConfirmed privately echoes a guest's current gender guess.
type VoteConfirmed struct {
	Vote      domain.GenderChoice `json:"vote"`
	CanChange bool                `json:"canChange"`
}

// ChoiceTally is the per-option slice of the gender-vote tally.
type ChoiceTally struct {
	Count int      `json:"count"`
	Names []string `json:"names"`
}

// VoteTally is the live gender-vote tally.
type VoteTally struct {
	Boy  ChoiceTally `json:"boy"`
	Girl ChoiceTally `json:"girl"`
}

// VotingFinalResults closes the gender vote. Winner is "boy", "girl" or
// "tie"; ties are reported, never resolved.
type VotingFinalResults struct {
	Results    VoteTally `json:"results"`
	Winner     string    `json:"winner"`
	TotalVotes int       `json:"totalVotes"`
}

// DrawingStarted announces a drawing round and its countdown budget.
type DrawingStarted struct {
	PromptID string `json:"promptId"`
	Theme    string `json:"theme"`
	Duration int    `json:"duration"`
}

// DrawingCountdown is the once-per-second tick.
type DrawingCountdown struct {
	Remaining int `json:"remaining"`
}

// DrawingSubmission is the admin-facing submission counter.
type DrawingSubmission struct {
	GuestName        string `json:"guestName"`
	TotalSubmissions int    `json:"totalSubmissions"`
	TotalGuests      int    `json:"totalGuests"`
}

// BallotEntry is one drawing on the frozen voting ballot.
type BallotEntry struct {
	DrawingID string `json:"drawingId"`
	GuestID   string `json:"guestId"`
	GuestName string `json:"guestName"`
	Image     string `json:"image"`
	Votes     int    `json:"votes"`
}

// DrawingVotingStarted publishes the ballot snapshot.
type DrawingVotingStarted struct {
	Theme  string        `json:"theme"`
	Ballot []BallotEntry `json:"ballot"`
}

// DrawingVotesUpdate re-publishes the ballot with fresh counts.
type DrawingVotesUpdate struct {
	Ballot     []BallotEntry `json:"ballot"`
	TotalVotes int           `json:"totalVotes"`
}

// RankedDrawing is one row of the drawing ranking. Place is the rank
// group (tied drawings share a place); Points is zero outside the award
// schedule and for unvoted drawings.
type RankedDrawing struct {
	DrawingID string `json:"drawingId"`
	GuestID   string `json:"guestId"`
	GuestName string `json:"guestName"`
	Votes     int    `json:"votes"`
	Place     int    `json:"place"`
	Points    int    `json:"points"`
}

// DrawingResults closes a drawing round.
type DrawingResults struct {
	Ranking      []RankedDrawing `json:"ranking"`
	Winners      []string        `json:"winners"`
	Participants int             `json:"participants"`
	TotalVotes   int             `json:"totalVotes"`
}

// GenderRevealed publishes the configured secret.
type GenderRevealed struct {
	Gender domain.GenderChoice `json:"gender"`
}

// PointsAwarded privately notifies a guest of a bonus.
type PointsAwarded struct {
	Source     string `json:"source"`
	Points     int    `json:"points"`
	TotalScore int    `json:"totalScore"`
}

// ScoreLine is one row of the final leaderboard.
type ScoreLine struct {
	GuestID       string `json:"guestId"`
	GuestName     string `json:"guestName"`
	TotalScore    int    `json:"totalScore"`
	TriviaPoints  int    `json:"triviaPoints"`
	DrawingPoints int    `json:"drawingPoints"`
	GenderPoints  int    `json:"genderPoints"`
}

// TriviaWinnerRevealed carries the overall winner and the leaderboard.
// Winner is nil when no guest has a positive total.
type TriviaWinnerRevealed struct {
	Winner    *ScoreLine  `json:"winner"`
	AllScores []ScoreLine `json:"allScores"`
}
