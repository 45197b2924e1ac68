package party

import (
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"reveal-party-service/internal/domain"
)

// triviaRound is the one in-flight question: last-write-wins responses
// keyed by guest, graded exactly once when the admin closes the round.
type triviaRound struct {
	question  domain.Question
	responses map[string]triviaResponse
	open      bool
}

type triviaResponse struct {
	answer     string
	receivedAt time.Time
}

// StartQuestion opens a round for q. Starting while another round is open
// fails silently; the admin UI prevents it, the engine just refuses.
func (s *Session) StartQuestion(q domain.Question) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.trivia != nil && s.trivia.open {
		log.Printf("start question %s ignored: a round is already open", q.ID)
		return false
	}
	if !s.applyLocked(CmdStartQuestion) {
		return false
	}

	s.trivia = &triviaRound{
		question:  q,
		responses: make(map[string]triviaResponse),
		open:      true,
	}
	s.emitAllLocked(EvQuestionStarted, QuestionStarted{
		QuestionID: q.ID,
		Question:   q.Question,
		Type:       q.Type,
		Points:     q.Points,
		Options:    q.Options,
	})
	log.Printf("trivia question started: %s", q.Question)
	return true
}

// SubmitResponse records a guest's answer while a round is open. Later
// submissions from the same guest overwrite earlier ones. The guest gets
// a receipt without any hint of correctness; admin sees the counter move.
func (s *Session) SubmitResponse(guestID, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != domain.PhaseTriviaActive || s.trivia == nil || !s.trivia.open {
		return nil
	}
	g, ok := s.guests[guestID]
	if !ok {
		return domain.ErrGuestNotFound
	}

	answer := strings.TrimSpace(raw)
	if s.trivia.question.Type == domain.KindNumber {
		answer = digitsOnly(answer)
		if answer == "" {
			return domain.ErrNumbersOnly
		}
	}

	s.trivia.responses[guestID] = triviaResponse{answer: answer, receivedAt: s.now()}

	s.emitGuestLocked(guestID, EvResponseAck, ResponseAck{Answer: answer})
	s.emitStaffLocked(EvResponseProgress, ResponseProgress{
		GuestName:      g.Name,
		TotalResponses: len(s.trivia.responses),
		TotalGuests:    len(s.guests),
	})
	return nil
}

// ShowQuestionResults grades the open round, credits the ledger, sends
// each guest their private outcome and pushes the aggregate list to
// admin/projection. Returns the graded question id, or "" if no round
// was open. Grading happens exactly once; the round is cleared after.
func (s *Session) ShowQuestionResults() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.trivia == nil || !s.trivia.open {
		return "", false
	}
	if !s.applyLocked(CmdShowQuestionResults) {
		return "", false
	}

	round := s.trivia
	q := round.question
	round.open = false
	s.trivia = nil

	type gradedResponse struct {
		guestID string
		triviaResponse
	}
	ordered := make([]gradedResponse, 0, len(round.responses))
	for id, resp := range round.responses {
		ordered = append(ordered, gradedResponse{guestID: id, triviaResponse: resp})
	}
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].receivedAt.Equal(ordered[j].receivedAt) {
			return ordered[i].receivedAt.Before(ordered[j].receivedAt)
		}
		return ordered[i].guestID < ordered[j].guestID
	})

	results := make([]GuestResult, 0, len(ordered))
	for _, resp := range ordered {
		g, ok := s.guests[resp.guestID]
		if !ok {
			continue
		}
		correct := answerMatches(q, resp.answer)
		points := 0
		if correct {
			points = q.Points
		}
		s.triviaPoints[resp.guestID] += points

		results = append(results, GuestResult{
			GuestID:    resp.guestID,
			GuestName:  g.Name,
			Answer:     resp.answer,
			IsCorrect:  correct,
			Points:     points,
			TotalScore: s.totalLocked(resp.guestID),
		})
		s.emitGuestLocked(resp.guestID, EvPersonalResult, PersonalResult{
			IsCorrect:     correct,
			CorrectAnswer: q.CorrectAnswer,
			Points:        points,
			TotalScore:    s.totalLocked(resp.guestID),
		})
	}

	// Guests who never answered still get a private outcome.
	for id := range s.guests {
		if _, answered := round.responses[id]; answered {
			continue
		}
		s.emitGuestLocked(id, EvPersonalResult, PersonalResult{
			IsCorrect:     false,
			CorrectAnswer: q.CorrectAnswer,
			Points:        0,
			TotalScore:    s.totalLocked(id),
		})
	}

	summary := QuestionResults{
		QuestionID:       q.ID,
		Question:         q.Question,
		CorrectAnswer:    q.CorrectAnswer,
		Results:          results,
		QuestionComplete: true,
	}
	s.history = append(s.history, summary)
	s.emitStaffLocked(EvQuestionResults, summary)
	log.Printf("trivia results shown for: %s", q.Question)
	return q.ID, true
}

// EndTrivia broadcasts the cumulative ranking and the full round history.
// Pure aggregation: nothing new is graded.
func (s *Session) EndTrivia() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.applyLocked(CmdEndTrivia) {
		return
	}

	standings := make([]FinalStanding, 0, len(s.guests))
	for id, g := range s.guests {
		total := s.totalLocked(id)
		if total == 0 {
			continue
		}
		standings = append(standings, FinalStanding{GuestID: id, GuestName: g.Name, TotalScore: total})
	}
	sort.Slice(standings, func(i, j int) bool {
		if standings[i].TotalScore != standings[j].TotalScore {
			return standings[i].TotalScore > standings[j].TotalScore
		}
		gi, gj := s.guests[standings[i].GuestID], s.guests[standings[j].GuestID]
		if !gi.JoinedAt.Equal(gj.JoinedAt) {
			return gi.JoinedAt.Before(gj.JoinedAt)
		}
		return standings[i].GuestName < standings[j].GuestName
	})

	s.emitAllLocked(EvTriviaFinalResults, TriviaFinalResults{
		FinalScores: standings,
		AllResults:  s.history,
	})
	log.Printf("trivia finalized: %d ranked guests", len(standings))
}

// ActiveAnswer exposes the open round's correct answer and kind to the
// chat censor. Returns false outside an open trivia round.
func (s *Session) ActiveAnswer() (string, domain.QuestionKind, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != domain.PhaseTriviaActive || s.trivia == nil || !s.trivia.open {
		return "", "", false
	}
	return s.trivia.question.CorrectAnswer, s.trivia.question.Type, true
}

// digitsOnly strips everything but 0-9.
func digitsOnly(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// answerMatches grades one cleaned answer against the question.
func answerMatches(q domain.Question, answer string) bool {
	expected := strings.TrimSpace(q.CorrectAnswer)
	switch q.Type {
	case domain.KindNumber:
		got, err1 := strconv.Atoi(digitsOnly(answer))
		want, err2 := strconv.Atoi(digitsOnly(expected))
		return err1 == nil && err2 == nil && got == want
	case domain.KindChoice:
		return strings.EqualFold(strings.TrimSpace(answer), expected)
	default:
		return strings.EqualFold(strings.TrimSpace(answer), expected)
	}
}
