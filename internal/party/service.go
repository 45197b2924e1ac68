package party

import (
	"context"
	"log"
	"sync"

	"reveal-party-service/internal/domain"
)

// QuestionRepository loads trivia questions (file bank, cache, Postgres).
type QuestionRepository interface {
	GetQuestion(ctx context.Context, id string) (domain.Question, error)
}

// PromptRepository loads drawing prompts.
type PromptRepository interface {
	GetPrompt(ctx context.Context, id string) (domain.Prompt, error)
}

// Service wires the session to the question and prompt banks and tracks
// which questions have been consumed by a graded round, so the CRUD
// layer can refuse to edit them.
type Service struct {
	session   *Session
	questions QuestionRepository
	prompts   PromptRepository

	mu   sync.Mutex
	used map[string]bool
}

func NewService(session *Session, questions QuestionRepository, prompts PromptRepository) *Service {
	return &Service{
		session:   session,
		questions: questions,
		prompts:   prompts,
		used:      make(map[string]bool),
	}
}

// Session exposes the underlying aggregate for subscriptions and guest
// actions that need no bank access.
func (s *Service) Session() *Session {
	return s.session
}

// StartQuestion loads the question and opens a trivia round. Unknown ids
// fail silently, per the admin command contract.
func (s *Service) StartQuestion(ctx context.Context, questionID string) {
	q, err := s.questions.GetQuestion(ctx, questionID)
	if err != nil {
		log.Printf("start question %s ignored: %v", questionID, err)
		return
	}
	s.session.StartQuestion(q)
}

// ShowQuestionResults grades the open round and records the question as
// consumed.
func (s *Service) ShowQuestionResults() {
	questionID, graded := s.session.ShowQuestionResults()
	if !graded {
		return
	}
	s.mu.Lock()
	s.used[questionID] = true
	s.mu.Unlock()
}

// QuestionUsed reports whether a question has been graded this event.
// The HTTP CRUD layer rejects edits and deletes for used questions.
func (s *Service) QuestionUsed(questionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used[questionID]
}

// StartDrawing loads the prompt and opens a drawing round. Unknown
// prompt ids fail silently.
func (s *Service) StartDrawing(ctx context.Context, promptID string, durationSeconds int) {
	p, err := s.prompts.GetPrompt(ctx, promptID)
	if err != nil {
		log.Printf("start drawing %s ignored: %v", promptID, err)
		return
	}
	s.session.StartDrawing(p, durationSeconds)
}

// ResetEvent wipes the session and the used-question record.
func (s *Service) ResetEvent() {
	s.session.Reset()
	s.mu.Lock()
	s.used = make(map[string]bool)
	s.mu.Unlock()
}
