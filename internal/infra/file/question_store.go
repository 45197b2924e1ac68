package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"reveal-party-service/internal/domain"
)

// QuestionStore keeps the trivia question bank in a single JSON file, the
// only durable record this service has. Every mutation rewrites the whole
// file.
type QuestionStore struct {
	path string

	mu        sync.Mutex
	questions []domain.Question
}

// NewQuestionStore loads the bank from path, seeding a starter set when
// the file does not exist yet.
func NewQuestionStore(path string) (*QuestionStore, error) {
	s := &QuestionStore{path: path}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.questions = defaultQuestions()
		if err := s.saveLocked(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("read question bank: %w", err)
	default:
		if err := json.Unmarshal(data, &s.questions); err != nil {
			return nil, fmt.Errorf("parse question bank: %w", err)
		}
	}
	return s, nil
}

// List returns a copy of the bank.
func (s *QuestionStore) List() []domain.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// Create appends a question, minting an id when none is supplied.
func (s *QuestionStore) Create(q domain.Question) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	s.questions = append(s.questions, q)
	if err := s.saveLocked(); err != nil {
		return domain.Question{}, err
	}
	return q, nil
}

// Update replaces the question with the same id.
func (s *QuestionStore) Update(id string, q domain.Question) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.questions {
		if s.questions[i].ID != id {
			continue
		}
		q.ID = id
		s.questions[i] = q
		if err := s.saveLocked(); err != nil {
			return domain.Question{}, err
		}
		return q, nil
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

// Delete removes a question from the bank.
func (s *QuestionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.questions {
		if s.questions[i].ID != id {
			continue
		}
		s.questions = append(s.questions[:i], s.questions[i+1:]...)
		return s.saveLocked()
	}
	return domain.ErrQuestionNotFound
}

// GetQuestion implements the repository interface used by the session.
func (s *QuestionStore) GetQuestion(_ context.Context, id string) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, q := range s.questions {
		if q.ID == id {
			return q, nil
		}
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

// LoadQuestion lets the caching layers treat the file bank as a loader.
func (s *QuestionStore) LoadQuestion(ctx context.Context, id string) (domain.Question, error) {
	return s.GetQuestion(ctx, id)
}

func (s *QuestionStore) saveLocked() error {
	data, err := json.MarshalIndent(s.questions, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write question bank: %w", err)
	}
	return nil
}

func defaultQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:            uuid.NewString(),
			Question:      "How many months does a pregnancy last?",
			CorrectAnswer: "9",
			Points:        10,
			Type:          domain.KindNumber,
		},
		{
			ID:            uuid.NewString(),
			Question:      "What is the first sense a baby develops?",
			CorrectAnswer: "touch",
			Points:        15,
			Type:          domain.KindText,
		},
	}
}
