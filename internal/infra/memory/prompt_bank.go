package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"reveal-party-service/internal/domain"
)

// PromptBank holds drawing prompts in memory only; prompts vanish on
// restart along with the rest of the session.
type PromptBank struct {
	mu      sync.Mutex
	prompts map[string]domain.Prompt
	clock   func() time.Time
}

func NewPromptBank() *PromptBank {
	return &PromptBank{
		prompts: make(map[string]domain.Prompt),
		clock:   time.Now,
	}
}

func (b *PromptBank) List() []domain.Prompt {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]domain.Prompt, 0, len(b.prompts))
	for _, p := range b.prompts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (b *PromptBank) Create(theme string) domain.Prompt {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := domain.Prompt{ID: uuid.NewString(), Theme: theme, CreatedAt: b.clock()}
	b.prompts[p.ID] = p
	return p
}

func (b *PromptBank) Update(id, theme string) (domain.Prompt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.prompts[id]
	if !ok {
		return domain.Prompt{}, domain.ErrPromptNotFound
	}
	p.Theme = theme
	b.prompts[id] = p
	return p, nil
}

func (b *PromptBank) Delete(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.prompts[id]; !ok {
		return domain.ErrPromptNotFound
	}
	delete(b.prompts, id)
	return nil
}

// GetPrompt implements the repository interface used by the session.
func (b *PromptBank) GetPrompt(_ context.Context, id string) (domain.Prompt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p, ok := b.prompts[id]; ok {
		return p, nil
	}
	return domain.Prompt{}, domain.ErrPromptNotFound
}
