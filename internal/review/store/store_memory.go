package store

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"claimaudit/internal/review/models"
	"claimaudit/pkg/platform/sentinel"
)

// InMemoryStore keeps assessments for the lifetime of the process.
type InMemoryStore struct {
	mu          sync.RWMutex
	assessments map[uuid.UUID]*models.Assessment
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{assessments: make(map[uuid.UUID]*models.Assessment)}
}

func (s *InMemoryStore) Save(_ context.Context, a *models.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assessments[a.ID] = a
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.assessments[id]; ok {
		return a, nil
	}
	return nil, sentinel.ErrNotFound
}

// ListByFileNumber returns the claim's assessments, newest first.
func (s *InMemoryStore) ListByFileNumber(_ context.Context, fileNumber string) ([]*models.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Assessment{}
	for _, a := range s.assessments {
		if a.FileNumber == fileNumber {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b *models.Assessment) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}
