package flowstore

import (
	"sync"

	"github.com/vecinomarket/publicar-flow/internal/models"
)

// MemoryStore holds the draft in memory, for tests and dry runs.
type MemoryStore struct {
	mu    sync.RWMutex
	draft *models.VerificationDraft
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (*models.VerificationDraft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.draft == nil {
		return nil, nil
	}
	copied := *s.draft
	return &copied, nil
}

func (s *MemoryStore) Save(d *models.VerificationDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *d
	s.draft = &copied
	return nil
}

func (s *MemoryStore) Patch(p models.DraftPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draft == nil {
		return ErrNoActiveDraft
	}
	p.Apply(s.draft)
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.draft = nil
	return nil
}
