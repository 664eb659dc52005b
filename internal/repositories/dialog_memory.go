package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/DRPozdniakov/Tracker/internal/models"
)

// MemoryDialogStore is the DialogStore used when no Redis is configured.
type MemoryDialogStore struct {
	mu     sync.Mutex
	states map[string]memoryDialogEntry
	now    func() time.Time
}

type memoryDialogEntry struct {
	state     models.DialogState
	expiresAt time.Time
}

func NewMemoryDialogStore() *MemoryDialogStore {
	return &MemoryDialogStore{
		states: make(map[string]memoryDialogEntry),
		now:    time.Now,
	}
}

func (s *MemoryDialogStore) Put(ctx context.Context, state *models.DialogState, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[state.UserID] = memoryDialogEntry{
		state:     *state,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

func (s *MemoryDialogStore) Get(ctx context.Context, userID string) (*models.DialogState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.states[userID]
	if !ok {
		return nil, ErrNotFound
	}
	if s.now().After(entry.expiresAt) {
		delete(s.states, userID)
		return nil, ErrNotFound
	}

	state := entry.state
	return &state, nil
}

func (s *MemoryDialogStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, userID)
	return nil
}
