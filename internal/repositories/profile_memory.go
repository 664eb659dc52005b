package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/DRPozdniakov/Tracker/internal/models"
)

type MemoryProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]models.Profile
}

func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{profiles: make(map[string]models.Profile)}
}

func (s *MemoryProfileStore) Upsert(ctx context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile.UpdatedAt = time.Now().UTC()
	s.profiles[profile.UserID] = *profile
	return nil
}

func (s *MemoryProfileStore) Get(ctx context.Context, userID string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &profile, nil
}
