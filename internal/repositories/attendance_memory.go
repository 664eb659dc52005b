package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DRPozdniakov/Tracker/internal/models"
)

// MemoryAttendanceStore keeps the event log and shift notes in process
// memory. It backs the memory STORE_BACKEND and the test suite; FailNext
// lets tests inject store failures.
type MemoryAttendanceStore struct {
	mu       sync.Mutex
	events   map[string][]*models.AttendanceEvent
	byToken  map[string]*models.AttendanceEvent
	notes    map[string][]*models.ShiftNote
	failures int
	failErr  error
}

func NewMemoryAttendanceStore() *MemoryAttendanceStore {
	return &MemoryAttendanceStore{
		events:  make(map[string][]*models.AttendanceEvent),
		byToken: make(map[string]*models.AttendanceEvent),
		notes:   make(map[string][]*models.ShiftNote),
	}
}

// FailNext makes the next n store operations fail with err.
func (s *MemoryAttendanceStore) FailNext(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = n
	s.failErr = err
}

func (s *MemoryAttendanceStore) takeFailure() error {
	if s.failures > 0 {
		s.failures--
		return s.failErr
	}
	return nil
}

func (s *MemoryAttendanceStore) Append(ctx context.Context, event *models.AttendanceEvent) (*models.AttendanceEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure(); err != nil {
		return nil, err
	}

	if existing, ok := s.byToken[event.Token]; ok {
		return cloneEvent(existing), nil
	}

	log := s.events[event.UserID]
	next := int64(1)
	if len(log) > 0 {
		next = log[len(log)-1].Sequence + 1
	}
	if event.Sequence != next {
		return nil, fmt.Errorf("append event for user %s: sequence %d where %d expected: %w",
			event.UserID, event.Sequence, next, ErrMalformed)
	}

	stored := cloneEvent(event)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.events[event.UserID] = append(log, stored)
	s.byToken[event.Token] = stored
	return cloneEvent(stored), nil
}

func (s *MemoryAttendanceStore) LastEvent(ctx context.Context, userID string) (*models.AttendanceEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure(); err != nil {
		return nil, err
	}

	log := s.events[userID]
	if len(log) == 0 {
		return nil, ErrNotFound
	}
	return cloneEvent(log[len(log)-1]), nil
}

func (s *MemoryAttendanceStore) RecentEvents(ctx context.Context, userID string, limit int) ([]*models.AttendanceEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure(); err != nil {
		return nil, err
	}

	log := s.events[userID]
	if limit <= 0 || limit > len(log) {
		limit = len(log)
	}

	events := make([]*models.AttendanceEvent, 0, limit)
	for i := len(log) - 1; i >= len(log)-limit; i-- {
		events = append(events, cloneEvent(log[i]))
	}
	return events, nil
}

func (s *MemoryAttendanceStore) EventsSince(ctx context.Context, userID string, since time.Time) ([]*models.AttendanceEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure(); err != nil {
		return nil, err
	}

	var events []*models.AttendanceEvent
	for _, event := range s.events[userID] {
		if !event.RecordedAt.Before(since) {
			events = append(events, cloneEvent(event))
		}
	}
	return events, nil
}

func (s *MemoryAttendanceStore) AppendNote(ctx context.Context, note *models.ShiftNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure(); err != nil {
		return err
	}

	stored := *note
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.notes[note.UserID] = append(s.notes[note.UserID], &stored)
	note.CreatedAt = stored.CreatedAt
	return nil
}

func (s *MemoryAttendanceStore) NotesSince(ctx context.Context, userID string, since time.Time) ([]*models.ShiftNote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure(); err != nil {
		return nil, err
	}

	var notes []*models.ShiftNote
	for _, note := range s.notes[userID] {
		if !note.CreatedAt.Before(since) {
			stored := *note
			notes = append(notes, &stored)
		}
	}
	return notes, nil
}

func cloneEvent(event *models.AttendanceEvent) *models.AttendanceEvent {
	clone := *event
	if event.Location != nil {
		loc := *event.Location
		if event.Location.AccuracyMeters != nil {
			acc := *event.Location.AccuracyMeters
			loc.AccuracyMeters = &acc
		}
		clone.Location = &loc
	}
	return &clone
}
