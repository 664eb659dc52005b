package repositories

import (
	"context"
	"time"

	"github.com/DRPozdniakov/Tracker/internal/models"
)

// AttendanceStore is the append-only event log. Append must be safe to
// retry: an event whose token was already committed is returned unchanged
// instead of being written twice.
type AttendanceStore interface {
	Append(ctx context.Context, event *models.AttendanceEvent) (*models.AttendanceEvent, error)
	LastEvent(ctx context.Context, userID string) (*models.AttendanceEvent, error)
	RecentEvents(ctx context.Context, userID string, limit int) ([]*models.AttendanceEvent, error)
	EventsSince(ctx context.Context, userID string, since time.Time) ([]*models.AttendanceEvent, error)
}

// NoteStore keeps free-text shift notes next to the event log.
type NoteStore interface {
	AppendNote(ctx context.Context, note *models.ShiftNote) error
	NotesSince(ctx context.Context, userID string, since time.Time) ([]*models.ShiftNote, error)
}

type ProfileStore interface {
	Upsert(ctx context.Context, profile *models.Profile) error
	Get(ctx context.Context, userID string) (*models.Profile, error)
}

// DialogStore holds in-flight profile-capture conversations with a TTL.
type DialogStore interface {
	Put(ctx context.Context, state *models.DialogState, ttl time.Duration) error
	Get(ctx context.Context, userID string) (*models.DialogState, error)
	Delete(ctx context.Context, userID string) error
}
