package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DRPozdniakov/Tracker/internal/models"
)

// eventStore is the full surface a storage backend provides: the
// attendance log plus its shift notes.
type eventStore interface {
	AttendanceStore
	NoteStore
}

func testUserID() string {
	return "user-" + uuid.NewString()
}

func contractEvent(userID string, sequence int64, action models.Action, at time.Time) *models.AttendanceEvent {
	accuracy := 8.0
	return &models.AttendanceEvent{
		ID:         ulid.Make().String(),
		UserID:     userID,
		Action:     action,
		RecordedAt: at,
		Location: &models.LocationSample{
			Latitude:       40.0,
			Longitude:      -74.0,
			AccuracyMeters: &accuracy,
			CapturedAt:     at,
		},
		Sequence: sequence,
		Token:    uuid.NewString(),
	}
}

// runAttendanceStoreContract exercises the behavior every backend must
// share: atomic idempotent appends, read-your-writes visibility, query
// ordering, and the note log. Backends with persistent state stay clean
// because every subtest works under a user id nobody else uses.
func runAttendanceStoreContract(t *testing.T, newStore func(t *testing.T) eventStore) {
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	t.Run("LastEventEmptyLog", func(t *testing.T) {
		store := newStore(t)

		_, err := store.LastEvent(context.Background(), testUserID())

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("AppendThenReadBack", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		userID := testUserID()
		event := contractEvent(userID, 1, models.ActionClockIn, base)

		committed, err := store.Append(ctx, event)

		require.NoError(t, err)
		assert.Equal(t, event.ID, committed.ID)
		assert.Equal(t, int64(1), committed.Sequence)
		assert.False(t, committed.CreatedAt.IsZero(), "commit stamps the row")

		// Read-your-writes: the append is visible immediately.
		last, err := store.LastEvent(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, event.ID, last.ID)
		assert.Equal(t, models.ActionClockIn, last.Action)
		assert.Equal(t, event.Token, last.Token)
		assert.WithinDuration(t, base, last.RecordedAt, time.Millisecond)

		require.NotNil(t, last.Location)
		assert.Equal(t, 40.0, last.Location.Latitude)
		assert.Equal(t, -74.0, last.Location.Longitude)
		require.NotNil(t, last.Location.AccuracyMeters)
		assert.Equal(t, 8.0, *last.Location.AccuracyMeters)
		assert.WithinDuration(t, base, last.Location.CapturedAt, time.Millisecond)
	})

	t.Run("TokenReplayReturnsCommittedRow", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		userID := testUserID()
		event := contractEvent(userID, 1, models.ActionClockIn, base)

		first, err := store.Append(ctx, event)
		require.NoError(t, err)

		// A retry of the same logical commit, possibly with drifted
		// fields, must return the original row untouched.
		retry := contractEvent(userID, 2, models.ActionClockOut, base.Add(time.Hour))
		retry.Token = event.Token

		second, err := store.Append(ctx, retry)

		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, first.Sequence, second.Sequence)
		assert.Equal(t, models.ActionClockIn, second.Action)

		events, err := store.EventsSince(ctx, userID, time.Time{})
		require.NoError(t, err)
		assert.Len(t, events, 1, "the retry must not create a second row")
	})

	t.Run("SequenceSlotCannotBeReused", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		userID := testUserID()

		_, err := store.Append(ctx, contractEvent(userID, 1, models.ActionClockIn, base))
		require.NoError(t, err)

		// A different token claiming the same sequence means the
		// single-writer assumption broke.
		_, err = store.Append(ctx, contractEvent(userID, 1, models.ActionClockOut, base.Add(time.Minute)))

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("RecentEventsNewestFirst", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		userID := testUserID()

		actions := []models.Action{
			models.ActionClockIn, models.ActionClockOut,
			models.ActionClockIn, models.ActionClockOut,
		}
		for i, action := range actions {
			_, err := store.Append(ctx, contractEvent(userID, int64(i+1), action, base.Add(time.Duration(i)*time.Hour)))
			require.NoError(t, err)
		}

		events, err := store.RecentEvents(ctx, userID, 3)

		require.NoError(t, err)
		require.Len(t, events, 3)
		assert.Equal(t, int64(4), events[0].Sequence)
		assert.Equal(t, int64(3), events[1].Sequence)
		assert.Equal(t, int64(2), events[2].Sequence)
	})

	t.Run("EventsSinceWindow", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		userID := testUserID()

		_, err := store.Append(ctx, contractEvent(userID, 1, models.ActionClockIn, base.AddDate(0, 0, -10)))
		require.NoError(t, err)
		_, err = store.Append(ctx, contractEvent(userID, 2, models.ActionClockOut, base.AddDate(0, 0, -10).Add(8*time.Hour)))
		require.NoError(t, err)
		_, err = store.Append(ctx, contractEvent(userID, 3, models.ActionClockIn, base))
		require.NoError(t, err)

		events, err := store.EventsSince(ctx, userID, base.AddDate(0, 0, -7))

		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, int64(3), events[0].Sequence)
	})

	t.Run("EventWithoutLocation", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		userID := testUserID()

		event := contractEvent(userID, 1, models.ActionClockIn, base)
		event.Location = nil

		_, err := store.Append(ctx, event)
		require.NoError(t, err)

		last, err := store.LastEvent(ctx, userID)
		require.NoError(t, err)
		assert.Nil(t, last.Location, "a declined location stays absent")
	})

	t.Run("UsersAreIsolated", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		alice, bob := testUserID(), testUserID()

		_, err := store.Append(ctx, contractEvent(alice, 1, models.ActionClockIn, base))
		require.NoError(t, err)

		_, err = store.LastEvent(ctx, bob)
		assert.ErrorIs(t, err, ErrNotFound)

		// Bob's sequence 1 is free even though Alice used hers.
		_, err = store.Append(ctx, contractEvent(bob, 1, models.ActionClockIn, base))
		assert.NoError(t, err)
	})

	t.Run("NotesRoundTrip", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		userID := testUserID()

		note := &models.ShiftNote{
			ID:      ulid.Make().String(),
			UserID:  userID,
			NotedOn: "2025-03-10",
			Text:    "replaced the coupling",
		}

		require.NoError(t, store.AppendNote(ctx, note))
		assert.False(t, note.CreatedAt.IsZero())

		second := &models.ShiftNote{
			ID:      ulid.Make().String(),
			UserID:  userID,
			NotedOn: "2025-03-10",
			Text:    "waiting on parts",
		}
		require.NoError(t, store.AppendNote(ctx, second))

		notes, err := store.NotesSince(ctx, userID, time.Time{})
		require.NoError(t, err)
		require.Len(t, notes, 2)
		assert.Equal(t, "replaced the coupling", notes[0].Text, "oldest first")
		assert.Equal(t, "waiting on parts", notes[1].Text)

		notes, err = store.NotesSince(ctx, testUserID(), time.Time{})
		require.NoError(t, err)
		assert.Empty(t, notes, "notes are per user")
	})
}
