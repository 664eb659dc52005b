package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DRPozdniakov/Tracker/internal/database"
	"github.com/DRPozdniakov/Tracker/internal/models"
)

func newSQLiteBackend(t *testing.T) *SQLiteAttendanceStore {
	t.Helper()
	db, err := database.NewSQLiteDB(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewSQLiteAttendanceStore(db)
	require.NoError(t, store.Init(context.Background()))
	return store
}

func TestSQLiteAttendanceStoreContract(t *testing.T) {
	runAttendanceStoreContract(t, func(t *testing.T) eventStore {
		return newSQLiteBackend(t)
	})
}

func TestSQLiteInitIsIdempotent(t *testing.T) {
	store := newSQLiteBackend(t)

	assert.NoError(t, store.Init(context.Background()))
}

// TestSQLiteTimesSortLexically: range queries compare the TEXT timestamp
// columns, so the stored rendering must order the same way instants do.
func TestSQLiteTimesSortLexically(t *testing.T) {
	earlier := time.Date(2025, 3, 9, 23, 59, 59, 999999999, time.UTC)
	later := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.Less(t, sqliteTime(earlier), sqliteTime(later))

	parsed, err := parseSQLiteTime(sqliteTime(earlier))
	require.NoError(t, err)
	assert.True(t, parsed.Equal(earlier), "rendering round-trips exactly")
}

func TestSQLiteEventsSurviveReopenOfStore(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewSQLiteDB(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	first := NewSQLiteAttendanceStore(db)
	require.NoError(t, first.Init(ctx))

	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	_, err = first.Append(ctx, contractEvent("u1", 1, models.ActionClockIn, base))
	require.NoError(t, err)

	// A second store over the same handle sees the committed row.
	second := NewSQLiteAttendanceStore(db)
	last, err := second.LastEvent(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), last.Sequence)
}
