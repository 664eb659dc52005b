package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DRPozdniakov/Tracker/internal/models"
)

func newTestRegistry(start time.Time) (*pendingRegistry, *time.Time) {
	current := start
	registry := newPendingRegistry(func() time.Time { return current })
	return registry, &current
}

func pendingFixture(userID, token string, expiresAt time.Time) *models.PendingAction {
	return &models.PendingAction{
		Token:     token,
		UserID:    userID,
		Action:    models.ActionClockIn,
		ExpiresAt: expiresAt,
	}
}

func TestPendingRegistryPutAndGet(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	registry, _ := newTestRegistry(start)

	ok := registry.put(pendingFixture("u1", "t1", start.Add(time.Minute)))
	require.True(t, ok)

	action, expired := registry.get("u1")
	require.NotNil(t, action)
	assert.False(t, expired)
	assert.Equal(t, "t1", action.Token)

	action, expired = registry.get("u2")
	assert.Nil(t, action)
	assert.False(t, expired)
}

func TestPendingRegistryRejectsSecondLiveEntry(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	registry, _ := newTestRegistry(start)

	require.True(t, registry.put(pendingFixture("u1", "t1", start.Add(time.Minute))))
	assert.False(t, registry.put(pendingFixture("u1", "t2", start.Add(time.Minute))))

	// The original entry survives the refused put.
	action, _ := registry.get("u1")
	assert.Equal(t, "t1", action.Token)
}

func TestPendingRegistryExpiryIsLazy(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	registry, current := newTestRegistry(start)

	registry.put(pendingFixture("u1", "t1", start.Add(time.Minute)))
	*current = start.Add(2 * time.Minute)

	// First read reports the expiry and removes the entry.
	action, expired := registry.get("u1")
	require.NotNil(t, action)
	assert.True(t, expired)

	// Second read finds nothing at all.
	action, expired = registry.get("u1")
	assert.Nil(t, action)
	assert.False(t, expired)

	// The slot is free for a fresh entry.
	assert.True(t, registry.put(pendingFixture("u1", "t2", start.Add(3*time.Minute))))
}

func TestPendingRegistryExpiredSlotAcceptsReplacement(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	registry, current := newTestRegistry(start)

	registry.put(pendingFixture("u1", "t1", start.Add(time.Minute)))
	*current = start.Add(2 * time.Minute)

	// put replaces an expired entry without a get in between.
	assert.True(t, registry.put(pendingFixture("u1", "t2", start.Add(3*time.Minute))))
	action, expired := registry.get("u1")
	require.NotNil(t, action)
	assert.False(t, expired)
	assert.Equal(t, "t2", action.Token)
}

func TestPendingRegistryRemoveNeedsMatchingToken(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	registry, _ := newTestRegistry(start)

	registry.put(pendingFixture("u1", "t1", start.Add(time.Minute)))

	assert.False(t, registry.remove("u1", "wrong"))
	assert.False(t, registry.remove("u2", "t1"))
	assert.True(t, registry.remove("u1", "t1"))
	assert.False(t, registry.remove("u1", "t1"), "second remove is a no-op")
}

func TestPendingRegistrySweep(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	registry, current := newTestRegistry(start)

	registry.put(pendingFixture("u1", "t1", start.Add(time.Minute)))
	registry.put(pendingFixture("u2", "t2", start.Add(time.Hour)))
	registry.put(pendingFixture("u3", "t3", start.Add(time.Minute)))

	*current = start.Add(10 * time.Minute)

	assert.Equal(t, 2, registry.sweep())
	assert.Equal(t, 0, registry.sweep(), "nothing left to sweep")

	action, expired := registry.get("u2")
	require.NotNil(t, action)
	assert.False(t, expired, "live entries survive the sweep")
}
