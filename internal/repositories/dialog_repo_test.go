package repositories

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DRPozdniakov/Tracker/internal/models"
)

// These tests run against a live Redis and are skipped unless
// TEST_REDIS_URL points at one, e.g. redis://localhost:6379/1

func getTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set, skipping redis tests")
	}

	opts, err := redis.ParseURL(url)
	require.NoError(t, err, "Failed to parse TEST_REDIS_URL")

	client := redis.NewClient(opts)
	require.NoError(t, client.Ping(context.Background()).Err(), "Failed to connect to test Redis")
	t.Cleanup(func() { client.Close() })
	return client
}

func dialogFixture(userID string) *models.DialogState {
	return &models.DialogState{
		UserID: userID,
		Step:   models.StepContractor,
		Draft: models.Profile{
			UserID:      userID,
			DisplayName: "Dmitri P.",
			ProjectName: "Riverside Tower",
			ProjectSite: "Dock 4",
		},
		StartedAt: time.Now().UTC(),
	}
}

func TestRedisDialogRepositoryPutGet(t *testing.T) {
	client := getTestRedisClient(t)
	repo := NewRedisDialogRepository(client)
	ctx := context.Background()
	userID := testUserID()
	defer repo.Delete(ctx, userID)

	// ACT: store a mid-dialog draft.
	err := repo.Put(ctx, dialogFixture(userID), time.Minute)

	// ASSERT: it round-trips with every draft field intact.
	require.NoError(t, err)
	state, err := repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, models.StepContractor, state.Step)
	assert.Equal(t, "Riverside Tower", state.Draft.ProjectName)
	assert.Equal(t, "Dock 4", state.Draft.ProjectSite)
}

func TestRedisDialogRepositoryExpiration(t *testing.T) {
	client := getTestRedisClient(t)
	repo := NewRedisDialogRepository(client)
	ctx := context.Background()
	userID := testUserID()

	require.NoError(t, repo.Put(ctx, dialogFixture(userID), time.Second))

	// Wait out the TTL; Redis drops the draft on its own.
	time.Sleep(1500 * time.Millisecond)

	_, err := repo.Get(ctx, userID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisDialogRepositoryOverwrite(t *testing.T) {
	client := getTestRedisClient(t)
	repo := NewRedisDialogRepository(client)
	ctx := context.Background()
	userID := testUserID()
	defer repo.Delete(ctx, userID)

	require.NoError(t, repo.Put(ctx, dialogFixture(userID), time.Minute))

	advanced := dialogFixture(userID)
	advanced.Step = models.StepLunchBreak
	advanced.Draft.Contractor = "Meridian Build"
	require.NoError(t, repo.Put(ctx, advanced, time.Minute))

	state, err := repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, models.StepLunchBreak, state.Step)
	assert.Equal(t, "Meridian Build", state.Draft.Contractor)
}

func TestRedisDialogRepositoryDelete(t *testing.T) {
	client := getTestRedisClient(t)
	repo := NewRedisDialogRepository(client)
	ctx := context.Background()
	userID := testUserID()

	require.NoError(t, repo.Put(ctx, dialogFixture(userID), time.Minute))
	require.NoError(t, repo.Delete(ctx, userID))

	_, err := repo.Get(ctx, userID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent draft is a no-op, not an error.
	assert.NoError(t, repo.Delete(ctx, userID))
}
