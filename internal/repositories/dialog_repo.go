package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/DRPozdniakov/Tracker/internal/models"
)

const dialogPrefix = "dialog:"

// RedisDialogRepository keeps profile-capture conversation drafts in Redis
// so an abandoned dialog simply expires.
type RedisDialogRepository struct {
	client *redis.Client
}

func NewRedisDialogRepository(client *redis.Client) *RedisDialogRepository {
	return &RedisDialogRepository{client: client}
}

func (r *RedisDialogRepository) Put(ctx context.Context, state *models.DialogState, ttl time.Duration) error {
	jsonData, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal dialog state: %w", err)
	}

	key := fmt.Sprintf("%s%s", dialogPrefix, state.UserID)
	if err := r.client.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set dialog state: %w", err)
	}
	return nil
}

func (r *RedisDialogRepository) Get(ctx context.Context, userID string) (*models.DialogState, error) {
	key := fmt.Sprintf("%s%s", dialogPrefix, userID)

	jsonData, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dialog state: %w", err)
	}

	var state models.DialogState
	if err := json.Unmarshal([]byte(jsonData), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dialog state: %w", err)
	}
	return &state, nil
}

func (r *RedisDialogRepository) Delete(ctx context.Context, userID string) error {
	key := fmt.Sprintf("%s%s", dialogPrefix, userID)

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete dialog state: %w", err)
	}
	return nil
}
