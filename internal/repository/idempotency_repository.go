package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyRepository caches reversal responses keyed by the client's
// Idempotency-Key header so retried requests replay the stored outcome.
type IdempotencyRepository interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type idempotencyRepository struct {
	client *redis.Client
}

func NewIdempotencyRepository(client *redis.Client) IdempotencyRepository {
	return &idempotencyRepository{client: client}
}

func (r *idempotencyRepository) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := r.client.Get(ctx, r.cacheKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to get idempotency record %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to decode idempotency record %s: %w", key, err)
	}
	return true, nil
}

func (r *idempotencyRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode idempotency record %s: %w", key, err)
	}

	if err := r.client.Set(ctx, r.cacheKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotency record %s: %w", key, err)
	}
	return nil
}

func (r *idempotencyRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.cacheKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete idempotency record %s: %w", key, err)
	}
	return nil
}

func (r *idempotencyRepository) cacheKey(key string) string {
	return fmt.Sprintf("reversal:idempotency:%s", key)
}
