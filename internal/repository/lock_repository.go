package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired is returned when another holder owns the lock.
var ErrLockNotAcquired = errors.New("lock not acquired")

// releaseScript deletes the lock only if the caller still owns it.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`

type LockRepository interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, error)
	ReleaseLock(ctx context.Context, key, token string) error
	ExtendLock(ctx context.Context, key, token string, ttl time.Duration) error
}

type lockRepository struct {
	client *redis.Client
}

func NewLockRepository(client *redis.Client) LockRepository {
	return &lockRepository{client: client}
}

// AcquireLock takes the lock with SET NX and returns an ownership token.
// The token must be presented to release or extend the lock.
func (r *lockRepository) AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.New().String()

	acquired, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !acquired {
		return "", fmt.Errorf("lock %s: %w", key, ErrLockNotAcquired)
	}

	return token, nil
}

func (r *lockRepository) ReleaseLock(ctx context.Context, key, token string) error {
	result, err := r.client.Eval(ctx, releaseScript, []string{key}, token).Result()
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	if result.(int64) == 0 {
		return fmt.Errorf("lock %s not owned by this holder", key)
	}
	return nil
}

const extendScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
else
	return 0
end`

func (r *lockRepository) ExtendLock(ctx context.Context, key, token string, ttl time.Duration) error {
	result, err := r.client.Eval(ctx, extendScript, []string{key}, token, ttl.Milliseconds()).Result()
	if err != nil {
		return fmt.Errorf("failed to extend lock %s: %w", key, err)
	}
	if result.(int64) == 0 {
		return fmt.Errorf("lock %s not owned by this holder", key)
	}
	return nil
}

// ReversalLockManager serializes reversal attempts per transaction.
type ReversalLockManager struct {
	locks LockRepository
	ttl   time.Duration
}

func NewReversalLockManager(locks LockRepository, ttl time.Duration) *ReversalLockManager {
	return &ReversalLockManager{
		locks: locks,
		ttl:   ttl,
	}
}

func (m *ReversalLockManager) Lock(ctx context.Context, transactionID string) (string, error) {
	return m.locks.AcquireLock(ctx, m.key(transactionID), m.ttl)
}

func (m *ReversalLockManager) Unlock(ctx context.Context, transactionID, token string) error {
	return m.locks.ReleaseLock(ctx, m.key(transactionID), token)
}

func (m *ReversalLockManager) key(transactionID string) string {
	return fmt.Sprintf("reversal:lock:%s", transactionID)
}
