package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-scheduler-api/pkg/errors"
)

var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

var extendLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

// CacheRepository wraps Redis for JSON values and scheduler run locks.
type CacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCacheRepository constructs a cache repository. A nil client disables every operation.
func NewCacheRepository(client *redis.Client, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{client: client, logger: logger}
}

// Enabled reports whether a Redis client is configured.
func (r *CacheRepository) Enabled() bool {
	return r != nil && r.client != nil
}

// Get retrieves and unmarshals the cached value into the provided destination.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if !r.Enabled() {
		return appErrors.ErrCacheMiss
	}
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Set marshals the provided value and stores it with the given TTL.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !r.Enabled() {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// AcquireLock sets key to token only when absent. It returns false when another holder owns the key.
func (r *CacheRepository) AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	if !r.Enabled() {
		return false, fmt.Errorf("redis lock %s: client disabled", key)
	}
	ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return ok, nil
}

// ReleaseLock deletes key only if it still holds token.
func (r *CacheRepository) ReleaseLock(ctx context.Context, key, token string) error {
	if !r.Enabled() {
		return nil
	}
	if err := releaseLockScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("redis release %s: %w", key, err)
	}
	return nil
}

// ExtendLock resets the TTL of key if it still holds token. It returns false when the lock was lost.
func (r *CacheRepository) ExtendLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	if !r.Enabled() {
		return false, fmt.Errorf("redis lock %s: client disabled", key)
	}
	extended, err := extendLockScript.Run(ctx, r.client, []string{key}, token, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("redis extend %s: %w", key, err)
	}
	return extended == 1, nil
}

// Close releases the underlying Redis connection if present.
func (r *CacheRepository) Close() error {
	if !r.Enabled() {
		return nil
	}
	return r.client.Close()
}
