package cache

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisConfig holds configuration for the shared key-value cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisCache is a thin wrapper over the shared redis instance. It backs
// the fixed-window rate-limit counters.
type RedisCache struct {
	rdb *goredis.Client
}

// NewRedisCache creates a redis client and verifies connectivity.
// Parameters:
//   - cfg: redis connection configuration.
// Returns:
//   - *RedisCache: initialized cache client.
//   - error: non-nil if the initial ping fails.
func NewRedisCache(cfg *RedisConfig) (*RedisCache, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisCache{rdb: rdb}, nil
}

// Close closes the underlying redis connection.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

// GetCount returns the current counter value for key, 0 when absent.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - key: counter key.
// Returns:
//   - int64: current value.
//   - error: non-nil if the lookup fails.
func (c *RedisCache) GetCount(ctx context.Context, key string) (int64, error) {
	val, err := c.rdb.Get(ctx, key).Int64()
	if err == goredis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

// IncrCount increments the counter for key, attaching the expiry when
// the key is fresh.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - key: counter key.
//   - ttl: expiry applied if the key has none yet.
// Returns:
//   - int64: value after the increment.
//   - error: non-nil if the increment fails.
func (c *RedisCache) IncrCount(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	val, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr: %w", err)
	}
	if err := c.rdb.ExpireNX(ctx, key, ttl).Err(); err != nil {
		return val, fmt.Errorf("redis expire: %w", err)
	}
	return val, nil
}
