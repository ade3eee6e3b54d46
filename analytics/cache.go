package analytics

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStatsCache stores stats snapshots in Redis with a per-entry TTL.
type RedisStatsCache struct {
	client *redis.Client
}

// NewRedisStatsCache connects a stats cache to the given Redis instance.
func NewRedisStatsCache(addr string, password string, db int) *RedisStatsCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisStatsCache{client: client}
}

// Ping verifies the Redis connection.
func (c *RedisStatsCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Set stores the payload under key, expiring after ttl.
func (c *RedisStatsCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, payload, ttl).Err()
}

// Close releases the underlying Redis client.
func (c *RedisStatsCache) Close() error {
	return c.client.Close()
}

// NoopStatsCache discards all writes. It stands in when no Redis is configured.
type NoopStatsCache struct{}

// NewNoopStatsCache returns a cache that drops every snapshot.
func NewNoopStatsCache() NoopStatsCache {
	return NoopStatsCache{}
}

func (NoopStatsCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error {
	return nil
}
