package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	DefaultCountCacheTTL    = 5 * time.Minute
	DefaultCountCachePrefix = "checkout:count:"

	generationTTL = 24 * time.Hour
)

// RedisCountCache stores checkout unit counts in Redis. Redis errors degrade
// to cache misses; the database stays the source of truth.
//
// Every invalidation bumps a per-customer generation counter. A fill only
// lands when the generation is unchanged since the caller read it before
// counting, so a count computed before a mutation never outlives it.
type RedisCountCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string

	hits   int64
	misses int64
}

// CountCacheOption allows customization of the count cache
type CountCacheOption func(*RedisCountCache)

func WithCountTTL(ttl time.Duration) CountCacheOption {
	return func(c *RedisCountCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithCountPrefix(prefix string) CountCacheOption {
	return func(c *RedisCountCache) {
		c.prefix = prefix
	}
}

// NewRedisCountCache creates a Redis-backed count cache
func NewRedisCountCache(client *redis.Client, opts ...CountCacheOption) *RedisCountCache {
	c := &RedisCountCache{
		client: client,
		ttl:    DefaultCountCacheTTL,
		prefix: DefaultCountCachePrefix,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *RedisCountCache) key(customerID string) string {
	return c.prefix + customerID
}

// Get returns the cached count for the customer
func (c *RedisCountCache) Get(ctx context.Context, customerID string) (int, bool) {
	val, err := c.client.Get(ctx, c.key(customerID)).Result()
	if err != nil {
		atomic.AddInt64(&c.misses, 1)
		return 0, false
	}

	count, err := strconv.Atoi(val)
	if err != nil {
		// Corrupt entry, treat as miss
		atomic.AddInt64(&c.misses, 1)
		return 0, false
	}

	atomic.AddInt64(&c.hits, 1)
	return count, true
}

func (c *RedisCountCache) generationKey(customerID string) string {
	return c.prefix + "gen:" + customerID
}

// Generation returns the customer's current invalidation generation
func (c *RedisCountCache) Generation(ctx context.Context, customerID string) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey(customerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read checkout count generation: %w", err)
	}
	return gen, nil
}

// Set stores the count with the configured TTL, unless the customer's
// generation has moved past the one given.
func (c *RedisCountCache) Set(ctx context.Context, customerID string, count int, generation int64) error {
	genKey := c.generationKey(customerID)

	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(customerID), count, c.ttl)
			return nil
		})
		return err
	}, genKey)

	if errors.Is(err, redis.TxFailedErr) {
		// an invalidation raced the fill
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to set checkout count in Redis: %w", err)
	}
	return nil
}

// Invalidate drops the cached count and bumps the generation
func (c *RedisCountCache) Invalidate(ctx context.Context, customerID string) error {
	genKey := c.generationKey(customerID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, c.key(customerID))
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate checkout count: %w", err)
	}
	return nil
}

// Stats returns cache hit statistics
func (c *RedisCountCache) Stats() map[string]interface{} {
	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)
	total := hits + misses

	stats := map[string]interface{}{
		"hits":          hits,
		"misses":        misses,
		"total_lookups": total,
	}
	if total > 0 {
		stats["hit_rate"] = float64(hits) / float64(total)
	}
	return stats
}

// NoopCountCache never caches
type NoopCountCache struct{}

func (NoopCountCache) Get(context.Context, string) (int, bool)           { return 0, false }
func (NoopCountCache) Generation(context.Context, string) (int64, error) { return 0, nil }
func (NoopCountCache) Set(context.Context, string, int, int64) error     { return nil }
func (NoopCountCache) Invalidate(context.Context, string) error          { return nil }
