package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL bounds how long cached records live in Redis.
const DefaultCacheTTL = 24 * time.Hour

// RedisCache decorates a Store, caching records by id and the latest
// record per system.
type RedisCache struct {
	next   Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache caches next in the Redis server at addr.
func NewRedisCache(next Store, addr string, ttl time.Duration) *RedisCache {
	return NewRedisCacheWithClient(next, redis.NewClient(&redis.Options{Addr: addr}), ttl)
}

// NewRedisCacheWithClient uses an existing client.
func NewRedisCacheWithClient(next Store, client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: slog.Default().With("component", "store.redis"),
	}
}

func recordKey(id string) string      { return fmt.Sprintf("agiaef:record:%s", id) }
func latestKey(system string) string { return fmt.Sprintf("agiaef:latest:%s", system) }

// Save writes through to the underlying store, then refreshes the cache.
// Cache failures are logged, never returned.
func (c *RedisCache) Save(ctx context.Context, r *Record) error {
	if err := c.next.Save(ctx, r); err != nil {
		return err
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil
	}
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, recordKey(r.ID), data, c.ttl)
	pipe.Set(ctx, latestKey(r.SystemName), data, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.WarnContext(ctx, "cache write failed", "id", r.ID, "error", err)
	}
	return nil
}

func (c *RedisCache) Get(ctx context.Context, id string) (*Record, error) {
	if r, ok := c.lookup(ctx, recordKey(id)); ok {
		return r, nil
	}
	r, err := c.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(r); err == nil {
		if err := c.client.Set(ctx, recordKey(id), data, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "cache fill failed", "id", id, "error", err)
		}
	}
	return r, nil
}

func (c *RedisCache) ListBySystem(ctx context.Context, system string, limit int) ([]*Record, error) {
	return c.next.ListBySystem(ctx, system, limit)
}

// Latest returns the most recent record for system, from cache when
// possible.
func (c *RedisCache) Latest(ctx context.Context, system string) (*Record, error) {
	if r, ok := c.lookup(ctx, latestKey(system)); ok {
		return r, nil
	}
	return Latest(ctx, c.next, system)
}

func (c *RedisCache) lookup(ctx context.Context, key string) (*Record, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, false
	}
	return &r, true
}

// Close closes the client and the underlying store.
func (c *RedisCache) Close() error {
	return errors.Join(c.client.Close(), c.next.Close())
}
