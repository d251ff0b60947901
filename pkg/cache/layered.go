package cache

import (
	"context"
	"time"
)

// promoteTTL bounds how long an L2 hit stays in L1. Candle windows are
// short-lived, so a stale L1 entry must not outlive the redis TTL.
const promoteTTL = 30 * time.Second

// LayeredOption configures the layered backend.
type LayeredOption func(*LayeredCache)

// WithLayeredMemorySize sets the entry cap of the in-process layer.
func WithLayeredMemorySize(n int) LayeredOption {
	return func(lc *LayeredCache) {
		if n > 0 {
			lc.memSize = n
		}
	}
}

// LayeredCache keeps hot candle windows in process memory in front of a
// shared redis layer. Reads check memory first; writes go through to
// redis so other scanner instances see them.
type LayeredCache struct {
	mem     *MemoryCache
	redis   *RedisCache
	memSize int
}

// NewLayeredCache wraps an in-process layer around redisCache.
func NewLayeredCache(redisCache *RedisCache, opts ...LayeredOption) *LayeredCache {
	lc := &LayeredCache{redis: redisCache, memSize: defaultMemoryMaxEntries}
	for _, opt := range opts {
		opt(lc)
	}
	lc.mem = NewMemoryCache(WithMemoryMaxSize(lc.memSize))
	return lc
}

// Set writes through to redis first; the memory layer is best effort.
func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := lc.redis.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	_ = lc.mem.Set(ctx, key, value, ttl)
	return nil
}

// Get reads from memory, falls back to redis, and promotes redis hits
// into memory for the next read.
func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := lc.mem.Get(ctx, key, dest); err == nil {
		return nil
	}
	if err := lc.redis.Get(ctx, key, dest); err != nil {
		return err
	}
	_ = lc.mem.Set(ctx, key, dest, promoteTTL)
	return nil
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.mem.Delete(ctx, keys...)
	return lc.redis.Delete(ctx, keys...)
}

// Exists consults redis only; the memory layer is a subset of it.
func (lc *LayeredCache) Exists(ctx context.Context, key string) (bool, error) {
	return lc.redis.Exists(ctx, key)
}

// Close shuts down both layers.
func (lc *LayeredCache) Close() error {
	_ = lc.mem.Close()
	return lc.redis.Close()
}
