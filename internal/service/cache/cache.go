// Package cache is the small in-process response cache for the HTTP layer.
// Values are pre-encoded JSON payloads, so the store works on raw bytes;
// candle caching lives in pkg/cache and is a separate concern.
package cache

import (
	"sync"
	"time"
)

// BytesCache stores raw bytes under a key with a TTL.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}

type entry struct {
	payload []byte
	expires time.Time
}

// TTLCache is a mutex-guarded map with per-entry expiry. Expired entries are
// evicted lazily on read and swept on write once the map grows.
type TTLCache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

const sweepThreshold = 256

func NewTTLCache() *TTLCache {
	return &TTLCache{entries: make(map[string]entry)}
}

var _ BytesCache = (*TTLCache)(nil)

func (c *TTLCache) GetBytes(key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return e.payload, true, nil
}

func (c *TTLCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}
	c.mu.Lock()
	if len(c.entries) >= sweepThreshold {
		now := time.Now()
		for k, e := range c.entries {
			if !e.expires.IsZero() && now.After(e.expires) {
				delete(c.entries, k)
			}
		}
	}
	c.entries[key] = entry{payload: value, expires: expires}
	c.mu.Unlock()
	return nil
}
