package cache

import (
	"container/list"
	"context"
	"encoding/json"
	"sync"
	"time"
)

const (
	defaultMemoryMaxEntries = 1024
	defaultMemorySweep      = time.Minute
)

// MemoryOption tunes the in-process backend.
type MemoryOption func(*MemoryCache)

// WithMemoryMaxSize caps the number of cached entries; the least
// recently used entry is evicted once the cap is hit.
func WithMemoryMaxSize(n int) MemoryOption {
	return func(m *MemoryCache) {
		if n > 0 {
			m.maxEntries = n
		}
	}
}

// WithMemorySweep overrides how often expired entries are swept out.
func WithMemorySweep(every time.Duration) MemoryOption {
	return func(m *MemoryCache) {
		if every > 0 {
			m.sweepEvery = every
		}
	}
}

type memoryEntry struct {
	key       string
	payload   []byte
	expiresAt time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryCache is an LRU cache with per-entry TTLs. Values are stored as
// their JSON encoding so a reader always gets a private copy and cannot
// mutate what later reads observe. Safe for concurrent use.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List // front = most recently used
	maxEntries int
	sweepEvery time.Duration
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewMemoryCache builds an in-process cache and starts its sweeper.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	m := &MemoryCache{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		maxEntries: defaultMemoryMaxEntries,
		sweepEvery: defaultMemorySweep,
		stop:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	go m.sweeper()
	return m
}

// Set stores value under key. A non-positive ttl means no expiry; the
// entry then lives until evicted by the size cap.
func (m *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.entries[key]; ok {
		ent := el.Value.(*memoryEntry)
		ent.payload = payload
		ent.expiresAt = expiresAt
		m.order.MoveToFront(el)
		return nil
	}
	m.entries[key] = m.order.PushFront(&memoryEntry{key: key, payload: payload, expiresAt: expiresAt})
	for len(m.entries) > m.maxEntries {
		if el := m.order.Back(); el != nil {
			m.removeLocked(el)
		}
	}
	return nil
}

// Get unmarshals the stored value into dest, or returns ErrCacheMiss.
func (m *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	el, ok := m.entries[key]
	if !ok {
		m.mu.Unlock()
		return ErrCacheMiss
	}
	ent := el.Value.(*memoryEntry)
	if ent.expired(time.Now()) {
		m.removeLocked(el)
		m.mu.Unlock()
		return ErrCacheMiss
	}
	m.order.MoveToFront(el)
	payload := ent.payload
	m.mu.Unlock()

	return json.Unmarshal(payload, dest)
}

func (m *MemoryCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		if el, ok := m.entries[key]; ok {
			m.removeLocked(el)
		}
	}
	return nil
}

func (m *MemoryCache) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	if el.Value.(*memoryEntry).expired(time.Now()) {
		m.removeLocked(el)
		return false, nil
	}
	return true, nil
}

// Close stops the background sweeper. Entries stay readable until the
// process exits.
func (m *MemoryCache) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	return nil
}

func (m *MemoryCache) removeLocked(el *list.Element) {
	m.order.Remove(el)
	delete(m.entries, el.Value.(*memoryEntry).key)
}

func (m *MemoryCache) sweeper() {
	ticker := time.NewTicker(m.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for el := m.order.Back(); el != nil; {
				prev := el.Prev()
				if el.Value.(*memoryEntry).expired(now) {
					m.removeLocked(el)
				}
				el = prev
			}
			m.mu.Unlock()
		}
	}
}
