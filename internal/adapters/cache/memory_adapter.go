package cache

import (
	"context"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/sunuchoix/search-backend/internal/domain/providers"
	"github.com/sunuchoix/search-backend/internal/infrastructure/observability"
	apperrors "github.com/sunuchoix/search-backend/pkg/errors"
)

const (
	// DefaultTTLSeconds applies when Set is called with a non-positive TTL.
	DefaultTTLSeconds = 300

	// DefaultCapacity bounds the store when no capacity is configured.
	DefaultCapacity = 1000
)

type entry struct {
	value      []byte
	insertedAt time.Time
	ttl        time.Duration
}

func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.insertedAt) > e.ttl
}

// Stats reports cumulative cache counters. Hits, misses and response times
// accumulate across the process lifetime and reset only on Clear.
type Stats struct {
	Size            int
	Hits            int64
	Misses          int64
	HitRate         float64
	AvgResponseTime time.Duration
}

// MemoryCache is a bounded in-process key/value store with per-entry TTL.
// When full it evicts the single oldest-inserted entry before inserting
// (insertion-order eviction, not LRU-on-read). All operations are safe for
// concurrent use; no lock is held across I/O.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]*entry
	order      []string // insertion order, oldest first
	capacity   int
	defaultTTL time.Duration

	hits      int64
	misses    int64
	totalTime time.Duration
	lookups   int64
}

var _ providers.CacheProvider = (*MemoryCache)(nil)

// NewMemoryCache creates a bounded in-memory cache. Non-positive arguments
// fall back to the defaults.
func NewMemoryCache(capacity, ttlSeconds int) *MemoryCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttlSeconds <= 0 {
		ttlSeconds = DefaultTTLSeconds
	}
	return &MemoryCache{
		entries:    make(map[string]*entry, capacity),
		capacity:   capacity,
		defaultTTL: time.Duration(ttlSeconds) * time.Second,
	}
}

// Get retrieves a value. Absent and expired keys return a not-found error;
// expired entries are removed lazily.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	start := time.Now()
	c.mu.Lock()
	defer func() {
		c.totalTime += time.Since(start)
		c.lookups++
		c.mu.Unlock()
	}()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, apperrors.NewNotFoundError("cache key not found: " + key)
	}
	if e.expired(time.Now()) {
		c.removeLocked(key)
		c.misses++
		return nil, apperrors.NewNotFoundError("cache key expired: " + key)
	}

	c.hits++
	value := make([]byte, len(e.value))
	copy(value, e.value)
	return value, nil
}

// Set stores a value. A re-set key counts as a fresh insertion for eviction
// ordering.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, expirationSeconds int) error {
	ttl := c.defaultTTL
	if expirationSeconds > 0 {
		ttl = time.Duration(expirationSeconds) * time.Second
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.removeFromOrderLocked(key)
	} else if len(c.entries) >= c.capacity {
		// Evict the single oldest-inserted entry to make room.
		oldest := c.order[0]
		c.removeLocked(oldest)
	}

	c.entries[key] = &entry{value: stored, insertedAt: time.Now(), ttl: ttl}
	c.order = append(c.order, key)
	return nil
}

// Delete removes a single key. Deleting an absent key is not an error.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
	return nil
}

// DeletePattern removes all keys matching a glob pattern ("*" wildcards).
// A pattern without wildcards removes exactly that key.
func (c *MemoryCache) DeletePattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !strings.ContainsAny(pattern, "*?[") {
		c.removeLocked(pattern)
		return nil
	}

	for key := range c.entries {
		if ok, _ := path.Match(pattern, key); ok {
			c.removeLocked(key)
		}
	}
	return nil
}

// Cleanup removes every expired entry and returns the count removed.
// Intended to run on a fixed interval independent of request traffic.
func (c *MemoryCache) Cleanup() int {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			c.removeLocked(key)
			removed++
		}
	}
	return removed
}

// StartJanitor runs Cleanup on the given interval until ctx is cancelled.
func (c *MemoryCache) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := c.Cleanup(); removed > 0 {
					observability.GetLogger().Debug().
						Int("removed", removed).
						Msg("cache janitor swept expired entries")
				}
			}
		}
	}()
}

// Stats returns cumulative counters.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Size:   len(c.entries),
		Hits:   c.hits,
		Misses: c.misses,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	if c.lookups > 0 {
		s.AvgResponseTime = c.totalTime / time.Duration(c.lookups)
	}
	return s
}

// Clear drops all entries and resets the cumulative counters.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry, c.capacity)
	c.order = nil
	c.hits = 0
	c.misses = 0
	c.totalTime = 0
	c.lookups = 0
}

// Len returns the current entry count.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) removeLocked(key string) {
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	c.removeFromOrderLocked(key)
}

func (c *MemoryCache) removeFromOrderLocked(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
