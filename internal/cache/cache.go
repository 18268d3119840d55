// Package cache provides an in-process response cache for upstream fetches:
// concurrent requests for the same key collapse into one in-flight fetch, and
// successful results are served from memory until their TTL elapses. Errors
// are never cached. Entries expire lazily on access; there is no background
// sweep.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Default TTLs per resource type, derived from the request path. Poems are
// treated as immutable and cached the longest.
const (
	TTLPoetList = 10 * time.Minute
	TTLPoet     = 5 * time.Minute
	TTLCategory = 30 * time.Minute
	TTLPoem     = time.Hour

	ttlDefault = 5 * time.Minute
)

// TTLFor derives a default TTL from the shape of the resource key.
func TTLFor(key string) time.Duration {
	switch {
	case strings.Contains(key, "/poem/"):
		return TTLPoem
	case strings.Contains(key, "/cat/"):
		return TTLCategory
	case strings.Contains(key, "/poet/"):
		return TTLPoet
	case strings.Contains(key, "/poets"):
		return TTLPoetList
	default:
		return ttlDefault
	}
}

type entry struct {
	value    any
	storedAt time.Time
	ttl      time.Duration
}

// Cache is a TTL response cache with request de-duplication. Construct with
// New and inject it; it has no package-level state.
type Cache struct {
	log   *slog.Logger
	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]entry

	// now is swappable in tests.
	now func() time.Time
}

// New creates an empty Cache.
func New(logger *slog.Logger) *Cache {
	return &Cache{
		log:     logger.With("component", "cache"),
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// GetOrFetch returns the cached value for key if it is still fresh, otherwise
// invokes fetch and stores its result. Concurrent calls for the same key
// share a single fetch. A ttl of 0 uses TTLFor(key).
func (c *Cache) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch func(ctx context.Context) (any, error)) (any, error) {
	if ttl <= 0 {
		ttl = TTLFor(key)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if cached, ok := c.lookup(key); ok {
			return cached, nil
		}

		value, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		c.store(key, value, ttl)
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// lookup returns a fresh entry's value. Expired entries are deleted on access.
func (c *Cache) lookup(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if c.now().Sub(e.storedAt) > e.ttl {
		c.mu.Lock()
		// Re-check under the write lock; a fresher entry may have landed.
		if cur, ok := c.entries[key]; ok && c.now().Sub(cur.storedAt) > cur.ttl {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return e.value, true
}

func (c *Cache) store(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, storedAt: c.now(), ttl: ttl}
	c.mu.Unlock()
}

// Clear removes a single entry.
func (c *Cache) Clear(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// ClearAll removes every entry.
func (c *Cache) ClearAll() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Get is the typed front door to Cache.GetOrFetch.
func Get[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fetch func(ctx context.Context) (T, error)) (T, error) {
	v, err := c.GetOrFetch(ctx, key, ttl, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}

	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache: key %q holds %T, not %T", key, v, zero)
	}
	return typed, nil
}
