// Package cache is the process-local read-through cache for hot entities.
//
// Entries expire independently after the ttl given to Set; a later Set on the
// same key replaces the previous expiry. Invalidate is synchronous. The cache
// is never the source of truth and is always safe to Clear.
//
// Read-through callers should take a Stamp before reading the store and
// publish with SetIfStamp: if the key was invalidated (or the cache cleared)
// in between, the possibly stale value is dropped instead of cached.
package cache

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultCleanupInterval is how often expired entries are purged from memory.
// Expired entries are never returned regardless of this interval.
const DefaultCleanupInterval = time.Minute

// Stamp identifies the invalidation generation of a key at a point in time.
type Stamp struct {
	epoch uint64
	gen   uint64
}

// Cache is a typed TTL map safe for concurrent use.
type Cache[V any] struct {
	store *gocache.Cache

	mu    sync.Mutex
	epoch uint64
	gens  map[string]uint64
}

// New returns an empty cache purging expired entries every cleanupInterval.
func New[V any](cleanupInterval time.Duration) *Cache[V] {
	return &Cache[V]{
		store: gocache.New(gocache.NoExpiration, cleanupInterval),
		gens:  make(map[string]uint64),
	}
}

// Set stores v under key for ttl. A non-positive ttl never expires.
func (c *Cache[V]) Set(key string, v V, ttl time.Duration) {
	c.store.Set(key, v, normalizeTTL(ttl))
}

// Get returns the live value for key.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	raw, ok := c.store.Get(key)
	if !ok {
		return zero, false
	}
	v, ok := raw.(V)
	if !ok {
		return zero, false
	}
	return v, true
}

// Has reports whether key holds a live value.
func (c *Cache[V]) Has(key string) bool {
	_, ok := c.store.Get(key)
	return ok
}

// Invalidate drops key and bumps its generation.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[key]++
	c.store.Delete(key)
}

// Clear drops every entry and outdates every outstanding Stamp.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.gens = make(map[string]uint64)
	c.store.Flush()
}

// Len returns the number of stored entries, including expired ones not yet purged.
func (c *Cache[V]) Len() int {
	return c.store.ItemCount()
}

// Stamp captures the current generation of key.
func (c *Cache[V]) Stamp(key string) Stamp {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stamp{epoch: c.epoch, gen: c.gens[key]}
}

// SetIfStamp stores v only when key has not been invalidated since s was taken.
func (c *Cache[V]) SetIfStamp(key string, v V, ttl time.Duration, s Stamp) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.epoch != c.epoch || s.gen != c.gens[key] {
		return false
	}
	c.store.Set(key, v, normalizeTTL(ttl))
	return true
}

func normalizeTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return gocache.NoExpiration
	}
	return ttl
}
