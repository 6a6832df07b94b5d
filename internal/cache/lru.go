// Package cache provides the in-process caches (a bounded TTL LRU and a
// category-keyed store) and the Redis-backed durable cache.
package cache

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/tbourn/civics-backend/internal/observability"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache is a bounded least-recently-used cache whose entries carry an
// absolute expiry. An expired entry is treated as absent and dropped on the
// next Get even if capacity never forced it out. Safe for concurrent use;
// mu makes the expiry check and the removal in Get one step, so a Set that
// races a Get of an expired entry is never dropped.
type TTLCache[V any] struct {
	mu         sync.Mutex
	name       string
	items      *simplelru.LRU[string, entry[V]]
	defaultTTL time.Duration
	now        func() time.Time
}

// NewTTLCache returns a cache holding at most size entries. name labels the
// cache in metrics.
func NewTTLCache[V any](name string, size int, defaultTTL time.Duration) *TTLCache[V] {
	if size < 1 {
		size = 500
	}
	if defaultTTL <= 0 {
		defaultTTL = 30 * time.Minute
	}
	items, _ := simplelru.NewLRU[string, entry[V]](size, nil) // only errors on size <= 0
	return &TTLCache[V]{name: name, items: items, defaultTTL: defaultTTL, now: time.Now}
}

// Get returns the live value under key and marks it most recently used.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	e, ok := c.items.Get(key)
	if ok && !c.now().Before(e.expiresAt) {
		c.items.Remove(key)
		ok = false
	}
	c.mu.Unlock()
	observability.CacheLookup(c.name, ok)
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for ttl, or the cache default when ttl is
// omitted. At capacity the least recently used entry is evicted.
func (c *TTLCache[V]) Set(key string, value V, ttl ...time.Duration) {
	d := c.defaultTTL
	if len(ttl) > 0 && ttl[0] > 0 {
		d = ttl[0]
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Add(key, entry[V]{value: value, expiresAt: c.now().Add(d)})
}

// Delete removes key.
func (c *TTLCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Remove(key)
}

// Len counts stored entries, expired ones included until they are touched.
func (c *TTLCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.Len()
}

// Purge empties the cache.
func (c *TTLCache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Purge()
}
