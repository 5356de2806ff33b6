package infra

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

const (
	DefaultMaxCacheEntries = 1000            // Maximum number of cache entries
	DefaultCacheCleanup    = 2 * time.Minute // How often expired entries are swept
)

type cacheEntry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

// Cache is a bounded LRU cache with per-entry TTL. Keys are plain strings so
// whole groups (for example "people/") can be dropped with DeletePrefix.
type Cache[V any] struct {
	mu         sync.Mutex
	items      map[string]*list.Element
	order      *list.List // front = most recently used
	maxEntries int
	evictions  int64

	// OnEvict, when set, is called for every entry pushed out by the size limit.
	OnEvict func(key string)

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewCache creates a cache holding at most maxEntries values.
func NewCache[V any](maxEntries int) *Cache[V] {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxCacheEntries
	}
	c := &Cache[V]{
		items:      make(map[string]*list.Element),
		order:      list.New(),
		maxEntries: maxEntries,
		stopCh:     make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Get returns the value for key if present and unexpired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	entry := el.Value.(*cacheEntry[V])
	if time.Now().After(entry.expiresAt) {
		c.removeElement(el)
		return zero, false
	}
	c.order.MoveToFront(el)
	return entry.value, true
}

// Set stores value under key for ttl.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := time.Now().Add(ttl)
	if el, ok := c.items[key]; ok {
		entry := el.Value.(*cacheEntry[V])
		entry.value = value
		entry.expiresAt = expires
		c.order.MoveToFront(el)
		return
	}

	c.items[key] = c.order.PushFront(&cacheEntry[V]{key: key, value: value, expiresAt: expires})
	for c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		evicted := oldest.Value.(*cacheEntry[V]).key
		c.removeElement(oldest)
		c.evictions++
		if c.OnEvict != nil {
			c.OnEvict(evicted)
		}
	}
}

// Delete removes a single key.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}
}

// DeletePrefix removes every entry whose key starts with prefix and returns how many were dropped.
func (c *Cache[V]) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, el := range c.items {
		if strings.HasPrefix(key, prefix) {
			c.removeElement(el)
			removed++
		}
	}
	return removed
}

// Size returns the number of stored entries, including expired ones not yet swept.
func (c *Cache[V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Evictions returns how many entries were pushed out by the size limit.
func (c *Cache[V]) Evictions() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictions
}

// Close stops the background sweeper. The cache stays usable.
func (c *Cache[V]) Close() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
}

func (c *Cache[V]) removeElement(el *list.Element) {
	entry := el.Value.(*cacheEntry[V])
	delete(c.items, entry.key)
	c.order.Remove(el)
}

func (c *Cache[V]) cleanupLoop() {
	ticker := time.NewTicker(DefaultCacheCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

// cleanup drops expired entries.
func (c *Cache[V]) cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if now.After(el.Value.(*cacheEntry[V]).expiresAt) {
			c.removeElement(el)
			removed++
		}
		el = prev
	}
	return removed
}
