package cache

import (
	"sync"
	"time"
)

// Item is a cached value with its expiry.
type Item[V any] struct {
	Value     V
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (i Item[V]) expired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// Cache is a thread-safe in-memory map whose entries expire after a TTL.
// Reads never return expired entries; a background loop removes them.
type Cache[K comparable, V any] struct {
	items           map[K]Item[V]
	mu              sync.RWMutex
	defaultTTL      time.Duration
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
	now             func() time.Time
}

// New creates a cache with the given default TTL and starts its cleanup loop.
func New[K comparable, V any](defaultTTL time.Duration) *Cache[K, V] {
	c := &Cache[K, V]{
		items:           make(map[K]Item[V]),
		defaultTTL:      defaultTTL,
		cleanupInterval: cleanupInterval(defaultTTL),
		stopCleanup:     make(chan struct{}),
		now:             time.Now,
	}

	go c.cleanup()

	return c
}

func cleanupInterval(ttl time.Duration) time.Duration {
	interval := ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	if interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	return interval
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[key]
	if !ok || item.expired(c.now()) {
		var zero V
		return zero, false
	}
	return item.Value, true
}

// Set stores value under key with the default TTL.
func (c *Cache[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

func (c *Cache[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.items[key] = Item[V]{Value: value, ExpiresAt: now.Add(ttl), CreatedAt: now}
}

// SetIfAbsent stores value only when key holds no live entry.
func (c *Cache[K, V]) SetIfAbsent(key K, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if item, ok := c.items[key]; ok && !item.expired(now) {
		return false
	}
	c.items[key] = Item[V]{Value: value, ExpiresAt: now.Add(c.defaultTTL), CreatedAt: now}
	return true
}

// Replace overwrites a live entry and renews its TTL. It reports false when
// the key is missing or expired.
func (c *Cache[K, V]) Replace(key K, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	item, ok := c.items[key]
	if !ok || item.expired(now) {
		return false
	}
	c.items[key] = Item[V]{Value: value, ExpiresAt: now.Add(c.defaultTTL), CreatedAt: item.CreatedAt}
	return true
}

// Delete removes key and reports whether a live entry was there.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	delete(c.items, key)
	return ok && !item.expired(c.now())
}

// Len counts live entries.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	n := 0
	for _, item := range c.items {
		if !item.expired(now) {
			n++
		}
	}
	return n
}

// Purge drops every expired entry and returns how many were removed.
func (c *Cache[K, V]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, item := range c.items {
		if item.expired(now) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

func (c *Cache[K, V]) cleanup() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Purge()
		case <-c.stopCleanup:
			return
		}
	}
}

// Stop ends the cleanup loop. It is safe to call more than once.
func (c *Cache[K, V]) Stop() {
	c.stopOnce.Do(func() { close(c.stopCleanup) })
}
