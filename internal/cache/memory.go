package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// memoryEntry is a memoized value with expiration
type memoryEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// MemoryCache is an in-memory LRU cache with TTL support. Unlike Cache it carries no
// fetch status; it memoizes results of lookups that rarely change.
type MemoryCache[V any] struct {
	cache *lru.Cache[string, *memoryEntry[V]]
	ttl   time.Duration
	mu    sync.RWMutex

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryCache creates a new in-memory cache holding at most size values
func NewMemoryCache[V any](size int, ttl time.Duration) (*MemoryCache[V], error) {
	c, err := lru.New[string, *memoryEntry[V]](size)
	if err != nil {
		return nil, err
	}

	mc := &MemoryCache[V]{
		cache: c,
		ttl:   ttl,
		stop:  make(chan struct{}),
	}

	go mc.cleanupLoop()

	return mc, nil
}

// Get retrieves a value from the cache
func (mc *MemoryCache[V]) Get(key string) (V, bool) {
	var zero V

	mc.mu.RLock()
	entry, ok := mc.cache.Get(key)
	mc.mu.RUnlock()

	if !ok {
		return zero, false
	}

	if time.Now().After(entry.expiresAt) {
		mc.mu.Lock()
		mc.cache.Remove(key)
		mc.mu.Unlock()
		return zero, false
	}

	return entry.value, true
}

// Set stores a value in the cache
func (mc *MemoryCache[V]) Set(key string, value V) {
	entry := &memoryEntry[V]{
		value:     value,
		expiresAt: time.Now().Add(mc.ttl),
	}

	mc.mu.Lock()
	mc.cache.Add(key, entry)
	mc.mu.Unlock()
}

// Purge removes every value
func (mc *MemoryCache[V]) Purge() {
	mc.mu.Lock()
	mc.cache.Purge()
	mc.mu.Unlock()
}

// Len returns the number of stored values, expired ones included until swept
func (mc *MemoryCache[V]) Len() int {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.cache.Len()
}

// Close stops the cleanup goroutine
func (mc *MemoryCache[V]) Close() {
	mc.stopOnce.Do(func() { close(mc.stop) })
}

// cleanupLoop periodically removes expired entries
func (mc *MemoryCache[V]) cleanupLoop() {
	interval := mc.ttl / 2
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-mc.stop:
			return
		case <-ticker.C:
			mc.removeExpired()
		}
	}
}

// removeExpired removes all expired entries from the cache
func (mc *MemoryCache[V]) removeExpired() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := time.Now()
	for _, key := range mc.cache.Keys() {
		entry, ok := mc.cache.Peek(key)
		if ok && now.After(entry.expiresAt) {
			mc.cache.Remove(key)
		}
	}
}
