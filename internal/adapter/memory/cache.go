package memory

import (
	"sync"
	"time"

	"atlas-ads/internal/core/port"
)

// Cache is an in-process expiring key-value store implementing
// port.Cache. Fill races are last-writer-wins; the TTL bounds staleness.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

type cacheEntry struct {
	ads       []port.AdPayload
	expiresAt time.Time
}

// NewCache creates a cache and starts a janitor that sweeps expired
// entries once a minute. Call Close to stop the janitor.
func NewCache() *Cache {
	c := &Cache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go c.janitor(time.Minute)
	return c
}

// Get returns a copy of the cached payload for key, or false when absent
// or expired. Expired entries are dropped eagerly; the copy keeps callers
// from mutating the stored entry.
func (c *Cache) Get(key string) ([]port.AdPayload, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && c.now().After(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return append([]port.AdPayload(nil), entry.ads...), true
}

// Set stores the payload under key for ttl.
func (c *Cache) Set(key string, ads []port.AdPayload, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{ads: ads, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

// Close stops the janitor goroutine.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *Cache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			now := c.now()
			c.mu.Lock()
			for key, entry := range c.entries {
				if now.After(entry.expiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}
