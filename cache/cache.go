// Package cache keeps recent page snapshots in memory so repeated extract
// requests for the same URL can skip the browser.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/use-agent/pagecast/models"
)

type entry struct {
	page      *models.PageContent
	createdAt time.Time
}

// Cache is a bounded, TTL-limited snapshot cache. It is safe for concurrent
// use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
	done       chan struct{}
	closeOnce  sync.Once
}

// New creates a Cache holding at most maxEntries snapshots. Entries older
// than ttl are pruned by a background sweep; call Close to stop it.
func New(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
		done:       make(chan struct{}),
	}
	if ttl > 0 {
		go c.cleanupLoop()
	}
	return c
}

// Key derives a cache key from the page URL and the optional CSS selector the
// snapshot was narrowed to.
func Key(url, selector string) string {
	h := sha256.New()
	h.Write([]byte(url))
	h.Write([]byte("|"))
	h.Write([]byte(selector))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the snapshot stored under key when it is younger than maxAge.
// A non-positive maxAge disables the lookup.
func (c *Cache) Get(key string, maxAge time.Duration) (*models.PageContent, bool) {
	if maxAge <= 0 {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok || c.now().Sub(e.createdAt) > maxAge {
		return nil, false
	}
	return e.page, true
}

// Set stores a snapshot. When the cache is full the oldest entry is evicted.
func (c *Cache) Set(key string, page *models.PageContent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.store {
			if oldestKey == "" || e.createdAt.Before(oldest) {
				oldestKey, oldest = k, e.createdAt
			}
		}
		delete(c.store, oldestKey)
	}

	c.store[key] = &entry{page: page, createdAt: c.now()}
}

// Len returns the number of stored snapshots.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Close stops the background sweep.
func (c *Cache) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Cache) prune() {
	cutoff := c.now().Add(-c.ttl)
	c.mu.Lock()
	for k, e := range c.store {
		if e.createdAt.Before(cutoff) {
			delete(c.store, k)
		}
	}
	c.mu.Unlock()
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.prune()
		}
	}
}
