package cache

import (
	"context"
	"sync"
	"time"

	"github.com/evyataryagoni/ipinfobot/internal/models"
)

type memoryEntry struct {
	result    models.LookupResult
	expiresAt time.Time
}

// MemoryCache keeps results in process memory
// Thread-safe using sync.Map, suitable for single-instance deployments
type MemoryCache struct {
	entries     sync.Map // map[string]memoryEntry - keyed by IP address
	ttl         time.Duration
	now         func() time.Time
	cleanupMu   sync.Mutex
	lastCleanup time.Time
}

// NewMemoryCache creates an in-memory cache with the given TTL
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:         ttl,
		now:         time.Now,
		lastCleanup: time.Now(),
	}
}

// Get implements the Cache interface
func (c *MemoryCache) Get(ctx context.Context, ip string) (*models.LookupResult, error) {
	value, ok := c.entries.Load(ip)
	if !ok {
		return nil, ErrCacheMiss
	}

	entry := value.(memoryEntry)
	if !c.now().Before(entry.expiresAt) {
		c.entries.Delete(ip)
		return nil, ErrCacheMiss
	}

	result := entry.result
	return &result, nil
}

// Set implements the Cache interface
func (c *MemoryCache) Set(ctx context.Context, ip string, result *models.LookupResult) error {
	c.entries.Store(ip, memoryEntry{
		result:    *result,
		expiresAt: c.now().Add(c.ttl),
	})
	c.maybeCleanup()
	return nil
}

// maybeCleanup periodically drops expired entries to bound memory
func (c *MemoryCache) maybeCleanup() {
	c.cleanupMu.Lock()
	defer c.cleanupMu.Unlock()

	now := c.now()
	if now.Sub(c.lastCleanup) < 5*time.Minute {
		return
	}

	c.entries.Range(func(key, value any) bool {
		if !now.Before(value.(memoryEntry).expiresAt) {
			c.entries.Delete(key)
		}
		return true
	})

	c.lastCleanup = now
}

// Len returns the number of stored entries, expired ones included
func (c *MemoryCache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Name implements the Cache interface
func (c *MemoryCache) Name() string { return "memory" }

// Close implements the Cache interface
// Nothing to clean up for the in-memory implementation
func (c *MemoryCache) Close() error { return nil }
