package policy

import (
	"context"
	"sync"
	"time"
)

// DefaultCacheTTL is how long a loaded policy is reused.
const DefaultCacheTTL = 30 * time.Second

// cacheEntry holds a cached policy with its expiration time.
type cacheEntry struct {
	policy *TravelPolicy
	expiry time.Time
}

// CachedLoader wraps a PolicyLoader with in-memory TTL-based caching.
// It is safe for concurrent use.
type CachedLoader struct {
	loader PolicyLoader
	mu     sync.RWMutex
	cache  map[string]*cacheEntry
	ttl    time.Duration
}

// NewCachedLoader creates a new CachedLoader that wraps the given loader
// and caches results for the specified TTL duration.
func NewCachedLoader(loader PolicyLoader, ttl time.Duration) *CachedLoader {
	return &CachedLoader{
		loader: loader,
		cache:  make(map[string]*cacheEntry),
		ttl:    ttl,
	}
}

// Load fetches a policy by parameter name, using cached values when available.
// Errors are not cached.
func (c *CachedLoader) Load(ctx context.Context, parameterName string) (*TravelPolicy, error) {
	c.mu.RLock()
	if entry, ok := c.cache[parameterName]; ok && time.Now().Before(entry.expiry) {
		c.mu.RUnlock()
		return entry.policy, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another goroutine may have populated the entry.
	if entry, ok := c.cache[parameterName]; ok && time.Now().Before(entry.expiry) {
		return entry.policy, nil
	}

	policy, err := c.loader.Load(ctx, parameterName)
	if err != nil {
		return nil, err
	}

	c.cache[parameterName] = &cacheEntry{
		policy: policy,
		expiry: time.Now().Add(c.ttl),
	}
	return policy, nil
}
