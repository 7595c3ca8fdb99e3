package judge

import (
	"context"
	"sync"
	"time"

	"github.com/gurenolun/fly-eval/internal/ports"
)

var _ ports.CacheStore = (*MemoryCache)(nil)

// MemoryCache is an in-process CacheStore for judge verdicts. Entries
// never expire on their own; a fingerprint only changes when the
// evidence, prompt, or rubric changes, which is exactly when a cached
// verdict stops being valid.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]any
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]any)}
}

// Get retrieves a cached value by key.
func (c *MemoryCache) Get(_ context.Context, key string) (any, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok, nil
}

// Set stores a value under a key. The expiration is ignored; entries
// live until Delete or Clear.
func (c *MemoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

// Delete removes a key.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// Clear removes every entry.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]any)
	return nil
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
