package schematic

import "sync"

// Cache stores the content of URL sources between loads. Implementations
// need not be safe for concurrent use; the loader serializes access.
type Cache interface {
	// Read returns the cached content for url and whether it was found.
	Read(url string) (string, bool, error)

	// Write stores content for url.
	Write(url, content string) error
}

// NoCache is the default Cache: every read misses and writes are dropped.
type NoCache struct{}

func (NoCache) Read(string) (string, bool, error) { return "", false, nil }

func (NoCache) Write(string, string) error { return nil }

// MemoryCache keeps URL content in memory. It is safe for concurrent use
// and may be shared between loaders.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]string)}
}

func (c *MemoryCache) Read(url string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	content, ok := c.entries[url]
	return content, ok, nil
}

func (c *MemoryCache) Write(url, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url] = content
	return nil
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
