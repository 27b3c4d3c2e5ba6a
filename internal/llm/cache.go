package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

type cacheEntry struct {
	expiry  time.Time
	content []byte
}

// responseCache holds schema-valid inference output. Expired entries are
// skipped on read and swept on write, so the cache owns no goroutine.
type responseCache struct {
	entries   map[string]cacheEntry
	now       func() time.Time
	lastSweep time.Time
	ttl       time.Duration
	mu        sync.Mutex
}

func newResponseCache(ttl time.Duration) *responseCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	return &responseCache{
		entries:   make(map[string]cacheEntry),
		ttl:       ttl,
		now:       time.Now,
		lastSweep: time.Now(),
	}
}

// cacheKey hashes the request parts into a fixed-size key.
func cacheKey(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *responseCache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		return nil, false
	}
	if !c.now().Before(entry.expiry) {
		delete(c.entries, key)
		return nil, false
	}

	out := make([]byte, len(entry.content))
	copy(out, entry.content)
	return out, true
}

func (c *responseCache) set(key string, content []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Sub(c.lastSweep) >= c.ttl {
		for k, entry := range c.entries {
			if !now.Before(entry.expiry) {
				delete(c.entries, k)
			}
		}
		c.lastSweep = now
	}

	stored := make([]byte, len(content))
	copy(stored, content)
	c.entries[key] = cacheEntry{
		content: stored,
		expiry:  now.Add(c.ttl),
	}
}

func (c *responseCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// size counts stored entries, expired ones included until swept.
func (c *responseCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
