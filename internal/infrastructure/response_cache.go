package infrastructure

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultCacheTTL        = 300 * time.Second
	DefaultCacheMaxEntries = 1024
)

// ResponseCache memoizes read calls of one platform client. Entries expire after ttl
// and the least recently used key is evicted once maxEntries is reached.
type ResponseCache struct {
	entries *lru.Cache[string, cacheEntry]
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	value    any
	storedAt time.Time
}

func NewResponseCache(maxEntries int, ttl time.Duration, now func() time.Time) *ResponseCache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}

	// only fails for a non-positive size
	entries, _ := lru.New[string, cacheEntry](maxEntries)

	return &ResponseCache{
		entries: entries,
		ttl:     ttl,
		now:     now,
	}
}

// Get returns the value stored under key if it is younger than the TTL
func (c *ResponseCache) Get(key string) (any, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}

	if c.now().Sub(entry.storedAt) >= c.ttl {
		c.entries.Remove(key)
		return nil, false
	}

	return entry.value, true
}

// Set replaces whatever is stored under key
func (c *ResponseCache) Set(key string, value any) {
	c.entries.Add(key, cacheEntry{value: value, storedAt: c.now()})
}

func (c *ResponseCache) Purge() {
	c.entries.Purge()
}

func (c *ResponseCache) Len() int {
	return c.entries.Len()
}
