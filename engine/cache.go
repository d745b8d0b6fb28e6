package engine

import (
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

const (
	defaultCacheEntries = 1000
	defaultCacheTTL     = 300 * time.Second
)

type cacheEntry struct {
	result    *QueryResult
	expiresAt time.Time
}

// Cache is a bounded, TTL-expiring cache of Select results keyed by exact
// SQL text. Concurrent misses for the same text collapse onto a single
// execution via the embedded singleflight group, so a burst of identical
// queries against a cold cache does not all fall through to the executor.
type Cache struct {
	mu      sync.Mutex
	entries *lru.Cache[string, cacheEntry]
	ttl     time.Duration
	group   singleflight.Group
}

// NewCache creates a Cache of the given bounded size and per-entry TTL.
// Zero values fall back to the documented defaults (1000 entries, 300s).
func NewCache(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = defaultCacheEntries
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	c, _ := lru.New[string, cacheEntry](maxEntries)
	return &Cache{entries: c, ttl: ttl}
}

// Get returns the cached result for sql if present and unexpired.
func (c *Cache) Get(sql string) (*QueryResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries.Get(sql)
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.entries.Remove(sql)
		return nil, false
	}
	return entry.result, true
}

// Put stores result under sql, but only when it is a Select result — the
// cache never stores anything else.
func (c *Cache) Put(sql string, result *QueryResult) {
	if result.Kind != SelectResult {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Add(sql, cacheEntry{result: result, expiresAt: time.Now().Add(c.ttl)})
}

// InvalidateTable drops every cached entry whose SQL text, uppercased,
// contains "FROM <NAME>" or "JOIN <NAME>" as a substring. Only a single
// space between the keyword and the name is matched, so text that
// separates them with a newline or several spaces is not dropped. The
// substring match can also false-positive on cross-table text (a name
// that is a prefix of another), which only costs an extra invalidation.
func (c *Cache) InvalidateTable(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	upper := strings.ToUpper(name)
	fromNeedle := "FROM " + upper
	joinNeedle := "JOIN " + upper

	for _, key := range c.entries.Keys() {
		u := strings.ToUpper(key)
		if strings.Contains(u, fromNeedle) || strings.Contains(u, joinNeedle) {
			c.entries.Remove(key)
		}
	}
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Purge()
}

// GetOrCompute returns the cached result for sql, or computes it via fn,
// collapsing concurrent callers for the same sql into one computation.
func (c *Cache) GetOrCompute(sql string, fn func() (*QueryResult, error)) (*QueryResult, error, bool) {
	if cached, ok := c.Get(sql); ok {
		return cached, nil, true
	}
	v, err, _ := c.group.Do(sql, func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return nil, err, false
	}
	result := v.(*QueryResult)
	c.Put(sql, result)
	return result, nil, false
}
