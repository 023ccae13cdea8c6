// Package memocache is a process-local memo of resolver responses, keyed by
// request shape and expired by a fixed window. It exists to keep repeated
// lookups off the upstream platform; it is not a consistency mechanism.
package memocache

import (
	"fmt"
	"sync"
	"time"
)

// DefaultTTL is the lifetime of an entry measured from insertion.
const DefaultTTL = time.Hour

type entry struct {
	payload    any
	insertedAt time.Time
}

// Cache is a TTL-expiring key/value memo. Concurrent writers to the same key
// race and the last writer wins; the short TTL makes that acceptable, so
// there is no per-key locking or single-flight.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// New returns a cache with the default one-hour TTL and wall-clock time.
func New() *Cache {
	return NewWithClock(DefaultTTL, time.Now)
}

// NewWithClock returns a cache with an explicit TTL and clock, for
// deterministic expiry in tests.
func NewWithClock(ttl time.Duration, now func() time.Time) *Cache {
	return &Cache{entries: make(map[string]entry), ttl: ttl, now: now}
}

// Get returns the payload stored under key, or ok=false on a miss. An entry
// past its TTL behaves as a miss; it is left in place and overwritten by the
// next Put rather than swept.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.insertedAt) >= c.ttl {
		return nil, false
	}
	return e.payload, true
}

// Put stores payload under key, restarting its TTL window.
func (c *Cache) Put(key string, payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{payload: payload, insertedAt: c.now()}
}

// Clear empties the cache unconditionally and reports how many entries were
// removed. Used for operator-triggered invalidation after catalog changes.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]entry)
	return n
}

// Len reports the current entry count, including not-yet-replaced expired
// entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// VideoKey builds the cache key for a single-video resolution.
func VideoKey(videoID string) string {
	return "video:" + videoID
}

// ChannelKey builds the cache key for a channel page lookup. index is the
// optional curated-channel sub-index; nil selects every curated channel and
// is keyed with a wildcard.
func ChannelKey(channelID string, maxResults int, index *int) string {
	idx := "*"
	if index != nil {
		idx = fmt.Sprintf("%d", *index)
	}
	return fmt.Sprintf("channel:%s:%d:%s", channelID, maxResults, idx)
}

// PlaylistKey builds the cache key for a playlist lookup.
func PlaylistKey(playlistID string, maxResults int) string {
	return fmt.Sprintf("playlist:%s:%d", playlistID, maxResults)
}
