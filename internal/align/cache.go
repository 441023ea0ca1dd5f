package align

import "time"

// DefaultMatchExpiry is how long a matched word is suppressed before it may
// match again.
const DefaultMatchExpiry = 5 * time.Second

// RecentCache is a time-bounded set of recently matched normalized words.
// A word present in the cache must not be matched again until its entry
// expires; this suppresses re-triggering from overlapping interim results
// and repeated vocabulary.
//
// Entries expire FIFO: each elapsed ttl removes the oldest entry in
// insertion order, regardless of which word it holds. Inserting a word that
// is already present creates a duplicate entry with its own independent
// expiry.
//
// Expiry is driven by the injected clock and evaluated lazily on access, so
// the cache never races event processing and tests can advance time
// explicitly. RecentCache is not safe for concurrent use; the owning
// tracker serialises access.
type RecentCache struct {
	entries []cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	word     string
	deadline time.Time
}

// NewRecentCache creates a cache using the given clock. A nil now defaults
// to [time.Now].
func NewRecentCache(now func() time.Time) *RecentCache {
	if now == nil {
		now = time.Now
	}
	return &RecentCache{now: now}
}

// Contains reports whether word has an unexpired entry in the cache.
func (c *RecentCache) Contains(word string) bool {
	c.prune()
	for _, e := range c.entries {
		if e.word == word {
			return true
		}
	}
	return false
}

// Insert adds word with the given ttl. ttl values of zero or below fall
// back to [DefaultMatchExpiry].
func (c *RecentCache) Insert(word string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultMatchExpiry
	}
	c.prune()
	c.entries = append(c.entries, cacheEntry{
		word:     word,
		deadline: c.now().Add(ttl),
	})
}

// Len returns the number of unexpired entries. Intended for diagnostics
// and testing.
func (c *RecentCache) Len() int {
	c.prune()
	return len(c.entries)
}

// Clear discards every entry. Called on session restart.
func (c *RecentCache) Clear() {
	c.entries = c.entries[:0]
}

// prune applies every expiry that has come due. Each elapsed ttl removes
// the oldest entry in insertion order; entries are not prioritised by
// which word they hold, so a duplicate insertion with a shorter ttl can
// evict the earlier entry first.
func (c *RecentCache) prune() {
	now := c.now()

	fired := 0
	for _, e := range c.entries {
		if !e.deadline.After(now) {
			fired++
		}
	}
	switch {
	case fired == 0:
	case fired >= len(c.entries):
		c.entries = c.entries[:0]
	default:
		c.entries = append(c.entries[:0], c.entries[fired:]...)
	}
}
