package align

import (
	"testing"
	"time"
)

// fakeClock is a manually advanced clock for deterministic expiry tests.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestRecentCacheContains(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	cache := NewRecentCache(clock.Now)

	if cache.Contains("jumps") {
		t.Fatal("empty cache must not contain anything")
	}

	cache.Insert("jumps", 5*time.Second)
	if !cache.Contains("jumps") {
		t.Fatal("inserted word must be contained before expiry")
	}
	if cache.Contains("fox") {
		t.Fatal("unrelated word must not be contained")
	}
}

func TestRecentCacheExpiry(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	cache := NewRecentCache(clock.Now)

	cache.Insert("jumps", 5*time.Second)

	clock.Advance(4 * time.Second)
	if !cache.Contains("jumps") {
		t.Fatal("word must survive until its ttl elapses")
	}

	clock.Advance(2 * time.Second)
	if cache.Contains("jumps") {
		t.Fatal("word must be gone after its ttl elapses")
	}
	if got := cache.Len(); got != 0 {
		t.Fatalf("want empty cache, got %d entries", got)
	}
}

func TestRecentCacheDuplicateEntries(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	cache := NewRecentCache(clock.Now)

	// Duplicate insertions each get their own expiry.
	cache.Insert("quick", 2*time.Second)
	clock.Advance(1 * time.Second)
	cache.Insert("quick", 2*time.Second)

	if got := cache.Len(); got != 2 {
		t.Fatalf("want 2 entries, got %d", got)
	}

	// First expiry fires at +2s and removes the oldest entry; the second
	// insertion keeps the word contained.
	clock.Advance(1500 * time.Millisecond)
	if !cache.Contains("quick") {
		t.Fatal("second entry must keep the word contained")
	}
	if got := cache.Len(); got != 1 {
		t.Fatalf("want 1 entry after first expiry, got %d", got)
	}

	clock.Advance(1 * time.Second)
	if cache.Contains("quick") {
		t.Fatal("word must be gone after both entries expired")
	}
}

func TestRecentCacheFIFOExpiryAcrossWords(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	cache := NewRecentCache(clock.Now)

	// Expiry removes the oldest entry in insertion order, not the entry
	// whose ttl fired.
	cache.Insert("alpha", 10*time.Second)
	cache.Insert("beta", 1*time.Second)

	clock.Advance(2 * time.Second)
	if got := cache.Len(); got != 1 {
		t.Fatalf("want 1 entry after one expiry fired, got %d", got)
	}
	if cache.Contains("alpha") {
		t.Fatal("oldest entry (alpha) must have been shifted out")
	}
	if !cache.Contains("beta") {
		t.Fatal("beta must remain, only one expiry has fired")
	}
}

func TestRecentCacheClear(t *testing.T) {
	t.Parallel()

	cache := NewRecentCache(newFakeClock().Now)
	cache.Insert("one", time.Second)
	cache.Insert("two", time.Second)

	cache.Clear()
	if got := cache.Len(); got != 0 {
		t.Fatalf("want empty cache after Clear, got %d entries", got)
	}
}

func TestRecentCacheDefaultTTL(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	cache := NewRecentCache(clock.Now)

	cache.Insert("word", 0)

	clock.Advance(DefaultMatchExpiry - time.Millisecond)
	if !cache.Contains("word") {
		t.Fatal("word must survive until the default expiry")
	}
	clock.Advance(2 * time.Millisecond)
	if cache.Contains("word") {
		t.Fatal("word must expire after the default ttl")
	}
}
