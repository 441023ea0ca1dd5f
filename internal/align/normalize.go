// Package align implements the cuetrack alignment core: it turns a noisy,
// partial, continuously re-issued speech-to-text stream into a monotonically
// advancing cursor position within a known script.
//
// The core is built from four small pieces:
//
//   - [Normalize] reduces a word to a short lowercase alphabetic key used for
//     approximate equality.
//   - [RecentCache] remembers just-matched words for a short time so that
//     overlapping interim results cannot re-trigger the same script word.
//   - [Aggregator] folds a recognition event into a single bounded,
//     deduplicated transcript snapshot.
//   - [Matcher] aligns the snapshot against a lookahead window of upcoming
//     script words and produces a cursor advance.
//
// All types are deterministic: time enters only through an injectable clock
// on [RecentCache], so tests run without wall-clock waits.
package align

import (
	"strings"
	"unicode"
)

// DefaultPrefixLen is the number of leading runes a normalized word keeps.
// Collisions between distinct words sharing a five-letter alphabetic prefix
// are an accepted precision/recall tradeoff: shorter keys absorb STT
// mishearings of word endings at the cost of occasional false merges.
const DefaultPrefixLen = 5

// Normalize canonicalizes a word for comparison: lowercase, strip every rune
// that is not a lowercase letter or whitespace, truncate to the first
// prefixLen runes. prefixLen values below 1 fall back to [DefaultPrefixLen].
//
// Normalize is pure, total, and idempotent for any input, including empty
// strings, pure punctuation, and non-Latin text (which normalizes to "").
func Normalize(word string, prefixLen int) string {
	if prefixLen < 1 {
		prefixLen = DefaultPrefixLen
	}

	var b strings.Builder
	b.Grow(prefixLen)

	n := 0
	for _, r := range strings.ToLower(word) {
		// Whitespace survives normalization as a separator; everything
		// else outside a-z is stripped.
		if (r < 'a' || r > 'z') && !unicode.IsSpace(r) {
			continue
		}
		if n >= prefixLen {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}
