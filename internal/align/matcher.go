package align

import (
	"strings"
	"time"

	"github.com/antzucaro/matchr"
)

// DefaultLookahead is the number of upcoming script words (and trailing
// spoken tokens) considered as match candidates.
const DefaultLookahead = 5

// MatcherOption is a functional option for configuring a [Matcher].
type MatcherOption func(*Matcher)

// WithLookahead sets the lookahead window size in words. Values below 1 are
// ignored. Default: 5.
func WithLookahead(n int) MatcherOption {
	return func(m *Matcher) {
		if n >= 1 {
			m.lookahead = n
		}
	}
}

// WithPrefixLen sets the normalized-word prefix length. Default: 5.
func WithPrefixLen(n int) MatcherOption {
	return func(m *Matcher) {
		if n >= 1 {
			m.prefixLen = n
		}
	}
}

// WithMatchExpiry sets how long a matched word is suppressed in the recent
// cache. Default: 5s.
func WithMatchExpiry(d time.Duration) MatcherOption {
	return func(m *Matcher) {
		if d > 0 {
			m.expiry = d
		}
	}
}

// WithSimilarityThreshold enables Jaro-Winkler similarity matching as a
// fallback to exact prefix equality. A spoken token also matches a script
// word when their normalized forms score at or above the threshold.
//
// This widens recall for mumbled or clipped words at a precision cost.
// The default of 0 disables the fallback entirely; matching is then pure
// normalized-prefix equality.
func WithSimilarityThreshold(threshold float64) MatcherOption {
	return func(m *Matcher) {
		m.similarity = threshold
	}
}

// WithPhoneticThreshold enables Double Metaphone phonetic matching as a
// fallback to exact prefix equality. A spoken token also matches a script
// word when their normalized forms share a phonetic code and score at or
// above the threshold on Jaro-Winkler similarity.
//
// Useful for homophones and spelling-divergent words ("fone" for "phone")
// that plain similarity thresholds set high enough for precision would
// reject. The default of 0 disables the fallback.
func WithPhoneticThreshold(threshold float64) MatcherOption {
	return func(m *Matcher) {
		m.phonetic = threshold
	}
}

// Match is a successful alignment of a spoken token against the script.
type Match struct {
	// Advance is the cursor delta: the matched script word's index within
	// the lookahead window plus one, so the cursor lands just past it.
	// Always >= 1. Unspoken script words earlier in the window are treated
	// as skipped; the match is a catch-up heuristic, not a strict
	// subsequence alignment.
	Advance int

	// Word is the normalized spoken token that matched.
	Word string
}

// Matcher finds the best-aligned script word within a bounded lookahead
// window. It is stateless apart from configuration; the recent-match cache
// is passed in per call so the owning tracker controls its lifecycle.
//
// The scan favours the most recently spoken token to minimise latency:
// the newest token is tried first, and the first token with an uncached
// window hit wins. At most one match is produced per call.
type Matcher struct {
	lookahead  int
	prefixLen  int
	expiry     time.Duration
	similarity float64
	phonetic   float64
}

// NewMatcher creates a [Matcher] with the supplied options.
func NewMatcher(opts ...MatcherOption) *Matcher {
	m := &Matcher{
		lookahead: DefaultLookahead,
		prefixLen: DefaultPrefixLen,
		expiry:    DefaultMatchExpiry,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Lookahead returns the configured window size in words.
func (m *Matcher) Lookahead() int { return m.lookahead }

// Match aligns transcript against window, the upcoming script words starting
// at the cursor (in original order, at most lookahead entries).
//
// The last lookahead transcript tokens are normalized and scanned from the
// end toward the start. Tokens present in cache are skipped: an
// already-consumed word must not re-trigger. The first remaining token found
// in the normalized window (leftmost occurrence) produces the match; the
// token is inserted into cache with the configured expiry.
//
// An empty transcript or window yields (zero, false), never an error.
func (m *Matcher) Match(transcript string, window []string, cache *RecentCache) (Match, bool) {
	spoken := strings.Fields(transcript)
	if len(spoken) == 0 || len(window) == 0 {
		return Match{}, false
	}
	if len(spoken) > m.lookahead {
		spoken = spoken[len(spoken)-m.lookahead:]
	}

	script := make([]string, 0, min(len(window), m.lookahead))
	for _, w := range window {
		if len(script) == m.lookahead {
			break
		}
		script = append(script, Normalize(w, m.prefixLen))
	}

	for i := len(spoken) - 1; i >= 0; i-- {
		token := Normalize(spoken[i], m.prefixLen)
		if token == "" || cache.Contains(token) {
			continue
		}
		for j, w := range script {
			if !m.equal(token, w) {
				continue
			}
			cache.Insert(token, m.expiry)
			return Match{Advance: j + 1, Word: token}, true
		}
	}
	return Match{}, false
}

// equal reports whether a spoken token matches a script word. Exact
// normalized equality always matches; the similarity and phonetic fallbacks
// apply only when their thresholds are configured.
func (m *Matcher) equal(token, word string) bool {
	if token == word {
		return true
	}
	if word == "" {
		return false
	}
	if m.similarity > 0 && matchr.JaroWinkler(token, word, false) >= m.similarity {
		return true
	}
	return m.phonetic > 0 && phoneticEqual(token, word, m.phonetic)
}
