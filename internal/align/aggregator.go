package align

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cuetrack/cuetrack/pkg/recognition"
)

// Defaults for the aggregator tunables.
const (
	// DefaultConfidenceThreshold is the minimum top-alternative confidence a
	// segment needs to contribute to the snapshot.
	DefaultConfidenceThreshold = 0.85

	// DefaultMaxTranscriptLen bounds the snapshot length in runes.
	DefaultMaxTranscriptLen = 50
)

// AggregatorOption is a functional option for configuring an [Aggregator].
type AggregatorOption func(*Aggregator)

// WithConfidenceThreshold sets the minimum segment confidence.
// Default: 0.85.
func WithConfidenceThreshold(threshold float64) AggregatorOption {
	return func(a *Aggregator) {
		a.threshold = threshold
	}
}

// WithMaxTranscriptLen sets the snapshot length bound in runes.
// Values below 2 are ignored. Default: 50.
func WithMaxTranscriptLen(n int) AggregatorOption {
	return func(a *Aggregator) {
		if n >= 2 {
			a.maxLen = n
		}
	}
}

// Aggregator reduces a recognition event into a single bounded, deduplicated
// transcript snapshot.
//
// Segment filtering stops at the first segment whose top alternative falls
// below the confidence threshold: later segments are ignored even when their
// own confidence is high. Recognition engines emit segments oldest-first and
// re-issue unstable tails, so a low-confidence segment marks the point where
// the event stops being trustworthy.
//
// Aggregator keeps the previous snapshot as private state for deduplication.
// It is not safe for concurrent use; the owning tracker serialises access.
type Aggregator struct {
	threshold float64
	maxLen    int
	previous  string
}

// NewAggregator creates an [Aggregator] with the supplied options.
func NewAggregator(opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		threshold: DefaultConfidenceThreshold,
		maxLen:    DefaultMaxTranscriptLen,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Fold reduces event into a new transcript snapshot.
//
// Each qualifying segment contributes the trailing half of the length bound
// of its trimmed text; when that suffix was truncated mid-word, the partial
// leading word is dropped. The joined buffer is then trimmed from the front
// to the length bound by the same rule.
//
// ok is false when the result is empty or identical to the previous
// snapshot, in which case downstream matching should be skipped. On ok the
// snapshot is recorded as the new previous value.
func (a *Aggregator) Fold(event recognition.Event) (snapshot string, ok bool) {
	var parts []string
	for _, seg := range event.Segments {
		top := seg.Top()
		if top.Confidence < a.threshold {
			break
		}
		text := strings.TrimSpace(top.Text)
		if text == "" {
			continue
		}
		parts = append(parts, tailTrim(text, a.maxLen/2))
	}

	joined := strings.TrimSpace(clampFront(strings.Join(parts, " "), a.maxLen))
	if joined == "" || joined == a.previous {
		return "", false
	}
	a.previous = joined
	return joined, true
}

// Previous returns the last accepted snapshot. Intended for diagnostics
// and testing.
func (a *Aggregator) Previous() string { return a.previous }

// Reset clears the previous snapshot. Called on session restart.
func (a *Aggregator) Reset() { a.previous = "" }

// tailTrim returns the trailing n runes of s. When the result holds exactly
// n runes the cut may have landed mid-word, so everything up to and
// including the first whitespace is dropped and no partial leading word
// survives. A result with no whitespace is returned unchanged.
func tailTrim(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[len(runes)-n:]
	}
	if len(runes) < n {
		return string(runes)
	}
	return dropPartialLeadingWord(string(runes))
}

// clampFront trims s from the front down to at most n runes. Unlike
// [tailTrim] it only acts when s actually exceeds the bound; a string of
// exactly n runes was never cut and keeps its leading word.
func clampFront(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	return dropPartialLeadingWord(string(runes[len(runes)-n:]))
}

// dropPartialLeadingWord removes characters up to and including the first
// whitespace rune. Without any whitespace, s is returned unchanged.
func dropPartialLeadingWord(s string) string {
	if i := strings.IndexFunc(s, unicode.IsSpace); i >= 0 {
		_, size := utf8.DecodeRuneInString(s[i:])
		return s[i+size:]
	}
	return s
}
