package track

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cuetrack/cuetrack/internal/align"
	"github.com/cuetrack/cuetrack/internal/observe"
	"github.com/cuetrack/cuetrack/internal/script"
	"github.com/cuetrack/cuetrack/pkg/recognition"
)

// ErrStopped is returned by [Tracker.Process] when the tracker is stopped
// and has not been re-armed.
var ErrStopped = errors.New("track: tracker is stopped")

// Config holds the alignment tunables for a tracker. The zero value selects
// every default.
type Config struct {
	// LookaheadWords is the match window size. Default: 5.
	LookaheadWords int

	// ConfidenceThreshold is the minimum segment confidence. Default: 0.85.
	ConfidenceThreshold float64

	// MaxTranscriptLen bounds the snapshot length in runes. Default: 50.
	MaxTranscriptLen int

	// MatchExpiry is how long matched words are suppressed. Default: 5s.
	MatchExpiry time.Duration

	// PrefixLen is the normalized-word prefix length. Default: 5.
	PrefixLen int

	// SimilarityThreshold enables Jaro-Winkler fallback matching when > 0.
	// Default: 0 (exact prefix equality only).
	SimilarityThreshold float64

	// PhoneticThreshold enables Double Metaphone fallback matching when > 0.
	// Default: 0.
	PhoneticThreshold float64
}

// Option is a functional option for [NewTracker]. Use these to register
// listeners and inject test doubles.
type Option func(*Tracker)

// WithClock injects the cache clock. Tests drive a logical clock instead of
// waiting out match expiries.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithMetrics injects a [observe.Metrics] instance. Default: the package
// default metrics.
func WithMetrics(m *observe.Metrics) Option {
	return func(t *Tracker) { t.metrics = m }
}

// WithCursorListener registers the position-changed callback. The renderer
// collaborator subscribes here; it is invoked on every cursor mutation,
// including explicit sets and resets.
func WithCursorListener(fn func(pos int)) Option {
	return func(t *Tracker) { t.onCursor = fn }
}

// WithMatchListener registers the match callback, invoked with the
// normalized matched word and the cursor advance. Useful for diagnostics.
func WithMatchListener(fn func(word string, advance int)) Option {
	return func(t *Tracker) { t.onMatch = fn }
}

// Tracker drives one reading session: it folds recognition events into
// transcript snapshots, aligns them against the script, and advances the
// cursor.
//
// Each event is processed to completion (aggregate → match → cursor update)
// under the tracker mutex before the next is accepted, giving the
// single-threaded event model the alignment core assumes. Cache expiry is
// evaluated lazily on the same path, so no second execution context ever
// touches session state.
type Tracker struct {
	mu      sync.Mutex
	scr     script.Script
	cursor  *Cursor
	agg     *align.Aggregator
	matcher *align.Matcher
	cache   *align.RecentCache
	stopped bool

	now      func() time.Time
	metrics  *observe.Metrics
	onCursor func(pos int)
	onMatch  func(word string, advance int)
}

// NewTracker creates a tracker over scr with the given config.
func NewTracker(scr script.Script, cfg Config, opts ...Option) *Tracker {
	t := &Tracker{
		scr: scr,
		now: time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	if t.metrics == nil {
		t.metrics = observe.DefaultMetrics()
	}

	t.cursor = NewCursor(scr.Len(), func(pos int) {
		if t.onCursor != nil {
			t.onCursor(pos)
		}
	})
	t.cache = align.NewRecentCache(t.now)

	var aggOpts []align.AggregatorOption
	if cfg.ConfidenceThreshold > 0 {
		aggOpts = append(aggOpts, align.WithConfidenceThreshold(cfg.ConfidenceThreshold))
	}
	if cfg.MaxTranscriptLen > 0 {
		aggOpts = append(aggOpts, align.WithMaxTranscriptLen(cfg.MaxTranscriptLen))
	}
	t.agg = align.NewAggregator(aggOpts...)

	var mOpts []align.MatcherOption
	if cfg.LookaheadWords > 0 {
		mOpts = append(mOpts, align.WithLookahead(cfg.LookaheadWords))
	}
	if cfg.PrefixLen > 0 {
		mOpts = append(mOpts, align.WithPrefixLen(cfg.PrefixLen))
	}
	if cfg.MatchExpiry > 0 {
		mOpts = append(mOpts, align.WithMatchExpiry(cfg.MatchExpiry))
	}
	if cfg.SimilarityThreshold > 0 {
		mOpts = append(mOpts, align.WithSimilarityThreshold(cfg.SimilarityThreshold))
	}
	if cfg.PhoneticThreshold > 0 {
		mOpts = append(mOpts, align.WithPhoneticThreshold(cfg.PhoneticThreshold))
	}
	t.matcher = align.NewMatcher(mOpts...)

	return t
}

// Process folds event into the session and advances the cursor on a match.
// Every failure mode short of a stopped tracker degrades to "no cursor
// movement": empty or duplicate transcripts and match misses are not errors.
func (t *Tracker) Process(ctx context.Context, event recognition.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return ErrStopped
	}

	snapshot, ok := t.agg.Fold(event)
	if !ok {
		t.metrics.RecordEvent(ctx, "skipped")
		return nil
	}
	t.metrics.TranscriptLength.Record(ctx, int64(len([]rune(snapshot))))

	window := t.scr.Window(t.cursor.Pos(), t.matcher.Lookahead())
	m, ok := t.matcher.Match(snapshot, window, t.cache)
	if !ok {
		t.metrics.RecordEvent(ctx, "no_match")
		return nil
	}

	t.cursor.Advance(m.Advance)
	t.metrics.RecordEvent(ctx, "matched")
	t.metrics.RecordMatch(ctx, m.Advance)
	if t.onMatch != nil {
		t.onMatch(m.Word, m.Advance)
	}

	slog.Debug("alignment match",
		"word", m.Word,
		"advance", m.Advance,
		"cursor", t.cursor.Pos(),
	)
	return nil
}

// Pos returns the current cursor position.
func (t *Tracker) Pos() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cursor.Pos()
}

// SetCursor jumps the cursor to pos. Explicit user-driven jumps bypass the
// matcher entirely; the position-changed listener still fires.
func (t *Tracker) SetCursor(pos int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cursor.Set(pos)
}

// Stop pauses the session: further events are rejected with [ErrStopped]
// until [Tracker.Resume] or [Tracker.Restart]. The recent-match cache and
// transcript snapshot are preserved so a resumed session keeps its context.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

// Resume re-arms a stopped session without touching any state.
func (t *Tracker) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = false
}

// Restart resets the session to the top of the script: cursor to 0,
// recent-match cache and transcript snapshot cleared, events accepted again.
func (t *Tracker) Restart() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache.Clear()
	t.agg.Reset()
	t.cursor.Reset()
	t.stopped = false
}

// Script returns the session script.
func (t *Tracker) Script() script.Script { return t.scr }
