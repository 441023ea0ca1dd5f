package align

import (
	"testing"
	"unicode/utf8"

	"github.com/cuetrack/cuetrack/pkg/recognition"
)

func seg(text string, confidence float64) recognition.Segment {
	return recognition.Segment{
		Alternatives: []recognition.Alternative{{Text: text, Confidence: confidence}},
		Final:        true,
	}
}

func event(segments ...recognition.Segment) recognition.Event {
	return recognition.Event{Segments: segments}
}

func TestAggregatorConfidenceCutoff(t *testing.T) {
	t.Parallel()

	agg := NewAggregator()

	// Filtering stops at the first low-confidence segment; the trailing
	// high-confidence segment must not contribute.
	snapshot, ok := agg.Fold(event(
		seg("the quick", 0.90),
		seg("brown", 0.80),
		seg("fox jumps", 0.99),
	))
	if !ok {
		t.Fatal("want a snapshot, got ok=false")
	}
	if want := "the quick"; snapshot != want {
		t.Fatalf("want %q, got %q", want, snapshot)
	}
}

func TestAggregatorThresholdBoundary(t *testing.T) {
	t.Parallel()

	agg := NewAggregator()

	// A segment at exactly the threshold qualifies.
	snapshot, ok := agg.Fold(event(seg("hello there", DefaultConfidenceThreshold)))
	if !ok || snapshot != "hello there" {
		t.Fatalf("want %q ok=true, got %q ok=%v", "hello there", snapshot, ok)
	}
}

func TestAggregatorAllBelowThreshold(t *testing.T) {
	t.Parallel()

	agg := NewAggregator()

	if snapshot, ok := agg.Fold(event(seg("mumble", 0.3))); ok {
		t.Fatalf("want ok=false for low-confidence event, got %q", snapshot)
	}
}

func TestAggregatorEmptyEvent(t *testing.T) {
	t.Parallel()

	agg := NewAggregator()

	if _, ok := agg.Fold(event()); ok {
		t.Fatal("want ok=false for an event with no segments")
	}
}

func TestAggregatorSkipsBlankSegments(t *testing.T) {
	t.Parallel()

	agg := NewAggregator()

	// Whitespace-only segments are skipped without ending the fold.
	snapshot, ok := agg.Fold(event(
		seg("   ", 0.99),
		seg("fox jumps", 0.95),
	))
	if !ok || snapshot != "fox jumps" {
		t.Fatalf("want %q ok=true, got %q ok=%v", "fox jumps", snapshot, ok)
	}
}

func TestAggregatorDeduplication(t *testing.T) {
	t.Parallel()

	agg := NewAggregator()

	ev := event(seg("fox jumps", 0.95))
	if _, ok := agg.Fold(ev); !ok {
		t.Fatal("first fold must produce a snapshot")
	}
	if snapshot, ok := agg.Fold(ev); ok {
		t.Fatalf("identical consecutive snapshot must be suppressed, got %q", snapshot)
	}
	if _, ok := agg.Fold(event(seg("over the lazy dog", 0.95))); !ok {
		t.Fatal("a changed snapshot must pass through again")
	}
}

func TestAggregatorSegmentTailTrim(t *testing.T) {
	t.Parallel()

	agg := NewAggregator()

	// 38 runes against a 25-rune half bound: the suffix cut lands mid-word
	// and the partial leading word is dropped.
	snapshot, ok := agg.Fold(event(seg("alpha bravo charlie delta echo foxtrot", 0.95)))
	if !ok {
		t.Fatal("want a snapshot, got ok=false")
	}
	if want := "delta echo foxtrot"; snapshot != want {
		t.Fatalf("want %q, got %q", want, snapshot)
	}
}

func TestAggregatorBufferClamp(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(WithMaxTranscriptLen(10))

	// Joined buffer "two four nine" exceeds the bound; the front is clamped
	// and the partial leading word discarded.
	snapshot, ok := agg.Fold(event(
		seg("two", 0.95),
		seg("four", 0.95),
		seg("nine", 0.95),
	))
	if !ok {
		t.Fatal("want a snapshot, got ok=false")
	}
	if want := "four nine"; snapshot != want {
		t.Fatalf("want %q, got %q", want, snapshot)
	}
}

func TestAggregatorLengthBound(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(WithMaxTranscriptLen(10))

	events := []recognition.Event{
		event(seg("alpha beta", 0.9), seg("gamma delta", 0.9)),
		event(seg("the quick brown fox jumps over the lazy dog", 0.99)),
		event(seg("supercalifragilisticexpialidocious", 0.99)),
	}
	for _, ev := range events {
		snapshot, ok := agg.Fold(ev)
		if !ok {
			continue
		}
		if got := utf8.RuneCountInString(snapshot); got > 10 {
			t.Fatalf("snapshot %q exceeds length bound: %d runes", snapshot, got)
		}
	}
}

func TestAggregatorReset(t *testing.T) {
	t.Parallel()

	agg := NewAggregator()

	ev := event(seg("fox jumps", 0.95))
	if _, ok := agg.Fold(ev); !ok {
		t.Fatal("first fold must produce a snapshot")
	}
	agg.Reset()
	if agg.Previous() != "" {
		t.Fatalf("want empty previous after reset, got %q", agg.Previous())
	}
	if _, ok := agg.Fold(ev); !ok {
		t.Fatal("after reset the same event must produce a snapshot again")
	}
}
