// Package mock provides a scripted recognition event source for tests and
// demos.
package mock

import "github.com/cuetrack/cuetrack/pkg/recognition"

// Source replays a fixed sequence of recognition events.
// The zero value is an empty source.
type Source struct {
	// Events is the scripted sequence, replayed in order.
	Events []recognition.Event

	next int
}

// Next returns the next scripted event. ok is false once the sequence is
// exhausted.
func (s *Source) Next() (recognition.Event, bool) {
	if s.next >= len(s.Events) {
		return recognition.Event{}, false
	}
	ev := s.Events[s.next]
	s.next++
	return ev, true
}

// Reset rewinds the source to the first event.
func (s *Source) Reset() { s.next = 0 }

// FinalEvent builds a single-segment final event with one alternative.
// Convenience for tests.
func FinalEvent(text string, confidence float64) recognition.Event {
	return recognition.Event{
		Segments: []recognition.Segment{
			{
				Alternatives: []recognition.Alternative{
					{Text: text, Confidence: confidence},
				},
				Final: true,
			},
		},
	}
}
