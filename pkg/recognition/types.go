// Package recognition defines the speech-to-text event types consumed by the
// cuetrack alignment core.
//
// The recognition engine itself is an external collaborator: a browser using
// the Web Speech API, a streaming STT provider, or a test harness. Whatever
// the source, it delivers an ordered stream of [Event] values over the
// tracking WebSocket (see internal/server). Only the top alternative of each
// segment is consumed by the core.
package recognition

// Event is a single recognition result delivered by the speech engine.
// It carries the full ordered list of result segments known at the time of
// emission; engines that revise interim results re-issue the whole event.
type Event struct {
	// Segments is the ordered list of result segments, oldest first.
	Segments []Segment `json:"segments"`
}

// Segment is one result segment of a recognition event. A segment may be
// interim (subject to revision by a later event) or final.
type Segment struct {
	// Alternatives is the ranked candidate list for this segment.
	// Alternatives[0] is the engine's best guess and is the only entry the
	// alignment core reads.
	Alternatives []Alternative `json:"alternatives"`

	// Final reports whether the segment is authoritative. Interim segments
	// are processed identically; the flag is carried for diagnostics.
	Final bool `json:"final"`
}

// Alternative is one (text, confidence) candidate for a segment.
type Alternative struct {
	// Text is the transcribed speech content.
	Text string `json:"text"`

	// Confidence is the engine's confidence score in [0, 1].
	Confidence float64 `json:"confidence"`
}

// Top returns the first alternative of s, or a zero [Alternative] when the
// segment carries none.
func (s Segment) Top() Alternative {
	if len(s.Alternatives) == 0 {
		return Alternative{}
	}
	return s.Alternatives[0]
}
