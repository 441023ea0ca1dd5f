// Package script defines the script model for cuetrack: the fixed, ordered
// word sequence a speaker reads from, plus storage backends for persisting
// script documents between sessions.
package script

import (
	"strings"
	"time"
)

// Script is an immutable ordered sequence of words, fixed for the duration
// of a reading session. Word indices are stable cursor coordinates.
type Script struct {
	words []string
}

// Parse splits text on whitespace into a [Script]. Empty input yields an
// empty script; callers that need a visible placeholder supply one in text.
func Parse(text string) Script {
	return Script{words: strings.Fields(text)}
}

// New builds a [Script] from an explicit word list. The slice is copied.
func New(words []string) Script {
	w := make([]string, len(words))
	copy(w, words)
	return Script{words: w}
}

// Len returns the number of words.
func (s Script) Len() int { return len(s.words) }

// Words returns a copy of the word sequence.
func (s Script) Words() []string {
	out := make([]string, len(s.words))
	copy(out, s.words)
	return out
}

// Word returns the word at index i, or "" when i is out of range.
func (s Script) Word(i int) string {
	if i < 0 || i >= len(s.words) {
		return ""
	}
	return s.words[i]
}

// Window returns the up-to-n words starting at cursor. Out-of-range cursors
// and short tails yield a shorter (possibly empty) window, never a panic.
// The returned slice aliases the script and must not be modified.
func (s Script) Window(cursor, n int) []string {
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= len(s.words) || n <= 0 {
		return nil
	}
	end := cursor + n
	if end > len(s.words) {
		end = len(s.words)
	}
	return s.words[cursor:end]
}

// Document is a stored script: the raw text plus identity and bookkeeping.
// The raw text is what the renderer displays; the tracking session parses
// it into a [Script] on demand.
type Document struct {
	// ID is the storage key, generated on create when empty.
	ID string `json:"id"`

	// Title is a human-readable label for the script.
	Title string `json:"title"`

	// Text is the raw script text as entered by the user.
	Text string `json:"text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Script parses the document text into a [Script].
func (d Document) Script() Script {
	return Parse(d.Text)
}
