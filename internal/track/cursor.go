// Package track owns the live tracking session state: the cursor position
// within a script, the per-session tracker that drives it from recognition
// events, and the manager that keys trackers by session ID.
package track

// Cursor owns the current reading position within a script. The position is
// an integer word index in [0, max]; it only moves backward on an explicit
// [Cursor.Set] or [Cursor.Reset] (user-driven jumps), never via the matcher
// path.
//
// Every mutation clamps the position and notifies the registered listener.
// The state transition itself is pure; rendering and scrolling live behind
// the notification on the collaborator side.
//
// Cursor is not safe for concurrent use; the owning [Tracker] serialises
// access.
type Cursor struct {
	pos      int
	max      int
	onChange func(pos int)
}

// NewCursor creates a cursor over a script of max words, starting at 0.
// onChange may be nil.
func NewCursor(max int, onChange func(pos int)) *Cursor {
	if max < 0 {
		max = 0
	}
	return &Cursor{max: max, onChange: onChange}
}

// Pos returns the current position.
func (c *Cursor) Pos() int { return c.pos }

// Advance moves the cursor forward by delta words. Deltas below 1 are
// ignored; the result is clamped to the script length.
func (c *Cursor) Advance(delta int) {
	if delta < 1 {
		return
	}
	c.move(c.pos + delta)
}

// Set jumps the cursor to pos, clamped into [0, max]. Used for explicit
// user-driven jumps; backward movement is allowed here.
func (c *Cursor) Set(pos int) {
	c.move(pos)
}

// Reset returns the cursor to 0.
func (c *Cursor) Reset() {
	c.move(0)
}

func (c *Cursor) move(pos int) {
	if pos < 0 {
		pos = 0
	}
	if pos > c.max {
		pos = c.max
	}
	c.pos = pos
	if c.onChange != nil {
		c.onChange(pos)
	}
}
