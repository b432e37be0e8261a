// Package count implements the Vim-style numeric repeat prefix typed
// before a command.
package count

import "math"

// Counter accumulates a repeat count during one input episode.
//
// '1'-'9' always begin or extend a count; '0' only extends one that is
// already active, because a leading '0' is itself a mapped key
// (commonly "scroll to line start"). The count never survives an
// episode: Consume or Reset is called before the next one starts.
type Counter struct {
	value  int
	active bool
}

// New creates an inactive counter.
func New() *Counter {
	return &Counter{}
}

// Active returns true if a count is being accumulated.
func (c *Counter) Active() bool {
	return c.active
}

// Accumulate adds one digit character to the count. Returns false if
// the rune is not a digit, or is a leading '0'; the caller dispatches
// such keys as ordinary symbols.
func (c *Counter) Accumulate(r rune) bool {
	if r < '0' || r > '9' {
		return false
	}

	digit := int(r - '0')
	if !c.active && digit == 0 {
		return false
	}

	c.active = true

	// Cap instead of overflowing on absurd counts.
	if c.value > (math.MaxInt-digit)/10 {
		c.value = math.MaxInt / 10
		return true
	}

	c.value = c.value*10 + digit
	return true
}

// Peek returns the effective count without consuming it: the
// accumulated value, or 1 if none was typed.
func (c *Counter) Peek() int {
	if c.value <= 0 {
		return 1
	}
	return c.value
}

// Consume returns the effective count and resets the counter. Called
// exactly once per resolved command.
func (c *Counter) Consume() int {
	v := c.Peek()
	c.Reset()
	return v
}

// Reset clears the counter. Called on mode transitions and whenever a
// key fails to extend a pending match, so counts never leak across
// unrelated episodes.
func (c *Counter) Reset() {
	c.value = 0
	c.active = false
}
