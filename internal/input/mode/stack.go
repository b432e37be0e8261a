package mode

// Stack is the ordered list of active modes. The bottom entry is the
// designated default mode and is never removed; the top entry is the
// only mode that receives key events.
//
// The stack is owned exclusively by one engine instance per execution
// context and is not internally synchronized.
type Stack struct {
	stack []*Mode
}

// NewStack creates a stack with the given default mode at its base.
func NewStack(def *Mode) *Stack {
	return &Stack{stack: []*Mode{def}}
}

// Top returns the active mode.
func (s *Stack) Top() *Mode {
	return s.stack[len(s.stack)-1]
}

// Depth returns the number of stacked modes, including the default.
func (s *Stack) Depth() int {
	return len(s.stack)
}

// Push makes m the new active mode. The previous top stays dormant
// beneath it; any partial-match state it had is the engine's to
// discard, since a returning mode always starts a fresh episode.
func (s *Stack) Push(m *Mode) {
	s.stack = append(s.stack, m)
}

// Pop removes the top mode and resumes the one beneath. Popping the
// sole remaining mode is a no-op; it returns false and the default
// mode stays active.
func (s *Stack) Pop() bool {
	if len(s.stack) <= 1 {
		return false
	}
	s.stack[len(s.stack)-1] = nil
	s.stack = s.stack[:len(s.stack)-1]
	return true
}

// Replace swaps the top mode for m: pop then push, except that the
// default mode at the base is replaced in place rather than popped.
func (s *Stack) Replace(m *Mode) {
	s.stack[len(s.stack)-1] = m
}

// Contains reports whether a mode with the given name is anywhere on
// the stack.
func (s *Stack) Contains(name string) bool {
	for _, m := range s.stack {
		if m.Name() == name {
			return true
		}
	}
	return false
}

// Reset pops everything above the default mode.
func (s *Stack) Reset() {
	for len(s.stack) > 1 {
		s.Pop()
	}
}
