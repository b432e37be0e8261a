package mode

import (
	"testing"
)

func newTestStack() (*Stack, *Mode, *Mode, *Mode) {
	normal := New(Normal, Config{AllowCount: true})
	visual := New(Visual, Config{Stacked: true})
	hint := New(Hint, Config{Stacked: true})
	return NewStack(normal), normal, visual, hint
}

func TestStackPushPop(t *testing.T) {
	s, normal, visual, _ := newTestStack()

	if s.Top() != normal {
		t.Fatal("default mode should start on top")
	}

	s.Push(visual)
	if s.Top() != visual {
		t.Error("pushed mode should be on top")
	}
	if s.Depth() != 2 {
		t.Errorf("Depth = %d, want 2", s.Depth())
	}

	if !s.Pop() {
		t.Error("Pop with stacked mode should succeed")
	}
	if s.Top() != normal {
		t.Error("Pop should resume the mode beneath")
	}
}

func TestStackPopLastIsNoOp(t *testing.T) {
	s, normal, _, _ := newTestStack()

	if s.Pop() {
		t.Error("popping the sole remaining mode should be a no-op")
	}
	if s.Top() != normal || s.Depth() != 1 {
		t.Error("default mode must never be removed")
	}
}

func TestStackReplace(t *testing.T) {
	s, _, visual, hint := newTestStack()

	s.Push(visual)
	s.Replace(hint)

	if s.Top() != hint {
		t.Error("Replace should swap the top mode")
	}
	if s.Depth() != 2 {
		t.Errorf("Depth = %d after Replace, want 2", s.Depth())
	}
}

func TestStackContains(t *testing.T) {
	s, _, visual, _ := newTestStack()
	s.Push(visual)

	if !s.Contains(Normal) || !s.Contains(Visual) {
		t.Error("Contains should find modes anywhere on the stack")
	}
	if s.Contains(Hint) {
		t.Error("Contains should not find unpushed modes")
	}
}

func TestStackReset(t *testing.T) {
	s, normal, visual, hint := newTestStack()
	s.Push(visual)
	s.Push(hint)

	s.Reset()
	if s.Depth() != 1 || s.Top() != normal {
		t.Error("Reset should pop everything above the default mode")
	}
}

// After any sequence of push/pop/replace the stack is never empty.
func TestStackNeverEmpty(t *testing.T) {
	s, _, visual, hint := newTestStack()

	ops := []func(){
		func() { s.Push(visual) },
		func() { s.Pop() },
		func() { s.Pop() },
		func() { s.Replace(hint) },
		func() { s.Pop() },
		func() { s.Pop() },
	}
	for i, op := range ops {
		op()
		if s.Depth() < 1 {
			t.Fatalf("stack empty after op %d", i)
		}
		if s.Top() == nil {
			t.Fatalf("nil top after op %d", i)
		}
	}
}
