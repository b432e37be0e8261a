package magic

import (
	"errors"
	"testing"

	"github.com/vesperkey/vesper/internal/input/command"
	"github.com/vesperkey/vesper/internal/input/key"
	"github.com/vesperkey/vesper/internal/message"
)

func closeTabsMapping(t *testing.T, opts command.Options) *command.Mapping {
	t.Helper()
	opts.Magic = true
	m, err := command.Declaration{
		Mode:       "normal",
		Keys:       "tc",
		Annotation: "close tabs",
		Action:     "tab.close",
		Options:    opts,
	}.Parse()
	if err != nil {
		t.Fatalf("parsing mapping: %v", err)
	}
	return m
}

func TestResolveDirection(t *testing.T) {
	r := NewResolver(nil)
	m := closeTabsMapping(t, command.Options{})

	d, err := r.Resolve(m, key.MustParse("e"), 1)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if d.Action != "tab.close" {
		t.Errorf("Action = %q, want tab.close", d.Action)
	}
	if d.Repeats != 1 {
		t.Errorf("Repeats = %d, want 1", d.Repeats)
	}
	if d.Magic != string(DirectionRight) {
		t.Errorf("Magic = %q, want %q", d.Magic, DirectionRight)
	}
}

func TestResolveCarriesCount(t *testing.T) {
	r := NewResolver(nil)
	m := closeTabsMapping(t, command.Options{})

	d, err := r.Resolve(m, key.MustParse("h"), 4)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if d.Repeats != 4 {
		t.Errorf("Repeats = %d, want 4", d.Repeats)
	}
	if d.Magic != string(DirectionLeft) {
		t.Errorf("Magic = %q, want %q", d.Magic, DirectionLeft)
	}
}

func TestResolveRepeatIgnore(t *testing.T) {
	r := NewResolver(nil)
	m := closeTabsMapping(t, command.Options{RepeatIgnore: true})

	d, err := r.Resolve(m, key.MustParse("w"), 7)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if d.Repeats != message.RepeatUnspecified {
		t.Errorf("Repeats = %d, want unspecified sentinel", d.Repeats)
	}
}

func TestResolveUnknownDirective(t *testing.T) {
	r := NewResolver(nil)
	m := closeTabsMapping(t, command.Options{})

	_, err := r.Resolve(m, key.MustParse("z"), 1)
	var unknownErr *UnknownDirectiveError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("error = %v, want UnknownDirectiveError", err)
	}
	if unknownErr.Key.Rune != 'z' {
		t.Errorf("error key = %q, want 'z'", unknownErr.Key.Rune)
	}
}

// Resolution is a pure function of its arguments: two identical calls
// produce structurally identical descriptors.
func TestResolveDeterministic(t *testing.T) {
	r := NewResolver(nil)
	m := closeTabsMapping(t, command.Options{})

	first, err := r.Resolve(m, key.MustParse("a"), 3)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	second, err := r.Resolve(m, key.MustParse("a"), 3)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}

	if first.Action != second.Action || first.Repeats != second.Repeats || first.Magic != second.Magic {
		t.Errorf("resolution not deterministic: %+v vs %+v", first, second)
	}
}

func TestDefaultTableCoversAllSemantics(t *testing.T) {
	table := DefaultTable()
	seen := make(map[Semantics]bool)
	for _, s := range table {
		if seen[s] {
			t.Errorf("semantics %q bound to more than one key", s)
		}
		seen[s] = true
	}
	if len(seen) != 14 {
		t.Errorf("default table covers %d semantics, want 14", len(seen))
	}
}

func TestCustomTable(t *testing.T) {
	r := NewResolver(Table{"x": ScopeGlobal})
	m := closeTabsMapping(t, command.Options{})

	d, err := r.Resolve(m, key.MustParse("x"), 1)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if d.Magic != string(ScopeGlobal) {
		t.Errorf("Magic = %q, want %q", d.Magic, ScopeGlobal)
	}

	// Default keys are not in a custom table.
	if _, err := r.Resolve(m, key.MustParse("e"), 1); err == nil {
		t.Error("directive outside custom table should fail")
	}
}
