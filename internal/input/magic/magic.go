// Package magic resolves magic-aware commands: a matched base command
// plus one directive keystroke plus the accumulated repeat count,
// composed into a single action descriptor.
//
// A magic-aware command ("close tabs") does not dispatch when its
// sequence matches. The engine opens a short sub-episode expecting
// exactly one more key drawn from the directive table; that key
// selects a direction, scope or hierarchy modifier. Resolution is a
// pure function of (base command, directive, count), so the same
// input always produces the same descriptor.
package magic

import (
	"fmt"

	"github.com/vesperkey/vesper/internal/input/command"
	"github.com/vesperkey/vesper/internal/input/key"
	"github.com/vesperkey/vesper/internal/message"
)

// Semantics is a directive semantics tag carried on the descriptor.
type Semantics string

// Directive semantics. The set is static configuration, not runtime
// state.
const (
	DirectionLeft           Semantics = "direction-left"
	DirectionLeftInclusive  Semantics = "direction-left-inclusive"
	DirectionRight          Semantics = "direction-right"
	DirectionRightInclusive Semantics = "direction-right-inclusive"
	ScopeWindow             Semantics = "scope-window"
	ScopeWindowExceptActive Semantics = "scope-window-except-active"
	ScopeAllWindowsNoPinned Semantics = "scope-all-windows-no-pinned"
	ScopeOtherWindows       Semantics = "scope-other-windows"
	ScopeIncognito          Semantics = "scope-incognito"
	ScopeCurrentTab         Semantics = "scope-current-tab"
	ScopeGlobal             Semantics = "scope-global"
	HierarchyHighlighted    Semantics = "hierarchy-highlighted"
	HierarchyChildren       Semantics = "hierarchy-children"
	HierarchyChildrenRec    Semantics = "hierarchy-children-recursive"
)

// UnknownDirectiveError reports a directive keystroke that is not in
// the table. The sub-episode is abandoned: no action is sent and the
// repeat count is discarded.
type UnknownDirectiveError struct {
	// Key is the offending keystroke.
	Key key.Event
}

// Error implements the error interface.
func (e *UnknownDirectiveError) Error() string {
	return fmt.Sprintf("unknown magic directive %q", e.Key.String())
}

// Table maps directive keystrokes to their semantics, keyed by the
// canonical event string.
type Table map[string]Semantics

// DefaultTable returns the built-in directive table.
func DefaultTable() Table {
	return Table{
		"h": DirectionLeft,
		"H": DirectionLeftInclusive,
		"e": DirectionRight,
		"E": DirectionRightInclusive,
		"w": ScopeWindow,
		"A": ScopeWindowExceptActive,
		"a": ScopeAllWindowsNoPinned,
		"o": ScopeOtherWindows,
		"i": ScopeIncognito,
		"c": ScopeCurrentTab,
		"g": ScopeGlobal,
		"s": HierarchyHighlighted,
		"d": HierarchyChildren,
		"D": HierarchyChildrenRec,
	}
}

// Resolver composes base command, directive and repeat count into one
// descriptor. It holds no mutable state.
type Resolver struct {
	table Table
}

// NewResolver creates a resolver over the given table. A nil table
// uses the default.
func NewResolver(table Table) *Resolver {
	if table == nil {
		table = DefaultTable()
	}
	return &Resolver{table: table}
}

// Lookup returns the semantics for a directive keystroke.
func (r *Resolver) Lookup(ev key.Event) (Semantics, bool) {
	s, ok := r.table[ev.String()]
	return s, ok
}

// Resolve builds the descriptor for a magic-aware mapping. The count
// is the already-consumed repeat count; mappings carrying RepeatIgnore
// send the unspecified sentinel instead.
func (r *Resolver) Resolve(m *command.Mapping, directive key.Event, cnt int) (message.Descriptor, error) {
	sem, ok := r.table[directive.String()]
	if !ok {
		return message.Descriptor{}, &UnknownDirectiveError{Key: directive}
	}

	repeats := cnt
	if repeats <= 0 {
		repeats = 1
	}
	if m.Options.RepeatIgnore {
		repeats = message.RepeatUnspecified
	}

	return message.Descriptor{
		Action:  m.Action,
		Repeats: repeats,
		Magic:   string(sem),
		Extra:   m.Options.Args,
	}, nil
}
