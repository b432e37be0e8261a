// Package command defines the key mapping data model shared by the
// trie, mode and registry packages.
package command

import (
	"errors"
	"fmt"

	"github.com/vesperkey/vesper/internal/input/key"
)

// Construction errors.
var (
	// ErrEmptySequence is returned when a mapping has no key sequence.
	ErrEmptySequence = errors.New("mapping has empty key sequence")

	// ErrEmptyAction is returned when a mapping has no action name.
	ErrEmptyAction = errors.New("mapping has empty action")
)

// Options is the configuration bag attached to a mapping.
type Options struct {
	// Magic marks the command as magic-aware: after the sequence
	// matches, dispatch is deferred until one directive keystroke
	// selects a direction/scope/hierarchy modifier.
	Magic bool

	// RepeatIgnore suppresses count propagation: the descriptor is
	// sent with the unspecified-repeat sentinel instead of the
	// accumulated count.
	RepeatIgnore bool

	// Domain restricts the mapping to hosts matching this pattern.
	// Empty means all hosts.
	Domain string

	// Args are fixed command-specific fields copied into the
	// outbound descriptor.
	Args map[string]any
}

// Mapping binds one key sequence to a command within a mode.
type Mapping struct {
	// Sequence is the parsed key sequence. Never empty.
	Sequence *key.Sequence

	// Mode is the name of the mode owning this mapping.
	Mode string

	// Annotation is the stable human-readable command name used for
	// documentation and indirect binding. May be empty for legacy
	// declarations; the registry synthesizes one at build time.
	Annotation string

	// Action is the command identifier sent across the messaging
	// boundary, e.g. "scroll.top", "tab.close".
	Action string

	// Options is the mapping configuration bag.
	Options Options
}

// Validate checks mapping construction invariants.
func (m *Mapping) Validate() error {
	if m.Sequence == nil || m.Sequence.IsEmpty() {
		return fmt.Errorf("%w (action %q)", ErrEmptySequence, m.Action)
	}
	if m.Action == "" {
		return fmt.Errorf("%w (keys %q)", ErrEmptyAction, m.Sequence.Spec())
	}
	return nil
}

// Declaration is the unparsed registration form used by the
// configuration surface: keys are a spec string, not yet a sequence.
type Declaration struct {
	// Mode is the mode name this declaration belongs to.
	Mode string

	// Keys is the key sequence spec, e.g. "gg", "g t", "<C-s>".
	Keys string

	// Annotation is the human-readable command name.
	Annotation string

	// Action is the command identifier.
	Action string

	// Options is the mapping configuration bag.
	Options Options
}

// Parse converts the declaration into a validated Mapping.
func (d Declaration) Parse() (*Mapping, error) {
	seq, err := key.ParseSequence(d.Keys)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", d.Keys, err)
	}

	m := &Mapping{
		Sequence:   seq,
		Mode:       d.Mode,
		Annotation: d.Annotation,
		Action:     d.Action,
		Options:    d.Options,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
