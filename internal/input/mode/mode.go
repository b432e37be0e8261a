// Package mode defines interaction modes and the mode stack.
//
// A mode is a mutually exclusive interaction context (navigation,
// text-insertion, visual-selection, hint-selection, pass-through) that
// owns one trie of its key bindings. Exactly one mode is active at any
// instant: the top of the stack. Key events are routed only to the top
// mode; dormant modes beneath it keep their bindings but never see
// input.
package mode

import (
	"fmt"

	"github.com/vesperkey/vesper/internal/input/command"
	"github.com/vesperkey/vesper/internal/input/trie"
)

// Standard mode names.
const (
	Normal      = "normal"
	Insert      = "insert"
	Visual      = "visual"
	Hint        = "hint"
	PassThrough = "passthrough"
)

// Config declares a mode's behavior flags.
type Config struct {
	// Stacked marks transient overlay modes that are entered by
	// push and left by pop (visual, hint).
	Stacked bool

	// PassThrough makes the engine forward raw key events to the
	// surrounding page instead of resolving them against the trie.
	PassThrough bool

	// AllowCount enables the digit repeat-prefix accumulator while
	// this mode is active.
	AllowCount bool
}

// Mode is one interaction context with its own key bindings.
type Mode struct {
	name string
	trie *trie.Trie
	cfg  Config
}

// New creates an empty mode.
func New(name string, cfg Config) *Mode {
	return &Mode{
		name: name,
		trie: trie.New(),
		cfg:  cfg,
	}
}

// Name returns the unique mode identifier.
func (m *Mode) Name() string { return m.name }

// Trie returns the mode's binding trie.
func (m *Mode) Trie() *trie.Trie { return m.trie }

// Stacked returns true for transient overlay modes.
func (m *Mode) Stacked() bool { return m.cfg.Stacked }

// PassThrough returns true if raw events bypass the trie.
func (m *Mode) PassThrough() bool { return m.cfg.PassThrough }

// AllowCount returns true if the repeat prefix is enabled here.
func (m *Mode) AllowCount() bool { return m.cfg.AllowCount }

// AddMapping registers one mapping in this mode's trie. The mapping's
// mode name must match; a duplicate sequence is a construction error.
func (m *Mode) AddMapping(mapping *command.Mapping) error {
	if mapping.Mode != "" && mapping.Mode != m.name {
		return fmt.Errorf("mapping for mode %q added to mode %q", mapping.Mode, m.name)
	}
	if err := m.trie.Insert(mapping); err != nil {
		return fmt.Errorf("mode %q: %w", m.name, err)
	}
	return nil
}

// Registry holds all constructed modes keyed by their stable name.
// It is built explicitly at initialization and passed to the stack,
// never resolved through ambient globals.
type Registry struct {
	modes map[string]*Mode
	order []string
}

// NewRegistry creates an empty mode registry.
func NewRegistry() *Registry {
	return &Registry{modes: make(map[string]*Mode)}
}

// Register adds a mode. Registering a duplicate name is a
// construction error.
func (r *Registry) Register(m *Mode) error {
	if m == nil {
		return fmt.Errorf("cannot register nil mode")
	}
	if _, exists := r.modes[m.Name()]; exists {
		return fmt.Errorf("mode %q already registered", m.Name())
	}
	r.modes[m.Name()] = m
	r.order = append(r.order, m.Name())
	return nil
}

// Get returns a mode by name, or nil.
func (r *Registry) Get(name string) *Mode {
	return r.modes[name]
}

// Names returns all registered mode names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Modes returns all registered modes in registration order.
func (r *Registry) Modes() []*Mode {
	modes := make([]*Mode, 0, len(r.order))
	for _, name := range r.order {
		modes = append(modes, r.modes[name])
	}
	return modes
}
