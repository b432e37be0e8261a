// Package input implements the dispatch engine: the façade that turns
// a stream of key events into fully-resolved action descriptors.
//
// The engine owns the mode stack, the per-episode trie position, the
// repeat counter and the ambiguity timer. One episode runs from the
// first symbol of a candidate sequence to its resolution or
// abandonment; no state survives an episode except the mode stack.
//
// HandleKey must be called from a single goroutine. The internal mutex
// exists only for the timer callback and the hint-selection callback,
// which arrive on other goroutines.
package input

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vesperkey/vesper/internal/diag"
	"github.com/vesperkey/vesper/internal/hint"
	"github.com/vesperkey/vesper/internal/input/command"
	"github.com/vesperkey/vesper/internal/input/count"
	"github.com/vesperkey/vesper/internal/input/key"
	"github.com/vesperkey/vesper/internal/input/magic"
	"github.com/vesperkey/vesper/internal/input/mode"
	"github.com/vesperkey/vesper/internal/input/registry"
	"github.com/vesperkey/vesper/internal/input/trie"
	"github.com/vesperkey/vesper/internal/message"
)

// State is the engine's dispatch state.
type State uint8

const (
	// StateIdle means no episode is in flight.
	StateIdle State = iota

	// StatePending means a partial sequence is waiting for more
	// symbols.
	StatePending

	// StateAwaitingDirective means a magic-aware command matched and
	// exactly one directive keystroke is expected.
	StateAwaitingDirective
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateAwaitingDirective:
		return "awaiting-directive"
	default:
		return "unknown"
	}
}

// RawSink receives the raw key events forwarded while pass-through
// mode is active.
type RawSink interface {
	// Forward delivers one unprocessed key event to the page.
	Forward(ev key.Event) error
}

// RawSinkFunc adapts a function to the RawSink interface.
type RawSinkFunc func(ev key.Event) error

// Forward implements RawSink.
func (f RawSinkFunc) Forward(ev key.Event) error {
	return f(ev)
}

// Config holds the engine's tunable parameters.
type Config struct {
	// SequenceTimeout bounds both how long an ambiguous terminal
	// waits for an extending symbol before committing, and how long
	// a pending partial match waits before being abandoned.
	SequenceTimeout time.Duration

	// DigitRepeat enables the repeat-prefix accumulator in
	// count-enabled modes.
	DigitRepeat bool

	// PassThroughDelay keeps pass-through mode active this long
	// after a forwarded keydown. Zero pops on the next keydown.
	PassThroughDelay time.Duration

	// DefaultMode is the base mode name.
	DefaultMode string
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		SequenceTimeout: 800 * time.Millisecond,
		DigitRepeat:     true,
		DefaultMode:     mode.Normal,
	}
}

// Engine is the dispatch façade.
type Engine struct {
	mu sync.Mutex

	cfg      Config
	modes    *mode.Registry
	registry *registry.Registry
	stack    *mode.Stack
	resolver *magic.Resolver
	port     message.Port
	raw      RawSink
	renderer hint.Renderer
	log      *diag.Logger

	counter *count.Counter

	// Episode state. node is non-nil exactly while StatePending.
	state State
	node  *trie.Node

	// Magic sub-episode state, valid while StateAwaitingDirective.
	magicBase  *command.Mapping
	magicCount int

	// Hint suspension state.
	hintActive bool
	hintAction string

	// timerEpoch guards the ambiguity timer: every arm and every
	// cancel bumps it, so a stale callback can never commit into a
	// newer episode.
	timer      *time.Timer
	timerEpoch uint64
}

// NewEngine creates an engine over a built mode set and registry. The
// configured default mode must exist.
func NewEngine(cfg Config, modes *mode.Registry, reg *registry.Registry, port message.Port) (*Engine, error) {
	if cfg.DefaultMode == "" {
		cfg.DefaultMode = mode.Normal
	}
	if cfg.SequenceTimeout <= 0 {
		cfg.SequenceTimeout = DefaultConfig().SequenceTimeout
	}
	def := modes.Get(cfg.DefaultMode)
	if def == nil {
		return nil, fmt.Errorf("default mode %q not registered", cfg.DefaultMode)
	}
	if port == nil {
		return nil, fmt.Errorf("engine requires a message port")
	}

	return &Engine{
		cfg:      cfg,
		modes:    modes,
		registry: reg,
		stack:    mode.NewStack(def),
		resolver: magic.NewResolver(nil),
		port:     port,
		raw:      RawSinkFunc(func(key.Event) error { return nil }),
		renderer: hint.NopRenderer{},
		log:      diag.NullLogger,
		counter:  count.New(),
	}, nil
}

// WithLogger sets the diagnostics logger.
func (e *Engine) WithLogger(log *diag.Logger) *Engine {
	if log != nil {
		e.log = log.WithComponent("engine")
	}
	return e
}

// WithRawSink sets the pass-through forwarding target.
func (e *Engine) WithRawSink(sink RawSink) *Engine {
	if sink != nil {
		e.raw = sink
	}
	return e
}

// WithRenderer sets the hint overlay collaborator.
func (e *Engine) WithRenderer(r hint.Renderer) *Engine {
	if r != nil {
		e.renderer = r
	}
	return e
}

// WithResolver sets a custom magic directive resolver.
func (e *Engine) WithResolver(r *magic.Resolver) *Engine {
	if r != nil {
		e.resolver = r
	}
	return e
}

// State returns the current dispatch state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// ModeName returns the active mode's name.
func (e *Engine) ModeName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stack.Top().Name()
}

// Registry returns the annotation index in effect.
func (e *Engine) Registry() *registry.Registry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry
}

// Rebuild swaps in a freshly built mode set and registry, as after a
// configuration reload. The stack is reset to the default mode and any
// in-flight episode is abandoned.
func (e *Engine) Rebuild(modes *mode.Registry, reg *registry.Registry) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	def := modes.Get(e.cfg.DefaultMode)
	if def == nil {
		return fmt.Errorf("default mode %q not registered", e.cfg.DefaultMode)
	}

	e.abandonLocked("configuration rebuilt")
	e.modes = modes
	e.registry = reg
	e.stack = mode.NewStack(def)
	return nil
}

// HandleKey consumes one key event. Resolution failures (no match,
// unknown directive) are not errors: they abandon the episode and are
// logged. The returned error reports delivery failures only.
func (e *Engine) HandleKey(ev key.Event) error {
	e.mu.Lock()
	after, err := e.handleLocked(ev)
	e.mu.Unlock()

	// Collaborator calls that may call back into the engine run
	// outside the lock.
	if after != nil {
		after()
	}
	return err
}

func (e *Engine) handleLocked(ev key.Event) (after func(), err error) {
	top := e.stack.Top()

	if top.PassThrough() {
		return e.passThroughLocked(top, ev)
	}

	if e.state == StateAwaitingDirective {
		return nil, e.directiveLocked(ev)
	}

	// Escape cancels, unless a binding genuinely extends with it.
	if ev.IsEscape() {
		if res := top.Trie().Step(e.node, ev); res.Kind == trie.NoMatch {
			return e.cancelLocked(top), nil
		}
	}

	// Digits accumulate the repeat prefix, but only at the episode
	// root: a digit inside a partial sequence is an ordinary symbol.
	if e.node == nil && ev.IsDigit() && top.AllowCount() && e.cfg.DigitRepeat {
		if e.counter.Accumulate(ev.Rune) {
			return nil, nil
		}
		// A leading '0' falls through and dispatches normally.
	}

	res := top.Trie().Step(e.node, ev)
	switch res.Kind {
	case trie.NoMatch:
		// The failing symbol is dropped, not replayed as a new
		// episode root.
		e.abandonLocked("no binding for " + ev.String())
		return nil, nil

	case trie.Pending:
		e.node = res.Node
		e.state = StatePending
		e.armTimerLocked(e.cfg.SequenceTimeout, func() {
			e.abandonLocked("sequence timed out")
		})
		return nil, nil

	case trie.Matched:
		return e.commitLocked(res.Mapping)

	case trie.Ambiguous:
		e.node = res.Node
		e.state = StatePending
		mapping := res.Mapping
		e.armTimerLocked(e.cfg.SequenceTimeout, func() {
			after, err := e.commitLocked(mapping)
			if err != nil {
				e.log.Error("deferred commit: %v", err)
			}
			if after != nil {
				go after()
			}
		})
		return nil, nil
	}

	return nil, nil
}

// passThroughLocked forwards raw events while pass-through mode is on
// top. Escape leaves the mode without forwarding.
func (e *Engine) passThroughLocked(top *mode.Mode, ev key.Event) (func(), error) {
	if ev.IsEscape() {
		e.stopTimerLocked()
		e.leaveModeLocked(top)
		return nil, nil
	}

	err := e.raw.Forward(ev)

	if e.cfg.PassThroughDelay <= 0 {
		e.leaveModeLocked(top)
		return nil, err
	}

	// Each forwarded key extends the stay; the mode pops once the
	// keys stop coming.
	e.armTimerLocked(e.cfg.PassThroughDelay, func() {
		if e.stack.Top().PassThrough() {
			e.leaveModeLocked(e.stack.Top())
		}
	})
	return nil, err
}

// directiveLocked resolves the single directive keystroke of a magic
// sub-episode.
func (e *Engine) directiveLocked(ev key.Event) error {
	base, cnt := e.magicBase, e.magicCount
	e.magicBase = nil
	e.magicCount = 0
	e.state = StateIdle

	if ev.IsEscape() {
		e.log.Debug("directive wait cancelled")
		return nil
	}

	desc, err := e.resolver.Resolve(base, ev, cnt)
	if err != nil {
		// Unknown directive: the count is already discarded with
		// the sub-episode.
		e.log.Warn("magic %q: %v", base.Action, err)
		return nil
	}
	return e.emitLocked(desc)
}

// cancelLocked handles Escape when it does not extend a binding: an
// in-flight episode is cleared first; with nothing in flight, a
// non-default mode is left instead.
func (e *Engine) cancelLocked(top *mode.Mode) (after func()) {
	if e.node != nil || e.counter.Active() {
		e.abandonLocked("cancelled")
		return nil
	}

	if top.Name() == e.cfg.DefaultMode && e.stack.Depth() == 1 {
		return nil
	}

	wasHint := e.hintActive
	e.hintActive = false
	e.leaveModeLocked(top)

	if wasHint {
		return e.renderer.Cancel
	}
	return nil
}

// abandonLocked discards the in-flight episode: trie position, repeat
// count and timer.
func (e *Engine) abandonLocked(reason string) {
	e.stopTimerLocked()
	if e.node != nil || e.counter.Active() || e.state != StateIdle {
		e.log.Debug("episode abandoned: %s", reason)
	}
	e.node = nil
	e.magicBase = nil
	e.magicCount = 0
	e.counter.Reset()
	e.state = StateIdle
}

// commitLocked resolves a matched mapping: magic-aware commands open
// the directive sub-episode, everything else emits immediately.
func (e *Engine) commitLocked(m *command.Mapping) (after func(), err error) {
	e.stopTimerLocked()
	e.node = nil
	e.state = StateIdle
	cnt := e.counter.Consume()

	if m.Options.Magic {
		e.state = StateAwaitingDirective
		e.magicBase = m
		e.magicCount = cnt
		return nil, nil
	}

	if after, handled := e.internalActionLocked(m); handled {
		return after, nil
	}

	repeats := cnt
	if m.Options.RepeatIgnore {
		repeats = message.RepeatUnspecified
	}
	return nil, e.emitLocked(message.Descriptor{
		Action:  m.Action,
		Repeats: repeats,
		Extra:   m.Options.Args,
	})
}

// internalActionLocked intercepts the actions the engine itself owns:
// mode transitions and hint activation. Everything else crosses the
// messaging boundary.
func (e *Engine) internalActionLocked(m *command.Mapping) (after func(), handled bool) {
	switch {
	case strings.HasPrefix(m.Action, "mode."):
		name := strings.TrimPrefix(m.Action, "mode.")
		target := e.modes.Get(name)
		if target == nil {
			e.log.Warn("mode transition to unknown mode %q", name)
			return nil, true
		}
		e.enterModeLocked(target)
		return nil, true

	case strings.HasPrefix(m.Action, "hints."):
		target := e.modes.Get(mode.Hint)
		if target == nil {
			e.log.Warn("hint action %q without a hint mode", m.Action)
			return nil, true
		}
		e.enterModeLocked(target)
		e.hintActive = true
		e.hintAction = m.Action

		req := hint.Request{Filter: "clickable", Action: m.Action}
		return func() {
			if err := e.renderer.Activate(req, e.finishHint); err != nil {
				e.log.Error("hint activation: %v", err)
				e.mu.Lock()
				e.hintActive = false
				e.leaveModeLocked(e.stack.Top())
				e.mu.Unlock()
			}
		}, true
	}
	return nil, false
}

// finishHint is the renderer's callback. It may arrive on any
// goroutine.
func (e *Engine) finishHint(sel hint.Selection) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.hintActive {
		return
	}
	action := e.hintAction
	e.hintActive = false
	e.hintAction = ""
	if e.stack.Top().Name() == mode.Hint {
		e.leaveModeLocked(e.stack.Top())
	}

	if sel.Canceled {
		e.log.Debug("hint selection cancelled")
		return
	}
	err := e.emitLocked(message.Descriptor{
		Action:  action,
		Repeats: 1,
		Extra:   map[string]any{"target": sel.Target},
	})
	if err != nil {
		e.log.Error("hint dispatch: %v", err)
	}
}

// enterModeLocked activates a mode: stacked modes push, base modes
// replace the stack top. Episode state never crosses a transition.
func (e *Engine) enterModeLocked(m *mode.Mode) {
	e.abandonLocked("mode change to " + m.Name())
	if m.Stacked() {
		e.stack.Push(m)
	} else {
		e.stack.Replace(m)
	}
	e.log.Debug("mode: %s", m.Name())
}

// leaveModeLocked returns from the top mode: stacked modes pop, a
// replaced base mode is swapped back to the default.
func (e *Engine) leaveModeLocked(top *mode.Mode) {
	e.abandonLocked("leaving mode " + top.Name())
	if !e.stack.Pop() && top.Name() != e.cfg.DefaultMode {
		if def := e.modes.Get(e.cfg.DefaultMode); def != nil {
			e.stack.Replace(def)
		}
	}
	e.log.Debug("mode: %s", e.stack.Top().Name())
}

func (e *Engine) emitLocked(d message.Descriptor) error {
	if err := e.port.Send(d); err != nil {
		return fmt.Errorf("dispatching %q: %w", d.Action, err)
	}
	e.log.Debug("dispatched %s", d.Action)
	return nil
}

// armTimerLocked schedules fn after d, invalidating any earlier timer.
// The epoch check makes a stale callback a no-op even if it was
// already in flight when the episode moved on.
func (e *Engine) armTimerLocked(d time.Duration, fn func()) {
	e.timerEpoch++
	epoch := e.timerEpoch
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(d, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if epoch != e.timerEpoch {
			return
		}
		fn()
	})
}

func (e *Engine) stopTimerLocked() {
	e.timerEpoch++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}
