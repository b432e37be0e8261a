// Package hint defines the rendering boundary for visual-selection
// modes. The engine never touches page elements itself: it hands the
// renderer a description of which elements qualify and suspends the
// episode until the renderer reports a selection or a cancellation.
package hint

import "errors"

// ErrRendererBusy is returned when Activate is called while a previous
// activation is still outstanding.
var ErrRendererBusy = errors.New("hint renderer already active")

// Request describes one hint activation: which elements qualify and
// how their labels are generated.
type Request struct {
	// Filter is an opaque predicate identifying qualifying elements
	// (e.g. "clickable", "link", "input"). Interpreted by the
	// renderer, never by the engine.
	Filter string

	// Alphabet is the label alphabet, home-row first. Empty means
	// the renderer's default.
	Alphabet string

	// Action is the command dispatched with the eventual selection,
	// e.g. "hints.open" or "hints.openNewTab".
	Action string
}

// Selection is the renderer's asynchronous answer to a Request.
type Selection struct {
	// Target is the opaque token of the chosen element. Empty when
	// Canceled.
	Target string

	// Canceled is true when the user dismissed the overlay without
	// choosing.
	Canceled bool
}

// Callback receives the renderer's answer. Invoked exactly once per
// successful Activate, possibly from another goroutine.
type Callback func(Selection)

// Renderer is the visual-overlay collaborator. Implementations live
// outside the engine core.
type Renderer interface {
	// Activate shows the overlay for the given request and arranges
	// for done to be called with the outcome.
	Activate(req Request, done Callback) error

	// Cancel dismisses an outstanding overlay. The pending callback
	// still fires, with Canceled set.
	Cancel()
}

// NopRenderer satisfies Renderer by cancelling every request
// immediately. Used when no overlay host is wired up.
type NopRenderer struct{}

// Activate implements Renderer.
func (NopRenderer) Activate(_ Request, done Callback) error {
	done(Selection{Canceled: true})
	return nil
}

// Cancel implements Renderer.
func (NopRenderer) Cancel() {}
