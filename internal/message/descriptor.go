// Package message defines the outbound boundary of the dispatch
// engine: fully-resolved action descriptors, their JSON wire form,
// and correlation of request/reply round trips.
//
// The engine is fire-and-forget for most commands. A command that
// expects a reply carries a correlation token; the privileged
// collaborator echoes {action, id} alongside its result payload and
// the Correlator routes it back. Awaiting a reply never blocks new
// key episodes.
package message

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// RepeatUnspecified is the sentinel sent when count propagation is
// suppressed for a command (Options.RepeatIgnore).
const RepeatUnspecified = -1

// Descriptor is the value sent across the messaging boundary: one
// fully-parameterized action.
type Descriptor struct {
	// Action is the command identifier, e.g. "tab.close".
	Action string

	// Repeats is the repeat count. Zero means the field is unset;
	// RepeatUnspecified (-1) means "explicitly unspecified".
	Repeats int

	// Magic is the directive semantics tag, if the command was
	// magic-resolved. Empty means unset.
	Magic string

	// ID is the correlation token. Empty for fire-and-forget.
	ID string

	// Extra carries command-specific fields copied verbatim into
	// the wire message.
	Extra map[string]any
}

// Encode renders the descriptor as its JSON wire form.
func (d Descriptor) Encode() ([]byte, error) {
	if d.Action == "" {
		return nil, fmt.Errorf("encoding descriptor: empty action")
	}

	out := "{}"
	var err error

	if out, err = sjson.Set(out, "action", d.Action); err != nil {
		return nil, fmt.Errorf("encoding action: %w", err)
	}
	if d.Repeats != 0 {
		if out, err = sjson.Set(out, "repeats", d.Repeats); err != nil {
			return nil, fmt.Errorf("encoding repeats: %w", err)
		}
	}
	if d.Magic != "" {
		if out, err = sjson.Set(out, "magic", d.Magic); err != nil {
			return nil, fmt.Errorf("encoding magic: %w", err)
		}
	}
	if d.ID != "" {
		if out, err = sjson.Set(out, "id", d.ID); err != nil {
			return nil, fmt.Errorf("encoding id: %w", err)
		}
	}
	for k, v := range d.Extra {
		if out, err = sjson.Set(out, k, v); err != nil {
			return nil, fmt.Errorf("encoding field %q: %w", k, err)
		}
	}

	return []byte(out), nil
}

// DecodeDescriptor parses a wire message back into a Descriptor.
// Unknown top-level fields land in Extra.
func DecodeDescriptor(data []byte) (Descriptor, error) {
	if !gjson.ValidBytes(data) {
		return Descriptor{}, fmt.Errorf("decoding descriptor: invalid JSON")
	}

	parsed := gjson.ParseBytes(data)
	action := parsed.Get("action").String()
	if action == "" {
		return Descriptor{}, fmt.Errorf("decoding descriptor: missing action")
	}

	d := Descriptor{
		Action:  action,
		Repeats: int(parsed.Get("repeats").Int()),
		Magic:   parsed.Get("magic").String(),
		ID:      parsed.Get("id").String(),
	}

	parsed.ForEach(func(k, v gjson.Result) bool {
		switch k.String() {
		case "action", "repeats", "magic", "id":
			return true
		}
		if d.Extra == nil {
			d.Extra = make(map[string]any)
		}
		d.Extra[k.String()] = v.Value()
		return true
	})

	return d, nil
}

// Port is the privileged collaborator that executes descriptors.
// Implementations live outside the engine core.
type Port interface {
	// Send delivers one descriptor. The engine does not block on
	// the reply; correlation is handled separately.
	Send(d Descriptor) error
}

// PortFunc adapts a function to the Port interface.
type PortFunc func(d Descriptor) error

// Send implements Port.
func (f PortFunc) Send(d Descriptor) error {
	return f(d)
}
