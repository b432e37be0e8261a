package key

import (
	"strings"
	"unicode"
)

// Event is a single key press as delivered by the host input stream:
// a key symbol plus modifier flags.
type Event struct {
	// Key identifies the key pressed.
	Key Key

	// Rune is the character for KeyRune events.
	Rune rune

	// Modifiers contains the active modifier keys.
	Modifiers Modifier
}

// NewRuneEvent creates a key event for a character.
func NewRuneEvent(r rune, mods Modifier) Event {
	return Event{Key: KeyRune, Rune: r, Modifiers: mods}
}

// NewSpecialEvent creates a key event for a special key.
func NewSpecialEvent(key Key, mods Modifier) Event {
	return Event{Key: key, Modifiers: mods}
}

// IsRune returns true if this is a character key event.
func (e Event) IsRune() bool {
	return e.Key == KeyRune && e.Rune != 0
}

// IsDigit returns true if this is an unmodified decimal digit key.
func (e Event) IsDigit() bool {
	return e.IsRune() && !e.IsModified() && e.Rune >= '0' && e.Rune <= '9'
}

// IsModified returns true if any modifier is pressed. For character
// events Shift alone is not considered modified, since Shift changes
// the character itself.
func (e Event) IsModified() bool {
	if e.IsRune() {
		return e.Modifiers&(ModCtrl|ModAlt|ModMeta) != 0
	}
	return e.Modifiers != ModNone
}

// IsEscape returns true if this is the Escape key with no modifiers.
func (e Event) IsEscape() bool {
	return e.Key == KeyEscape && e.Modifiers == ModNone
}

// Equals returns true if two events represent the same key press.
func (e Event) Equals(other Event) bool {
	return e.Key == other.Key &&
		e.Rune == other.Rune &&
		e.Modifiers == other.Modifiers
}

// String returns the canonical representation used as the trie child
// index. Examples: "a", "A", "C-s", "Esc", "C-S-Up"
func (e Event) String() string {
	var parts []string

	if e.Modifiers.HasCtrl() {
		parts = append(parts, "C")
	}
	if e.Modifiers.HasAlt() {
		parts = append(parts, "A")
	}
	if e.Modifiers.HasMeta() {
		parts = append(parts, "M")
	}
	// Shift is only shown for non-character keys; for characters it is
	// already folded into the rune.
	if e.Modifiers.HasShift() && !e.IsRune() {
		parts = append(parts, "S")
	}

	parts = append(parts, e.keyName())
	return strings.Join(parts, "-")
}

// Spec returns a Vim-style specification that parses back to this
// event. Examples: "a", "<C-s>", "<Esc>", "<Space>"
func (e Event) Spec() string {
	if e.IsRune() && !e.IsModified() {
		if e.Rune == ' ' {
			return "<Space>"
		}
		return string(e.Rune)
	}

	var parts []string
	if e.Modifiers.HasCtrl() {
		parts = append(parts, "C")
	}
	if e.Modifiers.HasAlt() {
		parts = append(parts, "A")
	}
	if e.Modifiers.HasMeta() {
		parts = append(parts, "D")
	}
	if e.Modifiers.HasShift() && !e.IsRune() {
		parts = append(parts, "S")
	}

	name := e.keyName()
	if e.Key == KeyRune {
		name = strings.ToLower(string(e.Rune))
	}
	parts = append(parts, name)

	return "<" + strings.Join(parts, "-") + ">"
}

func (e Event) keyName() string {
	switch e.Key {
	case KeyRune:
		if e.Rune == ' ' {
			return "Space"
		}
		return string(e.Rune)
	case KeyEscape:
		return "Esc"
	case KeyEnter:
		return "Enter"
	case KeyTab:
		return "Tab"
	case KeyBackspace:
		return "BS"
	case KeyDelete:
		return "Del"
	case KeyInsert:
		return "Ins"
	case KeyHome:
		return "Home"
	case KeyEnd:
		return "End"
	case KeyPageUp:
		return "PgUp"
	case KeyPageDown:
		return "PgDn"
	case KeyUp:
		return "Up"
	case KeyDown:
		return "Down"
	case KeyLeft:
		return "Left"
	case KeyRight:
		return "Right"
	default:
		return e.Key.String()
	}
}

// IsPrintable returns true if this is a printable character event.
func (e Event) IsPrintable() bool {
	return e.IsRune() && unicode.IsPrint(e.Rune)
}
