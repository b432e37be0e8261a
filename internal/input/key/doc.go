// Package key provides key event types and parsing for the input engine.
//
// It defines the fundamental types for representing keyboard input:
//
//   - Key: identifies a keyboard key (special keys, function keys, or runes)
//   - Modifier: modifier flags (Ctrl, Alt, Shift, Meta)
//   - Event: one key press with modifiers, the unit of the input boundary
//   - Sequence: a series of key events forming one binding
//
// Key specifications can be written in multiple formats:
//
//   - Simple keys: "a", "A", "1", "Enter", "Escape"
//   - With modifiers: "Ctrl+S", "Alt+F4"
//   - Vim-style: "<C-s>", "<A-f>", "<CR>", "<Esc>"
//
// Multi-key sequences like "gg" or "g t" are represented as Sequence
// values; incremental matching against registered sequences lives in
// the trie package.
package key
