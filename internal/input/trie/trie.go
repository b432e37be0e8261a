// Package trie implements incremental recognition of key sequences.
//
// A Trie holds every binding registered for one mode. The engine feeds
// it one symbol at a time via Step and receives a four-way result:
// no match, pending (a longer binding may still complete), matched
// (commit now), or ambiguous (a terminal was reached but strictly
// longer bindings extend past it, so the engine waits up to a bounded
// timeout before committing).
//
// Traversal position is owned by the caller, not the trie: Step takes
// the current node and returns the next one. The trie itself is
// immutable during dispatch; it is only mutated by Insert during a
// mode build.
package trie

import (
	"errors"
	"fmt"

	"github.com/vesperkey/vesper/internal/input/command"
	"github.com/vesperkey/vesper/internal/input/key"
)

// ErrDuplicateSequence is returned by Insert when a terminal already
// exists at the exact path being inserted.
var ErrDuplicateSequence = errors.New("duplicate key sequence")

// StepKind classifies the outcome of consuming one symbol.
type StepKind uint8

const (
	// NoMatch means no registered binding extends the current path
	// with this symbol. The caller must restart from the root; the
	// in-flight partial match does not resolve to a shorter prefix.
	NoMatch StepKind = iota

	// Pending means a longer binding may still complete; more
	// symbols are needed.
	Pending

	// Matched means the consumed path lands exactly on a terminal
	// with no longer alternative. Commit immediately.
	Matched

	// Ambiguous means the path lands on a terminal but strictly
	// longer bindings extend from here. The caller must wait up to a
	// bounded timeout for another symbol before committing.
	Ambiguous
)

// String returns a human-readable name for the step kind.
func (k StepKind) String() string {
	switch k {
	case NoMatch:
		return "no-match"
	case Pending:
		return "pending"
	case Matched:
		return "matched"
	case Ambiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// StepResult is the sum-type result of one Step call.
type StepResult struct {
	// Kind classifies the outcome.
	Kind StepKind

	// Node is the new traversal position. Nil for NoMatch and
	// Matched (the episode is over either way).
	Node *Node

	// Mapping is the terminal payload for Matched and Ambiguous.
	Mapping *command.Mapping
}

// Node is one trie node. Nodes are owned exclusively by the trie that
// created them; children are indexed by the canonical event string.
type Node struct {
	children map[string]*Node

	// edge is the event that led to this node from its parent.
	edge key.Event

	// mapping is the terminal payload. A node is terminal iff
	// mapping is non-nil.
	mapping *command.Mapping
}

// IsTerminal returns true if this node ends a registered sequence.
func (n *Node) IsTerminal() bool {
	return n.mapping != nil
}

// Mapping returns the terminal payload, or nil.
func (n *Node) Mapping() *command.Mapping {
	return n.mapping
}

// HasChildren returns true if longer sequences extend from this node.
func (n *Node) HasChildren() bool {
	return len(n.children) > 0
}

// Trie is an incremental matcher over registered key sequences.
type Trie struct {
	root *Node
	size int
}

// New creates an empty trie.
func New() *Trie {
	return &Trie{root: newNode()}
}

func newNode() *Node {
	return &Node{children: make(map[string]*Node)}
}

// Root returns the root node, the starting position for a new episode.
func (t *Trie) Root() *Node {
	return t.root
}

// Len returns the number of registered sequences.
func (t *Trie) Len() int {
	return t.size
}

// Insert adds a path of nodes for the mapping's sequence, attaching
// the mapping to the final node. Inserting a second terminal at the
// same exact path is a construction error.
func (t *Trie) Insert(m *command.Mapping) error {
	if err := m.Validate(); err != nil {
		return err
	}

	node := t.root
	for _, ev := range m.Sequence.Events {
		sym := ev.String()
		child, ok := node.children[sym]
		if !ok {
			child = newNode()
			child.edge = ev
			node.children[sym] = child
		}
		node = child
	}

	if node.mapping != nil {
		return fmt.Errorf("%w: %q already bound to %q",
			ErrDuplicateSequence, m.Sequence.Spec(), node.mapping.Action)
	}

	node.mapping = m
	t.size++
	return nil
}

// Step consumes one symbol from the given traversal position. Passing
// a nil position starts from the root.
func (t *Trie) Step(from *Node, ev key.Event) StepResult {
	if from == nil {
		from = t.root
	}

	child, ok := from.children[ev.String()]
	if !ok {
		return StepResult{Kind: NoMatch}
	}

	switch {
	case child.mapping != nil && len(child.children) > 0:
		return StepResult{Kind: Ambiguous, Node: child, Mapping: child.mapping}
	case child.mapping != nil:
		return StepResult{Kind: Matched, Mapping: child.mapping}
	default:
		return StepResult{Kind: Pending, Node: child}
	}
}

// Lookup walks a whole sequence from the root and returns its
// terminal mapping, or nil if the path does not end on a terminal.
func (t *Trie) Lookup(seq *key.Sequence) *command.Mapping {
	if seq == nil {
		return nil
	}
	node := t.root
	for _, ev := range seq.Events {
		child, ok := node.children[ev.String()]
		if !ok {
			return nil
		}
		node = child
	}
	return node.mapping
}

// Walk visits every terminal in the trie, passing the full sequence
// and its mapping. Iteration stops if fn returns false.
func (t *Trie) Walk(fn func(seq *key.Sequence, m *command.Mapping) bool) {
	walk(t.root, key.NewSequence(), fn)
}

func walk(node *Node, prefix *key.Sequence, fn func(*key.Sequence, *command.Mapping) bool) bool {
	if node.mapping != nil {
		if !fn(prefix.Clone(), node.mapping) {
			return false
		}
	}
	for _, child := range node.children {
		next := prefix.Clone()
		next.Add(child.edge)
		if !walk(child, next, fn) {
			return false
		}
	}
	return true
}
