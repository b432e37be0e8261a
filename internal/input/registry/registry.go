// Package registry builds the queryable-by-name view over all key
// mappings: the annotation index used for documentation, conflict
// detection, and binding keys to a command identified by name rather
// than by direct reference.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vesperkey/vesper/internal/input/command"
	"github.com/vesperkey/vesper/internal/input/key"
	"github.com/vesperkey/vesper/internal/input/mode"
)

// CommandNotFoundError reports a bind-by-annotation lookup miss. It
// names both the requested sequence and annotation for diagnostics.
type CommandNotFoundError struct {
	Keys       string
	Annotation string
}

// Error implements the error interface.
func (e *CommandNotFoundError) Error() string {
	return fmt.Sprintf("no command annotated %q to bind to %q", e.Annotation, e.Keys)
}

// DuplicateAnnotationError reports two explicit annotations within one
// mode normalizing to the same index key. This is a construction
// error: an inconsistent registry is unsafe to dispatch against.
type DuplicateAnnotationError struct {
	Mode       string
	Annotation string
}

// Error implements the error interface.
func (e *DuplicateAnnotationError) Error() string {
	return fmt.Sprintf("duplicate annotation %q in mode %q", e.Annotation, e.Mode)
}

// Entry is one indexed mapping with its trie provenance.
type Entry struct {
	// Mode is the owning mode name.
	Mode string

	// Sequence is the key sequence reaching the terminal.
	Sequence *key.Sequence

	// Mapping is the terminal payload.
	Mapping *command.Mapping

	// Synthesized is true when the annotation was generated at
	// build time because the declaration predates the annotation
	// system.
	Synthesized bool
}

// Registry is the annotation index over a built mode set. Build-once,
// read-many: it is constructed by the engine's initialization routine
// and passed explicitly to whatever needs lookup.
type Registry struct {
	modes    *mode.Registry
	index    map[string]*Entry
	warnings []string
}

// Build walks every mode's trie to its terminals and indexes them by
// normalized (lower-cased) annotation.
//
// Terminals without an explicit annotation get one synthesized from
// the mode name and the action word; this keeps legacy declarations
// from failing the build. When two modes produce the same index key,
// the later entry is stored mode-qualified ("mode: annotation") — a
// compatibility shim, not a general collision strategy; each fixup is
// recorded as a warning. Two explicit annotations colliding within
// one mode abort the build.
func Build(modes *mode.Registry) (*Registry, error) {
	r := &Registry{
		modes: modes,
		index: make(map[string]*Entry),
	}

	for _, m := range modes.Modes() {
		perMode := make(map[string]*Entry)

		var buildErr error
		m.Trie().Walk(func(seq *key.Sequence, mp *command.Mapping) bool {
			entry := &Entry{
				Mode:     m.Name(),
				Sequence: seq,
				Mapping:  mp,
			}

			ann := normalize(mp.Annotation)
			if ann == "" {
				ann = synthesize(m.Name(), mp.Action)
				entry.Synthesized = true
			}

			if prev, ok := perMode[ann]; ok {
				if !prev.Synthesized && !entry.Synthesized {
					buildErr = &DuplicateAnnotationError{Mode: m.Name(), Annotation: ann}
					return false
				}
				// A synthesized collision is disambiguated by
				// the key sequence itself.
				ann = ann + " (" + seq.Spec() + ")"
				r.warnings = append(r.warnings,
					fmt.Sprintf("mode %s: synthesized annotation collision, indexed as %q", m.Name(), ann))
			}
			perMode[ann] = entry

			r.insertGlobal(ann, entry)
			return true
		})
		if buildErr != nil {
			return nil, buildErr
		}
	}

	return r, nil
}

// insertGlobal places an entry in the cross-mode index, falling back
// to the mode-qualified key on collision.
func (r *Registry) insertGlobal(ann string, entry *Entry) {
	if _, taken := r.index[ann]; !taken {
		r.index[ann] = entry
		return
	}

	qualified := qualify(entry.Mode, ann)
	r.index[qualified] = entry
	r.warnings = append(r.warnings,
		fmt.Sprintf("annotation %q collides across modes, indexed as %q", ann, qualified))
}

func normalize(ann string) string {
	return strings.ToLower(strings.TrimSpace(ann))
}

func synthesize(modeName, action string) string {
	return normalize(modeName + " " + strings.ReplaceAll(action, ".", " "))
}

func qualify(modeName, ann string) string {
	return modeName + ": " + ann
}

// Lookup finds a mapping by annotation, trying the mode-qualified key
// first when a mode name is given.
func (r *Registry) Lookup(modeName, annotation string) *Entry {
	ann := normalize(annotation)
	if modeName != "" {
		if e, ok := r.index[qualify(modeName, ann)]; ok {
			return e
		}
	}
	if e, ok := r.index[ann]; ok {
		if modeName == "" || e.Mode == modeName {
			return e
		}
		return nil
	}
	return nil
}

// BindByAnnotation registers an additional key sequence for the
// command identified by annotation, in the given mode. A lookup miss
// is a construction-time error, never silently ignored.
func (r *Registry) BindByAnnotation(modeName, keys, annotation string) error {
	entry := r.Lookup(modeName, annotation)
	if entry == nil {
		return &CommandNotFoundError{Keys: keys, Annotation: annotation}
	}

	m := r.modes.Get(modeName)
	if m == nil {
		return fmt.Errorf("binding %q: unknown mode %q", keys, modeName)
	}

	mapping, err := command.Declaration{
		Mode:       modeName,
		Keys:       keys,
		Annotation: entry.Mapping.Annotation,
		Action:     entry.Mapping.Action,
		Options:    entry.Mapping.Options,
	}.Parse()
	if err != nil {
		return fmt.Errorf("binding %q to %q: %w", keys, annotation, err)
	}

	return m.AddMapping(mapping)
}

// Annotations returns every index key, sorted.
func (r *Registry) Annotations() []string {
	keys := make([]string, 0, len(r.index))
	for k := range r.index {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Entries returns every indexed entry, ordered by index key.
func (r *Registry) Entries() []*Entry {
	entries := make([]*Entry, 0, len(r.index))
	for _, k := range r.Annotations() {
		entries = append(entries, r.index[k])
	}
	return entries
}

// Warnings returns the fixups applied during the build.
func (r *Registry) Warnings() []string {
	return r.warnings
}

// Len returns the number of indexed entries.
func (r *Registry) Len() int {
	return len(r.index)
}
