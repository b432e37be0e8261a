package registry

import (
	"errors"
	"testing"

	"github.com/vesperkey/vesper/internal/input/command"
	"github.com/vesperkey/vesper/internal/input/key"
	"github.com/vesperkey/vesper/internal/input/mode"
)

func buildTestRegistry(t *testing.T, decls []command.Declaration) (*Registry, *mode.Registry) {
	t.Helper()
	modes, err := BuildModes(DefaultModeConfigs(), decls)
	if err != nil {
		t.Fatalf("BuildModes error: %v", err)
	}
	r, err := Build(modes)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	return r, modes
}

func TestBuildIndexesByAnnotation(t *testing.T) {
	r, _ := buildTestRegistry(t, []command.Declaration{
		{Mode: mode.Normal, Keys: "gg", Annotation: "Scroll To Top", Action: "scroll.top"},
		{Mode: mode.Normal, Keys: "gt", Annotation: "next tab", Action: "tab.next"},
	})

	entry := r.Lookup("", "scroll to top")
	if entry == nil {
		t.Fatal("annotation lookup should be case-insensitive")
	}
	if entry.Mapping.Action != "scroll.top" {
		t.Errorf("Action = %q, want scroll.top", entry.Mapping.Action)
	}
	if entry.Sequence.Spec() != "gg" {
		t.Errorf("Sequence = %q, want gg", entry.Sequence.Spec())
	}
}

func TestBuildSynthesizesMissingAnnotation(t *testing.T) {
	r, _ := buildTestRegistry(t, []command.Declaration{
		{Mode: mode.Normal, Keys: "j", Action: "scroll.down"},
	})

	entry := r.Lookup("", "normal scroll down")
	if entry == nil {
		t.Fatal("missing annotation should be synthesized from mode and action")
	}
	if !entry.Synthesized {
		t.Error("entry should be flagged as synthesized")
	}
}

func TestBuildDuplicateAnnotationSameMode(t *testing.T) {
	modes, err := BuildModes(DefaultModeConfigs(), []command.Declaration{
		{Mode: mode.Normal, Keys: "gg", Annotation: "jump", Action: "scroll.top"},
		{Mode: mode.Normal, Keys: "G", Annotation: "Jump", Action: "scroll.bottom"},
	})
	if err != nil {
		t.Fatalf("BuildModes error: %v", err)
	}

	_, err = Build(modes)
	var dupErr *DuplicateAnnotationError
	if !errors.As(err, &dupErr) {
		t.Fatalf("Build error = %v, want DuplicateAnnotationError", err)
	}
	if dupErr.Mode != mode.Normal || dupErr.Annotation != "jump" {
		t.Errorf("error detail = %+v", dupErr)
	}
}

func TestBuildCrossModeCollisionQualified(t *testing.T) {
	r, _ := buildTestRegistry(t, []command.Declaration{
		{Mode: mode.Normal, Keys: "j", Annotation: "down", Action: "scroll.down"},
		{Mode: mode.Visual, Keys: "j", Annotation: "down", Action: "selection.down"},
	})

	// Both entries remain reachable: one plain, one mode-qualified.
	plain := r.Lookup("", "down")
	if plain == nil {
		t.Fatal("first entry should keep the plain key")
	}
	qualified := r.Lookup(mode.Visual, "down")
	if qualified == nil {
		t.Fatal("colliding entry should be reachable mode-qualified")
	}
	if qualified.Mapping.Action != "selection.down" {
		t.Errorf("qualified entry action = %q, want selection.down", qualified.Mapping.Action)
	}
	if len(r.Warnings()) == 0 {
		t.Error("cross-mode fixup should be recorded as a warning")
	}
}

// Registry totality: every trie terminal has exactly one index entry
// that walks back to the same terminal.
func TestBuildTotality(t *testing.T) {
	r, modes := buildTestRegistry(t, DefaultDeclarations())

	terminals := 0
	for _, m := range modes.Modes() {
		m.Trie().Walk(func(_ *key.Sequence, _ *command.Mapping) bool {
			terminals++
			return true
		})
	}
	if r.Len() != terminals {
		t.Fatalf("index has %d entries for %d terminals", r.Len(), terminals)
	}

	for _, entry := range r.Entries() {
		m := modes.Get(entry.Mode)
		if m == nil {
			t.Fatalf("entry mode %q not registered", entry.Mode)
		}
		got := m.Trie().Lookup(entry.Sequence)
		if got != entry.Mapping {
			t.Errorf("index entry for %q does not walk back to its terminal", entry.Sequence.Spec())
		}
	}
}

func TestBindByAnnotation(t *testing.T) {
	r, modes := buildTestRegistry(t, []command.Declaration{
		{Mode: mode.Normal, Keys: "gg", Annotation: "scroll to top", Action: "scroll.top"},
	})

	if err := r.BindByAnnotation(mode.Normal, "<Home>", "scroll to top"); err != nil {
		t.Fatalf("BindByAnnotation error: %v", err)
	}

	m := modes.Get(mode.Normal)
	mapping := m.Trie().Lookup(key.MustParseSequence("<Home>"))
	if mapping == nil || mapping.Action != "scroll.top" {
		t.Error("bound sequence should resolve to the annotated command")
	}
}

func TestBindByAnnotationNotFound(t *testing.T) {
	r, _ := buildTestRegistry(t, []command.Declaration{
		{Mode: mode.Normal, Keys: "gg", Annotation: "scroll to top", Action: "scroll.top"},
	})

	err := r.BindByAnnotation(mode.Normal, "zz", "does not exist")
	var notFound *CommandNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want CommandNotFoundError", err)
	}
	if notFound.Keys != "zz" || notFound.Annotation != "does not exist" {
		t.Errorf("error should name sequence and annotation: %+v", notFound)
	}
}

func TestBuildModesDuplicateSequence(t *testing.T) {
	_, err := BuildModes(DefaultModeConfigs(), []command.Declaration{
		{Mode: mode.Normal, Keys: "gg", Action: "scroll.top"},
		{Mode: mode.Normal, Keys: "gg", Action: "scroll.bottom"},
	})
	if err == nil {
		t.Error("duplicate sequence within a mode should abort the build")
	}
}

func TestDefaultDeclarationsBuild(t *testing.T) {
	r, modes := buildTestRegistry(t, DefaultDeclarations())

	if modes.Get(mode.Normal) == nil || modes.Get(mode.PassThrough) == nil {
		t.Fatal("standard modes missing")
	}
	if r.Len() == 0 {
		t.Fatal("default declarations should produce a populated index")
	}

	entry := r.Lookup("", "close tabs")
	if entry == nil {
		t.Fatal("close tabs should be indexed")
	}
	if !entry.Mapping.Options.Magic {
		t.Error("close tabs should be magic-aware")
	}
}
