package key

import (
	"testing"
)

func TestParseSingleCharacter(t *testing.T) {
	tests := []struct {
		spec     string
		wantRune rune
		wantMods Modifier
	}{
		{"a", 'a', ModNone},
		{"A", 'A', ModShift},
		{"1", '1', ModNone},
		{"@", '@', ModNone},
		{"g", 'g', ModNone},
	}

	for _, tt := range tests {
		event, err := Parse(tt.spec)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", tt.spec, err)
			continue
		}
		if event.Key != KeyRune {
			t.Errorf("Parse(%q).Key = %v, want KeyRune", tt.spec, event.Key)
		}
		if event.Rune != tt.wantRune {
			t.Errorf("Parse(%q).Rune = %q, want %q", tt.spec, event.Rune, tt.wantRune)
		}
		if event.Modifiers != tt.wantMods {
			t.Errorf("Parse(%q).Modifiers = %v, want %v", tt.spec, event.Modifiers, tt.wantMods)
		}
	}
}

func TestParseSpecialKeys(t *testing.T) {
	tests := []struct {
		spec string
		want Key
	}{
		{"Enter", KeyEnter},
		{"Escape", KeyEscape},
		{"esc", KeyEscape},
		{"Tab", KeyTab},
		{"Backspace", KeyBackspace},
		{"Up", KeyUp},
		{"PageDown", KeyPageDown},
		{"F5", KeyF5},
	}

	for _, tt := range tests {
		event, err := Parse(tt.spec)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", tt.spec, err)
			continue
		}
		if event.Key != tt.want {
			t.Errorf("Parse(%q).Key = %v, want %v", tt.spec, event.Key, tt.want)
		}
	}
}

func TestParseVimStyle(t *testing.T) {
	tests := []struct {
		spec     string
		wantKey  Key
		wantRune rune
		wantMods Modifier
	}{
		{"<C-s>", KeyRune, 's', ModCtrl},
		{"<C-S>", KeyRune, 's', ModCtrl},
		{"<A-f>", KeyRune, 'f', ModAlt},
		{"<C-A-x>", KeyRune, 'x', ModCtrl | ModAlt},
		{"<CR>", KeyEnter, 0, ModNone},
		{"<Esc>", KeyEscape, 0, ModNone},
		{"<Space>", KeyRune, ' ', ModNone},
		{"<S-Tab>", KeyTab, 0, ModShift},
		{"<lt>", KeyRune, '<', ModNone},
	}

	for _, tt := range tests {
		event, err := Parse(tt.spec)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", tt.spec, err)
			continue
		}
		if event.Key != tt.wantKey {
			t.Errorf("Parse(%q).Key = %v, want %v", tt.spec, event.Key, tt.wantKey)
		}
		if event.Rune != tt.wantRune {
			t.Errorf("Parse(%q).Rune = %q, want %q", tt.spec, event.Rune, tt.wantRune)
		}
		if event.Modifiers != tt.wantMods {
			t.Errorf("Parse(%q).Modifiers = %v, want %v", tt.spec, event.Modifiers, tt.wantMods)
		}
	}
}

func TestParseModifierStyle(t *testing.T) {
	event, err := Parse("Ctrl+S")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !event.Modifiers.HasCtrl() {
		t.Error("expected Ctrl modifier")
	}
	if event.Rune != 's' {
		t.Errorf("Rune = %q, want 's'", event.Rune)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{"", "   ", "notakey", "<C-unknown>", "Bogus+x"}

	for _, spec := range tests {
		if _, err := Parse(spec); err == nil {
			t.Errorf("Parse(%q) expected error, got nil", spec)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	specs := []string{"a", "<C-s>", "<Esc>", "<Space>", "<A-x>"}

	for _, spec := range specs {
		event, err := Parse(spec)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", spec, err)
		}
		back, err := Parse(event.Spec())
		if err != nil {
			t.Fatalf("Parse(Spec()=%q) error: %v", event.Spec(), err)
		}
		if !event.Equals(back) {
			t.Errorf("round trip %q -> %q -> %#v != %#v", spec, event.Spec(), back, event)
		}
	}
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParse should panic on invalid spec")
		}
	}()
	MustParse("definitely not a key")
}
