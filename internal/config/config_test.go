package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseSettingsDefaults(t *testing.T) {
	s, err := ParseSettings(nil)
	if err != nil {
		t.Fatalf("ParseSettings error: %v", err)
	}
	if s.SequenceTimeoutMS != 800 || !s.DigitRepeat || s.DefaultMode != "normal" {
		t.Errorf("defaults wrong: %+v", s)
	}
}

func TestParseSettingsOverrides(t *testing.T) {
	s, err := ParseSettings([]byte(`
sequence_timeout_ms = 500
digit_repeat = false
passthrough_delay_ms = 100
default_mode = "insert"
log_level = "debug"
`))
	if err != nil {
		t.Fatalf("ParseSettings error: %v", err)
	}
	if s.SequenceTimeout() != 500*time.Millisecond {
		t.Errorf("SequenceTimeout = %v, want 500ms", s.SequenceTimeout())
	}
	if s.DigitRepeat {
		t.Error("digit_repeat = false should be honored")
	}
	if s.PassThroughDelay() != 100*time.Millisecond {
		t.Errorf("PassThroughDelay = %v, want 100ms", s.PassThroughDelay())
	}
	if s.DefaultMode != "insert" || s.LogLevel != "debug" {
		t.Errorf("settings wrong: %+v", s)
	}
}

func TestParseSettingsRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"malformed toml", `sequence_timeout_ms = `},
		{"negative timeout", `sequence_timeout_ms = -1`},
		{"empty default mode", `default_mode = ""`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSettings([]byte(tt.src)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadSettingsFileMissing(t *testing.T) {
	s, err := LoadSettingsFile(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("missing file should yield defaults, got error: %v", err)
	}
	if s != DefaultSettings() {
		t.Errorf("got %+v, want defaults", s)
	}
}

func TestParseRCMap(t *testing.T) {
	rc, err := ParseRC(`
vesper.map("normal", "gg", "scroll to top", "scroll.top")
vesper.map("normal", "tc", "close tabs", "tab.close", {
	magic = true,
	repeat_ignore = true,
	domain = "*.example.com",
	args = { confirm = true, batch = 10 },
})
`)
	if err != nil {
		t.Fatalf("ParseRC error: %v", err)
	}
	if len(rc.Declarations) != 2 {
		t.Fatalf("got %d declarations, want 2", len(rc.Declarations))
	}

	plain := rc.Declarations[0]
	if plain.Mode != "normal" || plain.Keys != "gg" || plain.Action != "scroll.top" {
		t.Errorf("declaration wrong: %+v", plain)
	}

	magic := rc.Declarations[1]
	if !magic.Options.Magic || !magic.Options.RepeatIgnore {
		t.Errorf("opts flags not parsed: %+v", magic.Options)
	}
	if magic.Options.Domain != "*.example.com" {
		t.Errorf("Domain = %q", magic.Options.Domain)
	}
	if magic.Options.Args["confirm"] != true || magic.Options.Args["batch"] != int64(10) {
		t.Errorf("Args = %+v", magic.Options.Args)
	}
}

func TestParseRCBind(t *testing.T) {
	rc, err := ParseRC(`vesper.bind("normal", "<Home>", "scroll to top")`)
	if err != nil {
		t.Fatalf("ParseRC error: %v", err)
	}
	if len(rc.Bindings) != 1 {
		t.Fatalf("got %d bindings, want 1", len(rc.Bindings))
	}
	b := rc.Bindings[0]
	if b.Mode != "normal" || b.Keys != "<Home>" || b.Annotation != "scroll to top" {
		t.Errorf("binding wrong: %+v", b)
	}
}

func TestParseRCErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"syntax error", `vesper.map(`, "evaluating rc"},
		{"bad key spec", `vesper.map("normal", "<Nope-x>", "a", "b")`, "vesper.map"},
		{"missing args", `vesper.map("normal")`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRC(tt.src)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestParseRCSandboxed(t *testing.T) {
	// The os and io libraries are not opened; the rc cannot reach
	// the filesystem.
	if _, err := ParseRC(`os.exit(1)`); err == nil {
		t.Error("os library should be unavailable")
	}
	if _, err := ParseRC(`io.open("/etc/passwd")`); err == nil {
		t.Error("io library should be unavailable")
	}
}

func TestReloaderInvokesRebuild(t *testing.T) {
	dir := t.TempDir()
	rcPath := filepath.Join(dir, "rc.lua")
	if err := os.WriteFile(rcPath, []byte(`-- empty`), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan struct{}, 1)
	r, err := NewReloader([]string{rcPath}, func() error {
		select {
		case reloaded <- struct{}{}:
		default:
		}
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("NewReloader error: %v", err)
	}
	defer r.Close()

	if err := os.WriteFile(rcPath, []byte(`-- changed`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("rebuild was not triggered by a file write")
	}
}

func TestReloaderIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	rcPath := filepath.Join(dir, "rc.lua")
	if err := os.WriteFile(rcPath, []byte(`-- empty`), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan struct{}, 1)
	r, err := NewReloader([]string{rcPath}, func() error {
		reloaded <- struct{}{}
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("NewReloader error: %v", err)
	}
	defer r.Close()

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
		t.Error("sibling file writes should not trigger a rebuild")
	case <-time.After(600 * time.Millisecond):
	}
}
