package diag

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Level: LevelWarn, Output: &buf, Prefix: "test"})

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Error("messages below the level should be suppressed")
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Error("messages at or above the level should be written")
	}
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Level: LevelDebug, Output: &buf})

	child := logger.WithComponent("engine").WithField("mode", "normal")
	child.Info("dispatching")

	out := buf.String()
	if !strings.Contains(out, "component=engine") {
		t.Errorf("output missing component field: %q", out)
	}
	if !strings.Contains(out, "mode=normal") {
		t.Errorf("output missing custom field: %q", out)
	}

	// The parent is untouched.
	buf.Reset()
	logger.Info("plain")
	if strings.Contains(buf.String(), "component=") {
		t.Error("WithField should not mutate the parent logger")
	}
}

func TestLoggerFormatArgs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Level: LevelInfo, Output: &buf, Prefix: "vesper"})

	logger.Info("resolved %q after %d keys", "tab.close", 2)

	out := buf.String()
	if !strings.Contains(out, `resolved "tab.close" after 2 keys`) {
		t.Errorf("formatted output wrong: %q", out)
	}
	if !strings.Contains(out, "[INFO] vesper:") {
		t.Errorf("line format wrong: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNullLoggerSilent(t *testing.T) {
	// Must not panic, must write nothing anywhere observable.
	NullLogger.Error("should vanish")
	child := NullLogger.WithField("k", "v")
	child.Info("still silent")
}
