// Package config loads engine settings and user key mappings, and
// watches both for changes.
//
// Settings are TOML under the XDG config home; mappings are declared
// in a Lua rc file evaluated in a restricted state. A failed reload
// never replaces a working mapping set.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	toml "github.com/pelletier/go-toml/v2"
)

// Default file locations, relative to the XDG config home.
const (
	SettingsFile = "vesper/settings.toml"
	MappingsFile = "vesper/rc.lua"
)

// Settings holds the tunable engine parameters.
type Settings struct {
	// SequenceTimeoutMS bounds how long an ambiguous match waits for
	// an extending key before the shorter command commits.
	SequenceTimeoutMS int `toml:"sequence_timeout_ms"`

	// DigitRepeat enables the digit repeat-prefix accumulator.
	DigitRepeat bool `toml:"digit_repeat"`

	// PassThroughDelayMS keeps pass-through mode active for this
	// long after the next keydown instead of popping immediately.
	// Zero pops on the next keydown.
	PassThroughDelayMS int `toml:"passthrough_delay_ms"`

	// DefaultMode is the base mode name. It can never be popped.
	DefaultMode string `toml:"default_mode"`

	// LogLevel is the diagnostics threshold: debug, info, warn,
	// error.
	LogLevel string `toml:"log_level"`

	// Mappings overrides the rc file location. Empty means the XDG
	// default.
	Mappings string `toml:"mappings"`
}

// DefaultSettings returns the settings used when no file exists.
func DefaultSettings() Settings {
	return Settings{
		SequenceTimeoutMS: 800,
		DigitRepeat:       true,
		DefaultMode:       "normal",
		LogLevel:          "info",
	}
}

// SequenceTimeout returns the ambiguity timeout as a duration.
func (s Settings) SequenceTimeout() time.Duration {
	return time.Duration(s.SequenceTimeoutMS) * time.Millisecond
}

// PassThroughDelay returns the pass-through pop delay as a duration.
func (s Settings) PassThroughDelay() time.Duration {
	return time.Duration(s.PassThroughDelayMS) * time.Millisecond
}

// MappingsPath resolves the rc file location: explicit override first,
// then the XDG search path. An empty return means no rc file exists
// and the built-in bindings apply alone.
func (s Settings) MappingsPath() string {
	if s.Mappings != "" {
		return s.Mappings
	}
	path, err := xdg.SearchConfigFile(MappingsFile)
	if err != nil {
		return ""
	}
	return path
}

// LoadSettings reads the settings file from the XDG config home. A
// missing file yields the defaults; a malformed file is an error.
func LoadSettings() (Settings, error) {
	path, err := xdg.SearchConfigFile(SettingsFile)
	if err != nil {
		return DefaultSettings(), nil
	}
	return LoadSettingsFile(path)
}

// LoadSettingsFile reads and validates one settings file.
func LoadSettingsFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return Settings{}, fmt.Errorf("reading settings %s: %w", path, err)
	}
	return ParseSettings(data)
}

// ParseSettings decodes TOML settings over the defaults.
func ParseSettings(data []byte) (Settings, error) {
	s := DefaultSettings()
	if err := toml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parsing settings: %w", err)
	}
	if err := s.validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) validate() error {
	if s.SequenceTimeoutMS < 0 {
		return fmt.Errorf("settings: sequence_timeout_ms must not be negative")
	}
	if s.PassThroughDelayMS < 0 {
		return fmt.Errorf("settings: passthrough_delay_ms must not be negative")
	}
	if s.DefaultMode == "" {
		return fmt.Errorf("settings: default_mode must not be empty")
	}
	return nil
}

// SettingsPath returns the location where settings would be written,
// creating parent directories as needed.
func SettingsPath() (string, error) {
	path, err := xdg.ConfigFile(SettingsFile)
	if err != nil {
		return "", fmt.Errorf("resolving settings path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}
	return path, nil
}
