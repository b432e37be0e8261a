package registry

import (
	"fmt"

	"github.com/vesperkey/vesper/internal/input/command"
	"github.com/vesperkey/vesper/internal/input/mode"
)

// DefaultModeConfigs returns the standard mode set.
func DefaultModeConfigs() map[string]mode.Config {
	return map[string]mode.Config{
		mode.Normal:      {AllowCount: true},
		mode.Insert:      {},
		mode.Visual:      {Stacked: true, AllowCount: true},
		mode.Hint:        {Stacked: true},
		mode.PassThrough: {Stacked: true, PassThrough: true},
	}
}

// BuildModes constructs a mode registry from mode configs and mapping
// declarations. Modes named only by declarations are created with a
// zero config. Any parse or duplicate error aborts the build.
func BuildModes(configs map[string]mode.Config, decls []command.Declaration) (*mode.Registry, error) {
	modes := mode.NewRegistry()

	// Register the standard modes first, in a stable order.
	for _, name := range []string{mode.Normal, mode.Insert, mode.Visual, mode.Hint, mode.PassThrough} {
		if cfg, ok := configs[name]; ok {
			if err := modes.Register(mode.New(name, cfg)); err != nil {
				return nil, err
			}
		}
	}
	for name, cfg := range configs {
		if modes.Get(name) == nil {
			if err := modes.Register(mode.New(name, cfg)); err != nil {
				return nil, err
			}
		}
	}

	for _, d := range decls {
		if d.Mode == "" {
			d.Mode = mode.Normal
		}
		m := modes.Get(d.Mode)
		if m == nil {
			m = mode.New(d.Mode, mode.Config{})
			if err := modes.Register(m); err != nil {
				return nil, err
			}
		}

		mapping, err := d.Parse()
		if err != nil {
			return nil, fmt.Errorf("declaration %q: %w", d.Keys, err)
		}
		if err := m.AddMapping(mapping); err != nil {
			return nil, err
		}
	}

	return modes, nil
}

// DefaultDeclarations returns the built-in binding set.
func DefaultDeclarations() []command.Declaration {
	n := func(keys, annotation, action string) command.Declaration {
		return command.Declaration{Mode: mode.Normal, Keys: keys, Annotation: annotation, Action: action}
	}

	decls := []command.Declaration{
		// Scrolling
		n("j", "scroll down", "scroll.down"),
		n("k", "scroll up", "scroll.up"),
		n("h", "scroll left", "scroll.left"),
		n("l", "scroll right", "scroll.right"),
		n("gg", "scroll to top", "scroll.top"),
		n("G", "scroll to bottom", "scroll.bottom"),
		n("d", "scroll half page down", "scroll.halfPageDown"),
		n("u", "scroll half page up", "scroll.halfPageUp"),
		n("0", "scroll to line start", "scroll.lineStart"),
		n("$", "scroll to line end", "scroll.lineEnd"),

		// Tabs
		n("gt", "next tab", "tab.next"),
		n("gT", "previous tab", "tab.prev"),
		n("g0", "first tab", "tab.first"),
		n("g$", "last tab", "tab.last"),
		n("x", "close tab", "tab.closeCurrent"),
		n("X", "restore closed tab", "tab.restore"),
		n("t", "new tab", "tab.create"),
		n("yt", "duplicate tab", "tab.duplicate"),

		// History
		n("H", "history back", "history.back"),
		n("L", "history forward", "history.forward"),

		// Page
		n("r", "reload page", "page.reload"),
		n("yy", "copy page url", "page.copyURL"),
		n("gu", "go up one url level", "page.parent"),
		n("gU", "go to url root", "page.root"),

		// Mode transitions
		n("i", "enter insert mode", "mode.insert"),
		n("v", "enter visual mode", "mode.visual"),
		n("f", "open link hints", "hints.open"),
		n("F", "open link hints in new tab", "hints.openNewTab"),
		n("<C-v>", "enter pass-through mode", "mode.passthrough"),

		// Search
		n("/", "find in page", "find.open"),
		n("n", "next find match", "find.next"),
		n("N", "previous find match", "find.prev"),
	}

	// Magic-aware tab sweeping: one extra directive key picks the
	// direction/scope/hierarchy before anything is closed or moved.
	decls = append(decls,
		command.Declaration{
			Mode: mode.Normal, Keys: "tc",
			Annotation: "close tabs", Action: "tab.close",
			Options: command.Options{Magic: true},
		},
		command.Declaration{
			Mode: mode.Normal, Keys: "tm",
			Annotation: "move tabs", Action: "tab.move",
			Options: command.Options{Magic: true},
		},
		command.Declaration{
			Mode: mode.Normal, Keys: "tp",
			Annotation: "pin tabs", Action: "tab.pin",
			Options: command.Options{Magic: true, RepeatIgnore: true},
		},
	)

	// Visual mode
	v := func(keys, annotation, action string) command.Declaration {
		return command.Declaration{Mode: mode.Visual, Keys: keys, Annotation: annotation, Action: action}
	}
	decls = append(decls,
		v("h", "extend selection left", "selection.left"),
		v("l", "extend selection right", "selection.right"),
		v("j", "extend selection down", "selection.down"),
		v("k", "extend selection up", "selection.up"),
		v("w", "extend selection word", "selection.word"),
		v("y", "yank selection", "selection.yank"),
		v("o", "swap selection anchor", "selection.swapAnchor"),
	)

	return decls
}
