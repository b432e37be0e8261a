// Package main is an interactive harness for the dispatch engine: it
// reads terminal keys, feeds them through the engine, and shows the
// action descriptors that would cross the messaging boundary.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/vesperkey/vesper/internal/config"
	"github.com/vesperkey/vesper/internal/diag"
	"github.com/vesperkey/vesper/internal/input"
	"github.com/vesperkey/vesper/internal/input/key"
	"github.com/vesperkey/vesper/internal/input/mode"
	"github.com/vesperkey/vesper/internal/input/registry"
	"github.com/vesperkey/vesper/internal/message"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

type options struct {
	settingsPath string
	rcPath       string
	logLevel     string
	listBindings bool
	showVersion  bool
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.settingsPath, "config", "", "Path to settings file")
	flag.StringVar(&opts.rcPath, "rc", "", "Path to mapping rc file")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.listBindings, "list", false, "Print the annotation index and exit")
	flag.BoolVar(&opts.showVersion, "version", false, "Print version and exit")
	flag.Parse()
	return opts
}

func run() int {
	opts := parseFlags()

	if opts.showVersion {
		fmt.Printf("vesper %s (%s)\n", version, commit)
		return 0
	}

	settings, err := loadSettings(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	level := settings.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	log := diag.NewLogger(diag.Config{
		Level:  diag.ParseLevel(level),
		Output: os.Stderr,
		Prefix: "vesper",
	})

	rcPath := opts.rcPath
	if rcPath == "" {
		rcPath = settings.MappingsPath()
	}

	modes, reg, err := buildBindings(rcPath, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if opts.listBindings {
		for _, entry := range reg.Entries() {
			fmt.Printf("%-24s %-12s %-28s %s\n",
				entry.Sequence.Spec(), entry.Mode, entry.Mapping.Annotation, entry.Mapping.Action)
		}
		return 0
	}

	ui, err := newHarness(log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open terminal: %v\n", err)
		return 1
	}
	defer ui.close()

	engine, err := input.NewEngine(input.Config{
		SequenceTimeout:  settings.SequenceTimeout(),
		DigitRepeat:      settings.DigitRepeat,
		PassThroughDelay: settings.PassThroughDelay(),
		DefaultMode:      settings.DefaultMode,
	}, modes, reg, message.PortFunc(ui.send))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	engine.WithLogger(log).WithRawSink(input.RawSinkFunc(ui.forward))

	reloader, err := config.NewReloader(watchPaths(opts, settings), func() error {
		newModes, newReg, err := buildBindings(rcPath, log)
		if err != nil {
			return err
		}
		return engine.Rebuild(newModes, newReg)
	}, log)
	if err != nil {
		log.Warn("config watching disabled: %v", err)
	} else {
		defer reloader.Close()
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		ui.interrupt()
	}()

	ui.loop(engine)
	return 0
}

func loadSettings(opts options) (config.Settings, error) {
	if opts.settingsPath != "" {
		return config.LoadSettingsFile(opts.settingsPath)
	}
	return config.LoadSettings()
}

func watchPaths(opts options, settings config.Settings) []string {
	paths := []string{}
	if opts.settingsPath != "" {
		paths = append(paths, opts.settingsPath)
	}
	if rc := opts.rcPath; rc != "" {
		paths = append(paths, rc)
	} else if rc := settings.MappingsPath(); rc != "" {
		paths = append(paths, rc)
	}
	return paths
}

// buildBindings assembles the built-in declarations plus the user's rc
// file into a fresh mode set and annotation index.
func buildBindings(rcPath string, log *diag.Logger) (modesOut *mode.Registry, regOut *registry.Registry, err error) {
	decls := registry.DefaultDeclarations()

	var rc *config.RC
	if rcPath != "" {
		rc, err = config.LoadRC(rcPath)
		if err != nil {
			return nil, nil, err
		}
		decls = append(decls, rc.Declarations...)
	}

	modes, err := registry.BuildModes(registry.DefaultModeConfigs(), decls)
	if err != nil {
		return nil, nil, fmt.Errorf("building modes: %w", err)
	}
	reg, err := registry.Build(modes)
	if err != nil {
		return nil, nil, fmt.Errorf("building registry: %w", err)
	}
	for _, w := range reg.Warnings() {
		log.Warn("%s", w)
	}

	if rc != nil {
		for _, b := range rc.Bindings {
			if err := reg.BindByAnnotation(b.Mode, b.Keys, b.Annotation); err != nil {
				return nil, nil, fmt.Errorf("rc bind: %w", err)
			}
		}
	}
	return modes, reg, nil
}

// harness owns the tcell screen and the descriptor log shown on it.
type harness struct {
	screen tcell.Screen
	log    *diag.Logger

	mu    sync.Mutex
	lines []string
}

func newHarness(log *diag.Logger) (*harness, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return &harness{screen: screen, log: log}, nil
}

func (h *harness) close() {
	h.screen.Fini()
}

func (h *harness) interrupt() {
	_ = h.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

// send is the engine's message port: descriptors are encoded to their
// wire form and appended to the on-screen log.
func (h *harness) send(d message.Descriptor) error {
	data, err := d.Encode()
	if err != nil {
		return err
	}
	h.push("-> " + string(data))
	return nil
}

// forward receives the raw events of pass-through mode.
func (h *harness) forward(ev key.Event) error {
	h.push("raw " + ev.String())
	return nil
}

func (h *harness) push(line string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lines = append(h.lines, line)
	if len(h.lines) > 64 {
		h.lines = h.lines[len(h.lines)-64:]
	}
}

func (h *harness) loop(engine *input.Engine) {
	for {
		h.draw(engine)

		switch ev := h.screen.PollEvent().(type) {
		case *tcell.EventInterrupt:
			return
		case *tcell.EventResize:
			h.screen.Sync()
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyCtrlC {
				return
			}
			kev := convertEvent(ev)
			if kev == (key.Event{}) {
				continue
			}
			if err := engine.HandleKey(kev); err != nil {
				h.log.Error("dispatch: %v", err)
			}
		}
	}
}

func (h *harness) draw(engine *input.Engine) {
	h.screen.Clear()
	style := tcell.StyleDefault

	status := fmt.Sprintf("vesper %s | mode: %s | state: %s | Ctrl+C quits",
		version, engine.ModeName(), engine.State())
	h.drawText(0, 0, style.Bold(true), status)

	h.mu.Lock()
	lines := make([]string, len(h.lines))
	copy(lines, h.lines)
	h.mu.Unlock()

	_, height := h.screen.Size()
	avail := height - 2
	if avail < 0 {
		avail = 0
	}
	if len(lines) > avail {
		lines = lines[len(lines)-avail:]
	}
	for i, line := range lines {
		h.drawText(0, i+2, style, line)
	}

	h.screen.Show()
}

func (h *harness) drawText(x, y int, style tcell.Style, text string) {
	width, _ := h.screen.Size()
	for i, r := range text {
		if x+i >= width {
			break
		}
		h.screen.SetContent(x+i, y, r, nil, style)
	}
}
