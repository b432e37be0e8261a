package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vesperkey/vesper/internal/diag"
)

// Reloader watches the settings and rc files and triggers a rebuild
// when either changes. Rebuild failures are logged; the previous
// configuration stays in effect.
type Reloader struct {
	watcher  *fsnotify.Watcher
	log      *diag.Logger
	reload   func() error
	debounce time.Duration

	// Watched file paths, keyed by absolute path. The parent
	// directories are registered with fsnotify because most editors
	// replace files instead of writing them in place.
	files map[string]bool

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewReloader starts watching the given files. Paths that do not exist
// yet are still honored: their directories are watched, so creating
// the file later triggers a reload too.
func NewReloader(paths []string, reload func() error, log *diag.Logger) (*Reloader, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("starting config watcher: %w", err)
	}

	if log == nil {
		log = diag.NullLogger
	}

	r := &Reloader{
		watcher:  w,
		log:      log.WithComponent("config"),
		reload:   reload,
		debounce: 250 * time.Millisecond,
		files:    make(map[string]bool),
		done:     make(chan struct{}),
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		r.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	r.wg.Add(1)
	go r.loop()
	return r, nil
}

func (r *Reloader) loop() {
	defer r.wg.Done()
	for {
		select {
		case <-r.done:
			return
		case ev, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if !r.relevant(ev) {
				continue
			}
			r.log.Debug("config change: %s %s", ev.Op, ev.Name)
			r.schedule()
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.log.Warn("watch error: %v", err)
		}
	}
}

func (r *Reloader) relevant(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	return r.files[abs]
}

// schedule coalesces bursts of events into one reload.
func (r *Reloader) schedule() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, r.fire)
}

func (r *Reloader) fire() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	if err := r.reload(); err != nil {
		r.log.Warn("reload failed, keeping previous configuration: %v", err)
		return
	}
	r.log.Info("configuration reloaded")
}

// Close stops watching. Safe to call more than once.
func (r *Reloader) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	if r.timer != nil {
		r.timer.Stop()
	}
	close(r.done)
	r.mu.Unlock()

	err := r.watcher.Close()
	r.wg.Wait()
	return err
}
