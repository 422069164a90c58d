package server

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/elyseproject/elyse/internal/logfields"
)

const sourceDebounce = 300 * time.Millisecond

// Watcher triggers rebuilds for filesystem changes under the source roots.
// A burst of events collapses into one pass through the debounce timer, and
// the single-slot request channel collapses triggers that land while a pass
// is still running.
type Watcher struct {
	fsw      *fsnotify.Watcher
	requests chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher watches every existing root recursively. Roots that do not
// exist are skipped rather than failing, so a site without a static
// directory still gets content and template watching.
func NewWatcher(roots ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create filesystem watcher: %w", err)
	}
	w := &Watcher{fsw: fsw, requests: make(chan struct{}, 1)}
	for _, root := range roots {
		st, err := os.Stat(root)
		if err != nil || !st.IsDir() {
			continue
		}
		if err := addDirsRecursive(fsw, root); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Run drains watcher events and invokes rebuild once per debounced burst.
// Rebuilds run on a worker goroutine so event draining never stalls behind
// a pass. Run blocks until ctx is canceled.
func (w *Watcher) Run(ctx context.Context, rebuild func(context.Context)) {
	defer func() { _ = w.fsw.Close() }()

	go w.runWorker(ctx, rebuild)

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) runWorker(ctx context.Context, rebuild func(context.Context)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.requests:
			rebuild(ctx)
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if shouldIgnore(ev.Name) {
		return
	}
	// New directories must join the watch before their contents produce
	// events.
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(w.fsw, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	w.trigger()
}

func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(sourceDebounce, func() {
		select {
		case w.requests <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func addDirsRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		// Hidden directories are skipped entirely so their contents never
		// produce events, matching the per-file filter in shouldIgnore.
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnore filters events for hidden files, editor swap files and OS
// metadata that would otherwise cause spurious rebuilds.
func shouldIgnore(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		(strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#")) {
		return true
	}
	return base == "Thumbs.db"
}

// ConfigWatcher reloads the configuration when the config file changes. It
// watches the parent directory rather than the file itself so editors that
// replace the file on save are still seen.
type ConfigWatcher struct {
	configPath string
	reload     func(context.Context) error
	fsw        *fsnotify.Watcher
	debounce   time.Duration
}

func NewConfigWatcher(configPath string, reload func(context.Context) error) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create filesystem watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch config directory: %w", err)
	}
	return &ConfigWatcher{
		configPath: abs,
		reload:     reload,
		fsw:        fsw,
		// Editors often save in several steps.
		debounce: 2 * time.Second,
	}, nil
}

// Run blocks until ctx is canceled. A reload failure keeps the previous
// configuration in effect.
func (cw *ConfigWatcher) Run(ctx context.Context) {
	defer func() { _ = cw.fsw.Close() }()

	base := filepath.Base(cw.configPath)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-cw.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if ev.Op&fsnotify.Remove == fsnotify.Remove {
				slog.Warn("Configuration file removed", logfields.Path(ev.Name))
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(cw.debounce, func() {
				if err := cw.reload(ctx); err != nil {
					slog.Error("Configuration reload failed", logfields.Error(err))
				}
			})
		case err, ok := <-cw.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("Configuration watcher error", logfields.Error(err))
		}
	}
}
