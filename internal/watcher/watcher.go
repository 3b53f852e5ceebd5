// Package watcher rebuilds feeds when content files change. Builds run one at
// a time from the watch goroutine after a quiet period.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// DefaultDebounce is the quiet period applied when Config.Debounce is unset.
const DefaultDebounce = 250 * time.Millisecond

var (
	ErrRebuildRequired = errors.New("watcher: rebuild function is required")
	ErrNothingToWatch  = errors.New("watcher: no directories could be watched")
)

// Rebuild runs one build. Errors are logged and the loop keeps watching.
type Rebuild func(ctx context.Context) error

// Config controls which directories are watched and how bursts are coalesced.
type Config struct {
	Dirs         []string
	Debounce     time.Duration
	InitialBuild bool
	Logger       interfaces.Logger
}

// Watcher coalesces filesystem events into sequential rebuilds.
type Watcher struct {
	dirs     []string
	debounce time.Duration
	initial  bool
	rebuild  Rebuild
	logger   interfaces.Logger
}

// New validates cfg and returns a watcher that is started with Run.
func New(cfg Config, rebuild Rebuild) (*Watcher, error) {
	if rebuild == nil {
		return nil, ErrRebuildRequired
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	dirs := make([]string, 0, len(cfg.Dirs))
	for _, dir := range cfg.Dirs {
		if trimmed := strings.TrimSpace(dir); trimmed != "" {
			dirs = append(dirs, trimmed)
		}
	}
	return &Watcher{
		dirs:     dirs,
		debounce: debounce,
		initial:  cfg.InitialBuild,
		rebuild:  rebuild,
		logger:   logger,
	}, nil
}

// Run watches until ctx is cancelled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: fsnotify: %w", err)
	}
	defer fsw.Close()

	watched := 0
	for _, dir := range w.dirs {
		watched += w.addRecursive(fsw, dir)
	}
	if watched == 0 {
		return ErrNothingToWatch
	}
	w.logger.Info("watcher.started", "dirs", w.dirs, "debounce", w.debounce.String())

	if w.initial {
		w.runBuild(ctx, "initial")
	}

	return w.loop(ctx, fsw.Events, fsw.Errors, func(ev fsnotify.Event) {
		if ev.Has(fsnotify.Create) {
			if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
				w.addRecursive(fsw, ev.Name)
			}
		}
	})
}

// loop owns the debounce timer. onEvent runs for every relevant event before
// the timer is reset.
func (w *Watcher) loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, onEvent func(fsnotify.Event)) error {
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending []string
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher.stopped")
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			if onEvent != nil {
				onEvent(ev)
			}
			w.logger.Debug("watcher.change", "path", ev.Name, "op", ev.Op.String())
			pending = append(pending, ev.Name)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			timerC = timer.C
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher.error", "error", err)
		case <-timerC:
			timerC = nil
			w.logger.Info("watcher.rebuild", "changes", len(pending))
			pending = pending[:0]
			w.runBuild(ctx, "change")
		}
	}
}

func (w *Watcher) runBuild(ctx context.Context, reason string) {
	started := time.Now()
	if err := w.rebuild(ctx); err != nil {
		w.logger.Error("watcher.rebuild.failed", "reason", reason, "error", err)
		return
	}
	w.logger.Info("watcher.rebuild.completed", "reason", reason, "duration", time.Since(started).String())
}

func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, root string) int {
	added := 0
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("watcher.walk.failed", "dir", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			w.logger.Warn("watcher.add.failed", "dir", path, "error", err)
			return nil
		}
		added++
		return nil
	})
	return added
}

// relevant drops chmod-only events and editor artefacts.
func relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(ev.Name)
	switch {
	case base == "" || base == ".":
		return false
	case strings.HasPrefix(base, "."):
		return false
	case strings.HasSuffix(base, "~"):
		return false
	case strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"), strings.HasSuffix(base, ".tmp"):
		return false
	}
	return true
}
