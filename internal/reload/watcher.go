// Package reload triggers model reloads when the local artifact changes on
// disk.
package reload

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"predictd/internal/common/fsutil"
)

// DefaultDebounce coalesces the burst of events an editor or `cp` produces.
const DefaultDebounce = 500 * time.Millisecond

// Reloader re-resolves and installs the model.
type Reloader interface {
	Reload(ctx context.Context) error
}

// ReloaderFunc adapts a function to Reloader.
type ReloaderFunc func(ctx context.Context) error

func (f ReloaderFunc) Reload(ctx context.Context) error { return f(ctx) }

// Watcher watches the directory holding the artifact and calls Reload once
// per burst of changes to that file. Watching the directory rather than the
// file survives atomic rename-into-place updates.
type Watcher struct {
	path     string
	debounce time.Duration
	target   Reloader
	log      zerolog.Logger
	watcher  *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a watcher for path, resolved the same way the local backend
// resolves it ('~' expanded, made absolute). The parent directory is
// registered here so a bad path fails at startup; events are handled by Run.
func New(path string, target Reloader, debounce time.Duration, log zerolog.Logger) (*Watcher, error) {
	abs, err := fsutil.ResolvePath(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{path: abs, debounce: debounce, target: target, log: log, watcher: fw}, nil
}

// Run blocks until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stopTimer()
	w.log.Info().Str("path", w.path).Dur("debounce", w.debounce).Msg("watching local model artifact")
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("artifact watcher error")
		case <-ctx.Done():
			_ = w.watcher.Close()
			return nil
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != w.path {
		return
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return
	}
	w.log.Debug().Str("path", ev.Name).Str("op", ev.Op.String()).Msg("artifact changed")
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		if err := w.target.Reload(ctx); err != nil {
			w.log.Warn().Err(err).Msg("reload after artifact change failed")
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

// Close stops watching.
func (w *Watcher) Close() error { return w.watcher.Close() }
