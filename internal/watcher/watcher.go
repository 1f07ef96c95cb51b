// Package watcher turns filesystem notifications into dirty marks on a
// vfs.Index and runs debounced background refreshes.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Cyclone1070/lazyvfs/internal/logging"
	"github.com/Cyclone1070/lazyvfs/internal/metrics"
	"github.com/Cyclone1070/lazyvfs/internal/vfs"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher watches a directory tree recursively.
type Watcher struct {
	index    index
	fs       dirLister
	scope    pathScope
	root     string
	debounce time.Duration
	poll     time.Duration
	logger   *zap.Logger
	onResult func([]*vfs.RefreshResult)
	skipDir  func(path string) bool

	fsw *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long the watcher waits for notifications to settle
// before refreshing.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithPollInterval marks the whole cached tree under the root dirty at a
// fixed interval, for filesystems that drop notifications. Zero disables it.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		w.poll = d
	}
}

// WithScope drops notifications for paths outside scope.
func WithScope(scope pathScope) Option {
	return func(w *Watcher) {
		w.scope = scope
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithSkipDir excludes directories for which skip returns true from
// being watched.
func WithSkipDir(skip func(path string) bool) Option {
	return func(w *Watcher) {
		w.skipDir = skip
	}
}

// WithResultHandler is called after every background refresh.
func WithResultHandler(fn func([]*vfs.RefreshResult)) Option {
	return func(w *Watcher) {
		w.onResult = fn
	}
}

// New creates a watcher for root. Call Run to start processing.
func New(idx index, fs dirLister, root string, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		index:    idx,
		fs:       fs,
		root:     filepath.Clean(root),
		debounce: defaultDebounce,
		logger:   logging.Named("watcher"),
		fsw:      fsw,
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.addTree(w.root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// addTree registers dir and every directory below it. fsnotify is not
// recursive.
func (w *Watcher) addTree(dir string) error {
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	infos, err := w.fs.ListDir(dir)
	if err != nil {
		return fmt.Errorf("list %s: %w", dir, err)
	}
	for _, info := range infos {
		if info.IsDir() {
			child := filepath.Join(dir, info.Name())
			if w.skipDir != nil && w.skipDir(child) {
				continue
			}
			if err := w.addTree(child); err != nil {
				w.logger.Warn("skipping unwatchable directory", zap.Error(err))
			}
		}
	}
	return nil
}

// Run processes notifications until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	var (
		debounceC <-chan time.Time
		pollC     <-chan time.Time
		timer     *time.Timer
	)
	if w.poll > 0 {
		ticker := time.NewTicker(w.poll)
		defer ticker.Stop()
		pollC = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.handle(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			debounceC = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-debounceC:
			debounceC = nil
			w.flush(ctx)

		case <-pollC:
			if _, err := w.index.MarkDirtyRecursive(filepath.ToSlash(w.root)); err != nil {
				w.logger.Warn("poll mark failed", zap.Error(err))
			}
			w.flush(ctx)
		}
	}
}

// handle marks the path of ev dirty. It reports whether a refresh should
// be scheduled.
func (w *Watcher) handle(ev fsnotify.Event) bool {
	metrics.RecordWatcherEvent(opName(ev.Op))

	if w.scope != nil && !w.scope.Within(ev.Name) {
		return false
	}
	if ev.Op == fsnotify.Chmod {
		return false
	}

	if ev.Op.Has(fsnotify.Create) {
		info, err := w.fs.Stat(ev.Name)
		if err == nil && info.IsDir() && (w.skipDir == nil || !w.skipDir(ev.Name)) {
			if err := w.addTree(ev.Name); err != nil {
				w.logger.Debug("new directory not watched", zap.Error(err))
			}
		}
	}

	marked, err := w.index.MarkDirty(filepath.ToSlash(ev.Name))
	if err != nil {
		var invalid *vfs.InvalidPathError
		if errors.As(err, &invalid) {
			w.logger.Debug("ignoring unrepresentable path", zap.String("path", ev.Name))
			return false
		}
		w.logger.Warn("mark dirty failed", zap.String("path", ev.Name), zap.Error(err))
		return false
	}
	return marked
}

func (w *Watcher) flush(ctx context.Context) {
	results, err := w.index.RefreshDirty(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Warn("background refresh failed", zap.Error(err))
		}
		return
	}

	events := 0
	for _, r := range results {
		events += len(r.Events)
	}
	w.logger.Debug("background refresh", zap.Int("roots", len(results)), zap.Int("events", events))

	if w.onResult != nil {
		w.onResult(results)
	}
}

func opName(op fsnotify.Op) string {
	var parts []string
	for _, o := range []fsnotify.Op{fsnotify.Create, fsnotify.Write, fsnotify.Remove, fsnotify.Rename, fsnotify.Chmod} {
		if op.Has(o) {
			parts = append(parts, strings.ToLower(o.String()))
		}
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, "|")
}
