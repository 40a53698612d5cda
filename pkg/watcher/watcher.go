// Package watcher keeps the analysis cache in step with a project on disk.
package watcher

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/gnana997/nextscope/pkg/parser"
)

// Invalidator drops cached state for an absolute file path.
type Invalidator interface {
	Invalidate(key string) bool
}

// Options configures a Watcher.
type Options struct {
	// Debounce is how long a path must stay quiet before its change settles.
	// Default: 200ms
	Debounce time.Duration

	// Ignore glob patterns, relative to the watched root. Build and dependency
	// directories are always ignored.
	Ignore []string

	// OnChange receives the paths that settled together, sorted. It runs on
	// the watcher's goroutine; slow callbacks delay later events.
	OnChange func(paths []string)

	Logger *slog.Logger
}

// ignoredDirs are never watched.
var ignoredDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	".next":        true,
	".turbo":       true,
	".vercel":      true,
	"dist":         true,
	"build":        true,
	"out":          true,
	"coverage":     true,
}

// Watcher watches a project tree and invalidates cache entries for changed
// source files once their changes settle.
//
// Usage:
//
//	w, err := watcher.New(scanner, watcher.Options{OnChange: rerun})
//	if err != nil {
//	    return err
//	}
//	if err := w.Start(root); err != nil {
//	    return err
//	}
//	defer w.Stop()
type Watcher struct {
	fs      *fsnotify.Watcher
	cache   Invalidator
	options Options
	logger  *slog.Logger

	root string

	// Lifecycle
	mu      sync.Mutex
	started bool
	stopped bool
	stop    chan struct{}
	done    chan struct{}

	pending atomic.Int64
	events  atomic.Int64
	settled atomic.Int64
}

// New creates a watcher. Nothing is watched until Start.
func New(cache Invalidator, options Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if options.Debounce <= 0 {
		options.Debounce = 200 * time.Millisecond
	}
	for _, pattern := range options.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			fsw.Close()
			return nil, fmt.Errorf("invalid ignore pattern: %s", pattern)
		}
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		fs:      fsw,
		cache:   cache,
		options: options,
		logger:  logger,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Start watches rootPath and every directory below it that is not ignored.
// Calling Start on a running watcher does nothing; a stopped watcher cannot
// be restarted.
func (w *Watcher) Start(rootPath string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return errors.New("watcher already stopped")
	}
	if w.started {
		return nil
	}

	root, err := filepath.Abs(rootPath)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", rootPath, err)
	}
	w.root = root

	if err := w.fs.Add(root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}
	w.addTree(root)

	w.started = true
	go w.eventLoop()

	w.logger.Info("file watcher started", "root", root)
	return nil
}

// Stop ends watching and waits for the event loop to exit. Pending changes
// are dropped. Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	started := w.started
	close(w.stop)
	w.mu.Unlock()

	if started {
		<-w.done
	}

	err := w.fs.Close()
	w.logger.Info("file watcher stopped")
	return err
}

// addTree watches every non-ignored directory below dir and returns the
// source files already present in it.
func (w *Watcher) addTree(dir string) []string {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Continue on error.
		}
		if w.shouldIgnore(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			if isWatchedFile(path) {
				files = append(files, path)
			}
			return nil
		}
		if path != w.root {
			if err := w.fs.Add(path); err != nil {
				w.logger.Warn("failed to watch directory", "path", path, "error", err)
			}
		}
		return nil
	})
	if err != nil {
		w.logger.Warn("failed to walk directory", "path", dir, "error", err)
	}
	return files
}

// eventLoop collects events and flushes each path once it has been quiet for
// the debounce interval.
func (w *Watcher) eventLoop() {
	defer close(w.done)

	due := make(map[string]time.Time)
	timer := time.NewTimer(w.options.Debounce)
	timer.Stop()
	defer timer.Stop()

	// rearm points the timer at the earliest deadline.
	rearm := func() {
		timer.Stop()
		w.pending.Store(int64(len(due)))
		if len(due) == 0 {
			return
		}
		var next time.Time
		for _, t := range due {
			if next.IsZero() || t.Before(next) {
				next = t
			}
		}
		timer.Reset(time.Until(next))
	}

	for {
		select {
		case <-w.stop:
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			for _, path := range w.handleEvent(event) {
				due[path] = time.Now().Add(w.options.Debounce)
			}
			rearm()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", "error", err)

		case <-timer.C:
			now := time.Now()
			var ready []string
			for path, t := range due {
				if !t.After(now) {
					ready = append(ready, path)
					delete(due, path)
				}
			}
			if len(ready) > 0 {
				w.flush(ready)
			}
			rearm()
		}
	}
}

// handleEvent returns the files an event touches.
func (w *Watcher) handleEvent(event fsnotify.Event) []string {
	path := event.Name
	if w.shouldIgnore(path) {
		return nil
	}
	w.events.Add(1)
	w.logger.Debug("file event", "op", event.Op.String(), "file", path)

	// New directories are watched, and files created in them before the
	// watch was added are picked up by the walk.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return w.addTree(path)
		}
	}

	if !isWatchedFile(path) {
		return nil
	}
	switch {
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create),
		event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return []string{path}
	}
	return nil
}

// flush invalidates settled paths and reports them.
func (w *Watcher) flush(paths []string) {
	sort.Strings(paths)
	for _, path := range paths {
		if w.cache != nil {
			w.cache.Invalidate(path)
		}
	}
	w.settled.Add(int64(len(paths)))
	w.logger.Debug("changes settled", "files", len(paths))

	if w.options.OnChange != nil {
		w.options.OnChange(paths)
	}
}

func (w *Watcher) shouldIgnore(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, part := range strings.Split(rel, "/") {
		if ignoredDirs[part] {
			return true
		}
	}
	for _, pattern := range w.options.Ignore {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

// isWatchedFile reports whether changes to path can affect a discovery.
func isWatchedFile(path string) bool {
	if parser.IsSourceFile(path) {
		return true
	}
	base := filepath.Base(path)
	return base == "package.json" || base == ".env" || strings.HasPrefix(base, ".env.")
}

// Stats returns watcher counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	running := w.started && !w.stopped
	w.mu.Unlock()

	return Stats{
		Pending: int(w.pending.Load()),
		Events:  w.events.Load(),
		Settled: w.settled.Load(),
		Running: running,
	}
}

// Stats contains watcher counters.
type Stats struct {
	Pending int
	Events  int64
	Settled int64
	Running bool
}
