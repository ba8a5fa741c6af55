// Package workspace keeps pkg/exportindex and pkg/resolver in sync with
// the filesystem: an initial recursive scan populates the named-export
// registry, then an fsnotify watcher debounces and reindexes on every
// create/write/remove/rename under the watched root so that import/goto
// never serve a stale candidate list after a save.
package workspace

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/importjs-go/importjs/pkg/exportindex"
	"github.com/importjs-go/importjs/pkg/parser"
	"github.com/importjs-go/importjs/pkg/resolver"
	"github.com/importjs-go/importjs/pkg/util"
)

// defaultIgnoredDirs mirrors the teacher's watcher: directories whose
// contents are never source-of-truth for export resolution.
var defaultIgnoredDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
	".next":        true,
}

// Options configures a Workspace. Zero value is usable.
type Options struct {
	// Excludes are doublestar patterns, relative to the watched root,
	// additional to the built-in ignored-directory list.
	Excludes []string
	// DebounceDelay groups rapid writes to the same file. Zero uses the
	// default (200ms, matching the teacher's watcher).
	DebounceDelay time.Duration
}

func (o Options) debounce() time.Duration {
	if o.DebounceDelay <= 0 {
		return 200 * time.Millisecond
	}
	return o.DebounceDelay
}

// Workspace owns the file watcher and drives pkg/exportindex updates.
type Workspace struct {
	index    *exportindex.Index
	resolver *resolver.Resolver
	cache    util.FileCache
	logger   *slog.Logger
	opts     Options

	watcher *fsnotify.Watcher

	debounceMu     sync.Mutex
	debounceTimers map[string]*time.Timer

	mu       sync.Mutex
	stopped  bool
	stopChan chan struct{}
}

// New creates a Workspace. resolver may be nil if nothing needs the
// explicit Invalidate call beyond what index's own onChange hook drives.
// Logger may be nil.
func New(index *exportindex.Index, r *resolver.Resolver, opts Options, logger *slog.Logger) *Workspace {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workspace{
		index:          index,
		resolver:       r,
		cache:          util.NewFileCache(util.DefaultFileCacheConfig()),
		logger:         logger,
		opts:           opts,
		debounceTimers: make(map[string]*time.Timer),
		stopChan:       make(chan struct{}),
	}
}

// Start scans rootDir, indexing every JS/TS/JSX/TSX file's exports, then
// begins watching rootDir and its subdirectories for changes.
func (w *Workspace) Start(rootDir string) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return fmt.Errorf("workspace: already stopped")
	}
	w.mu.Unlock()

	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return fmt.Errorf("workspace: resolve root: %w", err)
	}

	if err := w.initialScan(absRoot); err != nil {
		return fmt.Errorf("workspace: initial scan: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("workspace: create watcher: %w", err)
	}
	w.watcher = watcher

	if err := addWatchDirs(watcher, absRoot, w.shouldIgnoreDir); err != nil {
		watcher.Close()
		return fmt.Errorf("workspace: watch %s: %w", absRoot, err)
	}

	w.logger.Info("workspace watcher started", "root", absRoot)
	go w.eventLoop()
	return nil
}

// Stop cancels pending debounce timers, closes the watcher, and releases
// the file cache. Idempotent.
func (w *Workspace) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopChan)

	w.debounceMu.Lock()
	for _, timer := range w.debounceTimers {
		timer.Stop()
	}
	w.debounceTimers = make(map[string]*time.Timer)
	w.debounceMu.Unlock()

	var watcherErr error
	if w.watcher != nil {
		watcherErr = w.watcher.Close()
	}
	cacheErr := w.cache.Close()
	w.logger.Info("workspace watcher stopped")

	if watcherErr != nil {
		return watcherErr
	}
	return cacheErr
}

// initialScan indexes every recognized source file under root, once. A
// codebase-wide scan is exactly the "touches thousands of files" case
// pkg/util.FileCache is built for, so it's used here in place of
// os.ReadFile.
func (w *Workspace) initialScan(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			if w.shouldIgnoreDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if parser.DetectLanguage(path) == parser.LanguageUnknown {
			return nil
		}
		if w.shouldIgnoreFile(root, path) {
			return nil
		}

		mf, err := w.cache.Get(path)
		if err != nil {
			w.logger.Warn("workspace: skip unreadable file", "file", path, "error", err)
			return nil
		}
		if _, err := w.index.IndexFile(path, []byte(mf.Data)); err != nil {
			w.logger.Warn("workspace: skip unindexable file", "file", path, "error", err)
		}
		return nil
	})
}

func (w *Workspace) eventLoop() {
	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("workspace watcher error", "error", err)
		}
	}
}

func (w *Workspace) handleEvent(event fsnotify.Event) {
	path := event.Name

	if d, err := os.Stat(path); err == nil && d.IsDir() {
		if event.Op&fsnotify.Create == fsnotify.Create && !w.shouldIgnoreDir(path) {
			if err := w.watcher.Add(path); err != nil {
				w.logger.Warn("workspace: failed to watch new directory", "path", path, "error", err)
			}
		}
		return
	}

	if parser.DetectLanguage(path) == parser.LanguageUnknown {
		return
	}

	switch {
	case event.Op&fsnotify.Write == fsnotify.Write, event.Op&fsnotify.Create == fsnotify.Create:
		w.debounceReindex(path)
	case event.Op&fsnotify.Remove == fsnotify.Remove, event.Op&fsnotify.Rename == fsnotify.Rename:
		w.removeFile(path)
	}
}

// debounceReindex schedules a reindex after the debounce delay, so a
// burst of writes to the same file (as many editors produce on save)
// triggers exactly one reindex.
func (w *Workspace) debounceReindex(path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, exists := w.debounceTimers[path]; exists {
		timer.Stop()
	}
	w.debounceTimers[path] = time.AfterFunc(w.opts.debounce(), func() {
		w.reindexFile(path)
		w.debounceMu.Lock()
		delete(w.debounceTimers, path)
		w.debounceMu.Unlock()
	})
}

// reindexFile re-reads a single changed file with a plain os.ReadFile,
// not the mmap'd FileCache: the cache has no per-path invalidation, so a
// file that was just rewritten could still serve stale mmap'd pages.
func (w *Workspace) reindexFile(path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("workspace: reindex read failed", "file", path, "error", err)
		return
	}
	if _, err := w.index.IndexFile(path, content); err != nil {
		w.logger.Warn("workspace: reindex failed", "file", path, "error", err)
		return
	}
	w.logger.Debug("workspace: reindexed", "file", path)
}

func (w *Workspace) removeFile(path string) {
	w.index.Remove(path)
	if w.resolver != nil {
		w.resolver.Invalidate()
	}
	w.logger.Debug("workspace: removed from index", "file", path)
}

func (w *Workspace) shouldIgnoreDir(path string) bool {
	if defaultIgnoredDirs[filepath.Base(path)] {
		return true
	}
	return false
}

func (w *Workspace) shouldIgnoreFile(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.opts.Excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// addWatchDirs walks root and registers every non-ignored directory with
// watcher, tolerating directories that vanish between the walk and the
// Add call (a removed or symlinked-away directory is not a startup
// failure).
func addWatchDirs(watcher *fsnotify.Watcher, root string, shouldIgnore func(string) bool) error {
	return addWatchDirsWithAdder(root, func(path string) error {
		return watcher.Add(path)
	}, shouldIgnore)
}

func addWatchDirsWithAdder(root string, add func(string) error, shouldIgnore func(string) bool) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if shouldIgnore != nil && shouldIgnore(path) {
			return filepath.SkipDir
		}
		if err := add(path); err != nil {
			if os.IsNotExist(err) {
				return nil
			}
		}
		return nil
	})
}
