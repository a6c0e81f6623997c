package server

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/pkg/interfaces"
)

var (
	errRebuildRequired  = errors.New("server: rebuild func is required")
	errWatchDirRequired = errors.New("server: at least one watch directory is required")
	errNothingToWatch   = errors.New("server: no watchable directories exist")
)

const defaultDebounce = 500 * time.Millisecond

// watchedExtensions lists the file types that feed a build: markdown
// sources, theme templates and manifests, and the assets themes ship.
var watchedExtensions = []string{
	".md", ".markdown",
	".html", ".tmpl",
	".json", ".yaml", ".yml",
	".css", ".js",
	".svg", ".png", ".jpg", ".jpeg", ".webp",
}

// RebuildFunc regenerates the site after source changes settle. The changed
// paths are informational; implementations typically run a full build.
type RebuildFunc func(ctx context.Context, changed []string) error

// WatchConfig captures the watch loop settings.
type WatchConfig struct {
	// Dirs are the roots to watch, typically the content and theme
	// directories. Subdirectories are watched recursively.
	Dirs []string
	// Debounce is how long changes must settle before a rebuild,
	// defaulting to 500ms.
	Debounce time.Duration
	// Extensions filters events to relevant file types. Empty uses the
	// built-in list covering markdown, templates, and theme assets.
	Extensions []string
}

// WatchDependencies lists the collaborators for the watch loop.
type WatchDependencies struct {
	Rebuild RebuildFunc
	Logger  interfaces.Logger
}

// WatchStats tracks watcher activity.
type WatchStats struct {
	EventsSeen    int
	Rebuilds      int
	Failures      int
	LastEventPath string
	LastEventAt   time.Time
}

// Watcher rebuilds the site when watched sources change. Rapid edit bursts
// coalesce into a single rebuild once the debounce window settles.
type Watcher struct {
	watcher    *fsnotify.Watcher
	rebuild    RebuildFunc
	logger     interfaces.Logger
	dirs       []string
	debounce   time.Duration
	extensions map[string]struct{}

	mu      sync.RWMutex
	pending map[string]time.Time
	stats   WatchStats
	running bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewWatcher builds a watcher over the given directories.
func NewWatcher(cfg WatchConfig, deps WatchDependencies) (*Watcher, error) {
	if deps.Rebuild == nil {
		return nil, errRebuildRequired
	}
	if len(cfg.Dirs) == 0 {
		return nil, errWatchDirRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	names := cfg.Extensions
	if len(names) == 0 {
		names = watchedExtensions
	}
	extensions := make(map[string]struct{}, len(names))
	for _, name := range names {
		ext := strings.ToLower(strings.TrimSpace(name))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[ext] = struct{}{}
	}

	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:    notifier,
		rebuild:    deps.Rebuild,
		logger:     logger,
		dirs:       append([]string{}, cfg.Dirs...),
		debounce:   debounce,
		extensions: extensions,
		pending:    map[string]time.Time{},
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}, nil
}

// Start registers the watch directories and begins the event loop. It is
// non-blocking; Stop or the context ends it.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	watched := 0
	for _, dir := range w.dirs {
		added, err := w.addTree(dir)
		if err != nil {
			logging.WithFields(w.logger, map[string]any{
				"dir":   dir,
				"error": err,
			}).Warn("server.watch.dir_skipped")
			continue
		}
		watched += added
	}
	if watched == 0 {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return errNothingToWatch
	}

	logging.WithFields(w.logger, map[string]any{
		"dirs":     len(w.watcher.WatchList()),
		"debounce": w.debounce.String(),
	}).Info("server.watch.started")

	go w.run(ctx)
	return nil
}

// Stop ends the event loop and releases the filesystem watches.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.WithFields(w.logger, map[string]any{"error": err}).Error("server.watch.close_failed")
	}
	w.logger.Info("server.watch.stopped")
}

// IsWatching reports whether the event loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// Stats returns a copy of the activity counters.
func (w *Watcher) Stats() WatchStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// WatchedDirs returns the directories currently registered.
func (w *Watcher) WatchedDirs() []string {
	return w.watcher.WatchList()
}

// addTree registers dir and every non-hidden subdirectory, returning how
// many directories were added.
func (w *Watcher) addTree(dir string) (int, error) {
	added := 0
	err := filepath.WalkDir(dir, func(name string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !entry.IsDir() {
			return nil
		}
		if base := filepath.Base(name); name != dir && strings.HasPrefix(base, ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(name); err != nil {
			return err
		}
		added++
		return nil
	})
	if err != nil {
		return added, err
	}
	return added, nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(tickInterval(w.debounce))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
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
			logging.WithFields(w.logger, map[string]any{"error": err}).Error("server.watch.error")
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

// tickInterval sizes the settle check well under the debounce window while
// keeping the idle loop cheap.
func tickInterval(debounce time.Duration) time.Duration {
	tick := debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	if tick > 100*time.Millisecond {
		tick = 100 * time.Millisecond
	}
	return tick
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		// New directories join the watch so nested content keeps
		// triggering rebuilds.
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if _, err := w.addTree(event.Name); err != nil {
				logging.WithFields(w.logger, map[string]any{
					"dir":   event.Name,
					"error": err,
				}).Warn("server.watch.dir_skipped")
			}
			return
		}
	}

	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	ext := strings.ToLower(filepath.Ext(event.Name))
	if _, ok := w.extensions[ext]; !ok {
		return
	}

	w.mu.Lock()
	w.stats.EventsSeen++
	w.stats.LastEventPath = event.Name
	w.stats.LastEventAt = time.Now()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// flush rebuilds once for every batch of changes that has settled past the
// debounce window.
func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for name, seen := range w.pending {
		if now.Sub(seen) >= w.debounce {
			settled = append(settled, name)
			delete(w.pending, name)
		}
	}
	w.mu.Unlock()

	if len(settled) == 0 {
		return
	}
	sort.Strings(settled)

	start := time.Now()
	err := w.rebuild(ctx, settled)

	w.mu.Lock()
	if err != nil {
		w.stats.Failures++
	} else {
		w.stats.Rebuilds++
	}
	w.mu.Unlock()

	if err != nil {
		logging.WithFields(w.logger, map[string]any{
			"files": len(settled),
			"error": err,
		}).Error("server.watch.rebuild_failed")
		return
	}
	logging.WithFields(w.logger, map[string]any{
		"files":       len(settled),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("server.watch.rebuilt")
}
