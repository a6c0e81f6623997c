package server

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

type rebuildRecorder struct {
	mu      sync.Mutex
	batches [][]string
	err     error
	notify  chan []string
}

func (r *rebuildRecorder) rebuild(_ context.Context, changed []string) error {
	r.mu.Lock()
	batch := append([]string{}, changed...)
	r.batches = append(r.batches, batch)
	r.mu.Unlock()
	if r.notify != nil {
		r.notify <- batch
	}
	return r.err
}

func (r *rebuildRecorder) all() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]string, len(r.batches))
	copy(out, r.batches)
	return out
}

func newTestWatcher(t *testing.T, recorder *rebuildRecorder, debounce time.Duration) *Watcher {
	t.Helper()
	watcher, err := NewWatcher(
		WatchConfig{Dirs: []string{t.TempDir()}, Debounce: debounce},
		WatchDependencies{Rebuild: recorder.rebuild},
	)
	if err != nil {
		t.Fatalf("unexpected watcher error: %v", err)
	}
	t.Cleanup(func() { _ = watcher.watcher.Close() })
	return watcher
}

func TestNewWatcherValidation(t *testing.T) {
	if _, err := NewWatcher(WatchConfig{Dirs: []string{"x"}}, WatchDependencies{}); !errors.Is(err, errRebuildRequired) {
		t.Fatalf("expected rebuild error, got %v", err)
	}
	recorder := &rebuildRecorder{}
	if _, err := NewWatcher(WatchConfig{}, WatchDependencies{Rebuild: recorder.rebuild}); !errors.Is(err, errWatchDirRequired) {
		t.Fatalf("expected watch dir error, got %v", err)
	}
}

func TestWatcherStartRequiresExistingDirs(t *testing.T) {
	recorder := &rebuildRecorder{}
	watcher, err := NewWatcher(
		WatchConfig{Dirs: []string{filepath.Join(t.TempDir(), "missing")}},
		WatchDependencies{Rebuild: recorder.rebuild},
	)
	if err != nil {
		t.Fatalf("unexpected watcher error: %v", err)
	}
	t.Cleanup(func() { _ = watcher.watcher.Close() })

	if err := watcher.Start(context.Background()); !errors.Is(err, errNothingToWatch) {
		t.Fatalf("expected nothing to watch error, got %v", err)
	}
	if watcher.IsWatching() {
		t.Fatal("failed start must not report watching")
	}
}

func TestWatcherCoalescesSettledEvents(t *testing.T) {
	recorder := &rebuildRecorder{}
	watcher := newTestWatcher(t, recorder, 20*time.Millisecond)

	watcher.handleEvent(fsnotify.Event{Name: "content/posts/express-session-auth.md", Op: fsnotify.Write})
	watcher.handleEvent(fsnotify.Event{Name: "content/posts/express-session-auth.md", Op: fsnotify.Write})
	watcher.handleEvent(fsnotify.Event{Name: "theme/templates/post.html", Op: fsnotify.Write})

	time.Sleep(30 * time.Millisecond)
	watcher.flush(context.Background())

	batches := recorder.all()
	if len(batches) != 1 {
		t.Fatalf("expected a single rebuild, got %v", batches)
	}
	want := []string{"content/posts/express-session-auth.md", "theme/templates/post.html"}
	if len(batches[0]) != len(want) || batches[0][0] != want[0] || batches[0][1] != want[1] {
		t.Fatalf("unexpected batch %v", batches[0])
	}

	stats := watcher.Stats()
	if stats.EventsSeen != 3 || stats.Rebuilds != 1 || stats.Failures != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.LastEventPath != "theme/templates/post.html" {
		t.Fatalf("unexpected last event %q", stats.LastEventPath)
	}
}

func TestWatcherHoldsUnsettledEvents(t *testing.T) {
	recorder := &rebuildRecorder{}
	watcher := newTestWatcher(t, recorder, time.Minute)

	watcher.handleEvent(fsnotify.Event{Name: "content/posts/react-todo-app.md", Op: fsnotify.Write})
	watcher.flush(context.Background())

	if batches := recorder.all(); len(batches) != 0 {
		t.Fatalf("expected no rebuild before settle, got %v", batches)
	}
	if stats := watcher.Stats(); stats.EventsSeen != 1 || stats.Rebuilds != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestWatcherFiltersIrrelevantEvents(t *testing.T) {
	recorder := &rebuildRecorder{}
	watcher := newTestWatcher(t, recorder, 10*time.Millisecond)

	watcher.handleEvent(fsnotify.Event{Name: "content/posts/.draft.md.swp", Op: fsnotify.Write})
	watcher.handleEvent(fsnotify.Event{Name: "content/posts/react-todo-app.md", Op: fsnotify.Chmod})

	time.Sleep(20 * time.Millisecond)
	watcher.flush(context.Background())

	if batches := recorder.all(); len(batches) != 0 {
		t.Fatalf("expected no rebuilds, got %v", batches)
	}
	if stats := watcher.Stats(); stats.EventsSeen != 0 {
		t.Fatalf("expected filtered events to go uncounted, got %+v", stats)
	}
}

func TestWatcherCountsFailures(t *testing.T) {
	recorder := &rebuildRecorder{err: errors.New("template broke")}
	watcher := newTestWatcher(t, recorder, 10*time.Millisecond)

	watcher.handleEvent(fsnotify.Event{Name: "theme/templates/post.html", Op: fsnotify.Write})
	time.Sleep(20 * time.Millisecond)
	watcher.flush(context.Background())

	stats := watcher.Stats()
	if stats.Failures != 1 || stats.Rebuilds != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestWatcherWatchesFilesystem(t *testing.T) {
	content := t.TempDir()
	recorder := &rebuildRecorder{notify: make(chan []string, 8)}

	watcher, err := NewWatcher(
		WatchConfig{Dirs: []string{content}, Debounce: 50 * time.Millisecond},
		WatchDependencies{Rebuild: recorder.rebuild},
	)
	if err != nil {
		t.Fatalf("unexpected watcher error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	defer watcher.Stop()

	if !watcher.IsWatching() {
		t.Fatal("expected watcher to be running")
	}

	post := filepath.Join(content, "express-session-auth.md")
	if err := os.WriteFile(post, []byte("---\ntitle: Sessions\n---\nbody"), 0o644); err != nil {
		t.Fatalf("unexpected write error: %v", err)
	}

	batch := waitForBatch(t, recorder.notify)
	if !contains(batch, post) {
		t.Fatalf("expected batch with %s, got %v", post, batch)
	}

	// Directories created after start join the watch.
	nested := filepath.Join(content, "guides")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("unexpected mkdir error: %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	nestedPost := filepath.Join(nested, "pandas-pytest.md")
	if err := os.WriteFile(nestedPost, []byte("---\ntitle: Pytest\n---\nbody"), 0o644); err != nil {
		t.Fatalf("unexpected write error: %v", err)
	}

	batch = waitForBatch(t, recorder.notify)
	if !contains(batch, nestedPost) {
		t.Fatalf("expected batch with %s, got %v", nestedPost, batch)
	}

	if stats := watcher.Stats(); stats.Rebuilds < 2 {
		t.Fatalf("expected at least 2 rebuilds, got %+v", stats)
	}
}

func waitForBatch(t *testing.T, notify chan []string) []string {
	t.Helper()
	select {
	case batch := <-notify:
		return batch
	case <-time.After(5 * time.Second):
		t.Fatal("no rebuild arrived")
		return nil
	}
}

func contains(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}
