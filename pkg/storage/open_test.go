package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-press/pkg/storage"
)

func TestOpen_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()

	db, err := storage.Open(storage.Config{
		Driver: "sqlite",
		DSN:    "file:pressopenroundtrip?mode=memory&cache=shared",
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.DB.ExecContext(ctx, "CREATE TABLE notes (id INTEGER PRIMARY KEY, label TEXT NOT NULL)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.DB.ExecContext(ctx, "INSERT INTO notes (id, label) VALUES (1, 'hello')"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	var label string
	if err := db.DB.QueryRowContext(ctx, "SELECT label FROM notes WHERE id = 1").Scan(&label); err != nil {
		t.Fatalf("select: %v", err)
	}
	if label != "hello" {
		t.Fatalf("expected label hello, got %q", label)
	}
}

func TestOpen_DefaultsToSQLite(t *testing.T) {
	db, err := storage.Open(storage.Config{DSN: "file:pressopendefault?mode=memory&cache=shared"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.DB.ExecContext(context.Background(), "SELECT 1"); err != nil {
		t.Fatalf("probe query: %v", err)
	}
}

func TestOpen_PinsMemorySQLiteToSingleConnection(t *testing.T) {
	db, err := storage.Open(storage.Config{
		Driver:  "sqlite3",
		DSN:     "file:pressopenpin?mode=memory&cache=shared",
		Options: map[string]any{"max_open_conns": 8},
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if got := db.DB.Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("expected memory database pinned to one connection, got %d", got)
	}
}

func TestOpen_AppliesPoolOptions(t *testing.T) {
	db, err := storage.Open(storage.Config{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "press.db"),
		Options: map[string]any{
			"max_open_conns":    4,
			"max_idle_conns":    2,
			"conn_max_lifetime": "5m",
		},
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if got := db.DB.Stats().MaxOpenConnections; got != 4 {
		t.Fatalf("expected max open conns 4, got %d", got)
	}
}

func TestOpen_RejectsUnknownDriver(t *testing.T) {
	_, err := storage.Open(storage.Config{Driver: "oracle", DSN: "press.db"})
	if !errors.Is(err, storage.ErrUnsupportedDriver) {
		t.Fatalf("expected ErrUnsupportedDriver, got %v", err)
	}
}

func TestOpen_RequiresDSN(t *testing.T) {
	_, err := storage.Open(storage.Config{Driver: "sqlite"})
	if !errors.Is(err, storage.ErrDSNRequired) {
		t.Fatalf("expected ErrDSNRequired, got %v", err)
	}
}

func TestMigrate_AppliesFilesInLexicalOrder(t *testing.T) {
	ctx := context.Background()

	db, err := storage.Open(storage.Config{DSN: "file:pressmigrate?mode=memory&cache=shared"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	// The seed file only works once the first file has created its table, so
	// a populated row proves the ordering.
	fsys := fstest.MapFS{
		"sql/001_notes.sql": &fstest.MapFile{Data: []byte("CREATE TABLE IF NOT EXISTS notes (id INTEGER PRIMARY KEY, label TEXT NOT NULL);")},
		"sql/002_seed.sql":  &fstest.MapFile{Data: []byte("INSERT OR IGNORE INTO notes (id, label) VALUES (1, 'seeded');")},
		"sql/readme.txt":    &fstest.MapFile{Data: []byte("not a migration")},
	}
	if err := storage.Migrate(ctx, db, fsys); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	var label string
	if err := db.DB.QueryRowContext(ctx, "SELECT label FROM notes WHERE id = 1").Scan(&label); err != nil {
		t.Fatalf("select seeded row: %v", err)
	}
	if label != "seeded" {
		t.Fatalf("expected seeded row, got %q", label)
	}

	// Guarded DDL and OR IGNORE seeds tolerate a second pass.
	if err := storage.Migrate(ctx, db, fsys); err != nil {
		t.Fatalf("re-run migrate: %v", err)
	}
}

func TestMigrate_SurfacesFailingFile(t *testing.T) {
	ctx := context.Background()

	db, err := storage.Open(storage.Config{DSN: "file:pressmigratefail?mode=memory&cache=shared"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	fsys := fstest.MapFS{
		"001_broken.sql": &fstest.MapFile{Data: []byte("CREATE TABLE (")},
	}
	err = storage.Migrate(ctx, db, fsys)
	if err == nil {
		t.Fatal("expected migration failure")
	}
	if !strings.Contains(err.Error(), "001_broken.sql") {
		t.Fatalf("expected error to name the failing file, got %v", err)
	}
}
