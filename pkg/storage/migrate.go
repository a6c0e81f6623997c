package storage

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/uptrace/bun"
)

// Migrate executes every .sql file found under fsys against db, in lexical
// path order. Files run through the raw sql handle, so their statements reach
// the driver untouched by bun's query formatter. The bundled press migrations
// guard their DDL with IF NOT EXISTS; running them against an already
// provisioned database is a no-op.
func Migrate(ctx context.Context, db *bun.DB, fsys fs.FS) error {
	var files []string
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !strings.HasSuffix(path, ".sql") {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("press storage: list migrations: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		ddl, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fmt.Errorf("press storage: read migration %s: %w", file, err)
		}
		if _, err := db.DB.ExecContext(ctx, string(ddl)); err != nil {
			return fmt.Errorf("press storage: apply migration %s: %w", file, err)
		}
	}
	return nil
}
