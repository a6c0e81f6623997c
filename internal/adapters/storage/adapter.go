// Package storage provides database-backed artifact providers for the
// generator protocol. Hosts that serve a built site out of SQL rather than a
// directory tree wire the bun provider through WithGeneratorStorage.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/goliatone/go-press/pkg/interfaces"
	"github.com/uptrace/bun"
)

// Operation names mirror the generator artifact writer protocol.
const (
	opEnsureDir = "generator.ensure_dir"
	opWrite     = "generator.write"
	opRead      = "generator.read"
	opRemove    = "generator.remove"
)

// Artifact is one generated file persisted as a row. Paths are slash-relative
// to the site root, so "posts/hello/index.html" is the same artifact whether
// it was written by a filesystem or database provider.
type Artifact struct {
	bun.BaseModel `bun:"table:press_artifacts,alias:artifact"`

	Path        string            `bun:"path,pk"`
	Content     []byte            `bun:"content,notnull"`
	Size        int64             `bun:"size,notnull"`
	Category    string            `bun:"category,notnull,default:''"`
	ContentType string            `bun:"content_type,notnull,default:''"`
	Locale      string            `bun:"locale,notnull,default:''"`
	Checksum    string            `bun:"checksum,notnull,default:''"`
	Metadata    map[string]string `bun:"metadata,type:jsonb"`
	UpdatedAt   time.Time         `bun:"updated_at,nullzero"`
}

// NewBunProvider returns an interfaces.StorageProvider that stores build
// artifacts in the press_artifacts table. The base argument should match the
// generator OutputDir; paths arriving with that prefix are trimmed the same
// way the filesystem provider trims them.
func NewBunProvider(db *bun.DB, base string) interfaces.StorageProvider {
	base = strings.Trim(path.Clean(strings.ReplaceAll(base, "\\", "/")), "/")
	if base == "." {
		base = ""
	}
	return &bunProvider{db: db, base: base}
}

// EnsureArtifactSchema creates the press_artifacts table when missing. Hosts
// running against a managed database can skip this and apply the shipped SQL
// migrations instead.
func EnsureArtifactSchema(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*Artifact)(nil)).IfNotExists().Exec(ctx)
	return err
}

type bunProvider struct {
	db   *bun.DB
	base string
}

func (p *bunProvider) Query(ctx context.Context, query string, args ...any) (interfaces.Rows, error) {
	return p.query(ctx, p.db, query, args...)
}

func (p *bunProvider) Exec(ctx context.Context, query string, args ...any) (interfaces.Result, error) {
	return p.exec(ctx, p.db, query, args...)
}

func (p *bunProvider) Transaction(ctx context.Context, fn func(tx interfaces.Transaction) error) error {
	if fn == nil {
		return nil
	}
	return p.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(&bunProviderTx{provider: p, tx: tx})
	})
}

func (p *bunProvider) query(ctx context.Context, db bun.IDB, query string, args ...any) (interfaces.Rows, error) {
	if query != opRead || len(args) == 0 {
		return nil, nil
	}
	target := p.relative(args[0])
	artifact := new(Artifact)
	err := db.NewSelect().Model(artifact).Where("path = ?", target).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &blobRows{data: artifact.Content}, nil
}

func (p *bunProvider) exec(ctx context.Context, db bun.IDB, query string, args ...any) (interfaces.Result, error) {
	switch query {
	case opEnsureDir:
		// Row stores have no directories; the write path is self-sufficient.
		return execResult{}, nil
	case opWrite:
		artifact, err := p.artifactFromArgs(args)
		if err != nil {
			return execResult{}, err
		}
		res, err := db.NewInsert().Model(artifact).
			On("CONFLICT (path) DO UPDATE").
			Set("content = EXCLUDED.content").
			Set("size = EXCLUDED.size").
			Set("category = EXCLUDED.category").
			Set("content_type = EXCLUDED.content_type").
			Set("locale = EXCLUDED.locale").
			Set("checksum = EXCLUDED.checksum").
			Set("metadata = EXCLUDED.metadata").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return execResult{}, err
		}
		return sqlResult{Result: res}, nil
	case opRemove:
		if len(args) == 0 {
			return execResult{}, fmt.Errorf("press storage: remove requires path")
		}
		target := p.relative(args[0])
		del := db.NewDelete().Model((*Artifact)(nil))
		if target == "" {
			// Removing the root clears the whole tree, matching RemoveAll.
			del = del.Where("1 = 1")
		} else {
			del = del.Where("path = ?", target).WhereOr("path LIKE ?", target+"/%")
		}
		res, err := del.Exec(ctx)
		if err != nil {
			return execResult{}, err
		}
		return sqlResult{Result: res}, nil
	default:
		return execResult{}, nil
	}
}

// artifactFromArgs unpacks the generator write argument layout:
// path, reader, size, category, content type, locale, checksum, metadata.
func (p *bunProvider) artifactFromArgs(args []any) (*Artifact, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("press storage: write requires path and reader")
	}
	reader, ok := args[1].(io.Reader)
	if !ok || reader == nil {
		return nil, fmt.Errorf("press storage: write expects io.Reader content")
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("press storage: read content: %w", err)
	}

	artifact := &Artifact{
		Path:      p.relative(args[0]),
		Content:   content,
		Size:      int64(len(content)),
		UpdatedAt: time.Now().UTC(),
	}
	if len(args) > 3 {
		artifact.Category, _ = args[3].(string)
	}
	if len(args) > 4 {
		artifact.ContentType, _ = args[4].(string)
	}
	if len(args) > 5 {
		artifact.Locale, _ = args[5].(string)
	}
	if len(args) > 6 {
		artifact.Checksum, _ = args[6].(string)
	}
	if len(args) > 7 {
		if metadata, ok := args[7].(map[string]string); ok && len(metadata) > 0 {
			artifact.Metadata = metadata
		}
	}
	if artifact.Metadata == nil {
		artifact.Metadata = map[string]string{}
	}
	return artifact, nil
}

// relative trims the configured base prefix on path boundaries only, so an
// output dir of "dist" does not mangle a sibling path like "distribution".
func (p *bunProvider) relative(arg any) string {
	raw, _ := arg.(string)
	cleaned := strings.Trim(path.Clean(strings.ReplaceAll(raw, "\\", "/")), "/")
	if cleaned == "." {
		return ""
	}
	if p.base != "" {
		if cleaned == p.base {
			return ""
		}
		if strings.HasPrefix(cleaned, p.base+"/") {
			return cleaned[len(p.base)+1:]
		}
	}
	return cleaned
}

// bunProviderTx scopes artifact operations to a bun transaction. Commit and
// Rollback are owned by RunInTx; the interface methods are satisfied as
// no-ops so the outer transaction outcome stays authoritative.
type bunProviderTx struct {
	provider *bunProvider
	tx       bun.Tx
}

func (tx *bunProviderTx) Query(ctx context.Context, query string, args ...any) (interfaces.Rows, error) {
	return tx.provider.query(ctx, tx.tx, query, args...)
}

func (tx *bunProviderTx) Exec(ctx context.Context, query string, args ...any) (interfaces.Result, error) {
	return tx.provider.exec(ctx, tx.tx, query, args...)
}

func (tx *bunProviderTx) Transaction(context.Context, func(interfaces.Transaction) error) error {
	return errors.New("press storage: nested transactions not supported")
}

func (tx *bunProviderTx) Commit() error {
	return nil
}

func (tx *bunProviderTx) Rollback() error {
	return nil
}

// NewNoOpProvider returns a provider that accepts every operation and stores
// nothing. Useful for dry-run style hosts that only need BuildResult data.
func NewNoOpProvider() interfaces.StorageProvider {
	return &noopProvider{}
}

type noopProvider struct{}

func (*noopProvider) Query(context.Context, string, ...any) (interfaces.Rows, error) {
	return nil, nil
}

func (*noopProvider) Exec(context.Context, string, ...any) (interfaces.Result, error) {
	return execResult{}, nil
}

func (*noopProvider) Transaction(_ context.Context, fn func(tx interfaces.Transaction) error) error {
	if fn == nil {
		return nil
	}
	return fn(noopTx{})
}

type noopTx struct{}

func (noopTx) Query(context.Context, string, ...any) (interfaces.Rows, error) {
	return nil, nil
}

func (noopTx) Exec(context.Context, string, ...any) (interfaces.Result, error) {
	return execResult{}, nil
}

func (noopTx) Transaction(context.Context, func(interfaces.Transaction) error) error {
	return nil
}

func (noopTx) Commit() error {
	return nil
}

func (noopTx) Rollback() error {
	return nil
}

type execResult struct{}

func (execResult) RowsAffected() (int64, error) { return 0, nil }
func (execResult) LastInsertId() (int64, error) { return 0, nil }

type sqlResult struct {
	sql.Result
}

type blobRows struct {
	data []byte
	read bool
}

func (r *blobRows) Next() bool {
	if r.read {
		return false
	}
	r.read = true
	return true
}

func (r *blobRows) Scan(dest ...any) error {
	if len(dest) == 0 {
		return fmt.Errorf("press storage: scan requires destination")
	}
	switch target := dest[0].(type) {
	case *[]byte:
		*target = append((*target)[:0], r.data...)
	case *string:
		*target = string(r.data)
	default:
		return fmt.Errorf("press storage: unsupported scan destination %T", dest[0])
	}
	return nil
}

func (r *blobRows) Close() error {
	return nil
}
