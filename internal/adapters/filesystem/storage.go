package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-press/pkg/interfaces"
)

// Operation names mirror the generator artifact writer protocol.
const (
	opEnsureDir = "generator.ensure_dir"
	opWrite     = "generator.write"
	opRead      = "generator.read"
	opRemove    = "generator.remove"
)

// NewStorage returns an interfaces.StorageProvider that writes build artifacts
// under root. The base argument should match the generator OutputDir; paths
// arriving with that prefix are trimmed so artifacts land directly in root.
func NewStorage(root, base string) interfaces.StorageProvider {
	base = strings.Trim(filepath.ToSlash(filepath.Clean(base)), "/")
	if base == "." {
		base = ""
	}
	return &provider{root: root, base: base}
}

type provider struct {
	root string
	base string
}

func (s *provider) Query(_ context.Context, query string, args ...any) (interfaces.Rows, error) {
	if query != opRead || len(args) == 0 {
		return nil, nil
	}
	target := s.relative(args[0])
	data, err := os.ReadFile(s.abs(target))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &blobRows{data: data}, nil
}

func (s *provider) Exec(_ context.Context, query string, args ...any) (interfaces.Result, error) {
	switch query {
	case opEnsureDir:
		if len(args) == 0 {
			return execResult{}, fmt.Errorf("ensure_dir requires path")
		}
		return execResult{}, os.MkdirAll(s.abs(s.relative(args[0])), 0o755)
	case opWrite:
		if len(args) < 2 {
			return execResult{}, fmt.Errorf("write requires path and reader")
		}
		reader, ok := args[1].(io.Reader)
		if !ok || reader == nil {
			return execResult{}, fmt.Errorf("write expects io.Reader content")
		}
		full := s.abs(s.relative(args[0]))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return execResult{}, err
		}
		file, err := os.Create(full)
		if err != nil {
			return execResult{}, err
		}
		defer file.Close()
		if _, err := io.Copy(file, reader); err != nil {
			return execResult{}, err
		}
		return execResult{}, nil
	case opRemove:
		if len(args) == 0 {
			return execResult{}, fmt.Errorf("remove requires path")
		}
		err := os.RemoveAll(s.abs(s.relative(args[0])))
		if errors.Is(err, os.ErrNotExist) {
			return execResult{}, nil
		}
		return execResult{}, err
	default:
		return execResult{}, nil
	}
}

func (s *provider) Transaction(_ context.Context, fn func(tx interfaces.Transaction) error) error {
	if fn == nil {
		return nil
	}
	return fn(&providerTx{storage: s})
}

func (s *provider) abs(rel string) string {
	if rel == "" {
		return s.root
	}
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// relative trims the configured base prefix on path boundaries only, so an
// output dir of "dist" does not mangle a sibling path like "distribution".
func (s *provider) relative(arg any) string {
	path, _ := arg.(string)
	path = strings.Trim(filepath.ToSlash(filepath.Clean(path)), "/")
	if path == "." {
		return ""
	}
	if s.base != "" {
		if path == s.base {
			return ""
		}
		if strings.HasPrefix(path, s.base+"/") {
			return path[len(s.base)+1:]
		}
	}
	return path
}

type providerTx struct {
	storage *provider
}

func (tx *providerTx) Query(ctx context.Context, query string, args ...any) (interfaces.Rows, error) {
	return tx.storage.Query(ctx, query, args...)
}

func (tx *providerTx) Exec(ctx context.Context, query string, args ...any) (interfaces.Result, error) {
	return tx.storage.Exec(ctx, query, args...)
}

func (tx *providerTx) Transaction(context.Context, func(interfaces.Transaction) error) error {
	return errors.New("nested transactions not supported")
}

func (tx *providerTx) Commit() error {
	return nil
}

func (tx *providerTx) Rollback() error {
	return nil
}

type execResult struct{}

func (execResult) RowsAffected() (int64, error) { return 0, nil }
func (execResult) LastInsertId() (int64, error) { return 0, nil }

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
		return fmt.Errorf("scan requires destination")
	}
	switch target := dest[0].(type) {
	case *[]byte:
		*target = append((*target)[:0], r.data...)
	case *string:
		*target = string(r.data)
	default:
		return fmt.Errorf("unsupported scan destination %T", dest[0])
	}
	return nil
}

func (r *blobRows) Close() error {
	return nil
}
