// Package ditesting provides test doubles for wiring press containers in
// host and CLI tests without touching the filesystem.
package ditesting

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/goliatone/go-press/internal/di"
	"github.com/goliatone/go-press/internal/runtimeconfig"
	"github.com/goliatone/go-press/pkg/interfaces"
)

// MemoryStorage implements the generator artifact protocol in memory. Writes
// are retained so assertions can inspect built pages, and manifest reads
// resolve against earlier writes, which keeps incremental builds working.
type MemoryStorage struct {
	mu        sync.Mutex
	base      string
	files     map[string][]byte
	execCalls []ExecCall
}

// ExecCall captures an Exec invocation against the memory storage.
type ExecCall struct {
	Query         string
	Path          string
	InTransaction bool
}

// NewMemoryStorage constructs an empty in-memory artifact store. The base
// argument mirrors the generator OutputDir prefix trimming of the real
// providers; pass "" when paths arrive without a prefix.
func NewMemoryStorage(base string) *MemoryStorage {
	base = strings.Trim(path.Clean(strings.ReplaceAll(base, "\\", "/")), "/")
	if base == "." {
		base = ""
	}
	return &MemoryStorage{
		base:  base,
		files: map[string][]byte{},
	}
}

// Exec applies generator writes and removals to the in-memory tree.
func (m *MemoryStorage) Exec(_ context.Context, query string, args ...any) (interfaces.Result, error) {
	return m.exec(query, false, args)
}

// Query answers generator.read requests from the stored files.
func (m *MemoryStorage) Query(_ context.Context, query string, args ...any) (interfaces.Rows, error) {
	if query != "generator.read" || len(args) == 0 {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[m.relative(args[0])]
	if !ok {
		return nil, nil
	}
	return &memoryRows{data: append([]byte(nil), data...)}, nil
}

// Transaction executes fn against a transactional view. Operations apply
// immediately; the memory store has no rollback.
func (m *MemoryStorage) Transaction(_ context.Context, fn func(tx interfaces.Transaction) error) error {
	if fn == nil {
		return nil
	}
	return fn(&memoryTx{storage: m})
}

// File returns the stored content for a site-relative path.
func (m *MemoryStorage) File(p string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[m.relative(p)]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Paths lists every stored artifact path.
func (m *MemoryStorage) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	return paths
}

// ExecCalls returns a copy of recorded Exec calls.
func (m *MemoryStorage) ExecCalls() []ExecCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]ExecCall, len(m.execCalls))
	copy(calls, m.execCalls)
	return calls
}

func (m *MemoryStorage) exec(query string, inTx bool, args []any) (interfaces.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := ExecCall{Query: query, InTransaction: inTx}
	if len(args) > 0 {
		call.Path = m.relative(args[0])
	}
	m.execCalls = append(m.execCalls, call)

	switch query {
	case "generator.write":
		if len(args) < 2 {
			return memoryResult{}, errors.New("memory storage: write requires path and reader")
		}
		reader, ok := args[1].(io.Reader)
		if !ok || reader == nil {
			return memoryResult{}, errors.New("memory storage: write expects io.Reader content")
		}
		data, err := io.ReadAll(reader)
		if err != nil {
			return memoryResult{}, err
		}
		m.files[call.Path] = data
	case "generator.remove":
		if call.Path == "" {
			m.files = map[string][]byte{}
			break
		}
		delete(m.files, call.Path)
		prefix := call.Path + "/"
		for p := range m.files {
			if strings.HasPrefix(p, prefix) {
				delete(m.files, p)
			}
		}
	}
	return memoryResult{}, nil
}

func (m *MemoryStorage) relative(arg any) string {
	raw, _ := arg.(string)
	cleaned := strings.Trim(path.Clean(strings.ReplaceAll(raw, "\\", "/")), "/")
	if cleaned == "." {
		return ""
	}
	if m.base != "" {
		if cleaned == m.base {
			return ""
		}
		if strings.HasPrefix(cleaned, m.base+"/") {
			return cleaned[len(m.base)+1:]
		}
	}
	return cleaned
}

type memoryRows struct {
	data []byte
	read bool
}

func (r *memoryRows) Next() bool {
	if r.read {
		return false
	}
	r.read = true
	return true
}

func (r *memoryRows) Scan(dest ...any) error {
	if len(dest) == 0 {
		return errors.New("memory storage: scan requires destination")
	}
	switch target := dest[0].(type) {
	case *[]byte:
		*target = append((*target)[:0], r.data...)
	case *string:
		*target = string(r.data)
	default:
		return errors.New("memory storage: unsupported scan destination")
	}
	return nil
}

func (r *memoryRows) Close() error { return nil }

type memoryResult struct{}

func (memoryResult) RowsAffected() (int64, error) { return 0, nil }
func (memoryResult) LastInsertId() (int64, error) { return 0, nil }

type memoryTx struct {
	storage *MemoryStorage
}

func (tx *memoryTx) Query(ctx context.Context, query string, args ...any) (interfaces.Rows, error) {
	return tx.storage.Query(ctx, query, args...)
}

func (tx *memoryTx) Exec(_ context.Context, query string, args ...any) (interfaces.Result, error) {
	return tx.storage.exec(query, true, args)
}

func (tx *memoryTx) Transaction(context.Context, func(interfaces.Transaction) error) error {
	return errors.New("memory storage: nested transactions not supported")
}

func (tx *memoryTx) Commit() error   { return nil }
func (tx *memoryTx) Rollback() error { return nil }

// NewGeneratorContainer creates a DI container whose generator writes into a
// fresh MemoryStorage, returned alongside the container for assertions.
func NewGeneratorContainer(cfg runtimeconfig.Config, opts ...di.Option) (*di.Container, *MemoryStorage, error) {
	memStorage := NewMemoryStorage(cfg.Generator.OutputDir)
	options := append([]di.Option{di.WithGeneratorStorage(memStorage)}, opts...)

	container, err := di.NewContainer(cfg, options...)
	if err != nil {
		return nil, nil, err
	}
	return container, memStorage, nil
}
