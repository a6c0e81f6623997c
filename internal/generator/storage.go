package generator

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/goliatone/go-press/pkg/interfaces"
)

// Storage providers receive build outputs as Exec calls keyed by operation
// name. Adapters switch on these strings, so their values are part of the
// provider contract.
const (
	storageOpEnsureDir = "generator.ensure_dir"
	storageOpWrite     = "generator.write"
	storageOpRead      = "generator.read"
	storageOpRemove    = "generator.remove"
)

// writeCategory tags each artifact so providers can index or route outputs
// without sniffing paths.
type writeCategory string

const (
	categoryPage     writeCategory = "page"
	categoryAsset    writeCategory = "asset"
	categoryFeed     writeCategory = "feed"
	categorySitemap  writeCategory = "sitemap"
	categoryRobots   writeCategory = "robots"
	categoryManifest writeCategory = "manifest"
)

// artifactWriter is the build pipeline's view of a storage provider.
type artifactWriter interface {
	EnsureDir(ctx context.Context, path string) error
	WriteFile(ctx context.Context, req writeFileRequest) error
	Remove(ctx context.Context, path string) error
}

// writeFileRequest carries one artifact plus the metadata providers persist
// alongside it.
type writeFileRequest struct {
	Path        string
	Content     io.Reader
	Size        int64
	Locale      string
	Category    writeCategory
	ContentType string
	Checksum    string
	Metadata    map[string]string
}

func (req writeFileRequest) validate() error {
	if req.Content == nil {
		return errors.New("generator: write requires content reader")
	}
	if strings.TrimSpace(req.Path) == "" {
		return errors.New("generator: write requires path")
	}
	return nil
}

// execArgs flattens the request into the positional layout adapters unpack:
// path, content, size, category, content type, locale, checksum, metadata.
func (req writeFileRequest) execArgs() []any {
	meta := req.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	return []any{
		req.Path,
		req.Content,
		req.Size,
		string(req.Category),
		req.ContentType,
		req.Locale,
		req.Checksum,
		meta,
	}
}

// newArtifactWriter wraps the configured provider, or discards writes when
// the build runs without one (render-only hosts).
func newArtifactWriter(storage interfaces.StorageProvider) artifactWriter {
	if storage == nil {
		return discardWriter{}
	}
	return &providerWriter{storage: storage}
}

type providerWriter struct {
	storage interfaces.StorageProvider
}

func (w *providerWriter) EnsureDir(ctx context.Context, path string) error {
	if strings.TrimSpace(path) == "" || path == "." {
		return nil
	}
	_, err := w.storage.Exec(ctx, storageOpEnsureDir, path)
	return err
}

func (w *providerWriter) WriteFile(ctx context.Context, req writeFileRequest) error {
	if err := req.validate(); err != nil {
		return err
	}
	_, err := w.storage.Exec(ctx, storageOpWrite, req.execArgs()...)
	return err
}

func (w *providerWriter) Remove(ctx context.Context, path string) error {
	_, err := w.storage.Exec(ctx, storageOpRemove, path)
	return err
}

type discardWriter struct{}

func (discardWriter) EnsureDir(context.Context, string) error { return nil }

func (discardWriter) WriteFile(context.Context, writeFileRequest) error { return nil }

func (discardWriter) Remove(context.Context, string) error { return nil }
