package markdown

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-press/pkg/interfaces"
)

// Config controls how the Markdown service discovers and parses files.
type Config struct {
	BasePath       string
	DefaultLocale  string
	Locales        []string
	LocalePatterns map[string]string
	Pattern        string
	Recursive      bool
	Parser         interfaces.ParseOptions
}

// Service implements interfaces.MarkdownService for filesystem-backed
// documents. Import and Sync require an Importer; a service constructed
// without one still loads and renders.
type Service struct {
	cfg      Config
	parser   interfaces.MarkdownParser
	loader   *Loader
	importer *Importer
}

// ErrImporterRequired is returned by Import and Sync when the service was
// built without an importer.
var ErrImporterRequired = errors.New("markdown service: importer is required")

// NewService constructs a Markdown service rooted at cfg.BasePath. When
// parser is nil a goldmark parser with the configured defaults is used.
func NewService(cfg Config, parser interfaces.MarkdownParser, importer *Importer) (*Service, error) {
	fsys, err := prepareFilesystem(cfg.BasePath)
	if err != nil {
		return nil, err
	}
	return newService(cfg, parser, importer, fsys), nil
}

// NewServiceWithFS constructs a Markdown service over an explicit filesystem.
// Embedded sites, tests, and wiring paths that must not touch the host disk
// at construction time use this constructor; missing directories surface on
// first load instead.
func NewServiceWithFS(cfg Config, parser interfaces.MarkdownParser, importer *Importer, fsys fs.FS) *Service {
	return newService(cfg, parser, importer, fsys)
}

func newService(cfg Config, parser interfaces.MarkdownParser, importer *Importer, fsys fs.FS) *Service {
	if parser == nil {
		parser = NewGoldmarkParser(cfg.Parser)
	}

	loader := NewLoader(fsys, LoaderConfig{
		BasePath:       cfg.BasePath,
		DefaultLocale:  cfg.DefaultLocale,
		Locales:        cfg.Locales,
		LocalePatterns: cfg.LocalePatterns,
		Pattern:        cfg.Pattern,
		Recursive:      cfg.Recursive,
	})

	return &Service{
		cfg:      cfg,
		parser:   parser,
		loader:   loader,
		importer: importer,
	}
}

// Load reads a single Markdown document relative to the configured base path.
func (s *Service) Load(ctx context.Context, path string, opts interfaces.LoadOptions) (*interfaces.Document, error) {
	doc, err := s.loader.LoadFile(ctx, s.normalizePath(path), toLoaderParams(opts))
	if err != nil {
		return nil, err
	}
	if err := s.renderInto(ctx, doc, opts.Parser); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadDirectory reads every Markdown document within the supplied directory.
func (s *Service) LoadDirectory(ctx context.Context, dir string, opts interfaces.LoadOptions) ([]*interfaces.Document, error) {
	docs, err := s.loader.LoadDirectory(ctx, s.normalizePath(dir), toLoaderParams(opts))
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if err := s.renderInto(ctx, doc, opts.Parser); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// Render parses Markdown bytes into HTML using the configured parser.
func (s *Service) Render(ctx context.Context, markdown []byte, opts interfaces.ParseOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.parser.ParseWithOptions(markdown, mergeParseOptions(s.cfg.Parser, opts))
}

// RenderDocument converts the document's Markdown body into HTML and stores
// the result on the document.
func (s *Service) RenderDocument(ctx context.Context, doc *interfaces.Document, opts interfaces.ParseOptions) ([]byte, error) {
	if doc == nil {
		return nil, errors.New("markdown service: document is nil")
	}
	if err := s.renderInto(ctx, doc, opts); err != nil {
		return nil, err
	}
	return doc.BodyHTML, nil
}

// Import renders a document and persists it as a post.
func (s *Service) Import(ctx context.Context, doc *interfaces.Document, opts interfaces.ImportOptions) (*interfaces.ImportResult, error) {
	if s.importer == nil {
		return nil, ErrImporterRequired
	}
	if doc == nil {
		return nil, errors.New("markdown service: document is nil")
	}
	if len(doc.BodyHTML) == 0 {
		if err := s.renderInto(ctx, doc, interfaces.ParseOptions{}); err != nil {
			return nil, err
		}
	}
	return s.importer.ImportDocument(ctx, doc, opts)
}

// ImportDirectory loads, renders, and imports every document under dir.
func (s *Service) ImportDirectory(ctx context.Context, dir string, opts interfaces.ImportOptions) (*interfaces.ImportResult, error) {
	if s.importer == nil {
		return nil, ErrImporterRequired
	}
	docs, err := s.LoadDirectory(ctx, dir, interfaces.LoadOptions{})
	if err != nil {
		return nil, err
	}
	return s.importer.ImportDocuments(ctx, docs, opts)
}

// Sync reconciles the post index with the documents under dir: new files
// create posts, changed files update them, unchanged files are skipped, and
// orphan removal follows opts.DeleteOrphaned.
func (s *Service) Sync(ctx context.Context, dir string, opts interfaces.SyncOptions) (*interfaces.SyncResult, error) {
	if s.importer == nil {
		return nil, ErrImporterRequired
	}
	docs, err := s.LoadDirectory(ctx, dir, interfaces.LoadOptions{})
	if err != nil {
		return nil, err
	}
	return s.importer.SyncDocuments(ctx, docs, opts)
}

func (s *Service) renderInto(ctx context.Context, doc *interfaces.Document, overrides interfaces.ParseOptions) error {
	html, err := s.Render(ctx, doc.Body, overrides)
	if err != nil {
		return fmt.Errorf("markdown render %s: %w", doc.FilePath, err)
	}
	doc.BodyHTML = html
	return nil
}

func (s *Service) normalizePath(path string) string {
	if strings.TrimSpace(path) == "" {
		return "."
	}
	clean := filepath.Clean(path)
	if filepath.IsAbs(clean) && strings.TrimSpace(s.cfg.BasePath) != "" {
		if rel, err := filepath.Rel(s.cfg.BasePath, clean); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(clean)
}

func mergeParseOptions(base, override interfaces.ParseOptions) interfaces.ParseOptions {
	merged := base
	if len(override.Extensions) > 0 {
		merged.Extensions = append([]string(nil), override.Extensions...)
	}
	if override.Sanitize {
		merged.Sanitize = true
	}
	if override.HardWraps {
		merged.HardWraps = true
	}
	if override.SafeMode {
		merged.SafeMode = true
	}
	return merged
}

func toLoaderParams(opts interfaces.LoadOptions) LoadParams {
	return LoadParams{
		Pattern:        opts.Pattern,
		LocalePatterns: opts.LocalePatterns,
		Recursive:      opts.Recursive,
	}
}

func prepareFilesystem(basePath string) (fs.FS, error) {
	if strings.TrimSpace(basePath) == "" {
		basePath = "."
	}
	if _, err := os.Stat(basePath); err != nil {
		return nil, fmt.Errorf("markdown service: stat base path %s: %w", basePath, err)
	}
	return os.DirFS(basePath), nil
}
