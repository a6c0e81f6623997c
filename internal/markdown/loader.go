package markdown

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-press/pkg/interfaces"
)

// LoaderConfig configures how Markdown files are discovered under a base
// directory.
type LoaderConfig struct {
	// BasePath is the root directory where Markdown documents live.
	BasePath string
	// DefaultLocale applies when no locale can be inferred from the file path.
	DefaultLocale string
	// Locales enumerates the known locale codes (e.g. ["en", "es"]) so a
	// leading path segment like en/ maps onto a locale.
	Locales []string
	// LocalePatterns maps locale codes to glob expressions relative to BasePath.
	LocalePatterns map[string]string
	// Pattern limits discovered files to the supplied glob (defaults to "*.md").
	Pattern string
	// Recursive controls whether sub-directories are traversed.
	Recursive bool
}

// LoadParams carries per-call overrides for pattern matching and locale
// detection.
type LoadParams struct {
	Pattern        string
	LocalePatterns map[string]string
	Recursive      *bool
}

// Loader resolves files on an fs.FS into parsed documents with checksums and
// locale attribution. Paths inside results are slash-separated and relative
// to the base path, which keeps build manifests portable across machines.
type Loader struct {
	fsys           fs.FS
	basePath       string
	defaultLocale  string
	locales        []string
	localePatterns map[string]string
	pattern        string
	recursive      bool
}

// NewLoader constructs a Loader over the provided filesystem.
func NewLoader(fsys fs.FS, cfg LoaderConfig) *Loader {
	pattern := strings.TrimSpace(cfg.Pattern)
	if pattern == "" {
		pattern = "*.md"
	}

	return &Loader{
		fsys:           fsys,
		basePath:       filepath.Clean(cfg.BasePath),
		defaultLocale:  cfg.DefaultLocale,
		locales:        append([]string(nil), cfg.Locales...),
		localePatterns: cloneStringMap(cfg.LocalePatterns),
		pattern:        pattern,
		recursive:      cfg.Recursive,
	}
}

// LoadFile reads and parses a single Markdown document. The path may be
// absolute (it is made relative to the base path) or already relative.
func (l *Loader) LoadFile(ctx context.Context, path string, opts LoadParams) (*interfaces.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel, err := l.relativize(path)
	if err != nil {
		return nil, err
	}
	rel = filepath.ToSlash(rel)

	data, err := fs.ReadFile(l.fsys, rel)
	if err != nil {
		return nil, fmt.Errorf("markdown loader: read %s: %w", rel, err)
	}

	info, err := fs.Stat(l.fsys, rel)
	if err != nil {
		return nil, fmt.Errorf("markdown loader: stat %s: %w", rel, err)
	}

	doc, err := BuildDocument(rel, l.resolveLocale(rel, opts.LocalePatterns), data, info.ModTime())
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	doc.Checksum = sum[:]

	return doc, nil
}

// LoadDirectory walks dir and returns every matching document, sorted by file
// path so repeated runs observe the files in the same order.
func (l *Loader) LoadDirectory(ctx context.Context, dir string, opts LoadParams) ([]*interfaces.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := l.relativize(dir)
	if err != nil {
		return nil, err
	}
	root = filepath.Clean(root)

	var docs []*interfaces.Document

	walkErr := fs.WalkDir(l.fsys, root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if entry.IsDir() {
			if !l.descendInto(root, path, opts.Recursive) {
				return fs.SkipDir
			}
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		rel := filepath.ToSlash(path)
		if !l.matchesPattern(rel, opts.Pattern) {
			return nil
		}

		doc, err := l.LoadFile(ctx, rel, opts)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].FilePath < docs[j].FilePath
	})

	return docs, nil
}

func (l *Loader) descendInto(root, current string, override *bool) bool {
	recursive := l.recursive
	if override != nil {
		recursive = *override
	}
	if recursive {
		return true
	}
	// Without recursion only the root directory itself is walked.
	return filepath.Clean(current) == filepath.Clean(root)
}

func (l *Loader) matchesPattern(path, override string) bool {
	pattern := strings.TrimSpace(override)
	if pattern == "" {
		pattern = l.pattern
	}
	pattern = filepath.ToSlash(pattern)
	// filepath.Match has no ** support; collapsing the prefix matches any depth.
	if strings.Contains(pattern, "**") {
		pattern = strings.ReplaceAll(pattern, "**/", "")
	}

	target := filepath.Base(path)
	if strings.Contains(pattern, "/") {
		target = path
	}

	ok, err := filepath.Match(pattern, target)
	if err != nil {
		return false
	}
	return ok
}

// resolveLocale maps a relative file path onto a locale code. Explicit
// per-call patterns win, then configured patterns, then a leading path
// segment that names a known locale, then the default.
func (l *Loader) resolveLocale(path string, overrides map[string]string) string {
	path = filepath.ToSlash(path)

	if locale := localeByPattern(path, overrides); locale != "" {
		return locale
	}
	if locale := localeByPattern(path, l.localePatterns); locale != "" {
		return locale
	}

	if first, _, found := strings.Cut(path, "/"); found {
		for _, locale := range l.locales {
			if first == locale {
				return locale
			}
		}
	}

	return l.defaultLocale
}

func localeByPattern(path string, patterns map[string]string) string {
	for locale, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		pattern = filepath.ToSlash(pattern)
		if strings.Contains(pattern, "**") {
			pattern = strings.ReplaceAll(pattern, "**/", "")
		}
		if ok, err := filepath.Match(pattern, path); err == nil && ok {
			return locale
		}
	}
	return ""
}

func (l *Loader) relativize(path string) (string, error) {
	clean := filepath.Clean(path)
	if !filepath.IsAbs(clean) {
		return clean, nil
	}
	if l.basePath == "" || l.basePath == "." {
		return "", fmt.Errorf("markdown loader: absolute path %s needs a base path", path)
	}
	rel, err := filepath.Rel(l.basePath, clean)
	if err != nil {
		return "", fmt.Errorf("markdown loader: relativize %s: %w", path, err)
	}
	return rel, nil
}

func cloneStringMap(input map[string]string) map[string]string {
	out := make(map[string]string, len(input))
	for key, value := range input {
		out[key] = value
	}
	return out
}
