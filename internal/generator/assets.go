package generator

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-press/internal/themes"
	gotheme "github.com/goliatone/go-theme"
)

// AssetResolver resolves theme assets for copying into static outputs.
type AssetResolver interface {
	Open(ctx context.Context, theme *themes.Theme, asset string) (io.ReadCloser, error)
	ResolvePath(theme *themes.Theme, asset string) (string, error)
}

// NoOpAssetResolver skips asset resolution.
type NoOpAssetResolver struct{}

func (NoOpAssetResolver) Open(context.Context, *themes.Theme, string) (io.ReadCloser, error) {
	return nil, fmt.Errorf("generator: asset resolver not configured")
}

func (NoOpAssetResolver) ResolvePath(*themes.Theme, string) (string, error) {
	return "", fmt.Errorf("generator: asset resolver not configured")
}

// DirAssetResolver reads theme assets relative to each theme's ThemePath.
type DirAssetResolver struct{}

func (DirAssetResolver) Open(_ context.Context, theme *themes.Theme, asset string) (io.ReadCloser, error) {
	if theme == nil {
		return nil, fmt.Errorf("generator: theme required")
	}
	full, err := securePath(theme.ThemePath, asset)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

func (DirAssetResolver) ResolvePath(_ *themes.Theme, asset string) (string, error) {
	rel, err := secureRelPath(asset)
	if err != nil {
		return "", err
	}
	return rel, nil
}

// ContentSource supplies the non-markdown files that live alongside posts in
// the content directory, such as images and downloads.
type ContentSource interface {
	List(ctx context.Context) ([]string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// DirContentSource walks a content directory and exposes every file that is
// not a markdown source or a dotfile.
type DirContentSource struct {
	Root string
}

func (s DirContentSource) List(ctx context.Context) ([]string, error) {
	root := strings.TrimSpace(s.Root)
	if root == "" {
		return nil, nil
	}
	var names []string
	err := filepath.WalkDir(root, func(current string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		base := entry.Name()
		if strings.HasPrefix(base, ".") {
			if entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		if isMarkdownFile(base) {
			return nil
		}
		rel, err := filepath.Rel(root, current)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("generator: list content assets: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func (s DirContentSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	root := strings.TrimSpace(s.Root)
	if root == "" {
		return nil, fmt.Errorf("generator: content source root not configured")
	}
	full, err := securePath(root, name)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

func isMarkdownFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return true
	default:
		return false
	}
}

// securePath anchors name under root, collapsing any traversal segments so a
// crafted asset list cannot escape the theme or content directory.
func securePath(root, name string) (string, error) {
	rel, err := secureRelPath(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Clean(root), filepath.FromSlash(rel)), nil
}

func secureRelPath(name string) (string, error) {
	cleaned := path.Clean("/" + filepath.ToSlash(strings.TrimSpace(name)))
	rel := strings.TrimPrefix(cleaned, "/")
	if rel == "" || rel == "." {
		return "", fmt.Errorf("generator: asset path required")
	}
	return rel, nil
}

// collectThemeAssets prefers the go-theme manifest listing when one resolved
// and falls back to the asset lists from the stored theme config.
func collectThemeAssets(theme *themes.Theme, selection *gotheme.Selection) []string {
	if selection != nil && selection.Manifest != nil {
		assets := collectManifestAssets(selection)
		if len(assets) > 0 {
			return assets
		}
	}
	if theme == nil || theme.Config.Assets == nil {
		return nil
	}

	var assets []string
	base := ""
	if theme.Config.Assets.BasePath != nil {
		base = strings.TrimSpace(*theme.Config.Assets.BasePath)
	}

	appendAssets := func(list []string) {
		for _, item := range list {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			if base != "" {
				assets = append(assets, path.Join(base, filepath.ToSlash(item)))
			} else {
				assets = append(assets, filepath.ToSlash(item))
			}
		}
	}

	appendAssets(theme.Config.Assets.Styles)
	appendAssets(theme.Config.Assets.Scripts)
	appendAssets(theme.Config.Assets.Images)

	return assets
}

func collectManifestAssets(selection *gotheme.Selection) []string {
	if selection == nil || selection.Manifest == nil {
		return nil
	}

	assets := selection.Manifest.Assets.Files
	if variant := strings.TrimSpace(selection.Variant); variant != "" {
		if v, ok := selection.Manifest.Variants[variant]; ok && len(v.Assets.Files) > 0 {
			merged := make(map[string]string, len(selection.Manifest.Assets.Files)+len(v.Assets.Files))
			for key, file := range selection.Manifest.Assets.Files {
				merged[key] = file
			}
			for key, file := range v.Assets.Files {
				merged[key] = file
			}
			assets = merged
		}
	}

	seen := map[string]struct{}{}
	var out []string
	for _, asset := range assets {
		asset = strings.TrimPrefix(strings.TrimSpace(asset), "/")
		if asset == "" {
			continue
		}
		if _, ok := seen[asset]; ok {
			continue
		}
		seen[asset] = struct{}{}
		out = append(out, filepath.ToSlash(asset))
	}
	// Map iteration order is random; keep copy order stable.
	sort.Strings(out)
	return out
}

func detectAssetContentType(asset string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(asset), "."))
	switch ext {
	case "css":
		return "text/css"
	case "js":
		return "application/javascript"
	case "json":
		return "application/json"
	case "svg":
		return "image/svg+xml"
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "ico":
		return "image/x-icon"
	case "woff":
		return "font/woff"
	case "woff2":
		return "font/woff2"
	case "ttf":
		return "font/ttf"
	case "pdf":
		return "application/pdf"
	case "txt":
		return "text/plain; charset=utf-8"
	case "xml":
		return "application/xml"
	default:
		return "application/octet-stream"
	}
}
