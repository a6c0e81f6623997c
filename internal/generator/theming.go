package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goliatone/go-press/internal/themes"
	gotheme "github.com/goliatone/go-theme"
	"github.com/google/uuid"
)

// ThemingConfig tunes how the generator resolves go-theme manifests and
// exposes theme data to templates.
type ThemingConfig struct {
	DefaultTheme      string
	DefaultVariant    string
	CSSVariablePrefix string
	PartialFallbacks  map[string]string
}

type themeManifestLoader interface {
	Load(themePath string) (*gotheme.Manifest, error)
}

type fsThemeManifestLoader struct{}

func (fsThemeManifestLoader) Load(themePath string) (*gotheme.Manifest, error) {
	cleaned := filepath.Clean(strings.TrimSpace(themePath))
	if cleaned == "" {
		return nil, fmt.Errorf("theme path required")
	}

	return gotheme.LoadDir(os.DirFS(cleaned), ".")
}

// themeSelector caches go-theme manifests per theme record so repeated builds
// do not reload them from disk.
type themeSelector struct {
	registry       *gotheme.MemoryRegistry
	loader         themeManifestLoader
	defaultTheme   string
	defaultVariant string

	mu        sync.Mutex
	manifests map[uuid.UUID]*gotheme.Manifest
}

func newThemeSelector(cfg ThemingConfig, loader themeManifestLoader) *themeSelector {
	if loader == nil {
		loader = fsThemeManifestLoader{}
	}
	return &themeSelector{
		registry:       gotheme.NewRegistry(),
		loader:         loader,
		defaultTheme:   strings.TrimSpace(cfg.DefaultTheme),
		defaultVariant: strings.TrimSpace(cfg.DefaultVariant),
		manifests:      map[uuid.UUID]*gotheme.Manifest{},
	}
}

// Selection resolves the go-theme selection for record, falling back to the
// configured default variant when the requested one is blank.
func (s *themeSelector) Selection(record *themes.Theme, variant string) (*gotheme.Selection, error) {
	if record == nil {
		return nil, nil
	}

	if _, err := s.ensureManifest(record); err != nil {
		return nil, err
	}

	if variant = strings.TrimSpace(variant); variant == "" {
		variant = s.defaultVariant
	}

	selector := gotheme.Selector{
		Registry:       s.registry,
		DefaultTheme:   s.defaultTheme,
		DefaultVariant: s.defaultVariant,
	}

	selection, err := selector.Select(record.Name, variant)
	if err != nil {
		return nil, fmt.Errorf("select theme %s: %w", record.Name, err)
	}
	return selection, nil
}

// ensureManifest loads and registers the manifest for record once, reusing
// the cached copy on later builds.
func (s *themeSelector) ensureManifest(record *themes.Theme) (*gotheme.Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if manifest, ok := s.manifests[record.ID]; ok {
		return manifest, nil
	}

	loaded, err := s.loader.Load(record.ThemePath)
	if err != nil {
		return nil, fmt.Errorf("load theme manifest from %s: %w", record.ThemePath, err)
	}

	// Registry lookups go through the stored record name, so the manifest
	// must agree with it even when theme.json spells it differently.
	manifest := *loaded
	if strings.TrimSpace(manifest.Name) == "" || !strings.EqualFold(manifest.Name, record.Name) {
		manifest.Name = strings.TrimSpace(record.Name)
	}
	if strings.TrimSpace(manifest.Version) == "" {
		manifest.Version = strings.TrimSpace(record.Version)
	}
	if manifest.Name == "" {
		return nil, fmt.Errorf("theme name required for manifest registration")
	}

	if err := s.registry.Register(&manifest); err != nil {
		return nil, fmt.Errorf("register theme manifest: %w", err)
	}
	s.manifests[record.ID] = &manifest
	return &manifest, nil
}
