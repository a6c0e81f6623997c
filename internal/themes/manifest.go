package themes

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Manifest mirrors the expected theme.json structure. Unlike the database
// records it also declares the theme's templates so a directory can be
// installed in one step.
type Manifest struct {
	Name        string             `json:"name"`
	Description *string            `json:"description,omitempty"`
	Version     string             `json:"version"`
	Author      *string            `json:"author,omitempty"`
	Templates   []ManifestTemplate `json:"templates,omitempty"`
	Assets      *ThemeAssets       `json:"assets,omitempty"`
	Tokens      map[string]string  `json:"tokens,omitempty"`
	Metadata    map[string]any     `json:"metadata,omitempty"`
}

// ManifestTemplate declares one layout shipped by the theme.
type ManifestTemplate struct {
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	Description *string        `json:"description,omitempty"`
	Path        string         `json:"path"`
	Partials    []string       `json:"partials,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ManifestFileName is the descriptor expected at the root of a theme directory.
const ManifestFileName = "theme.json"

// LoadManifest reads and parses a manifest from disk.
func LoadManifest(path string) (*Manifest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("themes: open manifest: %w", err)
	}
	defer file.Close()
	return ParseManifest(file)
}

// ParseManifest decodes manifest JSON from a reader.
func ParseManifest(r io.Reader) (*Manifest, error) {
	var manifest Manifest
	if err := json.NewDecoder(r).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("themes: parse manifest: %w", err)
	}
	return &manifest, nil
}

// ManifestToSeed converts a manifest into a registration payload plus the
// template inputs it declares. Template ThemeID fields are filled in during
// installation once the theme record exists.
func ManifestToSeed(themePath string, manifest *Manifest) (Seed, error) {
	if manifest == nil {
		return Seed{}, fmt.Errorf("themes: manifest required")
	}
	if manifest.Name == "" {
		return Seed{}, fmt.Errorf("themes: manifest missing name")
	}
	if manifest.Version == "" {
		return Seed{}, fmt.Errorf("themes: manifest missing version")
	}

	seed := Seed{
		Theme: RegisterThemeInput{
			Name:        manifest.Name,
			Description: manifest.Description,
			Version:     manifest.Version,
			Author:      manifest.Author,
			ThemePath:   filepath.Clean(themePath),
			Config: ThemeConfig{
				Assets:   manifest.Assets,
				Tokens:   manifest.Tokens,
				Metadata: manifest.Metadata,
			},
		},
	}

	for _, tpl := range manifest.Templates {
		seed.Templates = append(seed.Templates, RegisterTemplateInput{
			Name:         tpl.Name,
			Slug:         tpl.Slug,
			Description:  tpl.Description,
			TemplatePath: tpl.Path,
			Partials:     tpl.Partials,
			Metadata:     tpl.Metadata,
		})
	}
	return seed, nil
}
