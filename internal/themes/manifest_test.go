package themes

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/goliatone/go-press/pkg/testsupport"
)

func TestManifestParsingFixture(t *testing.T) {
	manifestPath := filepath.Join("testdata", "lumen_manifest.json")

	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	if manifest.Name == "" {
		t.Fatalf("expected manifest name to be populated")
	}
	if len(manifest.Templates) != 3 {
		t.Fatalf("expected three templates, got %d", len(manifest.Templates))
	}

	seed, err := ManifestToSeed("themes/lumen", manifest)
	if err != nil {
		t.Fatalf("manifest to seed: %v", err)
	}

	var want Seed
	goldenPath := filepath.Join("testdata", "lumen_manifest.golden.json")
	if err := testsupport.LoadGolden(goldenPath, &want); err != nil {
		t.Fatalf("load manifest golden: %v", err)
	}

	if !reflect.DeepEqual(want, seed) {
		t.Fatalf("manifest conversion mismatch:\nwant: %#v\n got: %#v", want, seed)
	}
}

func TestManifestToSeedValidation(t *testing.T) {
	if _, err := ManifestToSeed("themes/lumen", nil); err == nil {
		t.Fatalf("expected error when manifest is nil")
	}

	if _, err := ManifestToSeed("themes/lumen", &Manifest{Version: "1.0.0"}); err == nil {
		t.Fatalf("expected error when name missing")
	}

	if _, err := ManifestToSeed("themes/lumen", &Manifest{Name: "lumen"}); err == nil {
		t.Fatalf("expected error when version missing")
	}
}

func TestInstallDirIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	manifest := `{
  "name": "lumen",
  "version": "1.0.0",
  "templates": [
    {"name": "Post", "slug": "post", "path": "templates/post.html.tmpl"},
    {"name": "Index", "slug": "index", "path": "templates/index.html.tmpl"}
  ]
}`
	if err := testsupport.WriteFixtureTree(dir, map[string]string{
		"theme.json":                manifest,
		"templates/post.html.tmpl":  "{{ .Page.Title }}",
		"templates/index.html.tmpl": "{{ .Site.Title }}",
	}); err != nil {
		t.Fatalf("write fixture tree: %v", err)
	}

	svc := NewService(NewMemoryThemeRepository(), NewMemoryTemplateRepository())

	theme, err := InstallDir(ctx, svc, dir, true)
	if err != nil {
		t.Fatalf("install dir: %v", err)
	}
	if !theme.IsActive {
		t.Fatalf("expected installed theme to be active")
	}

	again, err := InstallDir(ctx, svc, dir, true)
	if err != nil {
		t.Fatalf("reinstall dir: %v", err)
	}
	if again.ID != theme.ID {
		t.Fatalf("expected stable theme id across installs, got %s and %s", theme.ID, again.ID)
	}

	templates, err := svc.ListTemplates(ctx, theme.ID)
	if err != nil {
		t.Fatalf("list templates: %v", err)
	}
	if len(templates) != 2 {
		t.Fatalf("expected two templates after reinstall, got %d", len(templates))
	}
}

func TestInstallDirMissingManifest(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryThemeRepository(), NewMemoryTemplateRepository())

	_, err := InstallDir(ctx, svc, t.TempDir(), false)
	if err == nil || errors.Is(err, ErrThemeNotFound) {
		t.Fatalf("expected manifest open error, got %v", err)
	}
}
