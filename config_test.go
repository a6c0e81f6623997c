package press_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	press "github.com/goliatone/go-press"
)

func TestConfigValidateDefaults(t *testing.T) {
	cfg := press.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidateThemeSelectionRequiresFeature(t *testing.T) {
	cfg := press.DefaultConfig()
	cfg.Features.Themes = false
	cfg.Themes.DefaultTheme = "plainfold"

	if err := cfg.Validate(); !errors.Is(err, press.ErrThemesFeatureRequired) {
		t.Fatalf("expected ErrThemesFeatureRequired, got %v", err)
	}
}

func TestConfigValidateWatchRequiresGenerator(t *testing.T) {
	cfg := press.DefaultConfig()
	cfg.Features.Generator = false
	cfg.Generator.OutputDir = ""
	cfg.Server.Watch.Enabled = true

	if err := cfg.Validate(); !errors.Is(err, press.ErrWatchRequiresGenerator) {
		t.Fatalf("expected ErrWatchRequiresGenerator, got %v", err)
	}
}

func TestConfigValidate_RejectsNegativePageSize(t *testing.T) {
	cfg := press.DefaultConfig()
	cfg.Generator.PageSize = -1

	if err := cfg.Validate(); !errors.Is(err, press.ErrGeneratorPageSizeInvalid) {
		t.Fatalf("expected ErrGeneratorPageSizeInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsNegativeCacheTTL(t *testing.T) {
	cfg := press.DefaultConfig()
	cfg.Cache.DefaultTTL = -time.Second

	if err := cfg.Validate(); !errors.Is(err, press.ErrCacheTTLInvalid) {
		t.Fatalf("expected ErrCacheTTLInvalid, got %v", err)
	}
}

func TestParseConfigAppliesOverrides(t *testing.T) {
	cfg, err := press.ParseConfig([]byte(`
title: Weekend Projects
base_url: https://weekend.example.com
output_dir: public
integrity:
  external:
    enabled: true
    timeout: 5s
    workers: 4
storage:
  provider: bun
`))
	if err != nil {
		t.Fatalf("ParseConfig returned error: %v", err)
	}

	if cfg.Site.Title != "Weekend Projects" {
		t.Fatalf("expected title override, got %q", cfg.Site.Title)
	}
	if cfg.Generator.OutputDir != "public" {
		t.Fatalf("expected output dir override, got %q", cfg.Generator.OutputDir)
	}
	if !cfg.Integrity.External.Enabled || cfg.Integrity.External.Timeout != 5*time.Second || cfg.Integrity.External.Workers != 4 {
		t.Fatalf("expected external link settings to apply, got %+v", cfg.Integrity.External)
	}
	if cfg.Storage.Provider != "bun" {
		t.Fatalf("expected bun storage provider, got %q", cfg.Storage.Provider)
	}
	if cfg.Content.Dir != "content" {
		t.Fatalf("expected untouched defaults to survive, got content dir %q", cfg.Content.Dir)
	}
}

func TestParseConfigSurfacesValidationErrors(t *testing.T) {
	_, err := press.ParseConfig([]byte("storage:\n  provider: mongo\n"))
	if !errors.Is(err, press.ErrStorageProviderUnknown) {
		t.Fatalf("expected ErrStorageProviderUnknown, got %v", err)
	}
}

func TestLoadConfigReadsSiteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.yaml")
	data := []byte("title: Loaded Site\nlocale: es\nlocales: [es, en]\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write site.yaml: %v", err)
	}

	cfg, err := press.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Site.Title != "Loaded Site" {
		t.Fatalf("expected title from file, got %q", cfg.Site.Title)
	}
	if cfg.Content.DefaultLocale != "es" || len(cfg.Content.Locales) != 2 {
		t.Fatalf("expected locale settings from file, got %+v", cfg.Content)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := press.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped os.ErrNotExist, got %v", err)
	}
}
