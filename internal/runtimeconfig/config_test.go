package runtimeconfig_test

import (
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-press/internal/runtimeconfig"
)

func TestConfigValidate_DefaultsAreValid(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_AllowsDisabledGeneratorWithoutOutput(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Generator = false
	cfg.Generator.OutputDir = ""
	cfg.Server.Watch.Enabled = false

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_RequiresOutputDirWhenGeneratorEnabled(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Generator.OutputDir = " "

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrGeneratorOutputDirRequired) {
		t.Fatalf("expected ErrGeneratorOutputDirRequired, got %v", err)
	}
}

func TestConfigValidate_RequiresContentDirWhenMarkdownEnabled(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Content.Dir = ""

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrContentDirRequired) {
		t.Fatalf("expected ErrContentDirRequired, got %v", err)
	}
}

func TestConfigValidate_RequiresDefaultLocale(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Content.DefaultLocale = "  "

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrDefaultLocaleRequired) {
		t.Fatalf("expected ErrDefaultLocaleRequired, got %v", err)
	}
}

func TestConfigValidate_RejectsDefaultThemeWithoutFeature(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Themes = false
	cfg.Themes.DefaultTheme = "lumen"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrThemesFeatureRequired) {
		t.Fatalf("expected ErrThemesFeatureRequired, got %v", err)
	}
}

func TestConfigValidate_WatchRequiresGenerator(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Generator = false
	cfg.Server.Watch.Enabled = true

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrWatchRequiresGenerator) {
		t.Fatalf("expected ErrWatchRequiresGenerator, got %v", err)
	}
}

func TestConfigValidate_RejectsNegativeWorkers(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Generator.Workers = -1

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrGeneratorWorkersInvalid) {
		t.Fatalf("expected ErrGeneratorWorkersInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownStorageProvider(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Provider = "redis"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrStorageProviderUnknown) {
		t.Fatalf("expected ErrStorageProviderUnknown, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownStorageDriver(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Driver = "oracle"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrStorageDriverUnknown) {
		t.Fatalf("expected ErrStorageDriverUnknown, got %v", err)
	}
}

func TestConfigValidate_AcceptsKnownStorageDrivers(t *testing.T) {
	for _, driver := range []string{"sqlite", "sqlite3", "postgres", "postgresql", "pg", ""} {
		cfg := runtimeconfig.DefaultConfig()
		cfg.Storage.Driver = driver
		if err := cfg.Validate(); err != nil {
			t.Fatalf("driver %q: unexpected error %v", driver, err)
		}
	}
}

func TestConfigValidate_RequiresLoggingProviderWhenFeatureEnabled(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = ""

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingProviderRequired) {
		t.Fatalf("expected ErrLoggingProviderRequired, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownLoggingProvider(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = "syslog"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingProviderUnknown) {
		t.Fatalf("expected ErrLoggingProviderUnknown, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidLoggingFormat(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingFormatInvalid) {
		t.Fatalf("expected ErrLoggingFormatInvalid, got %v", err)
	}
}

func TestParseFile_AppliesSiteLayout(t *testing.T) {
	data := []byte(`
title: Field Notes
description: Notes on building things
author: Jordan Marsh
base_url: https://fieldnotes.example.com
content_dir: content
output_dir: public
locale: en
locales: [en, es]
theme:
  dir: themes
  name: lumen
  variant: dark
generator:
  feeds: true
  robots: false
  page_size: 5
server:
  addr: ":4000"
  watch:
    enabled: true
    debounce: 250ms
routes:
  post: /writing/:slug
logging:
  provider: gologger
  level: debug
  format: console
`)

	cfg, err := runtimeconfig.ParseFile(data)
	if err != nil {
		t.Fatalf("ParseFile returned error: %v", err)
	}

	if cfg.Site.Title != "Field Notes" {
		t.Fatalf("expected title to apply, got %q", cfg.Site.Title)
	}
	if cfg.Site.BaseURL != "https://fieldnotes.example.com" {
		t.Fatalf("expected base url to apply, got %q", cfg.Site.BaseURL)
	}
	if cfg.Generator.OutputDir != "public" {
		t.Fatalf("expected output dir to apply, got %q", cfg.Generator.OutputDir)
	}
	if got := len(cfg.Content.Locales); got != 2 {
		t.Fatalf("expected 2 locales, got %d", got)
	}
	if cfg.Themes.DefaultTheme != "lumen" || cfg.Themes.DefaultVariant != "dark" {
		t.Fatalf("expected theme selection to apply, got %q/%q", cfg.Themes.DefaultTheme, cfg.Themes.DefaultVariant)
	}
	if cfg.Generator.GenerateRobots {
		t.Fatal("expected robots to be disabled")
	}
	if cfg.Generator.PageSize != 5 {
		t.Fatalf("expected page size 5, got %d", cfg.Generator.PageSize)
	}
	if cfg.Server.Addr != ":4000" {
		t.Fatalf("expected server addr to apply, got %q", cfg.Server.Addr)
	}
	if !cfg.Server.Watch.Enabled || cfg.Server.Watch.Debounce != 250*time.Millisecond {
		t.Fatalf("expected watch settings to apply, got %+v", cfg.Server.Watch)
	}
	if cfg.Routes.Patterns["post"] != "/writing/:slug" {
		t.Fatalf("expected route override, got %q", cfg.Routes.Patterns["post"])
	}
	if !cfg.Features.Logger || cfg.Logging.Provider != "gologger" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected logging settings to apply, got %+v", cfg.Logging)
	}
}

func TestParseFile_KeepsDefaultsForMinimalFile(t *testing.T) {
	cfg, err := runtimeconfig.ParseFile([]byte("title: Sparse\n"))
	if err != nil {
		t.Fatalf("ParseFile returned error: %v", err)
	}

	defaults := runtimeconfig.DefaultConfig()
	if cfg.Content.Dir != defaults.Content.Dir {
		t.Fatalf("expected default content dir, got %q", cfg.Content.Dir)
	}
	if cfg.Generator.OutputDir != defaults.Generator.OutputDir {
		t.Fatalf("expected default output dir, got %q", cfg.Generator.OutputDir)
	}
	if cfg.Server.Watch.Debounce != defaults.Server.Watch.Debounce {
		t.Fatalf("expected default debounce, got %v", cfg.Server.Watch.Debounce)
	}
}

func TestParseFile_AppliesStorageSettings(t *testing.T) {
	data := []byte(`
storage:
  provider: bun
  driver: sqlite
  dsn: file:press.db?cache=shared
  options:
    max_open_conns: 4
    conn_max_lifetime: 5m
`)

	cfg, err := runtimeconfig.ParseFile(data)
	if err != nil {
		t.Fatalf("ParseFile returned error: %v", err)
	}

	if cfg.Storage.Provider != "bun" || cfg.Storage.Driver != "sqlite" {
		t.Fatalf("expected storage selection to apply, got %+v", cfg.Storage)
	}
	if cfg.Storage.DSN != "file:press.db?cache=shared" {
		t.Fatalf("expected dsn to apply, got %q", cfg.Storage.DSN)
	}
	if got, ok := cfg.Storage.Options["max_open_conns"]; !ok || got != 4 {
		t.Fatalf("expected pool options to apply, got %#v", cfg.Storage.Options)
	}
}

func TestParseFile_ValidationFailuresSurface(t *testing.T) {
	_, err := runtimeconfig.ParseFile([]byte("storage:\n  provider: redis\n"))
	if !errors.Is(err, runtimeconfig.ErrStorageProviderUnknown) {
		t.Fatalf("expected ErrStorageProviderUnknown, got %v", err)
	}
}

func TestParseFile_RejectsMalformedYAML(t *testing.T) {
	_, err := runtimeconfig.ParseFile([]byte("title: [unterminated"))
	if err == nil {
		t.Fatal("expected yaml parse error")
	}
}
