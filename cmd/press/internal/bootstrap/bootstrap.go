package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-press"
	"github.com/goliatone/go-press/internal/adapters/gotemplate"
	"github.com/goliatone/go-press/internal/di"
	"github.com/goliatone/go-press/internal/generator"
	"github.com/goliatone/go-press/internal/integrity"
	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/internal/themes"
	"github.com/goliatone/go-press/pkg/interfaces"
)

// Options captures configuration for press CLI bootstraps. Zero values defer
// to the site file (when ConfigPath is set) or to press.DefaultConfig.
type Options struct {
	ConfigPath     string
	ContentDir     string
	OutputDir      string
	ThemeDir       string
	BaseURL        string
	DefaultLocale  string
	Locales        []string
	Addr           string
	Watch          *bool
	LoggerProvider interfaces.LoggerProvider
}

// Module wraps the press module plus the services the CLI commands drive.
type Module struct {
	Module    *press.Module
	Markdown  interfaces.MarkdownService
	Generator generator.Service
	Integrity integrity.Service
	Logger    interfaces.Logger
	Config    press.Config
}

// Close releases resources the underlying press module opened, such as a
// database created from Storage.DSN.
func (m *Module) Close() error {
	if m == nil || m.Module == nil {
		return nil
	}
	return m.Module.Close()
}

// BuildModule constructs a press module from the site file and flag overrides.
// When the configured theme directory exists its templates become the build
// renderer, and a theme.json manifest is installed as the active theme.
func BuildModule(opts Options) (*Module, error) {
	cfg := press.DefaultConfig()
	if path := strings.TrimSpace(opts.ConfigPath); path != "" {
		loaded, err := press.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("load site config: %w", err)
		}
		cfg = loaded
	}

	if dir := strings.TrimSpace(opts.ContentDir); dir != "" {
		cfg.Content.Dir = dir
	}
	if dir := strings.TrimSpace(opts.OutputDir); dir != "" {
		cfg.Generator.OutputDir = dir
	}
	if dir := strings.TrimSpace(opts.ThemeDir); dir != "" {
		cfg.Themes.Dir = dir
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg.Site.BaseURL = base
	}
	if locale := strings.TrimSpace(opts.DefaultLocale); locale != "" {
		cfg.Content.DefaultLocale = locale
	}
	if len(opts.Locales) > 0 {
		cfg.Content.Locales = cloneStrings(opts.Locales)
	}
	if addr := strings.TrimSpace(opts.Addr); addr != "" {
		cfg.Server.Addr = addr
	}
	if opts.Watch != nil {
		cfg.Server.Watch.Enabled = *opts.Watch
	}

	diOpts := []di.Option{}
	if opts.LoggerProvider != nil {
		diOpts = append(diOpts, di.WithLoggerProvider(opts.LoggerProvider))
	}

	themeDir := strings.TrimSpace(cfg.Themes.Dir)
	if cfg.Features.Generator && cfg.Generator.Enabled && dirExists(themeDir) {
		renderer, err := gotemplate.New(themeDir)
		if err != nil {
			return nil, fmt.Errorf("load theme templates: %w", err)
		}
		diOpts = append(diOpts, di.WithTemplate(renderer))
	}

	module, err := press.New(cfg, diOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise press module: %w", err)
	}

	if cfg.Features.Themes && fileExists(filepath.Join(themeDir, themes.ManifestFileName)) {
		if _, err := themes.InstallDir(context.Background(), module.Themes(), themeDir, true); err != nil {
			return nil, fmt.Errorf("install theme %q: %w", themeDir, err)
		}
	}

	logger := logging.ModuleLogger(module.Container().LoggerProvider(), "press.cli")

	return &Module{
		Module:    module,
		Markdown:  module.Markdown(),
		Generator: module.Generator(),
		Integrity: module.Integrity(),
		Logger:    logger,
		Config:    module.Container().Config,
	}, nil
}

// SplitList parses a comma separated flag value into a trimmed slice.
func SplitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func dirExists(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func cloneStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
