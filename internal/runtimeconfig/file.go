package runtimeconfig

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig mirrors the site.yaml layout. Every field is optional; absent
// values leave the matching DefaultConfig entries untouched so a minimal
// file only has to name what it changes.
type FileConfig struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Author      string   `yaml:"author"`
	BaseURL     string   `yaml:"base_url"`
	ContentDir  string   `yaml:"content_dir"`
	OutputDir   string   `yaml:"output_dir"`
	Locale      string   `yaml:"locale"`
	Locales     []string `yaml:"locales"`

	Markdown  *FileMarkdown     `yaml:"markdown"`
	Generator *FileGenerator    `yaml:"generator"`
	Integrity *FileIntegrity    `yaml:"integrity"`
	Server    *FileServer       `yaml:"server"`
	Theme     *FileTheme        `yaml:"theme"`
	Routes    map[string]string `yaml:"routes"`
	Storage   *FileStorage      `yaml:"storage"`
	Cache     *FileCache        `yaml:"cache"`
	Logging   *FileLogging      `yaml:"logging"`
	Metadata  map[string]any    `yaml:"metadata"`
}

// FileMarkdown mirrors MarkdownConfig in yaml form.
type FileMarkdown struct {
	Pattern        string            `yaml:"pattern"`
	Recursive      *bool             `yaml:"recursive"`
	LocalePatterns map[string]string `yaml:"locale_patterns"`
	Extensions     []string          `yaml:"extensions"`
	Sanitize       *bool             `yaml:"sanitize"`
	HardWraps      *bool             `yaml:"hard_wraps"`
	SafeMode       *bool             `yaml:"safe_mode"`
}

// FileGenerator mirrors GeneratorConfig in yaml form.
type FileGenerator struct {
	CleanBuild    *bool `yaml:"clean_build"`
	Incremental   *bool `yaml:"incremental"`
	CopyAssets    *bool `yaml:"copy_assets"`
	Sitemap       *bool `yaml:"sitemap"`
	Robots        *bool `yaml:"robots"`
	Feeds         *bool `yaml:"feeds"`
	Workers       int   `yaml:"workers"`
	PageSize      int   `yaml:"page_size"`
	IncludeDrafts *bool `yaml:"include_drafts"`
	IncludeFuture *bool `yaml:"include_future"`
}

// FileIntegrity mirrors IntegrityConfig in yaml form.
type FileIntegrity struct {
	Enabled  *bool          `yaml:"enabled"`
	Schema   map[string]any `yaml:"schema"`
	External *FileExternal  `yaml:"external"`
}

// FileExternal mirrors ExternalLinkConfig in yaml form.
type FileExternal struct {
	Enabled   *bool  `yaml:"enabled"`
	Timeout   string `yaml:"timeout"`
	Workers   int    `yaml:"workers"`
	UserAgent string `yaml:"user_agent"`
}

// FileServer mirrors ServerConfig in yaml form.
type FileServer struct {
	Addr         string     `yaml:"addr"`
	NotFoundPage string     `yaml:"not_found_page"`
	Watch        *FileWatch `yaml:"watch"`
}

// FileWatch mirrors WatchConfig in yaml form.
type FileWatch struct {
	Enabled    *bool    `yaml:"enabled"`
	Debounce   string   `yaml:"debounce"`
	Extensions []string `yaml:"extensions"`
}

// FileTheme mirrors ThemesConfig in yaml form.
type FileTheme struct {
	Dir       string            `yaml:"dir"`
	Name      string            `yaml:"name"`
	Variant   string            `yaml:"variant"`
	CSSPrefix string            `yaml:"css_prefix"`
	Partials  map[string]string `yaml:"partials"`
}

// FileStorage mirrors StorageConfig in yaml form.
type FileStorage struct {
	Provider string         `yaml:"provider"`
	Driver   string         `yaml:"driver"`
	DSN      string         `yaml:"dsn"`
	Options  map[string]any `yaml:"options"`
}

// FileCache mirrors CacheConfig in yaml form.
type FileCache struct {
	Enabled *bool  `yaml:"enabled"`
	TTL     string `yaml:"ttl"`
}

// FileLogging mirrors LoggingConfig in yaml form.
type FileLogging struct {
	Provider  string   `yaml:"provider"`
	Level     string   `yaml:"level"`
	Format    string   `yaml:"format"`
	AddSource *bool    `yaml:"add_source"`
	Focus     []string `yaml:"focus"`
}

// LoadFile reads a site.yaml file and applies it on top of DefaultConfig.
// The returned config is validated.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("press config: read %s: %w", path, err)
	}
	return ParseFile(data)
}

// ParseFile decodes yaml site configuration and applies it on top of
// DefaultConfig. The returned config is validated.
func ParseFile(data []byte) (Config, error) {
	var file FileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Config{}, fmt.Errorf("press config: parse yaml: %w", err)
	}
	cfg := file.Apply(DefaultConfig())
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Apply copies the file's populated fields onto cfg and returns the result.
func (f FileConfig) Apply(cfg Config) Config {
	if v := strings.TrimSpace(f.Title); v != "" {
		cfg.Site.Title = v
	}
	if v := strings.TrimSpace(f.Description); v != "" {
		cfg.Site.Description = v
	}
	if v := strings.TrimSpace(f.Author); v != "" {
		cfg.Site.Author = v
	}
	if v := strings.TrimSpace(f.BaseURL); v != "" {
		cfg.Site.BaseURL = v
	}
	if v := strings.TrimSpace(f.ContentDir); v != "" {
		cfg.Content.Dir = v
	}
	if v := strings.TrimSpace(f.OutputDir); v != "" {
		cfg.Generator.OutputDir = v
	}
	if v := strings.TrimSpace(f.Locale); v != "" {
		cfg.Content.DefaultLocale = v
	}
	if len(f.Locales) > 0 {
		cfg.Content.Locales = append([]string(nil), f.Locales...)
	}
	if len(f.Routes) > 0 {
		if cfg.Routes.Patterns == nil {
			cfg.Routes.Patterns = map[string]string{}
		}
		for name, pattern := range f.Routes {
			cfg.Routes.Patterns[name] = pattern
		}
	}
	if len(f.Metadata) > 0 {
		if cfg.Generator.Metadata == nil {
			cfg.Generator.Metadata = map[string]any{}
		}
		for key, value := range f.Metadata {
			cfg.Generator.Metadata[key] = value
		}
	}
	if f.Markdown != nil {
		f.Markdown.apply(&cfg)
	}
	if f.Generator != nil {
		f.Generator.apply(&cfg)
	}
	if f.Integrity != nil {
		f.Integrity.apply(&cfg)
	}
	if f.Server != nil {
		f.Server.apply(&cfg)
	}
	if f.Theme != nil {
		f.Theme.apply(&cfg)
	}
	if f.Storage != nil {
		f.Storage.apply(&cfg)
	}
	if f.Cache != nil {
		f.Cache.apply(&cfg)
	}
	if f.Logging != nil {
		f.Logging.apply(&cfg)
	}
	return cfg
}

func (f FileMarkdown) apply(cfg *Config) {
	if v := strings.TrimSpace(f.Pattern); v != "" {
		cfg.Markdown.Pattern = v
	}
	if f.Recursive != nil {
		cfg.Markdown.Recursive = *f.Recursive
	}
	if len(f.LocalePatterns) > 0 {
		if cfg.Markdown.LocalePatterns == nil {
			cfg.Markdown.LocalePatterns = map[string]string{}
		}
		for code, pattern := range f.LocalePatterns {
			cfg.Markdown.LocalePatterns[code] = pattern
		}
	}
	if len(f.Extensions) > 0 {
		cfg.Markdown.Parser.Extensions = append([]string(nil), f.Extensions...)
	}
	if f.Sanitize != nil {
		cfg.Markdown.Parser.Sanitize = *f.Sanitize
	}
	if f.HardWraps != nil {
		cfg.Markdown.Parser.HardWraps = *f.HardWraps
	}
	if f.SafeMode != nil {
		cfg.Markdown.Parser.SafeMode = *f.SafeMode
	}
}

func (f FileGenerator) apply(cfg *Config) {
	if f.CleanBuild != nil {
		cfg.Generator.CleanBuild = *f.CleanBuild
	}
	if f.Incremental != nil {
		cfg.Generator.Incremental = *f.Incremental
	}
	if f.CopyAssets != nil {
		cfg.Generator.CopyAssets = *f.CopyAssets
	}
	if f.Sitemap != nil {
		cfg.Generator.GenerateSitemap = *f.Sitemap
	}
	if f.Robots != nil {
		cfg.Generator.GenerateRobots = *f.Robots
	}
	if f.Feeds != nil {
		cfg.Generator.GenerateFeeds = *f.Feeds
	}
	if f.Workers > 0 {
		cfg.Generator.Workers = f.Workers
	}
	if f.PageSize > 0 {
		cfg.Generator.PageSize = f.PageSize
	}
	if f.IncludeDrafts != nil {
		cfg.Generator.IncludeDrafts = *f.IncludeDrafts
	}
	if f.IncludeFuture != nil {
		cfg.Generator.IncludeFuture = *f.IncludeFuture
	}
}

func (f FileIntegrity) apply(cfg *Config) {
	if f.Enabled != nil {
		cfg.Integrity.Enabled = *f.Enabled
		cfg.Features.Integrity = *f.Enabled
	}
	if len(f.Schema) > 0 {
		cfg.Integrity.Schema = f.Schema
	}
	if f.External != nil {
		if f.External.Enabled != nil {
			cfg.Integrity.External.Enabled = *f.External.Enabled
		}
		if d, ok := parseDuration(f.External.Timeout); ok {
			cfg.Integrity.External.Timeout = d
		}
		if f.External.Workers > 0 {
			cfg.Integrity.External.Workers = f.External.Workers
		}
		if v := strings.TrimSpace(f.External.UserAgent); v != "" {
			cfg.Integrity.External.UserAgent = v
		}
	}
}

func (f FileServer) apply(cfg *Config) {
	if v := strings.TrimSpace(f.Addr); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(f.NotFoundPage); v != "" {
		cfg.Server.NotFoundPage = v
	}
	if f.Watch != nil {
		if f.Watch.Enabled != nil {
			cfg.Server.Watch.Enabled = *f.Watch.Enabled
		}
		if d, ok := parseDuration(f.Watch.Debounce); ok {
			cfg.Server.Watch.Debounce = d
		}
		if len(f.Watch.Extensions) > 0 {
			cfg.Server.Watch.Extensions = append([]string(nil), f.Watch.Extensions...)
		}
	}
}

func (f FileTheme) apply(cfg *Config) {
	if v := strings.TrimSpace(f.Dir); v != "" {
		cfg.Themes.Dir = v
	}
	if v := strings.TrimSpace(f.Name); v != "" {
		cfg.Themes.DefaultTheme = v
	}
	if v := strings.TrimSpace(f.Variant); v != "" {
		cfg.Themes.DefaultVariant = v
	}
	if v := strings.TrimSpace(f.CSSPrefix); v != "" {
		cfg.Themes.CSSVariablePrefix = v
	}
	if len(f.Partials) > 0 {
		if cfg.Themes.PartialFallbacks == nil {
			cfg.Themes.PartialFallbacks = map[string]string{}
		}
		for slot, fallback := range f.Partials {
			cfg.Themes.PartialFallbacks[slot] = fallback
		}
	}
}

func (f FileStorage) apply(cfg *Config) {
	if v := strings.TrimSpace(f.Provider); v != "" {
		cfg.Storage.Provider = v
	}
	if v := strings.TrimSpace(f.Driver); v != "" {
		cfg.Storage.Driver = v
	}
	if v := strings.TrimSpace(f.DSN); v != "" {
		cfg.Storage.DSN = v
	}
	if len(f.Options) > 0 {
		if cfg.Storage.Options == nil {
			cfg.Storage.Options = map[string]any{}
		}
		for key, value := range f.Options {
			cfg.Storage.Options[key] = value
		}
	}
}

func (f FileCache) apply(cfg *Config) {
	if f.Enabled != nil {
		cfg.Cache.Enabled = *f.Enabled
	}
	if d, ok := parseDuration(f.TTL); ok {
		cfg.Cache.DefaultTTL = d
	}
}

func (f FileLogging) apply(cfg *Config) {
	if v := strings.TrimSpace(f.Provider); v != "" {
		cfg.Logging.Provider = v
		cfg.Features.Logger = true
	}
	if v := strings.TrimSpace(f.Level); v != "" {
		cfg.Logging.Level = v
	}
	if v := strings.TrimSpace(f.Format); v != "" {
		cfg.Logging.Format = v
	}
	if f.AddSource != nil {
		cfg.Logging.AddSource = *f.AddSource
	}
	if len(f.Focus) > 0 {
		cfg.Logging.Focus = append([]string(nil), f.Focus...)
	}
}

func parseDuration(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, false
	}
	return d, true
}
