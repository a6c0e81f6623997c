package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrThemesFeatureRequired indicates inconsistent theme configuration.
var ErrThemesFeatureRequired = errors.New("press config: themes feature must be enabled to configure a default theme")

// ErrWatchRequiresGenerator keeps rebuild-on-change behind the generator flag.
var ErrWatchRequiresGenerator = errors.New("press config: watch rebuild requires the generator to be enabled")

var ErrDefaultLocaleRequired = errors.New("press config: default locale is required")
var ErrContentDirRequired = errors.New("press config: content directory is required when markdown is enabled")
var ErrGeneratorOutputDirRequired = errors.New("press config: generator output directory is required when the generator is enabled")
var ErrGeneratorWorkersInvalid = errors.New("press config: generator workers must be zero or positive")
var ErrGeneratorPageSizeInvalid = errors.New("press config: generator page size must be zero or positive")
var ErrIntegrityWorkersInvalid = errors.New("press config: integrity external workers must be zero or positive")
var ErrWatchDebounceInvalid = errors.New("press config: watch debounce must be zero or positive")
var ErrCacheTTLInvalid = errors.New("press config: cache ttl must be zero or positive")
var ErrStorageProviderUnknown = errors.New("press config: storage provider is invalid")
var ErrStorageDriverUnknown = errors.New("press config: storage driver is invalid")
var ErrLoggingProviderRequired = errors.New("press config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("press config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("press config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("press config: logging format is invalid")

// Config aggregates feature flags and adapter bindings for the press module.
// Fields intentionally use simple types so host applications can extend them later.
type Config struct {
	Enabled   bool
	Site      SiteConfig
	Content   ContentConfig
	Markdown  MarkdownConfig
	Generator GeneratorConfig
	Integrity IntegrityConfig
	Server    ServerConfig
	Themes    ThemesConfig
	Routes    RoutesConfig
	Storage   StorageConfig
	Cache     CacheConfig
	Logging   LoggingConfig
	Features  Features
}

// SiteConfig carries site-wide metadata stamped into rendered pages, feeds,
// and the sitemap.
type SiteConfig struct {
	Title       string
	Description string
	Author      string
	BaseURL     string
}

// ContentConfig locates the Markdown content tree and declares its locales.
type ContentConfig struct {
	Dir           string
	DefaultLocale string
	Locales       []string
}

// MarkdownConfig captures loader and parser behaviour for Markdown ingestion.
type MarkdownConfig struct {
	Pattern        string
	Recursive      bool
	LocalePatterns map[string]string
	Parser         MarkdownParserConfig
}

// MarkdownParserConfig mirrors interfaces.ParseOptions for runtime configuration.
type MarkdownParserConfig struct {
	Extensions []string
	Sanitize   bool
	HardWraps  bool
	SafeMode   bool
}

// GeneratorConfig captures behaviour for the static site build.
type GeneratorConfig struct {
	Enabled         bool
	OutputDir       string
	CleanBuild      bool
	Incremental     bool
	CopyAssets      bool
	GenerateSitemap bool
	GenerateRobots  bool
	GenerateFeeds   bool
	Workers         int
	PageSize        int
	IncludeDrafts   bool
	IncludeFuture   bool
	Metadata        map[string]any
}

// IntegrityConfig captures audit behaviour for built sites. Schema optionally
// holds a JSON schema document applied to post front matter.
type IntegrityConfig struct {
	Enabled  bool
	Schema   map[string]any
	External ExternalLinkConfig
}

// ExternalLinkConfig bounds outbound link verification during audits.
// Disabled by default so checks stay network free.
type ExternalLinkConfig struct {
	Enabled   bool
	Timeout   time.Duration
	Workers   int
	UserAgent string
}

// ServerConfig captures preview server behaviour.
type ServerConfig struct {
	Addr            string
	NotFoundPage    string
	ShutdownTimeout time.Duration
	Watch           WatchConfig
}

// WatchConfig controls filesystem watching for rebuild-on-change previews.
type WatchConfig struct {
	Enabled    bool
	Debounce   time.Duration
	Extensions []string
}

// ThemesConfig captures theme discovery and selection.
type ThemesConfig struct {
	Dir               string
	DefaultTheme      string
	DefaultVariant    string
	CSSVariablePrefix string
	PartialFallbacks  map[string]string
}

// RoutesConfig captures URL layout patterns per page kind. Missing entries
// fall back to the resolver defaults.
type RoutesConfig struct {
	Patterns map[string]string
}

// StorageConfig selects the persistence backend for the post index. Driver,
// DSN, and Options only matter to the bun provider: when the host does not
// supply its own database handle, the container opens one from them.
type StorageConfig struct {
	Provider string
	Driver   string
	DSN      string
	Options  map[string]any
}

// CacheConfig captures repository cache behaviour.
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// Features toggles module functionality.
type Features struct {
	Markdown  bool
	Generator bool
	Integrity bool
	Server    bool
	Themes    bool
	Logger    bool
}

// DefaultConfig returns opinionated defaults for a filesystem-backed blog.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Site: SiteConfig{
			Title: "Press Site",
		},
		Content: ContentConfig{
			Dir:           "content",
			DefaultLocale: "en",
			Locales:       []string{"en"},
		},
		Markdown: MarkdownConfig{
			Pattern:        "*.md",
			Recursive:      true,
			LocalePatterns: map[string]string{},
		},
		Generator: GeneratorConfig{
			Enabled:         true,
			OutputDir:       "dist",
			CleanBuild:      true,
			Incremental:     false,
			CopyAssets:      true,
			GenerateSitemap: true,
			GenerateRobots:  true,
			GenerateFeeds:   true,
			Workers:         0,
			PageSize:        10,
			Metadata:        map[string]any{},
		},
		Integrity: IntegrityConfig{
			Enabled:  true,
			External: ExternalLinkConfig{},
		},
		Server: ServerConfig{
			Addr:         ":8080",
			NotFoundPage: "404.html",
			Watch: WatchConfig{
				Debounce: 500 * time.Millisecond,
			},
		},
		Themes: ThemesConfig{
			Dir: "themes",
		},
		Routes: RoutesConfig{
			Patterns: map[string]string{},
		},
		Storage: StorageConfig{
			Provider: "memory",
		},
		Cache: CacheConfig{
			Enabled:    true,
			DefaultTTL: time.Minute,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
			Format:   "",
		},
		Features: Features{
			Markdown:  true,
			Generator: true,
			Integrity: true,
			Server:    true,
			Themes:    true,
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.Content.DefaultLocale) == "" {
		return ErrDefaultLocaleRequired
	}
	if cfg.Features.Markdown {
		if strings.TrimSpace(cfg.Content.Dir) == "" {
			return ErrContentDirRequired
		}
	}
	if !cfg.Features.Themes {
		if strings.TrimSpace(cfg.Themes.DefaultTheme) != "" {
			return ErrThemesFeatureRequired
		}
	}
	if cfg.Features.Generator {
		if strings.TrimSpace(cfg.Generator.OutputDir) == "" {
			return ErrGeneratorOutputDirRequired
		}
	}
	if cfg.Server.Watch.Enabled && !cfg.Features.Generator {
		return ErrWatchRequiresGenerator
	}
	if cfg.Generator.Workers < 0 {
		return ErrGeneratorWorkersInvalid
	}
	if cfg.Generator.PageSize < 0 {
		return ErrGeneratorPageSizeInvalid
	}
	if cfg.Integrity.External.Workers < 0 {
		return ErrIntegrityWorkersInvalid
	}
	if cfg.Server.Watch.Debounce < 0 {
		return ErrWatchDebounceInvalid
	}
	if cfg.Cache.DefaultTTL < 0 {
		return ErrCacheTTLInvalid
	}
	if provider := normalizeProvider(cfg.Storage.Provider); provider != "" && !isSupportedStorage(provider) {
		return fmt.Errorf("%w: %s", ErrStorageProviderUnknown, provider)
	}
	if driver := normalizeProvider(cfg.Storage.Driver); driver != "" && !isSupportedStorageDriver(driver) {
		return fmt.Errorf("%w: %s", ErrStorageDriverUnknown, driver)
	}
	if cfg.Features.Logger {
		provider := normalizeProvider(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedLoggingProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedStorage(provider string) bool {
	switch provider {
	case "memory", "bun":
		return true
	default:
		return false
	}
}

func isSupportedStorageDriver(driver string) bool {
	switch driver {
	case "sqlite", "sqlite3", "postgres", "postgresql", "pg":
		return true
	default:
		return false
	}
}

func isSupportedLoggingProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
