package press

import "github.com/goliatone/go-press/internal/runtimeconfig"

var (
	ErrThemesFeatureRequired      = runtimeconfig.ErrThemesFeatureRequired
	ErrWatchRequiresGenerator     = runtimeconfig.ErrWatchRequiresGenerator
	ErrDefaultLocaleRequired      = runtimeconfig.ErrDefaultLocaleRequired
	ErrContentDirRequired         = runtimeconfig.ErrContentDirRequired
	ErrGeneratorOutputDirRequired = runtimeconfig.ErrGeneratorOutputDirRequired
	ErrGeneratorWorkersInvalid    = runtimeconfig.ErrGeneratorWorkersInvalid
	ErrGeneratorPageSizeInvalid   = runtimeconfig.ErrGeneratorPageSizeInvalid
	ErrIntegrityWorkersInvalid    = runtimeconfig.ErrIntegrityWorkersInvalid
	ErrWatchDebounceInvalid       = runtimeconfig.ErrWatchDebounceInvalid
	ErrCacheTTLInvalid            = runtimeconfig.ErrCacheTTLInvalid
	ErrStorageProviderUnknown     = runtimeconfig.ErrStorageProviderUnknown
	ErrStorageDriverUnknown       = runtimeconfig.ErrStorageDriverUnknown
	ErrLoggingProviderRequired    = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown     = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid        = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid       = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config               = runtimeconfig.Config
	SiteConfig           = runtimeconfig.SiteConfig
	ContentConfig        = runtimeconfig.ContentConfig
	MarkdownConfig       = runtimeconfig.MarkdownConfig
	MarkdownParserConfig = runtimeconfig.MarkdownParserConfig
	GeneratorConfig      = runtimeconfig.GeneratorConfig
	IntegrityConfig      = runtimeconfig.IntegrityConfig
	ExternalLinkConfig   = runtimeconfig.ExternalLinkConfig
	ServerConfig         = runtimeconfig.ServerConfig
	WatchConfig          = runtimeconfig.WatchConfig
	ThemesConfig         = runtimeconfig.ThemesConfig
	RoutesConfig         = runtimeconfig.RoutesConfig
	StorageConfig        = runtimeconfig.StorageConfig
	CacheConfig          = runtimeconfig.CacheConfig
	LoggingConfig        = runtimeconfig.LoggingConfig
	Features             = runtimeconfig.Features
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a site.yaml file and applies it on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.LoadFile(path)
}

// ParseConfig decodes yaml site configuration and applies it on top of
// DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	return runtimeconfig.ParseFile(data)
}
