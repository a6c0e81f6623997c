package di

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-press/internal/adapters/filesystem"
	"github.com/goliatone/go-press/internal/generator"
	"github.com/goliatone/go-press/internal/identity"
	"github.com/goliatone/go-press/internal/integrity"
	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/internal/logging/console"
	"github.com/goliatone/go-press/internal/logging/gologger"
	"github.com/goliatone/go-press/internal/markdown"
	"github.com/goliatone/go-press/internal/posts"
	"github.com/goliatone/go-press/internal/routes"
	"github.com/goliatone/go-press/internal/runtimeconfig"
	"github.com/goliatone/go-press/internal/server"
	"github.com/goliatone/go-press/internal/themes"
	"github.com/goliatone/go-press/pkg/interfaces"
	"github.com/goliatone/go-press/pkg/storage"
	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"
)

var (
	// ErrBunDBRequired signals a bun storage provider configured without a
	// database handle. Supply one through WithBunDB or set Storage.DSN.
	ErrBunDBRequired = errors.New("press di: bun storage requires a database handle or dsn")

	// ErrServerFeatureDisabled signals a preview server request while the
	// server feature flag is off.
	ErrServerFeatureDisabled = errors.New("press di: preview server feature disabled")
)

// Container wires the services that make up a press module: the post catalog
// and theme registry with their repositories, the markdown ingestion
// pipeline, the static site generator, and the integrity checker. Memory
// repositories back everything by default; supplying a bun handle swaps in
// database-backed repositories.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	template       interfaces.TemplateRenderer
	storage        interfaces.StorageProvider
	httpClient     *http.Client

	bunDB         *bun.DB
	ownsDB        bool
	migrations    fs.FS
	cacheTTL      time.Duration
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	postRepo   posts.PostRepository
	localeRepo posts.LocaleRepository

	themeRepo    themes.ThemeRepository
	templateRepo themes.TemplateRepository

	memoryLocaleRepo *posts.MemoryLocaleRepository

	routeResolver *routes.Resolver

	postSvc      posts.Service
	themeSvc     themes.Service
	markdownSvc  interfaces.MarkdownService
	generatorSvc generator.Service
	integritySvc integrity.Service
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithBunDB swaps the memory repositories for bun-backed ones.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithMigrationsFS supplies the SQL migrations applied to databases the
// container opens itself from Storage.DSN. Handles passed through WithBunDB
// are never migrated; their schema belongs to the host.
func WithMigrationsFS(fsys fs.FS) Option {
	return func(c *Container) {
		c.migrations = fsys
	}
}

// WithLoggerProvider overrides the logger provider selected from config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithTemplate overrides the template renderer used by the generator.
func WithTemplate(tr interfaces.TemplateRenderer) Option {
	return func(c *Container) {
		c.template = tr
	}
}

// WithGeneratorStorage overrides where build artifacts are written. The
// default is a filesystem provider rooted at the configured output dir.
func WithGeneratorStorage(sp interfaces.StorageProvider) Option {
	return func(c *Container) {
		c.storage = sp
	}
}

// WithCache overrides the repository cache service and key serializer.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithHTTPClient overrides the client used for external link verification.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Container) {
		c.httpClient = client
	}
}

// WithPostService overrides the default post service binding.
func WithPostService(svc posts.Service) Option {
	return func(c *Container) {
		c.postSvc = svc
	}
}

// WithThemeService overrides the default theme service binding.
func WithThemeService(svc themes.Service) Option {
	return func(c *Container) {
		c.themeSvc = svc
	}
}

// WithMarkdownService overrides the default markdown service binding.
func WithMarkdownService(svc interfaces.MarkdownService) Option {
	return func(c *Container) {
		c.markdownSvc = svc
	}
}

// WithGeneratorService overrides the default generator binding.
func WithGeneratorService(svc generator.Service) Option {
	return func(c *Container) {
		c.generatorSvc = svc
	}
}

// WithIntegrityService overrides the default integrity binding.
func WithIntegrityService(svc integrity.Service) Option {
	return func(c *Container) {
		c.integritySvc = svc
	}
}

// WithRouteResolver overrides the permalink resolver built from config.
func WithRouteResolver(resolver *routes.Resolver) Option {
	return func(c *Container) {
		c.routeResolver = resolver
	}
}

// NewContainer creates a container with the provided configuration.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cacheTTL := cfg.Cache.DefaultTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}

	memoryPostRepo := posts.NewMemoryPostRepository()
	memoryLocaleRepo := posts.NewMemoryLocaleRepository()
	memoryThemeRepo := themes.NewMemoryThemeRepository()
	memoryTemplateRepo := themes.NewMemoryTemplateRepository()

	c := &Container{
		Config:           cfg,
		cacheTTL:         cacheTTL,
		postRepo:         memoryPostRepo,
		localeRepo:       memoryLocaleRepo,
		themeRepo:        memoryThemeRepo,
		templateRepo:     memoryTemplateRepo,
		memoryLocaleRepo: memoryLocaleRepo,
	}

	c.seedLocales()

	for _, opt := range opts {
		opt(c)
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}

	c.configureCacheDefaults()

	if err := c.configureRepositories(); err != nil {
		return nil, err
	}

	c.configureGeneratorStorage()
	c.configureServices()

	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}
	if !c.Config.Features.Logger {
		// Services fall back to no-op loggers.
		return nil
	}

	switch strings.ToLower(strings.TrimSpace(c.Config.Logging.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     c.Config.Logging.Level,
			Format:    c.Config.Logging.Format,
			AddSource: c.Config.Logging.AddSource,
			Focus:     append([]string(nil), c.Config.Logging.Focus...),
		})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	default:
		opts := console.Options{}
		if level, ok := console.ParseLevel(c.Config.Logging.Level); ok {
			opts.MinLevel = &level
		}
		c.loggerProvider = console.NewProvider(opts)
	}
	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.cacheTTL > 0 {
			cfg.TTL = c.cacheTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		}
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureRepositories() error {
	provider := strings.ToLower(strings.TrimSpace(c.Config.Storage.Provider))
	if provider == "bun" && c.bunDB == nil {
		if err := c.openConfiguredDB(); err != nil {
			return err
		}
	}
	if c.bunDB == nil {
		return nil
	}

	c.postRepo = posts.NewBunPostRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	c.localeRepo = posts.NewBunLocaleRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)

	c.themeRepo = themes.NewBunThemeRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	c.templateRepo = themes.NewBunTemplateRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)

	c.memoryLocaleRepo = nil

	return c.seedBunLocales(context.Background())
}

// openConfiguredDB connects to the database described by the storage config
// and applies the supplied migrations. The container owns handles opened
// here and closes them on Close.
func (c *Container) openConfiguredDB() error {
	if strings.TrimSpace(c.Config.Storage.DSN) == "" {
		return ErrBunDBRequired
	}
	db, err := storage.Open(storage.Config{
		Driver:  c.Config.Storage.Driver,
		DSN:     c.Config.Storage.DSN,
		Options: c.Config.Storage.Options,
	})
	if err != nil {
		return err
	}
	if c.migrations != nil {
		if err := storage.Migrate(context.Background(), db, c.migrations); err != nil {
			_ = db.Close()
			return err
		}
	}
	c.bunDB = db
	c.ownsDB = true
	return nil
}

func (c *Container) configureGeneratorStorage() {
	if c.storage != nil {
		return
	}
	outputDir := strings.TrimSpace(c.Config.Generator.OutputDir)
	if outputDir == "" {
		return
	}
	c.storage = filesystem.NewStorage(outputDir, outputDir)
}

func (c *Container) configureServices() {
	cfg := c.Config

	if c.postSvc == nil {
		c.postSvc = posts.NewService(c.postRepo, c.localeRepo,
			posts.WithDefaultLocale(cfg.Content.DefaultLocale))
	}

	if c.themeSvc == nil {
		if !cfg.Features.Themes {
			c.themeSvc = themes.NewNoOpService()
		} else {
			c.themeSvc = themes.NewService(c.themeRepo, c.templateRepo)
		}
	}

	if c.routeResolver == nil {
		c.routeResolver = routes.NewResolver(routes.Config{
			BaseURL:       cfg.Site.BaseURL,
			DefaultLocale: cfg.Content.DefaultLocale,
			Locales:       cfg.Content.Locales,
			Patterns:      cfg.Routes.Patterns,
		})
	}

	if c.markdownSvc == nil {
		if !cfg.Features.Markdown {
			c.markdownSvc = markdown.NewDisabledService()
		} else {
			importer := markdown.NewImporter(markdown.ImporterConfig{
				Posts:  c.postSvc,
				Logger: logging.MarkdownLogger(c.loggerProvider),
			})
			contentDir := strings.TrimSpace(cfg.Content.Dir)
			c.markdownSvc = markdown.NewServiceWithFS(
				markdownServiceConfig(cfg),
				nil,
				importer,
				os.DirFS(contentDir),
			)
			logging.MarkdownLogger(c.loggerProvider).Debug("markdown.configured",
				"content_dir", contentDir,
				"pattern", cfg.Markdown.Pattern,
				"default_locale", cfg.Content.DefaultLocale,
			)
		}
	}

	if c.generatorSvc == nil {
		if !cfg.Features.Generator || !cfg.Generator.Enabled {
			c.generatorSvc = generator.NewDisabledService()
		} else {
			c.generatorSvc = generator.NewService(generatorConfig(cfg), generator.Dependencies{
				Posts:    c.postSvc,
				Themes:   c.themeSvc,
				Routes:   c.routeResolver,
				Renderer: c.template,
				Storage:  c.storage,
				Locales:  c.localeRepo,
				Assets:   generator.DirAssetResolver{},
				Content:  generator.DirContentSource{Root: cfg.Content.Dir},
				Logger:   logging.GeneratorLogger(c.loggerProvider),
			})
			logging.GeneratorLogger(c.loggerProvider).Debug("generator.configured",
				"output_dir", cfg.Generator.OutputDir,
				"workers", cfg.Generator.Workers,
				"incremental", cfg.Generator.Incremental,
			)
		}
	}

	if c.integritySvc == nil {
		if !cfg.Features.Integrity || !cfg.Integrity.Enabled {
			c.integritySvc = integrity.NewDisabledService()
		} else {
			c.integritySvc = integrity.NewService(integrity.Config{
				OutputDir: cfg.Generator.OutputDir,
				BaseURL:   cfg.Site.BaseURL,
				Schema:    cfg.Integrity.Schema,
				External: integrity.ExternalConfig{
					Enabled:   cfg.Integrity.External.Enabled,
					Timeout:   cfg.Integrity.External.Timeout,
					Workers:   cfg.Integrity.External.Workers,
					UserAgent: cfg.Integrity.External.UserAgent,
				},
			}, integrity.Dependencies{
				Posts:  c.postSvc,
				Client: c.httpClient,
				Logger: logging.IntegrityLogger(c.loggerProvider),
			})
		}
	}
}

// seedLocales fills the memory locale repository from configuration so posts
// can resolve their translations without a separate bootstrap step. The bun
// path seeds through seedBunLocales once the handle is known.
func (c *Container) seedLocales() {
	if c.memoryLocaleRepo == nil {
		return
	}
	for _, locale := range c.configLocales() {
		c.memoryLocaleRepo.Put(locale)
	}
}

// seedBunLocales seeds configured locales into an empty database. Databases
// that already carry locale rows are left untouched; their codes and IDs are
// the host's to manage.
func (c *Container) seedBunLocales(ctx context.Context) error {
	count, err := c.bunDB.NewSelect().Model((*posts.Locale)(nil)).Count(ctx)
	if err != nil {
		return fmt.Errorf("press di: count locales: %w", err)
	}
	if count > 0 {
		return nil
	}

	repo := posts.NewBunLocaleRepository(c.bunDB)
	for _, locale := range c.configLocales() {
		if _, err := repo.Upsert(ctx, locale); err != nil {
			return fmt.Errorf("press di: seed locale %s: %w", locale.Code, err)
		}
	}
	return nil
}

// configLocales normalizes the configured locale list into records with
// deterministic identifiers. The default locale is always present even when
// the list omits it.
func (c *Container) configLocales() []*posts.Locale {
	codes := c.Config.Content.Locales
	if len(codes) == 0 {
		codes = []string{c.Config.Content.DefaultLocale}
	}

	defaultLocale := strings.ToLower(strings.TrimSpace(c.Config.Content.DefaultLocale))

	seen := map[string]struct{}{}
	locales := make([]*posts.Locale, 0, len(codes)+1)
	add := func(code string) {
		normalized := strings.TrimSpace(code)
		if normalized == "" {
			return
		}
		lower := strings.ToLower(normalized)
		if _, ok := seen[lower]; ok {
			return
		}
		seen[lower] = struct{}{}
		locales = append(locales, &posts.Locale{
			ID:        identity.LocaleUUID(lower),
			Code:      lower,
			Display:   normalized,
			IsActive:  true,
			IsDefault: lower == defaultLocale,
		})
	}

	for _, code := range codes {
		add(code)
	}
	add(c.Config.Content.DefaultLocale)

	return locales
}

func markdownServiceConfig(cfg runtimeconfig.Config) markdown.Config {
	return markdown.Config{
		BasePath:       cfg.Content.Dir,
		DefaultLocale:  cfg.Content.DefaultLocale,
		Locales:        append([]string(nil), cfg.Content.Locales...),
		LocalePatterns: cfg.Markdown.LocalePatterns,
		Pattern:        cfg.Markdown.Pattern,
		Recursive:      cfg.Markdown.Recursive,
		Parser:         parseOptions(cfg.Markdown.Parser),
	}
}

func parseOptions(cfg runtimeconfig.MarkdownParserConfig) interfaces.ParseOptions {
	return interfaces.ParseOptions{
		Extensions: append([]string(nil), cfg.Extensions...),
		Sanitize:   cfg.Sanitize,
		HardWraps:  cfg.HardWraps,
		SafeMode:   cfg.SafeMode,
	}
}

func generatorConfig(cfg runtimeconfig.Config) generator.Config {
	return generator.Config{
		OutputDir:       cfg.Generator.OutputDir,
		BaseURL:         cfg.Site.BaseURL,
		CleanBuild:      cfg.Generator.CleanBuild,
		Incremental:     cfg.Generator.Incremental,
		CopyAssets:      cfg.Generator.CopyAssets,
		GenerateSitemap: cfg.Generator.GenerateSitemap,
		GenerateRobots:  cfg.Generator.GenerateRobots,
		GenerateFeeds:   cfg.Generator.GenerateFeeds,
		Workers:         cfg.Generator.Workers,
		PageSize:        cfg.Generator.PageSize,
		IncludeDrafts:   cfg.Generator.IncludeDrafts,
		IncludeFuture:   cfg.Generator.IncludeFuture,
		DefaultLocale:   cfg.Content.DefaultLocale,
		Locales:         append([]string(nil), cfg.Content.Locales...),
		Metadata:        cfg.Generator.Metadata,
		Theming: generator.ThemingConfig{
			DefaultTheme:      cfg.Themes.DefaultTheme,
			DefaultVariant:    cfg.Themes.DefaultVariant,
			CSSVariablePrefix: cfg.Themes.CSSVariablePrefix,
			PartialFallbacks:  cfg.Themes.PartialFallbacks,
		},
	}
}

// Close releases resources the container opened itself, currently the
// database handle created from Storage.DSN. Handles supplied through
// WithBunDB stay open; they belong to the host.
func (c *Container) Close() error {
	if !c.ownsDB || c.bunDB == nil {
		return nil
	}
	db := c.bunDB
	c.bunDB = nil
	c.ownsDB = false
	return db.Close()
}

// DB exposes the bun handle backing the repositories, nil under memory
// storage.
func (c *Container) DB() *bun.DB {
	return c.bunDB
}

// LoggerProvider exposes the configured logger provider. It is nil when the
// logging feature is disabled and no provider was supplied.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// TemplateRenderer exposes the configured template renderer, nil until a
// host wires one through WithTemplate.
func (c *Container) TemplateRenderer() interfaces.TemplateRenderer {
	return c.template
}

// GeneratorStorage exposes the artifact storage used by the generator.
func (c *Container) GeneratorStorage() interfaces.StorageProvider {
	return c.storage
}

// PostRepository exposes the configured post repository.
func (c *Container) PostRepository() posts.PostRepository {
	return c.postRepo
}

// LocaleRepository exposes the configured locale repository.
func (c *Container) LocaleRepository() posts.LocaleRepository {
	return c.localeRepo
}

// PostService returns the configured post service.
func (c *Container) PostService() posts.Service {
	return c.postSvc
}

// ThemeService returns the configured theme service.
func (c *Container) ThemeService() themes.Service {
	return c.themeSvc
}

// MarkdownService returns the configured markdown service.
func (c *Container) MarkdownService() interfaces.MarkdownService {
	return c.markdownSvc
}

// GeneratorService returns the configured static site generator.
func (c *Container) GeneratorService() generator.Service {
	return c.generatorSvc
}

// IntegrityService returns the configured integrity checker.
func (c *Container) IntegrityService() integrity.Service {
	return c.integritySvc
}

// RouteResolver returns the permalink resolver for the configured site layout.
func (c *Container) RouteResolver() *routes.Resolver {
	return c.routeResolver
}

// PreviewServer builds a preview server over the generated output tree. A
// fresh instance is returned on each call; output files are read through the
// filesystem, so a running server picks up rebuilt pages without restarting.
func (c *Container) PreviewServer() (*server.Server, error) {
	if !c.Config.Features.Server {
		return nil, ErrServerFeatureDisabled
	}
	return server.New(server.Config{
		Addr:            c.Config.Server.Addr,
		OutputDir:       c.Config.Generator.OutputDir,
		NotFoundPage:    c.Config.Server.NotFoundPage,
		ShutdownTimeout: c.Config.Server.ShutdownTimeout,
	}, server.Dependencies{
		Logger: logging.ServerLogger(c.loggerProvider),
	})
}
