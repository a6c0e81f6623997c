package generator

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"maps"
	"path"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/internal/posts"
	"github.com/goliatone/go-press/internal/themes"
	"github.com/goliatone/go-press/pkg/interfaces"
)

var (
	// ErrServiceDisabled indicates the static build feature is disabled.
	ErrServiceDisabled           = errors.New("generator: service disabled")
	errRendererRequired          = errors.New("generator: template renderer is required")
	errTemplateRequired          = errors.New("generator: template is required for rendering")
	errTemplateIdentifierMissing = errors.New("generator: template identifier is required for rendering")
)

// Service describes the static site generator contract.
type Service interface {
	Build(ctx context.Context, opts BuildOptions) (*BuildResult, error)
	Clean(ctx context.Context) error
}

// Config captures runtime behaviour toggles for the generator.
type Config struct {
	OutputDir       string
	BaseURL         string
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
	DefaultLocale   string
	Locales         []string
	Metadata        map[string]any
	Theming         ThemingConfig
}

// BuildOptions narrows the scope of a generator run.
type BuildOptions struct {
	Locales []string
	Slugs   []string
	DryRun  bool
}

// BuildResult reports aggregated build metadata.
type BuildResult struct {
	PagesBuilt    int
	PagesSkipped  int
	AssetsBuilt   int
	AssetsSkipped int
	FeedsBuilt    int
	Locales       []string
	Duration      time.Duration
	Rendered      []RenderedPage
	Diagnostics   []RenderDiagnostic
	Errors        []error
	DryRun        bool
}

// Dependencies lists the services required by the generator.
type Dependencies struct {
	Posts    posts.Service
	Themes   themes.Service
	Routes   RouteResolver
	Renderer interfaces.TemplateRenderer
	Storage  interfaces.StorageProvider
	Locales  LocaleLookup
	Assets   AssetResolver
	Content  ContentSource
	Hooks    Hooks
	Logger   interfaces.Logger
}

// LocaleLookup resolves locales from configured repositories.
type LocaleLookup interface {
	GetByCode(ctx context.Context, code string) (*posts.Locale, error)
}

// RouteResolver supplies the canonical site-relative path for each page kind.
type RouteResolver interface {
	PostPath(locale, slug string) (string, error)
	PagePath(locale, slug string) (string, error)
	TagPath(locale, tag string) (string, error)
	IndexPath(locale string) (string, error)
}

// Hooks lets hosts observe build lifecycle events. Nil entries are skipped.
type Hooks struct {
	BeforeBuild func(ctx context.Context, opts BuildOptions) error
	AfterBuild  func(ctx context.Context, opts BuildOptions, result *BuildResult) error
	AfterPage   func(ctx context.Context, page RenderedPage) error
	BeforeClean func(ctx context.Context, outputDir string) error
	AfterClean  func(ctx context.Context, outputDir string) error
}

// NewService wires a generator implementation with the provided configuration and dependencies.
func NewService(cfg Config, deps Dependencies) Service {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	return &service{
		cfg:           cfg,
		deps:          deps,
		logger:        logger,
		themeSelector: newThemeSelector(cfg.Theming, nil),
		now:           time.Now,
	}
}

// NewDisabledService returns a Service that fails all operations with ErrServiceDisabled.
func NewDisabledService() Service {
	return disabledService{}
}

type service struct {
	cfg           Config
	deps          Dependencies
	logger        interfaces.Logger
	themeSelector *themeSelector
	now           func() time.Time
}

func (s *service) baseLogger(ctx context.Context) interfaces.Logger {
	logger := s.logger
	if logger == nil {
		logger = logging.NoOp()
	}
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	return logger
}

type disabledService struct{}

func (s *service) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.deps.Renderer == nil {
		return nil, errRendererRequired
	}
	if hook := s.deps.Hooks.BeforeBuild; hook != nil {
		if err := hook(ctx, opts); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	logger := logging.WithFields(s.baseLogger(ctx), map[string]any{
		"operation": "generator.build",
	})

	buildCtx, err := s.loadContext(ctx, opts)
	if err != nil {
		logging.WithFields(logger, map[string]any{
			"error": err,
		}).Error("generator.build.load_failed")
		return nil, err
	}

	result := &BuildResult{
		Locales:     make([]string, 0, len(buildCtx.Locales)),
		DryRun:      opts.DryRun,
		Diagnostics: append([]RenderDiagnostic(nil), buildCtx.Diagnostics...),
	}
	for _, spec := range buildCtx.Locales {
		result.Locales = append(result.Locales, spec.Code)
	}

	siteMeta := SiteMetadata{
		BaseURL:       strings.TrimRight(s.cfg.BaseURL, "/"),
		DefaultLocale: buildCtx.DefaultLocale,
		Locales:       append([]LocaleSpec(nil), buildCtx.Locales...),
		Metadata:      maps.Clone(s.cfg.Metadata),
	}
	if siteMeta.Metadata == nil {
		siteMeta.Metadata = map[string]any{}
	}

	var (
		mu          sync.Mutex
		rendered    = make([]RenderedPage, 0, len(buildCtx.Pages))
		errorsSlice []error
		baseDir     = strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
		pageKeys    = map[string]struct{}{}
	)

	// A broken manifest downgrades the run to a full rebuild rather than
	// failing it; the rewritten manifest replaces the broken one.
	manifest, manifestErr := s.loadManifest(ctx)
	if manifestErr != nil {
		logging.WithFields(logger, map[string]any{
			"error": manifestErr,
		}).Warn("generator.manifest.load_failed")
	}
	if manifest == nil || s.cfg.CleanBuild {
		manifest = newBuildManifest()
	}

	collect := func(outcome renderOutcome) {
		mu.Lock()
		defer mu.Unlock()
		result.Diagnostics = append(result.Diagnostics, outcome.diagnostic)
		if key := manifest.pageKey(outcome.diagnostic.Route); key != "" {
			pageKeys[key] = struct{}{}
		}
		if outcome.err != nil {
			errorsSlice = append(errorsSlice, outcome.err)
			return
		}
		if outcome.skipped {
			result.PagesSkipped++
			return
		}
		result.PagesBuilt++
		if !opts.DryRun {
			rendered = append(rendered, outcome.page)
		}
	}

	workerCount := s.effectiveWorkerCount(len(buildCtx.Locales))
	if workerCount <= 1 || len(buildCtx.Pages) <= 1 {
		for _, page := range buildCtx.Pages {
			select {
			case <-ctx.Done():
				collect(renderOutcome{
					diagnostic: RenderDiagnostic{
						Kind:   page.Kind,
						Slug:   page.Slug(),
						Locale: page.Locale.Code,
						Route:  page.Route,
						Err:    ctx.Err(),
					},
					err: ctx.Err(),
				})
				return result, ctx.Err()
			default:
				outcome := s.renderPage(ctx, siteMeta, buildCtx, page, manifest, baseDir)
				collect(outcome)
			}
		}
	} else {
		if err := s.renderConcurrently(ctx, siteMeta, buildCtx, workerCount, manifest, baseDir, collect); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	if opts.DryRun {
		result.Rendered = rendered
		result.Duration = time.Since(start)
		if len(errorsSlice) > 0 {
			result.Errors = append(result.Errors, errorsSlice...)
			return result, errors.Join(errorsSlice...)
		}
		logging.WithFields(logger, map[string]any{
			"pages_built":  result.PagesBuilt,
			"dry_run":      true,
			"duration_ms":  result.Duration.Milliseconds(),
			"locale_count": len(result.Locales),
		}).Debug("generator.build.completed")
		return result, nil
	}

	writer := newArtifactWriter(s.deps.Storage)
	if s.cfg.CleanBuild {
		if err := writer.Remove(ctx, baseDir); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	if err := s.persistPages(ctx, writer, buildCtx, rendered); err != nil {
		errorsSlice = append(errorsSlice, err)
	}
	if hook := s.deps.Hooks.AfterPage; hook != nil {
		for _, page := range rendered {
			if err := hook(ctx, page); err != nil {
				errorsSlice = append(errorsSlice, err)
				break
			}
		}
	}

	assetKeys := map[string]struct{}{}
	if s.cfg.CopyAssets {
		assetSummary, err := s.copyThemeAssets(ctx, writer, buildCtx, manifest, baseDir, assetKeys)
		if err != nil {
			errorsSlice = append(errorsSlice, err)
		} else {
			result.AssetsBuilt += assetSummary.Built
			result.AssetsSkipped += assetSummary.Skipped
		}

		contentSummary, err := s.copyContentAssets(ctx, writer, manifest, baseDir, assetKeys)
		if err != nil {
			errorsSlice = append(errorsSlice, err)
		} else {
			result.AssetsBuilt += contentSummary.Built
			result.AssetsSkipped += contentSummary.Skipped
		}
	}

	if s.cfg.GenerateFeeds {
		docs := s.buildFeedDocuments(buildCtx)
		written, err := s.writeFeeds(ctx, writer, siteMeta, buildCtx, docs)
		result.FeedsBuilt = written
		if err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	if s.cfg.GenerateSitemap {
		sitemapPages := s.mergeRenderedForSitemap(buildCtx, rendered, manifest)
		if err := s.writeSitemap(ctx, writer, siteMeta, buildCtx, sitemapPages); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	if s.cfg.GenerateRobots {
		if err := s.writeRobots(ctx, writer, siteMeta); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	if len(errorsSlice) == 0 {
		manifest.GeneratedAt = buildCtx.GeneratedAt
		for _, page := range rendered {
			if strings.TrimSpace(page.Route) == "" || strings.TrimSpace(page.Checksum) == "" {
				continue
			}
			manifest.setPage(manifestPage{
				Kind:         page.Kind,
				Slug:         page.Slug,
				Locale:       page.Locale,
				Route:        page.Route,
				Output:       page.Output,
				Template:     page.Template,
				Hash:         page.Metadata.Hash,
				Checksum:     page.Checksum,
				LastModified: page.Metadata.LastModified,
				RenderedAt:   buildCtx.GeneratedAt,
			})
		}
		if fullBuild(opts) {
			manifest.prunePages(pageKeys)
			if s.cfg.CopyAssets {
				manifest.pruneAssets(assetKeys)
			}
		}
		if err := s.persistManifest(ctx, writer, manifest); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	result.Rendered = rendered
	result.Duration = time.Since(start)
	if hook := s.deps.Hooks.AfterBuild; hook != nil {
		if err := hook(ctx, opts, result); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}
	if len(errorsSlice) > 0 {
		result.Errors = append(result.Errors, errorsSlice...)
		logging.WithFields(logger, map[string]any{
			"error_count":  len(errorsSlice),
			"pages_built":  result.PagesBuilt,
			"duration_ms":  result.Duration.Milliseconds(),
			"locale_count": len(result.Locales),
		}).Error("generator.build.failed")
		return result, errors.Join(errorsSlice...)
	}
	logging.WithFields(logger, map[string]any{
		"pages_built":   result.PagesBuilt,
		"pages_skipped": result.PagesSkipped,
		"assets_built":  result.AssetsBuilt,
		"feeds_built":   result.FeedsBuilt,
		"duration_ms":   result.Duration.Milliseconds(),
		"locale_count":  len(result.Locales),
	}).Info("generator.build.completed")
	return result, nil
}

// Clean removes the output directory through the storage provider.
func (s *service) Clean(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	if hook := s.deps.Hooks.BeforeClean; hook != nil {
		if err := hook(ctx, baseDir); err != nil {
			return err
		}
	}
	writer := newArtifactWriter(s.deps.Storage)
	if err := writer.Remove(ctx, baseDir); err != nil {
		logging.WithFields(s.baseLogger(ctx), map[string]any{
			"operation": "generator.clean",
			"error":     err,
		}).Error("generator.clean.failed")
		return err
	}
	if hook := s.deps.Hooks.AfterClean; hook != nil {
		if err := hook(ctx, baseDir); err != nil {
			return err
		}
	}
	logging.WithFields(s.baseLogger(ctx), map[string]any{
		"operation":  "generator.clean",
		"output_dir": baseDir,
	}).Debug("generator.clean.completed")
	return nil
}

// fullBuild reports whether the run covered every page, which makes it safe
// to prune manifest entries that were not produced this time.
func fullBuild(opts BuildOptions) bool {
	return len(opts.Slugs) == 0 && len(opts.Locales) == 0
}

func (s *service) renderConcurrently(
	ctx context.Context,
	siteMeta SiteMetadata,
	buildCtx *BuildContext,
	workers int,
	manifest *buildManifest,
	baseDir string,
	collect func(renderOutcome),
) error {
	grouped := groupPagesByLocale(buildCtx.Pages)
	if len(grouped) == 0 {
		return nil
	}

	jobs := make(chan []*PageData)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range jobs {
				for _, page := range batch {
					select {
					case <-ctx.Done():
						collect(renderOutcome{
							diagnostic: RenderDiagnostic{
								Kind:   page.Kind,
								Slug:   page.Slug(),
								Locale: page.Locale.Code,
								Route:  page.Route,
								Err:    ctx.Err(),
							},
							err: ctx.Err(),
						})
						return
					default:
						outcome := s.renderPage(ctx, siteMeta, buildCtx, page, manifest, baseDir)
						collect(outcome)
					}
				}
			}
		}()
	}

	for _, locale := range buildCtx.Locales {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		case jobs <- grouped[locale.Code]:
		}
	}
	close(jobs)
	wg.Wait()
	return nil
}

func (s *service) renderPage(
	ctx context.Context,
	siteMeta SiteMetadata,
	buildCtx *BuildContext,
	data *PageData,
	manifest *buildManifest,
	baseDir string,
) renderOutcome {
	outcome := renderOutcome{
		diagnostic: RenderDiagnostic{
			Kind:   data.Kind,
			Slug:   data.Slug(),
			Locale: data.Locale.Code,
			Route:  data.Route,
		},
	}

	select {
	case <-ctx.Done():
		outcome.err = ctx.Err()
		outcome.diagnostic.Err = ctx.Err()
		return outcome
	default:
	}

	if data.Template == nil {
		err := fmt.Errorf("generator: %s page %s locale %s missing template: %w", data.Kind, data.Route, data.Locale.Code, errTemplateRequired)
		outcome.err = err
		outcome.diagnostic.Err = err
		return outcome
	}

	templateName := strings.TrimSpace(data.Template.TemplatePath)
	if templateName == "" {
		templateName = strings.TrimSpace(data.Template.Slug)
	}
	if templateName == "" {
		err := fmt.Errorf("generator: %s page %s locale %s template missing identifier: %w", data.Kind, data.Route, data.Locale.Code, errTemplateIdentifierMissing)
		outcome.err = err
		outcome.diagnostic.Err = err
		return outcome
	}
	outcome.diagnostic.Template = templateName

	if s.cfg.Incremental && manifest != nil {
		destRel := buildOutputPath(data.Route, data.Locale.Code, buildCtx.DefaultLocale)
		expectedOutput := joinOutputPath(baseDir, destRel)
		if manifest.shouldSkipPage(data.Route, data.Metadata.Hash, expectedOutput) {
			outcome.skipped = true
			outcome.diagnostic.Skipped = true
			return outcome
		}
	}

	templateCtx := TemplateContext{
		Site: siteMeta,
		Page: PageRenderingContext{
			Kind:        data.Kind,
			Post:        data.Post,
			Translation: data.Translation,
			Posts:       data.Listing,
			Tag:         data.Tag,
			Pagination:  data.Pagination,
			Template:    data.Template,
			Theme:       buildCtx.Theme,
			Route:       data.Route,
			Title:       data.Title,
			Summary:     data.Summary,
			Locale:      data.Locale,
			Metadata:    data.Metadata,
		},
		Build: BuildMetadata{
			GeneratedAt: buildCtx.GeneratedAt,
			Options:     buildCtx.Options,
		},
		Theme:   buildThemeContext(buildCtx.Theme, buildCtx.ThemeSelection, s.cfg.Theming),
		Helpers: newTemplateHelpers(siteMeta.DefaultLocale, data.Locale, siteMeta.BaseURL),
	}

	start := time.Now()
	rendered, err := s.deps.Renderer.RenderTemplate(templateName, templateCtx)
	duration := time.Since(start)
	outcome.diagnostic.Duration = duration
	if err != nil {
		wrapped := fmt.Errorf("generator: render template %q for %s page %s (%s): %w", templateName, data.Kind, data.Route, data.Locale.Code, err)
		outcome.err = wrapped
		outcome.diagnostic.Err = wrapped
		return outcome
	}

	outcome.page = RenderedPage{
		Kind:     data.Kind,
		Slug:     data.Slug(),
		Locale:   data.Locale.Code,
		Route:    data.Route,
		Template: templateName,
		HTML:     rendered,
		Metadata: data.Metadata,
		Duration: duration,
	}
	return outcome
}

func (s *service) persistPages(
	ctx context.Context,
	writer artifactWriter,
	buildCtx *BuildContext,
	pages []RenderedPage,
) error {
	if len(pages) == 0 {
		return nil
	}
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	dirCache := map[string]struct{}{}
	if baseDir != "" {
		dirCache[baseDir] = struct{}{}
		if err := writer.EnsureDir(ctx, baseDir); err != nil {
			return err
		}
	}
	for i := range pages {
		route := pages[i].Route
		destRel := buildOutputPath(route, pages[i].Locale, buildCtx.DefaultLocale)
		if strings.TrimSpace(destRel) == "" {
			destRel = "index.html"
		}
		fullPath := joinOutputPath(baseDir, destRel)
		if err := ensureDir(ctx, writer, dirCache, path.Dir(fullPath)); err != nil {
			return err
		}
		checksum := computeHashFromString(pages[i].HTML)
		pages[i].Output = fullPath
		pages[i].Checksum = checksum

		metadata := map[string]string{
			"kind":     pages[i].Kind,
			"route":    route,
			"template": pages[i].Template,
		}
		if pages[i].Slug != "" {
			metadata["slug"] = pages[i].Slug
		}
		if s.cfg.Incremental {
			metadata["incremental"] = "true"
		}
		req := writeFileRequest{
			Path:        fullPath,
			Content:     strings.NewReader(pages[i].HTML),
			Size:        int64(len(pages[i].HTML)),
			Locale:      pages[i].Locale,
			Category:    categoryPage,
			ContentType: "text/html; charset=utf-8",
			Checksum:    checksum,
			Metadata:    metadata,
		}
		if err := writer.WriteFile(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

type assetCopySummary struct {
	Built   int
	Skipped int
}

func (s *service) copyThemeAssets(
	ctx context.Context,
	writer artifactWriter,
	buildCtx *BuildContext,
	manifest *buildManifest,
	baseDir string,
	assetKeys map[string]struct{},
) (assetCopySummary, error) {
	summary := assetCopySummary{}
	if s.deps.Assets == nil || buildCtx.Theme == nil {
		return summary, nil
	}
	theme := buildCtx.Theme
	owner := theme.ID.String()
	dirCache := map[string]struct{}{}
	if baseDir != "" {
		dirCache[baseDir] = struct{}{}
		if err := writer.EnsureDir(ctx, baseDir); err != nil {
			return summary, err
		}
	}
	for _, asset := range collectThemeAssets(theme, buildCtx.ThemeSelection) {
		reader, err := s.deps.Assets.Open(ctx, theme, asset)
		if err != nil {
			return summary, err
		}
		data, err := io.ReadAll(reader)
		_ = reader.Close()
		if err != nil {
			return summary, err
		}
		resolved, err := s.deps.Assets.ResolvePath(theme, asset)
		if err != nil {
			return summary, err
		}
		resolved = strings.TrimLeft(strings.TrimSpace(resolved), "/")
		if resolved == "" {
			resolved = strings.TrimLeft(strings.TrimSpace(asset), "/")
		}
		destRel := path.Join("assets", resolved)
		fullPath := joinOutputPath(baseDir, destRel)
		checksum := computeHash(data)
		if assetKeys != nil {
			assetKeys[manifest.assetKey(owner, asset)] = struct{}{}
		}
		if manifest != nil && s.cfg.Incremental {
			if manifest.shouldSkipAsset(owner, asset, checksum, fullPath) {
				summary.Skipped++
				continue
			}
		}
		if err := ensureDir(ctx, writer, dirCache, path.Dir(fullPath)); err != nil {
			return summary, err
		}
		req := writeFileRequest{
			Path:        fullPath,
			Content:     bytes.NewReader(data),
			Size:        int64(len(data)),
			Category:    categoryAsset,
			ContentType: detectAssetContentType(destRel),
			Checksum:    checksum,
			Metadata: map[string]string{
				"theme_id": owner,
				"asset":    asset,
			},
		}
		if err := writer.WriteFile(ctx, req); err != nil {
			return summary, err
		}
		summary.Built++
		if manifest != nil {
			manifest.setAsset(manifestAsset{
				Key:      manifest.assetKey(owner, asset),
				Owner:    owner,
				Source:   asset,
				Output:   fullPath,
				Checksum: checksum,
				Size:     int64(len(data)),
				CopiedAt: s.now(),
			})
		}
	}
	return summary, nil
}

// copyContentAssets mirrors non-markdown files from the content directory into
// the output tree so image and download links keep working.
func (s *service) copyContentAssets(
	ctx context.Context,
	writer artifactWriter,
	manifest *buildManifest,
	baseDir string,
	assetKeys map[string]struct{},
) (assetCopySummary, error) {
	summary := assetCopySummary{}
	if s.deps.Content == nil {
		return summary, nil
	}
	names, err := s.deps.Content.List(ctx)
	if err != nil {
		return summary, err
	}
	dirCache := map[string]struct{}{}
	if baseDir != "" {
		dirCache[baseDir] = struct{}{}
		if err := writer.EnsureDir(ctx, baseDir); err != nil {
			return summary, err
		}
	}
	for _, name := range names {
		rel := strings.TrimLeft(strings.TrimSpace(name), "/")
		if rel == "" {
			continue
		}
		reader, err := s.deps.Content.Open(ctx, name)
		if err != nil {
			return summary, err
		}
		data, err := io.ReadAll(reader)
		_ = reader.Close()
		if err != nil {
			return summary, err
		}
		fullPath := joinOutputPath(baseDir, rel)
		checksum := computeHash(data)
		if assetKeys != nil {
			assetKeys[manifest.assetKey(contentAssetOwner, rel)] = struct{}{}
		}
		if manifest != nil && s.cfg.Incremental {
			if manifest.shouldSkipAsset(contentAssetOwner, rel, checksum, fullPath) {
				summary.Skipped++
				continue
			}
		}
		if err := ensureDir(ctx, writer, dirCache, path.Dir(fullPath)); err != nil {
			return summary, err
		}
		req := writeFileRequest{
			Path:        fullPath,
			Content:     bytes.NewReader(data),
			Size:        int64(len(data)),
			Category:    categoryAsset,
			ContentType: detectAssetContentType(rel),
			Checksum:    checksum,
			Metadata: map[string]string{
				"source": "content",
				"asset":  rel,
			},
		}
		if err := writer.WriteFile(ctx, req); err != nil {
			return summary, err
		}
		summary.Built++
		if manifest != nil {
			manifest.setAsset(manifestAsset{
				Key:      manifest.assetKey(contentAssetOwner, rel),
				Owner:    contentAssetOwner,
				Source:   rel,
				Output:   fullPath,
				Checksum: checksum,
				Size:     int64(len(data)),
				CopiedAt: s.now(),
			})
		}
	}
	return summary, nil
}

func (s *service) mergeRenderedForSitemap(
	buildCtx *BuildContext,
	rendered []RenderedPage,
	manifest *buildManifest,
) []RenderedPage {
	if buildCtx == nil || manifest == nil {
		return append([]RenderedPage(nil), rendered...)
	}

	renderedByKey := make(map[string]RenderedPage, len(rendered))
	for _, page := range rendered {
		renderedByKey[manifest.pageKey(page.Route)] = page
	}

	sitemap := make([]RenderedPage, 0, len(buildCtx.Pages))
	for _, data := range buildCtx.Pages {
		key := manifest.pageKey(data.Route)
		if page, ok := renderedByKey[key]; ok {
			sitemap = append(sitemap, page)
			continue
		}
		if entry, ok := manifest.lookupPage(data.Route); ok {
			sitemap = append(sitemap, RenderedPage{
				Kind:     entry.Kind,
				Slug:     entry.Slug,
				Locale:   entry.Locale,
				Route:    entry.Route,
				Output:   entry.Output,
				Template: entry.Template,
				Metadata: DependencyMetadata{
					Hash:         entry.Hash,
					LastModified: entry.LastModified,
				},
				Checksum: entry.Checksum,
			})
			continue
		}

		templateName := ""
		if data.Template != nil {
			templateName = strings.TrimSpace(data.Template.TemplatePath)
			if templateName == "" {
				templateName = strings.TrimSpace(data.Template.Slug)
			}
		}
		sitemap = append(sitemap, RenderedPage{
			Kind:     data.Kind,
			Slug:     data.Slug(),
			Locale:   data.Locale.Code,
			Route:    data.Route,
			Template: templateName,
			Metadata: data.Metadata,
		})
	}
	return sitemap
}

func (s *service) loadManifest(ctx context.Context) (*buildManifest, error) {
	if s.deps.Storage == nil {
		return newBuildManifest(), nil
	}
	target := s.manifestTargetPath()
	if strings.TrimSpace(target) == "" {
		return newBuildManifest(), nil
	}
	rows, err := s.deps.Storage.Query(ctx, storageOpRead, target)
	if err != nil {
		return nil, fmt.Errorf("generator: read manifest: %w", err)
	}
	if rows == nil {
		return newBuildManifest(), nil
	}
	defer rows.Close()
	if !rows.Next() {
		return newBuildManifest(), nil
	}
	var data []byte
	if err := rows.Scan(&data); err != nil {
		return nil, fmt.Errorf("generator: scan manifest: %w", err)
	}
	return parseManifest(data)
}

func (s *service) manifestTargetPath() string {
	base := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	return joinOutputPath(base, manifestFileName)
}

func (s *service) persistManifest(ctx context.Context, writer artifactWriter, manifest *buildManifest) error {
	if manifest == nil {
		return nil
	}
	data, err := manifest.marshal()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	target := s.manifestTargetPath()
	if strings.TrimSpace(target) == "" {
		return nil
	}
	dirCache := map[string]struct{}{}
	if err := ensureDir(ctx, writer, dirCache, path.Dir(target)); err != nil {
		return err
	}
	metadata := map[string]string{
		"version": strconv.Itoa(manifest.Version),
	}
	if !manifest.GeneratedAt.IsZero() {
		metadata["generated_at"] = manifest.GeneratedAt.UTC().Format(time.RFC3339)
	}
	req := writeFileRequest{
		Path:        target,
		Content:     bytes.NewReader(data),
		Size:        int64(len(data)),
		Category:    categoryManifest,
		ContentType: "application/json",
		Checksum:    computeHash(data),
		Metadata:    metadata,
	}
	return writer.WriteFile(ctx, req)
}

func (s *service) writeSitemap(
	ctx context.Context,
	writer artifactWriter,
	siteMeta SiteMetadata,
	buildCtx *BuildContext,
	pages []RenderedPage,
) error {
	content := buildSitemap(siteMeta.BaseURL, pages, buildCtx.GeneratedAt)
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	fullPath := joinOutputPath(baseDir, "sitemap.xml")
	if err := ensureDir(ctx, writer, map[string]struct{}{}, path.Dir(fullPath)); err != nil {
		return err
	}
	checksum := computeHashFromString(content)
	req := writeFileRequest{
		Path:        fullPath,
		Content:     strings.NewReader(content),
		Size:        int64(len(content)),
		Category:    categorySitemap,
		ContentType: "application/xml",
		Checksum:    checksum,
		Metadata: map[string]string{
			"generated_at": buildCtx.GeneratedAt.UTC().Format(time.RFC3339),
		},
	}
	return writer.WriteFile(ctx, req)
}

func (s *service) writeRobots(
	ctx context.Context,
	writer artifactWriter,
	siteMeta SiteMetadata,
) error {
	content := buildRobots(siteMeta.BaseURL, s.cfg.GenerateSitemap)
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	fullPath := joinOutputPath(baseDir, "robots.txt")
	if err := ensureDir(ctx, writer, map[string]struct{}{}, path.Dir(fullPath)); err != nil {
		return err
	}
	checksum := computeHashFromString(content)
	req := writeFileRequest{
		Path:        fullPath,
		Content:     strings.NewReader(content),
		Size:        int64(len(content)),
		Category:    categoryRobots,
		ContentType: "text/plain; charset=utf-8",
		Checksum:    checksum,
		Metadata: map[string]string{
			"generated_at": s.now().UTC().Format(time.RFC3339),
		},
	}
	return writer.WriteFile(ctx, req)
}

func (s *service) effectiveWorkerCount(localeCount int) int {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}
	if localeCount > 0 && workers > localeCount {
		return localeCount
	}
	return workers
}

func groupPagesByLocale(pages []*PageData) map[string][]*PageData {
	grouped := make(map[string][]*PageData, len(pages))
	for _, page := range pages {
		if page == nil {
			continue
		}
		code := page.Locale.Code
		grouped[code] = append(grouped[code], page)
	}
	return grouped
}

func ensureDir(ctx context.Context, writer artifactWriter, cache map[string]struct{}, dir string) error {
	dir = strings.Trim(dir, " ")
	if dir == "" || dir == "." {
		return nil
	}
	if cache != nil {
		if _, ok := cache[dir]; ok {
			return nil
		}
		cache[dir] = struct{}{}
	}
	return writer.EnsureDir(ctx, dir)
}

func joinOutputPath(base string, rel string) string {
	if strings.TrimSpace(base) == "" {
		return strings.TrimLeft(rel, "/")
	}
	return path.Join(strings.Trim(base, "/"), rel)
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func computeHashFromString(content string) string {
	return computeHash([]byte(content))
}

func (disabledService) Build(context.Context, BuildOptions) (*BuildResult, error) {
	return nil, ErrServiceDisabled
}

func (disabledService) Clean(context.Context) error {
	return ErrServiceDisabled
}
