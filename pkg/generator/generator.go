// Package generator exposes the static build API for go-press hosts.
// Use NewService with Config and Dependencies to render posts, listings,
// feeds, and sitemaps into a deployable output tree.
package generator

import (
	"context"

	"github.com/goliatone/go-press/internal/adapters/filesystem"
	"github.com/goliatone/go-press/internal/adapters/gotemplate"
	storageadapter "github.com/goliatone/go-press/internal/adapters/storage"
	internal "github.com/goliatone/go-press/internal/generator"
	"github.com/goliatone/go-press/pkg/interfaces"
	"github.com/uptrace/bun"
)

type (
	Service              = internal.Service
	Config               = internal.Config
	ThemingConfig        = internal.ThemingConfig
	BuildOptions         = internal.BuildOptions
	BuildResult          = internal.BuildResult
	RenderedPage         = internal.RenderedPage
	RenderDiagnostic     = internal.RenderDiagnostic
	Dependencies         = internal.Dependencies
	Hooks                = internal.Hooks
	LocaleLookup         = internal.LocaleLookup
	RouteResolver        = internal.RouteResolver
	LocaleSpec           = internal.LocaleSpec
	PostRef              = internal.PostRef
	Pagination           = internal.Pagination
	DependencyMetadata   = internal.DependencyMetadata
	AssetResolver        = internal.AssetResolver
	NoOpAssetResolver    = internal.NoOpAssetResolver
	DirAssetResolver     = internal.DirAssetResolver
	ContentSource        = internal.ContentSource
	DirContentSource     = internal.DirContentSource
	TemplateContext      = internal.TemplateContext
	SiteMetadata         = internal.SiteMetadata
	BuildMetadata        = internal.BuildMetadata
	PageRenderingContext = internal.PageRenderingContext
	ThemeContext         = internal.ThemeContext
	TemplateHelpers      = internal.TemplateHelpers
)

var ErrServiceDisabled = internal.ErrServiceDisabled

// NewService wires a static site generator with the supplied configuration and dependencies.
func NewService(cfg Config, deps Dependencies) Service {
	return internal.NewService(cfg, deps)
}

// NewDisabledService returns a Service that fails all operations with ErrServiceDisabled.
func NewDisabledService() Service {
	return internal.NewDisabledService()
}

// NewGoTemplateRenderer returns a TemplateRenderer backed by html/template.
// Templates under baseDir resolve by their slash-relative path.
func NewGoTemplateRenderer(baseDir string) (interfaces.TemplateRenderer, error) {
	return gotemplate.New(baseDir)
}

// NewFilesystemStorage returns a StorageProvider that writes build artifacts
// beneath root, trimming the configured output dir prefix from paths.
func NewFilesystemStorage(root, outputDir string) interfaces.StorageProvider {
	return filesystem.NewStorage(root, outputDir)
}

// NewBunStorage returns a StorageProvider that persists build artifacts in
// the press_artifacts table of db, for hosts serving a site out of SQL.
// Call EnsureArtifactSchema once before the first build on a fresh database.
func NewBunStorage(db *bun.DB, outputDir string) interfaces.StorageProvider {
	return storageadapter.NewBunProvider(db, outputDir)
}

// EnsureArtifactSchema creates the press_artifacts table when missing.
func EnsureArtifactSchema(ctx context.Context, db *bun.DB) error {
	return storageadapter.EnsureArtifactSchema(ctx, db)
}

// NewNoOpStorage returns a StorageProvider that accepts every operation and
// stores nothing.
func NewNoOpStorage() interfaces.StorageProvider {
	return storageadapter.NewNoOpProvider()
}
