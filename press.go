package press

import (
	"github.com/goliatone/go-press/internal/di"
	"github.com/goliatone/go-press/internal/generator"
	"github.com/goliatone/go-press/internal/integrity"
	"github.com/goliatone/go-press/internal/posts"
	"github.com/goliatone/go-press/internal/routes"
	"github.com/goliatone/go-press/internal/server"
	"github.com/goliatone/go-press/internal/themes"
	"github.com/goliatone/go-press/pkg/interfaces"
)

// PostService exports the post service contract for consumers of the press package.
type PostService = posts.Service

// ThemeService exports the themes service contract.
type ThemeService = themes.Service

// MarkdownService exports the markdown ingestion contract.
type MarkdownService = interfaces.MarkdownService

// GeneratorService exports the static site generator contract.
type GeneratorService = generator.Service

// IntegrityService exports the site integrity checker contract.
type IntegrityService = integrity.Service

// RouteResolver exports the permalink resolver used across build and preview.
type RouteResolver = routes.Resolver

// PreviewServer exports the local preview server type.
type PreviewServer = server.Server

// Module represents the top level press runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a press module using the provided configuration and optional DI overrides.
// The embedded SQL migrations ride along so a bun storage config with a DSN
// yields a ready database without a separate provisioning step.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	options := append([]di.Option{di.WithMigrationsFS(migrationsFS)}, opts...)
	container, err := di.NewContainer(cfg, options...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Close releases resources the module opened itself, such as a database
// created from Storage.DSN. Modules built around host supplied handles close
// nothing.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close()
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Posts returns the configured post service.
func (m *Module) Posts() PostService {
	return m.container.PostService()
}

// Themes returns the configured theme service.
func (m *Module) Themes() ThemeService {
	return m.container.ThemeService()
}

// Markdown returns the markdown service when configured.
func (m *Module) Markdown() MarkdownService {
	return m.container.MarkdownService()
}

// Generator returns the configured generator service.
func (m *Module) Generator() GeneratorService {
	return m.container.GeneratorService()
}

// Integrity returns the configured integrity checker.
func (m *Module) Integrity() IntegrityService {
	return m.container.IntegrityService()
}

// Routes returns the permalink resolver for the configured site layout.
func (m *Module) Routes() *RouteResolver {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.RouteResolver()
}

// Locales returns the public locale lookup service.
func (m *Module) Locales() LocaleService {
	return newLocaleService(m)
}

// PreviewServer builds a preview server over the generated output tree.
func (m *Module) PreviewServer() (*PreviewServer, error) {
	if m == nil || m.container == nil {
		return nil, errNilModule
	}
	return m.container.PreviewServer()
}
