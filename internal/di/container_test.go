package di_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/goliatone/go-press/internal/di"
	ditesting "github.com/goliatone/go-press/internal/di/testing"
	"github.com/goliatone/go-press/internal/generator"
	"github.com/goliatone/go-press/internal/integrity"
	"github.com/goliatone/go-press/internal/markdown"
	"github.com/goliatone/go-press/internal/posts"
	"github.com/goliatone/go-press/internal/runtimeconfig"
	"github.com/goliatone/go-press/pkg/interfaces"
)

func testConfig() runtimeconfig.Config {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Content.Dir = "testdata/content"
	cfg.Generator.OutputDir = "dist"
	return cfg
}

func TestNewContainer_DefaultsToMemoryRepositories(t *testing.T) {
	ctx := context.Background()

	container, err := di.NewContainer(testConfig())
	if err != nil {
		t.Fatalf("new container: %v", err)
	}

	if container.PostService() == nil {
		t.Fatalf("expected post service")
	}
	if container.ThemeService() == nil {
		t.Fatalf("expected theme service")
	}
	if container.MarkdownService() == nil {
		t.Fatalf("expected markdown service")
	}
	if container.GeneratorService() == nil {
		t.Fatalf("expected generator service")
	}
	if container.IntegrityService() == nil {
		t.Fatalf("expected integrity service")
	}
	if container.RouteResolver() == nil {
		t.Fatalf("expected route resolver")
	}

	created, err := container.PostService().Create(ctx, posts.CreatePostRequest{
		Slug:   "hello-world",
		Status: "published",
		Translations: []posts.PostTranslationInput{
			{Locale: "en", Title: "Hello World", Body: "# Hello"},
		},
	})
	if err != nil {
		t.Fatalf("create post through container service: %v", err)
	}

	fetched, err := container.PostService().GetBySlug(ctx, "hello-world")
	if err != nil {
		t.Fatalf("get post by slug: %v", err)
	}
	if fetched.ID != created.ID {
		t.Fatalf("expected round trip through the memory repository")
	}
}

func TestNewContainer_InvalidConfigRejected(t *testing.T) {
	cfg := testConfig()
	cfg.Content.DefaultLocale = ""

	if _, err := di.NewContainer(cfg); !errors.Is(err, runtimeconfig.ErrDefaultLocaleRequired) {
		t.Fatalf("expected config validation error, got %v", err)
	}
}

func TestNewContainer_SeedsConfiguredLocales(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig()
	cfg.Content.DefaultLocale = "en"
	cfg.Content.Locales = []string{"EN", "es", "en"}

	container, err := di.NewContainer(cfg)
	if err != nil {
		t.Fatalf("new container: %v", err)
	}

	en, err := container.LocaleRepository().GetByCode(ctx, "en")
	if err != nil {
		t.Fatalf("default locale not seeded: %v", err)
	}
	if !en.IsDefault {
		t.Fatalf("expected en to carry the default flag")
	}

	es, err := container.LocaleRepository().GetByCode(ctx, "es")
	if err != nil {
		t.Fatalf("secondary locale not seeded: %v", err)
	}
	if es.IsDefault {
		t.Fatalf("es must not be the default locale")
	}
	if es.ID == en.ID {
		t.Fatalf("locales must receive distinct deterministic IDs")
	}
}

func TestNewContainer_BunStorageRequiresHandleOrDSN(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Provider = "bun"

	if _, err := di.NewContainer(cfg); !errors.Is(err, di.ErrBunDBRequired) {
		t.Fatalf("expected ErrBunDBRequired, got %v", err)
	}
}

func TestNewContainer_OpensBunFromConfiguredDSN(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig()
	cfg.Storage.Provider = "bun"
	cfg.Storage.Driver = "sqlite"
	cfg.Storage.DSN = "file:pressdicontainer?mode=memory&cache=shared"

	container, err := di.NewContainer(cfg, di.WithMigrationsFS(os.DirFS("../../data/sql/migrations")))
	if err != nil {
		t.Fatalf("new container: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })

	if container.DB() == nil {
		t.Fatalf("expected container to expose the handle it opened")
	}

	created, err := container.PostService().Create(ctx, posts.CreatePostRequest{
		Slug:   "opened-from-dsn",
		Status: "published",
		Translations: []posts.PostTranslationInput{
			{Locale: "en", Title: "Opened From DSN", Body: "# DSN"},
		},
	})
	if err != nil {
		t.Fatalf("create post through bun repositories: %v", err)
	}

	fetched, err := container.PostService().GetBySlug(ctx, "opened-from-dsn")
	if err != nil {
		t.Fatalf("get post by slug: %v", err)
	}
	if fetched.ID != created.ID {
		t.Fatalf("expected round trip through the opened database")
	}

	if err := container.Close(); err != nil {
		t.Fatalf("close container: %v", err)
	}
	if container.DB() != nil {
		t.Fatalf("expected handle released after close")
	}
}

func TestNewContainer_FeatureTogglesDisableServices(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig()
	cfg.Features.Markdown = false
	cfg.Features.Generator = false
	cfg.Features.Integrity = false
	cfg.Features.Server = false
	cfg.Features.Themes = false
	cfg.Server.Watch.Enabled = false

	container, err := di.NewContainer(cfg)
	if err != nil {
		t.Fatalf("new container: %v", err)
	}

	if _, err := container.MarkdownService().Load(ctx, "post.md", interfaces.LoadOptions{}); !errors.Is(err, markdown.ErrServiceDisabled) {
		t.Fatalf("expected disabled markdown service, got %v", err)
	}
	if _, err := container.GeneratorService().Build(ctx, generator.BuildOptions{}); !errors.Is(err, generator.ErrServiceDisabled) {
		t.Fatalf("expected disabled generator service, got %v", err)
	}
	if _, err := container.IntegrityService().Check(ctx, integrity.Options{}); !errors.Is(err, integrity.ErrServiceDisabled) {
		t.Fatalf("expected disabled integrity service, got %v", err)
	}
	if _, err := container.PreviewServer(); !errors.Is(err, di.ErrServerFeatureDisabled) {
		t.Fatalf("expected preview server feature error, got %v", err)
	}

	// Theme registration is rejected by the noop service.
	if _, err := container.ThemeService().ListSummaries(ctx); err == nil {
		t.Fatalf("expected noop theme service to reject operations")
	}
}

func TestNewContainer_PreviewServerFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Addr = "127.0.0.1:0"
	// The server stats the output dir on construction, so it has to exist.
	cfg.Generator.OutputDir = t.TempDir()

	container, err := di.NewContainer(cfg)
	if err != nil {
		t.Fatalf("new container: %v", err)
	}

	srv, err := container.PreviewServer()
	if err != nil {
		t.Fatalf("preview server: %v", err)
	}
	if srv == nil {
		t.Fatalf("expected preview server instance")
	}
}

func TestNewContainer_GeneratorStorageOverride(t *testing.T) {
	cfg := testConfig()

	memStorage := ditesting.NewMemoryStorage(cfg.Generator.OutputDir)
	container, err := di.NewContainer(cfg, di.WithGeneratorStorage(memStorage))
	if err != nil {
		t.Fatalf("new container: %v", err)
	}
	if container.GeneratorStorage() != memStorage {
		t.Fatalf("expected supplied storage to win over the filesystem default")
	}
}

func TestNewContainer_GeneratorStorageDefaultsToFilesystem(t *testing.T) {
	container, err := di.NewContainer(testConfig())
	if err != nil {
		t.Fatalf("new container: %v", err)
	}
	if container.GeneratorStorage() == nil {
		t.Fatalf("expected filesystem storage for a configured output dir")
	}
}

func TestNewGeneratorContainer_WiresMemoryStorage(t *testing.T) {
	container, memStorage, err := ditesting.NewGeneratorContainer(testConfig())
	if err != nil {
		t.Fatalf("generator container: %v", err)
	}
	if container.GeneratorStorage() != memStorage {
		t.Fatalf("expected container to use the returned memory storage")
	}
}
