package themes_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-press/internal/themes"
	"github.com/goliatone/go-press/pkg/testsupport"
	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func TestThemeRepositories_WithBunAndCache(t *testing.T) {
	ctx := context.Background()

	sqlDB, err := testsupport.NewSQLiteMemoryDB()
	if err != nil {
		t.Fatalf("new sqlite db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	bunDB := bun.NewDB(sqlDB, sqlitedialect.New())
	bunDB.SetMaxOpenConns(1)

	registerThemeModels(t, bunDB)

	cacheCfg := repocache.DefaultConfig()
	cacheCfg.TTL = time.Minute
	cacheSvc, err := repocache.NewCacheService(cacheCfg)
	if err != nil {
		t.Fatalf("cache service: %v", err)
	}
	keySerializer := repocache.NewDefaultKeySerializer()

	now := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	themeRepo := themes.NewBunThemeRepositoryWithCache(bunDB, cacheSvc, keySerializer)
	templateRepo := themes.NewBunTemplateRepositoryWithCache(bunDB, cacheSvc, keySerializer)
	svc := themes.NewService(
		themeRepo,
		templateRepo,
		themes.WithThemeIDGenerator(sequentialUUIDs(
			"00000000-0000-0000-0000-00000000a301",
			"00000000-0000-0000-0000-00000000b401",
		)),
		themes.WithNow(func() time.Time { return now }),
	)

	basePath := "static"
	themeInput := themes.RegisterThemeInput{
		Name:      "lumen",
		Version:   "1.0.0",
		ThemePath: "themes/lumen",
		Config: themes.ThemeConfig{
			Assets: &themes.ThemeAssets{
				BasePath: &basePath,
				Styles:   []string{"css/site.css"},
				Scripts:  []string{"js/highlight.js"},
			},
			Tokens: map[string]string{"color-accent": "#2f6f4f"},
		},
	}
	theme, err := svc.RegisterTheme(ctx, themeInput)
	if err != nil {
		t.Fatalf("register theme: %v", err)
	}

	template, err := svc.RegisterTemplate(ctx, themes.RegisterTemplateInput{
		ThemeID:      theme.ID,
		Name:         "Post",
		Slug:         "post",
		TemplatePath: "templates/post.html.tmpl",
		Partials:     []string{"header", "footer"},
	})
	if err != nil {
		t.Fatalf("register template: %v", err)
	}

	if _, err := svc.ActivateTheme(ctx, theme.ID); err != nil {
		t.Fatalf("activate theme: %v", err)
	}

	if _, err := svc.GetTheme(ctx, theme.ID); err != nil {
		t.Fatalf("first get theme: %v", err)
	}
	if _, err := svc.GetTheme(ctx, theme.ID); err != nil {
		t.Fatalf("cached get theme: %v", err)
	}

	if _, err := svc.GetTemplate(ctx, template.ID); err != nil {
		t.Fatalf("first get template: %v", err)
	}
	if _, err := svc.GetTemplate(ctx, template.ID); err != nil {
		t.Fatalf("cached get template: %v", err)
	}

	bySlug, err := svc.GetTemplateBySlug(ctx, theme.ID, "post")
	if err != nil {
		t.Fatalf("get template by slug: %v", err)
	}
	if bySlug.ID != template.ID {
		t.Fatalf("expected template %s, got %s", template.ID, bySlug.ID)
	}
	if len(bySlug.Partials) != 2 {
		t.Fatalf("expected partials to round-trip, got %#v", bySlug.Partials)
	}

	if _, err := svc.GetTemplateBySlug(ctx, theme.ID, "missing"); !errors.Is(err, themes.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}

	// Each slug resolves to its own row even after another slug was fetched.
	indexTemplate, err := svc.RegisterTemplate(ctx, themes.RegisterTemplateInput{
		ThemeID:      theme.ID,
		Name:         "Index",
		Slug:         "index",
		TemplatePath: "templates/index.html.tmpl",
	})
	if err != nil {
		t.Fatalf("register index template: %v", err)
	}
	byIndexSlug, err := svc.GetTemplateBySlug(ctx, theme.ID, "index")
	if err != nil {
		t.Fatalf("get index template by slug: %v", err)
	}
	if byIndexSlug.ID != indexTemplate.ID || byIndexSlug.Slug != "index" {
		t.Fatalf("expected index template %s, got %s (%s)", indexTemplate.ID, byIndexSlug.ID, byIndexSlug.Slug)
	}
	byPostSlug, err := svc.GetTemplateBySlug(ctx, theme.ID, "post")
	if err != nil {
		t.Fatalf("get post template by slug again: %v", err)
	}
	if byPostSlug.ID != template.ID || byPostSlug.Slug != "post" {
		t.Fatalf("expected post template %s, got %s (%s)", template.ID, byPostSlug.ID, byPostSlug.Slug)
	}

	newPath := "templates/post_v2.html.tmpl"
	if _, err := svc.UpdateTemplate(ctx, themes.UpdateTemplateInput{
		TemplateID:   template.ID,
		TemplatePath: &newPath,
	}); err != nil {
		t.Fatalf("update template: %v", err)
	}

	updated, err := svc.GetTemplate(ctx, template.ID)
	if err != nil {
		t.Fatalf("get updated template: %v", err)
	}
	if updated.TemplatePath != newPath {
		t.Fatalf("expected template path %q, got %q", newPath, updated.TemplatePath)
	}

	active, err := svc.ActiveTheme(ctx)
	if err != nil {
		t.Fatalf("active theme: %v", err)
	}
	if active.ID != theme.ID {
		t.Fatalf("expected active theme %s, got %s", theme.ID, active.ID)
	}

	summaries, err := svc.ListSummaries(ctx)
	if err != nil {
		t.Fatalf("list summaries: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected one theme summary, got %d", len(summaries))
	}
	if len(summaries[0].Assets.Styles) != 1 || summaries[0].Assets.Styles[0] != "static/css/site.css" {
		t.Fatalf("expected resolved styles, got %#v", summaries[0].Assets.Styles)
	}
	if len(summaries[0].Assets.Scripts) != 1 || summaries[0].Assets.Scripts[0] != "static/js/highlight.js" {
		t.Fatalf("expected resolved scripts, got %#v", summaries[0].Assets.Scripts)
	}
}

func registerThemeModels(t *testing.T, db *bun.DB) {
	t.Helper()

	ctx := context.Background()
	models := []any{
		(*themes.Theme)(nil),
		(*themes.Template)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			t.Fatalf("create table %T: %v", model, err)
		}
	}
}

func sequentialUUIDs(values ...string) themes.IDGenerator {
	ids := make([]uuid.UUID, len(values))
	for i, value := range values {
		ids[i] = uuid.MustParse(value)
	}
	var idx int
	return func() uuid.UUID {
		if idx >= len(ids) {
			return uuid.New()
		}
		id := ids[idx]
		idx++
		return id
	}
}
