package themes

import (
	"context"
	"fmt"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ThemeRepository is the storage surface the theme service builds on. The
// memory implementation backs tests and handle-free hosts; the bun
// implementation persists themes in the site database.
type ThemeRepository interface {
	Create(ctx context.Context, theme *Theme) (*Theme, error)
	Update(ctx context.Context, theme *Theme) (*Theme, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Theme, error)
	GetByName(ctx context.Context, name string) (*Theme, error)
	List(ctx context.Context) ([]*Theme, error)
	ListActive(ctx context.Context) ([]*Theme, error)
}

// TemplateRepository stores the layout templates belonging to themes. Slug
// lookups are scoped to a theme because the generator resolves templates by
// page kind within the active theme only.
type TemplateRepository interface {
	Create(ctx context.Context, template *Template) (*Template, error)
	Update(ctx context.Context, template *Template) (*Template, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Template, error)
	GetBySlug(ctx context.Context, themeID uuid.UUID, slug string) (*Template, error)
	ListByTheme(ctx context.Context, themeID uuid.UUID) ([]*Template, error)
	ListAll(ctx context.Context) ([]*Template, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// NotFoundError reports a theme or template lookup that matched nothing.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// NewThemeRepository creates a repository for themes.
func NewThemeRepository(db *bun.DB) repository.Repository[*Theme] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Theme]{
		NewRecord:          func() *Theme { return &Theme{} },
		GetID:              func(theme *Theme) uuid.UUID { return theme.ID },
		SetID:              func(theme *Theme, id uuid.UUID) { theme.ID = id },
		GetIdentifier:      func() string { return "name" },
		GetIdentifierValue: func(theme *Theme) string { return theme.Name },
	})
}

// NewTemplateRepository creates a repository for templates.
func NewTemplateRepository(db *bun.DB) repository.Repository[*Template] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Template]{
		NewRecord:          func() *Template { return &Template{} },
		GetID:              func(tpl *Template) uuid.UUID { return tpl.ID },
		SetID:              func(tpl *Template, id uuid.UUID) { tpl.ID = id },
		GetIdentifier:      func() string { return "slug" },
		GetIdentifierValue: func(tpl *Template) string { return tpl.Slug },
	})
}
