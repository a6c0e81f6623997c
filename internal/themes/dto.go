package themes

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/google/uuid"
)

type RegisterThemeInput struct {
	Name        string
	Description *string
	Version     string
	Author      *string
	ThemePath   string
	Config      ThemeConfig
	Activate    bool
}

type RegisterTemplateInput struct {
	ThemeID      uuid.UUID
	Name         string
	Slug         string
	Description  *string
	TemplatePath string
	Partials     []string
	Metadata     map[string]any
}

type UpdateTemplateInput struct {
	TemplateID   uuid.UUID
	Name         *string
	Description  *string
	TemplatePath *string
	Partials     []string
	Metadata     map[string]any
}

var (
	// ErrTemplateThemeRequired indicates the theme ID is missing.
	ErrTemplateThemeRequired = errors.New("themes: theme id required")
	// ErrTemplateNameRequired indicates the template name is missing.
	ErrTemplateNameRequired = errors.New("themes: template name required")
	// ErrTemplateSlugRequired indicates the slug is missing.
	ErrTemplateSlugRequired = errors.New("themes: template slug required")
	// ErrTemplatePathRequired indicates the file path is missing.
	ErrTemplatePathRequired = errors.New("themes: template path required")
	// ErrTemplatePathInvalid indicates the path escapes the theme directory.
	ErrTemplatePathInvalid = errors.New("themes: template path must stay inside the theme directory")
	// ErrTemplateSlugConflict indicates a duplicate slug within a theme.
	ErrTemplateSlugConflict = errors.New("themes: template slug already exists for theme")
)

// ValidateRegisterTemplate ensures new template inputs are well formed.
func ValidateRegisterTemplate(ctx context.Context, repo TemplateRepository, input RegisterTemplateInput) error {
	if input.ThemeID == uuid.Nil {
		return ErrTemplateThemeRequired
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return ErrTemplateNameRequired
	}
	slug := canonicalSlug(input.Slug)
	if slug == "" {
		return ErrTemplateSlugRequired
	}
	if err := validateTemplatePath(input.TemplatePath); err != nil {
		return err
	}

	if repo != nil {
		if _, err := repo.GetBySlug(ctx, input.ThemeID, slug); err == nil {
			return ErrTemplateSlugConflict
		} else {
			var nf *NotFoundError
			if !errors.As(err, &nf) && err != nil {
				return err
			}
		}
	}
	return nil
}

// PrepareTemplateRecord normalises register template input for persistence.
func PrepareTemplateRecord(input RegisterTemplateInput, idGenerator func() uuid.UUID) *Template {
	record := &Template{
		ID:           uuid.New(),
		ThemeID:      input.ThemeID,
		Name:         strings.TrimSpace(input.Name),
		Slug:         canonicalSlug(input.Slug),
		Description:  cloneString(input.Description),
		TemplatePath: strings.TrimSpace(input.TemplatePath),
		Partials:     normalizePartials(input.Partials),
		Metadata:     deepCloneMap(input.Metadata),
	}
	if idGenerator != nil {
		record.ID = idGenerator()
	}
	return record
}

// ValidateUpdateTemplate ensures updates preserve invariants.
func ValidateUpdateTemplate(input UpdateTemplateInput) error {
	if input.TemplateID == uuid.Nil {
		return &NotFoundError{Resource: "template", Key: ""}
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return ErrTemplateNameRequired
	}
	if input.TemplatePath != nil {
		if err := validateTemplatePath(*input.TemplatePath); err != nil {
			return err
		}
	}
	return nil
}

func validateTemplatePath(value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ErrTemplatePathRequired
	}
	if !validRelativePath(trimmed) {
		return ErrTemplatePathInvalid
	}
	return nil
}

// validRelativePath accepts slash-separated paths that resolve inside the
// theme directory. Absolute paths and ".." traversal are rejected because
// template and asset paths are joined onto ThemePath at build time.
func validRelativePath(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || strings.HasPrefix(trimmed, "/") {
		return false
	}
	clean := path.Clean(trimmed)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return false
	}
	return true
}

func normalizePartials(src []string) []string {
	if len(src) == 0 {
		return nil
	}
	out := make([]string, 0, len(src))
	seen := make(map[string]struct{}, len(src))
	for _, name := range src {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func canonicalSlug(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
