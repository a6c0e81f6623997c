package themes

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Theme captures a complete site design: layout templates, static assets,
// and the design tokens the build pipeline turns into CSS variables.
type Theme struct {
	bun.BaseModel `bun:"table:themes,alias:t"`

	ID          uuid.UUID   `bun:",pk,type:uuid" json:"id"`
	Name        string      `bun:"name,notnull,unique" json:"name"`
	Description *string     `bun:"description" json:"description,omitempty"`
	Version     string      `bun:"version,notnull" json:"version"`
	Author      *string     `bun:"author" json:"author,omitempty"`
	IsActive    bool        `bun:"is_active,notnull,default:false" json:"is_active"`
	ThemePath   string      `bun:"theme_path,notnull" json:"theme_path"`
	Config      ThemeConfig `bun:"config,type:jsonb" json:"config"`
	CreatedAt   time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time   `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`

	Templates []*Template `bun:"rel:has-many,join:id=theme_id" json:"templates,omitempty"`
}

// Template is a layout surface within a theme. The slug doubles as the
// lookup key the build pipeline uses to pick a layout for a page kind
// ("post", "index", "tag").
type Template struct {
	bun.BaseModel `bun:"table:templates,alias:tp"`

	ID           uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	ThemeID      uuid.UUID      `bun:"theme_id,notnull,type:uuid" json:"theme_id"`
	Name         string         `bun:"name,notnull" json:"name"`
	Slug         string         `bun:"slug,notnull" json:"slug"`
	Description  *string        `bun:"description" json:"description,omitempty"`
	TemplatePath string         `bun:"template_path,notnull" json:"template_path"`
	Partials     []string       `bun:"partials,type:jsonb" json:"partials,omitempty"`
	Metadata     map[string]any `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
	CreatedAt    time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`

	Theme *Theme `bun:"rel:belongs-to,join:theme_id=id" json:"theme,omitempty"`
}

// ThemeConfig records manifest level details parsed from theme descriptors.
type ThemeConfig struct {
	Assets   *ThemeAssets      `json:"assets,omitempty"`
	Tokens   map[string]string `json:"tokens,omitempty"`
	Metadata map[string]any    `json:"metadata,omitempty"`
}

// ThemeAssets references static files shipped with the theme, relative to
// the theme directory (or BasePath within it when set).
type ThemeAssets struct {
	BasePath *string  `json:"base_path,omitempty"`
	Styles   []string `json:"styles,omitempty"`
	Scripts  []string `json:"scripts,omitempty"`
	Images   []string `json:"images,omitempty"`
}
