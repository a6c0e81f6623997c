package posts

import (
	"strings"
	"time"

	"github.com/goliatone/go-press/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Locale represents the languages a site publishes in.
type Locale struct {
	bun.BaseModel `bun:"table:locales,alias:l"`

	ID         uuid.UUID      `bun:",pk,type:uuid"         json:"id"`
	Code       string         `bun:"code,notnull"          json:"code"`
	Display    string         `bun:"display_name,notnull"  json:"display_name"`
	NativeName *string        `bun:"native_name"           json:"native_name,omitempty"`
	IsActive   bool           `bun:"is_active,notnull,default:true"  json:"is_active"`
	IsDefault  bool           `bun:"is_default,notnull,default:false" json:"is_default"`
	Metadata   map[string]any `bun:"metadata,type:jsonb"   json:"metadata,omitempty"`
	DeletedAt  *time.Time     `bun:"deleted_at,nullzero"   json:"deleted_at,omitempty"`
	CreatedAt  time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
}

// Post is the canonical record for a published document. The markdown body
// lives on the per-locale translation rows; the post row carries identity,
// lifecycle, and everything shared across locales.
type Post struct {
	bun.BaseModel `bun:"table:posts,alias:p"`

	ID          uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	Slug        string         `bun:"slug,notnull" json:"slug"`
	Kind        string         `bun:"kind,notnull,default:'post'" json:"kind"`
	Status      string         `bun:"status,notnull,default:'draft'" json:"status"`
	Template    string         `bun:"template" json:"template,omitempty"`
	Tags        []string       `bun:"tags,type:jsonb" json:"tags,omitempty"`
	Author      string         `bun:"author" json:"author,omitempty"`
	SourcePath  string         `bun:"source_path" json:"source_path,omitempty"`
	Checksum    string         `bun:"checksum" json:"checksum,omitempty"`
	Metadata    map[string]any `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
	PublishedAt *time.Time     `bun:"published_at,nullzero" json:"published_at,omitempty"`
	DeletedAt   *time.Time     `bun:"deleted_at,nullzero" json:"deleted_at,omitempty"`
	CreatedAt   time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`

	Translations []*PostTranslation `bun:"rel:has-many,join:id=post_id" json:"translations,omitempty"`

	EffectiveStatus domain.Status `bun:"-" json:"effective_status"`
	IsVisible       bool          `bun:"-" json:"is_visible"`
}

// PostTranslation stores the localized variant of a post: title, summary, and
// the markdown body plus its rendered HTML.
type PostTranslation struct {
	bun.BaseModel `bun:"table:post_translations,alias:pt"`

	ID          uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	PostID      uuid.UUID      `bun:"post_id,notnull,type:uuid" json:"post_id"`
	LocaleID    uuid.UUID      `bun:"locale_id,notnull,type:uuid" json:"locale_id"`
	Title       string         `bun:"title,notnull" json:"title"`
	Summary     *string        `bun:"summary" json:"summary,omitempty"`
	Body        string         `bun:"body,notnull" json:"body"`
	BodyHTML    string         `bun:"body_html" json:"body_html,omitempty"`
	FrontMatter map[string]any `bun:"front_matter,type:jsonb" json:"front_matter,omitempty"`
	DeletedAt   *time.Time     `bun:"deleted_at,nullzero" json:"deleted_at,omitempty"`
	CreatedAt   time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`

	Locale *Locale `bun:"rel:belongs-to,join:locale_id=id" json:"locale,omitempty"`
}

// Translation returns the translation matching the locale code, or nil.
// Matching is case-insensitive and relies on the Locale relation being loaded.
func (p *Post) Translation(code string) *PostTranslation {
	if p == nil {
		return nil
	}
	for _, tr := range p.Translations {
		if tr == nil || tr.Locale == nil {
			continue
		}
		if strings.EqualFold(tr.Locale.Code, code) {
			return tr
		}
	}
	return nil
}

// HasTag reports whether the post carries the given tag after normalization.
func (p *Post) HasTag(tag string) bool {
	if p == nil {
		return false
	}
	normalized, err := NormalizeTag(tag)
	if err != nil {
		return false
	}
	for _, t := range p.Tags {
		if t == normalized {
			return true
		}
	}
	return false
}
