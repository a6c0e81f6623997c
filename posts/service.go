package posts

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service exposes post management use cases.
type Service interface {
	Create(ctx context.Context, req CreatePostRequest) (*Post, error)
	Update(ctx context.Context, req UpdatePostRequest) (*Post, error)
	Delete(ctx context.Context, req DeletePostRequest) error
	Get(ctx context.Context, id uuid.UUID) (*Post, error)
	GetBySlug(ctx context.Context, slug string) (*Post, error)
	List(ctx context.Context, filter ListFilter) ([]*Post, error)
	Tags(ctx context.Context, filter ListFilter) ([]TagCount, error)
}

// CreatePostRequest captures the information required to create a post.
type CreatePostRequest struct {
	Slug                      string
	Kind                      string
	Status                    string
	Template                  string
	Tags                      []string
	Author                    string
	SourcePath                string
	Checksum                  string
	Metadata                  map[string]any
	PublishedAt               *time.Time
	Translations              []PostTranslationInput
	AllowMissingDefaultLocale bool
}

// PostTranslationInput represents localized fields supplied during create or update.
type PostTranslationInput struct {
	Locale      string
	Title       string
	Summary     *string
	Body        string
	BodyHTML    string
	FrontMatter map[string]any
}

// UpdatePostRequest captures mutable fields for an existing post. Translations
// are upserted per locale; locales not listed keep their current values.
type UpdatePostRequest struct {
	ID                        uuid.UUID
	Status                    string
	Template                  string
	Tags                      []string
	Author                    string
	SourcePath                string
	Checksum                  string
	Metadata                  map[string]any
	PublishedAt               *time.Time
	Translations              []PostTranslationInput
	AllowMissingDefaultLocale bool
}

// DeletePostRequest captures the information required to remove a post.
type DeletePostRequest struct {
	ID         uuid.UUID
	HardDelete bool
}

// ListFilter narrows List results. Zero values mean "no constraint".
type ListFilter struct {
	Kind            string
	Status          string
	Tag             string
	Locale          string
	PublishedBefore *time.Time

	// VisibleOnly keeps only posts whose effective status is published at
	// evaluation time: drafts, scheduled, and archived entries drop out.
	VisibleOnly bool

	// IncludeFuture keeps scheduled posts when VisibleOnly is set.
	IncludeFuture bool
}

// TagCount pairs a normalized tag with the number of posts carrying it.
type TagCount struct {
	Tag   string
	Count int
}
