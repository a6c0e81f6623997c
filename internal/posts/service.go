package posts

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-press/internal/domain"
	"github.com/goliatone/go-press/internal/identity"
	pressposts "github.com/goliatone/go-press/posts"
	"github.com/google/uuid"
)

// PostRepository abstracts storage operations for post entities.
type PostRepository interface {
	Create(ctx context.Context, record *Post) (*Post, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Post, error)
	GetBySlug(ctx context.Context, slug string) (*Post, error)
	List(ctx context.Context) ([]*Post, error)
	Update(ctx context.Context, record *Post) (*Post, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// LocaleRepository resolves locales by code.
type LocaleRepository interface {
	GetByCode(ctx context.Context, code string) (*Locale, error)
}

// IDGenerator produces identifiers for new records.
type IDGenerator func() uuid.UUID

// ServiceOption configures the service at construction time.
type ServiceOption func(*service)

// WithClock overrides the clock used to stamp records and evaluate visibility.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithIDGenerator overrides how new record identifiers are produced.
func WithIDGenerator(generator IDGenerator) ServiceOption {
	return func(s *service) {
		if generator != nil {
			s.id = generator
		}
	}
}

// WithDefaultLocale sets the locale every post must carry a translation for.
func WithDefaultLocale(code string) ServiceOption {
	return func(s *service) {
		code = strings.TrimSpace(code)
		if code != "" {
			s.defaultLocale = strings.ToLower(code)
		}
	}
}

type service struct {
	posts         PostRepository
	locales       LocaleRepository
	now           func() time.Time
	id            IDGenerator
	defaultLocale string
}

// NewService constructs a post service with the required dependencies.
func NewService(posts PostRepository, locales LocaleRepository, opts ...ServiceOption) Service {
	s := &service{
		posts:         posts,
		locales:       locales,
		now:           time.Now,
		defaultLocale: "en",
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// postID derives identifiers from the slug so re-importing the same
// repository on a fresh database yields the same records.
func (s *service) postID(slug string) uuid.UUID {
	if s.id != nil {
		return s.id()
	}
	return identity.PostUUID(slug)
}

func (s *service) translationID(postID uuid.UUID, locale string) uuid.UUID {
	if s.id != nil {
		return s.id()
	}
	return identity.PostTranslationUUID(postID, locale)
}

// Create orchestrates creation of a new post with translations.
func (s *service) Create(ctx context.Context, req CreatePostRequest) (*Post, error) {
	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		return nil, ErrSlugRequired
	}
	if !pressposts.IsValidSlug(slug) {
		return nil, ErrSlugInvalid
	}

	if len(req.Translations) == 0 {
		return nil, ErrNoTranslations
	}

	if existing, err := s.posts.GetBySlug(ctx, slug); err == nil && existing != nil {
		return nil, &SlugConflictError{Slug: slug, Kind: existing.Kind}
	} else if err != nil {
		var notFound *NotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	tags, err := pressposts.NormalizeTags(req.Tags)
	if err != nil {
		return nil, err
	}

	now := s.now()
	record := &Post{
		ID:           s.postID(slug),
		Slug:         slug,
		Kind:         string(domain.NormalizeKind(req.Kind)),
		Status:       string(domain.NormalizeStatus(req.Status)),
		Template:     strings.TrimSpace(req.Template),
		Tags:         tags,
		Author:       strings.TrimSpace(req.Author),
		SourcePath:   req.SourcePath,
		Checksum:     req.Checksum,
		Metadata:     cloneMap(req.Metadata),
		PublishedAt:  cloneTimePtr(req.PublishedAt),
		CreatedAt:    now,
		UpdatedAt:    now,
		Translations: []*PostTranslation{},
	}

	seen := map[string]struct{}{}
	for _, tr := range req.Translations {
		translation, code, err := s.buildTranslation(ctx, record.ID, tr, now)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[code]; ok {
			return nil, ErrDuplicateLocale
		}
		seen[code] = struct{}{}
		record.Translations = append(record.Translations, translation)
	}

	if err := s.requireDefaultLocale(seen, req.AllowMissingDefaultLocale); err != nil {
		return nil, err
	}
	if err := s.requirePublishableTitle(record); err != nil {
		return nil, err
	}

	created, err := s.posts.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	return s.decoratePost(created), nil
}

// Update applies mutable fields and upserts the supplied translations.
func (s *service) Update(ctx context.Context, req UpdatePostRequest) (*Post, error) {
	if req.ID == uuid.Nil {
		return nil, ErrPostIDRequired
	}

	record, err := s.posts.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if status := strings.TrimSpace(req.Status); status != "" {
		record.Status = string(domain.NormalizeStatus(status))
	}
	if template := strings.TrimSpace(req.Template); template != "" {
		record.Template = template
	}
	if req.Tags != nil {
		tags, err := pressposts.NormalizeTags(req.Tags)
		if err != nil {
			return nil, err
		}
		record.Tags = tags
	}
	if author := strings.TrimSpace(req.Author); author != "" {
		record.Author = author
	}
	if req.SourcePath != "" {
		record.SourcePath = req.SourcePath
	}
	if req.Checksum != "" {
		record.Checksum = req.Checksum
	}
	if req.Metadata != nil {
		record.Metadata = cloneMap(req.Metadata)
	}
	if req.PublishedAt != nil {
		record.PublishedAt = cloneTimePtr(req.PublishedAt)
	}
	record.UpdatedAt = now

	seen := map[string]struct{}{}
	for _, tr := range record.Translations {
		if tr != nil && tr.Locale != nil {
			seen[strings.ToLower(tr.Locale.Code)] = struct{}{}
		}
	}

	for _, input := range req.Translations {
		translation, code, err := s.buildTranslation(ctx, record.ID, input, now)
		if err != nil {
			return nil, err
		}
		if existing := record.Translation(code); existing != nil {
			existing.Title = translation.Title
			existing.Summary = translation.Summary
			existing.Body = translation.Body
			existing.BodyHTML = translation.BodyHTML
			existing.FrontMatter = translation.FrontMatter
			existing.UpdatedAt = now
			continue
		}
		seen[code] = struct{}{}
		record.Translations = append(record.Translations, translation)
	}

	if err := s.requireDefaultLocale(seen, req.AllowMissingDefaultLocale); err != nil {
		return nil, err
	}
	if err := s.requirePublishableTitle(record); err != nil {
		return nil, err
	}

	updated, err := s.posts.Update(ctx, record)
	if err != nil {
		return nil, err
	}
	return s.decoratePost(updated), nil
}

// Delete removes a post. Soft deletes stamp DeletedAt and keep the record;
// hard deletes drop it from the repository.
func (s *service) Delete(ctx context.Context, req DeletePostRequest) error {
	if req.ID == uuid.Nil {
		return ErrPostIDRequired
	}

	if req.HardDelete {
		return s.posts.Delete(ctx, req.ID)
	}

	record, err := s.posts.GetByID(ctx, req.ID)
	if err != nil {
		return err
	}
	now := s.now()
	record.DeletedAt = &now
	record.UpdatedAt = now
	_, err = s.posts.Update(ctx, record)
	return err
}

// Get fetches a post by identifier.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*Post, error) {
	if id == uuid.Nil {
		return nil, ErrPostIDRequired
	}
	record, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.decoratePost(record), nil
}

// GetBySlug fetches a post by its slug.
func (s *service) GetBySlug(ctx context.Context, slug string) (*Post, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrSlugRequired
	}
	record, err := s.posts.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.decoratePost(record), nil
}

// List returns posts matching the filter in deterministic order: newest
// publish date first, slug ascending on ties, undated entries last.
func (s *service) List(ctx context.Context, filter ListFilter) ([]*Post, error) {
	records, err := s.posts.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*Post, 0, len(records))
	for _, record := range records {
		if record == nil || record.DeletedAt != nil {
			continue
		}
		s.decoratePost(record)
		if !matchesFilter(record, filter) {
			continue
		}
		out = append(out, record)
	}

	sortPosts(out)
	return out, nil
}

// Tags aggregates normalized tag counts across posts matching the filter.
func (s *service) Tags(ctx context.Context, filter ListFilter) ([]TagCount, error) {
	records, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	counts := map[string]int{}
	for _, record := range records {
		for _, tag := range record.Tags {
			counts[tag]++
		}
	}

	out := make([]TagCount, 0, len(counts))
	for tag, count := range counts {
		out = append(out, TagCount{Tag: tag, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out, nil
}

func (s *service) buildTranslation(ctx context.Context, postID uuid.UUID, input PostTranslationInput, now time.Time) (*PostTranslation, string, error) {
	code := strings.ToLower(strings.TrimSpace(input.Locale))
	if code == "" {
		code = s.defaultLocale
	}

	loc, err := s.locales.GetByCode(ctx, code)
	if err != nil {
		return nil, "", &InvalidLocaleError{Locale: code}
	}

	translation := &PostTranslation{
		ID:          s.translationID(postID, code),
		PostID:      postID,
		LocaleID:    loc.ID,
		Title:       strings.TrimSpace(input.Title),
		Summary:     input.Summary,
		Body:        input.Body,
		BodyHTML:    input.BodyHTML,
		FrontMatter: cloneMap(input.FrontMatter),
		CreatedAt:   now,
		UpdatedAt:   now,
		Locale:      loc,
	}
	return translation, code, nil
}

func (s *service) requireDefaultLocale(seen map[string]struct{}, allowMissing bool) error {
	if allowMissing {
		return nil
	}
	if _, ok := seen[s.defaultLocale]; !ok {
		return ErrDefaultLocaleRequired
	}
	return nil
}

// requirePublishableTitle enforces that anything leaving draft carries a
// non-empty title in every translation.
func (s *service) requirePublishableTitle(record *Post) error {
	status := domain.Status(record.Status)
	if status != domain.StatusPublished && status != domain.StatusScheduled {
		return nil
	}
	for _, tr := range record.Translations {
		if tr == nil {
			continue
		}
		if strings.TrimSpace(tr.Title) == "" {
			return ErrTitleRequired
		}
	}
	return nil
}

func (s *service) decoratePost(record *Post) *Post {
	if record == nil {
		return nil
	}
	status := effectivePostStatus(record, s.now())
	record.EffectiveStatus = status
	record.IsVisible = status == domain.StatusPublished
	return record
}

func effectivePostStatus(record *Post, now time.Time) domain.Status {
	if record == nil {
		return domain.StatusDraft
	}
	status := domain.Status(record.Status)
	if status == "" {
		status = domain.StatusDraft
	}
	if status == domain.StatusArchived || status == domain.StatusDraft {
		return status
	}
	if record.PublishedAt != nil && record.PublishedAt.After(now) {
		return domain.StatusScheduled
	}
	return domain.StatusPublished
}

func matchesFilter(record *Post, filter ListFilter) bool {
	if filter.Kind != "" && record.Kind != string(domain.NormalizeKind(filter.Kind)) {
		return false
	}
	if filter.Status != "" && record.Status != string(domain.NormalizeStatus(filter.Status)) {
		return false
	}
	if filter.Tag != "" && !record.HasTag(filter.Tag) {
		return false
	}
	if filter.Locale != "" && record.Translation(filter.Locale) == nil {
		return false
	}
	if filter.PublishedBefore != nil {
		if record.PublishedAt == nil || !record.PublishedAt.Before(*filter.PublishedBefore) {
			return false
		}
	}
	if filter.VisibleOnly {
		switch record.EffectiveStatus {
		case domain.StatusPublished:
		case domain.StatusScheduled:
			if !filter.IncludeFuture {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func sortPosts(records []*Post) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		switch {
		case a.PublishedAt == nil && b.PublishedAt == nil:
			return a.Slug < b.Slug
		case a.PublishedAt == nil:
			return false
		case b.PublishedAt == nil:
			return true
		case a.PublishedAt.Equal(*b.PublishedAt):
			return a.Slug < b.Slug
		default:
			return a.PublishedAt.After(*b.PublishedAt)
		}
	})
}

func cloneTimePtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
