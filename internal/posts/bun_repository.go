package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	cache "github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const postNamespace = "post"

// BunPostRepository implements PostRepository on top of bun with optional caching.
// Translation rows are managed alongside the post row so callers always see
// posts with their translations (and locales) attached.
type BunPostRepository struct {
	db           *bun.DB
	repo         repository.Repository[*Post]
	cacheService cache.CacheService
	cachePrefix  string
}

// NewBunPostRepository creates a post repository without caching.
func NewBunPostRepository(db *bun.DB) *BunPostRepository {
	return NewBunPostRepositoryWithCache(db, nil, nil)
}

// NewBunPostRepositoryWithCache creates a post repository with caching services.
func NewBunPostRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunPostRepository {
	base := NewPostRepository(db)
	var svc cache.CacheService
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
		svc = cacheService
	}
	prefix := ""
	if svc != nil {
		prefix = cachePrefix(postNamespace)
	}
	return &BunPostRepository{
		db:           db,
		repo:         base,
		cacheService: svc,
		cachePrefix:  prefix,
	}
}

func (r *BunPostRepository) Create(ctx context.Context, record *Post) (*Post, error) {
	created, err := r.repo.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	if err := r.replaceTranslations(ctx, created.ID, record.Translations); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, created.ID)
}

func (r *BunPostRepository) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "post", id.String())
	}
	if err := r.loadTranslations(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (r *BunPostRepository) GetBySlug(ctx context.Context, slug string) (*Post, error) {
	record, err := r.repo.GetByIdentifier(ctx, slug)
	if err != nil {
		return nil, mapRepositoryError(err, "post", slug)
	}
	if err := r.loadTranslations(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (r *BunPostRepository) List(ctx context.Context) ([]*Post, error) {
	records, _, err := r.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return records, nil
	}

	ids := make([]uuid.UUID, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}

	var translations []*PostTranslation
	if err := r.db.NewSelect().
		Model(&translations).
		Where("pt.post_id IN (?)", bun.In(ids)).
		Relation("Locale").
		Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post repository error: %w", err)
	}

	byPost := make(map[uuid.UUID][]*PostTranslation, len(records))
	for _, tr := range translations {
		byPost[tr.PostID] = append(byPost[tr.PostID], tr)
	}
	for _, record := range records {
		record.Translations = byPost[record.ID]
	}
	return records, nil
}

func (r *BunPostRepository) Update(ctx context.Context, record *Post) (*Post, error) {
	updated, err := r.repo.Update(ctx, record)
	if err != nil {
		return nil, err
	}
	if err := r.replaceTranslations(ctx, updated.ID, record.Translations); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, updated.ID)
}

func (r *BunPostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.NewDelete().
		Model((*PostTranslation)(nil)).
		Where("post_id = ?", id).
		Exec(ctx); err != nil {
		return fmt.Errorf("post repository error: %w", err)
	}
	return r.repo.Delete(ctx, &Post{ID: id})
}

// InvalidateCache drops cached entries for this repository's namespace.
func (r *BunPostRepository) InvalidateCache(ctx context.Context) error {
	if r.cacheService == nil || r.cachePrefix == "" {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, r.cachePrefix)
}

func (r *BunPostRepository) loadTranslations(ctx context.Context, record *Post) error {
	if record == nil {
		return nil
	}
	var translations []*PostTranslation
	if err := r.db.NewSelect().
		Model(&translations).
		Where("pt.post_id = ?", record.ID).
		Relation("Locale").
		Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("post repository error: %w", err)
	}
	record.Translations = translations
	return nil
}

func (r *BunPostRepository) replaceTranslations(ctx context.Context, postID uuid.UUID, translations []*PostTranslation) error {
	if _, err := r.db.NewDelete().
		Model((*PostTranslation)(nil)).
		Where("post_id = ?", postID).
		Exec(ctx); err != nil {
		return fmt.Errorf("post repository error: %w", err)
	}
	if len(translations) == 0 {
		return nil
	}
	rows := make([]*PostTranslation, 0, len(translations))
	for _, tr := range translations {
		if tr == nil {
			continue
		}
		local := *tr
		local.PostID = postID
		local.Locale = nil
		rows = append(rows, &local)
	}
	if len(rows) == 0 {
		return nil
	}
	if _, err := r.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("post repository error: %w", err)
	}
	return nil
}

// BunLocaleRepository resolves locales from bun storage with optional caching.
type BunLocaleRepository struct {
	repo repository.Repository[*Locale]
}

// NewBunLocaleRepository constructs a LocaleRepository without caching.
func NewBunLocaleRepository(db *bun.DB) *BunLocaleRepository {
	return NewBunLocaleRepositoryWithCache(db, nil, nil)
}

// NewBunLocaleRepositoryWithCache constructs a LocaleRepository with optional caching.
func NewBunLocaleRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunLocaleRepository {
	base := NewLocaleRepository(db)
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
	}
	return &BunLocaleRepository{repo: base}
}

func (r *BunLocaleRepository) GetByCode(ctx context.Context, code string) (*Locale, error) {
	result, err := r.repo.GetByIdentifier(ctx, code)
	if err != nil {
		return nil, mapRepositoryError(err, "locale", code)
	}
	return result, nil
}

// Upsert writes a locale row, replacing any existing row with the same code.
func (r *BunLocaleRepository) Upsert(ctx context.Context, locale *Locale) (*Locale, error) {
	existing, err := r.repo.GetByIdentifier(ctx, locale.Code)
	if err == nil && existing != nil {
		locale.ID = existing.ID
		return r.repo.Update(ctx, locale)
	}
	return r.repo.Create(ctx, locale)
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{
			Resource: resource,
			Key:      key,
		}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}

func cachePrefix(namespace string) string {
	if namespace == "" {
		return ""
	}
	return namespace + cache.KeySeparator
}
