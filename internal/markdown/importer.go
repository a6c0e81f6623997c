package markdown

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/goliatone/go-press/pkg/interfaces"
	"github.com/goliatone/go-press/posts"
)

var (
	ErrPostServiceRequired = errors.New("markdown importer: post service is required")
	ErrSlugUnresolved      = errors.New("markdown importer: slug could not be derived")
	ErrLocaleUnresolved    = errors.New("markdown importer: locale could not be determined")
)

// ImporterConfig wires the dependencies needed to persist documents as posts.
type ImporterConfig struct {
	Posts  posts.Service
	Logger interfaces.Logger
	// DefaultKind applies when neither front matter nor import options name
	// one. Empty means "post".
	DefaultKind string
	// DefaultStatus applies to documents that carry a title but no explicit
	// status. Empty means "published": a file in the repository with a title
	// is assumed ready unless the author says otherwise.
	DefaultStatus string
}

// Importer converts loaded Markdown documents into posts. Documents sharing a
// slug are treated as translations of one post, so en/intro.md and
// es/intro.md land on a single record with two locale rows.
type Importer struct {
	posts         posts.Service
	logger        interfaces.Logger
	defaultKind   string
	defaultStatus string
}

// NewImporter builds an Importer from the supplied configuration.
func NewImporter(cfg ImporterConfig) *Importer {
	kind := strings.TrimSpace(cfg.DefaultKind)
	if kind == "" {
		kind = "post"
	}
	status := strings.TrimSpace(cfg.DefaultStatus)
	if status == "" {
		status = "published"
	}
	return &Importer{
		posts:         cfg.Posts,
		logger:        cfg.Logger,
		defaultKind:   kind,
		defaultStatus: status,
	}
}

// ImportDocument imports a single document.
func (i *Importer) ImportDocument(ctx context.Context, doc *interfaces.Document, opts interfaces.ImportOptions) (*interfaces.ImportResult, error) {
	if i.posts == nil {
		return nil, ErrPostServiceRequired
	}

	acc := newImportAccumulator()
	slug, err := deriveSlug(doc)
	if err != nil {
		acc.addError(err)
		return acc.result(), err
	}
	if err := i.applyGroup(ctx, slug, []*interfaces.Document{doc}, opts, acc); err != nil {
		acc.addError(err)
	}
	return acc.result(), firstError(acc.errors)
}

// ImportDocuments imports a batch, grouping documents by derived slug.
func (i *Importer) ImportDocuments(ctx context.Context, docs []*interfaces.Document, opts interfaces.ImportOptions) (*interfaces.ImportResult, error) {
	if i.posts == nil {
		return nil, ErrPostServiceRequired
	}

	acc := newImportAccumulator()
	grouped := i.groupBySlug(docs, acc)
	for _, slug := range sortedKeys(grouped) {
		group := orderDocuments(grouped[slug])
		if err := i.applyGroup(ctx, slug, group, opts, acc); err != nil {
			acc.addError(err)
		}
	}
	return acc.result(), firstError(acc.errors)
}

// SyncDocuments imports all provided documents and, when requested, removes
// file-originated posts whose source files no longer exist. Posts created
// through the API carry no source path and are never deleted.
func (i *Importer) SyncDocuments(ctx context.Context, docs []*interfaces.Document, opts interfaces.SyncOptions) (*interfaces.SyncResult, error) {
	if i.posts == nil {
		return nil, ErrPostServiceRequired
	}

	acc := newSyncAccumulator()
	importAcc := newImportAccumulator()
	grouped := i.groupBySlug(docs, importAcc)

	for _, slug := range sortedKeys(grouped) {
		group := orderDocuments(grouped[slug])
		if err := i.applyGroup(ctx, slug, group, opts.ImportOptions, importAcc); err != nil {
			importAcc.addError(err)
		}
	}
	acc.merge(importAcc.result())

	if opts.DeleteOrphaned {
		if err := i.deleteOrphaned(ctx, grouped, opts, acc); err != nil {
			acc.addError(err)
		}
	}

	return acc.result(), firstError(acc.errors)
}

func (i *Importer) applyGroup(ctx context.Context, slug string, docs []*interfaces.Document, opts interfaces.ImportOptions, acc *importAccumulator) error {
	if slug == "" {
		return ErrSlugUnresolved
	}

	translations := make([]posts.PostTranslationInput, 0, len(docs))
	fallback := titleFromSlug(slug)
	hasWrittenTitle := false

	for _, doc := range docs {
		if err := validateDocument(doc); err != nil {
			return err
		}

		title := strings.TrimSpace(doc.FrontMatter.Title)
		if title != "" {
			hasWrittenTitle = true
		} else {
			title = fallback
		}

		translations = append(translations, posts.PostTranslationInput{
			Locale:      doc.Locale,
			Title:       title,
			Summary:     optionalString(doc.FrontMatter.Summary),
			Body:        string(doc.Body),
			BodyHTML:    string(doc.BodyHTML),
			FrontMatter: doc.FrontMatter.Raw,
		})
	}

	status := i.groupStatus(docs, hasWrittenTitle)
	checksum := groupChecksum(docs)
	meta := map[string]any{
		"source":    "markdown",
		"documents": documentMetadata(docs),
	}

	existing, err := i.posts.GetBySlug(ctx, slug)
	if err != nil && !posts.IsNotFound(err) {
		return fmt.Errorf("markdown importer: lookup %s: %w", slug, err)
	}

	if existing == nil {
		if opts.DryRun {
			acc.skip(uuid.Nil)
			return nil
		}

		created, createErr := i.posts.Create(ctx, posts.CreatePostRequest{
			Slug:                      slug,
			Kind:                      i.groupKind(docs, opts),
			Status:                    status,
			Template:                  firstNonEmpty(docs, func(fm interfaces.FrontMatter) string { return fm.Template }),
			Tags:                      groupTags(docs),
			Author:                    firstNonEmpty(docs, func(fm interfaces.FrontMatter) string { return fm.Author }),
			SourcePath:                docs[0].FilePath,
			Checksum:                  checksum,
			Metadata:                  meta,
			PublishedAt:               groupDate(docs),
			Translations:              translations,
			AllowMissingDefaultLocale: true,
		})
		if createErr != nil {
			return fmt.Errorf("markdown importer: create %s: %w", slug, createErr)
		}
		acc.created(created.ID)
		return nil
	}

	if existing.Checksum == checksum {
		acc.skip(existing.ID)
		return nil
	}
	if opts.DryRun {
		acc.skip(existing.ID)
		return nil
	}

	updated, updateErr := i.posts.Update(ctx, posts.UpdatePostRequest{
		ID:                        existing.ID,
		Status:                    status,
		Template:                  firstNonEmpty(docs, func(fm interfaces.FrontMatter) string { return fm.Template }),
		Tags:                      groupTags(docs),
		Author:                    firstNonEmpty(docs, func(fm interfaces.FrontMatter) string { return fm.Author }),
		SourcePath:                docs[0].FilePath,
		Checksum:                  checksum,
		Metadata:                  meta,
		PublishedAt:               groupDate(docs),
		Translations:              translations,
		AllowMissingDefaultLocale: true,
	})
	if updateErr != nil {
		return fmt.Errorf("markdown importer: update %s: %w", slug, updateErr)
	}
	acc.updated(updated.ID)
	return nil
}

func (i *Importer) deleteOrphaned(ctx context.Context, docs map[string][]*interfaces.Document, opts interfaces.SyncOptions, acc *syncAccumulator) error {
	existing, err := i.posts.List(ctx, posts.ListFilter{})
	if err != nil {
		return fmt.Errorf("markdown importer: list posts: %w", err)
	}

	for _, record := range existing {
		if record.SourcePath == "" {
			continue
		}
		if _, ok := docs[record.Slug]; ok {
			continue
		}
		if opts.DryRun {
			acc.deleted++
			continue
		}
		if err := i.posts.Delete(ctx, posts.DeletePostRequest{ID: record.ID, HardDelete: true}); err != nil {
			return fmt.Errorf("markdown importer: delete %s: %w", record.Slug, err)
		}
		acc.deleted++
	}

	return nil
}

// groupStatus decides the post status for a slug group. Authors opt out of
// publication with draft: true or an explicit status; a group whose files
// never state a title is kept as a draft as well, since a post without a real
// title is not ready for readers.
func (i *Importer) groupStatus(docs []*interfaces.Document, hasWrittenTitle bool) string {
	for _, doc := range docs {
		if doc.FrontMatter.Draft {
			return "draft"
		}
	}
	for _, doc := range docs {
		if status := strings.TrimSpace(doc.FrontMatter.Status); status != "" {
			return status
		}
	}
	if !hasWrittenTitle {
		return "draft"
	}
	return i.defaultStatus
}

func (i *Importer) groupKind(docs []*interfaces.Document, opts interfaces.ImportOptions) string {
	if kind := firstNonEmpty(docs, func(fm interfaces.FrontMatter) string { return fm.Kind }); kind != "" {
		return kind
	}
	if kind := strings.TrimSpace(opts.Kind); kind != "" {
		return kind
	}
	return i.defaultKind
}

func (i *Importer) groupBySlug(docs []*interfaces.Document, acc *importAccumulator) map[string][]*interfaces.Document {
	grouped := map[string][]*interfaces.Document{}
	for _, doc := range docs {
		slug, err := deriveSlug(doc)
		if err != nil {
			acc.addError(err)
			continue
		}
		grouped[slug] = append(grouped[slug], doc)
	}
	return grouped
}

// deriveSlug prefers the front matter slug and falls back to the file name,
// so express-passport-sessions.md becomes express-passport-sessions without
// authors repeating themselves.
func deriveSlug(doc *interfaces.Document) (string, error) {
	if doc == nil {
		return "", errors.New("markdown importer: nil document")
	}

	raw := strings.TrimSpace(doc.FrontMatter.Slug)
	if raw == "" {
		base := path.Base(toSlashPath(doc.FilePath))
		raw = strings.TrimSuffix(base, path.Ext(base))
	}

	slug, err := posts.NormalizeSlug(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrSlugUnresolved, doc.FilePath, err)
	}
	return slug, nil
}

// toSlashPath normalizes separators so path.Base behaves on Windows-style input.
func toSlashPath(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

func validateDocument(doc *interfaces.Document) error {
	if doc == nil {
		return errors.New("markdown importer: nil document")
	}
	if strings.TrimSpace(doc.Locale) == "" {
		return fmt.Errorf("%w: %s", ErrLocaleUnresolved, doc.FilePath)
	}
	return nil
}

func orderDocuments(docs []*interfaces.Document) []*interfaces.Document {
	slices.SortFunc(docs, func(a, b *interfaces.Document) int {
		if a == nil || b == nil {
			return 0
		}
		if cmp := strings.Compare(a.Locale, b.Locale); cmp != 0 {
			return cmp
		}
		return strings.Compare(a.FilePath, b.FilePath)
	})
	return docs
}

func sortedKeys(grouped map[string][]*interfaces.Document) []string {
	keys := make([]string, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

func titleFromSlug(slug string) string {
	if slug == "" {
		return "Untitled"
	}
	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for idx, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[idx] = string(runes)
	}
	return strings.Join(words, " ")
}

func firstNonEmpty(docs []*interfaces.Document, pick func(interfaces.FrontMatter) string) string {
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		if value := strings.TrimSpace(pick(doc.FrontMatter)); value != "" {
			return value
		}
	}
	return ""
}

func groupTags(docs []*interfaces.Document) []string {
	for _, doc := range docs {
		if doc != nil && len(doc.FrontMatter.Tags) > 0 {
			return append([]string(nil), doc.FrontMatter.Tags...)
		}
	}
	return nil
}

func groupDate(docs []*interfaces.Document) *time.Time {
	for _, doc := range docs {
		if doc == nil || doc.FrontMatter.Date.IsZero() {
			continue
		}
		date := doc.FrontMatter.Date.UTC()
		return &date
	}
	return nil
}

// groupChecksum folds the per-file checksums into one digest so a change in
// any translation invalidates the whole group.
func groupChecksum(docs []*interfaces.Document) string {
	hasher := sha256.New()
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		fmt.Fprintf(hasher, "%s:%s\n", doc.FilePath, hex.EncodeToString(doc.Checksum))
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

func documentMetadata(docs []*interfaces.Document) []map[string]any {
	out := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		out = append(out, map[string]any{
			"path":      doc.FilePath,
			"locale":    doc.Locale,
			"checksum":  hex.EncodeToString(doc.Checksum),
			"title":     doc.FrontMatter.Title,
			"timestamp": doc.LastModified,
		})
	}
	return out
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

type importAccumulator struct {
	createdIDs []uuid.UUID
	updatedIDs []uuid.UUID
	skippedIDs []uuid.UUID
	errors     []error
}

func newImportAccumulator() *importAccumulator {
	return &importAccumulator{
		createdIDs: []uuid.UUID{},
		updatedIDs: []uuid.UUID{},
		skippedIDs: []uuid.UUID{},
		errors:     []error{},
	}
}

func (a *importAccumulator) created(id uuid.UUID) {
	if id != uuid.Nil {
		a.createdIDs = append(a.createdIDs, id)
	}
}

func (a *importAccumulator) updated(id uuid.UUID) {
	if id != uuid.Nil {
		a.updatedIDs = append(a.updatedIDs, id)
	}
}

func (a *importAccumulator) skip(id uuid.UUID) {
	if id != uuid.Nil {
		a.skippedIDs = append(a.skippedIDs, id)
	}
}

func (a *importAccumulator) addError(err error) {
	if err != nil {
		a.errors = append(a.errors, err)
	}
}

func (a *importAccumulator) result() *interfaces.ImportResult {
	return &interfaces.ImportResult{
		CreatedPostIDs: a.createdIDs,
		UpdatedPostIDs: a.updatedIDs,
		SkippedPostIDs: a.skippedIDs,
		Errors:         a.errors,
	}
}

type syncAccumulator struct {
	created int
	updated int
	deleted int
	skipped int
	errors  []error
}

func newSyncAccumulator() *syncAccumulator {
	return &syncAccumulator{errors: []error{}}
}

func (s *syncAccumulator) merge(res *interfaces.ImportResult) {
	if res == nil {
		return
	}
	s.created += len(res.CreatedPostIDs)
	s.updated += len(res.UpdatedPostIDs)
	s.skipped += len(res.SkippedPostIDs)
	s.errors = append(s.errors, res.Errors...)
}

func (s *syncAccumulator) addError(err error) {
	if err != nil {
		s.errors = append(s.errors, err)
	}
}

func (s *syncAccumulator) result() *interfaces.SyncResult {
	return &interfaces.SyncResult{
		Created: s.created,
		Updated: s.updated,
		Deleted: s.deleted,
		Skipped: s.skipped,
		Errors:  s.errors,
	}
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
