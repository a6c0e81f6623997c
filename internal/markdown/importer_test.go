package markdown

import (
	"context"
	"crypto/sha256"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	intposts "github.com/goliatone/go-press/internal/posts"
	"github.com/goliatone/go-press/pkg/interfaces"
	"github.com/goliatone/go-press/posts"
)

func TestImportDirectoryCreatesPosts(t *testing.T) {
	svc, postSvc := newImportStack(t)

	result, err := svc.ImportDirectory(context.Background(), ".", interfaces.ImportOptions{})
	if err != nil {
		t.Fatalf("ImportDirectory: %v", err)
	}
	if len(result.CreatedPostIDs) != 6 {
		t.Fatalf("expected 6 created posts, got %d (%#v)", len(result.CreatedPostIDs), result)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", result.Errors)
	}

	post, err := postSvc.GetBySlug(context.Background(), "express-passport-sessions")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if post.Status != "published" {
		t.Fatalf("expected published status, got %q", post.Status)
	}
	if len(post.Translations) != 2 {
		t.Fatalf("expected en and es translations, got %d", len(post.Translations))
	}
	if post.PublishedAt == nil || !post.PublishedAt.Equal(time.Date(2023, 11, 18, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected published date from front matter, got %v", post.PublishedAt)
	}
	if len(post.Tags) != 2 || post.Tags[0] != "express" {
		t.Fatalf("expected normalized tags, got %#v", post.Tags)
	}
	if post.SourcePath == "" || post.Checksum == "" {
		t.Fatalf("expected source path and checksum recorded, got %q / %q", post.SourcePath, post.Checksum)
	}

	en := post.Translation("en")
	if en == nil || en.Title != "Adding Session Auth With Express And Passport" {
		t.Fatalf("unexpected en translation: %#v", en)
	}
	if en.BodyHTML == "" {
		t.Fatalf("expected rendered HTML stored on translation")
	}
	es := post.Translation("es")
	if es == nil || es.Title != "Autenticación De Sesiones Con Express Y Passport" {
		t.Fatalf("unexpected es translation: %#v", es)
	}
}

func TestImportMarksDraftsAndUntitled(t *testing.T) {
	svc, postSvc := newImportStack(t)

	if _, err := svc.ImportDirectory(context.Background(), ".", interfaces.ImportOptions{}); err != nil {
		t.Fatalf("ImportDirectory: %v", err)
	}

	flagged, err := postSvc.GetBySlug(context.Background(), "jwt-vs-sessions")
	if err != nil {
		t.Fatalf("GetBySlug jwt-vs-sessions: %v", err)
	}
	if flagged.Status != "draft" {
		t.Fatalf("expected draft for draft: true front matter, got %q", flagged.Status)
	}
	if flagged.IsVisible {
		t.Fatalf("expected draft post to be hidden")
	}

	untitled, err := postSvc.GetBySlug(context.Background(), "session-store-notes")
	if err != nil {
		t.Fatalf("GetBySlug session-store-notes: %v", err)
	}
	if untitled.Status != "draft" {
		t.Fatalf("expected untitled post kept as draft, got %q", untitled.Status)
	}
	en := untitled.Translation("en")
	if en == nil || en.Title != "Session Store Notes" {
		t.Fatalf("expected fallback title derived from slug, got %#v", en)
	}

	visible, err := postSvc.List(context.Background(), posts.ListFilter{VisibleOnly: true})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(visible) != 4 {
		t.Fatalf("expected 4 visible posts, got %d", len(visible))
	}
}

func TestReimportSkipsUnchangedDocuments(t *testing.T) {
	svc, _ := newImportStack(t)

	first, err := svc.ImportDirectory(context.Background(), ".", interfaces.ImportOptions{})
	if err != nil {
		t.Fatalf("first import: %v", err)
	}
	if len(first.CreatedPostIDs) != 6 {
		t.Fatalf("expected 6 created, got %d", len(first.CreatedPostIDs))
	}

	second, err := svc.ImportDirectory(context.Background(), ".", interfaces.ImportOptions{})
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if len(second.CreatedPostIDs) != 0 || len(second.UpdatedPostIDs) != 0 {
		t.Fatalf("expected unchanged files skipped, got %#v", second)
	}
	if len(second.SkippedPostIDs) != 6 {
		t.Fatalf("expected 6 skipped, got %d", len(second.SkippedPostIDs))
	}
}

func TestImportUpdatesChangedDocument(t *testing.T) {
	svc, postSvc := newImportStack(t)

	doc, err := svc.Load(context.Background(), "en/react-todo-app.md", interfaces.LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := svc.Import(context.Background(), doc, interfaces.ImportOptions{}); err != nil {
		t.Fatalf("initial import: %v", err)
	}

	clone := cloneDocument(doc)
	clone.Body = []byte("# Building A To-Do App With React Hooks\n\nRewritten walkthrough.")
	clone.BodyHTML = nil
	sum := sha256.Sum256(clone.Body)
	clone.Checksum = sum[:]

	result, err := svc.Import(context.Background(), clone, interfaces.ImportOptions{})
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if len(result.UpdatedPostIDs) != 1 {
		t.Fatalf("expected one update, got %#v", result)
	}

	post, err := postSvc.GetBySlug(context.Background(), "react-todo-app")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	en := post.Translation("en")
	if en == nil || en.Body != string(clone.Body) {
		t.Fatalf("expected updated body stored, got %#v", en)
	}
}

func TestImportDryRunWritesNothing(t *testing.T) {
	svc, postSvc := newImportStack(t)

	result, err := svc.ImportDirectory(context.Background(), ".", interfaces.ImportOptions{DryRun: true})
	if err != nil {
		t.Fatalf("ImportDirectory dry run: %v", err)
	}
	if len(result.CreatedPostIDs) != 0 || len(result.UpdatedPostIDs) != 0 {
		t.Fatalf("expected dry run to write nothing, got %#v", result)
	}

	stored, err := postSvc.List(context.Background(), posts.ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("expected empty index after dry run, got %d posts", len(stored))
	}
}

func TestSyncRemovesOrphanedFilePosts(t *testing.T) {
	svc, postSvc := newImportStack(t)

	if _, err := svc.ImportDirectory(context.Background(), ".", interfaces.ImportOptions{}); err != nil {
		t.Fatalf("initial import: %v", err)
	}

	// A post whose source file has since been deleted.
	if _, err := postSvc.Create(context.Background(), posts.CreatePostRequest{
		Slug:       "retired-angular-guide",
		Status:     "published",
		SourcePath: "en/retired-angular-guide.md",
		Checksum:   "stale",
		Translations: []posts.PostTranslationInput{{
			Locale: "en",
			Title:  "Retired Angular Guide",
			Body:   "Superseded content.",
		}},
	}); err != nil {
		t.Fatalf("seed orphan: %v", err)
	}

	// A post created through the API, not tied to any file.
	if _, err := postSvc.Create(context.Background(), posts.CreatePostRequest{
		Slug:   "manual-note",
		Status: "published",
		Translations: []posts.PostTranslationInput{{
			Locale: "en",
			Title:  "Manual Note",
			Body:   "Written in the admin, not on disk.",
		}},
	}); err != nil {
		t.Fatalf("seed manual post: %v", err)
	}

	syncRes, err := svc.Sync(context.Background(), ".", interfaces.SyncOptions{
		DeleteOrphaned: true,
	})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if syncRes.Deleted != 1 {
		t.Fatalf("expected one orphan deleted, got %d", syncRes.Deleted)
	}
	if syncRes.Skipped != 6 {
		t.Fatalf("expected unchanged posts skipped, got %d", syncRes.Skipped)
	}

	if _, err := postSvc.GetBySlug(context.Background(), "retired-angular-guide"); !posts.IsNotFound(err) {
		t.Fatalf("expected orphan removed, got %v", err)
	}
	if _, err := postSvc.GetBySlug(context.Background(), "manual-note"); err != nil {
		t.Fatalf("expected API post untouched, got %v", err)
	}
}

// Helper constructors --------------------------------------------------------

func newImportStack(tb testing.TB) (*Service, posts.Service) {
	tb.Helper()

	repo := intposts.NewMemoryPostRepository()
	locales := intposts.NewMemoryLocaleRepository()
	locales.Put(&posts.Locale{ID: uuid.New(), Code: "en", Display: "English", IsDefault: true})
	locales.Put(&posts.Locale{ID: uuid.New(), Code: "es", Display: "Spanish"})

	postSvc := intposts.NewService(repo, locales, intposts.WithDefaultLocale("en"))

	importer := NewImporter(ImporterConfig{Posts: postSvc})

	cfg := Config{
		BasePath:      filepath.Join("testdata", "site"),
		DefaultLocale: "en",
		Locales:       []string{"en", "es"},
		Pattern:       "*.md",
		Recursive:     true,
	}

	svc, err := NewService(cfg, nil, importer)
	if err != nil {
		tb.Fatalf("NewService: %v", err)
	}
	return svc, postSvc
}

func cloneDocument(doc *interfaces.Document) *interfaces.Document {
	if doc == nil {
		return nil
	}
	body := make([]byte, len(doc.Body))
	copy(body, doc.Body)
	html := make([]byte, len(doc.BodyHTML))
	copy(html, doc.BodyHTML)
	checksum := make([]byte, len(doc.Checksum))
	copy(checksum, doc.Checksum)
	return &interfaces.Document{
		FilePath:     doc.FilePath,
		Locale:       doc.Locale,
		FrontMatter:  doc.FrontMatter,
		Body:         body,
		BodyHTML:     html,
		LastModified: time.Now(),
		Checksum:     checksum,
	}
}
