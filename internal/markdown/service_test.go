package markdown

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-press/pkg/interfaces"
)

func TestServiceLoad(t *testing.T) {
	svc := newTestService(t, true)

	doc, err := svc.Load(context.Background(), "en/express-passport-sessions.md", interfaces.LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if doc.Locale != "en" {
		t.Fatalf("expected locale en, got %s", doc.Locale)
	}
	if doc.FrontMatter.Title != "Adding Session Auth With Express And Passport" {
		t.Fatalf("unexpected title %q", doc.FrontMatter.Title)
	}
	if len(doc.BodyHTML) == 0 {
		t.Fatalf("expected BodyHTML to be populated")
	}
	if len(doc.Checksum) == 0 {
		t.Fatalf("expected checksum to be populated")
	}
}

func TestServiceLoadDirectory_MixedLocales(t *testing.T) {
	svc := newTestService(t, true)

	docs, err := svc.LoadDirectory(context.Background(), ".", interfaces.LoadOptions{})
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}

	if len(docs) != 7 {
		t.Fatalf("expected 7 documents, got %d", len(docs))
	}

	locales := map[string]int{}
	var foundNested bool
	for _, doc := range docs {
		locales[doc.Locale]++
		if filepath.Ext(doc.FilePath) != ".md" {
			t.Fatalf("expected markdown file, got %s", doc.FilePath)
		}
		if len(doc.Checksum) == 0 {
			t.Fatalf("expected checksum set for %s", doc.FilePath)
		}
		if doc.FilePath == "en/guides/session-store-notes.md" {
			foundNested = true
		}
	}

	if locales["en"] != 6 || locales["es"] != 1 {
		t.Fatalf("unexpected locale distribution: %#v", locales)
	}
	if !foundNested {
		t.Fatalf("expected nested en/guides/session-store-notes.md to be discovered")
	}
}

func TestServiceLoadDirectory_NonRecursiveOverride(t *testing.T) {
	svc := newTestService(t, true)

	no := false
	docs, err := svc.LoadDirectory(context.Background(), "en", interfaces.LoadOptions{
		Recursive: &no,
	})
	if err != nil {
		t.Fatalf("LoadDirectory override: %v", err)
	}

	if len(docs) != 5 {
		t.Fatalf("expected 5 documents, got %d", len(docs))
	}
	for _, doc := range docs {
		if filepath.Dir(doc.FilePath) != "en" {
			t.Fatalf("expected only en root files, got %s", doc.FilePath)
		}
	}
}

func TestServiceRenderResolvesRelativeLinks(t *testing.T) {
	svc := newTestService(t, true)

	doc, err := svc.Load(context.Background(), "en/redux-toolkit-firebase.md", interfaces.LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	html := string(doc.BodyHTML)
	if want := `href="react-todo-app.md"`; !strings.Contains(html, want) {
		t.Fatalf("expected rendered link %s, got %q", want, html)
	}
}

func newTestService(tb testing.TB, recursive bool) *Service {
	tb.Helper()

	cfg := Config{
		BasePath:      filepath.Join("testdata", "site"),
		DefaultLocale: "en",
		Locales:       []string{"en", "es"},
		LocalePatterns: map[string]string{
			"es": "es/*.md",
		},
		Pattern:   "*.md",
		Recursive: recursive,
	}

	svc, err := NewService(cfg, nil, nil)
	if err != nil {
		tb.Fatalf("NewService: %v", err)
	}
	return svc
}
