package integrity

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/goliatone/go-press/internal/posts"
	"github.com/google/uuid"
)

func TestCheckDisabledService(t *testing.T) {
	svc := NewDisabledService()

	if _, err := svc.Check(context.Background(), Options{}); !errors.Is(err, ErrServiceDisabled) {
		t.Fatalf("expected ErrServiceDisabled, got %v", err)
	}
}

func TestCheckRequiresPostsService(t *testing.T) {
	svc := NewService(Config{}, Dependencies{})

	_, err := svc.Check(context.Background(), Options{SkipHTML: true, SkipLinks: true})
	if !errors.Is(err, errPostsServiceRequired) {
		t.Fatalf("expected posts service error, got %v", err)
	}
}

func TestCheckRequiresOutput(t *testing.T) {
	svc := NewService(Config{}, Dependencies{Posts: &stubPostsService{}})

	_, err := svc.Check(context.Background(), Options{SkipFrontMatter: true})
	if !errors.Is(err, errOutputRequired) {
		t.Fatalf("expected output error, got %v", err)
	}
}

func TestCheckRejectsMissingOutputDir(t *testing.T) {
	svc := NewService(Config{OutputDir: "testdata/does-not-exist"}, Dependencies{})

	if _, err := svc.Check(context.Background(), Options{SkipFrontMatter: true}); err == nil {
		t.Fatal("expected error for missing output dir")
	}
}

func TestCheckHonorsCancelledContext(t *testing.T) {
	svc := NewService(Config{}, Dependencies{
		Posts:  &stubPostsService{},
		Output: fstest.MapFS{},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Check(ctx, Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCheckSkipsEverything(t *testing.T) {
	// With every audit skipped no dependency is touched.
	svc := NewService(Config{}, Dependencies{})

	report, err := svc.Check(context.Background(), Options{
		SkipFrontMatter: true,
		SkipHTML:        true,
		SkipLinks:       true,
	})
	if err != nil {
		t.Fatalf("unexpected check error: %v", err)
	}
	if report.CheckedPosts != 0 || report.CheckedFiles != 0 || report.CheckedLinks != 0 {
		t.Fatalf("expected untouched counters, got %+v", report)
	}
	if len(report.Issues) != 0 {
		t.Fatalf("expected no issues, got %+v", report.Issues)
	}
	if report.Duration < 0 {
		t.Fatalf("expected non-negative duration, got %v", report.Duration)
	}
}

func TestCheckListFailurePropagates(t *testing.T) {
	listErr := errors.New("repository offline")
	svc := NewService(Config{}, Dependencies{Posts: &stubPostsService{listErr: listErr}})

	_, err := svc.Check(context.Background(), Options{SkipHTML: true, SkipLinks: true})
	if !errors.Is(err, listErr) {
		t.Fatalf("expected list error, got %v", err)
	}
}

func TestReportCounts(t *testing.T) {
	report := &Report{Issues: []Issue{
		{Check: CheckFrontMatter, Severity: SeverityError},
		{Check: CheckHTML, Severity: SeverityError},
		{Check: CheckLinks, Severity: SeverityWarning},
	}}

	if got := report.ErrorCount(); got != 2 {
		t.Fatalf("expected 2 errors, got %d", got)
	}
	if got := report.WarningCount(); got != 1 {
		t.Fatalf("expected 1 warning, got %d", got)
	}
	if !report.HasErrors() {
		t.Fatal("expected HasErrors to be true")
	}

	var empty *Report
	if empty.ErrorCount() != 0 || empty.HasErrors() {
		t.Fatal("expected nil report to count zero")
	}
}

type stubPostsService struct {
	listing    []*posts.Post
	listErr    error
	lastFilter posts.ListFilter
}

func (s *stubPostsService) Create(context.Context, posts.CreatePostRequest) (*posts.Post, error) {
	return nil, errUnsupported
}

func (s *stubPostsService) Update(context.Context, posts.UpdatePostRequest) (*posts.Post, error) {
	return nil, errUnsupported
}

func (s *stubPostsService) Delete(context.Context, posts.DeletePostRequest) error {
	return errUnsupported
}

func (s *stubPostsService) Get(context.Context, uuid.UUID) (*posts.Post, error) {
	return nil, errUnsupported
}

func (s *stubPostsService) GetBySlug(context.Context, string) (*posts.Post, error) {
	return nil, errUnsupported
}

func (s *stubPostsService) List(_ context.Context, filter posts.ListFilter) ([]*posts.Post, error) {
	s.lastFilter = filter
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]*posts.Post{}, s.listing...), nil
}

func (s *stubPostsService) Tags(context.Context, posts.ListFilter) ([]posts.TagCount, error) {
	return nil, errUnsupported
}

var errUnsupported = errors.New("stub: unsupported operation")

// translated builds a post with a single english translation, the shape the
// markdown importer produces for the tutorial content this audits.
func translated(slug, status, title string, publishedAt *time.Time, front map[string]any) *posts.Post {
	post := &posts.Post{
		ID:          uuid.New(),
		Slug:        slug,
		Kind:        "post",
		Status:      status,
		SourcePath:  "content/posts/" + slug + ".md",
		PublishedAt: publishedAt,
	}
	post.Translations = []*posts.PostTranslation{{
		ID:          uuid.New(),
		PostID:      post.ID,
		LocaleID:    uuid.New(),
		Title:       title,
		Body:        "## Overview\n\nBody",
		FrontMatter: front,
		Locale:      &posts.Locale{ID: uuid.New(), Code: "en", Display: "English"},
	}}
	return post
}

func ptrTime(t time.Time) *time.Time { return &t }
