package markdown

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-press/pkg/interfaces"
)

func TestParseFrontMatter(t *testing.T) {
	data := readFixture(t, "testdata/sample.md")

	fm, body, err := ParseFrontMatter(data)
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}

	if fm.Title != "Adding Session Auth With Express And Passport" {
		t.Fatalf("FrontMatter Title mismatch, got %q", fm.Title)
	}
	if fm.Slug != "express-passport-sessions" {
		t.Fatalf("FrontMatter Slug mismatch, got %q", fm.Slug)
	}
	if !fm.Date.Equal(time.Date(2023, 11, 18, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("FrontMatter Date mismatch, got %v", fm.Date)
	}
	if !strings.HasPrefix(fm.DateInput, "2023-11-18") {
		t.Fatalf("FrontMatter DateInput not preserved, got %q", fm.DateInput)
	}
	if len(fm.Tags) != 2 || fm.Tags[0] != "express" {
		t.Fatalf("FrontMatter Tags mismatch: %#v", fm.Tags)
	}
	if fm.Custom["difficulty"] != "intermediate" {
		t.Fatalf("FrontMatter Custom difficulty missing: %#v", fm.Custom)
	}
	if fm.Raw["summary"] != "Wire up passport-local with server side sessions" {
		t.Fatalf("FrontMatter Raw summary missing: %#v", fm.Raw)
	}
	if len(body) == 0 || !strings.Contains(string(body), "# Adding Session Auth") {
		t.Fatalf("Markdown body not returned correctly: %q", string(body))
	}
}

func TestParseFrontMatterKeepsUnparseableDate(t *testing.T) {
	source := []byte("---\ntitle: Scratch Notes\ndate: next tuesday\n---\n\nBody.\n")

	fm, _, err := ParseFrontMatter(source)
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}

	if !fm.Date.IsZero() {
		t.Fatalf("expected zero date for unparseable input, got %v", fm.Date)
	}
	if fm.DateInput != "next tuesday" {
		t.Fatalf("expected original date input preserved, got %q", fm.DateInput)
	}
	if fm.Raw["date"] != "next tuesday" {
		t.Fatalf("expected raw date entry, got %#v", fm.Raw)
	}
}

func TestParseFrontMatterWithoutBlock(t *testing.T) {
	source := []byte("# Plain Document\n\nNo metadata at all.\n")

	fm, body, err := ParseFrontMatter(source)
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}
	if fm.Title != "" {
		t.Fatalf("expected empty title, got %q", fm.Title)
	}
	if !strings.Contains(string(body), "# Plain Document") {
		t.Fatalf("expected body returned unchanged, got %q", string(body))
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  time.Time
		err   error
	}{
		{name: "day only", input: "2024-05-04", want: time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC)},
		{name: "minute precision", input: "2024-03-22 09:30", want: time.Date(2024, 3, 22, 9, 30, 0, 0, time.UTC)},
		{name: "rfc3339", input: "2023-11-18T10:00:00Z", want: time.Date(2023, 11, 18, 10, 0, 0, 0, time.UTC)},
		{name: "empty", input: "", want: time.Time{}},
		{name: "unparseable", input: "04/05/2024", err: ErrDateUnparseable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDate(tc.input)
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Fatalf("expected %v, got %v", tc.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q): %v", tc.input, err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("ParseDate(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestBuildDocument(t *testing.T) {
	data := readFixture(t, "testdata/sample.md")
	modified := time.Now().UTC()

	doc, err := BuildDocument("testdata/sample.md", "en", data, modified)
	if err != nil {
		t.Fatalf("BuildDocument: %v", err)
	}

	if doc.FilePath != "testdata/sample.md" {
		t.Fatalf("expected FilePath to be set, got %q", doc.FilePath)
	}
	if doc.Locale != "en" {
		t.Fatalf("expected Locale to be en, got %q", doc.Locale)
	}
	if doc.LastModified != modified {
		t.Fatalf("expected LastModified to equal the provided timestamp")
	}
	if len(doc.Body) == 0 {
		t.Fatalf("expected Body to contain markdown content")
	}
	if len(doc.BodyHTML) != 0 {
		t.Fatalf("expected BodyHTML to stay empty until rendering")
	}
}

func TestGoldmarkParser_Parse(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})

	html, err := parser.Parse([]byte("# Heading\n\nHello **world**"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	got := string(html)
	if !strings.Contains(got, "<h1") || !strings.Contains(got, "Heading</h1>") {
		t.Fatalf("expected rendered HTML to include <h1>Heading</h1>, got %q", got)
	}
	if !strings.Contains(got, "<strong>world</strong>") {
		t.Fatalf("expected rendered HTML to include <strong>, got %q", got)
	}
}

func TestGoldmarkParser_TableAndTaskList(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})

	source := "| a | b |\n| - | - |\n| 1 | 2 |\n\n- [x] done\n- [ ] open\n"
	html, err := parser.Parse([]byte(source))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	got := string(html)
	if !strings.Contains(got, "<table>") {
		t.Fatalf("expected table markup, got %q", got)
	}
	if !strings.Contains(got, "checkbox") {
		t.Fatalf("expected task list checkboxes, got %q", got)
	}
}

func TestGoldmarkParser_ParseWithOptions(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})

	html, err := parser.ParseWithOptions([]byte("line one\nline two"), interfaces.ParseOptions{
		HardWraps: true,
	})
	if err != nil {
		t.Fatalf("ParseWithOptions: %v", err)
	}

	if !strings.Contains(string(html), "line one<br>") {
		t.Fatalf("expected hard wraps in HTML output, got %q", string(html))
	}
}

func TestGoldmarkParser_SafeModeStripsRawHTML(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})

	source := []byte("before\n\n<script>alert(1)</script>\n\nafter")

	unsafe, err := parser.Parse(source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !strings.Contains(string(unsafe), "<script>") {
		t.Fatalf("expected raw HTML passthrough by default, got %q", string(unsafe))
	}

	safe, err := parser.ParseWithOptions(source, interfaces.ParseOptions{SafeMode: true})
	if err != nil {
		t.Fatalf("ParseWithOptions: %v", err)
	}
	if strings.Contains(string(safe), "<script>") {
		t.Fatalf("expected raw HTML suppressed in safe mode, got %q", string(safe))
	}
}

func readFixture(tb testing.TB, path string) []byte {
	tb.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		tb.Fatalf("read fixture %s: %v", path, err)
	}
	return data
}
