package gotemplate_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-press/internal/adapters/gotemplate"
)

type postData struct {
	Title string
	Body  string
	Tags  []string
	When  time.Time
}

func writeTemplate(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", rel, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func newThemeDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTemplate(t, dir, "partials/head.html", `<head><title>{{.Title}}</title></head>`)
	writeTemplate(t, dir, "templates/post.html", `{{template "partials/head.html" .}}<article data-tags="{{join .Tags ", "}}"><h1>{{.Title}}</h1>{{safeHTML .Body}}<time>{{formatDate .When "2006-01-02"}}</time></article>`)
	writeTemplate(t, dir, "templates/index.html", `<ul>{{range .Tags}}<li>{{.}}</li>{{end}}</ul>`)
	return dir
}

func TestNewValidatesDirectory(t *testing.T) {
	if _, err := gotemplate.New(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing directory")
	}

	file := filepath.Join(t.TempDir(), "plain.html")
	if err := os.WriteFile(file, []byte("<html></html>"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := gotemplate.New(file); err == nil || !strings.Contains(err.Error(), "not a directory") {
		t.Fatalf("expected directory error, got %v", err)
	}
}

func TestRenderTemplateResolvesNestedNames(t *testing.T) {
	renderer, err := gotemplate.New(newThemeDir(t))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	data := postData{
		Title: "Session Auth with Express",
		Body:  "<p>Use express-session with a persistent store.</p>",
		Tags:  []string{"express", "node"},
		When:  time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	html, err := renderer.RenderTemplate("templates/post.html", data)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	for _, want := range []string{
		`<head><title>Session Auth with Express</title></head>`,
		`<h1>Session Auth with Express</h1>`,
		`<p>Use express-session with a persistent store.</p>`,
		`<time>2024-03-01</time>`,
		`data-tags="express, node"`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("output missing %q:\n%s", want, html)
		}
	}

	// The base name resolves the same file when no sibling claims it.
	alias, err := renderer.RenderTemplate("post.html", data)
	if err != nil {
		t.Fatalf("render alias: %v", err)
	}
	if alias != html {
		t.Fatalf("alias output differs:\n%s\n---\n%s", alias, html)
	}
}

func TestRenderTemplateUnknownName(t *testing.T) {
	renderer, err := gotemplate.New(newThemeDir(t))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if _, err := renderer.RenderTemplate("templates/archive.html", nil); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestRenderTemplateWritesToWriter(t *testing.T) {
	renderer, err := gotemplate.New(newThemeDir(t))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	var buffer bytes.Buffer
	out, err := renderer.RenderTemplate("templates/index.html", postData{Tags: []string{"react"}}, &buffer)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	if out != "" {
		t.Fatalf("expected empty return when writer supplied, got %q", out)
	}
	if got := buffer.String(); !strings.Contains(got, "<li>react</li>") {
		t.Fatalf("unexpected writer output %q", got)
	}
}

func TestRenderStringAppliesFuncs(t *testing.T) {
	renderer, err := gotemplate.New(newThemeDir(t))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := renderer.RenderString(`{{safeHTML .Body}} on {{formatDate .When "Jan 2"}}`, postData{
		Body: "<em>Redux Toolkit</em>",
		When: time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("render string: %v", err)
	}
	if out != "<em>Redux Toolkit</em> on May 12" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestFormatDateHandlesNilAndZero(t *testing.T) {
	renderer, err := gotemplate.New(newThemeDir(t))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := renderer.RenderString(`[{{formatDate .Published "2006"}}]`, struct{ Published *time.Time }{})
	if err != nil {
		t.Fatalf("render string: %v", err)
	}
	if out != "[]" {
		t.Fatalf("expected empty date, got %q", out)
	}
}

func TestRegisterFilter(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "templates/post.html", `{{shout .Title}}`)

	renderer, err := gotemplate.New(dir)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if err := renderer.RegisterFilter("shout", func(input any, _ any) (any, error) {
		text, _ := input.(string)
		return strings.ToUpper(text), nil
	}); err != nil {
		t.Fatalf("register filter: %v", err)
	}

	out, err := renderer.RenderTemplate("templates/post.html", postData{Title: "hello"})
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	if out != "HELLO" {
		t.Fatalf("unexpected output %q", out)
	}

	// The template set is parsed on first render; late filters cannot attach.
	if err := renderer.RegisterFilter("late", func(input any, _ any) (any, error) { return input, nil }); err == nil {
		t.Fatal("expected error registering filter after first render")
	}
}

func TestRegisterFilterWithParam(t *testing.T) {
	renderer, err := gotemplate.New(newThemeDir(t))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if err := renderer.RegisterFilter("truncate", func(input any, param any) (any, error) {
		text, _ := input.(string)
		limit, _ := param.(int)
		if limit > 0 && len(text) > limit {
			return text[:limit], nil
		}
		return text, nil
	}); err != nil {
		t.Fatalf("register filter: %v", err)
	}
	out, err := renderer.RenderString(`{{truncate .Title 7}}`, postData{Title: "Building a To-Do App"})
	if err != nil {
		t.Fatalf("render string: %v", err)
	}
	if out != "Buildin" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestGlobalContext(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "templates/index.html", `<footer>{{global "tagline"}}</footer>`)

	renderer, err := gotemplate.New(dir)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if err := renderer.GlobalContext(map[string]any{"tagline": "Notes on web development"}); err != nil {
		t.Fatalf("global context: %v", err)
	}

	out, err := renderer.RenderTemplate("templates/index.html", nil)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	if !strings.Contains(out, "Notes on web development") {
		t.Fatalf("unexpected output %q", out)
	}

	// Globals stay live after parsing.
	if err := renderer.GlobalContext(map[string]string{"tagline": "Shipping logs"}); err != nil {
		t.Fatalf("update global context: %v", err)
	}
	out, err = renderer.RenderTemplate("templates/index.html", nil)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	if !strings.Contains(out, "Shipping logs") {
		t.Fatalf("unexpected output %q", out)
	}

	if err := renderer.GlobalContext("tagline"); err == nil {
		t.Fatal("expected error for non-map global context")
	}
}
