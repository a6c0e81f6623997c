package integrity

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
)

func page(body string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(`<html><body>` + body + `</body></html>`)}
}

// linksOnly narrows a check to the audit of built output links.
var linksOnly = Options{SkipFrontMatter: true, SkipHTML: true}

func TestResolveLinksInternal(t *testing.T) {
	output := fstest.MapFS{
		"index.html": page(`<a href="/posts/react-todo-app/">React</a>
<a href="about.html">About</a>
<a href="#setup">setup</a>
<a href="mailto:dana@example.com">mail</a>
<a href="tel:+15551234567">call</a>
<link rel="stylesheet" href="/assets/site.css">
<script src="/assets/app.js"></script>`),
		"about.html": page(`<a href="/">home</a><img src="assets/logo.png" alt="">`),
		"posts/react-todo-app/index.html": page(`<a href="../../about.html">about</a>
<a href="../redux-toolkit-notes/">next</a>`),
		"posts/redux-toolkit-notes/index.html": page(`<a href="/">home</a>`),
		"assets/site.css":                      {Data: []byte(`body {}`)},
		"assets/app.js":                        {Data: []byte(`export {}`)},
		"assets/logo.png":                      {Data: []byte{0x89, 0x50}},
	}
	svc := NewService(Config{}, Dependencies{Output: output})

	report, err := svc.Check(context.Background(), linksOnly)
	if err != nil {
		t.Fatalf("unexpected check error: %v", err)
	}
	if len(report.Issues) != 0 {
		t.Fatalf("expected no issues, got %+v", report.Issues)
	}
	// Fragments and mailto/tel links never count as checked.
	if report.CheckedLinks != 9 {
		t.Fatalf("expected 9 checked links, got %d", report.CheckedLinks)
	}
	if report.CheckedFiles != 7 {
		t.Fatalf("expected 7 checked files, got %d", report.CheckedFiles)
	}
	if report.ExternalLinks != 0 {
		t.Fatalf("expected no external links checked, got %d", report.ExternalLinks)
	}
}

func TestResolveLinksBrokenInternal(t *testing.T) {
	output := fstest.MapFS{
		"index.html": page(`<a href="/posts/missing-tutorial/">gone</a><img src="assets/hero.png" alt="">`),
	}
	svc := NewService(Config{}, Dependencies{Output: output})

	report, err := svc.Check(context.Background(), linksOnly)
	if err != nil {
		t.Fatalf("unexpected check error: %v", err)
	}
	if !report.HasErrors() {
		t.Fatal("expected broken links to be errors")
	}
	if got := report.ErrorCount(); got != 2 {
		t.Fatalf("expected 2 errors, got %d: %+v", got, report.Issues)
	}

	assertIssue(t, report.Issues, "/posts/missing-tutorial/", SeverityError, "<a> target not found")
	assertIssue(t, report.Issues, "assets/hero.png", SeverityError, "<img> target not found")
}

func TestResolveLinksBaseURL(t *testing.T) {
	output := fstest.MapFS{
		"index.html": page(`<a href="https://blog.example.com">root</a>
<a href="https://blog.example.com/about/">about</a>
<a href="https://blog.example.com/gone/">gone</a>
<a href="//cdn.example.net/lib.js">cdn</a>`),
		"about/index.html": page(`<a href="/">home</a>`),
	}
	svc := NewService(Config{BaseURL: "https://blog.example.com/"}, Dependencies{Output: output})

	report, err := svc.Check(context.Background(), linksOnly)
	if err != nil {
		t.Fatalf("unexpected check error: %v", err)
	}
	// Absolute links under the base URL audit as internal paths; the bare
	// base resolves to the site root.
	if got := report.ErrorCount(); got != 1 {
		t.Fatalf("expected 1 error, got %d: %+v", got, report.Issues)
	}
	assertIssue(t, report.Issues, "https://blog.example.com/gone/", SeverityError, "target not found")

	if report.CheckedLinks != 5 {
		t.Fatalf("expected 5 checked links, got %d", report.CheckedLinks)
	}
	// The protocol relative CDN link stays external and is left unprobed.
	if report.ExternalLinks != 0 {
		t.Fatalf("expected no external probes, got %d", report.ExternalLinks)
	}
}

func TestResolveLinksMalformedURL(t *testing.T) {
	output := fstest.MapFS{
		"index.html": page(`<a href="/posts/%zz">bad escape</a>`),
	}
	svc := NewService(Config{}, Dependencies{Output: output})

	report, err := svc.Check(context.Background(), linksOnly)
	if err != nil {
		t.Fatalf("unexpected check error: %v", err)
	}
	if got := report.ErrorCount(); got != 1 {
		t.Fatalf("expected 1 error, got %d: %+v", got, report.Issues)
	}
	if !strings.Contains(report.Issues[0].Message, "malformed url in <a>") {
		t.Fatalf("unexpected message %q", report.Issues[0].Message)
	}
	if report.CheckedLinks != 1 {
		t.Fatalf("expected malformed link to count as checked, got %d", report.CheckedLinks)
	}
}

func TestResolveInternalTargets(t *testing.T) {
	files := map[string]struct{}{
		"index.html":                {},
		"about.html":                {},
		"about/index.html":          {},
		"assets/app.js":             {},
		"posts/react-todo-app/x.js": {},
		"posts/b/index.html":        {},
	}

	tests := []struct {
		name   string
		from   string
		target string
		want   bool
	}{
		{"site root", "about.html", "/", true},
		{"exact file", "index.html", "/about.html", true},
		{"directory with index", "index.html", "/about", true},
		{"directory with slash", "index.html", "/about/", true},
		{"asset", "index.html", "/assets/app.js", true},
		{"relative sibling", "posts/react-todo-app/index.html", "x.js", true},
		{"relative directory", "posts/a/index.html", "../b/", true},
		{"relative up to file", "posts/a/index.html", "../../about.html", true},
		{"escapes the root", "index.html", "../outside.html", false},
		{"missing file", "index.html", "/missing.html", false},
		{"missing directory index", "index.html", "/posts/react-todo-app/", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := resolveInternal(tc.from, tc.target, files); got != tc.want {
				t.Fatalf("resolveInternal(%q, %q) = %v, want %v", tc.from, tc.target, got, tc.want)
			}
		})
	}
}

type requestLog struct {
	mu      sync.Mutex
	methods map[string][]string
	agents  []string
}

func (l *requestLog) record(r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.methods == nil {
		l.methods = map[string][]string{}
	}
	l.methods[r.URL.Path] = append(l.methods[r.URL.Path], r.Method)
	l.agents = append(l.agents, r.UserAgent())
}

func (l *requestLog) byPath(path string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.methods[path]...)
}

func (l *requestLog) total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, methods := range l.methods {
		n += len(methods)
	}
	return n
}

func newLinkServer(t *testing.T) (*httptest.Server, *requestLog) {
	t.Helper()
	log := &requestLog{}
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		log.record(r)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		log.record(r)
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/head-fallback", func(w http.ResponseWriter, r *http.Request) {
		log.record(r)
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, log
}

func TestCheckExternalLinks(t *testing.T) {
	srv, log := newLinkServer(t)

	output := fstest.MapFS{
		"index.html": page(fmt.Sprintf(`<a href="%s/ok">ok</a>
<a href="%s/missing">missing</a>
<a href="%s/head-fallback">fallback</a>`, srv.URL, srv.URL, srv.URL)),
		"about.html": page(fmt.Sprintf(`<a href="%s/ok">ok again</a>`, srv.URL)),
	}
	svc := NewService(Config{}, Dependencies{Output: output, Client: srv.Client()})

	opts := linksOnly
	opts.CheckExternal = true
	report, err := svc.Check(context.Background(), opts)
	if err != nil {
		t.Fatalf("unexpected check error: %v", err)
	}

	if report.CheckedLinks != 4 {
		t.Fatalf("expected 4 checked links, got %d", report.CheckedLinks)
	}
	// Duplicate targets probe once.
	if report.ExternalLinks != 3 {
		t.Fatalf("expected 3 unique external links, got %d", report.ExternalLinks)
	}
	if len(log.byPath("/ok")) != 1 {
		t.Fatalf("expected a single probe of /ok, got %v", log.byPath("/ok"))
	}

	// Failures downgrade to warnings so flaky hosts cannot fail a build.
	if report.HasErrors() {
		t.Fatalf("external issues must stay warnings, got %+v", report.Issues)
	}
	if got := report.WarningCount(); got != 1 {
		t.Fatalf("expected 1 warning, got %d: %+v", got, report.Issues)
	}
	warning := report.Issues[0]
	if warning.Ref != srv.URL+"/missing" || warning.Message != "external link returned HTTP 404" {
		t.Fatalf("unexpected warning %+v", warning)
	}

	if got := log.byPath("/head-fallback"); len(got) != 2 || got[0] != http.MethodHead || got[1] != http.MethodGet {
		t.Fatalf("expected HEAD then GET fallback, got %v", got)
	}

	for _, agent := range log.agents {
		if !strings.Contains(agent, "go-press") {
			t.Fatalf("expected self-identifying user agent, got %q", agent)
		}
	}
}

func TestCheckExternalLinksOffByDefault(t *testing.T) {
	srv, log := newLinkServer(t)

	output := fstest.MapFS{
		"index.html": page(fmt.Sprintf(`<a href="%s/ok">ok</a>`, srv.URL)),
	}
	svc := NewService(Config{}, Dependencies{Output: output, Client: srv.Client()})

	report, err := svc.Check(context.Background(), linksOnly)
	if err != nil {
		t.Fatalf("unexpected check error: %v", err)
	}
	if report.ExternalLinks != 0 || len(report.Issues) != 0 {
		t.Fatalf("expected untouched externals, got %+v", report)
	}
	if log.total() != 0 {
		t.Fatalf("expected no outbound requests, got %d", log.total())
	}
}

func TestCheckExternalLinksUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	dead := srv.URL
	srv.Close()

	output := fstest.MapFS{
		"index.html": page(fmt.Sprintf(`<a href="%s/archived">archived</a>`, dead)),
	}
	cfg := Config{External: ExternalConfig{Enabled: true}}
	svc := NewService(cfg, Dependencies{Output: output})

	report, err := svc.Check(context.Background(), linksOnly)
	if err != nil {
		t.Fatalf("unexpected check error: %v", err)
	}
	if report.HasErrors() {
		t.Fatalf("unreachable links must stay warnings, got %+v", report.Issues)
	}
	if got := report.WarningCount(); got != 1 {
		t.Fatalf("expected 1 warning, got %d: %+v", got, report.Issues)
	}
	if !strings.Contains(report.Issues[0].Message, "external link unreachable") {
		t.Fatalf("unexpected message %q", report.Issues[0].Message)
	}
}
