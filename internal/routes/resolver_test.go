package routes

import (
	"errors"
	"testing"
)

func newTestResolver() *Resolver {
	return NewResolver(Config{
		BaseURL:       "https://blog.example.com/",
		DefaultLocale: "en",
		Locales:       []string{"en", "es"},
	})
}

func TestResolverPostPath(t *testing.T) {
	r := newTestResolver()

	got, err := r.PostPath("en", "react-todo-app")
	if err != nil {
		t.Fatalf("post path: %v", err)
	}
	if got != "/posts/react-todo-app" {
		t.Fatalf("unexpected path %q", got)
	}

	got, err = r.PostPath("es", "react-todo-app")
	if err != nil {
		t.Fatalf("post path es: %v", err)
	}
	if got != "/es/posts/react-todo-app" {
		t.Fatalf("unexpected locale path %q", got)
	}
}

func TestResolverUnknownLocaleFallsBackToRoot(t *testing.T) {
	r := newTestResolver()

	got, err := r.PostPath("fr", "react-todo-app")
	if err != nil {
		t.Fatalf("post path fr: %v", err)
	}
	if got != "/posts/react-todo-app" {
		t.Fatalf("expected root path for unknown locale, got %q", got)
	}
}

func TestResolverIndexAndTagPaths(t *testing.T) {
	r := newTestResolver()

	index, err := r.IndexPath("en")
	if err != nil {
		t.Fatalf("index path: %v", err)
	}
	if index != "/" {
		t.Fatalf("unexpected index path %q", index)
	}

	indexES, err := r.IndexPath("es")
	if err != nil {
		t.Fatalf("index path es: %v", err)
	}
	if indexES != "/es" {
		t.Fatalf("unexpected locale index path %q", indexES)
	}

	tag, err := r.TagPath("en", "react")
	if err != nil {
		t.Fatalf("tag path: %v", err)
	}
	if tag != "/tags/react" {
		t.Fatalf("unexpected tag path %q", tag)
	}
}

func TestResolverURLJoinsBase(t *testing.T) {
	r := newTestResolver()

	got, err := r.URL(RoutePost, "es", map[string]string{"slug": "pandas-pytest-testing"})
	if err != nil {
		t.Fatalf("url: %v", err)
	}
	if got != "https://blog.example.com/es/posts/pandas-pytest-testing" {
		t.Fatalf("unexpected url %q", got)
	}

	bare := NewResolver(Config{DefaultLocale: "en"})
	got, err = bare.URL(RouteIndex, "en", nil)
	if err != nil {
		t.Fatalf("bare url: %v", err)
	}
	if got != "/" {
		t.Fatalf("expected relative path without base url, got %q", got)
	}
}

func TestResolverCustomPatterns(t *testing.T) {
	r := NewResolver(Config{
		DefaultLocale: "en",
		Patterns: map[string]string{
			RoutePost: "/writing/:slug",
		},
	})

	got, err := r.PostPath("en", "jwt-vs-sessions")
	if err != nil {
		t.Fatalf("post path: %v", err)
	}
	if got != "/writing/jwt-vs-sessions" {
		t.Fatalf("unexpected custom path %q", got)
	}
}

func TestResolverUnknownRoute(t *testing.T) {
	r := newTestResolver()

	if _, err := r.Path("category", "en", nil); !errors.Is(err, ErrRouteUnknown) {
		t.Fatalf("expected ErrRouteUnknown, got %v", err)
	}
	if r.Has("category") {
		t.Fatalf("expected Has to report unknown route")
	}
	if !r.Has(RouteTag) {
		t.Fatalf("expected Has to report configured route")
	}
}
