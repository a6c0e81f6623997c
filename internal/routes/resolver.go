package routes

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	urlkit "github.com/goliatone/go-urlkit"
)

// Route names understood by the resolver. Patterns for each can be
// overridden through Config.Patterns.
const (
	RoutePost  = "post"
	RoutePage  = "page"
	RouteTag   = "tag"
	RouteIndex = "index"
)

const siteGroup = "site"

var defaultPatterns = map[string]string{
	RoutePost:  "/posts/:slug",
	RoutePage:  "/:slug",
	RouteTag:   "/tags/:tag",
	RouteIndex: "/",
}

// ErrRouteUnknown indicates a route name with no configured pattern.
var ErrRouteUnknown = errors.New("routes: unknown route")

// Config describes how site URLs are laid out. The default locale lives at
// the root; every other locale is served under a /<code> prefix.
type Config struct {
	BaseURL       string
	DefaultLocale string
	Locales       []string
	Patterns      map[string]string
}

// Resolver builds site-relative paths and absolute URLs for the pages the
// build emits. It is safe for concurrent use.
type Resolver struct {
	manager       *urlkit.RouteManager
	baseURL       string
	defaultLocale string
	localeGroups  map[string]string
	patterns      map[string]string

	mu         sync.RWMutex
	groupCache map[string]*urlkit.Group
}

// NewResolver constructs a resolver from the site layout configuration.
func NewResolver(cfg Config) *Resolver {
	patterns := make(map[string]string, len(defaultPatterns))
	for name, pattern := range defaultPatterns {
		patterns[name] = pattern
	}
	for name, pattern := range cfg.Patterns {
		name = strings.TrimSpace(strings.ToLower(name))
		pattern = strings.TrimSpace(pattern)
		if name == "" || pattern == "" {
			continue
		}
		patterns[name] = pattern
	}

	defaultLocale := strings.ToLower(strings.TrimSpace(cfg.DefaultLocale))
	if defaultLocale == "" {
		defaultLocale = "en"
	}

	root := urlkit.GroupConfig{
		Name:  siteGroup,
		Paths: map[string]string{},
	}
	for name, pattern := range patterns {
		root.Paths[name] = pattern
	}

	localeGroups := map[string]string{}
	for _, code := range cfg.Locales {
		code = strings.ToLower(strings.TrimSpace(code))
		if code == "" || code == defaultLocale {
			continue
		}
		child := urlkit.GroupConfig{
			Name:  code,
			Path:  "/" + code,
			Paths: map[string]string{},
		}
		for name, pattern := range patterns {
			child.Paths[name] = pattern
		}
		root.Groups = append(root.Groups, child)
		localeGroups[code] = siteGroup + "." + code
	}

	return &Resolver{
		manager:       urlkit.NewRouteManager(&urlkit.Config{Groups: []urlkit.GroupConfig{root}}),
		baseURL:       strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		defaultLocale: defaultLocale,
		localeGroups:  localeGroups,
		patterns:      patterns,
		groupCache:    make(map[string]*urlkit.Group),
	}
}

// DefaultLocale reports the locale served from the site root.
func (r *Resolver) DefaultLocale() string {
	return r.defaultLocale
}

// BaseURL reports the configured site base URL without a trailing slash.
func (r *Resolver) BaseURL() string {
	return r.baseURL
}

// Has reports whether a pattern is configured for the route name.
func (r *Resolver) Has(route string) bool {
	_, ok := r.patterns[strings.ToLower(strings.TrimSpace(route))]
	return ok
}

// Path builds the site-relative path for a route in the given locale.
// Non-default locales are prefixed with their code. Trailing slashes are
// trimmed so equal pages always produce equal paths.
func (r *Resolver) Path(route, locale string, params map[string]string) (string, error) {
	route = strings.ToLower(strings.TrimSpace(route))
	if _, ok := r.patterns[route]; !ok {
		return "", fmt.Errorf("%w: %q", ErrRouteUnknown, route)
	}

	groupPath := siteGroup
	localeKey := strings.ToLower(strings.TrimSpace(locale))
	if path, ok := r.localeGroups[localeKey]; ok {
		groupPath = path
	}

	group, err := r.groupForPath(groupPath)
	if err != nil {
		return "", err
	}

	builder, err := safeBuilder(group, route)
	if err != nil {
		return "", err
	}
	for key, val := range params {
		builder.WithParam(key, val)
	}

	built, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("routes: build %s: %w", route, err)
	}
	return canonicalPath(built), nil
}

// URL builds the absolute URL for a route by joining the base URL onto the
// site-relative path. Without a base URL the relative path is returned.
func (r *Resolver) URL(route, locale string, params map[string]string) (string, error) {
	path, err := r.Path(route, locale, params)
	if err != nil {
		return "", err
	}
	if r.baseURL == "" {
		return path, nil
	}
	return r.baseURL + path, nil
}

// PostPath returns the site-relative path for a post detail page.
func (r *Resolver) PostPath(locale, slug string) (string, error) {
	return r.Path(RoutePost, locale, map[string]string{"slug": slug})
}

// PagePath returns the site-relative path for a standalone page.
func (r *Resolver) PagePath(locale, slug string) (string, error) {
	return r.Path(RoutePage, locale, map[string]string{"slug": slug})
}

// TagPath returns the site-relative path for a tag archive.
func (r *Resolver) TagPath(locale, tag string) (string, error) {
	return r.Path(RouteTag, locale, map[string]string{"tag": tag})
}

// IndexPath returns the site-relative path for the post index.
func (r *Resolver) IndexPath(locale string) (string, error) {
	return r.Path(RouteIndex, locale, nil)
}

func (r *Resolver) groupForPath(path string) (*urlkit.Group, error) {
	r.mu.RLock()
	group, ok := r.groupCache[path]
	r.mu.RUnlock()
	if ok {
		return group, nil
	}

	parts := strings.Split(path, ".")
	root, err := lookupGroup(r.manager, parts[0])
	if err != nil {
		return nil, err
	}
	current := root
	for _, part := range parts[1:] {
		current, err = lookupChildGroup(current, part)
		if err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	r.groupCache[path] = current
	r.mu.Unlock()
	return current, nil
}

// canonicalPath trims trailing slashes (keeping the bare root) so locale
// index pages and link targets compare equal everywhere.
func canonicalPath(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if path == "" {
		return "/"
	}
	return path
}

// The urlkit lookups panic on unknown names, so the helpers below recover
// into named error returns.

func safeBuilder(group *urlkit.Group, route string) (builder *urlkit.Builder, err error) {
	if group == nil {
		return nil, fmt.Errorf("routes: urlkit group is nil")
	}
	defer func() {
		if rec := recover(); rec != nil {
			builder = nil
			err = fmt.Errorf("routes: urlkit builder panic: %v", rec)
		}
	}()
	builder = group.Builder(route)
	return builder, nil
}

func lookupGroup(manager *urlkit.RouteManager, name string) (group *urlkit.Group, err error) {
	if manager == nil {
		return nil, fmt.Errorf("routes: route manager not configured")
	}
	defer func() {
		if rec := recover(); rec != nil {
			group = nil
			err = fmt.Errorf("routes: route group %q not found", name)
		}
	}()
	group = manager.Group(name)
	return group, nil
}

func lookupChildGroup(parent *urlkit.Group, name string) (group *urlkit.Group, err error) {
	if parent == nil {
		return nil, fmt.Errorf("routes: parent group is nil")
	}
	defer func() {
		if rec := recover(); rec != nil {
			group = nil
			err = fmt.Errorf("routes: child group %q not found", name)
		}
	}()
	group = parent.Group(name)
	return group, nil
}
