package generator

import (
	"strings"
	"time"

	"github.com/goliatone/go-press/internal/posts"
	"github.com/goliatone/go-press/internal/themes"
	gotheme "github.com/goliatone/go-theme"
)

// TemplateContext captures the data contract passed to TemplateRenderer implementations.
type TemplateContext struct {
	Site    SiteMetadata
	Page    PageRenderingContext
	Build   BuildMetadata
	Theme   ThemeContext
	Helpers TemplateHelpers
}

// SiteMetadata exposes locale-aware site information required by templates.
type SiteMetadata struct {
	BaseURL       string
	DefaultLocale string
	Locales       []LocaleSpec
	Metadata      map[string]any
}

// BuildMetadata surfaces high level build information to templates.
type BuildMetadata struct {
	GeneratedAt time.Time
	Options     BuildOptions
}

// PageRenderingContext contains the resolved data for a single page/locale
// combination. Post and Translation are set for post and page kinds; Posts,
// Tag, and Pagination serve index and tag pages.
type PageRenderingContext struct {
	Kind        string
	Post        *posts.Post
	Translation *posts.PostTranslation
	Posts       []PostRef
	Tag         string
	Pagination  *Pagination
	Template    *themes.Template
	Theme       *themes.Theme
	Route       string
	Title       string
	Summary     string
	Locale      LocaleSpec
	Metadata    DependencyMetadata
}

// ThemeContext surfaces design tokens and partial lookups to templates. When
// a go-theme manifest is present the selection drives the values; otherwise
// the stored theme config supplies the tokens.
type ThemeContext struct {
	Name      string
	Variant   string
	Tokens    map[string]string
	CSSVars   map[string]string
	Partials  map[string]string
	AssetURL  func(string) string
	Template  func(string, string) string
	Selection *gotheme.Selection
}

// TemplateHelpers exposes convenience helpers for template authors.
type TemplateHelpers struct {
	locale        LocaleSpec
	defaultLocale string
	baseURL       string
}

func newTemplateHelpers(defaultLocale string, locale LocaleSpec, baseURL string) TemplateHelpers {
	return TemplateHelpers{
		locale:        locale,
		defaultLocale: defaultLocale,
		baseURL:       strings.TrimRight(baseURL, "/"),
	}
}

// Locale returns the active locale code.
func (h TemplateHelpers) Locale() string {
	return h.locale.Code
}

// IsLocale reports whether the provided locale code matches the active locale.
func (h TemplateHelpers) IsLocale(code string) bool {
	return strings.EqualFold(strings.TrimSpace(code), h.locale.Code)
}

// IsDefaultLocale reports whether the current locale matches the configured default.
func (h TemplateHelpers) IsDefaultLocale() bool {
	return strings.EqualFold(h.locale.Code, h.defaultLocale)
}

// BaseURL returns the configured site base URL.
func (h TemplateHelpers) BaseURL() string {
	return h.baseURL
}

// WithBaseURL prefixes the provided path with the configured base URL.
func (h TemplateHelpers) WithBaseURL(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return h.baseURL
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if h.baseURL == "" {
		return path
	}
	return h.baseURL + path
}

// LocalePrefix returns the locale aware prefix for paths.
func (h TemplateHelpers) LocalePrefix() string {
	if h.IsDefaultLocale() {
		return ""
	}
	return "/" + strings.TrimPrefix(strings.TrimSpace(h.locale.Code), "/")
}

// FormatDate formats a time.Time or *time.Time with the given layout.
// Nil and zero values render as the empty string.
func (h TemplateHelpers) FormatDate(value any, layout string) string {
	var ts time.Time
	switch typed := value.(type) {
	case time.Time:
		ts = typed
	case *time.Time:
		if typed == nil {
			return ""
		}
		ts = *typed
	default:
		return ""
	}
	if ts.IsZero() {
		return ""
	}
	if strings.TrimSpace(layout) == "" {
		layout = "January 2, 2006"
	}
	return ts.Format(layout)
}

func buildThemeContext(theme *themes.Theme, selection *gotheme.Selection, cfg ThemingConfig) ThemeContext {
	out := ThemeContext{
		Tokens:   map[string]string{},
		CSSVars:  map[string]string{},
		Partials: map[string]string{},
		AssetURL: func(asset string) string { return assetHref(asset) },
		Template: func(_ string, fallback string) string { return fallback },
	}
	if theme != nil {
		out.Name = theme.Name
		out.Tokens = cloneTokens(theme.Config.Tokens)
		out.CSSVars = cssVariables(out.Tokens, cfg.CSSVariablePrefix)
	}
	if selection == nil {
		out.Variant = strings.TrimSpace(cfg.DefaultVariant)
		return out
	}

	out.Name = selection.Theme
	out.Variant = selection.Variant
	out.Tokens = selection.Tokens()
	out.CSSVars = selection.CSSVariables(cfg.CSSVariablePrefix)
	out.Partials = selection.Partials(cfg.PartialFallbacks)
	out.AssetURL = func(key string) string {
		if url, ok := selection.Asset(key); ok && strings.TrimSpace(url) != "" {
			return url
		}
		return assetHref(key)
	}
	out.Template = selection.Template
	out.Selection = selection
	return out
}

// assetHref maps a copied asset path onto its href within the output tree.
func assetHref(asset string) string {
	asset = strings.TrimLeft(strings.TrimSpace(asset), "/")
	if asset == "" {
		return ""
	}
	return "/assets/" + asset
}

func cssVariables(tokens map[string]string, prefix string) map[string]string {
	if len(tokens) == 0 {
		return map[string]string{}
	}
	prefix = strings.TrimSpace(prefix)
	vars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		name := "--" + key
		if prefix != "" {
			name = "--" + prefix + "-" + key
		}
		vars[name] = value
	}
	return vars
}

func cloneTokens(tokens map[string]string) map[string]string {
	if len(tokens) == 0 {
		return map[string]string{}
	}
	cloned := make(map[string]string, len(tokens))
	for key, value := range tokens {
		cloned[key] = value
	}
	return cloned
}

// RenderedPage captures the rendered HTML output for a page.
type RenderedPage struct {
	Kind     string
	Slug     string
	Locale   string
	Route    string
	Output   string
	Template string
	HTML     string
	Metadata DependencyMetadata
	Duration time.Duration
	Checksum string
}

// RenderDiagnostic records rendering timing and errors for individual pages.
type RenderDiagnostic struct {
	Kind     string
	Slug     string
	Locale   string
	Route    string
	Template string
	Duration time.Duration
	Skipped  bool
	Err      error
}

type renderOutcome struct {
	page       RenderedPage
	diagnostic RenderDiagnostic
	err        error
	skipped    bool
}
