package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-press/internal/domain"
	"github.com/goliatone/go-press/internal/posts"
	"github.com/goliatone/go-press/internal/themes"
	gotheme "github.com/goliatone/go-theme"
	"github.com/google/uuid"
)

var (
	errPostsServiceRequired  = errors.New("generator: posts service is required")
	errThemesServiceRequired = errors.New("generator: themes service is required")
	errRoutesRequired        = errors.New("generator: route resolver is required")
	errLocaleLookupRequired  = errors.New("generator: locale lookup is required")
)

// Page kinds emitted by a build. Post and page kinds mirror the document
// kinds stored on posts; index and tag pages are synthesized per locale.
const (
	pageKindPost  = string(domain.KindPost)
	pageKindPage  = string(domain.KindPage)
	pageKindIndex = "index"
	pageKindTag   = "tag"
)

const defaultPageSize = 10

// BuildContext aggregates the localized page data required to execute a static build.
type BuildContext struct {
	GeneratedAt    time.Time
	DefaultLocale  string
	Locales        []LocaleSpec
	Pages          []*PageData
	Theme          *themes.Theme
	ThemeSelection *gotheme.Selection
	Diagnostics    []RenderDiagnostic
	Options        BuildOptions
}

// LocaleSpec captures resolved locale information for a build.
type LocaleSpec struct {
	Code      string
	LocaleID  uuid.UUID
	IsDefault bool
}

// PageData encapsulates everything needed to render one output document.
// Post and Translation are set for post/page kinds; Listing, Tag, and
// Pagination serve the synthesized index and tag pages.
type PageData struct {
	Kind        string
	Post        *posts.Post
	Translation *posts.PostTranslation
	Locale      LocaleSpec
	Route       string
	Title       string
	Summary     string
	Listing     []PostRef
	Tag         string
	Pagination  *Pagination
	Template    *themes.Template
	Metadata    DependencyMetadata
}

// Slug returns the post slug backing this page, or empty for synthesized pages.
func (d *PageData) Slug() string {
	if d == nil || d.Post == nil {
		return ""
	}
	return d.Post.Slug
}

// PostRef is a lightweight listing entry for index and tag pages.
type PostRef struct {
	Slug        string
	Title       string
	Summary     string
	Route       string
	Tags        []string
	Author      string
	PublishedAt *time.Time
	UpdatedAt   time.Time
}

// Pagination describes the position of an index page within its series.
type Pagination struct {
	Page       int
	PerPage    int
	TotalPages int
	TotalPosts int
	PrevRoute  string
	NextRoute  string
}

// DependencyMetadata tracks hashes and timestamps for incremental builds.
type DependencyMetadata struct {
	Sources      map[string]string
	Hash         string
	LastModified time.Time
}

func (s *service) loadContext(ctx context.Context, opts BuildOptions) (*BuildContext, error) {
	if s.deps.Posts == nil {
		return nil, errPostsServiceRequired
	}
	if s.deps.Themes == nil {
		return nil, errThemesServiceRequired
	}
	if s.deps.Routes == nil {
		return nil, errRoutesRequired
	}
	if s.deps.Locales == nil {
		return nil, errLocaleLookupRequired
	}

	localeSet, err := s.resolveLocales(ctx, opts)
	if err != nil {
		return nil, err
	}

	buildCtx := &BuildContext{
		GeneratedAt:   s.now(),
		DefaultLocale: localeSet.defaultCode,
		Locales:       localeSet.ordered,
		Options:       opts,
	}

	theme, err := s.deps.Themes.ActiveTheme(ctx)
	if err != nil {
		return nil, fmt.Errorf("generator: resolve active theme: %w", err)
	}
	buildCtx.Theme = theme

	if s.themeSelector != nil {
		selection, selErr := s.themeSelector.Selection(theme, s.cfg.Theming.DefaultVariant)
		if selErr != nil {
			// Themes without a go-theme manifest still build; tokens come
			// from the stored theme config instead.
			buildCtx.Diagnostics = append(buildCtx.Diagnostics, RenderDiagnostic{
				Kind: "theme",
				Err:  selErr,
			})
		} else {
			buildCtx.ThemeSelection = selection
		}
	}

	templates := newTemplateCache(s.deps.Themes, theme.ID)

	records, err := s.loadPosts(ctx, opts)
	if err != nil {
		return nil, err
	}

	var pageContexts []*PageData
	postPagesByLocale := map[string][]*PageData{}

	for _, record := range records {
		localized, diags, err := s.buildPostPages(ctx, record, localeSet, templates, theme)
		if err != nil {
			return nil, err
		}
		buildCtx.Diagnostics = append(buildCtx.Diagnostics, diags...)
		for _, data := range localized {
			pageContexts = append(pageContexts, data)
			if data.Kind == pageKindPost {
				postPagesByLocale[data.Locale.Code] = append(postPagesByLocale[data.Locale.Code], data)
			}
		}
	}

	for _, spec := range localeSet.ordered {
		indexPages, err := s.buildIndexPages(ctx, spec, postPagesByLocale[spec.Code], templates, theme)
		if err != nil {
			return nil, err
		}
		pageContexts = append(pageContexts, indexPages...)

		tagPages, err := s.buildTagPages(ctx, spec, postPagesByLocale[spec.Code], templates, theme)
		if err != nil {
			return nil, err
		}
		pageContexts = append(pageContexts, tagPages...)
	}

	buildCtx.Pages = pageContexts
	return buildCtx, nil
}

func (s *service) loadPosts(ctx context.Context, opts BuildOptions) ([]*posts.Post, error) {
	filter := posts.ListFilter{
		VisibleOnly:   !s.cfg.IncludeDrafts,
		IncludeFuture: s.cfg.IncludeFuture,
	}
	records, err := s.deps.Posts.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(opts.Slugs) == 0 {
		return records, nil
	}
	wanted := make(map[string]struct{}, len(opts.Slugs))
	for _, slug := range opts.Slugs {
		slug = strings.ToLower(strings.TrimSpace(slug))
		if slug != "" {
			wanted[slug] = struct{}{}
		}
	}
	var narrowed []*posts.Post
	for _, record := range records {
		if record == nil {
			continue
		}
		if _, ok := wanted[strings.ToLower(record.Slug)]; ok {
			narrowed = append(narrowed, record)
		}
	}
	return narrowed, nil
}

func (s *service) buildPostPages(
	ctx context.Context,
	record *posts.Post,
	locales localeSet,
	templates *templateCache,
	theme *themes.Theme,
) ([]*PageData, []RenderDiagnostic, error) {
	if record == nil {
		return nil, nil, nil
	}

	kind := string(domain.NormalizeKind(record.Kind))
	translations := indexTranslations(record.Translations)

	var localized []*PageData
	var diagnostics []RenderDiagnostic

	for _, spec := range locales.ordered {
		translation := translations[spec.LocaleID]
		if translation == nil {
			// No translation for this locale: the post simply does not
			// exist in that part of the site.
			continue
		}

		route, err := s.routeFor(kind, spec.Code, record.Slug)
		if err != nil {
			return nil, nil, err
		}

		template, fallback, err := templates.forKind(ctx, record.Template, kind)
		if err != nil {
			return nil, nil, err
		}
		if fallback != "" {
			diagnostics = append(diagnostics, RenderDiagnostic{
				Kind:     kind,
				Slug:     record.Slug,
				Locale:   spec.Code,
				Route:    route,
				Template: fallback,
				Err:      fmt.Errorf("generator: template %q not found for post %s, falling back to %q", record.Template, record.Slug, fallback),
			})
		}

		summary := ""
		if translation.Summary != nil {
			summary = strings.TrimSpace(*translation.Summary)
		}

		localized = append(localized, &PageData{
			Kind:        kind,
			Post:        record,
			Translation: translation,
			Locale:      spec,
			Route:       route,
			Title:       translation.Title,
			Summary:     summary,
			Template:    template,
			Metadata:    computePostMetadata(record, translation, route, template, theme),
		})
	}

	return localized, diagnostics, nil
}

func (s *service) buildIndexPages(
	ctx context.Context,
	spec LocaleSpec,
	postPages []*PageData,
	templates *templateCache,
	theme *themes.Theme,
) ([]*PageData, error) {
	refs := postRefs(postPages)
	perPage := s.cfg.PageSize
	if perPage <= 0 {
		perPage = defaultPageSize
	}
	totalPages := (len(refs) + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}

	template, _, err := templates.forKind(ctx, "", pageKindIndex)
	if err != nil {
		return nil, err
	}

	basePath, err := s.deps.Routes.IndexPath(spec.Code)
	if err != nil {
		return nil, err
	}

	var pages []*PageData
	for page := 1; page <= totalPages; page++ {
		lo := (page - 1) * perPage
		hi := lo + perPage
		if hi > len(refs) {
			hi = len(refs)
		}
		slice := append([]PostRef(nil), refs[lo:hi]...)

		pagination := &Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalPages: totalPages,
			TotalPosts: len(refs),
		}
		route := indexPageRoute(basePath, page)
		if page > 1 {
			pagination.PrevRoute = indexPageRoute(basePath, page-1)
		}
		if page < totalPages {
			pagination.NextRoute = indexPageRoute(basePath, page+1)
		}

		pages = append(pages, &PageData{
			Kind:       pageKindIndex,
			Locale:     spec,
			Route:      route,
			Listing:    slice,
			Pagination: pagination,
			Template:   template,
			Metadata:   computeListingMetadata(pageKindIndex, "", slice, pagination, route, template, theme),
		})
	}
	return pages, nil
}

func (s *service) buildTagPages(
	ctx context.Context,
	spec LocaleSpec,
	postPages []*PageData,
	templates *templateCache,
	theme *themes.Theme,
) ([]*PageData, error) {
	byTag := map[string][]*PageData{}
	for _, data := range postPages {
		if data == nil || data.Post == nil {
			continue
		}
		for _, tag := range data.Post.Tags {
			byTag[tag] = append(byTag[tag], data)
		}
	}
	if len(byTag) == 0 {
		return nil, nil
	}

	template, _, err := templates.forKind(ctx, "", pageKindTag)
	if err != nil {
		return nil, err
	}

	tags := make([]string, 0, len(byTag))
	for tag := range byTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	var pages []*PageData
	for _, tag := range tags {
		route, err := s.deps.Routes.TagPath(spec.Code, tag)
		if err != nil {
			return nil, err
		}
		refs := postRefs(byTag[tag])
		pages = append(pages, &PageData{
			Kind:     pageKindTag,
			Locale:   spec,
			Route:    route,
			Tag:      tag,
			Listing:  refs,
			Template: template,
			Metadata: computeListingMetadata(pageKindTag, tag, refs, nil, route, template, theme),
		})
	}
	return pages, nil
}

func (s *service) routeFor(kind, locale, slug string) (string, error) {
	if kind == pageKindPage {
		return s.deps.Routes.PagePath(locale, slug)
	}
	return s.deps.Routes.PostPath(locale, slug)
}

// indexPageRoute appends the pagination suffix for pages beyond the first.
func indexPageRoute(basePath string, page int) string {
	if page <= 1 {
		return basePath
	}
	base := strings.TrimRight(basePath, "/")
	return base + "/page/" + strconv.Itoa(page)
}

func postRefs(postPages []*PageData) []PostRef {
	refs := make([]PostRef, 0, len(postPages))
	for _, data := range postPages {
		if data == nil || data.Post == nil {
			continue
		}
		refs = append(refs, PostRef{
			Slug:        data.Post.Slug,
			Title:       data.Title,
			Summary:     data.Summary,
			Route:       data.Route,
			Tags:        append([]string(nil), data.Post.Tags...),
			Author:      data.Post.Author,
			PublishedAt: data.Post.PublishedAt,
			UpdatedAt:   data.Post.UpdatedAt,
		})
	}
	return refs
}

type localeSet struct {
	ordered     []LocaleSpec
	byID        map[uuid.UUID]LocaleSpec
	defaultCode string
	defaultID   uuid.UUID
}

func (s *service) resolveLocales(ctx context.Context, opts BuildOptions) (localeSet, error) {
	defaultLocale := strings.TrimSpace(s.cfg.DefaultLocale)
	if defaultLocale == "" {
		defaultLocale = "en"
	}

	requestedFromOpts := len(opts.Locales) > 0
	var baseRequested []string
	if requestedFromOpts {
		baseRequested = append([]string{}, opts.Locales...)
	} else if len(s.cfg.Locales) > 0 {
		baseRequested = append([]string{}, s.cfg.Locales...)
	}

	seen := map[string]struct{}{}
	var codes []string

	includeDefault := !requestedFromOpts

	if includeDefault {
		seen[strings.ToLower(defaultLocale)] = struct{}{}
		codes = append(codes, defaultLocale)
	}

	for _, candidate := range baseRequested {
		normalized := strings.TrimSpace(candidate)
		if normalized == "" {
			continue
		}
		lower := strings.ToLower(normalized)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		codes = append(codes, normalized)
	}

	if len(codes) == 0 {
		codes = append(codes, defaultLocale)
	}

	set := localeSet{
		byID:        make(map[uuid.UUID]LocaleSpec, len(codes)),
		defaultCode: defaultLocale,
	}

	for _, code := range codes {
		record, err := s.deps.Locales.GetByCode(ctx, code)
		if err != nil {
			return localeSet{}, err
		}
		spec := LocaleSpec{
			Code:      record.Code,
			LocaleID:  record.ID,
			IsDefault: strings.EqualFold(record.Code, defaultLocale),
		}
		if spec.IsDefault {
			set.defaultID = record.ID
		}
		set.ordered = append(set.ordered, spec)
		set.byID[record.ID] = spec
	}

	if set.defaultID == uuid.Nil {
		record, err := s.deps.Locales.GetByCode(ctx, defaultLocale)
		if err != nil {
			return localeSet{}, err
		}
		set.defaultID = record.ID
		if includeDefault {
			defaultSpec := LocaleSpec{
				Code:      record.Code,
				LocaleID:  record.ID,
				IsDefault: true,
			}
			if _, ok := set.byID[record.ID]; !ok {
				set.byID[record.ID] = defaultSpec
				set.ordered = append([]LocaleSpec{defaultSpec}, set.ordered...)
			}
		}
	}
	if includeDefault && len(set.ordered) > 0 && set.ordered[0].LocaleID != set.defaultID {
		set.ordered = reorderWithDefaultFirst(set.ordered, set.defaultID)
	}

	return set, nil
}

func reorderWithDefaultFirst(locales []LocaleSpec, defaultID uuid.UUID) []LocaleSpec {
	index := -1
	for i, spec := range locales {
		if spec.LocaleID == defaultID {
			index = i
			break
		}
	}
	if index <= 0 {
		return locales
	}
	defaultSpec := locales[index]
	remaining := append([]LocaleSpec{}, locales[:index]...)
	remaining = append(remaining, locales[index+1:]...)
	result := make([]LocaleSpec, 0, len(locales))
	result = append(result, defaultSpec)
	result = append(result, remaining...)
	return result
}

// templateCache memoizes template lookups per slug against the active theme.
type templateCache struct {
	service themes.Service
	themeID uuid.UUID
	entries map[string]*themes.Template
}

func newTemplateCache(service themes.Service, themeID uuid.UUID) *templateCache {
	return &templateCache{
		service: service,
		themeID: themeID,
		entries: map[string]*themes.Template{},
	}
}

// forKind resolves the template for a page kind: an explicit front matter
// override wins, then the kind slug, then the post template. The returned
// fallback slug is non-empty when an explicit override could not be found.
func (c *templateCache) forKind(ctx context.Context, override, kind string) (*themes.Template, string, error) {
	override = strings.ToLower(strings.TrimSpace(override))
	kind = strings.ToLower(strings.TrimSpace(kind))

	candidates := make([]string, 0, 3)
	if override != "" {
		candidates = append(candidates, override)
	}
	if kind != "" && kind != override {
		candidates = append(candidates, kind)
	}
	if override != pageKindPost && kind != pageKindPost {
		candidates = append(candidates, pageKindPost)
	}

	for i, slug := range candidates {
		template, err := c.bySlug(ctx, slug)
		if err != nil {
			return nil, "", err
		}
		if template == nil {
			continue
		}
		if override != "" && i > 0 {
			return template, slug, nil
		}
		return template, "", nil
	}
	return nil, "", nil
}

func (c *templateCache) bySlug(ctx context.Context, slug string) (*themes.Template, error) {
	if cached, ok := c.entries[slug]; ok {
		return cached, nil
	}
	template, err := c.service.GetTemplateBySlug(ctx, c.themeID, slug)
	if err != nil {
		if errors.Is(err, themes.ErrTemplateNotFound) || errors.Is(err, themes.ErrFeatureDisabled) {
			c.entries[slug] = nil
			return nil, nil
		}
		return nil, err
	}
	c.entries[slug] = template
	return template, nil
}

func indexTranslations(translations []*posts.PostTranslation) map[uuid.UUID]*posts.PostTranslation {
	result := make(map[uuid.UUID]*posts.PostTranslation, len(translations))
	for _, translation := range translations {
		if translation == nil {
			continue
		}
		result[translation.LocaleID] = translation
	}
	return result
}

func computePostMetadata(
	record *posts.Post,
	translation *posts.PostTranslation,
	route string,
	template *themes.Template,
	theme *themes.Theme,
) DependencyMetadata {
	sources := map[string]string{
		"post": joinParts(
			record.ID.String(),
			record.Slug,
			record.Kind,
			record.Status,
			record.Author,
			strings.Join(record.Tags, ","),
			record.UpdatedAt.UTC().Format(time.RFC3339Nano),
			timePointerValue(record.PublishedAt),
		),
		"translation": joinParts(
			translation.ID.String(),
			translation.Title,
			stringPointerValue(translation.Summary),
			translation.UpdatedAt.UTC().Format(time.RFC3339Nano),
			hashMap(translation.FrontMatter),
			computeHashFromString(translation.BodyHTML),
		),
		"route": route,
	}
	if template != nil {
		sources["template"] = joinParts(template.ID.String(), template.Name, template.UpdatedAt.UTC().Format(time.RFC3339Nano))
	}
	if theme != nil {
		sources["theme"] = joinParts(theme.ID.String(), theme.Name, theme.Version)
	}

	hash := hashSources(sources)
	lastModified := maxTime(record.UpdatedAt, translation.UpdatedAt)

	return DependencyMetadata{
		Sources:      sources,
		Hash:         hash,
		LastModified: lastModified,
	}
}

func computeListingMetadata(
	kind string,
	tag string,
	refs []PostRef,
	pagination *Pagination,
	route string,
	template *themes.Template,
	theme *themes.Theme,
) DependencyMetadata {
	entries := make([]string, 0, len(refs))
	lastModified := time.Time{}
	for _, ref := range refs {
		entries = append(entries, joinParts(
			ref.Slug,
			ref.Title,
			ref.Route,
			timePointerValue(ref.PublishedAt),
			ref.UpdatedAt.UTC().Format(time.RFC3339Nano),
		))
		lastModified = maxTime(lastModified, ref.UpdatedAt)
	}

	sources := map[string]string{
		"kind":    kind,
		"listing": hashStrings(entries),
		"route":   route,
	}
	if tag != "" {
		sources["tag"] = tag
	}
	if pagination != nil {
		sources["pagination"] = joinParts(strconv.Itoa(pagination.Page), strconv.Itoa(pagination.TotalPages))
	}
	if template != nil {
		sources["template"] = joinParts(template.ID.String(), template.Name, template.UpdatedAt.UTC().Format(time.RFC3339Nano))
	}
	if theme != nil {
		sources["theme"] = joinParts(theme.ID.String(), theme.Name, theme.Version)
		lastModified = maxTime(lastModified, theme.UpdatedAt)
	}

	return DependencyMetadata{
		Sources:      sources,
		Hash:         hashSources(sources),
		LastModified: lastModified,
	}
}

func joinParts(parts ...string) string {
	return strings.Join(parts, "|")
}

func timePointerValue(value *time.Time) string {
	if value == nil {
		return "nil"
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func stringPointerValue(value *string) string {
	if value == nil {
		return "nil"
	}
	return *value
}

func hashMap(input map[string]any) string {
	if len(input) == 0 {
		return ""
	}
	normalized := normalizeMap(input)
	encoded, err := json.Marshal(normalized)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}

func normalizeMap(input map[string]any) map[string]any {
	if len(input) == 0 {
		return nil
	}
	keys := make([]string, 0, len(input))
	for key := range input {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := make(map[string]any, len(input))
	for _, key := range keys {
		result[key] = normalizeValue(input[key])
	}
	return result
}

func normalizeValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return normalizeMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, elem := range typed {
			out[i] = normalizeValue(elem)
		}
		return out
	default:
		return typed
	}
}

func hashStrings(values []string) string {
	if len(values) == 0 {
		return ""
	}
	hasher := sha256.New()
	for _, value := range values {
		hasher.Write([]byte(value))
		hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

func hashSources(sources map[string]string) string {
	if len(sources) == 0 {
		return ""
	}
	keys := make([]string, 0, len(sources))
	for key := range sources {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	hasher := sha256.New()
	for _, key := range keys {
		hasher.Write([]byte(key))
		hasher.Write([]byte("="))
		hasher.Write([]byte(sources[key]))
		hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

func maxTime(times ...time.Time) time.Time {
	var max time.Time
	for _, t := range times {
		if t.After(max) {
			max = t
		}
	}
	return max
}
