package generator

import (
	"context"
	"fmt"
	"html"
	"path"
	"sort"
	"strings"
	"time"
)

const maxFeedItems = 100

type feedItem struct {
	Title       string
	Summary     string
	Link        string
	GUID        string
	Author      string
	Tags        []string
	PublishedAt time.Time
	UpdatedAt   time.Time
}

type feedDocument struct {
	Locale LocaleSpec
	Items  []feedItem
}

// buildFeedDocuments collects one feed per locale from the post pages in the
// build context. Listing pages and standalone pages never become feed items.
func (s *service) buildFeedDocuments(buildCtx *BuildContext) []feedDocument {
	if buildCtx == nil || len(buildCtx.Pages) == 0 {
		return nil
	}

	byLocale := make(map[string]*feedDocument)
	seen := make(map[string]map[string]struct{})

	for _, data := range buildCtx.Pages {
		if data == nil || data.Kind != pageKindPost || data.Post == nil || data.Translation == nil {
			continue
		}
		route := strings.TrimSpace(data.Route)
		if route == "" {
			continue
		}

		localeCode := data.Locale.Code
		doc := byLocale[localeCode]
		if doc == nil {
			doc = &feedDocument{Locale: data.Locale}
			byLocale[localeCode] = doc
			seen[localeCode] = map[string]struct{}{}
		}

		guid := fmt.Sprintf("%s:%s", data.Post.ID.String(), localeCode)
		if _, ok := seen[localeCode][guid]; ok {
			continue
		}
		seen[localeCode][guid] = struct{}{}

		title := strings.TrimSpace(data.Translation.Title)
		if title == "" {
			title = route
		}

		publishedAt := firstNonZeroTime(
			timePtrOrZero(data.Post.PublishedAt),
			data.Metadata.LastModified,
			data.Post.CreatedAt,
		)
		if publishedAt.IsZero() {
			publishedAt = buildCtx.GeneratedAt
		}

		updatedAt := firstNonZeroTime(
			data.Metadata.LastModified,
			data.Post.UpdatedAt,
			data.Translation.UpdatedAt,
			publishedAt,
		)

		doc.Items = append(doc.Items, feedItem{
			Title:       title,
			Summary:     feedSummary(data),
			Link:        absoluteURL(s.cfg.BaseURL, route),
			GUID:        guid,
			Author:      strings.TrimSpace(data.Post.Author),
			Tags:        append([]string(nil), data.Post.Tags...),
			PublishedAt: publishedAt,
			UpdatedAt:   updatedAt,
		})
	}

	docs := make([]feedDocument, 0, len(byLocale))
	for _, doc := range byLocale {
		if len(doc.Items) == 0 {
			continue
		}
		sortFeedItems(doc.Items)
		if len(doc.Items) > maxFeedItems {
			doc.Items = append([]feedItem(nil), doc.Items[:maxFeedItems]...)
		}
		docs = append(docs, *doc)
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Locale.Code < docs[j].Locale.Code
	})
	return docs
}

// sortFeedItems orders newest first, using UpdatedAt for undated items and
// the GUID to keep equal timestamps stable.
func sortFeedItems(items []feedItem) {
	sort.Slice(items, func(i, j int) bool {
		left := items[i].PublishedAt
		if left.IsZero() {
			left = items[i].UpdatedAt
		}
		right := items[j].PublishedAt
		if right.IsZero() {
			right = items[j].UpdatedAt
		}
		if left.Equal(right) {
			return items[i].GUID < items[j].GUID
		}
		return left.After(right)
	})
}

func (s *service) writeFeeds(
	ctx context.Context,
	writer artifactWriter,
	siteMeta SiteMetadata,
	buildCtx *BuildContext,
	docs []feedDocument,
) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	dirCache := map[string]struct{}{}
	if baseDir != "" {
		dirCache[baseDir] = struct{}{}
		if err := writer.EnsureDir(ctx, baseDir); err != nil {
			return 0, err
		}
	}

	write := func(target, content, contentType, feedType, locale string, alias bool) error {
		if err := ensureDir(ctx, writer, dirCache, path.Dir(target)); err != nil {
			return err
		}
		return writer.WriteFile(ctx, writeFileRequest{
			Path:        target,
			Content:     strings.NewReader(content),
			Size:        int64(len(content)),
			Locale:      locale,
			Category:    categoryFeed,
			ContentType: contentType,
			Checksum:    computeHashFromString(content),
			Metadata:    feedMetadata(locale, feedType, buildCtx.GeneratedAt, alias),
		})
	}

	total := 0
	aliasWritten := false
	for _, doc := range docs {
		if len(doc.Items) == 0 {
			continue
		}
		locale := doc.Locale.Code

		rssContent := buildRSSFeed(siteMeta, doc, buildCtx.GeneratedAt)
		rssPath := joinOutputPath(baseDir, path.Join("feeds", fmt.Sprintf("%s.rss.xml", locale)))
		if err := write(rssPath, rssContent, "application/rss+xml", "rss", locale, false); err != nil {
			return total, err
		}
		total++

		atomContent := buildAtomFeed(siteMeta, doc, buildCtx.GeneratedAt)
		atomPath := joinOutputPath(baseDir, path.Join("feeds", fmt.Sprintf("%s.atom.xml", locale)))
		if err := write(atomPath, atomContent, "application/atom+xml", "atom", locale, false); err != nil {
			return total, err
		}
		total++

		// The default locale also lands at the conventional root aliases.
		if doc.Locale.IsDefault && !aliasWritten {
			aliasWritten = true
			if err := write(joinOutputPath(baseDir, "feed.xml"), rssContent, "application/rss+xml", "rss", locale, true); err != nil {
				return total, err
			}
			total++
			if err := write(joinOutputPath(baseDir, "feed.atom.xml"), atomContent, "application/atom+xml", "atom", locale, true); err != nil {
				return total, err
			}
			total++
		}
	}
	return total, nil
}

func buildRSSFeed(site SiteMetadata, doc feedDocument, generatedAt time.Time) string {
	baseLink := baseURLWithFallback(site.BaseURL)
	title := feedTitleForLocale(site, doc.Locale)
	description := feedDescriptionForLocale(site, doc.Locale)

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(`<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/">` + "\n")
	builder.WriteString("  <channel>\n")
	fmt.Fprintf(&builder, "    <title>%s</title>\n", escapeXML(title))
	fmt.Fprintf(&builder, "    <link>%s</link>\n", escapeXML(baseLink))
	fmt.Fprintf(&builder, "    <description>%s</description>\n", escapeXML(description))
	fmt.Fprintf(&builder, "    <language>%s</language>\n", escapeXML(doc.Locale.Code))
	fmt.Fprintf(&builder, "    <lastBuildDate>%s</lastBuildDate>\n", generatedAt.UTC().Format(time.RFC1123Z))
	for _, item := range doc.Items {
		pub := item.PublishedAt
		if pub.IsZero() {
			pub = generatedAt
		}
		builder.WriteString("    <item>\n")
		fmt.Fprintf(&builder, "      <title>%s</title>\n", escapeXML(item.Title))
		fmt.Fprintf(&builder, "      <link>%s</link>\n", escapeXML(item.Link))
		fmt.Fprintf(&builder, "      <guid isPermaLink=\"false\">%s</guid>\n", escapeXML(item.GUID))
		fmt.Fprintf(&builder, "      <pubDate>%s</pubDate>\n", pub.UTC().Format(time.RFC1123Z))
		if item.Author != "" {
			fmt.Fprintf(&builder, "      <dc:creator>%s</dc:creator>\n", escapeXML(item.Author))
		}
		for _, tag := range item.Tags {
			if strings.TrimSpace(tag) == "" {
				continue
			}
			fmt.Fprintf(&builder, "      <category>%s</category>\n", escapeXML(tag))
		}
		if item.Summary != "" {
			fmt.Fprintf(&builder, "      <description>%s</description>\n", escapeXML(item.Summary))
		}
		builder.WriteString("    </item>\n")
	}
	builder.WriteString("  </channel>\n")
	builder.WriteString("</rss>\n")
	return builder.String()
}

func buildAtomFeed(site SiteMetadata, doc feedDocument, generatedAt time.Time) string {
	baseLink := baseURLWithFallback(site.BaseURL)
	feedID := fmt.Sprintf("%s/feeds/%s.atom.xml", baseLink, doc.Locale.Code)
	title := feedTitleForLocale(site, doc.Locale)

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&builder, `<feed xmlns="http://www.w3.org/2005/Atom" xml:lang="%s">`+"\n", escapeXMLAttr(doc.Locale.Code))
	fmt.Fprintf(&builder, "  <id>%s</id>\n", escapeXML(feedID))
	fmt.Fprintf(&builder, "  <title>%s</title>\n", escapeXML(title))
	fmt.Fprintf(&builder, "  <updated>%s</updated>\n", generatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&builder, `  <link rel="alternate" href="%s" />`+"\n", escapeXMLAttr(baseLink))
	fmt.Fprintf(&builder, `  <link rel="self" href="%s" />`+"\n", escapeXMLAttr(feedID))
	for _, item := range doc.Items {
		updated := firstNonZeroTime(item.UpdatedAt, item.PublishedAt, generatedAt)
		builder.WriteString("  <entry>\n")
		fmt.Fprintf(&builder, "    <id>%s</id>\n", escapeXML(item.GUID))
		fmt.Fprintf(&builder, "    <title>%s</title>\n", escapeXML(item.Title))
		fmt.Fprintf(&builder, `    <link href="%s" />`+"\n", escapeXMLAttr(item.Link))
		fmt.Fprintf(&builder, "    <updated>%s</updated>\n", updated.UTC().Format(time.RFC3339))
		if !item.PublishedAt.IsZero() {
			fmt.Fprintf(&builder, "    <published>%s</published>\n", item.PublishedAt.UTC().Format(time.RFC3339))
		}
		if item.Author != "" {
			builder.WriteString("    <author>\n")
			fmt.Fprintf(&builder, "      <name>%s</name>\n", escapeXML(item.Author))
			builder.WriteString("    </author>\n")
		}
		for _, tag := range item.Tags {
			if strings.TrimSpace(tag) == "" {
				continue
			}
			fmt.Fprintf(&builder, `    <category term="%s" />`+"\n", escapeXMLAttr(tag))
		}
		if item.Summary != "" {
			fmt.Fprintf(&builder, "    <summary>%s</summary>\n", escapeXML(item.Summary))
		}
		builder.WriteString("  </entry>\n")
	}
	builder.WriteString("</feed>\n")
	return builder.String()
}

func feedMetadata(locale, feedType string, generatedAt time.Time, alias bool) map[string]string {
	meta := map[string]string{
		"generated_at": generatedAt.UTC().Format(time.RFC3339),
		"feed_type":    feedType,
	}
	if strings.TrimSpace(locale) != "" {
		meta["locale"] = locale
	}
	if alias {
		meta["alias"] = "true"
	}
	return meta
}

func feedTitleForLocale(site SiteMetadata, locale LocaleSpec) string {
	base := siteTitle(site)
	if locale.IsDefault || strings.TrimSpace(locale.Code) == "" {
		return base
	}
	return fmt.Sprintf("%s (%s)", base, strings.ToUpper(locale.Code))
}

func feedDescriptionForLocale(site SiteMetadata, locale LocaleSpec) string {
	if site.Metadata != nil {
		if desc, ok := site.Metadata["description"].(string); ok && strings.TrimSpace(desc) != "" {
			return strings.TrimSpace(desc)
		}
	}
	if locale.IsDefault {
		return "Latest posts"
	}
	return fmt.Sprintf("Latest posts for %s", strings.ToUpper(locale.Code))
}

func siteTitle(site SiteMetadata) string {
	if site.Metadata != nil {
		if title, ok := site.Metadata["title"].(string); ok && strings.TrimSpace(title) != "" {
			return strings.TrimSpace(title)
		}
	}
	base := strings.TrimSpace(site.BaseURL)
	if base != "" {
		return base
	}
	return "Blog Feed"
}

func baseURLWithFallback(base string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(base), "/")
	if trimmed == "" {
		return "http://localhost"
	}
	return trimmed
}

func absoluteURL(base, route string) string {
	return baseURLWithFallback(base) + strings.TrimSuffix(canonicalRoute(route), "/")
}

func timePtrOrZero(ts *time.Time) time.Time {
	if ts == nil {
		return time.Time{}
	}
	return ts.UTC()
}

func firstNonZeroTime(instants ...time.Time) time.Time {
	for _, ts := range instants {
		if !ts.IsZero() {
			return ts
		}
	}
	return time.Time{}
}

func feedSummary(data *PageData) string {
	if data == nil || data.Translation == nil {
		return ""
	}
	if data.Translation.Summary != nil {
		if summary := strings.TrimSpace(*data.Translation.Summary); summary != "" {
			return normalizeWhitespace(summary)
		}
	}
	return ""
}

func normalizeWhitespace(input string) string {
	return strings.Join(strings.Fields(input), " ")
}

func escapeXML(value string) string {
	return html.EscapeString(value)
}

func escapeXMLAttr(value string) string {
	return html.EscapeString(value)
}
