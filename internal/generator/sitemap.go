package generator

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type sitemapEntry struct {
	Location   string
	LastMod    time.Time
	Priority   string
	ChangeFreq string
}

func canonicalRoute(route string) string {
	route = strings.TrimSpace(route)
	if route == "" {
		return "/"
	}
	if !strings.HasPrefix(route, "/") {
		return "/" + route
	}
	return route
}

func buildSitemap(baseURL string, pages []RenderedPage, fallback time.Time) string {
	base := baseURLWithFallback(baseURL)

	entries := make([]sitemapEntry, 0, len(pages))
	seen := map[string]struct{}{}
	for _, page := range pages {
		route := canonicalRoute(page.Route)
		location := base + route
		if _, ok := seen[location]; ok {
			continue
		}
		seen[location] = struct{}{}

		lastMod := page.Metadata.LastModified
		if lastMod.IsZero() {
			lastMod = fallback
		}
		priority, changeFreq := sitemapHints(page.Kind, route)
		entries = append(entries, sitemapEntry{
			Location:   location,
			LastMod:    lastMod,
			Priority:   priority,
			ChangeFreq: changeFreq,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Location < entries[j].Location
	})

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	for _, entry := range entries {
		builder.WriteString("  <url>\n")
		fmt.Fprintf(&builder, "    <loc>%s</loc>\n", entry.Location)
		if !entry.LastMod.IsZero() {
			fmt.Fprintf(&builder, "    <lastmod>%s</lastmod>\n", entry.LastMod.UTC().Format(time.RFC3339))
		}
		if entry.ChangeFreq != "" {
			fmt.Fprintf(&builder, "    <changefreq>%s</changefreq>\n", entry.ChangeFreq)
		}
		if entry.Priority != "" {
			fmt.Fprintf(&builder, "    <priority>%s</priority>\n", entry.Priority)
		}
		builder.WriteString("  </url>\n")
	}
	builder.WriteString("</urlset>\n")
	return builder.String()
}

// sitemapHints maps page kinds to crawl hints. Listing pages churn with every
// publish while individual posts settle once written.
func sitemapHints(kind, route string) (priority, changeFreq string) {
	switch kind {
	case pageKindIndex:
		if route == "/" {
			return "1.0", "daily"
		}
		return "0.8", "daily"
	case pageKindTag:
		return "0.5", "weekly"
	case pageKindPage:
		return "0.7", "monthly"
	default:
		return "0.6", "monthly"
	}
}

func buildRobots(baseURL string, includeSitemap bool) string {
	var builder strings.Builder
	builder.WriteString("User-agent: *\n")
	builder.WriteString("Allow: /\n")
	if includeSitemap {
		builder.WriteString("\n")
		fmt.Fprintf(&builder, "Sitemap: %s/sitemap.xml\n", baseURLWithFallback(baseURL))
	}
	return builder.String()
}
