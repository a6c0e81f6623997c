package generator

import (
	"path"
	"strings"
)

// buildOutputPath maps a site-relative route onto its file path inside the
// output tree. Default locale pages live at the root; other locales are
// nested under their code.
func buildOutputPath(route string, locale string, defaultLocale string) string {
	clean := strings.Trim(strings.TrimSpace(route), " \t\r\n/")
	locale = strings.TrimSpace(locale)
	defaultLocale = strings.TrimSpace(defaultLocale)
	if locale == "" {
		locale = defaultLocale
	}

	if locale == "" || strings.EqualFold(locale, defaultLocale) {
		return path.Join(clean, "index.html")
	}

	// Strip a leading locale segment so prefixed routes do not nest twice.
	segments := strings.Split(clean, "/")
	if len(segments) > 0 && strings.EqualFold(segments[0], locale) {
		segments = segments[1:]
	}

	parts := append([]string{locale}, segments...)
	return path.Join(append(parts, "index.html")...)
}
