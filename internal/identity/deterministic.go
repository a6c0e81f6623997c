package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// LocaleUUID keys locales by their lowercase code so config-seeded locales
// keep stable identifiers across fresh databases.
func LocaleUUID(localeCode string) uuid.UUID {
	return UUID("press:locale:" + strings.ToLower(strings.TrimSpace(localeCode)))
}

// PostUUID keys posts by slug, which is unique across the repository.
func PostUUID(slug string) uuid.UUID {
	return UUID("press:post:" + strings.ToLower(strings.TrimSpace(slug)))
}

// PostTranslationUUID keys translations by owning post plus locale code.
func PostTranslationUUID(postID uuid.UUID, localeCode string) uuid.UUID {
	return UUID("press:post_translation:" + postID.String() + ":" + strings.ToLower(strings.TrimSpace(localeCode)))
}

// ThemeUUID keys themes by their on-disk path. Re-installing the same theme
// directory always resolves to the same record.
func ThemeUUID(themePath string) uuid.UUID {
	return UUID("press:theme:" + strings.TrimSpace(themePath))
}

// TemplateUUID keys templates by owning theme plus slug.
func TemplateUUID(themeID uuid.UUID, slug string) uuid.UUID {
	return UUID("press:template:" + themeID.String() + ":" + strings.ToLower(strings.TrimSpace(slug)))
}
