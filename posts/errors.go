package posts

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSlugRequired          = errors.New("posts: slug is required")
	ErrSlugInvalid           = errors.New("posts: slug contains invalid characters")
	ErrSlugExists            = errors.New("posts: slug already exists")
	ErrTitleRequired         = errors.New("posts: title is required")
	ErrNoTranslations        = errors.New("posts: at least one translation is required")
	ErrDefaultLocaleRequired = errors.New("posts: default locale translation is required")
	ErrDuplicateLocale       = errors.New("posts: duplicate locale provided")
	ErrUnknownLocale         = errors.New("posts: unknown locale")
	ErrPostIDRequired        = errors.New("posts: post id required")
	ErrKindInvalid           = errors.New("posts: kind is invalid")
	ErrTagInvalid            = errors.New("posts: tag contains invalid characters")
	ErrTranslationNotFound   = errors.New("posts: translation not found")
)

// NotFoundError represents missing records from repository lookups.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// IsNotFound reports whether the error chain contains a NotFoundError.
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// SlugConflictError captures duplicate slug rejections with the offending value.
type SlugConflictError struct {
	Slug string
	Kind string
}

func (e *SlugConflictError) Error() string {
	if e == nil {
		return ErrSlugExists.Error()
	}
	slug := strings.TrimSpace(e.Slug)
	if slug != "" {
		return fmt.Sprintf("%s: slug=%s", ErrSlugExists.Error(), slug)
	}
	return ErrSlugExists.Error()
}

func (e *SlugConflictError) Unwrap() error {
	return ErrSlugExists
}

// InvalidLocaleError captures locale codes that do not resolve to a configured locale.
type InvalidLocaleError struct {
	Locale string
}

func (e *InvalidLocaleError) Error() string {
	if e == nil {
		return ErrUnknownLocale.Error()
	}
	locale := strings.TrimSpace(e.Locale)
	if locale != "" {
		return fmt.Sprintf("%s: locale=%s", ErrUnknownLocale.Error(), locale)
	}
	return ErrUnknownLocale.Error()
}

func (e *InvalidLocaleError) Unwrap() error {
	return ErrUnknownLocale
}
