package press

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/goliatone/go-press/posts"
	"github.com/google/uuid"
)

var (
	// ErrLocaleCodeRequired indicates locale lookups require a non-empty locale code.
	ErrLocaleCodeRequired = errors.New("press: locale code is required")
	// ErrUnknownLocale indicates locale lookup failed because the locale code is unknown.
	ErrUnknownLocale = posts.ErrUnknownLocale
)

var errNilModule = errors.New("press: module is nil")

// LocaleNotFoundError describes unknown locale-code lookups and unwraps to ErrUnknownLocale.
type LocaleNotFoundError struct {
	Code string
}

func (e *LocaleNotFoundError) Error() string {
	code := strings.TrimSpace(e.Code)
	if code == "" {
		return "press: locale not found"
	}
	return fmt.Sprintf("press: locale %q not found", code)
}

func (e *LocaleNotFoundError) Unwrap() error {
	return ErrUnknownLocale
}

// LocaleInfo is the stable public locale view exposed by press.
type LocaleInfo struct {
	ID         uuid.UUID
	Code       string
	Display    string
	NativeName *string
	IsActive   bool
	IsDefault  bool
	Metadata   map[string]any
}

// LocaleService resolves locale records through the public press contract.
type LocaleService interface {
	ResolveByCode(ctx context.Context, code string) (LocaleInfo, error)
}

type localeService struct {
	module *Module
}

func newLocaleService(m *Module) LocaleService {
	return &localeService{module: m}
}

func (s *localeService) ResolveByCode(ctx context.Context, code string) (LocaleInfo, error) {
	if s == nil || s.module == nil || s.module.container == nil {
		return LocaleInfo{}, errNilModule
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return LocaleInfo{}, ErrLocaleCodeRequired
	}

	repo := s.module.container.LocaleRepository()
	if repo == nil {
		return LocaleInfo{}, errNilModule
	}

	locale, err := repo.GetByCode(ctx, code)
	if err != nil {
		var notFound *posts.NotFoundError
		if errors.As(err, &notFound) {
			return LocaleInfo{}, &LocaleNotFoundError{Code: code}
		}
		return LocaleInfo{}, err
	}
	if locale == nil {
		return LocaleInfo{}, &LocaleNotFoundError{Code: code}
	}

	info := LocaleInfo{
		ID:        locale.ID,
		Code:      locale.Code,
		Display:   locale.Display,
		IsActive:  locale.IsActive,
		IsDefault: locale.IsDefault,
		Metadata:  maps.Clone(locale.Metadata),
	}
	if locale.NativeName != nil {
		native := *locale.NativeName
		info.NativeName = &native
	}
	return info, nil
}
