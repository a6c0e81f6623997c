package posts

import pressposts "github.com/goliatone/go-press/posts"

type (
	Locale               = pressposts.Locale
	Post                 = pressposts.Post
	PostTranslation      = pressposts.PostTranslation
	Service              = pressposts.Service
	CreatePostRequest    = pressposts.CreatePostRequest
	UpdatePostRequest    = pressposts.UpdatePostRequest
	DeletePostRequest    = pressposts.DeletePostRequest
	PostTranslationInput = pressposts.PostTranslationInput
	ListFilter           = pressposts.ListFilter
	TagCount             = pressposts.TagCount
	NotFoundError        = pressposts.NotFoundError
	SlugConflictError    = pressposts.SlugConflictError
	InvalidLocaleError   = pressposts.InvalidLocaleError
)

var (
	IsNotFound = pressposts.IsNotFound

	ErrSlugRequired          = pressposts.ErrSlugRequired
	ErrSlugInvalid           = pressposts.ErrSlugInvalid
	ErrSlugExists            = pressposts.ErrSlugExists
	ErrTitleRequired         = pressposts.ErrTitleRequired
	ErrNoTranslations        = pressposts.ErrNoTranslations
	ErrDefaultLocaleRequired = pressposts.ErrDefaultLocaleRequired
	ErrDuplicateLocale       = pressposts.ErrDuplicateLocale
	ErrUnknownLocale         = pressposts.ErrUnknownLocale
	ErrPostIDRequired        = pressposts.ErrPostIDRequired
	ErrKindInvalid           = pressposts.ErrKindInvalid
	ErrTagInvalid            = pressposts.ErrTagInvalid
	ErrTranslationNotFound   = pressposts.ErrTranslationNotFound
)
