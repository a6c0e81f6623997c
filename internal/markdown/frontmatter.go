package markdown

import (
	"bytes"
	"fmt"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/goliatone/go-press/pkg/interfaces"
)

// ParseFrontMatter extracts metadata and Markdown body content from the
// provided source bytes. It returns the structured front matter, the Markdown
// body without delimiters, and any error encountered. Files without a front
// matter block yield an empty FrontMatter and the full source as body.
func ParseFrontMatter(source []byte) (interfaces.FrontMatter, []byte, error) {
	var meta frontMatterEnvelope

	reader := bytes.NewReader(source)
	body, err := frontmatter.Parse(reader, &meta)
	if err != nil {
		return interfaces.FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	return envelopeToFrontMatter(meta), body, nil
}

// BuildDocument assembles an interfaces.Document from the supplied file path,
// locale, raw content, and modification time. BodyHTML is intentionally left
// empty so callers can render lazily.
func BuildDocument(path string, locale string, source []byte, modified time.Time) (*interfaces.Document, error) {
	fm, body, err := ParseFrontMatter(source)
	if err != nil {
		return nil, err
	}

	return &interfaces.Document{
		FilePath:     path,
		Locale:       locale,
		FrontMatter:  fm,
		Body:         body,
		LastModified: modified,
	}, nil
}

// frontMatterEnvelope receives the YAML block. Date is declared as any so the
// original value survives regardless of how the YAML decoder typed it; the
// conversion below normalizes it against the accepted layouts.
type frontMatterEnvelope struct {
	Title    string         `yaml:"title"`
	Slug     string         `yaml:"slug"`
	Summary  string         `yaml:"summary"`
	Status   string         `yaml:"status"`
	Kind     string         `yaml:"kind"`
	Template string         `yaml:"template"`
	Tags     []string       `yaml:"tags"`
	Author   string         `yaml:"author"`
	Date     any            `yaml:"date"`
	Draft    bool           `yaml:"draft"`
	Custom   map[string]any `yaml:",inline"`
}

func envelopeToFrontMatter(env frontMatterEnvelope) interfaces.FrontMatter {
	if env.Custom == nil {
		env.Custom = map[string]any{}
	}

	date, dateInput := normalizeDate(env.Date)

	raw := make(map[string]any, len(env.Custom)+9)
	for key, value := range env.Custom {
		raw[key] = value
	}

	if env.Title != "" {
		raw["title"] = env.Title
	}
	if env.Slug != "" {
		raw["slug"] = env.Slug
	}
	if env.Summary != "" {
		raw["summary"] = env.Summary
	}
	if env.Status != "" {
		raw["status"] = env.Status
	}
	if env.Kind != "" {
		raw["kind"] = env.Kind
	}
	if env.Template != "" {
		raw["template"] = env.Template
	}
	if len(env.Tags) > 0 {
		raw["tags"] = append([]string(nil), env.Tags...)
	}
	if env.Author != "" {
		raw["author"] = env.Author
	}
	if dateInput != "" {
		raw["date"] = dateInput
	}
	raw["draft"] = env.Draft

	return interfaces.FrontMatter{
		Title:     env.Title,
		Slug:      env.Slug,
		Summary:   env.Summary,
		Status:    env.Status,
		Kind:      env.Kind,
		Template:  env.Template,
		Tags:      append([]string(nil), env.Tags...),
		Author:    env.Author,
		Date:      date,
		DateInput: dateInput,
		Draft:     env.Draft,
		Custom:    cloneMap(env.Custom),
		Raw:       raw,
	}
}

// normalizeDate maps whatever the YAML decoder produced for the date key onto
// a parsed timestamp plus the input as written. An unparseable input keeps the
// zero time so integrity checks can surface it instead of silently dropping it.
func normalizeDate(value any) (time.Time, string) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, ""
	case time.Time:
		return v.UTC(), v.Format(time.RFC3339)
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return time.Time{}, v
		}
		return parsed, v
	default:
		return time.Time{}, fmt.Sprintf("%v", v)
	}
}

func cloneMap(input map[string]any) map[string]any {
	if input == nil {
		return map[string]any{}
	}

	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = value
	}
	return out
}
