package integrity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-press/internal/domain"
	"github.com/goliatone/go-press/internal/markdown"
	"github.com/goliatone/go-press/internal/posts"
	pressposts "github.com/goliatone/go-press/posts"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

func (s *service) auditFrontMatter(ctx context.Context, report *Report) error {
	schema, err := compileFrontMatterSchema(s.cfg.Schema)
	if err != nil {
		return err
	}

	records, err := s.deps.Posts.List(ctx, posts.ListFilter{})
	if err != nil {
		return fmt.Errorf("integrity: list posts: %w", err)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Slug < records[j].Slug
	})

	for _, record := range records {
		if record == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		report.CheckedPosts++
		report.Issues = append(report.Issues, auditPost(record, schema)...)
	}
	return nil
}

func auditPost(record *posts.Post, schema *jsonschema.Schema) []Issue {
	var issues []Issue
	path := strings.TrimSpace(record.SourcePath)
	if path == "" {
		path = record.Slug
	}
	published := domain.NormalizeStatus(record.Status) == domain.StatusPublished

	if !pressposts.IsValidSlug(record.Slug) {
		issues = append(issues, Issue{
			Check:    CheckFrontMatter,
			Severity: SeverityError,
			Path:     path,
			Ref:      "slug",
			Message:  fmt.Sprintf("slug %q is not a valid slug", record.Slug),
		})
	}

	if published && record.PublishedAt == nil {
		issues = append(issues, Issue{
			Check:    CheckFrontMatter,
			Severity: SeverityError,
			Path:     path,
			Ref:      "date",
			Message:  "published post has no parseable date",
		})
	}

	for _, translation := range record.Translations {
		if translation == nil {
			continue
		}
		locale := localeLabel(translation)

		if strings.TrimSpace(translation.Title) == "" {
			severity := SeverityWarning
			message := "untitled draft"
			if published {
				severity = SeverityError
				message = "published post has an empty title"
			}
			issues = append(issues, Issue{
				Check:    CheckFrontMatter,
				Severity: severity,
				Path:     path,
				Locale:   locale,
				Ref:      "title",
				Message:  message,
			})
		}

		issues = append(issues, auditRawDate(translation, path, locale, published)...)

		if schema != nil {
			issues = append(issues, auditSchema(translation, schema, path, locale)...)
		}
	}

	return issues
}

// auditRawDate re-parses the date value the front matter actually carried.
// The importer leaves PublishedAt unset for unparseable dates, so the raw
// value is where the reportable detail lives.
func auditRawDate(translation *posts.PostTranslation, path, locale string, published bool) []Issue {
	raw, ok := translation.FrontMatter["date"]
	if !ok || raw == nil {
		return nil
	}
	severity := SeverityWarning
	if published {
		severity = SeverityError
	}
	switch value := raw.(type) {
	case time.Time:
		return nil
	case string:
		if _, err := markdown.ParseDate(value); err != nil {
			return []Issue{{
				Check:    CheckFrontMatter,
				Severity: severity,
				Path:     path,
				Locale:   locale,
				Ref:      "date",
				Message:  fmt.Sprintf("date %q matches no accepted layout", value),
			}}
		}
		return nil
	default:
		return []Issue{{
			Check:    CheckFrontMatter,
			Severity: severity,
			Path:     path,
			Locale:   locale,
			Ref:      "date",
			Message:  fmt.Sprintf("date has unsupported type %T", raw),
		}}
	}
}

func auditSchema(translation *posts.PostTranslation, schema *jsonschema.Schema, path, locale string) []Issue {
	payload := translation.FrontMatter
	if payload == nil {
		payload = map[string]any{}
	}
	err := schema.Validate(normalizePayload(payload))
	if err == nil {
		return nil
	}
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return []Issue{{
			Check:    CheckFrontMatter,
			Severity: SeverityError,
			Path:     path,
			Locale:   locale,
			Ref:      "front_matter",
			Message:  err.Error(),
		}}
	}
	var issues []Issue
	for _, leaf := range collectSchemaLeaves(validationErr) {
		location := strings.TrimSpace(leaf.InstanceLocation)
		if location == "" {
			location = "#"
		}
		issues = append(issues, Issue{
			Check:    CheckFrontMatter,
			Severity: SeverityError,
			Path:     path,
			Locale:   locale,
			Ref:      location,
			Message:  strings.TrimSpace(leaf.Message),
		})
	}
	return issues
}

func compileFrontMatterSchema(schema map[string]any) (*jsonschema.Schema, error) {
	if len(schema) == 0 {
		return nil, nil
	}
	encoded, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("integrity: encode front matter schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("frontmatter.json", bytes.NewReader(encoded)); err != nil {
		return nil, fmt.Errorf("integrity: front matter schema: %w", err)
	}
	compiled, err := compiler.Compile("frontmatter.json")
	if err != nil {
		return nil, fmt.Errorf("integrity: front matter schema: %w", err)
	}
	return compiled, nil
}

func collectSchemaLeaves(err *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if err == nil {
		return nil
	}
	if len(err.Causes) == 0 {
		return []*jsonschema.ValidationError{err}
	}
	var leaves []*jsonschema.ValidationError
	for _, cause := range err.Causes {
		leaves = append(leaves, collectSchemaLeaves(cause)...)
	}
	return leaves
}

// normalizePayload rewrites values the yaml decoder produces into shapes the
// JSON schema validator accepts: time.Time to RFC3339 strings and nested
// maps/slices recursively.
func normalizePayload(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for key, value := range payload {
		out[key] = normalizePayloadValue(value)
	}
	return out
}

func normalizePayloadValue(value any) any {
	switch typed := value.(type) {
	case time.Time:
		return typed.UTC().Format(time.RFC3339)
	case map[string]any:
		return normalizePayload(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = normalizePayloadValue(item)
		}
		return out
	default:
		return typed
	}
}

func localeLabel(translation *posts.PostTranslation) string {
	if translation == nil {
		return ""
	}
	if translation.Locale != nil && strings.TrimSpace(translation.Locale.Code) != "" {
		return translation.Locale.Code
	}
	return translation.LocaleID.String()
}
