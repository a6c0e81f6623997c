package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	press "github.com/goliatone/go-press"
	"github.com/goliatone/go-press/domain"
	"github.com/goliatone/go-press/internal/adapters/gotemplate"
	"github.com/goliatone/go-press/internal/di"
	"github.com/goliatone/go-press/internal/generator"
	"github.com/goliatone/go-press/internal/integrity"
	themesvc "github.com/goliatone/go-press/internal/themes"
	"github.com/goliatone/go-press/pkg/interfaces"
	"github.com/goliatone/go-press/posts"
)

// The example seeds a small bilingual blog into a throwaway workspace, runs
// the whole pipeline against it, and prints a JSON summary: theme install,
// markdown sync, a programmatic post, static build, integrity audit, and
// route resolution. Set PRESS_EXAMPLE_KEEP=true to inspect the workspace
// after the run.
func main() {
	if err := run(context.Background()); err != nil {
		log.Fatalf("press example: %v", err)
	}
}

func run(ctx context.Context) error {
	workspace, err := os.MkdirTemp("", "press-example-")
	if err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	if strings.EqualFold(os.Getenv("PRESS_EXAMPLE_KEEP"), "true") {
		log.Printf("keeping workspace %s", workspace)
	} else {
		defer os.RemoveAll(workspace)
	}

	contentDir := filepath.Join(workspace, "content")
	themeDir := filepath.Join(workspace, "theme")
	outputDir := filepath.Join(workspace, "dist")

	if err := seedContent(contentDir); err != nil {
		return fmt.Errorf("seed content: %w", err)
	}
	if err := seedTheme(themeDir); err != nil {
		return fmt.Errorf("seed theme: %w", err)
	}

	cfg := press.DefaultConfig()
	cfg.Site.Title = "Field Notes"
	cfg.Site.Description = "Write-ups from the workbench"
	cfg.Site.BaseURL = "https://fieldnotes.example.com"
	cfg.Content.Dir = contentDir
	cfg.Content.Locales = []string{"en", "es"}
	cfg.Generator.OutputDir = outputDir
	cfg.Themes.Dir = themeDir

	renderer, err := gotemplate.New(themeDir)
	if err != nil {
		return fmt.Errorf("new renderer: %w", err)
	}

	module, err := press.New(cfg, di.WithTemplate(renderer))
	if err != nil {
		return fmt.Errorf("initialise press: %w", err)
	}

	theme, err := themesvc.InstallDir(ctx, module.Themes(), themeDir, true)
	if err != nil {
		return fmt.Errorf("install theme: %w", err)
	}

	synced, err := module.Markdown().Sync(ctx, contentDir, interfaces.SyncOptions{})
	if err != nil {
		return fmt.Errorf("sync content: %w", err)
	}

	// The launch note exists in both locales, so it lands in the root tree
	// and under the /es prefix.
	published := time.Date(2024, time.July, 1, 9, 0, 0, 0, time.UTC)
	launch, err := module.Posts().Create(ctx, posts.CreatePostRequest{
		Slug:        "hello-field-notes",
		Kind:        string(domain.KindPost),
		Status:      string(domain.StatusPublished),
		Tags:        []string{"meta"},
		Author:      "Dara Vance",
		PublishedAt: &published,
		Translations: []posts.PostTranslationInput{
			{
				Locale:      "en",
				Title:       "Hello, Field Notes",
				Summary:     strPtr("What this site is and what gets published here."),
				Body:        "Field Notes collects the write-ups that used to live in private gists.",
				BodyHTML:    "<p>Field Notes collects the write-ups that used to live in private gists.</p>",
				FrontMatter: map[string]any{"title": "Hello, Field Notes", "date": "2024-07-01"},
			},
			{
				Locale:      "es",
				Title:       "Hola, Field Notes",
				Summary:     strPtr("Qué es este sitio y qué se publica aquí."),
				Body:        "Field Notes reúne los apuntes que antes vivían en gists privados.",
				BodyHTML:    "<p>Field Notes reúne los apuntes que antes vivían en gists privados.</p>",
				FrontMatter: map[string]any{"title": "Hola, Field Notes", "date": "2024-07-01"},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create launch post: %w", err)
	}

	build, err := module.Generator().Build(ctx, generator.BuildOptions{})
	if err != nil {
		return fmt.Errorf("build site: %w", err)
	}

	report, err := module.Integrity().Check(ctx, integrity.Options{})
	if err != nil {
		return fmt.Errorf("check site: %w", err)
	}

	indexRoute, err := module.Routes().IndexPath("en")
	if err != nil {
		return fmt.Errorf("resolve index route: %w", err)
	}
	postRouteEN, err := module.Routes().PostPath("en", launch.Slug)
	if err != nil {
		return fmt.Errorf("resolve post route: %w", err)
	}
	postRouteES, err := module.Routes().PostPath("es", launch.Slug)
	if err != nil {
		return fmt.Errorf("resolve es post route: %w", err)
	}
	tagRoute, err := module.Routes().TagPath("en", "react")
	if err != nil {
		return fmt.Errorf("resolve tag route: %w", err)
	}
	canonical, err := module.Routes().URL("post", "en", map[string]string{"slug": launch.Slug})
	if err != nil {
		return fmt.Errorf("resolve canonical url: %w", err)
	}

	spanish, err := module.Locales().ResolveByCode(ctx, "es")
	if err != nil {
		return fmt.Errorf("resolve locale: %w", err)
	}

	visible, err := module.Posts().List(ctx, posts.ListFilter{VisibleOnly: true})
	if err != nil {
		return fmt.Errorf("list posts: %w", err)
	}

	artifacts, err := collectArtifacts(outputDir)
	if err != nil {
		return fmt.Errorf("collect artifacts: %w", err)
	}

	payload := map[string]any{
		"site": map[string]any{
			"title":    cfg.Site.Title,
			"base_url": cfg.Site.BaseURL,
			"locales":  cfg.Content.Locales,
		},
		"theme": map[string]any{
			"name":    theme.Name,
			"version": theme.Version,
			"active":  theme.IsActive,
		},
		"sync": map[string]any{
			"created": synced.Created,
			"updated": synced.Updated,
			"skipped": synced.Skipped,
		},
		"build": map[string]any{
			"pages":    build.PagesBuilt,
			"assets":   build.AssetsBuilt,
			"feeds":    build.FeedsBuilt,
			"locales":  build.Locales,
			"duration": build.Duration.String(),
		},
		"integrity": map[string]any{
			"posts":    report.CheckedPosts,
			"files":    report.CheckedFiles,
			"links":    report.CheckedLinks,
			"errors":   report.ErrorCount(),
			"warnings": report.WarningCount(),
			"issues":   summarizeIssues(report.Issues),
		},
		"routes": map[string]any{
			"index":     indexRoute,
			"post_en":   postRouteEN,
			"post_es":   postRouteES,
			"tag_react": tagRoute,
			"canonical": canonical,
		},
		"locale_es": map[string]any{
			"code":       spanish.Code,
			"display":    spanish.Display,
			"is_default": spanish.IsDefault,
		},
		"posts":     summarizePosts(visible),
		"artifacts": artifacts,
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(payload); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

const customHooksPost = `---
title: Extracting Custom Hooks in React
date: "2024-04-02"
tags: [react, javascript]
summary: Pulling fetch state out of components and into a reusable hook.
author: Dara Vance
---

![Hook data flow](/images/hooks-flow.svg)

## Why extract a hook

Two components fetching the same resource end up with the same loading and
error plumbing. A custom hook moves that plumbing into one place.

## The useResource hook

The hook owns the request lifecycle and hands components a plain object
with data, loading, and error fields.
`

const flaskPaginationPost = `---
title: Paginating Query Results in Flask
date: "2024-05-10"
tags: [flask, python]
summary: Cursor pagination with SQLAlchemy and a stable sort key.
author: Dara Vance
---

## Why offsets fall over

OFFSET scans every skipped row, so page fifty costs more than page one.
A cursor keyed on the primary sort column keeps the cost flat.

## Wiring the endpoint

The endpoint accepts an opaque cursor, decodes the sort key, and returns
the next page plus the cursor for the one after it.

The component that consumes this API is covered in
[Extracting Custom Hooks in React](/posts/custom-hooks-react).
`

const gitRebasePost = `---
title: Cleaning Up Branches with Interactive Rebase
date: "2024-06-21"
tags: [git]
---

## Squash before review

Reviewers read intent, not keystrokes. Squashing fixup commits into their
parent keeps the branch history to one commit per idea.
`

const terraformDraft = `---
title: Terraform State Notes
draft: true
---

Rough notes on remote state locking. Not ready yet.
`

func seedContent(dir string) error {
	return writeTree(dir, map[string]string{
		"custom-hooks-react.md":       customHooksPost,
		"flask-sqlalchemy-cursors.md": flaskPaginationPost,
		"git-interactive-rebase.md":   gitRebasePost,
		"drafts/terraform-notes.md":   terraformDraft,
		"images/hooks-flow.svg":       `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"></svg>`,
	})
}

func seedTheme(dir string) error {
	return writeTree(dir, map[string]string{
		"theme.json": `{
  "name": "fieldnotes",
  "version": "1.0.0",
  "templates": [
    {"name": "Post", "slug": "post", "path": "templates/post.html"},
    {"name": "Index", "slug": "index", "path": "templates/index.html"},
    {"name": "Tag", "slug": "tag", "path": "templates/tag.html"}
  ],
  "assets": {"styles": ["notes.css"]}
}`,
		"templates/post.html": `<!DOCTYPE html>
<html lang="{{ .Helpers.Locale }}">
<head>
<meta charset="utf-8">
<title>{{ .Page.Title }}</title>
<link rel="stylesheet" href="/assets/notes.css">
</head>
<body>
<header><a href="/">Field Notes</a></header>
<article>
<h1>{{ .Page.Title }}</h1>
<p class="meta">{{ formatDate .Page.Post.PublishedAt "January 2, 2006" }}</p>
{{ .Page.Translation.BodyHTML | safeHTML }}
</article>
<footer>
{{ range .Page.Post.Tags }}<a href="/tags/{{ . }}">{{ . }}</a>
{{ end }}</footer>
</body>
</html>
`,
		"templates/index.html": `<!DOCTYPE html>
<html lang="{{ .Helpers.Locale }}">
<head>
<meta charset="utf-8">
<title>Field Notes</title>
<link rel="stylesheet" href="/assets/notes.css">
</head>
<body>
<h1>Field Notes</h1>
<ul>
{{ range .Page.Posts }}<li><a href="{{ .Route }}">{{ .Title }}</a>{{ with .Summary }} <span>{{ . }}</span>{{ end }}</li>
{{ end }}</ul>
{{ with .Page.Pagination }}{{ if .NextRoute }}<a href="{{ .NextRoute }}">Older posts</a>{{ end }}{{ end }}
</body>
</html>
`,
		"templates/tag.html": `<!DOCTYPE html>
<html lang="{{ .Helpers.Locale }}">
<head>
<meta charset="utf-8">
<title>Tagged {{ .Page.Tag }}</title>
<link rel="stylesheet" href="/assets/notes.css">
</head>
<body>
<h1>Tagged {{ .Page.Tag }}</h1>
<ul>
{{ range .Page.Posts }}<li><a href="{{ .Route }}">{{ .Title }}</a></li>
{{ end }}</ul>
<a href="/">Back to the index</a>
</body>
</html>
`,
		"notes.css": "body { font-family: sans-serif; max-width: 42rem; margin: 0 auto; }\n",
	})
}

func writeTree(root string, files map[string]string) error {
	for name, content := range files {
		target := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func collectArtifacts(outputDir string) ([]string, error) {
	var artifacts []string
	err := filepath.WalkDir(outputDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}
		rel, err := filepath.Rel(outputDir, path)
		if err != nil {
			return err
		}
		artifacts = append(artifacts, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return artifacts, nil
}

func summarizePosts(records []*posts.Post) []map[string]any {
	summaries := make([]map[string]any, 0, len(records))
	for _, record := range records {
		if record == nil {
			continue
		}
		summary := map[string]any{
			"slug":   record.Slug,
			"status": record.Status,
			"tags":   record.Tags,
		}
		if translation := record.Translation("en"); translation != nil {
			summary["title"] = translation.Title
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

func summarizeIssues(issues []integrity.Issue) []map[string]any {
	if len(issues) == 0 {
		return nil
	}
	summaries := make([]map[string]any, 0, len(issues))
	for _, issue := range issues {
		summaries = append(summaries, map[string]any{
			"check":    issue.Check,
			"severity": issue.Severity,
			"path":     issue.Path,
			"message":  issue.Message,
		})
	}
	return summaries
}

func strPtr(value string) *string {
	return &value
}
