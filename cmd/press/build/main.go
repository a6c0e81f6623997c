package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/goliatone/go-press/cmd/press/internal/bootstrap"
	markdowncmd "github.com/goliatone/go-press/internal/commands/markdown"
	staticcmd "github.com/goliatone/go-press/internal/commands/static"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	if err := runBuild(os.Args[1:]); err != nil {
		log.Fatalf("press build: %v", err)
	}
}

func runBuild(args []string) error {
	fs := flag.NewFlagSet("press-build", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to the site.yaml configuration file")
	contentDir := fs.String("content-dir", "", "Path to the markdown content root (overrides config)")
	outputDir := fs.String("output-dir", "", "Directory receiving the generated site (overrides config)")
	themeDir := fs.String("theme-dir", "", "Directory holding theme templates and assets (overrides config)")
	baseURL := fs.String("base-url", "", "Canonical base URL stamped into permalinks and feeds")
	locales := fs.String("locales", "", "Comma separated list of locales to build (defaults to all)")
	slugs := fs.String("slugs", "", "Comma separated list of post slugs to build (defaults to all)")
	syncContent := fs.Bool("sync", true, "Ingest the content directory before building")
	dryRun := fs.Bool("dry-run", false, "Render without writing files, reporting what would change")
	clean := fs.Bool("clean", false, "Remove generated output instead of building")

	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := bootstrap.Options{
		ConfigPath: *configPath,
		ContentDir: *contentDir,
		OutputDir:  *outputDir,
		ThemeDir:   *themeDir,
		BaseURL:    *baseURL,
		Locales:    bootstrap.SplitList(*locales),
	}

	module, err := moduleBuilder(opts)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	if module == nil || module.Generator == nil {
		return fmt.Errorf("generator service not configured; ensure Features.Generator is enabled")
	}
	defer func() { _ = module.Close() }()

	ctx := context.Background()
	gates := staticcmd.FeatureGates{
		GeneratorEnabled: func() bool { return true },
	}

	if *clean {
		handler := staticcmd.NewCleanSiteHandler(module.Generator, module.Logger, gates)
		if err := handler.Execute(ctx, staticcmd.CleanSiteCommand{}); err != nil {
			return fmt.Errorf("execute clean command: %w", err)
		}
		log.Printf("module=static operation=clean completed")
		return nil
	}

	// A fresh module starts from an empty post index, so the content tree is
	// synced in before rendering unless the caller opts out.
	if *syncContent && module.Markdown != nil && module.Config.Features.Markdown {
		syncHandler := markdowncmd.NewSyncDirectoryHandler(module.Markdown, module.Logger, markdowncmd.FeatureGates{
			MarkdownEnabled: func() bool { return true },
		})
		if err := syncHandler.Execute(ctx, markdowncmd.SyncDirectoryCommand{Directory: "."}); err != nil {
			return fmt.Errorf("sync content before build: %w", err)
		}
	}

	handler := staticcmd.NewBuildSiteHandler(module.Generator, module.Logger, gates)
	cmd := staticcmd.BuildSiteCommand{
		Locales: bootstrap.SplitList(*locales),
		Slugs:   bootstrap.SplitList(*slugs),
		DryRun:  *dryRun,
		ResultCallback: func(envelope staticcmd.ResultEnvelope) {
			result := envelope.Result
			if result == nil {
				return
			}
			log.Printf(
				"module=static operation=build summary pages=%d skipped=%d assets=%d feeds=%d errors=%d duration=%s dry_run=%t",
				result.PagesBuilt,
				result.PagesSkipped,
				result.AssetsBuilt,
				result.FeedsBuilt,
				len(result.Errors),
				result.Duration,
				result.DryRun,
			)
			for _, buildErr := range result.Errors {
				log.Printf("module=static operation=build error=%v", buildErr)
			}
		},
	}
	if err := handler.Execute(ctx, cmd); err != nil {
		return fmt.Errorf("execute build command: %w", err)
	}

	return nil
}
