package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/goliatone/go-press/cmd/press/internal/bootstrap"
	checkcmd "github.com/goliatone/go-press/internal/commands/check"
	markdowncmd "github.com/goliatone/go-press/internal/commands/markdown"
	"github.com/goliatone/go-press/internal/integrity"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	if err := runCheck(os.Args[1:]); err != nil {
		log.Fatalf("press check: %v", err)
	}
}

func runCheck(args []string) error {
	fs := flag.NewFlagSet("press-check", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to the site.yaml configuration file")
	contentDir := fs.String("content-dir", "", "Path to the markdown content root (overrides config)")
	outputDir := fs.String("output-dir", "", "Directory holding the generated site (overrides config)")
	syncContent := fs.Bool("sync", true, "Ingest the content directory before auditing")
	skipFrontMatter := fs.Bool("skip-front-matter", false, "Skip front matter validation")
	skipHTML := fs.Bool("skip-html", false, "Skip HTML well-formedness checks on built pages")
	skipLinks := fs.Bool("skip-links", false, "Skip internal link resolution checks")
	checkExternal := fs.Bool("check-external", false, "Verify outbound links over the network")
	strict := fs.Bool("strict", false, "Exit non-zero when error severity issues are found")

	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := bootstrap.Options{
		ConfigPath: *configPath,
		ContentDir: *contentDir,
		OutputDir:  *outputDir,
	}

	module, err := moduleBuilder(opts)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	if module == nil || module.Integrity == nil {
		return fmt.Errorf("integrity service not configured; ensure Features.Integrity is enabled")
	}
	defer func() { _ = module.Close() }()

	ctx := context.Background()

	// Front matter audits read the post index, which starts empty for a fresh
	// module. Sync the content tree in first unless the caller opts out.
	if *syncContent && module.Markdown != nil && module.Config.Features.Markdown {
		syncHandler := markdowncmd.NewSyncDirectoryHandler(module.Markdown, module.Logger, markdowncmd.FeatureGates{
			MarkdownEnabled: func() bool { return true },
		})
		if err := syncHandler.Execute(ctx, markdowncmd.SyncDirectoryCommand{Directory: "."}); err != nil {
			return fmt.Errorf("sync content before check: %w", err)
		}
	}

	handler := checkcmd.NewCheckSiteHandler(module.Integrity, module.Logger, checkcmd.FeatureGates{
		IntegrityEnabled: func() bool { return true },
	})
	cmd := checkcmd.CheckSiteCommand{
		SkipFrontMatter: *skipFrontMatter,
		SkipHTML:        *skipHTML,
		SkipLinks:       *skipLinks,
		CheckExternal:   *checkExternal,
		Strict:          *strict,
		ReportCallback: func(report *integrity.Report) {
			if report == nil {
				return
			}
			log.Printf(
				"module=check operation=site summary posts=%d files=%d links=%d errors=%d warnings=%d duration=%s",
				report.CheckedPosts,
				report.CheckedFiles,
				report.CheckedLinks,
				report.ErrorCount(),
				report.WarningCount(),
				report.Duration,
			)
			for _, issue := range report.Issues {
				log.Printf(
					"module=check severity=%s check=%s path=%s locale=%s ref=%s message=%q",
					issue.Severity,
					issue.Check,
					issue.Path,
					issue.Locale,
					issue.Ref,
					issue.Message,
				)
			}
		},
	}
	if err := handler.Execute(ctx, cmd); err != nil {
		return fmt.Errorf("execute check command: %w", err)
	}

	return nil
}
