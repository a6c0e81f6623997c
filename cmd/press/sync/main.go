package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/goliatone/go-press/cmd/press/internal/bootstrap"
	markdowncmd "github.com/goliatone/go-press/internal/commands/markdown"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	if err := runSync(os.Args[1:]); err != nil {
		log.Fatalf("press sync: %v", err)
	}
}

func runSync(args []string) error {
	fs := flag.NewFlagSet("press-sync", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to the site.yaml configuration file")
	contentDir := fs.String("content-dir", "", "Path to the markdown content root (overrides config)")
	directory := fs.String("directory", ".", "Directory to sync, relative to the content root")
	kind := fs.String("kind", "", "Page kind applied when front matter does not name one")
	locales := fs.String("locales", "", "Comma separated list of locales (defaults to config locales)")
	defaultLocale := fs.String("default-locale", "", "Default locale for fallback documents")
	dryRun := fs.Bool("dry-run", false, "Preview changes without persisting content")
	deleteOrphaned := fs.Bool("delete-orphaned", false, "Remove indexed posts whose markdown files are gone")

	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := bootstrap.Options{
		ConfigPath:    *configPath,
		ContentDir:    *contentDir,
		DefaultLocale: *defaultLocale,
		Locales:       bootstrap.SplitList(*locales),
	}

	module, err := moduleBuilder(opts)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	if module == nil || module.Markdown == nil {
		return fmt.Errorf("markdown service not configured; ensure Features.Markdown is enabled")
	}
	defer func() { _ = module.Close() }()

	handler := markdowncmd.NewSyncDirectoryHandler(module.Markdown, module.Logger, markdowncmd.FeatureGates{
		MarkdownEnabled: func() bool { return true },
	})
	cmd := markdowncmd.SyncDirectoryCommand{
		Directory:      *directory,
		Kind:           *kind,
		DryRun:         *dryRun,
		DeleteOrphaned: *deleteOrphaned,
	}
	if err := handler.Execute(context.Background(), cmd); err != nil {
		return fmt.Errorf("execute sync command: %w", err)
	}
	fmt.Fprintln(os.Stdout, "content sync completed")

	return nil
}
