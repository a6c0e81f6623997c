package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/goliatone/go-press"
	"github.com/goliatone/go-press/cmd/press/internal/bootstrap"
	"github.com/goliatone/go-press/internal/generator"
	"github.com/goliatone/go-press/internal/server"
	"github.com/goliatone/go-press/pkg/interfaces"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runServe(ctx, os.Args[1:]); err != nil {
		log.Fatalf("press serve: %v", err)
	}
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("press-serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to the site.yaml configuration file")
	contentDir := fs.String("content-dir", "", "Path to the markdown content root (overrides config)")
	outputDir := fs.String("output-dir", "", "Directory holding the generated site (overrides config)")
	themeDir := fs.String("theme-dir", "", "Directory holding theme templates and assets (overrides config)")
	baseURL := fs.String("base-url", "", "Canonical base URL stamped into permalinks and feeds")
	addr := fs.String("addr", "", "Address the preview server listens on (overrides config)")
	buildFirst := fs.Bool("build", true, "Sync content and build the site before serving")
	watch := fs.Bool("watch", false, "Rebuild when content or theme files change (overrides config)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := bootstrap.Options{
		ConfigPath: *configPath,
		ContentDir: *contentDir,
		OutputDir:  *outputDir,
		ThemeDir:   *themeDir,
		BaseURL:    *baseURL,
		Addr:       *addr,
		Watch:      watch,
	}

	module, err := moduleBuilder(opts)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	if module == nil || module.Module == nil {
		return fmt.Errorf("preview server not configured; ensure Features.Server is enabled")
	}
	defer func() { _ = module.Close() }()

	rebuild := func(ctx context.Context) error {
		if module.Markdown != nil && module.Config.Features.Markdown {
			if _, err := module.Markdown.Sync(ctx, ".", interfaces.SyncOptions{}); err != nil {
				return fmt.Errorf("sync content: %w", err)
			}
		}
		if module.Generator == nil {
			return nil
		}
		result, err := module.Generator.Build(ctx, generator.BuildOptions{})
		if err != nil {
			return err
		}
		if result != nil {
			log.Printf(
				"module=server operation=rebuild pages=%d assets=%d errors=%d duration=%s",
				result.PagesBuilt,
				result.AssetsBuilt,
				len(result.Errors),
				result.Duration,
			)
		}
		return nil
	}

	if *buildFirst && module.Config.Features.Generator && module.Config.Generator.Enabled {
		if err := rebuild(ctx); err != nil {
			return fmt.Errorf("initial build: %w", err)
		}
	}

	srv, err := module.Module.PreviewServer()
	if err != nil {
		return fmt.Errorf("preview server: %w", err)
	}

	if module.Config.Server.Watch.Enabled {
		watcher, err := server.NewWatcher(server.WatchConfig{
			Dirs:       watchDirs(module.Config),
			Debounce:   module.Config.Server.Watch.Debounce,
			Extensions: module.Config.Server.Watch.Extensions,
		}, server.WatchDependencies{
			Rebuild: func(ctx context.Context, changed []string) error {
				log.Printf("module=server operation=watch changed=%d", len(changed))
				return rebuild(ctx)
			},
			Logger: module.Logger,
		})
		if err != nil {
			return fmt.Errorf("configure watcher: %w", err)
		}
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
		defer watcher.Stop()
	}

	log.Printf(
		"module=server operation=serve addr=%s output=%s",
		module.Config.Server.Addr,
		module.Config.Generator.OutputDir,
	)
	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("preview server: %w", err)
	}
	return nil
}

func watchDirs(cfg press.Config) []string {
	var dirs []string
	if dir := strings.TrimSpace(cfg.Content.Dir); dir != "" {
		dirs = append(dirs, dir)
	}
	if dir := strings.TrimSpace(cfg.Themes.Dir); dir != "" {
		dirs = append(dirs, dir)
	}
	return dirs
}
