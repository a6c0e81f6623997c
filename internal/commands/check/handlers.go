package checkcmd

import (
	"context"
	"fmt"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-press/internal/commands"
	"github.com/goliatone/go-press/internal/integrity"
	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/pkg/interfaces"
)

var _ command.Commander[CheckSiteCommand] = (*CheckSiteHandler)(nil)

// CheckSiteHandler runs integrity audits via the shared command handler foundation.
type CheckSiteHandler struct {
	inner *commands.Handler[CheckSiteCommand]
}

// NewCheckSiteHandler constructs a handler wired to the provided integrity service.
func NewCheckSiteHandler(service integrity.Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[CheckSiteCommand]) *CheckSiteHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg CheckSiteCommand) error {
		if service == nil || !gates.integrityEnabled() {
			return integrity.ErrServiceDisabled
		}

		report, err := service.Check(ctx, integrity.Options{
			SkipFrontMatter: msg.SkipFrontMatter,
			SkipHTML:        msg.SkipHTML,
			SkipLinks:       msg.SkipLinks,
			CheckExternal:   msg.CheckExternal,
		})
		if err != nil {
			return err
		}
		if msg.ReportCallback != nil {
			msg.ReportCallback(report)
		}
		if report != nil {
			logging.WithFields(baseLogger, map[string]any{
				"checked_posts": report.CheckedPosts,
				"checked_files": report.CheckedFiles,
				"checked_links": report.CheckedLinks,
				"errors":        report.ErrorCount(),
				"warnings":      report.WarningCount(),
			}).Info("check.command.site.completed")
			if msg.Strict && report.HasErrors() {
				return fmt.Errorf("check command: %d integrity errors", report.ErrorCount())
			}
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[CheckSiteCommand]{
		commands.WithLogger[CheckSiteCommand](baseLogger),
		commands.WithOperation[CheckSiteCommand]("check.site"),
		commands.WithMessageFields(func(msg CheckSiteCommand) map[string]any {
			fields := map[string]any{}
			if msg.SkipFrontMatter {
				fields["skip_front_matter"] = true
			}
			if msg.SkipHTML {
				fields["skip_html"] = true
			}
			if msg.SkipLinks {
				fields["skip_links"] = true
			}
			if msg.CheckExternal {
				fields["check_external"] = true
			}
			if msg.Strict {
				fields["strict"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[CheckSiteCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &CheckSiteHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[CheckSiteCommand].
func (h *CheckSiteHandler) Execute(ctx context.Context, msg CheckSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}
