package commands

import (
	"errors"
	"strings"

	command "github.com/goliatone/go-command"
	cmdcore "github.com/goliatone/go-press/internal/commands"
	checkcmd "github.com/goliatone/go-press/internal/commands/check"
	markdowncmd "github.com/goliatone/go-press/internal/commands/markdown"
	staticcmd "github.com/goliatone/go-press/internal/commands/static"
	"github.com/goliatone/go-press/internal/di"
	"github.com/goliatone/go-press/pkg/interfaces"
)

// CommandRegistry records command handlers so hosts can expose them via CLI or cron.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CommandDispatcher subscribes command handlers to a dispatcher implementation.
type CommandDispatcher interface {
	RegisterCommand(handler any) (CommandSubscription, error)
}

// CommandSubscription allows hosts to tear down dispatcher subscriptions.
type CommandSubscription interface {
	Unsubscribe()
}

// CronRegistrar registers command handlers with a cron scheduler.
type CronRegistrar func(command.HandlerConfig, any) error

// RegistrationOptions configures how handlers are registered during construction.
type RegistrationOptions struct {
	Registry       CommandRegistry
	Dispatcher     CommandDispatcher
	CronRegistrar  CronRegistrar
	LoggerProvider interfaces.LoggerProvider
	// SyncCron schedules the markdown sync handler against the configured
	// content directory using the supplied cron expression.
	SyncCron string
}

// RegistrationResult captures the constructed command handlers and any dispatcher subscriptions.
type RegistrationResult struct {
	Handlers      []any
	Subscriptions []CommandSubscription
}

// RegisterContainerCommands builds the command handlers exposed by the provided container and
// optionally registers them with registry/dispatcher/cron integrations.
func RegisterContainerCommands(container *di.Container, opts RegistrationOptions) (*RegistrationResult, error) {
	if container == nil {
		return &RegistrationResult{}, nil
	}

	cfg := container.Config

	provider := opts.LoggerProvider
	if provider == nil {
		provider = container.LoggerProvider()
	}

	if opts.Registry != nil && opts.CronRegistrar != nil {
		if reg, ok := opts.Registry.(interface {
			SetCronRegister(func(command.HandlerConfig, any) error) *command.Registry
		}); ok && reg != nil {
			reg.SetCronRegister(opts.CronRegistrar)
		}
	}

	result := &RegistrationResult{
		Handlers:      make([]any, 0),
		Subscriptions: make([]CommandSubscription, 0),
	}

	var errs error

	register := func(handler any) {
		if handler == nil {
			return
		}
		result.Handlers = append(result.Handlers, handler)

		if opts.Registry != nil {
			if err := opts.Registry.RegisterCommand(handler); err != nil {
				errs = errors.Join(errs, err)
			}
		}

		if opts.Dispatcher != nil {
			subscription, err := opts.Dispatcher.RegisterCommand(handler)
			if err != nil {
				errs = errors.Join(errs, err)
			} else if subscription != nil {
				result.Subscriptions = append(result.Subscriptions, subscription)
			}
		}

		if opts.CronRegistrar != nil {
			if cronCmd, ok := handler.(command.CronCommand); ok {
				if err := opts.CronRegistrar(cronCmd.CronOptions(), cronCmd.CronHandler()); err != nil {
					errs = errors.Join(errs, err)
				}
			}
		}
	}

	loggerFor := func(module string) interfaces.Logger {
		return cmdcore.CommandLogger(provider, module)
	}

	// Markdown commands.
	if service := container.MarkdownService(); service != nil && cfg.Features.Markdown {
		gates := markdowncmd.FeatureGates{
			MarkdownEnabled: func() bool { return cfg.Features.Markdown },
		}
		handlerSet, err := markdowncmd.RegisterMarkdownCommands(nil, service, provider, gates)
		if err != nil {
			errs = errors.Join(errs, err)
		} else if handlerSet != nil {
			register(handlerSet.Import)
			register(handlerSet.Sync)

			if expr := strings.TrimSpace(opts.SyncCron); expr != "" && opts.CronRegistrar != nil {
				err := markdowncmd.RegisterMarkdownCron(
					markdowncmd.CronRegistrar(opts.CronRegistrar),
					handlerSet.Sync,
					command.HandlerConfig{Expression: expr},
					markdowncmd.SyncDirectoryCommand{Directory: cfg.Content.Dir},
				)
				if err != nil {
					errs = errors.Join(errs, err)
				}
			}
		}
	}

	// Static generator commands.
	if service := container.GeneratorService(); service != nil && cfg.Features.Generator && cfg.Generator.Enabled {
		gates := staticcmd.FeatureGates{
			GeneratorEnabled: func() bool { return cfg.Features.Generator && cfg.Generator.Enabled },
		}
		staticLogger := loggerFor("static")
		register(staticcmd.NewBuildSiteHandler(service, staticLogger, gates))
		register(staticcmd.NewCleanSiteHandler(service, staticLogger, gates))
	}

	// Integrity commands.
	if service := container.IntegrityService(); service != nil && cfg.Features.Integrity && cfg.Integrity.Enabled {
		gates := checkcmd.FeatureGates{
			IntegrityEnabled: func() bool { return cfg.Features.Integrity && cfg.Integrity.Enabled },
		}
		register(checkcmd.NewCheckSiteHandler(service, loggerFor("check"), gates))
	}

	if errs != nil && len(result.Handlers) == 0 {
		return result, errs
	}

	if len(result.Handlers) == 0 {
		return result, errors.New("no command handlers registered; ensure services are configured and required features enabled")
	}

	return result, errs
}
