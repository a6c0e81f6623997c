package markdowncmd

import (
	"context"
	"errors"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-press/internal/commands"
	"github.com/goliatone/go-press/pkg/interfaces"
)

// CommandRegistry is the registration surface hosts hand to RegisterMarkdownCommands.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CronRegistrar mirrors the go-command cron registration signature.
type CronRegistrar func(command.HandlerConfig, any) error

// HandlerSet bundles the constructed markdown handlers so callers can wire
// them into dispatchers or schedulers after registration.
type HandlerSet struct {
	Import *ImportDirectoryHandler
	Sync   *SyncDirectoryHandler
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	importOpts []commands.HandlerOption[ImportDirectoryCommand]
	syncOpts   []commands.HandlerOption[SyncDirectoryCommand]
}

func buildOptions(opts []Option) options {
	var cfg options
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithImportHandlerOptions forwards opts to the import handler constructor.
func WithImportHandlerOptions(opts ...commands.HandlerOption[ImportDirectoryCommand]) Option {
	return func(cfg *options) {
		cfg.importOpts = append(cfg.importOpts, opts...)
	}
}

// WithSyncHandlerOptions forwards opts to the sync handler constructor.
func WithSyncHandlerOptions(opts ...commands.HandlerOption[SyncDirectoryCommand]) Option {
	return func(cfg *options) {
		cfg.syncOpts = append(cfg.syncOpts, opts...)
	}
}

// RegisterMarkdownCommands builds the import and sync handlers and, when reg
// is non-nil, records them there. The returned HandlerSet lets callers layer
// dispatcher or cron integrations on top.
func RegisterMarkdownCommands(reg CommandRegistry, service interfaces.MarkdownService, provider interfaces.LoggerProvider, gates FeatureGates, opts ...Option) (*HandlerSet, error) {
	if service == nil {
		return nil, errors.New("markdown command registration: service is nil")
	}

	cfg := buildOptions(opts)
	logger := commands.CommandLogger(provider, "markdown")

	set := &HandlerSet{
		Import: NewImportDirectoryHandler(service, logger, gates, cfg.importOpts...),
		Sync:   NewSyncDirectoryHandler(service, logger, gates, cfg.syncOpts...),
	}

	if reg != nil {
		for _, handler := range []any{set.Import, set.Sync} {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}

	return set, nil
}

// RegisterMarkdownCron schedules the sync handler through reg with the given
// cron config. Scheduled runs execute with a background context.
func RegisterMarkdownCron(reg CronRegistrar, handler *SyncDirectoryHandler, cfg command.HandlerConfig, msg SyncDirectoryCommand) error {
	if reg == nil || handler == nil {
		return nil
	}
	return reg(cfg, func() error {
		return handler.Execute(context.Background(), msg)
	})
}
