package commands

import (
	"context"
	"time"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/pkg/interfaces"
)

// TelemetryStatus classifies how a command run ended.
type TelemetryStatus string

const (
	// TelemetryStatusSuccess marks a run that returned no error.
	TelemetryStatusSuccess TelemetryStatus = "success"
	// TelemetryStatusFailed marks a run whose handler returned an error.
	TelemetryStatusFailed TelemetryStatus = "failed"
	// TelemetryStatusContextError marks a run cut short by cancellation or a deadline.
	TelemetryStatusContextError TelemetryStatus = "context_error"
)

// TelemetryInfo is the outcome record handed to telemetry callbacks once a
// command finishes.
type TelemetryInfo struct {
	Command   string
	Operation string
	Fields    map[string]any
	Duration  time.Duration
	Error     error
	Status    TelemetryStatus
	Logger    interfaces.Logger
}

// Telemetry observes command outcomes. Callbacks run after the handler
// returns, on the dispatching goroutine.
type Telemetry[T command.Message] func(ctx context.Context, msg T, info TelemetryInfo)

// DefaultTelemetry logs each outcome through the supplied logger, reusing the
// handler's field-enriched logger when the info carries one.
func DefaultTelemetry[T command.Message](logger interfaces.Logger) Telemetry[T] {
	if logger == nil {
		logger = logging.NoOp()
	}
	return func(_ context.Context, _ T, info TelemetryInfo) {
		entry := info.Logger
		if entry == nil {
			entry = logging.WithFields(logger, info.Fields)
		}
		args := []any{"duration_ms", info.Duration.Milliseconds()}
		if info.Status == TelemetryStatusSuccess {
			entry.Info("command.execute.success", args...)
			return
		}
		event := "command.execute.failed"
		if info.Status == TelemetryStatusContextError {
			event = "command.execute.context_error"
		}
		entry.Error(event, append(args, "error", info.Error)...)
	}
}
