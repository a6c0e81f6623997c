package commands

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-press/pkg/interfaces"
)

type testMessage struct{}

func (testMessage) Type() string { return "press.test.message" }

func (testMessage) Validate() error { return nil }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "press.test.invalid" }

func (invalidMessage) Validate() error {
	return validationError()
}

func validationError() error {
	return errors.New("invalid")
}

func TestHandlerExecuteSuccess(t *testing.T) {
	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !called {
		t.Fatal("expected handler to be invoked")
	}
}

func TestHandlerValidationShortCircuitsExecution(t *testing.T) {
	called := false
	h := NewHandler[invalidMessage](func(ctx context.Context, msg invalidMessage) error {
		called = true
		return nil
	})

	err := h.Execute(context.Background(), invalidMessage{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when validation fails")
	}
}

func TestHandlerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	err := h.Execute(ctx, testMessage{})
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when context is cancelled")
	}
}

func TestHandlerWrapsExecutionError(t *testing.T) {
	execErr := errors.New("boom")
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return execErr
	})

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected wrapped execution error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if !goerrors.HasCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category to propagate, got %v", err)
	}
}

func TestHandlerHonoursTimeoutOption(t *testing.T) {
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(20 * time.Millisecond):
			return nil
		}
	}, WithTimeout[testMessage](10*time.Millisecond))

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category for timeout, got %v", err)
	}
}

type fieldMessage struct{ Name string }

func (fieldMessage) Type() string { return "press.test.fields" }

func (fieldMessage) Validate() error { return nil }

type logSink struct {
	mu      sync.Mutex
	entries []map[string]any
}

func (s *logSink) record(fields map[string]any, args ...any) {
	entry := map[string]any{}
	for key, value := range fields {
		entry[key] = value
	}
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			entry[key] = args[i+1]
		}
	}
	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()
}

func (s *logSink) find(key string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.entries {
		if _, ok := entry[key]; ok {
			return entry
		}
	}
	return nil
}

type recordingLogger struct {
	sink   *logSink
	fields map[string]any
}

func (l *recordingLogger) Trace(msg string, args ...any) { l.sink.record(l.fields, args...) }
func (l *recordingLogger) Debug(msg string, args ...any) { l.sink.record(l.fields, args...) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.sink.record(l.fields, args...) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.sink.record(l.fields, args...) }
func (l *recordingLogger) Error(msg string, args ...any) { l.sink.record(l.fields, args...) }
func (l *recordingLogger) Fatal(msg string, args ...any) { l.sink.record(l.fields, args...) }

func (l *recordingLogger) WithContext(ctx context.Context) interfaces.Logger { return l }

func (l *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	merged := map[string]any{}
	for key, value := range l.fields {
		merged[key] = value
	}
	for key, value := range fields {
		merged[key] = value
	}
	return &recordingLogger{sink: l.sink, fields: merged}
}

func TestHandlerMessageFieldsReachLogger(t *testing.T) {
	sink := &logSink{}
	h := NewHandler[fieldMessage](func(ctx context.Context, msg fieldMessage) error {
		return nil
	},
		WithLogger[fieldMessage](&recordingLogger{sink: sink}),
		WithOperation[fieldMessage]("test.fields"),
		WithMessageFields(func(msg fieldMessage) map[string]any {
			return map[string]any{"name": msg.Name}
		}),
	)

	if err := h.Execute(context.Background(), fieldMessage{Name: "posts"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	entry := sink.find("name")
	if entry == nil {
		t.Fatal("expected log entry carrying message fields")
	}
	if entry["name"] != "posts" || entry["operation"] != "test.fields" {
		t.Fatalf("unexpected entry fields: %+v", entry)
	}
}

func TestHandlerTelemetryReceivesOutcome(t *testing.T) {
	var infos []TelemetryInfo
	h := NewHandler[fieldMessage](func(ctx context.Context, msg fieldMessage) error {
		return nil
	},
		WithMessageFields(func(msg fieldMessage) map[string]any {
			return map[string]any{"name": msg.Name}
		}),
		WithTelemetry(func(ctx context.Context, msg fieldMessage, info TelemetryInfo) {
			infos = append(infos, info)
		}),
	)

	if err := h.Execute(context.Background(), fieldMessage{Name: "posts"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("expected one telemetry callback, got %d", len(infos))
	}
	if infos[0].Status != TelemetryStatusSuccess {
		t.Fatalf("expected success status, got %s", infos[0].Status)
	}
	if infos[0].Fields["name"] != "posts" {
		t.Fatalf("expected message field in telemetry, got %+v", infos[0].Fields)
	}
}

func TestHandlerTelemetryReceivesFailure(t *testing.T) {
	execErr := errors.New("boom")
	var info TelemetryInfo
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return execErr
	}, WithTelemetry(func(ctx context.Context, msg testMessage, i TelemetryInfo) {
		info = i
	}))

	if err := h.Execute(context.Background(), testMessage{}); err == nil {
		t.Fatal("expected execution error")
	}
	if info.Status != TelemetryStatusFailed {
		t.Fatalf("expected failed status, got %s", info.Status)
	}
	if info.Error == nil {
		t.Fatal("expected telemetry error to be populated")
	}
}
