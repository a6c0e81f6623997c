package gologger

import (
	"context"
	"maps"
	"testing"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-press/pkg/interfaces"
)

func TestNewProviderFormats(t *testing.T) {
	cases := []struct {
		format  string
		wantErr bool
	}{
		{format: ""},
		{format: "json"},
		{format: "console"},
		{format: "pretty"},
		{format: "xml", wantErr: true},
	}

	for _, tc := range cases {
		name := tc.format
		if name == "" {
			name = "default"
		}
		t.Run(name, func(t *testing.T) {
			p, err := NewProvider(Config{Level: "debug", Format: tc.format})
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for format %q", tc.format)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewProvider(%q) returned error: %v", tc.format, err)
			}
			logger := p.GetLogger("press.test")
			if logger == nil {
				t.Fatal("expected logger, got nil")
			}
			fieldsLogger, ok := logger.(interfaces.FieldsLogger)
			if !ok {
				t.Fatalf("expected adapter to accept fields, got %T", logger)
			}
			fieldsLogger.WithFields(map[string]any{"module": "press.test"}).Debug("adapter.initialised")
		})
	}
}

func TestNormalizeLevel(t *testing.T) {
	cases := map[string]string{
		"trace":   glog.Trace,
		" DEBUG ": glog.Debug,
		"info":    glog.Info,
		"warn":    glog.Warn,
		"warning": glog.Warn,
		"error":   glog.Error,
		"fatal":   glog.Fatal,
		"verbose": "",
		"":        "",
	}
	for in, want := range cases {
		if got := normalizeLevel(in); got != want {
			t.Errorf("normalizeLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNilProviderFallsBackToNoOp(t *testing.T) {
	var p *Provider
	logger := p.GetLogger("press.posts")
	if logger == nil {
		t.Fatal("expected noop logger, got nil")
	}
	logger.Info("ignored")
}

func TestAdapterDelegation(t *testing.T) {
	rec := &recordingLogger{}
	adapted := wrap(rec)

	adapted.Trace("trace")
	adapted.Debug("debug")
	adapted.Info("info")
	adapted.Warn("warn")
	adapted.Error("error")
	adapted.Fatal("fatal")

	want := []string{"trace", "debug", "info", "warn", "error", "fatal"}
	if len(rec.calls) != len(want) {
		t.Fatalf("expected %d calls, got %d", len(want), len(rec.calls))
	}
	for i, name := range want {
		if rec.calls[i] != name {
			t.Fatalf("call %d: expected %q, got %q", i, name, rec.calls[i])
		}
	}
}

func TestAdapterClonesFields(t *testing.T) {
	rec := &recordingLogger{}
	adapted := wrap(rec)

	fieldsLogger, ok := adapted.(interfaces.FieldsLogger)
	if !ok {
		t.Fatalf("expected adapter to accept fields, got %T", adapted)
	}
	fields := map[string]any{"entity": "post"}
	if child := fieldsLogger.WithFields(fields); child == nil {
		t.Fatal("expected WithFields to return logger")
	}

	fields["entity"] = "theme"
	if len(rec.fields) != 1 {
		t.Fatalf("expected one recorded field set, got %d", len(rec.fields))
	}
	if rec.fields[0]["entity"] != "post" {
		t.Fatalf("caller mutation leaked into recorded fields: %v", rec.fields[0]["entity"])
	}
}

func TestAdapterPropagatesContext(t *testing.T) {
	rec := &recordingLogger{}
	adapted := wrap(rec)

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "value")
	adapted.WithContext(ctx)
	if len(rec.contexts) != 1 || rec.contexts[0] != ctx {
		t.Fatalf("expected context propagation, got %#v", rec.contexts)
	}
}

type recordingLogger struct {
	calls    []string
	fields   []map[string]any
	contexts []context.Context
}

var (
	_ glog.Logger       = (*recordingLogger)(nil)
	_ glog.FieldsLogger = (*recordingLogger)(nil)
)

func (r *recordingLogger) Trace(string, ...any) { r.calls = append(r.calls, "trace") }
func (r *recordingLogger) Debug(string, ...any) { r.calls = append(r.calls, "debug") }
func (r *recordingLogger) Info(string, ...any)  { r.calls = append(r.calls, "info") }
func (r *recordingLogger) Warn(string, ...any)  { r.calls = append(r.calls, "warn") }
func (r *recordingLogger) Error(string, ...any) { r.calls = append(r.calls, "error") }
func (r *recordingLogger) Fatal(string, ...any) { r.calls = append(r.calls, "fatal") }

func (r *recordingLogger) WithContext(ctx context.Context) glog.Logger {
	r.contexts = append(r.contexts, ctx)
	return r
}

func (r *recordingLogger) WithFields(fields map[string]any) glog.Logger {
	r.fields = append(r.fields, maps.Clone(fields))
	return r
}
