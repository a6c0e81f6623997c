package interfaces

import "context"

// Logger is the leveled logging contract press modules write against. The
// method set matches github.com/goliatone/go-logger, so hosts already using
// that package can pass their loggers straight through.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	WithContext(ctx context.Context) Logger
}

// LoggerProvider hands out named loggers. Implementations may scope children
// per module or return a single shared instance for every name.
type LoggerProvider interface {
	GetLogger(name string) Logger
}

// FieldsLogger is an optional extension for loggers that can bind persistent
// structured fields. WithFields returns a logger that attaches the fields to
// every entry it writes.
type FieldsLogger interface {
	WithFields(fields map[string]any) Logger
}
