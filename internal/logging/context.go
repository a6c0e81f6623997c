package logging

import (
	"context"
	"maps"
)

type contextKey string

const contextFieldsKey contextKey = "press.logging.fields"

// ContextWithFields annotates ctx with structured fields for later log
// entries. Fields already on the context survive the merge; the new values
// win on key collisions.
func ContextWithFields(ctx context.Context, fields map[string]any) context.Context {
	if ctx == nil || len(fields) == 0 {
		return ctx
	}

	existing := ContextFields(ctx)
	merged := make(map[string]any, len(existing)+len(fields))
	maps.Copy(merged, existing)
	maps.Copy(merged, fields)
	return context.WithValue(ctx, contextFieldsKey, merged)
}

// ContextFields returns the fields annotated on ctx, or nil. Callers get
// their own copy; mutating it does not leak into later log entries.
func ContextFields(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	fields, ok := ctx.Value(contextFieldsKey).(map[string]any)
	if !ok || len(fields) == 0 {
		return nil
	}
	return maps.Clone(fields)
}
