package log

import (
	"context"

	"github.com/mercatohq/mercato/internal/contexts"
)

// Hook contributes request-scoped fields to every log entry.
type Hook interface {
	Apply(ctx context.Context, msg string) []Field
}

// HookFunc adapts a function to the Hook interface.
type HookFunc func(ctx context.Context, msg string) []Field

func (f HookFunc) Apply(ctx context.Context, msg string) []Field {
	return f(ctx, msg)
}

var defaultHooks = []Hook{HookFunc(requestFields)}

func hooks() []Hook {
	return defaultHooks
}

// requestFields attaches the request id and caller identity when present.
func requestFields(ctx context.Context, _ string) []Field {
	if ctx == nil {
		return nil
	}

	var fields []Field

	if requestID, ok := contexts.GetRequestID(ctx); ok {
		fields = append(fields, String("request_id", requestID))
	}

	if ident, ok := contexts.GetIdentity(ctx); ok {
		fields = append(fields,
			String("subject_id", ident.SubjectID),
			String("role", ident.Role.String()),
		)
	}

	return fields
}
