package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

type actorKey struct{}

// actor is filled in by handlers running inside HTTPMiddleware so the
// completed-request line can report who made the call.
type actor struct {
	identity string
}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// Ctx retrieves the logger from the context.
// If no logger is found, the global logger is returned.
func Ctx(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return l
	}
	return L()
}

// WithIdentity records the caller identity for the request log line and
// returns a context whose logger carries the identity field.
func WithIdentity(ctx context.Context, identity string) context.Context {
	if a, ok := ctx.Value(actorKey{}).(*actor); ok {
		a.identity = identity
	}
	l := Ctx(ctx)
	return WithLogger(ctx, l.With().Str(FieldIdentity, identity).Logger())
}
