package logger

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// WithTraceID returns a context whose log records carry traceID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, traceID)
}

func TraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(ctxKey{}).(string)
	return traceID
}

type ctxHandler struct {
	slog.Handler
}

// Handle adds the request scoped values of ctx to r.
func (h ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if traceID := TraceID(ctx); traceID != "" {
		r.AddAttrs(slog.String("trace_id", traceID))
	}
	return h.Handler.Handle(ctx, r) //nolint:wrapcheck
}

func (h ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return ctxHandler{h.Handler.WithAttrs(attrs)}
}

func (h ctxHandler) WithGroup(name string) slog.Handler {
	return ctxHandler{h.Handler.WithGroup(name)}
}
