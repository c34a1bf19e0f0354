package logging

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	runIDKey ctxKey = iota
	incidentIDKey
	categoryKey
)

// WithRunID returns a context with the flow run ID set.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// WithIncidentID returns a context with the incident ID set.
func WithIncidentID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, incidentIDKey, id)
}

// WithCategory returns a context with the routing category set.
func WithCategory(ctx context.Context, category string) context.Context {
	return context.WithValue(ctx, categoryKey, category)
}

// RunID extracts the flow run ID from the context, or "" if absent.
func RunID(ctx context.Context) string {
	v, _ := ctx.Value(runIDKey).(string)
	return v
}

// IncidentID extracts the incident ID from the context, or "" if absent.
func IncidentID(ctx context.Context) string {
	v, _ := ctx.Value(incidentIDKey).(string)
	return v
}

// Category extracts the routing category from the context, or "" if absent.
func Category(ctx context.Context) string {
	v, _ := ctx.Value(categoryKey).(string)
	return v
}

// CorrelationHandler wraps an slog.Handler, automatically injecting
// correlation IDs from the context into every log record.
// Use with slog.New(NewCorrelationHandler(inner)) so callers can use
// logger.InfoContext(ctx, ...) and IDs appear automatically.
type CorrelationHandler struct {
	inner slog.Handler
}

// NewCorrelationHandler wraps the given handler with automatic correlation ID injection.
func NewCorrelationHandler(inner slog.Handler) *CorrelationHandler {
	return &CorrelationHandler{inner: inner}
}

func (h *CorrelationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *CorrelationHandler) Handle(ctx context.Context, r slog.Record) error {
	if v := RunID(ctx); v != "" {
		r.AddAttrs(slog.String("run_id", v))
	}
	if v := IncidentID(ctx); v != "" {
		r.AddAttrs(slog.String("incident_id", v))
	}
	if v := Category(ctx); v != "" {
		r.AddAttrs(slog.String("category", v))
	}
	return h.inner.Handle(ctx, r)
}

func (h *CorrelationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *CorrelationHandler) WithGroup(name string) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithGroup(name)}
}
