// Package logging builds the desk's slog loggers and carries request
// metadata (the request id and the acting operator) through contexts.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request IDs
	RequestIDKey contextKey = "request_id"
	// OperatorKey is the context key for the authenticated desk operator
	OperatorKey contextKey = "operator"

	scopeKey contextKey = "request_scope"
)

// Config holds logger configuration
type Config struct {
	Level       string // debug, info, warn, error
	Format      string // json, text
	Output      io.Writer
	AddSource   bool
	ServiceName string
	Environment string
}

// ParseLevel maps a level name such as "warn" or "DEBUG" to a slog level.
// Unknown names fall back to info.
func ParseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewLogger creates a structured logger. Every record carries the service
// and environment, plus the request id and operator found in its context.
func NewLogger(cfg Config) *slog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:       ParseLevel(cfg.Level),
		AddSource:   cfg.AddSource,
		ReplaceAttr: utcTimestamps,
	}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(output, opts)
	default:
		handler = slog.NewJSONHandler(output, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
	})
	return slog.New(contextHandler{Handler: handler})
}

func utcTimestamps(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
		a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339Nano))
	}
	return a
}

// contextHandler adds the request id and operator carried by the context.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if requestID := GetRequestID(ctx); requestID != "" {
		r.AddAttrs(slog.String("request_id", requestID))
	}
	if operator := GetOperator(ctx); operator != "" {
		r.AddAttrs(slog.String("operator", operator))
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{Handler: h.Handler.WithGroup(name)}
}

// RequestScope records what inner handlers learn about a request, so that
// middleware running outside them can log it once the request is done.
// It belongs to a single request and is not safe for concurrent use.
type RequestScope struct {
	operator string
}

// WithRequestScope attaches a fresh scope to the context.
func WithRequestScope(ctx context.Context) (context.Context, *RequestScope) {
	scope := &RequestScope{}
	return context.WithValue(ctx, scopeKey, scope), scope
}

// Operator returns the operator recorded for the request, if any.
func (s *RequestScope) Operator() string {
	return s.operator
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithOperator adds the acting operator's name to the context and records
// it on the request scope, if there is one.
func WithOperator(ctx context.Context, operator string) context.Context {
	if scope, ok := ctx.Value(scopeKey).(*RequestScope); ok {
		scope.operator = operator
	}
	return context.WithValue(ctx, OperatorKey, operator)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetOperator retrieves the acting operator from the context, falling back
// to the one recorded on the request scope.
func GetOperator(ctx context.Context) string {
	if operator, ok := ctx.Value(OperatorKey).(string); ok {
		return operator
	}
	if scope, ok := ctx.Value(scopeKey).(*RequestScope); ok {
		return scope.operator
	}
	return ""
}

// LogPanic logs a recovered panic value with the current goroutine's stack.
func LogPanic(ctx context.Context, logger *slog.Logger, panicValue any, attrs ...any) {
	buf := make([]byte, 8192)
	buf = buf[:runtime.Stack(buf, false)]

	attrs = append(attrs, "panic", panicValue, "stack_trace", string(buf))
	logger.ErrorContext(ctx, "panic recovered", attrs...)
}
