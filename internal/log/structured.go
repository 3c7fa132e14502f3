package log

import (
	"context"
	"net/http"
)

type contextKey string

const requestIDContextKey contextKey = "request_id"

// WithRequestID stores a request ID in the context for handlers to read back.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// RequestIDFromContext returns the request ID, or "" if none was set.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDContextKey).(string); ok {
		return id
	}
	return ""
}

// StructuredLogger emits the fixed-shape records for request handling and
// the domain events worth a stable schema. One method per event keeps the
// field set consistent across call sites.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogHTTPStart records an accepted request before it reaches a handler.
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithRequestID(RequestIDFromContext(ctx)).
		WithClientIP(clientIP)

	sl.logger.WithComponent(ComponentHTTP).InfoContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd records a finished request, leveled by status class.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithRequestID(RequestIDFromContext(ctx)).
		WithClientIP(clientIP)

	logger := sl.logger.WithComponent(ComponentHTTP)
	switch {
	case statusCode >= 500:
		logger.ErrorContext(ctx, "HTTP request completed", fields.ToSlice()...)
	case statusCode >= 400:
		logger.WarnContext(ctx, "HTTP request completed", fields.ToSlice()...)
	default:
		logger.InfoContext(ctx, "HTTP request completed", fields.ToSlice()...)
	}
}

// LogTransactionCreated records a successful transaction write.
func (sl *StructuredLogger) LogTransactionCreated(ctx context.Context, id, txnType, category, accountName string) {
	fields := NewFields().
		WithTransaction(id, txnType, category, accountName).
		WithOperation(OpCreate)

	sl.logger.WithComponent(ComponentTransaction).InfoContext(ctx, "Transaction created", fields.ToSlice()...)
}

// LogError records a failure with its component and operation attached.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component, operation string, fields LogFields) {
	all := fields.
		WithError(err).
		WithOperation(operation).
		WithRequestID(RequestIDFromContext(ctx))

	sl.logger.WithComponent(component).ErrorContext(ctx, msg, all.ToSlice()...)
}
