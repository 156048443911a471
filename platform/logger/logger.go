// Package logger wraps log/slog with the attributes and event helpers the
// address lookup service logs with.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

type contextKey string

const (
	// RequestIDKey holds the HTTP correlation ID set by httpkit.RequestID.
	RequestIDKey contextKey = "request_id"
	// SessionIDKey holds the address lookup session ID.
	SessionIDKey contextKey = "session_id"
)

// contextAttrs lists the context values WithContext copies onto records.
var contextAttrs = []contextKey{RequestIDKey, SessionIDKey}

type Logger struct {
	*slog.Logger
}

// New logs to stdout: text at debug level in development, JSON at info
// level everywhere else.
func New(env string) *Logger {
	return NewWithWriter(env, os.Stdout)
}

func NewWithWriter(env string, w io.Writer) *Logger {
	if strings.EqualFold(env, "development") {
		return &Logger{Logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	}
	return &Logger{Logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))}
}

// Discard drops every record.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithContext adds the correlation values found on ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}
	var attrs []any
	for _, key := range contextAttrs {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			attrs = append(attrs, slog.String(string(key), v))
		}
	}
	if len(attrs) == 0 {
		return l
	}
	return &Logger{Logger: l.With(attrs...)}
}

func (l *Logger) WithSessionID(sessionID string) *Logger {
	return &Logger{Logger: l.With(slog.String(string(SessionIDKey), sessionID))}
}

func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// LookupCall records one provider round trip. Failures log at warn, the
// rest at debug.
func (l *Logger) LookupCall(operation, outcome string, latency time.Duration, err error) {
	attrs := []any{
		slog.String("operation", operation),
		slog.String("outcome", outcome),
		slog.Float64("latency_ms", float64(latency.Milliseconds())),
	}
	if err != nil {
		l.Warn("lookup_call", append(attrs, slog.String("error", err.Error()))...)
		return
	}
	l.Debug("lookup_call", attrs...)
}

func (l *Logger) RecordStoreError(operation, recordID string, err error) {
	l.Error("record_store_error",
		slog.String("operation", operation),
		slog.String("record_id", recordID),
		slog.String("error", err.Error()),
	)
}

// SaveOutcome records how a widget save ended.
func (l *Logger) SaveOutcome(recordID, status string, written, invalid int) {
	l.Info("address_save",
		slog.String("record_id", recordID),
		slog.String("status", status),
		slog.Int("fields_written", written),
		slog.Int("fields_invalid", invalid),
	)
}

func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
