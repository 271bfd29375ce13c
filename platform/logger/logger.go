// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// UserIDKey is the context key for user ID
	UserIDKey contextKey = "user_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewNop creates a logger that discards everything. Intended for tests and
// command line tools that only print results.
func NewNop() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithContext returns a logger carrying the request_id and user_id found in
// ctx, as set by the httpkit middleware.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = newLogger.WithRequestID(requestID)
	}

	if userID, ok := ctx.Value(UserIDKey).(string); ok && userID != "" {
		newLogger = newLogger.WithUserID(userID)
	}

	return newLogger
}

// WithRequestID returns a logger with request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("request_id", requestID)),
	}
}

// WithUserID returns a logger with user ID
func (l *Logger) WithUserID(userID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("user_id", userID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// HTTPError logs an HTTP error
func (l *Logger) HTTPError(method, path string, status int, err error, clientIP string) {
	l.Error("http_error",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
		slog.String("client_ip", clientIP),
	)
}

// CacheDegraded logs a cache failure the caller recovered from by going to
// the source instead.
func (l *Logger) CacheDegraded(cache, operation string, err error) {
	l.Warn("cache_degraded",
		slog.String("cache", cache),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}

// PoolRefreshed logs a swap of the in-memory entity pool.
func (l *Logger) PoolRefreshed(source string, version uint64, leads, clients, documents int) {
	l.Info("entity_pool_refreshed",
		slog.String("source", source),
		slog.Uint64("version", version),
		slog.Int("leads", leads),
		slog.Int("clients", clients),
		slog.Int("custom_documents", documents),
	)
}

// SearchSession logs a lifecycle step of a search session.
func (l *Logger) SearchSession(event, sessionID string, attrs ...slog.Attr) {
	args := make([]any, 0, len(attrs)+1)
	args = append(args, slog.String("session_id", sessionID))
	for _, a := range attrs {
		args = append(args, a)
	}
	l.Debug("search_session_"+event, args...)
}

// StaleSearchDiscarded records a superseded search run. It is expected
// behaviour while typing, so it is logged at debug level.
func (l *Logger) StaleSearchDiscarded(sessionID string, runID, latestRunID uint64) {
	l.Debug("stale_search_discarded",
		slog.String("session_id", sessionID),
		slog.Uint64("run_id", runID),
		slog.Uint64("latest_run_id", latestRunID),
	)
}
