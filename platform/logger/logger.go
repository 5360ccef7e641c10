// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
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

// WithContext returns a logger with request-scoped values extracted.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("request_id", requestID))}
	}

	if userID, ok := ctx.Value(UserIDKey).(string); ok && userID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("user_id", userID))}
	}

	return newLogger
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

// LeadScored logs a completed scoring pass for a lead.
func (l *Logger) LeadScored(leadID string, composite int, quality string) {
	l.Info("lead_scored",
		slog.String("lead_id", leadID),
		slog.Int("composite_score", composite),
		slog.String("quality", quality),
	)
}

// CriterionSkipped logs a scoring criterion that could not be evaluated.
// A malformed rule must never abort the scoring pass, so it is recorded here
// and the pass continues.
func (l *Logger) CriterionSkipped(criterionID, criterionName string, err error) {
	l.Warn("scoring_criterion_skipped",
		slog.String("criterion_id", criterionID),
		slog.String("criterion_name", criterionName),
		slog.String("error", err.Error()),
	)
}

// StageTransition logs an opportunity pipeline stage change.
func (l *Logger) StageTransition(opportunityID, fromStage, toStage string) {
	l.Info("opportunity_stage_transition",
		slog.String("opportunity_id", opportunityID),
		slog.String("from_stage", fromStage),
		slog.String("to_stage", toStage),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
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
