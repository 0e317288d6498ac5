package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger wraps slog.Logger with booking-core helpers
type Logger struct {
	*slog.Logger
}

// New creates a new logger instance. Text output in debug mode for
// readability, JSON in release mode for log shipping.
func New() *Logger {
	level := getLogLevel(os.Getenv("LOG_LEVEL"))

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if gin.Mode() == gin.DebugMode {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// getLogLevel converts string to slog.Level
func getLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRequestID adds request ID to logger context
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("request_id", requestID)),
	}
}

// WithUserID adds user ID to logger context
func (l *Logger) WithUserID(userID int64) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.Int64("user_id", userID)),
	}
}

// WithError adds error to logger context
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("error", err.Error())),
	}
}

// WithFields adds multiple fields to logger context
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	return &Logger{
		Logger: l.Logger.With(args...),
	}
}

// WithComponent labels log lines for a subsystem (sweeper, subscriber, ...)
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("component", name)),
	}
}

// HTTP logging

// LogHTTPRequest logs one line per served request
func (l *Logger) LogHTTPRequest(c *gin.Context, duration time.Duration) {
	l.Logger.InfoContext(c.Request.Context(),
		"HTTP Request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("query", c.Request.URL.RawQuery),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("duration", duration),
		slog.String("ip", c.ClientIP()),
		slog.String("user_agent", c.Request.UserAgent()),
		slog.Int("size", c.Writer.Size()),
	)
}

// LogHTTPError logs a request that failed before a handler produced a response
func (l *Logger) LogHTTPError(c *gin.Context, err error, statusCode int) {
	l.Logger.ErrorContext(c.Request.Context(),
		"HTTP Error",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.Int("status", statusCode),
		slog.String("error", err.Error()),
		slog.String("ip", c.ClientIP()),
	)
}

// Domain logging

// LogBookingTransition logs a booking status change
func (l *Logger) LogBookingTransition(ctx context.Context, bookingID, eventID, userID int64, from, to string) {
	l.Logger.InfoContext(ctx,
		"Booking Transition",
		slog.Int64("booking_id", bookingID),
		slog.Int64("event_id", eventID),
		slog.Int64("user_id", userID),
		slog.String("from", from),
		slog.String("to", to),
	)
}

// LogWaitlistTransition logs a waitlist entry status change
func (l *Logger) LogWaitlistTransition(ctx context.Context, entryID, eventID, userID int64, from, to string) {
	l.Logger.InfoContext(ctx,
		"Waitlist Transition",
		slog.Int64("entry_id", entryID),
		slog.Int64("event_id", eventID),
		slog.Int64("user_id", userID),
		slog.String("from", from),
		slog.String("to", to),
	)
}

// LogCapacityChange logs a ledger mutation
func (l *Logger) LogCapacityChange(ctx context.Context, eventID int64, op string, qty int, version int64) {
	l.Logger.DebugContext(ctx,
		"Capacity Change",
		slog.Int64("event_id", eventID),
		slog.String("op", op),
		slog.Int("quantity", qty),
		slog.Int64("version", version),
	)
}

// LogSweepCycle logs one sweeper pass
func (l *Logger) LogSweepCycle(ctx context.Context, sweeper string, processed int, duration time.Duration) {
	l.Logger.DebugContext(ctx,
		"Sweep Cycle",
		slog.String("sweeper", sweeper),
		slog.Int("processed", processed),
		slog.Duration("duration", duration),
	)
}

// LogLockTimeout logs an advisory lock acquisition failure
func (l *Logger) LogLockTimeout(ctx context.Context, key string, waited time.Duration) {
	l.Logger.WarnContext(ctx,
		"Lock Acquisition Timeout",
		slog.String("key", key),
		slog.Duration("waited", waited),
	)
}

// LogRateLimitExceeded logs rate limit exceeded
func (l *Logger) LogRateLimitExceeded(ctx context.Context, subject, endpoint string) {
	l.Logger.WarnContext(ctx,
		"Rate Limit Exceeded",
		slog.String("subject", subject),
		slog.String("endpoint", endpoint),
	)
}

// Helper methods for common patterns

// InfoWithContext logs an info message with context
func (l *Logger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.InfoContext(ctx, msg, args...)
}

// ErrorWithContext logs an error message with context
func (l *Logger) ErrorWithContext(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2+2)
	args = append(args, slog.String("error", err.Error()))
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.ErrorContext(ctx, msg, args...)
}

// DebugWithContext logs a debug message with context
func (l *Logger) DebugWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.DebugContext(ctx, msg, args...)
}

// Global logger instance (can be replaced with dependency injection)
var defaultLogger = New()

// GetDefault returns the default logger instance
func GetDefault() *Logger {
	return defaultLogger
}

// SetDefault sets the default logger instance
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
