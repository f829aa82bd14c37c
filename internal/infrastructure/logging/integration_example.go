// This file provides helpers for integrating the logging package with the
// session dispatcher and transport layer.
package logging

import (
	"context"
	"time"
)

type loggerKey struct{}

// WithLogger stashes a logger on ctx for downstream code that only has the
// context, not the dispatcher's own field.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext extracts the logger stashed by WithLogger, falling back to
// Default() if none was set.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*Logger); ok {
		return logger
	}
	return Default()
}

// LogFrameSent logs an outbound transport frame at debug level.
func LogFrameSent(ctx context.Context, to, thread string, bodyLen int) {
	FromContext(ctx).DebugContext(ctx, "frame sent", Fields{
		"to":       to,
		"thread":   thread,
		"body_len": bodyLen,
	})
}

// LogFrameReceived logs an inbound transport frame at debug level.
func LogFrameReceived(ctx context.Context, from, thread string, bodyLen int) {
	FromContext(ctx).DebugContext(ctx, "frame received", Fields{
		"from":     from,
		"thread":   thread,
		"body_len": bodyLen,
	})
}

// LogRequestTimeout logs a RequestRecv wait that exhausted its deadline.
func LogRequestTimeout(ctx context.Context, threadTrace uint64, waited time.Duration) {
	FromContext(ctx).WarnContext(ctx, "request timed out", Fields{
		"thread_trace": threadTrace,
		"waited_ms":    waited.Milliseconds(),
	})
}

// ServerStartupLogger logs server startup information.
func ServerStartupLogger(logger *Logger, serviceName, address string) {
	logger.Info("session server starting", Fields{
		"service": serviceName,
		"address": address,
	})
}

// WithSessionID returns a logger with the session_id field attached, the
// counterpart to WithXid for lines that span a session's whole lifetime
// rather than a single frame.
func WithSessionID(logger *Logger, sessionID string) *Logger {
	return logger.With(Fields{"session_id": sessionID})
}
