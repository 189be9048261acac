package logging

import (
	"fmt"
	"log/slog"
	"strings"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation = "operation"
	KeyRequestID = "request_id"
	KeyTraceID   = "trace_id"
	KeyMessageID = "message_id"
	KeyProvider  = "provider"
	KeyLabel     = "label"
	KeyError     = "error"
	KeyCount     = "count"
)

// maxLoggedTextLen bounds free text such as raw model output.
const maxLoggedTextLen = 2000

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithRequestID returns a logger tagged with the invocation's request id.
func WithRequestID(logger *slog.Logger, requestID string) *slog.Logger {
	return logger.With(slog.String(KeyRequestID, requestID))
}

// TraceID returns a slog attribute linking a log line to its trace.
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// MessageID returns a slog attribute for a mailbox message id.
func MessageID(id string) slog.Attr {
	return slog.String(KeyMessageID, id)
}

// Provider returns a slog attribute for the completion provider name.
func Provider(name string) slog.Attr {
	return slog.String(KeyProvider, name)
}

// Label returns a slog attribute for a mailbox label name.
func Label(name string) slog.Attr {
	return slog.String(KeyLabel, name)
}

// Count returns a slog attribute for a number of items.
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from output.
// This allows safely passing Err(maybeNilErr) without adding empty attributes.
//
// Usage:
//
//	logger.Info("operation", logging.Err(err))  // Safe even if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// SanitizeToken returns a masked version of a token for logging.
// It returns a length indicator without exposing any token content,
// as even partial token prefixes can aid attacks.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}

// Truncate shortens s to at most maxLoggedTextLen bytes, marking the cut.
func Truncate(s string) string {
	if len(s) <= maxLoggedTextLen {
		return s
	}
	return s[:maxLoggedTextLen] + fmt.Sprintf("...[%d more bytes]", len(s)-maxLoggedTextLen)
}

// ParseLevel maps a level name to a slog.Level. Unknown names yield info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
