package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation = "operation"
	KeySession   = "session"
	KeyStage     = "stage"
	KeyIntent    = "intent"
	KeyCalendar  = "calendar"
	KeyVerdict   = "verdict"
	KeyTurnID    = "turn_id"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyTool      = "tool"
)

// Status values for consistent logging.
// Note: These are intentionally duplicated from instrumentation package
// to avoid circular dependencies (instrumentation imports logging).
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Log output formats accepted by NewHandler.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// NewHandler returns a text or JSON slog handler writing to w.
func NewHandler(w io.Writer, format string, level slog.Level) (slog.Handler, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(format) {
	case "", FormatText:
		return slog.NewTextHandler(w, opts), nil
	case FormatJSON:
		return slog.NewJSONHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (expected %q or %q)", format, FormatText, FormatJSON)
	}
}

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithSession returns a logger carrying the anonymized session identifier.
func WithSession(logger *slog.Logger, sessionID string) *slog.Logger {
	return logger.With(Session(sessionID))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Tool returns a slog attribute for the tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Session returns a slog attribute with the anonymized session identifier.
func Session(sessionID string) slog.Attr {
	return slog.String(KeySession, AnonymizePhone(sessionID))
}

// Stage returns a slog attribute for the conversation stage.
func Stage(stage string) slog.Attr {
	return slog.String(KeyStage, stage)
}

// Intent returns a slog attribute for the classified intent.
func Intent(intent string) slog.Attr {
	return slog.String(KeyIntent, intent)
}

// Calendar returns a slog attribute for the calendar ID.
func Calendar(id string) slog.Attr {
	return slog.String(KeyCalendar, id)
}

// Verdict returns a slog attribute for an availability verdict.
func Verdict(v fmt.Stringer) slog.Attr {
	return slog.String(KeyVerdict, v.String())
}

// TurnID returns a slog attribute for the conversation turn identifier.
func TurnID(id string) slog.Attr {
	return slog.String(KeyTurnID, id)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from output.
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

// AnonymizePhone returns a hashed representation of a phone number or other
// session identifier, so log lines can be correlated without exposing it.
func AnonymizePhone(phone string) string {
	if phone == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(phone))
	return "session:" + hex.EncodeToString(hash[:8])
}

// SanitizeText returns a length indicator for free text typed by a user.
// Message bodies carry names and health details and are never logged.
func SanitizeText(text string) string {
	if text == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[text:%d chars]", len([]rune(text)))
}
