package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/slotbot/internal/logging"
)

// ToolInvocation captures information about an MCP tool call for audit logging.
type ToolInvocation struct {
	Tool string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	// Tracing context
	TraceID string
	SpanID  string
}

// NewToolInvocation creates a new ToolInvocation with timing started.
// Call Complete() when the tool operation finishes.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// Status returns "success" or "error" based on the Success field.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// WithSpanContext extracts trace context from the current span.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		ti.TraceID = span.SpanContext().TraceID().String()
		ti.SpanID = span.SpanContext().SpanID().String()
	}
	return ti
}

// Complete marks the invocation as completed and calculates duration.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// LogAttrs returns slog attributes for structured logging.
func (ti *ToolInvocation) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}
	return attrs
}

// BookingRecord is the audit trail entry written for every booking attempt.
//
// SessionID is the requester's phone number. It is hashed unless the audit
// logger is configured to include PII. Names and reasons are never logged.
type BookingRecord struct {
	SessionID  string
	CalendarID string
	Start      time.Time
	End        time.Time
	Result     string
	EventID    string
	Error      string
	TraceID    string
}

// LogAttrs returns slog attributes for the booking record.
func (br *BookingRecord) LogAttrs(includePII bool) []slog.Attr {
	session := logging.AnonymizePhone(br.SessionID)
	if includePII {
		session = br.SessionID
	}

	attrs := []slog.Attr{
		slog.String("session", session),
		slog.String("calendar", br.CalendarID),
		slog.Time("start", br.Start),
		slog.Time("end", br.End),
		slog.String("result", br.Result),
	}
	if br.EventID != "" {
		attrs = append(attrs, slog.String("event_id", br.EventID))
	}
	if br.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", br.TraceID))
	}
	if br.Error != "" {
		attrs = append(attrs, slog.String("error", br.Error))
	}
	return attrs
}

// AuditLogger provides structured audit logging for tool invocations and bookings.
// A nil *AuditLogger discards everything.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates a new AuditLogger with the given slog.Logger.
// By default, PII is not included in logs.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogToolInvocation logs a finished tool invocation.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}

	level := slog.LevelInfo
	msg := "tool_executed"
	if !ti.Success {
		level = slog.LevelWarn
		msg = "tool_failed"
	}
	al.logger.LogAttrs(context.Background(), level, msg, ti.LogAttrs()...)
}

// LogBooking logs a booking attempt.
func (al *AuditLogger) LogBooking(ctx context.Context, br *BookingRecord) {
	if al == nil || !al.enabled {
		return
	}
	if br.TraceID == "" {
		br.TraceID = GetTraceID(ctx)
	}

	level := slog.LevelInfo
	if br.Result != BookingResultBooked {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(ctx, level, "booking_audit", br.LogAttrs(al.includePII)...)
}
