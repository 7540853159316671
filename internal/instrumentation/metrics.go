package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrOperation = "operation"
	attrStatus    = "status"
	attrVerdict   = "verdict"
	attrStage     = "stage"
	attrIntent    = "intent"
	attrResult    = "result"
	attrTool      = "tool"
)

// Metrics provides methods for recording observability metrics.
// A zero Metrics is a valid no-op recorder.
type Metrics struct {
	// Calendar API metrics
	calendarOperationsTotal   metric.Int64Counter
	calendarOperationDuration metric.Float64Histogram

	// Engine metrics
	availabilityChecksTotal metric.Int64Counter

	// Conversation metrics
	conversationTurnsTotal metric.Int64Counter
	activeConversations    metric.Int64Gauge
	bookingsTotal          metric.Int64Counter

	// MCP Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.calendarOperationsTotal, err = meter.Int64Counter(
		"calendar_operations_total",
		metric.WithDescription("Total number of Google Calendar API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_operations_total counter: %w", err)
	}

	m.calendarOperationDuration, err = meter.Float64Histogram(
		"calendar_operation_duration_seconds",
		metric.WithDescription("Google Calendar API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_operation_duration_seconds histogram: %w", err)
	}

	m.availabilityChecksTotal, err = meter.Int64Counter(
		"availability_checks_total",
		metric.WithDescription("Total number of availability checks by verdict"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create availability_checks_total counter: %w", err)
	}

	m.conversationTurnsTotal, err = meter.Int64Counter(
		"conversation_turns_total",
		metric.WithDescription("Total number of handled conversation turns"),
		metric.WithUnit("{turn}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation_turns_total counter: %w", err)
	}

	m.activeConversations, err = meter.Int64Gauge(
		"active_conversations",
		metric.WithDescription("Number of conversations with stored state"),
		metric.WithUnit("{conversation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active_conversations gauge: %w", err)
	}

	m.bookingsTotal, err = meter.Int64Counter(
		"bookings_total",
		metric.WithDescription("Total number of booking attempts by result"),
		metric.WithUnit("{booking}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create bookings_total counter: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordCalendarOperation records a Calendar API call.
//
// Parameters:
//   - operation: API method ("events.list", "freebusy.query", "events.insert")
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the operation
func (m *Metrics) RecordCalendarOperation(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil || m.calendarOperationsTotal == nil || m.calendarOperationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := metric.WithAttributes(
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.calendarOperationsTotal.Add(ctx, 1, attrs)
	m.calendarOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordAvailabilityCheck records the verdict of one availability check.
func (m *Metrics) RecordAvailabilityCheck(ctx context.Context, verdict string) {
	if m == nil || m.availabilityChecksTotal == nil {
		return
	}
	m.availabilityChecksTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrVerdict, verdict)))
}

// RecordConversationTurn records a handled turn with the stage it started in
// and the intent it was classified as.
func (m *Metrics) RecordConversationTurn(ctx context.Context, stage, intent string) {
	if m == nil || m.conversationTurnsTotal == nil {
		return
	}
	m.conversationTurnsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrStage, stage),
		attribute.String(attrIntent, intent),
	))
}

// SetActiveConversations records the current number of stored conversations.
func (m *Metrics) SetActiveConversations(ctx context.Context, n int) {
	if m == nil || m.activeConversations == nil {
		return
	}
	m.activeConversations.Record(ctx, int64(n))
}

// RecordBooking records a booking attempt.
// Result should be one of the BookingResult constants.
func (m *Metrics) RecordBooking(ctx context.Context, result string) {
	if m == nil || m.bookingsTotal == nil {
		return
	}
	m.bookingsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}
