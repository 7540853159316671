package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/slotbot/internal/logging"
)

// TracerName is the tracer name used for all slotbot spans.
const TracerName = "github.com/teemow/slotbot"

// Span attribute keys.
const (
	SpanAttrTool       = "mcp.tool"
	SpanAttrOperation  = "calendar.operation"
	SpanAttrCalendarID = "calendar.id"
	SpanAttrSession    = "conversation.session"
	SpanAttrStage      = "conversation.stage"
	SpanAttrIntent     = "conversation.intent"
	SpanAttrTurnID     = "conversation.turn_id"
	SpanAttrVerdict    = "availability.verdict"
)

// SpanAttributeBuilder helps construct OpenTelemetry span attributes
// with consistent naming.
type SpanAttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewSpanAttributeBuilder creates a new SpanAttributeBuilder.
func NewSpanAttributeBuilder() *SpanAttributeBuilder {
	return &SpanAttributeBuilder{attrs: make([]attribute.KeyValue, 0, 8)}
}

// WithCalendar adds the calendar ID.
func (b *SpanAttributeBuilder) WithCalendar(id string) *SpanAttributeBuilder {
	if id != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrCalendarID, id))
	}
	return b
}

// WithSession adds the anonymized session identifier.
func (b *SpanAttributeBuilder) WithSession(sessionID string) *SpanAttributeBuilder {
	if sessionID != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrSession, logging.AnonymizePhone(sessionID)))
	}
	return b
}

// WithStage adds the conversation stage.
func (b *SpanAttributeBuilder) WithStage(stage string) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.String(SpanAttrStage, stage))
	return b
}

// WithTurnID adds the turn identifier.
func (b *SpanAttributeBuilder) WithTurnID(id string) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.String(SpanAttrTurnID, id))
	return b
}

// Build returns the constructed attributes.
func (b *SpanAttributeBuilder) Build() []attribute.KeyValue {
	return b.attrs
}

// StartSpan starts a new span with the given name and attributes.
// The caller is responsible for ending the span with defer span.End().
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartToolSpan starts a span for an MCP tool invocation.
func StartToolSpan(ctx context.Context, toolName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{attribute.String(SpanAttrTool, toolName)}, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "tool."+toolName,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartCalendarSpan starts a client span named "calendar.<operation>".
func StartCalendarSpan(ctx context.Context, operation, calendarID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{
		attribute.String(SpanAttrOperation, operation),
		attribute.String(SpanAttrCalendarID, calendarID),
	}, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "calendar."+operation,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// StartTurnSpan starts the "conversation.turn" span for one incoming message.
func StartTurnSpan(ctx context.Context, sessionID, turnID string) (context.Context, trace.Span) {
	attrs := NewSpanAttributeBuilder().WithSession(sessionID).WithTurnID(turnID).Build()

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "conversation.turn",
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
}

// SetSpanError records an error on the span and sets the status to error.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// GetTraceID returns the trace ID from the current span in context.
// Returns empty string if no valid span is present.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}

// GetSpanID returns the span ID from the current span in context.
// Returns empty string if no valid span is present.
func GetSpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().SpanID().String()
	}
	return ""
}
