// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for slotbot.
//
// # Metrics
//
// Calendar:
//   - calendar_operations_total: Calendar API calls by operation and status
//   - calendar_operation_duration_seconds: Calendar API call latency
//
// Scheduling:
//   - availability_checks_total: availability verdicts by verdict
//   - bookings_total: booking attempts by result (booked, slot_taken, rejected, error)
//
// Conversation:
//   - conversation_turns_total: handled turns by starting stage and intent
//   - active_conversations: conversations with stored state
//
// MCP:
//   - mcp_tool_invocations_total: tool invocations by tool and status
//   - mcp_tool_duration_seconds: tool execution latency
//
// Label values are bounded; phone numbers and message text never appear in
// metrics. Use BoundedLabel for values that come from outside the process.
//
// # Tracing
//
// Spans are created for conversation turns (conversation.turn), Calendar API
// calls (calendar.<operation>) and MCP tools (tool.<name>).
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: slotbot)
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_PII: booking audit trail
//   - ACTIVE_CONVERSATIONS_INTERVAL: how often the active_conversations gauge is refreshed (default: 30s)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordBooking(ctx, instrumentation.BookingResultBooked)
package instrumentation
