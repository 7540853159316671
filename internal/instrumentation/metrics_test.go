package instrumentation

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

// counterValue returns the value of the data point whose attributes match attrs exactly.
func counterValue(t *testing.T, rm metricdata.ResourceMetrics, name string, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	m, ok := findMetric(rm, name)
	if !ok {
		t.Fatalf("metric %q not found", name)
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %q is %T, want Sum[int64]", name, m.Data)
	}
	want := attribute.NewSet(attrs...)
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&want) {
			return dp.Value
		}
	}
	return 0
}

func TestMetrics_RecordCalendarOperation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordCalendarOperation(ctx, "events.list", StatusSuccess, 120*time.Millisecond)
	m.RecordCalendarOperation(ctx, "events.list", StatusSuccess, 80*time.Millisecond)
	m.RecordCalendarOperation(ctx, "events.insert", StatusError, time.Second)

	rm := collect(t, reader)
	if got := counterValue(t, rm, "calendar_operations_total",
		attribute.String("operation", "events.list"), attribute.String("status", StatusSuccess)); got != 2 {
		t.Errorf("events.list success = %d, want 2", got)
	}
	if got := counterValue(t, rm, "calendar_operations_total",
		attribute.String("operation", "events.insert"), attribute.String("status", StatusError)); got != 1 {
		t.Errorf("events.insert error = %d, want 1", got)
	}

	hist, ok := findMetric(rm, "calendar_operation_duration_seconds")
	if !ok {
		t.Fatal("duration histogram not found")
	}
	data, ok := hist.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("histogram data is %T", hist.Data)
	}
	var count uint64
	for _, dp := range data.DataPoints {
		count += dp.Count
	}
	if count != 3 {
		t.Errorf("histogram count = %d, want 3", count)
	}
}

func TestMetrics_RecordAvailabilityCheck(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordAvailabilityCheck(ctx, "available")
	m.RecordAvailabilityCheck(ctx, "conflict")
	m.RecordAvailabilityCheck(ctx, "conflict")

	rm := collect(t, reader)
	if got := counterValue(t, rm, "availability_checks_total", attribute.String("verdict", "conflict")); got != 2 {
		t.Errorf("conflict = %d, want 2", got)
	}
	if got := counterValue(t, rm, "availability_checks_total", attribute.String("verdict", "available")); got != 1 {
		t.Errorf("available = %d, want 1", got)
	}
}

func TestMetrics_RecordConversationTurn(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordConversationTurn(ctx, "idle", "greeting")
	m.RecordConversationTurn(ctx, "awaiting_date", "date")

	rm := collect(t, reader)
	if got := counterValue(t, rm, "conversation_turns_total",
		attribute.String("stage", "idle"), attribute.String("intent", "greeting")); got != 1 {
		t.Errorf("idle/greeting = %d, want 1", got)
	}
}

func TestMetrics_RecordBooking(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordBooking(ctx, BookingResultBooked)
	m.RecordBooking(ctx, BookingResultSlotTaken)
	m.RecordBooking(ctx, BookingResultBooked)

	rm := collect(t, reader)
	if got := counterValue(t, rm, "bookings_total", attribute.String("result", BookingResultBooked)); got != 2 {
		t.Errorf("booked = %d, want 2", got)
	}
	if got := counterValue(t, rm, "bookings_total", attribute.String("result", BookingResultSlotTaken)); got != 1 {
		t.Errorf("slot_taken = %d, want 1", got)
	}
}

func TestMetrics_SetActiveConversations(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.SetActiveConversations(ctx, 4)
	m.SetActiveConversations(ctx, 3)

	rm := collect(t, reader)
	gm, ok := findMetric(rm, "active_conversations")
	if !ok {
		t.Fatal("active_conversations not found")
	}
	gauge, ok := gm.Data.(metricdata.Gauge[int64])
	if !ok {
		t.Fatalf("gauge data is %T", gm.Data)
	}
	if len(gauge.DataPoints) != 1 || gauge.DataPoints[0].Value != 3 {
		t.Errorf("gauge data points = %+v, want single value 3", gauge.DataPoints)
	}
}

func TestMetrics_RecordToolInvocation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordToolInvocation(ctx, "availability_check", StatusSuccess, 100*time.Millisecond)
	m.RecordToolInvocation(ctx, "calendar_book_appointment", StatusError, 500*time.Millisecond)

	rm := collect(t, reader)
	if got := counterValue(t, rm, "mcp_tool_invocations_total",
		attribute.String("tool", "availability_check"), attribute.String("status", StatusSuccess)); got != 1 {
		t.Errorf("availability_check = %d, want 1", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	ctx := context.Background()

	// Neither a nil pointer nor a zero value may panic.
	for _, m := range []*Metrics{nil, {}} {
		m.RecordCalendarOperation(ctx, "events.list", StatusSuccess, time.Millisecond)
		m.RecordAvailabilityCheck(ctx, "available")
		m.RecordConversationTurn(ctx, "idle", "greeting")
		m.SetActiveConversations(ctx, 1)
		m.RecordBooking(ctx, BookingResultBooked)
		m.RecordToolInvocation(ctx, "availability_check", StatusSuccess, time.Millisecond)
	}
}
