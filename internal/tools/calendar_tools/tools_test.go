package calendar_tools

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/slotbot/internal/availability"
	"github.com/teemow/slotbot/internal/booking"
	"github.com/teemow/slotbot/internal/calendar"
	"github.com/teemow/slotbot/internal/server"
	"github.com/teemow/slotbot/internal/tools/batch"
)

// memoryCalendar keeps events in memory; created events become busy.
type memoryCalendar struct {
	mu     sync.Mutex
	busy   []availability.BusyInterval
	events []calendar.EventInput
}

func (c *memoryCalendar) CalendarID() string { return "clinic" }

func (c *memoryCalendar) BusyIntervals(context.Context, time.Time, time.Time) ([]availability.BusyInterval, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]availability.BusyInterval(nil), c.busy...), nil
}

func (c *memoryCalendar) CreateEvent(_ context.Context, in calendar.EventInput) (*calendar.EventHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, in)
	c.busy = append(c.busy, availability.BusyInterval{Start: in.Start, End: in.End})
	return &calendar.EventHandle{ID: "evt-1", HTMLLink: "https://calendar.google.com/event?eid=evt-1"}, nil
}

type fixture struct {
	sc  *server.ServerContext
	cal *memoryCalendar
	loc *time.Location
}

// newFixture pins the clock to Monday 2024-05-27 08:00 in Mexico City.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	policy := availability.DefaultPolicy()
	loc := policy.Location
	now := time.Date(2024, 5, 27, 8, 0, 0, 0, loc)
	cal := &memoryCalendar{}

	svc, err := booking.NewService(cal, policy,
		booking.WithEngine(availability.NewEngine(availability.WithClock(func() time.Time { return now }))))
	require.NoError(t, err)

	sc, err := server.NewServerContext(context.Background(), svc, server.WithBookingEnabled(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	return &fixture{sc: sc, cal: cal, loc: loc}
}

func (f *fixture) hour(day, h int) time.Time {
	return time.Date(2024, 5, day, h, 0, 0, 0, f.loc)
}

func request(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", result.Content[0])
	return tc.Text
}

func TestRegisterCalendarTools(t *testing.T) {
	tests := []struct {
		name    string
		booking bool
		want    []string
	}{
		{
			name: "read only",
			want: []string{"availability_check", "availability_list_slots", "availability_next_slot"},
		},
		{
			name:    "booking enabled",
			booking: true,
			want:    []string{"availability_check", "availability_list_slots", "availability_next_slot", "calendar_book_appointment"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := booking.NewService(&memoryCalendar{}, availability.DefaultPolicy())
			require.NoError(t, err)
			sc, err := server.NewServerContext(context.Background(), svc, server.WithBookingEnabled(tt.booking))
			require.NoError(t, err)
			defer sc.Shutdown()

			s := mcpserver.NewMCPServer("test", "1.0.0", mcpserver.WithToolCapabilities(true))
			require.NoError(t, RegisterCalendarTools(s, sc))

			var got []string
			for name := range s.ListTools() {
				got = append(got, name)
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestHandleCheck(t *testing.T) {
	f := newFixture(t)
	f.cal.busy = []availability.BusyInterval{{Start: f.hour(28, 10), End: f.hour(28, 11)}}

	tests := []struct {
		name     string
		instant  interface{}
		isError  bool
		contains []string
	}{
		{
			name:     "free slot",
			instant:  "2024-05-28T12:00",
			contains: []string{"Available: Tue, May 28 2024 at 12:00 to 13:00"},
		},
		{
			name:     "conflict proposes the next slot",
			instant:  "2024-05-28T10:00",
			contains: []string{"Not available (conflict)", "Next available: Tue, May 28 2024 at 11:00"},
		},
		{
			name:     "weekend",
			instant:  "2024-06-01T10:00",
			contains: []string{"Not available (weekday)", "Next available: Mon, Jun 3 2024 at 09:00"},
		},
		{
			name:     "instant with offset is shown in the policy zone",
			instant:  "2024-05-28T18:00:00Z",
			contains: []string{"Available: Tue, May 28 2024 at 12:00"},
		},
		{
			name:    "missing instant",
			isError: true,
		},
		{
			name:    "unparseable instant",
			instant: "mañana",
			isError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]interface{}{}
			if tt.instant != nil {
				args["instant"] = tt.instant
			}
			result, err := handleCheck(context.Background(), request(args), f.sc)
			require.NoError(t, err)
			assert.Equal(t, tt.isError, result.IsError)
			out := text(t, result)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestHandleCheck_Batch(t *testing.T) {
	f := newFixture(t)
	f.cal.busy = []availability.BusyInterval{{Start: f.hour(28, 10), End: f.hour(28, 11)}}

	result, err := handleCheck(context.Background(), request(map[string]interface{}{
		"instant": []interface{}{"2024-05-28T09:00", "2024-05-28T10:00", "never"},
	}), f.sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var br batch.BatchResult
	require.NoError(t, json.Unmarshal([]byte(text(t, result)), &br))
	assert.Equal(t, 3, br.Total)
	assert.Equal(t, 2, br.Successful)
	assert.Equal(t, 1, br.Failed)
	assert.Contains(t, br.Results[0].Result, "Available")
	assert.Contains(t, br.Results[1].Result, "Not available (conflict)")
	assert.Equal(t, "never", br.Results[2].ID)
}

func TestHandleNextSlot(t *testing.T) {
	f := newFixture(t)

	result, err := handleNextSlot(context.Background(), request(map[string]interface{}{}), f.sc)
	require.NoError(t, err)
	assert.Contains(t, text(t, result), "Next available: Mon, May 27 2024 at 09:00")

	result, err = handleNextSlot(context.Background(), request(map[string]interface{}{"after": "2024-05-31T17:30"}), f.sc)
	require.NoError(t, err)
	assert.Contains(t, text(t, result), "Next available: Mon, Jun 3 2024 at 09:00")

	// A slot starting exactly at "after" is skipped.
	result, err = handleNextSlot(context.Background(), request(map[string]interface{}{"after": "2024-05-27T09:00"}), f.sc)
	require.NoError(t, err)
	assert.Contains(t, text(t, result), "Next available: Mon, May 27 2024 at 10:00")

	result, err = handleNextSlot(context.Background(), request(map[string]interface{}{"after": "someday"}), f.sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestNextSlotToolDescription(t *testing.T) {
	f := newFixture(t)
	s := mcpserver.NewMCPServer("test", "1.0.0", mcpserver.WithToolCapabilities(true))
	require.NoError(t, RegisterCalendarTools(s, f.sc))

	tool, ok := s.ListTools()["availability_next_slot"]
	require.True(t, ok)
	assert.Contains(t, tool.Tool.Description, "strictly after")
	assert.NotContains(t, tool.Tool.Description, "at or after")
}

func TestHandleListSlots(t *testing.T) {
	f := newFixture(t)
	f.cal.busy = []availability.BusyInterval{{Start: f.hour(27, 10), End: f.hour(27, 11)}}

	result, err := handleListSlots(context.Background(), request(map[string]interface{}{
		"start": "2024-05-27T09:00",
		"end":   "2024-05-27T13:00",
	}), f.sc)
	require.NoError(t, err)

	out := text(t, result)
	assert.Contains(t, out, "Found 3 available slot(s)")
	assert.Contains(t, out, "1. Mon, May 27 2024 at 09:00")
	assert.Contains(t, out, "2. Mon, May 27 2024 at 11:00")
	assert.Contains(t, out, "3. Mon, May 27 2024 at 12:00")
	assert.NotContains(t, out, "at 10:00")

	result, err = handleListSlots(context.Background(), request(map[string]interface{}{
		"start":      "2024-05-27T09:00",
		"end":        "2024-05-27T18:00",
		"maxResults": 2.0,
	}), f.sc)
	require.NoError(t, err)
	assert.Contains(t, text(t, result), "showing the first 2")

	result, err = handleListSlots(context.Background(), request(map[string]interface{}{
		"start": "2024-05-27T12:00",
		"end":   "2024-05-27T09:00",
	}), f.sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleBookAppointment(t *testing.T) {
	t.Run("books a free slot", func(t *testing.T) {
		f := newFixture(t)

		result, err := handleBookAppointment(context.Background(), request(map[string]interface{}{
			"start":     "2024-05-29T11:00",
			"name":      "Ana López",
			"reason":    "Revisión",
			"requester": "+5215512345678",
		}), f.sc)
		require.NoError(t, err)
		require.False(t, result.IsError, text(t, result))

		out := text(t, result)
		assert.Contains(t, out, "Appointment booked: Wed, May 29 2024 at 11:00 to 12:00")
		assert.Contains(t, out, "Event ID: evt-1")

		require.Len(t, f.cal.events, 1)
		assert.Equal(t, "Ana López", f.cal.events[0].Summary)
		assert.Equal(t, "Revisión", f.cal.events[0].Description)
		assert.True(t, f.cal.events[0].Start.Equal(f.hour(29, 11)))
	})

	t.Run("slot taken", func(t *testing.T) {
		f := newFixture(t)
		f.cal.busy = []availability.BusyInterval{{Start: f.hour(29, 11), End: f.hour(29, 12)}}

		result, err := handleBookAppointment(context.Background(), request(map[string]interface{}{
			"start": "2024-05-29T11:00",
			"name":  "Ana",
		}), f.sc)
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, text(t, result), "taken")
		assert.Empty(t, f.cal.events)
	})

	t.Run("outside policy", func(t *testing.T) {
		f := newFixture(t)

		result, err := handleBookAppointment(context.Background(), request(map[string]interface{}{
			"start": "2024-05-29T20:00",
			"name":  "Ana",
		}), f.sc)
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.True(t, strings.Contains(text(t, result), "cannot be booked: hour"))
	})

	t.Run("name required", func(t *testing.T) {
		f := newFixture(t)

		result, err := handleBookAppointment(context.Background(), request(map[string]interface{}{
			"start": "2024-05-29T11:00",
		}), f.sc)
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Equal(t, "name is required", text(t, result))
	})
}
