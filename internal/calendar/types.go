package calendar

import (
	"fmt"
	"strings"
	"time"

	calendar "google.golang.org/api/calendar/v3"

	"github.com/teemow/slotbot/internal/availability"
)

// BusySource selects the API used to read busy intervals.
type BusySource string

const (
	// BusySourceEvents reads the calendar's events (events.list).
	BusySourceEvents BusySource = "events"
	// BusySourceFreeBusy queries the free/busy endpoint (freebusy.query).
	BusySourceFreeBusy BusySource = "freebusy"
)

// ParseBusySource parses a busy source name. The empty string selects
// BusySourceEvents.
func ParseBusySource(s string) (BusySource, error) {
	switch BusySource(strings.ToLower(strings.TrimSpace(s))) {
	case "", BusySourceEvents:
		return BusySourceEvents, nil
	case BusySourceFreeBusy:
		return BusySourceFreeBusy, nil
	default:
		return "", fmt.Errorf("unknown busy source %q (expected %q or %q)", s, BusySourceEvents, BusySourceFreeBusy)
	}
}

// EventInput is an appointment to be written to the calendar.
type EventInput struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	TimeZone    string

	// ColorID is the Google Calendar event colour ("1" to "11"). Empty keeps
	// the calendar default.
	ColorID string
}

// Validate checks that the event can be submitted.
func (in EventInput) Validate() error {
	if strings.TrimSpace(in.Summary) == "" {
		return fmt.Errorf("event summary is required")
	}
	if in.Start.IsZero() || in.End.IsZero() {
		return fmt.Errorf("event start and end are required")
	}
	if !in.End.After(in.Start) {
		return fmt.Errorf("event end %s must be after start %s", in.End.Format(time.RFC3339), in.Start.Format(time.RFC3339))
	}
	return nil
}

// EventHandle identifies a created event.
type EventHandle struct {
	ID       string
	HTMLLink string
}

// toEvent converts an EventInput into the API representation.
func toEvent(in EventInput) *calendar.Event {
	tz := in.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	return &calendar.Event{
		Summary:     in.Summary,
		Description: in.Description,
		ColorId:     in.ColorID,
		Start: &calendar.EventDateTime{
			DateTime: in.Start.Format(time.RFC3339),
			TimeZone: tz,
		},
		End: &calendar.EventDateTime{
			DateTime: in.End.Format(time.RFC3339),
			TimeZone: tz,
		},
	}
}

// parseEventTime reads a timed or all-day boundary. All-day dates are
// midnight in loc.
func parseEventTime(edt *calendar.EventDateTime, loc *time.Location) (time.Time, error) {
	if edt == nil {
		return time.Time{}, fmt.Errorf("missing event time")
	}
	if edt.DateTime != "" {
		return time.Parse(time.RFC3339, edt.DateTime)
	}
	if edt.Date != "" {
		return time.ParseInLocation("2006-01-02", edt.Date, loc)
	}
	return time.Time{}, fmt.Errorf("event time has neither dateTime nor date")
}

// busyFromEvent converts an event into the interval it blocks. Cancelled and
// transparent ("show as available") events block nothing.
func busyFromEvent(event *calendar.Event, loc *time.Location) (availability.BusyInterval, bool, error) {
	if event == nil || event.Status == "cancelled" || event.Transparency == "transparent" {
		return availability.BusyInterval{}, false, nil
	}

	start, err := parseEventTime(event.Start, loc)
	if err != nil {
		return availability.BusyInterval{}, false, fmt.Errorf("event %s start: %w", event.Id, err)
	}
	end, err := parseEventTime(event.End, loc)
	if err != nil {
		return availability.BusyInterval{}, false, fmt.Errorf("event %s end: %w", event.Id, err)
	}
	if !end.After(start) {
		return availability.BusyInterval{}, false, nil
	}
	return availability.BusyInterval{Start: start, End: end}, true, nil
}
