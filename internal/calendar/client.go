package calendar

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/slotbot/internal/availability"
)

// Operation names used in errors, logs and metrics.
const (
	OpEventsList    = "events.list"
	OpFreeBusyQuery = "freebusy.query"
	OpEventsInsert  = "events.insert"
)

const eventsPageSize = 250

// Config selects the calendar the client works on.
type Config struct {
	// CalendarID is the calendar to read and write ("primary" or an address).
	CalendarID string

	// BusySource selects events.list or freebusy.query. Empty means events.
	BusySource BusySource

	// Location is used for the timeZone query parameter and to place all-day
	// events. Nil means UTC.
	Location *time.Location
}

// Client wraps the Google Calendar service for one calendar.
type Client struct {
	svc        *calendar.Service
	calendarID string
	source     BusySource
	loc        *time.Location
}

// NewClient creates a Calendar client. Authentication comes from opts, usually
// google.ClientOptions.
func NewClient(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.CalendarID) == "" {
		return nil, fmt.Errorf("calendar ID cannot be empty")
	}

	source, err := ParseBusySource(string(cfg.BusySource))
	if err != nil {
		return nil, err
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{
		svc:        svc,
		calendarID: cfg.CalendarID,
		source:     source,
		loc:        loc,
	}, nil
}

// CalendarID returns the calendar this client is bound to.
func (c *Client) CalendarID() string {
	return c.calendarID
}

// BusySource returns the API used by BusyIntervals.
func (c *Client) BusySource() BusySource {
	return c.source
}

// BusyIntervals returns the busy intervals overlapping [start, end), ordered
// by start.
func (c *Client) BusyIntervals(ctx context.Context, start, end time.Time) ([]availability.BusyInterval, error) {
	var (
		busy []availability.BusyInterval
		err  error
	)
	switch c.source {
	case BusySourceFreeBusy:
		busy, err = c.queryFreeBusy(ctx, start, end)
	default:
		busy, err = c.listEventBusy(ctx, start, end)
	}
	if err != nil {
		return nil, err
	}

	slices.SortFunc(busy, func(a, b availability.BusyInterval) int {
		return a.Start.Compare(b.Start)
	})
	return busy, nil
}

func (c *Client) listEventBusy(ctx context.Context, start, end time.Time) ([]availability.BusyInterval, error) {
	call := c.svc.Events.List(c.calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		TimeZone(c.loc.String()).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(eventsPageSize)

	var busy []availability.BusyInterval
	err := call.Pages(ctx, func(page *calendar.Events) error {
		for _, event := range page.Items {
			interval, ok, err := busyFromEvent(event, c.loc)
			if err != nil {
				return err
			}
			if ok {
				busy = append(busy, interval)
			}
		}
		return nil
	})
	if err != nil {
		return nil, &CalendarQueryError{Op: OpEventsList, CalendarID: c.calendarID, Err: err}
	}
	return busy, nil
}

func (c *Client) queryFreeBusy(ctx context.Context, start, end time.Time) ([]availability.BusyInterval, error) {
	query := &calendar.FreeBusyRequest{
		TimeMin:  start.Format(time.RFC3339),
		TimeMax:  end.Format(time.RFC3339),
		TimeZone: c.loc.String(),
		Items:    []*calendar.FreeBusyRequestItem{{Id: c.calendarID}},
	}

	result, err := c.svc.Freebusy.Query(query).Context(ctx).Do()
	if err != nil {
		return nil, &CalendarQueryError{Op: OpFreeBusyQuery, CalendarID: c.calendarID, Err: err}
	}

	cal, ok := result.Calendars[c.calendarID]
	if !ok {
		return nil, &CalendarQueryError{Op: OpFreeBusyQuery, CalendarID: c.calendarID, Err: fmt.Errorf("calendar missing from response")}
	}
	if len(cal.Errors) > 0 {
		reasons := make([]string, 0, len(cal.Errors))
		for _, e := range cal.Errors {
			reasons = append(reasons, e.Reason)
		}
		return nil, &CalendarQueryError{Op: OpFreeBusyQuery, CalendarID: c.calendarID, Err: fmt.Errorf("backend reported: %s", strings.Join(reasons, ", "))}
	}

	busy := make([]availability.BusyInterval, 0, len(cal.Busy))
	for _, period := range cal.Busy {
		s, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			return nil, &CalendarQueryError{Op: OpFreeBusyQuery, CalendarID: c.calendarID, Err: fmt.Errorf("busy start: %w", err)}
		}
		e, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			return nil, &CalendarQueryError{Op: OpFreeBusyQuery, CalendarID: c.calendarID, Err: fmt.Errorf("busy end: %w", err)}
		}
		busy = append(busy, availability.BusyInterval{Start: s, End: e})
	}
	return busy, nil
}

// CreateEvent inserts an event and returns its handle. Rejections are not
// retried.
func (c *Client) CreateEvent(ctx context.Context, input EventInput) (*EventHandle, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if input.TimeZone == "" {
		input.TimeZone = c.loc.String()
	}

	created, err := c.svc.Events.Insert(c.calendarID, toEvent(input)).Context(ctx).Do()
	if err != nil {
		return nil, &CalendarWriteError{Op: OpEventsInsert, CalendarID: c.calendarID, Err: err}
	}

	return &EventHandle{ID: created.Id, HTMLLink: created.HtmlLink}, nil
}
