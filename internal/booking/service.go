package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teemow/slotbot/internal/availability"
	"github.com/teemow/slotbot/internal/calendar"
	"github.com/teemow/slotbot/internal/instrumentation"
	"github.com/teemow/slotbot/internal/logging"
)

// DefaultTimeout bounds every calendar read and write.
const DefaultTimeout = 15 * time.Second

// DefaultColorID is the Google Calendar colour used for booked events.
const DefaultColorID = "2"

// Calendar is the subset of calendar.Client used by the service.
type Calendar interface {
	CalendarID() string
	BusyIntervals(ctx context.Context, start, end time.Time) ([]availability.BusyInterval, error)
	CreateEvent(ctx context.Context, input calendar.EventInput) (*calendar.EventHandle, error)
}

// Request is a parsed booking request.
type Request struct {
	Instant time.Time
}

// Proposal is the answer to a Request: either the requested slot itself or
// the next free one.
type Proposal struct {
	// Requested is the instant the user asked for.
	Requested time.Time

	// Available reports whether Requested can be booked as is.
	Available bool

	// Verdict is the first check Requested failed, or VerdictOK.
	Verdict availability.Verdict

	// Slot is the slot to offer. It starts at Requested when Available is
	// true, otherwise it is the next free slot. Nil when nothing is free
	// within the horizon.
	Slot *availability.Slot
}

// Service answers availability questions and books appointments against a
// single calendar under a single policy.
type Service struct {
	cal     Calendar
	policy  availability.Policy
	engine  *availability.Engine
	timeout time.Duration
	colorID string
	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithEngine replaces the default engine, typically to inject a clock.
func WithEngine(e *availability.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithTimeout sets the per-call calendar timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithColorID sets the colour of created events.
func WithColorID(id string) Option {
	return func(s *Service) {
		s.colorID = id
	}
}

// WithMetrics enables metric recording.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithAuditLogger enables the booking audit trail.
func WithAuditLogger(al *instrumentation.AuditLogger) Option {
	return func(s *Service) {
		s.audit = al
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a Service. The policy is validated once here.
func NewService(cal Calendar, policy availability.Policy, opts ...Option) (*Service, error) {
	if cal == nil {
		return nil, fmt.Errorf("calendar is required")
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid availability policy: %w", err)
	}

	s := &Service{
		cal:     cal,
		policy:  policy,
		engine:  availability.NewEngine(),
		timeout: DefaultTimeout,
		colorID: DefaultColorID,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logging.Calendar(cal.CalendarID()))
	return s, nil
}

// Policy returns the policy the service schedules under.
func (s *Service) Policy() availability.Policy {
	return s.policy
}

// CalendarID returns the calendar the service books into.
func (s *Service) CalendarID() string {
	return s.cal.CalendarID()
}

// Now returns the current time in the policy location.
func (s *Service) Now() time.Time {
	return s.engine.Now().In(s.policy.Location)
}

// Check evaluates a single instant. Policy checks run first so that requests
// outside the horizon or the weekly window never reach the calendar.
func (s *Service) Check(ctx context.Context, instant time.Time) (availability.Verdict, error) {
	if instant.IsZero() {
		return availability.VerdictOutOfHorizon, &availability.InvalidInstantError{Input: instant.String()}
	}

	verdict := s.engine.Explain(instant, s.policy, nil)
	if verdict == availability.VerdictOK {
		busy, err := s.busyIntervals(ctx, instant, instant.Add(s.policy.Duration))
		if err != nil {
			return verdict, err
		}
		verdict = s.engine.Explain(instant, s.policy, busy)
	}

	s.metrics.RecordAvailabilityCheck(ctx, verdict.String())
	s.logger.DebugContext(ctx, "availability checked",
		slog.Time("instant", instant),
		logging.Verdict(verdict))
	return verdict, nil
}

// IsAvailable reports whether an appointment may start at instant.
func (s *Service) IsAvailable(ctx context.Context, instant time.Time) (bool, error) {
	verdict, err := s.Check(ctx, instant)
	if err != nil {
		return false, err
	}
	return verdict == availability.VerdictOK, nil
}

// NextAvailable returns the first free slot starting strictly after the given
// instant, or nil when the booking horizon holds none.
//
// Instants in the past search from now. Instants beyond the horizon also
// search from now, so the answer is always bookable.
func (s *Service) NextAvailable(ctx context.Context, after time.Time) (*availability.Slot, error) {
	if after.IsZero() {
		return nil, &availability.InvalidInstantError{Input: after.String()}
	}

	now := s.engine.Now()
	limit := s.policy.HorizonEnd(now)
	if after.Before(now) || after.After(limit) {
		after = now
	}

	busy, err := s.busyIntervals(ctx, after, limit.Add(s.policy.Duration))
	if err != nil {
		return nil, err
	}

	slot, err := s.engine.NextAvailableSlot(after, s.policy, busy)
	if err != nil {
		return nil, err
	}
	if slot == nil || slot.Start.After(limit) {
		return nil, nil
	}
	return slot, nil
}

// ListSlots returns the free slots between start and end. A zero end lists
// up to the horizon measured from start.
func (s *Service) ListSlots(ctx context.Context, start, end time.Time) ([]availability.Slot, error) {
	if start.IsZero() {
		return nil, &availability.InvalidInstantError{Input: start.String()}
	}
	if end.IsZero() {
		end = s.policy.HorizonEnd(start)
	}

	// Slots of the first day are generated from midnight.
	local := start.In(s.policy.Location)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.policy.Location)

	busy, err := s.busyIntervals(ctx, dayStart, end.Add(24*time.Hour+s.policy.Duration))
	if err != nil {
		return nil, err
	}
	return availability.ListSlots(start, end, s.policy, busy), nil
}

// Propose answers a booking request with the requested slot when it is free
// and with the next free slot otherwise.
func (s *Service) Propose(ctx context.Context, req Request) (*Proposal, error) {
	verdict, err := s.Check(ctx, req.Instant)
	if err != nil {
		return nil, err
	}

	p := &Proposal{
		Requested: req.Instant,
		Verdict:   verdict,
		Available: verdict == availability.VerdictOK,
	}
	if p.Available {
		slot := availability.SlotAt(req.Instant, s.policy)
		p.Slot = &slot
		return p, nil
	}

	p.Slot, err = s.NextAvailable(ctx, req.Instant)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Book creates the appointment [start, start+Duration). The interval is
// re-read from the calendar first; ErrSlotTaken is returned when it is no
// longer free and *NotBookableError when start violates the policy.
func (s *Service) Book(ctx context.Context, name, description string, start time.Time) (*calendar.EventHandle, error) {
	end := start.Add(s.policy.Duration)
	record := &instrumentation.BookingRecord{
		SessionID:  SessionFromContext(ctx),
		CalendarID: s.cal.CalendarID(),
		Start:      start,
		End:        end,
	}

	handle, result, err := s.book(ctx, name, description, start, end)
	record.Result = result
	if handle != nil {
		record.EventID = handle.ID
	}
	if err != nil {
		record.Error = err.Error()
	}

	s.metrics.RecordBooking(ctx, result)
	s.audit.LogBooking(ctx, record)
	return handle, err
}

func (s *Service) book(ctx context.Context, name, description string, start, end time.Time) (*calendar.EventHandle, string, error) {
	if start.IsZero() {
		return nil, instrumentation.BookingResultRejected, &availability.InvalidInstantError{Input: start.String()}
	}
	if verdict := s.engine.Explain(start, s.policy, nil); verdict != availability.VerdictOK {
		return nil, instrumentation.BookingResultRejected, &NotBookableError{Verdict: verdict}
	}

	busy, err := s.busyIntervals(ctx, start, end)
	if err != nil {
		return nil, instrumentation.BookingResultError, err
	}
	if availability.Conflicts(start, end, busy) {
		return nil, instrumentation.BookingResultSlotTaken, ErrSlotTaken
	}

	handle, err := s.createEvent(ctx, calendar.EventInput{
		Summary:     name,
		Description: description,
		Start:       start,
		End:         end,
		TimeZone:    s.policy.TimeZone(),
		ColorID:     s.colorID,
	})
	if err != nil {
		return nil, instrumentation.BookingResultError, err
	}

	s.logger.InfoContext(ctx, "appointment booked",
		slog.Time("start", start),
		slog.String("event_id", handle.ID))
	return handle, instrumentation.BookingResultBooked, nil
}

func (s *Service) busyIntervals(ctx context.Context, start, end time.Time) ([]availability.BusyInterval, error) {
	op := s.readOperation()
	ctx, span := instrumentation.StartCalendarSpan(ctx, op, s.cal.CalendarID())
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	began := time.Now()
	busy, err := s.cal.BusyIntervals(ctx, start, end)
	s.recordCall(ctx, op, began, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		s.logger.ErrorContext(ctx, "calendar read failed", logging.Operation(op), logging.Err(err))
		return nil, timeoutAware(ctx, err)
	}
	instrumentation.SetSpanSuccess(span)
	return busy, nil
}

func (s *Service) createEvent(ctx context.Context, input calendar.EventInput) (*calendar.EventHandle, error) {
	ctx, span := instrumentation.StartCalendarSpan(ctx, calendar.OpEventsInsert, s.cal.CalendarID())
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	began := time.Now()
	handle, err := s.cal.CreateEvent(ctx, input)
	s.recordCall(ctx, calendar.OpEventsInsert, began, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		s.logger.ErrorContext(ctx, "calendar write failed", logging.Operation(calendar.OpEventsInsert), logging.Err(err))
		return nil, timeoutAware(ctx, err)
	}
	instrumentation.SetSpanSuccess(span)
	return handle, nil
}

func (s *Service) recordCall(ctx context.Context, op string, began time.Time, err error) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	s.metrics.RecordCalendarOperation(ctx, op, status, time.Since(began))
}

func (s *Service) readOperation() string {
	if src, ok := s.cal.(interface{ BusySource() calendar.BusySource }); ok && src.BusySource() == calendar.BusySourceFreeBusy {
		return calendar.OpFreeBusyQuery
	}
	return calendar.OpEventsList
}

// timeoutAware makes sure an expired call deadline is visible to errors.Is
// even when the transport error does not wrap it.
func timeoutAware(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return fmt.Errorf("%w: %w", err, ctxErr)
	}
	return err
}
