package availability

import "time"

// Verdict is the first check a requested instant failed.
type Verdict int

const (
	// VerdictOK means the instant is bookable.
	VerdictOK Verdict = iota
	// VerdictOutOfHorizon means the instant is in the past or beyond the horizon.
	VerdictOutOfHorizon
	// VerdictWeekday means the instant falls on a non-bookable weekday.
	VerdictWeekday
	// VerdictHour means the instant is outside the bookable hours.
	VerdictHour
	// VerdictConflict means the appointment would overlap a busy interval.
	VerdictConflict
)

// String returns the verdict label used in logs and metrics.
func (v Verdict) String() string {
	switch v {
	case VerdictOK:
		return "available"
	case VerdictOutOfHorizon:
		return "out_of_horizon"
	case VerdictWeekday:
		return "weekday"
	case VerdictHour:
		return "hour"
	case VerdictConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Engine evaluates single instants against a policy. Its only state is the
// clock that defines "now".
type Engine struct {
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now as the engine's notion of the current time.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// Explain runs the availability checks in order (horizon, weekday, hour,
// conflict) and returns the first one that fails, or VerdictOK.
//
// The horizon is inclusive on both ends: [now, now+HorizonDays]. The conflict
// check covers the whole appointment [instant, instant+Duration), so an
// instant that is not aligned to the hour is accepted when nothing overlaps.
func (e *Engine) Explain(instant time.Time, p Policy, busy []BusyInterval) Verdict {
	now := e.now()
	if instant.Before(now) || instant.After(p.HorizonEnd(now)) {
		return VerdictOutOfHorizon
	}

	local := instant.In(p.location())
	if !p.Weekdays.Contains(local.Weekday()) {
		return VerdictWeekday
	}
	if h := local.Hour(); h < p.StartHour || h >= p.EndHour {
		return VerdictHour
	}

	if Conflicts(instant, instant.Add(p.Duration), busy) {
		return VerdictConflict
	}
	return VerdictOK
}

// IsAvailable reports whether an appointment may start at instant.
func (e *Engine) IsAvailable(instant time.Time, p Policy, busy []BusyInterval) bool {
	return e.Explain(instant, p, busy) == VerdictOK
}

// NextAvailableSlot runs the package level NextAvailableSlot from the later of
// after and the engine's current time. A request in the past is never
// answered with a slot in the past.
func (e *Engine) NextAvailableSlot(after time.Time, p Policy, busy []BusyInterval) (*Slot, error) {
	if after.IsZero() {
		return NextAvailableSlot(after, p, busy)
	}
	if now := e.now(); after.Before(now) {
		after = now
	}
	return NextAvailableSlot(after, p, busy)
}
