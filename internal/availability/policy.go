package availability

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // policies name IANA zones; do not depend on the host database
)

// Default policy values.
const (
	DefaultStartHour   = 9
	DefaultEndHour     = 18
	DefaultDuration    = time.Hour
	DefaultHorizonDays = 30
	DefaultTimeZone    = "America/Mexico_City"
)

// WeekdaySet is an immutable set of weekdays.
type WeekdaySet uint8

// Weekdays returns the set containing the given days.
func Weekdays(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		if d >= time.Sunday && d <= time.Saturday {
			s |= 1 << uint(d)
		}
	}
	return s
}

// MondayToFriday is the default bookable week.
var MondayToFriday = Weekdays(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)

// Contains reports whether d is in the set.
func (s WeekdaySet) Contains(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

// Days returns the members of the set from Sunday to Saturday.
func (s WeekdaySet) Days() []time.Weekday {
	var days []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Contains(d) {
			days = append(days, d)
		}
	}
	return days
}

// String returns the abbreviated day names, e.g. "Mon,Tue".
func (s WeekdaySet) String() string {
	names := make([]string, 0, 7)
	for _, d := range s.Days() {
		names = append(names, d.String()[:3])
	}
	return strings.Join(names, ",")
}

// ParseWeekday parses an English weekday name or its three-letter prefix,
// case-insensitively.
func ParseWeekday(name string) (time.Weekday, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if len(n) >= 3 {
		for d := time.Sunday; d <= time.Saturday; d++ {
			full := strings.ToLower(d.String())
			if n == full || n == full[:3] {
				return d, nil
			}
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", name)
}

// Policy is the recurring weekly availability rule set. It is a value type:
// copies are independent and no engine function modifies it.
type Policy struct {
	// Weekdays on which appointments may start.
	Weekdays WeekdaySet

	// StartHour and EndHour form the half-open hour range [StartHour, EndHour)
	// in which an appointment may start, in 24h notation.
	StartHour int
	EndHour   int

	// Duration is the length of every appointment.
	Duration time.Duration

	// HorizonDays is how many days ahead slots may be searched or booked.
	HorizonDays int

	// Location is the time zone the weekly rules are evaluated in.
	Location *time.Location
}

// DefaultPolicy returns Monday to Friday, 09:00-18:00, one hour appointments,
// thirty days ahead, in America/Mexico_City.
func DefaultPolicy() Policy {
	loc, err := time.LoadLocation(DefaultTimeZone)
	if err != nil {
		loc = time.UTC
	}
	return Policy{
		Weekdays:    MondayToFriday,
		StartHour:   DefaultStartHour,
		EndHour:     DefaultEndHour,
		Duration:    DefaultDuration,
		HorizonDays: DefaultHorizonDays,
		Location:    loc,
	}
}

// Validate checks the policy invariants.
func (p Policy) Validate() error {
	if p.Weekdays == 0 {
		return fmt.Errorf("policy must allow at least one weekday")
	}
	if p.StartHour < 0 || p.EndHour > 24 {
		return fmt.Errorf("policy hours must be within 0-24, got %d-%d", p.StartHour, p.EndHour)
	}
	if p.StartHour >= p.EndHour {
		return fmt.Errorf("policy start hour %d must be before end hour %d", p.StartHour, p.EndHour)
	}
	if p.Duration <= 0 {
		return fmt.Errorf("policy appointment duration must be positive, got %s", p.Duration)
	}
	if p.HorizonDays <= 0 {
		return fmt.Errorf("policy horizon must be positive, got %d days", p.HorizonDays)
	}
	if p.Location == nil {
		return fmt.Errorf("policy time zone is required")
	}
	return nil
}

// HorizonEnd returns the last instant bookable when searching from t.
// Days are counted in the policy location so DST shifts keep wall-clock time.
func (p Policy) HorizonEnd(t time.Time) time.Time {
	return t.In(p.location()).AddDate(0, 0, p.HorizonDays)
}

// TimeZone returns the IANA name of the policy location.
func (p Policy) TimeZone() string {
	return p.location().String()
}

// String summarises the policy for logs.
func (p Policy) String() string {
	return fmt.Sprintf("%s %02d:00-%02d:00 %s every %s, %dd ahead",
		p.Weekdays, p.StartHour, p.EndHour, p.TimeZone(), p.Duration, p.HorizonDays)
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}
