package availability

import (
	"fmt"
	"time"
)

// BusyInterval is a half-open period [Start, End) already occupied in the
// calendar.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// Slot is a candidate appointment interval [Start, End).
type Slot struct {
	Start time.Time
	End   time.Time
}

// Overlaps is the interval-overlap predicate shared by every check in this
// package: [aStart, aEnd) and [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// Conflicts reports whether [start, end) overlaps any busy interval.
func Conflicts(start, end time.Time, busy []BusyInterval) bool {
	for _, b := range busy {
		if Overlaps(start, end, b.Start, b.End) {
			return true
		}
	}
	return false
}

// Duration returns the slot length.
func (s Slot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Conflicts reports whether the slot overlaps any busy interval.
func (s Slot) Conflicts(busy []BusyInterval) bool {
	return Conflicts(s.Start, s.End, busy)
}

// String formats the slot as "start/end" in RFC3339.
func (s Slot) String() string {
	return fmt.Sprintf("%s/%s", s.Start.Format(time.RFC3339), s.End.Format(time.RFC3339))
}

// SlotAt returns the slot of policy length starting at t.
func SlotAt(t time.Time, p Policy) Slot {
	return Slot{Start: t, End: t.Add(p.Duration)}
}
