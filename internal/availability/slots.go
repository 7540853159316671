package availability

import (
	"iter"
	"slices"
	"time"
)

// GenerateSlots enumerates the free slots between rangeStart and rangeEnd.
//
// Days are walked from rangeStart's date in the policy location while the day
// cursor is before rangeEnd. Every hour in [StartHour, EndHour) of a bookable
// weekday yields a candidate [day@h:00, day@h:00+Duration), and candidates
// overlapping a busy interval are dropped. The first day is not truncated to
// rangeStart's time of day; callers that need "strictly after" filter the
// result (see NextAvailableSlot).
//
// A zero rangeEnd defaults to rangeStart plus the policy horizon.
//
// The sequence is lazy and can be ranged over any number of times; each pass
// yields the same slots in strictly ascending start order.
func GenerateSlots(rangeStart, rangeEnd time.Time, p Policy, busy []BusyInterval) iter.Seq[Slot] {
	loc := p.location()
	if rangeEnd.IsZero() {
		rangeEnd = p.HorizonEnd(rangeStart)
	}

	return func(yield func(Slot) bool) {
		var last time.Time
		for cursor := rangeStart.In(loc); cursor.Before(rangeEnd); cursor = cursor.AddDate(0, 0, 1) {
			if !p.Weekdays.Contains(cursor.Weekday()) {
				continue
			}
			y, m, d := cursor.Date()
			for h := p.StartHour; h < p.EndHour; h++ {
				start := time.Date(y, m, d, h, 0, 0, 0, loc)
				// A skipped DST hour normalises onto the next one.
				if !last.IsZero() && !start.After(last) {
					continue
				}
				last = start

				slot := SlotAt(start, p)
				if slot.Conflicts(busy) {
					continue
				}
				if !yield(slot) {
					return
				}
			}
		}
	}
}

// ListSlots collects GenerateSlots into a slice.
func ListSlots(rangeStart, rangeEnd time.Time, p Policy, busy []BusyInterval) []Slot {
	return slices.Collect(GenerateSlots(rangeStart, rangeEnd, p, busy))
}

// NextAvailableSlot returns the earliest free slot starting strictly after
// the given instant and no later than the policy horizon measured from it.
// It returns nil when the horizon holds no free slot.
func NextAvailableSlot(after time.Time, p Policy, busy []BusyInterval) (*Slot, error) {
	if after.IsZero() {
		return nil, &InvalidInstantError{Input: "0001-01-01T00:00:00Z"}
	}

	for slot := range GenerateSlots(after, p.HorizonEnd(after), p, busy) {
		if slot.Start.After(after) {
			return &slot, nil
		}
	}
	return nil, nil
}
