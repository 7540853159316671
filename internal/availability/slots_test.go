package availability

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSlots_Week(t *testing.T) {
	policy := DefaultPolicy()
	loc := policy.Location
	monday := time.Date(2024, time.May, 27, 0, 0, 0, 0, loc)
	nextMonday := monday.AddDate(0, 0, 7)

	all := ListSlots(monday, nextMonday, policy, nil)
	assert.Len(t, all, 5*9)
	assert.Equal(t, time.Date(2024, time.May, 27, 9, 0, 0, 0, loc), all[0].Start)
	assert.Equal(t, time.Date(2024, time.May, 31, 17, 0, 0, 0, loc), all[len(all)-1].Start)

	busy := []BusyInterval{{
		Start: time.Date(2024, time.May, 30, 10, 0, 0, 0, loc),
		End:   time.Date(2024, time.May, 30, 11, 0, 0, 0, loc),
	}}
	free := ListSlots(monday, nextMonday, policy, busy)
	assert.Len(t, free, 5*9-1)
	for _, s := range free {
		assert.False(t, s.Start.Equal(busy[0].Start), "busy slot %s was generated", s)
	}
}

func TestGenerateSlots_StrictlyAscendingAndUnique(t *testing.T) {
	policy := DefaultPolicy()
	policy.Duration = 90 * time.Minute
	start := time.Date(2024, time.May, 27, 13, 45, 0, 0, policy.Location)

	var prev *Slot
	seen := make(map[time.Time]bool)
	for s := range GenerateSlots(start, time.Time{}, policy, nil) {
		require.False(t, seen[s.Start], "duplicate start %s", s.Start)
		seen[s.Start] = true
		if prev != nil {
			require.True(t, s.Start.After(prev.Start), "%s not after %s", s.Start, prev.Start)
		}
		assert.Equal(t, policy.Duration, s.Duration())
		cur := s
		prev = &cur
	}
	require.NotEmpty(t, seen)
}

func TestGenerateSlots_Idempotent(t *testing.T) {
	policy := DefaultPolicy()
	loc := policy.Location
	start := time.Date(2024, time.May, 27, 0, 0, 0, 0, loc)
	busy := []BusyInterval{
		{Start: time.Date(2024, time.May, 28, 9, 0, 0, 0, loc), End: time.Date(2024, time.May, 28, 12, 0, 0, 0, loc)},
		{Start: time.Date(2024, time.June, 3, 15, 30, 0, 0, loc), End: time.Date(2024, time.June, 3, 16, 15, 0, 0, loc)},
	}

	seq := GenerateSlots(start, time.Time{}, policy, busy)
	var first, second []Slot
	for s := range seq {
		first = append(first, s)
	}
	for s := range seq {
		second = append(second, s)
	}
	assert.Equal(t, first, second)
	assert.Equal(t, first, ListSlots(start, time.Time{}, policy, busy))
}

func TestGenerateSlots_DefaultRangeIsHorizon(t *testing.T) {
	policy := DefaultPolicy()
	monday := time.Date(2024, time.May, 27, 0, 0, 0, 0, policy.Location)

	// Days May 27 through June 25: 22 weekdays.
	assert.Len(t, ListSlots(monday, time.Time{}, policy, nil), 22*9)
}

func TestGenerateSlots_FirstDayNotTruncated(t *testing.T) {
	policy := DefaultPolicy()
	afternoon := time.Date(2024, time.May, 27, 15, 30, 0, 0, policy.Location)

	slots := ListSlots(afternoon, afternoon.Add(time.Hour), policy, nil)
	require.Len(t, slots, 9)
	assert.Equal(t, 9, slots[0].Start.Hour())
}

func TestGenerateSlots_MultiHourBusyInterval(t *testing.T) {
	policy := DefaultPolicy()
	loc := policy.Location
	day := time.Date(2024, time.May, 29, 0, 0, 0, 0, loc)
	busy := []BusyInterval{{
		Start: time.Date(2024, time.May, 29, 10, 0, 0, 0, loc),
		End:   time.Date(2024, time.May, 29, 12, 30, 0, 0, loc),
	}}

	var hours []int
	for s := range GenerateSlots(day, day.Add(time.Hour), policy, busy) {
		hours = append(hours, s.Start.Hour())
	}
	assert.Equal(t, []int{9, 13, 14, 15, 16, 17}, hours)
}

func TestGenerateSlots_EarlyStop(t *testing.T) {
	policy := DefaultPolicy()
	start := time.Date(2024, time.May, 27, 0, 0, 0, 0, policy.Location)

	n := 0
	for range GenerateSlots(start, time.Time{}, policy, nil) {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestGenerateSlots_EmptyRange(t *testing.T) {
	policy := DefaultPolicy()
	start := time.Date(2024, time.May, 27, 0, 0, 0, 0, policy.Location)

	assert.Empty(t, ListSlots(start, start, policy, nil))
	assert.Empty(t, ListSlots(start, start.Add(-time.Hour), policy, nil))
}

func TestNextAvailableSlot_Scenario(t *testing.T) {
	policy := DefaultPolicy()
	loc := policy.Location
	requested := time.Date(2024, time.May, 30, 10, 0, 0, 0, loc)
	busy := []BusyInterval{{Start: requested, End: requested.Add(time.Hour)}}

	slot, err := NextAvailableSlot(requested, policy, busy)
	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.Equal(t, time.Date(2024, time.May, 30, 11, 0, 0, 0, loc), slot.Start)
	assert.Equal(t, time.Date(2024, time.May, 30, 12, 0, 0, 0, loc), slot.End)
}

func TestNextAvailableSlot_SkipsWeekend(t *testing.T) {
	policy := DefaultPolicy()
	loc := policy.Location
	friday := time.Date(2024, time.May, 31, 17, 0, 0, 0, loc)

	slot, err := NextAvailableSlot(friday, policy, nil)
	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.Equal(t, time.Date(2024, time.June, 3, 9, 0, 0, 0, loc), slot.Start)
}

func TestNextAvailableSlot_StrictlyAfter(t *testing.T) {
	policy := DefaultPolicy()
	loc := policy.Location

	aligned := time.Date(2024, time.May, 30, 9, 0, 0, 0, loc)
	slot, err := NextAvailableSlot(aligned, policy, nil)
	require.NoError(t, err)
	assert.Equal(t, aligned.Add(time.Hour), slot.Start)

	unaligned := time.Date(2024, time.May, 30, 9, 1, 0, 0, loc)
	slot, err = NextAvailableSlot(unaligned, policy, nil)
	require.NoError(t, err)
	assert.Equal(t, aligned.Add(time.Hour), slot.Start)
}

func TestNextAvailableSlot_IsMinimal(t *testing.T) {
	policy := DefaultPolicy()
	loc := policy.Location
	busy := []BusyInterval{
		{Start: time.Date(2024, time.May, 30, 11, 0, 0, 0, loc), End: time.Date(2024, time.May, 30, 18, 0, 0, 0, loc)},
		{Start: time.Date(2024, time.May, 31, 0, 0, 0, 0, loc), End: time.Date(2024, time.June, 4, 0, 0, 0, 0, loc)},
	}

	for _, after := range []time.Time{
		time.Date(2024, time.May, 30, 10, 0, 0, 0, loc),
		time.Date(2024, time.May, 30, 10, 30, 0, 0, loc),
		time.Date(2024, time.May, 29, 23, 0, 0, 0, loc),
		time.Date(2024, time.June, 1, 12, 0, 0, 0, loc),
	} {
		t.Run(after.Format(time.RFC3339), func(t *testing.T) {
			slot, err := NextAvailableSlot(after, policy, busy)
			require.NoError(t, err)
			require.NotNil(t, slot)

			assert.True(t, slot.Start.After(after))
			assert.False(t, slot.Conflicts(busy))
			for _, candidate := range ListSlots(after, policy.HorizonEnd(after), policy, busy) {
				if candidate.Start.After(after) && candidate.Start.Before(slot.Start) {
					t.Fatalf("earlier free slot %s exists before %s", candidate, slot)
				}
			}
		})
	}
}

func TestNextAvailableSlot_FullyBooked(t *testing.T) {
	policy := DefaultPolicy()
	after := time.Date(2024, time.May, 27, 8, 0, 0, 0, policy.Location)
	busy := []BusyInterval{{Start: after, End: after.AddDate(0, 0, 40)}}

	slot, err := NextAvailableSlot(after, policy, busy)
	require.NoError(t, err)
	assert.Nil(t, slot)
}

func TestNextAvailableSlot_PolicyExcludesWindow(t *testing.T) {
	policy := DefaultPolicy()
	policy.Weekdays = Weekdays(time.Saturday)
	policy.HorizonDays = 3
	monday := time.Date(2024, time.May, 27, 8, 0, 0, 0, policy.Location)

	slot, err := NextAvailableSlot(monday, policy, nil)
	require.NoError(t, err)
	assert.Nil(t, slot)
}

func TestNextAvailableSlot_ZeroInstant(t *testing.T) {
	slot, err := NextAvailableSlot(time.Time{}, DefaultPolicy(), nil)
	assert.Nil(t, slot)

	var invalid *InvalidInstantError
	require.True(t, errors.As(err, &invalid))
}
