// Package schedule holds the fixed daily slot grid and the pure
// availability filter applied on top of it.
package schedule

import (
	"time"

	"driverbook/pkg/models"
)

const (
	DayStartHour = 8
	DayEndHour   = 22
	SlotStep     = 30 * time.Minute
	// Buffer is the transit margin stored on both sides of every booking.
	Buffer = 30 * time.Minute
)

// DayBounds returns [00:00, next 00:00) of date's calendar day in loc.
func DayBounds(date time.Time, loc *time.Location) models.TimeRange {
	y, m, d := date.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return models.TimeRange{Start: start, End: time.Date(y, m, d+1, 0, 0, 0, 0, loc)}
}

// Candidates enumerates every SlotStep window between DayStartHour and
// DayEndHour, in chronological order.
func Candidates(date time.Time, loc *time.Location) []models.TimeRange {
	y, m, d := date.In(loc).Date()
	first := time.Date(y, m, d, DayStartHour, 0, 0, 0, loc)
	last := time.Date(y, m, d, DayEndHour, 0, 0, 0, loc)

	out := make([]models.TimeRange, 0, int(last.Sub(first)/SlotStep))
	for s := first; s.Before(last); s = s.Add(SlotStep) {
		out = append(out, models.TimeRange{Start: s, End: s.Add(SlotStep)})
	}
	return out
}

// Free drops every candidate overlapping any busy range. Order is kept.
func Free(candidates []models.TimeRange, busy []models.TimeRange) []models.TimeRange {
	out := make([]models.TimeRange, 0, len(candidates))
next:
	for _, c := range candidates {
		for _, b := range busy {
			if c.Overlaps(b) {
				continue next
			}
		}
		out = append(out, c)
	}
	return out
}

// Padded converts a user-visible range into the stored one.
func Padded(r models.TimeRange) models.TimeRange {
	return r.Pad(Buffer)
}

// EndChoices lists slot ends reachable from start without crossing a taken
// slot: the contiguous run of free slots beginning at start.
func EndChoices(free []models.TimeRange, start time.Time) []time.Time {
	var out []time.Time
	expect := start
	for _, s := range free {
		if s.Start.Before(start) {
			continue
		}
		if !s.Start.Equal(expect) {
			break
		}
		out = append(out, s.End)
		expect = s.End
	}
	return out
}
