package models

import "time"

// TimeRange is a [Start, End) window. Two ranges overlap iff
// a.Start < b.End && a.End > b.Start, so touching endpoints never collide.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r TimeRange) Valid() bool {
	return r.End.After(r.Start)
}

func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Start.Before(o.End) && r.End.After(o.Start)
}

// Pad widens the range by d on both sides.
func (r TimeRange) Pad(d time.Duration) TimeRange {
	return TimeRange{Start: r.Start.Add(-d), End: r.End.Add(d)}
}

func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}
