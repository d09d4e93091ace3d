package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(h, m int) time.Time {
	return time.Date(2026, 10, 14, h, m, 0, 0, time.UTC)
}

func TestTimeRangeOverlaps(t *testing.T) {
	base := TimeRange{Start: at(10, 0), End: at(11, 0)}

	cases := []struct {
		name  string
		other TimeRange
		want  bool
	}{
		{"same", base, true},
		{"inside", TimeRange{Start: at(10, 15), End: at(10, 45)}, true},
		{"covers", TimeRange{Start: at(9, 0), End: at(12, 0)}, true},
		{"tail", TimeRange{Start: at(10, 30), End: at(11, 30)}, true},
		{"touch before", TimeRange{Start: at(9, 0), End: at(10, 0)}, false},
		{"touch after", TimeRange{Start: at(11, 0), End: at(12, 0)}, false},
		{"disjoint", TimeRange{Start: at(13, 0), End: at(14, 0)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, base.Overlaps(tc.other))
			assert.Equal(t, tc.want, tc.other.Overlaps(base))
		})
	}
}

func TestTimeRangePad(t *testing.T) {
	r := TimeRange{Start: at(10, 0), End: at(11, 0)}.Pad(30 * time.Minute)

	assert.Equal(t, at(9, 30), r.Start)
	assert.Equal(t, at(11, 30), r.End)
	assert.Equal(t, 2*time.Hour, r.Duration())
	assert.True(t, r.Valid())
	assert.False(t, TimeRange{Start: at(11, 0), End: at(10, 0)}.Valid())
}

func TestBookingNominal(t *testing.T) {
	b := &Booking{StartTime: at(9, 30), EndTime: at(11, 30)}

	n := b.Nominal(30 * time.Minute)
	assert.Equal(t, at(10, 0), n.Start)
	assert.Equal(t, at(11, 0), n.End)
}

func TestBookingStatusValid(t *testing.T) {
	assert.True(t, BookingActive.Valid())
	assert.True(t, BookingCanceled.Valid())
	assert.True(t, BookingCompleted.Valid())
	assert.False(t, BookingStatus("edited").Valid())
}
