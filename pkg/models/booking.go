package models

import "time"

type BookingStatus string

const (
	BookingActive    BookingStatus = "active"
	BookingCanceled  BookingStatus = "canceled"
	BookingCompleted BookingStatus = "completed"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingActive, BookingCanceled, BookingCompleted:
		return true
	}
	return false
}

// Booking stores the padded interval: StartTime/EndTime already include the
// transit buffer around what the user picked.
type Booking struct {
	ID        int64         `json:"id"`
	DriverID  int64         `json:"driver_id"`
	UserID    int64         `json:"user_id"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Notes     *string       `json:"notes,omitempty"`
	Status    BookingStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`

	UserName   string `json:"user_name,omitempty"`
	Username   string `json:"username,omitempty"`
	DriverName string `json:"driver_name,omitempty"`
}

func (b *Booking) Range() TimeRange {
	return TimeRange{Start: b.StartTime, End: b.EndTime}
}

// Nominal strips the buffer and returns the slot the user actually chose.
func (b *Booking) Nominal(buffer time.Duration) TimeRange {
	return b.Range().Pad(-buffer)
}
