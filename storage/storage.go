package storage

import (
	"context"
	"errors"
	"time"

	"driverbook/pkg/models"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("interval is already booked")
	ErrDuplicateInvite = errors.New("invite code already exists")
	ErrUnavailable     = errors.New("storage unavailable")
)

type IStorage interface {
	User() IUserStorage
	Driver() IDriverStorage
	Invite() IInviteStorage
	Booking() IBookingStorage
	Close()
}

type IUserStorage interface {
	Get(ctx context.Context, teleID int64) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

type IDriverStorage interface {
	Create(ctx context.Context, name, phone string) (*models.Driver, error)
	GetByID(ctx context.Context, id int64) (*models.Driver, error)
	GetActive(ctx context.Context) ([]*models.Driver, error)
}

type IInviteStorage interface {
	// Create fails with ErrDuplicateInvite when the code exists, used or not.
	Create(ctx context.Context, code string) (*models.Invite, error)
	GetAll(ctx context.Context) ([]*models.Invite, error)
	// Redeem marks an unused code as used and registers the user in one
	// transaction. ErrNotFound when the code is unknown or already used.
	Redeem(ctx context.Context, code string, user *models.User) (*models.User, error)
}

type IBookingStorage interface {
	// InsertIfFree is the only path creating bookings. It serializes per
	// driver and returns ErrConflict if b's interval overlaps an active
	// booking, ErrNotFound if the driver is missing or inactive.
	InsertIfFree(ctx context.Context, b *models.Booking) (*models.Booking, error)
	GetByID(ctx context.Context, id int64) (*models.Booking, error)
	GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error)
	GetActive(ctx context.Context) ([]*models.Booking, error)
	// GetDriverActiveInRange returns active bookings whose interval
	// intersects r, ordered by start.
	GetDriverActiveInRange(ctx context.Context, driverID int64, r models.TimeRange) ([]*models.Booking, error)
	// Cancel moves an active booking to canceled; false if it was absent or
	// not active.
	Cancel(ctx context.Context, id int64) (bool, error)
	DeleteCanceled(ctx context.Context) (int64, error)
	DeleteCanceledBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
