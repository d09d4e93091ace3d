package service

import (
	"context"
	"time"

	"driverbook/pkg/logger"
	"driverbook/pkg/models"
	"driverbook/storage"
)

// Notifier receives best-effort side effects of booking changes.
type Notifier interface {
	BookingCreated(ctx context.Context, b *models.Booking) error
}

type Options struct {
	Location *time.Location
	Now      func() time.Time
	// Retries bounds attempts on storage.ErrUnavailable.
	Retries int
	Backoff time.Duration
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Retries <= 0 {
		o.Retries = 3
	}
	if o.Backoff <= 0 {
		o.Backoff = 50 * time.Millisecond
	}
	return o
}

type IServiceManager interface {
	User() UserService
	Slot() SlotService
	Booking() BookingService
	Invite() InviteService
}

type service struct {
	userService    UserService
	slotService    SlotService
	bookingService BookingService
	inviteService  InviteService
}

func New(stg storage.IStorage, notifier Notifier, log logger.ILogger, opts Options) IServiceManager {
	opts = opts.withDefaults()
	r := retrier{attempts: opts.Retries, backoff: opts.Backoff, log: log}
	return &service{
		userService:    newUserService(stg, log, r),
		slotService:    newSlotService(stg, log, r, opts),
		bookingService: newBookingService(stg, notifier, log, r, opts),
		inviteService:  newInviteService(stg, log, r),
	}
}

func (s *service) User() UserService {
	return s.userService
}

func (s *service) Slot() SlotService {
	return s.slotService
}

func (s *service) Booking() BookingService {
	return s.bookingService
}

func (s *service) Invite() InviteService {
	return s.inviteService
}
