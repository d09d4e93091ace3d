package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"driverbook/pkg/logger"
	"driverbook/pkg/models"
	"driverbook/pkg/schedule"
	"driverbook/storage"
)

var ErrInvalidRange = errors.New("end time must be after start time")

const DefaultMaxAgeDays = 30

const notifyTimeout = 5 * time.Second

type CreateBookingRequest struct {
	DriverID int64
	UserID   int64
	// Start and End are what the user picked; the stored interval is padded.
	Start time.Time
	End   time.Time
	Notes string
}

type BookingService interface {
	// Create returns ErrInvalidRange, storage.ErrConflict or
	// storage.ErrNotFound (driver gone) without writing anything.
	Create(ctx context.Context, req CreateBookingRequest) (*models.Booking, error)
	Get(ctx context.Context, id int64) (*models.Booking, error)
	// Cancel is active -> canceled; false when absent or already canceled.
	Cancel(ctx context.Context, id int64) (bool, error)
	// CancelForUser only cancels the caller's own booking.
	CancelForUser(ctx context.Context, userID, id int64) (bool, error)
	ListForUser(ctx context.Context, userID int64) ([]*models.Booking, error)
	ListActive(ctx context.Context) ([]*models.Booking, error)
	CleanupCanceled(ctx context.Context) (int64, error)
	CleanupOldCanceled(ctx context.Context, maxAgeDays int) (int64, error)
	RunCleanup(ctx context.Context, interval time.Duration, maxAgeDays int)
}

type bookingService struct {
	stg      storage.IBookingStorage
	notifier Notifier
	log      logger.ILogger
	retry    retrier
	now      func() time.Time
}

func newBookingService(stg storage.IStorage, notifier Notifier, log logger.ILogger, r retrier, opts Options) BookingService {
	opts = opts.withDefaults()
	return &bookingService{
		stg:      stg.Booking(),
		notifier: notifier,
		log:      log,
		retry:    r,
		now:      opts.Now,
	}
}

func (s *bookingService) Create(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	nominal := models.TimeRange{Start: req.Start, End: req.End}
	if !nominal.Valid() {
		bookingCreate.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidRange
	}
	if nominal.Start.Before(s.now()) {
		bookingCreate.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: start is in the past", ErrInvalidRange)
	}

	stored := schedule.Padded(nominal)
	b := &models.Booking{
		DriverID:  req.DriverID,
		UserID:    req.UserID,
		StartTime: stored.Start,
		EndTime:   stored.End,
		Status:    models.BookingActive,
	}
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		b.Notes = &notes
	}

	created, err := do(ctx, s.retry, "booking.insert", func() (*models.Booking, error) {
		return s.stg.InsertIfFree(ctx, b)
	})
	switch {
	case errors.Is(err, storage.ErrConflict):
		bookingCreate.WithLabelValues("conflict").Inc()
		s.log.Info("booking conflict",
			logger.Int64("driver_id", req.DriverID), logger.Int64("user_id", req.UserID),
			logger.Time("start", stored.Start), logger.Time("end", stored.End))
		return nil, err
	case err != nil:
		bookingCreate.WithLabelValues("error").Inc()
		return nil, err
	}

	bookingCreate.WithLabelValues("created").Inc()
	s.log.Info("booking created",
		logger.Int64("booking_id", created.ID), logger.Int64("driver_id", created.DriverID),
		logger.Int64("user_id", created.UserID))
	s.notify(ctx, created)
	return created, nil
}

func (s *bookingService) notify(ctx context.Context, b *models.Booking) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.notifier.BookingCreated(ctx, b); err != nil {
		s.log.Warning("booking notification failed", logger.Int64("booking_id", b.ID), logger.Error(err))
	}
}

func (s *bookingService) Get(ctx context.Context, id int64) (*models.Booking, error) {
	return do(ctx, s.retry, "booking.get", func() (*models.Booking, error) {
		return s.stg.GetByID(ctx, id)
	})
}

func (s *bookingService) Cancel(ctx context.Context, id int64) (bool, error) {
	ok, err := do(ctx, s.retry, "booking.cancel", func() (bool, error) {
		return s.stg.Cancel(ctx, id)
	})
	switch {
	case err != nil:
		bookingCancel.WithLabelValues("error").Inc()
		return false, err
	case !ok:
		bookingCancel.WithLabelValues("noop").Inc()
		return false, nil
	}
	bookingCancel.WithLabelValues("canceled").Inc()
	s.log.Info("booking canceled", logger.Int64("booking_id", id))
	return true, nil
}

func (s *bookingService) CancelForUser(ctx context.Context, userID, id int64) (bool, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if b.UserID != userID {
		return false, fmt.Errorf("booking %d of another user: %w", id, storage.ErrNotFound)
	}
	return s.Cancel(ctx, id)
}

func (s *bookingService) ListForUser(ctx context.Context, userID int64) ([]*models.Booking, error) {
	return do(ctx, s.retry, "booking.list_user", func() ([]*models.Booking, error) {
		return s.stg.GetUserBookings(ctx, userID)
	})
}

func (s *bookingService) ListActive(ctx context.Context) ([]*models.Booking, error) {
	return do(ctx, s.retry, "booking.list_active", func() ([]*models.Booking, error) {
		return s.stg.GetActive(ctx)
	})
}

func (s *bookingService) CleanupCanceled(ctx context.Context) (int64, error) {
	n, err := do(ctx, s.retry, "booking.cleanup", func() (int64, error) {
		return s.stg.DeleteCanceled(ctx)
	})
	if err != nil {
		return 0, err
	}
	cleanupDeleted.WithLabelValues("all").Add(float64(n))
	s.log.Info("canceled bookings deleted", logger.Int64("count", n))
	return n, nil
}

// CleanupOldCanceled deletes canceled bookings starting before now minus
// maxAgeDays; non-positive values mean DefaultMaxAgeDays.
func (s *bookingService) CleanupOldCanceled(ctx context.Context, maxAgeDays int) (int64, error) {
	if maxAgeDays <= 0 {
		maxAgeDays = DefaultMaxAgeDays
	}
	cutoff := s.now().AddDate(0, 0, -maxAgeDays)
	n, err := do(ctx, s.retry, "booking.cleanup_old", func() (int64, error) {
		return s.stg.DeleteCanceledBefore(ctx, cutoff)
	})
	if err != nil {
		return 0, err
	}
	cleanupDeleted.WithLabelValues("old").Add(float64(n))
	s.log.Info("old canceled bookings deleted", logger.Int64("count", n), logger.Time("cutoff", cutoff))
	return n, nil
}

// RunCleanup blocks until ctx is done. Non-positive intervals default to a day.
func (s *bookingService) RunCleanup(ctx context.Context, interval time.Duration, maxAgeDays int) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("cleanup worker started", logger.Duration("interval", interval), logger.Int("max_age_days", maxAgeDays))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			if _, err := s.CleanupOldCanceled(ctx, maxAgeDays); err != nil && !errors.Is(err, context.Canceled) {
				s.log.Error("cleanup failed", logger.Error(err))
			}
		}
	}
}
