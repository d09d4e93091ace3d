package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"driverbook/pkg/logger"
	"driverbook/pkg/models"
	"driverbook/pkg/schedule"
	"driverbook/storage"
)

type SlotService interface {
	// FreeSlots recomputes the driver's free grid for date on every call.
	// storage.ErrNotFound when the driver is missing or inactive.
	FreeSlots(ctx context.Context, driverID int64, date time.Time) ([]models.TimeRange, error)
	// PrimaryDriver is the first active driver; bookings always go to it.
	PrimaryDriver(ctx context.Context) (*models.Driver, error)
	Drivers(ctx context.Context) ([]*models.Driver, error)
	// EnsureDriver creates a driver named name when no active one exists.
	EnsureDriver(ctx context.Context, name string) (*models.Driver, error)
	Location() *time.Location
}

type slotService struct {
	drivers  storage.IDriverStorage
	bookings storage.IBookingStorage
	log      logger.ILogger
	retry    retrier
	loc      *time.Location
}

func newSlotService(stg storage.IStorage, log logger.ILogger, r retrier, opts Options) SlotService {
	opts = opts.withDefaults()
	return &slotService{
		drivers:  stg.Driver(),
		bookings: stg.Booking(),
		log:      log,
		retry:    r,
		loc:      opts.Location,
	}
}

func (s *slotService) Location() *time.Location {
	return s.loc
}

func (s *slotService) FreeSlots(ctx context.Context, driverID int64, date time.Time) ([]models.TimeRange, error) {
	driver, err := do(ctx, s.retry, "driver.get", func() (*models.Driver, error) {
		return s.drivers.GetByID(ctx, driverID)
	})
	if err != nil {
		return nil, err
	}
	if !driver.IsActive {
		return nil, fmt.Errorf("driver %d is inactive: %w", driverID, storage.ErrNotFound)
	}

	day := schedule.DayBounds(date, s.loc)
	booked, err := do(ctx, s.retry, "booking.driver_day", func() ([]*models.Booking, error) {
		return s.bookings.GetDriverActiveInRange(ctx, driverID, day)
	})
	if err != nil {
		return nil, err
	}

	busy := make([]models.TimeRange, 0, len(booked))
	for _, b := range booked {
		busy = append(busy, b.Range())
	}
	return schedule.Free(schedule.Candidates(date, s.loc), busy), nil
}

func (s *slotService) Drivers(ctx context.Context) ([]*models.Driver, error) {
	return do(ctx, s.retry, "driver.active", func() ([]*models.Driver, error) {
		return s.drivers.GetActive(ctx)
	})
}

func (s *slotService) PrimaryDriver(ctx context.Context) (*models.Driver, error) {
	drivers, err := s.Drivers(ctx)
	if err != nil {
		return nil, err
	}
	if len(drivers) == 0 {
		return nil, fmt.Errorf("no active driver: %w", storage.ErrNotFound)
	}
	return drivers[0], nil
}

func (s *slotService) EnsureDriver(ctx context.Context, name string) (*models.Driver, error) {
	d, err := s.PrimaryDriver(ctx)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	d, err = s.drivers.Create(ctx, name, "")
	if err != nil {
		return nil, err
	}
	s.log.Info("bootstrap driver created", logger.Int64("driver_id", d.ID), logger.String("name", name))
	return d, nil
}
