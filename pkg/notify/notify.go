// Package notify delivers best-effort booking side effects to operators.
package notify

import (
	"context"
	"errors"

	"driverbook/pkg/models"
	"driverbook/service"
)

// Multi fans a booking event out to every notifier, collecting failures.
type Multi []service.Notifier

func (m Multi) BookingCreated(ctx context.Context, b *models.Booking) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.BookingCreated(ctx, b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
