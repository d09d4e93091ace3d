package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"driverbook/pkg/models"
	"driverbook/storage"
	"driverbook/storage/storagetest"
)

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.IStorage { return New() })
}

func TestInsertIfFreeInactiveDriver(t *testing.T) {
	s := New()
	d, u := storagetest.Seed(t, s, 1)
	s.SetDriverActive(d.ID, false)

	start := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	_, err := s.Booking().InsertIfFree(context.Background(), &models.Booking{
		DriverID: d.ID, UserID: u.ID, StartTime: start, EndTime: start.Add(time.Hour),
	})
	require.ErrorIs(t, err, storage.ErrNotFound)
}
