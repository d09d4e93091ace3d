// Package storagetest is a behavioural suite shared by every storage.IStorage
// implementation.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driverbook/pkg/models"
	"driverbook/storage"
)

// Open must return an empty store.
type Open func(t *testing.T) storage.IStorage

var base = time.Date(2030, 3, 12, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return base.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func Run(t *testing.T, open Open) {
	t.Run("InsertIfFree", func(t *testing.T) { testInsertIfFree(t, open(t)) })
	t.Run("ConcurrentSameInterval", func(t *testing.T) { testConcurrentSameInterval(t, open(t)) })
	t.Run("ConcurrentMixedIntervals", func(t *testing.T) { testConcurrentMixed(t, open(t)) })
	t.Run("Cancel", func(t *testing.T) { testCancel(t, open(t)) })
	t.Run("DeleteCanceled", func(t *testing.T) { testDeleteCanceled(t, open(t)) })
	t.Run("Listings", func(t *testing.T) { testListings(t, open(t)) })
	t.Run("Invites", func(t *testing.T) { testInvites(t, open(t)) })
	t.Run("ConcurrentRedeem", func(t *testing.T) { testConcurrentRedeem(t, open(t)) })
}

// Seed creates a driver and a redeemed user.
func Seed(t *testing.T, stg storage.IStorage, teleID int64) (*models.Driver, *models.User) {
	t.Helper()
	ctx := context.Background()
	d, err := stg.Driver().Create(ctx, fmt.Sprintf("driver-%d", teleID), "+70000000000")
	require.NoError(t, err)
	code := fmt.Sprintf("seed-%d", teleID)
	_, err = stg.Invite().Create(ctx, code)
	require.NoError(t, err)
	u, err := stg.Invite().Redeem(ctx, code, &models.User{TelegramID: teleID, Name: "Test", Username: "test"})
	require.NoError(t, err)
	return d, u
}

func booking(d *models.Driver, u *models.User, start, end time.Time) *models.Booking {
	return &models.Booking{DriverID: d.ID, UserID: u.ID, StartTime: start, EndTime: end}
}

func testInsertIfFree(t *testing.T, stg storage.IStorage) {
	ctx := context.Background()
	d, u := Seed(t, stg, 1)
	other, _ := stg.Driver().Create(ctx, "other", "")

	note := "entrance 2"
	b := booking(d, u, at(9, 30), at(11, 30))
	b.Notes = &note
	created, err := stg.Booking().InsertIfFree(ctx, b)
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	assert.Equal(t, models.BookingActive, created.Status)

	_, err = stg.Booking().InsertIfFree(ctx, booking(d, u, at(11, 0), at(12, 0)))
	assert.ErrorIs(t, err, storage.ErrConflict)

	_, err = stg.Booking().InsertIfFree(ctx, booking(d, u, at(8, 0), at(12, 0)))
	assert.ErrorIs(t, err, storage.ErrConflict)

	_, err = stg.Booking().InsertIfFree(ctx, booking(d, u, at(11, 30), at(12, 30)))
	assert.NoError(t, err, "touching intervals must not conflict")

	_, err = stg.Booking().InsertIfFree(ctx, booking(other, u, at(9, 30), at(11, 30)))
	assert.NoError(t, err, "other driver is independent")

	_, err = stg.Booking().InsertIfFree(ctx, &models.Booking{DriverID: 999999, UserID: u.ID, StartTime: at(1, 0), EndTime: at(2, 0)})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = stg.Booking().InsertIfFree(ctx, &models.Booking{DriverID: d.ID, UserID: 999999, StartTime: at(20, 0), EndTime: at(21, 0)})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.Equal(t, d.Name, created.DriverName)
	assert.Equal(t, "Test", created.UserName)

	got, err := stg.Booking().GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.StartTime.Equal(at(9, 30)))
	assert.True(t, got.EndTime.Equal(at(11, 30)))
	require.NotNil(t, got.Notes)
	assert.Equal(t, note, *got.Notes)
	assert.Equal(t, d.Name, got.DriverName)
	assert.Equal(t, "Test", got.UserName)

	_, err = stg.Booking().GetByID(ctx, 999999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testConcurrentSameInterval(t *testing.T, stg storage.IStorage) {
	ctx := context.Background()
	d, u := Seed(t, stg, 2)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := stg.Booking().InsertIfFree(ctx, booking(d, u, at(14, 0), at(15, 0)))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok, conflicts := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, storage.ErrConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
}

func testConcurrentMixed(t *testing.T, stg storage.IStorage) {
	ctx := context.Background()
	d, u := Seed(t, stg, 3)

	var wg sync.WaitGroup
	for i := 0; i < 24; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := at(8, 0).Add(time.Duration(i) * 20 * time.Minute)
			_, err := stg.Booking().InsertIfFree(ctx, booking(d, u, start, start.Add(90*time.Minute)))
			if err != nil && !errors.Is(err, storage.ErrConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	active, err := stg.Booking().GetActive(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, active)
	for i := range active {
		for j := i + 1; j < len(active); j++ {
			assert.False(t, active[i].Range().Overlaps(active[j].Range()),
				"bookings %d and %d overlap", active[i].ID, active[j].ID)
		}
	}
}

func testCancel(t *testing.T, stg storage.IStorage) {
	ctx := context.Background()
	d, u := Seed(t, stg, 4)

	b, err := stg.Booking().InsertIfFree(ctx, booking(d, u, at(10, 0), at(11, 0)))
	require.NoError(t, err)
	keep, err := stg.Booking().InsertIfFree(ctx, booking(d, u, at(12, 0), at(13, 0)))
	require.NoError(t, err)

	ok, err := stg.Booking().Cancel(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = stg.Booking().Cancel(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = stg.Booking().Cancel(ctx, 999999)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := stg.Booking().GetByID(ctx, keep.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingActive, got.Status)

	_, err = stg.Booking().InsertIfFree(ctx, booking(d, u, at(10, 0), at(11, 0)))
	assert.NoError(t, err, "canceled booking frees its interval")
}

func testDeleteCanceled(t *testing.T, stg storage.IStorage) {
	ctx := context.Background()
	d, u := Seed(t, stg, 5)

	old, err := stg.Booking().InsertIfFree(ctx, booking(d, u, at(8, 0), at(9, 0)))
	require.NoError(t, err)
	recent, err := stg.Booking().InsertIfFree(ctx, booking(d, u, at(20, 0), at(21, 0)))
	require.NoError(t, err)
	active, err := stg.Booking().InsertIfFree(ctx, booking(d, u, at(12, 0), at(13, 0)))
	require.NoError(t, err)

	for _, id := range []int64{old.ID, recent.ID} {
		ok, err := stg.Booking().Cancel(ctx, id)
		require.NoError(t, err)
		require.True(t, ok)
	}

	n, err := stg.Booking().DeleteCanceledBefore(ctx, at(10, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = stg.Booking().GetByID(ctx, old.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	n, err = stg.Booking().DeleteCanceled(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = stg.Booking().DeleteCanceled(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = stg.Booking().GetByID(ctx, active.ID)
	assert.NoError(t, err)
}

func testListings(t *testing.T, stg storage.IStorage) {
	ctx := context.Background()
	d, u := Seed(t, stg, 6)
	_, u2 := Seed(t, stg, 7)

	late, err := stg.Booking().InsertIfFree(ctx, booking(d, u, at(18, 0), at(19, 0)))
	require.NoError(t, err)
	early, err := stg.Booking().InsertIfFree(ctx, booking(d, u, at(9, 0), at(10, 0)))
	require.NoError(t, err)
	nextDay, err := stg.Booking().InsertIfFree(ctx, booking(d, u2, at(33, 0), at(34, 0)))
	require.NoError(t, err)
	canceled, err := stg.Booking().InsertIfFree(ctx, booking(d, u, at(12, 0), at(13, 0)))
	require.NoError(t, err)
	_, err = stg.Booking().Cancel(ctx, canceled.ID)
	require.NoError(t, err)

	mine, err := stg.Booking().GetUserBookings(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, []int64{early.ID, canceled.ID, late.ID}, []int64{mine[0].ID, mine[1].ID, mine[2].ID})

	all, err := stg.Booking().GetActive(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{early.ID, late.ID, nextDay.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

	day, err := stg.Booking().GetDriverActiveInRange(ctx, d.ID, models.TimeRange{Start: at(0, 0), End: at(24, 0)})
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.Equal(t, early.ID, day[0].ID)
	assert.Equal(t, late.ID, day[1].ID)
}

func testInvites(t *testing.T, stg storage.IStorage) {
	ctx := context.Background()

	_, err := stg.Invite().Create(ctx, "ALPHA")
	require.NoError(t, err)
	_, err = stg.Invite().Create(ctx, "ALPHA")
	assert.ErrorIs(t, err, storage.ErrDuplicateInvite)

	u, err := stg.Invite().Redeem(ctx, "ALPHA", &models.User{TelegramID: 100, Name: "Ann", Username: "ann"})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.True(t, u.IsActive)

	_, err = stg.Invite().Redeem(ctx, "ALPHA", &models.User{TelegramID: 101})
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = stg.Invite().Redeem(ctx, "MISSING", &models.User{TelegramID: 101})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = stg.Invite().Create(ctx, "ALPHA")
	assert.ErrorIs(t, err, storage.ErrDuplicateInvite, "used codes stay reserved")

	got, err := stg.User().Get(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	_, err = stg.User().Get(ctx, 101)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	invites, err := stg.Invite().GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, invites, 1)
	assert.True(t, invites[0].IsUsed)
	require.NotNil(t, invites[0].UsedBy)
	assert.Equal(t, u.ID, *invites[0].UsedBy)
}

func testConcurrentRedeem(t *testing.T, stg storage.IStorage) {
	ctx := context.Background()
	_, err := stg.Invite().Create(ctx, "RACE")
	require.NoError(t, err)

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := stg.Invite().Redeem(ctx, "RACE", &models.User{TelegramID: int64(500 + i)})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, storage.ErrNotFound)
	}
	assert.Equal(t, 1, ok)

	registered := 0
	for i := 0; i < n; i++ {
		if _, err := stg.User().Get(ctx, int64(500+i)); err == nil {
			registered++
		}
	}
	assert.Equal(t, 1, registered, "a lost redeem must not register a user")
}
