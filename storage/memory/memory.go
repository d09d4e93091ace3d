// Package memory is a process-local store. One mutex guards every table, so
// InsertIfFree's check-then-insert is atomic.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"driverbook/pkg/models"
	"driverbook/storage"
)

type Store struct {
	mu  sync.Mutex
	now func() time.Time

	seq      int64
	users    map[int64]*models.User
	drivers  map[int64]*models.Driver
	invites  map[string]*models.Invite
	bookings map[int64]*models.Booking
}

func New() *Store {
	return &Store{
		now:      time.Now,
		users:    make(map[int64]*models.User),
		drivers:  make(map[int64]*models.Driver),
		invites:  make(map[string]*models.Invite),
		bookings: make(map[int64]*models.Booking),
	}
}

func (s *Store) Close() {}

func (s *Store) User() storage.IUserStorage       { return userRepo{s} }
func (s *Store) Driver() storage.IDriverStorage   { return driverRepo{s} }
func (s *Store) Invite() storage.IInviteStorage   { return inviteRepo{s} }
func (s *Store) Booking() storage.IBookingStorage { return bookingRepo{s} }

// SetDriverActive is a test hook; drivers are read-only to the engine.
func (s *Store) SetDriverActive(id int64, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.drivers[id]; ok {
		d.IsActive = active
	}
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

type userRepo struct{ s *Store }

func (r userRepo) Get(_ context.Context, teleID int64) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.TelegramID == teleID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r userRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r userRepo) SetActive(_ context.Context, id int64, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.IsActive = active
	return nil
}

type driverRepo struct{ s *Store }

func (r driverRepo) Create(_ context.Context, name, phone string) (*models.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d := &models.Driver{ID: r.s.nextID(), Name: name, Phone: phone, IsActive: true, CreatedAt: r.s.now()}
	r.s.drivers[d.ID] = d
	cp := *d
	return &cp, nil
}

func (r driverRepo) GetByID(_ context.Context, id int64) (*models.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.drivers[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r driverRepo) GetActive(_ context.Context) ([]*models.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Driver
	for _, d := range r.s.drivers {
		if d.IsActive {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type inviteRepo struct{ s *Store }

func (r inviteRepo) Create(_ context.Context, code string) (*models.Invite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.invites[code]; ok {
		return nil, storage.ErrDuplicateInvite
	}
	inv := &models.Invite{ID: r.s.nextID(), Code: code, CreatedAt: r.s.now()}
	r.s.invites[code] = inv
	cp := *inv
	return &cp, nil
}

func (r inviteRepo) GetAll(_ context.Context) ([]*models.Invite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Invite, 0, len(r.s.invites))
	for _, inv := range r.s.invites {
		cp := *inv
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r inviteRepo) Redeem(_ context.Context, code string, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invites[code]
	if !ok || inv.IsUsed {
		return nil, storage.ErrNotFound
	}

	var u *models.User
	for _, existing := range r.s.users {
		if existing.TelegramID == user.TelegramID {
			u = existing
			break
		}
	}
	if u == nil {
		u = &models.User{
			ID:         r.s.nextID(),
			TelegramID: user.TelegramID,
			Name:       user.Name,
			Username:   user.Username,
			CreatedAt:  r.s.now(),
		}
		r.s.users[u.ID] = u
	}
	u.IsActive = true

	at := r.s.now()
	inv.IsUsed = true
	inv.UsedBy = &u.ID
	inv.UsedAt = &at

	cp := *u
	return &cp, nil
}

type bookingRepo struct{ s *Store }

func (r bookingRepo) InsertIfFree(_ context.Context, b *models.Booking) (*models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.drivers[b.DriverID]
	if !ok || !d.IsActive {
		return nil, storage.ErrNotFound
	}
	if _, ok := r.s.users[b.UserID]; !ok {
		return nil, storage.ErrNotFound
	}
	for _, existing := range r.s.bookings {
		if existing.DriverID == b.DriverID && existing.Status == models.BookingActive && existing.Range().Overlaps(b.Range()) {
			return nil, storage.ErrConflict
		}
	}

	nb := *b
	nb.ID = r.s.nextID()
	nb.Status = models.BookingActive
	nb.CreatedAt = r.s.now()
	r.s.bookings[nb.ID] = &nb
	return r.s.enrich(&nb), nil
}

func (r bookingRepo) GetByID(_ context.Context, id int64) (*models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return r.s.enrich(b), nil
}

func (r bookingRepo) GetUserBookings(_ context.Context, userID int64) ([]*models.Booking, error) {
	return r.filter(func(b *models.Booking) bool { return b.UserID == userID }), nil
}

func (r bookingRepo) GetActive(_ context.Context) ([]*models.Booking, error) {
	return r.filter(func(b *models.Booking) bool { return b.Status == models.BookingActive }), nil
}

func (r bookingRepo) GetDriverActiveInRange(_ context.Context, driverID int64, tr models.TimeRange) ([]*models.Booking, error) {
	return r.filter(func(b *models.Booking) bool {
		return b.DriverID == driverID && b.Status == models.BookingActive && b.Range().Overlaps(tr)
	}), nil
}

func (r bookingRepo) Cancel(_ context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok || b.Status != models.BookingActive {
		return false, nil
	}
	b.Status = models.BookingCanceled
	return true, nil
}

func (r bookingRepo) DeleteCanceled(_ context.Context) (int64, error) {
	return r.delete(func(b *models.Booking) bool { return b.Status == models.BookingCanceled }), nil
}

func (r bookingRepo) DeleteCanceledBefore(_ context.Context, cutoff time.Time) (int64, error) {
	return r.delete(func(b *models.Booking) bool {
		return b.Status == models.BookingCanceled && b.StartTime.Before(cutoff)
	}), nil
}

func (r bookingRepo) delete(match func(*models.Booking) bool) int64 {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, b := range r.s.bookings {
		if match(b) {
			delete(r.s.bookings, id)
			n++
		}
	}
	return n
}

func (r bookingRepo) filter(match func(*models.Booking) bool) []*models.Booking {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Booking
	for _, b := range r.s.bookings {
		if match(b) {
			out = append(out, r.s.enrich(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

// enrich copies b and fills the joined display columns. Caller holds mu.
func (s *Store) enrich(b *models.Booking) *models.Booking {
	cp := *b
	if u, ok := s.users[b.UserID]; ok {
		cp.UserName, cp.Username = u.Name, u.Username
	}
	if d, ok := s.drivers[b.DriverID]; ok {
		cp.DriverName = d.Name
	}
	return &cp
}
