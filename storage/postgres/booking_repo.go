package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"driverbook/pkg/logger"
	"driverbook/pkg/models"
	"driverbook/storage"
)

const bookingSelect = `
	SELECT b.id, b.driver_id, b.user_id, b.booking_time, b.end_time, b.notes, b.status, b.created_at,
	       COALESCE(u.name, ''), COALESCE(u.username, ''), COALESCE(d.name, '')
	FROM bookings b
	LEFT JOIN users u ON u.id = b.user_id
	LEFT JOIN drivers d ON d.id = b.driver_id
`

type bookingRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewBookingRepo(db *pgxpool.Pool, log logger.ILogger) storage.IBookingStorage {
	return &bookingRepo{db: db, log: log}
}

func (r *bookingRepo) InsertIfFree(ctx context.Context, b *models.Booking) (*models.Booking, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, classify(err)
	}
	defer tx.Rollback(ctx)

	// Locking the driver row serializes every insert for that driver. Under
	// read committed the overlap query below then sees all prior commits.
	var driverID int64
	err = tx.QueryRow(ctx, `SELECT id FROM drivers WHERE id = $1 AND is_active FOR UPDATE`, b.DriverID).Scan(&driverID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		r.log.Error("failed to lock driver", logger.Int64("driver_id", b.DriverID), logger.Error(err))
		return nil, classify(err)
	}

	var taken bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM bookings
			WHERE driver_id = $1
			  AND status = 'active'
			  AND booking_time < $3
			  AND end_time > $2
		)`, b.DriverID, b.StartTime, b.EndTime,
	).Scan(&taken)
	if err != nil {
		r.log.Error("failed to check overlap", logger.Int64("driver_id", b.DriverID), logger.Error(err))
		return nil, classify(err)
	}
	if taken {
		return nil, storage.ErrConflict
	}

	out := *b
	out.Status = models.BookingActive
	err = tx.QueryRow(ctx, `
		INSERT INTO bookings (driver_id, user_id, booking_time, end_time, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		out.DriverID, out.UserID, out.StartTime, out.EndTime, out.Notes, out.Status,
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		r.log.Error("failed to create booking", logger.Error(err))
		return nil, classify(err)
	}

	err = tx.QueryRow(ctx, `
		SELECT COALESCE(u.name, ''), COALESCE(u.username, ''), d.name
		FROM drivers d LEFT JOIN users u ON u.id = $2
		WHERE d.id = $1`, out.DriverID, out.UserID,
	).Scan(&out.UserName, &out.Username, &out.DriverName)
	if err != nil {
		return nil, classify(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, classify(err)
	}
	return &out, nil
}

func (r *bookingRepo) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	list, err := r.scanBookings(ctx, bookingSelect+` WHERE b.id = $1`, id)
	if err != nil {
		r.log.Error("failed to get booking by id", logger.Int64("id", id), logger.Error(err))
		return nil, err
	}
	if len(list) == 0 {
		return nil, storage.ErrNotFound
	}
	return list[0], nil
}

func (r *bookingRepo) GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	return r.scanBookings(ctx, bookingSelect+`
		WHERE b.user_id = $1
		ORDER BY b.booking_time ASC, b.id ASC`, userID)
}

func (r *bookingRepo) GetActive(ctx context.Context) ([]*models.Booking, error) {
	return r.scanBookings(ctx, bookingSelect+`
		WHERE b.status = 'active'
		ORDER BY b.booking_time ASC, b.id ASC`)
}

func (r *bookingRepo) GetDriverActiveInRange(ctx context.Context, driverID int64, tr models.TimeRange) ([]*models.Booking, error) {
	return r.scanBookings(ctx, bookingSelect+`
		WHERE b.driver_id = $1
		  AND b.status = 'active'
		  AND b.booking_time < $3
		  AND b.end_time > $2
		ORDER BY b.booking_time ASC`, driverID, tr.Start, tr.End)
}

func (r *bookingRepo) scanBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		var b models.Booking
		err := rows.Scan(
			&b.ID, &b.DriverID, &b.UserID, &b.StartTime, &b.EndTime, &b.Notes, &b.Status, &b.CreatedAt,
			&b.UserName, &b.Username, &b.DriverName,
		)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, &b)
	}
	return bookings, classify(rows.Err())
}

func (r *bookingRepo) Cancel(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.Exec(ctx, "UPDATE bookings SET status = 'canceled' WHERE id = $1 AND status = 'active'", id)
	if err != nil {
		r.log.Error("failed to cancel booking", logger.Int64("id", id), logger.Error(err))
		return false, classify(err)
	}
	return res.RowsAffected() == 1, nil
}

func (r *bookingRepo) DeleteCanceled(ctx context.Context) (int64, error) {
	return r.deleteInTx(ctx, "DELETE FROM bookings WHERE status = 'canceled'")
}

func (r *bookingRepo) DeleteCanceledBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.deleteInTx(ctx, "DELETE FROM bookings WHERE status = 'canceled' AND booking_time < $1", cutoff)
}

func (r *bookingRepo) deleteInTx(ctx context.Context, query string, args ...interface{}) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, classify(err)
	}
	defer tx.Rollback(ctx)

	res, err := tx.Exec(ctx, query, args...)
	if err != nil {
		r.log.Error("failed to delete canceled bookings", logger.Error(err))
		return 0, classify(err)
	}
	if err = tx.Commit(ctx); err != nil {
		return 0, classify(err)
	}
	return res.RowsAffected(), nil
}
