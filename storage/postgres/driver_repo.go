package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"driverbook/pkg/logger"
	"driverbook/pkg/models"
	"driverbook/storage"
)

type driverRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewDriverRepo(db *pgxpool.Pool, log logger.ILogger) storage.IDriverStorage {
	return &driverRepo{db: db, log: log}
}

func (r *driverRepo) Create(ctx context.Context, name, phone string) (*models.Driver, error) {
	d := models.Driver{Name: name, Phone: phone, IsActive: true}
	query := `INSERT INTO drivers (name, phone) VALUES ($1, $2) RETURNING id, created_at`
	if err := r.db.QueryRow(ctx, query, name, phone).Scan(&d.ID, &d.CreatedAt); err != nil {
		r.log.Error("failed to create driver", logger.Error(err))
		return nil, classify(err)
	}
	return &d, nil
}

func (r *driverRepo) GetByID(ctx context.Context, id int64) (*models.Driver, error) {
	var d models.Driver
	query := `SELECT id, name, phone, is_active, created_at FROM drivers WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(&d.ID, &d.Name, &d.Phone, &d.IsActive, &d.CreatedAt)
	if err != nil {
		err = classify(err)
		if err != storage.ErrNotFound {
			r.log.Error("failed to get driver", logger.Int64("id", id), logger.Error(err))
		}
		return nil, err
	}
	return &d, nil
}

func (r *driverRepo) GetActive(ctx context.Context) ([]*models.Driver, error) {
	query := `SELECT id, name, phone, is_active, created_at FROM drivers WHERE is_active ORDER BY id ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var drivers []*models.Driver
	for rows.Next() {
		var d models.Driver
		if err := rows.Scan(&d.ID, &d.Name, &d.Phone, &d.IsActive, &d.CreatedAt); err != nil {
			return nil, err
		}
		drivers = append(drivers, &d)
	}
	return drivers, classify(rows.Err())
}
