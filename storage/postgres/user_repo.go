package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"driverbook/pkg/logger"
	"driverbook/pkg/models"
	"driverbook/storage"
)

const userColumns = `id, telegram_id, name, username, is_active, created_at`

type userRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewUserRepo(db *pgxpool.Pool, log logger.ILogger) storage.IUserStorage {
	return &userRepo{db: db, log: log}
}

func (r *userRepo) Get(ctx context.Context, teleID int64) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`
	err := r.db.QueryRow(ctx, query, teleID).Scan(
		&user.ID, &user.TelegramID, &user.Name, &user.Username, &user.IsActive, &user.CreatedAt,
	)
	if err != nil {
		err = classify(err)
		if err != storage.ErrNotFound {
			r.log.Error("failed to get user", logger.Int64("telegram_id", teleID), logger.Error(err))
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.TelegramID, &user.Name, &user.Username, &user.IsActive, &user.CreatedAt,
	)
	if err != nil {
		err = classify(err)
		if err != storage.ErrNotFound {
			r.log.Error("failed to get user by id", logger.Int64("id", id), logger.Error(err))
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.Exec(ctx, "UPDATE users SET is_active = $1 WHERE id = $2", active, id)
	if err != nil {
		r.log.Error("failed to update user status", logger.Int64("id", id), logger.Error(err))
		return classify(err)
	}
	if res.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
