package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"driverbook/pkg/logger"
	"driverbook/pkg/models"
	"driverbook/storage"
)

type inviteRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewInviteRepo(db *pgxpool.Pool, log logger.ILogger) storage.IInviteStorage {
	return &inviteRepo{db: db, log: log}
}

func (r *inviteRepo) Create(ctx context.Context, code string) (*models.Invite, error) {
	inv := models.Invite{Code: code}
	query := `INSERT INTO invites (code) VALUES ($1) RETURNING id, created_at`
	if err := r.db.QueryRow(ctx, query, code).Scan(&inv.ID, &inv.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, storage.ErrDuplicateInvite
		}
		r.log.Error("failed to create invite", logger.Error(err))
		return nil, classify(err)
	}
	return &inv, nil
}

func (r *inviteRepo) GetAll(ctx context.Context) ([]*models.Invite, error) {
	query := `SELECT id, code, is_used, used_by, used_at, created_at FROM invites ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var invites []*models.Invite
	for rows.Next() {
		var inv models.Invite
		if err := rows.Scan(&inv.ID, &inv.Code, &inv.IsUsed, &inv.UsedBy, &inv.UsedAt, &inv.CreatedAt); err != nil {
			return nil, err
		}
		invites = append(invites, &inv)
	}
	return invites, classify(rows.Err())
}

func (r *inviteRepo) Redeem(ctx context.Context, code string, user *models.User) (*models.User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, classify(err)
	}
	defer tx.Rollback(ctx)

	// The conditional update takes the row lock, so a racing redeem blocks
	// here and then sees is_used = true.
	var inviteID int64
	err = tx.QueryRow(ctx,
		`UPDATE invites SET is_used = TRUE, used_at = NOW() WHERE code = $1 AND NOT is_used RETURNING id`,
		code,
	).Scan(&inviteID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		r.log.Error("failed to redeem invite", logger.Error(err))
		return nil, classify(err)
	}

	u := *user
	err = tx.QueryRow(ctx, `
		INSERT INTO users (telegram_id, name, username, is_active)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (telegram_id) DO UPDATE SET is_active = TRUE
		RETURNING `+userColumns,
		u.TelegramID, u.Name, u.Username,
	).Scan(&u.ID, &u.TelegramID, &u.Name, &u.Username, &u.IsActive, &u.CreatedAt)
	if err != nil {
		r.log.Error("failed to register user", logger.Int64("telegram_id", u.TelegramID), logger.Error(err))
		return nil, classify(err)
	}

	if _, err = tx.Exec(ctx, `UPDATE invites SET used_by = $1 WHERE id = $2`, u.ID, inviteID); err != nil {
		return nil, classify(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, classify(err)
	}
	return &u, nil
}
