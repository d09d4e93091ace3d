package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"driverbook/config"
	"driverbook/pkg/logger"
	"driverbook/storage"
)

type Store struct {
	pool *pgxpool.Pool
	log  logger.ILogger
}

func New(ctx context.Context, cfg config.Config, log logger.ILogger) (*Store, error) {
	url := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.PostgresUser,
		cfg.PostgresPassword,
		cfg.PostgresHost,
		cfg.PostgresPort,
		cfg.PostgresDB,
	)

	cwd, _ := os.Getwd()
	mPath := filepath.Join(cwd, "migrations")
	if _, err := os.Stat(filepath.Join(cwd, "migrations", "postgres")); err == nil {
		mPath = filepath.Join(cwd, "migrations", "postgres")
	}

	return Connect(ctx, url, mPath, log)
}

// Connect opens the pool and applies migrations from mPath when present.
func Connect(ctx context.Context, url, mPath string, log logger.ILogger) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		log.Error("error while parsing Postgres config", logger.Error(err))
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Error("failed to connect Postgres", logger.Error(err))
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		log.Error("failed to ping Postgres", logger.Error(err))
		return nil, classify(err)
	}

	m, err := migrate.New("file://"+mPath, url)
	if err != nil {
		log.Error("migration init error or no migrations found", logger.Error(err))
	} else {
		defer m.Close()
		if err = m.Up(); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				log.Info("no migrations to apply")
			} else {
				pool.Close()
				log.Error("migration up error", logger.Error(err))
				return nil, err
			}
		}
	}

	log.Info("Postgres connected")

	return &Store{
		pool: pool,
		log:  log,
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Reset truncates everything except drivers.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "TRUNCATE TABLE bookings, invites, users RESTART IDENTITY CASCADE")
	return err
}

func (s *Store) User() storage.IUserStorage       { return NewUserRepo(s.pool, s.log) }
func (s *Store) Driver() storage.IDriverStorage   { return NewDriverRepo(s.pool, s.log) }
func (s *Store) Invite() storage.IInviteStorage   { return NewInviteRepo(s.pool, s.log) }
func (s *Store) Booking() storage.IBookingStorage { return NewBookingRepo(s.pool, s.log) }
