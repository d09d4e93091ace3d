package service

import (
	"context"

	"driverbook/pkg/logger"
	"driverbook/pkg/models"
	"driverbook/storage"
)

type UserService interface {
	// Get returns storage.ErrNotFound for chat users that never redeemed an invite.
	Get(ctx context.Context, teleID int64) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

type userService struct {
	stg   storage.IUserStorage
	log   logger.ILogger
	retry retrier
}

func newUserService(stg storage.IStorage, log logger.ILogger, r retrier) UserService {
	return &userService{
		stg:   stg.User(),
		log:   log,
		retry: r,
	}
}

func (s *userService) Get(ctx context.Context, teleID int64) (*models.User, error) {
	return do(ctx, s.retry, "user.get", func() (*models.User, error) {
		return s.stg.Get(ctx, teleID)
	})
}

func (s *userService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return do(ctx, s.retry, "user.get_by_id", func() (*models.User, error) {
		return s.stg.GetByID(ctx, id)
	})
}

func (s *userService) SetActive(ctx context.Context, id int64, active bool) error {
	_, err := do(ctx, s.retry, "user.set_active", func() (struct{}, error) {
		return struct{}{}, s.stg.SetActive(ctx, id, active)
	})
	return err
}
