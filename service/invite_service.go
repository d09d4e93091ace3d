package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"driverbook/pkg/logger"
	"driverbook/pkg/models"
	"driverbook/storage"
)

const generatedCodeLen = 8

type InviteService interface {
	// Create stores code, or a generated one when code is blank.
	// storage.ErrDuplicateInvite if it already exists.
	Create(ctx context.Context, code string) (*models.Invite, error)
	// Ensure creates code unless it already exists, used or not.
	Ensure(ctx context.Context, code string) error
	List(ctx context.Context) ([]*models.Invite, error)
	// Redeem consumes code and registers candidate atomically. ok is false
	// when the code is unknown or already used.
	Redeem(ctx context.Context, code string, candidate *models.User) (user *models.User, ok bool, err error)
}

type inviteService struct {
	stg   storage.IInviteStorage
	log   logger.ILogger
	retry retrier
	// newCode is swapped in tests.
	newCode func() string
}

func newInviteService(stg storage.IStorage, log logger.ILogger, r retrier) InviteService {
	return &inviteService{
		stg:     stg.Invite(),
		log:     log,
		retry:   r,
		newCode: generateCode,
	}
}

func generateCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:generatedCodeLen])
}

func (s *inviteService) Create(ctx context.Context, code string) (*models.Invite, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		code = s.newCode()
	}
	inv, err := s.stg.Create(ctx, code)
	if err != nil {
		return nil, err
	}
	s.log.Info("invite created", logger.Int64("invite_id", inv.ID))
	return inv, nil
}

func (s *inviteService) Ensure(ctx context.Context, code string) error {
	_, err := s.Create(ctx, code)
	if errors.Is(err, storage.ErrDuplicateInvite) {
		return nil
	}
	return err
}

func (s *inviteService) List(ctx context.Context) ([]*models.Invite, error) {
	return do(ctx, s.retry, "invite.list", func() ([]*models.Invite, error) {
		return s.stg.GetAll(ctx)
	})
}

func (s *inviteService) Redeem(ctx context.Context, code string, candidate *models.User) (*models.User, bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		inviteRedeem.WithLabelValues("rejected").Inc()
		return nil, false, nil
	}

	u, err := do(ctx, s.retry, "invite.redeem", func() (*models.User, error) {
		return s.stg.Redeem(ctx, code, candidate)
	})
	switch {
	case errors.Is(err, storage.ErrNotFound):
		inviteRedeem.WithLabelValues("rejected").Inc()
		return nil, false, nil
	case err != nil:
		inviteRedeem.WithLabelValues("error").Inc()
		return nil, false, err
	}

	inviteRedeem.WithLabelValues("accepted").Inc()
	s.log.Info("invite redeemed", logger.Int64("user_id", u.ID), logger.Int64("telegram_id", u.TelegramID))
	return u, true, nil
}
