package services

import (
	"context"
	"time"

	"github.com/yoockh/yooassist/internal/models"
	mongorepo "github.com/yoockh/yooassist/internal/repositories/mongo"
	"github.com/yoockh/yooassist/internal/utils"
)

type UserService interface {
	Touch(ctx context.Context, userID string) error
	Get(ctx context.Context, userID string) (*models.User, error)
}

type userService struct {
	users mongorepo.UserRepository
	now   func() time.Time
}

func NewUserService(users mongorepo.UserRepository) UserService {
	return &userService{users: users, now: time.Now}
}

func (s *userService) Touch(ctx context.Context, userID string) error {
	const op = "UserService.Touch"

	if userID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if err := s.users.Touch(ctx, userID, s.now().UTC()); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to record user activity", err)
	}
	return nil
}

func (s *userService) Get(ctx context.Context, userID string) (*models.User, error) {
	const op = "UserService.Get"

	u, err := s.users.Get(ctx, userID)
	if err != nil {
		if utils.CodeOf(err) == utils.CodeNotFound {
			return nil, utils.E(utils.CodeNotFound, op, "user not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load user", err)
	}
	return u, nil
}
