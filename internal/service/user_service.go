package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Lixing-Zhang/restaurant-pos/internal/models"
	"github.com/Lixing-Zhang/restaurant-pos/internal/notify"
	"github.com/Lixing-Zhang/restaurant-pos/internal/repository"
)

// UserService handles staff account management
type UserService struct {
	users     repository.UserRepository
	publisher notify.Publisher
	logger    *slog.Logger
}

// NewUserService creates a new user service
func NewUserService(users repository.UserRepository, publisher notify.Publisher, logger *slog.Logger) *UserService {
	return &UserService{users: users, publisher: publisher, logger: logger}
}

// ListUsers returns all staff accounts
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// ChangeRole assigns a new role to a user
func (s *UserService) ChangeRole(ctx context.Context, id string, role models.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	if err := s.users.UpdateRole(ctx, id, role); err != nil {
		return fmt.Errorf("update role of user %s: %w", id, err)
	}

	s.logger.Info("user role changed", "user_id", id, "role", role)
	announce(ctx, s.publisher, s.logger, notify.NewChange(notify.EntityUsers, id))
	return nil
}
