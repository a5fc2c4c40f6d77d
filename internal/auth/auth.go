package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Lixing-Zhang/restaurant-pos/internal/models"
	"github.com/Lixing-Zhang/restaurant-pos/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrProfileMissing     = errors.New("user profile is missing or has no role")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrBlankCredential    = errors.New("username and password are required")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
)

// maxPasswordBytes is the longest input bcrypt hashes
const maxPasswordBytes = 72

// UserRepository is the storage the service authenticates against
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.UserRecord, error)
	Create(ctx context.Context, user models.UserRecord) error
}

// Service verifies credentials and registers staff accounts
type Service struct {
	users  UserRepository
	cost   int
	logger *slog.Logger
}

// NewService creates an auth service hashing with the given bcrypt cost
func NewService(users UserRepository, cost int, logger *slog.Logger) *Service {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Service{users: users, cost: cost, logger: logger}
}

// SignIn checks the credential and returns the identity with its role
func (s *Service) SignIn(ctx context.Context, cred models.Credential) (models.Identity, error) {
	if cred.Blank() {
		return models.Identity{}, ErrBlankCredential
	}

	rec, err := s.users.GetByUsername(ctx, strings.TrimSpace(cred.Username))
	if errors.Is(err, repository.ErrUserNotFound) {
		return models.Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.Identity{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(cred.Password)); err != nil {
		s.logger.Info("sign in rejected", "username", rec.Username)
		return models.Identity{}, ErrInvalidCredentials
	}

	if !rec.Role.Valid() {
		s.logger.Warn("user has no valid role", "user_id", rec.ID, "role", rec.Role)
		return models.Identity{}, ErrProfileMissing
	}

	return identityOf(rec.User), nil
}

// SignUp registers a waiter account and signs it in
func (s *Service) SignUp(ctx context.Context, cred models.Credential) (models.Identity, error) {
	user, err := s.create(ctx, cred, models.RoleWaiter)
	if err != nil {
		return models.Identity{}, err
	}
	return identityOf(user), nil
}

// EnsureUser creates the account if the username is not registered yet.
// It is used to bootstrap the first admin.
func (s *Service) EnsureUser(ctx context.Context, cred models.Credential, role models.Role) error {
	_, err := s.create(ctx, cred, role)
	if errors.Is(err, ErrUsernameTaken) {
		return nil
	}
	return err
}

func (s *Service) create(ctx context.Context, cred models.Credential, role models.Role) (models.User, error) {
	if cred.Blank() {
		return models.User{}, ErrBlankCredential
	}
	if len(cred.Password) > maxPasswordBytes {
		return models.User{}, ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cred.Password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return models.User{}, ErrPasswordTooLong
	}
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	rec := models.UserRecord{
		User: models.User{
			ID:        uuid.New().String(),
			Username:  strings.TrimSpace(cred.Username),
			Role:      role,
			CreatedAt: time.Now().UTC(),
		},
		PasswordHash: string(hash),
	}

	if err := s.users.Create(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return models.User{}, ErrUsernameTaken
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", rec.ID, "username", rec.Username, "role", role)
	return rec.User, nil
}

func identityOf(u models.User) models.Identity {
	return models.Identity{ID: u.ID, DisplayName: u.Username, Role: u.Role}
}
