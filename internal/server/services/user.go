package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Naimehossein77/gym-nfc/internal/common"
	"github.com/Naimehossein77/gym-nfc/internal/server/auth"
	"github.com/Naimehossein77/gym-nfc/internal/server/config"
	"github.com/Naimehossein77/gym-nfc/internal/server/models"
	"github.com/Naimehossein77/gym-nfc/internal/server/repositories/repomanager"
)

// UserService handles staff account registration and login. Successful
// logins mint an HS256 access token carrying the username and role.
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.JWTSecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// Register creates a new staff account with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, username, password, role string) (*models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}
	user := &models.User{Username: username, PasswordHash: hash, Role: role, IsActive: true}
	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// EnsureAccount seeds a default account at startup so a fresh database has
// a working login. A no-op when the username already exists or the password
// is empty (seeding disabled).
func (s *UserService) EnsureAccount(ctx context.Context, username, password, role string) (created bool, err error) {
	if password == "" {
		return false, nil
	}
	repo := s.repomanager.Users(s.db)
	_, err = repo.GetByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return false, fmt.Errorf("error looking up account %q: %w", username, err)
	}
	if _, err := s.Register(ctx, username, password, role); err != nil {
		return false, err
	}
	return true, nil
}

// Login verifies the credentials and returns a signed access token.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", common.ErrorInternal
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return "", common.ErrorUnauthorized
	}
	token, err := auth.GenerateToken(user.Username, user.Role, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}
