// Package users provides the repository for staff accounts used to
// authenticate against the HTTP API.
package users

import (
	"context"

	"github.com/Naimehossein77/gym-nfc/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByUsername returns the active account with the given username.
	// Implementations should return common.ErrorNotFound when absent.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}
