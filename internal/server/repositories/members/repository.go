// Package members declares the read-side repository for gym member rows.
// Member CRUD lives in the admin surface; the provisioning workflow only
// needs existence and status.
package members

import (
	"context"

	"github.com/Naimehossein77/gym-nfc/internal/server/models"
)

type Repository interface {
	// GetByID returns the member row, including soft-deleted ones so the
	// caller can report the actual status. Returns common.ErrorNotFound
	// when no row exists.
	GetByID(ctx context.Context, id int64) (*models.Member, error)
}
