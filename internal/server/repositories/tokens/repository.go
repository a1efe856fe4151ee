// Package tokens declares the repository contract for access token rows.
package tokens

import (
	"context"
	"time"

	"github.com/Naimehossein77/gym-nfc/internal/server/models"
)

// Repository defines persistence operations for access tokens. Tokens are
// soft-deactivated, never deleted; lookups that do not ask for history see
// active rows only.
type Repository interface {
	// Create inserts a new token row and returns it with the generated id
	// and timestamps. A collision on the token column returns
	// common.ErrDuplicateToken.
	Create(ctx context.Context, token *models.Token) (*models.Token, error)

	// FindActive looks up an active token by its opaque string.
	// Returns common.ErrorNotFound when absent or already deactivated.
	FindActive(ctx context.Context, token string) (*models.Token, error)

	// ListActiveByMember returns all active tokens owned by memberID,
	// in no particular order.
	ListActiveByMember(ctx context.Context, memberID int64) ([]*models.Token, error)

	// Deactivate flips is_active off for an active token. Returns false
	// when no active row matched (absent or already inactive).
	Deactivate(ctx context.Context, token string) (bool, error)

	// DeactivateExpired deactivates every active token whose expiry has
	// passed relative to now, in one pass, and returns the count.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}
