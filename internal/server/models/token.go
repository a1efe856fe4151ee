// Package models defines the persisted entities of the gym access system.
package models

import "time"

// Token is a persisted access token row. Rows are soft-deactivated, never
// deleted: revocation and expiry cleanup flip IsActive, preserving audit
// history.
type Token struct {
	ID        int64
	Token     string
	MemberID  int64
	IsActive  bool
	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Valid reports whether the token authorizes access at the given instant.
// Expiry is always computed against now, never cached.
func (t *Token) Valid(now time.Time) bool {
	if !t.IsActive {
		return false
	}
	if t.ExpiresAt != nil && !now.Before(*t.ExpiresAt) {
		return false
	}
	return true
}

// IssuedToken is returned on generation: the stored record plus the
// optional encrypted payload for offline (QR/NFC) verification. The
// payload is empty when no payload key is configured.
type IssuedToken struct {
	*Token
	EncryptedPayload string
}
