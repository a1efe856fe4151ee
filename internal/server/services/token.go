// Package services contains server-side business logic. This file implements
// TokenService, which issues, validates, and revokes member access tokens and
// handles the encrypted payload protocol used by cards and QR codes.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/Naimehossein77/gym-nfc/internal/common"
	"github.com/Naimehossein77/gym-nfc/internal/cryptox"
	"github.com/Naimehossein77/gym-nfc/internal/dbx"
	"github.com/Naimehossein77/gym-nfc/internal/server/models"
	"github.com/Naimehossein77/gym-nfc/internal/server/repositories/repomanager"
)

// PayloadResult is the outcome of validating an encrypted card/QR payload.
// Reason is one of expired, not_found, mismatched, invalid, malformed and
// is empty when Valid is true.
type PayloadResult struct {
	Valid    bool   `json:"valid"`
	Reason   string `json:"reason,omitempty"`
	MemberID int64  `json:"member_id,omitempty"`
}

// TokenService provides token lifecycle operations:
// - Generate: mint a unique token for a member, with optional expiry
// - Get / IsValid / ListForMember: lookups against the store
// - Revoke: soft-deactivate a token
// - CleanupExpired: sweep tokens whose expiry has passed
// - ValidatePayload: decrypt and verify an encrypted payload end to end
type TokenService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codec       *cryptox.Codec
	now         func() time.Time
}

// NewTokenService constructs a TokenService. codec may be disabled
// (no payload key configured); Generate then omits encrypted payloads
// and ValidatePayload returns common.ErrNoPayloadKey.
func NewTokenService(db *sql.DB, m repomanager.RepositoryManager, codec *cryptox.Codec) *TokenService {
	return &TokenService{
		db:          db,
		repomanager: m,
		codec:       codec,
		now:         time.Now,
	}
}

// Generate creates a new active token for memberID. When ttlDays is non-nil
// the token expires that many days from now; nil means no expiry. Identifier
// collisions are retried a bounded number of times before giving up.
func (s *TokenService) Generate(ctx context.Context, memberID int64, ttlDays *int) (*models.IssuedToken, error) {
	memberRepo := s.repomanager.Members(s.db)
	member, err := memberRepo.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrMemberNotFound
		}
		return nil, fmt.Errorf("error looking up member: %w", err)
	}
	if member.Status != models.MemberStatusActive {
		return nil, fmt.Errorf("%w: %s", common.ErrMemberInactive, member.Status)
	}

	var expiresAt *time.Time
	if ttlDays != nil {
		t := s.now().Add(time.Duration(*ttlDays) * 24 * time.Hour)
		expiresAt = &t
	}

	repo := s.repomanager.Tokens(s.db)

	var created *models.Token
	// Collisions over a 62^32 space are vanishingly rare; three attempts
	// is plenty before treating it as a real fault.
	backoff := retry.WithMaxRetries(2, retry.NewConstant(10*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		value, err := common.MakeRandString(common.DefaultTokenLength)
		if err != nil {
			return fmt.Errorf("error generating token: %w", err)
		}
		created, err = repo.Create(ctx, &models.Token{
			Token:     value,
			MemberID:  memberID,
			IsActive:  true,
			ExpiresAt: expiresAt,
		})
		if errors.Is(err, common.ErrDuplicateToken) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error creating token: %w", err)
	}

	issued := &models.IssuedToken{Token: created}
	if s.codec.Enabled() {
		var exp *int64
		if created.ExpiresAt != nil {
			e := created.ExpiresAt.Unix()
			exp = &e
		}
		payload, err := s.codec.Encode(&cryptox.Envelope{
			Token:    created.Token,
			MemberID: created.MemberID,
			Exp:      exp,
		})
		if err != nil {
			return nil, fmt.Errorf("error encoding payload: %w", err)
		}
		issued.EncryptedPayload = payload
	}
	return issued, nil
}

// Get returns the active token row for the given opaque string.
// Absent or revoked tokens yield common.ErrorNotFound.
func (s *TokenService) Get(ctx context.Context, token string) (*models.Token, error) {
	repo := s.repomanager.Tokens(s.db)
	return repo.FindActive(ctx, token)
}

// IsValid reports whether the token exists, is active, and has not expired.
// The expiry check is recomputed against the wall clock on every call.
func (s *TokenService) IsValid(ctx context.Context, token string) (bool, error) {
	repo := s.repomanager.Tokens(s.db)
	t, err := repo.FindActive(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	return t.Valid(s.now()), nil
}

// ListForMember returns all active tokens owned by memberID.
func (s *TokenService) ListForMember(ctx context.Context, memberID int64) ([]*models.Token, error) {
	repo := s.repomanager.Tokens(s.db)
	return repo.ListActiveByMember(ctx, memberID)
}

// Revoke deactivates a token. Returns false when the token does not exist
// or was already revoked; revoking twice is not an error.
func (s *TokenService) Revoke(ctx context.Context, token string) (bool, error) {
	repo := s.repomanager.Tokens(s.db)
	return repo.Deactivate(ctx, token)
}

// CleanupExpired deactivates every active token whose expiry has passed
// and returns the number of rows affected. Runs in a transaction so a
// partial sweep is never observable.
func (s *TokenService) CleanupExpired(ctx context.Context) (int64, error) {
	var count int64
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.Tokens(tx)
		var err error
		count, err = repoTx.DeactivateExpired(ctx, s.now())
		return err
	}); err != nil {
		return 0, fmt.Errorf("error cleaning up tokens: %w", err)
	}
	return count, nil
}

// ValidatePayload decrypts an encrypted card/QR payload and verifies it
// against the store: envelope expiry first, then token existence, member
// ownership, and finally the stored token's own validity. A disabled codec
// yields common.ErrNoPayloadKey; every other failure mode is reported in
// the result rather than as an error.
func (s *TokenService) ValidatePayload(ctx context.Context, payload string) (*PayloadResult, error) {
	if !s.codec.Enabled() {
		return nil, common.ErrNoPayloadKey
	}

	env, err := s.codec.Decode(payload)
	if err != nil {
		if errors.Is(err, common.ErrMalformedPayload) {
			return &PayloadResult{Valid: false, Reason: "malformed"}, nil
		}
		return nil, err
	}

	if env.Exp != nil && time.Unix(*env.Exp, 0).Before(s.now()) {
		return &PayloadResult{Valid: false, Reason: "expired"}, nil
	}

	repo := s.repomanager.Tokens(s.db)
	t, err := repo.FindActive(ctx, env.Token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return &PayloadResult{Valid: false, Reason: "not_found"}, nil
		}
		return nil, err
	}

	if t.MemberID != env.MemberID {
		return &PayloadResult{Valid: false, Reason: "mismatched"}, nil
	}

	if !t.Valid(s.now()) {
		return &PayloadResult{Valid: false, Reason: "invalid"}, nil
	}

	return &PayloadResult{Valid: true, MemberID: t.MemberID}, nil
}
