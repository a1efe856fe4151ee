package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Naimehossein77/gym-nfc/internal/common"
	"github.com/Naimehossein77/gym-nfc/internal/nfc"
	"github.com/Naimehossein77/gym-nfc/internal/server/models"
	"github.com/Naimehossein77/gym-nfc/internal/server/repositories/repomanager"
)

// CardGateway is the slice of the NFC reader the provisioning workflow
// needs. Satisfied by *nfc.Reader.
type CardGateway interface {
	Write(ctx context.Context, token string, memberID int64, timeout time.Duration) nfc.WriteResult
}

// ProvisionService drives the card provisioning workflow: verify the token
// and member, then hand the write to the hardware gateway. Verification
// failures surface as sentinel errors before any hardware is touched.
type ProvisionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	gateway     CardGateway
	now         func() time.Time
}

// NewProvisionService constructs a ProvisionService over the given gateway.
func NewProvisionService(db *sql.DB, m repomanager.RepositoryManager, gateway CardGateway) *ProvisionService {
	return &ProvisionService{
		db:          db,
		repomanager: m,
		gateway:     gateway,
		now:         time.Now,
	}
}

// Provision writes token onto a card for memberID after checking, in order:
// the token exists and is active, it has not expired, it belongs to the
// member, the member exists, and the member is active. Only then is the
// card written. A panicking or otherwise failing gateway is reported as
// common.ErrOperationFailed; a card timeout is a failed WriteResult, not
// an error.
func (s *ProvisionService) Provision(ctx context.Context, token string, memberID int64, timeout time.Duration) (*nfc.WriteResult, error) {
	tokenRepo := s.repomanager.Tokens(s.db)

	t, err := tokenRepo.FindActive(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrTokenNotFound
		}
		return nil, fmt.Errorf("error looking up token: %w", err)
	}
	if !t.Valid(s.now()) {
		return nil, common.ErrTokenInvalid
	}
	if t.MemberID != memberID {
		return nil, common.ErrOwnershipMismatch
	}

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

	result, err := s.writeCard(ctx, token, memberID, timeout)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// writeCard isolates the gateway call so a panicking driver cannot take
// down the request.
func (s *ProvisionService) writeCard(ctx context.Context, token string, memberID int64, timeout time.Duration) (result *nfc.WriteResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %v", common.ErrOperationFailed, r)
		}
	}()
	res := s.gateway.Write(ctx, token, memberID, timeout)
	return &res, nil
}
