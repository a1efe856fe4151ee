package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Naimehossein77/gym-nfc/internal/common"
	"github.com/Naimehossein77/gym-nfc/internal/dbx"
	"github.com/Naimehossein77/gym-nfc/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL error code for unique constraint hits.
const uniqueViolation = "23505"

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, token *models.Token) (*models.Token, error) {
	query := `
		INSERT INTO tokens (token, member_id, is_active, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		token.Token, token.MemberID, token.IsActive, token.ExpiresAt).
		Scan(&token.ID, &token.CreatedAt, &token.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrDuplicateToken
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return token, nil
}

func (r *PostgresRepository) FindActive(ctx context.Context, token string) (*models.Token, error) {
	query := `
		SELECT id, token, member_id, is_active, expires_at, created_at, updated_at
		FROM tokens
		WHERE token = $1 AND is_active
	`
	rec := &models.Token{}
	err := r.db.QueryRowContext(ctx, query, token).
		Scan(&rec.ID, &rec.Token, &rec.MemberID, &rec.IsActive, &rec.ExpiresAt, &rec.CreatedAt, &rec.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return rec, nil
}

func (r *PostgresRepository) ListActiveByMember(ctx context.Context, memberID int64) ([]*models.Token, error) {
	query := `
		SELECT id, token, member_id, is_active, expires_at, created_at, updated_at
		FROM tokens
		WHERE member_id = $1 AND is_active
	`
	rows, err := r.db.QueryContext(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Token
	for rows.Next() {
		rec := &models.Token{}
		if err := rows.Scan(&rec.ID, &rec.Token, &rec.MemberID, &rec.IsActive, &rec.ExpiresAt, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Deactivate(ctx context.Context, token string) (bool, error) {
	query := `
		UPDATE tokens
		SET is_active = FALSE, updated_at = now()
		WHERE token = $1 AND is_active
	`
	res, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return affected > 0, nil
}

func (r *PostgresRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE tokens
		SET is_active = FALSE, updated_at = now()
		WHERE is_active AND expires_at IS NOT NULL AND expires_at < $1
	`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return affected, nil
}
