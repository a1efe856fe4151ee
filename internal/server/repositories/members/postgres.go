package members

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Naimehossein77/gym-nfc/internal/common"
	"github.com/Naimehossein77/gym-nfc/internal/dbx"
	"github.com/Naimehossein77/gym-nfc/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Member, error) {
	query := `
		SELECT id, name, email, COALESCE(phone, ''), membership_type, status, created_at, updated_at
		FROM members
		WHERE id = $1
	`
	m := &models.Member{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.MembershipType, &m.Status, &m.CreatedAt, &m.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return m, nil
}
