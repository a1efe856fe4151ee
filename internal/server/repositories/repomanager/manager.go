package repomanager

import (
	"context"
	"database/sql"

	"github.com/Naimehossein77/gym-nfc/internal/dbx"
	"github.com/Naimehossein77/gym-nfc/internal/server/repositories/members"
	"github.com/Naimehossein77/gym-nfc/internal/server/repositories/tokens"
	"github.com/Naimehossein77/gym-nfc/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Tokens(db dbx.DBTX) tokens.Repository
	Members(db dbx.DBTX) members.Repository
	Users(db dbx.DBTX) users.Repository
}
