// Package dbx holds the small database plumbing shared by the token,
// member, and user repositories: the DBTX interface satisfied by both
// *sql.DB and *sql.Tx, and a transaction wrapper.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the query surface repositories depend on. Passing *sql.DB runs
// statements directly; passing *sql.Tx scopes them to that transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction: commit when fn returns nil, rollback
// when it returns an error or panics. Panics are rethrown after rollback.
// The expired-token sweep uses this to keep its select-and-deactivate pair
// atomic:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    count, err = m.Tokens(tx).DeactivateExpired(ctx, now)
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
