package sqlite

import (
	"context"
	"database/sql"

	"github.com/garyjia/trip-approval/pkg/database"
)

type txKey struct{}

// DB carries the open transaction in the context, so store helpers called
// inside InTx join it instead of starting their own.
type DB struct {
	conn *database.DB
}

// NewDB wraps an open database
func NewDB(conn *database.DB) *DB {
	return &DB{conn: conn}
}

// InTx runs fn in a transaction; a call nested in another InTx reuses it
func (db *DB) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}
	return db.conn.InTx(ctx, func(tx *sql.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// q returns the context's transaction, or the pool outside one
func (db *DB) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db.conn.DB
}

// querier is the subset of *sql.DB and *sql.Tx the store needs
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
