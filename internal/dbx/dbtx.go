// Package dbx holds the database plumbing shared by the vault repositories:
// the DBTX handle satisfied by *sql.DB and *sql.Tx, transaction scoping and
// the sqlite/postgres dialect split.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is what a repository needs from a database handle.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Bind returns a handle that rewrites '?' placeholders for d before every
// call, so repositories write one query text for both dialects. Dialects
// that take '?' natively get db back unchanged.
func Bind(db DBTX, d Dialect) DBTX {
	if d != DialectPostgres {
		return db
	}
	if b, ok := db.(*boundDB); ok && b.dialect == d {
		return b
	}
	return &boundDB{db: db, dialect: d}
}

type boundDB struct {
	db      DBTX
	dialect Dialect
}

func (b *boundDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return b.db.ExecContext(ctx, b.dialect.Rebind(query), args...)
}

func (b *boundDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return b.db.QueryContext(ctx, b.dialect.Rebind(query), args...)
}

func (b *boundDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return b.db.QueryRowContext(ctx, b.dialect.Rebind(query), args...)
}

// WithTx runs fn inside a transaction on db. The transaction commits when fn
// returns nil and rolls back on an error or a panic; the panic is re-raised.
//
// On sqlite the store keeps a single open connection, so fn must use tx and
// never db, or it blocks on its own transaction.
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

	return fn(ctx, tx)
}
