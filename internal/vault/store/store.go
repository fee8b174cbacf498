// Package store opens the vault database, applies the embedded goose
// migrations for its dialect and vends the repositories bound to it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/dripvault/internal/dbx"
	"github.com/dmitrijs2005/dripvault/internal/vault/migrations"
	"github.com/dmitrijs2005/dripvault/internal/vault/repositories/cycle"
	"github.com/dmitrijs2005/dripvault/internal/vault/repositories/media"
	"github.com/dmitrijs2005/dripvault/internal/vault/repositories/metadata"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)"

// Store is the persistent store: one database holding the secret store
// (metadata), the media catalog and the cycle state.
type Store struct {
	DB      *sql.DB
	Dialect dbx.Dialect

	Metadata metadata.Repository
	Media    media.Repository
	Cycle    cycle.Repository
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Open connects to dsn and migrates the schema. A postgres:// URL selects
// PostgreSQL through pgx, anything else is treated as a SQLite file path.
func Open(ctx context.Context, dsn string) (*Store, error) {
	dialect := dbx.DialectFromDSN(dsn)

	connStr := dsn
	if dialect == dbx.DialectSQLite {
		connStr = sqliteDSN(dsn)
	}

	db, err := sql.Open(dialect.DriverName(), connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dialect == dbx.DialectSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return New(db, dialect), nil
}

// New wraps an already migrated database.
func New(db *sql.DB, dialect dbx.Dialect) *Store {
	return &Store{
		DB:       db,
		Dialect:  dialect,
		Metadata: metadata.NewSQLRepository(db, dialect),
		Media:    media.NewSQLRepository(db, dialect),
		Cycle:    cycle.NewSQLRepository(db, dialect),
	}
}

// RunMigrations applies the embedded migrations for dialect.
func RunMigrations(ctx context.Context, db *sql.DB, dialect dbx.Dialect) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(string(dialect)); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	dir := "sqlite"
	if dialect == dbx.DialectPostgres {
		dir = "postgres"
	}
	return gooseUpContext(ctx, db, dir)
}

// WithTx runs fn with a Store whose repositories share one transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx *Store) error) error {
	return dbx.WithTx(ctx, s.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &Store{
			DB:       s.DB,
			Dialect:  s.Dialect,
			Metadata: metadata.NewSQLRepository(tx, s.Dialect),
			Media:    media.NewSQLRepository(tx, s.Dialect),
			Cycle:    cycle.NewSQLRepository(tx, s.Dialect),
		})
	})
}

func (s *Store) Close() error {
	return s.DB.Close()
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "_pragma=") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + sqlitePragmas
}
