package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/dripvault/internal/common"
	"github.com/dmitrijs2005/dripvault/internal/dbx"
	"github.com/dmitrijs2005/dripvault/internal/vault/models"
)

const selectColumns = `id, imported_at, blob_ref, nonce, thumb_ref, viewed_at, meta, meta_nonce`

// SQLRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLRepository struct {
	db dbx.DBTX
}

// NewSQLRepository returns a new SQLRepository bound to the given DBTX.
func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: dbx.Bind(db, dialect)}
}

func (r *SQLRepository) Insert(ctx context.Context, m *models.MediaRow) error {
	query := `INSERT INTO media (id, imported_at, blob_ref, nonce, thumb_ref, viewed_at, meta, meta_nonce)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.ImportedAt.UnixMilli(), m.BlobRef, m.Nonce, m.ThumbRef, toNullMillis(m.ViewedAt), m.Meta, m.MetaNonce)
	if err != nil {
		return fmt.Errorf("failed to insert media: %w", err)
	}
	return nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.MediaRow, error) {
	query := `SELECT ` + selectColumns + ` FROM media WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	m, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("media %s: %w", id, common.ErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return m, nil
}

func (r *SQLRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.MediaRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := `SELECT ` + selectColumns + ` FROM media WHERE id IN (` + placeholders + `)`

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select media: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*models.MediaRow, len(ids))
	for rows.Next() {
		m, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media row: %w", err)
		}
		byID[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate media rows: %w", err)
	}

	result := make([]*models.MediaRow, 0, len(byID))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			result = append(result, m)
		}
	}
	return result, nil
}

func (r *SQLRepository) UpdateViewedAt(ctx context.Context, id string, ts time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE media SET viewed_at = ? WHERE id = ?`, ts.UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to update viewed_at: %w", err)
	}
	return expectOneRow(res, id)
}

func (r *SQLRepository) UpdateThumbRef(ctx context.Context, id string, ref string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE media SET thumb_ref = ? WHERE id = ?`, ref, id)
	if err != nil {
		return fmt.Errorf("failed to update thumb_ref: %w", err)
	}
	return expectOneRow(res, id)
}

func (r *SQLRepository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM media WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}
	return expectOneRow(res, id)
}

func (r *SQLRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM media ORDER BY imported_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list media ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan media id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate media ids: %w", err)
	}
	return ids, nil
}

func (r *SQLRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM media`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count media: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(s scanner) (*models.MediaRow, error) {
	var (
		m          models.MediaRow
		importedAt int64
		viewedAt   sql.NullInt64
	)
	if err := s.Scan(&m.ID, &importedAt, &m.BlobRef, &m.Nonce, &m.ThumbRef, &viewedAt, &m.Meta, &m.MetaNonce); err != nil {
		return nil, err
	}
	m.ImportedAt = time.UnixMilli(importedAt)
	if viewedAt.Valid {
		ts := time.UnixMilli(viewedAt.Int64)
		m.ViewedAt = &ts
	}
	return &m, nil
}

func toNullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func expectOneRow(res sql.Result, id string) error {
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return fmt.Errorf("media %s: %w", id, common.ErrorNotFound)
	}
	return nil
}
