package cycle

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/dripvault/internal/dbx"
	"github.com/dmitrijs2005/dripvault/internal/vault/models"
)

// SQLRepository implements Repository on the `cycle_state` table. The order
// is stored as a JSON array.
type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: dbx.Bind(db, dialect)}
}

func (r *SQLRepository) Get(ctx context.Context) (*models.CycleState, error) {
	var (
		orderJSON string
		anchor    int64
		s         models.CycleState
	)

	err := r.db.QueryRowContext(ctx,
		`SELECT order_ids, pointer, daily_index, day_anchor FROM cycle_state WHERE id = ?`,
		models.CycleStateID,
	).Scan(&orderJSON, &s.Pointer, &s.DailyIndex, &anchor)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cycle state: %w", err)
	}

	if err := json.Unmarshal([]byte(orderJSON), &s.Order); err != nil {
		return nil, fmt.Errorf("failed to decode cycle order: %w", err)
	}
	if s.Order == nil {
		s.Order = []string{}
	}
	s.DayAnchor = time.UnixMilli(anchor)

	return &s, nil
}

func (r *SQLRepository) Put(ctx context.Context, s *models.CycleState) error {
	order := s.Order
	if order == nil {
		order = []string{}
	}
	orderJSON, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to encode cycle order: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO cycle_state (id, order_ids, pointer, daily_index, day_anchor) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			order_ids = excluded.order_ids,
			pointer = excluded.pointer,
			daily_index = excluded.daily_index,
			day_anchor = excluded.day_anchor
	`, models.CycleStateID, string(orderJSON), s.Pointer, s.DailyIndex, s.DayAnchor.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to put cycle state: %w", err)
	}
	return nil
}
