package media

import (
	"context"
	"time"

	"github.com/dmitrijs2005/dripvault/internal/vault/models"
)

// Repository describes CRUD and query operations for media rows.
type Repository interface {
	// Insert stores a new row; the ID must be unused.
	Insert(ctx context.Context, row *models.MediaRow) error

	// GetByID returns the row or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.MediaRow, error)

	// GetByIDs returns the rows for ids in the order of ids. Unknown IDs are skipped.
	GetByIDs(ctx context.Context, ids []string) ([]*models.MediaRow, error)

	// UpdateViewedAt stamps the row's viewed timestamp.
	UpdateViewedAt(ctx context.Context, id string, ts time.Time) error

	// UpdateThumbRef records the thumbnail locator.
	UpdateThumbRef(ctx context.Context, id string, ref string) error

	// DeleteByID removes the row or returns common.ErrorNotFound.
	DeleteByID(ctx context.Context, id string) error

	// ListIDs returns all IDs ordered by import time.
	ListIDs(ctx context.Context) ([]string, error)

	// Count returns the number of rows.
	Count(ctx context.Context) (int, error)
}
