package cycle

import (
	"context"

	"github.com/dmitrijs2005/dripvault/internal/vault/models"
)

// Repository stores the one and only CycleState.
type Repository interface {
	// Get returns the stored state, or (nil, nil) before the first Put.
	Get(ctx context.Context) (*models.CycleState, error)

	// Put replaces the stored state.
	Put(ctx context.Context, s *models.CycleState) error
}
