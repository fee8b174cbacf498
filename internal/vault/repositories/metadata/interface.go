package metadata

import (
	"context"
)

// Repository is a byte-valued key/value store. Get returns (nil, nil) for an
// absent key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
