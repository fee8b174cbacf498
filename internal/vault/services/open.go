package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/dripvault/internal/dbx"
	"github.com/dmitrijs2005/dripvault/internal/filex"
	"github.com/dmitrijs2005/dripvault/internal/vault/blobs"
	"github.com/dmitrijs2005/dripvault/internal/vault/config"
	"github.com/dmitrijs2005/dripvault/internal/vault/store"
)

// Open opens the store and blob storage described by cfg and returns a
// Locked engine. Options in opts override the ones derived from cfg.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Engine, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	if dbx.DialectFromDSN(cfg.DSN()) == dbx.DialectSQLite && cfg.DatabaseDSN == "" {
		if _, err := filex.EnsureDir(cfg.VaultDir); err != nil {
			return nil, fmt.Errorf("vault dir: %w", err)
		}
	}
	if _, err := filex.EnsureDir(cfg.TempDir); err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}

	st, err := store.Open(ctx, cfg.DSN())
	if err != nil {
		return nil, err
	}

	bs, err := openBlobs(ctx, cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	base := []Option{
		WithTempDir(cfg.TempDir),
		WithKDFIterations(cfg.KDFIterations),
		WithSchedulerOptions(WithDailyLimit(cfg.DailyLimit), WithDayStart(cfg.DayStartHour, loc)),
	}
	return New(st, bs, append(base, opts...)...), nil
}

func openBlobs(ctx context.Context, cfg *config.Config) (blobs.Store, error) {
	switch cfg.BlobBackend {
	case config.BlobBackendS3:
		return blobs.NewS3Store(ctx, blobs.S3Options{
			Bucket:       cfg.S3Bucket,
			Prefix:       cfg.S3Prefix,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			UsePathStyle: cfg.S3UsePathStyle,
		})
	case config.BlobBackendFS, "":
		return blobs.NewFSStore(cfg.BlobDirectory())
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}
