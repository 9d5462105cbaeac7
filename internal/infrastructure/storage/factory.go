package storage

import (
	"context"
	"fmt"

	"github.com/marketplace/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewUploadStore builds the store selected by import.storage
func NewUploadStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (UploadStore, error) {
	switch cfg.Import.Storage {
	case "", "local":
		return NewLocalUploadStore(cfg.Import.UploadDir)
	case "s3":
		store, err := NewS3UploadStore(ctx, &cfg.Storage, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown upload storage %q", cfg.Import.Storage)
	}
}
