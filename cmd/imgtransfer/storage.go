package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sagarc03/imgtransfer"
	"github.com/sagarc03/imgtransfer/config"
	"github.com/sagarc03/imgtransfer/filesystem"
	"github.com/sagarc03/imgtransfer/s3store"
)

// openStore builds the configured backend. The returned close function
// releases any local resources and is never nil.
func openStore(ctx context.Context, cfg config.StorageConfig) (imgtransfer.ObjectStore, func(), error) {
	backend, err := imgtransfer.ParseStorageBackend(cfg.Backend)
	if err != nil {
		return nil, nil, err
	}

	switch backend {
	case imgtransfer.BackendS3:
		store, err := s3store.New(ctx, &s3store.Opts{
			Bucket:         cfg.S3.Bucket,
			Region:         cfg.S3.Region,
			Endpoint:       cfg.S3.Endpoint,
			ForcePathStyle: cfg.S3.ForcePathStyle,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			PartSizeMB:     cfg.S3.PartSizeMB,
			Concurrency:    cfg.S3.Concurrency,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create s3 store: %w", err)
		}
		return store, func() {}, nil

	case imgtransfer.BackendFilesystem:
		if err := os.MkdirAll(cfg.Filesystem.Path, 0o750); err != nil {
			return nil, nil, fmt.Errorf("create storage directory: %w", err)
		}

		root, err := os.OpenRoot(cfg.Filesystem.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open storage root: %w", err)
		}
		return filesystem.NewFileStorage(root, cfg.Filesystem.Path), func() { _ = root.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// bucketName is what listings report as Name and what logs show.
func bucketName(cfg config.StorageConfig) string {
	if imgtransfer.StorageBackend(cfg.Backend) == imgtransfer.BackendFilesystem {
		return cfg.Filesystem.Path
	}
	return cfg.S3.Bucket
}
