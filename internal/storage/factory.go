package storage

import (
	"context"
	"fmt"

	"mediabox/internal/config"
	"mediabox/internal/mb"
)

// NewBlobStoreFromConfig creates a BlobStore implementation based on the blob store config type.
func NewBlobStoreFromConfig(ctx context.Context, cfg config.BlobStoreConfig) (mb.BlobStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryBlobStore(), nil
	case "s3":
		store, err := NewS3BlobStore(ctx, S3Config{
			Bucket:       cfg.S3Bucket,
			Prefix:       cfg.S3Prefix,
			Region:       cfg.S3Region,
			Endpoint:     cfg.S3Endpoint,
			AccessKey:    cfg.S3AccessKeyID,
			SecretKey:    cfg.S3SecretAccessKey,
			UsePathStyle: cfg.S3UsePathStyle,
			BaseURL:      cfg.S3PublicBaseURL,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case "minio":
		store, err := NewMinioBlobStore(MinioConfig{
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKeyID,
			SecretKey: cfg.S3SecretAccessKey,
			UseSSL:    cfg.MinioUseSSL,
			BaseURL:   cfg.S3PublicBaseURL,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem blob store requires fs_root to be set")
		}
		store, err := NewFileSystemBlobStore(cfg.FSRoot)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown blob store type: %s", cfg.Type)
	}
}
