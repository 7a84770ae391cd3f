package database

import (
	"context"
	"fmt"
	"path/filepath"

	"mediabox/internal/config"
)

// NewRecordStoreFromConfig creates a record store based on the record store config type.
func NewRecordStoreFromConfig(ctx context.Context, cfg config.RecordStoreConfig) (*SQLStore, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite record store")
		}
		if err := ensureDir(cfg.DataDir); err != nil {
			return nil, err
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, "mb.db"))
	case "memory":
		return NewSQLiteStore(":memory:")
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("dsn required for postgres record store")
		}
		return NewPostgresStore(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown record store type: %s", cfg.Type)
	}
}
