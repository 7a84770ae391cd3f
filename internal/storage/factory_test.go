package storage

import (
	"context"
	"path/filepath"
	"testing"

	"mediabox/internal/config"
)

func TestNewBlobStoreFromConfig(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		cfg      config.BlobStoreConfig
		wantErr  bool
		wantType string
	}{
		{
			name:     "memory",
			cfg:      config.BlobStoreConfig{Type: "memory"},
			wantType: "*storage.MemoryBlobStore",
		},
		{
			name:     "filesystem",
			cfg:      config.BlobStoreConfig{Type: "filesystem", FSRoot: filepath.Join(t.TempDir(), "uploads")},
			wantType: "*storage.FileSystemBlobStore",
		},
		{
			name:    "filesystem without root",
			cfg:     config.BlobStoreConfig{Type: "filesystem"},
			wantErr: true,
		},
		{
			name:    "s3 without bucket",
			cfg:     config.BlobStoreConfig{Type: "s3", S3Region: "us-east-1"},
			wantErr: true,
		},
		{
			name:     "minio",
			cfg:      config.BlobStoreConfig{Type: "minio", S3Bucket: "media", S3Endpoint: "localhost:9000"},
			wantType: "*storage.MinioBlobStore",
		},
		{
			name:    "minio without endpoint",
			cfg:     config.BlobStoreConfig{Type: "minio", S3Bucket: "media"},
			wantErr: true,
		},
		{
			name:    "unknown type",
			cfg:     config.BlobStoreConfig{Type: "ftp"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewBlobStoreFromConfig(ctx, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewBlobStoreFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if store != nil {
					t.Errorf("NewBlobStoreFromConfig() store = %T, want nil", store)
				}
				return
			}

			switch tt.wantType {
			case "*storage.MemoryBlobStore":
				if _, ok := store.(*MemoryBlobStore); !ok {
					t.Errorf("got %T, want %s", store, tt.wantType)
				}
			case "*storage.FileSystemBlobStore":
				if _, ok := store.(*FileSystemBlobStore); !ok {
					t.Errorf("got %T, want %s", store, tt.wantType)
				}
			case "*storage.MinioBlobStore":
				if _, ok := store.(*MinioBlobStore); !ok {
					t.Errorf("got %T, want %s", store, tt.wantType)
				}
			}
		})
	}
}
