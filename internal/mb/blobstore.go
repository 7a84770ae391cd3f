package mb

import (
	"context"
	"io"
)

// BlobStore holds the binary objects behind uploaded files.
// Objects are streamed so large videos never sit in memory.
type BlobStore interface {
	// Put stores size bytes read from r under key, replacing any existing object.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Get writes the object stored under key to w.
	Get(ctx context.Context, key string, w io.Writer) error

	// Delete removes the object. A missing object is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns the address the object can be viewed at.
	URL(key string) string

	// ValidateSetup verifies the store is reachable and writable.
	ValidateSetup(ctx context.Context) error
}
