package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"mediabox/internal/mb"
)

// MemoryBlobStore is an in-memory implementation of the BlobStore interface.
// It keeps every object in memory, making it useful for testing.
// This implementation is safe for concurrent use.
type MemoryBlobStore struct {
	objects      map[string][]byte
	contentTypes map[string]string
	mu           sync.RWMutex
}

// NewMemoryBlobStore creates an empty in-memory blob store.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

// Put stores the object under key.
func (m *MemoryBlobStore) Put(_ context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read object: %w", err)
	}

	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[key] = data
	m.contentTypes[key] = contentType
	return nil
}

// Get writes the object under key to w.
func (m *MemoryBlobStore) Get(_ context.Context, key string, w io.Writer) error {
	m.mu.RLock()
	data, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("object not found: %s", key)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}

	return nil
}

// Delete removes the object under key.
func (m *MemoryBlobStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.objects, key)
	delete(m.contentTypes, key)
	return nil
}

// URL returns a memory:// address for key.
func (m *MemoryBlobStore) URL(key string) string {
	return "memory://" + key
}

// ValidateSetup always succeeds for the in-memory store.
func (m *MemoryBlobStore) ValidateSetup(context.Context) error {
	return nil
}

// Keys lists the stored keys in order.
func (m *MemoryBlobStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ContentType returns the content type recorded for key.
func (m *MemoryBlobStore) ContentType(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.contentTypes[key]
}

// Compile-time check that MemoryBlobStore implements mb.BlobStore interface
var _ mb.BlobStore = (*MemoryBlobStore)(nil)
