package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"mediabox/internal/mb"
)

// FileSystemBlobStore is a filesystem-based implementation of the BlobStore
// interface. Keys map to paths below the root:
//
//	<root>/
//	  <user_id>/
//	    <folder_id|root>/
//	      <unix_ms>-<name>
type FileSystemBlobStore struct {
	root string
}

// NewFileSystemBlobStore creates a new filesystem blob store rooted at the given path.
func NewFileSystemBlobStore(root string) (*FileSystemBlobStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving blob store root: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob store root: %w", err)
	}

	return &FileSystemBlobStore{root: abs}, nil
}

// path maps key below the root, rejecting keys that would escape it.
func (s *FileSystemBlobStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid object key: %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

// Put stores the object under key using an atomic write.
func (s *FileSystemBlobStore) Put(_ context.Context, key string, r io.Reader, size int64, _ string) error {
	destPath, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}
	return s.writeFile(destPath, r, size)
}

// Get writes the object under key to w.
func (s *FileSystemBlobStore) Get(_ context.Context, key string, w io.Writer) error {
	srcPath, err := s.path(key)
	if err != nil {
		return err
	}

	f, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("object not found: %s", key)
		}
		return fmt.Errorf("failed to open object: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read object: %w", err)
	}

	return nil
}

// Delete removes the object under key.
func (s *FileSystemBlobStore) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// URL returns a file:// URL for key.
func (s *FileSystemBlobStore) URL(key string) string {
	p, err := s.path(key)
	if err != nil {
		return ""
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(p)}).String()
}

// ValidateSetup verifies that the root is an accessible, writable directory.
func (s *FileSystemBlobStore) ValidateSetup(context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("blob store root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("blob store root is not a directory: %s", s.root)
	}

	check, err := os.CreateTemp(s.root, ".check-*")
	if err != nil {
		return fmt.Errorf("blob store root not writable: %w", err)
	}
	check.Close()
	os.Remove(check.Name())

	return nil
}

// writeFile writes data from r to the specified path using atomic write (temp file + rename).
func (s *FileSystemBlobStore) writeFile(destPath string, r io.Reader, expectedSize int64) error {
	// Create temp file in the same directory to ensure atomic rename works
	dir := filepath.Dir(destPath)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Compile-time check that FileSystemBlobStore implements mb.BlobStore interface
var _ mb.BlobStore = (*FileSystemBlobStore)(nil)
