package testutil

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	mbfs "mediabox/internal/fs"
	"mediabox/internal/mb"
)

// MockFile represents a file in the mock filesystem.
type MockFile struct {
	Content     []byte
	Permissions fs.FileMode
	ModTime     time.Time
	IsDirectory bool
}

// MockFilesystemManager is an in-memory filesystem for testing. Ignore
// rules are evaluated with the same matcher the real manager uses.
type MockFilesystemManager struct {
	mu       sync.Mutex
	files    map[string]*MockFile
	patterns []string
}

// NewMockFilesystemManager creates a mock filesystem applying patterns on import.
func NewMockFilesystemManager(patterns ...string) *MockFilesystemManager {
	return &MockFilesystemManager{
		files:    make(map[string]*MockFile),
		patterns: patterns,
	}
}

// AddFile adds a file, creating its parent directories.
func (m *MockFilesystemManager) AddFile(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for dir := filepath.Dir(path); dir != "/" && dir != "."; dir = filepath.Dir(dir) {
		if _, ok := m.files[dir]; !ok {
			m.files[dir] = &MockFile{Permissions: 0755, IsDirectory: true}
		}
	}
	m.files[path] = &MockFile{
		Content:     content,
		Permissions: 0644,
		ModTime:     time.Now(),
	}
}

// AddDirectory adds an empty directory.
func (m *MockFilesystemManager) AddDirectory(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = &MockFile{Permissions: 0755, IsDirectory: true, ModTime: time.Now()}
}

func (m *MockFilesystemManager) lookup(path string) (*MockFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	file, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return file, nil
}

func (m *MockFilesystemManager) Resolve(rawPath string) (*mb.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, err
	}
	file, err := m.lookup(absPath)
	if err != nil {
		return nil, err
	}
	return mb.NewPath(absPath, file.IsDirectory, newMockFileInfo(absPath, file)), nil
}

func (m *MockFilesystemManager) Open(path *mb.Path) (io.ReadCloser, error) {
	file, err := m.lookup(path.String())
	if err != nil {
		return nil, err
	}
	if file.IsDirectory {
		return nil, fmt.Errorf("cannot open directory: %s", path.String())
	}
	return io.NopCloser(bytes.NewReader(file.Content)), nil
}

func (m *MockFilesystemManager) Stat(path *mb.Path) (fs.FileInfo, error) {
	file, err := m.lookup(path.String())
	if err != nil {
		return nil, err
	}
	return newMockFileInfo(path.String(), file), nil
}

// FindFiles returns the files below path in lexical order.
func (m *MockFilesystemManager) FindFiles(path *mb.Path, recursive bool) ([]*mb.Path, error) {
	if !path.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", path.String())
	}

	m.mu.Lock()
	var names []string
	prefix := strings.TrimSuffix(path.String(), "/") + "/"
	for name, file := range m.files {
		if file.IsDirectory || !strings.HasPrefix(name, prefix) {
			continue
		}
		if !recursive && strings.Contains(strings.TrimPrefix(name, prefix), "/") {
			continue
		}
		names = append(names, name)
	}
	m.mu.Unlock()

	sort.Strings(names)
	paths := make([]*mb.Path, 0, len(names))
	for _, name := range names {
		file, err := m.lookup(name)
		if err != nil {
			return nil, err
		}
		paths = append(paths, mb.NewPath(name, false, newMockFileInfo(name, file)))
	}
	return paths, nil
}

// IsIgnored applies the configured patterns plus root's .mbignore, if the
// mock holds one.
func (m *MockFilesystemManager) IsIgnored(path *mb.Path, root string) (bool, error) {
	rel, err := filepath.Rel(root, path.String())
	if err != nil {
		return false, err
	}

	patterns := append([]string{mbfs.IgnoreFileName}, m.patterns...)
	if file, err := m.lookup(filepath.Join(root, mbfs.IgnoreFileName)); err == nil {
		patterns = append(patterns, strings.Split(string(file.Content), "\n")...)
	}
	return mbfs.NewIgnoreMatcher(patterns).Match(rel), nil
}

type mockFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func newMockFileInfo(path string, f *MockFile) *mockFileInfo {
	mode := f.Permissions
	if f.IsDirectory {
		mode |= fs.ModeDir
	}
	return &mockFileInfo{
		name:    filepath.Base(path),
		size:    int64(len(f.Content)),
		mode:    mode,
		modTime: f.ModTime,
		isDir:   f.IsDirectory,
	}
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return m.modTime }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() any           { return nil }

// Compile-time check
var _ mb.FilesystemManager = (*MockFilesystemManager)(nil)
