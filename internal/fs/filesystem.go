package fs

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"mediabox/internal/mb"
)

// IgnoreFileName is read from the root of every imported directory.
const IgnoreFileName = ".mbignore"

// OSFilesystemManager is the real filesystem implementation of mb.FilesystemManager.
type OSFilesystemManager struct {
	patterns []string

	mu       sync.Mutex
	matchers map[string]*IgnoreMatcher // keyed by import root
}

// NewOSFilesystemManager creates a filesystem manager. patterns apply to
// every import in addition to each root's .mbignore.
func NewOSFilesystemManager(patterns []string) *OSFilesystemManager {
	return &OSFilesystemManager{
		patterns: patterns,
		matchers: make(map[string]*IgnoreMatcher),
	}
}

// Resolve validates a raw path and returns a Path object.
func (m *OSFilesystemManager) Resolve(rawPath string) (*mb.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	// Lstat so a symlink is reported as such instead of followed.
	info, err := os.Lstat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}

	mode := info.Mode()
	switch {
	case mode&os.ModeSymlink != 0:
		return nil, fmt.Errorf("symlinks not supported: %s", absPath)
	case mode&os.ModeDevice != 0:
		return nil, fmt.Errorf("device files not supported: %s", absPath)
	case mode&os.ModeNamedPipe != 0:
		return nil, fmt.Errorf("named pipes not supported: %s", absPath)
	case mode&os.ModeSocket != 0:
		return nil, fmt.Errorf("sockets not supported: %s", absPath)
	}

	return mb.NewPath(absPath, info.IsDir(), info), nil
}

// Open opens a file for reading.
func (m *OSFilesystemManager) Open(path *mb.Path) (io.ReadCloser, error) {
	if path.IsDir() {
		return nil, fmt.Errorf("cannot open directory as file: %s", path.String())
	}
	return os.Open(path.String())
}

// Stat returns fresh file info for a path.
func (m *OSFilesystemManager) Stat(path *mb.Path) (fs.FileInfo, error) {
	return os.Stat(path.String())
}

// FindFiles discovers regular files under the given directory path, in
// lexical order.
func (m *OSFilesystemManager) FindFiles(path *mb.Path, recursive bool) ([]*mb.Path, error) {
	if !path.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", path.String())
	}

	var paths []*mb.Path

	if recursive {
		err := filepath.WalkDir(path.String(), func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return fmt.Errorf("stat %s: %w", p, err)
			}
			paths = append(paths, mb.NewPath(p, false, info))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking directory: %w", err)
		}
		return paths, nil
	}

	entries, err := os.ReadDir(path.String())
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		paths = append(paths, mb.NewPath(filepath.Join(path.String(), entry.Name()), false, info))
	}
	return paths, nil
}

// IsIgnored reports whether path, found under root, matches the configured
// patterns or root's .mbignore. The ignore file is read once per root.
func (m *OSFilesystemManager) IsIgnored(path *mb.Path, root string) (bool, error) {
	rel, err := filepath.Rel(root, path.String())
	if err != nil {
		return false, fmt.Errorf("relative path of %s: %w", path, err)
	}

	matcher, err := m.matcherFor(root)
	if err != nil {
		return false, err
	}
	return matcher.Match(rel), nil
}

func (m *OSFilesystemManager) matcherFor(root string) (*IgnoreMatcher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if matcher, ok := m.matchers[root]; ok {
		return matcher, nil
	}

	fromFile, err := ParseIgnoreFile(filepath.Join(root, IgnoreFileName))
	if err != nil {
		return nil, err
	}

	all := make([]string, 0, len(defaultIgnorePatterns)+len(m.patterns)+len(fromFile))
	all = append(all, defaultIgnorePatterns...)
	all = append(all, m.patterns...)
	all = append(all, fromFile...)

	matcher := NewIgnoreMatcher(all)
	m.matchers[root] = matcher
	return matcher, nil
}

// Compile-time check that OSFilesystemManager implements mb.FilesystemManager interface
var _ mb.FilesystemManager = (*OSFilesystemManager)(nil)
