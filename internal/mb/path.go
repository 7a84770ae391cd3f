package mb

import (
	"io/fs"
	"path/filepath"
)

// Path is a resolved local path with the stat info captured at resolution.
// Only FilesystemManager implementations create them.
type Path struct {
	absPath string
	isDir   bool
	info    fs.FileInfo
}

// NewPath builds a Path from already-validated parts.
func NewPath(absPath string, isDir bool, info fs.FileInfo) *Path {
	return &Path{absPath: absPath, isDir: isDir, info: info}
}

func (p *Path) String() string { return p.absPath }

// Base returns the last element of the path, used as the default file name.
func (p *Path) Base() string { return filepath.Base(p.absPath) }

func (p *Path) IsDir() bool { return p.isDir }

// Info returns the stat info captured when the path was resolved.
func (p *Path) Info() fs.FileInfo { return p.info }

// Size is the size in bytes recorded at resolution.
func (p *Path) Size() int64 {
	if p.info == nil {
		return 0
	}
	return p.info.Size()
}
