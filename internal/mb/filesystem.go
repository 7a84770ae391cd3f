package mb

import (
	"io"
	"io/fs"
)

// FilesystemManager gives the organizer read access to the local files a
// user uploads or imports.
type FilesystemManager interface {
	// Resolve makes rawPath absolute, stats it and rejects anything that is
	// not a regular file or directory.
	Resolve(rawPath string) (*Path, error)

	// Open opens a regular file for reading.
	Open(path *Path) (io.ReadCloser, error)

	// Stat returns fresh file info, unlike the cached Path.Info.
	Stat(path *Path) (fs.FileInfo, error)

	// FindFiles lists the regular files under a directory.
	FindFiles(path *Path, recursive bool) ([]*Path, error)

	// IsIgnored reports whether path, found under the import root, matches
	// the configured ignore patterns or the root's .mbignore file.
	IsIgnored(path *Path, root string) (bool, error)
}
