package mb

import (
	"context"
	"time"
)

// FavoritesRemote is the part of the record store the favorites cache
// talks to. Rows are keyed by (user_id, file_id).
type FavoritesRemote interface {
	// InsertFavorite records that userID favorited fileID at the given time.
	// Inserting an existing pair is a no-op.
	InsertFavorite(ctx context.Context, userID, fileID string, at time.Time) error

	// DeleteFavorite removes the pair. Deleting a missing pair is a no-op.
	DeleteFavorite(ctx context.Context, userID, fileID string) error

	// ListFavorites returns every favorite of userID joined to its file,
	// newest favorite first.
	ListFavorites(ctx context.Context, userID string) ([]*FavoriteRow, error)
}

// RecordStore is the authoritative store for users, folders, files and
// favorites. Lookups return nil with no error when nothing matches.
type RecordStore interface {
	FavoritesRemote

	// User operations

	CreateUser(ctx context.Context, user *User) error
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	FindUserByID(ctx context.Context, id string) (*User, error)
	UpdateUserPassword(ctx context.Context, userID, passwordHash string) error

	// Folder operations

	CreateFolder(ctx context.Context, folder *Folder) error
	UpdateFolder(ctx context.Context, folder *Folder) error
	FindFolderByID(ctx context.Context, id string) (*Folder, error)

	// ListFolders returns userID's folders, newest first. A non-empty search
	// keeps only folders whose name contains it, ignoring case.
	ListFolders(ctx context.Context, userID, search string) ([]*Folder, error)

	// DeleteFolder removes a folder together with its files and their favorites.
	DeleteFolder(ctx context.Context, id string) error

	// File operations

	CreateFile(ctx context.Context, file *File) error
	FindFileByID(ctx context.Context, id string) (*File, error)

	// ListFilesByFolder returns the files of one folder, newest first.
	// An empty folderID selects the files outside any folder.
	ListFilesByFolder(ctx context.Context, userID, folderID string) ([]*File, error)

	// ListRecentFiles returns userID's most recently created files.
	ListRecentFiles(ctx context.Context, userID string, limit int) ([]*File, error)

	// DeleteFile removes a file and its favorites.
	DeleteFile(ctx context.Context, id string) error

	// TotalFileSize sums the stored size of userID's uploads.
	TotalFileSize(ctx context.Context, userID string) (int64, error)

	// Close releases the underlying connection.
	Close() error
}
