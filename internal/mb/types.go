package mb

import "time"

// User is an account in the record store.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Folder groups files for one user.
type Folder struct {
	ID          string
	UserID      string
	Name        string
	Description string
	CreatedAt   time.Time
}

// File is a note or an uploaded media object.
// Notes carry Content; every other type carries StoragePath, the key of
// the object in the blob store.
type File struct {
	ID          string
	UserID      string
	FolderID    string // empty for files outside any folder
	Name        string
	Type        MediaType
	StoragePath string
	Content     string
	Encrypted   bool
	Size        int64
	CreatedAt   time.Time
}

// FavoriteRow is one row of the remote favorites table joined to its file.
type FavoriteRow struct {
	File        File
	FavoritedAt time.Time
}

// CurrentUser is the signed-in user as persisted locally. It is only used
// for display and for scoping remote queries, never for authorization.
type CurrentUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// FavoriteEntry is the denormalized record kept in the local favorites cache.
type FavoriteEntry struct {
	FileID      string    `json:"file_id"`
	Name        string    `json:"name"`
	Type        MediaType `json:"type"`
	StoragePath string    `json:"file_path,omitempty"`
	Content     string    `json:"content,omitempty"`
	FavoritedAt time.Time `json:"favorited_at"`
}

// FileSnapshot is the subset of a file copied into a favorite entry.
type FileSnapshot struct {
	Name        string
	Type        MediaType
	StoragePath string
	Content     string
}

// Snapshot returns the fields of f that a favorite entry denormalizes.
func (f *File) Snapshot() FileSnapshot {
	return FileSnapshot{
		Name:        f.Name,
		Type:        f.Type,
		StoragePath: f.StoragePath,
		Content:     f.Content,
	}
}

func entryFromRow(row *FavoriteRow) FavoriteEntry {
	return FavoriteEntry{
		FileID:      row.File.ID,
		Name:        row.File.Name,
		Type:        row.File.Type,
		StoragePath: row.File.StoragePath,
		Content:     row.File.Content,
		FavoritedAt: row.FavoritedAt,
	}
}
