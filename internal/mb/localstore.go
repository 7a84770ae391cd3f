package mb

// Keys of the documents kept in the LocalStore.
const (
	KeyFavorites     = "favorites"
	KeyTheme         = "theme"
	KeyCurrentUser   = "current_user"
	KeyCurrentFolder = "current_folder"
)

// LocalStore is durable, process-local key/value storage of JSON documents.
// It survives restarts and needs no network.
type LocalStore interface {
	// Get decodes the document stored under key into v.
	// It returns false with no error when the key is absent.
	Get(key string, v any) (bool, error)

	// Put encodes v and stores it under key, replacing any previous document.
	Put(key string, v any) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
}
