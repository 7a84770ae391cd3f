package testutil

import (
	"testing"

	"mediabox/internal/database"
)

// NewTestRecordStore creates a migrated in-memory SQLite record store.
// The store is closed when the test completes.
func NewTestRecordStore(t *testing.T) *database.SQLStore {
	t.Helper()

	store, err := database.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to open record store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}
