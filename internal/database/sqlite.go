package database

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// NewSQLiteStore opens a SQLite record store at path and migrates it.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteStore(path string) (*SQLStore, error) {
	db, err := OpenSQLiteConnection(path)
	if err != nil {
		return nil, err
	}

	store := NewSQLStoreFromDB(db, SQLiteDialect)
	store.path = path
	if err := store.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// OpenSQLiteConnection opens and configures a SQLite connection.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
func OpenSQLiteConnection(path string) (*sql.DB, error) {
	// Foreign keys are off by default in SQLite; the cascades depend on them.
	dsn := path + "?_foreign_keys=on&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection serializes writers and keeps :memory: databases
	// from splitting across connections.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}
