// Command generate_schema writes internal/database/schema.sql, the SQLite
// schema produced by running every migration. With -check it exits non-zero
// when the file on disk is stale instead of rewriting it.
package main

import (
	"bytes"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"mediabox/internal/database"
	"mediabox/internal/database/migrations"
)

const header = `-- This file is auto-generated from migration files.
-- DO NOT EDIT MANUALLY. Run 'go generate ./internal/database' to regenerate.
-- Source: internal/database/migrations/files/sqlite/*.sql (version %d)

`

func main() {
	check := flag.Bool("check", false, "fail if schema.sql is out of date instead of writing it")
	flag.Parse()

	if err := run(*check); err != nil {
		fmt.Fprintf(os.Stderr, "generate_schema: %v\n", err)
		os.Exit(1)
	}
}

func run(check bool) error {
	version, err := latestSharedVersion()
	if err != nil {
		return err
	}

	db, err := database.OpenSQLiteConnection(":memory:")
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.MigrateUp(db, migrations.SQLite); err != nil {
		return err
	}

	statements, err := schemaStatements(db)
	if err != nil {
		return err
	}
	schema := fmt.Sprintf(header, version) + strings.Join(statements, "\n\n") + "\n"

	outPath := filepath.Join("internal", "database", "schema.sql")
	if check {
		current, err := os.ReadFile(outPath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", outPath, err)
		}
		if !bytes.Equal(current, []byte(schema)) {
			return fmt.Errorf("%s is stale; run go generate ./internal/database", outPath)
		}
		fmt.Printf("%s is up to date\n", outPath)
		return nil
	}

	if err := os.WriteFile(outPath, []byte(schema), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	fmt.Printf("Generated %s (version %d)\n", outPath, version)
	return nil
}

// latestSharedVersion fails unless both dialects carry the same migrations.
func latestSharedVersion() (uint, error) {
	sqlite, err := migrations.Versions(migrations.SQLite)
	if err != nil {
		return 0, err
	}
	postgres, err := migrations.Versions(migrations.Postgres)
	if err != nil {
		return 0, err
	}
	if !slices.Equal(sqlite, postgres) {
		return 0, fmt.Errorf("migration versions differ: sqlite %v, postgres %v", sqlite, postgres)
	}
	return sqlite[len(sqlite)-1], nil
}

// schemaStatements returns the CREATE statements of every table and index,
// tables first, leaving out SQLite internals and the migration bookkeeping.
func schemaStatements(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`
		SELECT sql || ';'
		FROM sqlite_master
		WHERE type IN ('table', 'index')
		  AND sql IS NOT NULL
		  AND name NOT LIKE 'sqlite_%'
		  AND tbl_name != 'schema_migrations'
		ORDER BY CASE type WHEN 'table' THEN 1 ELSE 2 END, name`)
	if err != nil {
		return nil, fmt.Errorf("querying sqlite_master: %w", err)
	}
	defer rows.Close()

	var statements []string
	for rows.Next() {
		var stmt string
		if err := rows.Scan(&stmt); err != nil {
			return nil, fmt.Errorf("scanning schema: %w", err)
		}
		statements = append(statements, stmt)
	}
	return statements, rows.Err()
}
