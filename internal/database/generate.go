package database

// schema.sql documents the SQLite schema the migrations produce.
// Regenerate it with:
//   go generate ./internal/database
// and check it is current with:
//   go run ./internal/database/tools -check

//go:generate sh -c "cd ../.. && go run ./internal/database/tools"
