package database

import (
	"strconv"
	"strings"

	"mediabox/internal/database/migrations"
)

// Dialect captures the SQL differences between the supported backends.
// Queries are written with ? placeholders and rebound per dialect.
type Dialect struct {
	Name     string
	numbered bool
}

var (
	SQLiteDialect   = Dialect{Name: migrations.SQLite}
	PostgresDialect = Dialect{Name: migrations.Postgres, numbered: true}
)

// Rebind rewrites ? placeholders into the dialect's form.
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// likePattern builds a case-insensitive substring pattern for
// LOWER(col) LIKE ? ESCAPE '\'.
func likePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(search)) + "%"
}
