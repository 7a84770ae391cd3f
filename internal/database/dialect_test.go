package database

import "testing"

func TestDialect_Rebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		query   string
		want    string
	}{
		{
			name:    "sqlite keeps question marks",
			dialect: SQLiteDialect,
			query:   "SELECT * FROM files WHERE user_id = ? AND folder_id = ?",
			want:    "SELECT * FROM files WHERE user_id = ? AND folder_id = ?",
		},
		{
			name:    "postgres numbers placeholders",
			dialect: PostgresDialect,
			query:   "SELECT * FROM files WHERE user_id = ? AND folder_id = ? LIMIT ?",
			want:    "SELECT * FROM files WHERE user_id = $1 AND folder_id = $2 LIMIT $3",
		},
		{
			name:    "no placeholders",
			dialect: PostgresDialect,
			query:   "SELECT 1",
			want:    "SELECT 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.Rebind(tt.query); got != tt.want {
				t.Errorf("Rebind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLikePattern(t *testing.T) {
	tests := []struct {
		search string
		want   string
	}{
		{"Trip", "%trip%"},
		{"100%", `%100\%%`},
		{"a_b", `%a\_b%`},
		{`c:\x`, `%c:\\x%`},
	}

	for _, tt := range tests {
		if got := likePattern(tt.search); got != tt.want {
			t.Errorf("likePattern(%q) = %q, want %q", tt.search, got, tt.want)
		}
	}
}
