package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mediabox/internal/database/migrations"
	"mediabox/internal/mb"
)

// SQLStore implements mb.RecordStore over database/sql. The same queries
// serve SQLite and Postgres; the Dialect handles placeholders.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	path    string
}

// NewSQLStoreFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLStoreFromDB(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// Dialect returns the SQL dialect of the store.
func (s *SQLStore) Dialect() Dialect { return s.dialect }

// Path returns the SQLite database path, or "" for other backends.
func (s *SQLStore) Path() string { return s.path }

// Migrate brings the schema up to date.
func (s *SQLStore) Migrate() error {
	if err := migrations.MigrateUp(s.db, s.dialect.Name); err != nil {
		return fmt.Errorf("migrating %s database: %w", s.dialect.Name, err)
	}
	return nil
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLStore) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db, s.dialect.Name)
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.dialect.Rebind(query), args...)
}

func (s *SQLStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.dialect.Rebind(query), args...)
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.dialect.Rebind(query), args...)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// User operations

const userColumns = `id, email, password_hash, created_at`

func scanUser(row scanner) (*mb.User, error) {
	var u mb.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func (s *SQLStore) CreateUser(ctx context.Context, user *mb.User) error {
	_, err := s.exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?)`,
		user.ID, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

func (s *SQLStore) FindUserByEmail(ctx context.Context, email string) (*mb.User, error) {
	user, err := scanUser(s.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding user by email: %w", err)
	}
	return user, nil
}

func (s *SQLStore) FindUserByID(ctx context.Context, id string) (*mb.User, error) {
	user, err := scanUser(s.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding user by id: %w", err)
	}
	return user, nil
}

func (s *SQLStore) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	res, err := s.exec(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	return expectOneRow(res, "user", userID)
}

func expectOneRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s not found: %s", kind, id)
	}
	return nil
}

// Folder operations

const folderColumns = `id, user_id, name, description, created_at`

func scanFolder(row scanner) (*mb.Folder, error) {
	var f mb.Folder
	if err := row.Scan(&f.ID, &f.UserID, &f.Name, &f.Description, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.CreatedAt = f.CreatedAt.UTC()
	return &f, nil
}

func (s *SQLStore) CreateFolder(ctx context.Context, folder *mb.Folder) error {
	_, err := s.exec(ctx,
		`INSERT INTO folders (`+folderColumns+`) VALUES (?, ?, ?, ?, ?)`,
		folder.ID, folder.UserID, folder.Name, folder.Description, folder.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating folder: %w", err)
	}
	return nil
}

func (s *SQLStore) UpdateFolder(ctx context.Context, folder *mb.Folder) error {
	res, err := s.exec(ctx,
		`UPDATE folders SET name = ?, description = ? WHERE id = ?`,
		folder.Name, folder.Description, folder.ID)
	if err != nil {
		return fmt.Errorf("updating folder: %w", err)
	}
	return expectOneRow(res, "folder", folder.ID)
}

func (s *SQLStore) FindFolderByID(ctx context.Context, id string) (*mb.Folder, error) {
	folder, err := scanFolder(s.queryRow(ctx, `SELECT `+folderColumns+` FROM folders WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding folder: %w", err)
	}
	return folder, nil
}

func (s *SQLStore) ListFolders(ctx context.Context, userID, search string) ([]*mb.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE user_id = ?`
	args := []any{userID}
	if search != "" {
		query += ` AND LOWER(name) LIKE ? ESCAPE '\'`
		args = append(args, likePattern(search))
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	defer rows.Close()

	var folders []*mb.Folder
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning folder: %w", err)
		}
		folders = append(folders, folder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	return folders, nil
}

// DeleteFolder removes the folder; files and favorites go with it through
// ON DELETE CASCADE.
func (s *SQLStore) DeleteFolder(ctx context.Context, id string) error {
	if _, err := s.exec(ctx, `DELETE FROM folders WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting folder: %w", err)
	}
	return nil
}

// File operations

const fileColumns = `id, user_id, folder_id, name, type, storage_path, content, encrypted, size, created_at`

// fileColumnsAs is fileColumns qualified with the alias f.
const fileColumnsAs = `f.id, f.user_id, f.folder_id, f.name, f.type, f.storage_path, f.content, f.encrypted, f.size, f.created_at`

func scanFile(row scanner, extra ...any) (*mb.File, error) {
	var (
		f        mb.File
		folderID sql.NullString
		typ      string
	)
	dest := append([]any{&f.ID, &f.UserID, &folderID, &f.Name, &typ, &f.StoragePath, &f.Content, &f.Encrypted, &f.Size, &f.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	mt, err := mb.ParseMediaType(typ)
	if err != nil {
		return nil, fmt.Errorf("file %s: %w", f.ID, err)
	}
	f.Type = mt
	f.FolderID = folderID.String
	f.CreatedAt = f.CreatedAt.UTC()
	return &f, nil
}

func (s *SQLStore) CreateFile(ctx context.Context, file *mb.File) error {
	_, err := s.exec(ctx,
		`INSERT INTO files (`+fileColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		file.ID, file.UserID, nullString(file.FolderID), file.Name, file.Type.String(),
		file.StoragePath, file.Content, file.Encrypted, file.Size, file.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	return nil
}

func (s *SQLStore) FindFileByID(ctx context.Context, id string) (*mb.File, error) {
	file, err := scanFile(s.queryRow(ctx, `SELECT `+fileColumns+` FROM files WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding file: %w", err)
	}
	return file, nil
}

func (s *SQLStore) ListFilesByFolder(ctx context.Context, userID, folderID string) ([]*mb.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE user_id = ? AND folder_id = ? ORDER BY created_at DESC, id`
	args := []any{userID, folderID}
	if folderID == "" {
		query = `SELECT ` + fileColumns + ` FROM files WHERE user_id = ? AND folder_id IS NULL ORDER BY created_at DESC, id`
		args = args[:1]
	}
	return s.listFiles(ctx, query, args...)
}

func (s *SQLStore) ListRecentFiles(ctx context.Context, userID string, limit int) ([]*mb.File, error) {
	return s.listFiles(ctx,
		`SELECT `+fileColumns+` FROM files WHERE user_id = ? ORDER BY created_at DESC, id LIMIT ?`,
		userID, limit)
}

func (s *SQLStore) listFiles(ctx context.Context, query string, args ...any) ([]*mb.File, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	defer rows.Close()

	var files []*mb.File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		files = append(files, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	return files, nil
}

// DeleteFile removes the file; its favorites go with it through ON DELETE CASCADE.
func (s *SQLStore) DeleteFile(ctx context.Context, id string) error {
	if _, err := s.exec(ctx, `DELETE FROM files WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

func (s *SQLStore) TotalFileSize(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := s.queryRow(ctx, `SELECT COALESCE(SUM(size), 0) FROM files WHERE user_id = ?`, userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("summing file sizes: %w", err)
	}
	return total, nil
}

// Favorite operations

func (s *SQLStore) InsertFavorite(ctx context.Context, userID, fileID string, at time.Time) error {
	_, err := s.exec(ctx,
		`INSERT INTO favorites (user_id, file_id, favorited_at) VALUES (?, ?, ?) ON CONFLICT (user_id, file_id) DO NOTHING`,
		userID, fileID, at)
	if err != nil {
		return fmt.Errorf("inserting favorite: %w", err)
	}
	return nil
}

func (s *SQLStore) DeleteFavorite(ctx context.Context, userID, fileID string) error {
	_, err := s.exec(ctx, `DELETE FROM favorites WHERE user_id = ? AND file_id = ?`, userID, fileID)
	if err != nil {
		return fmt.Errorf("deleting favorite: %w", err)
	}
	return nil
}

func (s *SQLStore) ListFavorites(ctx context.Context, userID string) ([]*mb.FavoriteRow, error) {
	rows, err := s.query(ctx,
		`SELECT `+fileColumnsAs+`, fav.favorited_at
		FROM favorites fav
		JOIN files f ON f.id = fav.file_id
		WHERE fav.user_id = ?
		ORDER BY fav.favorited_at DESC, f.id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("listing favorites: %w", err)
	}
	defer rows.Close()

	var favorites []*mb.FavoriteRow
	for rows.Next() {
		var at time.Time
		file, err := scanFile(rows, &at)
		if err != nil {
			return nil, fmt.Errorf("scanning favorite: %w", err)
		}
		favorites = append(favorites, &mb.FavoriteRow{File: *file, FavoritedAt: at.UTC()})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing favorites: %w", err)
	}
	return favorites, nil
}

// Compile-time check that SQLStore implements mb.RecordStore interface
var _ mb.RecordStore = (*SQLStore)(nil)
