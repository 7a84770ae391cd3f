package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"mediabox/internal/mb"
)

var baseTime = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// newTestStore creates a new in-memory store with schema applied.
func newTestStore(t *testing.T) *SQLStore {
	t.Helper()

	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func createUser(t *testing.T, s *SQLStore, email string) *mb.User {
	t.Helper()
	u := &mb.User{ID: uuid.New().String(), Email: email, PasswordHash: "hash", CreatedAt: baseTime}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return u
}

func createFolder(t *testing.T, s *SQLStore, userID, name string, at time.Time) *mb.Folder {
	t.Helper()
	f := &mb.Folder{ID: uuid.New().String(), UserID: userID, Name: name, CreatedAt: at}
	if err := s.CreateFolder(context.Background(), f); err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}
	return f
}

func createFile(t *testing.T, s *SQLStore, userID, folderID, name string, typ mb.MediaType, at time.Time) *mb.File {
	t.Helper()
	f := &mb.File{
		ID:        uuid.New().String(),
		UserID:    userID,
		FolderID:  folderID,
		Name:      name,
		Type:      typ,
		CreatedAt: at,
	}
	if typ == mb.MediaNote {
		f.Content = "content of " + name
	} else {
		f.StoragePath = fmt.Sprintf("%s/%d-%s", userID, at.UnixMilli(), name)
		f.Size = 100
	}
	if err := s.CreateFile(context.Background(), f); err != nil {
		t.Fatalf("CreateFile() error = %v", err)
	}
	return f
}

func TestSQLStore_Users(t *testing.T) {
	ctx := context.Background()

	t.Run("returns nil when user not found", func(t *testing.T) {
		s := newTestStore(t)

		u, err := s.FindUserByEmail(ctx, "nobody@example.com")
		if err != nil {
			t.Fatalf("FindUserByEmail() error = %v", err)
		}
		if u != nil {
			t.Errorf("FindUserByEmail() = %v, want nil", u)
		}
	})

	t.Run("finds created user", func(t *testing.T) {
		s := newTestStore(t)
		created := createUser(t, s, "a@example.com")

		byEmail, err := s.FindUserByEmail(ctx, "a@example.com")
		if err != nil {
			t.Fatalf("FindUserByEmail() error = %v", err)
		}
		if diff := cmp.Diff(created, byEmail); diff != "" {
			t.Errorf("FindUserByEmail() mismatch (-want +got):\n%s", diff)
		}

		byID, err := s.FindUserByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("FindUserByID() error = %v", err)
		}
		if byID == nil || byID.Email != "a@example.com" {
			t.Errorf("FindUserByID() = %v, want user a@example.com", byID)
		}
	})

	t.Run("email is unique", func(t *testing.T) {
		s := newTestStore(t)
		createUser(t, s, "a@example.com")

		dup := &mb.User{ID: "other", Email: "a@example.com", PasswordHash: "x", CreatedAt: baseTime}
		if err := s.CreateUser(ctx, dup); err == nil {
			t.Error("CreateUser() expected error for duplicate email")
		}
	})

	t.Run("updates password", func(t *testing.T) {
		s := newTestStore(t)
		u := createUser(t, s, "a@example.com")

		if err := s.UpdateUserPassword(ctx, u.ID, "new-hash"); err != nil {
			t.Fatalf("UpdateUserPassword() error = %v", err)
		}
		got, err := s.FindUserByID(ctx, u.ID)
		if err != nil {
			t.Fatalf("FindUserByID() error = %v", err)
		}
		if got.PasswordHash != "new-hash" {
			t.Errorf("PasswordHash = %q, want %q", got.PasswordHash, "new-hash")
		}

		if err := s.UpdateUserPassword(ctx, "missing", "x"); err == nil {
			t.Error("UpdateUserPassword() expected error for missing user")
		}
	})
}

func TestSQLStore_Folders(t *testing.T) {
	ctx := context.Background()

	t.Run("lists newest first", func(t *testing.T) {
		s := newTestStore(t)
		u := createUser(t, s, "a@example.com")
		other := createUser(t, s, "b@example.com")

		older := createFolder(t, s, u.ID, "Trips", baseTime)
		newer := createFolder(t, s, u.ID, "Recipes", baseTime.Add(time.Hour))
		createFolder(t, s, other.ID, "Not mine", baseTime.Add(2*time.Hour))

		got, err := s.ListFolders(ctx, u.ID, "")
		if err != nil {
			t.Fatalf("ListFolders() error = %v", err)
		}
		want := []*mb.Folder{newer, older}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("ListFolders() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("search is a case-insensitive substring", func(t *testing.T) {
		s := newTestStore(t)
		u := createUser(t, s, "a@example.com")
		createFolder(t, s, u.ID, "Summer Trips", baseTime)
		createFolder(t, s, u.ID, "Recipes", baseTime.Add(time.Hour))
		createFolder(t, s, u.ID, "100% done", baseTime.Add(2*time.Hour))

		tests := []struct {
			search string
			want   []string
		}{
			{"trip", []string{"Summer Trips"}},
			{"E", []string{"100% done", "Recipes", "Summer Trips"}},
			{"%", []string{"100% done"}},
			{"nothing", nil},
		}
		for _, tt := range tests {
			folders, err := s.ListFolders(ctx, u.ID, tt.search)
			if err != nil {
				t.Fatalf("ListFolders(%q) error = %v", tt.search, err)
			}
			var names []string
			for _, f := range folders {
				names = append(names, f.Name)
			}
			if diff := cmp.Diff(tt.want, names); diff != "" {
				t.Errorf("ListFolders(%q) mismatch (-want +got):\n%s", tt.search, diff)
			}
		}
	})

	t.Run("update and find", func(t *testing.T) {
		s := newTestStore(t)
		u := createUser(t, s, "a@example.com")
		f := createFolder(t, s, u.ID, "Old", baseTime)

		f.Name = "New"
		f.Description = "renamed"
		if err := s.UpdateFolder(ctx, f); err != nil {
			t.Fatalf("UpdateFolder() error = %v", err)
		}

		got, err := s.FindFolderByID(ctx, f.ID)
		if err != nil {
			t.Fatalf("FindFolderByID() error = %v", err)
		}
		if diff := cmp.Diff(f, got); diff != "" {
			t.Errorf("FindFolderByID() mismatch (-want +got):\n%s", diff)
		}

		missing, err := s.FindFolderByID(ctx, "missing")
		if err != nil || missing != nil {
			t.Errorf("FindFolderByID(missing) = (%v, %v), want (nil, nil)", missing, err)
		}
	})

	t.Run("delete cascades to files and favorites", func(t *testing.T) {
		s := newTestStore(t)
		u := createUser(t, s, "a@example.com")
		folder := createFolder(t, s, u.ID, "Trips", baseTime)
		inside := createFile(t, s, u.ID, folder.ID, "beach.png", mb.MediaImage, baseTime)
		outside := createFile(t, s, u.ID, "", "todo", mb.MediaNote, baseTime)

		if err := s.InsertFavorite(ctx, u.ID, inside.ID, baseTime); err != nil {
			t.Fatalf("InsertFavorite() error = %v", err)
		}
		if err := s.InsertFavorite(ctx, u.ID, outside.ID, baseTime); err != nil {
			t.Fatalf("InsertFavorite() error = %v", err)
		}

		if err := s.DeleteFolder(ctx, folder.ID); err != nil {
			t.Fatalf("DeleteFolder() error = %v", err)
		}

		if got, _ := s.FindFileByID(ctx, inside.ID); got != nil {
			t.Error("file inside deleted folder still exists")
		}
		if got, _ := s.FindFileByID(ctx, outside.ID); got == nil {
			t.Error("file outside deleted folder was removed")
		}

		favs, err := s.ListFavorites(ctx, u.ID)
		if err != nil {
			t.Fatalf("ListFavorites() error = %v", err)
		}
		if len(favs) != 1 || favs[0].File.ID != outside.ID {
			t.Errorf("ListFavorites() = %d rows, want only %s", len(favs), outside.ID)
		}
	})
}

func TestSQLStore_Files(t *testing.T) {
	ctx := context.Background()

	t.Run("round trips every field", func(t *testing.T) {
		s := newTestStore(t)
		u := createUser(t, s, "a@example.com")
		folder := createFolder(t, s, u.ID, "Trips", baseTime)

		want := &mb.File{
			ID:          "f1",
			UserID:      u.ID,
			FolderID:    folder.ID,
			Name:        "clip.mp4",
			Type:        mb.MediaVideo,
			StoragePath: u.ID + "/" + folder.ID + "/1714554000000-clip.mp4",
			Encrypted:   true,
			Size:        1 << 20,
			CreatedAt:   baseTime.Add(123 * time.Millisecond),
		}
		if err := s.CreateFile(ctx, want); err != nil {
			t.Fatalf("CreateFile() error = %v", err)
		}

		got, err := s.FindFileByID(ctx, "f1")
		if err != nil {
			t.Fatalf("FindFileByID() error = %v", err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("FindFileByID() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("lists by folder and root", func(t *testing.T) {
		s := newTestStore(t)
		u := createUser(t, s, "a@example.com")
		folder := createFolder(t, s, u.ID, "Trips", baseTime)

		a := createFile(t, s, u.ID, folder.ID, "a", mb.MediaNote, baseTime)
		b := createFile(t, s, u.ID, folder.ID, "b.pdf", mb.MediaPDF, baseTime.Add(time.Minute))
		root := createFile(t, s, u.ID, "", "root", mb.MediaNote, baseTime)

		inFolder, err := s.ListFilesByFolder(ctx, u.ID, folder.ID)
		if err != nil {
			t.Fatalf("ListFilesByFolder() error = %v", err)
		}
		if diff := cmp.Diff([]*mb.File{b, a}, inFolder); diff != "" {
			t.Errorf("ListFilesByFolder(folder) mismatch (-want +got):\n%s", diff)
		}

		atRoot, err := s.ListFilesByFolder(ctx, u.ID, "")
		if err != nil {
			t.Fatalf("ListFilesByFolder() error = %v", err)
		}
		if diff := cmp.Diff([]*mb.File{root}, atRoot); diff != "" {
			t.Errorf("ListFilesByFolder(root) mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("recent files respects limit and owner", func(t *testing.T) {
		s := newTestStore(t)
		u := createUser(t, s, "a@example.com")
		other := createUser(t, s, "b@example.com")

		var ids []string
		for i := 0; i < 5; i++ {
			f := createFile(t, s, u.ID, "", fmt.Sprintf("n%d", i), mb.MediaNote, baseTime.Add(time.Duration(i)*time.Minute))
			ids = append(ids, f.ID)
		}
		createFile(t, s, other.ID, "", "theirs", mb.MediaNote, baseTime.Add(time.Hour))

		got, err := s.ListRecentFiles(ctx, u.ID, 3)
		if err != nil {
			t.Fatalf("ListRecentFiles() error = %v", err)
		}
		var gotIDs []string
		for _, f := range got {
			gotIDs = append(gotIDs, f.ID)
		}
		if diff := cmp.Diff([]string{ids[4], ids[3], ids[2]}, gotIDs); diff != "" {
			t.Errorf("ListRecentFiles() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("total size", func(t *testing.T) {
		s := newTestStore(t)
		u := createUser(t, s, "a@example.com")

		total, err := s.TotalFileSize(ctx, u.ID)
		if err != nil {
			t.Fatalf("TotalFileSize() error = %v", err)
		}
		if total != 0 {
			t.Errorf("TotalFileSize() on empty = %d, want 0", total)
		}

		createFile(t, s, u.ID, "", "a.png", mb.MediaImage, baseTime)
		createFile(t, s, u.ID, "", "b.mp3", mb.MediaAudio, baseTime)
		createFile(t, s, u.ID, "", "note", mb.MediaNote, baseTime)

		total, err = s.TotalFileSize(ctx, u.ID)
		if err != nil {
			t.Fatalf("TotalFileSize() error = %v", err)
		}
		if total != 200 {
			t.Errorf("TotalFileSize() = %d, want 200", total)
		}
	})

	t.Run("delete removes favorites", func(t *testing.T) {
		s := newTestStore(t)
		u := createUser(t, s, "a@example.com")
		f := createFile(t, s, u.ID, "", "a", mb.MediaNote, baseTime)
		if err := s.InsertFavorite(ctx, u.ID, f.ID, baseTime); err != nil {
			t.Fatalf("InsertFavorite() error = %v", err)
		}

		if err := s.DeleteFile(ctx, f.ID); err != nil {
			t.Fatalf("DeleteFile() error = %v", err)
		}

		favs, err := s.ListFavorites(ctx, u.ID)
		if err != nil {
			t.Fatalf("ListFavorites() error = %v", err)
		}
		if len(favs) != 0 {
			t.Errorf("ListFavorites() = %d rows after file delete, want 0", len(favs))
		}
	})
}

func TestSQLStore_Favorites(t *testing.T) {
	ctx := context.Background()

	t.Run("lists joined rows newest first", func(t *testing.T) {
		s := newTestStore(t)
		u := createUser(t, s, "a@example.com")
		note := createFile(t, s, u.ID, "", "x", mb.MediaNote, baseTime)
		img := createFile(t, s, u.ID, "", "cat.png", mb.MediaImage, baseTime)

		if err := s.InsertFavorite(ctx, u.ID, note.ID, baseTime.Add(time.Minute)); err != nil {
			t.Fatalf("InsertFavorite() error = %v", err)
		}
		if err := s.InsertFavorite(ctx, u.ID, img.ID, baseTime.Add(2*time.Minute)); err != nil {
			t.Fatalf("InsertFavorite() error = %v", err)
		}

		got, err := s.ListFavorites(ctx, u.ID)
		if err != nil {
			t.Fatalf("ListFavorites() error = %v", err)
		}
		want := []*mb.FavoriteRow{
			{File: *img, FavoritedAt: baseTime.Add(2 * time.Minute)},
			{File: *note, FavoritedAt: baseTime.Add(time.Minute)},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("ListFavorites() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("duplicate insert is a no-op", func(t *testing.T) {
		s := newTestStore(t)
		u := createUser(t, s, "a@example.com")
		f := createFile(t, s, u.ID, "", "x", mb.MediaNote, baseTime)

		if err := s.InsertFavorite(ctx, u.ID, f.ID, baseTime); err != nil {
			t.Fatalf("InsertFavorite() error = %v", err)
		}
		if err := s.InsertFavorite(ctx, u.ID, f.ID, baseTime.Add(time.Hour)); err != nil {
			t.Fatalf("second InsertFavorite() error = %v", err)
		}

		got, err := s.ListFavorites(ctx, u.ID)
		if err != nil {
			t.Fatalf("ListFavorites() error = %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("ListFavorites() = %d rows, want 1", len(got))
		}
		if !got[0].FavoritedAt.Equal(baseTime) {
			t.Errorf("FavoritedAt = %v, want original %v", got[0].FavoritedAt, baseTime)
		}
	})

	t.Run("delete missing pair is a no-op", func(t *testing.T) {
		s := newTestStore(t)
		if err := s.DeleteFavorite(ctx, "u", "f"); err != nil {
			t.Errorf("DeleteFavorite() error = %v", err)
		}
	})

	t.Run("insert for missing file fails", func(t *testing.T) {
		s := newTestStore(t)
		u := createUser(t, s, "a@example.com")
		if err := s.InsertFavorite(ctx, u.ID, "missing", baseTime); err == nil {
			t.Error("InsertFavorite() expected foreign key error")
		}
	})

	t.Run("scoped to user", func(t *testing.T) {
		s := newTestStore(t)
		u := createUser(t, s, "a@example.com")
		other := createUser(t, s, "b@example.com")
		f := createFile(t, s, u.ID, "", "x", mb.MediaNote, baseTime)
		if err := s.InsertFavorite(ctx, u.ID, f.ID, baseTime); err != nil {
			t.Fatalf("InsertFavorite() error = %v", err)
		}

		got, err := s.ListFavorites(ctx, other.ID)
		if err != nil {
			t.Fatalf("ListFavorites() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("ListFavorites(other) = %d rows, want 0", len(got))
		}
	})
}

func TestSQLStore_CheckMigrations(t *testing.T) {
	s := newTestStore(t)
	if err := s.CheckMigrations(); err != nil {
		t.Errorf("CheckMigrations() error = %v", err)
	}
}
