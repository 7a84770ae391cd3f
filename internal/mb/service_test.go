package mb_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mediabox/internal/mb"
)

func folderNames(folders []*mb.Folder) []string {
	names := make([]string, 0, len(folders))
	for _, f := range folders {
		names = append(names, f.Name)
	}
	return names
}

func TestMBService_RequiresSignIn(t *testing.T) {
	ctx := context.Background()
	env := newServiceEnv(t, nil)

	checks := []struct {
		name string
		call func() error
	}{
		{"CreateFolder", func() error { _, err := env.svc.CreateFolder(ctx, "Trips", ""); return err }},
		{"ListFolders", func() error { _, err := env.svc.ListFolders(ctx, ""); return err }},
		{"AddNote", func() error { _, err := env.svc.AddNote(ctx, "todo", "milk"); return err }},
		{"UploadFile", func() error { _, err := env.svc.UploadFile(ctx, "", 0, "/x.png"); return err }},
		{"RecentFiles", func() error { _, err := env.svc.RecentFiles(ctx); return err }},
		{"ToggleFavorite", func() error { _, err := env.svc.ToggleFavorite(ctx, "f1"); return err }},
		{"LoadFavorites", func() error { _, err := env.svc.LoadFavorites(ctx); return err }},
		{"StorageUsage", func() error { _, err := env.svc.StorageUsage(ctx); return err }},
	}
	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			if err := c.call(); !errors.Is(err, mb.ErrNotSignedIn) {
				t.Errorf("%s error = %v, want ErrNotSignedIn", c.name, err)
			}
		})
	}
}

func TestMBService_Folders(t *testing.T) {
	ctx := context.Background()
	env := newServiceEnv(t, nil)
	env.signUp(t, "ana@example.com")

	if _, err := env.svc.CreateFolder(ctx, "  ", ""); err == nil {
		t.Fatal("CreateFolder() with blank name expected error")
	}

	for _, name := range []string{"Summer Trip", "Recipes", "Winter trip"} {
		if _, err := env.svc.CreateFolder(ctx, name, "desc"); err != nil {
			t.Fatalf("CreateFolder(%s) error = %v", name, err)
		}
	}

	all, err := env.svc.ListFolders(ctx, "")
	if err != nil {
		t.Fatalf("ListFolders() error = %v", err)
	}
	if diff := cmp.Diff([]string{"Winter trip", "Recipes", "Summer Trip"}, folderNames(all)); diff != "" {
		t.Errorf("ListFolders() mismatch (-want +got):\n%s", diff)
	}

	trips, err := env.svc.ListFolders(ctx, "TRIP")
	if err != nil {
		t.Fatalf("ListFolders(TRIP) error = %v", err)
	}
	if diff := cmp.Diff([]string{"Winter trip", "Summer Trip"}, folderNames(trips)); diff != "" {
		t.Errorf("ListFolders(TRIP) mismatch (-want +got):\n%s", diff)
	}

	updated, err := env.svc.UpdateFolder(ctx, all[1].ID, "Cooking", "")
	if err != nil {
		t.Fatalf("UpdateFolder() error = %v", err)
	}
	if updated.Name != "Cooking" || updated.Description != "" {
		t.Errorf("UpdateFolder() = %+v", updated)
	}
}

func TestMBService_FoldersAreScopedToOwner(t *testing.T) {
	ctx := context.Background()
	env := newServiceEnv(t, nil)

	env.signUp(t, "ana@example.com")
	folder, err := env.svc.CreateFolder(ctx, "Private", "")
	if err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}

	env.signUp(t, "ben@example.com")
	if _, err := env.svc.OpenFolder(ctx, folder.ID); !errors.Is(err, mb.ErrNotFound) {
		t.Errorf("OpenFolder() of other user's folder error = %v, want ErrNotFound", err)
	}
	if err := env.svc.DeleteFolder(ctx, folder.ID); !errors.Is(err, mb.ErrNotFound) {
		t.Errorf("DeleteFolder() of other user's folder error = %v, want ErrNotFound", err)
	}
	folders, err := env.svc.ListFolders(ctx, "")
	if err != nil {
		t.Fatalf("ListFolders() error = %v", err)
	}
	if len(folders) != 0 {
		t.Errorf("ListFolders() = %v, want none", folderNames(folders))
	}
}

func TestMBService_OpenAndCloseFolder(t *testing.T) {
	ctx := context.Background()
	env := newServiceEnv(t, nil)
	env.signUp(t, "ana@example.com")

	folder, err := env.svc.CreateFolder(ctx, "Trips", "")
	if err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}
	if _, err := env.svc.OpenFolder(ctx, folder.ID); err != nil {
		t.Fatalf("OpenFolder() error = %v", err)
	}

	note, err := env.svc.AddNote(ctx, "packing list", "socks")
	if err != nil {
		t.Fatalf("AddNote() error = %v", err)
	}
	if note.FolderID != folder.ID {
		t.Errorf("note FolderID = %q, want %q", note.FolderID, folder.ID)
	}

	current, err := env.svc.CurrentFolder(ctx)
	if err != nil || current == nil || current.ID != folder.ID {
		t.Fatalf("CurrentFolder() = %v, %v", current, err)
	}

	if err := env.svc.CloseFolder(); err != nil {
		t.Fatalf("CloseFolder() error = %v", err)
	}
	rootNote, err := env.svc.AddNote(ctx, "loose", "")
	if err != nil {
		t.Fatalf("AddNote() error = %v", err)
	}
	if rootNote.FolderID != "" {
		t.Errorf("note at root has FolderID %q", rootNote.FolderID)
	}

	inFolder, err := env.svc.ListFiles(ctx, folder.ID)
	if err != nil {
		t.Fatalf("ListFiles(folder) error = %v", err)
	}
	atRoot, err := env.svc.ListFiles(ctx, "")
	if err != nil {
		t.Fatalf("ListFiles(root) error = %v", err)
	}
	if len(inFolder) != 1 || inFolder[0].ID != note.ID || len(atRoot) != 1 || atRoot[0].ID != rootNote.ID {
		t.Errorf("ListFiles() folder=%d root=%d", len(inFolder), len(atRoot))
	}
}

func TestMBService_DeleteFolder(t *testing.T) {
	ctx := context.Background()
	env := newServiceEnv(t, nil)
	env.signUp(t, "ana@example.com")
	env.fsmgr.AddFile("/home/ana/beach.jpg", []byte("jpeg-bytes"))

	folder, err := env.svc.CreateFolder(ctx, "Trips", "")
	if err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}
	if _, err := env.svc.OpenFolder(ctx, folder.ID); err != nil {
		t.Fatalf("OpenFolder() error = %v", err)
	}
	img, err := env.svc.UploadFile(ctx, "", 0, "/home/ana/beach.jpg")
	if err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}
	if _, err := env.svc.ToggleFavorite(ctx, img.ID); err != nil {
		t.Fatalf("ToggleFavorite() error = %v", err)
	}
	env.sync(t)

	if err := env.svc.DeleteFolder(ctx, folder.ID); err != nil {
		t.Fatalf("DeleteFolder() error = %v", err)
	}

	if env.state.CurrentFolder() != "" {
		t.Error("deleted folder is still open")
	}
	if keys := env.blobs.Keys(); len(keys) != 0 {
		t.Errorf("stored objects left behind: %v", keys)
	}
	if f, err := env.records.FindFileByID(ctx, img.ID); err != nil || f != nil {
		t.Errorf("FindFileByID() = %v, %v; want nil, nil", f, err)
	}

	// The cache is only corrected by the next refresh.
	if ok, _ := env.svc.FavoriteStatus(img.ID); !ok {
		t.Error("favorite dropped before refresh")
	}
	entries, err := env.svc.LoadFavorites(ctx)
	if err != nil {
		t.Fatalf("LoadFavorites() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("LoadFavorites() = %+v, want none", entries)
	}
}

func TestMBService_CurrentFolderVanished(t *testing.T) {
	ctx := context.Background()
	env := newServiceEnv(t, nil)
	env.signUp(t, "ana@example.com")

	folder, err := env.svc.CreateFolder(ctx, "Trips", "")
	if err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}
	if _, err := env.svc.OpenFolder(ctx, folder.ID); err != nil {
		t.Fatalf("OpenFolder() error = %v", err)
	}
	if err := env.records.DeleteFolder(ctx, folder.ID); err != nil {
		t.Fatalf("records.DeleteFolder() error = %v", err)
	}

	current, err := env.svc.CurrentFolder(ctx)
	if err != nil {
		t.Fatalf("CurrentFolder() error = %v", err)
	}
	if current != nil || env.state.CurrentFolder() != "" {
		t.Errorf("vanished folder not closed: %v", current)
	}
}

func TestMBService_RecentFilesAndUsage(t *testing.T) {
	ctx := context.Background()
	env := newServiceEnv(t, nil)
	env.signUp(t, "ana@example.com")
	env.svc.SetRecentLimit(2)

	env.fsmgr.AddFile("/in/a.png", make([]byte, 100))
	env.fsmgr.AddFile("/in/b.mp3", make([]byte, 250))
	if _, err := env.svc.UploadFile(ctx, "", 0, "/in/a.png"); err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}
	if _, err := env.svc.AddNote(ctx, "note", "text"); err != nil {
		t.Fatalf("AddNote() error = %v", err)
	}
	last, err := env.svc.UploadFile(ctx, "", 0, "/in/b.mp3")
	if err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}

	recent, err := env.svc.RecentFiles(ctx)
	if err != nil {
		t.Fatalf("RecentFiles() error = %v", err)
	}
	if len(recent) != 2 || recent[0].ID != last.ID || recent[1].Name != "note" {
		t.Errorf("RecentFiles() = %v", recent)
	}

	usage, err := env.svc.StorageUsage(ctx)
	if err != nil {
		t.Fatalf("StorageUsage() error = %v", err)
	}
	if usage != 350 {
		t.Errorf("StorageUsage() = %d, want 350", usage)
	}
}

func TestMBService_UnfavoriteWithRecordStoreDown(t *testing.T) {
	ctx := context.Background()
	env := newServiceEnv(t, nil)
	records := &unreachableRecords{RecordStore: env.records}
	env.wire(records, env.blobs)
	user := env.signUp(t, "ana@example.com")

	note, err := env.svc.AddNote(ctx, "todo", "buy milk")
	if err != nil {
		t.Fatalf("AddNote() error = %v", err)
	}
	if fav, err := env.svc.ToggleFavorite(ctx, note.ID); err != nil || !fav {
		t.Fatalf("ToggleFavorite() = %v, %v; want true, nil", fav, err)
	}
	env.sync(t)

	records.setDown(true)
	fav, err := env.svc.ToggleFavorite(ctx, note.ID)
	if err != nil {
		t.Fatalf("ToggleFavorite() with file lookups failing error = %v", err)
	}
	if fav {
		t.Error("ToggleFavorite() = true, want false")
	}
	if status, _ := env.svc.FavoriteStatus(note.ID); status {
		t.Error("FavoriteStatus() = true after unfavoriting")
	}
	env.sync(t)

	rows, err := env.records.ListFavorites(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListFavorites() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("ListFavorites() = %d rows, want 0", len(rows))
	}

	// Favoriting needs the file details, so it still reports the failure
	// and leaves the cache alone.
	if _, err := env.svc.ToggleFavorite(ctx, note.ID); err == nil {
		t.Error("ToggleFavorite() on with file lookups failing, want error")
	}
	if env.svc.Favorites().IsFavorite(note.ID) {
		t.Error("cache changed by a failed favorite")
	}
}
