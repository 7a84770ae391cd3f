package mb

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// AddNote creates a text note in the open folder.
func (s *MBService) AddNote(ctx context.Context, name, content string) (*File, error) {
	user, err := s.requireUser()
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newValidationError("name", "is required")
	}

	file := &File{
		ID:        s.idgen.New(),
		UserID:    user.ID,
		FolderID:  s.state.CurrentFolder(),
		Name:      name,
		Type:      MediaNote,
		Content:   content,
		CreatedAt: s.clock.Now(),
	}
	if err := s.records.CreateFile(ctx, file); err != nil {
		return nil, fmt.Errorf("creating note: %w", err)
	}

	s.logger.Info("note added", "file_id", file.ID, "folder_id", file.FolderID)
	return file, nil
}

// UploadFile stores the local file at rawPath in the blob store and records
// it in the open folder. A zero typ is inferred from the file name, and an
// empty name defaults to the file's base name. Input problems are reported
// as *ValidationError before anything is stored.
func (s *MBService) UploadFile(ctx context.Context, name string, typ MediaType, rawPath string) (*File, error) {
	user, err := s.requireUser()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rawPath) == "" {
		return nil, newValidationError("file", "choose a file to upload")
	}

	src, err := s.fsmgr.Resolve(rawPath)
	if err != nil {
		return nil, newValidationError("file", err.Error())
	}
	if src.IsDir() {
		return nil, newValidationError("file", fmt.Sprintf("%s is a directory", src))
	}

	return s.upload(ctx, user, s.state.CurrentFolder(), name, typ, src)
}

func (s *MBService) upload(ctx context.Context, user CurrentUser, folderID, name string, typ MediaType, src *Path) (*File, error) {
	if typ == MediaNote {
		return nil, newValidationError("type", "notes are written inline, not uploaded")
	}
	mimeType := MIMETypeForFile(src.Base())
	if typ == 0 {
		inferred, ok := MediaTypeForFile(src.Base())
		if !ok {
			return nil, newValidationError("type", fmt.Sprintf("cannot infer media type of %s (%s)", src.Base(), mimeType))
		}
		typ = inferred
	}
	if !typ.Valid() {
		return nil, newValidationError("type", fmt.Sprintf("unknown media type %d", uint8(typ)))
	}
	if !typ.AcceptsMIME(mimeType) {
		return nil, newValidationError("file", fmt.Sprintf("%s (%s) is not a valid %s", src.Base(), mimeType, typ))
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = src.Base()
	}

	now := s.clock.Now()
	file := &File{
		ID:          s.idgen.New(),
		UserID:      user.ID,
		FolderID:    folderID,
		Name:        name,
		Type:        typ,
		StoragePath: storageKey(user.ID, folderID, now.UnixMilli(), src.Base()),
		Encrypted:   s.encryptor != nil,
		Size:        src.Size(),
		CreatedAt:   now,
	}

	if err := s.putBlob(ctx, file.StoragePath, src, mimeType); err != nil {
		// Remote stores can report a failure after the object was written.
		s.deleteBlob(ctx, file)
		return nil, err
	}

	if err := s.records.CreateFile(ctx, file); err != nil {
		// The object is orphaned; remove it so it does not count as usage.
		s.deleteBlob(ctx, file)
		return nil, fmt.Errorf("recording upload: %w", err)
	}

	s.logger.Info("file uploaded", "file_id", file.ID, "type", typ.String(), "size", file.Size, "key", file.StoragePath)
	return file, nil
}

// storageKey builds the blob key <user>/<folder|root>/<unix_ms>-<name>.
func storageKey(userID, folderID string, unixMilli int64, base string) string {
	if folderID == "" {
		folderID = "root"
	}
	return path.Join(userID, folderID, fmt.Sprintf("%d-%s", unixMilli, base))
}

// putBlob uploads src under key, encrypting it first when an encryptor is
// configured. Ciphertext is spooled to a temp file because the blob store
// needs the size up front.
func (s *MBService) putBlob(ctx context.Context, key string, src *Path, contentType string) error {
	r, err := s.fsmgr.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer r.Close()

	if s.encryptor == nil {
		if err := s.blobs.Put(ctx, key, r, src.Size(), contentType); err != nil {
			return fmt.Errorf("storing %s: %w", src, err)
		}
		return nil
	}

	tmp, err := os.CreateTemp("", "mb-upload-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := s.encryptor.Encrypt(r, tmp); err != nil {
		return fmt.Errorf("encrypting %s: %w", src, err)
	}
	size, err := tmp.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("sizing ciphertext: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding ciphertext: %w", err)
	}
	if err := s.blobs.Put(ctx, key, tmp, size, "application/octet-stream"); err != nil {
		return fmt.Errorf("storing %s: %w", src, err)
	}
	return nil
}

// deleteBlob removes the stored object of f, if it has one. Failures are
// logged and otherwise ignored.
func (s *MBService) deleteBlob(ctx context.Context, f *File) {
	if f.StoragePath == "" {
		return
	}
	if err := s.blobs.Delete(ctx, f.StoragePath); err != nil {
		s.logger.Warn("failed to delete stored object", "file_id", f.ID, "key", f.StoragePath, "error", err)
	}
}

// ImportResult counts the outcome of ImportDirectory.
type ImportResult struct {
	Imported []*File
	Ignored  int
	Skipped  int // files whose media type could not be inferred
}

// ImportDirectory uploads every media file under dir into the open folder.
// Files matching the ignore rules are left out, and so are files that are
// not images, videos, PDFs or audio.
func (s *MBService) ImportDirectory(ctx context.Context, rawDir string, recursive bool) (*ImportResult, error) {
	user, err := s.requireUser()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rawDir) == "" {
		return nil, newValidationError("dir", "is required")
	}
	dir, err := s.fsmgr.Resolve(rawDir)
	if err != nil {
		return nil, newValidationError("dir", err.Error())
	}
	if !dir.IsDir() {
		return nil, newValidationError("dir", fmt.Sprintf("%s is not a directory", dir))
	}

	paths, err := s.fsmgr.FindFiles(dir, recursive)
	if err != nil {
		return nil, fmt.Errorf("finding files: %w", err)
	}

	folderID := s.state.CurrentFolder()
	result := &ImportResult{}
	for _, p := range paths {
		ignored, err := s.fsmgr.IsIgnored(p, dir.String())
		if err != nil {
			return result, fmt.Errorf("checking ignore rules: %w", err)
		}
		if ignored {
			result.Ignored++
			continue
		}
		if _, ok := MediaTypeForFile(p.Base()); !ok {
			s.logger.Debug("skipping non-media file", "path", p.String())
			result.Skipped++
			continue
		}

		file, err := s.upload(ctx, user, folderID, "", 0, p)
		if err != nil {
			return result, fmt.Errorf("importing %s: %w", p, err)
		}
		result.Imported = append(result.Imported, file)
	}

	s.logger.Info("directory imported", "dir", dir.String(), "imported", len(result.Imported), "ignored", result.Ignored, "skipped", result.Skipped)
	return result, nil
}

// ListFiles returns the files of a folder, newest first. An empty folderID
// lists the files outside any folder.
func (s *MBService) ListFiles(ctx context.Context, folderID string) ([]*File, error) {
	user, err := s.requireUser()
	if err != nil {
		return nil, err
	}
	if folderID != "" {
		if _, err := s.ownedFolder(ctx, folderID); err != nil {
			return nil, err
		}
	}
	files, err := s.records.ListFilesByFolder(ctx, user.ID, folderID)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	return files, nil
}

// RecentFiles returns the current user's most recently added files.
func (s *MBService) RecentFiles(ctx context.Context) ([]*File, error) {
	user, err := s.requireUser()
	if err != nil {
		return nil, err
	}
	files, err := s.records.ListRecentFiles(ctx, user.ID, s.recentLimit)
	if err != nil {
		return nil, fmt.Errorf("listing recent files: %w", err)
	}
	return files, nil
}

// DeleteFile removes the stored object of a file, best-effort, and then its
// record. The favorites cache is not touched; the next refresh drops the
// entry.
func (s *MBService) DeleteFile(ctx context.Context, id string) error {
	file, err := s.ownedFile(ctx, id)
	if err != nil {
		return err
	}

	s.deleteBlob(ctx, file)
	if err := s.records.DeleteFile(ctx, file.ID); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}

	s.logger.Info("file deleted", "file_id", file.ID)
	return nil
}

// View renders a file for the media viewer.
func (s *MBService) View(ctx context.Context, id string) (View, error) {
	file, err := s.ownedFile(ctx, id)
	if err != nil {
		return View{}, err
	}
	renderer, err := file.Type.Renderer()
	if err != nil {
		return View{}, err
	}

	var source string
	if file.StoragePath != "" {
		source = s.blobs.URL(file.StoragePath)
	}
	view := renderer.Render(file, source)
	view.Favorite = s.favorites.IsFavorite(file.ID)
	return view, nil
}

// Preview returns the one-line summary shown on a file card.
func Preview(f *File) string {
	renderer, err := f.Type.Renderer()
	if err != nil {
		return ""
	}
	return renderer.Preview(f)
}

// Download writes the content of a file to w. Notes write their text.
// Encrypted objects need dec; a nil dec is an error for them.
func (s *MBService) Download(ctx context.Context, id string, w io.Writer, dec DecryptionContext) (*File, error) {
	file, err := s.ownedFile(ctx, id)
	if err != nil {
		return nil, err
	}

	if file.Type == MediaNote {
		if _, err := io.WriteString(w, file.Content); err != nil {
			return nil, fmt.Errorf("writing note: %w", err)
		}
		return file, nil
	}

	if !file.Encrypted {
		if err := s.blobs.Get(ctx, file.StoragePath, w); err != nil {
			return nil, fmt.Errorf("fetching %s: %w", file.StoragePath, err)
		}
		return file, nil
	}

	if dec == nil {
		return nil, fmt.Errorf("file %s: %w", file.ID, ErrPassphraseRequired)
	}

	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(s.blobs.Get(ctx, file.StoragePath, pw))
	}()
	if err := dec.Decrypt(pr, w); err != nil {
		pr.CloseWithError(err)
		return nil, fmt.Errorf("decrypting %s: %w", file.StoragePath, err)
	}
	return file, nil
}
