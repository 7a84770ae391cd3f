package mb

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultRecentLimit is the number of files RecentFiles returns unless
// configured otherwise.
const DefaultRecentLimit = 20

// MBService is the orchestration layer behind the CLI. It coordinates the
// record store, the blob store, the local favorites cache and app state on
// behalf of the signed-in user.
type MBService struct {
	records   RecordStore
	blobs     BlobStore
	state     *AppState
	favorites *FavoritesCache
	fsmgr     FilesystemManager
	encryptor Encryptor
	logger    Logger
	clock     Clock
	idgen     IDGenerator

	recentLimit int
}

// NewMBService creates a new MBService with the provided dependencies.
// A nil encryptor stores uploads in plaintext.
func NewMBService(records RecordStore, blobs BlobStore, state *AppState, favorites *FavoritesCache, fsmgr FilesystemManager, encryptor Encryptor, logger Logger, clock Clock, idgen IDGenerator) *MBService {
	return &MBService{
		records:     records,
		blobs:       blobs,
		state:       state,
		favorites:   favorites,
		fsmgr:       fsmgr,
		encryptor:   encryptor,
		logger:      logger,
		clock:       clock,
		idgen:       idgen,
		recentLimit: DefaultRecentLimit,
	}
}

// SetRecentLimit changes how many files RecentFiles returns. Non-positive
// values are ignored.
func (s *MBService) SetRecentLimit(n int) {
	if n > 0 {
		s.recentLimit = n
	}
}

// State returns the app state the service reads the current user from.
func (s *MBService) State() *AppState { return s.state }

// Favorites returns the local favorites cache.
func (s *MBService) Favorites() *FavoritesCache { return s.favorites }

func (s *MBService) requireUser() (CurrentUser, error) {
	user, ok := s.state.CurrentUser()
	if !ok {
		return CurrentUser{}, ErrNotSignedIn
	}
	return user, nil
}

// CreateFolder creates a folder owned by the current user.
func (s *MBService) CreateFolder(ctx context.Context, name, description string) (*Folder, error) {
	user, err := s.requireUser()
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newValidationError("name", "is required")
	}

	folder := &Folder{
		ID:          s.idgen.New(),
		UserID:      user.ID,
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   s.clock.Now(),
	}
	if err := s.records.CreateFolder(ctx, folder); err != nil {
		return nil, fmt.Errorf("creating folder: %w", err)
	}

	s.logger.Info("folder created", "folder_id", folder.ID)
	return folder, nil
}

// UpdateFolder renames a folder and replaces its description.
func (s *MBService) UpdateFolder(ctx context.Context, id, name, description string) (*Folder, error) {
	folder, err := s.ownedFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newValidationError("name", "is required")
	}

	folder.Name = name
	folder.Description = strings.TrimSpace(description)
	if err := s.records.UpdateFolder(ctx, folder); err != nil {
		return nil, fmt.Errorf("updating folder: %w", err)
	}

	s.logger.Info("folder updated", "folder_id", folder.ID)
	return folder, nil
}

// DeleteFolder removes a folder with all of its files. The record store
// cascades to the favorites rows; stored objects are removed best-effort.
func (s *MBService) DeleteFolder(ctx context.Context, id string) error {
	folder, err := s.ownedFolder(ctx, id)
	if err != nil {
		return err
	}

	files, err := s.records.ListFilesByFolder(ctx, folder.UserID, folder.ID)
	if err != nil {
		return fmt.Errorf("listing folder files: %w", err)
	}

	if err := s.records.DeleteFolder(ctx, folder.ID); err != nil {
		return fmt.Errorf("deleting folder: %w", err)
	}

	for _, f := range files {
		s.deleteBlob(ctx, f)
	}

	if s.state.CurrentFolder() == folder.ID {
		if err := s.state.SetCurrentFolder(""); err != nil {
			return err
		}
	}

	s.logger.Info("folder deleted", "folder_id", folder.ID, "files", len(files))
	return nil
}

// ListFolders returns the current user's folders, newest first, keeping
// only names containing search when it is non-empty.
func (s *MBService) ListFolders(ctx context.Context, search string) ([]*Folder, error) {
	user, err := s.requireUser()
	if err != nil {
		return nil, err
	}
	folders, err := s.records.ListFolders(ctx, user.ID, strings.TrimSpace(search))
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	return folders, nil
}

// OpenFolder makes id the folder new files are added to.
func (s *MBService) OpenFolder(ctx context.Context, id string) (*Folder, error) {
	folder, err := s.ownedFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.state.SetCurrentFolder(folder.ID); err != nil {
		return nil, err
	}
	return folder, nil
}

// CloseFolder returns to the root.
func (s *MBService) CloseFolder() error {
	return s.state.SetCurrentFolder("")
}

// CurrentFolder returns the open folder, or nil at the root. A folder that
// has disappeared since it was opened is closed.
func (s *MBService) CurrentFolder(ctx context.Context) (*Folder, error) {
	id := s.state.CurrentFolder()
	if id == "" {
		return nil, nil
	}
	folder, err := s.ownedFolder(ctx, id)
	if errors.Is(err, ErrNotFound) {
		s.logger.Warn("current folder no longer exists", "folder_id", id)
		return nil, s.state.SetCurrentFolder("")
	}
	if err != nil {
		return nil, err
	}
	return folder, nil
}

// ownedFolder loads a folder of the current user. Folders of other users
// are reported as ErrNotFound.
func (s *MBService) ownedFolder(ctx context.Context, id string) (*Folder, error) {
	user, err := s.requireUser()
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, newValidationError("folder_id", "is required")
	}
	folder, err := s.records.FindFolderByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding folder: %w", err)
	}
	if folder == nil || folder.UserID != user.ID {
		return nil, ErrNotFound
	}
	return folder, nil
}

// ownedFile loads a file of the current user.
func (s *MBService) ownedFile(ctx context.Context, id string) (*File, error) {
	user, err := s.requireUser()
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, newValidationError("file_id", "is required")
	}
	file, err := s.records.FindFileByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding file: %w", err)
	}
	if file == nil || file.UserID != user.ID {
		return nil, ErrNotFound
	}
	return file, nil
}

// StorageUsage returns the total size in bytes of the current user's uploads.
func (s *MBService) StorageUsage(ctx context.Context) (int64, error) {
	user, err := s.requireUser()
	if err != nil {
		return 0, err
	}
	total, err := s.records.TotalFileSize(ctx, user.ID)
	if err != nil {
		return 0, fmt.Errorf("summing file sizes: %w", err)
	}
	return total, nil
}
