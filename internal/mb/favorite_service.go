package mb

import (
	"context"
	"fmt"
)

// ToggleFavorite flips the favorite state of a file of the current user and
// reports whether it is now a favorite. The local cache changes at once;
// the record store follows in the background.
//
// Unfavoriting a cached file never reads the record store, so it works
// offline and clears entries of files that no longer exist. Favoriting
// looks the file up for its snapshot and fails with ErrNotFound for a
// missing file.
func (s *MBService) ToggleFavorite(ctx context.Context, fileID string) (bool, error) {
	user, err := s.requireUser()
	if err != nil {
		return false, err
	}
	if fileID == "" {
		return false, newValidationError("file_id", "is required")
	}

	if s.favorites.IsFavorite(fileID) {
		favorited, err := s.favorites.Toggle(ctx, user.ID, fileID, FileSnapshot{})
		if err != nil {
			return false, err
		}
		s.logger.Info("favorite toggled", "file_id", fileID, "favorite", favorited)
		return favorited, nil
	}

	file, err := s.ownedFile(ctx, fileID)
	if err != nil {
		return false, err
	}

	favorited, err := s.favorites.Toggle(ctx, user.ID, file.ID, file.Snapshot())
	if err != nil {
		return false, err
	}
	s.logger.Info("favorite toggled", "file_id", file.ID, "favorite", favorited)
	return favorited, nil
}

// LoadFavorites replaces the local cache with the favorites in the record
// store. On a *RemoteReadError the cache keeps its previous contents.
func (s *MBService) LoadFavorites(ctx context.Context) ([]FavoriteEntry, error) {
	user, err := s.requireUser()
	if err != nil {
		return nil, err
	}
	entries, err := s.favorites.RefreshFromRemote(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("favorites refreshed", "count", len(entries))
	return entries, nil
}

// FavoriteStatus reports whether the cache holds fileID, without a round
// trip to the record store.
func (s *MBService) FavoriteStatus(fileID string) (bool, error) {
	if fileID == "" {
		return false, newValidationError("file_id", "is required")
	}
	return s.favorites.IsFavorite(fileID), nil
}

// FavoriteEntries returns the cached favorites without contacting the
// record store.
func (s *MBService) FavoriteEntries() []FavoriteEntry {
	return s.favorites.Entries()
}

// WaitForSync waits for dispatched favorite writes to finish.
func (s *MBService) WaitForSync(ctx context.Context) error {
	if err := s.favorites.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for favorite sync: %w", err)
	}
	return nil
}
