package mb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// FavoritesCache is the local, durable mirror of the current user's
// favorites. Toggles commit to the LocalStore before returning and are then
// pushed to the remote store in the background. A failed remote write is
// logged and forgotten: it is never rolled back and never retried, so the
// two sides may diverge until the next RefreshFromRemote.
type FavoritesCache struct {
	mu      sync.Mutex
	entries []FavoriteEntry

	local  LocalStore
	remote FavoritesRemote
	clock  Clock
	logger Logger

	inflight sync.WaitGroup
}

// NewFavoritesCache loads the cache persisted in local. A missing or
// unreadable document yields an empty cache.
func NewFavoritesCache(local LocalStore, remote FavoritesRemote, clock Clock, logger Logger) *FavoritesCache {
	c := &FavoritesCache{
		local:  local,
		remote: remote,
		clock:  clock,
		logger: logger,
	}

	var stored []FavoriteEntry
	found, err := local.Get(KeyFavorites, &stored)
	if err != nil {
		logger.Warn("discarding unreadable favorites cache", "error", err)
		stored = nil
	}
	if found && err == nil {
		c.entries = stored
	}
	return c
}

// IsFavorite reports whether fileID has an entry in the cache.
func (c *FavoritesCache) IsFavorite(fileID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return indexOf(c.entries, fileID) >= 0
}

// Entries returns a copy of the cache in its current order.
func (c *FavoritesCache) Entries() []FavoriteEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]FavoriteEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of cached favorites.
func (c *FavoritesCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Toggle adds fileID to the cache when absent and removes it when present.
// The new cache is persisted before Toggle returns; the matching remote
// insert or delete for (userID, fileID) is dispatched afterwards and its
// outcome only reaches the log. It returns true when the file is now a
// favorite.
//
// A persist failure leaves the cache unchanged and dispatches nothing.
func (c *FavoritesCache) Toggle(ctx context.Context, userID, fileID string, snap FileSnapshot) (bool, error) {
	if fileID == "" {
		return false, newValidationError("file_id", "is required")
	}

	c.mu.Lock()
	next := make([]FavoriteEntry, len(c.entries), len(c.entries)+1)
	copy(next, c.entries)

	var (
		favorited bool
		at        time.Time
	)
	if i := indexOf(next, fileID); i >= 0 {
		next = append(next[:i], next[i+1:]...)
	} else {
		at = c.clock.Now()
		next = append(next, FavoriteEntry{
			FileID:      fileID,
			Name:        snap.Name,
			Type:        snap.Type,
			StoragePath: snap.StoragePath,
			Content:     snap.Content,
			FavoritedAt: at,
		})
		favorited = true
	}

	if err := c.local.Put(KeyFavorites, next); err != nil {
		c.mu.Unlock()
		return false, fmt.Errorf("persisting favorites: %w", err)
	}
	c.entries = next
	c.mu.Unlock()

	if favorited {
		c.dispatch(ctx, "insert", userID, fileID, func(ctx context.Context) error {
			return c.remote.InsertFavorite(ctx, userID, fileID, at)
		})
	} else {
		c.dispatch(ctx, "delete", userID, fileID, func(ctx context.Context) error {
			return c.remote.DeleteFavorite(ctx, userID, fileID)
		})
	}
	return favorited, nil
}

// dispatch runs a remote write in its own goroutine. The write outlives the
// caller's context and has no deadline.
func (c *FavoritesCache) dispatch(ctx context.Context, op, userID, fileID string, write func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		if err := write(ctx); err != nil {
			werr := &RemoteWriteError{Op: op, UserID: userID, FileID: fileID, Err: err}
			c.logger.Error("favorite sync failed", "op", op, "file_id", fileID, "error", werr)
			return
		}
		c.logger.Debug("favorite synced", "op", op, "file_id", fileID)
	}()
}

// RefreshFromRemote replaces the cache with userID's favorites as stored
// remotely, newest first. An empty result clears the cache. When the query
// fails the cache is left as it was and a *RemoteReadError is returned.
func (c *FavoritesCache) RefreshFromRemote(ctx context.Context, userID string) ([]FavoriteEntry, error) {
	rows, err := c.remote.ListFavorites(ctx, userID)
	if err != nil {
		return nil, &RemoteReadError{Op: "list favorites", Err: err}
	}

	next := make([]FavoriteEntry, 0, len(rows))
	for _, row := range rows {
		next = append(next, entryFromRow(row))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.local.Put(KeyFavorites, next); err != nil {
		return nil, fmt.Errorf("persisting favorites: %w", err)
	}
	c.entries = next

	out := make([]FavoriteEntry, len(next))
	copy(out, next)
	return out, nil
}

// Badge returns the indicator shown next to a file in listings.
func (c *FavoritesCache) Badge(fileID string) string {
	if c.IsFavorite(fileID) {
		return "★"
	}
	return "☆"
}

// Wait blocks until every dispatched remote write has finished or ctx is
// done. It does not cancel the writes.
func (c *FavoritesCache) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("favorite writes still in flight"), ctx.Err())
	}
}

func indexOf(entries []FavoriteEntry, fileID string) int {
	for i := range entries {
		if entries[i].FileID == fileID {
			return i
		}
	}
	return -1
}
