package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"mediabox/internal/mb"
)

// ErrRemoteDown is the default failure injected by FakeRemote.
var ErrRemoteDown = errors.New("remote store unavailable")

// RemoteCall records one write received by FakeRemote.
type RemoteCall struct {
	Op     string // "insert" or "delete"
	UserID string
	FileID string
	At     time.Time
}

// FakeRemote is an in-memory mb.FavoritesRemote with failure injection.
// Rows written through it are visible to ListFavorites; Files supplies the
// file details the listing joins against.
type FakeRemote struct {
	mu    sync.Mutex
	rows  map[string]map[string]time.Time // user -> file -> favorited_at
	files map[string]mb.File
	calls []RemoteCall

	insertErr error
	deleteErr error
	listErr   error

	// gate, when set, blocks writes until it is closed.
	gate chan struct{}
}

func NewFakeRemote() *FakeRemote {
	return &FakeRemote{
		rows:  make(map[string]map[string]time.Time),
		files: make(map[string]mb.File),
	}
}

// AddFile makes a file available for joins.
func (r *FakeRemote) AddFile(f mb.File) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[f.ID] = f
}

// SetFavorite writes a row directly, bypassing call recording.
func (r *FakeRemote) SetFavorite(userID, fileID string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rows[userID] == nil {
		r.rows[userID] = make(map[string]time.Time)
	}
	r.rows[userID][fileID] = at
}

// FailInserts makes every InsertFavorite return err (nil to heal).
func (r *FakeRemote) FailInserts(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insertErr = err
}

// FailDeletes makes every DeleteFavorite return err (nil to heal).
func (r *FakeRemote) FailDeletes(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteErr = err
}

// FailList makes ListFavorites return err (nil to heal).
func (r *FakeRemote) FailList(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listErr = err
}

// Hold blocks subsequent writes until the returned release func is called.
func (r *FakeRemote) Hold() (release func()) {
	gate := make(chan struct{})
	r.mu.Lock()
	r.gate = gate
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			r.gate = nil
			r.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns the writes received so far, in arrival order.
func (r *FakeRemote) Calls() []RemoteCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RemoteCall, len(r.calls))
	copy(out, r.calls)
	return out
}

// Has reports whether the (userID, fileID) row exists.
func (r *FakeRemote) Has(userID, fileID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rows[userID][fileID]
	return ok
}

func (r *FakeRemote) wait(ctx context.Context) error {
	r.mu.Lock()
	gate := r.gate
	r.mu.Unlock()
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *FakeRemote) InsertFavorite(ctx context.Context, userID, fileID string, at time.Time) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, RemoteCall{Op: "insert", UserID: userID, FileID: fileID, At: at})
	if r.insertErr != nil {
		return r.insertErr
	}
	if r.rows[userID] == nil {
		r.rows[userID] = make(map[string]time.Time)
	}
	if _, ok := r.rows[userID][fileID]; !ok {
		r.rows[userID][fileID] = at
	}
	return nil
}

func (r *FakeRemote) DeleteFavorite(ctx context.Context, userID, fileID string) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, RemoteCall{Op: "delete", UserID: userID, FileID: fileID})
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.rows[userID], fileID)
	return nil
}

// ListFavorites returns rows newest first. Rows without a known file get a
// bare File carrying only the ID.
func (r *FakeRemote) ListFavorites(_ context.Context, userID string) ([]*mb.FavoriteRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}

	rows := make([]*mb.FavoriteRow, 0, len(r.rows[userID]))
	for fileID, at := range r.rows[userID] {
		f, ok := r.files[fileID]
		if !ok {
			f = mb.File{ID: fileID, UserID: userID}
		}
		rows = append(rows, &mb.FavoriteRow{File: f, FavoritedAt: at})
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].FavoritedAt.Equal(rows[j].FavoritedAt) {
			return rows[i].FavoritedAt.After(rows[j].FavoritedAt)
		}
		return rows[i].File.ID < rows[j].File.ID
	})
	return rows, nil
}

var _ mb.FavoritesRemote = (*FakeRemote)(nil)
