package testutil

import (
	"sync"

	"mediabox/internal/localstore"
	"mediabox/internal/mb"
)

// FailingLocalStore wraps a MemoryStore and fails Put for chosen keys.
type FailingLocalStore struct {
	*localstore.MemoryStore

	mu      sync.Mutex
	putErrs map[string]error
}

func NewFailingLocalStore() *FailingLocalStore {
	return &FailingLocalStore{
		MemoryStore: localstore.NewMemoryStore(),
		putErrs:     make(map[string]error),
	}
}

// FailPut makes Put(key, ...) return err. A nil err heals the key.
func (s *FailingLocalStore) FailPut(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.putErrs, key)
		return
	}
	s.putErrs[key] = err
}

func (s *FailingLocalStore) Put(key string, v any) error {
	s.mu.Lock()
	err := s.putErrs[key]
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryStore.Put(key, v)
}

var _ mb.LocalStore = (*FailingLocalStore)(nil)
