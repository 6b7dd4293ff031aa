package api

import (
	"sync"

	"salesdash/internal/engine"
)

// Session holds the dataset of the single dashboard session. Stores are
// immutable, so readers take the current pointer and work without the lock;
// an upload swaps in a whole new store.
type Session struct {
	mu    sync.RWMutex
	store *engine.RecordStore
}

// NewSession starts a session. A nil store means the dataset is still loading.
func NewSession(store *engine.RecordStore) *Session {
	return &Session{store: store}
}

func (s *Session) Store() *engine.RecordStore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

func (s *Session) Replace(store *engine.RecordStore) {
	s.mu.Lock()
	s.store = store
	s.mu.Unlock()
}
