package vector

import (
	"errors"
	"sync/atomic"
)

// ErrIndexNotReady is returned when a query arrives before the first
// successful build or load. Callers should surface it as a user-actionable
// error (ingest references first) rather than retry.
var ErrIndexNotReady = errors.New("vector index not ready: build or load it first")

// Store holds the current index snapshot. Swapping is atomic, so concurrent
// readers either see the old fully-built index or the new one, never a
// half-built state.
type Store struct {
	current atomic.Pointer[Index]
}

// NewStore returns an empty store; Current fails until the first Swap.
func NewStore() *Store {
	return &Store{}
}

// Current returns the active snapshot, or ErrIndexNotReady before the first swap.
func (s *Store) Current() (*Index, error) {
	idx := s.current.Load()
	if idx == nil {
		return nil, ErrIndexNotReady
	}
	return idx, nil
}

// Ready reports whether a snapshot has been installed.
func (s *Store) Ready() bool {
	return s.current.Load() != nil
}

// Swap installs a fully-built index as the current snapshot.
func (s *Store) Swap(idx *Index) {
	s.current.Store(idx)
}
