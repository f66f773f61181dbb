package keyword

import (
	"errors"
	"sync/atomic"
)

// ErrIndexNotReady is returned when no keyword index has been ingested yet.
var ErrIndexNotReady = errors.New("keyword index not ready")

type holder struct {
	index Index
}

// Store holds the current keyword index snapshot. Readers always see a
// complete index; Swap installs a freshly built one.
type Store struct {
	current atomic.Pointer[holder]
}

func NewStore() *Store {
	return &Store{}
}

// Current returns the active index, or ErrIndexNotReady before first ingest.
func (s *Store) Current() (Index, error) {
	h := s.current.Load()
	if h == nil {
		return nil, ErrIndexNotReady
	}
	return h.index, nil
}

// Ready reports whether an index has been installed.
func (s *Store) Ready() bool {
	return s.current.Load() != nil
}

// Swap installs idx and returns the previous index so the caller can close
// it. A nil idx uninstalls the current index.
func (s *Store) Swap(idx Index) Index {
	var next *holder
	if idx != nil {
		next = &holder{index: idx}
	}
	old := s.current.Swap(next)
	if old == nil {
		return nil
	}
	return old.index
}
