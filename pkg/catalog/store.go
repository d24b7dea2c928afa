package catalog

import (
	"fmt"
	"sync/atomic"
)

// Store holds the current catalog snapshot. In-flight routing calls read the
// snapshot once and keep it; Reload swaps the pointer atomically so they
// never see a half-applied catalog.
type Store struct {
	loader *Loader
	snap   atomic.Pointer[Snapshot]
}

// NewStore loads the initial snapshot through the loader.
func NewStore(loader *Loader) (*Store, error) {
	s := &Store{loader: loader}
	if err := s.Reload(); err != nil {
		return nil, fmt.Errorf("initial catalog load: %w", err)
	}
	return s, nil
}

// NewStaticStore wraps a fixed snapshot, mainly for tests and embedding.
func NewStaticStore(snap *Snapshot) *Store {
	s := &Store{}
	s.snap.Store(snap)
	return s
}

// Snapshot returns the current immutable snapshot.
func (s *Store) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Reload re-runs the loader and swaps in the new snapshot. On failure the
// previous snapshot stays in place.
func (s *Store) Reload() error {
	if s.loader == nil {
		return fmt.Errorf("store has no loader")
	}
	snap, err := s.loader.Load()
	if err != nil {
		return err
	}
	s.snap.Store(snap)
	return nil
}
