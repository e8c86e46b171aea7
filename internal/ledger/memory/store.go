// Package memory is an in-process ledger backend. It keeps every key with the
// number of the commit that last wrote it and validates change sets under a
// single lock, which makes it the reference implementation for tests and local runs.
package memory

import (
	"context"
	"slices"
	"sync"

	"credverify/internal/ledger"
)

// Store is an in-memory implementation of ledger.Backend.
// It is safe for concurrent access but does not persist across process restarts.
type Store struct {
	mu      sync.RWMutex
	entries map[string]ledger.Entry
	keys    []string // sorted
	seq     uint64
}

// New constructs an empty in-memory ledger backend.
func New() *Store {
	return &Store{entries: make(map[string]ledger.Entry)}
}

// Get returns the committed entry for key.
func (s *Store) Get(_ context.Context, key string) (ledger.Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return ledger.Entry{}, false, nil
	}
	e.Value = slices.Clone(e.Value)
	return e, true, nil
}

// Range returns committed entries in [startKey, endKey) in key order.
func (s *Store) Range(_ context.Context, startKey, endKey string) ([]ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Entry, 0)
	for _, key := range s.keysIn(startKey, endKey) {
		e := s.entries[key]
		e.Value = slices.Clone(e.Value)
		out = append(out, e)
	}
	return out, nil
}

// Commit validates cs and applies its writes under the store lock.
func (s *Store) Commit(ctx context.Context, cs ledger.ChangeSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := cs.Validate(ctx, lockedSnapshot{s}); err != nil {
		return err
	}

	s.seq++
	version := ledger.Version(s.seq)
	for _, w := range cs.Writes {
		if w.Delete {
			s.remove(w.Key)
			continue
		}
		if _, exists := s.entries[w.Key]; !exists {
			idx, _ := slices.BinarySearch(s.keys, w.Key)
			s.keys = slices.Insert(s.keys, idx, w.Key)
		}
		s.entries[w.Key] = ledger.Entry{Key: w.Key, Value: slices.Clone(w.Value), Version: version}
	}
	return nil
}

// Len reports how many keys are stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// Health always succeeds for the in-memory backend.
func (s *Store) Health(context.Context) error {
	return nil
}

func (s *Store) remove(key string) {
	if _, exists := s.entries[key]; !exists {
		return
	}
	delete(s.entries, key)
	if idx, found := slices.BinarySearch(s.keys, key); found {
		s.keys = slices.Delete(s.keys, idx, idx+1)
	}
}

// keysIn must be called with the lock held.
func (s *Store) keysIn(startKey, endKey string) []string {
	if ledger.EmptyRange(startKey, endKey) {
		return nil
	}
	lo, _ := slices.BinarySearch(s.keys, startKey)
	hi := len(s.keys)
	if endKey != "" {
		hi, _ = slices.BinarySearch(s.keys, endKey)
	}
	return s.keys[lo:hi]
}

// lockedSnapshot reads the store while Commit holds the write lock.
type lockedSnapshot struct {
	s *Store
}

func (l lockedSnapshot) Version(_ context.Context, key string) (ledger.Version, error) {
	return l.s.entries[key].Version, nil
}

func (l lockedSnapshot) Range(_ context.Context, startKey, endKey string) ([]ledger.KeyVersion, error) {
	keys := l.s.keysIn(startKey, endKey)
	out := make([]ledger.KeyVersion, 0, len(keys))
	for _, key := range keys {
		out = append(out, ledger.KeyVersion{Key: key, Version: l.s.entries[key].Version})
	}
	return out, nil
}
