// Package ledger holds the authoritative in-memory transaction collection.
//
// The Store is the only component allowed to mutate the collection. Every mutation is
// written through to the persister before the call returns.
package ledger

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"fintrack/internal/core"
)

// Persister receives the full collection after every mutation.
type Persister interface {
	Save(ctx context.Context, txs []core.Transaction) error
}

// Store owns the ordered transaction collection. New transactions are prepended;
// replaced transactions keep their position.
type Store struct {
	mu        sync.RWMutex
	items     []core.Transaction
	revision  uint64
	persister Persister
}

// NewStore creates a store over an initial collection, usually the result of a load.
// A nil persister disables write-through.
func NewStore(initial []core.Transaction, p Persister) *Store {
	return &Store{
		items:     slices.Clone(initial),
		persister: p,
	}
}

// Snapshot returns a copy of the full, unfiltered collection.
func (s *Store) Snapshot() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Transaction, len(s.items))
	copy(out, s.items)
	return out
}

// SnapshotAt returns a copy of the collection together with the revision it reflects.
func (s *Store) SnapshotAt() ([]core.Transaction, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items), s.revision
}

// Len returns the number of transactions held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Revision increases by one on every applied mutation.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Get returns the transaction with the given id.
func (s *Store) Get(id string) (core.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	return core.Transaction{}, false
}

// Upsert replaces the transaction with the same id in place, or prepends tx when the id
// is unknown. created reports which case applied and revision is the revision this
// mutation produced. The in-memory change is kept even when the write-through fails.
func (s *Store) Upsert(ctx context.Context, tx core.Transaction) (created bool, revision uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(tx.ID); i >= 0 {
		s.items[i] = tx
	} else {
		s.items = slices.Insert(s.items, 0, tx)
		created = true
	}
	s.revision++

	if err := s.persist(ctx); err != nil {
		return created, s.revision, fmt.Errorf("upsert %s: %w", tx.ID, err)
	}
	return created, s.revision, nil
}

// Delete removes the transaction with the given id. An unknown id is a no-op and
// triggers no write; the returned revision is then the current one.
func (s *Store) Delete(ctx context.Context, id string) (removed bool, revision uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, s.revision, nil
	}
	s.items = slices.Delete(s.items, i, i+1)
	s.revision++

	if err := s.persist(ctx); err != nil {
		return true, s.revision, fmt.Errorf("delete %s: %w", id, err)
	}
	return true, s.revision, nil
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.items, func(tx core.Transaction) bool { return tx.ID == id })
}

// persist must be called with mu held.
func (s *Store) persist(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	return s.persister.Save(ctx, slices.Clone(s.items))
}
