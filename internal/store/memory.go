// Package store provides ledger entry storage for the matching core. The
// detector only ever needs one bounded range query, so the interface stays
// narrow and a slice-backed implementation is enough for the CLI flows and
// for tests.
package store

import (
	"context"
	"sync"
	"time"

	"ledger-reconciliation-service/internal/models"
)

// MemoryEntryStore is a slice-backed EntryStore. It is safe for concurrent
// readers once loaded.
type MemoryEntryStore struct {
	mu      sync.RWMutex
	entries []*models.LedgerEntry
}

// NewMemoryEntryStore creates a store over the given entries.
func NewMemoryEntryStore(entries []*models.LedgerEntry) *MemoryEntryStore {
	return &MemoryEntryStore{
		entries: entries,
	}
}

// Add appends entries to the store.
func (s *MemoryEntryStore) Add(entries ...*models.LedgerEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
}

// Len returns the number of stored entries.
func (s *MemoryEntryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// EntriesInRange returns the business's entries whose dates fall inside the
// inclusive [from, to] calendar window, in insertion order. Comparison is by
// calendar date; times of day are ignored.
func (s *MemoryEntryStore) EntriesInRange(ctx context.Context, businessID string, from, to time.Time) ([]*models.LedgerEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fromDate := models.DateOnly(from)
	toDate := models.DateOnly(to)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.LedgerEntry
	for _, entry := range s.entries {
		if entry == nil || entry.BusinessID != businessID {
			continue
		}

		date := models.DateOnly(entry.Date)
		if date.Before(fromDate) || date.After(toDate) {
			continue
		}

		result = append(result, entry)
	}

	return result, nil
}
