package matcher

import (
	"time"

	"ledger-reconciliation-service/internal/models"
)

// EntryIndex provides the lookups a duplicate scan needs over a window of
// ledger entries: exact canonical-key lookup and same-date scans. The index
// is built once per detection batch from a single store query and is never
// mutated afterwards.
type EntryIndex struct {
	// CanonicalIndex maps canonical keys to the entries sharing them.
	CanonicalIndex map[string][]*models.LedgerEntry

	// DateIndex maps date strings (YYYY-MM-DD) to the entries on that date.
	DateIndex map[string][]*models.LedgerEntry

	// AllEntries holds all indexed entries in store order.
	AllEntries []*models.LedgerEntry
}

// NewEntryIndex builds an index over the given ledger entries. Entries with
// a zero date are skipped in the date index but still counted in AllEntries.
func NewEntryIndex(entries []*models.LedgerEntry) *EntryIndex {
	index := &EntryIndex{
		CanonicalIndex: make(map[string][]*models.LedgerEntry),
		DateIndex:      make(map[string][]*models.LedgerEntry),
		AllEntries:     entries,
	}

	index.buildIndexes()
	return index
}

func (ei *EntryIndex) buildIndexes() {
	for _, entry := range ei.AllEntries {
		if entry == nil || entry.Date.IsZero() {
			continue
		}

		key := CanonicalKey(entry.Date, entry.GetAbsoluteAmount(), entry.Description)
		ei.CanonicalIndex[key] = append(ei.CanonicalIndex[key], entry)

		dateKey := formatDateKey(entry.Date)
		ei.DateIndex[dateKey] = append(ei.DateIndex[dateKey], entry)
	}
}

// GetByCanonicalKey returns the entries whose canonical key equals the given
// key, in store order.
func (ei *EntryIndex) GetByCanonicalKey(key string) []*models.LedgerEntry {
	return ei.CanonicalIndex[key]
}

// GetByDate returns the entries recorded on the given calendar date, in
// store order.
func (ei *EntryIndex) GetByDate(date time.Time) []*models.LedgerEntry {
	return ei.DateIndex[formatDateKey(date)]
}

// Stats returns statistics about the index, for diagnostic logging.
func (ei *EntryIndex) Stats() IndexStats {
	return IndexStats{
		TotalEntries: len(ei.AllEntries),
		UniqueKeys:   len(ei.CanonicalIndex),
		UniqueDates:  len(ei.DateIndex),
	}
}

// IndexStats describes the shape of a built entry index.
type IndexStats struct {
	TotalEntries int
	UniqueKeys   int
	UniqueDates  int
}
