package matcher

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledger-reconciliation-service/internal/models"
)

func testEntry(id string, date time.Time, amount string, description string) *models.LedgerEntry {
	return &models.LedgerEntry{
		ID:          id,
		BusinessID:  "BIZ001",
		Kind:        models.EntryKindExpense,
		Amount:      decimal.RequireFromString(amount),
		Date:        date,
		Description: description,
	}
}

func TestEntryIndex_CanonicalLookup(t *testing.T) {
	date := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	entries := []*models.LedgerEntry{
		testEntry("LE001", date, "100.00", "Coffee Shop"),
		testEntry("LE002", date, "100", "  coffee   shop  "),
		testEntry("LE003", date, "100", "stationery"),
	}

	index := NewEntryIndex(entries)

	// Formatting variants of the same logical record share one key
	key := CanonicalKey(date, decimal.RequireFromString("100"), "coffee shop")
	matches := index.GetByCanonicalKey(key)
	if len(matches) != 2 {
		t.Fatalf("expected 2 entries under the shared key, got %d", len(matches))
	}
	if matches[0].ID != "LE001" || matches[1].ID != "LE002" {
		t.Errorf("expected store order LE001, LE002; got %s, %s", matches[0].ID, matches[1].ID)
	}

	if hits := index.GetByCanonicalKey("2025-06-15|999|nothing"); len(hits) != 0 {
		t.Errorf("expected no entries for an unknown key, got %d", len(hits))
	}
}

func TestEntryIndex_DateLookup(t *testing.T) {
	date := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	nextDay := date.AddDate(0, 0, 1)

	entries := []*models.LedgerEntry{
		testEntry("LE001", date, "100", "coffee"),
		testEntry("LE002", nextDay, "200", "lunch"),
		testEntry("LE003", date, "300", "rent"),
	}

	index := NewEntryIndex(entries)

	sameDay := index.GetByDate(date)
	if len(sameDay) != 2 {
		t.Fatalf("expected 2 entries on %s, got %d", date.Format("2006-01-02"), len(sameDay))
	}

	if hits := index.GetByDate(date.AddDate(0, 0, 7)); len(hits) != 0 {
		t.Errorf("expected no entries a week later, got %d", len(hits))
	}
}

func TestEntryIndex_SkipsUnusableEntries(t *testing.T) {
	date := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	entries := []*models.LedgerEntry{
		testEntry("LE001", date, "100", "coffee"),
		nil,
		{ID: "LE002", Amount: decimal.NewFromInt(50)}, // zero date
	}

	index := NewEntryIndex(entries)

	stats := index.Stats()
	if stats.TotalEntries != 3 {
		t.Errorf("expected 3 total entries, got %d", stats.TotalEntries)
	}
	if stats.UniqueDates != 1 {
		t.Errorf("expected 1 indexed date, got %d", stats.UniqueDates)
	}
	if stats.UniqueKeys != 1 {
		t.Errorf("expected 1 indexed key, got %d", stats.UniqueKeys)
	}
}
