package reconciler

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledger-reconciliation-service/internal/models"
	apperrors "ledger-reconciliation-service/pkg/errors"
)

var (
	testDate      = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	testCreatedAt = time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)
)

func bankTx(id, amount, description string) *models.BankTransaction {
	return &models.BankTransaction{
		ID:          id,
		BusinessID:  "BIZ001",
		Amount:      decimal.RequireFromString(amount),
		Date:        testDate,
		Description: description,
	}
}

func ledgerEntry(id string, kind models.EntryKind, amount, description string) *models.LedgerEntry {
	return &models.LedgerEntry{
		ID:          id,
		BusinessID:  "BIZ001",
		Kind:        kind,
		Amount:      decimal.RequireFromString(amount),
		Date:        testDate,
		Description: description,
	}
}

func TestReconcile_EmptyBusinessID(t *testing.T) {
	engine := NewEngine(nil, nil)

	_, err := engine.Reconcile([]*models.BankTransaction{bankTx("BT001", "100", "x")}, nil, nil, "", testCreatedAt)
	if err == nil {
		t.Fatal("expected a contract error for an empty business identifier")
	}

	ledgerErr, ok := apperrors.AsLedgerError(err)
	if !ok || ledgerErr.Category != apperrors.CategoryContract {
		t.Errorf("expected a contract-category error, got %v", err)
	}
}

func TestReconcile_NoBankTransactions(t *testing.T) {
	engine := NewEngine(nil, nil)

	for _, txs := range [][]*models.BankTransaction{nil, {}} {
		matches, err := engine.Reconcile(txs, nil, nil, "BIZ001", testCreatedAt)
		if err != nil {
			t.Fatalf("Reconcile failed: %v", err)
		}
		if len(matches) != 0 {
			t.Errorf("expected no matches, got %d", len(matches))
		}
	}
}

func TestReconcile_Tiers(t *testing.T) {
	engine := NewEngine(nil, nil)

	income := []*models.LedgerEntry{
		ledgerEntry("LE-EXACT", models.EntryKindIncome, "500", "Client Payment"),
		ledgerEntry("LE-LIKELY", models.EntryKindIncome, "250", "consulting invoice number 42"),
		ledgerEntry("LE-NEAR", models.EntryKindIncome, "99.80", "whatever this was"),
	}

	tests := []struct {
		name          string
		tx            *models.BankTransaction
		expectedTier  models.MatchTier
		expectedEntry string
	}{
		{
			name:          "exact on normalized description",
			tx:            bankTx("BT001", "500", "  client   payment "),
			expectedTier:  models.TierExact,
			expectedEntry: "LE-EXACT",
		},
		{
			name:          "likely on a close description",
			tx:            bankTx("BT002", "250", "consulting invoice number 43"),
			expectedTier:  models.TierLikely,
			expectedEntry: "LE-LIKELY",
		},
		{
			name:          "possible on equal amount with unrelated description",
			tx:            bankTx("BT003", "500", "totally different words"),
			expectedTier:  models.TierPossible,
			expectedEntry: "LE-EXACT",
		},
		{
			name:          "possible on an amount within tolerance",
			tx:            bankTx("BT004", "100", "no resemblance at all"),
			expectedTier:  models.TierPossible,
			expectedEntry: "LE-NEAR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches, err := engine.Reconcile([]*models.BankTransaction{tt.tx}, income, nil, "BIZ001", testCreatedAt)
			if err != nil {
				t.Fatalf("Reconcile failed: %v", err)
			}

			var found *models.ReconciliationMatch
			for _, m := range matches {
				if m.LedgerEntryID == tt.expectedEntry {
					found = m
				}
			}
			if found == nil {
				t.Fatalf("expected a match against %s, got %d other matches", tt.expectedEntry, len(matches))
			}

			if found.Tier != tt.expectedTier {
				t.Errorf("expected tier %s, got %s", tt.expectedTier, found.Tier)
			}
			if found.Status != models.StatusUnresolved {
				t.Errorf("the engine must only produce UNRESOLVED matches, got %s", found.Status)
			}
			if !found.CreatedAt.Equal(testCreatedAt) {
				t.Errorf("expected createdAt %s, got %s", testCreatedAt, found.CreatedAt)
			}
		})
	}
}

func TestReconcile_ExactConfidence(t *testing.T) {
	engine := NewEngine(nil, nil)

	income := []*models.LedgerEntry{
		ledgerEntry("LE001", models.EntryKindIncome, "500.00", "client payment"),
	}

	matches, err := engine.Reconcile([]*models.BankTransaction{
		bankTx("BT001", "500", "client payment"),
	}, income, nil, "BIZ001", testCreatedAt)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}

	if matches[0].Confidence != 1.0 {
		t.Errorf("expected confidence 1.0 for an exact match, got %f", matches[0].Confidence)
	}
	if matches[0].LedgerKind != models.EntryKindIncome {
		t.Errorf("expected kind INCOME, got %s", matches[0].LedgerKind)
	}
}

func TestReconcile_DirectionIsolation(t *testing.T) {
	engine := NewEngine(nil, nil)

	income := []*models.LedgerEntry{
		ledgerEntry("LE-IN", models.EntryKindIncome, "100", "client payment"),
	}
	expense := []*models.LedgerEntry{
		ledgerEntry("LE-OUT", models.EntryKindExpense, "100", "client payment"),
	}

	// Money out may only match expense entries, no matter how well the
	// income entry lines up.
	matches, err := engine.Reconcile([]*models.BankTransaction{
		bankTx("BT001", "-100", "client payment"),
	}, income, expense, "BIZ001", testCreatedAt)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].LedgerEntryID != "LE-OUT" {
		t.Errorf("expected the expense entry to match, got %s", matches[0].LedgerEntryID)
	}
	if matches[0].LedgerKind != models.EntryKindExpense {
		t.Errorf("expected kind EXPENSE, got %s", matches[0].LedgerKind)
	}
}

func TestReconcile_TransactionFilters(t *testing.T) {
	engine := NewEngine(nil, nil)

	income := []*models.LedgerEntry{
		ledgerEntry("LE001", models.EntryKindIncome, "100", "client payment"),
	}

	otherBusiness := bankTx("BT-SCOPE", "100", "client payment")
	otherBusiness.BusinessID = "BIZ999"

	excluded := bankTx("BT-EXCL", "100", "client payment")
	excluded.Excluded = true

	linked := bankTx("BT-LINKED", "100", "client payment")
	linked.LinkedEntryID = "LE001"

	zero := bankTx("BT-ZERO", "0", "client payment")

	matches, err := engine.Reconcile([]*models.BankTransaction{
		otherBusiness, excluded, linked, zero, nil,
	}, income, nil, "BIZ001", testCreatedAt)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if len(matches) != 0 {
		t.Errorf("expected all transactions to be filtered out, got %d matches", len(matches))
	}
}

func TestReconcile_CandidateFilters(t *testing.T) {
	engine := NewEngine(nil, nil)

	foreign := ledgerEntry("LE-FOREIGN", models.EntryKindIncome, "100", "client payment")
	foreign.BusinessID = "BIZ999"

	alreadyLinked := ledgerEntry("LE-LINKED", models.EntryKindIncome, "100", "client payment")
	alreadyLinked.LinkedBankTransactionID = "BT001"

	offDate := ledgerEntry("LE-OFFDATE", models.EntryKindIncome, "100", "client payment")
	offDate.Date = testDate.AddDate(0, 0, 2)

	matches, err := engine.Reconcile([]*models.BankTransaction{
		bankTx("BT001", "100", "client payment"),
	}, []*models.LedgerEntry{foreign, alreadyLinked, offDate, nil}, nil, "BIZ001", testCreatedAt)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if len(matches) != 0 {
		t.Errorf("expected every candidate to be filtered out, got %d matches", len(matches))
	}
}

func TestReconcile_MultipleMatchesAllowed(t *testing.T) {
	engine := NewEngine(nil, nil)

	income := []*models.LedgerEntry{
		ledgerEntry("LE001", models.EntryKindIncome, "100", "client payment"),
		ledgerEntry("LE002", models.EntryKindIncome, "100", "client payment"),
	}

	matches, err := engine.Reconcile([]*models.BankTransaction{
		bankTx("BT001", "100", "client payment"),
	}, income, nil, "BIZ001", testCreatedAt)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if len(matches) != 2 {
		t.Fatalf("expected both candidates to be proposed, got %d", len(matches))
	}
	for _, m := range matches {
		if m.BankTransactionID != "BT001" {
			t.Errorf("expected all matches to reference BT001, got %s", m.BankTransactionID)
		}
	}
}

func TestReconcile_Deterministic(t *testing.T) {
	engine := NewEngine(nil, nil)

	txs := []*models.BankTransaction{
		bankTx("BT001", "500", "client payment"),
		bankTx("BT002", "-45.99", "office supplies"),
	}
	income := []*models.LedgerEntry{
		ledgerEntry("LE001", models.EntryKindIncome, "500", "client payment"),
	}
	expense := []*models.LedgerEntry{
		ledgerEntry("LE002", models.EntryKindExpense, "45.99", "office supplies"),
	}

	first, err := engine.Reconcile(txs, income, expense, "BIZ001", testCreatedAt)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	second, err := engine.Reconcile(txs, income, expense, "BIZ001", testCreatedAt)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("runs disagree on match count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].BankTransactionID != second[i].BankTransactionID ||
			first[i].LedgerEntryID != second[i].LedgerEntryID ||
			first[i].Tier != second[i].Tier ||
			first[i].Confidence != second[i].Confidence {
			t.Errorf("position %d: runs propose different matches", i)
		}
	}
}
