package reconciler

import (
	"context"
	"os"
	"testing"

	"ledger-reconciliation-service/internal/matcher"
	"ledger-reconciliation-service/internal/models"
	apperrors "ledger-reconciliation-service/pkg/errors"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "service_*.csv")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		tmpFile.Close()
		t.Fatalf("Failed to write temp file: %v", err)
	}
	tmpFile.Close()

	t.Cleanup(func() {
		os.Remove(tmpFile.Name())
	})

	return tmpFile.Name()
}

const serviceLedgerCSV = `id,kind,date,amount,description
LE001,INCOME,2025-06-15,500.00,Client payment invoice 42
LE002,EXPENSE,2025-06-15,45.99,Office supplies
LE003,EXPENSE,2025-06-16,12.50,Coffee meeting
`

func newTestService(t *testing.T) *Service {
	t.Helper()

	service, err := NewService(nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return service
}

func TestService_RunDetection(t *testing.T) {
	bankFile := writeTempCSV(t, `id,date,amount,description
BT001,2025-06-15,500.00,Client payment invoice 42
BT002,2025-06-15,-45.99,Office Supplies
BT003,2025-06-20,999.00,Unrelated transfer
`)
	ledgerFile := writeTempCSV(t, serviceLedgerCSV)

	service := newTestService(t)

	run, err := service.RunDetection(context.Background(), &DetectRequest{
		BankFile:   bankFile,
		LedgerFile: ledgerFile,
		BusinessID: "BIZ001",
	})
	if err != nil {
		t.Fatalf("RunDetection failed: %v", err)
	}

	if run.CandidateCount != 3 {
		t.Fatalf("expected 3 candidates, got %d", run.CandidateCount)
	}
	if run.EntryCount != 3 {
		t.Fatalf("expected 3 ledger entries, got %d", run.EntryCount)
	}
	if len(run.Classifications) != 3 {
		t.Fatalf("expected 3 classifications, got %d", len(run.Classifications))
	}

	// BT001 restates LE001 exactly once descriptions are normalized.
	if run.Classifications[0].Tier != models.DuplicateExact {
		t.Errorf("expected BT001 to classify EXACT, got %s", run.Classifications[0].Tier)
	}
	// BT002 matches LE002 on date and absolute amount with the same
	// normalized description.
	if run.Classifications[1].Tier != models.DuplicateExact {
		t.Errorf("expected BT002 to classify EXACT, got %s", run.Classifications[1].Tier)
	}
	if run.Classifications[2].Tier != models.DuplicateNone {
		t.Errorf("expected BT003 to classify NONE, got %s", run.Classifications[2].Tier)
	}

	if run.DuplicateCount() != 2 {
		t.Errorf("expected 2 duplicates, got %d", run.DuplicateCount())
	}
	if run.BusinessID != "BIZ001" {
		t.Errorf("expected business ID carried on the run, got %s", run.BusinessID)
	}
	if run.BankParseStats == nil || run.LedgerParseStats == nil {
		t.Error("expected parse stats on the run")
	}
}

func TestService_RunDetection_MissingInputs(t *testing.T) {
	service := newTestService(t)

	tests := []struct {
		name string
		req  *DetectRequest
	}{
		{"nil request", nil},
		{"missing bank file", &DetectRequest{LedgerFile: "ledger.csv", BusinessID: "BIZ001"}},
		{"missing ledger file", &DetectRequest{BankFile: "bank.csv", BusinessID: "BIZ001"}},
		{"missing business ID", &DetectRequest{BankFile: "bank.csv", LedgerFile: "ledger.csv"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := service.RunDetection(context.Background(), tt.req); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestService_RunDetection_MissingBankFile(t *testing.T) {
	ledgerFile := writeTempCSV(t, serviceLedgerCSV)
	service := newTestService(t)

	_, err := service.RunDetection(context.Background(), &DetectRequest{
		BankFile:   "/nonexistent/statement.csv",
		LedgerFile: ledgerFile,
		BusinessID: "BIZ001",
	})
	if err == nil {
		t.Fatal("expected a file error")
	}

	ledgerErr, ok := apperrors.AsLedgerError(err)
	if !ok || ledgerErr.Code != apperrors.CodeFileNotFound {
		t.Errorf("expected a file-not-found error, got %v", err)
	}
}

func TestService_RunReconciliation(t *testing.T) {
	bankFile := writeTempCSV(t, `id,date,amount,description
BT001,2025-06-15,500.00,Client Payment invoice 42
BT002,2025-06-15,-45.99,Stationery purchase
BT003,2025-06-16,-12.55,Coffee meeting
BT004,2025-06-20,999.00,Unrelated transfer
`)
	ledgerFile := writeTempCSV(t, serviceLedgerCSV)

	service := newTestService(t)

	run, err := service.RunReconciliation(context.Background(), &ReconcileRequest{
		BankFile:   bankFile,
		LedgerFile: ledgerFile,
		BusinessID: "BIZ001",
	})
	if err != nil {
		t.Fatalf("RunReconciliation failed: %v", err)
	}

	if run.TransactionCount != 4 {
		t.Fatalf("expected 4 transactions, got %d", run.TransactionCount)
	}
	if run.IncomeEntryCount != 1 || run.ExpenseEntryCount != 2 {
		t.Fatalf("expected 1 income and 2 expense entries, got %d and %d",
			run.IncomeEntryCount, run.ExpenseEntryCount)
	}

	// BT001/LE001 exact, BT002/LE002 possible (same amount, unrelated
	// description), BT003/LE003 possible (12.55 within tolerance of 12.50).
	if len(run.Matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(run.Matches))
	}
	if run.TierCounts[models.TierExact] != 1 {
		t.Errorf("expected 1 EXACT match, got %d", run.TierCounts[models.TierExact])
	}
	if run.TierCounts[models.TierPossible] != 2 {
		t.Errorf("expected 2 POSSIBLE matches, got %d", run.TierCounts[models.TierPossible])
	}

	if run.HighConfidence != 1 || run.LowConfidence != 2 {
		t.Errorf("expected 1 high and 2 low confidence matches, got %d and %d",
			run.HighConfidence, run.LowConfidence)
	}

	for _, match := range run.Matches {
		if match.Status != models.StatusUnresolved {
			t.Errorf("expected all matches UNRESOLVED, got %s", match.Status)
		}
		if !match.CreatedAt.Equal(run.ProcessedAt) {
			t.Error("expected matches stamped with the run's processing time")
		}
	}
}

func TestService_RunReconciliation_MissingInputs(t *testing.T) {
	service := newTestService(t)

	tests := []struct {
		name string
		req  *ReconcileRequest
	}{
		{"nil request", nil},
		{"missing bank file", &ReconcileRequest{LedgerFile: "ledger.csv", BusinessID: "BIZ001"}},
		{"missing ledger file", &ReconcileRequest{BankFile: "bank.csv", BusinessID: "BIZ001"}},
		{"missing business ID", &ReconcileRequest{BankFile: "bank.csv", LedgerFile: "ledger.csv"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := service.RunReconciliation(context.Background(), tt.req); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestService_RunReconciliation_Deterministic(t *testing.T) {
	bankFile := writeTempCSV(t, `id,date,amount,description
BT001,2025-06-15,500.00,Client payment invoice 42
BT002,2025-06-15,-45.99,Office supplies
`)
	ledgerFile := writeTempCSV(t, serviceLedgerCSV)

	service := newTestService(t)
	req := &ReconcileRequest{BankFile: bankFile, LedgerFile: ledgerFile, BusinessID: "BIZ001"}

	first, err := service.RunReconciliation(context.Background(), req)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := service.RunReconciliation(context.Background(), req)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if len(first.Matches) != len(second.Matches) {
		t.Fatalf("runs disagree on match count: %d vs %d", len(first.Matches), len(second.Matches))
	}
	for i := range first.Matches {
		a, b := first.Matches[i], second.Matches[i]
		if a.BankTransactionID != b.BankTransactionID || a.LedgerEntryID != b.LedgerEntryID ||
			a.Tier != b.Tier || a.Confidence != b.Confidence {
			t.Errorf("match %d differs between runs: %s vs %s", i, a, b)
		}
	}
}

func TestNewService_InvalidThresholds(t *testing.T) {
	thresholds := matcher.DefaultMatchThresholds()
	thresholds.LikelyMinSimilarity = 1.5

	if _, err := NewService(nil, nil, thresholds, nil); err == nil {
		t.Error("expected an error for out-of-range thresholds")
	}
}
