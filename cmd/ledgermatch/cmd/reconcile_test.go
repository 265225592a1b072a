package cmd

import (
	"os"
	"path/filepath"
	"testing"

	apperrors "ledger-reconciliation-service/pkg/errors"
)

func TestValidateInputFile(t *testing.T) {
	tmpDir := t.TempDir()
	validFile := filepath.Join(tmpDir, "valid.csv")
	if err := os.WriteFile(validFile, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	tests := []struct {
		name        string
		filePath    string
		expectError bool
	}{
		{"valid file", validFile, false},
		{"empty path", "", true},
		{"non-existent file", "/non/existent/file.csv", true},
		{"directory instead of file", tmpDir, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateInputFile(tt.filePath, "test file")

			if tt.expectError && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateOutputTarget(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name        string
		outputFile  string
		expectError bool
	}{
		{"no output file", "", false},
		{"relative path", "report.txt", false},
		{"existing directory", filepath.Join(tmpDir, "report.txt"), false},
		{"missing directory", "/non/existent/dir/report.txt", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateOutputTarget(tt.outputFile)

			if tt.expectError && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateReconcileFlags(t *testing.T) {
	tmpDir := t.TempDir()
	bankFile := filepath.Join(tmpDir, "export.csv")
	ledgerFile := filepath.Join(tmpDir, "ledger.csv")

	if err := os.WriteFile(bankFile, []byte("id,date,amount,description\n"), 0644); err != nil {
		t.Fatalf("failed to create bank file: %v", err)
	}
	if err := os.WriteFile(ledgerFile, []byte("id,kind,date,amount,description\n"), 0644); err != nil {
		t.Fatalf("failed to create ledger file: %v", err)
	}

	tests := []struct {
		name        string
		bankFile    string
		ledgerFile  string
		businessID  string
		expectError bool
	}{
		{"valid flags", bankFile, ledgerFile, "BIZ001", false},
		{"missing bank file", "", ledgerFile, "BIZ001", true},
		{"missing ledger file", bankFile, "", "BIZ001", true},
		{"missing business ID", bankFile, ledgerFile, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reconcileBankFile = tt.bankFile
			reconcileLedgerFile = tt.ledgerFile
			reconcileBusinessID = tt.businessID
			reconcileOutputFile = ""

			err := validateReconcileFlags(reconcileCmd, nil)

			if tt.expectError && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateDetectFlags(t *testing.T) {
	tmpDir := t.TempDir()
	bankFile := filepath.Join(tmpDir, "export.csv")
	ledgerFile := filepath.Join(tmpDir, "ledger.csv")

	if err := os.WriteFile(bankFile, []byte("id,date,amount,description\n"), 0644); err != nil {
		t.Fatalf("failed to create bank file: %v", err)
	}
	if err := os.WriteFile(ledgerFile, []byte("id,kind,date,amount,description\n"), 0644); err != nil {
		t.Fatalf("failed to create ledger file: %v", err)
	}

	detectBankFile = bankFile
	detectLedgerFile = ledgerFile
	detectBusinessID = "BIZ001"
	detectOutputFile = ""

	if err := validateDetectFlags(detectCmd, nil); err != nil {
		t.Errorf("unexpected error for valid flags: %v", err)
	}

	detectBusinessID = ""
	if err := validateDetectFlags(detectCmd, nil); err == nil {
		t.Error("expected an error for a missing business ID")
	}
}

func TestHandleError_ExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"no error", nil, 0},
		{"file error", apperrors.FileError(apperrors.CodeFileNotFound, "x.csv", nil), 2},
		{"parse error", apperrors.ParseError(apperrors.CodeMissingColumn, "x.csv", 1, "amount", "", nil), 3},
		{"configuration error", apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "profile", "bad", nil), 4},
		{"contract error", apperrors.ContractError(apperrors.CodeEmptyBusinessScope, "scope required"), 5},
		{"generic error", os.ErrClosed, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HandleError(tt.err); got != tt.expected {
				t.Errorf("HandleError() = %d, expected %d", got, tt.expected)
			}
		})
	}
}
