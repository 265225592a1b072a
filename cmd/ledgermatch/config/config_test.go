package config

import (
	"testing"

	"ledger-reconciliation-service/internal/reporter"
)

func TestCreateMatchThresholds(t *testing.T) {
	tests := []struct {
		name        string
		profile     string
		expectError bool
	}{
		{"empty defaults", "", false},
		{"default", ProfileDefault, false},
		{"strict", ProfileStrict, false},
		{"relaxed", ProfileRelaxed, false},
		{"unknown", "aggressive", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thresholds, err := CreateMatchThresholds(tt.profile)

			if tt.expectError {
				if err == nil {
					t.Error("expected an error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := thresholds.Validate(); err != nil {
				t.Errorf("profile %q produced invalid thresholds: %v", tt.profile, err)
			}
		})
	}
}

func TestCreateMatchThresholds_ProfilesDiffer(t *testing.T) {
	strict, err := CreateMatchThresholds(ProfileStrict)
	if err != nil {
		t.Fatalf("strict profile failed: %v", err)
	}
	relaxed, err := CreateMatchThresholds(ProfileRelaxed)
	if err != nil {
		t.Fatalf("relaxed profile failed: %v", err)
	}

	if strict.LikelyMinSimilarity <= relaxed.LikelyMinSimilarity {
		t.Error("expected the strict profile to demand higher similarity than the relaxed one")
	}
}

func TestCreateBankFileConfig(t *testing.T) {
	config, err := CreateBankFileConfig("")
	if err != nil {
		t.Fatalf("default config failed: %v", err)
	}
	if config.Delimiter != ',' {
		t.Errorf("expected comma delimiter by default, got %q", config.Delimiter)
	}

	config, err = CreateBankFileConfig(";")
	if err != nil {
		t.Fatalf("delimiter override failed: %v", err)
	}
	if config.Delimiter != ';' {
		t.Errorf("expected semicolon delimiter, got %q", config.Delimiter)
	}

	if _, err := CreateBankFileConfig(";;"); err == nil {
		t.Error("expected an error for a multi-character delimiter")
	}
}

func TestCreateLedgerFileConfig(t *testing.T) {
	config, err := CreateLedgerFileConfig("\t")
	if err != nil {
		t.Fatalf("delimiter override failed: %v", err)
	}
	if config.Delimiter != '\t' {
		t.Errorf("expected tab delimiter, got %q", config.Delimiter)
	}
}

func TestCreateReportConfig(t *testing.T) {
	tests := []struct {
		name           string
		format         string
		expectedFormat reporter.OutputFormat
		expectError    bool
	}{
		{"empty defaults to console", "", reporter.FormatConsole, false},
		{"console", "console", reporter.FormatConsole, false},
		{"json", "json", reporter.FormatJSON, false},
		{"csv", "csv", reporter.FormatCSV, false},
		{"unknown format", "xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := CreateReportConfig(tt.format, false)

			if tt.expectError {
				if err == nil {
					t.Error("expected an error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if config.Format != tt.expectedFormat {
				t.Errorf("expected format %s, got %s", tt.expectedFormat, config.Format)
			}
		})
	}
}

func TestCreateReportConfig_CSVDropsParseStats(t *testing.T) {
	config, err := CreateReportConfig("csv", true)
	if err != nil {
		t.Fatalf("CreateReportConfig failed: %v", err)
	}

	if config.IncludeParseStats {
		t.Error("expected parse stats excluded from CSV output")
	}
	if !config.IncludeNonMatches {
		t.Error("expected the non-match flag carried through")
	}
}
