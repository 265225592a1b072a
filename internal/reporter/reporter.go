// Package reporter renders duplicate detection and reconciliation runs for
// the CLI.
//
// Supported output formats:
//   - Console: human-readable sections for terminal review
//   - JSON: the full run record for programmatic consumption
//   - CSV: one row per classification or match for spreadsheets
//
// Example usage:
//
//	generator, err := reporter.NewReportGenerator(reporter.DefaultReportConfig())
//	if err != nil {
//		return err
//	}
//	err = generator.GenerateDetectionReport(run, os.Stdout)
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ledger-reconciliation-service/internal/models"
	"ledger-reconciliation-service/internal/parsers"
	"ledger-reconciliation-service/internal/reconciler"
	apperrors "ledger-reconciliation-service/pkg/errors"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported.
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation.
type ReportConfig struct {
	// Output format
	Format OutputFormat `json:"format"`

	// Detail level options
	IncludeNonMatches bool `json:"include_non_matches"`
	IncludeParseStats bool `json:"include_parse_stats"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration.
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:            FormatConsole,
		IncludeNonMatches: false,
		IncludeParseStats: true,
		CSVDelimiter:      ',',
		CSVHeaders:        true,
	}
}

// Validate validates the report configuration.
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	if c.CSVDelimiter == 0 {
		return fmt.Errorf("CSV delimiter must be set")
	}
	return nil
}

// ReportGenerator renders run records in the configured format.
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a report generator. A nil config falls back to
// the defaults.
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "report_config", string(config.Format), err)
	}

	return &ReportGenerator{
		config: config,
	}, nil
}

// GetConfiguration returns the generator's configuration.
func (rg *ReportGenerator) GetConfiguration() *ReportConfig {
	return rg.config
}

// GenerateDetectionReport writes a duplicate detection run to the writer in
// the configured format.
func (rg *ReportGenerator) GenerateDetectionReport(run *reconciler.DetectionRun, writer io.Writer) error {
	if run == nil {
		return apperrors.ContractError(apperrors.CodeMissingField, "detection run is required")
	}
	if writer == nil {
		return apperrors.ContractError(apperrors.CodeMissingField, "output writer is required")
	}

	switch rg.config.Format {
	case FormatJSON:
		return rg.writeJSON(run, writer)
	case FormatCSV:
		return rg.writeDetectionCSV(run, writer)
	default:
		return rg.writeDetectionConsole(run, writer)
	}
}

// GenerateReconciliationReport writes a reconciliation run to the writer in
// the configured format.
func (rg *ReportGenerator) GenerateReconciliationReport(run *reconciler.ReconciliationRun, writer io.Writer) error {
	if run == nil {
		return apperrors.ContractError(apperrors.CodeMissingField, "reconciliation run is required")
	}
	if writer == nil {
		return apperrors.ContractError(apperrors.CodeMissingField, "output writer is required")
	}

	switch rg.config.Format {
	case FormatJSON:
		return rg.writeJSON(run, writer)
	case FormatCSV:
		return rg.writeReconciliationCSV(run, writer)
	default:
		return rg.writeReconciliationConsole(run, writer)
	}
}

// JSON output

func (rg *ReportGenerator) writeJSON(run interface{}, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(run); err != nil {
		return apperrors.InternalError(apperrors.CodeUnexpectedError, "json_report", err)
	}
	return nil
}

// Console output

func (rg *ReportGenerator) writeDetectionConsole(run *reconciler.DetectionRun, writer io.Writer) error {
	fmt.Fprintln(writer, "DUPLICATE DETECTION REPORT")
	fmt.Fprintln(writer, strings.Repeat("=", 50))
	fmt.Fprintf(writer, "Business:      %s\n", run.BusinessID)
	fmt.Fprintf(writer, "Processed at:  %s\n", run.ProcessedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(writer, "Candidates:    %d\n", run.CandidateCount)
	fmt.Fprintf(writer, "Ledger entries: %d\n", run.EntryCount)
	fmt.Fprintf(writer, "Duration:      %s\n", run.Duration)
	fmt.Fprintln(writer)

	fmt.Fprintln(writer, "CLASSIFICATION SUMMARY")
	fmt.Fprintln(writer, strings.Repeat("-", 50))
	for _, tier := range []models.DuplicateTier{
		models.DuplicateExact,
		models.DuplicateLikely,
		models.DuplicateDateOnly,
		models.DuplicateNone,
	} {
		count := run.TierCounts[tier]
		fmt.Fprintf(writer, "%-10s %5d  (%.1f%%)\n", tier, count,
			calculatePercentage(count, run.CandidateCount))
	}
	fmt.Fprintln(writer)

	fmt.Fprintln(writer, "CLASSIFICATIONS")
	fmt.Fprintln(writer, strings.Repeat("-", 50))
	shown := 0
	for _, classification := range run.Classifications {
		if !classification.Tier.IsMatch() && !rg.config.IncludeNonMatches {
			continue
		}
		shown++
		if classification.Tier.IsMatch() {
			fmt.Fprintf(writer, "%-20s %-10s %.2f  entry %s (%s)\n",
				classification.CandidateRef, classification.Tier, classification.Confidence,
				classification.MatchedEntryID, classification.MatchedDescription)
		} else {
			fmt.Fprintf(writer, "%-20s %-10s\n", classification.CandidateRef, classification.Tier)
		}
	}
	if shown == 0 {
		fmt.Fprintln(writer, "No duplicates found.")
	}
	fmt.Fprintln(writer)

	if rg.config.IncludeParseStats {
		rg.writeParseStats(writer, "BANK FILE", run.BankParseStats)
		rg.writeParseStats(writer, "LEDGER FILE", run.LedgerParseStats)
	}

	return nil
}

func (rg *ReportGenerator) writeReconciliationConsole(run *reconciler.ReconciliationRun, writer io.Writer) error {
	fmt.Fprintln(writer, "RECONCILIATION REPORT")
	fmt.Fprintln(writer, strings.Repeat("=", 50))
	fmt.Fprintf(writer, "Business:       %s\n", run.BusinessID)
	fmt.Fprintf(writer, "Processed at:   %s\n", run.ProcessedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(writer, "Transactions:   %d\n", run.TransactionCount)
	fmt.Fprintf(writer, "Income entries: %d\n", run.IncomeEntryCount)
	fmt.Fprintf(writer, "Expense entries: %d\n", run.ExpenseEntryCount)
	fmt.Fprintf(writer, "Duration:       %s\n", run.Duration)
	fmt.Fprintln(writer)

	fmt.Fprintln(writer, "MATCH SUMMARY")
	fmt.Fprintln(writer, strings.Repeat("-", 50))
	fmt.Fprintf(writer, "Proposed matches: %d\n", len(run.Matches))
	for _, tier := range []models.MatchTier{models.TierExact, models.TierLikely, models.TierPossible} {
		count := run.TierCounts[tier]
		fmt.Fprintf(writer, "%-10s %5d  (%.1f%%)\n", tier, count,
			calculatePercentage(count, len(run.Matches)))
	}
	fmt.Fprintf(writer, "Confidence: %d high / %d medium / %d low\n",
		run.HighConfidence, run.MediumConfidence, run.LowConfidence)
	fmt.Fprintln(writer)

	fmt.Fprintln(writer, "PROPOSED MATCHES")
	fmt.Fprintln(writer, strings.Repeat("-", 50))
	if len(run.Matches) == 0 {
		fmt.Fprintln(writer, "No matches proposed.")
	}
	for _, match := range run.Matches {
		fmt.Fprintf(writer, "%-15s -> %-15s %-8s %-10s %.2f\n",
			match.BankTransactionID, match.LedgerEntryID, match.LedgerKind, match.Tier, match.Confidence)
	}
	fmt.Fprintln(writer)

	if rg.config.IncludeParseStats {
		rg.writeParseStats(writer, "BANK FILE", run.BankParseStats)
		rg.writeParseStats(writer, "LEDGER FILE", run.LedgerParseStats)
	}

	return nil
}

func (rg *ReportGenerator) writeParseStats(writer io.Writer, title string, stats *parsers.ParseStats) {
	if stats == nil {
		return
	}

	fmt.Fprintf(writer, "%s PARSING\n", title)
	fmt.Fprintln(writer, strings.Repeat("-", 50))
	fmt.Fprintf(writer, "%s\n", stats)
	for _, rowErr := range stats.SampleErrors(5) {
		fmt.Fprintf(writer, "  - %s\n", rowErr)
	}
	fmt.Fprintln(writer)
}

// CSV output

func (rg *ReportGenerator) writeDetectionCSV(run *reconciler.DetectionRun, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter

	if rg.config.CSVHeaders {
		header := []string{"candidate_ref", "tier", "confidence", "matched_entry_id", "matched_description"}
		if err := csvWriter.Write(header); err != nil {
			return apperrors.InternalError(apperrors.CodeUnexpectedError, "csv_report", err)
		}
	}

	for _, classification := range run.Classifications {
		if !classification.Tier.IsMatch() && !rg.config.IncludeNonMatches {
			continue
		}
		record := []string{
			classification.CandidateRef,
			classification.Tier.String(),
			formatConfidence(classification.Confidence),
			classification.MatchedEntryID,
			classification.MatchedDescription,
		}
		if err := csvWriter.Write(record); err != nil {
			return apperrors.InternalError(apperrors.CodeUnexpectedError, "csv_report", err)
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return apperrors.InternalError(apperrors.CodeUnexpectedError, "csv_report", err)
	}
	return nil
}

func (rg *ReportGenerator) writeReconciliationCSV(run *reconciler.ReconciliationRun, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter

	if rg.config.CSVHeaders {
		header := []string{"match_id", "bank_transaction_id", "ledger_entry_id", "ledger_kind", "tier", "confidence", "status"}
		if err := csvWriter.Write(header); err != nil {
			return apperrors.InternalError(apperrors.CodeUnexpectedError, "csv_report", err)
		}
	}

	for _, match := range run.Matches {
		record := []string{
			match.ID,
			match.BankTransactionID,
			match.LedgerEntryID,
			match.LedgerKind.String(),
			match.Tier.String(),
			formatConfidence(match.Confidence),
			match.Status.String(),
		}
		if err := csvWriter.Write(record); err != nil {
			return apperrors.InternalError(apperrors.CodeUnexpectedError, "csv_report", err)
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return apperrors.InternalError(apperrors.CodeUnexpectedError, "csv_report", err)
	}
	return nil
}

// calculatePercentage returns part as a percentage of total, with a zero
// total yielding zero.
func calculatePercentage(part, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(part) / float64(total) * 100.0
}

func formatConfidence(confidence float64) string {
	return strconv.FormatFloat(confidence, 'f', 2, 64)
}
