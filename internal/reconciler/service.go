package reconciler

import (
	"context"
	"fmt"
	"time"

	"ledger-reconciliation-service/internal/matcher"
	"ledger-reconciliation-service/internal/models"
	"ledger-reconciliation-service/internal/parsers"
	"ledger-reconciliation-service/internal/store"
	apperrors "ledger-reconciliation-service/pkg/errors"
	"ledger-reconciliation-service/pkg/logger"
)

// Service orchestrates the full file-to-result flows: parse the input files,
// run duplicate detection or reconciliation, and aggregate the outcome into
// a run record the reporter can render.
type Service struct {
	bankParser   *parsers.BankTransactionParser
	ledgerParser *parsers.LedgerEntryParser
	thresholds   *matcher.MatchThresholds
	logger       logger.Logger
}

// NewService creates a service over the given parser configurations. Nil
// configurations fall back to the defaults; a nil thresholds value falls
// back to the default thresholds.
func NewService(bankConfig *parsers.BankFileConfig, ledgerConfig *parsers.LedgerFileConfig, thresholds *matcher.MatchThresholds, log logger.Logger) (*Service, error) {
	if thresholds == nil {
		thresholds = matcher.DefaultMatchThresholds()
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	if err := thresholds.Validate(); err != nil {
		return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "thresholds", thresholds.String(), err)
	}

	bankParser, err := parsers.NewBankTransactionParser(bankConfig)
	if err != nil {
		return nil, err
	}

	ledgerParser, err := parsers.NewLedgerEntryParser(ledgerConfig)
	if err != nil {
		return nil, err
	}

	return &Service{
		bankParser:   bankParser,
		ledgerParser: ledgerParser,
		thresholds:   thresholds,
		logger:       log.WithComponent("reconciliation_service"),
	}, nil
}

// DetectRequest names the inputs of a duplicate detection run.
type DetectRequest struct {
	BankFile   string
	LedgerFile string
	BusinessID string
}

// Validate checks that the request is complete.
func (r *DetectRequest) Validate() error {
	if r.BankFile == "" {
		return apperrors.ConfigurationError(apperrors.CodeMissingConfig, "bank_file", "", nil).
			WithSuggestion("Provide the bank export file to screen for duplicates")
	}
	if r.LedgerFile == "" {
		return apperrors.ConfigurationError(apperrors.CodeMissingConfig, "ledger_file", "", nil).
			WithSuggestion("Provide the ledger file holding the existing entries")
	}
	if r.BusinessID == "" {
		return apperrors.ContractError(apperrors.CodeEmptyBusinessScope,
			"duplicate detection requires a business identifier")
	}
	return nil
}

// DetectionRun aggregates the outcome of a duplicate detection run.
type DetectionRun struct {
	BusinessID       string                           `json:"businessId"`
	ProcessedAt      time.Time                        `json:"processedAt"`
	Classifications  []models.DuplicateClassification `json:"classifications"`
	TierCounts       map[models.DuplicateTier]int     `json:"tierCounts"`
	CandidateCount   int                              `json:"candidateCount"`
	EntryCount       int                              `json:"entryCount"`
	BankParseStats   *parsers.ParseStats              `json:"bankParseStats,omitempty"`
	LedgerParseStats *parsers.ParseStats              `json:"ledgerParseStats,omitempty"`
	Duration         time.Duration                    `json:"duration"`
}

// DuplicateCount returns the number of candidates classified as a match of
// any tier.
func (r *DetectionRun) DuplicateCount() int {
	return r.TierCounts[models.DuplicateExact] +
		r.TierCounts[models.DuplicateLikely] +
		r.TierCounts[models.DuplicateDateOnly]
}

// RunDetection parses both files, screens the bank rows against the ledger
// entries and returns the per-candidate classifications in file order.
func (s *Service) RunDetection(ctx context.Context, req *DetectRequest) (*DetectionRun, error) {
	if req == nil {
		return nil, apperrors.ContractError(apperrors.CodeMissingField, "detection request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	started := time.Now()

	s.logger.WithFields(logger.Fields{
		"business_id": req.BusinessID,
		"bank_file":   req.BankFile,
		"ledger_file": req.LedgerFile,
	}).Info("Starting duplicate detection run")

	var candidates []*models.ImportCandidate
	var bankStats *parsers.ParseStats
	err := logger.TimedOperation("parse_bank_file", s.logger, func() error {
		var err error
		candidates, bankStats, err = s.bankParser.ParseImportCandidatesWithContext(ctx, req.BankFile)
		return err
	})
	if err != nil {
		return nil, err
	}

	entries, ledgerStats, err := s.parseLedgerFile(ctx, req.LedgerFile, req.BusinessID)
	if err != nil {
		return nil, err
	}

	entryStore := store.NewMemoryEntryStore(entries)
	detector := matcher.NewDuplicateDetector(entryStore, s.thresholds, s.logger)

	classifications, err := detector.DetectDuplicates(ctx, req.BusinessID, candidates)
	if err != nil {
		return nil, err
	}

	tierCounts := make(map[models.DuplicateTier]int)
	for _, classification := range classifications {
		tierCounts[classification.Tier]++
	}

	run := &DetectionRun{
		BusinessID:       req.BusinessID,
		ProcessedAt:      started,
		Classifications:  classifications,
		TierCounts:       tierCounts,
		CandidateCount:   len(candidates),
		EntryCount:       len(entries),
		BankParseStats:   bankStats,
		LedgerParseStats: ledgerStats,
		Duration:         time.Since(started),
	}

	s.logger.WithFields(logger.Fields{
		"business_id": req.BusinessID,
		"candidates":  run.CandidateCount,
		"duplicates":  run.DuplicateCount(),
		"duration":    run.Duration.String(),
	}).Info("Duplicate detection run completed")

	return run, nil
}

// ReconcileRequest names the inputs of a reconciliation run.
type ReconcileRequest struct {
	BankFile   string
	LedgerFile string
	BusinessID string
}

// Validate checks that the request is complete.
func (r *ReconcileRequest) Validate() error {
	if r.BankFile == "" {
		return apperrors.ConfigurationError(apperrors.CodeMissingConfig, "bank_file", "", nil).
			WithSuggestion("Provide the bank export file to reconcile")
	}
	if r.LedgerFile == "" {
		return apperrors.ConfigurationError(apperrors.CodeMissingConfig, "ledger_file", "", nil).
			WithSuggestion("Provide the ledger file holding the income and expense records")
	}
	if r.BusinessID == "" {
		return apperrors.ContractError(apperrors.CodeEmptyBusinessScope,
			"reconciliation requires a business identifier")
	}
	return nil
}

// ReconciliationRun aggregates the outcome of a reconciliation run.
type ReconciliationRun struct {
	BusinessID        string                        `json:"businessId"`
	ProcessedAt       time.Time                     `json:"processedAt"`
	Matches           []*models.ReconciliationMatch `json:"matches"`
	TierCounts        map[models.MatchTier]int      `json:"tierCounts"`
	HighConfidence    int                           `json:"highConfidence"`
	MediumConfidence  int                           `json:"mediumConfidence"`
	LowConfidence     int                           `json:"lowConfidence"`
	TransactionCount  int                           `json:"transactionCount"`
	IncomeEntryCount  int                           `json:"incomeEntryCount"`
	ExpenseEntryCount int                           `json:"expenseEntryCount"`
	BankParseStats    *parsers.ParseStats           `json:"bankParseStats,omitempty"`
	LedgerParseStats  *parsers.ParseStats           `json:"ledgerParseStats,omitempty"`
	Duration          time.Duration                 `json:"duration"`
}

// RunReconciliation parses both files, partitions the ledger by direction and
// proposes matches for every eligible bank transaction.
func (s *Service) RunReconciliation(ctx context.Context, req *ReconcileRequest) (*ReconciliationRun, error) {
	if req == nil {
		return nil, apperrors.ContractError(apperrors.CodeMissingField, "reconciliation request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.InternalError(apperrors.CodeUnexpectedError, "reconciliation", err)
	}

	started := time.Now()

	s.logger.WithFields(logger.Fields{
		"business_id": req.BusinessID,
		"bank_file":   req.BankFile,
		"ledger_file": req.LedgerFile,
	}).Info("Starting reconciliation run")

	var transactions []*models.BankTransaction
	var bankStats *parsers.ParseStats
	err := logger.TimedOperation("parse_bank_file", s.logger, func() error {
		var err error
		transactions, bankStats, err = s.bankParser.ParseBankTransactionsWithContext(ctx, req.BankFile, req.BusinessID)
		return err
	})
	if err != nil {
		return nil, err
	}

	entries, ledgerStats, err := s.parseLedgerFile(ctx, req.LedgerFile, req.BusinessID)
	if err != nil {
		return nil, err
	}

	incomeEntries, expenseEntries := partitionByKind(entries)

	engine := NewEngine(s.thresholds, s.logger)
	matches, err := engine.Reconcile(transactions, incomeEntries, expenseEntries, req.BusinessID, started)
	if err != nil {
		return nil, err
	}

	run := &ReconciliationRun{
		BusinessID:        req.BusinessID,
		ProcessedAt:       started,
		Matches:           matches,
		TierCounts:        make(map[models.MatchTier]int),
		TransactionCount:  len(transactions),
		IncomeEntryCount:  len(incomeEntries),
		ExpenseEntryCount: len(expenseEntries),
		BankParseStats:    bankStats,
		LedgerParseStats:  ledgerStats,
	}

	for _, match := range matches {
		run.TierCounts[match.Tier]++
		switch {
		case match.IsHighConfidence():
			run.HighConfidence++
		case match.IsMediumConfidence():
			run.MediumConfidence++
		default:
			run.LowConfidence++
		}
	}

	run.Duration = time.Since(started)

	s.logger.WithFields(logger.Fields{
		"business_id": req.BusinessID,
		"matches":     len(matches),
		"exact":       run.TierCounts[models.TierExact],
		"likely":      run.TierCounts[models.TierLikely],
		"possible":    run.TierCounts[models.TierPossible],
		"duration":    run.Duration.String(),
	}).Info("Reconciliation run completed")

	return run, nil
}

// parseLedgerFile parses the ledger file under a timed operation, so both
// flows report their parse phases the same way.
func (s *Service) parseLedgerFile(ctx context.Context, filePath, businessID string) ([]*models.LedgerEntry, *parsers.ParseStats, error) {
	var entries []*models.LedgerEntry
	var stats *parsers.ParseStats
	err := logger.TimedOperation("parse_ledger_file", s.logger, func() error {
		var err error
		entries, stats, err = s.ledgerParser.ParseLedgerEntriesWithContext(ctx, filePath, businessID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	if stats.HasErrors() {
		s.logger.WithFields(logger.Fields{
			"file":   filePath,
			"errors": stats.ErrorCount,
			"sample": fmt.Sprintf("%v", stats.SampleErrors(3)),
		}).Warn("Ledger file parsed with row errors")
	}

	return entries, stats, nil
}

// partitionByKind splits ledger entries into income and expense pools,
// preserving file order within each pool.
func partitionByKind(entries []*models.LedgerEntry) (income, expense []*models.LedgerEntry) {
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		if entry.Kind == models.EntryKindIncome {
			income = append(income, entry)
		} else {
			expense = append(expense, entry)
		}
	}
	return income, expense
}
