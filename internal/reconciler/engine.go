// Package reconciler proposes links between bank-imported transactions and
// manually entered ledger records, and orchestrates the surrounding flow of
// parsing, detection and reporting for the CLI.
//
// The engine is pure: given the same bank transactions, ledger entries and
// thresholds it always proposes the same matches. It never resolves a match;
// confirmation and dismissal are user decisions applied to the immutable
// match records afterwards.
package reconciler

import (
	"time"

	"github.com/shopspring/decimal"

	"ledger-reconciliation-service/internal/matcher"
	"ledger-reconciliation-service/internal/models"
	apperrors "ledger-reconciliation-service/pkg/errors"
	"ledger-reconciliation-service/pkg/logger"
)

// Engine matches bank transactions against manually entered income and
// expense records within a single business.
type Engine struct {
	thresholds *matcher.MatchThresholds
	logger     logger.Logger
}

// NewEngine creates a reconciliation engine. A nil thresholds value falls
// back to the defaults; a nil logger falls back to the global logger.
func NewEngine(thresholds *matcher.MatchThresholds, log logger.Logger) *Engine {
	if thresholds == nil {
		thresholds = matcher.DefaultMatchThresholds()
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	return &Engine{
		thresholds: thresholds,
		logger:     log.WithComponent("reconciliation_engine"),
	}
}

// Reconcile proposes matches between the given bank transactions and ledger
// entries. All proposed matches are UNRESOLVED and stamped with createdAt.
//
// A bank transaction takes part only when it belongs to the business, is not
// excluded, carries no existing link, and has a non-zero amount. Money in is
// matched against income entries, money out against expense entries, always
// on absolute amounts. A single bank transaction may yield several matches;
// the user picks the right one during review.
//
// Among several same-date, same-amount candidates whose descriptions tie on
// similarity, the order of the proposed matches is unspecified beyond being
// deterministic for identical input order.
func (e *Engine) Reconcile(
	bankTransactions []*models.BankTransaction,
	incomeEntries []*models.LedgerEntry,
	expenseEntries []*models.LedgerEntry,
	businessID string,
	createdAt time.Time,
) ([]*models.ReconciliationMatch, error) {
	if businessID == "" {
		return nil, apperrors.ContractError(apperrors.CodeEmptyBusinessScope,
			"reconciliation requires a business identifier")
	}

	if len(bankTransactions) == 0 {
		return []*models.ReconciliationMatch{}, nil
	}

	e.logger.WithFields(logger.Fields{
		"business_id":       businessID,
		"bank_transactions": len(bankTransactions),
		"income_entries":    len(incomeEntries),
		"expense_entries":   len(expenseEntries),
	}).Debug("Starting reconciliation")

	matches := make([]*models.ReconciliationMatch, 0)

	for _, tx := range bankTransactions {
		if !e.eligible(tx, businessID) {
			continue
		}

		pool := expenseEntries
		if tx.IsIncome() {
			pool = incomeEntries
		}

		proposed, err := e.matchTransaction(tx, pool, businessID, createdAt)
		if err != nil {
			return nil, err
		}
		matches = append(matches, proposed...)
	}

	e.logger.WithFields(logger.Fields{
		"business_id": businessID,
		"matches":     len(matches),
	}).Info("Reconciliation completed")

	return matches, nil
}

// eligible applies the scope, exclusion, linkage and zero-amount filters.
func (e *Engine) eligible(tx *models.BankTransaction, businessID string) bool {
	if tx == nil {
		return false
	}
	if tx.BusinessID != businessID {
		return false
	}
	if tx.Excluded {
		return false
	}
	if tx.IsLinked() {
		return false
	}
	if tx.Amount.IsZero() {
		return false
	}
	return true
}

// matchTransaction classifies one bank transaction against its direction's
// candidate pool and builds the resulting match records.
func (e *Engine) matchTransaction(
	tx *models.BankTransaction,
	pool []*models.LedgerEntry,
	businessID string,
	createdAt time.Time,
) ([]*models.ReconciliationMatch, error) {
	txAbs := tx.GetAbsoluteAmount()
	txDesc := matcher.NormalizeDescription(tx.Description)

	var matches []*models.ReconciliationMatch

	for _, entry := range pool {
		if entry == nil || entry.BusinessID != businessID {
			continue
		}
		if entry.IsLinkedTo(tx.ID) {
			continue
		}
		if !models.SameDate(tx.Date, entry.Date) {
			continue
		}

		entryAbs := entry.GetAbsoluteAmount()
		tier, confidence, matched := e.classify(txAbs, txDesc, entryAbs, entry.Description)
		if !matched {
			continue
		}

		match, err := models.NewReconciliationMatch(tx.ID, entry.ID, entry.Kind, confidence, tier, businessID, createdAt)
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}

	return matches, nil
}

// classify decides the tier for a same-date pair, comparing absolute amounts.
func (e *Engine) classify(txAbs decimal.Decimal, txDesc string, entryAbs decimal.Decimal, entryDescription string) (models.MatchTier, float64, bool) {
	entryDesc := matcher.NormalizeDescription(entryDescription)

	if matcher.ExactAmount(&txAbs, &entryAbs) {
		if txDesc == entryDesc {
			return models.TierExact, 1.0, true
		}

		similarity := matcher.Similarity(txDesc, entryDesc)
		if similarity >= e.thresholds.LikelyMinSimilarity {
			return models.TierLikely, similarity, true
		}

		// Same date and amount with unrelated descriptions is still worth
		// surfacing for review.
		return models.TierPossible, e.thresholds.DateOnlyConfidence, true
	}

	if e.thresholds.WithinTolerance(&txAbs, &entryAbs) {
		return models.TierPossible, e.thresholds.DateOnlyConfidence, true
	}

	return "", 0.0, false
}
