package matcher

import (
	"context"
	"time"

	"ledger-reconciliation-service/internal/models"
	apperrors "ledger-reconciliation-service/pkg/errors"
	"ledger-reconciliation-service/pkg/logger"
)

// progressThreshold is the batch size above which detection logs progress.
const progressThreshold = 5000

// EntryStore is the single lookup the duplicate detector needs from
// persistence: all income and expense entries of one business whose dates
// fall inside an inclusive range.
type EntryStore interface {
	EntriesInRange(ctx context.Context, businessID string, from, to time.Time) ([]*models.LedgerEntry, error)
}

// DuplicateDetector classifies freshly imported bank transactions against
// the existing ledger before they are accepted, so the user can skip rows
// that are already recorded.
//
// Detection is deterministic: one bounded store query per batch, then pure
// computation. Classifications come back in the same order as the input
// candidates, and a malformed candidate degrades to a NONE classification
// instead of aborting the batch.
type DuplicateDetector struct {
	store      EntryStore
	thresholds *MatchThresholds
	logger     logger.Logger
}

// NewDuplicateDetector creates a detector over the given store. A nil
// thresholds value falls back to the defaults; a nil logger falls back to
// the global logger.
func NewDuplicateDetector(store EntryStore, thresholds *MatchThresholds, log logger.Logger) *DuplicateDetector {
	if thresholds == nil {
		thresholds = DefaultMatchThresholds()
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	return &DuplicateDetector{
		store:      store,
		thresholds: thresholds,
		logger:     log.WithComponent("duplicate_detector"),
	}
}

// DetectDuplicates classifies each candidate against the existing ledger
// entries of the given business. Tiers are assigned in strict priority
// order: EXACT beats LIKELY beats DATE_ONLY beats NONE.
//
// An empty business identifier is a contract violation and fails before any
// store access. A nil or empty candidate list returns an empty result
// without touching the store.
func (d *DuplicateDetector) DetectDuplicates(ctx context.Context, businessID string, candidates []*models.ImportCandidate) ([]models.DuplicateClassification, error) {
	if businessID == "" {
		return nil, apperrors.ContractError(apperrors.CodeEmptyBusinessScope,
			"duplicate detection requires a business identifier")
	}

	if len(candidates) == 0 {
		return []models.DuplicateClassification{}, nil
	}

	from, to := dateSpan(candidates)

	d.logger.WithFields(logger.Fields{
		"business_id": businessID,
		"candidates":  len(candidates),
		"from":        formatDateKey(from),
		"to":          formatDateKey(to),
	}).Debug("Starting duplicate detection")

	entries, err := d.store.EntriesInRange(ctx, businessID, from, to)
	if err != nil {
		return nil, apperrors.WrapIfNeeded(err, apperrors.CategoryInternal, apperrors.CodeUnexpectedError,
			"failed to load ledger entries for duplicate detection")
	}

	index := NewEntryIndex(entries)

	var tracker *logger.ProgressTracker
	if len(candidates) >= progressThreshold {
		tracker = logger.NewProgressTracker("duplicate_detection", int64(len(candidates)), d.logger, 0)
	}

	classifications := make([]models.DuplicateClassification, 0, len(candidates))
	tierCounts := make(map[models.DuplicateTier]int)

	for _, candidate := range candidates {
		classification := d.classify(candidate, index)
		classifications = append(classifications, classification)
		tierCounts[classification.Tier]++

		if tracker != nil {
			tracker.Increment()
		}
	}

	if tracker != nil {
		tracker.Complete()
	}

	d.logger.WithFields(logger.Fields{
		"business_id": businessID,
		"candidates":  len(candidates),
		"entries":     len(entries),
		"exact":       tierCounts[models.DuplicateExact],
		"likely":      tierCounts[models.DuplicateLikely],
		"date_only":   tierCounts[models.DuplicateDateOnly],
		"none":        tierCounts[models.DuplicateNone],
	}).Info("Duplicate detection completed")

	return classifications, nil
}

// classify assigns the strongest applicable tier to a single candidate.
func (d *DuplicateDetector) classify(candidate *models.ImportCandidate, index *EntryIndex) models.DuplicateClassification {
	if candidate == nil {
		return models.NoMatch("")
	}

	// A row missing its date or amount can never be confirmed as a
	// duplicate; let it through rather than block the import.
	if !candidate.HasValidDate() || !candidate.HasValidAmount() {
		d.logger.WithField("candidate", candidate.Reference).Debug("Malformed candidate degraded to NONE")
		return models.NoMatch(candidate.Reference)
	}

	absAmount := candidate.Amount.Abs()

	key := CanonicalKey(candidate.Date, absAmount, candidate.Description)
	if matches := index.GetByCanonicalKey(key); len(matches) > 0 {
		return models.ExactMatch(candidate.Reference, matches[0])
	}

	sameDate := index.GetByDate(candidate.Date)
	candidateDesc := NormalizeDescription(candidate.Description)

	// Same date and exactly equal amount: the descriptions decide. The
	// highest-scoring entry wins; ties keep the first seen.
	var bestEntry *models.LedgerEntry
	bestSimilarity := 0.0
	for _, entry := range sameDate {
		entryAbs := entry.GetAbsoluteAmount()
		if !ExactAmount(&absAmount, &entryAbs) {
			continue
		}

		similarity := Similarity(candidateDesc, NormalizeDescription(entry.Description))
		if bestEntry == nil || similarity > bestSimilarity {
			bestEntry = entry
			bestSimilarity = similarity
		}
	}
	if bestEntry != nil && bestSimilarity >= d.thresholds.LikelyMinSimilarity {
		return models.LikelyMatch(candidate.Reference, bestEntry, bestSimilarity)
	}

	// Same date and an amount close enough to be the same payment. First
	// hit wins; there is nothing to rank a weak coincidence by.
	for _, entry := range sameDate {
		entryAbs := entry.GetAbsoluteAmount()
		if d.thresholds.WithinTolerance(&absAmount, &entryAbs) {
			return models.DateOnlyMatch(candidate.Reference, entry, d.thresholds.DateOnlyConfidence)
		}
	}

	return models.NoMatch(candidate.Reference)
}

// dateSpan computes the inclusive date window covering every candidate with
// a usable date. When no candidate has one, the window collapses to today so
// the store query stays bounded.
func dateSpan(candidates []*models.ImportCandidate) (time.Time, time.Time) {
	var from, to time.Time

	for _, candidate := range candidates {
		if candidate == nil || !candidate.HasValidDate() {
			continue
		}

		date := models.DateOnly(candidate.Date)
		if from.IsZero() || date.Before(from) {
			from = date
		}
		if to.IsZero() || date.After(to) {
			to = date
		}
	}

	if from.IsZero() {
		today := models.DateOnly(time.Now())
		return today, today
	}

	return from, to
}
