package matcher

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MatchThresholds holds the tuning knobs for duplicate detection and
// reconciliation classification. All thresholds are explicit configuration;
// there are no hidden globals, so two runs with equal inputs and equal
// thresholds produce equal output.
//
// Use the provided factory functions for common scenarios:
//   - DefaultMatchThresholds(): the documented production behavior
//   - StrictMatchThresholds(): tighter similarity and tolerance for audits
//   - RelaxedMatchThresholds(): looser bounds for exploratory review
type MatchThresholds struct {
	// LikelyMinSimilarity is the minimum description similarity for a
	// same-date, same-amount pair to classify as LIKELY rather than a weak
	// coincidence.
	LikelyMinSimilarity float64 `json:"likely_min_similarity"`

	// DateOnlyConfidence is the fixed confidence assigned to DATE_ONLY
	// duplicate classifications and POSSIBLE reconciliation matches.
	DateOnlyConfidence float64 `json:"date_only_confidence"`

	// TolerancePercent is the fractional tolerance applied to the smaller of
	// two amounts when deciding whether they are "close" (0.01 means 1%).
	TolerancePercent decimal.Decimal `json:"tolerance_percent"`

	// ToleranceFloor is the minimum absolute difference always allowed,
	// in currency units, regardless of how small the amounts are.
	ToleranceFloor decimal.Decimal `json:"tolerance_floor"`
}

// DefaultMatchThresholds returns the thresholds the service documents:
// 0.80 minimum similarity for LIKELY, 0.3 confidence for DATE_ONLY, and an
// amount tolerance of 1% with a 1.00 floor.
func DefaultMatchThresholds() *MatchThresholds {
	return &MatchThresholds{
		LikelyMinSimilarity: 0.80,
		DateOnlyConfidence:  0.3,
		TolerancePercent:    decimal.NewFromFloat(0.01),
		ToleranceFloor:      decimal.NewFromInt(1),
	}
}

// StrictMatchThresholds returns thresholds for audit-grade matching: higher
// similarity bar and half the amount slack.
func StrictMatchThresholds() *MatchThresholds {
	return &MatchThresholds{
		LikelyMinSimilarity: 0.90,
		DateOnlyConfidence:  0.3,
		TolerancePercent:    decimal.NewFromFloat(0.005),
		ToleranceFloor:      decimal.NewFromFloat(0.50),
	}
}

// RelaxedMatchThresholds returns thresholds for exploratory review: lower
// similarity bar and double the amount slack.
func RelaxedMatchThresholds() *MatchThresholds {
	return &MatchThresholds{
		LikelyMinSimilarity: 0.70,
		DateOnlyConfidence:  0.3,
		TolerancePercent:    decimal.NewFromFloat(0.02),
		ToleranceFloor:      decimal.NewFromInt(2),
	}
}

// Validate checks if the thresholds are internally consistent.
func (mt *MatchThresholds) Validate() error {
	if mt.LikelyMinSimilarity < 0.0 || mt.LikelyMinSimilarity > 1.0 {
		return fmt.Errorf("likely minimum similarity must be between 0.0 and 1.0: %f", mt.LikelyMinSimilarity)
	}

	if mt.DateOnlyConfidence < 0.0 || mt.DateOnlyConfidence > 1.0 {
		return fmt.Errorf("date-only confidence must be between 0.0 and 1.0: %f", mt.DateOnlyConfidence)
	}

	if mt.TolerancePercent.IsNegative() || mt.TolerancePercent.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("tolerance percent must be between 0.0 and 1.0: %s", mt.TolerancePercent)
	}

	if mt.ToleranceFloor.IsNegative() {
		return fmt.Errorf("tolerance floor cannot be negative: %s", mt.ToleranceFloor)
	}

	return nil
}

// Clone creates a deep copy of the thresholds.
func (mt *MatchThresholds) Clone() *MatchThresholds {
	if mt == nil {
		return nil
	}

	return &MatchThresholds{
		LikelyMinSimilarity: mt.LikelyMinSimilarity,
		DateOnlyConfidence:  mt.DateOnlyConfidence,
		TolerancePercent:    mt.TolerancePercent,
		ToleranceFloor:      mt.ToleranceFloor,
	}
}

// WithinTolerance applies the configured tolerance to two amounts.
func (mt *MatchThresholds) WithinTolerance(a, b *decimal.Decimal) bool {
	return WithinTolerance(a, b, mt.TolerancePercent, mt.ToleranceFloor)
}

// String returns a human-readable description of the thresholds.
func (mt *MatchThresholds) String() string {
	return fmt.Sprintf("MatchThresholds{LikelyMinSimilarity: %.2f, DateOnlyConfidence: %.2f, TolerancePercent: %s, ToleranceFloor: %s}",
		mt.LikelyMinSimilarity, mt.DateOnlyConfidence, mt.TolerancePercent, mt.ToleranceFloor)
}
