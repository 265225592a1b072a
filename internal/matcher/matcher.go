// Package matcher provides the deterministic matching primitives and the
// import-time duplicate detector used to keep a ledger free of double
// entries.
//
// The primitives are pure functions over dates, decimal amounts and free-text
// descriptions:
//   - NormalizeDescription flattens a description for comparison
//   - Similarity scores two descriptions in [0, 1] by edit distance
//   - CanonicalKey fingerprints a (date, amount, description) triple
//   - WithinTolerance and ExactAmount compare decimal amounts
//
// Duplicate detection classifies each freshly imported bank transaction
// against the existing ledger into tiers, from strongest to weakest:
// EXACT, LIKELY, DATE_ONLY, NONE.
//
// Example usage:
//
//	thresholds := matcher.DefaultMatchThresholds()
//	detector := matcher.NewDuplicateDetector(store, thresholds, log)
//
//	classifications, err := detector.DetectDuplicates(ctx, businessID, candidates)
package matcher

import (
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"
)

// canonicalKeySeparator joins the three canonical key fields. It never occurs
// in a formatted date or amount, so keys cannot collide across fields.
const canonicalKeySeparator = "|"

// NormalizeDescription flattens a description for comparison: lower-cased,
// trimmed, with internal whitespace runs collapsed to single spaces. An empty
// or all-whitespace input normalizes to the empty string.
func NormalizeDescription(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Similarity scores how alike two descriptions are, in [0, 1]. The score is
// 1 minus the Levenshtein distance divided by the longer input's rune count.
// Equal strings score 1.0 without computing a distance; two empty strings
// score 1.0; one empty string against a non-empty one scores 0.0. The
// function is symmetric in its arguments.
//
// Inputs are compared as given; callers normalize first when they want
// case- and whitespace-insensitive scoring.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}

	distance := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(distance)/float64(maxLen)
}

// CanonicalKey fingerprints a transaction for exact-duplicate lookup. Two
// records produce the same key exactly when they share a calendar date, an
// absolute amount, and a normalized description. The amount component drops
// trailing fractional zeros, so 100, 100.0 and 100.00 all key identically.
func CanonicalKey(date time.Time, absAmount decimal.Decimal, description string) string {
	return date.Format("2006-01-02") +
		canonicalKeySeparator +
		formatAmountKey(absAmount) +
		canonicalKeySeparator +
		NormalizeDescription(description)
}

// formatAmountKey renders an amount with trailing fractional zeros trimmed.
func formatAmountKey(amount decimal.Decimal) string {
	s := amount.Abs().String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	return s
}

// WithinTolerance reports whether two amounts are close enough to be the same
// real-world payment despite rounding or fees. The allowed difference is the
// larger of tolerancePercent of the smaller amount and the absolute floor.
// A nil amount on either side means the value is unknown and never matches.
// The predicate is symmetric.
func WithinTolerance(a, b *decimal.Decimal, tolerancePercent, toleranceFloor decimal.Decimal) bool {
	if a == nil || b == nil {
		return false
	}

	smaller := *a
	if b.LessThan(smaller) {
		smaller = *b
	}

	allowed := smaller.Mul(tolerancePercent)
	if allowed.LessThan(toleranceFloor) {
		allowed = toleranceFloor
	}

	return a.Sub(*b).Abs().LessThanOrEqual(allowed)
}

// ExactAmount reports whether two amounts are numerically equal, ignoring
// trailing-zero representation differences. A nil amount on either side never
// matches.
func ExactAmount(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Equal(*b)
}

// formatDateKey renders a calendar date the way all date comparisons in this
// package do.
func formatDateKey(date time.Time) string {
	return date.Format("2006-01-02")
}
