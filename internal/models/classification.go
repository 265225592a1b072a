package models

import "fmt"

// DuplicateTier classifies how strongly an import candidate resembles an
// existing ledger entry.
type DuplicateTier string

const (
	// DuplicateExact means same date, same absolute amount, and identical
	// normalized descriptions. Confidence 1.0.
	DuplicateExact DuplicateTier = "EXACT"
	// DuplicateLikely means same date, same absolute amount, and description
	// similarity at or above the likely threshold. Confidence carries the
	// similarity score.
	DuplicateLikely DuplicateTier = "LIKELY"
	// DuplicateDateOnly means same date and an amount within tolerance but
	// not equal. Confidence 0.3.
	DuplicateDateOnly DuplicateTier = "DATE_ONLY"
	// DuplicateNone means no existing entry resembles the candidate.
	// Confidence 0.0.
	DuplicateNone DuplicateTier = "NONE"
)

// String returns the string representation of DuplicateTier.
func (t DuplicateTier) String() string {
	return string(t)
}

// IsValid checks if the duplicate tier is one of the allowed values.
func (t DuplicateTier) IsValid() bool {
	switch t {
	case DuplicateExact, DuplicateLikely, DuplicateDateOnly, DuplicateNone:
		return true
	default:
		return false
	}
}

// IsMatch reports whether the tier indicates any resemblance at all.
func (t DuplicateTier) IsMatch() bool {
	return t != DuplicateNone && t != ""
}

// DuplicateClassification is the per-candidate verdict of an import-time
// duplicate scan. It is a transient artifact: the caller renders or acts on
// it, but it is never persisted. Matched entry details are only populated
// for tiers that actually matched something.
type DuplicateClassification struct {
	CandidateRef       string        `json:"candidateRef"`
	Tier               DuplicateTier `json:"tier"`
	Confidence         float64       `json:"confidence"`
	MatchedEntryID     string        `json:"matchedEntryId,omitempty"`
	MatchedDescription string        `json:"matchedDescription,omitempty"`
}

// NoMatch classifies a candidate as matching nothing.
func NoMatch(candidateRef string) DuplicateClassification {
	return DuplicateClassification{
		CandidateRef: candidateRef,
		Tier:         DuplicateNone,
		Confidence:   0.0,
	}
}

// ExactMatch classifies a candidate as an exact duplicate of an existing
// entry.
func ExactMatch(candidateRef string, entry *LedgerEntry) DuplicateClassification {
	return DuplicateClassification{
		CandidateRef:       candidateRef,
		Tier:               DuplicateExact,
		Confidence:         1.0,
		MatchedEntryID:     entry.ID,
		MatchedDescription: entry.Description,
	}
}

// LikelyMatch classifies a candidate as a likely duplicate; the confidence
// carries the description similarity that put it over the threshold.
func LikelyMatch(candidateRef string, entry *LedgerEntry, confidence float64) DuplicateClassification {
	return DuplicateClassification{
		CandidateRef:       candidateRef,
		Tier:               DuplicateLikely,
		Confidence:         confidence,
		MatchedEntryID:     entry.ID,
		MatchedDescription: entry.Description,
	}
}

// DateOnlyMatch classifies a candidate as a weak, date-and-near-amount
// coincidence with an existing entry.
func DateOnlyMatch(candidateRef string, entry *LedgerEntry, confidence float64) DuplicateClassification {
	return DuplicateClassification{
		CandidateRef:       candidateRef,
		Tier:               DuplicateDateOnly,
		Confidence:         confidence,
		MatchedEntryID:     entry.ID,
		MatchedDescription: entry.Description,
	}
}

// String returns a string representation of the DuplicateClassification.
func (c DuplicateClassification) String() string {
	if c.Tier == DuplicateNone {
		return fmt.Sprintf("DuplicateClassification{Ref: %s, Tier: NONE}", c.CandidateRef)
	}
	return fmt.Sprintf("DuplicateClassification{Ref: %s, Tier: %s, Confidence: %.2f, Entry: %s}",
		c.CandidateRef, c.Tier, c.Confidence, c.MatchedEntryID)
}
