package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "ledger-reconciliation-service/pkg/errors"
)

// MatchTier classifies how strongly a bank transaction and a ledger entry
// agree. LINKED pairs are filtered out before classification and are never
// persisted as a tier.
type MatchTier string

const (
	// TierExact means same date, exactly equal absolute amount, and
	// identical normalized descriptions.
	TierExact MatchTier = "EXACT"
	// TierLikely means same date, exactly equal absolute amount, and
	// description similarity at or above the likely threshold.
	TierLikely MatchTier = "LIKELY"
	// TierPossible means same date with either an exact amount but unrelated
	// descriptions, or an amount within tolerance.
	TierPossible MatchTier = "POSSIBLE"
)

// String returns the string representation of MatchTier.
func (t MatchTier) String() string {
	return string(t)
}

// IsValid checks if the match tier is one of the allowed values.
func (t MatchTier) IsValid() bool {
	switch t {
	case TierExact, TierLikely, TierPossible:
		return true
	default:
		return false
	}
}

// MatchStatus represents the resolution state of a reconciliation match.
type MatchStatus string

const (
	// StatusUnresolved is the only status the reconciliation engine ever
	// produces. Resolution is always an external user decision.
	StatusUnresolved MatchStatus = "UNRESOLVED"
	// StatusConfirmed is terminal: the user accepted the proposed link.
	StatusConfirmed MatchStatus = "CONFIRMED"
	// StatusDismissed is terminal: the user rejected the proposed link.
	StatusDismissed MatchStatus = "DISMISSED"
)

// String returns the string representation of MatchStatus.
func (s MatchStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the status is a terminal resolution state.
func (s MatchStatus) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusDismissed
}

// ReconciliationMatch is an immutable record of a proposed link between a
// bank transaction and a manually entered ledger entry. Transitions never
// mutate a match in place; they produce a new instance carrying the same
// identifier.
type ReconciliationMatch struct {
	ID                string      `json:"id"`
	BankTransactionID string      `json:"bankTransactionId"`
	LedgerEntryID     string      `json:"ledgerEntryId"`
	LedgerKind        EntryKind   `json:"ledgerKind"`
	Confidence        float64     `json:"confidence"`
	Tier              MatchTier   `json:"tier"`
	Status            MatchStatus `json:"status"`
	BusinessID        string      `json:"businessId"`
	CreatedAt         time.Time   `json:"createdAt"`
	ResolvedAt        *time.Time  `json:"resolvedAt,omitempty"`
	ResolvedBy        string      `json:"resolvedBy,omitempty"`
}

// NewReconciliationMatch creates a match in the UNRESOLVED state with a
// freshly generated identifier. Construction arguments are validated
// strictly: a violation here is a programming error upstream, not a
// data-quality issue.
func NewReconciliationMatch(
	bankTransactionID string,
	ledgerEntryID string,
	kind EntryKind,
	confidence float64,
	tier MatchTier,
	businessID string,
	createdAt time.Time,
) (*ReconciliationMatch, error) {
	if bankTransactionID == "" {
		return nil, apperrors.ContractError(apperrors.CodeInvalidMatchField, "bank transaction ID is required")
	}
	if ledgerEntryID == "" {
		return nil, apperrors.ContractError(apperrors.CodeInvalidMatchField, "ledger entry ID is required")
	}
	if businessID == "" {
		return nil, apperrors.ContractError(apperrors.CodeInvalidMatchField, "business ID is required")
	}
	if !kind.IsValid() {
		return nil, apperrors.ContractError(apperrors.CodeInvalidMatchField,
			fmt.Sprintf("ledger kind must be INCOME or EXPENSE, got %q", kind))
	}
	if confidence < 0.0 || confidence > 1.0 {
		return nil, apperrors.ContractError(apperrors.CodeInvalidMatchField,
			fmt.Sprintf("confidence must be in [0,1], got %f", confidence))
	}
	if !tier.IsValid() {
		return nil, apperrors.ContractError(apperrors.CodeInvalidMatchField,
			fmt.Sprintf("invalid match tier %q", tier))
	}

	return &ReconciliationMatch{
		ID:                uuid.NewString(),
		BankTransactionID: bankTransactionID,
		LedgerEntryID:     ledgerEntryID,
		LedgerKind:        kind,
		Confidence:        confidence,
		Tier:              tier,
		Status:            StatusUnresolved,
		BusinessID:        businessID,
		CreatedAt:         createdAt,
	}, nil
}

// WithConfirmed returns a new instance in the CONFIRMED state, stamped with
// the resolution time and actor. The original match is not modified.
func (m *ReconciliationMatch) WithConfirmed(at time.Time, by string) (*ReconciliationMatch, error) {
	return m.resolve(StatusConfirmed, at, by)
}

// WithDismissed returns a new instance in the DISMISSED state, stamped with
// the resolution time and actor. The original match is not modified.
func (m *ReconciliationMatch) WithDismissed(at time.Time, by string) (*ReconciliationMatch, error) {
	return m.resolve(StatusDismissed, at, by)
}

func (m *ReconciliationMatch) resolve(status MatchStatus, at time.Time, by string) (*ReconciliationMatch, error) {
	if m.Status.IsTerminal() {
		return nil, apperrors.ContractError(apperrors.CodeInvalidTransition,
			fmt.Sprintf("match %s is already %s", m.ID, m.Status))
	}
	if by == "" {
		return nil, apperrors.ContractError(apperrors.CodeInvalidMatchField, "resolver identifier is required")
	}

	resolved := *m
	resolved.Status = status
	resolved.ResolvedAt = &at
	resolved.ResolvedBy = by
	return &resolved, nil
}

// IsHighConfidence reports whether the confidence is 0.8 or above.
func (m *ReconciliationMatch) IsHighConfidence() bool {
	return m.Confidence >= 0.8
}

// IsMediumConfidence reports whether the confidence is in [0.5, 0.8).
func (m *ReconciliationMatch) IsMediumConfidence() bool {
	return m.Confidence >= 0.5 && m.Confidence < 0.8
}

// IsLowConfidence reports whether the confidence is below 0.5.
func (m *ReconciliationMatch) IsLowConfidence() bool {
	return m.Confidence < 0.5
}

// String returns a string representation of the ReconciliationMatch.
func (m *ReconciliationMatch) String() string {
	return fmt.Sprintf("ReconciliationMatch{ID: %s, Bank: %s, Entry: %s, Kind: %s, Tier: %s, Confidence: %.2f, Status: %s}",
		m.ID, m.BankTransactionID, m.LedgerEntryID, m.LedgerKind, m.Tier, m.Confidence, m.Status)
}
