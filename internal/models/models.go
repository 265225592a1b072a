// Package models defines the value types shared by the duplicate detector
// and the cross-source reconciliation engine: bank-imported transactions,
// manually entered ledger entries, import candidates, and the
// reconciliation match entity with its resolution lifecycle.
//
// Records are treated as immutable values by the matching core. Identifiers
// are opaque strings passed by value; the core never mutates a record it
// reads.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind distinguishes manually recorded income from expense entries.
type EntryKind string

const (
	// EntryKindIncome marks a manually recorded income entry.
	EntryKindIncome EntryKind = "INCOME"
	// EntryKindExpense marks a manually recorded expense entry.
	EntryKindExpense EntryKind = "EXPENSE"
)

// String returns the string representation of EntryKind.
func (k EntryKind) String() string {
	return string(k)
}

// IsValid checks if the entry kind is one of the two allowed values.
func (k EntryKind) IsValid() bool {
	return k == EntryKindIncome || k == EntryKindExpense
}

// BankTransaction represents a transaction imported from a bank statement.
// The amount is signed: positive for money in, negative for money out.
type BankTransaction struct {
	ID            string          `json:"id"`
	BusinessID    string          `json:"businessId"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	Description   string          `json:"description"`
	Excluded      bool            `json:"excluded"`
	LinkedEntryID string          `json:"linkedEntryId,omitempty"`
}

// NewBankTransaction creates a new BankTransaction instance.
func NewBankTransaction(id, businessID string, amount decimal.Decimal, date time.Time, description string) *BankTransaction {
	return &BankTransaction{
		ID:          id,
		BusinessID:  businessID,
		Amount:      amount,
		Date:        date,
		Description: description,
	}
}

// Validate performs basic validation on the BankTransaction.
func (bt *BankTransaction) Validate() error {
	if strings.TrimSpace(bt.ID) == "" {
		return fmt.Errorf("bank transaction ID cannot be empty")
	}

	if strings.TrimSpace(bt.BusinessID) == "" {
		return fmt.Errorf("bank transaction business ID cannot be empty")
	}

	if bt.Date.IsZero() {
		return fmt.Errorf("bank transaction date cannot be zero")
	}

	return nil
}

// GetAbsoluteAmount returns the absolute value of the transaction amount.
func (bt *BankTransaction) GetAbsoluteAmount() decimal.Decimal {
	return bt.Amount.Abs()
}

// IsIncome returns true if the transaction represents money in.
func (bt *BankTransaction) IsIncome() bool {
	return bt.Amount.IsPositive()
}

// IsExpense returns true if the transaction represents money out.
func (bt *BankTransaction) IsExpense() bool {
	return bt.Amount.IsNegative()
}

// IsLinked returns true if the transaction already carries a categorization
// link to a ledger entry.
func (bt *BankTransaction) IsLinked() bool {
	return bt.LinkedEntryID != ""
}

// String returns a string representation of the BankTransaction.
func (bt *BankTransaction) String() string {
	return fmt.Sprintf("BankTransaction{ID: %s, Amount: %s, Date: %s, Description: %q}",
		bt.ID, bt.Amount.String(), bt.Date.Format("2006-01-02"), bt.Description)
}

// MarshalJSON implements custom JSON marshaling for BankTransaction.
func (bt *BankTransaction) MarshalJSON() ([]byte, error) {
	type Alias BankTransaction
	return json.Marshal(&struct {
		Amount string `json:"amount"`
		Date   string `json:"date"`
		*Alias
	}{
		Amount: bt.Amount.String(),
		Date:   bt.Date.Format("2006-01-02"),
		Alias:  (*Alias)(bt),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for BankTransaction.
func (bt *BankTransaction) UnmarshalJSON(data []byte) error {
	type Alias BankTransaction
	aux := &struct {
		Amount string `json:"amount"`
		Date   string `json:"date"`
		*Alias
	}{
		Alias: (*Alias)(bt),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	bt.Amount, err = decimal.NewFromString(aux.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount format: %w", err)
	}

	bt.Date, err = ParseDateWithFormats(aux.Date)
	if err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}

	return nil
}

// LedgerEntry represents a manually recorded income or expense entry.
// Amounts are always stored non-negative; the kind carries the direction.
type LedgerEntry struct {
	ID                      string          `json:"id"`
	BusinessID              string          `json:"businessId"`
	Kind                    EntryKind       `json:"kind"`
	Amount                  decimal.Decimal `json:"amount"`
	Date                    time.Time       `json:"date"`
	Description             string          `json:"description"`
	LinkedBankTransactionID string          `json:"linkedBankTransactionId,omitempty"`
}

// NewLedgerEntry creates a new LedgerEntry instance.
func NewLedgerEntry(id, businessID string, kind EntryKind, amount decimal.Decimal, date time.Time, description string) *LedgerEntry {
	return &LedgerEntry{
		ID:          id,
		BusinessID:  businessID,
		Kind:        kind,
		Amount:      amount,
		Date:        date,
		Description: description,
	}
}

// Validate performs basic validation on the LedgerEntry.
func (le *LedgerEntry) Validate() error {
	if strings.TrimSpace(le.ID) == "" {
		return fmt.Errorf("ledger entry ID cannot be empty")
	}

	if strings.TrimSpace(le.BusinessID) == "" {
		return fmt.Errorf("ledger entry business ID cannot be empty")
	}

	if !le.Kind.IsValid() {
		return fmt.Errorf("invalid ledger entry kind: %s", le.Kind)
	}

	if le.Amount.IsNegative() {
		return fmt.Errorf("ledger entry amount cannot be negative: %s", le.Amount.String())
	}

	if le.Date.IsZero() {
		return fmt.Errorf("ledger entry date cannot be zero")
	}

	return nil
}

// GetAbsoluteAmount returns the absolute value of the entry amount.
func (le *LedgerEntry) GetAbsoluteAmount() decimal.Decimal {
	return le.Amount.Abs()
}

// IsLinkedTo returns true if the entry is already linked to the given bank
// transaction.
func (le *LedgerEntry) IsLinkedTo(bankTransactionID string) bool {
	return le.LinkedBankTransactionID != "" && le.LinkedBankTransactionID == bankTransactionID
}

// String returns a string representation of the LedgerEntry.
func (le *LedgerEntry) String() string {
	return fmt.Sprintf("LedgerEntry{ID: %s, Kind: %s, Amount: %s, Date: %s, Description: %q}",
		le.ID, le.Kind, le.Amount.String(), le.Date.Format("2006-01-02"), le.Description)
}

// MarshalJSON implements custom JSON marshaling for LedgerEntry.
func (le *LedgerEntry) MarshalJSON() ([]byte, error) {
	type Alias LedgerEntry
	return json.Marshal(&struct {
		Amount string `json:"amount"`
		Date   string `json:"date"`
		*Alias
	}{
		Amount: le.Amount.String(),
		Date:   le.Date.Format("2006-01-02"),
		Alias:  (*Alias)(le),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for LedgerEntry.
func (le *LedgerEntry) UnmarshalJSON(data []byte) error {
	type Alias LedgerEntry
	aux := &struct {
		Amount string `json:"amount"`
		Date   string `json:"date"`
		*Alias
	}{
		Alias: (*Alias)(le),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	le.Amount, err = decimal.NewFromString(aux.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount format: %w", err)
	}

	le.Date, err = ParseDateWithFormats(aux.Date)
	if err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}

	return nil
}

// ImportCandidate represents a transaction in the middle of being imported,
// before it has been accepted into the ledger. Malformed source rows are
// carried through with a nil amount or zero date rather than dropped, so the
// detector can degrade them to a no-match classification instead of aborting
// the batch.
type ImportCandidate struct {
	Reference   string           `json:"reference"`
	Date        time.Time        `json:"date"`
	Amount      *decimal.Decimal `json:"amount"`
	Description string           `json:"description"`
}

// NewImportCandidate creates a well-formed import candidate.
func NewImportCandidate(reference string, date time.Time, amount decimal.Decimal, description string) *ImportCandidate {
	return &ImportCandidate{
		Reference:   reference,
		Date:        date,
		Amount:      &amount,
		Description: description,
	}
}

// HasValidDate returns true if the candidate carries a usable date.
func (c *ImportCandidate) HasValidDate() bool {
	return !c.Date.IsZero()
}

// HasValidAmount returns true if the candidate carries a usable amount.
func (c *ImportCandidate) HasValidAmount() bool {
	return c.Amount != nil
}

// String returns a string representation of the ImportCandidate.
func (c *ImportCandidate) String() string {
	amount := "<invalid>"
	if c.Amount != nil {
		amount = c.Amount.String()
	}
	date := "<invalid>"
	if !c.Date.IsZero() {
		date = c.Date.Format("2006-01-02")
	}
	return fmt.Sprintf("ImportCandidate{Ref: %s, Amount: %s, Date: %s, Description: %q}",
		c.Reference, amount, date, c.Description)
}

// ParseDecimalFromString parses a decimal value from string with validation.
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	// Remove common currency symbols and thousand separators
	s = strings.ReplaceAll(s, "£", "")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d, nil
}

// ParseEntryKind parses and validates an entry kind from string.
func ParseEntryKind(s string) (EntryKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INCOME", "IN":
		return EntryKindIncome, nil
	case "EXPENSE", "OUT":
		return EntryKindExpense, nil
	default:
		return "", fmt.Errorf("invalid entry kind '%s': must be INCOME or EXPENSE", s)
	}
}

// ParseDateWithFormats attempts to parse a date from string using the
// formats commonly seen in bank exports.
func ParseDateWithFormats(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	formats := []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01-02 15:04:05",
		"02/01/2006",
		"2006/01/02",
		"Jan 2, 2006",
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}

// DateOnly truncates a timestamp to its calendar date in UTC. The matching
// core compares dates, never times of day.
func DateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether two timestamps fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}
