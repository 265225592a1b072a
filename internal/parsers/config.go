package parsers

import "fmt"

// ColumnAliases lists the header names accepted for one logical field, in
// preference order.
type ColumnAliases []string

// BankFileConfig describes the shape of a bank transaction export.
type BankFileConfig struct {
	// Column aliases for each logical field. The first header present wins.
	IDColumns          ColumnAliases `json:"id_columns"`
	DateColumns        ColumnAliases `json:"date_columns"`
	AmountColumns      ColumnAliases `json:"amount_columns"`
	DescriptionColumns ColumnAliases `json:"description_columns"`

	Delimiter rune `json:"delimiter"`
	HasHeader bool `json:"has_header"`
}

// DefaultBankFileConfig covers the common export headers of consumer banks.
func DefaultBankFileConfig() *BankFileConfig {
	return &BankFileConfig{
		IDColumns:          ColumnAliases{"id", "transaction_id", "reference", "ref"},
		DateColumns:        ColumnAliases{"date", "transaction_date", "booking_date", "posted"},
		AmountColumns:      ColumnAliases{"amount", "value", "transaction_amount"},
		DescriptionColumns: ColumnAliases{"description", "narrative", "details", "memo"},
		Delimiter:          ',',
		HasHeader:          true,
	}
}

// Validate checks the bank file configuration.
func (c *BankFileConfig) Validate() error {
	if len(c.IDColumns) == 0 {
		return fmt.Errorf("at least one id column alias is required")
	}
	if len(c.DateColumns) == 0 {
		return fmt.Errorf("at least one date column alias is required")
	}
	if len(c.AmountColumns) == 0 {
		return fmt.Errorf("at least one amount column alias is required")
	}
	if len(c.DescriptionColumns) == 0 {
		return fmt.Errorf("at least one description column alias is required")
	}
	if c.Delimiter == 0 {
		return fmt.Errorf("delimiter is required")
	}
	return nil
}

// parseConfig derives the low-level CSV options for this file shape.
func (c *BankFileConfig) parseConfig() *ParseConfig {
	config := DefaultParseConfig()
	config.HasHeader = c.HasHeader
	config.Delimiter = c.Delimiter
	return config
}

// LedgerFileConfig describes the shape of a manually maintained ledger entry
// file.
type LedgerFileConfig struct {
	IDColumns          ColumnAliases `json:"id_columns"`
	KindColumns        ColumnAliases `json:"kind_columns"`
	DateColumns        ColumnAliases `json:"date_columns"`
	AmountColumns      ColumnAliases `json:"amount_columns"`
	DescriptionColumns ColumnAliases `json:"description_columns"`

	Delimiter rune `json:"delimiter"`
	HasHeader bool `json:"has_header"`
}

// DefaultLedgerFileConfig covers the headers the service's own exports use.
func DefaultLedgerFileConfig() *LedgerFileConfig {
	return &LedgerFileConfig{
		IDColumns:          ColumnAliases{"id", "entry_id"},
		KindColumns:        ColumnAliases{"kind", "type", "direction"},
		DateColumns:        ColumnAliases{"date", "entry_date"},
		AmountColumns:      ColumnAliases{"amount", "value"},
		DescriptionColumns: ColumnAliases{"description", "details", "memo"},
		Delimiter:          ',',
		HasHeader:          true,
	}
}

// Validate checks the ledger file configuration.
func (c *LedgerFileConfig) Validate() error {
	if len(c.IDColumns) == 0 {
		return fmt.Errorf("at least one id column alias is required")
	}
	if len(c.KindColumns) == 0 {
		return fmt.Errorf("at least one kind column alias is required")
	}
	if len(c.DateColumns) == 0 {
		return fmt.Errorf("at least one date column alias is required")
	}
	if len(c.AmountColumns) == 0 {
		return fmt.Errorf("at least one amount column alias is required")
	}
	if len(c.DescriptionColumns) == 0 {
		return fmt.Errorf("at least one description column alias is required")
	}
	if c.Delimiter == 0 {
		return fmt.Errorf("delimiter is required")
	}
	return nil
}

func (c *LedgerFileConfig) parseConfig() *ParseConfig {
	config := DefaultParseConfig()
	config.HasHeader = c.HasHeader
	config.Delimiter = c.Delimiter
	return config
}
