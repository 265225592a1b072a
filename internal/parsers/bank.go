package parsers

import (
	"context"
	"fmt"
	"io"

	"ledger-reconciliation-service/internal/models"
	apperrors "ledger-reconciliation-service/pkg/errors"
)

// BankTransactionParser reads bank transaction exports. The same file can be
// read two ways: as validated BankTransaction records for reconciliation, or
// as ImportCandidates for duplicate detection, where malformed rows are
// carried through instead of dropped.
type BankTransactionParser struct {
	*BaseParser
	config *BankFileConfig
}

// NewBankTransactionParser creates a parser for the given file shape. A nil
// config falls back to the defaults.
func NewBankTransactionParser(config *BankFileConfig) (*BankTransactionParser, error) {
	if config == nil {
		config = DefaultBankFileConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "bank_file", "", err)
	}

	return &BankTransactionParser{
		BaseParser: NewBaseParser(config.parseConfig()),
		config:     config,
	}, nil
}

// bankColumns holds the resolved column indices for one file.
type bankColumns struct {
	id          int
	date        int
	amount      int
	description int
}

func (p *BankTransactionParser) resolveColumns(parseCtx *ParseContext, filePath string) (bankColumns, error) {
	cols := bankColumns{
		id:          parseCtx.ResolveColumn(p.config.IDColumns...),
		date:        parseCtx.ResolveColumn(p.config.DateColumns...),
		amount:      parseCtx.ResolveColumn(p.config.AmountColumns...),
		description: parseCtx.ResolveColumn(p.config.DescriptionColumns...),
	}

	var missing []string
	if cols.id == -1 {
		missing = append(missing, p.config.IDColumns[0])
	}
	if cols.date == -1 {
		missing = append(missing, p.config.DateColumns[0])
	}
	if cols.amount == -1 {
		missing = append(missing, p.config.AmountColumns[0])
	}
	if cols.description == -1 {
		missing = append(missing, p.config.DescriptionColumns[0])
	}

	if len(missing) > 0 {
		return cols, apperrors.ParseError(apperrors.CodeMissingColumn, filePath, parseCtx.LineNumber,
			"headers", fmt.Sprintf("%v", missing), nil).
			WithSuggestion(fmt.Sprintf("Ensure the CSV file provides columns for: %v (aliases are accepted)", missing))
	}

	return cols, nil
}

// ParseBankTransactions parses a bank export into validated transactions.
// Rows that fail to parse or validate are recorded in the stats and skipped.
func (p *BankTransactionParser) ParseBankTransactions(filePath, businessID string) ([]*models.BankTransaction, *ParseStats, error) {
	return p.ParseBankTransactionsWithContext(context.Background(), filePath, businessID)
}

// ParseBankTransactionsWithContext parses with cancellation support.
func (p *BankTransactionParser) ParseBankTransactionsWithContext(ctx context.Context, filePath, businessID string) ([]*models.BankTransaction, *ParseStats, error) {
	file, reader, err := p.OpenFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	parseCtx := NewParseContext(ctx)
	stats := NewParseStats()

	if err := p.ReadHeaders(reader, parseCtx, filePath); err != nil {
		return nil, stats, err
	}

	cols, err := p.resolveColumns(parseCtx, filePath)
	if err != nil {
		return nil, stats, err
	}

	var transactions []*models.BankTransaction

	for {
		record, err := p.ReadRecord(reader, parseCtx)
		if err != nil {
			if err == io.EOF {
				break
			}
			stats.AddError(&RowError{Line: parseCtx.LineNumber, Message: "failed to read record", Err: err})
			continue
		}

		stats.RecordsParsed++

		tx, rowErr := p.transactionFromRecord(record, cols, businessID, parseCtx.LineNumber)
		if rowErr != nil {
			stats.AddError(rowErr)
			continue
		}

		if err := tx.Validate(); err != nil {
			stats.AddError(&RowError{Line: parseCtx.LineNumber, Message: "bank transaction validation failed", Err: err})
			continue
		}

		transactions = append(transactions, tx)
		stats.RecordsValid++
	}

	stats.TotalLines = parseCtx.LineNumber
	return transactions, stats, nil
}

func (p *BankTransactionParser) transactionFromRecord(record []string, cols bankColumns, businessID string, line int) (*models.BankTransaction, *RowError) {
	id := FieldAt(record, cols.id)
	dateStr := FieldAt(record, cols.date)
	amountStr := FieldAt(record, cols.amount)
	description := FieldAt(record, cols.description)

	date, err := models.ParseDateWithFormats(dateStr)
	if err != nil {
		return nil, &RowError{Line: line, Field: "date", Value: dateStr, Message: "invalid date", Err: err}
	}

	amount, err := models.ParseDecimalFromString(amountStr)
	if err != nil {
		return nil, &RowError{Line: line, Field: "amount", Value: amountStr, Message: "invalid amount", Err: err}
	}

	return models.NewBankTransaction(id, businessID, amount, date, description), nil
}

// ParseImportCandidates reads the same file shape for duplicate detection.
// Unlike ParseBankTransactions, a row with an unparseable date or amount is
// not skipped: it becomes a candidate with the bad field left unset, which
// the detector degrades to a no-match classification. Rows that cannot be
// read at all still land in the stats.
func (p *BankTransactionParser) ParseImportCandidates(filePath string) ([]*models.ImportCandidate, *ParseStats, error) {
	return p.ParseImportCandidatesWithContext(context.Background(), filePath)
}

// ParseImportCandidatesWithContext parses with cancellation support.
func (p *BankTransactionParser) ParseImportCandidatesWithContext(ctx context.Context, filePath string) ([]*models.ImportCandidate, *ParseStats, error) {
	file, reader, err := p.OpenFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	parseCtx := NewParseContext(ctx)
	stats := NewParseStats()

	if err := p.ReadHeaders(reader, parseCtx, filePath); err != nil {
		return nil, stats, err
	}

	cols, err := p.resolveColumns(parseCtx, filePath)
	if err != nil {
		return nil, stats, err
	}

	var candidates []*models.ImportCandidate

	for {
		record, err := p.ReadRecord(reader, parseCtx)
		if err != nil {
			if err == io.EOF {
				break
			}
			stats.AddError(&RowError{Line: parseCtx.LineNumber, Message: "failed to read record", Err: err})
			continue
		}

		stats.RecordsParsed++

		candidate := &models.ImportCandidate{
			Reference:   FieldAt(record, cols.id),
			Description: FieldAt(record, cols.description),
		}
		if candidate.Reference == "" {
			candidate.Reference = fmt.Sprintf("line-%d", parseCtx.LineNumber)
		}

		if date, err := models.ParseDateWithFormats(FieldAt(record, cols.date)); err == nil {
			candidate.Date = date
		} else {
			stats.AddError(&RowError{Line: parseCtx.LineNumber, Field: "date",
				Value: FieldAt(record, cols.date), Message: "invalid date carried as unset", Err: err})
		}

		if amount, err := models.ParseDecimalFromString(FieldAt(record, cols.amount)); err == nil {
			candidate.Amount = &amount
		} else {
			stats.AddError(&RowError{Line: parseCtx.LineNumber, Field: "amount",
				Value: FieldAt(record, cols.amount), Message: "invalid amount carried as unset", Err: err})
		}

		candidates = append(candidates, candidate)
		if candidate.HasValidDate() && candidate.HasValidAmount() {
			stats.RecordsValid++
		}
	}

	stats.TotalLines = parseCtx.LineNumber
	return candidates, stats, nil
}

// Config returns the parser's file shape configuration.
func (p *BankTransactionParser) Config() *BankFileConfig {
	return p.config
}
