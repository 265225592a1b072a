package parsers

import (
	"context"
	"fmt"
	"io"

	"ledger-reconciliation-service/internal/models"
	apperrors "ledger-reconciliation-service/pkg/errors"
)

// LedgerEntryParser reads manually maintained ledger entry files, where each
// row records an income or expense entry with a non-negative amount.
type LedgerEntryParser struct {
	*BaseParser
	config *LedgerFileConfig
}

// NewLedgerEntryParser creates a parser for the given file shape. A nil
// config falls back to the defaults.
func NewLedgerEntryParser(config *LedgerFileConfig) (*LedgerEntryParser, error) {
	if config == nil {
		config = DefaultLedgerFileConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "ledger_file", "", err)
	}

	return &LedgerEntryParser{
		BaseParser: NewBaseParser(config.parseConfig()),
		config:     config,
	}, nil
}

type ledgerColumns struct {
	id          int
	kind        int
	date        int
	amount      int
	description int
}

func (p *LedgerEntryParser) resolveColumns(parseCtx *ParseContext, filePath string) (ledgerColumns, error) {
	cols := ledgerColumns{
		id:          parseCtx.ResolveColumn(p.config.IDColumns...),
		kind:        parseCtx.ResolveColumn(p.config.KindColumns...),
		date:        parseCtx.ResolveColumn(p.config.DateColumns...),
		amount:      parseCtx.ResolveColumn(p.config.AmountColumns...),
		description: parseCtx.ResolveColumn(p.config.DescriptionColumns...),
	}

	var missing []string
	if cols.id == -1 {
		missing = append(missing, p.config.IDColumns[0])
	}
	if cols.kind == -1 {
		missing = append(missing, p.config.KindColumns[0])
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

// ParseLedgerEntries parses a ledger file into validated entries. Rows that
// fail to parse or validate are recorded in the stats and skipped.
func (p *LedgerEntryParser) ParseLedgerEntries(filePath, businessID string) ([]*models.LedgerEntry, *ParseStats, error) {
	return p.ParseLedgerEntriesWithContext(context.Background(), filePath, businessID)
}

// ParseLedgerEntriesWithContext parses with cancellation support.
func (p *LedgerEntryParser) ParseLedgerEntriesWithContext(ctx context.Context, filePath, businessID string) ([]*models.LedgerEntry, *ParseStats, error) {
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

	var entries []*models.LedgerEntry

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

		entry, rowErr := p.entryFromRecord(record, cols, businessID, parseCtx.LineNumber)
		if rowErr != nil {
			stats.AddError(rowErr)
			continue
		}

		if err := entry.Validate(); err != nil {
			stats.AddError(&RowError{Line: parseCtx.LineNumber, Message: "ledger entry validation failed", Err: err})
			continue
		}

		entries = append(entries, entry)
		stats.RecordsValid++
	}

	stats.TotalLines = parseCtx.LineNumber
	return entries, stats, nil
}

func (p *LedgerEntryParser) entryFromRecord(record []string, cols ledgerColumns, businessID string, line int) (*models.LedgerEntry, *RowError) {
	id := FieldAt(record, cols.id)
	kindStr := FieldAt(record, cols.kind)
	dateStr := FieldAt(record, cols.date)
	amountStr := FieldAt(record, cols.amount)
	description := FieldAt(record, cols.description)

	kind, err := models.ParseEntryKind(kindStr)
	if err != nil {
		return nil, &RowError{Line: line, Field: "kind", Value: kindStr, Message: "invalid entry kind", Err: err}
	}

	date, err := models.ParseDateWithFormats(dateStr)
	if err != nil {
		return nil, &RowError{Line: line, Field: "date", Value: dateStr, Message: "invalid date", Err: err}
	}

	amount, err := models.ParseDecimalFromString(amountStr)
	if err != nil {
		return nil, &RowError{Line: line, Field: "amount", Value: amountStr, Message: "invalid amount", Err: err}
	}

	return models.NewLedgerEntry(id, businessID, kind, amount, date, description), nil
}

// Config returns the parser's file shape configuration.
func (p *LedgerEntryParser) Config() *LedgerFileConfig {
	return p.config
}
