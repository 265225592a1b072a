// Package parsers reads the two CSV shapes the service consumes: bank
// transaction exports and manually maintained ledger entry files.
//
// Real bank exports are messy, so parsing is configured rather than
// hard-coded: column names resolve through alias lists, date and amount
// formats vary per source, and a bad row degrades into the parse statistics
// instead of aborting the file.
//
// Example usage:
//
//	parser, err := parsers.NewBankTransactionParser(parsers.DefaultBankFileConfig())
//	transactions, stats, err := parser.ParseBankTransactions("statement.csv", "BIZ001")
package parsers

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	apperrors "ledger-reconciliation-service/pkg/errors"
	"ledger-reconciliation-service/pkg/logger"
)

// RowError records a problem with a single CSV row.
type RowError struct {
	Line    int
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *RowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("row error at line %d (%s=%q): %s: %v", e.Line, e.Field, e.Value, e.Message, e.Err)
	}
	return fmt.Sprintf("row error at line %d (%s=%q): %s", e.Line, e.Field, e.Value, e.Message)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ParseConfig holds the low-level CSV reading options shared by both file
// shapes.
type ParseConfig struct {
	HasHeader        bool
	Delimiter        rune
	TrimLeadingSpace bool
	SkipEmptyRows    bool
	ValidateEncoding bool
}

// DefaultParseConfig returns a configuration with sensible defaults.
func DefaultParseConfig() *ParseConfig {
	return &ParseConfig{
		HasHeader:        true,
		Delimiter:        ',',
		TrimLeadingSpace: true,
		SkipEmptyRows:    true,
		ValidateEncoding: true,
	}
}

// BaseParser provides the CSV plumbing common to both parsers.
type BaseParser struct {
	config *ParseConfig
	logger logger.Logger
}

// NewBaseParser creates a BaseParser with the given configuration.
func NewBaseParser(config *ParseConfig) *BaseParser {
	if config == nil {
		config = DefaultParseConfig()
	}

	return &BaseParser{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("csv_parser"),
	}
}

// ParseContext holds state during a single file's parse.
type ParseContext struct {
	LineNumber int
	Headers    []string
	HeaderMap  map[string]int
	ctx        context.Context
}

// NewParseContext creates a parsing context.
func NewParseContext(ctx context.Context) *ParseContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ParseContext{
		HeaderMap: make(map[string]int),
		ctx:       ctx,
	}
}

// IsCancelled checks if the parsing context has been cancelled.
func (pc *ParseContext) IsCancelled() bool {
	select {
	case <-pc.ctx.Done():
		return true
	default:
		return false
	}
}

// ResolveColumn finds the index of the first header matching any of the
// given names, case-insensitively. Returns -1 when none match.
func (pc *ParseContext) ResolveColumn(names ...string) int {
	for _, name := range names {
		if index, exists := pc.HeaderMap[strings.ToLower(name)]; exists {
			return index
		}
	}
	return -1
}

// OpenFile opens a CSV file and returns a configured csv.Reader.
func (bp *BaseParser) OpenFile(filePath string) (*os.File, *csv.Reader, error) {
	file, err := os.Open(filePath)
	if err != nil {
		bp.logger.WithError(err).WithField("file_path", filePath).Error("Failed to open CSV file")

		if os.IsNotExist(err) {
			return nil, nil, apperrors.FileError(apperrors.CodeFileNotFound, filePath, err)
		}
		if os.IsPermission(err) {
			return nil, nil, apperrors.FileError(apperrors.CodeFilePermission, filePath, err)
		}
		return nil, nil, apperrors.FileError(apperrors.CodeFileCorrupted, filePath, err)
	}

	if bp.config.ValidateEncoding {
		if err := bp.validateEncoding(file, filePath); err != nil {
			file.Close()
			return nil, nil, err
		}
		if _, err := file.Seek(0, 0); err != nil {
			file.Close()
			return nil, nil, apperrors.FileError(apperrors.CodeFileCorrupted, filePath, err)
		}
	}

	reader := csv.NewReader(file)
	reader.Comma = bp.config.Delimiter
	reader.TrimLeadingSpace = bp.config.TrimLeadingSpace
	reader.FieldsPerRecord = -1

	return file, reader, nil
}

// validateEncoding checks that the start of the file is valid UTF-8.
func (bp *BaseParser) validateEncoding(file *os.File, filePath string) error {
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() && lineNum < 100 {
		lineNum++
		if !utf8.Valid(scanner.Bytes()) {
			return apperrors.ParseError(
				apperrors.CodeEncodingError,
				filePath,
				lineNum,
				"encoding",
				"",
				fmt.Errorf("invalid UTF-8 encoding detected"),
			).WithSuggestion("Save the file in UTF-8 encoding and try again")
		}
	}

	if err := scanner.Err(); err != nil {
		return apperrors.FileError(apperrors.CodeFileCorrupted, filePath, err)
	}

	return nil
}

// ReadHeaders reads the header row and builds the lookup map. Header names
// are matched case-insensitively throughout.
func (bp *BaseParser) ReadHeaders(reader *csv.Reader, parseCtx *ParseContext, filePath string) error {
	if !bp.config.HasHeader {
		return apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "has_header", false,
			fmt.Errorf("headerless files are not supported; column mapping requires a header row"))
	}

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return apperrors.ParseError(apperrors.CodeInvalidFormat, filePath, 0, "headers", "", err).
				WithSuggestion("Ensure the file contains a header row and data rows")
		}
		return apperrors.ParseError(apperrors.CodeInvalidFormat, filePath, 1, "headers", "", err).
			WithSuggestion("Check the file format and ensure it's a valid CSV")
	}

	parseCtx.LineNumber++
	parseCtx.Headers = make([]string, len(headers))
	parseCtx.HeaderMap = make(map[string]int)
	for i, header := range headers {
		cleaned := strings.TrimSpace(header)
		parseCtx.Headers[i] = cleaned
		parseCtx.HeaderMap[strings.ToLower(cleaned)] = i
	}

	return nil
}

// ReadRecord reads the next data row, skipping empty rows when configured.
// Returns io.EOF at end of input.
func (bp *BaseParser) ReadRecord(reader *csv.Reader, parseCtx *ParseContext) ([]string, error) {
	for {
		if parseCtx.IsCancelled() {
			return nil, apperrors.InternalError(apperrors.CodeUnexpectedError, "csv_parsing",
				fmt.Errorf("parsing cancelled"))
		}

		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				return nil, err
			}
			return nil, err
		}

		parseCtx.LineNumber++

		if bp.config.SkipEmptyRows && isEmptyRecord(record) {
			continue
		}

		return record, nil
	}
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// FieldAt returns the trimmed value at the given column index, or the empty
// string when the row is too short.
func FieldAt(record []string, index int) string {
	if index < 0 || index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}

// ParseStats accumulates the outcome of one file's parse. Row-level problems
// land here; they never abort the file.
type ParseStats struct {
	TotalLines    int
	RecordsParsed int
	RecordsValid  int
	ErrorCount    int
	Errors        []*RowError
}

// NewParseStats creates an empty ParseStats.
func NewParseStats() *ParseStats {
	return &ParseStats{
		Errors: make([]*RowError, 0),
	}
}

// AddError records a row-level problem.
func (ps *ParseStats) AddError(err *RowError) {
	ps.Errors = append(ps.Errors, err)
	ps.ErrorCount++
}

// HasErrors returns true if any row failed.
func (ps *ParseStats) HasErrors() bool {
	return ps.ErrorCount > 0
}

// String returns a human-readable summary of the parse.
func (ps *ParseStats) String() string {
	return fmt.Sprintf("Parsed %d lines, %d records (%d valid), %d errors",
		ps.TotalLines, ps.RecordsParsed, ps.RecordsValid, ps.ErrorCount)
}

// SampleErrors returns up to maxSamples row errors for display.
func (ps *ParseStats) SampleErrors(maxSamples int) []string {
	if len(ps.Errors) == 0 {
		return nil
	}

	limit := len(ps.Errors)
	if maxSamples > 0 && maxSamples < limit {
		limit = maxSamples
	}

	samples := make([]string, 0, limit)
	for i := 0; i < limit; i++ {
		samples = append(samples, ps.Errors[i].Error())
	}
	return samples
}
