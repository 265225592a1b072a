// Package errors defines the error taxonomy used across the ledger
// reconciliation service.
//
// Errors fall into two broad groups. Contract violations (an empty business
// scope, invalid match construction arguments) indicate a programming error
// upstream and fail fast. Data-quality issues (unparseable dates or amounts
// in individual records) are absorbed close to where they occur and degrade
// the affected record instead of aborting a batch.
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Category groups errors by the subsystem or failure class they belong to.
type Category string

const (
	CategoryContract      Category = "contract"
	CategoryData          Category = "data"
	CategoryFile          Category = "file"
	CategoryParse         Category = "parse"
	CategoryConfiguration Category = "configuration"
	CategoryInternal      Category = "internal"
)

// Code identifies a specific error condition within a category.
type Code string

const (
	// Contract violation codes
	CodeEmptyBusinessScope Code = "empty_business_scope"
	CodeInvalidMatchField  Code = "invalid_match_field"
	CodeInvalidTransition  Code = "invalid_transition"

	// Data quality codes
	CodeInvalidAmount Code = "invalid_amount"
	CodeInvalidDate   Code = "invalid_date"
	CodeMissingField  Code = "missing_field"
	CodeOutOfRange    Code = "out_of_range"

	// File codes
	CodeFileNotFound   Code = "file_not_found"
	CodeFilePermission Code = "file_permission"
	CodeFileCorrupted  Code = "file_corrupted"

	// Parse codes
	CodeInvalidFormat Code = "invalid_format"
	CodeMissingColumn Code = "missing_column"
	CodeInvalidData   Code = "invalid_data"
	CodeEncodingError Code = "encoding_error"

	// Configuration codes
	CodeInvalidConfig Code = "invalid_config"
	CodeMissingConfig Code = "missing_config"

	// Internal codes
	CodeUnexpectedError Code = "unexpected_error"
)

// LedgerError is the base error type for all application errors.
type LedgerError struct {
	Category   Category          `json:"category"`
	Code       Code              `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context carries additional key/value information about the error.
type Context map[string]interface{}

// Error implements the error interface.
func (e *LedgerError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error.
func (e *LedgerError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate process exit code for the error.
func (e *LedgerError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryData:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryContract, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds context information to the error.
func (e *LedgerError) WithContext(key string, value interface{}) *LedgerError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error.
func (e *LedgerError) WithSuggestion(suggestion string) *LedgerError {
	e.Suggestion = suggestion
	return e
}

// New creates a new LedgerError.
func New(category Category, code Code, message string) *LedgerError {
	return &LedgerError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with LedgerError context.
func Wrap(err error, category Category, code Code, message string) *LedgerError {
	if err == nil {
		return nil
	}

	return &LedgerError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// ContractError creates an error for a caller-contract violation. These
// indicate a programming error upstream, not a data-quality issue.
func ContractError(code Code, detail string) *LedgerError {
	var message string
	var suggestion string

	switch code {
	case CodeEmptyBusinessScope:
		message = "business scope identifier must not be empty"
		suggestion = "pass the owning business id when invoking detection or reconciliation"
	case CodeInvalidMatchField:
		message = fmt.Sprintf("invalid reconciliation match field: %s", detail)
		suggestion = "check match construction arguments at the call site"
	case CodeInvalidTransition:
		message = fmt.Sprintf("invalid match state transition: %s", detail)
		suggestion = "a resolved match is terminal and cannot be resolved again"
	default:
		message = fmt.Sprintf("contract violation: %s", detail)
		suggestion = "check the arguments at the call site"
	}

	return New(CategoryContract, code, message).
		WithSuggestion(suggestion).
		WithContext("detail", detail)
}

// DataError creates an error for a data-quality issue in an individual
// record. Callers absorb these locally rather than aborting a batch.
func DataError(code Code, field string, value interface{}, err error) *LedgerError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount in field '%s': %v", field, value)
		suggestion = "ensure amounts are valid decimal numbers (e.g. '12.34')"
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in field '%s': %v", field, value)
		suggestion = "use date format YYYY-MM-DD"
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	case CodeOutOfRange:
		message = fmt.Sprintf("value out of range in field '%s': %v", field, value)
		suggestion = "ensure the value is within the acceptable range"
	default:
		message = fmt.Sprintf("data error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	var result *LedgerError
	if err != nil {
		result = Wrap(err, CategoryData, code, message)
	} else {
		result = New(CategoryData, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// FileError creates a file-related error.
func FileError(code Code, path string, err error) *LedgerError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	var result *LedgerError
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	} else {
		result = New(CategoryFile, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ParseError creates a parsing-related error.
func ParseError(code Code, file string, line int, column string, value string, err error) *LedgerError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidFormat:
		message = fmt.Sprintf("invalid format in file %s at line %d, column '%s': '%s'", file, line, column, value)
		suggestion = "check the data format and ensure it matches the expected structure"
	case CodeMissingColumn:
		message = fmt.Sprintf("missing required column '%s' in file %s", column, file)
		suggestion = "verify the file has all required columns with correct headers"
	case CodeInvalidData:
		message = fmt.Sprintf("invalid data in file %s at line %d, column '%s': '%s'", file, line, column, value)
		suggestion = "correct the data format or remove the invalid entry"
	default:
		message = fmt.Sprintf("parse error in file %s at line %d", file, line)
		suggestion = "check the file format and data integrity"
	}

	var result *LedgerError
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	} else {
		result = New(CategoryParse, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file", file).
		WithContext("line", line).
		WithContext("column", column).
		WithContext("value", value)
}

// ConfigurationError creates a configuration-related error.
func ConfigurationError(code Code, setting string, value interface{}, err error) *LedgerError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *LedgerError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// InternalError creates an internal error.
func InternalError(code Code, operation string, err error) *LedgerError {
	message := fmt.Sprintf("internal error during %s", operation)

	var result *LedgerError
	if err != nil {
		result = Wrap(err, CategoryInternal, code, message)
	} else {
		result = New(CategoryInternal, code, message)
	}

	return result.
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// Summary aggregates multiple errors collected during a batch operation.
type Summary struct {
	Total        int              `json:"total"`
	ByCategory   map[Category]int `json:"by_category"`
	ByCode       map[Code]int     `json:"by_code"`
	Errors       []*LedgerError   `json:"errors"`
	SampleErrors []*LedgerError   `json:"sample_errors,omitempty"`
}

// NewSummary creates a new error summary.
func NewSummary(errs []*LedgerError) *Summary {
	summary := &Summary{
		Total:      len(errs),
		ByCategory: make(map[Category]int),
		ByCode:     make(map[Code]int),
		Errors:     errs,
	}
	if len(errs) == 0 {
		summary.Errors = []*LedgerError{}
		return summary
	}

	for _, err := range errs {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	maxSamples := 5
	if len(errs) > maxSamples {
		summary.SampleErrors = errs[:maxSamples]
	} else {
		summary.SampleErrors = errs
	}

	return summary
}

// Error returns a formatted error message for the summary.
func (s *Summary) Error() string {
	if s.Total == 0 {
		return "no errors"
	}

	if s.Total == 1 {
		return s.Errors[0].Error()
	}

	var categories []string
	for category, count := range s.ByCategory {
		categories = append(categories, fmt.Sprintf("%s: %d", category, count))
	}

	return fmt.Sprintf("%d errors occurred (%s)", s.Total, strings.Join(categories, ", "))
}

// HasCategory checks if the summary contains errors of the given category.
func (s *Summary) HasCategory(category Category) bool {
	return s.ByCategory[category] > 0
}

// GetExitCode returns the highest priority exit code from all errors.
func (s *Summary) GetExitCode() int {
	if s.Total == 0 {
		return 0
	}

	maxCode := 1
	for _, err := range s.Errors {
		if code := err.GetExitCode(); code > maxCode {
			maxCode = code
		}
	}

	return maxCode
}

// IsLedgerError checks if an error is a LedgerError.
func IsLedgerError(err error) bool {
	_, ok := err.(*LedgerError)
	return ok
}

// AsLedgerError extracts a LedgerError from an error chain.
func AsLedgerError(err error) (*LedgerError, bool) {
	var ledgerErr *LedgerError
	if errors.As(err, &ledgerErr) {
		return ledgerErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error if it's not already a LedgerError.
func WrapIfNeeded(err error, category Category, code Code, message string) *LedgerError {
	if err == nil {
		return nil
	}

	if ledgerErr, ok := AsLedgerError(err); ok {
		return ledgerErr
	}

	return Wrap(err, category, code, message)
}
