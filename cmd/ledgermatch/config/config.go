// Package config builds the component configurations the CLI commands need
// from flag values.
package config

import (
	"fmt"

	"ledger-reconciliation-service/internal/matcher"
	"ledger-reconciliation-service/internal/parsers"
	"ledger-reconciliation-service/internal/reporter"
	apperrors "ledger-reconciliation-service/pkg/errors"
)

// Threshold profile names accepted by the --profile flag.
const (
	ProfileDefault = "default"
	ProfileStrict  = "strict"
	ProfileRelaxed = "relaxed"
)

// CreateMatchThresholds resolves a profile name to a threshold set.
func CreateMatchThresholds(profile string) (*matcher.MatchThresholds, error) {
	switch profile {
	case "", ProfileDefault:
		return matcher.DefaultMatchThresholds(), nil
	case ProfileStrict:
		return matcher.StrictMatchThresholds(), nil
	case ProfileRelaxed:
		return matcher.RelaxedMatchThresholds(), nil
	default:
		return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "profile", profile, nil).
			WithSuggestion(fmt.Sprintf("Valid profiles: %s, %s, %s", ProfileDefault, ProfileStrict, ProfileRelaxed))
	}
}

// CreateBankFileConfig builds the bank export file shape, applying a
// delimiter override when one is given.
func CreateBankFileConfig(delimiter string) (*parsers.BankFileConfig, error) {
	config := parsers.DefaultBankFileConfig()

	if delimiter != "" {
		runes := []rune(delimiter)
		if len(runes) != 1 {
			return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "delimiter", delimiter, nil).
				WithSuggestion("Use a single character, e.g. ',' or ';'")
		}
		config.Delimiter = runes[0]
	}

	return config, nil
}

// CreateLedgerFileConfig builds the ledger file shape, applying a delimiter
// override when one is given.
func CreateLedgerFileConfig(delimiter string) (*parsers.LedgerFileConfig, error) {
	config := parsers.DefaultLedgerFileConfig()

	if delimiter != "" {
		runes := []rune(delimiter)
		if len(runes) != 1 {
			return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "delimiter", delimiter, nil).
				WithSuggestion("Use a single character, e.g. ',' or ';'")
		}
		config.Delimiter = runes[0]
	}

	return config, nil
}

// CreateReportConfig builds a report configuration for the requested output
// format.
func CreateReportConfig(format string, includeNonMatches bool) (*reporter.ReportConfig, error) {
	config := reporter.DefaultReportConfig()
	config.IncludeNonMatches = includeNonMatches

	switch format {
	case "", "console":
		config.Format = reporter.FormatConsole
	case "json":
		config.Format = reporter.FormatJSON
	case "csv":
		config.Format = reporter.FormatCSV
		// Stats sections have no CSV shape
		config.IncludeParseStats = false
	default:
		return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "output_format", format, nil).
			WithSuggestion("Valid formats: console, json, csv")
	}

	return config, nil
}
