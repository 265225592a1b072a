package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	apperrors "ledger-reconciliation-service/pkg/errors"
	"ledger-reconciliation-service/pkg/logger"
)

// HandleError prints a user-facing message for a failed command and returns
// the process exit code. File errors exit 2, parse and data errors 3,
// configuration errors 4, contract and internal errors 5.
func HandleError(err error) int {
	if err == nil {
		return 0
	}

	log := logger.GetGlobalLogger().WithComponent("cli")
	log.WithError(err).Error("Command failed")

	if ledgerErr, ok := apperrors.AsLedgerError(err); ok {
		return handleLedgerError(ledgerErr)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}

func handleLedgerError(err *apperrors.LedgerError) int {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", err.Suggestion)
	}

	fmt.Fprintf(os.Stderr, "\n%s\n", categoryHelp(err.Category))

	if viper.GetBool("verbose") && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

// categoryHelp returns category-specific help text.
func categoryHelp(category apperrors.Category) string {
	switch category {
	case apperrors.CategoryFile:
		return `File error help:
• Check if the file exists and is readable
• Verify the file path is correct (use absolute paths if needed)
• Ensure you have proper permissions to access the file`

	case apperrors.CategoryParse:
		return `Parse error help:
• Verify the CSV file has a header row with the expected columns
• Ensure the file uses UTF-8 encoding
• Check dates use YYYY-MM-DD and amounts are plain decimal numbers
• Use 'ledgermatch --help' for examples of accepted file formats`

	case apperrors.CategoryData:
		return `Data error help:
• Check that all required fields have values
• Verify date formats use YYYY-MM-DD
• Ensure amounts are decimal numbers without stray characters
• Ledger entry amounts must be non-negative; direction comes from the kind`

	case apperrors.CategoryConfiguration:
		return `Configuration error help:
• Check your command-line flags and arguments
• Verify configuration file syntax if using --config
• Use 'ledgermatch detect --help' or 'ledgermatch reconcile --help' for options`

	default:
		return `For more help:
• Use 'ledgermatch --help' for general help
• Run with --verbose for more detailed error information
• Report bugs or ask for help on the project repository`
	}
}
