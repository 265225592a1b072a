package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ledger-reconciliation-service/cmd/ledgermatch/config"
	"ledger-reconciliation-service/internal/reconciler"
	"ledger-reconciliation-service/internal/reporter"
	"ledger-reconciliation-service/pkg/logger"
)

// Flags for the reconcile command
var (
	reconcileBankFile     string
	reconcileLedgerFile   string
	reconcileBusinessID   string
	reconcileOutputFormat string
	reconcileOutputFile   string
	reconcileProfile      string
	reconcileDelimiter    string
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Propose matches between bank transactions and ledger entries",
	Long: `Reconcile compares imported bank transactions with the manually entered
income and expense records of one business and proposes links for review.

Money in is matched against income entries and money out against expense
entries, on the same calendar date. Every proposed match is UNRESOLVED;
confirming or dismissing it is a user decision made afterwards.

Examples:
  # Basic reconciliation
  ledgermatch reconcile --bank-file export.csv --ledger-file ledger.csv --business-id BIZ001

  # Relaxed matching with a JSON report
  ledgermatch reconcile --bank-file export.csv --ledger-file ledger.csv --business-id BIZ001 \
    --profile relaxed --output-format json --output-file matches.json`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	// Required flags
	reconcileCmd.Flags().StringVarP(&reconcileBankFile, "bank-file", "b", "", "path to the bank export CSV file (required)")
	reconcileCmd.Flags().StringVarP(&reconcileLedgerFile, "ledger-file", "l", "", "path to the ledger CSV file (required)")
	reconcileCmd.Flags().StringVar(&reconcileBusinessID, "business-id", "", "business the files belong to (required)")

	// Output flags
	reconcileCmd.Flags().StringVarP(&reconcileOutputFormat, "output-format", "f", "console", "output format: console, json, csv")
	reconcileCmd.Flags().StringVarP(&reconcileOutputFile, "output-file", "o", "", "output file path (default: stdout)")

	// Matching flags
	reconcileCmd.Flags().StringVar(&reconcileProfile, "profile", "default", "threshold profile: default, strict, relaxed")
	reconcileCmd.Flags().StringVar(&reconcileDelimiter, "delimiter", "", "CSV delimiter override for both files")

	reconcileCmd.MarkFlagRequired("bank-file")
	reconcileCmd.MarkFlagRequired("ledger-file")
	reconcileCmd.MarkFlagRequired("business-id")

	// Bind flags to viper
	viper.BindPFlag("reconcile.bank-file", reconcileCmd.Flags().Lookup("bank-file"))
	viper.BindPFlag("reconcile.ledger-file", reconcileCmd.Flags().Lookup("ledger-file"))
	viper.BindPFlag("reconcile.business-id", reconcileCmd.Flags().Lookup("business-id"))
	viper.BindPFlag("reconcile.output-format", reconcileCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("reconcile.output-file", reconcileCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("reconcile.profile", reconcileCmd.Flags().Lookup("profile"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	if err := validateInputFile(reconcileBankFile, "bank export file"); err != nil {
		return err
	}
	if err := validateInputFile(reconcileLedgerFile, "ledger file"); err != nil {
		return err
	}
	if reconcileBusinessID == "" {
		return fmt.Errorf("business-id is required")
	}
	return validateOutputTarget(reconcileOutputFile)
}

// validateInputFile checks that the path names a readable file.
func validateInputFile(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

// validateOutputTarget checks that the output directory exists when an
// output file is requested.
func validateOutputTarget(outputFile string) error {
	if outputFile == "" {
		return nil
	}

	dir := filepath.Dir(outputFile)
	if dir != "." {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("output directory does not exist: %s", dir)
		}
	}
	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	log := logger.GetGlobalLogger()

	thresholds, err := config.CreateMatchThresholds(reconcileProfile)
	if err != nil {
		return err
	}

	bankConfig, err := config.CreateBankFileConfig(reconcileDelimiter)
	if err != nil {
		return err
	}

	ledgerConfig, err := config.CreateLedgerFileConfig(reconcileDelimiter)
	if err != nil {
		return err
	}

	service, err := reconciler.NewService(bankConfig, ledgerConfig, thresholds, log)
	if err != nil {
		return err
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Reconciling %s against %s for business %s\n",
			reconcileBankFile, reconcileLedgerFile, reconcileBusinessID)
	}

	run, err := service.RunReconciliation(context.Background(), &reconciler.ReconcileRequest{
		BankFile:   reconcileBankFile,
		LedgerFile: reconcileLedgerFile,
		BusinessID: reconcileBusinessID,
	})
	if err != nil {
		return err
	}

	reportConfig, err := config.CreateReportConfig(reconcileOutputFormat, false)
	if err != nil {
		return err
	}

	generator, err := reporter.NewReportGenerator(reportConfig)
	if err != nil {
		return err
	}

	sink, err := reporter.NewOutputSink(reconcileOutputFile, log)
	if err != nil {
		return err
	}

	if err := generator.GenerateReconciliationReport(run, sink.Writer()); err != nil {
		sink.Close()
		return err
	}
	if err := sink.Close(); err != nil {
		return err
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nProcessed %d transactions against %d income and %d expense entries in %s.\n",
			run.TransactionCount, run.IncomeEntryCount, run.ExpenseEntryCount, run.Duration)
		fmt.Fprintf(os.Stderr, "Proposed %d matches (%d high confidence).\n",
			len(run.Matches), run.HighConfidence)
	}

	return nil
}
