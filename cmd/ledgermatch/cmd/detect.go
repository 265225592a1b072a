package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ledger-reconciliation-service/cmd/ledgermatch/config"
	"ledger-reconciliation-service/internal/reconciler"
	"ledger-reconciliation-service/internal/reporter"
	"ledger-reconciliation-service/pkg/logger"
)

// Flags for the detect command
var (
	detectBankFile     string
	detectLedgerFile   string
	detectBusinessID   string
	detectOutputFormat string
	detectOutputFile   string
	detectProfile      string
	detectDelimiter    string
	detectShowAll      bool
)

// detectCmd represents the detect command
var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Screen a bank export for entries already in the ledger",
	Long: `Detect classifies every row of a bank export file against the existing
ledger entries of one business, so already-recorded rows can be skipped
during import.

Each row is classified as EXACT, LIKELY, DATE_ONLY or NONE, in decreasing
order of certainty. Malformed rows are carried through and classified NONE
rather than blocking the import.

Examples:
  # Screen an export before importing it
  ledgermatch detect --bank-file export.csv --ledger-file ledger.csv --business-id BIZ001

  # Stricter matching, all rows in the output
  ledgermatch detect --bank-file export.csv --ledger-file ledger.csv --business-id BIZ001 \
    --profile strict --show-all

  # Machine-readable output
  ledgermatch detect --bank-file export.csv --ledger-file ledger.csv --business-id BIZ001 \
    --output-format csv --output-file duplicates.csv`,

	PreRunE: validateDetectFlags,
	RunE:    runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)

	// Required flags
	detectCmd.Flags().StringVarP(&detectBankFile, "bank-file", "b", "", "path to the bank export CSV file (required)")
	detectCmd.Flags().StringVarP(&detectLedgerFile, "ledger-file", "l", "", "path to the ledger CSV file (required)")
	detectCmd.Flags().StringVar(&detectBusinessID, "business-id", "", "business the files belong to (required)")

	// Output flags
	detectCmd.Flags().StringVarP(&detectOutputFormat, "output-format", "f", "console", "output format: console, json, csv")
	detectCmd.Flags().StringVarP(&detectOutputFile, "output-file", "o", "", "output file path (default: stdout)")
	detectCmd.Flags().BoolVar(&detectShowAll, "show-all", false, "include NONE classifications in the output")

	// Matching flags
	detectCmd.Flags().StringVar(&detectProfile, "profile", "default", "threshold profile: default, strict, relaxed")
	detectCmd.Flags().StringVar(&detectDelimiter, "delimiter", "", "CSV delimiter override for both files")

	detectCmd.MarkFlagRequired("bank-file")
	detectCmd.MarkFlagRequired("ledger-file")
	detectCmd.MarkFlagRequired("business-id")

	// Bind flags to viper
	viper.BindPFlag("detect.bank-file", detectCmd.Flags().Lookup("bank-file"))
	viper.BindPFlag("detect.ledger-file", detectCmd.Flags().Lookup("ledger-file"))
	viper.BindPFlag("detect.business-id", detectCmd.Flags().Lookup("business-id"))
	viper.BindPFlag("detect.output-format", detectCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("detect.output-file", detectCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("detect.profile", detectCmd.Flags().Lookup("profile"))
}

func validateDetectFlags(cmd *cobra.Command, args []string) error {
	if err := validateInputFile(detectBankFile, "bank export file"); err != nil {
		return err
	}
	if err := validateInputFile(detectLedgerFile, "ledger file"); err != nil {
		return err
	}
	if detectBusinessID == "" {
		return fmt.Errorf("business-id is required")
	}
	return validateOutputTarget(detectOutputFile)
}

func runDetect(cmd *cobra.Command, args []string) error {
	log := logger.GetGlobalLogger()

	thresholds, err := config.CreateMatchThresholds(detectProfile)
	if err != nil {
		return err
	}

	bankConfig, err := config.CreateBankFileConfig(detectDelimiter)
	if err != nil {
		return err
	}

	ledgerConfig, err := config.CreateLedgerFileConfig(detectDelimiter)
	if err != nil {
		return err
	}

	service, err := reconciler.NewService(bankConfig, ledgerConfig, thresholds, log)
	if err != nil {
		return err
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Screening %s against %s for business %s\n",
			detectBankFile, detectLedgerFile, detectBusinessID)
	}

	run, err := service.RunDetection(context.Background(), &reconciler.DetectRequest{
		BankFile:   detectBankFile,
		LedgerFile: detectLedgerFile,
		BusinessID: detectBusinessID,
	})
	if err != nil {
		return err
	}

	reportConfig, err := config.CreateReportConfig(detectOutputFormat, detectShowAll)
	if err != nil {
		return err
	}

	generator, err := reporter.NewReportGenerator(reportConfig)
	if err != nil {
		return err
	}

	sink, err := reporter.NewOutputSink(detectOutputFile, log)
	if err != nil {
		return err
	}

	if err := generator.GenerateDetectionReport(run, sink.Writer()); err != nil {
		sink.Close()
		return err
	}
	if err := sink.Close(); err != nil {
		return err
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nScreened %d candidates against %d ledger entries in %s.\n",
			run.CandidateCount, run.EntryCount, run.Duration)
		fmt.Fprintf(os.Stderr, "Found %d potential duplicates.\n", run.DuplicateCount())
	}

	return nil
}
