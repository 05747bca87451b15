package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/matheus-maram/concilia-powerline/cmd/concilia/config"
	"github.com/matheus-maram/concilia-powerline/internal/reconciler"
	"github.com/matheus-maram/concilia-powerline/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the reconcile command
var (
	statementFile       string
	writeOffFile        string
	outputFormat        string
	outputFile          string
	dateTolerance       int
	similarityThreshold int

	// Decoder layout overrides
	statementSheet   int
	statementHeaders int
	writeOffHeaders  int
	writeOffDelim    string
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile a bank statement with the write-off ledger",
	Long: `Reconcile compares outgoing bank statement transactions with write-off
ledger entries to identify matches and the residue left on either side.

This command requires:
- A bank statement file (XLSX export)
- A write-off ledger file (semicolon-delimited, Latin-1 encoded)

Matching runs in three passes: exact one-to-one amounts first, then equal
amounts with the nearest ledger date inside the tolerance window, then equal
amounts with responsible names above the similarity threshold.

Examples:
  # Basic reconciliation to the console
  concilia reconcile --statement-file extrato.xlsx --writeoff-file baixas.csv

  # Wider date window and a stricter name threshold
  concilia reconcile --statement-file extrato.xlsx --writeoff-file baixas.csv \
    --date-tolerance 5 --similarity-threshold 90

  # Full workbook export
  concilia reconcile --statement-file extrato.xlsx --writeoff-file baixas.csv \
    --output-format xlsx --output-file conciliacao.xlsx`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	// Required flags
	reconcileCmd.Flags().StringVarP(&statementFile, "statement-file", "s", "", "path to bank statement XLSX file (required)")
	reconcileCmd.Flags().StringVarP(&writeOffFile, "writeoff-file", "w", "", "path to write-off ledger file (required)")

	// Output flags
	reconcileCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv, xlsx")
	reconcileCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	// Matching configuration flags
	reconcileCmd.Flags().IntVarP(&dateTolerance, "date-tolerance", "d", 3, "date matching tolerance in days")
	reconcileCmd.Flags().IntVarP(&similarityThreshold, "similarity-threshold", "t", 85, "name similarity threshold (0-100)")

	// Decoder layout overrides
	reconcileCmd.Flags().IntVar(&statementSheet, "statement-sheet", -1, "statement worksheet index override")
	reconcileCmd.Flags().IntVar(&statementHeaders, "statement-header-rows", -1, "statement header row count override")
	reconcileCmd.Flags().IntVar(&writeOffHeaders, "writeoff-header-lines", -1, "write-off header line count override")
	reconcileCmd.Flags().StringVar(&writeOffDelim, "writeoff-delimiter", "", "write-off field delimiter override")

	// Mark required flags
	reconcileCmd.MarkFlagRequired("statement-file")
	reconcileCmd.MarkFlagRequired("writeoff-file")

	// Bind flags to viper
	viper.BindPFlag("statement-file", reconcileCmd.Flags().Lookup("statement-file"))
	viper.BindPFlag("writeoff-file", reconcileCmd.Flags().Lookup("writeoff-file"))
	viper.BindPFlag("output-format", reconcileCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", reconcileCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("date-tolerance", reconcileCmd.Flags().Lookup("date-tolerance"))
	viper.BindPFlag("similarity-threshold", reconcileCmd.Flags().Lookup("similarity-threshold"))
	viper.BindPFlag("statement-sheet", reconcileCmd.Flags().Lookup("statement-sheet"))
	viper.BindPFlag("statement-header-rows", reconcileCmd.Flags().Lookup("statement-header-rows"))
	viper.BindPFlag("writeoff-header-lines", reconcileCmd.Flags().Lookup("writeoff-header-lines"))
	viper.BindPFlag("writeoff-delimiter", reconcileCmd.Flags().Lookup("writeoff-delimiter"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	statementFile = viper.GetString("statement-file")
	writeOffFile = viper.GetString("writeoff-file")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	dateTolerance = viper.GetInt("date-tolerance")
	similarityThreshold = viper.GetInt("similarity-threshold")
	statementSheet = viper.GetInt("statement-sheet")
	statementHeaders = viper.GetInt("statement-header-rows")
	writeOffHeaders = viper.GetInt("writeoff-header-lines")
	writeOffDelim = viper.GetString("writeoff-delimiter")

	// Validate required flags
	if statementFile == "" {
		return fmt.Errorf("statement-file is required")
	}
	if writeOffFile == "" {
		return fmt.Errorf("writeoff-file is required")
	}

	// Validate file existence
	if err := validateFileExists(statementFile, "statement file"); err != nil {
		return err
	}
	if err := validateFileExists(writeOffFile, "write-off file"); err != nil {
		return err
	}

	// Validate output format
	if !reporter.OutputFormat(outputFormat).IsValid() {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv, xlsx", outputFormat)
	}

	// Validate tolerances
	if dateTolerance < 0 {
		return fmt.Errorf("date tolerance cannot be negative")
	}
	if similarityThreshold < 0 || similarityThreshold > 100 {
		return fmt.Errorf("similarity threshold must be between 0 and 100")
	}

	// Validate output file directory exists if specified
	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
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

	// Check if file is readable
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting reconciliation...\n")
		fmt.Fprintf(os.Stderr, "Statement file: %s\n", statementFile)
		fmt.Fprintf(os.Stderr, "Write-off file: %s\n", writeOffFile)
		fmt.Fprintf(os.Stderr, "Output format: %s\n", outputFormat)
		if outputFile != "" {
			fmt.Fprintf(os.Stderr, "Output file: %s\n", outputFile)
		}
	}

	// Create configurations
	statementConfig := config.CreateStatementConfig(statementSheet, statementHeaders)
	writeOffConfig := config.CreateWriteOffConfig(writeOffHeaders, writeOffDelim)
	matchConfig := config.CreateMatchConfig(dateTolerance, similarityThreshold)

	if err := config.ValidateConfigs(statementConfig, writeOffConfig, matchConfig); err != nil {
		return err
	}

	// Create reconciliation service
	service, err := reconciler.NewService(statementConfig, writeOffConfig, matchConfig)
	if err != nil {
		return fmt.Errorf("failed to create reconciliation service: %w", err)
	}

	// Perform reconciliation
	result, err := service.Run(&reconciler.Request{
		StatementFile: statementFile,
		WriteOffFile:  writeOffFile,
	})
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	// Generate report
	reportConfig := config.CreateReportConfig(outputFormat)
	generator, err := reporter.NewGenerator(reportConfig)
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	// Determine output destination
	var output *os.File
	if outputFile != "" {
		output, err = os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	} else {
		output = os.Stdout
	}

	if err := generator.Generate(result, output); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	// Show completion message
	if viper.GetBool("verbose") {
		summary := result.Reconciliation.Summary
		fmt.Fprintf(os.Stderr, "\nReconciliation completed successfully.\n")
		fmt.Fprintf(os.Stderr, "Processed %d outgoing transactions and %d write-offs.\n",
			summary.EligibleStatements, summary.TotalWriteOffs)
		fmt.Fprintf(os.Stderr, "Found %d matches, %d unmatched statement rows, %d unmatched write-offs.\n",
			summary.Matched, summary.StatementOnly, summary.WriteOffOnly)
		fmt.Fprintf(os.Stderr, "Processing time: %v\n", result.Duration)
	}

	return nil
}
