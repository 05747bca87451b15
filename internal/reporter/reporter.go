// Package reporter renders reconciliation results for humans and for
// re-export. It is a pure presentation layer: it formats dates as
// dd/mm/yyyy and amounts as Brazilian currency for display, but never
// alters the canonical values produced by the decoders and the engine.
//
// Supported output formats:
//   - Console: human-readable summary for terminal display
//   - JSON: the full run result for programmatic consumption
//   - CSV: the reconciled record sequence for spreadsheet applications
//   - XLSX: a three-sheet workbook (Reconciled, Statement, Write-Offs)
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/matheus-maram/concilia-powerline/internal/models"
	"github.com/matheus-maram/concilia-powerline/internal/reconciler"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
	FormatXLSX    OutputFormat = "xlsx"
)

// IsValid checks if the output format is supported.
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV, FormatXLSX:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation.
type ReportConfig struct {
	Format       OutputFormat `json:"format"`
	CSVDelimiter rune         `json:"csv_delimiter"`
	CSVHeaders   bool         `json:"csv_headers"`
}

// DefaultReportConfig returns the default report configuration.
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:       FormatConsole,
		CSVDelimiter: ',',
		CSVHeaders:   true,
	}
}

// Validate validates the report configuration.
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format '%s'", c.Format)
	}
	if c.CSVDelimiter == 0 {
		return fmt.Errorf("csv delimiter cannot be empty")
	}
	return nil
}

// Generator renders reconciliation run results in the configured format.
type Generator struct {
	config *ReportConfig
}

// NewGenerator creates a Generator with the given configuration, falling
// back to the defaults when nil.
func NewGenerator(config *ReportConfig) (*Generator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}
	return &Generator{config: config}, nil
}

// Generate writes the report for a run result to w.
func (g *Generator) Generate(result *reconciler.RunResult, w io.Writer) error {
	if result == nil || result.Reconciliation == nil {
		return fmt.Errorf("cannot generate report from nil result")
	}

	switch g.config.Format {
	case FormatConsole:
		return g.generateConsole(result, w)
	case FormatJSON:
		return g.generateJSON(result, w)
	case FormatCSV:
		return g.generateCSV(result, w)
	case FormatXLSX:
		return g.generateXLSX(result, w)
	default:
		return fmt.Errorf("unsupported output format '%s'", g.config.Format)
	}
}

func (g *Generator) generateConsole(result *reconciler.RunResult, w io.Writer) error {
	summary := result.Reconciliation.Summary

	fmt.Fprintf(w, "Reconciliation Report\n")
	fmt.Fprintf(w, "=====================\n\n")

	if result.StatementMeta != nil && (result.StatementMeta.Branch != "" || result.StatementMeta.Account != "") {
		fmt.Fprintf(w, "Branch:  %s\n", result.StatementMeta.Branch)
		fmt.Fprintf(w, "Account: %s\n\n", result.StatementMeta.Account)
	}

	fmt.Fprintf(w, "Statement rows decoded: %d (outgoing: %d)\n", len(result.Statements), summary.EligibleStatements)
	fmt.Fprintf(w, "Write-off rows decoded: %d\n\n", summary.TotalWriteOffs)

	fmt.Fprintf(w, "Matched:          %d\n", summary.Matched)
	fmt.Fprintf(w, "  tier 1 (amount):        %d\n", summary.Tier1Matches)
	fmt.Fprintf(w, "  tier 2 (amount+date):   %d\n", summary.Tier2Matches)
	fmt.Fprintf(w, "  tier 3 (amount+name):   %d\n", summary.Tier3Matches)
	fmt.Fprintf(w, "Statement only:   %d\n", summary.StatementOnly)
	fmt.Fprintf(w, "Write-off only:   %d\n\n", summary.WriteOffOnly)

	fmt.Fprintf(w, "Matched total:              %s\n", FormatCurrencyBR(nullable(summary.MatchedAmount)))
	fmt.Fprintf(w, "Unmatched statement total:  %s\n", FormatCurrencyBR(nullable(summary.UnmatchedStatementAmount)))
	fmt.Fprintf(w, "Unmatched write-off total:  %s\n", FormatCurrencyBR(nullable(summary.UnmatchedWriteOffAmount)))

	return nil
}

func (g *Generator) generateJSON(result *reconciler.RunResult, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to encode JSON report: %w", err)
	}
	return nil
}

// reconciledHeader lists the CSV/XLSX columns of the reconciled sheet.
var reconciledHeader = []string{
	"reconciled_id", "status", "tier", "detail",
	"statement_id", "statement_date", "statement_document", "statement_responsible", "statement_amount",
	"write_off_id", "ledger_date", "write_off_date", "write_off_document", "write_off_responsible", "write_off_amount", "cost_center",
}

func (g *Generator) generateCSV(result *reconciler.RunResult, w io.Writer) error {
	writer := csv.NewWriter(w)
	writer.Comma = g.config.CSVDelimiter

	if g.config.CSVHeaders {
		if err := writer.Write(reconciledHeader); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}

	for i := range result.Reconciliation.Records {
		if err := writer.Write(reconciledRow(&result.Reconciliation.Records[i])); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// reconciledRow flattens one reconciled record into the output columns.
// Dates render as dd/mm/yyyy, amounts in their canonical decimal form.
func reconciledRow(record *models.ReconciledRecord) []string {
	row := make([]string, len(reconciledHeader))
	row[0] = strconv.Itoa(record.ReconciledID)
	row[1] = string(record.Status)
	if record.Tier > 0 {
		row[2] = strconv.Itoa(record.Tier)
	}
	row[3] = record.Detail

	if stmt := record.Statement; stmt != nil {
		row[4] = strconv.Itoa(stmt.ID)
		row[5] = FormatDateBR(stmt.Date)
		row[6] = stmt.Document
		row[7] = stmt.Responsible
		row[8] = formatAmount(stmt.Amount)
	}

	if wo := record.WriteOff; wo != nil {
		row[9] = strconv.Itoa(wo.ID)
		row[10] = FormatDateBR(wo.LedgerDate)
		row[11] = FormatDateBR(wo.WriteOffDate)
		row[12] = wo.Document
		row[13] = wo.Responsible
		row[14] = formatAmount(wo.TotalAmount)
		row[15] = wo.CostCenter
	}

	return row
}
