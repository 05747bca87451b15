package reporter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/matheus-maram/concilia-powerline/internal/models"
	"github.com/matheus-maram/concilia-powerline/internal/reconciler"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the exported workbook.
const (
	SheetReconciled = "Reconciled"
	SheetStatement  = "Statement"
	SheetWriteOffs  = "Write-Offs"
)

var statementHeader = []string{
	"id", "date", "movement_type", "responsible", "document", "amount", "flow",
}

var writeOffHeader = []string{
	"id", "cost_center", "ledger_date", "ledger_id", "account",
	"responsible", "document", "total_amount", "write_off_date", "write_off_ledger_id",
}

// generateXLSX writes the three-sheet workbook: the reconciled sequence plus
// both canonical record sets. Dates and amounts are display-formatted; the
// canonical values feeding the engine are untouched.
func (g *Generator) generateXLSX(result *reconciler.RunResult, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetReconciled); err != nil {
		return fmt.Errorf("failed to create reconciled sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetStatement); err != nil {
		return fmt.Errorf("failed to create statement sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetWriteOffs); err != nil {
		return fmt.Errorf("failed to create write-off sheet: %w", err)
	}

	if err := writeSheet(f, SheetReconciled, reconciledHeader, len(result.Reconciliation.Records), func(i int) []string {
		return reconciledXLSXRow(&result.Reconciliation.Records[i])
	}); err != nil {
		return err
	}

	if err := writeSheet(f, SheetStatement, statementHeader, len(result.Statements), func(i int) []string {
		return statementRow(&result.Statements[i])
	}); err != nil {
		return err
	}

	if err := writeSheet(f, SheetWriteOffs, writeOffHeader, len(result.WriteOffs), func(i int) []string {
		return writeOffRow(&result.WriteOffs[i])
	}); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// writeSheet fills one sheet with a header row and n data rows.
func writeSheet(f *excelize.File, sheet string, header []string, n int, row func(int) []string) error {
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := setRow(f, sheet, i+2, row(i)); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNumber int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNumber)
	if err != nil {
		return fmt.Errorf("failed to address row %d: %w", rowNumber, err)
	}
	interfaces := make([]interface{}, len(values))
	for i, v := range values {
		interfaces[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &interfaces); err != nil {
		return fmt.Errorf("failed to write row %d on sheet %s: %w", rowNumber, sheet, err)
	}
	return nil
}

// reconciledXLSXRow mirrors reconciledRow but renders amounts as Brazilian
// currency for human reading.
func reconciledXLSXRow(record *models.ReconciledRecord) []string {
	row := reconciledRow(record)
	if stmt := record.Statement; stmt != nil {
		row[8] = FormatCurrencyBR(stmt.Amount)
	}
	if wo := record.WriteOff; wo != nil {
		row[14] = FormatCurrencyBR(wo.TotalAmount)
	}
	return row
}

func statementRow(tx *models.BankTransaction) []string {
	return []string{
		strconv.Itoa(tx.ID),
		FormatDateBR(tx.Date),
		tx.MovementType,
		tx.Responsible,
		tx.Document,
		FormatCurrencyBR(tx.Amount),
		string(tx.Flow),
	}
}

func writeOffRow(wo *models.WriteOffRecord) []string {
	return []string{
		strconv.Itoa(wo.ID),
		wo.CostCenter,
		FormatDateBR(wo.LedgerDate),
		wo.LedgerID,
		wo.Account,
		wo.Responsible,
		wo.Document,
		FormatCurrencyBR(wo.TotalAmount),
		FormatDateBR(wo.WriteOffDate),
		wo.WriteOffLedgerID,
	}
}
