// Package parsers turns the two incompatible export formats into canonical
// record sets: the XLSX bank statement and the semicolon-delimited write-off
// ledger report.
//
// Both decoders are pure transforms and best-effort per row: a row that fails
// a field-level parse is dropped or has the offending field nulled, logged at
// debug level, and never aborts the decode. Only structural problems are
// fatal: a workbook whose data region is missing expected columns
// (missing_column) or raw input that cannot be read at all
// (unsupported_input).
package parsers

import (
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/matheus-maram/concilia-powerline/internal/models"
	"github.com/matheus-maram/concilia-powerline/pkg/errors"
	"github.com/matheus-maram/concilia-powerline/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Statement column positions within the five-column data region.
const (
	stmtColDate     = 0
	stmtColSpacer   = 1
	stmtColHistory  = 2
	stmtColDocument = 3
	stmtColAmount   = 4
)

// balanceToken marks balance-carry lines, which are not transactions.
const balanceToken = "SALDO"

// responsibleSplit matches the first run of two or more whitespace characters
// inside a history cell; text before it is the movement type, text after it
// the responsible party.
var responsibleSplit = regexp.MustCompile(`\s{2,}`)

// StatementConfig controls where the decoder looks inside the workbook.
type StatementConfig struct {
	// SheetIndex selects the worksheet to read. The export has one sheet.
	SheetIndex int
	// HeaderRows is the number of leading rows before the data region.
	HeaderRows int
	// DataColumns is the width of the data region.
	DataColumns int
}

// DefaultStatementConfig returns the configuration matching the bank's
// current export layout.
func DefaultStatementConfig() *StatementConfig {
	return &StatementConfig{
		SheetIndex:  0,
		HeaderRows:  3,
		DataColumns: 5,
	}
}

// Validate validates the statement decoder configuration.
func (c *StatementConfig) Validate() error {
	if c.SheetIndex < 0 {
		return errors.ConfigurationError("sheet_index", c.SheetIndex, nil)
	}
	if c.HeaderRows < 1 {
		return errors.ConfigurationError("header_rows", c.HeaderRows, nil)
	}
	if c.DataColumns < 5 {
		return errors.ConfigurationError("data_columns", c.DataColumns, nil)
	}
	return nil
}

// StatementMeta carries the branch/account labels found in the workbook's
// first row. Either may be empty when the cell is out of range.
type StatementMeta struct {
	Branch  string `json:"branch,omitempty"`
	Account string `json:"account,omitempty"`
}

// StatementDecoder decodes the bank statement XLSX export into canonical
// BankTransaction records.
type StatementDecoder struct {
	config *StatementConfig
	logger logger.Logger
}

// NewStatementDecoder creates a StatementDecoder with the given
// configuration, falling back to the default layout when nil.
func NewStatementDecoder(config *StatementConfig) (*StatementDecoder, error) {
	if config == nil {
		config = DefaultStatementConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &StatementDecoder{
		config: config,
		logger: logger.WithComponent("statement_decoder"),
	}, nil
}

// DecodeFile decodes the bank statement workbook at path.
func (d *StatementDecoder) DecodeFile(path string) ([]models.BankTransaction, *StatementMeta, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, nil, errors.UnsupportedInput(path, err)
	}
	defer file.Close()

	return d.Decode(file, path)
}

// Decode decodes the bank statement workbook read from r. The source name is
// used only for error context.
func (d *StatementDecoder) Decode(r io.Reader, source string) ([]models.BankTransaction, *StatementMeta, error) {
	workbook, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, errors.UnsupportedInput(source, err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if d.config.SheetIndex >= len(sheets) {
		return nil, nil, errors.UnsupportedInput(source, nil).
			WithContext("sheet_index", d.config.SheetIndex)
	}

	rows, err := workbook.GetRows(sheets[d.config.SheetIndex])
	if err != nil {
		return nil, nil, errors.UnsupportedInput(source, err)
	}

	meta := d.readMeta(rows)

	dataRows := rows
	if len(dataRows) > d.config.HeaderRows {
		dataRows = dataRows[d.config.HeaderRows:]
	} else {
		dataRows = nil
	}

	// The data region must span the full five columns somewhere; a workbook
	// that never reaches the amount column is structurally corrupt and fails
	// before any rows are emitted.
	if err := d.checkColumns(dataRows, source); err != nil {
		return nil, nil, err
	}

	var transactions []models.BankTransaction
	for i, row := range dataRows {
		tx, ok := d.decodeRow(row, d.config.HeaderRows+i+1)
		if !ok {
			continue
		}
		tx.ID = len(transactions) + 1
		transactions = append(transactions, tx)
	}

	d.logger.WithFields(logger.Fields{
		"source":  source,
		"rows":    len(dataRows),
		"decoded": len(transactions),
	}).Debug("Decoded bank statement")

	return transactions, meta, nil
}

// readMeta extracts the branch and account labels from fixed positions in
// the first row.
func (d *StatementDecoder) readMeta(rows [][]string) *StatementMeta {
	meta := &StatementMeta{}
	if len(rows) == 0 {
		return meta
	}
	first := rows[0]
	if len(first) > 1 {
		meta.Branch = strings.TrimSpace(first[1])
	}
	if len(first) > 3 {
		meta.Account = strings.TrimSpace(first[3])
	}
	return meta
}

// checkColumns verifies the data region reaches the amount column on at
// least one non-empty row.
func (d *StatementDecoder) checkColumns(dataRows [][]string, source string) error {
	maxWidth := 0
	for _, row := range dataRows {
		if isEmptyRow(row) {
			continue
		}
		if len(row) > maxWidth {
			maxWidth = len(row)
		}
	}
	if maxWidth == 0 {
		// No data rows at all: nothing to check, nothing to emit.
		return nil
	}
	if maxWidth < d.config.DataColumns {
		return errors.MissingColumn(source, "amount").
			WithContext("columns_found", maxWidth).
			WithContext("columns_expected", d.config.DataColumns)
	}
	return nil
}

// decodeRow turns one raw spreadsheet row into a BankTransaction. The second
// return value is false when the row is not a transaction (empty, balance
// carry, or unparseable date).
func (d *StatementDecoder) decodeRow(row []string, lineNumber int) (models.BankTransaction, bool) {
	if isEmptyRow(row) {
		return models.BankTransaction{}, false
	}

	row = padRow(row, d.config.DataColumns)
	history := strings.TrimSpace(row[stmtColHistory])

	if strings.Contains(strings.ToUpper(history), balanceToken) {
		return models.BankTransaction{}, false
	}

	date, err := models.ParseDayFirstDate(row[stmtColDate])
	if err != nil {
		d.logger.WithFields(logger.Fields{
			"line":  lineNumber,
			"value": row[stmtColDate],
		}).Debug("Dropping statement row with unparseable date")
		return models.BankTransaction{}, false
	}

	movementType, responsible := splitHistory(history)

	var amount decimal.NullDecimal
	if value, err := models.ParseAmount(row[stmtColAmount]); err == nil {
		amount = decimal.NullDecimal{Decimal: value, Valid: true}
	} else {
		d.logger.WithFields(logger.Fields{
			"line":  lineNumber,
			"value": row[stmtColAmount],
		}).Debug("Statement row has unparseable amount, keeping as null")
	}

	return models.BankTransaction{
		Date:         date,
		MovementType: movementType,
		Responsible:  responsible,
		Document:     strings.TrimSpace(row[stmtColDocument]),
		Amount:       amount,
		Flow:         models.FlowFromAmount(amount),
	}, true
}

// splitHistory divides a history cell into (movement type, responsible) on
// the first run of two or more consecutive whitespace characters. When no
// such run exists the whole string is the movement type.
func splitHistory(history string) (string, string) {
	loc := responsibleSplit.FindStringIndex(history)
	if loc == nil {
		return history, ""
	}
	movementType := strings.TrimSpace(history[:loc[0]])
	responsible := strings.TrimSpace(history[loc[1]:])
	return movementType, responsible
}

// isEmptyRow reports whether every cell is empty or whitespace.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// padRow extends a row with empty cells up to width. GetRows trims trailing
// empty cells, so short rows are normal.
func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}
