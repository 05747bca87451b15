package reporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/matheus-maram/concilia-powerline/internal/matcher"
	"github.com/matheus-maram/concilia-powerline/internal/models"
	"github.com/matheus-maram/concilia-powerline/internal/parsers"
	"github.com/matheus-maram/concilia-powerline/internal/reconciler"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func amount(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

// sampleRunResult builds a small run with one match, one leftover on each
// side, and the canonical record sets behind them.
func sampleRunResult() *reconciler.RunResult {
	statements := []models.BankTransaction{
		{
			ID:           1,
			Date:         time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			MovementType: "PIX ENVIADO",
			Responsible:  "JOAO DA SILVA",
			Document:     "123",
			Amount:       amount("-150.00"),
			Flow:         models.FlowOutbound,
		},
		{
			ID:           2,
			Date:         time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
			MovementType: "PIX ENVIADO",
			Responsible:  "SEM PAR",
			Amount:       amount("-42.00"),
			Flow:         models.FlowOutbound,
		},
	}
	writeOffs := []models.WriteOffRecord{
		{
			ID:               1,
			CostCenter:       "ADMINISTRATIVO",
			LedgerDate:       time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
			LedgerID:         "1001",
			Account:          "Banco Santander",
			Responsible:      "JOAO DA SILVA",
			Document:         "NF 55",
			TotalAmount:      amount("150.00"),
			WriteOffDate:     time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
			WriteOffLedgerID: "184530",
		},
		{
			ID:          2,
			CostCenter:  "COMERCIAL",
			LedgerDate:  time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			LedgerID:    "1002",
			Account:     "Banco Santander",
			TotalAmount: amount("777.00"),
		},
	}

	records := []models.ReconciledRecord{
		{
			ReconciledID: 1,
			Status:       models.StatusMatched,
			Tier:         1,
			Detail:       "exact amount",
			Statement:    &statements[0],
			WriteOff:     &writeOffs[0],
		},
		{
			ReconciledID: 2,
			Status:       models.StatusStatementOnly,
			Statement:    &statements[1],
		},
		{
			ReconciledID: 3,
			Status:       models.StatusWriteOffOnly,
			WriteOff:     &writeOffs[1],
		},
	}

	return &reconciler.RunResult{
		Reconciliation: &matcher.Result{
			Records: records,
			Summary: matcher.Summary{
				EligibleStatements:       2,
				TotalWriteOffs:           2,
				Matched:                  1,
				StatementOnly:            1,
				WriteOffOnly:             1,
				Tier1Matches:             1,
				MatchedAmount:            decimal.RequireFromString("150.00"),
				UnmatchedStatementAmount: decimal.RequireFromString("42.00"),
				UnmatchedWriteOffAmount:  decimal.RequireFromString("777.00"),
			},
		},
		Statements:    statements,
		StatementMeta: &parsers.StatementMeta{Branch: "1234", Account: "56789-0"},
		WriteOffs:     writeOffs,
		ProcessedAt:   time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newTestGenerator(t *testing.T, format OutputFormat) *Generator {
	t.Helper()
	config := DefaultReportConfig()
	config.Format = format
	generator, err := NewGenerator(config)
	require.NoError(t, err)
	return generator
}

func TestGenerator_Console(t *testing.T) {
	generator := newTestGenerator(t, FormatConsole)

	var buf bytes.Buffer
	require.NoError(t, generator.Generate(sampleRunResult(), &buf))

	output := buf.String()
	assert.Contains(t, output, "Reconciliation Report")
	assert.Contains(t, output, "Branch:  1234")
	assert.Contains(t, output, "Account: 56789-0")
	assert.Contains(t, output, "Matched:          1")
	assert.Contains(t, output, "tier 1 (amount):        1")
	assert.Contains(t, output, "R$ 150,00")
	assert.Contains(t, output, "R$ 777,00")
}

func TestGenerator_JSON(t *testing.T) {
	generator := newTestGenerator(t, FormatJSON)

	var buf bytes.Buffer
	require.NoError(t, generator.Generate(sampleRunResult(), &buf))

	var decoded reconciler.RunResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	require.NotNil(t, decoded.Reconciliation)
	assert.Len(t, decoded.Reconciliation.Records, 3)
	assert.Equal(t, 1, decoded.Reconciliation.Summary.Matched)
	assert.Equal(t, "1234", decoded.StatementMeta.Branch)
}

func TestGenerator_CSV(t *testing.T) {
	generator := newTestGenerator(t, FormatCSV)

	var buf bytes.Buffer
	require.NoError(t, generator.Generate(sampleRunResult(), &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, reconciledHeader, rows[0])

	matched := rows[1]
	assert.Equal(t, "1", matched[0])
	assert.Equal(t, "matched", matched[1])
	assert.Equal(t, "1", matched[2])
	assert.Equal(t, "exact amount", matched[3])
	assert.Equal(t, "10/03/2024", matched[5])
	assert.Equal(t, "JOAO DA SILVA", matched[7])
	assert.Equal(t, "-150.00", matched[8])
	assert.Equal(t, "11/03/2024", matched[11])
	assert.Equal(t, "150.00", matched[14])
	assert.Equal(t, "ADMINISTRATIVO", matched[15])

	statementOnly := rows[2]
	assert.Equal(t, "statement_only", statementOnly[1])
	assert.Empty(t, statementOnly[2], "tier column is empty for unmatched rows")
	assert.Empty(t, statementOnly[9], "write-off columns are empty")

	writeOffOnly := rows[3]
	assert.Equal(t, "write_off_only", writeOffOnly[1])
	assert.Empty(t, writeOffOnly[4], "statement columns are empty")
	assert.Empty(t, writeOffOnly[11], "unsettled date renders empty")
	assert.Equal(t, "777.00", writeOffOnly[14])
}

func TestGenerator_CSVCustomDelimiter(t *testing.T) {
	config := DefaultReportConfig()
	config.Format = FormatCSV
	config.CSVDelimiter = ';'
	config.CSVHeaders = false
	generator, err := NewGenerator(config)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, generator.Generate(sampleRunResult(), &buf))

	reader := csv.NewReader(&buf)
	reader.Comma = ';'
	rows, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "matched", rows[0][1])
}

func TestGenerator_XLSX(t *testing.T) {
	generator := newTestGenerator(t, FormatXLSX)

	var buf bytes.Buffer
	require.NoError(t, generator.Generate(sampleRunResult(), &buf))

	workbook, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer workbook.Close()

	assert.ElementsMatch(t, []string{SheetReconciled, SheetStatement, SheetWriteOffs}, workbook.GetSheetList())

	reconciled, err := workbook.GetRows(SheetReconciled)
	require.NoError(t, err)
	require.Len(t, reconciled, 4)
	assert.Equal(t, reconciledHeader, reconciled[0])
	// Workbook amounts are display-formatted.
	assert.Equal(t, "R$ -150,00", reconciled[1][8])
	assert.Equal(t, "R$ 150,00", reconciled[1][14])

	statements, err := workbook.GetRows(SheetStatement)
	require.NoError(t, err)
	require.Len(t, statements, 3)
	assert.Equal(t, statementHeader, statements[0])
	assert.Equal(t, "PIX ENVIADO", statements[1][2])

	writeOffs, err := workbook.GetRows(SheetWriteOffs)
	require.NoError(t, err)
	require.Len(t, writeOffs, 3)
	assert.Equal(t, writeOffHeader, writeOffs[0])
	assert.Equal(t, "ADMINISTRATIVO", writeOffs[1][1])
	assert.Equal(t, "184530", writeOffs[1][9])
}

func TestGenerator_NilResult(t *testing.T) {
	generator := newTestGenerator(t, FormatConsole)
	assert.Error(t, generator.Generate(nil, &bytes.Buffer{}))
}

func TestOutputFormat_IsValid(t *testing.T) {
	assert.True(t, FormatConsole.IsValid())
	assert.True(t, FormatJSON.IsValid())
	assert.True(t, FormatCSV.IsValid())
	assert.True(t, FormatXLSX.IsValid())
	assert.False(t, OutputFormat("yaml").IsValid())
	assert.False(t, OutputFormat("").IsValid())
}
