package reconciler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matheus-maram/concilia-powerline/internal/models"
	"github.com/matheus-maram/concilia-powerline/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeStatementFixture saves a statement workbook with the standard layout
// and the given data rows.
func writeStatementFixture(t *testing.T, dir string, dataRows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Agência:", "1234", "Conta:", "56789-0"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Extrato de Conta Corrente"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"Data", "", "Histórico", "Documento", "Valor"}))

	for i, row := range dataRows {
		cell, err := excelize.CoordinatesToCellName(1, 4+i)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(dir, "extrato.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

// writeWriteOffFixture saves a write-off report with the standard five-line
// banner and the given content lines.
func writeWriteOffFixture(t *testing.T, dir string, lines ...string) string {
	t.Helper()

	header := []string{
		"Sistema Posto Delta - Relatório de Baixas",
		"Emitido em 01/04/2024",
		"",
		"Período: 01/03/2024 a 31/03/2024",
		"",
	}
	content := strings.Join(append(header, lines...), "\n")

	path := filepath.Join(dir, "baixas.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestService_Run(t *testing.T) {
	dir := t.TempDir()

	statementPath := writeStatementFixture(t, dir, [][]interface{}{
		{"10/03/2024", "", "PIX ENVIADO  JOAO DA SILVA", "111", "-150.00"},
		{"11/03/2024", "", "TED RECEBIDA  ACME LTDA", "222", "300.00"},
		{"12/03/2024", "", "PIX ENVIADO  SEM PAR", "333", "-42.00"},
		{"13/03/2024", "", "SALDO DO DIA", "", "108.00"},
	})
	writeOffPath := writeWriteOffFixture(t, dir,
		"ADMINISTRATIVO",
		"08/03/2024;1001;Banco;JOAO DA SILVA;;NF 1;150,00;;11/03/2024;;100",
		"09/03/2024;1002;Banco;SOBRA;;NF 2;777,00;;12/03/2024;;101",
	)

	service, err := NewService(nil, nil, nil)
	require.NoError(t, err)

	result, err := service.Run(&Request{
		StatementFile: statementPath,
		WriteOffFile:  writeOffPath,
	})
	require.NoError(t, err)

	assert.Len(t, result.Statements, 3)
	assert.Len(t, result.WriteOffs, 2)
	require.NotNil(t, result.StatementMeta)
	assert.Equal(t, "1234", result.StatementMeta.Branch)

	summary := result.Reconciliation.Summary
	assert.Equal(t, 2, summary.EligibleStatements)
	assert.Equal(t, 1, summary.Matched)
	assert.Equal(t, 1, summary.Tier1Matches)
	assert.Equal(t, 1, summary.StatementOnly)
	assert.Equal(t, 1, summary.WriteOffOnly)

	require.Len(t, result.Reconciliation.Records, 3)
	matched := result.Reconciliation.Records[0]
	assert.Equal(t, models.StatusMatched, matched.Status)
	assert.Equal(t, "JOAO DA SILVA", matched.Statement.Responsible)
	assert.Equal(t, "JOAO DA SILVA", matched.WriteOff.Responsible)

	assert.False(t, result.ProcessedAt.IsZero())
	assert.Greater(t, result.Duration, time.Duration(0))
}

func TestService_Run_MissingStatementFile(t *testing.T) {
	dir := t.TempDir()
	writeOffPath := writeWriteOffFixture(t, dir, "ADMINISTRATIVO")

	service, err := NewService(nil, nil, nil)
	require.NoError(t, err)

	_, err = service.Run(&Request{
		StatementFile: filepath.Join(dir, "missing.xlsx"),
		WriteOffFile:  writeOffPath,
	})
	require.Error(t, err)

	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.CategoryFile, appErr.Category)
}

func TestService_Run_CorruptStatement(t *testing.T) {
	dir := t.TempDir()

	statementPath := filepath.Join(dir, "extrato.xlsx")
	require.NoError(t, os.WriteFile(statementPath, []byte("not a workbook"), 0o644))
	writeOffPath := writeWriteOffFixture(t, dir, "ADMINISTRATIVO")

	service, err := NewService(nil, nil, nil)
	require.NoError(t, err)

	_, err = service.Run(&Request{
		StatementFile: statementPath,
		WriteOffFile:  writeOffPath,
	})
	require.Error(t, err)
	assert.True(t, errors.IsUnsupportedInput(err))
}

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		request   Request
		wantError bool
	}{
		{"both files set", Request{StatementFile: "a.xlsx", WriteOffFile: "b.csv"}, false},
		{"missing statement", Request{WriteOffFile: "b.csv"}, true},
		{"missing write-off", Request{StatementFile: "a.xlsx"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
