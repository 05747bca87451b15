package parsers

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/matheus-maram/concilia-powerline/internal/models"
	"github.com/matheus-maram/concilia-powerline/pkg/errors"
	"github.com/matheus-maram/concilia-powerline/pkg/logger"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Fixed field positions common to every write-off data row.
const (
	woColDate     = 0
	woColLedgerID = 1
	woColAccount  = 2
)

// settlementLayout describes one of the column arrangements the report uses
// for the settlement sub-fields. The report shifts these fields depending on
// how many optional leading columns are populated; the presence offset tells
// the layouts apart.
type settlementLayout struct {
	presence         int
	responsible      int
	document         int
	totalAmount      int
	writeOffDate     int
	writeOffLedgerID int
}

// settlementLayouts lists the known arrangements in priority order. The
// first layout whose presence column is non-empty wins. New arrangements
// get a new entry here; nothing else has to change.
var settlementLayouts = []settlementLayout{
	{presence: 10, responsible: 3, document: 5, totalAmount: 6, writeOffDate: 8, writeOffLedgerID: 10},
	{presence: 11, responsible: 4, document: 6, totalAmount: 7, writeOffDate: 9, writeOffLedgerID: 11},
	{presence: 13, responsible: 3, document: 6, totalAmount: 7, writeOffDate: 9, writeOffLedgerID: 13},
}

// metadataPrefixes start lines that are always report metadata or footers,
// regardless of configuration.
var metadataPrefixes = []string{"Data", "Subtotal", "Total"}

// WriteOffConfig controls how the ledger report text is interpreted.
type WriteOffConfig struct {
	// HeaderLines is the number of leading lines discarded unconditionally.
	HeaderLines int
	// Delimiter separates fields within a line.
	Delimiter string
	// TitlePrefixes are report-title line prefixes to skip, in addition to
	// the fixed metadata prefixes.
	TitlePrefixes []string
}

// DefaultWriteOffConfig returns the configuration matching the accounting
// system's current report format.
func DefaultWriteOffConfig() *WriteOffConfig {
	return &WriteOffConfig{
		HeaderLines:   5,
		Delimiter:     ";",
		TitlePrefixes: []string{"Sistema Posto Delta"},
	}
}

// Validate validates the write-off decoder configuration.
func (c *WriteOffConfig) Validate() error {
	if c.HeaderLines < 0 {
		return errors.ConfigurationError("header_lines", c.HeaderLines, nil)
	}
	if c.Delimiter == "" {
		return errors.ConfigurationError("delimiter", c.Delimiter, nil)
	}
	return nil
}

// WriteOffDecoder decodes the semicolon-delimited write-off ledger export
// into canonical WriteOffRecord records. The export is a single-byte Western
// encoding (ISO-8859-1); the decoder transcodes before splitting lines.
type WriteOffDecoder struct {
	config *WriteOffConfig
	logger logger.Logger
}

// NewWriteOffDecoder creates a WriteOffDecoder with the given configuration,
// falling back to the default report format when nil.
func NewWriteOffDecoder(config *WriteOffConfig) (*WriteOffDecoder, error) {
	if config == nil {
		config = DefaultWriteOffConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &WriteOffDecoder{
		config: config,
		logger: logger.WithComponent("writeoff_decoder"),
	}, nil
}

// DecodeFile decodes the write-off report at path.
func (d *WriteOffDecoder) DecodeFile(path string) ([]models.WriteOffRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, errors.UnsupportedInput(path, err)
	}
	defer file.Close()

	return d.Decode(file, path)
}

// Decode decodes the write-off report read from r. The source name is used
// only for error context.
func (d *WriteOffDecoder) Decode(r io.Reader, source string) ([]models.WriteOffRecord, error) {
	lines, err := d.readLines(r, source)
	if err != nil {
		return nil, err
	}

	if len(lines) > d.config.HeaderLines {
		lines = lines[d.config.HeaderLines:]
	} else {
		lines = nil
	}

	var records []models.WriteOffRecord
	costCenter := ""

	for i, line := range lines {
		lineNumber := d.config.HeaderLines + i + 1

		record, newCostCenter, ok := d.classifyLine(line, costCenter, lineNumber)
		costCenter = newCostCenter
		if !ok {
			continue
		}
		record.ID = len(records) + 1
		records = append(records, record)
	}

	d.logger.WithFields(logger.Fields{
		"source":  source,
		"lines":   len(lines),
		"decoded": len(records),
	}).Debug("Decoded write-off report")

	return records, nil
}

// readLines transcodes the raw bytes from ISO-8859-1 and splits them into
// lines. Failure to read is the decoder's only fatal condition.
func (d *WriteOffDecoder) readLines(r io.Reader, source string) ([]string, error) {
	decoded := transform.NewReader(r, charmap.ISO8859_1.NewDecoder())

	var lines []string
	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.UnsupportedInput(source, err)
	}
	return lines, nil
}

// classifyLine applies the line classification rules in order and returns
// the decoded record when the line is a data row. The second return value is
// the cost-center context to carry forward; classification is otherwise
// stateless.
func (d *WriteOffDecoder) classifyLine(line, costCenter string, lineNumber int) (models.WriteOffRecord, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return models.WriteOffRecord{}, costCenter, false
	}

	fields := strings.Split(line, d.config.Delimiter)
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	first := fields[0]
	if first == "" || d.isMetadataLine(first) {
		return models.WriteOffRecord{}, costCenter, false
	}

	if allEmpty(fields[1:]) {
		// Section header: update the running cost-center context.
		return models.WriteOffRecord{}, first, false
	}

	if !strings.Contains(first, "/") {
		d.logger.WithFields(logger.Fields{
			"line":  lineNumber,
			"value": first,
		}).Debug("Skipping non-date line in write-off report")
		return models.WriteOffRecord{}, costCenter, false
	}

	return d.decodeDataRow(fields, costCenter, lineNumber), costCenter, true
}

// isMetadataLine reports whether the first field marks report metadata or a
// footer line.
func (d *WriteOffDecoder) isMetadataLine(first string) bool {
	for _, prefix := range metadataPrefixes {
		if strings.HasPrefix(first, prefix) {
			return true
		}
	}
	for _, prefix := range d.config.TitlePrefixes {
		if strings.HasPrefix(first, prefix) {
			return true
		}
	}
	return false
}

// decodeDataRow extracts the fixed-position fields and resolves the
// settlement sub-fields through the layout table. Field-level parse failures
// null the field and keep the row.
func (d *WriteOffDecoder) decodeDataRow(fields []string, costCenter string, lineNumber int) models.WriteOffRecord {
	record := models.WriteOffRecord{
		CostCenter: costCenter,
		LedgerID:   fieldAt(fields, woColLedgerID),
		Account:    fieldAt(fields, woColAccount),
	}

	if date, err := models.ParseStrictDate(fields[woColDate]); err == nil {
		record.LedgerDate = date
	} else {
		d.logger.WithFields(logger.Fields{
			"line":  lineNumber,
			"value": fields[woColDate],
		}).Debug("Write-off row has unparseable ledger date, keeping as null")
	}

	layout, ok := resolveLayout(fields)
	if !ok {
		// Unsettled ledger entry: all settlement fields stay null.
		return record
	}

	record.WriteOffLedgerID = fieldAt(fields, layout.writeOffLedgerID)
	record.Responsible = fieldAt(fields, layout.responsible)
	record.Document = fieldAt(fields, layout.document)

	if raw := fieldAt(fields, layout.totalAmount); raw != "" {
		if value, err := models.ParseBRLDecimal(raw); err == nil {
			record.TotalAmount = decimal.NullDecimal{Decimal: value, Valid: true}
		} else {
			d.logger.WithFields(logger.Fields{
				"line":  lineNumber,
				"value": raw,
			}).Debug("Write-off row has unparseable amount, keeping as null")
		}
	}

	if raw := fieldAt(fields, layout.writeOffDate); raw != "" {
		if date, err := models.ParseStrictDate(raw); err == nil {
			record.WriteOffDate = date
		} else {
			d.logger.WithFields(logger.Fields{
				"line":  lineNumber,
				"value": raw,
			}).Debug("Write-off row has unparseable settlement date, keeping as null")
		}
	}

	return record
}

// resolveLayout returns the first layout whose presence column is populated.
func resolveLayout(fields []string) (settlementLayout, bool) {
	for _, layout := range settlementLayouts {
		if fieldAt(fields, layout.presence) != "" {
			return layout, true
		}
	}
	return settlementLayout{}, false
}

// fieldAt returns the field at index, or the empty string when the line is
// too short.
func fieldAt(fields []string, index int) string {
	if index < len(fields) {
		return fields[index]
	}
	return ""
}

// allEmpty reports whether every field is empty.
func allEmpty(fields []string) bool {
	for _, field := range fields {
		if field != "" {
			return false
		}
	}
	return true
}
