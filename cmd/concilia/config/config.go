package config

import (
	"fmt"

	"github.com/matheus-maram/concilia-powerline/internal/matcher"
	"github.com/matheus-maram/concilia-powerline/internal/parsers"
	"github.com/matheus-maram/concilia-powerline/internal/reporter"
)

// CreateStatementConfig creates the statement decoder configuration, applying
// any overrides loaded from the config file.
func CreateStatementConfig(sheetIndex, headerRows int) *parsers.StatementConfig {
	config := parsers.DefaultStatementConfig()

	if sheetIndex >= 0 {
		config.SheetIndex = sheetIndex
	}
	if headerRows >= 0 {
		config.HeaderRows = headerRows
	}

	return config
}

// CreateWriteOffConfig creates the write-off decoder configuration.
func CreateWriteOffConfig(headerLines int, delimiter string) *parsers.WriteOffConfig {
	config := parsers.DefaultWriteOffConfig()

	if headerLines >= 0 {
		config.HeaderLines = headerLines
	}
	if delimiter != "" {
		config.Delimiter = delimiter
	}

	return config
}

// CreateMatchConfig creates a matching configuration with the CLI tolerances applied.
func CreateMatchConfig(dateTolerance, similarityThreshold int) *matcher.MatchConfig {
	config := matcher.DefaultMatchConfig()

	config.DateToleranceDays = dateTolerance
	config.SimilarityThreshold = similarityThreshold

	return config
}

// CreateReportConfig creates a report configuration for the specified output format.
func CreateReportConfig(format string) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()

	switch format {
	case "console":
		config.Format = reporter.FormatConsole
	case "json":
		config.Format = reporter.FormatJSON
	case "csv":
		config.Format = reporter.FormatCSV
		config.CSVHeaders = true
		config.CSVDelimiter = ','
	case "xlsx":
		config.Format = reporter.FormatXLSX
	}

	return config
}

// ValidateConfigs validates that all component configurations are consistent.
func ValidateConfigs(
	statementConfig *parsers.StatementConfig,
	writeOffConfig *parsers.WriteOffConfig,
	matchConfig *matcher.MatchConfig,
) error {
	if err := statementConfig.Validate(); err != nil {
		return fmt.Errorf("invalid statement config: %w", err)
	}
	if err := writeOffConfig.Validate(); err != nil {
		return fmt.Errorf("invalid write-off config: %w", err)
	}
	if err := matchConfig.Validate(); err != nil {
		return fmt.Errorf("invalid match config: %w", err)
	}
	return nil
}
