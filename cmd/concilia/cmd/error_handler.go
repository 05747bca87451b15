package cmd

import (
	"fmt"
	"os"

	"github.com/matheus-maram/concilia-powerline/pkg/errors"
	"github.com/matheus-maram/concilia-powerline/pkg/logger"

	"github.com/spf13/viper"
)

// ErrorHandler prints user-facing error reports and picks the exit code.
type ErrorHandler struct {
	logger  logger.Logger
	verbose bool
}

// NewErrorHandler creates a new CLI error handler
func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{
		logger:  logger.WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
	}
}

// HandleError reports the error to stderr and returns the process exit code.
func (h *ErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Error("Command failed")

	if appErr, ok := errors.As(err); ok {
		return h.handleAppError(appErr)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}

func (h *ErrorHandler) handleAppError(err *errors.Error) int {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", err.Suggestion)
	}

	if help := categoryHelp(err.Category); help != "" {
		fmt.Fprintf(os.Stderr, "\n%s\n", help)
	}

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

func categoryHelp(category errors.Category) string {
	switch category {
	case errors.CategoryFile:
		return `File error help:
• Check if the file exists and is readable
• Verify the file path is correct (use absolute paths if needed)
• Ensure you have proper permissions to access the file`

	case errors.CategoryParse:
		return `Parse error help:
• Verify the file matches the bank or ledger export layout
• Statement files must be the XLSX export with the standard five columns
• Write-off files must be semicolon-delimited with five header lines
• Re-export the file from the source system rather than editing it by hand`

	case errors.CategoryValidation:
		return `Validation error help:
• Check that all required fields have values
• Verify dates use the DD/MM/YYYY format
• Ensure amounts use Brazilian number formatting (1.234,56)`

	case errors.CategoryConfiguration:
		return `Configuration error help:
• Check your command-line flags and arguments
• Verify configuration file syntax if using --config
• Use 'concilia reconcile --help' to see all available options`

	case errors.CategoryReconciliation:
		return `Reconciliation error help:
• Check data quality in your input files
• Try adjusting --date-tolerance or --similarity-threshold
• Verify the two files cover the same period`

	default:
		return ""
	}
}
