// Package errors defines the error taxonomy shared by the decoders and the
// reconciliation engine.
//
// Errors fall into two classes: fatal errors that abort the whole run
// (a required column missing from an input, or an input that cannot be read
// as text/spreadsheet at all) and row-level anomalies, which the decoders
// recover from locally and which never surface as errors. Only the fatal
// class lives here; anomalies are logged and counted by the decoders.
package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Category groups errors by the subsystem that produced them.
type Category string

const (
	CategoryFile           Category = "file"
	CategoryParse          Category = "parse"
	CategoryValidation     Category = "validation"
	CategoryConfiguration  Category = "configuration"
	CategoryReconciliation Category = "reconciliation"
	CategoryInternal       Category = "internal"
)

// Code identifies a specific error condition within a category.
type Code string

const (
	// File errors
	CodeFileNotFound     Code = "file_not_found"
	CodeFilePermission   Code = "file_permission"
	CodeUnsupportedInput Code = "unsupported_input"

	// Parse errors
	CodeMissingColumn Code = "missing_column"
	CodeInvalidFormat Code = "invalid_format"
	CodeInvalidData   Code = "invalid_data"
	CodeEncodingError Code = "encoding_error"

	// Validation errors
	CodeInvalidAmount Code = "invalid_amount"
	CodeInvalidDate   Code = "invalid_date"
	CodeMissingField  Code = "missing_field"

	// Configuration errors
	CodeInvalidConfig Code = "invalid_config"

	// Reconciliation errors
	CodeProcessingError Code = "processing_error"

	// Internal errors
	CodeUnexpectedError Code = "unexpected_error"
)

// Error is the base error type for all fatal application errors. It carries
// enough context (which file, which column) for the user to fix the input.
type Error struct {
	Category   Category          `json:"category"`
	Code       Code              `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context holds additional key/value information about the error.
type Context map[string]interface{}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// GetExitCode maps the error category to a process exit code.
func (e *Error) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryReconciliation, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext attaches a key/value pair to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion attaches a hint for fixing the error.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// stackTracer is the interface github.com/pkg/errors exposes for stack extraction.
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// New creates a new Error.
func New(category Category, code Code, message string) *Error {
	return &Error{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with taxonomy context.
func Wrap(err error, category Category, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// MissingColumn reports a required column that is absent from an input file.
// This is fatal: decoding or matching cannot proceed without it.
func MissingColumn(file, column string) *Error {
	return New(CategoryParse, CodeMissingColumn,
		fmt.Sprintf("missing required column '%s' in file %s", column, file)).
		WithSuggestion("verify the export layout has not changed and re-export the file").
		WithContext("file", file).
		WithContext("column", column)
}

// UnsupportedInput reports raw input that cannot be read as text or
// spreadsheet at all.
func UnsupportedInput(source string, err error) *Error {
	message := fmt.Sprintf("cannot read input %s as text or spreadsheet", source)
	result := New(CategoryFile, CodeUnsupportedInput, message)
	if err != nil {
		result = Wrap(err, CategoryFile, CodeUnsupportedInput, message)
	}
	return result.
		WithSuggestion("check that the file is an XLSX workbook or a delimited text export").
		WithContext("source", source)
}

// FileError reports a filesystem-level problem opening an input.
func FileError(code Code, path string, err error) *Error {
	var message, suggestion string
	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	result := New(CategoryFile, code, message)
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	}
	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ConfigurationError reports an invalid configuration value.
func ConfigurationError(setting string, value interface{}, err error) *Error {
	message := fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
	result := New(CategoryConfiguration, CodeInvalidConfig, message)
	if err != nil {
		result = Wrap(err, CategoryConfiguration, CodeInvalidConfig, message)
	}
	return result.
		WithSuggestion("check the configuration documentation for valid values").
		WithContext("setting", setting).
		WithContext("value", value)
}

// InternalError reports an unexpected internal failure.
func InternalError(operation string, err error) *Error {
	message := fmt.Sprintf("unexpected error during %s", operation)
	result := New(CategoryInternal, CodeUnexpectedError, message)
	if err != nil {
		result = Wrap(err, CategoryInternal, CodeUnexpectedError, message)
	}
	return result.
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// As extracts an *Error from an error chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsMissingColumn reports whether err is a missing-column error.
func IsMissingColumn(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == CodeMissingColumn
}

// IsUnsupportedInput reports whether err is an unsupported-input error.
func IsUnsupportedInput(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == CodeUnsupportedInput
}
