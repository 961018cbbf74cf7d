// Package errors provides the standardized error taxonomy of the churn loader.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeConfiguration  ErrorCode = "CONFIGURATION_ERROR"
	ErrCodeDownload       ErrorCode = "DOWNLOAD_ERROR"
	ErrCodeSchema         ErrorCode = "SCHEMA_ERROR"
	ErrCodeCsvParse       ErrorCode = "CSV_PARSE_ERROR"
	ErrCodeTypeConversion ErrorCode = "TYPE_CONVERSION_ERROR"
	ErrCodeInsert         ErrorCode = "INSERT_ERROR"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Err       error                  `json:"-"`
}

func (e *StandardError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
}

func (e *StandardError) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message string, err error, details string) *StandardError {
	if details == "" && err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: false, // nothing in the loader is retried
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}

// NewConfigurationError reports a missing or invalid configuration value.
func NewConfigurationError(details string) *StandardError {
	return newError(ErrCodeConfiguration, "Invalid configuration", nil, details)
}

// NewConnectionError reports a database connection that could not be established.
func NewConnectionError(err error) *StandardError {
	return newError(ErrCodeConfiguration, "Database connection could not be established", err, "")
}

// NewDownloadError reports a network or filesystem failure while fetching the dataset.
func NewDownloadError(url string, err error) *StandardError {
	return newError(ErrCodeDownload, "Dataset download failed", err,
		fmt.Sprintf("url: %s, error: %v", url, err))
}

// NewSchemaError reports a failure to create the destination table.
func NewSchemaError(table string, err error) *StandardError {
	return newError(ErrCodeSchema, "Table creation failed", err,
		fmt.Sprintf("table: %s, error: %v", table, err))
}

// NewCsvParseError reports a missing, unreadable or malformed CSV file.
func NewCsvParseError(path string, err error) *StandardError {
	return newError(ErrCodeCsvParse, "CSV file could not be parsed", err,
		fmt.Sprintf("path: %s, error: %v", path, err))
}

// NewTypeConversionError reports a CSV field that does not convert to its column type.
func NewTypeConversionError(column, rowNumber, value string, err error) *StandardError {
	e := newError(ErrCodeTypeConversion, "Field type conversion failed", err,
		fmt.Sprintf("column: %s, rowNumber: %s, value: %q", column, rowNumber, value))
	e.Metadata = map[string]interface{}{
		"column":    column,
		"rowNumber": rowNumber,
		"value":     value,
	}
	return e
}

// NewInsertError reports a rejected existence query, insert or commit.
func NewInsertError(op string, rowNumber int64, err error) *StandardError {
	e := newError(ErrCodeInsert, "Database rejected row operation", err,
		fmt.Sprintf("op: %s, rowNumber: %d, error: %v", op, rowNumber, err))
	e.Metadata = map[string]interface{}{
		"op":        op,
		"rowNumber": rowNumber,
	}
	return e
}

// CodeOf returns the code of the first StandardError in err's chain,
// or ErrCodeInternal when there is none.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CONFIGURATION"):
		return "CONFIG"
	case strings.Contains(codeStr, "DOWNLOAD"):
		return "NETWORK"
	case strings.Contains(codeStr, "SCHEMA") || strings.Contains(codeStr, "INSERT"):
		return "DATABASE"
	case strings.Contains(codeStr, "CSV") || strings.Contains(codeStr, "CONVERSION"):
		return "INPUT"
	default:
		return "OTHER"
	}
}
