// Package errors provides structured error handling for docsearch.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (file, extraction, index storage)
//   - 3XX: Network errors (embedding backend)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file, extraction, and index storage errors.
	CategoryIO Category = "IO"
	// CategoryNetwork indicates network-related errors.
	CategoryNetwork Category = "NETWORK"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeFileNotFound      = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission    = "ERR_202_FILE_PERMISSION"
	ErrCodeFileTooLarge      = "ERR_203_FILE_TOO_LARGE"
	ErrCodeFileCorrupt       = "ERR_204_FILE_CORRUPT"
	ErrCodePartialExtraction = "ERR_205_PARTIAL_EXTRACTION"
	ErrCodeIndexUnavailable  = "ERR_206_INDEX_UNAVAILABLE"

	// Network errors (300-399)
	ErrCodeTimeout              = "ERR_301_TIMEOUT"
	ErrCodeEmbeddingUnavailable = "ERR_302_EMBEDDING_UNAVAILABLE"

	// Validation errors (400-499)
	ErrCodeInvalidInput       = "ERR_401_INVALID_INPUT"
	ErrCodeDimensionMismatch  = "ERR_402_DIMENSION_MISMATCH"
	ErrCodeInvalidQuery       = "ERR_403_INVALID_QUERY"
	ErrCodeUnsupportedFormat  = "ERR_404_UNSUPPORTED_FORMAT"

	// Internal errors (500-599)
	ErrCodeInternal        = "ERR_501_INTERNAL"
	ErrCodeEmbeddingFailed = "ERR_502_EMBEDDING_FAILED"
	ErrCodeSearchFailed    = "ERR_503_SEARCH_FAILED"
	ErrCodeIngestFailed    = "ERR_504_INGEST_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "205" from "ERR_205_PARTIAL_EXTRACTION")
	numStr := code[4:7]
	if len(numStr) < 1 {
		return CategoryInternal
	}

	switch numStr[0] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryNetwork
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	// Partial extraction means the document was still ingested with
	// whatever text could be recovered.
	case ErrCodePartialExtraction:
		return SeverityWarning
	// A dimension mismatch can only be fixed by a full reindex.
	case ErrCodeDimensionMismatch:
		return SeverityFatal
	}

	// Retryable network errors get warning severity
	if isRetryableCode(code) {
		return SeverityWarning
	}

	// Default to error severity
	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeTimeout, ErrCodeEmbeddingUnavailable:
		return true
	default:
		return false
	}
}
