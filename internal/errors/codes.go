// Package errors provides structured error handling for snowstem.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (files, document storage)
//   - 4XX: Validation errors (input annotations)
//   - 5XX: Internal errors
//   - 6XX: Cancellation
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and storage errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates malformed or missing input annotations.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
	// CategoryCancelled indicates a cooperative abort.
	CategoryCancelled Category = "CANCELLED"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeUnsupportedLanguage = "ERR_101_UNSUPPORTED_LANGUAGE"
	ErrCodeConfigInvalid       = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeDocumentNotFound = "ERR_201_DOCUMENT_NOT_FOUND"
	ErrCodeStorageFailed    = "ERR_202_STORAGE_FAILED"
	ErrCodeFileRead         = "ERR_203_FILE_READ"

	// Validation errors (400-499)
	ErrCodeNoInputAnnotations   = "ERR_401_NO_INPUT_ANNOTATIONS"
	ErrCodeMissingSourceFeature = "ERR_402_MISSING_SOURCE_FEATURE"

	// Internal errors (500-599)
	ErrCodeInstantiationFailed = "ERR_501_INSTANTIATION_FAILED"
	ErrCodeInternal            = "ERR_502_INTERNAL"

	// Cancellation (600-699)
	ErrCodeCancelled = "ERR_601_CANCELLED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// "101" from "ERR_101_UNSUPPORTED_LANGUAGE"
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	case '6':
		return CategoryCancelled
	default:
		return CategoryInternal
	}
}

// isRetryableCode checks if an error code represents a retryable error.
// Resource failures may clear up on their own; everything else needs a
// configuration or upstream fix first.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeInstantiationFailed, ErrCodeStorageFailed:
		return true
	default:
		return false
	}
}
