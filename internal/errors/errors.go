package errors

import (
	"fmt"
)

// StemError is the structured error type for snowstem.
// It carries enough context (language, set, type, annotation) to diagnose a
// failed pass without inspecting internals.
type StemError struct {
	// Code is the unique error code (e.g., "ERR_401_NO_INPUT_ANNOTATIONS").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Validation, ...).
	Category Category

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried unchanged.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Sentinels for errors.Is. Matching is by code, so any StemError carrying the
// same code matches regardless of message or details. Never mutate these.
var (
	ErrUnsupportedLanguage    = &StemError{Code: ErrCodeUnsupportedLanguage}
	ErrConfigInvalid          = &StemError{Code: ErrCodeConfigInvalid}
	ErrDocumentNotFound       = &StemError{Code: ErrCodeDocumentNotFound}
	ErrStorageFailed          = &StemError{Code: ErrCodeStorageFailed}
	ErrFileRead               = &StemError{Code: ErrCodeFileRead}
	ErrNoInputAnnotations     = &StemError{Code: ErrCodeNoInputAnnotations}
	ErrMissingSourceAttribute = &StemError{Code: ErrCodeMissingSourceFeature}
	ErrInstantiationFailure   = &StemError{Code: ErrCodeInstantiationFailed}
	ErrInternal               = &StemError{Code: ErrCodeInternal}
	ErrCancelled              = &StemError{Code: ErrCodeCancelled}
)

// Error implements the error interface.
func (e *StemError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *StemError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
func (e *StemError) Is(target error) bool {
	if t, ok := target.(*StemError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *StemError) WithDetail(key, value string) *StemError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *StemError) WithSuggestion(suggestion string) *StemError {
	e.Suggestion = suggestion
	return e
}

// New creates a new StemError with the given code and message.
// Category and retryable flag are derived from the code.
func New(code string, message string, cause error) *StemError {
	return &StemError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a StemError from an existing error.
// The error's message becomes the StemError message.
func Wrap(code string, err error) *StemError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// UnsupportedLanguage reports a language code with no registered stemmer.
func UnsupportedLanguage(language string) *StemError {
	return New(ErrCodeUnsupportedLanguage, fmt.Sprintf("unsupported language: %q", language), nil).
		WithDetail("language", language).
		WithSuggestion("run 'snowstem languages' to list supported languages")
}

// InstantiationFailure reports that a stemmer could not be constructed for
// reasons unrelated to the language code.
func InstantiationFailure(language string, cause error) *StemError {
	return New(ErrCodeInstantiationFailed, "exception while instantiating stemmer", cause).
		WithDetail("language", language)
}

// NoInputAnnotations reports that the target set holds no annotations of the
// requested type. This almost always means tokenization has not run.
func NoInputAnnotations(setName, annotationType string) *StemError {
	return New(ErrCodeNoInputAnnotations, "no annotations to process", nil).
		WithDetail("annotation_set", displaySet(setName)).
		WithDetail("annotation_type", annotationType).
		WithSuggestion("run the tokenizer first if using the default stemmer features")
}

// MissingSourceAttribute reports a token annotation lacking the feature that
// holds its word form.
func MissingSourceAttribute(setName, annotationType, feature string, annotationID int) *StemError {
	msg := fmt.Sprintf("annotation %d of type %q has no %q feature", annotationID, annotationType, feature)
	return New(ErrCodeMissingSourceFeature, msg, nil).
		WithDetail("annotation_set", displaySet(setName)).
		WithDetail("annotation_type", annotationType).
		WithDetail("source_feature", feature).
		WithDetail("annotation_id", fmt.Sprint(annotationID))
}

// Cancelled reports a cooperative abort of the named analyser.
func Cancelled(name string, cause error) *StemError {
	msg := fmt.Sprintf("the execution of the %q stemmer has been abruptly interrupted", name)
	return New(ErrCodeCancelled, msg, cause)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *StemError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// StorageError creates a storage backend error.
func StorageError(message string, cause error) *StemError {
	return New(ErrCodeStorageFailed, message, cause)
}

// DocumentNotFound reports a document name missing from storage.
func DocumentNotFound(name string) *StemError {
	return New(ErrCodeDocumentNotFound, fmt.Sprintf("document not found: %q", name), nil).
		WithDetail("document", name)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *StemError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if se, ok := As(err); ok {
		return se.Retryable
	}
	return false
}

// GetCode extracts the error code from a StemError anywhere in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	if se, ok := As(err); ok {
		return se.Code
	}
	return ""
}

// GetCategory extracts the category from a StemError anywhere in the chain.
func GetCategory(err error) Category {
	if se, ok := As(err); ok {
		return se.Category
	}
	return ""
}

// As finds the first StemError in err's chain.
func As(err error) (*StemError, bool) {
	for err != nil {
		if se, ok := err.(*StemError); ok {
			return se, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

func displaySet(name string) string {
	if name == "" {
		return "<default>"
	}
	return name
}
