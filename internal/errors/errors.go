package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies application errors. Each metric or fetch failure is
// resolved at the smallest possible scope; the type tells callers whether a
// failure is retryable (network), fatal for one statement (normalization),
// or merely an empty result for one metric module (insufficient data).
type ErrorType string

const (
	ErrTypeDataUnavailable  ErrorType = "DATA_UNAVAILABLE"
	ErrTypeNormalization    ErrorType = "NORMALIZATION"
	ErrTypeInsufficientData ErrorType = "INSUFFICIENT_DATA"
	ErrTypeValidation       ErrorType = "VALIDATION"
	ErrTypeConfig           ErrorType = "CONFIG"
	ErrTypeStorage          ErrorType = "STORAGE"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// Helper constructors for the common error types

// NewDataUnavailableError wraps a provider or network failure. The core never
// converts these into zero-filled data.
func NewDataUnavailableError(message string, cause error) *AppError {
	return NewAppError(ErrTypeDataUnavailable, message, cause)
}

// NewNormalizationError marks a statement whose shape could not be understood.
// Fatal for that statement kind only; sibling statements proceed.
func NewNormalizationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeNormalization, message, cause)
}

// NewInsufficientDataError marks a metric module that cannot produce a single
// period. The module's result is empty; sibling modules proceed.
func NewInsufficientDataError(message string) *AppError {
	return NewAppError(ErrTypeInsufficientData, message, nil)
}

// NewValidationError marks malformed caller input (identifier, date range).
// Raised before any fetch is attempted.
func NewValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewStorageError creates a cache/persistence error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// IsDataUnavailable reports whether err stems from a provider failure.
func IsDataUnavailable(err error) bool { return IsType(err, ErrTypeDataUnavailable) }

// IsInsufficientData reports whether err means a metric had no computable period.
func IsInsufficientData(err error) bool { return IsType(err, ErrTypeInsufficientData) }

// IsValidation reports whether err is a caller-input validation failure.
func IsValidation(err error) bool { return IsType(err, ErrTypeValidation) }

// IsNormalization reports whether err is a statement-shape failure.
func IsNormalization(err error) bool { return IsType(err, ErrTypeNormalization) }
