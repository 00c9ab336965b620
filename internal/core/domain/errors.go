package domain

import "fmt"

// ErrorCode represents categorized error types.
// These codes are stable and can be used for programmatic error handling.
type ErrorCode string

const (
	ErrCodeConfigMissing    ErrorCode = "config_missing"
	ErrCodeBadInput         ErrorCode = "bad_input"
	ErrCodeServiceError     ErrorCode = "service_error"
	ErrCodeSignatureInvalid ErrorCode = "signature_invalid"
)

// String returns the error code as a string.
func (c ErrorCode) String() string {
	return string(c)
}

// AppError is a structured error with code, message, and optional cause.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// ConfigError creates a configuration error. Configuration errors are
// detected before any item is processed and prevent the stage from
// running at all.
func ConfigError(message string) *AppError {
	return &AppError{Code: ErrCodeConfigMissing, Message: message}
}

// BadInputError creates an error for malformed input documents.
func BadInputError(message string) *AppError {
	return &AppError{Code: ErrCodeBadInput, Message: message}
}

// ServiceError creates a service error with optional cause.
func ServiceError(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeServiceError, Message: message, Cause: cause}
}

// ValidationErrorKind distinguishes signature validation failures that
// indicate the signature cannot be meaningfully evaluated (structural)
// from failures of the cryptographic check itself. Structural failures
// are always hard errors; cryptographic failures may be downgraded to
// warnings by stage policy.
type ValidationErrorKind int

const (
	// ValidationStructural covers multiple signatures, malformed
	// references, disallowed content, wrong transforms, blacklisted
	// algorithms, and reference-target mismatches.
	ValidationStructural ValidationErrorKind = iota

	// ValidationCryptographic covers signature values and digests that
	// do not verify against the configured key.
	ValidationCryptographic
)

// ValidationError reports a signature that could not be accepted.
type ValidationError struct {
	Kind    ValidationErrorKind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// StructuralError creates a structural validation error.
func StructuralError(message string) *ValidationError {
	return &ValidationError{Kind: ValidationStructural, Message: message}
}

// CryptoError creates a cryptographic validation error with optional cause.
func CryptoError(message string, cause error) *ValidationError {
	return &ValidationError{Kind: ValidationCryptographic, Message: message, Cause: cause}
}
