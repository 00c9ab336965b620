package samlmetadatasign

import (
	"github.com/philiph/saml-metadata-sign/internal/core/domain"
)

// Re-export error types from domain package for backward compatibility
type ErrorCode = domain.ErrorCode
type AppError = domain.AppError
type ValidationError = domain.ValidationError
type ValidationErrorKind = domain.ValidationErrorKind

// Re-export error code constants
const (
	ErrCodeConfigMissing    = domain.ErrCodeConfigMissing
	ErrCodeBadInput         = domain.ErrCodeBadInput
	ErrCodeServiceError     = domain.ErrCodeServiceError
	ErrCodeSignatureInvalid = domain.ErrCodeSignatureInvalid
)

// Re-export validation error kinds
const (
	ValidationStructural    = domain.ValidationStructural
	ValidationCryptographic = domain.ValidationCryptographic
)

// Re-export error constructors
var (
	ConfigError     = domain.ConfigError
	BadInputError   = domain.BadInputError
	ServiceError    = domain.ServiceError
	StructuralError = domain.StructuralError
	CryptoError     = domain.CryptoError
)
