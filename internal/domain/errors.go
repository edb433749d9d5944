package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors shared by the store, the catalog and the scorers
var (
	ErrNotFound          = errors.New("not found")
	ErrUnavailable       = errors.New("crypto unavailable")
	ErrCorrupt           = errors.New("ciphertext failed authentication")
	ErrForeignFormat     = errors.New("entry is not an encrypted envelope")
	ErrInvalidDefinition = errors.New("invalid metric definition")
)

// AppError represents a standardized error response
type AppError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeStorage        = "STORAGE_ERROR"
	ErrCodeCrypto         = "CRYPTO_UNAVAILABLE"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeRateLimit      = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternalServer = "INTERNAL_SERVER_ERROR"
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeScoring        = "SCORING_ERROR"
)

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewAppError creates a new AppError with timestamp
func NewAppError(code, message, details, requestID string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// CodeFor maps a store or scoring error onto an error code.
func CodeFor(err error) string {
	var vErr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &vErr):
		return ErrCodeValidation
	case errors.Is(err, ErrUnavailable):
		return ErrCodeCrypto
	case errors.Is(err, ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, ErrInvalidDefinition):
		return ErrCodeScoring
	default:
		return ErrCodeInternalServer
	}
}
