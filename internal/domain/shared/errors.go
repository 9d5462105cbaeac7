package shared

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is(err, ErrNotFound) matches any NOT_FOUND error regardless of message.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapDomainError creates a domain error carrying an underlying cause
func WrapDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes shared by the whole domain
const (
	CodeNotFound           = "NOT_FOUND"
	CodeAlreadyExists      = "ALREADY_EXISTS"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeInvalidState       = "INVALID_STATE"
	CodeInsufficientStock  = "INSUFFICIENT_STOCK"
	CodeProductUnavailable = "PRODUCT_UNAVAILABLE"
	CodeVariantUnavailable = "VARIANT_UNAVAILABLE"
	CodeDuplicateRequest   = "DUPLICATE_REQUEST"
	CodePaymentFailed      = "PAYMENT_FAILED"
	CodeGateway            = "GATEWAY_ERROR"
	CodeRetryable          = "RETRYABLE"
)

// Common domain errors
var (
	ErrNotFound           = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists      = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput       = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrUnauthorized       = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrForbidden          = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrInvalidState       = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrInsufficientStock  = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrDuplicateRequest   = NewDomainError(CodeDuplicateRequest, "Request has already been processed")
	ErrGateway            = NewDomainError(CodeGateway, "Payment gateway request failed")
	ErrRetryable          = NewDomainError(CodeRetryable, "Temporary failure, please retry")
	ErrProductUnavailable = NewDomainError(CodeProductUnavailable, "Product is not available")
	ErrVariantUnavailable = NewDomainError(CodeVariantUnavailable, "Variant is not available")
)

// NewNotFoundError reports a missing resource by kind and identifier
func NewNotFoundError(resource string, id any) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s %v not found", resource, id))
}

// NewValidationError reports malformed caller input for a named field
func NewValidationError(field, message string) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf("%s: %s", field, message))
}

// IsRetryable reports whether err was classified as transient by the data layer
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRetryable)
}

// IsNotFound reports whether err is a NOT_FOUND domain error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists reports whether err is an ALREADY_EXISTS domain error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}
