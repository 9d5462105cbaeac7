package dto

import (
	"net/http"

	"github.com/marketplace/backend/internal/domain/shared"
)

// Transport-level error codes. Domain codes come from the shared package.
const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeTokenExpired    = "TOKEN_EXPIRED"
	ErrCodeUnavailable     = "SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// Input
	shared.CodeValidation:   http.StatusBadRequest,
	shared.CodeInvalidInput: http.StatusBadRequest,
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeRequestTooLarge:  http.StatusRequestEntityTooLarge,

	// Auth
	shared.CodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired:     http.StatusUnauthorized,
	shared.CodeForbidden:    http.StatusForbidden,

	// Resources
	shared.CodeNotFound:         http.StatusNotFound,
	shared.CodeAlreadyExists:    http.StatusConflict,
	shared.CodeDuplicateRequest: http.StatusConflict,

	// Order placement rules are reported as bad requests
	shared.CodeInvalidState:       http.StatusBadRequest,
	shared.CodeInsufficientStock:  http.StatusBadRequest,
	shared.CodeProductUnavailable: http.StatusBadRequest,
	shared.CodeVariantUnavailable: http.StatusBadRequest,

	// Payments
	shared.CodePaymentFailed: http.StatusPaymentRequired,
	shared.CodeGateway:       http.StatusBadGateway,

	// Transient
	shared.CodeRetryable: http.StatusServiceUnavailable,
	ErrCodeUnavailable:   http.StatusServiceUnavailable,
	ErrCodeRateLimited:   http.StatusTooManyRequests,

	ErrCodeInternal: http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
