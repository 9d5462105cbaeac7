package payment

import (
	"context"
	"errors"
)

// Gateway errors returned by adapters. Application code maps them to GATEWAY_ERROR.
var (
	ErrGatewayNotConfigured   = errors.New("payment: gateway not configured")
	ErrGatewayRequestFailed   = errors.New("payment: gateway request failed")
	ErrGatewayInvalidResponse = errors.New("payment: invalid gateway response")
	ErrTransactionNotFound    = errors.New("payment: transaction not found at gateway")
)

// GatewayStatus is the normalized outcome reported by a gateway
type GatewayStatus string

const (
	GatewayStatusSuccess GatewayStatus = "success"
	GatewayStatusFailed  GatewayStatus = "failed"
	GatewayStatusPending GatewayStatus = "pending"
)

// IsSuccess returns true if the payment was collected
func (s GatewayStatus) IsSuccess() bool {
	return s == GatewayStatusSuccess
}

// Customer identifies the payer to the gateway
type Customer struct {
	Email string
	Name  string
	Phone string
}

// InitializeRequest asks a gateway for a hosted payment page
type InitializeRequest struct {
	// Reference is our unique transaction reference sent to the gateway
	Reference   string
	Amount      int64
	Currency    string
	Customer    Customer
	CallbackURL string
	Description string
	Metadata    map[string]string
}

// InitializeResult is the gateway's handle for the started payment
type InitializeResult struct {
	TransactionRef string
	RedirectURL    string
	Raw            map[string]any
}

// VerifyResult is the gateway's answer to a verification query
type VerifyResult struct {
	Status      GatewayStatus
	Amount      int64
	Currency    string
	Message     string
	GatewayData map[string]any
}

// Gateway is a two-phase hosted-checkout payment provider.
// Verify is expected to be idempotent.
type Gateway interface {
	Name() string
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error)
	Verify(ctx context.Context, transactionRef string) (*VerifyResult, error)
}
