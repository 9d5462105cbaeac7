package payment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// Status represents the state of a single payment attempt
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Payment records one attempt to collect an order's total through a gateway
type Payment struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	Amount         int64
	Currency       string
	Status         Status
	Provider       string
	TransactionRef string
	GatewayData    map[string]any
	FailureReason  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewPayment creates a pending payment for a gateway transaction
func NewPayment(orderID uuid.UUID, amount int64, currency, provider, transactionRef string, gatewayData map[string]any) (*Payment, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if amount <= 0 {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if strings.TrimSpace(transactionRef) == "" {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_REF", "Transaction reference cannot be empty")
	}
	now := time.Now()
	return &Payment{
		ID:             uuid.New(),
		OrderID:        orderID,
		Amount:         amount,
		Currency:       strings.ToUpper(currency),
		Status:         StatusPending,
		Provider:       provider,
		TransactionRef: transactionRef,
		GatewayData:    gatewayData,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Complete marks the payment as collected
func (p *Payment) Complete(gatewayData map[string]any) {
	p.Status = StatusCompleted
	p.GatewayData = gatewayData
	p.FailureReason = ""
	p.UpdatedAt = time.Now()
}

// Fail marks the payment as not collected
func (p *Payment) Fail(reason string, gatewayData map[string]any) {
	p.Status = StatusFailed
	p.FailureReason = reason
	if gatewayData != nil {
		p.GatewayData = gatewayData
	}
	p.UpdatedAt = time.Now()
}

// Repository defines persistence operations for payments
type Repository interface {
	Create(ctx context.Context, payment *Payment) error
	FindByOrderAndRef(ctx context.Context, orderID uuid.UUID, transactionRef string) (*Payment, error)
	Update(ctx context.Context, payment *Payment) error
}
