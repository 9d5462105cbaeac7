package payment

import "github.com/marketplace/backend/internal/domain/shared"

const (
	EventTypePaymentCompleted = "payment.completed"
	EventTypePaymentFailed    = "payment.failed"

	AggregateTypePayment = "Payment"
)

// CompletedEvent is raised when a verified payment is stored as COMPLETED
type CompletedEvent struct {
	shared.BaseDomainEvent
	OrderID        string `json:"order_id"`
	Provider       string `json:"provider"`
	TransactionRef string `json:"transaction_ref"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
}

// NewCompletedEvent creates a CompletedEvent
func NewCompletedEvent(p *Payment) *CompletedEvent {
	return &CompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentCompleted, AggregateTypePayment, p.ID),
		OrderID:         p.OrderID.String(),
		Provider:        p.Provider,
		TransactionRef:  p.TransactionRef,
		Amount:          p.Amount,
		Currency:        p.Currency,
	}
}

// FailedEvent is raised when a payment attempt is stored as FAILED
type FailedEvent struct {
	shared.BaseDomainEvent
	OrderID        string `json:"order_id"`
	TransactionRef string `json:"transaction_ref"`
	Reason         string `json:"reason"`
}

// NewFailedEvent creates a FailedEvent
func NewFailedEvent(p *Payment) *FailedEvent {
	return &FailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentFailed, AggregateTypePayment, p.ID),
		OrderID:         p.OrderID.String(),
		TransactionRef:  p.TransactionRef,
		Reason:          p.FailureReason,
	}
}
