package paymentapp

import (
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/payment"
)

// InitializeResponse tells the client where to complete the payment
type InitializeResponse struct {
	PaymentURL     string    `json:"payment_url"`
	TransactionRef string    `json:"transaction_ref"`
	PaymentID      uuid.UUID `json:"payment_id"`
	Provider       string    `json:"provider"`
}

// VerifyRequest represents the client's report after returning from the gateway
type VerifyRequest struct {
	TransactionID string `json:"transaction_id" binding:"required,max=255"`
	// Status is the outcome the gateway redirect reported; "cancelled" skips the gateway call
	Status string `json:"status" binding:"omitempty,max=30"`
}

// VerifyResponse represents the order after a successful verification
type VerifyResponse struct {
	OrderID       uuid.UUID `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	PaymentRef    string    `json:"payment_ref"`
	Total         int64     `json:"total"`
	Currency      string    `json:"currency"`
	PaymentID     uuid.UUID `json:"payment_id"`
}

func toVerifyResponse(o *order.Order, p *payment.Payment) *VerifyResponse {
	return &VerifyResponse{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		PaymentRef:    o.PaymentRef,
		Total:         o.Total,
		Currency:      o.Currency,
		PaymentID:     p.ID,
	}
}
