package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/payment"
)

// PaymentModel is the persistence model for payment attempts
type PaymentModel struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey"`
	OrderID        uuid.UUID      `gorm:"type:uuid;not null;index"`
	Amount         int64          `gorm:"not null"`
	Currency       string         `gorm:"type:varchar(3);not null"`
	Status         payment.Status `gorm:"type:varchar(20);not null;default:'PENDING'"`
	Provider       string         `gorm:"type:varchar(30);not null"`
	TransactionRef string         `gorm:"type:varchar(255);not null;uniqueIndex"`
	GatewayData    map[string]any `gorm:"serializer:json;type:jsonb"`
	FailureReason  string         `gorm:"type:text"`
	CreatedAt      time.Time      `gorm:"not null"`
	UpdatedAt      time.Time      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *payment.Payment {
	return &payment.Payment{
		ID:             m.ID,
		OrderID:        m.OrderID,
		Amount:         m.Amount,
		Currency:       m.Currency,
		Status:         m.Status,
		Provider:       m.Provider,
		TransactionRef: m.TransactionRef,
		GatewayData:    m.GatewayData,
		FailureReason:  m.FailureReason,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// PaymentModelFromDomain converts a domain Payment to its persistence model
func PaymentModelFromDomain(p *payment.Payment) *PaymentModel {
	return &PaymentModel{
		ID:             p.ID,
		OrderID:        p.OrderID,
		Amount:         p.Amount,
		Currency:       p.Currency,
		Status:         p.Status,
		Provider:       p.Provider,
		TransactionRef: p.TransactionRef,
		GatewayData:    p.GatewayData,
		FailureReason:  p.FailureReason,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
