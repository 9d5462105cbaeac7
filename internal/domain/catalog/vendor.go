package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DocumentStatus tracks vendor KYC document review
type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "PENDING"
	DocumentStatusApproved DocumentStatus = "APPROVED"
	DocumentStatusRejected DocumentStatus = "REJECTED"
)

// DefaultCommissionRate is the marketplace fee taken from vendor sales
var DefaultCommissionRate = decimal.NewFromFloat(0.10)

// Vendor is a seller account linked one-to-one with a user
type Vendor struct {
	shared.BaseEntity
	UserID           uuid.UUID
	BusinessName     string
	IsVerified       bool
	DocumentStatus   DocumentStatus
	CommissionRate   decimal.Decimal
	AvailableBalance int64
}

// NewVendor creates an unverified vendor for a user
func NewVendor(userID uuid.UUID, businessName string) (*Vendor, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	businessName = strings.TrimSpace(businessName)
	if businessName == "" {
		return nil, shared.NewDomainError("INVALID_BUSINESS_NAME", "Business name cannot be empty")
	}
	return &Vendor{
		BaseEntity:     shared.NewBaseEntity(),
		UserID:         userID,
		BusinessName:   businessName,
		DocumentStatus: DocumentStatusPending,
		CommissionRate: DefaultCommissionRate,
	}, nil
}

// Verify marks the vendor's documents as approved
func (v *Vendor) Verify() {
	v.IsVerified = true
	v.DocumentStatus = DocumentStatusApproved
	v.Touch()
}
