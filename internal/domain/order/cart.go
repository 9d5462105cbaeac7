package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// CartItem is a pending purchase line, unique per user, product and variant
type CartItem struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCartItem creates a new cart line
func NewCartItem(userID, productID uuid.UUID, variantID *uuid.UUID, quantity int) (*CartItem, error) {
	if userID == uuid.Nil || productID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "User and product are required")
	}
	if quantity < 1 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	now := time.Now()
	return &CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// AddQuantity merges another request for the same line
func (c *CartItem) AddQuantity(quantity int) error {
	if quantity < 1 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	c.Quantity += quantity
	c.UpdatedAt = time.Now()
	return nil
}
