package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// ApprovalStatus represents the moderation state of a product
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
	ApprovalStatusDisabled ApprovalStatus = "DISABLED"
)

// IsValid checks if the status is a valid ApprovalStatus
func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusRejected, ApprovalStatusDisabled:
		return true
	}
	return false
}

// String returns the string representation of ApprovalStatus
func (s ApprovalStatus) String() string {
	return string(s)
}

// Product is a sellable catalog entry owned by a vendor.
// BasePrice is in the smallest currency unit and is used when an order line
// does not reference a variant.
type Product struct {
	shared.BaseAggregateRoot
	Name           string
	Description    string
	BasePrice      int64
	CategoryID     uuid.UUID
	VendorID       uuid.UUID
	SKU            string
	Tags           []string
	SEOTitle       string
	SEODescription string
	IsActive       bool
	Status         ApprovalStatus
}

// NewProduct creates a new active product awaiting approval
func NewProduct(vendorID, categoryID uuid.UUID, name, sku string, basePrice int64) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if len(name) > 255 {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot exceed 255 characters")
	}
	if vendorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VENDOR", "Vendor ID cannot be empty")
	}
	if categoryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Category ID cannot be empty")
	}
	if basePrice <= 0 {
		return nil, shared.NewDomainError("INVALID_PRICE", "Base price must be positive")
	}
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		BasePrice:         basePrice,
		CategoryID:        categoryID,
		VendorID:          vendorID,
		SKU:               sku,
		IsActive:          true,
		Status:            ApprovalStatusPending,
	}, nil
}

// Approve makes the product visible for purchase
func (p *Product) Approve() error {
	if p.Status == ApprovalStatusDisabled {
		return shared.NewDomainError("INVALID_STATE", "Disabled products cannot be approved")
	}
	p.Status = ApprovalStatusApproved
	p.Touch()
	return nil
}

// Reject marks the product as rejected by moderation
func (p *Product) Reject() {
	p.Status = ApprovalStatusRejected
	p.Touch()
}

// Disable takes the product out of the catalog
func (p *Product) Disable() {
	p.Status = ApprovalStatusDisabled
	p.IsActive = false
	p.Touch()
}

// IsPurchasable reports whether the product can be ordered
func (p *Product) IsPurchasable() bool {
	return p.IsActive && p.Status == ApprovalStatusApproved
}

// Variant is a purchasable SKU-level configuration of a product with its
// own price and stock. Stock is only changed through the variant repository
// inside a unit of work.
type Variant struct {
	ID         uuid.UUID
	ProductID  uuid.UUID
	Name       string
	Attributes map[string]string
	Price      int64
	Stock      int
	SKU        string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewVariant creates a new active variant
func NewVariant(productID uuid.UUID, name, sku string, price int64, stock int, attributes map[string]string) (*Variant, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if price <= 0 {
		return nil, shared.NewDomainError("INVALID_PRICE", "Variant price must be positive")
	}
	if stock < 0 {
		return nil, shared.NewDomainError("INVALID_STOCK", "Variant stock cannot be negative")
	}
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if name == "" {
		name = "Default"
	}
	if attributes == nil {
		attributes = map[string]string{}
	}

	now := time.Now()
	return &Variant{
		ID:         uuid.New(),
		ProductID:  productID,
		Name:       name,
		Attributes: attributes,
		Price:      price,
		Stock:      stock,
		SKU:        sku,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// BelongsTo reports whether the variant is a configuration of the product
func (v *Variant) BelongsTo(productID uuid.UUID) bool {
	return v.ProductID == productID
}

// HasStock reports whether quantity units are currently on hand
func (v *Variant) HasStock(quantity int) bool {
	return quantity > 0 && v.Stock >= quantity
}

// Image is a product picture shown in ascending Position order
type Image struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	URL       string
	AltText   string
	Position  int
	CreatedAt time.Time
}

// NewImage creates a new product image
func NewImage(productID uuid.UUID, url, altText string, position int) (*Image, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, shared.NewDomainError("INVALID_IMAGE_URL", "Image URL cannot be empty")
	}
	if position < 0 {
		return nil, shared.NewDomainError("INVALID_POSITION", "Image position cannot be negative")
	}
	return &Image{
		ID:        uuid.New(),
		ProductID: productID,
		URL:       url,
		AltText:   altText,
		Position:  position,
		CreatedAt: time.Now(),
	}, nil
}
