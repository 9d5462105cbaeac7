package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository defines persistence operations for products
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, product *Product) error
}

// VariantRepository defines persistence operations for variants.
// DecrementStock must be a single conditional update so concurrent callers
// can never drive stock below zero; it reports false when stock was short.
type VariantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Variant, error)
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]Variant, error)
	Create(ctx context.Context, variant *Variant) error
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error)
	IncrementStock(ctx context.Context, id uuid.UUID, quantity int) error
}

// ImageRepository defines persistence operations for product images
type ImageRepository interface {
	Create(ctx context.Context, image *Image) error
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]Image, error)
}

// CategoryRepository defines persistence operations for categories
type CategoryRepository interface {
	FindByName(ctx context.Context, name string) (*Category, error)
	Create(ctx context.Context, category *Category) error
}

// VendorRepository defines persistence operations for vendors
type VendorRepository interface {
	FindByBusinessName(ctx context.Context, name string) (*Vendor, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Vendor, error)
	Create(ctx context.Context, vendor *Vendor) error
}
