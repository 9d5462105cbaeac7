package catalogimport

import (
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/identity"
)

// Uploader identifies who sent an import file. Vendors always import into
// their own store; only admins may attribute rows to other vendors.
type Uploader struct {
	UserID uuid.UUID
	Role   identity.Role
}

// Result summarizes an import run
type Result struct {
	TotalProductsProcessed int      `json:"total_products_processed"`
	ImportedProducts       int      `json:"imported_products"`
	ImportedVariants       int      `json:"imported_variants"`
	ImportedImages         int      `json:"imported_images"`
	Errors                 []string `json:"errors"`
	TotalErrors            int      `json:"total_errors"`
	Truncated              bool     `json:"truncated,omitempty"`
}
