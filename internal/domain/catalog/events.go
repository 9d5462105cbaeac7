package catalog

import (
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

const (
	EventTypeCatalogImported = "catalog.imported"

	AggregateTypeCatalogImport = "CatalogImport"
)

// CatalogImportedEvent is raised once per processed import file
type CatalogImportedEvent struct {
	shared.BaseDomainEvent
	Source           string `json:"source"`
	ProductsSeen     int    `json:"products_seen"`
	ImportedProducts int    `json:"imported_products"`
	ImportedVariants int    `json:"imported_variants"`
	ImportedImages   int    `json:"imported_images"`
	Errors           int    `json:"errors"`
}

// NewCatalogImportedEvent creates an event for a finished import run
func NewCatalogImportedEvent(source string, seen, products, variants, images, errs int) *CatalogImportedEvent {
	return &CatalogImportedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeCatalogImported, AggregateTypeCatalogImport, uuid.New()),
		Source:           source,
		ProductsSeen:     seen,
		ImportedProducts: products,
		ImportedVariants: variants,
		ImportedImages:   images,
		Errors:           errs,
	}
}
