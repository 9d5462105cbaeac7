package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product aggregate
type ProductModel struct {
	BaseModel
	Name           string                 `gorm:"type:varchar(255);not null;index"`
	Description    string                 `gorm:"type:text"`
	BasePrice      int64                  `gorm:"not null"`
	CategoryID     uuid.UUID              `gorm:"type:uuid;not null;index"`
	VendorID       uuid.UUID              `gorm:"type:uuid;not null;index"`
	SKU            string                 `gorm:"column:sku;type:varchar(100);not null;uniqueIndex"`
	Tags           []string               `gorm:"serializer:json;type:jsonb"`
	SEOTitle       string                 `gorm:"column:seo_title;type:varchar(255)"`
	SEODescription string                 `gorm:"column:seo_description;type:text"`
	IsActive       bool                   `gorm:"not null;default:true"`
	Status         catalog.ApprovalStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot: shared.BaseAggregateRoot{BaseEntity: m.BaseModel.ToDomain()},
		Name:              m.Name,
		Description:       m.Description,
		BasePrice:         m.BasePrice,
		CategoryID:        m.CategoryID,
		VendorID:          m.VendorID,
		SKU:               m.SKU,
		Tags:              m.Tags,
		SEOTitle:          m.SEOTitle,
		SEODescription:    m.SEODescription,
		IsActive:          m.IsActive,
		Status:            m.Status,
	}
}

// ProductModelFromDomain converts a domain Product to its persistence model
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{
		Name:           p.Name,
		Description:    p.Description,
		BasePrice:      p.BasePrice,
		CategoryID:     p.CategoryID,
		VendorID:       p.VendorID,
		SKU:            p.SKU,
		Tags:           p.Tags,
		SEOTitle:       p.SEOTitle,
		SEODescription: p.SEODescription,
		IsActive:       p.IsActive,
		Status:         p.Status,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}

// VariantModel is the persistence model for product variants
type VariantModel struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey"`
	ProductID  uuid.UUID         `gorm:"type:uuid;not null;index"`
	Name       string            `gorm:"type:varchar(255);not null"`
	Attributes map[string]string `gorm:"serializer:json;type:jsonb"`
	Price      int64             `gorm:"not null"`
	Stock      int               `gorm:"not null;default:0;check:chk_product_variants_stock,stock >= 0"`
	SKU        string            `gorm:"column:sku;type:varchar(100);not null;uniqueIndex"`
	IsActive   bool              `gorm:"not null;default:true"`
	CreatedAt  time.Time         `gorm:"not null"`
	UpdatedAt  time.Time         `gorm:"not null"`
}

// TableName returns the table name for GORM
func (VariantModel) TableName() string {
	return "product_variants"
}

// ToDomain converts the persistence model to a domain Variant
func (m *VariantModel) ToDomain() *catalog.Variant {
	return &catalog.Variant{
		ID:         m.ID,
		ProductID:  m.ProductID,
		Name:       m.Name,
		Attributes: m.Attributes,
		Price:      m.Price,
		Stock:      m.Stock,
		SKU:        m.SKU,
		IsActive:   m.IsActive,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// VariantModelFromDomain converts a domain Variant to its persistence model
func VariantModelFromDomain(v *catalog.Variant) *VariantModel {
	return &VariantModel{
		ID:         v.ID,
		ProductID:  v.ProductID,
		Name:       v.Name,
		Attributes: v.Attributes,
		Price:      v.Price,
		Stock:      v.Stock,
		SKU:        v.SKU,
		IsActive:   v.IsActive,
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
	}
}

// ImageModel is the persistence model for product images
type ImageModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_product_images_position,priority:1"`
	URL       string    `gorm:"column:url;type:text;not null"`
	AltText   string    `gorm:"type:varchar(255)"`
	Position  int       `gorm:"not null;uniqueIndex:idx_product_images_position,priority:2"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ImageModel) TableName() string {
	return "product_images"
}

// ToDomain converts the persistence model to a domain Image
func (m *ImageModel) ToDomain() *catalog.Image {
	return &catalog.Image{
		ID:        m.ID,
		ProductID: m.ProductID,
		URL:       m.URL,
		AltText:   m.AltText,
		Position:  m.Position,
		CreatedAt: m.CreatedAt,
	}
}

// ImageModelFromDomain converts a domain Image to its persistence model
func ImageModelFromDomain(i *catalog.Image) *ImageModel {
	return &ImageModel{
		ID:        i.ID,
		ProductID: i.ProductID,
		URL:       i.URL,
		AltText:   i.AltText,
		Position:  i.Position,
		CreatedAt: i.CreatedAt,
	}
}

// CategoryModel is the persistence model for categories
type CategoryModel struct {
	BaseModel
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Description string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the persistence model to a domain Category
func (m *CategoryModel) ToDomain() *catalog.Category {
	return &catalog.Category{
		BaseEntity:  m.BaseModel.ToDomain(),
		Name:        m.Name,
		Description: m.Description,
	}
}

// CategoryModelFromDomain converts a domain Category to its persistence model
func CategoryModelFromDomain(c *catalog.Category) *CategoryModel {
	m := &CategoryModel{Name: c.Name, Description: c.Description}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}

// VendorModel is the persistence model for vendors
type VendorModel struct {
	BaseModel
	UserID           uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex"`
	BusinessName     string                 `gorm:"type:varchar(255);not null;index"`
	IsVerified       bool                   `gorm:"not null;default:false"`
	DocumentStatus   catalog.DocumentStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
	CommissionRate   decimal.Decimal        `gorm:"type:decimal(5,4);not null"`
	AvailableBalance int64                  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (VendorModel) TableName() string {
	return "vendors"
}

// ToDomain converts the persistence model to a domain Vendor
func (m *VendorModel) ToDomain() *catalog.Vendor {
	return &catalog.Vendor{
		BaseEntity:       m.BaseModel.ToDomain(),
		UserID:           m.UserID,
		BusinessName:     m.BusinessName,
		IsVerified:       m.IsVerified,
		DocumentStatus:   m.DocumentStatus,
		CommissionRate:   m.CommissionRate,
		AvailableBalance: m.AvailableBalance,
	}
}

// VendorModelFromDomain converts a domain Vendor to its persistence model
func VendorModelFromDomain(v *catalog.Vendor) *VendorModel {
	m := &VendorModel{
		UserID:           v.UserID,
		BusinessName:     v.BusinessName,
		IsVerified:       v.IsVerified,
		DocumentStatus:   v.DocumentStatus,
		CommissionRate:   v.CommissionRate,
		AvailableBalance: v.AvailableBalance,
	}
	m.FromDomainBaseEntity(v.BaseEntity)
	return m
}
