package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "product", id)
	}
	return model.ToDomain(), nil
}

// ExistsByName reports whether a product with exactly this name exists
func (r *GormProductRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("name = ?", name).
		Count(&count).Error; err != nil {
		return false, translate(err, "product")
	}
	return count > 0, nil
}

// Create inserts a product
func (r *GormProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	return translate(r.db.WithContext(ctx).Create(models.ProductModelFromDomain(product)).Error, "product "+product.SKU)
}

// GormVariantRepository implements catalog.VariantRepository using GORM
type GormVariantRepository struct {
	db *gorm.DB
}

// NewGormVariantRepository creates a new GormVariantRepository
func NewGormVariantRepository(db *gorm.DB) *GormVariantRepository {
	return &GormVariantRepository{db: db}
}

// FindByID finds a variant by its ID
func (r *GormVariantRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Variant, error) {
	var model models.VariantModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "variant", id)
	}
	return model.ToDomain(), nil
}

// FindByProduct lists the variants of a product in creation order
func (r *GormVariantRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]catalog.Variant, error) {
	var rows []models.VariantModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translate(err, "variant")
	}
	variants := make([]catalog.Variant, len(rows))
	for i := range rows {
		variants[i] = *rows[i].ToDomain()
	}
	return variants, nil
}

// Create inserts a variant
func (r *GormVariantRepository) Create(ctx context.Context, variant *catalog.Variant) error {
	return translate(r.db.WithContext(ctx).Create(models.VariantModelFromDomain(variant)).Error, "variant "+variant.SKU)
}

// DecrementStock subtracts quantity only while enough stock remains.
// It returns false, without error, when stock was short.
func (r *GormVariantRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.VariantModel{}).
		Where("id = ? AND stock >= ?", id, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return false, translate(res.Error, "variant")
	}
	return res.RowsAffected > 0, nil
}

// IncrementStock returns quantity to a variant
func (r *GormVariantRepository) IncrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	res := r.db.WithContext(ctx).
		Model(&models.VariantModel{}).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", quantity))
	if res.Error != nil {
		return translate(res.Error, "variant")
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "variant", id)
	}
	return nil
}

// GormImageRepository implements catalog.ImageRepository using GORM
type GormImageRepository struct {
	db *gorm.DB
}

// NewGormImageRepository creates a new GormImageRepository
func NewGormImageRepository(db *gorm.DB) *GormImageRepository {
	return &GormImageRepository{db: db}
}

// Create inserts an image
func (r *GormImageRepository) Create(ctx context.Context, image *catalog.Image) error {
	return translate(r.db.WithContext(ctx).Create(models.ImageModelFromDomain(image)).Error, "image")
}

// FindByProduct lists a product's images by position
func (r *GormImageRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]catalog.Image, error) {
	var rows []models.ImageModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("position ASC").
		Find(&rows).Error; err != nil {
		return nil, translate(err, "image")
	}
	images := make([]catalog.Image, len(rows))
	for i := range rows {
		images[i] = *rows[i].ToDomain()
	}
	return images, nil
}

// GormCategoryRepository implements catalog.CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByName finds a category by name, ignoring case
func (r *GormCategoryRepository) FindByName(ctx context.Context, name string) (*catalog.Category, error) {
	var model models.CategoryModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", name).
		First(&model).Error; err != nil {
		return nil, notFound(err, "category", name)
	}
	return model.ToDomain(), nil
}

// Create inserts a category
func (r *GormCategoryRepository) Create(ctx context.Context, category *catalog.Category) error {
	return translate(r.db.WithContext(ctx).Create(models.CategoryModelFromDomain(category)).Error, "category "+category.Name)
}

// GormVendorRepository implements catalog.VendorRepository using GORM
type GormVendorRepository struct {
	db *gorm.DB
}

// NewGormVendorRepository creates a new GormVendorRepository
func NewGormVendorRepository(db *gorm.DB) *GormVendorRepository {
	return &GormVendorRepository{db: db}
}

// FindByBusinessName finds a vendor by business name, ignoring case
func (r *GormVendorRepository) FindByBusinessName(ctx context.Context, name string) (*catalog.Vendor, error) {
	var model models.VendorModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(business_name) = LOWER(?)", name).
		First(&model).Error; err != nil {
		return nil, notFound(err, "vendor", name)
	}
	return model.ToDomain(), nil
}

// FindByUserID finds the vendor profile owned by a user
func (r *GormVendorRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*catalog.Vendor, error) {
	var model models.VendorModel
	if err := r.db.WithContext(ctx).First(&model, "user_id = ?", userID).Error; err != nil {
		return nil, notFound(err, "vendor for user", userID)
	}
	return model.ToDomain(), nil
}

// Create inserts a vendor
func (r *GormVendorRepository) Create(ctx context.Context, vendor *catalog.Vendor) error {
	return translate(r.db.WithContext(ctx).Create(models.VendorModelFromDomain(vendor)).Error, "vendor "+vendor.BusinessName)
}

var (
	_ catalog.ProductRepository  = (*GormProductRepository)(nil)
	_ catalog.VariantRepository  = (*GormVariantRepository)(nil)
	_ catalog.ImageRepository    = (*GormImageRepository)(nil)
	_ catalog.CategoryRepository = (*GormCategoryRepository)(nil)
	_ catalog.VendorRepository   = (*GormVendorRepository)(nil)
)
