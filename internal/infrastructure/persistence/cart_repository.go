package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCartRepository implements order.CartRepository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// FindByUser lists a user's cart lines, oldest first
func (r *GormCartRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]order.CartItem, error) {
	var rows []models.CartItemModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translate(err, "cart item")
	}
	items := make([]order.CartItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, nil
}

// FindLine finds the line for a (user, product, variant) triple
func (r *GormCartRepository) FindLine(ctx context.Context, userID, productID uuid.UUID, variantID *uuid.UUID) (*order.CartItem, error) {
	query := r.db.WithContext(ctx).Where("user_id = ? AND product_id = ?", userID, productID)
	if variantID == nil {
		query = query.Where("variant_id IS NULL")
	} else {
		query = query.Where("variant_id = ?", *variantID)
	}

	var model models.CartItemModel
	if err := query.First(&model).Error; err != nil {
		return nil, notFound(err, "cart item for product", productID)
	}
	return model.ToDomain(), nil
}

// Save inserts or updates a cart line
func (r *GormCartRepository) Save(ctx context.Context, item *order.CartItem) error {
	return translate(r.db.WithContext(ctx).Save(models.CartItemModelFromDomain(item)).Error, "cart item")
}

// Delete removes one of the user's cart lines
func (r *GormCartRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.CartItemModel{})
	if res.Error != nil {
		return translate(res.Error, "cart item")
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "cart item", id)
	}
	return nil
}

// DeleteByUserAndProducts removes the user's lines for any of the products
func (r *GormCartRepository) DeleteByUserAndProducts(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) (int64, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id IN ?", userID, productIDs).
		Delete(&models.CartItemModel{})
	if res.Error != nil {
		return 0, translate(res.Error, "cart item")
	}
	return res.RowsAffected, nil
}

var _ order.CartRepository = (*GormCartRepository)(nil)
