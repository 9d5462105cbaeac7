package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create inserts the order with its items. The insert runs in a nested
// transaction, a savepoint when already inside one, so a duplicate order
// number rolls back only this insert.
func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order) error {
	model := models.OrderModelFromDomain(o)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(model).Error
	})
	return translate(err, "order "+o.OrderNumber)
}

// FindByID finds an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items", orderItemsByCreation).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "order", id)
	}
	return model.ToDomain(), nil
}

// FindByIDForUser finds an order placed by the user
func (r *GormOrderRepository) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*order.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items", orderItemsByCreation).
		Where("id = ? AND user_id = ?", id, userID).
		First(&model).Error; err != nil {
		return nil, notFound(err, "order", id)
	}
	return model.ToDomain(), nil
}

// ListByUser returns one page of the user's orders and the total count
func (r *GormOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]order.Order, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("user_id = ?", userID)
	if status, ok := filter.Filters["status"].(string); ok && status != "" {
		base = base.Where("status = ?", status)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "order")
	}

	var rows []models.OrderModel
	query := paginate(base.Session(&gorm.Session{}), filter, OrderSortFields, "created_at")
	if err := query.Preload("Items", orderItemsByCreation).Find(&rows).Error; err != nil {
		return nil, 0, translate(err, "order")
	}

	orders := make([]order.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, total, nil
}

// TransitionStatus moves an order to next only from one of the given states
func (r *GormOrderRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from []order.Status, next order.Status) (bool, error) {
	now := time.Now()
	updates := map[string]any{
		"status":     next,
		"updated_at": now,
	}
	if next == order.StatusCancelled {
		updates["cancelled_at"] = now
	}

	res := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, translate(res.Error, "order")
	}
	return res.RowsAffected > 0, nil
}

// MarkPaid stores a completed payment. Only a pending, non-cancelled order
// is updated; anything else is INVALID_STATE.
func (r *GormOrderRepository) MarkPaid(ctx context.Context, o *order.Order) error {
	res := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ? AND payment_status = ? AND status <> ?", o.ID, order.PaymentStatusPending, order.StatusCancelled).
		Updates(map[string]any{
			"payment_status": o.PaymentStatus,
			"status":         o.Status,
			"payment_ref":    o.PaymentRef,
			"updated_at":     o.UpdatedAt,
		})
	if res.Error != nil {
		return translate(res.Error, "order")
	}
	if res.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeInvalidState, "Order "+o.OrderNumber+" is no longer awaiting payment")
	}
	return nil
}

// MarkRefunded flags the collected payment of a cancelled order for refund
func (r *GormOrderRepository) MarkRefunded(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ? AND payment_status = ?", id, order.PaymentStatusCompleted).
		Updates(map[string]any{
			"payment_status": order.PaymentStatusRefunded,
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return false, translate(res.Error, "order")
	}
	return res.RowsAffected > 0, nil
}

func orderItemsByCreation(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}

var _ order.Repository = (*GormOrderRepository)(nil)
