package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/payment"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentRepository implements payment.Repository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Create inserts a payment attempt
func (r *GormPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	return translate(r.db.WithContext(ctx).Create(models.PaymentModelFromDomain(p)).Error, "payment "+p.TransactionRef)
}

// FindByOrderAndRef finds the attempt with this gateway reference on the order
func (r *GormPaymentRepository) FindByOrderAndRef(ctx context.Context, orderID uuid.UUID, transactionRef string) (*payment.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ? AND transaction_ref = ?", orderID, transactionRef).
		First(&model).Error; err != nil {
		return nil, notFound(err, "payment", transactionRef)
	}
	return model.ToDomain(), nil
}

// Update persists the mutable outcome fields of a payment
func (r *GormPaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	model := models.PaymentModelFromDomain(p)
	res := r.db.WithContext(ctx).
		Model(model).
		Select("status", "gateway_data", "failure_reason", "updated_at").
		Updates(model)
	if res.Error != nil {
		return translate(res.Error, "payment")
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "payment", p.ID)
	}
	return nil
}

var _ payment.Repository = (*GormPaymentRepository)(nil)
