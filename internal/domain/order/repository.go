package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// Repository defines persistence operations for orders
type Repository interface {
	// Create inserts the order and its items. A clash on the order number
	// yields an ALREADY_EXISTS error and leaves the surrounding unit of work usable.
	Create(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// FindByIDForUser returns NOT_FOUND for orders placed by someone else.
	FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Order, int64, error)
	// TransitionStatus moves the order to next only if its current status is
	// one of from, and reports whether a row changed.
	TransitionStatus(ctx context.Context, id uuid.UUID, from []Status, next Status) (bool, error)
	// MarkPaid records a completed payment on a still-pending order.
	MarkPaid(ctx context.Context, order *Order) error
	// MarkRefunded moves a COMPLETED payment to REFUNDED and reports whether a row changed.
	MarkRefunded(ctx context.Context, id uuid.UUID) (bool, error)
}

// CartRepository defines persistence operations for cart lines
type CartRepository interface {
	FindByUser(ctx context.Context, userID uuid.UUID) ([]CartItem, error)
	FindLine(ctx context.Context, userID, productID uuid.UUID, variantID *uuid.UUID) (*CartItem, error)
	Save(ctx context.Context, item *CartItem) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
	DeleteByUserAndProducts(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) (int64, error)
}
