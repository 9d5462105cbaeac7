package order

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// Item is an immutable snapshot of a purchased product or variant.
// UnitPrice is captured at order time and never recalculated.
type Item struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	VariantID   *uuid.UUID
	ProductName string
	VariantName string
	SKU         string
	Quantity    int
	UnitPrice   int64
	LineTotal   int64
	CreatedAt   time.Time
}

// NewItem creates a new order line
func NewItem(productID uuid.UUID, variantID *uuid.UUID, productName, variantName, sku string, quantity int, unitPrice int64) (*Item, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity < 1 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	if unitPrice < 0 {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	return &Item{
		ID:          uuid.New(),
		ProductID:   productID,
		VariantID:   variantID,
		ProductName: productName,
		VariantName: variantName,
		SKU:         sku,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		LineTotal:   unitPrice * int64(quantity),
		CreatedAt:   time.Now(),
	}, nil
}

// Order is the aggregate root for a customer purchase
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber   string
	UserID        uuid.UUID
	AddressID     uuid.UUID
	Status        Status
	PaymentStatus PaymentStatus
	PaymentMethod PaymentMethod
	PaymentRef    string
	Subtotal      int64
	Tax           int64
	ShippingCost  int64
	Total         int64
	Currency      string
	Notes         string
	Items         []Item
	CancelledAt   *time.Time
}

// NewOrder creates a pending order whose totals are derived from its items
// by the pricing policy, so the subtotal always equals the sum of line totals.
func NewOrder(userID, addressID uuid.UUID, method PaymentMethod, items []Item, policy PricingPolicy, notes string) (*Order, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if addressID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ADDRESS", "Address ID cannot be empty")
	}
	if !method.IsValid() {
		return nil, shared.NewValidationError("payment_method", "unsupported payment method")
	}
	if len(items) == 0 {
		return nil, shared.NewValidationError("items", "order must contain at least one item")
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		AddressID:         addressID,
		Status:            StatusPending,
		PaymentStatus:     PaymentStatusPending,
		PaymentMethod:     method,
		Currency:          policy.Currency,
		Notes:             strings.TrimSpace(notes),
	}

	var subtotal int64
	for i := range items {
		items[i].OrderID = o.ID
		subtotal += items[i].LineTotal
	}
	o.Items = items

	totals := policy.Compute(subtotal)
	o.Subtotal = totals.Subtotal
	o.Tax = totals.Tax
	o.ShippingCost = totals.ShippingCost
	o.Total = totals.Total
	return o, nil
}

// AssignNumber sets the public order number
func (o *Order) AssignNumber(number string) {
	o.OrderNumber = number
}

// BelongsTo reports whether the order was placed by the user
func (o *Order) BelongsTo(userID uuid.UUID) bool {
	return o.UserID == userID
}

// ProductIDs returns the distinct products referenced by the order
func (o *Order) ProductIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(o.Items))
	ids := make([]uuid.UUID, 0, len(o.Items))
	for _, it := range o.Items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	return ids
}

// Placed raises the order.placed event once the order is persisted
func (o *Order) Placed() {
	o.AddDomainEvent(NewOrderPlacedEvent(o))
}

// Cancel moves the order to CANCELLED. A collected payment becomes REFUNDED;
// the money itself is returned through the gateway's dashboard.
func (o *Order) Cancel() error {
	if !o.Status.CanTransitionTo(StatusCancelled) {
		return shared.NewDomainError(shared.CodeInvalidState, "Order "+o.OrderNumber+" cannot be cancelled in status "+o.Status.String())
	}
	now := time.Now()
	o.Status = StatusCancelled
	o.CancelledAt = &now
	if o.PaymentStatus == PaymentStatusCompleted {
		o.PaymentStatus = PaymentStatusRefunded
	}
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderCancelledEvent(o))
	return nil
}

// CanInitializePayment reports whether a new payment attempt may start
func (o *Order) CanInitializePayment() error {
	if o.Status == StatusCancelled {
		return shared.NewDomainError(shared.CodeInvalidState, "Order "+o.OrderNumber+" is cancelled")
	}
	if o.PaymentStatus != PaymentStatusPending {
		return shared.NewDomainError(shared.CodeInvalidState, "Order "+o.OrderNumber+" payment is "+string(o.PaymentStatus))
	}
	return nil
}

// MarkPaid records a successful payment and confirms the order
func (o *Order) MarkPaid(transactionRef string) error {
	if o.PaymentStatus == PaymentStatusCompleted {
		return nil
	}
	if !o.Status.CanTransitionTo(StatusConfirmed) {
		return shared.NewDomainError(shared.CodeInvalidState, "Order "+o.OrderNumber+" cannot be confirmed in status "+o.Status.String())
	}
	o.PaymentStatus = PaymentStatusCompleted
	o.Status = StatusConfirmed
	o.PaymentRef = transactionRef
	o.Touch()
	o.AddDomainEvent(NewOrderPaidEvent(o))
	return nil
}
