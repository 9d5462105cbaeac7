package order

import "github.com/marketplace/backend/internal/domain/shared"

const (
	EventTypeOrderPlaced    = "order.placed"
	EventTypeOrderCancelled = "order.cancelled"
	EventTypeOrderPaid      = "order.paid"

	AggregateTypeOrder = "Order"
)

// OrderPlacedEvent is raised after a checkout commits
type OrderPlacedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string `json:"order_number"`
	UserID      string `json:"user_id"`
	Total       int64  `json:"total"`
	Currency    string `json:"currency"`
	ItemCount   int    `json:"item_count"`
}

// NewOrderPlacedEvent creates an OrderPlacedEvent
func NewOrderPlacedEvent(o *Order) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPlaced, AggregateTypeOrder, o.ID),
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID.String(),
		Total:           o.Total,
		Currency:        o.Currency,
		ItemCount:       len(o.Items),
	}
}

// OrderCancelledEvent is raised after stock has been restored for a cancelled order
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderNumber string `json:"order_number"`
	UserID      string `json:"user_id"`
	// RefundAmount is the collected total owed back to the customer, zero if unpaid
	RefundAmount int64  `json:"refund_amount,omitempty"`
	Currency     string `json:"currency,omitempty"`
}

// NewOrderCancelledEvent creates an OrderCancelledEvent
func NewOrderCancelledEvent(o *Order) *OrderCancelledEvent {
	e := &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, AggregateTypeOrder, o.ID),
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID.String(),
	}
	if o.PaymentStatus == PaymentStatusRefunded {
		e.RefundAmount = o.Total
		e.Currency = o.Currency
	}
	return e
}

// OrderPaidEvent is raised when a verified payment confirms the order
type OrderPaidEvent struct {
	shared.BaseDomainEvent
	OrderNumber string `json:"order_number"`
	PaymentRef  string `json:"payment_ref"`
	Total       int64  `json:"total"`
}

// NewOrderPaidEvent creates an OrderPaidEvent
func NewOrderPaidEvent(o *Order) *OrderPaidEvent {
	return &OrderPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPaid, AggregateTypeOrder, o.ID),
		OrderNumber:     o.OrderNumber,
		PaymentRef:      o.PaymentRef,
		Total:           o.Total,
	}
}
