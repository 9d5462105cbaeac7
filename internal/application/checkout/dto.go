package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/order"
)

// ==================== Checkout DTOs ====================

// CheckoutRequest represents a request to turn selected items into an order
type CheckoutRequest struct {
	AddressID     uuid.UUID           `json:"address_id" binding:"required"`
	PaymentMethod string              `json:"payment_method" binding:"required,oneof=CARD MOBILE_MONEY BANK_TRANSFER CASH_ON_DELIVERY"`
	Items         []CheckoutItemInput `json:"items" binding:"required,min=1,dive"`
	Notes         string              `json:"notes" binding:"max=500"`
	// IdempotencyKey comes from the Idempotency-Key header, not the body
	IdempotencyKey string `json:"-"`
}

// CheckoutItemInput represents one requested line
type CheckoutItemInput struct {
	ProductID uuid.UUID  `json:"product_id" binding:"required"`
	VariantID *uuid.UUID `json:"variant_id"`
	Quantity  int        `json:"quantity" binding:"required,min=1,max=1000"`
}

// ListOrdersQuery represents paging and filtering for the order history
type ListOrdersQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=PENDING CONFIRMED PROCESSING SHIPPED DELIVERED CANCELLED"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// OrderResponse represents an order with its lines and shipping address
type OrderResponse struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   string              `json:"order_number"`
	Status        string              `json:"status"`
	PaymentStatus string              `json:"payment_status"`
	PaymentMethod string              `json:"payment_method"`
	PaymentRef    string              `json:"payment_ref,omitempty"`
	Subtotal      int64               `json:"subtotal"`
	Tax           int64               `json:"tax"`
	ShippingCost  int64               `json:"shipping_cost"`
	Total         int64               `json:"total"`
	Currency      string              `json:"currency"`
	Notes         string              `json:"notes,omitempty"`
	Address       *AddressResponse    `json:"address,omitempty"`
	Items         []OrderItemResponse `json:"items"`
	CreatedAt     time.Time           `json:"created_at"`
	CancelledAt   *time.Time          `json:"cancelled_at,omitempty"`
}

// OrderItemResponse represents one order line
type OrderItemResponse struct {
	ID          uuid.UUID  `json:"id"`
	ProductID   uuid.UUID  `json:"product_id"`
	VariantID   *uuid.UUID `json:"variant_id,omitempty"`
	ProductName string     `json:"product_name"`
	VariantName string     `json:"variant_name,omitempty"`
	SKU         string     `json:"sku"`
	Quantity    int        `json:"quantity"`
	UnitPrice   int64      `json:"unit_price"`
	LineTotal   int64      `json:"line_total"`
}

// AddressResponse represents the shipping destination of an order
type AddressResponse struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Line1    string    `json:"line1"`
	Line2    string    `json:"line2,omitempty"`
	City     string    `json:"city"`
	Country  string    `json:"country"`
	Phone    string    `json:"phone,omitempty"`
}

// OrderSummaryResponse represents an order in a list
type OrderSummaryResponse struct {
	ID            uuid.UUID `json:"id"`
	OrderNumber   string    `json:"order_number"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	Total         int64     `json:"total"`
	Currency      string    `json:"currency"`
	ItemCount     int       `json:"item_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToOrderResponse converts a domain order to its response DTO
func ToOrderResponse(o *order.Order, addr *identity.Address) *OrderResponse {
	resp := &OrderResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		PaymentMethod: string(o.PaymentMethod),
		PaymentRef:    o.PaymentRef,
		Subtotal:      o.Subtotal,
		Tax:           o.Tax,
		ShippingCost:  o.ShippingCost,
		Total:         o.Total,
		Currency:      o.Currency,
		Notes:         o.Notes,
		Items:         make([]OrderItemResponse, len(o.Items)),
		CreatedAt:     o.CreatedAt,
		CancelledAt:   o.CancelledAt,
	}
	for i, it := range o.Items {
		resp.Items[i] = OrderItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			VariantID:   it.VariantID,
			ProductName: it.ProductName,
			VariantName: it.VariantName,
			SKU:         it.SKU,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
		}
	}
	if addr != nil {
		resp.Address = &AddressResponse{
			ID:       addr.ID,
			FullName: addr.FullName,
			Line1:    addr.Line1,
			Line2:    addr.Line2,
			City:     addr.City,
			Country:  addr.Country,
			Phone:    addr.Phone,
		}
	}
	return resp
}

// ToOrderSummaryResponse converts a domain order to its list entry
func ToOrderSummaryResponse(o *order.Order) OrderSummaryResponse {
	return OrderSummaryResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		Total:         o.Total,
		Currency:      o.Currency,
		ItemCount:     len(o.Items),
		CreatedAt:     o.CreatedAt,
	}
}

// ==================== Cart DTOs ====================

// AddToCartRequest represents a request to put a product in the cart
type AddToCartRequest struct {
	ProductID uuid.UUID  `json:"product_id" binding:"required"`
	VariantID *uuid.UUID `json:"variant_id"`
	Quantity  int        `json:"quantity" binding:"required,min=1,max=1000"`
}

// CartItemResponse represents a cart line priced at the current catalog price
type CartItemResponse struct {
	ID          uuid.UUID  `json:"id"`
	ProductID   uuid.UUID  `json:"product_id"`
	VariantID   *uuid.UUID `json:"variant_id,omitempty"`
	ProductName string     `json:"product_name"`
	VariantName string     `json:"variant_name,omitempty"`
	Quantity    int        `json:"quantity"`
	UnitPrice   int64      `json:"unit_price"`
	LineTotal   int64      `json:"line_total"`
	Available   bool       `json:"available"`
}

// CartResponse represents the whole cart
type CartResponse struct {
	Items    []CartItemResponse `json:"items"`
	Subtotal int64              `json:"subtotal"`
	Currency string             `json:"currency"`
}
