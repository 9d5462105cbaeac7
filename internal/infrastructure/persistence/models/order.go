package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared"
)

// OrderModel is the persistence model for the Order aggregate
type OrderModel struct {
	BaseModel
	OrderNumber   string              `gorm:"type:varchar(40);not null;uniqueIndex"`
	UserID        uuid.UUID           `gorm:"type:uuid;not null;index"`
	AddressID     uuid.UUID           `gorm:"type:uuid;not null"`
	Status        order.Status        `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PaymentStatus order.PaymentStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
	PaymentMethod order.PaymentMethod `gorm:"type:varchar(30);not null"`
	PaymentRef    string              `gorm:"type:varchar(255)"`
	Subtotal      int64               `gorm:"not null"`
	Tax           int64               `gorm:"not null"`
	ShippingCost  int64               `gorm:"not null"`
	Total         int64               `gorm:"not null"`
	Currency      string              `gorm:"type:varchar(3);not null"`
	Notes         string              `gorm:"type:text"`
	CancelledAt   *time.Time
	Items         []OrderItemModel `gorm:"foreignKey:OrderID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		BaseAggregateRoot: shared.BaseAggregateRoot{BaseEntity: m.BaseModel.ToDomain()},
		OrderNumber:       m.OrderNumber,
		UserID:            m.UserID,
		AddressID:         m.AddressID,
		Status:            m.Status,
		PaymentStatus:     m.PaymentStatus,
		PaymentMethod:     m.PaymentMethod,
		PaymentRef:        m.PaymentRef,
		Subtotal:          m.Subtotal,
		Tax:               m.Tax,
		ShippingCost:      m.ShippingCost,
		Total:             m.Total,
		Currency:          m.Currency,
		Notes:             m.Notes,
		CancelledAt:       m.CancelledAt,
		Items:             make([]order.Item, 0, len(m.Items)),
	}
	for i := range m.Items {
		o.Items = append(o.Items, m.Items[i].ToDomain())
	}
	return o
}

// OrderModelFromDomain converts a domain Order (with items) to its persistence model
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		AddressID:     o.AddressID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		PaymentMethod: o.PaymentMethod,
		PaymentRef:    o.PaymentRef,
		Subtotal:      o.Subtotal,
		Tax:           o.Tax,
		ShippingCost:  o.ShippingCost,
		Total:         o.Total,
		Currency:      o.Currency,
		Notes:         o.Notes,
		CancelledAt:   o.CancelledAt,
		Items:         make([]OrderItemModel, 0, len(o.Items)),
	}
	m.FromDomainBaseEntity(o.BaseEntity)
	for i := range o.Items {
		m.Items = append(m.Items, OrderItemModelFromDomain(&o.Items[i]))
	}
	return m
}

// OrderItemModel is the persistence model for order lines
type OrderItemModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	VariantID   *uuid.UUID `gorm:"type:uuid"`
	ProductName string     `gorm:"type:varchar(255);not null"`
	VariantName string     `gorm:"type:varchar(255)"`
	SKU         string     `gorm:"column:sku;type:varchar(100)"`
	Quantity    int        `gorm:"not null"`
	UnitPrice   int64      `gorm:"not null"`
	LineTotal   int64      `gorm:"not null"`
	CreatedAt   time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain Item
func (m *OrderItemModel) ToDomain() order.Item {
	return order.Item{
		ID:          m.ID,
		OrderID:     m.OrderID,
		ProductID:   m.ProductID,
		VariantID:   m.VariantID,
		ProductName: m.ProductName,
		VariantName: m.VariantName,
		SKU:         m.SKU,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		LineTotal:   m.LineTotal,
		CreatedAt:   m.CreatedAt,
	}
}

// OrderItemModelFromDomain converts a domain Item to its persistence model
func OrderItemModelFromDomain(it *order.Item) OrderItemModel {
	return OrderItemModel{
		ID:          it.ID,
		OrderID:     it.OrderID,
		ProductID:   it.ProductID,
		VariantID:   it.VariantID,
		ProductName: it.ProductName,
		VariantName: it.VariantName,
		SKU:         it.SKU,
		Quantity:    it.Quantity,
		UnitPrice:   it.UnitPrice,
		LineTotal:   it.LineTotal,
		CreatedAt:   it.CreatedAt,
	}
}

// CartItemModel is the persistence model for cart lines
type CartItemModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_cart_items_line,priority:1"`
	ProductID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_cart_items_line,priority:2"`
	VariantID *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_cart_items_line,priority:3"`
	Quantity  int        `gorm:"not null"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CartItemModel) TableName() string {
	return "cart_items"
}

// ToDomain converts the persistence model to a domain CartItem
func (m *CartItemModel) ToDomain() *order.CartItem {
	return &order.CartItem{
		ID:        m.ID,
		UserID:    m.UserID,
		ProductID: m.ProductID,
		VariantID: m.VariantID,
		Quantity:  m.Quantity,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// CartItemModelFromDomain converts a domain CartItem to its persistence model
func CartItemModelFromDomain(c *order.CartItem) *CartItemModel {
	return &CartItemModel{
		ID:        c.ID,
		UserID:    c.UserID,
		ProductID: c.ProductID,
		VariantID: c.VariantID,
		Quantity:  c.Quantity,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
