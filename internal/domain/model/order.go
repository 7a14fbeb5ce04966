package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus describes fulfilment lifecycle.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCancelled, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}

// PaymentStatus describes payment outcome of an order.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// Order is one checkout attempt. Totals are fixed at creation.
type Order struct {
	ID              string
	Number          string
	UserID          int64
	Subtotal        decimal.Decimal
	Tax             decimal.Decimal
	ShippingCost    decimal.Decimal
	Total           decimal.Decimal
	ShippingAddress ShippingAddress
	PaymentMethod   string
	Status          OrderStatus
	PaymentStatus   PaymentStatus
	CreatedAt       time.Time
	PaidAt          *time.Time
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	Items           []OrderItem
	ItemCount       int
}

// OrderItem is a frozen line snapshot.
type OrderItem struct {
	ID          int64
	OrderID     string
	ProductID   string
	ProductName string
	Price       decimal.Decimal
	Quantity    int
}

// LineTotal returns price multiplied by quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// IsPending reports whether the order still awaits payment.
func (o *Order) IsPending() bool {
	return o.Status == OrderStatusPending
}

// IsPaid reports whether reconciliation already confirmed payment.
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// OwnedBy reports whether userID placed the order.
func (o *Order) OwnedBy(userID int64) bool {
	return o.UserID == userID
}

// OrderFilter narrows order listing.
type OrderFilter struct {
	UserID int64
	Status OrderStatus
	Page   int
	Limit  int
}

// Offset returns the row offset for the requested page.
func (f OrderFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// OrderPage is one page of a user's orders.
type OrderPage struct {
	Orders []Order
	Total  int
	Page   int
	Limit  int
}

// Pages returns the number of pages for the page size.
func (p OrderPage) Pages() int {
	if p.Limit <= 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}
