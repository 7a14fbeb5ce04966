package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutMode tells which source the order lines came from.
type CheckoutMode string

const (
	CheckoutModeCart   CheckoutMode = "cart"
	CheckoutModeDirect CheckoutMode = "direct"
)

// DefaultPaymentMethod is used when the client omits one.
const DefaultPaymentMethod = "card"

// Line is a priced order line before persistence.
type Line struct {
	ProductID   string
	ProductName string
	Price       decimal.Decimal
	Quantity    int
}

// Total returns price multiplied by quantity.
func (l Line) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Snapshot is the resolver output.
type Snapshot struct {
	Mode  CheckoutMode
	Lines []Line
}

// Totals are the monetary figures of an order.
type Totals struct {
	Subtotal     decimal.Decimal
	Tax          decimal.Decimal
	ShippingCost decimal.Decimal
	Total        decimal.Decimal
}

// DirectPurchase is the "buy now" variant of checkout.
type DirectPurchase struct {
	ProductID string
	Quantity  int
}

// PlaceOrderRequest carries an authenticated checkout.
type PlaceOrderRequest struct {
	UserID         int64
	Address        ShippingAddress
	PaymentMethod  string
	SaveAddress    bool
	Direct         *DirectPurchase
	IdempotencyKey string
}

// Confirmation is returned after a committed checkout.
type Confirmation struct {
	Order      *Order
	PaymentURL string
}

// PaymentVerification is the processor's answer for a reference.
type PaymentVerification struct {
	Reference string
	Success   bool
	Status    string
	// Amount in minor units; nil when the processor omitted it.
	Amount *int64
	PaidAt *time.Time
}

// ReconcileOutcome is the terminal routing decision.
type ReconcileOutcome string

const (
	ReconcileSuccess ReconcileOutcome = "success"
	ReconcileFailed  ReconcileOutcome = "failed"
	ReconcileError   ReconcileOutcome = "error"
)
