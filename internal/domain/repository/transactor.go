package repository

import (
	"context"
	"time"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// Transactor runs fn inside one atomic unit of work.
// Returning an error from fn rolls back every write made through tx.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx exposes the writers that must share a transaction.
type Tx interface {
	Orders() OrderWriter
	Inventory() InventoryLedger
	Carts() CartWriter
	Users() AddressBook
}

// OrderWriter mutates orders. Status transitions are conditional on PENDING
// and report false when another writer got there first.
type OrderWriter interface {
	Create(ctx context.Context, order *model.Order) error
	MarkPaid(ctx context.Context, orderID string, paidAt time.Time) (bool, error)
	Cancel(ctx context.Context, orderID string) (bool, error)
	Items(ctx context.Context, orderID string) ([]model.OrderItem, error)
	StalePending(ctx context.Context, createdBefore time.Time, limit int) ([]model.Order, error)
}

// InventoryLedger adjusts stock. Decrement never takes stock below zero.
type InventoryLedger interface {
	Decrement(ctx context.Context, productID string, quantity int) error
	Increment(ctx context.Context, productID string, quantity int) error
}

// CartWriter removes the cart rows consumed by a checkout.
type CartWriter interface {
	Remove(ctx context.Context, userID int64, lines []model.Line) error
}

// AddressBook stores a reusable shipping address on the user profile.
type AddressBook interface {
	SaveAddress(ctx context.Context, userID int64, address model.ShippingAddress) error
}
