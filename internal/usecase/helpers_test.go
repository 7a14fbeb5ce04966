package usecase

import (
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/test"
)

var validAddress = model.ShippingAddress{
	Street:  "1 Main St",
	City:    "Springfield",
	State:   "IL",
	ZipCode: "62701",
	Country: "US",
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testPricing() Pricing {
	return Pricing{
		TaxRate:               decimal.RequireFromString("0.08"),
		ShippingCost:          decimal.NewFromInt(10),
		FreeShippingThreshold: decimal.NewFromInt(100),
	}
}

func product(id, name, price string, stock int) model.Product {
	return model.Product{
		ID:     id,
		Name:   name,
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
		Status: model.ProductStatusActive,
	}
}

type fixture struct {
	store    *test.MemoryStore
	numbers  *test.SequenceNumbers
	keys     *test.IdempotencyStoreStub
	recorder *test.RecorderStub
	verifier *test.VerifierStub
	checkout *CheckoutUseCase
	orders   *OrderUseCase
	recon    *ReconcileUseCase
}

func newFixture() *fixture {
	store := test.NewMemoryStore()
	f := &fixture{
		store:    store,
		numbers:  &test.SequenceNumbers{},
		keys:     test.NewIdempotencyStoreStub(),
		recorder: &test.RecorderStub{},
		verifier: &test.VerifierStub{},
	}
	cfg := &config.Config{OrderNumberAttempts: 2}
	logger := discardLogger()
	f.checkout = NewCheckoutUseCase(
		NewCartResolver(store.Products(), store.Carts()),
		testPricing(),
		f.numbers,
		store,
		store.Orders(),
		test.PaymentInitiatorStub{Base: "https://checkout.test"},
		f.keys,
		f.recorder,
		cfg,
		logger,
	)
	f.orders = NewOrderUseCase(store.Orders(), store, f.recorder, logger)
	f.recon = NewReconcileUseCase(store.Orders(), store, f.verifier, f.recorder, logger)
	return f
}

func (f *fixture) cartRequest(userID int64) model.PlaceOrderRequest {
	return model.PlaceOrderRequest{UserID: userID, Address: validAddress}
}

func (f *fixture) directRequest(userID int64, productID string, quantity int) model.PlaceOrderRequest {
	return model.PlaceOrderRequest{
		UserID:  userID,
		Address: validAddress,
		Direct:  &model.DirectPurchase{ProductID: productID, Quantity: quantity},
	}
}

func pendingOrder(id string, userID int64, createdAt time.Time, items ...model.OrderItem) model.Order {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return model.Order{
		ID:            id,
		Number:        "ORD-20240101-" + id,
		UserID:        userID,
		Subtotal:      subtotal,
		Tax:           decimal.Zero,
		ShippingCost:  decimal.Zero,
		Total:         subtotal,
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusPending,
		CreatedAt:     createdAt,
		Items:         items,
	}
}
