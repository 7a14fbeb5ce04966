package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// StorefrontFacadeStub provides controllable behaviour for HTTP handlers.
type StorefrontFacadeStub struct {
	ParseFn   func(string) (int64, error)
	PlaceFn   func(context.Context, model.PlaceOrderRequest) (*model.Confirmation, error)
	OrdersFn  func(context.Context, model.OrderFilter) (*model.OrderPage, error)
	OrderFn   func(context.Context, int64, string) (*model.Order, error)
	CancelFn  func(context.Context, int64, string) (*model.Order, error)
	VerifyFn  func(context.Context, string) (model.ReconcileOutcome, error)
	WebhookFn func(context.Context, []byte, string) error
	HealthFn  func(context.Context) error
}

// ParseToken accepts any token as user 1 unless overridden.
func (s StorefrontFacadeStub) ParseToken(token string) (int64, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	return 1, nil
}

// PlaceOrder returns a pending order for the caller unless overridden.
func (s StorefrontFacadeStub) PlaceOrder(ctx context.Context, req model.PlaceOrderRequest) (*model.Confirmation, error) {
	if s.PlaceFn != nil {
		return s.PlaceFn(ctx, req)
	}
	order := &model.Order{
		ID:            "order-1",
		Number:        "ORD-20240101-ABC123",
		UserID:        req.UserID,
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusPending,
		CreatedAt:     time.Unix(0, 0).UTC(),
	}
	return &model.Confirmation{Order: order, PaymentURL: "https://pay.test/order-1"}, nil
}

// Orders returns an empty page unless overridden.
func (s StorefrontFacadeStub) Orders(ctx context.Context, filter model.OrderFilter) (*model.OrderPage, error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx, filter)
	}
	return &model.OrderPage{Orders: []model.Order{}, Page: 1, Limit: 10}, nil
}

// Order returns a pending order owned by userID unless overridden.
func (s StorefrontFacadeStub) Order(ctx context.Context, userID int64, orderID string) (*model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, userID, orderID)
	}
	return &model.Order{ID: orderID, UserID: userID, Status: model.OrderStatusPending, PaymentStatus: model.PaymentStatusPending}, nil
}

// CancelOrder returns a cancelled order unless overridden.
func (s StorefrontFacadeStub) CancelOrder(ctx context.Context, userID int64, orderID string) (*model.Order, error) {
	if s.CancelFn != nil {
		return s.CancelFn(ctx, userID, orderID)
	}
	return &model.Order{ID: orderID, UserID: userID, Status: model.OrderStatusCancelled, PaymentStatus: model.PaymentStatusFailed}, nil
}

// VerifyPayment reports success unless overridden.
func (s StorefrontFacadeStub) VerifyPayment(ctx context.Context, reference string) (model.ReconcileOutcome, error) {
	if s.VerifyFn != nil {
		return s.VerifyFn(ctx, reference)
	}
	return model.ReconcileSuccess, nil
}

// HandleWebhook accepts every callback unless overridden.
func (s StorefrontFacadeStub) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if s.WebhookFn != nil {
		return s.WebhookFn(ctx, body, signature)
	}
	return nil
}

// Health reports healthy unless overridden.
func (s StorefrontFacadeStub) Health(ctx context.Context) error {
	if s.HealthFn != nil {
		return s.HealthFn(ctx)
	}
	return nil
}

// WorkerFacadeStub mimics sweeper interactions with the storefront facade.
type WorkerFacadeStub struct {
	Batches     [][]model.Order
	ClaimFn     func(context.Context, time.Duration, int) ([]model.Order, error)
	ReconcileFn func(context.Context, string) (model.ReconcileOutcome, error)
	Reconciled  []string
	mu          sync.Mutex
	claimCalls  int32
}

// Lock exposes internal mutex for external synchronization.
func (s *WorkerFacadeStub) Lock() { s.mu.Lock() }

// Unlock releases previously acquired lock.
func (s *WorkerFacadeStub) Unlock() { s.mu.Unlock() }

// StalePendingOrders returns batches from the configured queue.
func (s *WorkerFacadeStub) StalePendingOrders(ctx context.Context, age time.Duration, limit int) ([]model.Order, error) {
	if s.ClaimFn != nil {
		return s.ClaimFn(ctx, age, limit)
	}
	call := atomic.AddInt32(&s.claimCalls, 1)
	if int(call) <= len(s.Batches) {
		return s.Batches[call-1], nil
	}
	return nil, nil
}

// ReconcilePending records the reference and returns the configured outcome.
func (s *WorkerFacadeStub) ReconcilePending(ctx context.Context, reference string) (model.ReconcileOutcome, error) {
	s.mu.Lock()
	s.Reconciled = append(s.Reconciled, reference)
	s.mu.Unlock()
	if s.ReconcileFn != nil {
		return s.ReconcileFn(ctx, reference)
	}
	return model.ReconcileSuccess, nil
}

// ReconciledCount returns how many references were reconciled.
func (s *WorkerFacadeStub) ReconciledCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Reconciled)
}
