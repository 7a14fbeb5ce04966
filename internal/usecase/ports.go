package usecase

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// PaymentInitiator builds the handle the client uses to pay for an order.
type PaymentInitiator interface {
	PaymentURL(order *model.Order) (string, error)
}

// PaymentVerifier asks the processor for the true outcome of a reference.
type PaymentVerifier interface {
	Verify(ctx context.Context, reference string) (*model.PaymentVerification, error)
}

// IdempotencyStore remembers which order a client retry key produced.
// Reserve reports reserved=false with the stored order id when the key was
// already completed, or with an empty id while the first request is running.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key string) (orderID string, reserved bool, err error)
	Complete(ctx context.Context, key, orderID string) error
	Release(ctx context.Context, key string) error
}

// OutcomeRecorder counts terminal outcomes per operation.
type OutcomeRecorder interface {
	Observe(operation, outcome string)
}

// NumberSource yields candidate order numbers.
type NumberSource interface {
	Next() (string, error)
}

const (
	opCheckout  = "checkout"
	opCancel    = "cancel"
	opReconcile = "reconcile"
)
