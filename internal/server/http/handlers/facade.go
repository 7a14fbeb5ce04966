package handlers

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// AuthFacade parses tokens issued by the auth service.
type AuthFacade interface {
	ParseToken(token string) (int64, error)
}

// CheckoutFacade covers order placement and payment reconciliation.
type CheckoutFacade interface {
	PlaceOrder(ctx context.Context, req model.PlaceOrderRequest) (*model.Confirmation, error)
	VerifyPayment(ctx context.Context, reference string) (model.ReconcileOutcome, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) error
}

// OrderFacade encapsulates order operations exposed via HTTP.
type OrderFacade interface {
	Orders(ctx context.Context, filter model.OrderFilter) (*model.OrderPage, error)
	Order(ctx context.Context, userID int64, orderID string) (*model.Order, error)
	CancelOrder(ctx context.Context, userID int64, orderID string) (*model.Order, error)
}

// HealthFacade reports readiness of backing services.
type HealthFacade interface {
	Health(ctx context.Context) error
}

// StorefrontFacade aggregates the full set of operations used across handlers.
type StorefrontFacade interface {
	AuthFacade
	CheckoutFacade
	OrderFacade
	HealthFacade
}
