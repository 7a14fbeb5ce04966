package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/polkiloo/storefront/internal/adapter/payment"
	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	pkgAuth "github.com/polkiloo/storefront/internal/pkg/auth"
	"github.com/polkiloo/storefront/internal/usecase"
)

// HealthChecker reports backing store reachability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// StorefrontFacade aggregates the use cases served over HTTP and by the sweeper.
type StorefrontFacade struct {
	checkout   *usecase.CheckoutUseCase
	orders     *usecase.OrderUseCase
	reconcile  *usecase.ReconcileUseCase
	tokens     pkgAuth.TokenParser
	signatures *pkgAuth.SignatureVerifier
	health     HealthChecker
	logger     *slog.Logger
}

// NewStorefrontFacade constructs StorefrontFacade.
func NewStorefrontFacade(
	checkout *usecase.CheckoutUseCase,
	orders *usecase.OrderUseCase,
	reconcile *usecase.ReconcileUseCase,
	tokens pkgAuth.TokenParser,
	signatures *pkgAuth.SignatureVerifier,
	health HealthChecker,
	logger *slog.Logger,
) *StorefrontFacade {
	return &StorefrontFacade{
		checkout:   checkout,
		orders:     orders,
		reconcile:  reconcile,
		tokens:     tokens,
		signatures: signatures,
		health:     health,
		logger:     logger,
	}
}

func (f *StorefrontFacade) ParseToken(token string) (int64, error) {
	return f.tokens.ParseToken(token)
}

func (f *StorefrontFacade) PlaceOrder(ctx context.Context, req model.PlaceOrderRequest) (*model.Confirmation, error) {
	return f.checkout.PlaceOrder(ctx, req)
}

func (f *StorefrontFacade) Orders(ctx context.Context, filter model.OrderFilter) (*model.OrderPage, error) {
	return f.orders.List(ctx, filter)
}

func (f *StorefrontFacade) Order(ctx context.Context, userID int64, orderID string) (*model.Order, error) {
	return f.orders.Get(ctx, userID, orderID)
}

func (f *StorefrontFacade) CancelOrder(ctx context.Context, userID int64, orderID string) (*model.Order, error) {
	return f.orders.Cancel(ctx, userID, orderID)
}

// VerifyPayment finalizes the order behind a browser redirect.
func (f *StorefrontFacade) VerifyPayment(ctx context.Context, reference string) (model.ReconcileOutcome, error) {
	return f.reconcile.VerifyAndFinalize(ctx, reference)
}

// HandleWebhook authenticates a processor callback and reconciles the
// reference it names. The processor redelivers on error, so an unreachable
// processor leaves the order PENDING rather than cancelling it.
func (f *StorefrontFacade) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !f.signatures.Verify(body, signature) {
		return domainErrors.ErrInvalidSignature
	}
	event, err := payment.ParseWebhook(body)
	if err != nil {
		return err
	}

	outcome, err := f.reconcile.ReconcilePending(ctx, event.Data.Reference)
	if errors.Is(err, domainErrors.ErrOrderNotFound) {
		f.logger.Warn("webhook for unknown order", slog.String("reference", event.Data.Reference), slog.String("event", event.Event))
		return nil
	}
	if err != nil {
		return err
	}
	f.logger.Info("webhook reconciled",
		slog.String("reference", event.Data.Reference),
		slog.String("event", event.Event),
		slog.String("outcome", string(outcome)),
	)
	return nil
}

func (f *StorefrontFacade) StalePendingOrders(ctx context.Context, age time.Duration, limit int) ([]model.Order, error) {
	return f.reconcile.ClaimStale(ctx, age, limit)
}

func (f *StorefrontFacade) ReconcilePending(ctx context.Context, reference string) (model.ReconcileOutcome, error) {
	return f.reconcile.ReconcilePending(ctx, reference)
}

func (f *StorefrontFacade) Health(ctx context.Context) error {
	return f.health.HealthCheck(ctx)
}
