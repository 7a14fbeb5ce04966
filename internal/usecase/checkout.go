package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/polkiloo/storefront/internal/config"
	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// CheckoutUseCase converts a cart or direct purchase into a pending order.
type CheckoutUseCase struct {
	resolver *CartResolver
	pricing  Pricing
	numbers  NumberSource
	tx       repository.Transactor
	orders   repository.OrderRepository
	payments PaymentInitiator
	keys     IdempotencyStore
	recorder OutcomeRecorder
	logger   *slog.Logger
	attempts int
	newID    func() string
}

// NewCheckoutUseCase constructs CheckoutUseCase.
func NewCheckoutUseCase(
	resolver *CartResolver,
	pricing Pricing,
	numbers NumberSource,
	tx repository.Transactor,
	orders repository.OrderRepository,
	payments PaymentInitiator,
	keys IdempotencyStore,
	recorder OutcomeRecorder,
	cfg *config.Config,
	logger *slog.Logger,
) *CheckoutUseCase {
	attempts := cfg.OrderNumberAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &CheckoutUseCase{
		resolver: resolver,
		pricing:  pricing,
		numbers:  numbers,
		tx:       tx,
		orders:   orders,
		payments: payments,
		keys:     keys,
		recorder: recorder,
		logger:   logger,
		attempts: attempts,
		newID:    uuid.NewString,
	}
}

// PlaceOrder validates, reserves stock and persists the order atomically,
// then returns it with a payment URL.
func (u *CheckoutUseCase) PlaceOrder(ctx context.Context, req model.PlaceOrderRequest) (*model.Confirmation, error) {
	req = NormalizeRequest(req)

	if err := req.Address.Validate(); err != nil {
		u.recorder.Observe(opCheckout, "rejected")
		return nil, err
	}

	key := idempotencyScope(req)
	if key != "" {
		confirmation, reserved, err := u.reserve(ctx, key, req.UserID)
		if err != nil || confirmation != nil {
			return confirmation, err
		}
		if reserved {
			defer func() {
				if key != "" {
					u.releaseKey(ctx, key)
				}
			}()
		} else {
			key = ""
		}
	}

	confirmation, err := u.place(ctx, req)
	if err != nil {
		u.recorder.Observe(opCheckout, outcomeFor(err))
		u.logger.Info("checkout rejected",
			slog.Int64("user_id", req.UserID),
			slog.String("kind", string(domainErrors.KindOf(err))),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	if key != "" {
		if err := u.keys.Complete(ctx, key, confirmation.Order.ID); err != nil {
			u.logger.Warn("idempotency key not stored", slog.String("order_id", confirmation.Order.ID), slog.String("error", err.Error()))
		}
		key = ""
	}

	u.recorder.Observe(opCheckout, "created")
	u.logger.Info("order placed",
		slog.String("order_id", confirmation.Order.ID),
		slog.String("order_number", confirmation.Order.Number),
		slog.Int64("user_id", req.UserID),
		slog.String("total", confirmation.Order.Total.StringFixed(2)),
	)
	return confirmation, nil
}

func (u *CheckoutUseCase) place(ctx context.Context, req model.PlaceOrderRequest) (*model.Confirmation, error) {
	snapshot, err := u.resolver.Resolve(ctx, req.UserID, req.Direct)
	if err != nil {
		return nil, err
	}
	totals := u.pricing.Compute(snapshot.Lines)

	var order *model.Order
	for attempt := 1; ; attempt++ {
		number, err := u.numbers.Next()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domainErrors.ErrTransactionFailed, err)
		}
		order = u.buildOrder(req, snapshot, totals, number)

		err = u.tx.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			return u.persist(ctx, tx, req, snapshot, order)
		})
		if err == nil {
			break
		}
		if errors.Is(err, domainErrors.ErrOrderNumberTaken) {
			u.logger.Warn("order number collision", slog.String("order_number", number), slog.Int("attempt", attempt))
			if attempt < u.attempts {
				continue
			}
			return nil, domainErrors.ErrOrderNumberConflict
		}
		if domainErrors.KindOf(err) == domainErrors.KindInternal {
			u.logger.Error("checkout transaction failed", slog.String("order_id", order.ID), slog.String("error", err.Error()))
		}
		return nil, wrapTransient(err)
	}

	if committed, err := u.orders.Get(ctx, order.ID); err == nil {
		order = committed
	} else {
		u.logger.Warn("re-read of committed order failed", slog.String("order_id", order.ID), slog.String("error", err.Error()))
	}

	url, err := u.payments.PaymentURL(order)
	if err != nil {
		return nil, err
	}
	return &model.Confirmation{Order: order, PaymentURL: url}, nil
}

// persist runs inside one transaction: order, items, stock, cart, address.
func (u *CheckoutUseCase) persist(ctx context.Context, tx repository.Tx, req model.PlaceOrderRequest, snapshot *model.Snapshot, order *model.Order) error {
	if err := tx.Orders().Create(ctx, order); err != nil {
		return err
	}
	for _, line := range snapshot.Lines {
		if err := tx.Inventory().Decrement(ctx, line.ProductID, line.Quantity); err != nil {
			return err
		}
	}
	if snapshot.Mode == model.CheckoutModeCart {
		if err := tx.Carts().Remove(ctx, req.UserID, snapshot.Lines); err != nil {
			return err
		}
	}
	if req.SaveAddress {
		if err := tx.Users().SaveAddress(ctx, req.UserID, req.Address); err != nil {
			return err
		}
	}
	return nil
}

func (u *CheckoutUseCase) buildOrder(req model.PlaceOrderRequest, snapshot *model.Snapshot, totals model.Totals, number string) *model.Order {
	items := make([]model.OrderItem, 0, len(snapshot.Lines))
	for _, line := range snapshot.Lines {
		items = append(items, model.OrderItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Price:       line.Price,
			Quantity:    line.Quantity,
		})
	}
	return &model.Order{
		ID:              u.newID(),
		Number:          number,
		UserID:          req.UserID,
		Subtotal:        totals.Subtotal,
		Tax:             totals.Tax,
		ShippingCost:    totals.ShippingCost,
		Total:           totals.Total,
		ShippingAddress: req.Address,
		PaymentMethod:   req.PaymentMethod,
		Status:          model.OrderStatusPending,
		PaymentStatus:   model.PaymentStatusPending,
		Items:           items,
	}
}

// reserve returns a confirmation when the key already produced an order.
// Store failures degrade to a non-idempotent checkout.
func (u *CheckoutUseCase) reserve(ctx context.Context, key string, userID int64) (*model.Confirmation, bool, error) {
	orderID, reserved, err := u.keys.Reserve(ctx, key)
	if err != nil {
		u.logger.Warn("idempotency store unavailable", slog.String("error", err.Error()))
		return nil, false, nil
	}
	if reserved {
		return nil, true, nil
	}
	if orderID == "" {
		return nil, false, domainErrors.ErrRequestInProgress
	}

	order, err := u.orders.Get(ctx, orderID)
	if err != nil {
		return nil, false, err
	}
	if !order.OwnedBy(userID) {
		return nil, false, domainErrors.ErrNotOrderOwner
	}
	url, err := u.payments.PaymentURL(order)
	if err != nil {
		return nil, false, err
	}
	u.recorder.Observe(opCheckout, "replayed")
	return &model.Confirmation{Order: order, PaymentURL: url}, false, nil
}

func (u *CheckoutUseCase) releaseKey(ctx context.Context, key string) {
	if err := u.keys.Release(context.WithoutCancel(ctx), key); err != nil {
		u.logger.Warn("idempotency key not released", slog.String("error", err.Error()))
	}
}

func idempotencyScope(req model.PlaceOrderRequest) string {
	if req.IdempotencyKey == "" {
		return ""
	}
	return "checkout:" + strconv.FormatInt(req.UserID, 10) + ":" + req.IdempotencyKey
}

func outcomeFor(err error) string {
	switch domainErrors.KindOf(err) {
	case domainErrors.KindTransient, domainErrors.KindInternal, domainErrors.KindExternal:
		return "failed"
	default:
		return "rejected"
	}
}
