package usecase

import (
	"context"
	"log/slog"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// OrderUseCase serves order reads and user cancellation.
type OrderUseCase struct {
	orders   repository.OrderRepository
	tx       repository.Transactor
	recorder OutcomeRecorder
	logger   *slog.Logger
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(orders repository.OrderRepository, tx repository.Transactor, recorder OutcomeRecorder, logger *slog.Logger) *OrderUseCase {
	return &OrderUseCase{orders: orders, tx: tx, recorder: recorder, logger: logger}
}

// Get returns the order with items if userID owns it.
func (u *OrderUseCase) Get(ctx context.Context, userID int64, orderID string) (*model.Order, error) {
	order, err := u.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.OwnedBy(userID) {
		return nil, domainErrors.ErrNotOrderOwner
	}
	return order, nil
}

// List returns one page of the user's orders, newest first.
func (u *OrderUseCase) List(ctx context.Context, filter model.OrderFilter) (*model.OrderPage, error) {
	filter, err := NormalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	orders, total, err := u.orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return &model.OrderPage{Orders: orders, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// Cancel moves a PENDING order to CANCELLED and restores its stock.
func (u *OrderUseCase) Cancel(ctx context.Context, userID int64, orderID string) (*model.Order, error) {
	order, err := u.Get(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsPending() {
		u.recorder.Observe(opCancel, "rejected")
		return nil, domainErrors.ErrInvalidTransition
	}

	var cancelled bool
	err = u.tx.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var txErr error
		cancelled, txErr = releaseOrder(ctx, tx, orderID)
		return txErr
	})
	if err != nil {
		u.logger.Error("cancel transaction failed", slog.String("order_id", orderID), slog.String("error", err.Error()))
		return nil, wrapTransient(err)
	}
	if !cancelled {
		u.recorder.Observe(opCancel, "rejected")
		return nil, domainErrors.ErrInvalidTransition
	}

	u.recorder.Observe(opCancel, "cancelled")
	u.logger.Info("order cancelled", slog.String("order_id", orderID), slog.String("order_number", order.Number), slog.Int64("user_id", userID))

	updated, err := u.orders.Get(ctx, orderID)
	if err != nil {
		order.Status = model.OrderStatusCancelled
		if order.PaymentStatus == model.PaymentStatusPending {
			order.PaymentStatus = model.PaymentStatusFailed
		}
		return order, nil
	}
	return updated, nil
}

// releaseOrder cancels orderID if it is still PENDING and returns every
// reserved unit to stock. It reports false, without side effects, when
// another writer already moved the order out of PENDING.
func releaseOrder(ctx context.Context, tx repository.Tx, orderID string) (bool, error) {
	ok, err := tx.Orders().Cancel(ctx, orderID)
	if err != nil || !ok {
		return false, err
	}
	items, err := tx.Orders().Items(ctx, orderID)
	if err != nil {
		return false, err
	}
	for _, item := range items {
		if err := tx.Inventory().Increment(ctx, item.ProductID, item.Quantity); err != nil {
			return false, err
		}
	}
	return true, nil
}
