package usecase

import (
	"context"
	"log/slog"
	"time"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// ReconcileUseCase finalizes pending orders from the processor's answer.
// The redirect or callback that triggers it is never trusted beyond the
// reference it carries.
type ReconcileUseCase struct {
	orders   repository.OrderRepository
	tx       repository.Transactor
	verifier PaymentVerifier
	recorder OutcomeRecorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewReconcileUseCase constructs ReconcileUseCase.
func NewReconcileUseCase(orders repository.OrderRepository, tx repository.Transactor, verifier PaymentVerifier, recorder OutcomeRecorder, logger *slog.Logger) *ReconcileUseCase {
	return &ReconcileUseCase{
		orders:   orders,
		tx:       tx,
		verifier: verifier,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// VerifyAndFinalize resolves reference to success or failure. Anything but a
// confirmed success cancels the order and restores stock.
func (u *ReconcileUseCase) VerifyAndFinalize(ctx context.Context, reference string) (model.ReconcileOutcome, error) {
	return u.reconcile(ctx, reference, true)
}

// ReconcilePending is the background variant: transport failures leave the
// order PENDING for a later attempt instead of cancelling it.
func (u *ReconcileUseCase) ReconcilePending(ctx context.Context, reference string) (model.ReconcileOutcome, error) {
	return u.reconcile(ctx, reference, false)
}

// ClaimStale returns PENDING orders older than age that no other sweeper
// has claimed recently.
func (u *ReconcileUseCase) ClaimStale(ctx context.Context, age time.Duration, limit int) ([]model.Order, error) {
	var claimed []model.Order
	err := u.tx.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		claimed, err = tx.Orders().StalePending(ctx, u.now().Add(-age), limit)
		return err
	})
	if err != nil {
		return nil, wrapTransient(err)
	}
	return claimed, nil
}

func (u *ReconcileUseCase) reconcile(ctx context.Context, reference string, failClosed bool) (model.ReconcileOutcome, error) {
	if reference == "" {
		return model.ReconcileError, domainErrors.ErrMissingReference
	}

	order, err := u.orders.Get(ctx, reference)
	if err != nil {
		u.recorder.Observe(opReconcile, "error")
		return model.ReconcileError, err
	}
	if outcome, done := settled(order); done {
		u.recorder.Observe(opReconcile, "noop")
		return outcome, nil
	}

	verification, verr := u.verifier.Verify(ctx, reference)
	if verr != nil {
		u.logger.Warn("payment verification failed",
			slog.String("reference", reference),
			slog.String("error", verr.Error()),
		)
		if !failClosed {
			u.recorder.Observe(opReconcile, "deferred")
			return model.ReconcileError, verr
		}
	}

	if verr == nil && confirmed(verification, order) {
		return u.markPaid(ctx, order)
	}
	return u.markFailed(ctx, order, verification)
}

func (u *ReconcileUseCase) markPaid(ctx context.Context, order *model.Order) (model.ReconcileOutcome, error) {
	paidAt := u.now().UTC()
	var applied bool
	err := u.tx.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		applied, err = tx.Orders().MarkPaid(ctx, order.ID, paidAt)
		return err
	})
	if err != nil {
		u.recorder.Observe(opReconcile, "error")
		u.logger.Error("mark paid failed", slog.String("reference", order.ID), slog.String("error", err.Error()))
		return model.ReconcileError, wrapTransient(err)
	}
	if !applied {
		return u.current(ctx, order.ID)
	}

	u.recorder.Observe(opReconcile, "paid")
	u.logger.Info("payment reconciled",
		slog.String("reference", order.ID),
		slog.String("order_number", order.Number),
		slog.String("outcome", string(model.ReconcileSuccess)),
	)
	return model.ReconcileSuccess, nil
}

func (u *ReconcileUseCase) markFailed(ctx context.Context, order *model.Order, verification *model.PaymentVerification) (model.ReconcileOutcome, error) {
	var released bool
	err := u.tx.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		released, err = releaseOrder(ctx, tx, order.ID)
		return err
	})
	if err != nil {
		u.recorder.Observe(opReconcile, "error")
		u.logger.Error("payment failure rollback failed", slog.String("reference", order.ID), slog.String("error", err.Error()))
		return model.ReconcileError, wrapTransient(err)
	}
	if !released {
		return u.current(ctx, order.ID)
	}

	status := ""
	if verification != nil {
		status = verification.Status
	}
	u.recorder.Observe(opReconcile, "failed")
	u.logger.Info("payment reconciled",
		slog.String("reference", order.ID),
		slog.String("order_number", order.Number),
		slog.String("processor_status", status),
		slog.String("outcome", string(model.ReconcileFailed)),
	)
	return model.ReconcileFailed, nil
}

// current routes by the state a concurrent writer left behind.
func (u *ReconcileUseCase) current(ctx context.Context, orderID string) (model.ReconcileOutcome, error) {
	u.recorder.Observe(opReconcile, "noop")
	order, err := u.orders.Get(ctx, orderID)
	if err != nil {
		return model.ReconcileError, err
	}
	if outcome, done := settled(order); done {
		return outcome, nil
	}
	return model.ReconcileError, domainErrors.ErrTransactionFailed
}

func settled(order *model.Order) (model.ReconcileOutcome, bool) {
	switch {
	case order.IsPaid():
		return model.ReconcileSuccess, true
	case order.Status == model.OrderStatusCancelled:
		return model.ReconcileFailed, true
	case order.IsPending():
		return "", false
	default:
		return model.ReconcileSuccess, true
	}
}

// confirmed requires an explicit success and, when reported, a matching amount.
func confirmed(v *model.PaymentVerification, order *model.Order) bool {
	if v == nil || !v.Success {
		return false
	}
	if v.Amount != nil && *v.Amount != model.ToMinor(order.Total) {
		return false
	}
	return true
}
