package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

// ReconcileFacade exposes the subset of application functionality required by the sweeper.
type ReconcileFacade interface {
	StalePendingOrders(ctx context.Context, age time.Duration, limit int) ([]model.Order, error)
	ReconcilePending(ctx context.Context, reference string) (model.ReconcileOutcome, error)
}

// PendingSweeper finalizes checkouts whose payment redirect never arrived.
// It periodically claims PENDING orders older than age and asks the
// processor for their outcome using a fixed pool of workers.
type PendingSweeper struct {
	facade    ReconcileFacade
	interval  time.Duration
	age       time.Duration
	batchSize int
	workers   int
	logger    *slog.Logger

	jobs   chan model.Order
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewPendingSweeper constructs the sweeper worker pool.
func NewPendingSweeper(facade ReconcileFacade, interval, age time.Duration, batchSize, workers int, logger *slog.Logger) *PendingSweeper {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &PendingSweeper{
		facade:    facade,
		interval:  interval,
		age:       age,
		batchSize: batchSize,
		workers:   workers,
		logger:    logger,
		jobs:      make(chan model.Order, batchSize),
	}
}

// Start launches background processing.
func (s *PendingSweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(runCtx)
	}

	s.wg.Add(1)
	go s.dispatch(runCtx)
}

// Stop cancels the pool and waits for in-flight reconciliations.
func (s *PendingSweeper) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *PendingSweeper) dispatch(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.jobs)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.claimAndDispatch(ctx)
		}
	}
}

func (s *PendingSweeper) claimAndDispatch(ctx context.Context) {
	orders, err := s.facade.StalePendingOrders(ctx, s.age, s.batchSize)
	if err != nil {
		s.logger.Error("claim stale orders failed", slog.String("error", err.Error()))
		return
	}
	if len(orders) > 0 {
		s.logger.Info("sweeping stale pending orders", slog.Int("count", len(orders)))
	}
	for _, order := range orders {
		select {
		case <-ctx.Done():
			return
		case s.jobs <- order:
		}
	}
}

func (s *PendingSweeper) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case order, ok := <-s.jobs:
			if !ok {
				return
			}
			s.handleOrder(ctx, order)
		}
	}
}

func (s *PendingSweeper) handleOrder(ctx context.Context, order model.Order) {
	outcome, err := s.facade.ReconcilePending(ctx, order.ID)
	if err != nil {
		if domainErrors.KindOf(err) == domainErrors.KindExternal {
			s.logger.Warn("reconciliation deferred",
				slog.String("reference", order.ID),
				slog.String("error", err.Error()),
			)
			return
		}
		s.logger.Error("reconciliation failed",
			slog.String("reference", order.ID),
			slog.String("order_number", order.Number),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Debug("stale order reconciled",
		slog.String("reference", order.ID),
		slog.String("outcome", string(outcome)),
	)
}
