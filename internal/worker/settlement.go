package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/finovel/loanledger/internal/app"
	"github.com/finovel/loanledger/internal/domain/model"
)

// SettlementFacade exposes the subset of application functionality required
// by the settlement worker.
type SettlementFacade interface {
	SettleLoan(ctx context.Context, loanID int64) error
	PartialSettlements(ctx context.Context, limit int) ([]model.Loan, error)
}

const (
	triggerBuffer       = 256
	reconcileBatchLimit = 16
)

// Settler runs loan settlements in the background. Triggers are
// fire-and-forget: the request handler enqueues a loan id and returns, and
// every settlement error terminates in the log sink, never in the caller.
// A periodic sweep re-drives loans stuck in a partial settlement.
type Settler struct {
	facade            SettlementFacade
	workers           int
	reconcileInterval time.Duration
	logger            *slog.Logger

	jobs   chan int64
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewSettler constructs the settlement worker pool.
func NewSettler(facade SettlementFacade, workers int, reconcileInterval time.Duration, logger *slog.Logger) *Settler {
	if workers <= 0 {
		workers = 1
	}
	return &Settler{
		facade:            facade,
		workers:           workers,
		reconcileInterval: reconcileInterval,
		logger:            logger,
		jobs:              make(chan int64, triggerBuffer),
	}
}

// Start launches background processing.
func (s *Settler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(runCtx)
	}

	if s.reconcileInterval > 0 {
		s.wg.Add(1)
		go s.reconcile(runCtx)
	}
}

// Stop waits for all workers to finish.
func (s *Settler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// Trigger enqueues a loan for auto-approval without blocking the caller.
// A full queue drops the trigger; the reconcile sweep or a manual re-trigger
// picks the loan up later, since it stays in REQUESTED status.
func (s *Settler) Trigger(loanID int64) {
	select {
	case s.jobs <- loanID:
	default:
		s.logger.Warn("settlement trigger dropped, queue full", slog.Int64("loan_id", loanID))
	}
}

func (s *Settler) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case loanID := <-s.jobs:
			s.settle(ctx, loanID)
		}
	}
}

func (s *Settler) settle(ctx context.Context, loanID int64) {
	err := s.facade.SettleLoan(ctx, loanID)
	if err == nil {
		return
	}

	var partial app.PartialSettlementError
	if errors.As(err, &partial) {
		s.logger.Error("partial settlement, approval pending reconciliation",
			slog.Int64("loan_id", partial.LoanID),
			slog.String("liquidity_tx", partial.LiquidityTx),
			slog.String("error", err.Error()),
		)
		return
	}

	s.logger.Error("loan settlement failed",
		slog.Int64("loan_id", loanID),
		slog.String("error", err.Error()),
	)
}

func (s *Settler) reconcile(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.reconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepPartialSettlements(ctx)
		}
	}
}

func (s *Settler) sweepPartialSettlements(ctx context.Context) {
	loans, err := s.facade.PartialSettlements(ctx, reconcileBatchLimit)
	if err != nil {
		s.logger.Error("partial settlement sweep failed", slog.String("error", err.Error()))
		return
	}
	for _, loan := range loans {
		s.logger.Info("re-driving partial settlement", slog.Int64("loan_id", loan.ID))
		s.Trigger(loan.ID)
	}
}
