package ledger

import (
	"context"
	"fmt"

	"github.com/finovel/loanledger/internal/pkg/callqueue"
)

// Resilient funnels every contract call through the rate-limited call queue,
// the sole serialization point for outbound ledger traffic.
type Resilient struct {
	inner Client
	queue *callqueue.Queue
}

// NewResilient wraps a client with the queue.
func NewResilient(inner Client, queue *callqueue.Queue) *Resilient {
	return &Resilient{inner: inner, queue: queue}
}

func (r *Resilient) ProvideLiquidity(ctx context.Context, engineAddress string, amount int64) (*TxReceipt, error) {
	return execute[*TxReceipt](r.queue, ctx, func(ctx context.Context) (any, error) {
		return r.inner.ProvideLiquidity(ctx, engineAddress, amount)
	})
}

func (r *Resilient) ApproveLoan(ctx context.Context, loanID int64, interestRateBps int) (*TxReceipt, error) {
	return execute[*TxReceipt](r.queue, ctx, func(ctx context.Context) (any, error) {
		return r.inner.ApproveLoan(ctx, loanID, interestRateBps)
	})
}

func (r *Resilient) GetLoan(ctx context.Context, loanID int64) (*LoanState, error) {
	return execute[*LoanState](r.queue, ctx, func(ctx context.Context) (any, error) {
		return r.inner.GetLoan(ctx, loanID)
	})
}

func (r *Resilient) IsAuthorizedEngine(ctx context.Context, address string) (bool, error) {
	return execute[bool](r.queue, ctx, func(ctx context.Context) (any, error) {
		return r.inner.IsAuthorizedEngine(ctx, address)
	})
}

func (r *Resilient) TotalLiquidity(ctx context.Context) (int64, error) {
	return execute[int64](r.queue, ctx, func(ctx context.Context) (any, error) {
		return r.inner.TotalLiquidity(ctx)
	})
}

func execute[T any](queue *callqueue.Queue, ctx context.Context, call callqueue.Call) (T, error) {
	var zero T
	result, err := queue.Execute(ctx, call)
	if err != nil {
		return zero, err
	}
	value, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("ledger: unexpected result type %T for %T", result, zero)
	}
	return value, nil
}
