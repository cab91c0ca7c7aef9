package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/finovel/loanledger/internal/pkg/cache"
)

type countingClient struct {
	getLoanCalls   int
	liquidityCalls int
	approveCalls   int
}

func (c *countingClient) ProvideLiquidity(context.Context, string, int64) (*TxReceipt, error) {
	return &TxReceipt{Hash: "0x1"}, nil
}

func (c *countingClient) ApproveLoan(context.Context, int64, int) (*TxReceipt, error) {
	c.approveCalls++
	return &TxReceipt{Hash: "0x2"}, nil
}

func (c *countingClient) GetLoan(_ context.Context, loanID int64) (*LoanState, error) {
	c.getLoanCalls++
	return &LoanState{ID: loanID, Amount: 100}, nil
}

func (c *countingClient) IsAuthorizedEngine(context.Context, string) (bool, error) {
	return true, nil
}

func (c *countingClient) TotalLiquidity(context.Context) (int64, error) {
	c.liquidityCalls++
	return 555, nil
}

func newCachedFixture(t *testing.T) (*Cached, *countingClient) {
	t.Helper()
	memory := cache.NewMemory(time.Minute)
	t.Cleanup(memory.Close)
	inner := &countingClient{}
	return NewCached(inner, memory, time.Minute, discardLogger()), inner
}

func TestCachedGetLoanMemoizes(t *testing.T) {
	cached, inner := newCachedFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		state, err := cached.GetLoan(ctx, 11)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if state.ID != 11 {
			t.Fatalf("unexpected state: %+v", state)
		}
	}
	if inner.getLoanCalls != 1 {
		t.Fatalf("expected one upstream call, got %d", inner.getLoanCalls)
	}
}

func TestApproveLoanInvalidatesLoanEntry(t *testing.T) {
	cached, inner := newCachedFixture(t)
	ctx := context.Background()

	if _, err := cached.GetLoan(ctx, 11); err != nil {
		t.Fatalf("warm read failed: %v", err)
	}
	if _, err := cached.ApproveLoan(ctx, 11, 500); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if _, err := cached.GetLoan(ctx, 11); err != nil {
		t.Fatalf("reread failed: %v", err)
	}
	if inner.getLoanCalls != 2 {
		t.Fatalf("expected invalidation to force a reread, got %d calls", inner.getLoanCalls)
	}
}

func TestTotalLiquidityMemoizes(t *testing.T) {
	cached, inner := newCachedFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		total, err := cached.TotalLiquidity(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if total != 555 {
			t.Fatalf("unexpected total: %d", total)
		}
	}
	if inner.liquidityCalls != 1 {
		t.Fatalf("expected one upstream call, got %d", inner.liquidityCalls)
	}
}
