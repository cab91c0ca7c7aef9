package ledger

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/finovel/loanledger/internal/pkg/callqueue"
)

func newLedgerQueue(t *testing.T) *callqueue.Queue {
	t.Helper()
	q := callqueue.New(
		callqueue.Options{MinInterval: time.Millisecond},
		slog.New(slog.NewJSONHandler(io.Discard, nil)),
	)
	q.Start(context.Background())
	t.Cleanup(q.Stop)
	return q
}

func TestResilientRoutesCallsThroughQueue(t *testing.T) {
	q := newLedgerQueue(t)
	client := NewResilient(&countingClient{}, q)

	receipt, err := client.ProvideLiquidity(context.Background(), "0xengine", 1_000_000)
	if err != nil {
		t.Fatalf("provide liquidity: %v", err)
	}
	if receipt == nil || receipt.Hash != "0x1" {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
}

func TestExecuteRejectsMismatchedResultType(t *testing.T) {
	q := newLedgerQueue(t)

	value, err := execute[*TxReceipt](q, context.Background(), func(context.Context) (any, error) {
		return "not a receipt", nil
	})
	if value != nil {
		t.Fatalf("expected nil receipt, got %+v", value)
	}
	if err == nil || !strings.Contains(err.Error(), "unexpected result type") {
		t.Fatalf("expected type mismatch error, got %v", err)
	}
}
