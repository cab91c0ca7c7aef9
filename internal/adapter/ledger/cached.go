package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/finovel/loanledger/internal/pkg/cache"
)

const defaultReadTTL = 15 * time.Second

// Cached memoizes read-only contract queries under a short TTL so repeated
// status polling does not burn RPC quota. Writes pass through and invalidate
// the liquidity snapshot.
type Cached struct {
	inner  Client
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCached wraps a client with the result cache.
func NewCached(inner Client, store cache.Cache, ttl time.Duration, logger *slog.Logger) *Cached {
	if ttl <= 0 {
		ttl = defaultReadTTL
	}
	return &Cached{inner: inner, cache: store, ttl: ttl, logger: logger}
}

func (c *Cached) ProvideLiquidity(ctx context.Context, engineAddress string, amount int64) (*TxReceipt, error) {
	receipt, err := c.inner.ProvideLiquidity(ctx, engineAddress, amount)
	if err == nil {
		c.invalidate(ctx, liquidityKey)
	}
	return receipt, err
}

func (c *Cached) ApproveLoan(ctx context.Context, loanID int64, interestRateBps int) (*TxReceipt, error) {
	receipt, err := c.inner.ApproveLoan(ctx, loanID, interestRateBps)
	if err == nil {
		c.invalidate(ctx, loanKey(loanID))
		c.invalidate(ctx, liquidityKey)
	}
	return receipt, err
}

func (c *Cached) GetLoan(ctx context.Context, loanID int64) (*LoanState, error) {
	key := loanKey(loanID)
	var cached LoanState
	if hit := c.lookup(ctx, key, &cached); hit {
		return &cached, nil
	}
	state, err := c.inner.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, state)
	return state, nil
}

func (c *Cached) IsAuthorizedEngine(ctx context.Context, address string) (bool, error) {
	key := "ledger:engine:" + address
	var cached bool
	if hit := c.lookup(ctx, key, &cached); hit {
		return cached, nil
	}
	authorized, err := c.inner.IsAuthorizedEngine(ctx, address)
	if err != nil {
		return false, err
	}
	c.store(ctx, key, authorized)
	return authorized, nil
}

func (c *Cached) TotalLiquidity(ctx context.Context) (int64, error) {
	var cached int64
	if hit := c.lookup(ctx, liquidityKey, &cached); hit {
		return cached, nil
	}
	total, err := c.inner.TotalLiquidity(ctx)
	if err != nil {
		return 0, err
	}
	c.store(ctx, liquidityKey, total)
	return total, nil
}

const liquidityKey = "ledger:liquidity"

func loanKey(loanID int64) string {
	return fmt.Sprintf("ledger:loan:%d", loanID)
}

// Cache faults never fail a read, they only cost an extra RPC.
func (c *Cached) lookup(ctx context.Context, key string, dest any) bool {
	hit, err := c.cache.Get(ctx, key, dest)
	if err != nil {
		c.logger.Warn("result cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	return hit
}

func (c *Cached) store(ctx context.Context, key string, value any) {
	if err := c.cache.Set(ctx, key, value, c.ttl); err != nil {
		c.logger.Warn("result cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (c *Cached) invalidate(ctx context.Context, key string) {
	if err := c.cache.Delete(ctx, key); err != nil {
		c.logger.Warn("result cache invalidation failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}
