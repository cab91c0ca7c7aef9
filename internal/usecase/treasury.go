package usecase

import (
	"context"

	"github.com/google/uuid"

	domainErrors "github.com/finovel/loanledger/internal/domain/errors"
	"github.com/finovel/loanledger/internal/domain/model"
	"github.com/finovel/loanledger/internal/domain/repository"
)

// TreasuryUseCase records pool liquidity movements in the off-chain ledger.
type TreasuryUseCase struct {
	treasury repository.TreasuryRepository
	loans    repository.LoanRepository
	events   repository.EventRepository
}

// NewTreasuryUseCase constructs TreasuryUseCase.
func NewTreasuryUseCase(treasury repository.TreasuryRepository, loans repository.LoanRepository, events repository.EventRepository) *TreasuryUseCase {
	return &TreasuryUseCase{treasury: treasury, loans: loans, events: events}
}

// Summary returns the stored aggregate plus derived utilization recomputed
// from active loans at read time.
func (u *TreasuryUseCase) Summary(ctx context.Context) (*model.TreasurySummary, error) {
	treasury, err := u.treasury.Get(ctx)
	if err != nil {
		return nil, err
	}
	outstanding, err := u.loans.OutstandingPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	summary := treasury.Summarize(outstanding)
	return &summary, nil
}

// RecordDeposit credits the pool with an on-ledger deposit.
func (u *TreasuryUseCase) RecordDeposit(ctx context.Context, amount int64, txHash string) (*model.Treasury, error) {
	if amount <= 0 {
		return nil, domainErrors.ErrInvalidAmount
	}
	treasury, err := u.treasury.Get(ctx)
	if err != nil {
		return nil, err
	}
	treasury.TotalLiquidity += amount
	treasury.TotalDeposits += amount
	if err := u.treasury.Save(ctx, treasury); err != nil {
		return nil, err
	}

	u.appendEvent(ctx, model.EventTreasuryDeposit, txHash, amount)
	return treasury, nil
}

// RecordWithdrawal debits the pool; it refuses to go below zero.
func (u *TreasuryUseCase) RecordWithdrawal(ctx context.Context, amount int64, txHash string) (*model.Treasury, error) {
	if amount <= 0 {
		return nil, domainErrors.ErrInvalidAmount
	}
	treasury, err := u.treasury.Get(ctx)
	if err != nil {
		return nil, err
	}
	if treasury.TotalLiquidity < amount {
		return nil, domainErrors.ErrInsufficientLiquidity
	}
	treasury.TotalLiquidity -= amount
	treasury.TotalWithdrawals += amount
	if err := u.treasury.Save(ctx, treasury); err != nil {
		return nil, err
	}

	u.appendEvent(ctx, model.EventTreasuryWithdrawal, txHash, amount)
	return treasury, nil
}

func (u *TreasuryUseCase) appendEvent(ctx context.Context, kind model.EventKind, txHash string, amount int64) {
	_ = u.events.Append(ctx, &model.Event{
		ID:      uuid.NewString(),
		Kind:    kind,
		Subject: "treasury",
		TxHash:  txHash,
		Payload: map[string]any{"amount": amount},
	})
}
