package app

import (
	"context"

	"github.com/finovel/loanledger/internal/domain/model"
	"github.com/finovel/loanledger/internal/domain/repository"
	"github.com/finovel/loanledger/internal/usecase"
)

// LendingFacade aggregates the settlement core behind one surface consumed
// by the HTTP handlers and the settlement worker.
type LendingFacade struct {
	loans        *usecase.LoanUseCase
	underwriting *usecase.UnderwritingEngine
	treasury     *usecase.TreasuryUseCase
	events       repository.EventRepository
	orchestrator *Orchestrator
}

// NewLendingFacade constructs the facade.
func NewLendingFacade(
	loans *usecase.LoanUseCase,
	underwriting *usecase.UnderwritingEngine,
	treasury *usecase.TreasuryUseCase,
	events repository.EventRepository,
	orchestrator *Orchestrator,
) *LendingFacade {
	return &LendingFacade{
		loans:        loans,
		underwriting: underwriting,
		treasury:     treasury,
		events:       events,
		orchestrator: orchestrator,
	}
}

func (f *LendingFacade) RequestLoan(ctx context.Context, borrower string, amount int64, durationDays int) (*model.Loan, error) {
	return f.loans.Request(ctx, borrower, amount, durationDays)
}

func (f *LendingFacade) Loan(ctx context.Context, loanID int64) (*model.Loan, error) {
	return f.loans.Get(ctx, loanID)
}

func (f *LendingFacade) LoansByBorrower(ctx context.Context, address string) ([]model.Loan, error) {
	return f.loans.ListByBorrower(ctx, address)
}

func (f *LendingFacade) RecordRepayment(ctx context.Context, loanID, amount int64) (*model.Loan, error) {
	return f.loans.RecordRepayment(ctx, loanID, amount)
}

func (f *LendingFacade) CancelLoan(ctx context.Context, loanID int64) (*model.Loan, error) {
	return f.loans.Cancel(ctx, loanID)
}

func (f *LendingFacade) DefaultLoan(ctx context.Context, loanID int64) (*model.Loan, error) {
	return f.loans.MarkDefaulted(ctx, loanID)
}

func (f *LendingFacade) CheckEligibility(ctx context.Context, address string, amount int64) (*model.EligibilityResult, error) {
	return f.underwriting.CheckEligibility(ctx, address, amount)
}

func (f *LendingFacade) RecommendedAmount(ctx context.Context, address string) (int64, error) {
	return f.underwriting.RecommendedAmount(ctx, address)
}

func (f *LendingFacade) TreasurySummary(ctx context.Context) (*model.TreasurySummary, error) {
	return f.treasury.Summary(ctx)
}

func (f *LendingFacade) RecordDeposit(ctx context.Context, amount int64, txHash string) (*model.Treasury, error) {
	return f.treasury.RecordDeposit(ctx, amount, txHash)
}

func (f *LendingFacade) RecordWithdrawal(ctx context.Context, amount int64, txHash string) (*model.Treasury, error) {
	return f.treasury.RecordWithdrawal(ctx, amount, txHash)
}

func (f *LendingFacade) EventsBySubject(ctx context.Context, address string, limit int) ([]model.Event, error) {
	return f.events.ListBySubject(ctx, model.NormalizeAddress(address), limit)
}

// SettleLoan runs the full settlement sequence for one loan.
func (f *LendingFacade) SettleLoan(ctx context.Context, loanID int64) error {
	return f.orchestrator.Settle(ctx, loanID)
}

// PartialSettlements lists loans whose liquidity moved but whose approval
// never confirmed, for the reconcile sweep.
func (f *LendingFacade) PartialSettlements(ctx context.Context, limit int) ([]model.Loan, error) {
	return f.orchestrator.PartialSettlements(ctx, limit)
}
