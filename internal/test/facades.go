package test

import (
	"context"
	"sync"

	"github.com/finovel/loanledger/internal/domain/model"
)

// LoanFacadeStub provides controllable behaviour for loan endpoints.
type LoanFacadeStub struct {
	RequestFn    func(context.Context, string, int64, int) (*model.Loan, error)
	LoanFn       func(context.Context, int64) (*model.Loan, error)
	ByBorrowerFn func(context.Context, string) ([]model.Loan, error)
	RepayFn      func(context.Context, int64, int64) (*model.Loan, error)
	CancelFn     func(context.Context, int64) (*model.Loan, error)
	DefaultFn    func(context.Context, int64) (*model.Loan, error)
}

// RequestLoan delegates to the provided function or returns a fresh loan.
func (s LoanFacadeStub) RequestLoan(ctx context.Context, borrower string, amount int64, durationDays int) (*model.Loan, error) {
	if s.RequestFn != nil {
		return s.RequestFn(ctx, borrower, amount, durationDays)
	}
	return &model.Loan{ID: 1, Borrower: borrower, Amount: amount, Status: model.LoanStatusRequested, DurationDays: durationDays}, nil
}

// Loan delegates or returns a requested loan with the given id.
func (s LoanFacadeStub) Loan(ctx context.Context, loanID int64) (*model.Loan, error) {
	if s.LoanFn != nil {
		return s.LoanFn(ctx, loanID)
	}
	return &model.Loan{ID: loanID, Status: model.LoanStatusRequested}, nil
}

// LoansByBorrower delegates or returns an empty history.
func (s LoanFacadeStub) LoansByBorrower(ctx context.Context, address string) ([]model.Loan, error) {
	if s.ByBorrowerFn != nil {
		return s.ByBorrowerFn(ctx, address)
	}
	return nil, nil
}

// RecordRepayment delegates or echoes a disbursed loan.
func (s LoanFacadeStub) RecordRepayment(ctx context.Context, loanID, amount int64) (*model.Loan, error) {
	if s.RepayFn != nil {
		return s.RepayFn(ctx, loanID, amount)
	}
	return &model.Loan{ID: loanID, Status: model.LoanStatusDisbursed, RepaidAmount: amount}, nil
}

// CancelLoan delegates or echoes a cancelled loan.
func (s LoanFacadeStub) CancelLoan(ctx context.Context, loanID int64) (*model.Loan, error) {
	if s.CancelFn != nil {
		return s.CancelFn(ctx, loanID)
	}
	return &model.Loan{ID: loanID, Status: model.LoanStatusCancelled}, nil
}

// DefaultLoan delegates or echoes a defaulted loan.
func (s LoanFacadeStub) DefaultLoan(ctx context.Context, loanID int64) (*model.Loan, error) {
	if s.DefaultFn != nil {
		return s.DefaultFn(ctx, loanID)
	}
	return &model.Loan{ID: loanID, Status: model.LoanStatusDefaulted}, nil
}

// BorrowerFacadeStub simulates underwriting lookups.
type BorrowerFacadeStub struct {
	EligibilityFn func(context.Context, string, int64) (*model.EligibilityResult, error)
	RecommendedFn func(context.Context, string) (int64, error)
	EventsFn      func(context.Context, string, int) ([]model.Event, error)
}

// CheckEligibility delegates or approves in full.
func (s BorrowerFacadeStub) CheckEligibility(ctx context.Context, address string, amount int64) (*model.EligibilityResult, error) {
	if s.EligibilityFn != nil {
		return s.EligibilityFn(ctx, address, amount)
	}
	return &model.EligibilityResult{Eligible: true, Tier: model.TierExcellent, ApprovedAmount: amount, InterestRateBps: 500}, nil
}

// RecommendedAmount delegates or returns a fixed ceiling.
func (s BorrowerFacadeStub) RecommendedAmount(ctx context.Context, address string) (int64, error) {
	if s.RecommendedFn != nil {
		return s.RecommendedFn(ctx, address)
	}
	return 1_000_000, nil
}

// EventsBySubject delegates or returns no history.
func (s BorrowerFacadeStub) EventsBySubject(ctx context.Context, address string, limit int) ([]model.Event, error) {
	if s.EventsFn != nil {
		return s.EventsFn(ctx, address, limit)
	}
	return nil, nil
}

// TreasuryFacadeStub simulates pool liquidity operations.
type TreasuryFacadeStub struct {
	SummaryFn  func(context.Context) (*model.TreasurySummary, error)
	DepositFn  func(context.Context, int64, string) (*model.Treasury, error)
	WithdrawFn func(context.Context, int64, string) (*model.Treasury, error)
}

// TreasurySummary delegates or returns an empty summary.
func (s TreasuryFacadeStub) TreasurySummary(ctx context.Context) (*model.TreasurySummary, error) {
	if s.SummaryFn != nil {
		return s.SummaryFn(ctx)
	}
	return &model.TreasurySummary{}, nil
}

// RecordDeposit delegates or credits the amount.
func (s TreasuryFacadeStub) RecordDeposit(ctx context.Context, amount int64, txHash string) (*model.Treasury, error) {
	if s.DepositFn != nil {
		return s.DepositFn(ctx, amount, txHash)
	}
	return &model.Treasury{TotalLiquidity: amount, TotalDeposits: amount}, nil
}

// RecordWithdrawal delegates or debits the amount.
func (s TreasuryFacadeStub) RecordWithdrawal(ctx context.Context, amount int64, txHash string) (*model.Treasury, error) {
	if s.WithdrawFn != nil {
		return s.WithdrawFn(ctx, amount, txHash)
	}
	return &model.Treasury{TotalWithdrawals: amount}, nil
}

// LendingFacadeStub aggregates all facade stubs.
type LendingFacadeStub struct {
	LoanFacadeStub
	BorrowerFacadeStub
	TreasuryFacadeStub
}

// SettlementTriggerStub records fired loan ids.
type SettlementTriggerStub struct {
	mu  sync.Mutex
	IDs []int64
}

// Trigger appends the loan id.
func (s *SettlementTriggerStub) Trigger(loanID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.IDs = append(s.IDs, loanID)
}

// Triggered returns a copy of fired loan ids.
func (s *SettlementTriggerStub) Triggered() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, len(s.IDs))
	copy(out, s.IDs)
	return out
}

// QueueStatsStub reports a fixed queue depth.
type QueueStatsStub struct {
	Length int
}

// Len returns the configured depth.
func (s QueueStatsStub) Len() int { return s.Length }

// ProviderDirectoryStub reports a fixed provider list.
type ProviderDirectoryStub struct {
	List []string
}

// Redacted returns the configured list.
func (s ProviderDirectoryStub) Redacted() []string { return s.List }

// HealthCheckerStub reports a fixed health state.
type HealthCheckerStub struct {
	Err error
}

// HealthCheck returns the configured error.
func (s HealthCheckerStub) HealthCheck(context.Context) error { return s.Err }
