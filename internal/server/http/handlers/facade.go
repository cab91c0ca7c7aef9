package handlers

import (
	"context"

	"github.com/finovel/loanledger/internal/domain/model"
)

// LoanFacade encapsulates loan lifecycle operations exposed via HTTP.
type LoanFacade interface {
	RequestLoan(ctx context.Context, borrower string, amount int64, durationDays int) (*model.Loan, error)
	Loan(ctx context.Context, loanID int64) (*model.Loan, error)
	LoansByBorrower(ctx context.Context, address string) ([]model.Loan, error)
	RecordRepayment(ctx context.Context, loanID, amount int64) (*model.Loan, error)
	CancelLoan(ctx context.Context, loanID int64) (*model.Loan, error)
	DefaultLoan(ctx context.Context, loanID int64) (*model.Loan, error)
}

// BorrowerFacade provides underwriting and audit lookups for one borrower.
type BorrowerFacade interface {
	CheckEligibility(ctx context.Context, address string, amount int64) (*model.EligibilityResult, error)
	RecommendedAmount(ctx context.Context, address string) (int64, error)
	EventsBySubject(ctx context.Context, address string, limit int) ([]model.Event, error)
}

// TreasuryFacade provides pool liquidity operations.
type TreasuryFacade interface {
	TreasurySummary(ctx context.Context) (*model.TreasurySummary, error)
	RecordDeposit(ctx context.Context, amount int64, txHash string) (*model.Treasury, error)
	RecordWithdrawal(ctx context.Context, amount int64, txHash string) (*model.Treasury, error)
}

// LendingFacade aggregates the full set of operations used across handlers.
type LendingFacade interface {
	LoanFacade
	BorrowerFacade
	TreasuryFacade
}

// SettlementTrigger fires background auto-approval for a freshly requested
// loan. Implementations must not block.
type SettlementTrigger interface {
	Trigger(loanID int64)
}
