package repository

import (
	"context"

	"github.com/finovel/loanledger/internal/domain/model"
)

// LoanRepository describes persistence operations with loans.
type LoanRepository interface {
	NextID(ctx context.Context) (int64, error)
	Create(ctx context.Context, loan *model.Loan) error
	GetByID(ctx context.Context, loanID int64) (*model.Loan, error)
	ListByBorrower(ctx context.Context, address string) ([]model.Loan, error)
	CountActiveByBorrower(ctx context.Context, address string) (int, error)
	OutstandingPrincipal(ctx context.Context) (int64, error)
	ListPartialSettlements(ctx context.Context, limit int) ([]model.Loan, error)
	Save(ctx context.Context, loan *model.Loan) error
}
