package model

import "time"

// LoanStatus describes the settlement lifecycle of a loan.
type LoanStatus string

const (
	LoanStatusRequested LoanStatus = "REQUESTED"
	LoanStatusApproved  LoanStatus = "APPROVED"
	LoanStatusDisbursed LoanStatus = "DISBURSED"
	LoanStatusRepaid    LoanStatus = "REPAID"
	LoanStatusDefaulted LoanStatus = "DEFAULTED"
	LoanStatusCancelled LoanStatus = "CANCELLED"
)

// DefaultLoanDurationDays is the requested term when none is supplied.
const DefaultLoanDurationDays = 7

// Loan is the settlement unit. Monetary fields are micro-units (6 decimal
// places of the stable-value unit); InterestRateBps is basis points.
type Loan struct {
	ID               int64
	Borrower         string
	Amount           int64
	InterestRateBps  int
	Status           LoanStatus
	RepaidAmount     int64
	IssuedAt         *time.Time
	DueAt            *time.Time
	RepaidAt         *time.Time
	DurationDays     int
	SettlementTxHash *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TotalOwed is principal plus interest in micro-units, integer basis-point math.
func (l *Loan) TotalOwed() int64 {
	return l.Amount + l.Amount*int64(l.InterestRateBps)/10000
}

// IsActive reports whether the loan counts against the borrower's open exposure.
func (l *Loan) IsActive() bool {
	return l.Status == LoanStatusApproved || l.Status == LoanStatusDisbursed
}

// IsTerminal reports whether the loan reached a final state.
func (l *Loan) IsTerminal() bool {
	switch l.Status {
	case LoanStatusRepaid, LoanStatusDefaulted, LoanStatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether moving to the target status is allowed.
// Transitions are one-directional; approval and disbursement are fused on
// ledger, so REQUESTED may jump straight to DISBURSED.
func (l *Loan) CanTransition(target LoanStatus) bool {
	switch l.Status {
	case LoanStatusRequested:
		return target == LoanStatusApproved || target == LoanStatusDisbursed || target == LoanStatusCancelled
	case LoanStatusApproved:
		return target == LoanStatusDisbursed
	case LoanStatusDisbursed:
		return target == LoanStatusRepaid || target == LoanStatusDefaulted
	}
	return false
}
