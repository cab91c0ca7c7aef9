package dto

import (
	"time"

	"github.com/finovel/loanledger/internal/domain/model"
	"github.com/finovel/loanledger/internal/pkg/money"
)

// LoanRequest describes a borrower's loan application payload. Amount is a
// decimal string with up to six fractional digits.
type LoanRequest struct {
	Borrower     string `json:"borrower"`
	Amount       string `json:"amount"`
	DurationDays int    `json:"duration_days,omitempty"`
}

// RepaymentRequest describes a repayment recording payload.
type RepaymentRequest struct {
	Amount string `json:"amount"`
}

// LoanResponse describes one loan.
type LoanResponse struct {
	ID               int64      `json:"id"`
	Borrower         string     `json:"borrower"`
	Amount           string     `json:"amount"`
	InterestRateBps  int        `json:"interest_rate_bps"`
	Status           string     `json:"status"`
	RepaidAmount     string     `json:"repaid_amount"`
	TotalOwed        string     `json:"total_owed"`
	DurationDays     int        `json:"duration_days"`
	IssuedAt         *time.Time `json:"issued_at,omitempty"`
	DueAt            *time.Time `json:"due_at,omitempty"`
	RepaidAt         *time.Time `json:"repaid_at,omitempty"`
	SettlementTxHash *string    `json:"settlement_tx_hash,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// NewLoanResponse converts a domain loan.
func NewLoanResponse(loan *model.Loan) LoanResponse {
	return LoanResponse{
		ID:               loan.ID,
		Borrower:         loan.Borrower,
		Amount:           money.FromMicro(loan.Amount),
		InterestRateBps:  loan.InterestRateBps,
		Status:           string(loan.Status),
		RepaidAmount:     money.FromMicro(loan.RepaidAmount),
		TotalOwed:        money.FromMicro(loan.TotalOwed()),
		DurationDays:     loan.DurationDays,
		IssuedAt:         loan.IssuedAt,
		DueAt:            loan.DueAt,
		RepaidAt:         loan.RepaidAt,
		SettlementTxHash: loan.SettlementTxHash,
		CreatedAt:        loan.CreatedAt,
	}
}

// NewLoanResponses converts a slice of domain loans.
func NewLoanResponses(loans []model.Loan) []LoanResponse {
	resp := make([]LoanResponse, 0, len(loans))
	for i := range loans {
		resp = append(resp, NewLoanResponse(&loans[i]))
	}
	return resp
}
