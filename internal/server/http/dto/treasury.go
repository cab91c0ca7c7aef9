package dto

import (
	"time"

	"github.com/finovel/loanledger/internal/domain/model"
	"github.com/finovel/loanledger/internal/pkg/money"
)

// TreasuryMovementRequest records a deposit or withdrawal observed on ledger.
type TreasuryMovementRequest struct {
	Amount string `json:"amount"`
	TxHash string `json:"tx_hash"`
}

// TreasuryResponse describes the stored aggregate.
type TreasuryResponse struct {
	TotalLiquidity   string    `json:"total_liquidity"`
	TotalDeposits    string    `json:"total_deposits"`
	TotalWithdrawals string    `json:"total_withdrawals"`
	TotalRepayments  string    `json:"total_repayments"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TreasurySummaryResponse extends the aggregate with derived fields.
type TreasurySummaryResponse struct {
	TreasuryResponse
	OutstandingLoans string `json:"outstanding_loans"`
	UtilizationBps   int    `json:"utilization_bps"`
}

// NewTreasuryResponse converts the stored aggregate.
func NewTreasuryResponse(t *model.Treasury) TreasuryResponse {
	return TreasuryResponse{
		TotalLiquidity:   money.FromMicro(t.TotalLiquidity),
		TotalDeposits:    money.FromMicro(t.TotalDeposits),
		TotalWithdrawals: money.FromMicro(t.TotalWithdrawals),
		TotalRepayments:  money.FromMicro(t.TotalRepayments),
		UpdatedAt:        t.UpdatedAt,
	}
}

// NewTreasurySummaryResponse converts the derived summary.
func NewTreasurySummaryResponse(s *model.TreasurySummary) TreasurySummaryResponse {
	return TreasurySummaryResponse{
		TreasuryResponse: NewTreasuryResponse(&s.Treasury),
		OutstandingLoans: money.FromMicro(s.OutstandingLoans),
		UtilizationBps:   s.UtilizationBps,
	}
}
