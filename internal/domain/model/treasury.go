package model

import "time"

// Treasury is the singleton aggregate of pool liquidity, micro-units throughout.
type Treasury struct {
	TotalLiquidity   int64
	TotalDeposits    int64
	TotalWithdrawals int64
	TotalRepayments  int64
	UpdatedAt        time.Time
}

// TreasurySummary extends the stored aggregate with fields derived from
// active loans at read time.
type TreasurySummary struct {
	Treasury
	OutstandingLoans int64
	UtilizationBps   int
}

// Summarize recomputes derived fields from the outstanding principal.
func (t Treasury) Summarize(outstanding int64) TreasurySummary {
	summary := TreasurySummary{Treasury: t, OutstandingLoans: outstanding}
	if t.TotalLiquidity > 0 {
		summary.UtilizationBps = int(outstanding * 10000 / t.TotalLiquidity)
	}
	return summary
}
