package ledger

import "context"

// TxReceipt is a confirmed ledger transaction reference.
type TxReceipt struct {
	Hash        string `json:"txHash"`
	BlockNumber int64  `json:"blockNumber"`
}

// LoanState mirrors the lending contract's view of a loan. Amounts are
// micro-units, the contract's fixed-point integer representation.
type LoanState struct {
	ID              int64  `json:"id"`
	Borrower        string `json:"borrower"`
	Amount          int64  `json:"amount"`
	InterestRateBps int    `json:"interestRateBps"`
	Active          bool   `json:"active"`
}

// Client is the fixed contract-call surface consumed by the settlement core.
// One method per contract call keeps argument and return types checked at
// every call site.
type Client interface {
	// ProvideLiquidity moves pool funds from the treasury contract to the
	// lending contract and waits for confirmation.
	ProvideLiquidity(ctx context.Context, engineAddress string, amount int64) (*TxReceipt, error)
	// ApproveLoan submits the combined approval/disbursement transaction
	// and waits for confirmation.
	ApproveLoan(ctx context.Context, loanID int64, interestRateBps int) (*TxReceipt, error)
	GetLoan(ctx context.Context, loanID int64) (*LoanState, error)
	IsAuthorizedEngine(ctx context.Context, address string) (bool, error)
	TotalLiquidity(ctx context.Context) (int64, error)
}
