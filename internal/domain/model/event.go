package model

import "time"

// EventKind classifies an audit record.
type EventKind string

const (
	EventLoanRequested      EventKind = "loan.requested"
	EventLoanDisbursed      EventKind = "loan.disbursed"
	EventLoanRepaid         EventKind = "loan.repaid"
	EventLoanDefaulted      EventKind = "loan.defaulted"
	EventLoanCancelled      EventKind = "loan.cancelled"
	EventSettlementPartial  EventKind = "loan.settlement_partial"
	EventTreasuryDeposit    EventKind = "treasury.deposit"
	EventTreasuryWithdrawal EventKind = "treasury.withdrawal"
)

// Event is an immutable, append-only audit record of a domain occurrence.
type Event struct {
	ID          string
	Kind        EventKind
	Subject     string
	TxHash      string
	BlockNumber int64
	Payload     map[string]any
	CreatedAt   time.Time
}
