package model

// Tier is a credit-score bracket determining interest rate and loan ceiling.
type Tier int

const (
	TierIneligible Tier = 0
	TierExcellent  Tier = 1
	TierGood       Tier = 2
	TierFair       Tier = 3
)

// UnderwritingDecision is the outcome of evaluating a requested amount
// against a borrower's credit score.
type UnderwritingDecision struct {
	Eligible       bool
	Tier           Tier
	BaseRateBps    int
	CeilingAmount  int64
	ApprovedAmount int64
}

// EligibilityResult is the typed outcome of the standalone eligibility check.
// Ineligibility is an expected outcome, carried in Reason, never an error.
type EligibilityResult struct {
	Eligible        bool
	Tier            Tier
	ApprovedAmount  int64
	InterestRateBps int
	Reason          string
}
