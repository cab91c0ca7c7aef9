package model

import (
	"strings"
	"time"
)

const (
	// MinCreditScore and MaxCreditScore bound reputation adjustments.
	MinCreditScore = 0
	MaxCreditScore = 1000

	// DefaultCreditScore is assigned to newly registered borrowers.
	DefaultCreditScore = 500
)

// User is the identity anchor for a borrower, keyed by ledger address.
type User struct {
	Address         string
	CreditScore     int
	ReferralCount   int
	XP              int
	VerifiedMethods []string
	SBTTokenRef     *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NormalizeAddress lower-cases a ledger address for storage keys.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// IsVerified reports whether the user holds at least one verification credential.
func (u *User) IsVerified() bool {
	return len(u.VerifiedMethods) > 0 || (u.SBTTokenRef != nil && *u.SBTTokenRef != "")
}

// AdjustScore applies a credit score delta within the allowed bounds.
func (u *User) AdjustScore(delta int) {
	score := u.CreditScore + delta
	if score > MaxCreditScore {
		score = MaxCreditScore
	}
	if score < MinCreditScore {
		score = MinCreditScore
	}
	u.CreditScore = score
}
