package usecase

import (
	"context"
	"errors"
	"fmt"

	domainErrors "github.com/finovel/loanledger/internal/domain/errors"
	"github.com/finovel/loanledger/internal/domain/model"
	"github.com/finovel/loanledger/internal/domain/repository"
)

// TierRule maps a minimum credit score to pricing and exposure limits.
type TierRule struct {
	Tier        model.Tier
	MinScore    int
	BaseRateBps int
	CeilingPct  int
}

// TierConfig is the underwriting configuration, read once at startup.
// MaxLoanAmount is micro-units; ceilings are percentages of it.
type TierConfig struct {
	MaxLoanAmount int64
	Rules         []TierRule

	ReferralDiscountBps int
	ReferralStep        int
	ReferralCapBps      int

	XPDiscountBps int
	XPStep        int
	XPCapBps      int

	RateFloorBps int
}

// DefaultTierConfig returns the standard three-tier table.
func DefaultTierConfig(maxLoanAmount int64) TierConfig {
	return TierConfig{
		MaxLoanAmount: maxLoanAmount,
		Rules: []TierRule{
			{Tier: model.TierExcellent, MinScore: 700, BaseRateBps: 500, CeilingPct: 100},
			{Tier: model.TierGood, MinScore: 600, BaseRateBps: 700, CeilingPct: 60},
			{Tier: model.TierFair, MinScore: 500, BaseRateBps: 1000, CeilingPct: 30},
		},
		ReferralDiscountBps: 50,
		ReferralStep:        5,
		ReferralCapBps:      200,
		XPDiscountBps:       10,
		XPStep:              100,
		XPCapBps:            100,
		RateFloorBps:        300,
	}
}

// UnderwritingEngine prices loans from borrower reputation.
type UnderwritingEngine struct {
	cfg   TierConfig
	users repository.UserRepository
	loans repository.LoanRepository
}

// NewUnderwritingEngine constructs the engine.
func NewUnderwritingEngine(cfg TierConfig, users repository.UserRepository, loans repository.LoanRepository) *UnderwritingEngine {
	return &UnderwritingEngine{cfg: cfg, users: users, loans: loans}
}

// Evaluate is a pure function of credit score and requested amount. A request
// above the tier ceiling stays eligible with the approved amount capped at
// the ceiling rather than being rejected outright.
func (e *UnderwritingEngine) Evaluate(creditScore int, requestedAmount int64) model.UnderwritingDecision {
	for _, rule := range e.cfg.Rules {
		if creditScore < rule.MinScore {
			continue
		}
		ceiling := e.cfg.MaxLoanAmount * int64(rule.CeilingPct) / 100
		approved := requestedAmount
		if approved > ceiling {
			approved = ceiling
		}
		return model.UnderwritingDecision{
			Eligible:       requestedAmount > 0,
			Tier:           rule.Tier,
			BaseRateBps:    rule.BaseRateBps,
			CeilingAmount:  ceiling,
			ApprovedAmount: approved,
		}
	}
	return model.UnderwritingDecision{Tier: model.TierIneligible}
}

// FinalRateBps applies the referral and experience discounts to a base rate.
// Both discounts are additive, independently capped, and the combined rate
// never drops below the configured floor.
func (e *UnderwritingEngine) FinalRateBps(baseRateBps, referralCount, xp int) int {
	referralDiscount := referralCount / e.cfg.ReferralStep * e.cfg.ReferralDiscountBps
	if referralDiscount > e.cfg.ReferralCapBps {
		referralDiscount = e.cfg.ReferralCapBps
	}
	xpDiscount := xp / e.cfg.XPStep * e.cfg.XPDiscountBps
	if xpDiscount > e.cfg.XPCapBps {
		xpDiscount = e.cfg.XPCapBps
	}
	rate := baseRateBps - referralDiscount - xpDiscount
	if rate < e.cfg.RateFloorBps {
		rate = e.cfg.RateFloorBps
	}
	return rate
}

// CheckEligibility is the standalone entry point. On top of score-based
// tiering it requires a verification credential and zero currently-active
// loans. Ineligibility is a typed result, never an error.
func (e *UnderwritingEngine) CheckEligibility(ctx context.Context, address string, amount int64) (*model.EligibilityResult, error) {
	address = model.NormalizeAddress(address)
	if address == "" {
		return nil, domainErrors.ErrInvalidAddress
	}
	if amount <= 0 {
		return nil, domainErrors.ErrInvalidAmount
	}

	user, err := e.users.GetByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return &model.EligibilityResult{Reason: "borrower not found"}, nil
		}
		return nil, err
	}

	if !user.IsVerified() {
		return &model.EligibilityResult{Reason: "verification credential required"}, nil
	}

	active, err := e.loans.CountActiveByBorrower(ctx, address)
	if err != nil {
		return nil, err
	}
	if active > 0 {
		return &model.EligibilityResult{Reason: fmt.Sprintf("%d active loan(s) outstanding", active)}, nil
	}

	decision := e.Evaluate(user.CreditScore, amount)
	if !decision.Eligible {
		return &model.EligibilityResult{
			Tier:   decision.Tier,
			Reason: fmt.Sprintf("credit score %d below minimum", user.CreditScore),
		}, nil
	}

	result := &model.EligibilityResult{
		Eligible:        true,
		Tier:            decision.Tier,
		ApprovedAmount:  decision.ApprovedAmount,
		InterestRateBps: e.FinalRateBps(decision.BaseRateBps, user.ReferralCount, user.XP),
	}
	if decision.ApprovedAmount < amount {
		result.Reason = "requested amount capped at tier ceiling"
	}
	return result, nil
}

// RecommendedAmount returns the borrower's tier ceiling, the largest
// principal auto-approval would accept.
func (e *UnderwritingEngine) RecommendedAmount(ctx context.Context, address string) (int64, error) {
	address = model.NormalizeAddress(address)
	if address == "" {
		return 0, domainErrors.ErrInvalidAddress
	}

	user, err := e.users.GetByAddress(ctx, address)
	if err != nil {
		return 0, err
	}

	decision := e.Evaluate(user.CreditScore, 1)
	return decision.CeilingAmount, nil
}
