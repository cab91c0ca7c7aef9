package usecase

import (
	"context"
	"testing"

	"github.com/finovel/loanledger/internal/domain/model"
)

const testMaxLoan = 50_000_000_000 // 50000 units in micro

func newEngine(users *memUsers, loans *memLoans) *UnderwritingEngine {
	return NewUnderwritingEngine(DefaultTierConfig(testMaxLoan), users, loans)
}

func TestEvaluateTiers(t *testing.T) {
	engine := newEngine(newMemUsers(), newMemLoans())

	cases := []struct {
		name         string
		score        int
		amount       int64
		wantEligible bool
		wantTier     model.Tier
		wantRate     int
		wantApproved int64
	}{
		{"excellent full approval", 720, 40_000_000_000, true, model.TierExcellent, 500, 40_000_000_000},
		{"excellent at boundary", 700, 50_000_000_000, true, model.TierExcellent, 500, 50_000_000_000},
		{"good tier capped", 650, 40_000_000_000, true, model.TierGood, 700, 30_000_000_000},
		{"fair tier capped", 550, 20_000_000_000, true, model.TierFair, 1000, 15_000_000_000},
		{"fair within ceiling", 500, 10_000_000_000, true, model.TierFair, 1000, 10_000_000_000},
		{"below minimum", 450, 1_000_000, false, model.TierIneligible, 0, 0},
		{"score boundary just under fair", 499, 1_000_000, false, model.TierIneligible, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := engine.Evaluate(tc.score, tc.amount)
			if decision.Eligible != tc.wantEligible {
				t.Fatalf("eligible = %v, want %v", decision.Eligible, tc.wantEligible)
			}
			if decision.Tier != tc.wantTier {
				t.Fatalf("tier = %d, want %d", decision.Tier, tc.wantTier)
			}
			if decision.BaseRateBps != tc.wantRate {
				t.Fatalf("rate = %d, want %d", decision.BaseRateBps, tc.wantRate)
			}
			if decision.ApprovedAmount != tc.wantApproved {
				t.Fatalf("approved = %d, want %d", decision.ApprovedAmount, tc.wantApproved)
			}
		})
	}
}

func TestEvaluateIneligibleForAnyAmountBelowFloorScore(t *testing.T) {
	engine := newEngine(newMemUsers(), newMemLoans())
	for _, amount := range []int64{1, 1_000_000, testMaxLoan} {
		if decision := engine.Evaluate(450, amount); decision.Eligible {
			t.Fatalf("score 450 must be ineligible regardless of amount %d", amount)
		}
	}
}

func TestFinalRateDiscounts(t *testing.T) {
	engine := newEngine(newMemUsers(), newMemLoans())

	cases := []struct {
		name      string
		base      int
		referrals int
		xp        int
		want      int
	}{
		{"no discounts", 500, 0, 0, 500},
		{"referral step", 1000, 5, 0, 950},
		{"referral cap", 1000, 100, 0, 800},
		{"xp step", 1000, 0, 300, 970},
		{"xp cap", 1000, 0, 5000, 900},
		{"both capped", 1000, 50, 2000, 700},
		{"floor holds", 500, 50, 2000, 300},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := engine.FinalRateBps(tc.base, tc.referrals, tc.xp); got != tc.want {
				t.Fatalf("FinalRateBps(%d, %d, %d) = %d, want %d", tc.base, tc.referrals, tc.xp, got, tc.want)
			}
		})
	}
}

func TestFinalRateNeverBelowFloor(t *testing.T) {
	engine := newEngine(newMemUsers(), newMemLoans())
	for referrals := 0; referrals <= 60; referrals += 7 {
		for xp := 0; xp <= 3000; xp += 250 {
			if got := engine.FinalRateBps(500, referrals, xp); got < 300 {
				t.Fatalf("rate %d below floor for referrals=%d xp=%d", got, referrals, xp)
			}
		}
	}
}

func TestCheckEligibilityRequiresVerification(t *testing.T) {
	users := newMemUsers()
	loans := newMemLoans()
	engine := newEngine(users, loans)
	ctx := context.Background()

	users.users["0xabc"] = &model.User{Address: "0xabc", CreditScore: 720}

	result, err := engine.CheckEligibility(ctx, "0xABC", 1_000_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Eligible {
		t.Fatal("unverified borrower must not pass the standalone check")
	}
	if result.Reason == "" {
		t.Fatal("expected a structured reason")
	}
}

func TestCheckEligibilityRejectsActiveLoans(t *testing.T) {
	users := newMemUsers()
	loans := newMemLoans()
	engine := newEngine(users, loans)
	ctx := context.Background()

	users.users["0xabc"] = &model.User{Address: "0xabc", CreditScore: 720, VerifiedMethods: []string{"passport"}}
	loans.loans[1] = &model.Loan{ID: 1, Borrower: "0xabc", Amount: 5_000_000, Status: model.LoanStatusDisbursed}

	result, err := engine.CheckEligibility(ctx, "0xabc", 1_000_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Eligible {
		t.Fatal("borrower with an active loan must be ineligible")
	}
}

func TestCheckEligibilityAppliesDiscounts(t *testing.T) {
	users := newMemUsers()
	loans := newMemLoans()
	engine := newEngine(users, loans)
	ctx := context.Background()

	users.users["0xabc"] = &model.User{
		Address:         "0xabc",
		CreditScore:     550,
		ReferralCount:   10,
		XP:              200,
		VerifiedMethods: []string{"passport"},
	}

	result, err := engine.CheckEligibility(ctx, "0xabc", 20_000_000_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Eligible {
		t.Fatalf("expected eligibility, got reason %q", result.Reason)
	}
	if result.ApprovedAmount != 15_000_000_000 {
		t.Fatalf("expected tier-3 ceiling cap, got %d", result.ApprovedAmount)
	}
	// 1000 base - 100 referral - 20 xp
	if result.InterestRateBps != 880 {
		t.Fatalf("expected discounted rate 880, got %d", result.InterestRateBps)
	}
	if result.Reason == "" {
		t.Fatal("capped approval should say so")
	}
}

func TestCheckEligibilityUnknownBorrower(t *testing.T) {
	engine := newEngine(newMemUsers(), newMemLoans())

	result, err := engine.CheckEligibility(context.Background(), "0xmissing", 1_000_000)
	if err != nil {
		t.Fatalf("missing borrower is an expected outcome, got error %v", err)
	}
	if result.Eligible {
		t.Fatal("unknown borrower must be ineligible")
	}
}

func TestRecommendedAmountFollowsTierCeiling(t *testing.T) {
	users := newMemUsers()
	engine := newEngine(users, newMemLoans())
	ctx := context.Background()

	users.users["0xgood"] = &model.User{Address: "0xgood", CreditScore: 620}
	users.users["0xnone"] = &model.User{Address: "0xnone", CreditScore: 400}

	amount, err := engine.RecommendedAmount(ctx, "0xgood")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount != 30_000_000_000 {
		t.Fatalf("expected 60%% ceiling, got %d", amount)
	}

	amount, err = engine.RecommendedAmount(ctx, "0xnone")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount != 0 {
		t.Fatalf("ineligible borrower recommendation must be 0, got %d", amount)
	}
}
