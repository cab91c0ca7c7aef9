package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/finovel/loanledger/internal/adapter/ledger"
	"github.com/finovel/loanledger/internal/domain/model"
	"github.com/finovel/loanledger/internal/test"
	"github.com/finovel/loanledger/internal/usecase"
)

const (
	testEngineAddress = "0xengine"
	testMaxLoan       = int64(50_000_000_000)
)

type ledgerClientStub struct {
	ProvideLiquidityFn func(ctx context.Context, engine string, amount int64) (*ledger.TxReceipt, error)
	ApproveLoanFn      func(ctx context.Context, loanID int64, rateBps int) (*ledger.TxReceipt, error)

	provideCalls int
	approveCalls int
}

func (s *ledgerClientStub) ProvideLiquidity(ctx context.Context, engine string, amount int64) (*ledger.TxReceipt, error) {
	s.provideCalls++
	if s.ProvideLiquidityFn != nil {
		return s.ProvideLiquidityFn(ctx, engine, amount)
	}
	return &ledger.TxReceipt{Hash: "0xliquidity", BlockNumber: 10}, nil
}

func (s *ledgerClientStub) ApproveLoan(ctx context.Context, loanID int64, rateBps int) (*ledger.TxReceipt, error) {
	s.approveCalls++
	if s.ApproveLoanFn != nil {
		return s.ApproveLoanFn(ctx, loanID, rateBps)
	}
	return &ledger.TxReceipt{Hash: "0xapprove", BlockNumber: 11}, nil
}

func (s *ledgerClientStub) GetLoan(ctx context.Context, loanID int64) (*ledger.LoanState, error) {
	return &ledger.LoanState{ID: loanID}, nil
}

func (s *ledgerClientStub) IsAuthorizedEngine(ctx context.Context, address string) (bool, error) {
	return address == testEngineAddress, nil
}

func (s *ledgerClientStub) TotalLiquidity(ctx context.Context) (int64, error) {
	return 0, nil
}

type orchestratorEnv struct {
	users        *test.UserRepositoryStub
	loans        *test.LoanRepositoryStub
	events       *test.EventRepositoryStub
	client       *ledgerClientStub
	orchestrator *Orchestrator
}

func newOrchestratorEnv(t *testing.T) *orchestratorEnv {
	t.Helper()
	users := test.NewUserRepositoryStub()
	loans := test.NewLoanRepositoryStub()
	treasury := &test.TreasuryRepositoryStub{}
	events := &test.EventRepositoryStub{}
	client := &ledgerClientStub{}

	lifecycle := usecase.NewLoanUseCase(loans, users, treasury, events)
	underwriting := usecase.NewUnderwritingEngine(usecase.DefaultTierConfig(testMaxLoan), users, loans)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &orchestratorEnv{
		users:        users,
		loans:        loans,
		events:       events,
		client:       client,
		orchestrator: NewOrchestrator(loans, users, events, lifecycle, underwriting, client, testEngineAddress, logger),
	}
}

func (e *orchestratorEnv) seedLoan(t *testing.T, score int, amount int64) *model.Loan {
	t.Helper()
	address := "0xb0rr0wer"
	if err := e.users.Save(context.Background(), &model.User{Address: address, CreditScore: score}); err != nil {
		t.Fatalf("seed borrower: %v", err)
	}
	loan := &model.Loan{ID: 1, Borrower: address, Amount: amount, Status: model.LoanStatusRequested, DurationDays: 7}
	if err := e.loans.Create(context.Background(), loan); err != nil {
		t.Fatalf("seed loan: %v", err)
	}
	return loan
}

func TestSettleDisbursesEligibleLoan(t *testing.T) {
	env := newOrchestratorEnv(t)
	env.seedLoan(t, 720, 10_000_000)

	if err := env.orchestrator.Settle(context.Background(), 1); err != nil {
		t.Fatalf("settle: %v", err)
	}

	loan, err := env.loans.GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("reload loan: %v", err)
	}
	if loan.Status != model.LoanStatusDisbursed {
		t.Fatalf("status = %s, want DISBURSED", loan.Status)
	}
	if loan.InterestRateBps != 500 {
		t.Fatalf("rate = %d, want 500", loan.InterestRateBps)
	}
	if loan.SettlementTxHash == nil || *loan.SettlementTxHash != "0xapprove" {
		t.Fatalf("settlement tx = %v, want 0xapprove", loan.SettlementTxHash)
	}
	if env.client.provideCalls != 1 || env.client.approveCalls != 1 {
		t.Fatalf("ledger calls = %d/%d, want 1/1", env.client.provideCalls, env.client.approveCalls)
	}
}

func TestSettleAppliesBorrowerDiscounts(t *testing.T) {
	env := newOrchestratorEnv(t)
	loan := env.seedLoan(t, 550, 10_000_000)
	user, _ := env.users.GetByAddress(context.Background(), loan.Borrower)
	user.ReferralCount = 25
	user.XP = 200
	if err := env.users.Save(context.Background(), user); err != nil {
		t.Fatalf("save borrower: %v", err)
	}

	if err := env.orchestrator.Settle(context.Background(), 1); err != nil {
		t.Fatalf("settle: %v", err)
	}

	got, _ := env.loans.GetByID(context.Background(), 1)
	// Fair tier base 1000, minus 200 referral and 20 experience discount.
	if got.InterestRateBps != 780 {
		t.Fatalf("rate = %d, want 780", got.InterestRateBps)
	}
}

func TestSettleSkipsNonRequestedLoan(t *testing.T) {
	env := newOrchestratorEnv(t)
	loan := env.seedLoan(t, 720, 10_000_000)
	loan.Status = model.LoanStatusCancelled
	if err := env.loans.Save(context.Background(), loan); err != nil {
		t.Fatalf("save loan: %v", err)
	}

	if err := env.orchestrator.Settle(context.Background(), 1); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if env.client.provideCalls != 0 || env.client.approveCalls != 0 {
		t.Fatalf("ledger touched for non-requested loan: %d/%d calls", env.client.provideCalls, env.client.approveCalls)
	}
}

func TestSettleDeclinesBelowScoreFloor(t *testing.T) {
	env := newOrchestratorEnv(t)
	env.seedLoan(t, 450, 1_000_000)

	if err := env.orchestrator.Settle(context.Background(), 1); err != nil {
		t.Fatalf("settle: %v", err)
	}

	loan, _ := env.loans.GetByID(context.Background(), 1)
	if loan.Status != model.LoanStatusRequested {
		t.Fatalf("status = %s, want REQUESTED", loan.Status)
	}
	if env.client.provideCalls != 0 {
		t.Fatal("liquidity moved for ineligible borrower")
	}
}

func TestSettleDeclinesAboveCeiling(t *testing.T) {
	env := newOrchestratorEnv(t)
	// Fair tier ceiling is 30% of the maximum loan.
	env.seedLoan(t, 550, testMaxLoan/2)

	if err := env.orchestrator.Settle(context.Background(), 1); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if env.client.provideCalls != 0 {
		t.Fatal("liquidity moved above tier ceiling")
	}
}

func TestSettleLiquidityFailureLeavesStateUntouched(t *testing.T) {
	env := newOrchestratorEnv(t)
	env.seedLoan(t, 720, 10_000_000)
	env.client.ProvideLiquidityFn = func(context.Context, string, int64) (*ledger.TxReceipt, error) {
		return nil, errors.New("rpc unreachable")
	}

	err := env.orchestrator.Settle(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error")
	}
	var partial PartialSettlementError
	if errors.As(err, &partial) {
		t.Fatal("liquidity failure must not be reported as partial settlement")
	}

	loan, _ := env.loans.GetByID(context.Background(), 1)
	if loan.Status != model.LoanStatusRequested || loan.SettlementTxHash != nil {
		t.Fatalf("loan mutated on liquidity failure: %+v", loan)
	}
}

func TestSettleApprovalFailureRecordsPartialSettlement(t *testing.T) {
	env := newOrchestratorEnv(t)
	env.seedLoan(t, 720, 10_000_000)
	env.client.ApproveLoanFn = func(context.Context, int64, int) (*ledger.TxReceipt, error) {
		return nil, errors.New("approval reverted")
	}

	err := env.orchestrator.Settle(context.Background(), 1)
	var partial PartialSettlementError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialSettlementError, got %v", err)
	}
	if partial.LoanID != 1 || partial.LiquidityTx != "0xliquidity" {
		t.Fatalf("unexpected partial details: %+v", partial)
	}

	loan, _ := env.loans.GetByID(context.Background(), 1)
	if loan.Status != model.LoanStatusRequested {
		t.Fatalf("status = %s, want REQUESTED", loan.Status)
	}
	if loan.SettlementTxHash == nil || *loan.SettlementTxHash != "0xliquidity" {
		t.Fatalf("liquidity tx not pinned: %v", loan.SettlementTxHash)
	}

	kinds := env.events.Kinds()
	found := false
	for _, k := range kinds {
		if k == model.EventSettlementPartial {
			found = true
		}
	}
	if !found {
		t.Fatalf("no partial settlement event, kinds = %v", kinds)
	}

	partials, err := env.orchestrator.PartialSettlements(context.Background(), 10)
	if err != nil {
		t.Fatalf("list partials: %v", err)
	}
	if len(partials) != 1 || partials[0].ID != 1 {
		t.Fatalf("partials = %+v, want loan 1", partials)
	}
}

func TestSettleResumeSkipsLiquidityStep(t *testing.T) {
	env := newOrchestratorEnv(t)
	loan := env.seedLoan(t, 720, 10_000_000)
	tx := "0xliquidity"
	loan.SettlementTxHash = &tx
	if err := env.loans.Save(context.Background(), loan); err != nil {
		t.Fatalf("save loan: %v", err)
	}

	if err := env.orchestrator.Settle(context.Background(), 1); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if env.client.provideCalls != 0 {
		t.Fatal("liquidity provisioned twice")
	}
	if env.client.approveCalls != 1 {
		t.Fatalf("approve calls = %d, want 1", env.client.approveCalls)
	}

	got, _ := env.loans.GetByID(context.Background(), 1)
	if got.Status != model.LoanStatusDisbursed {
		t.Fatalf("status = %s, want DISBURSED", got.Status)
	}
}

func TestSettleDoubleTriggerIsIdempotent(t *testing.T) {
	env := newOrchestratorEnv(t)
	env.seedLoan(t, 720, 10_000_000)

	if err := env.orchestrator.Settle(context.Background(), 1); err != nil {
		t.Fatalf("first settle: %v", err)
	}
	if err := env.orchestrator.Settle(context.Background(), 1); err != nil {
		t.Fatalf("second settle: %v", err)
	}
	if env.client.provideCalls != 1 || env.client.approveCalls != 1 {
		t.Fatalf("ledger calls = %d/%d, want 1/1", env.client.provideCalls, env.client.approveCalls)
	}
}
