package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/finovel/loanledger/internal/adapter/ledger"
	"github.com/finovel/loanledger/internal/domain/model"
	"github.com/finovel/loanledger/internal/domain/repository"
	"github.com/finovel/loanledger/internal/usecase"
)

// PartialSettlementError marks the one partial-commit failure mode: liquidity
// moved on ledger but the approval transaction did not confirm. It is kept
// distinct from plain domain failures so operational tooling can detect and
// replay it.
type PartialSettlementError struct {
	LoanID      int64
	LiquidityTx string
	Err         error
}

func (e PartialSettlementError) Error() string {
	return fmt.Sprintf("loan %d: liquidity provisioned (tx %s) but approval failed: %v", e.LoanID, e.LiquidityTx, e.Err)
}

func (e PartialSettlementError) Unwrap() error { return e.Err }

// Orchestrator sequences one loan's settlement end to end: underwriting,
// on-ledger liquidity provisioning, on-ledger approval/disbursement, and the
// off-chain status write-back.
type Orchestrator struct {
	loans         repository.LoanRepository
	users         repository.UserRepository
	events        repository.EventRepository
	lifecycle     *usecase.LoanUseCase
	underwriting  *usecase.UnderwritingEngine
	ledger        ledger.Client
	engineAddress string
	logger        *slog.Logger
}

// NewOrchestrator constructs the orchestrator.
func NewOrchestrator(
	loans repository.LoanRepository,
	users repository.UserRepository,
	events repository.EventRepository,
	lifecycle *usecase.LoanUseCase,
	underwriting *usecase.UnderwritingEngine,
	client ledger.Client,
	engineAddress string,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		loans:         loans,
		users:         users,
		events:        events,
		lifecycle:     lifecycle,
		underwriting:  underwriting,
		ledger:        client,
		engineAddress: engineAddress,
		logger:        logger,
	}
}

// Settle drives the auto-approval flow for one loan. A loan that is no
// longer REQUESTED is skipped without touching any state, which makes
// double-triggering harmless. Failure before the liquidity transfer leaves
// everything untouched; failure between the two ledger transactions is
// reported as PartialSettlementError and left for the reconcile sweep.
func (o *Orchestrator) Settle(ctx context.Context, loanID int64) error {
	loan, err := o.loans.GetByID(ctx, loanID)
	if err != nil {
		return fmt.Errorf("load loan %d: %w", loanID, err)
	}
	if loan.Status != model.LoanStatusRequested {
		o.logger.Debug("settlement skipped, loan not in requested status",
			slog.Int64("loan_id", loanID),
			slog.String("status", string(loan.Status)),
		)
		return nil
	}

	borrower, err := o.users.GetByAddress(ctx, loan.Borrower)
	if err != nil {
		return fmt.Errorf("load borrower %s: %w", loan.Borrower, err)
	}

	// Auto-approve variant: score-based eligibility and ceiling only. The
	// standalone check's credential and active-loan gates do not apply here.
	decision := o.underwriting.Evaluate(borrower.CreditScore, loan.Amount)
	if !decision.Eligible {
		o.logger.Info("auto-approval declined, borrower below score floor",
			slog.Int64("loan_id", loanID),
			slog.Int("credit_score", borrower.CreditScore),
		)
		return nil
	}
	if loan.Amount > decision.CeilingAmount {
		o.logger.Info("auto-approval declined, amount above tier ceiling",
			slog.Int64("loan_id", loanID),
			slog.Int64("amount", loan.Amount),
			slog.Int64("ceiling", decision.CeilingAmount),
		)
		return nil
	}

	rate := o.underwriting.FinalRateBps(decision.BaseRateBps, borrower.ReferralCount, borrower.XP)

	liquidityTx, err := o.provisionLiquidity(ctx, loan)
	if err != nil {
		return fmt.Errorf("provision liquidity for loan %d: %w", loanID, err)
	}

	approval, err := o.ledger.ApproveLoan(ctx, loan.ID, rate)
	if err != nil {
		o.recordPartialSettlement(ctx, loan, liquidityTx)
		return PartialSettlementError{LoanID: loan.ID, LiquidityTx: liquidityTx, Err: err}
	}

	if _, err := o.lifecycle.Disburse(ctx, loan.ID, rate, approval.Hash); err != nil {
		return fmt.Errorf("persist disbursement for loan %d: %w", loanID, err)
	}

	o.logger.Info("loan settled",
		slog.Int64("loan_id", loan.ID),
		slog.Int64("amount", loan.Amount),
		slog.Int("interest_rate_bps", rate),
		slog.String("tx", approval.Hash),
	)
	return nil
}

// provisionLiquidity issues the treasury-to-lending transfer, unless a prior
// partial settlement already moved the funds.
func (o *Orchestrator) provisionLiquidity(ctx context.Context, loan *model.Loan) (string, error) {
	if loan.SettlementTxHash != nil && *loan.SettlementTxHash != "" {
		o.logger.Info("liquidity already provisioned, resuming approval",
			slog.Int64("loan_id", loan.ID),
			slog.String("tx", *loan.SettlementTxHash),
		)
		return *loan.SettlementTxHash, nil
	}

	receipt, err := o.ledger.ProvideLiquidity(ctx, o.engineAddress, loan.Amount)
	if err != nil {
		return "", err
	}
	return receipt.Hash, nil
}

// recordPartialSettlement pins the liquidity transaction on the loan so the
// reconcile sweep can resume from the approval step, and appends a distinct
// audit event for operational tooling.
func (o *Orchestrator) recordPartialSettlement(ctx context.Context, loan *model.Loan, liquidityTx string) {
	loan.SettlementTxHash = &liquidityTx
	if err := o.loans.Save(ctx, loan); err != nil {
		o.logger.Error("failed to record partial settlement",
			slog.Int64("loan_id", loan.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	_ = o.events.Append(ctx, &model.Event{
		ID:      uuid.NewString(),
		Kind:    model.EventSettlementPartial,
		Subject: loan.Borrower,
		TxHash:  liquidityTx,
		Payload: map[string]any{"loanId": loan.ID, "amount": loan.Amount},
	})
}

// PartialSettlements lists loans stuck between the two ledger transactions.
func (o *Orchestrator) PartialSettlements(ctx context.Context, limit int) ([]model.Loan, error) {
	return o.loans.ListPartialSettlements(ctx, limit)
}
