package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/finovel/loanledger/internal/domain/errors"
	"github.com/finovel/loanledger/internal/domain/model"
	"github.com/finovel/loanledger/internal/domain/repository"
)

const (
	scoreRewardOnTime  = 20
	scoreRewardLate    = 5
	scorePenaltyOnDraw = 50
)

// LoanUseCase drives the loan lifecycle against the off-chain store.
type LoanUseCase struct {
	loans           repository.LoanRepository
	users           repository.UserRepository
	treasury        repository.TreasuryRepository
	events          repository.EventRepository
	defaultDuration int
}

// NewLoanUseCase constructs LoanUseCase.
func NewLoanUseCase(loans repository.LoanRepository, users repository.UserRepository, treasury repository.TreasuryRepository, events repository.EventRepository) *LoanUseCase {
	return &LoanUseCase{
		loans:           loans,
		users:           users,
		treasury:        treasury,
		events:          events,
		defaultDuration: model.DefaultLoanDurationDays,
	}
}

// Request creates a REQUESTED loan record. The request itself always succeeds
// once validated; whether it becomes disbursed is decided asynchronously.
func (u *LoanUseCase) Request(ctx context.Context, borrower string, amount int64, durationDays int) (*model.Loan, error) {
	borrower = model.NormalizeAddress(borrower)
	if borrower == "" {
		return nil, domainErrors.ErrInvalidAddress
	}
	if amount <= 0 {
		return nil, domainErrors.ErrInvalidAmount
	}
	if durationDays <= 0 {
		durationDays = u.defaultDuration
	}

	if _, err := u.users.GetByAddress(ctx, borrower); err != nil {
		if !errors.Is(err, domainErrors.ErrNotFound) {
			return nil, err
		}
		if _, err := u.users.Create(ctx, borrower); err != nil && !errors.Is(err, domainErrors.ErrAlreadyExists) {
			return nil, err
		}
	}

	id, err := u.loans.NextID(ctx)
	if err != nil {
		return nil, err
	}

	loan := &model.Loan{
		ID:           id,
		Borrower:     borrower,
		Amount:       amount,
		Status:       model.LoanStatusRequested,
		DurationDays: durationDays,
	}
	if err := u.loans.Create(ctx, loan); err != nil {
		return nil, err
	}

	u.appendEvent(ctx, model.EventLoanRequested, borrower, "", map[string]any{
		"loanId": id,
		"amount": amount,
	})
	return loan, nil
}

// Get loads a loan by id.
func (u *LoanUseCase) Get(ctx context.Context, loanID int64) (*model.Loan, error) {
	return u.loans.GetByID(ctx, loanID)
}

// ListByBorrower returns a borrower's loans, newest first.
func (u *LoanUseCase) ListByBorrower(ctx context.Context, address string) ([]model.Loan, error) {
	return u.loans.ListByBorrower(ctx, model.NormalizeAddress(address))
}

// Disburse records the settled on-ledger state: rate, term stamps, and the
// disbursement transaction hash. Only a REQUESTED loan can be disbursed.
func (u *LoanUseCase) Disburse(ctx context.Context, loanID int64, interestRateBps int, txHash string) (*model.Loan, error) {
	loan, err := u.loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !loan.CanTransition(model.LoanStatusDisbursed) {
		return nil, domainErrors.ErrInvalidTransition
	}

	now := time.Now().UTC()
	due := now.Add(time.Duration(loan.DurationDays) * 24 * time.Hour)
	loan.Status = model.LoanStatusDisbursed
	loan.InterestRateBps = interestRateBps
	loan.IssuedAt = &now
	loan.DueAt = &due
	loan.SettlementTxHash = &txHash
	if err := u.loans.Save(ctx, loan); err != nil {
		return nil, err
	}

	u.appendEvent(ctx, model.EventLoanDisbursed, loan.Borrower, txHash, map[string]any{
		"loanId":          loan.ID,
		"amount":          loan.Amount,
		"interestRateBps": interestRateBps,
	})
	return loan, nil
}

// RecordRepayment accumulates a repayment and flips the loan to REPAID at the
// payment that crosses principal plus interest, never before. Duplicate
// postings are not deduplicated here; callers own that.
func (u *LoanUseCase) RecordRepayment(ctx context.Context, loanID int64, amount int64) (*model.Loan, error) {
	if amount <= 0 {
		return nil, domainErrors.ErrInvalidAmount
	}

	loan, err := u.loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != model.LoanStatusDisbursed {
		return nil, domainErrors.ErrLoanNotActive
	}

	loan.RepaidAmount += amount
	repaid := loan.RepaidAmount >= loan.TotalOwed()
	if repaid {
		now := time.Now().UTC()
		loan.Status = model.LoanStatusRepaid
		loan.RepaidAt = &now
	}
	if err := u.loans.Save(ctx, loan); err != nil {
		return nil, err
	}

	if err := u.creditTreasuryRepayment(ctx, amount); err != nil {
		return nil, err
	}

	if repaid {
		u.rewardBorrower(ctx, loan)
		u.appendEvent(ctx, model.EventLoanRepaid, loan.Borrower, "", map[string]any{
			"loanId":       loan.ID,
			"repaidAmount": loan.RepaidAmount,
		})
	}
	return loan, nil
}

// Cancel retires a loan that never reached settlement. Explicit only.
func (u *LoanUseCase) Cancel(ctx context.Context, loanID int64) (*model.Loan, error) {
	loan, err := u.loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !loan.CanTransition(model.LoanStatusCancelled) {
		return nil, domainErrors.ErrInvalidTransition
	}

	loan.Status = model.LoanStatusCancelled
	if err := u.loans.Save(ctx, loan); err != nil {
		return nil, err
	}

	u.appendEvent(ctx, model.EventLoanCancelled, loan.Borrower, "", map[string]any{"loanId": loan.ID})
	return loan, nil
}

// MarkDefaulted is the irreversible administrative transition; it penalizes
// the borrower's credit score.
func (u *LoanUseCase) MarkDefaulted(ctx context.Context, loanID int64) (*model.Loan, error) {
	loan, err := u.loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !loan.CanTransition(model.LoanStatusDefaulted) {
		return nil, domainErrors.ErrInvalidTransition
	}

	loan.Status = model.LoanStatusDefaulted
	if err := u.loans.Save(ctx, loan); err != nil {
		return nil, err
	}

	if user, err := u.users.GetByAddress(ctx, loan.Borrower); err == nil {
		user.AdjustScore(-scorePenaltyOnDraw)
		if err := u.users.Save(ctx, user); err != nil {
			return nil, err
		}
	}

	u.appendEvent(ctx, model.EventLoanDefaulted, loan.Borrower, "", map[string]any{"loanId": loan.ID})
	return loan, nil
}

func (u *LoanUseCase) creditTreasuryRepayment(ctx context.Context, amount int64) error {
	treasury, err := u.treasury.Get(ctx)
	if err != nil {
		return err
	}
	treasury.TotalRepayments += amount
	treasury.TotalLiquidity += amount
	return u.treasury.Save(ctx, treasury)
}

func (u *LoanUseCase) rewardBorrower(ctx context.Context, loan *model.Loan) {
	user, err := u.users.GetByAddress(ctx, loan.Borrower)
	if err != nil {
		return
	}
	reward := scoreRewardLate
	if loan.DueAt != nil && loan.RepaidAt != nil && !loan.RepaidAt.After(*loan.DueAt) {
		reward = scoreRewardOnTime
	}
	user.AdjustScore(reward)
	_ = u.users.Save(ctx, user)
}

// Events are best-effort audit records; their failure never fails the
// operation that produced them.
func (u *LoanUseCase) appendEvent(ctx context.Context, kind model.EventKind, subject, txHash string, payload map[string]any) {
	_ = u.events.Append(ctx, &model.Event{
		ID:      uuid.NewString(),
		Kind:    kind,
		Subject: subject,
		TxHash:  txHash,
		Payload: payload,
	})
}
