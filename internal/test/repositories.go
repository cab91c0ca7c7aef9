package test

import (
	"context"
	"sort"

	domainErrors "github.com/finovel/loanledger/internal/domain/errors"
	"github.com/finovel/loanledger/internal/domain/model"
)

// UserRepositoryStub stores borrowers in-memory for tests.
type UserRepositoryStub struct {
	Users map[string]*model.User
	Err   error
}

// NewUserRepositoryStub constructs stub repository with initialized maps.
func NewUserRepositoryStub() *UserRepositoryStub {
	return &UserRepositoryStub{Users: make(map[string]*model.User)}
}

// Create registers a borrower with default standing unless already present
// or the stub carries an explicit error.
func (s *UserRepositoryStub) Create(ctx context.Context, address string) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Users == nil {
		s.Users = make(map[string]*model.User)
	}
	if _, exists := s.Users[address]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	user := &model.User{Address: address, CreditScore: model.DefaultCreditScore}
	s.Users[address] = user
	clone := *user
	return &clone, nil
}

// GetByAddress fetches a borrower or returns not found.
func (s *UserRepositoryStub) GetByAddress(ctx context.Context, address string) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.Users[address]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, domainErrors.ErrNotFound
}

// Save upserts a borrower.
func (s *UserRepositoryStub) Save(ctx context.Context, user *model.User) error {
	if s.Err != nil {
		return s.Err
	}
	if s.Users == nil {
		s.Users = make(map[string]*model.User)
	}
	clone := *user
	s.Users[user.Address] = &clone
	return nil
}

// LoanRepositoryStub stores loans in-memory for tests.
type LoanRepositoryStub struct {
	Loans   map[int64]*model.Loan
	NextSeq int64
	Err     error
}

// NewLoanRepositoryStub constructs stub repository with initialized maps.
func NewLoanRepositoryStub() *LoanRepositoryStub {
	return &LoanRepositoryStub{Loans: make(map[int64]*model.Loan), NextSeq: 1}
}

// NextID hands out sequential loan identifiers.
func (s *LoanRepositoryStub) NextID(ctx context.Context) (int64, error) {
	if s.Err != nil {
		return 0, s.Err
	}
	if s.NextSeq == 0 {
		s.NextSeq = 1
	}
	id := s.NextSeq
	s.NextSeq++
	return id, nil
}

// Create stores a new loan unless the id is already taken.
func (s *LoanRepositoryStub) Create(ctx context.Context, loan *model.Loan) error {
	if s.Err != nil {
		return s.Err
	}
	if s.Loans == nil {
		s.Loans = make(map[int64]*model.Loan)
	}
	if _, exists := s.Loans[loan.ID]; exists {
		return domainErrors.ErrAlreadyExists
	}
	clone := *loan
	s.Loans[loan.ID] = &clone
	return nil
}

// GetByID fetches a loan or returns not found.
func (s *LoanRepositoryStub) GetByID(ctx context.Context, id int64) (*model.Loan, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if loan, ok := s.Loans[id]; ok {
		clone := *loan
		return &clone, nil
	}
	return nil, domainErrors.ErrNotFound
}

// ListByBorrower returns the borrower's loans ordered by id.
func (s *LoanRepositoryStub) ListByBorrower(ctx context.Context, address string) ([]model.Loan, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	var out []model.Loan
	for _, loan := range s.Loans {
		if loan.Borrower == address {
			out = append(out, *loan)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CountActiveByBorrower counts loans that still hold principal.
func (s *LoanRepositoryStub) CountActiveByBorrower(ctx context.Context, address string) (int, error) {
	if s.Err != nil {
		return 0, s.Err
	}
	count := 0
	for _, loan := range s.Loans {
		if loan.Borrower == address && loan.IsActive() {
			count++
		}
	}
	return count, nil
}

// OutstandingPrincipal sums principal across disbursed loans.
func (s *LoanRepositoryStub) OutstandingPrincipal(ctx context.Context) (int64, error) {
	if s.Err != nil {
		return 0, s.Err
	}
	var total int64
	for _, loan := range s.Loans {
		if loan.Status == model.LoanStatusDisbursed {
			total += loan.Amount
		}
	}
	return total, nil
}

// ListPartialSettlements returns requested loans whose liquidity already moved.
func (s *LoanRepositoryStub) ListPartialSettlements(ctx context.Context, limit int) ([]model.Loan, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	var out []model.Loan
	for _, loan := range s.Loans {
		if loan.Status == model.LoanStatusRequested && loan.SettlementTxHash != nil {
			out = append(out, *loan)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Save upserts a loan.
func (s *LoanRepositoryStub) Save(ctx context.Context, loan *model.Loan) error {
	if s.Err != nil {
		return s.Err
	}
	if s.Loans == nil {
		s.Loans = make(map[int64]*model.Loan)
	}
	clone := *loan
	s.Loans[loan.ID] = &clone
	return nil
}

// TreasuryRepositoryStub keeps the single treasury row in-memory.
type TreasuryRepositoryStub struct {
	State model.Treasury
	Err   error
}

// Get returns the treasury snapshot.
func (s *TreasuryRepositoryStub) Get(ctx context.Context) (*model.Treasury, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	clone := s.State
	return &clone, nil
}

// Save replaces the treasury snapshot.
func (s *TreasuryRepositoryStub) Save(ctx context.Context, t *model.Treasury) error {
	if s.Err != nil {
		return s.Err
	}
	s.State = *t
	return nil
}

// EventRepositoryStub collects appended events in order.
type EventRepositoryStub struct {
	Events []model.Event
	Err    error
}

// Append records an event.
func (s *EventRepositoryStub) Append(ctx context.Context, event *model.Event) error {
	if s.Err != nil {
		return s.Err
	}
	s.Events = append(s.Events, *event)
	return nil
}

// ListBySubject returns events for one subject, newest first.
func (s *EventRepositoryStub) ListBySubject(ctx context.Context, subject string, limit int) ([]model.Event, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	var out []model.Event
	for i := len(s.Events) - 1; i >= 0; i-- {
		if s.Events[i].Subject == subject {
			out = append(out, s.Events[i])
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// Kinds lists the kinds of all appended events in order.
func (s *EventRepositoryStub) Kinds() []model.EventKind {
	kinds := make([]model.EventKind, 0, len(s.Events))
	for _, e := range s.Events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}
