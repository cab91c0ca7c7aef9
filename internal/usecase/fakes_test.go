package usecase

import (
	"context"
	"sort"
	"time"

	domainErrors "github.com/finovel/loanledger/internal/domain/errors"
	"github.com/finovel/loanledger/internal/domain/model"
)

type memUsers struct {
	users map[string]*model.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]*model.User)}
}

func (s *memUsers) Create(_ context.Context, address string) (*model.User, error) {
	if _, ok := s.users[address]; ok {
		return nil, domainErrors.ErrAlreadyExists
	}
	user := &model.User{Address: address, CreditScore: model.DefaultCreditScore, CreatedAt: time.Now()}
	s.users[address] = user
	return user, nil
}

func (s *memUsers) GetByAddress(_ context.Context, address string) (*model.User, error) {
	user, ok := s.users[address]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *memUsers) Save(_ context.Context, user *model.User) error {
	copied := *user
	s.users[user.Address] = &copied
	return nil
}

type memLoans struct {
	loans  map[int64]*model.Loan
	nextID int64
}

func newMemLoans() *memLoans {
	return &memLoans{loans: make(map[int64]*model.Loan)}
}

func (s *memLoans) NextID(context.Context) (int64, error) {
	s.nextID++
	return s.nextID, nil
}

func (s *memLoans) Create(_ context.Context, loan *model.Loan) error {
	if _, ok := s.loans[loan.ID]; ok {
		return domainErrors.ErrAlreadyExists
	}
	copied := *loan
	s.loans[loan.ID] = &copied
	return nil
}

func (s *memLoans) GetByID(_ context.Context, loanID int64) (*model.Loan, error) {
	loan, ok := s.loans[loanID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	copied := *loan
	return &copied, nil
}

func (s *memLoans) ListByBorrower(_ context.Context, address string) ([]model.Loan, error) {
	var out []model.Loan
	for _, loan := range s.loans {
		if loan.Borrower == address {
			out = append(out, *loan)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *memLoans) CountActiveByBorrower(_ context.Context, address string) (int, error) {
	count := 0
	for _, loan := range s.loans {
		if loan.Borrower == address && loan.IsActive() {
			count++
		}
	}
	return count, nil
}

func (s *memLoans) OutstandingPrincipal(context.Context) (int64, error) {
	var total int64
	for _, loan := range s.loans {
		if loan.IsActive() {
			total += loan.Amount
		}
	}
	return total, nil
}

func (s *memLoans) ListPartialSettlements(_ context.Context, limit int) ([]model.Loan, error) {
	var out []model.Loan
	for _, loan := range s.loans {
		if loan.Status == model.LoanStatusRequested && loan.SettlementTxHash != nil {
			out = append(out, *loan)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *memLoans) Save(_ context.Context, loan *model.Loan) error {
	copied := *loan
	s.loans[loan.ID] = &copied
	return nil
}

type memTreasury struct {
	treasury model.Treasury
}

func (s *memTreasury) Get(context.Context) (*model.Treasury, error) {
	copied := s.treasury
	return &copied, nil
}

func (s *memTreasury) Save(_ context.Context, treasury *model.Treasury) error {
	s.treasury = *treasury
	return nil
}

type memEvents struct {
	events []model.Event
}

func (s *memEvents) Append(_ context.Context, event *model.Event) error {
	s.events = append(s.events, *event)
	return nil
}

func (s *memEvents) ListBySubject(_ context.Context, address string, limit int) ([]model.Event, error) {
	var out []model.Event
	for _, event := range s.events {
		if event.Subject == address {
			out = append(out, event)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func newLoanFixture() (*LoanUseCase, *memUsers, *memLoans, *memTreasury, *memEvents) {
	users := newMemUsers()
	loans := newMemLoans()
	treasury := &memTreasury{}
	events := &memEvents{}
	return NewLoanUseCase(loans, users, treasury, events), users, loans, treasury, events
}
