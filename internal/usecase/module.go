package usecase

import (
	"go.uber.org/fx"

	"github.com/finovel/loanledger/internal/config"
	"github.com/finovel/loanledger/internal/domain/repository"
	"github.com/finovel/loanledger/internal/pkg/money"
)

// Module provides core business use cases to the fx container.
var Module = fx.Options(
	fx.Provide(
		func(cfg *config.Config) TierConfig {
			return DefaultTierConfig(money.UnitsToMicro(cfg.MaxLoanAmountUnits))
		},
		NewUnderwritingEngine,
		newLoanUseCase,
		NewTreasuryUseCase,
	),
)

type loanParams struct {
	fx.In

	Loans    repository.LoanRepository
	Users    repository.UserRepository
	Treasury repository.TreasuryRepository
	Events   repository.EventRepository
	Config   *config.Config
}

func newLoanUseCase(p loanParams) *LoanUseCase {
	u := NewLoanUseCase(p.Loans, p.Users, p.Treasury, p.Events)
	if p.Config.LoanDurationDays > 0 {
		u.defaultDuration = p.Config.LoanDurationDays
	}
	return u
}
