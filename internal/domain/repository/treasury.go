package repository

import (
	"context"

	"github.com/finovel/loanledger/internal/domain/model"
)

// TreasuryRepository manages the singleton liquidity aggregate.
type TreasuryRepository interface {
	Get(ctx context.Context) (*model.Treasury, error)
	Save(ctx context.Context, treasury *model.Treasury) error
}
