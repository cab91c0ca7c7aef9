package repository

import (
	"context"

	"github.com/finovel/loanledger/internal/domain/model"
)

// UserRepository describes persistence operations with borrowers.
// All lookups are keyed by lower-cased ledger address.
type UserRepository interface {
	Create(ctx context.Context, address string) (*model.User, error)
	GetByAddress(ctx context.Context, address string) (*model.User, error)
	Save(ctx context.Context, user *model.User) error
}
