package repository

import (
	"context"

	"github.com/finovel/loanledger/internal/domain/model"
)

// EventRepository appends immutable audit records. Events are write-once.
type EventRepository interface {
	Append(ctx context.Context, event *model.Event) error
	ListBySubject(ctx context.Context, address string, limit int) ([]model.Event, error)
}
