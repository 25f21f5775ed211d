package conversation

import (
	"context"
	"time"

	"github.com/MrJamesThe3rd/billbot/internal/billing"
)

//go:generate mockgen -source=repository.go -destination=repository_mock.go -package=conversation
type Repository interface {
	// BeginTurn opens a unit of work holding the identity's lock until
	// Commit or Rollback. Turns for the same identity never overlap.
	BeginTurn(ctx context.Context, identity string) (TurnTx, error)

	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type TurnTx interface {
	Get(ctx context.Context) (Conversation, error)
	Save(ctx context.Context, c Conversation) error

	// CreateRecords writes billing records inside the turn, filling in ID
	// and CreatedAt. They become visible only on Commit. A failed write
	// leaves the turn usable.
	CreateRecords(ctx context.Context, records []billing.Record) error

	Commit() error
	Rollback() error
}
