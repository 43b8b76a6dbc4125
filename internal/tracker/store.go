package tracker

import (
	"context"

	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/ordering"
)

// Store is the persistence layer the tracker reads snapshots from and commits
// write-sets to. Single-row loads return nil, nil when the row does not exist
// or belongs to another owner. CreateCategory, ApplyOrder and CommitLedger
// must each commit atomically.
type Store interface {
	LoadScopeOrderables(ctx context.Context, scope model.Scope) ([]model.Orderable, error)
	LoadAccount(ctx context.Context, id, ownerID string) (*model.Account, error)
	LoadCategory(ctx context.Context, id, ownerID string) (*model.Category, error)
	HasTransactionsForAccount(ctx context.Context, accountID string) (bool, error)

	CreateAccount(ctx context.Context, acct model.Account) error
	UpdateAccount(ctx context.Context, acct model.Account) error
	CreateCategory(ctx context.Context, cat model.Category, rebalance []ordering.Write) error
	ApplyOrder(ctx context.Context, writes []ordering.Write) error
	CommitLedger(ctx context.Context, ws ledger.WriteSet) error

	ListAccounts(ctx context.Context, ownerID string) ([]model.Account, error)
	ListCategories(ctx context.Context, ownerID string) ([]model.Category, error)
	ListTransactions(ctx context.Context, ownerID string) ([]model.Transaction, error)

	Close() error
}
