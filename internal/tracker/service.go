// Package tracker runs the ordering and ledger cores against a Store.
//
// Each mutation loads a consistent snapshot, computes a write-set with the
// pure core, and commits it in one storage transaction. Mutations on the same
// scope (an ordering scope or an account) are serialized; different scopes
// run concurrently.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cleared-dev/tally/internal/currency"
	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/ordering"
)

// Options configures a Service. Zero values select defaults.
type Options struct {
	Currencies ledger.CurrencyChecker
	Increment  int64
	MaxAmount  int64
	Logger     *zap.Logger
	Now        func() time.Time
	NewID      func() string
}

// Service provides the tracker's mutations and queries.
type Service struct {
	store      Store
	currencies ledger.CurrencyChecker
	seq        *ordering.Sequencer
	validator  *ledger.Validator
	applier    *ledger.Applier
	log        *zap.Logger
	now        func() time.Time
	newID      func() string
	locks      *keyedMutex
}

// NewService creates a Service over store.
func NewService(store Store, opts Options) *Service {
	if opts.Currencies == nil {
		opts.Currencies = currency.Registry{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = id.New
	}
	return &Service{
		store:      store,
		currencies: opts.Currencies,
		seq:        ordering.NewSequencer(opts.Increment),
		validator:  ledger.NewValidator(opts.MaxAmount, opts.Now),
		applier:    ledger.NewApplier(),
		log:        opts.Logger,
		now:        opts.Now,
		newID:      opts.NewID,
		locks:      newKeyedMutex(),
	}
}

func accountKey(id string) string {
	if id == "" {
		return ""
	}
	return "account:" + id
}

func scopeKey(s model.Scope) string {
	return "scope:" + s.Key()
}

// NewAccountParams holds parameters for creating an account.
type NewAccountParams struct {
	Name         string
	Type         model.AccountType
	CurrencyCode string

	SavingsTargetAmount *int64
	SavingsTargetDate   *time.Time
	DebtInitialAmount   *int64
	DebtDueDate         *time.Time
	DebtIsOwedToMe      *bool
}

// CreateAccount creates an empty account.
func (s *Service) CreateAccount(ctx context.Context, ownerID string, p NewAccountParams) (model.Account, error) {
	acct := model.Account{
		ID:                  s.newID(),
		OwnerID:             ownerID,
		Name:                p.Name,
		Type:                p.Type,
		CurrencyCode:        p.CurrencyCode,
		SavingsTargetAmount: p.SavingsTargetAmount,
		SavingsTargetDate:   p.SavingsTargetDate,
		DebtInitialAmount:   p.DebtInitialAmount,
		DebtDueDate:         p.DebtDueDate,
		DebtIsOwedToMe:      p.DebtIsOwedToMe,
		CreatedAt:           s.now().UTC(),
	}
	if !s.currencies.Exists(acct.CurrencyCode) {
		return model.Account{}, fmt.Errorf("%w: %q", ledger.ErrUnknownCurrency, acct.CurrencyCode)
	}
	if err := ledger.GuardCreate(acct); err != nil {
		return model.Account{}, err
	}
	if err := s.store.CreateAccount(ctx, acct); err != nil {
		return model.Account{}, fmt.Errorf("creating account: %w", err)
	}

	s.log.Info("account created",
		zap.String("owner", ownerID),
		zap.String("account_id", acct.ID),
		zap.String("type", string(acct.Type)),
		zap.String("currency", acct.CurrencyCode))
	return acct, nil
}

// UpdateAccount applies a guarded patch to an account.
func (s *Service) UpdateAccount(ctx context.Context, ownerID, accountID string, patch ledger.AccountPatch) (model.Account, error) {
	unlock := s.locks.Lock(accountKey(accountID))
	defer unlock()

	existing, err := s.store.LoadAccount(ctx, accountID, ownerID)
	if err != nil {
		return model.Account{}, fmt.Errorf("loading account %s: %w", accountID, err)
	}
	if existing == nil {
		return model.Account{}, fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, accountID)
	}
	if patch.CurrencyCode != nil && !s.currencies.Exists(*patch.CurrencyCode) {
		return model.Account{}, fmt.Errorf("%w: %q", ledger.ErrUnknownCurrency, *patch.CurrencyCode)
	}

	hasTx, err := s.store.HasTransactionsForAccount(ctx, accountID)
	if err != nil {
		return model.Account{}, fmt.Errorf("checking transactions for %s: %w", accountID, err)
	}

	decision, err := ledger.GuardUpdate(*existing, patch, hasTx)
	if err != nil {
		s.log.Debug("account update refused", zap.String("account_id", accountID), zap.Error(err))
		return model.Account{}, err
	}

	updated := ledger.MergeAccount(*existing, patch)
	switch {
	case decision.StampArchivedAt:
		now := s.now().UTC()
		updated.ArchivedAt = &now
	case decision.ClearArchivedAt:
		updated.ArchivedAt = nil
	}

	if err := s.store.UpdateAccount(ctx, updated); err != nil {
		return model.Account{}, fmt.Errorf("updating account %s: %w", accountID, err)
	}

	s.log.Info("account updated",
		zap.String("owner", ownerID),
		zap.String("account_id", accountID),
		zap.Bool("archived", updated.IsArchived))
	return updated, nil
}

// NewCategoryParams holds parameters for creating a category.
type NewCategoryParams struct {
	Name     string
	Type     model.CategoryType
	ParentID string
}

// CreateCategory creates a category at the end of its scope.
func (s *Service) CreateCategory(ctx context.Context, ownerID string, p NewCategoryParams) (model.Category, error) {
	cat := model.Category{
		ID:       s.newID(),
		OwnerID:  ownerID,
		Name:     p.Name,
		Type:     p.Type,
		ParentID: p.ParentID,
	}

	var parent *model.Category
	if cat.ParentID != "" {
		var err error
		parent, err = s.store.LoadCategory(ctx, cat.ParentID, ownerID)
		if err != nil {
			return model.Category{}, fmt.Errorf("loading parent category %s: %w", cat.ParentID, err)
		}
	}
	if err := ledger.GuardCategory(cat, parent); err != nil {
		return model.Category{}, err
	}

	scope := cat.Scope()
	unlock := s.locks.Lock(scopeKey(scope))
	defer unlock()

	items, err := s.store.LoadScopeOrderables(ctx, scope)
	if err != nil {
		return model.Category{}, fmt.Errorf("loading scope: %w", err)
	}

	var rebalance []ordering.Write
	key, err := s.seq.AppendOrder(items)
	if ordering.NeedsRebalancing(items) || errors.Is(err, ordering.ErrNeedsRebalancing) {
		rebalance = s.seq.Rebalance(items)
		key, err = int64(len(items)+1)*s.seq.Increment(), nil
	}
	if err != nil {
		return model.Category{}, err
	}
	cat.SortOrder = key

	if err := s.store.CreateCategory(ctx, cat, rebalance); err != nil {
		return model.Category{}, fmt.Errorf("creating category: %w", err)
	}

	s.log.Info("category created",
		zap.String("owner", ownerID),
		zap.String("category_id", cat.ID),
		zap.String("scope", scope.Key()),
		zap.Int64("sort_order", key),
		zap.Int("writes", len(rebalance)),
		zap.Bool("rebalanced", rebalance != nil))
	return cat, nil
}

// MoveCategory moves a category to targetIndex within its scope and persists
// the resulting writes.
func (s *Service) MoveCategory(ctx context.Context, ownerID, categoryID string, targetIndex int) (ordering.Plan, error) {
	cat, err := s.store.LoadCategory(ctx, categoryID, ownerID)
	if err != nil {
		return ordering.Plan{}, fmt.Errorf("loading category %s: %w", categoryID, err)
	}
	if cat == nil {
		return ordering.Plan{}, fmt.Errorf("%w: %s", ledger.ErrCategoryNotFound, categoryID)
	}

	scope := cat.Scope()
	unlock := s.locks.Lock(scopeKey(scope))
	defer unlock()

	items, err := s.store.LoadScopeOrderables(ctx, scope)
	if err != nil {
		return ordering.Plan{}, fmt.Errorf("loading scope: %w", err)
	}

	plan, err := s.seq.Plan(items, categoryID, targetIndex)
	if err != nil {
		return ordering.Plan{}, err
	}
	if plan.IsNoop() {
		return plan, nil
	}

	if err := s.store.ApplyOrder(ctx, plan.Writes); err != nil {
		return ordering.Plan{}, fmt.Errorf("applying order: %w", err)
	}

	s.log.Info("category moved",
		zap.String("owner", ownerID),
		zap.String("category_id", categoryID),
		zap.String("scope", scope.Key()),
		zap.Int("target_index", targetIndex),
		zap.Int("writes", len(plan.Writes)),
		zap.Bool("rebalanced", plan.Rebalanced))
	return plan, nil
}

// PostTransaction validates tx, applies it and commits the write-set. An empty
// tx.ID is assigned a fresh id.
func (s *Service) PostTransaction(ctx context.Context, tx ledger.ProposedTransaction) (ledger.WriteSet, error) {
	if tx.ID == "" {
		tx.ID = s.newID()
	}

	unlock := s.locks.Lock(accountKey(tx.AccountID), accountKey(tx.CounterAccountID))
	defer unlock()

	vc := ledger.ValidationContext{Currencies: s.currencies}
	var err error
	if tx.CategoryID != "" {
		if vc.Category, err = s.store.LoadCategory(ctx, tx.CategoryID, tx.OwnerID); err != nil {
			return ledger.WriteSet{}, fmt.Errorf("loading category %s: %w", tx.CategoryID, err)
		}
	}
	if tx.AccountID != "" {
		if vc.FromAccount, err = s.store.LoadAccount(ctx, tx.AccountID, tx.OwnerID); err != nil {
			return ledger.WriteSet{}, fmt.Errorf("loading account %s: %w", tx.AccountID, err)
		}
	}
	if tx.CounterAccountID != "" {
		if vc.ToAccount, err = s.store.LoadAccount(ctx, tx.CounterAccountID, tx.OwnerID); err != nil {
			return ledger.WriteSet{}, fmt.Errorf("loading account %s: %w", tx.CounterAccountID, err)
		}
	}

	if err := s.validator.Validate(tx, vc); err != nil {
		s.log.Debug("transaction refused",
			zap.String("owner", tx.OwnerID),
			zap.String("type", string(tx.Type)),
			zap.Int64("amount", tx.Amount),
			zap.Error(err))
		return ledger.WriteSet{}, err
	}

	ws := s.applier.Apply(tx, ledger.Accounts{From: vc.FromAccount, To: vc.ToAccount})
	ws.Transaction.CreatedAt = s.now().UTC()

	if err := s.store.CommitLedger(ctx, ws); err != nil {
		return ledger.WriteSet{}, fmt.Errorf("committing transaction %s: %w", tx.ID, err)
	}

	s.log.Info("transaction posted",
		zap.String("owner", tx.OwnerID),
		zap.String("tx_id", tx.ID),
		zap.String("type", string(tx.Type)),
		zap.Int64("amount", tx.Amount),
		zap.String("currency", tx.CurrencyCode),
		zap.Int("account_updates", len(ws.AccountUpdates)))
	return ws, nil
}

// Reconcile compares every account's stored balance with the balance replayed
// from its transactions.
func (s *Service) Reconcile(ctx context.Context, ownerID string) ([]ledger.Discrepancy, error) {
	accts, err := s.store.ListAccounts(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	txs, err := s.store.ListTransactions(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	out := ledger.Reconcile(accts, txs)
	for _, d := range out {
		s.log.Warn("balance drift",
			zap.String("account_id", d.AccountID),
			zap.Int64("stored", d.Stored),
			zap.Int64("derived", d.Derived))
	}
	return out, nil
}

// Accounts lists an owner's accounts.
func (s *Service) Accounts(ctx context.Context, ownerID string) ([]model.Account, error) {
	return s.store.ListAccounts(ctx, ownerID)
}

// Categories lists an owner's categories grouped by scope in display order.
func (s *Service) Categories(ctx context.Context, ownerID string) ([]model.Category, error) {
	return s.store.ListCategories(ctx, ownerID)
}

// Transactions lists an owner's transactions by date.
func (s *Service) Transactions(ctx context.Context, ownerID string) ([]model.Transaction, error) {
	return s.store.ListTransactions(ctx, ownerID)
}
