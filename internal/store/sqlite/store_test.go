package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/ordering"
)

const owner = "user-1"

var created = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "tally.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testAccount(id string) model.Account {
	return model.Account{
		ID:           id,
		OwnerID:      owner,
		Name:         "acct " + id,
		Type:         model.AccountTypePayment,
		CurrencyCode: "USD",
		CreatedAt:    created,
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tally.db")

	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, s.CreateAccount(context.Background(), testAccount("a")))
	require.NoError(t, s.Close())

	s, err = Open(context.Background(), path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.LoadAccount(context.Background(), "a", owner)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestAccountRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	amount := int64(250_000)
	due := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	owed := true
	debt := model.Account{
		ID:                "d",
		OwnerID:           owner,
		Name:              "Loan to Sam",
		Type:              model.AccountTypeDebt,
		CurrencyCode:      "EUR",
		DebtInitialAmount: &amount,
		DebtDueDate:       &due,
		DebtIsOwedToMe:    &owed,
		CreatedAt:         created,
	}
	require.NoError(t, s.CreateAccount(ctx, debt))

	got, err := s.LoadAccount(ctx, "d", owner)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, debt, *got)
	assert.Nil(t, got.SavingsTargetAmount)
}

func TestLoadHidesForeignRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateAccount(ctx, testAccount("a")))
	require.NoError(t, s.CreateCategory(ctx, model.Category{ID: "c", OwnerID: owner, Name: "Food", Type: model.CategoryTypeExpense, SortOrder: 1000}, nil))

	acct, err := s.LoadAccount(ctx, "a", "intruder")
	require.NoError(t, err)
	assert.Nil(t, acct)

	cat, err := s.LoadCategory(ctx, "c", "intruder")
	require.NoError(t, err)
	assert.Nil(t, cat)

	missing, err := s.LoadAccount(ctx, "nope", owner)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpdateAccountKeepsBalance(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := testAccount("a")
	a.Balance = 500
	require.NoError(t, s.CreateAccount(ctx, a))

	archivedAt := created.Add(time.Hour)
	a.Name = "Renamed"
	a.Balance = 0
	a.IsArchived = true
	a.ArchivedAt = &archivedAt
	require.NoError(t, s.UpdateAccount(ctx, a))

	got, err := s.LoadAccount(ctx, "a", owner)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, int64(500), got.Balance)
	assert.True(t, got.IsArchived)
	require.NotNil(t, got.ArchivedAt)
	assert.True(t, archivedAt.Equal(*got.ArchivedAt))

	assert.Error(t, s.UpdateAccount(ctx, testAccount("missing")))
}

func TestScopeOrderables(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	cats := []model.Category{
		{ID: "b", OwnerID: owner, Name: "B", Type: model.CategoryTypeExpense, SortOrder: 2000},
		{ID: "a", OwnerID: owner, Name: "A", Type: model.CategoryTypeExpense, SortOrder: 1000},
		{ID: "child", OwnerID: owner, Name: "Child", Type: model.CategoryTypeExpense, ParentID: "a", SortOrder: 1000},
		{ID: "old", OwnerID: owner, Name: "Old", Type: model.CategoryTypeExpense, SortOrder: 500, IsArchived: true},
		{ID: "other", OwnerID: "user-2", Name: "Other", Type: model.CategoryTypeExpense, SortOrder: 1500},
	}
	for _, c := range cats {
		require.NoError(t, s.CreateCategory(ctx, c, nil))
	}

	top, err := s.LoadScopeOrderables(ctx, model.Scope{OwnerID: owner})
	require.NoError(t, err)
	assert.Equal(t, []model.Orderable{{ID: "a", SortOrder: 1000}, {ID: "b", SortOrder: 2000}}, top)

	children, err := s.LoadScopeOrderables(ctx, model.Scope{OwnerID: owner, ParentID: "a"})
	require.NoError(t, err)
	assert.Equal(t, []model.Orderable{{ID: "child", SortOrder: 1000}}, children)

	archived, err := s.LoadScopeOrderables(ctx, model.Scope{OwnerID: owner, Archived: true})
	require.NoError(t, err)
	assert.Equal(t, []model.Orderable{{ID: "old", SortOrder: 500}}, archived)
}

func TestApplyOrderIsAtomic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateCategory(ctx, model.Category{ID: "a", OwnerID: owner, Name: "A", Type: model.CategoryTypeExpense, SortOrder: 1000}, nil))

	err := s.ApplyOrder(ctx, []ordering.Write{
		{ID: "a", SortOrder: 3000},
		{ID: "ghost", SortOrder: 4000},
	})
	require.Error(t, err)

	got, err := s.LoadCategory(ctx, "a", owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got.SortOrder, "failed batch must roll back")

	require.NoError(t, s.ApplyOrder(ctx, []ordering.Write{{ID: "a", SortOrder: 3000}}))
	got, err = s.LoadCategory(ctx, "a", owner)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), got.SortOrder)
}

func TestCreateCategoryWithRebalance(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateCategory(ctx, model.Category{ID: "a", OwnerID: owner, Name: "A", Type: model.CategoryTypeExpense, SortOrder: 10}, nil))
	require.NoError(t, s.CreateCategory(ctx, model.Category{ID: "b", OwnerID: owner, Name: "B", Type: model.CategoryTypeExpense, SortOrder: 11}, nil))

	// A duplicate id fails the insert after the rebalance writes ran.
	err := s.CreateCategory(ctx,
		model.Category{ID: "a", OwnerID: owner, Name: "Dup", Type: model.CategoryTypeExpense, SortOrder: 3000},
		[]ordering.Write{{ID: "a", SortOrder: 1000}, {ID: "b", SortOrder: 2000}})
	require.Error(t, err)

	items, err := s.LoadScopeOrderables(ctx, model.Scope{OwnerID: owner})
	require.NoError(t, err)
	assert.Equal(t, []model.Orderable{{ID: "a", SortOrder: 10}, {ID: "b", SortOrder: 11}}, items)

	require.NoError(t, s.CreateCategory(ctx,
		model.Category{ID: "c", OwnerID: owner, Name: "C", Type: model.CategoryTypeExpense, SortOrder: 3000},
		[]ordering.Write{{ID: "a", SortOrder: 1000}, {ID: "b", SortOrder: 2000}}))

	items, err = s.LoadScopeOrderables(ctx, model.Scope{OwnerID: owner})
	require.NoError(t, err)
	assert.Equal(t, []model.Orderable{
		{ID: "a", SortOrder: 1000},
		{ID: "b", SortOrder: 2000},
		{ID: "c", SortOrder: 3000},
	}, items)
}

func TestCommitLedger(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateAccount(ctx, testAccount("a")))
	require.NoError(t, s.CreateAccount(ctx, testAccount("b")))

	has, err := s.HasTransactionsForAccount(ctx, "b")
	require.NoError(t, err)
	assert.False(t, has)

	ws := ledger.WriteSet{
		Transaction: model.Transaction{
			ID:               "tx-1",
			OwnerID:          owner,
			Type:             model.TransactionTypeTransfer,
			Amount:           300,
			CurrencyCode:     "USD",
			AccountID:        "a",
			CounterAccountID: "b",
			TxDate:           time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
			Note:             "rent share",
			CreatedAt:        created,
		},
		AccountUpdates: []ledger.AccountUpdate{
			{ID: "a", Balance: -300},
			{ID: "b", Balance: 300},
		},
	}
	require.NoError(t, s.CommitLedger(ctx, ws))

	has, err = s.HasTransactionsForAccount(ctx, "b")
	require.NoError(t, err)
	assert.True(t, has, "counter account counts")

	txs, err := s.ListTransactions(ctx, owner)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, ws.Transaction, txs[0])

	b, err := s.LoadAccount(ctx, "b", owner)
	require.NoError(t, err)
	assert.Equal(t, int64(300), b.Balance)
}

func TestCommitLedgerRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateAccount(ctx, testAccount("a")))

	ws := ledger.WriteSet{
		Transaction: model.Transaction{
			ID: "tx-1", OwnerID: owner, Type: model.TransactionTypeIncome, Amount: 100,
			CurrencyCode: "USD", AccountID: "a", TxDate: created, CreatedAt: created,
		},
		AccountUpdates: []ledger.AccountUpdate{
			{ID: "a", Balance: 100},
			{ID: "ghost", Balance: 1},
		},
	}
	require.Error(t, s.CommitLedger(ctx, ws))

	txs, err := s.ListTransactions(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, txs)

	a, err := s.LoadAccount(ctx, "a", owner)
	require.NoError(t, err)
	assert.Equal(t, int64(0), a.Balance)
}

func TestListCategoriesOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, c := range []model.Category{
		{ID: "2", OwnerID: owner, Name: "Second", Type: model.CategoryTypeExpense, SortOrder: 2000},
		{ID: "1", OwnerID: owner, Name: "First", Type: model.CategoryTypeExpense, SortOrder: 1000},
	} {
		require.NoError(t, s.CreateCategory(ctx, c, nil))
	}

	cats, err := s.ListCategories(ctx, owner)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "First", cats[0].Name)
	assert.Equal(t, "Second", cats[1].Name)
}
