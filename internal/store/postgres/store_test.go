package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/ordering"
)

// openTestStore connects to TALLY_TEST_POSTGRES_DSN. Every test uses a fresh
// owner id so runs never see each other's rows.
func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dsn := os.Getenv("TALLY_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TALLY_TEST_POSTGRES_DSN not set")
	}
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	s, err := Open(context.Background(), dsn)
	if err != nil {
		t.Skipf("skipping postgres integration test (database not available): %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, id.New()
}

func testAccount(owner string) model.Account {
	return model.Account{
		ID:           id.New(),
		OwnerID:      owner,
		Name:         "Checking",
		Type:         model.AccountTypePayment,
		CurrencyCode: "USD",
		CreatedAt:    time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestAccountRoundTrip(t *testing.T) {
	s, owner := openTestStore(t)
	ctx := context.Background()

	target := int64(500_000)
	date := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	a := testAccount(owner)
	a.Type = model.AccountTypeSaving
	a.SavingsTargetAmount = &target
	a.SavingsTargetDate = &date
	require.NoError(t, s.CreateAccount(ctx, a))

	got, err := s.LoadAccount(ctx, a.ID, owner)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, a.Name, got.Name)
	assert.Equal(t, model.AccountTypeSaving, got.Type)
	require.NotNil(t, got.SavingsTargetAmount)
	assert.Equal(t, target, *got.SavingsTargetAmount)
	require.NotNil(t, got.SavingsTargetDate)
	assert.True(t, date.Equal(*got.SavingsTargetDate))
	assert.Nil(t, got.DebtDueDate)

	foreign, err := s.LoadAccount(ctx, a.ID, "someone-else")
	require.NoError(t, err)
	assert.Nil(t, foreign)
}

func TestApplyOrderAndScope(t *testing.T) {
	s, owner := openTestStore(t)
	ctx := context.Background()

	for i, name := range []string{"A", "B"} {
		require.NoError(t, s.CreateCategory(ctx, model.Category{
			ID: owner + name, OwnerID: owner, Name: name,
			Type: model.CategoryTypeExpense, SortOrder: int64(i+1) * 1000,
		}, nil))
	}

	require.NoError(t, s.ApplyOrder(ctx, []ordering.Write{{ID: owner + "B", SortOrder: 500}}))

	items, err := s.LoadScopeOrderables(ctx, model.Scope{OwnerID: owner})
	require.NoError(t, err)
	assert.Equal(t, []model.Orderable{
		{ID: owner + "B", SortOrder: 500},
		{ID: owner + "A", SortOrder: 1000},
	}, items)

	err = s.ApplyOrder(ctx, []ordering.Write{
		{ID: owner + "A", SortOrder: 1},
		{ID: "ghost", SortOrder: 2},
	})
	require.Error(t, err)

	a, err := s.LoadCategory(ctx, owner+"A", owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), a.SortOrder)

	err = s.CreateCategory(ctx, model.Category{
		ID: owner + "C", OwnerID: owner, Name: "C",
		Type: model.CategoryTypeExpense, SortOrder: 3000,
	}, []ordering.Write{{ID: owner + "A", SortOrder: 2000}, {ID: "ghost", SortOrder: 1}})
	require.Error(t, err)

	c, err := s.LoadCategory(ctx, owner+"C", owner)
	require.NoError(t, err)
	assert.Nil(t, c, "insert must roll back with its rebalance")
}

func TestCommitLedger(t *testing.T) {
	s, owner := openTestStore(t)
	ctx := context.Background()
	acct := testAccount(owner)
	require.NoError(t, s.CreateAccount(ctx, acct))

	for i := 1; i <= 3; i++ {
		err := s.CommitLedger(ctx, ledger.WriteSet{
			Transaction: model.Transaction{
				ID: id.New(), OwnerID: owner, Type: model.TransactionTypeIncome,
				Amount: 100, CurrencyCode: "USD", AccountID: acct.ID,
				TxDate: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), CreatedAt: time.Now(),
			},
			AccountUpdates: []ledger.AccountUpdate{{ID: acct.ID, Balance: int64(i) * 100}},
		})
		require.NoError(t, err)
	}

	txs, err := s.ListTransactions(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, txs, 3)

	got, err := s.LoadAccount(ctx, acct.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(300), got.Balance)
	assert.Empty(t, ledger.Reconcile([]model.Account{*got}, txs))

	has, err := s.HasTransactionsForAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, has)
}
