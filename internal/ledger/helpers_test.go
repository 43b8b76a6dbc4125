package ledger

import (
	"time"

	"github.com/cleared-dev/tally/internal/model"
)

const owner = "user-1"

// mockCurrencies implements CurrencyChecker for testing.
type mockCurrencies struct {
	codes map[string]bool
}

func (m *mockCurrencies) Exists(code string) bool {
	return m.codes[code]
}

func newMockCurrencies(codes ...string) *mockCurrencies {
	m := &mockCurrencies{codes: make(map[string]bool)}
	for _, c := range codes {
		m.codes[c] = true
	}
	return m
}

var defaultCurrencies = newMockCurrencies("USD", "EUR")

var today = time.Date(2025, 3, 15, 18, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return today }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func account(id string, balance int64) *model.Account {
	return &model.Account{
		ID:           id,
		OwnerID:      owner,
		Name:         "acct " + id,
		Type:         model.AccountTypePayment,
		CurrencyCode: "USD",
		Balance:      balance,
	}
}

func category(id string, t model.CategoryType) *model.Category {
	return &model.Category{ID: id, OwnerID: owner, Name: "cat " + id, Type: t}
}

func expense(amount int64, accountID string) ProposedTransaction {
	return ProposedTransaction{
		ID:           "tx-1",
		OwnerID:      owner,
		Type:         model.TransactionTypeExpense,
		Amount:       amount,
		CurrencyCode: "USD",
		AccountID:    accountID,
		TxDate:       date(2025, 3, 14),
	}
}

func transfer(amount int64, from, to string) ProposedTransaction {
	return ProposedTransaction{
		ID:               "tx-2",
		OwnerID:          owner,
		Type:             model.TransactionTypeTransfer,
		Amount:           amount,
		CurrencyCode:     "USD",
		AccountID:        from,
		CounterAccountID: to,
		TxDate:           date(2025, 3, 15),
	}
}
