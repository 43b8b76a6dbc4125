package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the closed set of ledger events.
type TransactionType string

const (
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeTransfer TransactionType = "transfer"
)

// ParseTransactionType converts a string to a TransactionType.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
	return t, nil
}

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeExpense, TransactionTypeIncome, TransactionTypeTransfer:
		return true
	}
	return false
}

// CategoryType returns the category type an expense or income must be filed under.
// Transfers have none.
func (t TransactionType) CategoryType() (CategoryType, bool) {
	switch t {
	case TransactionTypeExpense:
		return CategoryTypeExpense, true
	case TransactionTypeIncome:
		return CategoryTypeIncome, true
	case TransactionTypeTransfer:
		return "", false
	}
	return "", false
}

// Transaction is an immutable financial event. Amount is positive, in minor units.
type Transaction struct {
	ID               string
	OwnerID          string
	Type             TransactionType
	Amount           int64
	CurrencyCode     string
	AccountID        string // source; "" = unassigned income/expense
	CounterAccountID string // destination, transfers only
	CategoryID       string
	TxDate           time.Time // date only
	Note             string
	CreatedAt        time.Time
}

// BankTransaction represents a parsed bank CSV row.
type BankTransaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal // negative = expense, positive = income
	Reference   string
	Type        string // bank transaction type (ACH_DEBIT, etc.)
}
