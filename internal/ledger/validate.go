package ledger

import (
	"fmt"
	"time"

	"github.com/cleared-dev/tally/internal/model"
)

// DefaultMaxAmount caps a single transaction, in minor units.
const DefaultMaxAmount int64 = 100_000_000_000

// CurrencyChecker tests whether a currency code is known.
type CurrencyChecker interface {
	Exists(code string) bool
}

// ProposedTransaction is a transaction that has not been validated or applied.
type ProposedTransaction struct {
	ID               string
	OwnerID          string
	Type             model.TransactionType
	Amount           int64
	CurrencyCode     string
	AccountID        string
	CounterAccountID string
	CategoryID       string
	TxDate           time.Time
	Note             string
}

// ValidationContext carries the rows a proposed transaction references.
// Category, FromAccount and ToAccount are nil when absent from the store.
type ValidationContext struct {
	Currencies  CurrencyChecker
	Category    *model.Category
	FromAccount *model.Account
	ToAccount   *model.Account
}

// Validator checks proposed transactions against the ledger rules.
type Validator struct {
	maxAmount int64
	now       func() time.Time
}

// NewValidator creates a Validator. A non-positive maxAmount selects
// DefaultMaxAmount; a nil clock selects time.Now.
func NewValidator(maxAmount int64, now func() time.Time) *Validator {
	if maxAmount <= 0 {
		maxAmount = DefaultMaxAmount
	}
	if now == nil {
		now = time.Now
	}
	return &Validator{maxAmount: maxAmount, now: now}
}

// Validate returns the first rule tx violates, or nil. Cheap structural checks
// run before lookups.
func (v *Validator) Validate(tx ProposedTransaction, vc ValidationContext) error {
	if err := v.validateShape(tx); err != nil {
		return err
	}

	if vc.Currencies == nil || !vc.Currencies.Exists(tx.CurrencyCode) {
		return fmt.Errorf("%w: %q", ErrUnknownCurrency, tx.CurrencyCode)
	}

	if err := validateCategory(tx, vc.Category); err != nil {
		return err
	}

	switch tx.Type {
	case model.TransactionTypeTransfer:
		if tx.AccountID == "" || tx.CounterAccountID == "" || tx.AccountID == tx.CounterAccountID {
			return ErrTransferRequiresTwoDistinctAccounts
		}
	case model.TransactionTypeExpense, model.TransactionTypeIncome:
		if tx.CounterAccountID != "" {
			return fmt.Errorf("%w: %s", ErrUnexpectedCounterAccount, tx.Type)
		}
	}

	refs := []struct {
		id   string
		acct *model.Account
	}{
		{tx.AccountID, vc.FromAccount},
		{tx.CounterAccountID, vc.ToAccount},
	}
	for _, r := range refs {
		if r.id == "" {
			continue
		}
		if r.acct == nil || r.acct.ID != r.id || r.acct.OwnerID != tx.OwnerID {
			return fmt.Errorf("%w: %s", ErrAccountNotFound, r.id)
		}
	}
	for _, r := range refs {
		if r.id == "" {
			continue
		}
		if err := checkAccountUsable(tx, r.acct); err != nil {
			return err
		}
	}

	switch tx.Type {
	case model.TransactionTypeExpense, model.TransactionTypeTransfer:
		if tx.AccountID != "" && vc.FromAccount.Balance < tx.Amount {
			return fmt.Errorf("%w: balance %d, amount %d", ErrInsufficientFunds, vc.FromAccount.Balance, tx.Amount)
		}
	case model.TransactionTypeIncome:
		// Income never overdraws.
	}

	return nil
}

func (v *Validator) validateShape(tx ProposedTransaction) error {
	if !tx.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTransactionType, tx.Type)
	}
	if tx.Amount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, tx.Amount)
	}
	if tx.Amount > v.maxAmount {
		return fmt.Errorf("%w: %d > %d", ErrAmountTooLarge, tx.Amount, v.maxAmount)
	}
	if toDate(tx.TxDate).After(toDate(v.now())) {
		return fmt.Errorf("%w: %s", ErrFutureDate, tx.TxDate.Format(time.DateOnly))
	}
	return nil
}

func validateCategory(tx ProposedTransaction, cat *model.Category) error {
	if tx.CategoryID == "" {
		return nil
	}
	if cat == nil || cat.ID != tx.CategoryID || cat.OwnerID != tx.OwnerID {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, tx.CategoryID)
	}
	want, ok := tx.Type.CategoryType()
	if !ok {
		return fmt.Errorf("%w: %s cannot be categorized", ErrCategoryTypeMismatch, tx.Type)
	}
	if cat.Type != want {
		return fmt.Errorf("%w: %s category on %s", ErrCategoryTypeMismatch, cat.Type, tx.Type)
	}
	return nil
}

func checkAccountUsable(tx ProposedTransaction, acct *model.Account) error {
	if acct.IsArchived {
		return fmt.Errorf("%w: %s", ErrAccountArchived, acct.Name)
	}
	if acct.CurrencyCode != tx.CurrencyCode {
		return fmt.Errorf("%w: %s account, %s transaction", ErrCurrencyMismatch, acct.CurrencyCode, tx.CurrencyCode)
	}
	return nil
}

// toDate drops the clock part, keeping the calendar date in t's location.
func toDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
