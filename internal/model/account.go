package model

import (
	"fmt"
	"time"
)

// AccountType classifies money containers.
type AccountType string

const (
	AccountTypePayment AccountType = "payment"
	AccountTypeSaving  AccountType = "saving"
	AccountTypeDebt    AccountType = "debt"
)

// ParseAccountType converts a string to an AccountType.
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown account type %q", s)
	}
	return t, nil
}

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypePayment, AccountTypeSaving, AccountTypeDebt:
		return true
	}
	return false
}

// Account is a named money container. Balance is in the smallest currency unit.
type Account struct {
	ID           string
	OwnerID      string
	Name         string
	Type         AccountType
	CurrencyCode string
	Balance      int64

	// Saving only.
	SavingsTargetAmount *int64
	SavingsTargetDate   *time.Time

	// Debt only.
	DebtInitialAmount *int64
	DebtDueDate       *time.Time
	DebtIsOwedToMe    *bool

	IsArchived bool
	ArchivedAt *time.Time
	CreatedAt  time.Time
}

// HasSavingFields reports whether any saving-only field is set.
func (a Account) HasSavingFields() bool {
	return a.SavingsTargetAmount != nil || a.SavingsTargetDate != nil
}

// HasDebtFields reports whether any debt-only field is set.
func (a Account) HasDebtFields() bool {
	return a.DebtInitialAmount != nil || a.DebtDueDate != nil || a.DebtIsOwedToMe != nil
}
