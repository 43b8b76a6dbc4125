package ledger

import (
	"fmt"
	"time"

	"github.com/cleared-dev/tally/internal/model"
)

// Change is a patch to a nullable field. The zero value leaves the field untouched.
type Change[T any] struct {
	set   bool
	value *T
}

// Set returns a Change assigning v.
func Set[T any](v T) Change[T] {
	return Change[T]{set: true, value: &v}
}

// Clear returns a Change resetting the field to null.
func Clear[T any]() Change[T] {
	return Change[T]{set: true}
}

// IsSet reports whether the patch touches the field.
func (c Change[T]) IsSet() bool {
	return c.set
}

func (c Change[T]) apply(cur *T) *T {
	if !c.set {
		return cur
	}
	return c.value
}

// AccountPatch is a partial account update. Nil pointers leave fields untouched.
type AccountPatch struct {
	Name         *string
	Type         *model.AccountType
	CurrencyCode *string

	SavingsTargetAmount Change[int64]
	SavingsTargetDate   Change[time.Time]
	DebtInitialAmount   Change[int64]
	DebtDueDate         Change[time.Time]
	DebtIsOwedToMe      Change[bool]

	IsArchived *bool
	ArchivedAt *time.Time
}

// GuardDecision reports side effects the caller must perform after a guarded update.
type GuardDecision struct {
	StampArchivedAt bool // archiving without an explicit archivedAt
	ClearArchivedAt bool // unarchiving
}

// GuardUpdate checks that applying patch to existing keeps the account valid.
func GuardUpdate(existing model.Account, patch AccountPatch, hasExistingTransactions bool) (GuardDecision, error) {
	if patch.CurrencyCode != nil && *patch.CurrencyCode != existing.CurrencyCode && hasExistingTransactions {
		return GuardDecision{}, fmt.Errorf("%w: %s", ErrCurrencyLockedByTransactions, existing.CurrencyCode)
	}

	merged := MergeAccount(existing, patch)
	if err := checkTypeFields(merged); err != nil {
		return GuardDecision{}, err
	}

	var d GuardDecision
	if patch.IsArchived != nil {
		switch {
		case *patch.IsArchived && !existing.IsArchived:
			d.StampArchivedAt = patch.ArchivedAt == nil
		case !*patch.IsArchived && existing.IsArchived:
			d.ClearArchivedAt = true
		}
	}
	return d, nil
}

// GuardCreate checks a new account's type and type-exclusive fields.
func GuardCreate(acct model.Account) error {
	return checkTypeFields(acct)
}

// MergeAccount returns existing with patch applied. It does not validate.
func MergeAccount(existing model.Account, patch AccountPatch) model.Account {
	out := existing
	if patch.Name != nil {
		out.Name = *patch.Name
	}
	if patch.Type != nil {
		out.Type = *patch.Type
	}
	if patch.CurrencyCode != nil {
		out.CurrencyCode = *patch.CurrencyCode
	}
	out.SavingsTargetAmount = patch.SavingsTargetAmount.apply(existing.SavingsTargetAmount)
	out.SavingsTargetDate = patch.SavingsTargetDate.apply(existing.SavingsTargetDate)
	out.DebtInitialAmount = patch.DebtInitialAmount.apply(existing.DebtInitialAmount)
	out.DebtDueDate = patch.DebtDueDate.apply(existing.DebtDueDate)
	out.DebtIsOwedToMe = patch.DebtIsOwedToMe.apply(existing.DebtIsOwedToMe)
	if patch.IsArchived != nil {
		out.IsArchived = *patch.IsArchived
	}
	if patch.ArchivedAt != nil {
		out.ArchivedAt = patch.ArchivedAt
	}
	return out
}

func checkTypeFields(a model.Account) error {
	switch a.Type {
	case model.AccountTypePayment:
		if a.HasSavingFields() || a.HasDebtFields() {
			return fmt.Errorf("%w: payment accounts take no savings or debt fields", ErrFieldNotAllowedForType)
		}
	case model.AccountTypeSaving:
		if a.HasDebtFields() {
			return fmt.Errorf("%w: debt fields on a saving account", ErrFieldNotAllowedForType)
		}
	case model.AccountTypeDebt:
		if a.HasSavingFields() {
			return fmt.Errorf("%w: savings fields on a debt account", ErrFieldNotAllowedForType)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAccountType, a.Type)
	}
	return nil
}

// GuardCategory checks a new category against its parent. parent is nil when
// the category is top-level or the parent row does not exist.
func GuardCategory(cat model.Category, parent *model.Category) error {
	if _, err := model.ParseCategoryType(string(cat.Type)); err != nil {
		return fmt.Errorf("%w: %v", ErrCategoryTypeMismatch, err)
	}
	if cat.ParentID == "" {
		return nil
	}
	if parent == nil || parent.ID != cat.ParentID || parent.OwnerID != cat.OwnerID {
		return fmt.Errorf("%w: parent %s", ErrCategoryNotFound, cat.ParentID)
	}
	if parent.ParentID != "" {
		return fmt.Errorf("%w: %s is already nested", ErrCategoryTooDeep, parent.Name)
	}
	if parent.Type != cat.Type {
		return fmt.Errorf("%w: %s child under %s parent", ErrCategoryTypeMismatch, cat.Type, parent.Type)
	}
	return nil
}
