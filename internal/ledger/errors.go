package ledger

import "errors"

// Structural errors: the caller's view of the data is stale or malformed and
// can usually be fixed by refetching.
var (
	ErrAccountNotFound        = errors.New("account not found")
	ErrCategoryNotFound       = errors.New("category not found")
	ErrUnknownCurrency        = errors.New("unknown currency")
	ErrUnknownTransactionType = errors.New("unknown transaction type")
	ErrUnknownAccountType     = errors.New("unknown account type")
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrAmountTooLarge         = errors.New("amount exceeds maximum")
	ErrFutureDate             = errors.New("transaction date is in the future")
)

// Business-rule errors: the action is refused and the message is shown to the user.
var (
	ErrInsufficientFunds                   = errors.New("insufficient funds")
	ErrTransferRequiresTwoDistinctAccounts = errors.New("transfer requires two distinct accounts")
	ErrUnexpectedCounterAccount            = errors.New("only transfers may have a counter account")
	ErrCategoryTypeMismatch                = errors.New("category type does not match")
	ErrCurrencyLockedByTransactions        = errors.New("currency cannot change once transactions exist")
	ErrFieldNotAllowedForType              = errors.New("field not allowed for account type")
	ErrCurrencyMismatch                    = errors.New("transaction currency does not match account")
	ErrAccountArchived                     = errors.New("account is archived")
	ErrCategoryTooDeep                     = errors.New("categories nest at most one level")
)

var structural = []error{
	ErrAccountNotFound,
	ErrCategoryNotFound,
	ErrUnknownCurrency,
	ErrUnknownTransactionType,
	ErrUnknownAccountType,
	ErrInvalidAmount,
	ErrAmountTooLarge,
	ErrFutureDate,
}

var businessRules = []error{
	ErrInsufficientFunds,
	ErrTransferRequiresTwoDistinctAccounts,
	ErrUnexpectedCounterAccount,
	ErrCategoryTypeMismatch,
	ErrCurrencyLockedByTransactions,
	ErrFieldNotAllowedForType,
	ErrCurrencyMismatch,
	ErrAccountArchived,
	ErrCategoryTooDeep,
}

// IsStructural reports whether err wraps a structural ledger error.
func IsStructural(err error) bool {
	return isAny(err, structural)
}

// IsBusinessRule reports whether err wraps a business-rule ledger error.
func IsBusinessRule(err error) bool {
	return isAny(err, businessRules)
}

func isAny(err error, targets []error) bool {
	if err == nil {
		return false
	}
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
