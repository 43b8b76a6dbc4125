package importer

import (
	"fmt"

	"github.com/cleared-dev/tally/internal/currency"
	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
)

// Target names where imported rows are posted.
type Target struct {
	OwnerID      string
	AccountID    string
	CurrencyCode string
	// Optional categories for imported rows, by direction.
	ExpenseCategoryID string
	IncomeCategoryID  string
}

// ToProposals converts parsed bank rows into proposed transactions against
// target. Debits become expenses, credits become income, and zero-amount
// rows are skipped. Ids are derived from the row so re-importing a file
// produces the same ids.
func ToProposals(target Target, rows []model.BankTransaction) ([]ledger.ProposedTransaction, error) {
	seen := make(map[string]int)
	var out []ledger.ProposedTransaction
	for i, row := range rows {
		if row.Amount.IsZero() {
			continue
		}

		minor, err := currency.ToMinor(target.CurrencyCode, row.Amount.Abs())
		if err != nil {
			return nil, fmt.Errorf("row %d (%s): %w", i+1, row.Reference, err)
		}

		tx := ledger.ProposedTransaction{
			OwnerID:      target.OwnerID,
			Type:         model.TransactionTypeIncome,
			Amount:       minor,
			CurrencyCode: target.CurrencyCode,
			AccountID:    target.AccountID,
			CategoryID:   target.IncomeCategoryID,
			TxDate:       row.Date,
			Note:         row.Description,
		}
		if row.Amount.IsNegative() {
			tx.Type = model.TransactionTypeExpense
			tx.CategoryID = target.ExpenseCategoryID
		}

		key := row.Reference + "|" + row.Amount.String()
		tx.ID = id.Derive(target.OwnerID, target.AccountID, key, fmt.Sprint(seen[key]))
		seen[key]++

		out = append(out, tx)
	}
	return out, nil
}
