// Package export writes ledger transactions as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/tally/internal/currency"
	"github.com/cleared-dev/tally/internal/model"
)

// Header is the CSV header for exported transactions.
const Header = "id,date,type,amount,currency,account,counter_account,category,note"

const dateFormat = "2006-01-02"

// Names maps account and category ids to display names. Ids without a name
// are written as-is.
type Names struct {
	Accounts   map[string]string
	Categories map[string]string
}

// NamesFrom builds Names from loaded rows.
func NamesFrom(accounts []model.Account, categories []model.Category) Names {
	n := Names{
		Accounts:   make(map[string]string, len(accounts)),
		Categories: make(map[string]string, len(categories)),
	}
	for _, a := range accounts {
		n.Accounts[a.ID] = a.Name
	}
	for _, c := range categories {
		n.Categories[c.ID] = c.Name
	}
	return n
}

func lookup(m map[string]string, id string) string {
	if name, ok := m[id]; ok {
		return name
	}
	return id
}

// MarshalTransaction converts a transaction to a CSV record. Amounts are
// written in major units.
func MarshalTransaction(tx model.Transaction, names Names) []string {
	return []string{
		tx.ID,
		tx.TxDate.Format(dateFormat),
		string(tx.Type),
		currency.Major(tx.CurrencyCode, tx.Amount),
		tx.CurrencyCode,
		lookup(names.Accounts, tx.AccountID),
		lookup(names.Accounts, tx.CounterAccountID),
		lookup(names.Categories, tx.CategoryID),
		tx.Note,
	}
}

// WriteTransactions writes txs to w, including the header.
func WriteTransactions(w io.Writer, txs []model.Transaction, names Names) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, tx := range txs {
		if err := cw.Write(MarshalTransaction(tx, names)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
