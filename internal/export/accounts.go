package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/cleared-dev/tally/internal/currency"
	"github.com/cleared-dev/tally/internal/model"
)

// AccountsHeader is the CSV header for exported accounts.
var AccountsHeader = []string{"id", "name", "type", "currency", "balance", "archived"}

// MarshalAccount converts an account to a CSV record. The balance is written
// in major units.
func MarshalAccount(a model.Account) []string {
	return []string{
		a.ID,
		a.Name,
		string(a.Type),
		a.CurrencyCode,
		currency.Major(a.CurrencyCode, a.Balance),
		strconv.FormatBool(a.IsArchived),
	}
}

// WriteAccounts writes accounts to w, including the header.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(AccountsHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, a := range accounts {
		if err := cw.Write(MarshalAccount(a)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
