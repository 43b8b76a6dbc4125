package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// Layout maps the columns of one bank's CSV export onto BankTransaction
// fields. Column indexes are zero-based; -1 marks a column the export lacks.
type Layout struct {
	Name   string
	Fields int
	// Header is the title of the date column. When HeaderRequired is set a
	// file whose first row does not carry it is rejected; otherwise the
	// header row is optional.
	Header         string
	HeaderRequired bool
	DateLayout     string

	Date        int
	Description int
	Amount      int
	// Kind is the bank's own transaction type (ACH_DEBIT, DEBIT_CARD, ...).
	Kind int
	// Direction holds a DEBIT/CREDIT marker that must agree with the sign of
	// Amount.
	Direction int
}

// Built-in layouts.
var (
	Chase = Layout{
		Name:           "chase",
		Fields:         7,
		Header:         "Posting Date",
		HeaderRequired: true,
		DateLayout:     "01/02/2006",
		Date:           1,
		Description:    2,
		Amount:         3,
		Kind:           4,
		Direction:      0,
	}

	// Simple is date (YYYY-MM-DD), description, signed amount.
	Simple = Layout{
		Name:        "simple",
		Fields:      3,
		Header:      "date",
		DateLayout:  time.DateOnly,
		Date:        0,
		Description: 1,
		Amount:      2,
		Kind:        -1,
		Direction:   -1,
	}
)

// CSVParser parses any export described by its Layout.
type CSVParser struct {
	Layout Layout
}

// Format returns the layout name.
func (p *CSVParser) Format() string { return p.Layout.Name }

// Parse reads the CSV and returns one BankTransaction per data row.
func (p *CSVParser) Parse(r io.Reader) ([]model.BankTransaction, error) {
	l := p.Layout
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = l.Fields
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s CSV: %w", l.Name, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	line := 1
	if strings.EqualFold(strings.TrimSpace(records[0][l.Date]), l.Header) {
		records = records[1:]
		line++
	} else if l.HeaderRequired {
		return nil, fmt.Errorf("not a %s export: header %q", l.Name, strings.Join(records[0], ","))
	}

	var txns []model.BankTransaction
	for i, rec := range records {
		txn, err := l.parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line+i, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func (l Layout) parseRow(rec []string) (model.BankTransaction, error) {
	date, err := time.Parse(l.DateLayout, strings.TrimSpace(rec[l.Date]))
	if err != nil {
		return model.BankTransaction{}, fmt.Errorf("parsing date %q: %w", rec[l.Date], err)
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(rec[l.Amount]))
	if err != nil {
		return model.BankTransaction{}, fmt.Errorf("parsing amount %q: %w", rec[l.Amount], err)
	}

	if l.Direction >= 0 {
		if err := checkDirection(rec[l.Direction], amount); err != nil {
			return model.BankTransaction{}, err
		}
	}

	desc := strings.TrimSpace(rec[l.Description])
	txn := model.BankTransaction{
		Date:        date,
		Description: desc,
		Amount:      amount,
		Reference:   l.reference(date, desc),
	}
	if l.Kind >= 0 {
		txn.Type = strings.TrimSpace(rec[l.Kind])
	}
	return txn, nil
}

// checkDirection rejects rows whose marker disagrees with the amount's sign.
// ToProposals relies on the sign alone to pick expense or income.
func checkDirection(marker string, amount decimal.Decimal) error {
	switch strings.ToUpper(strings.TrimSpace(marker)) {
	case "DEBIT", "CHECK":
		if amount.IsPositive() {
			return fmt.Errorf("debit row with positive amount %s", amount)
		}
	case "CREDIT", "DSLIP":
		if amount.IsNegative() {
			return fmt.Errorf("credit row with negative amount %s", amount)
		}
	default:
		return fmt.Errorf("unknown direction %q", marker)
	}
	return nil
}

// reference builds a stable row reference like chase_20250103_GITHUBPROS.
func (l Layout) reference(date time.Time, desc string) string {
	prefix := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, desc)
	if len(prefix) > 10 {
		prefix = prefix[:10]
	}
	return fmt.Sprintf("%s_%s_%s", l.Name, date.Format("20060102"), prefix)
}
