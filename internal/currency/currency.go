package currency

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Registry answers currency lookups from the ISO 4217 table shipped with go-money.
type Registry struct{}

// Exists reports whether code is a known currency.
func (Registry) Exists(code string) bool {
	return Lookup(code) != nil
}

// Lookup returns the currency for code, or nil if unknown.
// Codes are matched exactly; callers normalize with Normalize.
func Lookup(code string) *money.Currency {
	if code == "" {
		return nil
	}
	return money.GetCurrency(code)
}

// Normalize trims and upper-cases a currency code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ToMinor converts a major-unit amount ("12.34") into minor units (1234).
// Amounts with more precision than the currency allows are rejected.
func ToMinor(code string, amount decimal.Decimal) (int64, error) {
	cur := Lookup(code)
	if cur == nil {
		return 0, fmt.Errorf("unknown currency %q", code)
	}
	shifted := amount.Shift(int32(cur.Fraction))
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than %d decimal places for %s", amount, cur.Fraction, code)
	}
	if shifted.Abs().GreaterThan(decimal.NewFromInt(1 << 62)) {
		return 0, fmt.Errorf("amount %s out of range", amount)
	}
	return shifted.IntPart(), nil
}

// ParseMinor parses a major-unit string and converts it to minor units.
func ParseMinor(code, s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return ToMinor(code, d)
}

// Format renders a minor-unit amount with the currency's symbol and separators.
func Format(code string, minor int64) string {
	if Lookup(code) == nil {
		return fmt.Sprintf("%d %s", minor, code)
	}
	return money.New(minor, code).Display()
}

// Major renders a minor-unit amount as a plain decimal string ("-12.34").
func Major(code string, minor int64) string {
	fraction := 2
	if cur := Lookup(code); cur != nil {
		fraction = cur.Fraction
	}
	return decimal.New(minor, -int32(fraction)).StringFixed(int32(fraction))
}
