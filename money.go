package finapp

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is the currency used to display monetary values in reports.
// All ledger amounts are currency-agnostic decimals; the currency only matters
// at the presentation boundary.
var DefaultCurrency = "INR"

// Money pairs a decimal value with a display currency. Arithmetic stays on
// decimal.Decimal; Money exists for report formatting.
type Money struct {
	value decimal.Decimal
	cur   string
}

// M wraps a decimal value in the default display currency.
func M(value decimal.Decimal) Money { return Money{value: value, cur: DefaultCurrency} }

func (m Money) IsZero() bool     { return m.value.IsZero() }
func (m Money) IsPositive() bool { return m.value.IsPositive() }

// currency returns a never-nil currency for the money value.
func (m Money) currency() money.Currency {
	return *money.New(0, m.cur).Currency()
}

// String formats the value with the currency's symbol and grouping.
func (m Money) String() string {
	cur := m.currency()
	dec := m.value.Shift(int32(cur.Fraction))
	return cur.Formatter().Format(dec.Round(0).IntPart())
}

// SignedString is like String but prefixes positive values with '+'
// and renders zero as "-".
func (m Money) SignedString() string {
	if m.value.IsZero() {
		return "-"
	}
	if m.value.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}
