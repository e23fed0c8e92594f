// Package renderer formats ledger reports as markdown. It contains no
// business logic: every function takes a computed report and returns a
// string for the terminal.
package renderer

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mswastik/finapp"
)

// percent formats an annualized rate for display, "-" when undefined.
func percent(rate float64) string {
	if rate == 0 {
		return "-"
	}
	return fmt.Sprintf("%+.2f%%", rate*100)
}

// units trims a unit quantity to a readable fixed precision.
func units(d decimal.Decimal) string {
	return d.StringFixed(3)
}

// optMoney renders an optional statement amount, "-" when absent.
func optMoney(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return finapp.M(d.Decimal).String()
}

func timestamp(t finapp.Transaction) string {
	return t.Timestamp.Format("2006-01-02 15:04")
}
