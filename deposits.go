package finapp

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DepositStatus is the lifecycle state of a fixed-term deposit.
type DepositStatus int

const (
	DepositOpen DepositStatus = iota
	DepositClosed
)

func (s DepositStatus) String() string {
	switch s {
	case DepositOpen:
		return "open"
	case DepositClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ParseDepositStatus parses a string into a DepositStatus.
func ParseDepositStatus(s string) (DepositStatus, error) {
	switch s {
	case "open":
		return DepositOpen, nil
	case "closed":
		return DepositClosed, nil
	default:
		return 0, fmt.Errorf("unknown deposit status: %q", s)
	}
}

// FixedDeposit is a fixed-term bank deposit. Interest accrues only at
// closure; the Open to Closed transition is one-way.
type FixedDeposit struct {
	ID           int64
	Bank         string
	Principal    decimal.Decimal
	Rate         decimal.Decimal // annual rate in percent
	StartDate    Date
	MaturityDate Date
	Interest     decimal.Decimal // total accrued, computed at closure
	Status       DepositStatus
	ClosureDate  Date // zero while open
}

// NewFixedDeposit opens a deposit, deriving the maturity date from a duration
// and its unit ("days", "months" or "years").
func NewFixedDeposit(bank string, principal, rate decimal.Decimal, start Date, duration int, unit string) (FixedDeposit, error) {
	if !principal.IsPositive() {
		return FixedDeposit{}, fmt.Errorf("principal must be positive, got %s", principal)
	}
	if rate.IsNegative() {
		return FixedDeposit{}, fmt.Errorf("rate must not be negative, got %s", rate)
	}
	var maturity Date
	switch unit {
	case "days":
		maturity = start.Add(duration)
	case "months":
		maturity = start.AddMonth(duration)
	case "years":
		maturity = start.AddYear(duration)
	default:
		return FixedDeposit{}, fmt.Errorf("unknown duration unit %q, want days, months or years", unit)
	}
	return FixedDeposit{
		Bank:         bank,
		Principal:    principal,
		Rate:         rate,
		StartDate:    start,
		MaturityDate: maturity,
		Interest:     decimal.Zero,
		Status:       DepositOpen,
	}, nil
}

var daysPerYear = decimal.NewFromInt(365)
var hundred = decimal.NewFromInt(100)

// Close transitions the deposit to Closed on the given date, computing simple
// interest for the actual days elapsed: principal * rate * days / 365 / 100.
// The principal amount is left unchanged.
func (fd *FixedDeposit) Close(on Date) error {
	if fd.Status == DepositClosed {
		return fmt.Errorf("deposit %d already closed on %s", fd.ID, fd.ClosureDate)
	}
	if on.Before(fd.StartDate) {
		return fmt.Errorf("closure date %s is before start date %s", on, fd.StartDate)
	}
	days := decimal.NewFromInt(int64(on.DaysSince(fd.StartDate)))
	fd.Interest = fd.Principal.Mul(fd.Rate).Mul(days).Div(daysPerYear).Div(hundred)
	fd.Status = DepositClosed
	fd.ClosureDate = on
	return nil
}
