package finapp

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind identifies how units changed hands in a fund transaction.
type TransactionKind int

const (
	// Buy is a purchase of units for cash.
	Buy TransactionKind = iota
	// Sell is a disposal of units for cash.
	Sell
	// ReinvestedDividend is a dividend paid out as additional units.
	// It behaves like a buy in cost basis accounting.
	ReinvestedDividend
)

func (k TransactionKind) String() string {
	switch k {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	case ReinvestedDividend:
		return "reinvested-dividend"
	default:
		return "unknown"
	}
}

// ParseTransactionKind parses a string into a TransactionKind.
func ParseTransactionKind(s string) (TransactionKind, error) {
	switch s {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	case "reinvested-dividend":
		return ReinvestedDividend, nil
	default:
		return 0, fmt.Errorf("unknown transaction kind: %q", s)
	}
}

// Transaction is a single fund transaction from a brokerage statement.
// Transactions are immutable once committed to the ledger.
type Transaction struct {
	FundName  string
	Kind      TransactionKind
	Amount    decimal.Decimal // cash moved, sign as reported by the statement
	Units     decimal.Decimal
	Price     decimal.Decimal // per-unit execution price, derived amount/units when absent
	Timestamp time.Time       // execution date+time, timezone-naive local
}

// BalanceSnapshot is one bank statement line with its closing balance.
// Exactly one of Withdrawal/Deposit is set for a statement-derived row;
// both may be null for a pure carried-balance row.
type BalanceSnapshot struct {
	Bank           string
	Date           Date
	Narration      string
	RefNo          string
	Withdrawal     decimal.NullDecimal
	Deposit        decimal.NullDecimal
	ClosingBalance decimal.Decimal
}

// Instrument is a fund sighted in a statement, with its resolved catalog
// identifier and last known price. Created on first sighting, never deleted.
type Instrument struct {
	Name        string // canonical name, unique key
	Code        string // catalog identifier, empty until resolved
	Price       decimal.Decimal
	LastUpdated time.Time // zero until the first successful price lookup
}

// Resolved reports whether the instrument has a catalog identifier.
func (i Instrument) Resolved() bool { return i.Code != "" }
