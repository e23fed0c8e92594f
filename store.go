package finapp

import (
	"time"

	"github.com/shopspring/decimal"
)

// Store is the durable, queryable ledger. The pipeline only ever touches it
// through a Tx so that every reconciliation or edit happens inside one atomic
// commit/rollback scope.
type Store interface {
	Begin() (Tx, error)
}

// Tx is one transactional view of the ledger store. A preview run opens a Tx,
// reads and stages, then rolls back; a commit run replays the same operations
// and commits. Implementations are not safe for concurrent use.
type Tx interface {
	// Inserts. Records are immutable once committed.
	InsertTransaction(Transaction) error
	InsertBalance(BalanceSnapshot) error
	InsertFixedDeposit(FixedDeposit) (id int64, err error)

	// UpsertInstrument creates or replaces the instrument keyed by name.
	UpsertInstrument(Instrument) error
	// Instrument returns the instrument by canonical name, or ErrNotFound.
	Instrument(name string) (Instrument, error)
	// Instruments returns all instruments ordered by name.
	Instruments() ([]Instrument, error)

	// LatestTransactionTime returns the max execution timestamp persisted for
	// a fund. ok is false when the fund has no transactions.
	LatestTransactionTime(fund string) (ts time.Time, ok bool, err error)
	// LatestBalance returns the most recent balance snapshot for a bank.
	// ok is false when the bank has no snapshots.
	LatestBalance(bank string) (snap BalanceSnapshot, ok bool, err error)

	// Transactions returns the whole transaction ledger in ascending
	// timestamp order.
	Transactions() ([]Transaction, error)
	// LastTransactions returns up to n transactions, newest first.
	LastTransactions(n int) ([]Transaction, error)
	// LastBalances returns up to n balance snapshots, newest first.
	LastBalances(n int) ([]BalanceSnapshot, error)

	// FixedDeposit returns a deposit by id, or ErrNotFound.
	FixedDeposit(id int64) (FixedDeposit, error)
	// FixedDeposits returns all deposits, open first then by start date.
	FixedDeposits() ([]FixedDeposit, error)
	// UpdateFixedDeposit replaces the deposit row with the given id.
	UpdateFixedDeposit(FixedDeposit) error
	// TotalInterestEarned sums the accrued interest of all closed deposits.
	TotalInterestEarned() (decimal.Decimal, error)

	Commit() error
	Rollback() error
}
