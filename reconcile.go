package finapp

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// previewContextRows is how many already-persisted rows a result carries so a
// preview can be read in context.
const previewContextRows = 10

// ParsedStatement is the combined output of one upload's statement parsers.
type ParsedStatement struct {
	Transactions []Transaction     // fund statement rows
	Balances     []BalanceSnapshot // spreadsheet balance rows
	BankRows     []BankRow         // raw PDF bank rows, balances not yet reconstructed
	BankLabel    string            // account label the BankRows belong to
}

// Result is the structured outcome of a reconciliation run, returned to the
// presentation layer instead of raw errors.
type Result struct {
	RunID     string
	Success   bool
	Error     string
	Committed bool

	NewTransactions []Transaction
	NewBalances     []BalanceSnapshot

	LastTransactions []Transaction
	LastBalances     []BalanceSnapshot
}

// Reconciler stages parsed statement rows against the persisted ledger.
//
// De-duplication is per partition (fund for transactions, bank for balances)
// and keeps only rows strictly newer than the partition's persisted max
// timestamp. A re-imported row sharing that exact timestamp is therefore
// dropped; there is no secondary key.
type Reconciler struct {
	Store    Store
	Resolver *Resolver
	Prices   PriceSource
}

// Reconcile computes the delta between parsed rows and the ledger. With
// commit=false it is a pure preview: the store transaction is rolled back and
// nothing is persisted. With commit=true the same filtering logic runs again
// and the staged rows are written atomically, so a preview followed by a
// confirm commits exactly what was shown.
func (r *Reconciler) Reconcile(parsed ParsedStatement, commit bool) *Result {
	res := &Result{RunID: uuid.NewString()}

	tx, err := r.Store.Begin()
	if err != nil {
		res.Error = (&LedgerError{Op: "begin", Err: err}).Error()
		return res
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if err := r.upsertInstruments(tx, parsed.Transactions); err != nil {
		res.Error = err.Error()
		return res
	}

	staged, err := stageTransactions(tx, parsed.Transactions)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.NewTransactions = staged

	newBalances, err := stageBalances(tx, parsed)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.NewBalances = newBalances

	if commit {
		for _, t := range res.NewTransactions {
			if err := tx.InsertTransaction(t); err != nil {
				res.Error = (&LedgerError{Op: "insert transaction", Err: err}).Error()
				return res
			}
		}
		for _, b := range res.NewBalances {
			if err := tx.InsertBalance(b); err != nil {
				res.Error = (&LedgerError{Op: "insert balance", Err: err}).Error()
				return res
			}
		}
	}

	res.LastTransactions, err = tx.LastTransactions(previewContextRows)
	if err != nil {
		res.Error = (&LedgerError{Op: "query transactions", Err: err}).Error()
		return res
	}
	res.LastBalances, err = tx.LastBalances(previewContextRows)
	if err != nil {
		res.Error = (&LedgerError{Op: "query balances", Err: err}).Error()
		return res
	}

	if commit {
		if err := tx.Commit(); err != nil {
			res.Error = (&LedgerError{Op: "commit", Err: err}).Error()
			return res
		}
		committed = true
		res.Committed = true
		log.Printf("run %s: committed %d transactions, %d balances",
			res.RunID, len(res.NewTransactions), len(res.NewBalances))
	}
	res.Success = true
	return res
}

// upsertInstruments creates or refreshes the instrument record of every
// distinct fund name in the parsed rows. An existing identifier is never
// overwritten, only filled when previously empty; a failed price lookup
// keeps the prior price.
func (r *Reconciler) upsertInstruments(tx Tx, txs []Transaction) error {
	seen := make(map[string]bool)
	for _, t := range txs {
		if seen[t.FundName] {
			continue
		}
		seen[t.FundName] = true

		inst, err := tx.Instrument(t.FundName)
		switch {
		case errors.Is(err, ErrNotFound):
			inst = Instrument{Name: t.FundName}
		case err != nil:
			return &LedgerError{Op: "query instrument", Err: err}
		}

		if !inst.Resolved() && r.Resolver != nil {
			if code, ok := r.Resolver.Resolve(t.FundName); ok {
				inst.Code = code
			}
		}
		if inst.Resolved() && r.Prices != nil {
			price, err := r.Prices.CurrentPrice(inst.Code)
			if err != nil {
				log.Printf("could not fetch price for %s (%s): %v", inst.Name, inst.Code, err)
			} else {
				inst.Price = price
				inst.LastUpdated = time.Now()
				log.Printf("updated price for %s (%s): %s", inst.Name, inst.Code, price)
			}
		}
		if err := tx.UpsertInstrument(inst); err != nil {
			return &LedgerError{Op: "upsert instrument", Err: err}
		}
	}
	return nil
}

// stageTransactions keeps, per fund, only the parsed rows strictly newer than
// the fund's persisted max timestamp, sorted by timestamp ascending.
func stageTransactions(tx Tx, parsed []Transaction) ([]Transaction, error) {
	latest := make(map[string]time.Time)
	known := make(map[string]bool)
	var staged []Transaction
	for _, t := range parsed {
		if !known[t.FundName] {
			ts, ok, err := tx.LatestTransactionTime(t.FundName)
			if err != nil {
				return nil, &LedgerError{Op: "query max timestamp", Err: err}
			}
			known[t.FundName] = true
			if ok {
				latest[t.FundName] = ts
			}
		}
		if max, ok := latest[t.FundName]; ok && !t.Timestamp.After(max) {
			continue
		}
		staged = append(staged, t)
	}
	sort.SliceStable(staged, func(i, j int) bool {
		return staged[i].Timestamp.Before(staged[j].Timestamp)
	})
	return staged, nil
}

// stageBalances filters spreadsheet balance rows per bank and reconstructs
// PDF bank rows into balance snapshots seeded from the last persisted
// closing balance.
func stageBalances(tx Tx, parsed ParsedStatement) ([]BalanceSnapshot, error) {
	latest := make(map[string]Date)
	known := make(map[string]bool)
	lookup := func(bank string) (Date, bool, error) {
		if !known[bank] {
			snap, ok, err := tx.LatestBalance(bank)
			if err != nil {
				return Date{}, false, &LedgerError{Op: "query latest balance", Err: err}
			}
			known[bank] = true
			if ok {
				latest[bank] = snap.Date
			}
		}
		d, ok := latest[bank]
		return d, ok, nil
	}

	var staged []BalanceSnapshot
	for _, b := range parsed.Balances {
		max, ok, err := lookup(b.Bank)
		if err != nil {
			return nil, err
		}
		if ok && !b.Date.After(max) {
			continue
		}
		staged = append(staged, b)
	}

	if len(parsed.BankRows) > 0 {
		if parsed.BankLabel == "" {
			return nil, fmt.Errorf("bank rows present but no bank label set")
		}
		opening := decimal.Zero
		snap, ok, err := tx.LatestBalance(parsed.BankLabel)
		if err != nil {
			return nil, &LedgerError{Op: "query latest balance", Err: err}
		}
		rows := parsed.BankRows
		if ok {
			opening = snap.ClosingBalance
			filtered := rows[:0:0]
			for _, row := range rows {
				if row.Date.After(snap.Date) {
					filtered = append(filtered, row)
				}
			}
			rows = filtered
		}
		staged = append(staged, BuildBankSnapshots(parsed.BankLabel, rows, opening)...)
	}
	return staged, nil
}
