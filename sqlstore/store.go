// Package sqlstore persists the finapp ledger in a local SQLite database.
//
// It is the only Store implementation shipped with the module. Records map
// one to one onto the finapp types; decimals are stored as text to keep them
// exact, timestamps as sortable local-time strings.
package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/mswastik/finapp"
)

// timeFormat is the sortable storage format of transaction timestamps.
const timeFormat = "2006-01-02 15:04:05"

const schema = `
CREATE TABLE IF NOT EXISTS mutual_fund_transactions (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	fund_name        TEXT NOT NULL,
	transaction_type TEXT NOT NULL,
	amount           TEXT NOT NULL,
	units            TEXT NOT NULL,
	nav              TEXT NOT NULL,
	timestamp        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tx_fund_ts ON mutual_fund_transactions(fund_name, timestamp);

CREATE TABLE IF NOT EXISTS account_balances (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	bank            TEXT NOT NULL,
	date            TEXT NOT NULL,
	narration       TEXT,
	chq_ref_no      TEXT,
	withdrawal_amt  TEXT,
	deposit_amt     TEXT,
	closing_balance TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_balance_bank_date ON account_balances(bank, date);

CREATE TABLE IF NOT EXISTS funds (
	fund_name    TEXT PRIMARY KEY,
	fund_code    TEXT,
	current_nav  TEXT,
	last_updated TEXT
);

CREATE TABLE IF NOT EXISTS fixed_deposits (
	id                    INTEGER PRIMARY KEY AUTOINCREMENT,
	bank                  TEXT NOT NULL,
	amount                TEXT NOT NULL,
	interest_rate         TEXT NOT NULL,
	start_date            TEXT NOT NULL,
	maturity_date         TEXT NOT NULL,
	total_interest_earned TEXT NOT NULL DEFAULT '0',
	status                TEXT NOT NULL DEFAULT 'open',
	closure_date          TEXT
);
`

// Store is a SQLite-backed finapp.Store.
type Store struct {
	db *sql.DB
}

var _ finapp.Store = (*Store)(nil)

// Open opens (creating if needed) the ledger database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cannot open ledger database %q: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot initialize ledger schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Begin opens one transactional view of the ledger.
func (s *Store) Begin() (finapp.Tx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	return &storeTx{tx: tx}, nil
}

type storeTx struct {
	tx *sql.Tx
}

var _ finapp.Tx = (*storeTx)(nil)

func (t *storeTx) Commit() error { return t.tx.Commit() }

// Rollback aborts the transaction. Rolling back after a successful commit is
// a no-op so callers can unconditionally defer it.
func (t *storeTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

func (t *storeTx) InsertTransaction(x finapp.Transaction) error {
	_, err := t.tx.Exec(`INSERT INTO mutual_fund_transactions
		(fund_name, transaction_type, amount, units, nav, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		x.FundName, x.Kind.String(), x.Amount.String(), x.Units.String(),
		x.Price.String(), x.Timestamp.Format(timeFormat))
	return err
}

func (t *storeTx) InsertBalance(b finapp.BalanceSnapshot) error {
	_, err := t.tx.Exec(`INSERT INTO account_balances
		(bank, date, narration, chq_ref_no, withdrawal_amt, deposit_amt, closing_balance)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.Bank, b.Date.String(), b.Narration, b.RefNo,
		nullDecimal(b.Withdrawal), nullDecimal(b.Deposit), b.ClosingBalance.String())
	return err
}

func (t *storeTx) UpsertInstrument(i finapp.Instrument) error {
	var lastUpdated any
	if !i.LastUpdated.IsZero() {
		lastUpdated = i.LastUpdated.Format(timeFormat)
	}
	var price any
	if !i.Price.IsZero() || !i.LastUpdated.IsZero() {
		price = i.Price.String()
	}
	_, err := t.tx.Exec(`INSERT INTO funds (fund_name, fund_code, current_nav, last_updated)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(fund_name) DO UPDATE SET
			fund_code = excluded.fund_code,
			current_nav = excluded.current_nav,
			last_updated = excluded.last_updated`,
		i.Name, nullString(i.Code), price, lastUpdated)
	return err
}

func (t *storeTx) Instrument(name string) (finapp.Instrument, error) {
	row := t.tx.QueryRow(`SELECT fund_name, fund_code, current_nav, last_updated
		FROM funds WHERE fund_name = ?`, name)
	inst, err := scanInstrument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return finapp.Instrument{}, finapp.ErrNotFound
	}
	return inst, err
}

func (t *storeTx) Instruments() ([]finapp.Instrument, error) {
	rows, err := t.tx.Query(`SELECT fund_name, fund_code, current_nav, last_updated
		FROM funds ORDER BY fund_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var instruments []finapp.Instrument
	for rows.Next() {
		inst, err := scanInstrument(rows)
		if err != nil {
			return nil, err
		}
		instruments = append(instruments, inst)
	}
	return instruments, rows.Err()
}

func (t *storeTx) LatestTransactionTime(fund string) (time.Time, bool, error) {
	var max sql.NullString
	err := t.tx.QueryRow(`SELECT MAX(timestamp) FROM mutual_fund_transactions
		WHERE fund_name = ?`, fund).Scan(&max)
	if err != nil {
		return time.Time{}, false, err
	}
	if !max.Valid {
		return time.Time{}, false, nil
	}
	ts, err := time.ParseInLocation(timeFormat, max.String, time.Local)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt timestamp %q for fund %q: %w", max.String, fund, err)
	}
	return ts, true, nil
}

func (t *storeTx) LatestBalance(bank string) (finapp.BalanceSnapshot, bool, error) {
	row := t.tx.QueryRow(`SELECT bank, date, narration, chq_ref_no, withdrawal_amt, deposit_amt, closing_balance
		FROM account_balances WHERE bank = ? ORDER BY date DESC, id DESC LIMIT 1`, bank)
	snap, err := scanBalance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return finapp.BalanceSnapshot{}, false, nil
	}
	if err != nil {
		return finapp.BalanceSnapshot{}, false, err
	}
	return snap, true, nil
}

func (t *storeTx) Transactions() ([]finapp.Transaction, error) {
	return t.queryTransactions(`SELECT fund_name, transaction_type, amount, units, nav, timestamp
		FROM mutual_fund_transactions ORDER BY timestamp ASC, id ASC`)
}

func (t *storeTx) LastTransactions(n int) ([]finapp.Transaction, error) {
	return t.queryTransactions(`SELECT fund_name, transaction_type, amount, units, nav, timestamp
		FROM mutual_fund_transactions ORDER BY timestamp DESC, id DESC LIMIT ?`, n)
}

func (t *storeTx) queryTransactions(query string, args ...any) ([]finapp.Transaction, error) {
	rows, err := t.tx.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []finapp.Transaction
	for rows.Next() {
		var x finapp.Transaction
		var kind, amount, units, nav, ts string
		if err := rows.Scan(&x.FundName, &kind, &amount, &units, &nav, &ts); err != nil {
			return nil, err
		}
		if x.Kind, err = finapp.ParseTransactionKind(kind); err != nil {
			return nil, err
		}
		if x.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		if x.Units, err = decimal.NewFromString(units); err != nil {
			return nil, err
		}
		if x.Price, err = decimal.NewFromString(nav); err != nil {
			return nil, err
		}
		if x.Timestamp, err = time.ParseInLocation(timeFormat, ts, time.Local); err != nil {
			return nil, err
		}
		txs = append(txs, x)
	}
	return txs, rows.Err()
}

func (t *storeTx) LastBalances(n int) ([]finapp.BalanceSnapshot, error) {
	rows, err := t.tx.Query(`SELECT bank, date, narration, chq_ref_no, withdrawal_amt, deposit_amt, closing_balance
		FROM account_balances ORDER BY date DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []finapp.BalanceSnapshot
	for rows.Next() {
		snap, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

func (t *storeTx) InsertFixedDeposit(fd finapp.FixedDeposit) (int64, error) {
	res, err := t.tx.Exec(`INSERT INTO fixed_deposits
		(bank, amount, interest_rate, start_date, maturity_date, total_interest_earned, status, closure_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		fd.Bank, fd.Principal.String(), fd.Rate.String(),
		fd.StartDate.String(), fd.MaturityDate.String(),
		fd.Interest.String(), fd.Status.String(), nullDate(fd.ClosureDate))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (t *storeTx) FixedDeposit(id int64) (finapp.FixedDeposit, error) {
	row := t.tx.QueryRow(`SELECT id, bank, amount, interest_rate, start_date, maturity_date,
		total_interest_earned, status, closure_date
		FROM fixed_deposits WHERE id = ?`, id)
	fd, err := scanFixedDeposit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return finapp.FixedDeposit{}, finapp.ErrNotFound
	}
	return fd, err
}

func (t *storeTx) FixedDeposits() ([]finapp.FixedDeposit, error) {
	rows, err := t.tx.Query(`SELECT id, bank, amount, interest_rate, start_date, maturity_date,
		total_interest_earned, status, closure_date
		FROM fixed_deposits
		ORDER BY CASE status WHEN 'open' THEN 0 ELSE 1 END, start_date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fds []finapp.FixedDeposit
	for rows.Next() {
		fd, err := scanFixedDeposit(rows)
		if err != nil {
			return nil, err
		}
		fds = append(fds, fd)
	}
	return fds, rows.Err()
}

func (t *storeTx) UpdateFixedDeposit(fd finapp.FixedDeposit) error {
	res, err := t.tx.Exec(`UPDATE fixed_deposits SET
		bank = ?, amount = ?, interest_rate = ?, start_date = ?, maturity_date = ?,
		total_interest_earned = ?, status = ?, closure_date = ?
		WHERE id = ?`,
		fd.Bank, fd.Principal.String(), fd.Rate.String(),
		fd.StartDate.String(), fd.MaturityDate.String(),
		fd.Interest.String(), fd.Status.String(), nullDate(fd.ClosureDate), fd.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return finapp.ErrNotFound
	}
	return nil
}

// TotalInterestEarned sums interest of closed deposits in Go to keep the
// decimal arithmetic exact.
func (t *storeTx) TotalInterestEarned() (decimal.Decimal, error) {
	rows, err := t.tx.Query(`SELECT total_interest_earned FROM fixed_deposits WHERE status = 'closed'`)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return decimal.Zero, err
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(d)
	}
	return total, rows.Err()
}

// scanner is the shared subset of sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInstrument(row scanner) (finapp.Instrument, error) {
	var inst finapp.Instrument
	var code, nav, updated sql.NullString
	if err := row.Scan(&inst.Name, &code, &nav, &updated); err != nil {
		return finapp.Instrument{}, err
	}
	inst.Code = code.String
	if nav.Valid {
		price, err := decimal.NewFromString(nav.String)
		if err != nil {
			return finapp.Instrument{}, fmt.Errorf("corrupt price %q for fund %q: %w", nav.String, inst.Name, err)
		}
		inst.Price = price
	}
	if updated.Valid {
		ts, err := time.ParseInLocation(timeFormat, updated.String, time.Local)
		if err != nil {
			return finapp.Instrument{}, fmt.Errorf("corrupt last_updated %q for fund %q: %w", updated.String, inst.Name, err)
		}
		inst.LastUpdated = ts
	}
	return inst, nil
}

func scanBalance(row scanner) (finapp.BalanceSnapshot, error) {
	var b finapp.BalanceSnapshot
	var date, closing string
	var narration, ref, withdrawal, deposit sql.NullString
	if err := row.Scan(&b.Bank, &date, &narration, &ref, &withdrawal, &deposit, &closing); err != nil {
		return finapp.BalanceSnapshot{}, err
	}
	var err error
	if b.Date, err = finapp.ParseDate(date); err != nil {
		return finapp.BalanceSnapshot{}, err
	}
	b.Narration = narration.String
	b.RefNo = ref.String
	if b.Withdrawal, err = scanNullDecimal(withdrawal); err != nil {
		return finapp.BalanceSnapshot{}, err
	}
	if b.Deposit, err = scanNullDecimal(deposit); err != nil {
		return finapp.BalanceSnapshot{}, err
	}
	if b.ClosingBalance, err = decimal.NewFromString(closing); err != nil {
		return finapp.BalanceSnapshot{}, err
	}
	return b, nil
}

func scanFixedDeposit(row scanner) (finapp.FixedDeposit, error) {
	var fd finapp.FixedDeposit
	var amount, rate, start, maturity, interest, status string
	var closure sql.NullString
	if err := row.Scan(&fd.ID, &fd.Bank, &amount, &rate, &start, &maturity, &interest, &status, &closure); err != nil {
		return finapp.FixedDeposit{}, err
	}
	var err error
	if fd.Principal, err = decimal.NewFromString(amount); err != nil {
		return finapp.FixedDeposit{}, err
	}
	if fd.Rate, err = decimal.NewFromString(rate); err != nil {
		return finapp.FixedDeposit{}, err
	}
	if fd.StartDate, err = finapp.ParseDate(start); err != nil {
		return finapp.FixedDeposit{}, err
	}
	if fd.MaturityDate, err = finapp.ParseDate(maturity); err != nil {
		return finapp.FixedDeposit{}, err
	}
	if fd.Interest, err = decimal.NewFromString(interest); err != nil {
		return finapp.FixedDeposit{}, err
	}
	if fd.Status, err = finapp.ParseDepositStatus(status); err != nil {
		return finapp.FixedDeposit{}, err
	}
	if closure.Valid {
		if fd.ClosureDate, err = finapp.ParseDate(closure.String); err != nil {
			return finapp.FixedDeposit{}, err
		}
	}
	return fd, nil
}

func nullDecimal(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

func scanNullDecimal(s sql.NullString) (decimal.NullDecimal, error) {
	if !s.Valid {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func nullDate(d finapp.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
