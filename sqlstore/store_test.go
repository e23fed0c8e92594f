package sqlstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mswastik/finapp"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestTransactionRoundTrip(t *testing.T) {
	s := newStore(t)
	tx, err := s.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	first := finapp.Transaction{
		FundName:  "Alpha Growth Fund",
		Kind:      finapp.Buy,
		Amount:    dec(t, "1000"),
		Units:     dec(t, "100"),
		Price:     dec(t, "10"),
		Timestamp: time.Date(2025, 1, 10, 9, 30, 0, 0, time.Local),
	}
	second := finapp.Transaction{
		FundName:  "Alpha Growth Fund",
		Kind:      finapp.Sell,
		Amount:    dec(t, "480"),
		Units:     dec(t, "40"),
		Price:     dec(t, "12"),
		Timestamp: time.Date(2025, 3, 5, 14, 0, 0, 0, time.Local),
	}
	require.NoError(t, tx.InsertTransaction(second))
	require.NoError(t, tx.InsertTransaction(first))

	got, err := tx.Transactions()
	require.NoError(t, err)
	require.Len(t, got, 2)
	// ascending timestamp order regardless of insertion order
	assert.Equal(t, finapp.Buy, got[0].Kind)
	assert.Equal(t, finapp.Sell, got[1].Kind)
	assert.True(t, got[0].Amount.Equal(first.Amount))
	assert.True(t, got[0].Price.Equal(first.Price))
	assert.True(t, got[0].Timestamp.Equal(first.Timestamp))

	last, err := tx.LastTransactions(1)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, finapp.Sell, last[0].Kind)

	ts, ok, err := tx.LatestTransactionTime("Alpha Growth Fund")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, ts.Equal(second.Timestamp))

	_, ok, err = tx.LatestTransactionTime("No Such Fund")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBalanceRoundTrip(t *testing.T) {
	s := newStore(t)
	tx, err := s.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	older := finapp.BalanceSnapshot{
		Bank:           "HDFC",
		Date:           finapp.NewDate(2025, 2, 1),
		Narration:      "NEFT CR",
		RefNo:          "N123",
		Deposit:        decimal.NewNullDecimal(dec(t, "5000")),
		ClosingBalance: dec(t, "15000"),
	}
	newer := finapp.BalanceSnapshot{
		Bank:           "HDFC",
		Date:           finapp.NewDate(2025, 2, 10),
		Narration:      "ATM WDL",
		Withdrawal:     decimal.NewNullDecimal(dec(t, "2000")),
		ClosingBalance: dec(t, "13000"),
	}
	require.NoError(t, tx.InsertBalance(older))
	require.NoError(t, tx.InsertBalance(newer))

	snap, ok, err := tx.LatestBalance("HDFC")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, finapp.NewDate(2025, 2, 10), snap.Date)
	assert.True(t, snap.ClosingBalance.Equal(dec(t, "13000")))
	assert.True(t, snap.Withdrawal.Valid)
	assert.False(t, snap.Deposit.Valid)

	_, ok, err = tx.LatestBalance("ICICI")
	require.NoError(t, err)
	assert.False(t, ok)

	last, err := tx.LastBalances(10)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "ATM WDL", last[0].Narration)
	assert.True(t, last[1].Deposit.Valid)
	assert.True(t, last[1].Deposit.Decimal.Equal(dec(t, "5000")))
}

func TestInstrumentUpsert(t *testing.T) {
	s := newStore(t)
	tx, err := s.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = tx.Instrument("Alpha Growth Fund")
	assert.ErrorIs(t, err, finapp.ErrNotFound)

	require.NoError(t, tx.UpsertInstrument(finapp.Instrument{Name: "Alpha Growth Fund"}))
	inst, err := tx.Instrument("Alpha Growth Fund")
	require.NoError(t, err)
	assert.Empty(t, inst.Code)
	assert.True(t, inst.Price.IsZero())

	updated := time.Date(2025, 6, 1, 18, 0, 0, 0, time.Local)
	require.NoError(t, tx.UpsertInstrument(finapp.Instrument{
		Name:        "Alpha Growth Fund",
		Code:        "120503",
		Price:       dec(t, "11.5"),
		LastUpdated: updated,
	}))
	inst, err = tx.Instrument("Alpha Growth Fund")
	require.NoError(t, err)
	assert.Equal(t, "120503", inst.Code)
	assert.True(t, inst.Price.Equal(dec(t, "11.5")))
	assert.True(t, inst.LastUpdated.Equal(updated))

	all, err := tx.Instruments()
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestFixedDepositLifecycle(t *testing.T) {
	s := newStore(t)
	tx, err := s.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	fd, err := finapp.NewFixedDeposit("SBI", dec(t, "100000"), dec(t, "6"), finapp.NewDate(2025, 1, 1), 365, "days")
	require.NoError(t, err)
	id, err := tx.InsertFixedDeposit(fd)
	require.NoError(t, err)
	require.NotZero(t, id)

	got, err := tx.FixedDeposit(id)
	require.NoError(t, err)
	assert.Equal(t, finapp.DepositOpen, got.Status)
	assert.Equal(t, finapp.NewDate(2026, 1, 1), got.MaturityDate)
	assert.True(t, got.ClosureDate.IsZero())

	require.NoError(t, got.Close(finapp.NewDate(2026, 1, 1)))
	require.NoError(t, tx.UpdateFixedDeposit(got))

	closed, err := tx.FixedDeposit(id)
	require.NoError(t, err)
	assert.Equal(t, finapp.DepositClosed, closed.Status)
	assert.True(t, closed.Interest.Equal(dec(t, "6000")), "interest %s", closed.Interest)
	assert.Equal(t, finapp.NewDate(2026, 1, 1), closed.ClosureDate)

	total, err := tx.TotalInterestEarned()
	require.NoError(t, err)
	assert.True(t, total.Equal(dec(t, "6000")))

	_, err = tx.FixedDeposit(id + 99)
	assert.ErrorIs(t, err, finapp.ErrNotFound)
	err = tx.UpdateFixedDeposit(finapp.FixedDeposit{ID: id + 99, Status: finapp.DepositClosed})
	assert.ErrorIs(t, err, finapp.ErrNotFound)
}

func TestFixedDepositsOrder(t *testing.T) {
	s := newStore(t)
	tx, err := s.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	open, err := finapp.NewFixedDeposit("SBI", dec(t, "50000"), dec(t, "7"), finapp.NewDate(2025, 5, 1), 1, "years")
	require.NoError(t, err)
	closed, err := finapp.NewFixedDeposit("HDFC", dec(t, "20000"), dec(t, "6"), finapp.NewDate(2024, 1, 1), 6, "months")
	require.NoError(t, err)
	require.NoError(t, closed.Close(finapp.NewDate(2024, 7, 1)))

	_, err = tx.InsertFixedDeposit(closed)
	require.NoError(t, err)
	_, err = tx.InsertFixedDeposit(open)
	require.NoError(t, err)

	fds, err := tx.FixedDeposits()
	require.NoError(t, err)
	require.Len(t, fds, 2)
	assert.Equal(t, finapp.DepositOpen, fds[0].Status)
	assert.Equal(t, finapp.DepositClosed, fds[1].Status)
}

func TestRollbackDiscardsWrites(t *testing.T) {
	s := newStore(t)

	tx, err := s.Begin()
	require.NoError(t, err)
	require.NoError(t, tx.InsertTransaction(finapp.Transaction{
		FundName:  "Alpha Growth Fund",
		Kind:      finapp.Buy,
		Amount:    dec(t, "100"),
		Units:     dec(t, "10"),
		Price:     dec(t, "10"),
		Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local),
	}))
	require.NoError(t, tx.Rollback())

	tx2, err := s.Begin()
	require.NoError(t, err)
	defer tx2.Rollback()
	got, err := tx2.Transactions()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRollbackAfterCommitIsNoop(t *testing.T) {
	s := newStore(t)
	tx, err := s.Begin()
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.NoError(t, tx.Rollback())
}
