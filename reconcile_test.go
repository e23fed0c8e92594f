package finapp

import (
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory Store for reconciliation tests. Writes are
// buffered in the Tx and only reach the store on Commit.
type fakeStore struct {
	txs         []Transaction
	balances    []BalanceSnapshot
	instruments map[string]Instrument
	deposits    map[int64]FixedDeposit
	nextID      int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		instruments: make(map[string]Instrument),
		deposits:    make(map[int64]FixedDeposit),
	}
}

func (s *fakeStore) Begin() (Tx, error) {
	return &fakeTx{
		store:       s,
		instruments: make(map[string]Instrument),
		deposits:    make(map[int64]FixedDeposit),
	}, nil
}

type fakeTx struct {
	store       *fakeStore
	txs         []Transaction
	balances    []BalanceSnapshot
	instruments map[string]Instrument
	deposits    map[int64]FixedDeposit
	done        bool
}

func (t *fakeTx) Commit() error {
	t.store.txs = append(t.store.txs, t.txs...)
	t.store.balances = append(t.store.balances, t.balances...)
	for name, inst := range t.instruments {
		t.store.instruments[name] = inst
	}
	for id, fd := range t.deposits {
		t.store.deposits[id] = fd
	}
	t.done = true
	return nil
}

func (t *fakeTx) Rollback() error { t.done = true; return nil }

func (t *fakeTx) InsertTransaction(x Transaction) error {
	t.txs = append(t.txs, x)
	return nil
}

func (t *fakeTx) InsertBalance(b BalanceSnapshot) error {
	t.balances = append(t.balances, b)
	return nil
}

func (t *fakeTx) InsertFixedDeposit(fd FixedDeposit) (int64, error) {
	t.store.nextID++
	fd.ID = t.store.nextID
	t.deposits[fd.ID] = fd
	return fd.ID, nil
}

func (t *fakeTx) UpsertInstrument(i Instrument) error {
	t.instruments[i.Name] = i
	return nil
}

func (t *fakeTx) Instrument(name string) (Instrument, error) {
	if inst, ok := t.instruments[name]; ok {
		return inst, nil
	}
	if inst, ok := t.store.instruments[name]; ok {
		return inst, nil
	}
	return Instrument{}, ErrNotFound
}

func (t *fakeTx) Instruments() ([]Instrument, error) {
	seen := make(map[string]Instrument)
	for name, inst := range t.store.instruments {
		seen[name] = inst
	}
	for name, inst := range t.instruments {
		seen[name] = inst
	}
	var all []Instrument
	for _, inst := range seen {
		all = append(all, inst)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

func (t *fakeTx) visible() []Transaction {
	all := append(append([]Transaction(nil), t.store.txs...), t.txs...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].Timestamp.Before(all[j].Timestamp) })
	return all
}

func (t *fakeTx) LatestTransactionTime(fund string) (time.Time, bool, error) {
	var max time.Time
	var found bool
	for _, x := range t.visible() {
		if x.FundName == fund && x.Timestamp.After(max) {
			max, found = x.Timestamp, true
		}
	}
	return max, found, nil
}

func (t *fakeTx) LatestBalance(bank string) (BalanceSnapshot, bool, error) {
	var best BalanceSnapshot
	var found bool
	for _, b := range append(append([]BalanceSnapshot(nil), t.store.balances...), t.balances...) {
		if b.Bank != bank {
			continue
		}
		if !found || b.Date.After(best.Date) {
			best, found = b, true
		}
	}
	return best, found, nil
}

func (t *fakeTx) Transactions() ([]Transaction, error) { return t.visible(), nil }

func (t *fakeTx) LastTransactions(n int) ([]Transaction, error) {
	all := t.visible()
	sort.SliceStable(all, func(i, j int) bool { return all[i].Timestamp.After(all[j].Timestamp) })
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

func (t *fakeTx) LastBalances(n int) ([]BalanceSnapshot, error) {
	all := append(append([]BalanceSnapshot(nil), t.store.balances...), t.balances...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].Date.After(all[j].Date) })
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

func (t *fakeTx) FixedDeposit(id int64) (FixedDeposit, error) {
	if fd, ok := t.deposits[id]; ok {
		return fd, nil
	}
	if fd, ok := t.store.deposits[id]; ok {
		return fd, nil
	}
	return FixedDeposit{}, ErrNotFound
}

func (t *fakeTx) FixedDeposits() ([]FixedDeposit, error) {
	var all []FixedDeposit
	for _, fd := range t.store.deposits {
		all = append(all, fd)
	}
	for _, fd := range t.deposits {
		all = append(all, fd)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (t *fakeTx) UpdateFixedDeposit(fd FixedDeposit) error {
	if _, err := t.FixedDeposit(fd.ID); err != nil {
		return err
	}
	t.deposits[fd.ID] = fd
	return nil
}

func (t *fakeTx) TotalInterestEarned() (decimal.Decimal, error) {
	total := decimal.Zero
	all, _ := t.FixedDeposits()
	for _, fd := range all {
		if fd.Status == DepositClosed {
			total = total.Add(fd.Interest)
		}
	}
	return total, nil
}

// fakePrices is a canned PriceSource.
type fakePrices struct {
	prices map[string]decimal.Decimal
	err    error
}

func (p fakePrices) CurrentPrice(code string) (decimal.Decimal, error) {
	if p.err != nil {
		return decimal.Zero, p.err
	}
	if price, ok := p.prices[code]; ok {
		return price, nil
	}
	return decimal.Zero, ErrPriceUnavailable
}

func tx(fund string, kind TransactionKind, amount, units int64, ts time.Time) Transaction {
	a, u := decimal.NewFromInt(amount), decimal.NewFromInt(units)
	return Transaction{
		FundName:  fund,
		Kind:      kind,
		Amount:    a,
		Units:     u,
		Price:     a.Abs().Div(u),
		Timestamp: ts,
	}
}

func TestReconcileStagesOnlyStrictlyNewerRows(t *testing.T) {
	t1 := time.Date(2025, 1, 10, 9, 30, 0, 0, time.Local)
	t2 := time.Date(2025, 2, 10, 9, 30, 0, 0, time.Local)

	store := newFakeStore()
	store.txs = []Transaction{tx("Alpha", Buy, 1000, 100, t1)}
	store.balances = []BalanceSnapshot{{
		Bank:           "HDFC",
		Date:           NewDate(2025, 1, 15),
		ClosingBalance: decimal.NewFromInt(5000),
	}}

	parsed := ParsedStatement{
		Transactions: []Transaction{
			tx("Alpha", Buy, 1000, 100, t1), // same timestamp, dropped
			tx("Alpha", Buy, 500, 50, t2),
			tx("Beta", Buy, 200, 20, t1), // new fund, everything staged
		},
		Balances: []BalanceSnapshot{
			{Bank: "HDFC", Date: NewDate(2025, 1, 15), ClosingBalance: decimal.NewFromInt(5000)}, // same date, dropped
			{Bank: "HDFC", Date: NewDate(2025, 1, 20), ClosingBalance: decimal.NewFromInt(7000)},
		},
	}

	rec := &Reconciler{Store: store}
	res := rec.Reconcile(parsed, false)
	if !res.Success {
		t.Fatalf("reconcile failed: %s", res.Error)
	}
	if len(res.NewTransactions) != 2 {
		t.Fatalf("staged %d transactions, want 2", len(res.NewTransactions))
	}
	// staged rows are sorted by timestamp ascending
	if res.NewTransactions[0].FundName != "Beta" || res.NewTransactions[1].FundName != "Alpha" {
		t.Errorf("staged order: %s then %s", res.NewTransactions[0].FundName, res.NewTransactions[1].FundName)
	}
	if len(res.NewBalances) != 1 || res.NewBalances[0].Date != NewDate(2025, 1, 20) {
		t.Errorf("staged balances: %+v", res.NewBalances)
	}
	if res.RunID == "" {
		t.Error("result should carry a run id")
	}
}

func TestReconcilePreviewPersistsNothing(t *testing.T) {
	store := newFakeStore()
	parsed := ParsedStatement{
		Transactions: []Transaction{tx("Alpha", Buy, 1000, 100, time.Date(2025, 1, 10, 0, 0, 0, 0, time.Local))},
	}

	rec := &Reconciler{Store: store}
	res := rec.Reconcile(parsed, false)
	if !res.Success || res.Committed {
		t.Fatalf("preview result: %+v", res)
	}
	if len(store.txs) != 0 || len(store.instruments) != 0 {
		t.Errorf("preview mutated the store: %d txs, %d instruments", len(store.txs), len(store.instruments))
	}
}

func TestReconcileCommitMatchesPreview(t *testing.T) {
	t1 := time.Date(2025, 1, 10, 0, 0, 0, 0, time.Local)
	t2 := time.Date(2025, 2, 10, 0, 0, 0, 0, time.Local)

	store := newFakeStore()
	store.txs = []Transaction{tx("Alpha", Buy, 1000, 100, t1)}
	parsed := ParsedStatement{
		Transactions: []Transaction{
			tx("Alpha", Buy, 1000, 100, t1),
			tx("Alpha", Sell, -480, 40, t2),
		},
	}

	rec := &Reconciler{Store: store}
	preview := rec.Reconcile(parsed, false)
	if !preview.Success {
		t.Fatalf("preview failed: %s", preview.Error)
	}

	commit := rec.Reconcile(parsed, true)
	if !commit.Success || !commit.Committed {
		t.Fatalf("commit result: %+v", commit)
	}
	if len(commit.NewTransactions) != len(preview.NewTransactions) {
		t.Fatalf("commit staged %d, preview staged %d", len(commit.NewTransactions), len(preview.NewTransactions))
	}
	for i := range commit.NewTransactions {
		if !commit.NewTransactions[i].Timestamp.Equal(preview.NewTransactions[i].Timestamp) {
			t.Errorf("commit row %d differs from preview", i)
		}
	}
	if len(store.txs) != 2 {
		t.Errorf("store has %d transactions, want 2", len(store.txs))
	}

	// a re-run of the same statement is a no-op
	again := rec.Reconcile(parsed, true)
	if !again.Success || len(again.NewTransactions) != 0 {
		t.Errorf("re-import staged %d rows", len(again.NewTransactions))
	}
	if len(store.txs) != 2 {
		t.Errorf("re-import grew the store to %d transactions", len(store.txs))
	}
}

func TestReconcileResolvesNewInstruments(t *testing.T) {
	store := newFakeStore()
	parsed := ParsedStatement{
		Transactions: []Transaction{tx("Alpha Growth Fund", Buy, 1000, 100, time.Date(2025, 1, 10, 0, 0, 0, 0, time.Local))},
	}
	rec := &Reconciler{
		Store:    store,
		Resolver: NewResolver(Catalog{"alpha growth fund": "100001"}),
		Prices:   fakePrices{prices: map[string]decimal.Decimal{"100001": decimal.RequireFromString("12.5")}},
	}

	res := rec.Reconcile(parsed, true)
	if !res.Success {
		t.Fatalf("reconcile failed: %s", res.Error)
	}
	inst := store.instruments["Alpha Growth Fund"]
	if inst.Code != "100001" {
		t.Errorf("code = %q", inst.Code)
	}
	if !inst.Price.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("price = %s", inst.Price)
	}
	if inst.LastUpdated.IsZero() {
		t.Error("LastUpdated should be set after a successful lookup")
	}
}

func TestReconcileNeverOverwritesIdentifier(t *testing.T) {
	store := newFakeStore()
	store.instruments["Alpha Growth Fund"] = Instrument{Name: "Alpha Growth Fund", Code: "999999"}

	parsed := ParsedStatement{
		Transactions: []Transaction{tx("Alpha Growth Fund", Buy, 1000, 100, time.Date(2025, 1, 10, 0, 0, 0, 0, time.Local))},
	}
	rec := &Reconciler{
		Store:    store,
		Resolver: NewResolver(Catalog{"alpha growth fund": "100001"}),
		Prices:   fakePrices{err: ErrPriceUnavailable},
	}

	res := rec.Reconcile(parsed, true)
	if !res.Success {
		t.Fatalf("reconcile failed: %s", res.Error)
	}
	if code := store.instruments["Alpha Growth Fund"].Code; code != "999999" {
		t.Errorf("existing identifier overwritten to %q", code)
	}
}

func TestReconcileKeepsStalePriceOnLookupFailure(t *testing.T) {
	stale := decimal.RequireFromString("11.1")
	store := newFakeStore()
	store.instruments["Alpha Growth Fund"] = Instrument{Name: "Alpha Growth Fund", Code: "100001", Price: stale}

	parsed := ParsedStatement{
		Transactions: []Transaction{tx("Alpha Growth Fund", Buy, 1000, 100, time.Date(2025, 1, 10, 0, 0, 0, 0, time.Local))},
	}
	rec := &Reconciler{Store: store, Prices: fakePrices{err: ErrPriceUnavailable}}

	res := rec.Reconcile(parsed, true)
	if !res.Success {
		t.Fatalf("reconcile failed: %s", res.Error)
	}
	if price := store.instruments["Alpha Growth Fund"].Price; !price.Equal(stale) {
		t.Errorf("price = %s, want stale %s", price, stale)
	}
}

func TestReconcileBankRows(t *testing.T) {
	store := newFakeStore()
	store.balances = []BalanceSnapshot{{
		Bank:           "HDFC",
		Date:           NewDate(2025, 2, 1),
		ClosingBalance: decimal.NewFromInt(1000),
	}}

	parsed := ParsedStatement{
		BankLabel: "HDFC",
		BankRows: []BankRow{
			{Date: NewDate(2025, 2, 1), Kind: "CR", Amount: decimal.NewFromInt(999)}, // not newer, dropped
			{Date: NewDate(2025, 2, 3), Kind: "CR", Amount: decimal.NewFromInt(5000)},
			{Date: NewDate(2025, 2, 5), Kind: "DR", Amount: decimal.NewFromInt(2000)},
		},
	}

	rec := &Reconciler{Store: store}
	res := rec.Reconcile(parsed, false)
	if !res.Success {
		t.Fatalf("reconcile failed: %s", res.Error)
	}
	if len(res.NewBalances) != 2 {
		t.Fatalf("staged %d balances, want 2", len(res.NewBalances))
	}
	// running balance is seeded from the persisted closing balance
	if !res.NewBalances[0].ClosingBalance.Equal(decimal.NewFromInt(6000)) {
		t.Errorf("credit closing = %s, want 6000", res.NewBalances[0].ClosingBalance)
	}
	if !res.NewBalances[1].ClosingBalance.Equal(decimal.NewFromInt(4000)) {
		t.Errorf("debit closing = %s, want 4000", res.NewBalances[1].ClosingBalance)
	}
}

func TestReconcileBankRowsWithoutLabel(t *testing.T) {
	store := newFakeStore()
	parsed := ParsedStatement{
		BankRows: []BankRow{{Date: NewDate(2025, 2, 3), Kind: "CR", Amount: decimal.NewFromInt(5000)}},
	}
	res := (&Reconciler{Store: store}).Reconcile(parsed, false)
	if res.Success {
		t.Error("bank rows without a label should fail")
	}
}
