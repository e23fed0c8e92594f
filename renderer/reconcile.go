package renderer

import (
	"bytes"
	"fmt"

	md "github.com/nao1215/markdown"

	"github.com/mswastik/finapp"
)

// ReconcileMarkdown renders the outcome of a reconciliation run: the staged
// rows, followed by the most recent persisted rows for context.
func ReconcileMarkdown(res *finapp.Result) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	if !res.Success {
		doc.H1("Import Failed")
		doc.PlainText(res.Error)
		return doc.String()
	}

	if res.Committed {
		doc.H1("Import Committed")
	} else {
		doc.H1("Import Preview")
	}
	doc.PlainText(fmt.Sprintf("Run %s: %d new transactions, %d new balance rows.",
		res.RunID, len(res.NewTransactions), len(res.NewBalances)))

	if len(res.NewTransactions) > 0 {
		doc.H2("New Transactions")
		doc.Table(transactionTable(res.NewTransactions))
	}
	if len(res.NewBalances) > 0 {
		doc.H2("New Balances")
		doc.Table(balanceTable(res.NewBalances))
	}
	if len(res.LastTransactions) > 0 {
		doc.H2("Recent Ledger Transactions")
		doc.Table(transactionTable(res.LastTransactions))
	}
	if len(res.LastBalances) > 0 {
		doc.H2("Recent Ledger Balances")
		doc.Table(balanceTable(res.LastBalances))
	}

	return doc.String()
}

// TransactionsMarkdown renders a plain transaction listing.
func TransactionsMarkdown(txs []finapp.Transaction) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Transactions")
	doc.Table(transactionTable(txs))
	return doc.String()
}

// BalancesMarkdown renders a plain balance listing.
func BalancesMarkdown(snaps []finapp.BalanceSnapshot) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Account Balances")
	doc.Table(balanceTable(snaps))
	return doc.String()
}

func transactionTable(txs []finapp.Transaction) md.TableSet {
	table := md.TableSet{
		Header: []string{"Timestamp", "Fund", "Kind", "Units", "Price", "Amount"},
		Rows:   [][]string{},
	}
	for _, t := range txs {
		table.Rows = append(table.Rows, []string{
			timestamp(t),
			t.FundName,
			t.Kind.String(),
			units(t.Units),
			finapp.M(t.Price).String(),
			finapp.M(t.Amount).String(),
		})
	}
	return table
}

func balanceTable(snaps []finapp.BalanceSnapshot) md.TableSet {
	table := md.TableSet{
		Header: []string{"Date", "Bank", "Narration", "Ref", "Withdrawal", "Deposit", "Closing"},
		Rows:   [][]string{},
	}
	for _, b := range snaps {
		table.Rows = append(table.Rows, []string{
			b.Date.String(),
			b.Bank,
			b.Narration,
			b.RefNo,
			optMoney(b.Withdrawal),
			optMoney(b.Deposit),
			finapp.M(b.ClosingBalance).String(),
		})
	}
	return table
}
