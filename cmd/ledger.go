package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/mswastik/finapp"
	"github.com/mswastik/finapp/renderer"
)

type fundsCmd struct{}

func (*fundsCmd) Name() string     { return "funds" }
func (*fundsCmd) Synopsis() string { return "list known funds and their price status" }
func (*fundsCmd) Usage() string {
	return `funds

  Lists every fund sighted in a statement, its resolved catalog code and the
  last fetched price.
`
}

func (*fundsCmd) SetFlags(*flag.FlagSet) {}

func (*fundsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var instruments []finapp.Instrument
	err := readTx(func(tx finapp.Tx) error {
		var err error
		instruments, err = tx.Instruments()
		return err
	})
	if err != nil {
		return fail("Error listing funds: %v", err)
	}
	printMarkdown(renderer.InstrumentsMarkdown(instruments))
	return subcommands.ExitSuccess
}

type transactionsCmd struct {
	last int
}

func (*transactionsCmd) Name() string     { return "transactions" }
func (*transactionsCmd) Synopsis() string { return "list ledger transactions" }
func (*transactionsCmd) Usage() string {
	return `transactions [-n <count>]

  Lists fund transactions, the whole ledger by default or the n most
  recent ones.
`
}

func (c *transactionsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.last, "n", 0, "show only the n most recent transactions")
}

func (c *transactionsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var txs []finapp.Transaction
	err := readTx(func(tx finapp.Tx) error {
		var err error
		if c.last > 0 {
			txs, err = tx.LastTransactions(c.last)
		} else {
			txs, err = tx.Transactions()
		}
		return err
	})
	if err != nil {
		return fail("Error listing transactions: %v", err)
	}
	printMarkdown(renderer.TransactionsMarkdown(txs))
	return subcommands.ExitSuccess
}

type balancesCmd struct {
	last int
}

func (*balancesCmd) Name() string     { return "balances" }
func (*balancesCmd) Synopsis() string { return "list account balance history" }
func (*balancesCmd) Usage() string {
	return `balances [-n <count>]

  Lists the most recent account balance rows, newest first.
`
}

func (c *balancesCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.last, "n", 20, "show the n most recent balance rows")
}

func (c *balancesCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var snaps []finapp.BalanceSnapshot
	err := readTx(func(tx finapp.Tx) error {
		var err error
		snaps, err = tx.LastBalances(c.last)
		return err
	})
	if err != nil {
		return fail("Error listing balances: %v", err)
	}
	printMarkdown(renderer.BalancesMarkdown(snaps))
	return subcommands.ExitSuccess
}
