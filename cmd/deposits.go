package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/mswastik/finapp"
	"github.com/mswastik/finapp/renderer"
)

type fdOpenCmd struct {
	bank     string
	amount   string
	rate     string
	start    string
	duration int
	unit     string
}

func (*fdOpenCmd) Name() string     { return "fd-open" }
func (*fdOpenCmd) Synopsis() string { return "record a new fixed deposit" }
func (*fdOpenCmd) Usage() string {
	return `fd-open -bank <name> -amount <principal> -rate <percent> -duration <n> [-unit days|months|years] [-start <date>]

  Opens a fixed deposit record. The maturity date is derived from the
  duration; interest accrues only when the deposit is closed.
`
}

func (c *fdOpenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.bank, "bank", "", "bank holding the deposit")
	f.StringVar(&c.amount, "amount", "", "principal amount")
	f.StringVar(&c.rate, "rate", "", "annual interest rate in percent")
	f.StringVar(&c.start, "start", finapp.Today().String(), "start date")
	f.IntVar(&c.duration, "duration", 0, "deposit term length")
	f.StringVar(&c.unit, "unit", "days", "term unit: days, months or years")
}

func (c *fdOpenCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.bank == "" || c.amount == "" || c.rate == "" || c.duration <= 0 {
		fmt.Fprintln(os.Stderr, "-bank, -amount, -rate and -duration are required")
		return subcommands.ExitUsageError
	}
	principal, err := decimal.NewFromString(c.amount)
	if err != nil {
		return fail("invalid amount %q: %v", c.amount, err)
	}
	rate, err := decimal.NewFromString(c.rate)
	if err != nil {
		return fail("invalid rate %q: %v", c.rate, err)
	}
	start, err := finapp.ParseDate(c.start)
	if err != nil {
		return fail("invalid start date %q: %v", c.start, err)
	}

	fd, err := finapp.NewFixedDeposit(c.bank, principal, rate, start, c.duration, c.unit)
	if err != nil {
		return fail("cannot open deposit: %v", err)
	}

	var id int64
	err = writeTx(func(tx finapp.Tx) error {
		id, err = tx.InsertFixedDeposit(fd)
		return err
	})
	if err != nil {
		return fail("Error saving deposit: %v", err)
	}
	fmt.Printf("Opened deposit %d at %s, maturing %s\n", id, c.bank, fd.MaturityDate)
	return subcommands.ExitSuccess
}

type fdCloseCmd struct {
	id int64
	on string
}

func (*fdCloseCmd) Name() string     { return "fd-close" }
func (*fdCloseCmd) Synopsis() string { return "close a fixed deposit and realize its interest" }
func (*fdCloseCmd) Usage() string {
	return `fd-close -id <deposit> [-on <date>]

  Closes an open deposit, computing simple interest for the days actually
  elapsed. Closing is one-way; a closed deposit cannot be reopened.
`
}

func (c *fdCloseCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.id, "id", 0, "deposit id to close")
	f.StringVar(&c.on, "on", finapp.Today().String(), "closure date")
}

func (c *fdCloseCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == 0 {
		fmt.Fprintln(os.Stderr, "-id is required")
		return subcommands.ExitUsageError
	}
	on, err := finapp.ParseDate(c.on)
	if err != nil {
		return fail("invalid closure date %q: %v", c.on, err)
	}

	var fd finapp.FixedDeposit
	err = writeTx(func(tx finapp.Tx) error {
		var err error
		fd, err = tx.FixedDeposit(c.id)
		if err != nil {
			return err
		}
		if err := fd.Close(on); err != nil {
			return err
		}
		return tx.UpdateFixedDeposit(fd)
	})
	if err != nil {
		return fail("Error closing deposit %d: %v", c.id, err)
	}
	fmt.Printf("Closed deposit %d on %s, interest earned %s\n", c.id, on, finapp.M(fd.Interest))
	return subcommands.ExitSuccess
}

type fdListCmd struct{}

func (*fdListCmd) Name() string     { return "fd-list" }
func (*fdListCmd) Synopsis() string { return "list fixed deposits" }
func (*fdListCmd) Usage() string {
	return `fd-list

  Lists all fixed deposits, open ones first, with the total interest earned
  across closed deposits.
`
}

func (*fdListCmd) SetFlags(*flag.FlagSet) {}

func (*fdListCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var fds []finapp.FixedDeposit
	var total decimal.Decimal
	err := readTx(func(tx finapp.Tx) error {
		var err error
		if fds, err = tx.FixedDeposits(); err != nil {
			return err
		}
		total, err = tx.TotalInterestEarned()
		return err
	})
	if err != nil {
		return fail("Error listing deposits: %v", err)
	}
	printMarkdown(renderer.DepositsMarkdown(fds, total))
	return subcommands.ExitSuccess
}
