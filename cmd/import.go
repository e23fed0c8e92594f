package cmd

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"

	"github.com/mswastik/finapp"
	"github.com/mswastik/finapp/renderer"
)

type importCmd struct {
	funds    string
	balances string
	sheet    string
	bank     string
	password string
	commit   bool
}

func (*importCmd) Name() string { return "import" }
func (*importCmd) Synopsis() string {
	return "parse statement files and reconcile them with the ledger"
}
func (*importCmd) Usage() string {
	return `import [-funds <file.xlsx>] [-balances <file.xlsx|file.pdf>] [-commit]

  Parses a brokerage fund statement and/or a bank balance statement, stages
  the rows not yet in the ledger, and shows a preview. With -commit the
  staged rows are persisted atomically; the commit writes exactly what the
  preview showed.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.funds, "funds", "", "fund statement workbook (xlsx)")
	f.StringVar(&c.balances, "balances", "", "balance statement, workbook (xlsx) or bank statement (pdf)")
	f.StringVar(&c.sheet, "sheet", finapp.DefaultFundSheet, "sheet holding fund transactions in the workbook")
	f.StringVar(&c.bank, "bank", "", "account label for PDF bank rows (default: statement file name)")
	f.StringVar(&c.password, "password", "", "password of an encrypted PDF statement")
	f.BoolVar(&c.commit, "commit", false, "persist the staged rows instead of previewing")
}

func (c *importCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.funds == "" && c.balances == "" {
		fmt.Fprintln(os.Stderr, "at least one of -funds or -balances must be provided")
		return subcommands.ExitUsageError
	}

	// A parse failure in one file does not discard the other one.
	var parsed finapp.ParsedStatement
	var parseFailures int

	if c.funds != "" {
		txs, err := c.parseFunds()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			parseFailures++
		}
		parsed.Transactions = txs
	}
	if c.balances != "" {
		if err := c.parseBalances(&parsed); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			parseFailures++
		}
	}
	if len(parsed.Transactions) == 0 && len(parsed.Balances) == 0 && len(parsed.BankRows) == 0 {
		if parseFailures > 0 {
			return subcommands.ExitFailure
		}
		fmt.Println("Nothing to import.")
		return subcommands.ExitSuccess
	}

	store, err := openStore()
	if err != nil {
		return fail("Error opening ledger: %v", err)
	}
	defer store.Close()

	rec := &finapp.Reconciler{Store: store}
	if len(parsed.Transactions) > 0 {
		prices := finapp.NewCatalogPrices()
		catalog, err := finapp.LoadCatalog(*catalogCache, prices.Client)
		if err != nil {
			log.Printf("catalog unavailable, funds will stay unresolved: %v", err)
		} else {
			rec.Resolver = finapp.NewResolver(catalog)
			rec.Prices = prices
		}
	}

	res := rec.Reconcile(parsed, c.commit)
	printMarkdown(renderer.ReconcileMarkdown(res))
	if !res.Success || parseFailures > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *importCmd) parseFunds() ([]finapp.Transaction, error) {
	f, err := os.Open(c.funds)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return finapp.ParseFundStatement(filepath.Base(c.funds), f, c.sheet)
}

func (c *importCmd) parseBalances(parsed *finapp.ParsedStatement) error {
	name := filepath.Base(c.balances)
	if strings.EqualFold(filepath.Ext(c.balances), ".pdf") {
		rows, err := finapp.ParseBankPDF(name, c.balances, c.password)
		if err != nil {
			return err
		}
		label := c.bank
		if label == "" {
			label = strings.TrimSuffix(name, filepath.Ext(name))
		}
		parsed.BankRows = rows
		parsed.BankLabel = label
		return nil
	}

	f, err := os.Open(c.balances)
	if err != nil {
		return err
	}
	defer f.Close()
	snaps, err := finapp.ParseBalanceStatement(name, f)
	if err != nil {
		return err
	}
	parsed.Balances = snaps
	return nil
}
