// Package cmd implements the CLI application to manage the ledger.
package cmd

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"github.com/mswastik/finapp"
	"github.com/mswastik/finapp/sqlstore"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&importCmd{}, "statements")

	c.Register(&performanceCmd{}, "reports")
	c.Register(&historyCmd{}, "reports")
	c.Register(&fundsCmd{}, "reports")
	c.Register(&transactionsCmd{}, "ledger")
	c.Register(&balancesCmd{}, "ledger")

	c.Register(&fdOpenCmd{}, "deposits")
	c.Register(&fdCloseCmd{}, "deposits")
	c.Register(&fdListCmd{}, "deposits")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var dbFile = flag.String("db-file", "finapp.db", "Path to the SQLite ledger database")
var catalogCache = flag.String("catalog-cache", filepath.Join(os.TempDir(), "finapp-catalog.json"), "Path to the fund catalog cache file")

// openStore opens the ledger database configured by -db-file.
func openStore() (*sqlstore.Store, error) {
	return sqlstore.Open(*dbFile)
}

// printMarkdown renders a markdown report to the terminal, falling back to
// the raw text when the terminal renderer fails.
func printMarkdown(md string) {
	out, err := glamour.RenderWithEnvironmentConfig(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// fail prints an error to stderr and returns the failure exit status.
func fail(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	return subcommands.ExitFailure
}

// readTx opens a read-only view of the ledger, runs fn, and rolls back.
func readTx(fn func(tx finapp.Tx) error) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	tx, err := store.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	return fn(tx)
}

// writeTx opens a ledger transaction, runs fn, and commits.
func writeTx(fn func(tx finapp.Tx) error) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	tx, err := store.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
