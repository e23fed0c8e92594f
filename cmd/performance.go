package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/mswastik/finapp"
	"github.com/mswastik/finapp/renderer"
)

type performanceCmd struct{}

func (*performanceCmd) Name() string     { return "performance" }
func (*performanceCmd) Synopsis() string { return "display portfolio performance and returns" }
func (*performanceCmd) Usage() string {
	return `performance

  Replays the transaction ledger and displays per-fund holdings, cost basis,
  realized and unrealized gains and the annualized money-weighted return,
  valued at each fund's current price.
`
}

func (*performanceCmd) SetFlags(*flag.FlagSet) {}

func (*performanceCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	report, err := computeReport()
	if err != nil {
		return fail("Error computing performance: %v", err)
	}
	printMarkdown(renderer.PerformanceMarkdown(report))
	return subcommands.ExitSuccess
}

// computeReport loads the full ledger and runs the valuation engine.
func computeReport() (*finapp.PerformanceReport, error) {
	var report *finapp.PerformanceReport
	err := readTx(func(tx finapp.Tx) error {
		txs, err := tx.Transactions()
		if err != nil {
			return err
		}
		instruments, err := tx.Instruments()
		if err != nil {
			return err
		}
		report = finapp.ComputePerformance(txs, instruments)
		return nil
	})
	return report, err
}
