package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/mswastik/finapp"
	"github.com/mswastik/finapp/renderer"
)

type historyCmd struct {
	chart string
	fund  string
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "display portfolio value history" }
func (*historyCmd) Usage() string {
	return `history [-chart <out.png>] [-fund <name>]

  Displays the portfolio value over time, one point per transaction date plus
  a final point for today, holdings valued at current prices. With -chart the
  series is also written as a PNG line chart; -fund restricts the chart to one
  fund's series.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.chart, "chart", "", "write the value series as a PNG chart to this file")
	f.StringVar(&c.fund, "fund", "", "chart a single fund instead of the whole portfolio")
}

func (c *historyCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	report, err := computeReport()
	if err != nil {
		return fail("Error computing history: %v", err)
	}
	printMarkdown(renderer.HistoryMarkdown(report))

	if c.chart == "" {
		return subcommands.ExitSuccess
	}

	series, label := report.History, "Portfolio"
	if c.fund != "" {
		points, ok := report.FundHistory[c.fund]
		if !ok {
			return fail("no history for fund %q", c.fund)
		}
		series, label = points, c.fund
	}
	if err := writeChart(c.chart, label, series); err != nil {
		return fail("Error writing chart %q: %v", c.chart, err)
	}
	fmt.Printf("Chart written to %s\n", c.chart)
	return subcommands.ExitSuccess
}

// writeChart renders a value series as a PNG line chart.
func writeChart(path, label string, points []finapp.ValuePoint) error {
	if len(points) < 2 {
		return fmt.Errorf("need at least two points, got %d", len(points))
	}
	xs := make([]time.Time, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.Date.Time()
		ys[i] = p.Value.InexactFloat64()
	}

	graph := chart.Chart{
		Title: label,
		XAxis: chart.XAxis{ValueFormatter: chart.TimeDateValueFormatter},
		Series: []chart.Series{
			chart.TimeSeries{Name: label, XValues: xs, YValues: ys},
		},
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return graph.Render(chart.PNG, f)
}
