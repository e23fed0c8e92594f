package renderer

import (
	"bytes"
	"fmt"

	md "github.com/nao1215/markdown"

	"github.com/mswastik/finapp"
)

// PerformanceMarkdown renders the portfolio valuation report.
func PerformanceMarkdown(r *finapp.PerformanceReport) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Portfolio Performance on %s", r.AsOf))
	doc.PlainText(fmt.Sprintf("Total Value: %s", finapp.M(r.TotalValue)))

	table := md.TableSet{
		Header: []string{"Fund", "Units", "Price", "Value", "Cost", "Unrealized", "Realized", "XIRR"},
		Rows:   [][]string{},
	}
	for _, f := range r.Funds {
		table.Rows = append(table.Rows, []string{
			f.Fund,
			units(f.Units),
			finapp.M(f.CurrentPrice).String(),
			finapp.M(f.CurrentValue).String(),
			finapp.M(f.CostBasis).String(),
			finapp.M(f.UnrealizedGain).SignedString(),
			finapp.M(f.RealizedGain).SignedString(),
			percent(f.XIRR),
		})
	}
	table.Rows = append(table.Rows, []string{
		"Total",
		"",
		"",
		finapp.M(r.TotalValue).String(),
		finapp.M(r.TotalCost).String(),
		finapp.M(r.TotalUnrealized).SignedString(),
		finapp.M(r.TotalRealized).SignedString(),
		percent(r.XIRR),
	})
	doc.Table(table)

	return doc.String()
}

// HistoryMarkdown renders the portfolio value series, newest last.
func HistoryMarkdown(r *finapp.PerformanceReport) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Portfolio Value History")

	table := md.TableSet{
		Header: []string{"Date", "Value"},
		Rows:   [][]string{},
	}
	for _, p := range r.History {
		table.Rows = append(table.Rows, []string{p.Date.String(), finapp.M(p.Value).String()})
	}
	doc.Table(table)

	return doc.String()
}

// InstrumentsMarkdown renders the known instruments and their price status.
func InstrumentsMarkdown(instruments []finapp.Instrument) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Funds")

	table := md.TableSet{
		Header: []string{"Fund", "Code", "Price", "Last Updated"},
		Rows:   [][]string{},
	}
	for _, inst := range instruments {
		code, updated := inst.Code, "-"
		if code == "" {
			code = "unresolved"
		}
		if !inst.LastUpdated.IsZero() {
			updated = inst.LastUpdated.Format("2006-01-02 15:04")
		}
		table.Rows = append(table.Rows, []string{
			inst.Name, code, finapp.M(inst.Price).String(), updated,
		})
	}
	doc.Table(table)

	return doc.String()
}
