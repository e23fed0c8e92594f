package renderer

import (
	"bytes"
	"fmt"
	"strconv"

	md "github.com/nao1215/markdown"
	"github.com/shopspring/decimal"

	"github.com/mswastik/finapp"
)

// DepositsMarkdown renders the fixed deposit register with the total
// interest earned across closed deposits.
func DepositsMarkdown(fds []finapp.FixedDeposit, totalInterest decimal.Decimal) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Fixed Deposits")

	table := md.TableSet{
		Header: []string{"ID", "Bank", "Principal", "Rate", "Start", "Maturity", "Status", "Closed On", "Interest"},
		Rows:   [][]string{},
	}
	for _, fd := range fds {
		closedOn, interest := "-", "-"
		if fd.Status == finapp.DepositClosed {
			closedOn = fd.ClosureDate.String()
			interest = finapp.M(fd.Interest).String()
		}
		table.Rows = append(table.Rows, []string{
			strconv.FormatInt(fd.ID, 10),
			fd.Bank,
			finapp.M(fd.Principal).String(),
			fd.Rate.String() + "%",
			fd.StartDate.String(),
			fd.MaturityDate.String(),
			fd.Status.String(),
			closedOn,
			interest,
		})
	}
	doc.Table(table)

	doc.PlainText(fmt.Sprintf("Total interest earned: %s", finapp.M(totalInterest)))
	return doc.String()
}
