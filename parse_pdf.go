package finapp

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/shopspring/decimal"
)

// Bank statement PDF column headers.
const (
	pdfColDate        = "Date"
	pdfColDescription = "Description"
	pdfColType        = "Type"
	pdfColAmount      = "Amount"
	pdfColRef         = "Ref"
)

// BankRow is one raw transaction line from a bank statement PDF, before the
// running closing balance is reconstructed.
type BankRow struct {
	Date        Date
	Description string
	Ref         string
	Kind        string // "DR" or "CR"
	Amount      decimal.Decimal
}

// column is one entry of the positional template inferred from page 1.
type column struct {
	name string
	x    float64 // left edge of the header cell
}

const (
	// lineTolerance groups words whose Y coordinates differ by less than
	// this many points onto the same text line.
	lineTolerance = 2.0
	// cellGap is the horizontal gap, in points, that separates two cells of
	// the header row during template inference.
	cellGap = 12.0
	// columnSlack lets a data word start slightly left of its column edge.
	columnSlack = 2.0
)

// nonNumeric matches every character stripped from an amount cell before
// numeric coercion.
var nonNumeric = regexp.MustCompile(`[^0-9.\-]`)

// cleanAmount coerces a statement amount cell ("1,234.50 Cr", "₹ 300.00")
// into a decimal.
func cleanAmount(s string) (decimal.Decimal, error) {
	cleaned := nonNumeric.ReplaceAllString(s, "")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("amount %q has no digits", s)
	}
	return decimal.NewFromString(cleaned)
}

// textLine is one visual row of words, sorted left to right.
type textLine []pdf.Text

// textLines groups a page's words into visual lines, top to bottom.
func textLines(p pdf.Page) []textLine {
	if p.V.IsNull() {
		return nil
	}
	words := p.Content().Text
	// PDF Y grows upward: sort by descending Y, then by X.
	sort.SliceStable(words, func(i, j int) bool {
		if words[i].Y != words[j].Y {
			return words[i].Y > words[j].Y
		}
		return words[i].X < words[j].X
	})

	var lines []textLine
	for _, w := range words {
		if strings.TrimSpace(w.S) == "" {
			continue
		}
		if n := len(lines); n > 0 && lines[n-1][0].Y-w.Y < lineTolerance {
			lines[n-1] = append(lines[n-1], w)
			continue
		}
		lines = append(lines, textLine{w})
	}
	return lines
}

// clusterCells splits a line into cells wherever the horizontal gap between
// two words exceeds cellGap. Used for template inference on header rows.
func clusterCells(line textLine) []column {
	var cells []column
	var text strings.Builder
	flush := func(x float64) {
		if text.Len() > 0 {
			cells = append(cells, column{name: strings.TrimSpace(text.String()), x: x})
			text.Reset()
		}
	}
	var startX, endX float64
	for _, w := range line {
		if text.Len() > 0 && w.X-endX > cellGap {
			flush(startX)
		}
		if text.Len() == 0 {
			startX = w.X
		} else {
			text.WriteByte(' ')
		}
		text.WriteString(w.S)
		endX = w.X + w.W
	}
	flush(startX)
	return cells
}

// isHeaderLine reports whether a clustered line looks like the statement's
// column header.
func isHeaderLine(cells []column) bool {
	var hasDate, hasAmount bool
	for _, c := range cells {
		switch c.name {
		case pdfColDate:
			hasDate = true
		case pdfColAmount:
			hasAmount = true
		}
	}
	return hasDate && hasAmount
}

// inferTemplate finds the header row on a page and returns it as a
// positional column template.
func inferTemplate(file string, lines []textLine) ([]column, error) {
	for _, line := range lines {
		cells := clusterCells(line)
		if isHeaderLine(cells) {
			for _, want := range []string{pdfColDate, pdfColDescription, pdfColType, pdfColAmount} {
				found := false
				for _, c := range cells {
					if c.name == want {
						found = true
						break
					}
				}
				if !found {
					return nil, parseErrorf(file, "missing expected column %q in PDF header", want)
				}
			}
			return cells, nil
		}
	}
	return nil, parseErrorf(file, "no header row found on first page")
}

// applyTemplate assigns each word of a line to the template column whose left
// edge is the closest one at or before the word, and joins words per column.
func applyTemplate(template []column, line textLine) []string {
	cells := make([]string, len(template))
	for _, w := range line {
		col := 0
		for i := range template {
			if template[i].x <= w.X+columnSlack {
				col = i
			}
		}
		if cells[col] != "" {
			cells[col] += " "
		}
		cells[col] += w.S
	}
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

// ParseBankPDF extracts bank transaction rows from a statement PDF. The
// password is required for encrypted statements and the parse fails closed
// when it is missing or wrong. The first page's header row is recovered as a
// positional column template which is then applied to every page; a page
// whose own header disagrees with the template is a ParseError rather than
// silently misaligned data. Rows are returned sorted by date ascending.
func ParseBankPDF(name, path, password string) ([]BankRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{File: name, Msg: "cannot open file", Err: err}
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, &ParseError{File: name, Msg: "cannot stat file", Err: err}
	}

	// NewReaderEncrypted retries the password func until it returns "";
	// offer the supplied password exactly once, then fail closed.
	asked := false
	r, err := pdf.NewReaderEncrypted(f, fi.Size(), func() string {
		if asked || password == "" {
			return ""
		}
		asked = true
		return password
	})
	if err != nil {
		return nil, &ParseError{File: name, Msg: "cannot decrypt PDF (missing or wrong password?)", Err: err}
	}

	firstPage := textLines(r.Page(1))
	template, err := inferTemplate(name, firstPage)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(template))
	for i, c := range template {
		index[c.name] = i
	}

	var rows []BankRow
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		lines := textLines(r.Page(pageNum))
		for _, line := range lines {
			cells := clusterCells(line)
			if isHeaderLine(cells) {
				if len(cells) != len(template) {
					return nil, parseErrorf(name,
						"page %d header has %d columns, first page has %d", pageNum, len(cells), len(template))
				}
				continue
			}

			fields := applyTemplate(template, line)
			on, err := ParseDate(fields[index[pdfColDate]])
			if err != nil {
				continue // page furniture, totals, carried-over narration
			}
			kind := strings.ToUpper(strings.TrimSpace(fields[index[pdfColType]]))
			if kind != "DR" && kind != "CR" {
				log.Printf("skipping %s row with unknown type %q", on, kind)
				continue
			}
			amount, err := cleanAmount(fields[index[pdfColAmount]])
			if err != nil {
				return nil, &ParseError{File: name, Msg: fmt.Sprintf("page %d", pageNum), Err: err}
			}

			row := BankRow{
				Date:        on,
				Description: fields[index[pdfColDescription]],
				Kind:        kind,
				Amount:      amount,
			}
			if i, ok := index[pdfColRef]; ok {
				row.Ref = fields[i]
			}
			rows = append(rows, row)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows, nil
}

// BuildBankSnapshots reconstructs balance snapshots from raw bank rows. The
// closing balance is seeded from the last persisted balance for the account
// and accumulated as a running sum of signed net flow, debits negating the
// amount. The result mirrors the statement's credit/debit partition:
// deposit-only snapshots first, then withdrawal-only ones, each carrying the
// running balance as of its position in chronological order.
func BuildBankSnapshots(bank string, rows []BankRow, opening decimal.Decimal) []BalanceSnapshot {
	closings := make([]decimal.Decimal, len(rows))
	running := opening
	for i, row := range rows {
		net := row.Amount
		if row.Kind == "DR" {
			net = net.Neg()
		}
		running = running.Add(net)
		closings[i] = running
	}

	snaps := make([]BalanceSnapshot, 0, len(rows))
	for _, kind := range []string{"CR", "DR"} {
		for i, row := range rows {
			if row.Kind != kind {
				continue
			}
			snap := BalanceSnapshot{
				Bank:           bank,
				Date:           row.Date,
				Narration:      row.Description,
				RefNo:          row.Ref,
				ClosingBalance: closings[i],
			}
			if kind == "CR" {
				snap.Deposit = decimal.NewNullDecimal(row.Amount)
			} else {
				snap.Withdrawal = decimal.NewNullDecimal(row.Amount)
			}
			snaps = append(snaps, snap)
		}
	}
	return snaps
}
