package finapp

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// DefaultFundSheet is the sheet holding fund transactions in a brokerage
// statement workbook.
const DefaultFundSheet = "TXReport"

// fundHeaderRows is the number of preamble rows before the header row in a
// fund statement sheet.
const fundHeaderRows = 3

// Fund statement column headers.
const (
	colTradeDate   = "Trade Date"
	colFundName    = "Investment name"
	colBuyUnits    = "Buy units"
	colSellUnits   = "Sell units"
	colReinvUnits  = "Dividend reinvested units"
	colCashInflow  = "Cash inflow"
	colCashOutflow = "Cash outflow"
	colDividendAmt = "Dividend Amount"
	colBank        = "Bank"
	colDate        = "Date"
	colNarration   = "Narration"
	colRefNo       = "Chq./Ref.No."
	colWithdrawal  = "Withdrawal Amt."
	colDeposit     = "Deposit Amt."
	colClosingBal  = "Closing Balance"
)

// schema maps header names to their column index in a parsed sheet.
type schema map[string]int

// newSchema indexes a header row. Each required column that is absent yields
// an explicit error instead of a silent zero-default downstream.
func newSchema(file string, header []string, required ...string) (schema, error) {
	s := make(schema, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name != "" {
			s[name] = i
		}
	}
	for _, name := range required {
		if _, ok := s[name]; !ok {
			return nil, parseErrorf(file, "missing expected column %q", name)
		}
	}
	return s, nil
}

// cell returns the named column of a row, or "" when the row is short or the
// column unknown.
func (s schema) cell(row []string, name string) string {
	i, ok := s[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// decimalCell parses the named column as a decimal, stripping thousands
// separators. An empty cell is zero.
func (s schema) decimalCell(row []string, name string) (decimal.Decimal, error) {
	str := s.cell(row, name)
	if str == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(str, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("column %q: invalid number %q", name, str)
	}
	return d, nil
}

// timestampLayouts are the accepted execution timestamp formats of fund
// statement cells, as rendered by the spreadsheet library.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-01-2006 15:04:05",
	"02-01-2006",
	"1/2/06 15:04",
	"1/2/2006",
	"01-02-06",
	"02-Jan-2006",
}

// parseTimestamp parses a statement cell into a timezone-naive local time.
func parseTimestamp(str string) (time.Time, error) {
	str = strings.TrimSpace(str)
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, str, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", str)
}

// ParseFundStatement extracts fund transactions from a brokerage statement
// workbook. It reads the named sheet, skips the fixed preamble, and derives
// each row's kind from whichever of the three unit columns is positive:
// buy units pair with the cash inflow, sell units with the cash outflow, and
// reinvested units with the dividend amount. The per-unit price is derived as
// amount/units, using the absolute amount for sells so price stays positive.
// Rows with none of the three unit columns set are dropped.
func ParseFundStatement(name string, r io.Reader, sheet string) ([]Transaction, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{File: name, Msg: "cannot open workbook", Err: err}
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &ParseError{File: name, Msg: fmt.Sprintf("cannot read sheet %q", sheet), Err: err}
	}
	if len(rows) <= fundHeaderRows {
		return nil, parseErrorf(name, "sheet %q has no header row after %d preamble rows", sheet, fundHeaderRows)
	}

	// All three unit columns and their cash columns are required: a missing
	// reinvestment header would otherwise read as zero units and silently
	// drop every reinvestment row.
	s, err := newSchema(name, rows[fundHeaderRows],
		colTradeDate, colFundName, colBuyUnits, colSellUnits, colReinvUnits,
		colCashInflow, colCashOutflow, colDividendAmt)
	if err != nil {
		return nil, err
	}

	var txs []Transaction
	for i, row := range rows[fundHeaderRows+1:] {
		fund := s.cell(row, colFundName)
		if fund == "" {
			continue // blank or summary row
		}

		buy, err := s.decimalCell(row, colBuyUnits)
		if err != nil {
			return nil, &ParseError{File: name, Msg: fmt.Sprintf("row %d", i+fundHeaderRows+2), Err: err}
		}
		sell, err := s.decimalCell(row, colSellUnits)
		if err != nil {
			return nil, &ParseError{File: name, Msg: fmt.Sprintf("row %d", i+fundHeaderRows+2), Err: err}
		}
		reinv, err := s.decimalCell(row, colReinvUnits)
		if err != nil {
			return nil, &ParseError{File: name, Msg: fmt.Sprintf("row %d", i+fundHeaderRows+2), Err: err}
		}

		var kind TransactionKind
		var units decimal.Decimal
		var amountCol string
		switch {
		case buy.IsPositive():
			kind, units, amountCol = Buy, buy, colCashInflow
		case sell.IsPositive():
			kind, units, amountCol = Sell, sell, colCashOutflow
		case reinv.IsPositive():
			kind, units, amountCol = ReinvestedDividend, reinv, colDividendAmt
		default:
			continue // no units moved, drop the row
		}

		amount, err := s.decimalCell(row, amountCol)
		if err != nil {
			return nil, &ParseError{File: name, Msg: fmt.Sprintf("row %d", i+fundHeaderRows+2), Err: err}
		}
		ts, err := parseTimestamp(s.cell(row, colTradeDate))
		if err != nil {
			return nil, &ParseError{File: name, Msg: fmt.Sprintf("row %d", i+fundHeaderRows+2), Err: err}
		}

		price := decimal.Zero
		if !units.IsZero() {
			// Sells report a negative cash flow; keep the price positive.
			priceAmount := amount
			if kind == Sell {
				priceAmount = amount.Abs()
			}
			price = priceAmount.Div(units)
		}

		txs = append(txs, Transaction{
			FundName:  fund,
			Kind:      kind,
			Amount:    amount,
			Units:     units,
			Price:     price,
			Timestamp: ts,
		})
	}
	return txs, nil
}

// ParseBalanceStatement extracts balance snapshots from a flat account
// balance workbook: one snapshot per row on the first sheet.
func ParseBalanceStatement(name string, r io.Reader) ([]BalanceSnapshot, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{File: name, Msg: "cannot open workbook", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, parseErrorf(name, "workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{File: name, Msg: fmt.Sprintf("cannot read sheet %q", sheets[0]), Err: err}
	}
	if len(rows) == 0 {
		return nil, parseErrorf(name, "sheet %q is empty", sheets[0])
	}

	s, err := newSchema(name, rows[0], colBank, colDate, colClosingBal)
	if err != nil {
		return nil, err
	}

	var snaps []BalanceSnapshot
	for i, row := range rows[1:] {
		bank := s.cell(row, colBank)
		if bank == "" {
			continue
		}
		on, err := ParseDate(s.cell(row, colDate))
		if err != nil {
			return nil, &ParseError{File: name, Msg: fmt.Sprintf("row %d", i+2), Err: err}
		}
		closing, err := s.decimalCell(row, colClosingBal)
		if err != nil {
			return nil, &ParseError{File: name, Msg: fmt.Sprintf("row %d", i+2), Err: err}
		}

		snap := BalanceSnapshot{
			Bank:           bank,
			Date:           on,
			Narration:      s.cell(row, colNarration),
			RefNo:          s.cell(row, colRefNo),
			ClosingBalance: closing,
		}
		if str := s.cell(row, colWithdrawal); str != "" {
			w, err := s.decimalCell(row, colWithdrawal)
			if err != nil {
				return nil, &ParseError{File: name, Msg: fmt.Sprintf("row %d", i+2), Err: err}
			}
			snap.Withdrawal = decimal.NewNullDecimal(w)
		}
		if str := s.cell(row, colDeposit); str != "" {
			d, err := s.decimalCell(row, colDeposit)
			if err != nil {
				return nil, &ParseError{File: name, Msg: fmt.Sprintf("row %d", i+2), Err: err}
			}
			snap.Deposit = decimal.NewNullDecimal(d)
		}

		// A statement row moves money one way: at most one of the two amount
		// columns, and a set amount must be positive. Rows with neither are
		// carried-balance rows and pass through.
		if snap.Withdrawal.Valid && snap.Deposit.Valid {
			return nil, parseErrorf(name, "row %d has both a withdrawal and a deposit amount", i+2)
		}
		if snap.Withdrawal.Valid && !snap.Withdrawal.Decimal.IsPositive() {
			return nil, parseErrorf(name, "row %d: withdrawal amount %s is not positive", i+2, snap.Withdrawal.Decimal)
		}
		if snap.Deposit.Valid && !snap.Deposit.Decimal.IsPositive() {
			return nil, parseErrorf(name, "row %d: deposit amount %s is not positive", i+2, snap.Deposit.Decimal)
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}
