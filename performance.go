package finapp

import (
	"log"
	"sort"

	"github.com/shopspring/decimal"
)

// FundPerformance is the computed position and returns of one instrument.
type FundPerformance struct {
	Fund           string
	Code           string
	Units          decimal.Decimal
	CostBasis      decimal.Decimal
	CurrentPrice   decimal.Decimal
	CurrentValue   decimal.Decimal
	RealizedGain   decimal.Decimal
	UnrealizedGain decimal.Decimal
	XIRR           float64 // annualized money-weighted return, 0 when undefined
}

// ValuePoint is one date-bucketed point of a portfolio value series.
type ValuePoint struct {
	Date  Date
	Value decimal.Decimal
}

// PerformanceReport is the full output of the valuation engine.
type PerformanceReport struct {
	AsOf  Date
	Funds []FundPerformance

	TotalValue      decimal.Decimal
	TotalCost       decimal.Decimal
	TotalRealized   decimal.Decimal
	TotalUnrealized decimal.Decimal
	XIRR            float64

	// History is the portfolio total value per transaction date, holdings
	// replayed chronologically but valued at the current price (an explicit
	// simplification, not a historical back-valuation). The last point is
	// always dated AsOf.
	History     []ValuePoint
	FundHistory map[string][]ValuePoint
}

// holdingState is the running average-cost position of one fund.
type holdingState struct {
	units    decimal.Decimal
	cost     decimal.Decimal
	realized decimal.Decimal
}

// apply folds one transaction into the running state. Buys and reinvested
// dividends add to cost and units; sells realize gain against the average
// cost per unit at this point in time and reduce the cost basis
// proportionally.
func (h *holdingState) apply(t Transaction) {
	switch t.Kind {
	case Buy, ReinvestedDividend:
		h.cost = h.cost.Add(t.Amount)
		h.units = h.units.Add(t.Units)
	case Sell:
		if h.units.IsPositive() {
			avg := h.cost.Div(h.units)
			h.realized = h.realized.Add(t.Price.Sub(avg).Mul(t.Units))
			h.cost = h.cost.Sub(avg.Mul(t.Units))
		}
		h.units = h.units.Sub(t.Units)
	}
}

// cashflow converts a transaction into its money-weighted-return flow:
// money out for buys and reinvestments, money in for sells.
func cashflow(t Transaction) Cashflow {
	amount := t.Amount.Abs().InexactFloat64()
	if t.Kind != Sell {
		amount = -amount
	}
	return Cashflow{Date: DateOf(t.Timestamp), Amount: amount}
}

// solveXIRR downgrades any solver failure to zero: a non-converging series
// for one fund must not abort the rest of the report.
func solveXIRR(name string, flows []Cashflow) float64 {
	rate, err := XIRR(flows)
	if err != nil {
		log.Printf("xirr for %s: %v", name, err)
		return 0
	}
	return rate
}

// ComputePerformance replays the full transaction ledger in ascending
// timestamp order and values the resulting holdings at each instrument's
// current price.
func ComputePerformance(txs []Transaction, instruments []Instrument) *PerformanceReport {
	report := &PerformanceReport{
		AsOf:        Today(),
		FundHistory: make(map[string][]ValuePoint),
	}

	prices := make(map[string]decimal.Decimal, len(instruments))
	codes := make(map[string]string, len(instruments))
	for _, inst := range instruments {
		prices[inst.Name] = inst.Price
		codes[inst.Name] = inst.Code
	}

	ordered := make([]Transaction, len(txs))
	copy(ordered, txs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	// Final per-fund state and money-weighted cash flows.
	states := make(map[string]*holdingState)
	flows := make(map[string][]Cashflow)
	var funds []string
	for _, t := range ordered {
		h, ok := states[t.FundName]
		if !ok {
			h = &holdingState{}
			states[t.FundName] = h
			funds = append(funds, t.FundName)
		}
		h.apply(t)
		flows[t.FundName] = append(flows[t.FundName], cashflow(t))
	}
	sort.Strings(funds)

	var pooled []Cashflow
	pooledReal := 0
	for _, fund := range funds {
		h := states[fund]
		price := prices[fund]

		perf := FundPerformance{
			Fund:         fund,
			Code:         codes[fund],
			Units:        h.units,
			CostBasis:    h.cost,
			CurrentPrice: price,
			RealizedGain: h.realized,
		}
		if h.units.IsPositive() && price.IsPositive() {
			perf.CurrentValue = h.units.Mul(price)
			perf.UnrealizedGain = perf.CurrentValue.Sub(h.cost)
		} else {
			perf.CurrentValue = decimal.Zero
			perf.UnrealizedGain = decimal.Zero
		}

		fundFlows := flows[fund]
		pooled = append(pooled, fundFlows...)
		pooledReal += len(fundFlows)
		if len(fundFlows) >= 2 && price.IsPositive() {
			series := append(append([]Cashflow(nil), fundFlows...),
				Cashflow{Date: report.AsOf, Amount: perf.CurrentValue.InexactFloat64()})
			perf.XIRR = solveXIRR(fund, series)
		}

		report.TotalValue = report.TotalValue.Add(perf.CurrentValue)
		report.TotalCost = report.TotalCost.Add(perf.CostBasis)
		report.TotalRealized = report.TotalRealized.Add(perf.RealizedGain)
		report.TotalUnrealized = report.TotalUnrealized.Add(perf.UnrealizedGain)
		report.Funds = append(report.Funds, perf)
	}

	if pooledReal >= 2 && report.TotalValue.IsPositive() {
		pooled = append(pooled, Cashflow{Date: report.AsOf, Amount: report.TotalValue.InexactFloat64()})
		report.XIRR = solveXIRR("portfolio", pooled)
	}

	report.History, report.FundHistory = valueHistory(ordered, funds, prices, report.AsOf)
	return report
}

// valueHistory replays holdings forward over the sorted set of distinct
// transaction dates and values them at the current price, guaranteeing a
// final point dated today even when no transaction occurred today.
func valueHistory(ordered []Transaction, funds []string, prices map[string]decimal.Decimal, today Date) ([]ValuePoint, map[string][]ValuePoint) {
	var dates []Date
	seen := make(map[Date]bool)
	for _, t := range ordered {
		d := DateOf(t.Timestamp)
		if !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}
	if len(dates) == 0 {
		dates = []Date{today}
	} else if dates[len(dates)-1].Before(today) {
		dates = append(dates, today)
	}

	states := make(map[string]*holdingState, len(funds))
	for _, fund := range funds {
		states[fund] = &holdingState{}
	}

	total := make([]ValuePoint, 0, len(dates))
	perFund := make(map[string][]ValuePoint, len(funds))
	next := 0
	for _, d := range dates {
		for next < len(ordered) && !DateOf(ordered[next].Timestamp).After(d) {
			t := ordered[next]
			states[t.FundName].apply(t)
			next++
		}

		dayTotal := decimal.Zero
		for _, fund := range funds {
			h := states[fund]
			value := decimal.Zero
			if h.units.IsPositive() && prices[fund].IsPositive() {
				value = h.units.Mul(prices[fund])
			}
			perFund[fund] = append(perFund[fund], ValuePoint{Date: d, Value: value})
			dayTotal = dayTotal.Add(value)
		}
		total = append(total, ValuePoint{Date: d, Value: dayTotal})
	}
	return total, perFund
}
