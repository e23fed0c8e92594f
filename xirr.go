package finapp

import (
	"errors"
	"math"
	"sort"
)

// Cashflow is one dated cash movement of an irregular series. Outflows
// (investments) are negative, inflows positive.
type Cashflow struct {
	Date   Date
	Amount float64
}

var errNoConvergence = errors.New("xirr did not converge")

// XIRR solves the internal rate of return of a series of irregularly spaced
// cash flows: the rate making the net present value zero, with time measured
// in fractions of a 365-day year since the earliest flow.
//
// It needs at least two flows including one inflow and one outflow. Newton
// iteration is tried first, with a bisection fallback for the flat or
// oscillating cases Newton cannot handle.
func XIRR(flows []Cashflow) (float64, error) {
	if len(flows) < 2 {
		return 0, errors.New("xirr needs at least two cash flows")
	}
	var hasPositive, hasNegative bool
	for _, f := range flows {
		if f.Amount > 0 {
			hasPositive = true
		}
		if f.Amount < 0 {
			hasNegative = true
		}
	}
	if !hasPositive || !hasNegative {
		return 0, errors.New("xirr needs both an inflow and an outflow")
	}

	sorted := make([]Cashflow, len(flows))
	copy(sorted, flows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	t0 := sorted[0].Date

	years := make([]float64, len(sorted))
	for i, f := range sorted {
		years[i] = float64(f.Date.DaysSince(t0)) / 365.0
	}

	npv := func(rate float64) float64 {
		var sum float64
		for i, f := range sorted {
			sum += f.Amount / math.Pow(1+rate, years[i])
		}
		return sum
	}
	derivative := func(rate float64) float64 {
		var sum float64
		for i, f := range sorted {
			if years[i] == 0 {
				continue
			}
			sum -= years[i] * f.Amount / math.Pow(1+rate, years[i]+1)
		}
		return sum
	}

	// Newton iteration from a conventional 10% guess.
	rate := 0.1
	for i := 0; i < 100; i++ {
		v := npv(rate)
		if math.Abs(v) < 1e-7 {
			return rate, nil
		}
		d := derivative(rate)
		if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			break
		}
		next := rate - v/d
		if next <= -1 {
			// keep the rate in the domain of the discount function
			next = (rate - 1) / 2
		}
		if math.Abs(next-rate) < 1e-9 {
			return next, nil
		}
		rate = next
	}

	// Bisection fallback over a wide but finite rate range.
	lo, hi := -0.999999, 10.0
	vlo, vhi := npv(lo), npv(hi)
	if math.IsNaN(vlo) || math.IsNaN(vhi) || vlo*vhi > 0 {
		return 0, errNoConvergence
	}
	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		v := npv(mid)
		if math.Abs(v) < 1e-7 || hi-lo < 1e-9 {
			return mid, nil
		}
		if v*vlo < 0 {
			hi = mid
		} else {
			lo, vlo = mid, v
		}
	}
	return 0, errNoConvergence
}
