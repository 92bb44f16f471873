package kapytal

import (
	"math"
)

// datedCashFlow is one signed cash movement used by the annualized-return
// solver: negative for money paid in, positive for money received.
type datedCashFlow struct {
	day    Date
	amount float64
}

const daysPerYear = 365.25

// xirr solves for the annualized internal rate of return of a dated cash-flow
// series: the rate r such that the net present value of all flows discounted
// by (1+r)^(years since first flow) is zero. It tries Newton's method first
// and falls back to bisection when Newton diverges. Returns false when the
// flows admit no solution (all same sign, or fewer than two flows).
func xirr(flows []datedCashFlow) (float64, bool) {
	if len(flows) < 2 {
		return 0, false
	}
	hasPositive, hasNegative := false, false
	for _, f := range flows {
		if f.amount > 0 {
			hasPositive = true
		}
		if f.amount < 0 {
			hasNegative = true
		}
	}
	if !hasPositive || !hasNegative {
		return 0, false
	}

	first := flows[0].day
	years := make([]float64, len(flows))
	for i, f := range flows {
		years[i] = float64(daysBetween(first, f.day)) / daysPerYear
	}

	npv := func(rate float64) float64 {
		sum := 0.0
		for i, f := range flows {
			sum += f.amount / math.Pow(1+rate, years[i])
		}
		return sum
	}
	derivative := func(rate float64) float64 {
		sum := 0.0
		for i, f := range flows {
			if years[i] == 0 {
				continue
			}
			sum -= years[i] * f.amount / math.Pow(1+rate, years[i]+1)
		}
		return sum
	}

	const tolerance = 1e-9

	// Newton's method from a modest initial guess.
	rate := 0.1
	for i := 0; i < 64; i++ {
		value := npv(rate)
		if math.Abs(value) < tolerance {
			return rate, true
		}
		slope := derivative(rate)
		if slope == 0 || math.IsNaN(slope) || math.IsInf(slope, 0) {
			break
		}
		next := rate - value/slope
		if next <= -1 || math.IsNaN(next) || math.IsInf(next, 0) {
			break
		}
		if math.Abs(next-rate) < tolerance {
			return next, true
		}
		rate = next
	}

	// Bisection over a wide bracket.
	lo, hi := -0.999999, 100.0
	valueLo := npv(lo)
	valueHi := npv(hi)
	if valueLo*valueHi > 0 {
		return 0, false
	}
	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		value := npv(mid)
		if math.Abs(value) < tolerance || (hi-lo)/2 < tolerance {
			return mid, true
		}
		if valueLo*value < 0 {
			hi = mid
		} else {
			lo = mid
			valueLo = value
		}
	}
	return (lo + hi) / 2, true
}

// daysBetween counts the calendar days from a to b.
func daysBetween(a, b Date) int {
	return int(b.Time().Sub(a.Time()).Hours() / 24)
}
