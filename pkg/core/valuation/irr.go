package valuation

import "math"

const (
	// DefaultIRRGuess seeds Newton's method at 10%.
	DefaultIRRGuess = 0.10
	irrTolerance    = 1e-4
	irrMaxIter      = 100
)

// IRRResult carries the solved rate (in percent) and the number of Newton
// steps taken. Rate is Unavailable when the solver did not converge.
type IRRResult struct {
	Rate       Metric `json:"rate"`
	Iterations int    `json:"iterations"`
}

// NPV discounts cashFlows at rate, with cashFlows[0] at t=0.
func NPV(rate float64, cashFlows []float64) float64 {
	npv := 0.0
	for i, c := range cashFlows {
		npv += c / math.Pow(1+rate, float64(i))
	}
	return npv
}

// npvDerivative is d(NPV)/d(rate).
func npvDerivative(rate float64, cashFlows []float64) float64 {
	d := 0.0
	for i, c := range cashFlows {
		d -= float64(i) * c / math.Pow(1+rate, float64(i+1))
	}
	return d
}

// IRR solves NPV(r) = 0 with Newton-Raphson seeded at DefaultIRRGuess and
// returns r in percent.
func IRR(cashFlows []float64) Metric {
	return SolveIRR(cashFlows, DefaultIRRGuess).Rate
}

// SolveIRR runs Newton-Raphson from guess (a decimal rate, 0.10 = 10%).
//
// It stops when successive iterates differ by less than 1e-4 and gives up
// after 100 steps, on a zero derivative, or on a non-finite iterate. Failure
// is reported as an Unavailable rate, never a panic.
//
// Series with several sign changes can have several real roots; the solver
// returns whichever one the seed leads to.
func SolveIRR(cashFlows []float64, guess float64) IRRResult {
	if len(cashFlows) < 2 || math.IsNaN(guess) || math.IsInf(guess, 0) {
		return IRRResult{Rate: Unavailable}
	}

	rate := guess
	for iter := 1; iter <= irrMaxIter; iter++ {
		npv := NPV(rate, cashFlows)
		dnpv := npvDerivative(rate, cashFlows)
		if dnpv == 0 || math.IsNaN(dnpv) || math.IsInf(dnpv, 0) {
			return IRRResult{Rate: Unavailable, Iterations: iter}
		}

		next := rate - npv/dnpv
		if math.IsNaN(next) || math.IsInf(next, 0) {
			return IRRResult{Rate: Unavailable, Iterations: iter}
		}
		if math.Abs(next-rate) < irrTolerance {
			return IRRResult{Rate: Of(next * 100), Iterations: iter}
		}
		rate = next
	}
	return IRRResult{Rate: Unavailable, Iterations: irrMaxIter}
}
