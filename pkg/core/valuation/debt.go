package valuation

import "math"

// AmortizationYears is the fixed amortization term of the acquisition loan.
const AmortizationYears = 30

const paymentsPerYear = 12

// AnnualDebtService returns the level annual principal and interest on a
// fully amortizing loan with monthly payments over AmortizationYears.
//
//	r = rate/100/12, n = 360
//	payment = L * r / (1 - (1+r)^-n)
//	annual = payment * 12
//
// This is the usual L*r*(1+r)^n / ((1+r)^n - 1) divided through by (1+r)^n,
// which keeps very high rates finite: the payment tends to L*r instead of
// Inf/Inf.
//
// A zero loan costs nothing. A zero rate amortizes straight-line, L/30 per
// year, since the annuity formula divides by zero there. Inputs with no
// finite payment (r = -2, or an overflowing L*r) return NaN; Project reports
// them as unavailable.
func AnnualDebtService(loanAmount, annualInterestRatePct float64) float64 {
	if loanAmount == 0 {
		return 0
	}
	r := annualInterestRatePct / 100 / paymentsPerYear
	if r == 0 {
		return loanAmount / AmortizationYears
	}
	n := float64(AmortizationYears * paymentsPerYear)
	monthly := loanAmount * r / (1 - math.Pow(1+r, -n))
	annual := monthly * paymentsPerYear
	if math.IsInf(annual, 0) {
		return math.NaN()
	}
	return annual
}

// AmortizationRow splits one loan year into interest and principal.
type AmortizationRow struct {
	Year          int     `json:"year"`
	Payment       float64 `json:"payment"`
	Interest      float64 `json:"interest"`
	Principal     float64 `json:"principal"`
	EndingBalance float64 `json:"ending_balance"`
}

func (r AmortizationRow) finite() bool {
	for _, v := range []float64{r.Payment, r.Interest, r.Principal, r.EndingBalance} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// AmortizationSchedule reports the yearly interest/principal split for the
// first years of the loan, for display alongside the projection. It ends
// early if the balance overflows, which only very negative rates cause. Exit
// proceeds still net the original loan amount; this schedule does not feed
// the sale.
func AmortizationSchedule(loanAmount, annualInterestRatePct float64, years int) []AmortizationRow {
	if years < 1 || loanAmount == 0 {
		return nil
	}
	if years > AmortizationYears {
		years = AmortizationYears
	}

	annual := AnnualDebtService(loanAmount, annualInterestRatePct)
	if math.IsNaN(annual) {
		return nil
	}
	monthlyPayment := annual / paymentsPerYear
	r := annualInterestRatePct / 100 / paymentsPerYear
	balance := loanAmount

	rows := make([]AmortizationRow, 0, years)
	for y := 1; y <= years; y++ {
		var interest, principal float64
		for m := 0; m < paymentsPerYear; m++ {
			i := balance * r
			p := monthlyPayment - i
			interest += i
			principal += p
			balance -= p
		}
		if math.Abs(balance) < 1e-6 {
			balance = 0
		}
		row := AmortizationRow{
			Year:          y,
			Payment:       annual,
			Interest:      interest,
			Principal:     principal,
			EndingBalance: balance,
		}
		if !row.finite() {
			break
		}
		rows = append(rows, row)
	}
	return rows
}
