package projection

import "math"

// Row is one projected hold year. Rows are immutable once built; any
// assumption change regenerates the whole schedule.
type Row struct {
	Year          int     `json:"year"`
	Revenue       float64 `json:"revenue"`
	Expenses      float64 `json:"expenses"`
	NOI           float64 `json:"noi"`
	DebtService   float64 `json:"debt_service"`
	CashFlow      float64 `json:"cash_flow"`
	CashOnCashPct float64 `json:"cash_on_cash_pct"`
}

func (r Row) finite() bool {
	for _, v := range []float64{r.Revenue, r.Expenses, r.NOI, r.DebtService, r.CashFlow, r.CashOnCashPct} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Schedule is the ordered, 1-indexed sequence of projected years.
type Schedule []Row

// NOIs returns the NOI column.
func (s Schedule) NOIs() []float64 {
	out := make([]float64, len(s))
	for i, r := range s {
		out[i] = r.NOI
	}
	return out
}

// CashFlows returns the levered cash-flow column.
func (s Schedule) CashFlows() []float64 {
	out := make([]float64, len(s))
	for i, r := range s {
		out[i] = r.CashFlow
	}
	return out
}

// TotalCashFlow sums levered cash flow over the hold.
func (s Schedule) TotalCashFlow() float64 {
	total := 0.0
	for _, r := range s {
		total += r.CashFlow
	}
	return total
}

// AverageCashOnCash is the arithmetic mean of the cash-on-cash column.
// An empty schedule yields 0. The running mean stays finite for finite rows
// where a plain sum could overflow.
func (s Schedule) AverageCashOnCash() float64 {
	mean := 0.0
	for i, r := range s {
		n := float64(i + 1)
		mean += r.CashOnCashPct/n - mean/n
	}
	return mean
}

// Final returns the last projected year and false for an empty schedule.
func (s Schedule) Final() (Row, bool) {
	if len(s) == 0 {
		return Row{}, false
	}
	return s[len(s)-1], true
}
