package assumption

import (
	"fmt"
	"math"
)

// Range is an inclusive advisory interval for one slider.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Clamp pulls v into the range. NaN maps to Min.
func (r Range) Clamp(v float64) float64 {
	if math.IsNaN(v) || v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Bounds are the UI constraints on each assumption. They are advisory:
// the engine accepts values outside them.
type Bounds struct {
	RentGrowthPct    Range `json:"annual_rent_growth_pct" yaml:"annual_rent_growth_pct"`
	ExpenseGrowthPct Range `json:"annual_expense_growth_pct" yaml:"annual_expense_growth_pct"`
	ExitCapRatePct   Range `json:"exit_cap_rate_pct" yaml:"exit_cap_rate_pct"`
	HoldPeriodYears  Range `json:"hold_period_years" yaml:"hold_period_years"`
	LoanToValuePct   Range `json:"loan_to_value_pct" yaml:"loan_to_value_pct"`
	InterestRatePct  Range `json:"interest_rate_pct" yaml:"interest_rate_pct"`
}

// DefaultBounds returns the slider ranges of the deal screen.
func DefaultBounds() Bounds {
	return Bounds{
		RentGrowthPct:    Range{Min: 0, Max: 8},
		ExpenseGrowthPct: Range{Min: 0, Max: 6},
		ExitCapRatePct:   Range{Min: 4, Max: 8},
		HoldPeriodYears:  Range{Min: 3, Max: 10},
		LoanToValuePct:   Range{Min: 0, Max: 80},
		InterestRatePct:  Range{Min: 4, Max: 9},
	}
}

// Violation describes an assumption outside its advisory range.
type Violation struct {
	Field   string  `json:"field"`
	Value   float64 `json:"value"`
	Message string  `json:"message"`
}

func (v Violation) String() string { return v.Message }

// Validate returns every advisory violation. An empty result means all
// inputs are within bounds. Violations never block computation.
func (a Assumptions) Validate(b Bounds) []Violation {
	var out []Violation

	if math.IsNaN(a.PurchasePrice) || math.IsInf(a.PurchasePrice, 0) || a.PurchasePrice <= 0 {
		out = append(out, Violation{
			Field:   "purchase_price",
			Value:   a.PurchasePrice,
			Message: fmt.Sprintf("purchase_price must be positive, got %v", a.PurchasePrice),
		})
	}

	check := func(field string, v float64, r Range) {
		if math.IsNaN(v) || math.IsInf(v, 0) || !r.Contains(v) {
			out = append(out, Violation{
				Field:   field,
				Value:   v,
				Message: fmt.Sprintf("%s=%v outside [%v, %v]", field, v, r.Min, r.Max),
			})
		}
	}
	check("annual_rent_growth_pct", a.AnnualRentGrowthPct, b.RentGrowthPct)
	check("annual_expense_growth_pct", a.AnnualExpenseGrowthPct, b.ExpenseGrowthPct)
	check("exit_cap_rate_pct", a.ExitCapRatePct, b.ExitCapRatePct)
	check("hold_period_years", float64(a.HoldPeriodYears), b.HoldPeriodYears)
	check("loan_to_value_pct", a.LoanToValuePct, b.LoanToValuePct)
	check("interest_rate_pct", a.InterestRatePct, b.InterestRatePct)

	return out
}

// Clamp returns a copy with every bounded field pulled into range.
// Purchase price has no upper bound and is left untouched.
func (a Assumptions) Clamp(b Bounds) Assumptions {
	a.AnnualRentGrowthPct = b.RentGrowthPct.Clamp(a.AnnualRentGrowthPct)
	a.AnnualExpenseGrowthPct = b.ExpenseGrowthPct.Clamp(a.AnnualExpenseGrowthPct)
	a.ExitCapRatePct = b.ExitCapRatePct.Clamp(a.ExitCapRatePct)
	a.HoldPeriodYears = int(math.Round(b.HoldPeriodYears.Clamp(float64(a.HoldPeriodYears))))
	a.LoanToValuePct = b.LoanToValuePct.Clamp(a.LoanToValuePct)
	a.InterestRatePct = b.InterestRatePct.Clamp(a.InterestRatePct)
	return a
}
