// Package assumption holds the inputs of the underwriting model.
// Baseline carries the read-only trailing financials of the subject property,
// Assumptions carries the user-editable underwriting inputs behind the sliders.
package assumption

// =============================================================================
// BASELINE FINANCIAL FACTS (read-only, from the property record)
// =============================================================================

// Baseline is the most recent fiscal year of the subject property.
// Fields are pointers so that a missing value is never mistaken for zero.
type Baseline struct {
	GrossScheduledRevenue  *float64 `json:"gross_scheduled_revenue"`
	TotalOperatingExpenses *float64 `json:"total_operating_expenses"`
	NetOperatingIncome     *float64 `json:"net_operating_income"`
}

// NewBaseline builds a complete baseline from plain values.
func NewBaseline(revenue, expenses, noi float64) Baseline {
	return Baseline{
		GrossScheduledRevenue:  &revenue,
		TotalOperatingExpenses: &expenses,
		NetOperatingIncome:     &noi,
	}
}

// Complete reports whether all three facts are present.
func (b Baseline) Complete() bool {
	return b.GrossScheduledRevenue != nil &&
		b.TotalOperatingExpenses != nil &&
		b.NetOperatingIncome != nil
}

// Missing lists the json names of absent facts.
func (b Baseline) Missing() []string {
	var missing []string
	if b.GrossScheduledRevenue == nil {
		missing = append(missing, "gross_scheduled_revenue")
	}
	if b.TotalOperatingExpenses == nil {
		missing = append(missing, "total_operating_expenses")
	}
	if b.NetOperatingIncome == nil {
		missing = append(missing, "net_operating_income")
	}
	return missing
}

// Revenue returns the gross scheduled revenue, or 0 when absent.
// Callers must check Complete first.
func (b Baseline) Revenue() float64 { return deref(b.GrossScheduledRevenue) }

// Expenses returns the operating expenses, or 0 when absent.
func (b Baseline) Expenses() float64 { return deref(b.TotalOperatingExpenses) }

// NOI returns the net operating income, or 0 when absent.
func (b Baseline) NOI() float64 { return deref(b.NetOperatingIncome) }

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// =============================================================================
// ASSUMPTION SET (mutable, user-controlled)
// =============================================================================

// Assumptions is the explicit configuration passed into the projection.
// Percentages are expressed in points (6.5 means 6.5%).
type Assumptions struct {
	PurchasePrice          float64 `json:"purchase_price" yaml:"purchase_price"`
	AnnualRentGrowthPct    float64 `json:"annual_rent_growth_pct" yaml:"annual_rent_growth_pct"`
	AnnualExpenseGrowthPct float64 `json:"annual_expense_growth_pct" yaml:"annual_expense_growth_pct"`
	ExitCapRatePct         float64 `json:"exit_cap_rate_pct" yaml:"exit_cap_rate_pct"`
	HoldPeriodYears        int     `json:"hold_period_years" yaml:"hold_period_years"`
	LoanToValuePct         float64 `json:"loan_to_value_pct" yaml:"loan_to_value_pct"`
	InterestRatePct        float64 `json:"interest_rate_pct" yaml:"interest_rate_pct"`
}

// Overrides is a partial assumption set. Nil fields keep the current value.
// Used when a deal file or request only pins some sliders.
type Overrides struct {
	PurchasePrice          *float64 `json:"purchase_price,omitempty"`
	AnnualRentGrowthPct    *float64 `json:"annual_rent_growth_pct,omitempty"`
	AnnualExpenseGrowthPct *float64 `json:"annual_expense_growth_pct,omitempty"`
	ExitCapRatePct         *float64 `json:"exit_cap_rate_pct,omitempty"`
	HoldPeriodYears        *int     `json:"hold_period_years,omitempty"`
	LoanToValuePct         *float64 `json:"loan_to_value_pct,omitempty"`
	InterestRatePct        *float64 `json:"interest_rate_pct,omitempty"`
}

// Apply returns a copy of a with every non-nil override applied.
func (a Assumptions) Apply(o Overrides) Assumptions {
	if o.PurchasePrice != nil {
		a.PurchasePrice = *o.PurchasePrice
	}
	if o.AnnualRentGrowthPct != nil {
		a.AnnualRentGrowthPct = *o.AnnualRentGrowthPct
	}
	if o.AnnualExpenseGrowthPct != nil {
		a.AnnualExpenseGrowthPct = *o.AnnualExpenseGrowthPct
	}
	if o.ExitCapRatePct != nil {
		a.ExitCapRatePct = *o.ExitCapRatePct
	}
	if o.HoldPeriodYears != nil {
		a.HoldPeriodYears = *o.HoldPeriodYears
	}
	if o.LoanToValuePct != nil {
		a.LoanToValuePct = *o.LoanToValuePct
	}
	if o.InterestRatePct != nil {
		a.InterestRatePct = *o.InterestRatePct
	}
	return a
}

// =============================================================================
// PRICING GUIDANCE (optional, from the external pricing-scenario record)
// =============================================================================

// PricingTier is one row of broker or internal pricing guidance.
type PricingTier struct {
	Label      string  `json:"label"`
	Price      float64 `json:"price"`
	CapRatePct float64 `json:"cap_rate_pct,omitempty"`
}

// PricingGuidance seeds the default purchase price and exit cap.
type PricingGuidance struct {
	Tiers          []PricingTier `json:"tiers,omitempty"`
	ExitCapRatePct *float64      `json:"exit_cap_rate_pct,omitempty"`
}
