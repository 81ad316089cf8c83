package assumption

// DefaultPricingCapRatePct is the cap rate used to back a purchase price out
// of NOI when no pricing guidance exists.
const DefaultPricingCapRatePct = 5.5

// DefaultFallbackPrice is used when neither guidance nor NOI can price the deal.
const DefaultFallbackPrice = 10_000_000.0

// Seed holds the starting slider positions. It is loaded from config so
// desks can change house views without a release.
type Seed struct {
	AnnualRentGrowthPct    float64 `yaml:"annual_rent_growth_pct" json:"annual_rent_growth_pct"`
	AnnualExpenseGrowthPct float64 `yaml:"annual_expense_growth_pct" json:"annual_expense_growth_pct"`
	ExitCapRatePct         float64 `yaml:"exit_cap_rate_pct" json:"exit_cap_rate_pct"`
	HoldPeriodYears        int     `yaml:"hold_period_years" json:"hold_period_years"`
	LoanToValuePct         float64 `yaml:"loan_to_value_pct" json:"loan_to_value_pct"`
	InterestRatePct        float64 `yaml:"interest_rate_pct" json:"interest_rate_pct"`
	PricingCapRatePct      float64 `yaml:"pricing_cap_rate_pct" json:"pricing_cap_rate_pct"`
	FallbackPrice          float64 `yaml:"fallback_price" json:"fallback_price"`
}

// DefaultSeed returns the house view shipped with the application.
func DefaultSeed() Seed {
	return Seed{
		AnnualRentGrowthPct:    3.0,
		AnnualExpenseGrowthPct: 2.5,
		ExitCapRatePct:         5.5,
		HoldPeriodYears:        5,
		LoanToValuePct:         65,
		InterestRatePct:        6.5,
		PricingCapRatePct:      DefaultPricingCapRatePct,
		FallbackPrice:          DefaultFallbackPrice,
	}
}

// Defaults initialises an assumption set for a property view.
//
// Purchase price: first pricing tier with a positive price, else
// NOI / pricing cap rate when NOI is positive, else the hard fallback.
// Exit cap: explicit guidance exit cap, else the first tier's cap rate,
// else the seed.
func Defaults(baseline Baseline, guidance *PricingGuidance, seed Seed) Assumptions {
	a := Assumptions{
		AnnualRentGrowthPct:    seed.AnnualRentGrowthPct,
		AnnualExpenseGrowthPct: seed.AnnualExpenseGrowthPct,
		ExitCapRatePct:         seed.ExitCapRatePct,
		HoldPeriodYears:        seed.HoldPeriodYears,
		LoanToValuePct:         seed.LoanToValuePct,
		InterestRatePct:        seed.InterestRatePct,
	}

	pricingCap := seed.PricingCapRatePct
	if pricingCap <= 0 {
		pricingCap = DefaultPricingCapRatePct
	}
	fallback := seed.FallbackPrice
	if fallback <= 0 {
		fallback = DefaultFallbackPrice
	}

	switch {
	case guidance != nil && len(guidance.Tiers) > 0 && guidance.Tiers[0].Price > 0:
		a.PurchasePrice = guidance.Tiers[0].Price
	case baseline.NetOperatingIncome != nil && *baseline.NetOperatingIncome > 0:
		a.PurchasePrice = *baseline.NetOperatingIncome / (pricingCap / 100)
	default:
		a.PurchasePrice = fallback
	}

	if guidance != nil {
		if guidance.ExitCapRatePct != nil && *guidance.ExitCapRatePct > 0 {
			a.ExitCapRatePct = *guidance.ExitCapRatePct
		} else if len(guidance.Tiers) > 0 && guidance.Tiers[0].CapRatePct > 0 {
			a.ExitCapRatePct = guidance.Tiers[0].CapRatePct
		}
	}

	return a
}
