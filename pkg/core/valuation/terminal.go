package valuation

// ExitResult is the reversion at the end of the hold.
type ExitResult struct {
	NextYearNOI   float64 `json:"next_year_noi"`
	TerminalValue Metric  `json:"terminal_value"`
	SaleProceeds  Metric  `json:"sale_proceeds"`
}

// TerminalValue capitalizes the buyer's forward NOI at the exit cap rate.
//
// The final hold year's NOI is grown one more year at the rent growth rate.
// Sale proceeds net the original loan amount: amortized principal paydown is
// not credited, the balance is carried flat for the whole hold.
// A zero exit cap leaves both values unavailable.
func TerminalValue(finalYearNOI, rentGrowthPct, exitCapRatePct, loanAmount float64) ExitResult {
	next := finalYearNOI * (1 + rentGrowthPct/100)
	res := ExitResult{NextYearNOI: next}

	capRate := exitCapRatePct / 100
	if capRate == 0 {
		return res
	}

	res.TerminalValue = Of(next / capRate)
	if res.TerminalValue.Available {
		res.SaleProceeds = Of(res.TerminalValue.Value - loanAmount)
	}
	return res
}
