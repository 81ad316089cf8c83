package valuation

import (
	"errors"
	"fmt"
	"math"

	"deal_underwriting/pkg/core/assumption"
	"deal_underwriting/pkg/core/projection"
)

// ErrMissingBaseline means the property record lacks revenue, expenses or
// NOI. The engine does not compute anything in that case.
var ErrMissingBaseline = errors.New("engine unavailable: baseline financials incomplete")

// Summary is the singleton return summary shown next to the schedule.
type Summary struct {
	LoanAmount         Metric  `json:"loan_amount"`
	Equity             Metric  `json:"equity"`
	AnnualDebtService  Metric  `json:"annual_debt_service"`
	GoingInCapPct      Metric  `json:"going_in_cap_pct"`
	TerminalValue      Metric  `json:"terminal_value"`
	SaleProceeds       Metric  `json:"sale_proceeds"`
	UnleveredIRR       Metric  `json:"unlevered_irr"`
	LeveredIRR         Metric  `json:"levered_irr"`
	EquityMultiple     Metric  `json:"equity_multiple"`
	AvgCashOnCashPct   float64 `json:"avg_cash_on_cash_pct"`
	Year1CashOnCashPct float64 `json:"year1_cash_on_cash_pct"`
}

// Result bundles the schedule and summary of one underwriting run.
type Result struct {
	Assumptions  assumption.Assumptions `json:"assumptions"`
	Rows         projection.Schedule    `json:"rows"`
	Summary      Summary                `json:"summary"`
	Amortization []AmortizationRow      `json:"amortization,omitempty"`

	// Warnings explain metrics the engine could not produce for inputs that
	// are finite but out of its working range.
	Warnings []assumption.Violation `json:"warnings,omitempty"`
}

// Project runs the full underwriting for one assumption set. It is pure and
// deterministic: identical inputs give identical outputs.
//
// Only an incomplete baseline fails the whole run (ErrMissingBaseline).
// Every other degenerate input downgrades the affected metric to Unavailable
// (or 0 where noted) and leaves the rest intact. No field of the result is
// ever NaN or Inf, so it always serialises.
//
// When the schedule is shorter than the hold period (beyond
// projection.MaxHoldYears, or growth overflowing float64) the exit metrics
// are unavailable and a warning names the cause.
func Project(baseline assumption.Baseline, a assumption.Assumptions) (*Result, error) {
	if !baseline.Complete() {
		return nil, ErrMissingBaseline
	}

	loan := a.PurchasePrice * a.LoanToValuePct / 100
	equity := a.PurchasePrice - loan
	debtService := AnnualDebtService(loan, a.InterestRatePct)

	rows := projection.Build(baseline, a, debtService, equity)

	s := Summary{
		LoanAmount:        Of(loan),
		Equity:            Of(equity),
		AnnualDebtService: Of(debtService),
		AvgCashOnCashPct:  rows.AverageCashOnCash(),
	}
	if a.PurchasePrice != 0 {
		s.GoingInCapPct = Of(baseline.NOI() / a.PurchasePrice * 100)
	}
	if len(rows) > 0 {
		s.Year1CashOnCashPct = rows[0].CashOnCashPct
	}

	var warnings []assumption.Violation
	complete := len(rows) == max(a.HoldPeriodYears, 0)
	if !complete {
		warnings = append(warnings, truncationWarning(a, len(rows), loan, debtService))
	}

	if final, ok := rows.Final(); ok && complete {
		exit := TerminalValue(final.NOI, a.AnnualRentGrowthPct, a.ExitCapRatePct, loan)
		s.TerminalValue = exit.TerminalValue
		s.SaleProceeds = exit.SaleProceeds
	}

	if s.TerminalValue.Available {
		s.UnleveredIRR = IRR(unleveredSeries(a.PurchasePrice, rows, s.TerminalValue.Value))
	}
	if s.SaleProceeds.Available && s.Equity.Available {
		s.LeveredIRR = IRR(leveredSeries(equity, rows, s.SaleProceeds.Value))

		if equity == 0 {
			s.EquityMultiple = Of(0)
		} else {
			s.EquityMultiple = Of((rows.TotalCashFlow() + s.SaleProceeds.Value) / equity)
		}
	}

	return &Result{
		Assumptions:  a,
		Rows:         rows,
		Summary:      s,
		Amortization: AmortizationSchedule(loan, a.InterestRatePct, a.HoldPeriodYears),
		Warnings:     warnings,
	}, nil
}

func truncationWarning(a assumption.Assumptions, years int, loan, debtService float64) assumption.Violation {
	v := assumption.Violation{Field: "hold_period_years", Value: float64(a.HoldPeriodYears)}
	switch {
	case a.HoldPeriodYears > projection.MaxHoldYears && years == projection.MaxHoldYears:
		v.Message = fmt.Sprintf("hold_period_years=%d exceeds the %d-year projection limit; exit metrics unavailable",
			a.HoldPeriodYears, projection.MaxHoldYears)
	case math.IsNaN(loan) || math.IsInf(loan, 0):
		v.Field, v.Value = "loan_to_value_pct", a.LoanToValuePct
		v.Message = fmt.Sprintf("loan amount overflows at purchase_price=%v, loan_to_value_pct=%v; projection unavailable",
			a.PurchasePrice, a.LoanToValuePct)
	case math.IsNaN(debtService):
		v.Field, v.Value = "interest_rate_pct", a.InterestRatePct
		v.Message = fmt.Sprintf("debt service is not finite at interest_rate_pct=%v; projection unavailable", a.InterestRatePct)
	default:
		v.Message = fmt.Sprintf("projection overflows after year %d; exit metrics unavailable", years)
	}
	return v
}

// unleveredSeries is [-price, noi1, ..., noiN + terminal value].
func unleveredSeries(price float64, rows projection.Schedule, terminalValue float64) []float64 {
	flows := append([]float64{-price}, rows.NOIs()...)
	flows[len(flows)-1] += terminalValue
	return flows
}

// leveredSeries is [-equity, cf1, ..., cfN + sale proceeds].
func leveredSeries(equity float64, rows projection.Schedule, saleProceeds float64) []float64 {
	flows := append([]float64{-equity}, rows.CashFlows()...)
	flows[len(flows)-1] += saleProceeds
	return flows
}
