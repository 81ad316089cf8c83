package projection

import (
	"math"

	"deal_underwriting/pkg/core/assumption"
)

// MaxHoldYears is the longest schedule Build will produce.
const MaxHoldYears = 100

// Build projects revenue, expenses, NOI and levered cash flow for each hold
// year. Growth compounds geometrically from the baseline year with no cap or
// smoothing, so long holds at high growth rates grow without bound.
//
// debtService is the level annual payment; equity is the initial equity
// cheque used for cash-on-cash (0 when equity is not positive).
// A hold period below one year yields an empty schedule.
//
// The schedule is cut short in two cases: it never runs past MaxHoldYears,
// and it ends before the first year whose figures overflow float64. Callers
// detect either case with len(rows) < a.HoldPeriodYears.
func Build(baseline assumption.Baseline, a assumption.Assumptions, debtService, equity float64) Schedule {
	if a.HoldPeriodYears < 1 {
		return Schedule{}
	}
	hold := a.HoldPeriodYears
	if hold > MaxHoldYears {
		hold = MaxHoldYears
	}

	rentGrowth := a.AnnualRentGrowthPct / 100
	expenseGrowth := a.AnnualExpenseGrowthPct / 100

	rows := make(Schedule, 0, hold)
	for year := 1; year <= hold; year++ {
		periods := float64(year - 1)
		revenue := baseline.Revenue() * math.Pow(1+rentGrowth, periods)
		expenses := baseline.Expenses() * math.Pow(1+expenseGrowth, periods)
		noi := revenue - expenses
		cashFlow := noi - debtService

		coc := 0.0
		if equity > 0 {
			coc = cashFlow / equity * 100
		}

		row := Row{
			Year:          year,
			Revenue:       revenue,
			Expenses:      expenses,
			NOI:           noi,
			DebtService:   debtService,
			CashFlow:      cashFlow,
			CashOnCashPct: coc,
		}
		if !row.finite() {
			break
		}
		rows = append(rows, row)
	}
	return rows
}
