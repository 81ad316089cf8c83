package valuation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"deal_underwriting/pkg/core/assumption"
)

// Variable names an assumption that a sensitivity axis can flex.
type Variable string

const (
	VarPurchasePrice Variable = "purchase_price"
	VarRentGrowth    Variable = "rent_growth"
	VarExpenseGrowth Variable = "expense_growth"
	VarExitCap       Variable = "exit_cap"
	VarHoldPeriod    Variable = "hold_period"
	VarLoanToValue   Variable = "ltv"
	VarInterestRate  Variable = "interest_rate"
)

// Variables lists every flexible assumption, in display order.
var Variables = []Variable{
	VarPurchasePrice, VarRentGrowth, VarExpenseGrowth, VarExitCap,
	VarHoldPeriod, VarLoanToValue, VarInterestRate,
}

// ParseVariable accepts a Variable name.
func ParseVariable(s string) (Variable, error) {
	for _, v := range Variables {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown sensitivity variable %q", s)
}

// Get reads the variable from an assumption set.
func (v Variable) Get(a assumption.Assumptions) float64 {
	switch v {
	case VarPurchasePrice:
		return a.PurchasePrice
	case VarRentGrowth:
		return a.AnnualRentGrowthPct
	case VarExpenseGrowth:
		return a.AnnualExpenseGrowthPct
	case VarExitCap:
		return a.ExitCapRatePct
	case VarHoldPeriod:
		return float64(a.HoldPeriodYears)
	case VarLoanToValue:
		return a.LoanToValuePct
	case VarInterestRate:
		return a.InterestRatePct
	}
	return 0
}

// Set returns a copy of a with the variable replaced. Hold periods round to
// the nearest whole year; Axis.Validate keeps grids from relying on that.
func (v Variable) Set(a assumption.Assumptions, value float64) assumption.Assumptions {
	switch v {
	case VarPurchasePrice:
		a.PurchasePrice = value
	case VarRentGrowth:
		a.AnnualRentGrowthPct = value
	case VarExpenseGrowth:
		a.AnnualExpenseGrowthPct = value
	case VarExitCap:
		a.ExitCapRatePct = value
	case VarHoldPeriod:
		a.HoldPeriodYears = int(math.Round(value))
	case VarLoanToValue:
		a.LoanToValuePct = value
	case VarInterestRate:
		a.InterestRatePct = value
	}
	return a
}

// Axis is one dimension of a sensitivity grid.
type Axis struct {
	Variable Variable  `json:"variable"`
	Values   []float64 `json:"values"`
}

// ErrInvalidAxis marks an axis that cannot be evaluated as requested.
var ErrInvalidAxis = errors.New("invalid sensitivity axis")

// Validate rejects an empty axis and fractional hold periods, which would
// round onto duplicate rows.
func (ax Axis) Validate() error {
	if len(ax.Values) == 0 {
		return fmt.Errorf("%w: %s has no values", ErrInvalidAxis, ax.Variable)
	}
	if ax.Variable == VarHoldPeriod {
		for _, v := range ax.Values {
			if v != math.Trunc(v) {
				return fmt.Errorf("%w: hold_period values must be whole years, got %v", ErrInvalidAxis, v)
			}
		}
	}
	return nil
}

// Steps builds count values centred on center, step apart. An even count
// puts the extra step above the centre.
func Steps(center, step float64, count int) []float64 {
	if count < 1 {
		return nil
	}
	out := make([]float64, count)
	start := center - float64((count-1)/2)*step
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// Cell is the outcome at one (row, col) point of the grid.
type Cell struct {
	RowValue       float64 `json:"row_value"`
	ColValue       float64 `json:"col_value"`
	LeveredIRR     Metric  `json:"levered_irr"`
	UnleveredIRR   Metric  `json:"unlevered_irr"`
	EquityMultiple Metric  `json:"equity_multiple"`
}

// Grid is a two-way sensitivity table. Cells[i][j] pairs Rows.Values[i]
// with Cols.Values[j].
type Grid struct {
	Rows  Axis     `json:"rows"`
	Cols  Axis     `json:"cols"`
	Cells [][]Cell `json:"cells"`
}

// Sensitivity flexes two assumptions around base and re-runs Project for
// every cell. Cells are independent pure evaluations and run concurrently;
// ctx cancellation stops outstanding work.
func Sensitivity(ctx context.Context, baseline assumption.Baseline, base assumption.Assumptions, rows, cols Axis) (*Grid, error) {
	if !baseline.Complete() {
		return nil, ErrMissingBaseline
	}
	if rows.Variable == cols.Variable {
		return nil, fmt.Errorf("%w: axes must differ, both are %q", ErrInvalidAxis, rows.Variable)
	}
	if err := rows.Validate(); err != nil {
		return nil, err
	}
	if err := cols.Validate(); err != nil {
		return nil, err
	}

	grid := &Grid{Rows: rows, Cols: cols, Cells: make([][]Cell, len(rows.Values))}
	for i := range grid.Cells {
		grid.Cells[i] = make([]Cell, len(cols.Values))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, rv := range rows.Values {
		for j, cv := range cols.Values {
			i, j, rv, cv := i, j, rv, cv
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				a := cols.Variable.Set(rows.Variable.Set(base, rv), cv)
				res, err := Project(baseline, a)
				if err != nil {
					return err
				}
				grid.Cells[i][j] = Cell{
					RowValue:       rv,
					ColValue:       cv,
					LeveredIRR:     res.Summary.LeveredIRR,
					UnleveredIRR:   res.Summary.UnleveredIRR,
					EquityMultiple: res.Summary.EquityMultiple,
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return grid, nil
}
