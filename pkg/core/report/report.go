// Package report renders underwriting results for people: Markdown and HTML
// for the browser, XLSX and PDF for the investment committee pack.
package report

import (
	"fmt"
	"strings"

	"deal_underwriting/pkg/core/assumption"
	"deal_underwriting/pkg/core/ingest"
	"deal_underwriting/pkg/core/valuation"
)

// Format is an output format accepted by Render.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatXLSX     Format = "xlsx"
	FormatPDF      Format = "pdf"
)

// Formats lists every supported format.
var Formats = []Format{FormatMarkdown, FormatHTML, FormatXLSX, FormatPDF}

// ParseFormat accepts a format name, case-insensitively. "markdown" and
// "excel" are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported report format %q", s)
	}
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/markdown; charset=utf-8"
	}
}

// Extension is the file extension for f, without the dot.
func (f Format) Extension() string { return string(f) }

// Document is everything a report shows. Result is required; the rest is
// optional and omitted from the output when empty.
type Document struct {
	Property   ingest.Property
	Result     *valuation.Result
	Grid       *valuation.Grid
	Violations []assumption.Violation
}

// Title is the heading used by every format.
func (d *Document) Title() string {
	name := d.Property.Name
	if name == "" {
		name = d.Property.ID
	}
	if name == "" {
		return "Underwriting Summary"
	}
	return "Underwriting Summary: " + name
}

// Render produces d in the requested format.
func Render(d *Document, f Format) ([]byte, error) {
	if d == nil || d.Result == nil {
		return nil, fmt.Errorf("report has no result to render")
	}
	switch f {
	case FormatMarkdown:
		return []byte(Markdown(d)), nil
	case FormatHTML:
		page, err := HTML(d)
		if err != nil {
			return nil, err
		}
		return []byte(page), nil
	case FormatXLSX:
		return XLSX(d)
	case FormatPDF:
		return PDF(d)
	default:
		return nil, fmt.Errorf("unsupported report format %q", f)
	}
}

// ===== Shared table content =====

type summaryLine struct {
	Label string
	Value string
}

func summaryLines(r *valuation.Result) []summaryLine {
	a, s := r.Assumptions, r.Summary
	return []summaryLine{
		{"Purchase price", Currency(a.PurchasePrice)},
		{"Loan amount", MetricCurrency(s.LoanAmount)},
		{"Equity", MetricCurrency(s.Equity)},
		{"Annual debt service", MetricCurrency(s.AnnualDebtService)},
		{"Going-in cap rate", MetricPercent(s.GoingInCapPct)},
		{"Exit cap rate", Percent(a.ExitCapRatePct)},
		{"Hold period", fmt.Sprintf("%d years", a.HoldPeriodYears)},
		{"Terminal value", MetricCurrency(s.TerminalValue)},
		{"Sale proceeds", MetricCurrency(s.SaleProceeds)},
		{"Unlevered IRR", MetricPercent(s.UnleveredIRR)},
		{"Levered IRR", MetricPercent(s.LeveredIRR)},
		{"Equity multiple", MetricMultiple(s.EquityMultiple)},
		{"Average cash-on-cash", Percent(s.AvgCashOnCashPct)},
		{"Year 1 cash-on-cash", Percent(s.Year1CashOnCashPct)},
	}
}

var projectionHeader = []string{"Year", "Revenue", "Expenses", "NOI", "Debt Service", "Cash Flow", "Cash-on-Cash"}

func projectionCells(r *valuation.Result) [][]string {
	out := make([][]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		out = append(out, []string{
			fmt.Sprintf("%d", row.Year),
			Currency(row.Revenue),
			Currency(row.Expenses),
			Currency(row.NOI),
			Currency(row.DebtService),
			Currency(row.CashFlow),
			Percent(row.CashOnCashPct),
		})
	}
	return out
}

var amortizationHeader = []string{"Year", "Payment", "Interest", "Principal", "Ending Balance"}

func amortizationCells(r *valuation.Result) [][]string {
	out := make([][]string, 0, len(r.Amortization))
	for _, row := range r.Amortization {
		out = append(out, []string{
			fmt.Sprintf("%d", row.Year),
			Currency(row.Payment),
			Currency(row.Interest),
			Currency(row.Principal),
			Currency(row.EndingBalance),
		})
	}
	return out
}

// gridCells renders the levered IRR of each cell with the axis values as
// the first row and column.
func gridCells(g *valuation.Grid) (header []string, rows [][]string) {
	header = append(header, fmt.Sprintf("%s \\ %s", g.Rows.Variable, g.Cols.Variable))
	for _, v := range g.Cols.Values {
		header = append(header, axisValue(g.Cols.Variable, v))
	}
	for i, rv := range g.Rows.Values {
		line := []string{axisValue(g.Rows.Variable, rv)}
		for j := range g.Cols.Values {
			line = append(line, MetricPercent(g.Cells[i][j].LeveredIRR))
		}
		rows = append(rows, line)
	}
	return header, rows
}

func axisValue(v valuation.Variable, x float64) string {
	switch v {
	case valuation.VarPurchasePrice:
		return Currency(x)
	case valuation.VarHoldPeriod:
		return fmt.Sprintf("%.0f", x)
	default:
		return Percent(x)
	}
}
