package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"deal_underwriting/pkg/core/assumption"
)

// =============================================================================
// OPERATING STATEMENT PARSER - trailing-twelve-month HTML tables
// =============================================================================

// LineKind classifies a statement row.
type LineKind string

const (
	LineRevenue  LineKind = "REVENUE"
	LineExpenses LineKind = "EXPENSES"
	LineNOI      LineKind = "NOI"
	LineOther    LineKind = "OTHER"
)

// Line is one labelled row of the statement. Amount is the right-most
// numeric cell, which is the annual/TTM total on the statements we receive.
type Line struct {
	Label  string   `json:"label"`
	Amount float64  `json:"amount"`
	Kind   LineKind `json:"kind"`
}

// Statement is a parsed operating statement.
type Statement struct {
	Lines       []Line            `json:"lines"`
	Revenue     *float64          `json:"revenue"`
	Expenses    *float64          `json:"expenses"`
	NOI         *float64          `json:"noi"`
	NOIImplied  bool              `json:"noi_implied"`
	Checkpoints []AuditCheckpoint `json:"checkpoints,omitempty"`
}

// Baseline returns the statement totals as baseline facts.
func (s *Statement) Baseline() assumption.Baseline {
	return assumption.Baseline{
		GrossScheduledRevenue:  s.Revenue,
		TotalOperatingExpenses: s.Expenses,
		NetOperatingIncome:     s.NOI,
	}
}

// Labels are matched by prefix after lower-casing; earlier entries win when
// a statement carries several candidate totals.
var (
	revenueLabels = []string{
		"gross scheduled revenue",
		"gross scheduled rent",
		"total revenue",
		"total revenues",
		"total income",
		"effective gross income",
		"total operating income",
	}
	expenseLabels = []string{
		"total operating expenses",
		"total expenses",
		"operating expenses",
	}
	noiLabels = []string{
		"net operating income",
		"noi",
	}
)

// ParseOperatingStatement extracts revenue, operating expenses and NOI from
// the first HTML table that yields at least one of them.
//
// When the table has revenue and expenses but no NOI row, NOI is implied as
// revenue minus expenses and NOIImplied is set. When NOI is reported, it is
// kept verbatim and reconciled against the components in Checkpoints.
func ParseOperatingStatement(html string) (*Statement, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse statement html: %w", err)
	}

	var found *Statement
	doc.Find("table").EachWithBreak(func(i int, table *goquery.Selection) bool {
		st := parseStatementTable(table)
		if st.Revenue != nil || st.Expenses != nil || st.NOI != nil {
			found = st
			return false
		}
		return true
	})

	if found == nil {
		return nil, fmt.Errorf("no operating statement table found")
	}

	if found.NOI == nil && found.Revenue != nil && found.Expenses != nil {
		noi := *found.Revenue - *found.Expenses
		found.NOI = &noi
		found.NOIImplied = true
	}
	if !found.NOIImplied {
		found.Checkpoints = VerifyIntegrity(found.Baseline())
	}
	return found, nil
}

func parseStatementTable(table *goquery.Selection) *Statement {
	st := &Statement{}
	rank := map[LineKind]int{}

	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() < 2 {
			return
		}
		label := strings.TrimSpace(cells.First().Text())
		if label == "" {
			return
		}

		amount, ok := 0.0, false
		cells.Slice(1, cells.Length()).Each(func(j int, cell *goquery.Selection) {
			if v, parsed := ParseAmount(cell.Text()); parsed {
				amount, ok = v, true
			}
		})
		if !ok {
			return
		}

		kind, r := classify(label)
		st.Lines = append(st.Lines, Line{Label: label, Amount: amount, Kind: kind})
		if kind == LineOther {
			return
		}
		if prev, seen := rank[kind]; seen && prev <= r {
			return
		}
		rank[kind] = r

		v := amount
		switch kind {
		case LineRevenue:
			st.Revenue = &v
		case LineExpenses:
			if v < 0 {
				v = -v
			}
			st.Expenses = &v
		case LineNOI:
			st.NOI = &v
		}
	})
	return st
}

// classify returns the kind of a row label and the priority of the matched
// pattern (lower is better).
func classify(label string) (LineKind, int) {
	l := strings.ToLower(strings.TrimSpace(label))
	for i, p := range noiLabels {
		if hasLabel(l, p) {
			return LineNOI, i
		}
	}
	for i, p := range revenueLabels {
		if hasLabel(l, p) {
			return LineRevenue, i
		}
	}
	for i, p := range expenseLabels {
		if hasLabel(l, p) {
			return LineExpenses, i
		}
	}
	return LineOther, 0
}

// hasLabel reports whether label starts with the whole words of p, so "noi"
// matches "NOI (T-12)" but not "Noise abatement".
func hasLabel(label, p string) bool {
	if !strings.HasPrefix(label, p) {
		return false
	}
	rest := label[len(p):]
	if rest == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// ParseAmount reads accounting-formatted numbers: "$1,234.50", "(12,000)",
// "-3,000", "1.2M", "850K". Blank cells and dashes are not numbers.
func ParseAmount(s string) (float64, bool) {
	t := strings.TrimSpace(s)
	t = strings.NewReplacer("$", "", ",", "", " ", "", "\u00a0", "").Replace(t)
	if t == "" || t == "-" || t == "—" || t == "–" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(t, "(") && strings.HasSuffix(t, ")") {
		negative = true
		t = t[1 : len(t)-1]
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(t, "M") || strings.HasSuffix(t, "m"):
		multiplier = 1_000_000
		t = t[:len(t)-1]
	case strings.HasSuffix(t, "K") || strings.HasSuffix(t, "k"):
		multiplier = 1_000
		t = t[:len(t)-1]
	}

	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, false
	}
	v *= multiplier
	if negative {
		v = -v
	}
	return v, true
}
