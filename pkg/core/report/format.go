package report

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"deal_underwriting/pkg/core/valuation"
)

const currencyCode = "USD"

// Currency formats v as US dollars, rounded half away from zero to cents.
func Currency(v float64) string {
	cur := money.GetCurrency(currencyCode)
	cents := decimal.NewFromFloat(v).Round(int32(cur.Fraction)).Shift(int32(cur.Fraction)).IntPart()
	return money.New(cents, currencyCode).Display()
}

// Percent formats a percentage value (6.5 means 6.5%) with two decimals.
func Percent(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2) + "%"
}

// Multiple formats a ratio such as an equity multiple, e.g. "2.01x".
func Multiple(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2) + "x"
}

func MetricCurrency(m valuation.Metric) string {
	if !m.Available {
		return "n/a"
	}
	return Currency(m.Value)
}

func MetricPercent(m valuation.Metric) string {
	if !m.Available {
		return "n/a"
	}
	return Percent(m.Value)
}

func MetricMultiple(m valuation.Metric) string {
	if !m.Available {
		return "n/a"
	}
	return Multiple(m.Value)
}
