package valuation

import (
	"encoding/json"
	"math"
	"strconv"
)

// Metric is a derived figure that may be unavailable, e.g. an IRR that did
// not converge or a ratio with a zero denominator. It marshals to a JSON
// number, or null when unavailable.
type Metric struct {
	Value     float64
	Available bool
}

// Unavailable is the sentinel for a metric that could not be computed.
var Unavailable = Metric{}

// Of wraps v, downgrading NaN and Inf to Unavailable.
func Of(v float64) Metric {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Unavailable
	}
	return Metric{Value: v, Available: true}
}

// Or returns the value, or fallback when unavailable.
func (m Metric) Or(fallback float64) float64 {
	if !m.Available {
		return fallback
	}
	return m.Value
}

// String formats the metric with two decimals, or "n/a".
func (m Metric) String() string {
	if !m.Available {
		return "n/a"
	}
	return strconv.FormatFloat(m.Value, 'f', 2, 64)
}

func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Available {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Unavailable
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Of(v)
	return nil
}
