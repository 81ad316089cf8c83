package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deal_underwriting/pkg/core/assumption"
	"deal_underwriting/pkg/core/valuation"
)

func TestRecorder_ObserveProjection(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	a := assumption.Assumptions{
		PurchasePrice: 50_000_000, AnnualRentGrowthPct: 3, AnnualExpenseGrowthPct: 2.5,
		ExitCapRatePct: 0, HoldPeriodYears: 5, LoanToValuePct: 65, InterestRatePct: 6.5,
	}
	res, err := valuation.Project(assumption.NewBaseline(5e6, 2e6, 3e6), a)
	require.NoError(t, err)

	r.ObserveProjection(res, nil, time.Millisecond)
	r.ObserveProjection(nil, valuation.ErrMissingBaseline, time.Millisecond)
	r.ObserveProjection(nil, errors.New("boom"), time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.Projections.WithLabelValues("project", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Projections.WithLabelValues("project", OutcomeUnavailable)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Projections.WithLabelValues("project", OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.IRRUnavailable.WithLabelValues("levered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.IRRUnavailable.WithLabelValues("unlevered")))

	r.ObserveSensitivity(nil, time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Projections.WithLabelValues("sensitivity", OutcomeOK)))

	count, err := testutil.GatherAndCount(reg, "underwriting_compute_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveProjection(nil, nil, 0)
		r.ObserveSensitivity(nil, 0)
	})
}
