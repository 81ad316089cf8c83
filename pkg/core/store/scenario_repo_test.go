package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deal_underwriting/pkg/core/assumption"
	"deal_underwriting/pkg/core/valuation"
)

func referenceScenario(t *testing.T, propertyID, name string) *Scenario {
	t.Helper()
	baseline := assumption.NewBaseline(5_000_000, 2_000_000, 3_000_000)
	a := assumption.Assumptions{
		PurchasePrice:          50_000_000,
		AnnualRentGrowthPct:    3,
		AnnualExpenseGrowthPct: 2.5,
		ExitCapRatePct:         5.5,
		HoldPeriodYears:        5,
		LoanToValuePct:         65,
		InterestRatePct:        6.5,
	}
	res, err := valuation.Project(baseline, a)
	require.NoError(t, err)
	return &Scenario{
		PropertyID:  propertyID,
		Name:        name,
		Baseline:    baseline,
		Assumptions: a,
		Summary:     &res.Summary,
	}
}

func TestScenarioStore_FileRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewScenarioStore(nil, t.TempDir())
	require.NoError(t, err)

	sc := referenceScenario(t, "prop-17", "base case")
	require.NoError(t, s.Save(ctx, sc))
	assert.NotEqual(t, uuid.Nil, sc.ID)
	assert.False(t, sc.CreatedAt.IsZero())

	got, err := s.Get(ctx, sc.ID)
	require.NoError(t, err)
	assert.Equal(t, "base case", got.Name)
	assert.Equal(t, 3_000_000.0, got.Baseline.NOI())
	assert.Equal(t, 65.0, got.Assumptions.LoanToValuePct)
	require.NotNil(t, got.Summary)
	assert.True(t, got.Summary.LeveredIRR.Available)
	assert.InDelta(t, 15.78, got.Summary.LeveredIRR.Value, 0.01)
}

func TestScenarioStore_GetMissing(t *testing.T) {
	s, err := NewScenarioStore(nil, t.TempDir())
	require.NoError(t, err)

	_, err = s.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrScenarioNotFound)
}

func TestScenarioStore_ListByProperty(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewScenarioStore(nil, dir)
	require.NoError(t, err)

	older := referenceScenario(t, "prop-17", "older")
	older.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := referenceScenario(t, "prop-17", "newer")
	newer.CreatedAt = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	other := referenceScenario(t, "prop-99", "other")

	for _, sc := range []*Scenario{older, newer, other} {
		require.NoError(t, s.Save(ctx, sc))
	}
	// Stray files in the directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644))

	list, err := s.ListByProperty(ctx, "prop-17")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Name)
	assert.Equal(t, "older", list[1].Name)

	list, err = s.ListByProperty(ctx, "prop-404")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestScenarioStore_UnavailableMetricsSurvive(t *testing.T) {
	ctx := context.Background()
	s, err := NewScenarioStore(nil, t.TempDir())
	require.NoError(t, err)

	sc := referenceScenario(t, "prop-17", "no exit")
	sc.Summary.TerminalValue = valuation.Unavailable
	sc.Summary.UnleveredIRR = valuation.Unavailable
	require.NoError(t, s.Save(ctx, sc))

	got, err := s.Get(ctx, sc.ID)
	require.NoError(t, err)
	assert.False(t, got.Summary.TerminalValue.Available)
	assert.False(t, got.Summary.UnleveredIRR.Available)
	assert.True(t, got.Summary.LeveredIRR.Available)
}

func TestInitDB_EmptyURL(t *testing.T) {
	// InitDB runs once per process; this is the only test that calls it.
	assert.Error(t, InitDB(context.Background(), ""))
	assert.Nil(t, GetPool())
}
