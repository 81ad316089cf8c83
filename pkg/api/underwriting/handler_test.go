package underwriting

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"deal_underwriting/pkg/core/config"
	"deal_underwriting/pkg/core/metrics"
	"deal_underwriting/pkg/core/projection"
	"deal_underwriting/pkg/core/store"
)

const referenceDeal = `{
	"property": {"id": "prop-17", "name": "Harbor Point"},
	"baseline": {
		"gross_scheduled_revenue": 5000000,
		"total_operating_expenses": 2000000,
		"net_operating_income": 3000000
	},
	"assumptions": {
		"purchase_price": 50000000,
		"annual_rent_growth_pct": 3,
		"annual_expense_growth_pct": 2.5,
		"exit_cap_rate_pct": 5.5,
		"hold_period_years": 5,
		"loan_to_value_pct": 65,
		"interest_rate_pct": 6.5
	}
}`

type testServer struct {
	router   *gin.Engine
	recorder *metrics.Recorder
}

func newTestServer(t *testing.T, withStore bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var repo store.ScenarioRepository
	if withStore {
		s, err := store.NewScenarioStore(nil, t.TempDir())
		require.NoError(t, err)
		repo = s
	}
	rec := metrics.NewRecorder(prometheus.NewRegistry())

	router := gin.New()
	h := NewHandler(config.Default(), repo, rec, zap.NewNop())
	h.RegisterRoutes(router.Group("/api/v1"))
	return &testServer{router: router, recorder: rec}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestProject_Reference(t *testing.T) {
	srv := newTestServer(t, false)
	w := srv.do(http.MethodPost, "/api/v1/underwriting/project", referenceDeal)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Property struct{ ID string } `json:"property"`
		Result   struct {
			Rows    []map[string]float64 `json:"rows"`
			Summary map[string]*float64  `json:"summary"`
		} `json:"result"`
		Violations []interface{} `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "prop-17", resp.Property.ID)
	assert.Len(t, resp.Result.Rows, 5)
	require.NotNil(t, resp.Result.Summary["levered_irr"])
	assert.InDelta(t, 15.78, *resp.Result.Summary["levered_irr"], 0.01)
	assert.InDelta(t, 10.89, *resp.Result.Summary["unlevered_irr"], 0.01)
	assert.InDelta(t, 6.0, *resp.Result.Summary["going_in_cap_pct"], 1e-9)
	assert.Empty(t, resp.Violations)

	assert.Equal(t, 1.0, testutil.ToFloat64(srv.recorder.Projections.WithLabelValues("project", metrics.OutcomeOK)))
}

func TestProject_DefaultsAndViolations(t *testing.T) {
	srv := newTestServer(t, false)
	body := `{
		"baseline": {"gross_scheduled_revenue": 5000000, "total_operating_expenses": 2000000, "net_operating_income": 3000000},
		"assumptions": {"loan_to_value_pct": 90}
	}`
	w := srv.do(http.MethodPost, "/api/v1/underwriting/project", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ProjectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	// NOI / 5.5% pricing cap.
	assert.InDelta(t, 54_545_454.55, resp.Result.Assumptions.PurchasePrice, 0.01)
	assert.Equal(t, 90.0, resp.Result.Assumptions.LoanToValuePct)
	require.Len(t, resp.Violations, 1)
	assert.Equal(t, "loan_to_value_pct", resp.Violations[0].Field)
}

func TestProject_MissingBaseline(t *testing.T) {
	srv := newTestServer(t, false)
	body := `{"baseline": {"gross_scheduled_revenue": 5000000, "net_operating_income": 3000000}}`
	w := srv.do(http.MethodPost, "/api/v1/underwriting/project", body)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp struct {
		Error   string   `json:"error"`
		Missing []string `json:"missing"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "engine unavailable", resp.Error)
	assert.Equal(t, []string{"total_operating_expenses"}, resp.Missing)

	assert.Equal(t, 1.0, testutil.ToFloat64(srv.recorder.Projections.WithLabelValues("project", metrics.OutcomeUnavailable)))
}

func TestProject_BadJSON(t *testing.T) {
	srv := newTestServer(t, false)
	w := srv.do(http.MethodPost, "/api/v1/underwriting/project", `{"baseline":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSensitivity(t *testing.T) {
	srv := newTestServer(t, false)

	var deal map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(referenceDeal), &deal))
	deal["rows"] = map[string]interface{}{"variable": "exit_cap", "values": []float64{5, 5.5, 6}}
	deal["cols"] = map[string]interface{}{"variable": "ltv", "step": 10, "count": 3}
	body, _ := json.Marshal(deal)

	w := srv.do(http.MethodPost, "/api/v1/underwriting/sensitivity", string(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var grid struct {
		Cols struct {
			Values []float64 `json:"values"`
		} `json:"cols"`
		Cells [][]struct {
			LeveredIRR *float64 `json:"levered_irr"`
		} `json:"cells"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &grid))
	assert.Equal(t, []float64{55, 65, 75}, grid.Cols.Values)
	require.Len(t, grid.Cells, 3)
	require.Len(t, grid.Cells[1], 3)
	assert.InDelta(t, 15.78, *grid.Cells[1][1].LeveredIRR, 0.01)
	// Lower exit cap, higher value.
	assert.Greater(t, *grid.Cells[0][1].LeveredIRR, *grid.Cells[2][1].LeveredIRR)
}

func TestSensitivity_Defaults(t *testing.T) {
	srv := newTestServer(t, false)
	w := srv.do(http.MethodPost, "/api/v1/underwriting/sensitivity", referenceDeal)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var grid struct {
		Rows struct {
			Variable string    `json:"variable"`
			Values   []float64 `json:"values"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &grid))
	assert.Equal(t, "exit_cap", grid.Rows.Variable)
	assert.Equal(t, []float64{5, 5.25, 5.5, 5.75, 6}, grid.Rows.Values)
}

func TestSensitivity_BadAxis(t *testing.T) {
	srv := newTestServer(t, false)

	var deal map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(referenceDeal), &deal))
	deal["rows"] = map[string]interface{}{"variable": "vacancy"}
	body, _ := json.Marshal(deal)
	w := srv.do(http.MethodPost, "/api/v1/underwriting/sensitivity", string(body))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	deal["rows"] = map[string]interface{}{"variable": "rent_growth"}
	body, _ = json.Marshal(deal)
	w = srv.do(http.MethodPost, "/api/v1/underwriting/sensitivity", string(body))
	assert.Equal(t, http.StatusBadRequest, w.Code, "both axes flex rent_growth")
}

func TestSensitivity_AxisLimits(t *testing.T) {
	srv := newTestServer(t, false)

	post := func(rows map[string]interface{}) int {
		var deal map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(referenceDeal), &deal))
		deal["rows"] = rows
		body, _ := json.Marshal(deal)
		return srv.do(http.MethodPost, "/api/v1/underwriting/sensitivity", string(body)).Code
	}

	assert.Equal(t, http.StatusBadRequest, post(map[string]interface{}{"variable": "exit_cap", "count": 100000}))
	assert.Equal(t, http.StatusBadRequest, post(map[string]interface{}{"variable": "exit_cap", "values": make([]float64, config.DefaultMaxSteps+1)}))
	assert.Equal(t, http.StatusOK, post(map[string]interface{}{"variable": "exit_cap", "step": 0.1, "count": config.DefaultMaxSteps}))

	assert.Equal(t, http.StatusBadRequest, post(map[string]interface{}{"variable": "hold_period", "step": 0.5, "count": 3}))
	assert.Equal(t, http.StatusOK, post(map[string]interface{}{"variable": "hold_period", "step": 1, "count": 3}))
}

func TestProject_ExtremeRateStillSerialises(t *testing.T) {
	srv := newTestServer(t, false)

	var deal map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(referenceDeal), &deal))
	assumptions := deal["assumptions"].(map[string]interface{})
	assumptions["interest_rate_pct"] = 1e6
	assumptions["hold_period_years"] = 1 << 40
	body, _ := json.Marshal(deal)

	w := srv.do(http.MethodPost, "/api/v1/underwriting/project", string(body))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, w.Body.Bytes())

	var resp ProjectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Result.Summary.AnnualDebtService.Available)
	assert.False(t, resp.Result.Summary.TerminalValue.Available)
	assert.Len(t, resp.Result.Rows, projection.MaxHoldYears)

	fields := make([]string, 0, len(resp.Violations))
	for _, v := range resp.Violations {
		fields = append(fields, v.Field)
	}
	assert.Contains(t, fields, "interest_rate_pct")
	assert.Contains(t, fields, "hold_period_years")
}

func TestReport_HTMLEscapesUserText(t *testing.T) {
	srv := newTestServer(t, false)

	var deal map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(referenceDeal), &deal))
	deal["property"] = map[string]interface{}{
		"id":      "prop-17",
		"name":    "<img src=x onerror=alert(1)>",
		"address": "<script>alert(2)</script>",
	}
	body, _ := json.Marshal(deal)

	w := srv.do(http.MethodPost, "/api/v1/underwriting/report?format=html", string(body))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "<script>")
	assert.NotContains(t, w.Body.String(), "<img")
}

func TestReport_Formats(t *testing.T) {
	srv := newTestServer(t, false)

	w := srv.do(http.MethodPost, "/api/v1/underwriting/report", referenceDeal)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, w.Body.String(), "| Levered IRR | 15.78% |")

	w = srv.do(http.MethodPost, "/api/v1/underwriting/report?format=html", referenceDeal)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<table>")

	w = srv.do(http.MethodPost, "/api/v1/underwriting/report?format=pdf", referenceDeal)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "underwriting-prop-17.pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	w = srv.do(http.MethodPost, "/api/v1/underwriting/report?format=docx", referenceDeal)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReport_WithSensitivity(t *testing.T) {
	srv := newTestServer(t, false)

	var deal map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(referenceDeal), &deal))
	deal["include_sensitivity"] = true
	body, _ := json.Marshal(deal)

	w := srv.do(http.MethodPost, "/api/v1/underwriting/report?format=md", string(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "## Sensitivity: Levered IRR")
}

func TestScenarios_SaveGetList(t *testing.T) {
	srv := newTestServer(t, true)

	body := `{"name": "base case", "deal": ` + referenceDeal + `}`
	w := srv.do(http.MethodPost, "/api/v1/underwriting/scenarios", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var saved store.Scenario
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	assert.Equal(t, "prop-17", saved.PropertyID)
	require.NotNil(t, saved.Summary)
	assert.InDelta(t, 15.78, saved.Summary.LeveredIRR.Value, 0.01)

	w = srv.do(http.MethodGet, "/api/v1/underwriting/scenarios/"+saved.ID.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	var got store.Scenario
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "base case", got.Name)

	w = srv.do(http.MethodGet, "/api/v1/underwriting/scenarios?property_id=prop-17", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Scenarios []store.Scenario `json:"scenarios"`
		Total     int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)
}

func TestScenarios_Errors(t *testing.T) {
	srv := newTestServer(t, true)

	w := srv.do(http.MethodGet, "/api/v1/underwriting/scenarios/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(http.MethodGet, "/api/v1/underwriting/scenarios/6f1c2a7e-8d1b-4b3a-9f7e-2c4d5e6f7a8b", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = srv.do(http.MethodGet, "/api/v1/underwriting/scenarios", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(http.MethodPost, "/api/v1/underwriting/scenarios", `{"deal": `+referenceDeal+`}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "name is required")

	w = srv.do(http.MethodPost, "/api/v1/underwriting/scenarios", `{"name": "x", "deal": {"property": {"id": "p"}}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestScenarios_NoStore(t *testing.T) {
	srv := newTestServer(t, false)
	w := srv.do(http.MethodGet, "/api/v1/underwriting/scenarios?property_id=prop-17", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
