// Package underwriting exposes the underwriting engine over HTTP.
package underwriting

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"deal_underwriting/pkg/core/assumption"
	"deal_underwriting/pkg/core/config"
	"deal_underwriting/pkg/core/ingest"
	"deal_underwriting/pkg/core/metrics"
	"deal_underwriting/pkg/core/report"
	"deal_underwriting/pkg/core/store"
	"deal_underwriting/pkg/core/valuation"
)

// Handler serves the underwriting endpoints.
type Handler struct {
	seed        assumption.Seed
	bounds      assumption.Bounds
	sensitivity config.SensitivityConfig
	scenarios   store.ScenarioRepository
	metrics     *metrics.Recorder
	logger      *zap.Logger
}

// NewHandler wires a handler. scenarios and rec may be nil; the scenario
// routes then answer 503.
func NewHandler(cfg *config.Config, scenarios store.ScenarioRepository, rec *metrics.Recorder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		seed:        cfg.Seed,
		bounds:      cfg.Bounds,
		sensitivity: cfg.Sensitivity,
		scenarios:   scenarios,
		metrics:     rec,
		logger:      logger,
	}
}

// RegisterRoutes registers underwriting routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	uw := router.Group("/underwriting")
	{
		uw.POST("/project", h.project)
		uw.POST("/sensitivity", h.runSensitivity)
		uw.POST("/report", h.report)

		uw.POST("/scenarios", h.saveScenario)
		uw.GET("/scenarios", h.listScenarios)
		uw.GET("/scenarios/:id", h.getScenario)
	}
}

// =====================================================
// Request / response types
// =====================================================

// ProjectResponse is the body of a successful projection.
type ProjectResponse struct {
	Property   ingest.Property        `json:"property"`
	Result     *valuation.Result      `json:"result"`
	Violations []assumption.Violation `json:"violations,omitempty"`
}

// AxisRequest selects one sensitivity axis. Values wins when set; otherwise
// Count values Step apart are centred on the deal's current value.
type AxisRequest struct {
	Variable string    `json:"variable"`
	Values   []float64 `json:"values,omitempty"`
	Step     float64   `json:"step,omitempty"`
	Count    int       `json:"count,omitempty"`
}

// SensitivityRequest is a deal plus two axes. Missing axes use the
// configured defaults.
type SensitivityRequest struct {
	ingest.Deal
	Rows *AxisRequest `json:"rows,omitempty"`
	Cols *AxisRequest `json:"cols,omitempty"`
}

// ReportRequest is a deal plus an optional sensitivity grid to append.
type ReportRequest struct {
	SensitivityRequest
	IncludeSensitivity bool `json:"include_sensitivity"`
}

// ScenarioRequest saves a named what-if run.
type ScenarioRequest struct {
	Name string      `json:"name" binding:"required"`
	Deal ingest.Deal `json:"deal"`
}

// =====================================================
// Projection Endpoints
// =====================================================

// project handles POST /api/v1/underwriting/project
func (h *Handler) project(c *gin.Context) {
	var deal ingest.Deal
	if err := c.ShouldBindJSON(&deal); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.runProjection(&deal)
	if err != nil {
		h.writeEngineError(c, &deal, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// runSensitivity handles POST /api/v1/underwriting/sensitivity
func (h *Handler) runSensitivity(c *gin.Context) {
	var req SensitivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	grid, err := h.buildGrid(c, &req)
	if err != nil {
		h.writeEngineError(c, &req.Deal, err)
		return
	}
	c.JSON(http.StatusOK, grid)
}

// report handles POST /api/v1/underwriting/report?format=md|html|xlsx|pdf
func (h *Handler) report(c *gin.Context) {
	format, err := report.ParseFormat(c.DefaultQuery("format", string(report.FormatMarkdown)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.runProjection(&req.Deal)
	if err != nil {
		h.writeEngineError(c, &req.Deal, err)
		return
	}

	doc := &report.Document{
		Property:   req.Property,
		Result:     resp.Result,
		Violations: resp.Violations,
	}
	if req.IncludeSensitivity {
		grid, err := h.buildGrid(c, &req.SensitivityRequest)
		if err != nil {
			h.writeEngineError(c, &req.Deal, err)
			return
		}
		doc.Grid = grid
	}

	data, err := report.Render(doc, format)
	if err != nil {
		h.logger.Error("Failed to render report", zap.String("format", string(format)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if format == report.FormatXLSX || format == report.FormatPDF {
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, reportName(req.Property), format.Extension()))
	}
	c.Data(http.StatusOK, format.ContentType(), data)
}

// =====================================================
// Scenario Endpoints
// =====================================================

// saveScenario handles POST /api/v1/underwriting/scenarios
func (h *Handler) saveScenario(c *gin.Context) {
	if h.scenarios == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scenario store not configured"})
		return
	}

	var req ScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Deal.Property.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deal.property.id is required"})
		return
	}

	resp, err := h.runProjection(&req.Deal)
	if err != nil {
		h.writeEngineError(c, &req.Deal, err)
		return
	}

	sc := &store.Scenario{
		PropertyID:  req.Deal.Property.ID,
		Name:        req.Name,
		Baseline:    req.Deal.Baseline,
		Assumptions: resp.Result.Assumptions,
		Summary:     &resp.Result.Summary,
	}
	if err := h.scenarios.Save(c.Request.Context(), sc); err != nil {
		h.logger.Error("Failed to save scenario", zap.String("property_id", sc.PropertyID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.Info("Scenario saved",
		zap.String("id", sc.ID.String()),
		zap.String("property_id", sc.PropertyID),
		zap.String("name", sc.Name),
	)
	c.JSON(http.StatusCreated, sc)
}

// getScenario handles GET /api/v1/underwriting/scenarios/:id
func (h *Handler) getScenario(c *gin.Context) {
	if h.scenarios == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scenario store not configured"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scenario ID"})
		return
	}

	sc, err := h.scenarios.Get(c.Request.Context(), id)
	if errors.Is(err, store.ErrScenarioNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "scenario not found"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to get scenario", zap.String("id", id.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sc)
}

// listScenarios handles GET /api/v1/underwriting/scenarios?property_id=
func (h *Handler) listScenarios(c *gin.Context) {
	if h.scenarios == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scenario store not configured"})
		return
	}

	propertyID := c.Query("property_id")
	if propertyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "property_id is required"})
		return
	}

	list, err := h.scenarios.ListByProperty(c.Request.Context(), propertyID)
	if err != nil {
		h.logger.Error("Failed to list scenarios", zap.String("property_id", propertyID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if list == nil {
		list = []store.Scenario{}
	}
	c.JSON(http.StatusOK, gin.H{"scenarios": list, "total": len(list)})
}

// =====================================================
// Helper Functions
// =====================================================

func (h *Handler) runProjection(deal *ingest.Deal) (*ProjectResponse, error) {
	a := deal.Resolve(h.seed)

	start := time.Now()
	res, err := valuation.Project(deal.Baseline, a)
	h.metrics.ObserveProjection(res, err, time.Since(start))
	if err != nil {
		return nil, err
	}

	return &ProjectResponse{
		Property:   deal.Property,
		Result:     res,
		Violations: append(a.Validate(h.bounds), res.Warnings...),
	}, nil
}

func (h *Handler) buildGrid(c *gin.Context, req *SensitivityRequest) (*valuation.Grid, error) {
	base := req.Deal.Resolve(h.seed)

	rows, err := h.axis(req.Rows, h.sensitivity.RowVariable, h.sensitivity.RowStep, base)
	if err != nil {
		return nil, err
	}
	cols, err := h.axis(req.Cols, h.sensitivity.ColVariable, h.sensitivity.ColStep, base)
	if err != nil {
		return nil, err
	}
	if rows.Variable == cols.Variable {
		return nil, fmt.Errorf("%w: rows and cols both flex %s", valuation.ErrInvalidAxis, rows.Variable)
	}

	start := time.Now()
	grid, err := valuation.Sensitivity(c.Request.Context(), req.Deal.Baseline, base, rows, cols)
	h.metrics.ObserveSensitivity(err, time.Since(start))
	return grid, err
}

// axis resolves one requested axis. Every client error wraps
// valuation.ErrInvalidAxis.
func (h *Handler) axis(req *AxisRequest, defVariable string, defStep float64, base assumption.Assumptions) (valuation.Axis, error) {
	name, step, count := defVariable, defStep, h.sensitivity.Steps
	var values []float64
	if req != nil {
		if req.Variable != "" {
			name = req.Variable
		}
		if req.Step != 0 {
			step = req.Step
		}
		if req.Count > 0 {
			count = req.Count
		}
		values = req.Values
	}

	v, err := valuation.ParseVariable(name)
	if err != nil {
		return valuation.Axis{}, fmt.Errorf("%w: %v", valuation.ErrInvalidAxis, err)
	}

	limit := h.sensitivity.StepLimit()
	if len(values) > limit || (len(values) == 0 && count > limit) {
		return valuation.Axis{}, fmt.Errorf("%w: %s has more than %d values", valuation.ErrInvalidAxis, v, limit)
	}
	if len(values) == 0 {
		values = valuation.Steps(v.Get(base), step, count)
	}

	ax := valuation.Axis{Variable: v, Values: values}
	if err := ax.Validate(); err != nil {
		return valuation.Axis{}, err
	}
	return ax, nil
}

func (h *Handler) writeEngineError(c *gin.Context, deal *ingest.Deal, err error) {
	switch {
	case errors.Is(err, valuation.ErrMissingBaseline):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "engine unavailable",
			"missing": deal.Baseline.Missing(),
		})
	case errors.Is(err, valuation.ErrInvalidAxis):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Underwriting failed", zap.String("property_id", deal.Property.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func reportName(p ingest.Property) string {
	if p.ID != "" {
		return "underwriting-" + p.ID
	}
	return "underwriting"
}
