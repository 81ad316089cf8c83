package config

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"deal_underwriting/pkg/core/assumption"
	coreconfig "deal_underwriting/pkg/core/config"
	"deal_underwriting/pkg/core/valuation"
)

// AssumptionsResponse tells the deal screen where each slider starts and how
// far it may move.
type AssumptionsResponse struct {
	Defaults    assumption.Seed              `json:"defaults"`
	Bounds      assumption.Bounds            `json:"bounds"`
	Variables   []valuation.Variable         `json:"sensitivity_variables"`
	Sensitivity coreconfig.SensitivityConfig `json:"sensitivity"`
}

// Handler holds dependencies for config endpoints
type Handler struct {
	cfg *coreconfig.Config
}

// NewHandler creates a new config handler
func NewHandler(cfg *coreconfig.Config) *Handler {
	return &Handler{cfg: cfg}
}

// RegisterRoutes registers config routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/config/assumptions", h.assumptions)
}

// assumptions handles GET /api/v1/config/assumptions
func (h *Handler) assumptions(c *gin.Context) {
	c.JSON(http.StatusOK, AssumptionsResponse{
		Defaults:    h.cfg.Seed,
		Bounds:      h.cfg.Bounds,
		Variables:   valuation.Variables,
		Sensitivity: h.cfg.Sensitivity,
	})
}
