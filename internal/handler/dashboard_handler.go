package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hshisoka200/soutienflow-api/internal/service"
	appErrors "github.com/hshisoka200/soutienflow-api/pkg/errors"
	"github.com/hshisoka200/soutienflow-api/pkg/response"
)

// DashboardHandler exposes aggregate stats and expiry alerts.
type DashboardHandler struct {
	dashboard *service.DashboardService
	expiry    *service.ExpiryService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboard *service.DashboardService, expiry *service.ExpiryService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, expiry: expiry}
}

// Stats godoc
// @Summary Dashboard statistics
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	stats, err := h.dashboard.Stats(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Alerts godoc
// @Summary Students whose payment cycle has lapsed
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/alerts [get]
func (h *DashboardHandler) Alerts(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	alerts, err := h.expiry.Alerts(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alerts, nil)
}
