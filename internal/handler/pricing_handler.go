package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hshisoka200/soutienflow-api/internal/models"
	"github.com/hshisoka200/soutienflow-api/internal/service"
	appErrors "github.com/hshisoka200/soutienflow-api/pkg/errors"
	"github.com/hshisoka200/soutienflow-api/pkg/response"
)

// PricingHandler exposes pricing rule endpoints.
type PricingHandler struct {
	pricing *service.PricingService
}

// NewPricingHandler constructs PricingHandler.
func NewPricingHandler(pricing *service.PricingService) *PricingHandler {
	return &PricingHandler{pricing: pricing}
}

// ListRules godoc
// @Summary List pricing rules
// @Tags Pricing
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /pricing/rules [get]
func (h *PricingHandler) ListRules(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	rules, err := h.pricing.ListRules(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// CreateRule godoc
// @Summary Create pricing rule
// @Tags Pricing
// @Accept json
// @Produce json
// @Param payload body models.CreatePricingRuleRequest true "Rule payload"
// @Success 201 {object} response.Envelope
// @Router /pricing/rules [post]
func (h *PricingHandler) CreateRule(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.CreatePricingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rule, err := h.pricing.CreateRule(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rule)
}

// ReplaceRules godoc
// @Summary Replace all pricing rules
// @Tags Pricing
// @Accept json
// @Produce json
// @Param payload body models.ReplacePricingRulesRequest true "Full rule set"
// @Success 200 {object} response.Envelope
// @Router /pricing/rules [put]
func (h *PricingHandler) ReplaceRules(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.ReplacePricingRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rules, err := h.pricing.ReplaceRules(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// UpdateRule godoc
// @Summary Update pricing rule
// @Tags Pricing
// @Accept json
// @Produce json
// @Param id path string true "Rule ID"
// @Param payload body models.UpdatePricingRuleRequest true "Rule payload"
// @Success 200 {object} response.Envelope
// @Router /pricing/rules/{id} [put]
func (h *PricingHandler) UpdateRule(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.UpdatePricingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rule, err := h.pricing.UpdateRule(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

// DeleteRule godoc
// @Summary Delete pricing rule
// @Tags Pricing
// @Produce json
// @Param id path string true "Rule ID"
// @Success 204
// @Router /pricing/rules/{id} [delete]
func (h *PricingHandler) DeleteRule(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.pricing.DeleteRule(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Quote godoc
// @Summary Resolve the monthly price for a subject and level
// @Tags Pricing
// @Produce json
// @Param subject query string true "Subject"
// @Param level query string true "Level"
// @Success 200 {object} response.Envelope
// @Router /pricing/quote [get]
func (h *PricingHandler) Quote(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	subject := c.Query("subject")
	level := c.Query("level")
	if subject == "" || level == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "subject and level required"))
		return
	}
	quote, err := h.pricing.Resolve(c.Request.Context(), claims.UserID, subject, level)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quote, nil)
}
