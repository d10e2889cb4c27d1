package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hshisoka200/soutienflow-api/internal/models"
	"github.com/hshisoka200/soutienflow-api/internal/service"
	appErrors "github.com/hshisoka200/soutienflow-api/pkg/errors"
	"github.com/hshisoka200/soutienflow-api/pkg/response"
)

// PaymentHandler exposes the payment ledger.
type PaymentHandler struct {
	payments *service.PaymentService
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// List godoc
// @Summary List recorded payments
// @Tags Payments
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param method query string false "Filter by method"
// @Param from query string false "Period start (RFC3339)"
// @Param to query string false "Period end (RFC3339)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.PaymentFilter
	filter.StudentID = c.Query("studentId")
	if method := c.Query("method"); method != "" {
		m := models.PaymentMethod(method)
		if !models.ValidPaymentMethod(m) {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown payment method"))
			return
		}
		filter.Method = &m
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid from timestamp"))
			return
		}
		filter.From = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid to timestamp"))
			return
		}
		filter.To = &t
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	payments, pagination, err := h.payments.List(c.Request.Context(), claims.UserID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, pagination)
}

// Summary godoc
// @Summary Month income summary
// @Tags Payments
// @Produce json
// @Param month query string false "Month (2006-01), defaults to current"
// @Success 200 {object} response.Envelope
// @Router /payments/summary [get]
func (h *PaymentHandler) Summary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	month := time.Now()
	if raw := c.Query("month"); raw != "" {
		parsed, err := time.Parse("2006-01", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "month must use the 2006-01 format"))
			return
		}
		month = parsed
	}
	summary, err := h.payments.Summary(c.Request.Context(), claims.UserID, month)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
