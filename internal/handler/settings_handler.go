package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hshisoka200/soutienflow-api/internal/models"
	"github.com/hshisoka200/soutienflow-api/internal/service"
	appErrors "github.com/hshisoka200/soutienflow-api/pkg/errors"
	"github.com/hshisoka200/soutienflow-api/pkg/response"
)

// SettingsHandler exposes center profile, staff and catalog endpoints.
type SettingsHandler struct {
	settings *service.SettingsService
}

// NewSettingsHandler constructs SettingsHandler.
func NewSettingsHandler(settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Profile godoc
// @Summary Get center profile
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings/profile [get]
func (h *SettingsHandler) Profile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	profile, err := h.settings.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// UpdateProfile godoc
// @Summary Update center profile
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body models.UpdateProfileRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Router /settings/profile [put]
func (h *SettingsHandler) UpdateProfile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	profile, err := h.settings.UpdateProfile(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// ListTeachers godoc
// @Summary List staff teachers
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings/teachers [get]
func (h *SettingsHandler) ListTeachers(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	teachers, err := h.settings.ListTeachers(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, nil)
}

// CreateTeacher godoc
// @Summary Add a staff teacher
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body models.CreateTeacherRequest true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Router /settings/teachers [post]
func (h *SettingsHandler) CreateTeacher(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.CreateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	teacher, err := h.settings.CreateTeacher(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, teacher)
}

// UpdateTeacher godoc
// @Summary Update a staff teacher
// @Tags Settings
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body models.UpdateTeacherRequest true "Teacher payload"
// @Success 200 {object} response.Envelope
// @Router /settings/teachers/{id} [put]
func (h *SettingsHandler) UpdateTeacher(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.UpdateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	teacher, err := h.settings.UpdateTeacher(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// DeleteTeacher godoc
// @Summary Remove a staff teacher
// @Tags Settings
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 204
// @Router /settings/teachers/{id} [delete]
func (h *SettingsHandler) DeleteTeacher(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.settings.DeleteTeacher(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Catalog godoc
// @Summary Supported levels and subjects
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings/catalog [get]
func (h *SettingsHandler) Catalog(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{
		"levels":   models.Levels,
		"subjects": models.Subjects,
	}, nil)
}
