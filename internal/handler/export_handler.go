package handler

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/hshisoka200/soutienflow-api/internal/service"
	appErrors "github.com/hshisoka200/soutienflow-api/pkg/errors"
	"github.com/hshisoka200/soutienflow-api/pkg/response"
)

// ExportHandler streams rendered documents from signed download tokens.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Download godoc
// @Summary Download a rendered document
// @Tags Export
// @Produce application/octet-stream
// @Param token path string true "Signed download token"
// @Success 200
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /export/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	_, relPath, _, err := h.exports.ParseToken(c.Param("token"), false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download link"))
		return
	}

	file, err := h.exports.OpenFile(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "document no longer available"))
		return
	}
	defer file.Close()

	filename := filepath.Base(relPath)
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		_ = c.Error(err)
	}
}
