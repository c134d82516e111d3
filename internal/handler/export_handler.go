package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sekolah-digital/ops-api/internal/models"
	"github.com/sekolah-digital/ops-api/internal/service"
	"github.com/sekolah-digital/ops-api/pkg/response"
)

// ExportHandler exposes report downloads.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// MonthlyClassSheet godoc
// @Summary Download a monthly class attendance recap
// @Tags Exports
// @Produce octet-stream
// @Param id path string true "Class ID"
// @Param shift query string true "Shift (Morning/Afternoon/Evening)"
// @Param month query string false "Month (YYYY-MM), defaults to current"
// @Param format query string false "Format (csv/pdf), defaults to csv"
// @Success 200 {file} binary
// @Router /classes/{id}/export [get]
func (h *ExportHandler) MonthlyClassSheet(c *gin.Context) {
	month := c.Query("month")
	if month == "" {
		month = time.Now().UTC().Format("2006-01")
	}
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))

	result, err := h.exports.MonthlyClassSheet(c.Request.Context(), c.Param("id"), models.Shift(c.Query("shift")), month, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+result.FileName)
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
