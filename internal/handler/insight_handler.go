package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sekolah-digital/ops-api/internal/models"
	"github.com/sekolah-digital/ops-api/internal/service"
	"github.com/sekolah-digital/ops-api/pkg/response"
)

// InsightHandler exposes cohort arrival insights.
type InsightHandler struct {
	insights *service.InsightService
}

// NewInsightHandler constructs the handler.
func NewInsightHandler(insights *service.InsightService) *InsightHandler {
	return &InsightHandler{insights: insights}
}

// Leaderboard godoc
// @Summary Earliest and latest arrivals for a class cohort
// @Tags Insights
// @Produce json
// @Param id path string true "Class ID"
// @Param shift query string true "Shift (Morning/Afternoon/Evening)"
// @Param month query string false "Month (YYYY-MM), defaults to current"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/leaderboard [get]
func (h *InsightHandler) Leaderboard(c *gin.Context) {
	month := c.Query("month")
	if month == "" {
		month = time.Now().UTC().Format("2006-01")
	}
	start := time.Now()
	view, err := h.insights.Leaderboard(c.Request.Context(), c.Param("id"), models.Shift(c.Query("shift")), month)
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := map[string]interface{}{
		"processing_time_ms": time.Since(start).Milliseconds(),
	}
	response.JSON(c, http.StatusOK, view, nil, meta)
}
