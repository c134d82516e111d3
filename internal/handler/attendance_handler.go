package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sekolah-digital/ops-api/internal/models"
	"github.com/sekolah-digital/ops-api/internal/service"
	appErrors "github.com/sekolah-digital/ops-api/pkg/errors"
	"github.com/sekolah-digital/ops-api/pkg/response"
)

// AttendanceHandler exposes capture and resolved attendance endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
	status     *service.StatusService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(attendance *service.AttendanceService, status *service.StatusService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, status: status}
}

// Scan godoc
// @Summary Record an attendance capture
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.MarkAttendanceRequest true "Capture payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope "Concurrent write conflict, safe to retry"
// @Router /attendance/scan [post]
func (h *AttendanceHandler) Scan(c *gin.Context) {
	var req service.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.attendance.Mark(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// StudentMonth godoc
// @Summary Resolved attendance for one student and month
// @Tags Attendance
// @Produce json
// @Param id path string true "Student ID"
// @Param month query string true "Month (YYYY-MM)"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/attendance [get]
func (h *AttendanceHandler) StudentMonth(c *gin.Context) {
	month := c.Query("month")
	if month == "" {
		month = time.Now().UTC().Format("2006-01")
	}
	view, err := h.status.StudentMonth(c.Request.Context(), c.Param("id"), month)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// ClassDay godoc
// @Summary Resolved roster for one class, shift and date
// @Tags Attendance
// @Produce json
// @Param id path string true "Class ID"
// @Param shift query string true "Shift (Morning/Afternoon/Evening)"
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/attendance [get]
func (h *AttendanceHandler) ClassDay(c *gin.Context) {
	date := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid date, expected YYYY-MM-DD"))
			return
		}
		date = parsed
	}
	view, err := h.status.ClassDay(c.Request.Context(), c.Param("id"), models.Shift(c.Query("shift")), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

func parseQueryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}
