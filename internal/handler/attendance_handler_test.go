package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestAttendanceHandlerScanInvalidJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAttendanceHandler(nil, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/attendance/scan", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Scan(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttendanceHandlerClassDayInvalidDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAttendanceHandler(nil, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/classes/X-A/attendance?shift=Morning&date=bad-date", nil)
	c.Request = req

	handler.ClassDay(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPermissionHandlerListInvalidDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPermissionHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/permissions?dateFrom=31-03-2025", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
