package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sekolah-digital/ops-api/internal/service"
	appErrors "github.com/sekolah-digital/ops-api/pkg/errors"
	"github.com/sekolah-digital/ops-api/pkg/response"
)

// ClassConfigHandler exposes class calendar and grace configuration.
type ClassConfigHandler struct {
	configs *service.ClassConfigService
}

// NewClassConfigHandler constructs the handler.
func NewClassConfigHandler(configs *service.ClassConfigService) *ClassConfigHandler {
	return &ClassConfigHandler{configs: configs}
}

// List godoc
// @Summary List class configurations
// @Tags Classes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classes/config [get]
func (h *ClassConfigHandler) List(c *gin.Context) {
	configs, err := h.configs.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, configs, nil)
}

// Get godoc
// @Summary Get one class configuration
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/config [get]
func (h *ClassConfigHandler) Get(c *gin.Context) {
	cfg, err := h.configs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// Upsert godoc
// @Summary Create or replace a class configuration
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body service.UpsertClassConfigRequest true "Config payload"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/config [put]
func (h *ClassConfigHandler) Upsert(c *gin.Context) {
	var req service.UpsertClassConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	cfg, err := h.configs.Upsert(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}
