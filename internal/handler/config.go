package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"basismon/internal/settings"
)

// ConfigHandler exposes the hot-reloadable runtime settings. Reads return
// the current snapshot; writes go through the settings service, which
// validates the merged result before anything is persisted or published.
type ConfigHandler struct {
	Settings *settings.Service
	Logger   *zap.Logger
}

func (h *ConfigHandler) Register(r *gin.Engine) {
	r.GET("/api/config", h.get)
	r.PUT("/api/config", h.put)
}

// @Summary Current runtime settings
// @Tags config
// @Success 200 {object} apiResponse
// @Router /api/config [get]
func (h *ConfigHandler) get(c *gin.Context) {
	if h.Settings == nil {
		Error(c, http.StatusInternalServerError, "settings unavailable", nil)
		return
	}
	Ok(c, h.Settings.Snapshot(), nil)
}

// @Summary Update runtime settings
// @Description Partial update; omitted fields keep their current value. A value outside its allowed range rejects the whole request and changes nothing.
// @Tags config
// @Accept json
// @Param body body settings.Update true "fields to change"
// @Success 200 {object} apiResponse
// @Failure 400 {object} apiResponse
// @Router /api/config [put]
func (h *ConfigHandler) put(c *gin.Context) {
	if h.Settings == nil {
		Error(c, http.StatusInternalServerError, "settings unavailable", nil)
		return
	}
	var upd settings.Update
	if err := c.ShouldBindJSON(&upd); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	next, err := h.Settings.Update(c.Request.Context(), upd)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, settings.ErrInvalid) {
			status = http.StatusBadRequest
		}
		Error(c, status, err.Error(), nil)
		return
	}
	Ok(c, next, nil)
}
