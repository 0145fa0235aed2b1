package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"basismon/internal/repository"
)

// AlertsHandler serves the notification audit trail.
type AlertsHandler struct {
	Repo repository.Repository
}

func (h *AlertsHandler) Register(r *gin.Engine) {
	r.GET("/api/alerts", h.list)
}

// @Summary List sent alerts
// @Tags alerts
// @Param asset query string false "filter by asset"
// @Param kind query string false "filter by alert kind"
// @Param since query string false "RFC3339 lower bound on sent_at"
// @Param limit query int false "page size"
// @Param offset query int false "page offset"
// @Success 200 {object} apiResponse
// @Router /api/alerts [get]
func (h *AlertsHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListAlertEventsParams{
		Asset:  strQueryPtr(c, "asset"),
		Kind:   strQueryPtr(c, "kind"),
		Since:  timeQueryPtr(c, "since"),
		Limit:  limit,
		Offset: offset,
	}
	items, err := h.Repo.ListAlertEvents(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountAlertEvents(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}
