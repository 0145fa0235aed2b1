package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"basismon/internal/analytics"
	"basismon/internal/cache"
	"basismon/internal/market"
	"basismon/internal/monitor"
	"basismon/internal/settings"
)

// InstrumentsHandler serves the dashboard reads: the latest full table,
// the configured asset list, and the per-asset contract ladder.
type InstrumentsHandler struct {
	Broadcaster *monitor.Broadcaster
	Engine      *analytics.Engine
	Settings    *settings.Service
	Assets      []market.Asset
	Views       cache.Store
	KeyPrefix   string
	Logger      *zap.Logger
}

func (h *InstrumentsHandler) Register(r *gin.Engine) {
	r.GET("/api/data", h.data)
	group := r.Group("/api/assets")
	group.GET("", h.listAssets)
	group.GET("/:name", h.assetDetail)
}

// @Summary Latest instrument table
// @Description Returns the most recent broadcast frame; falls back to the view cache right after a restart, and to an empty table before the first tick.
// @Tags instruments
// @Success 200 {object} apiResponse
// @Router /api/data [get]
func (h *InstrumentsHandler) data(c *gin.Context) {
	if h.Broadcaster != nil {
		if frame, ok := h.Broadcaster.LastFrame(); ok {
			Ok(c, json.RawMessage(frame), nil)
			return
		}
	}
	if h.Views != nil {
		cached, found, err := h.Views.Get(c.Request.Context(), cache.InstrumentsKey(h.KeyPrefix))
		if err != nil && h.Logger != nil {
			h.Logger.Warn("view cache read failed", zap.Error(err))
		}
		if found {
			Ok(c, json.RawMessage(cached), map[string]any{"source": "cache"})
			return
		}
	}

	// No tick has completed anywhere yet: an empty table, not an error.
	frame := monitor.Frame{
		Type:        monitor.FrameTypeInstruments,
		Instruments: []analytics.InstrumentRow{},
		GeneratedAt: time.Now().UTC(),
	}
	if h.Settings != nil {
		frame.Settings = h.Settings.Snapshot()
	}
	Ok(c, frame, nil)
}

type assetSummary struct {
	Name            string `json:"name"`
	PerpetualSymbol string `json:"perpetual_symbol"`
	SpotSymbol      string `json:"spot_symbol"`
}

// @Summary Configured assets
// @Tags instruments
// @Success 200 {object} apiResponse
// @Router /api/assets [get]
func (h *InstrumentsHandler) listAssets(c *gin.Context) {
	items := make([]assetSummary, 0, len(h.Assets))
	for _, asset := range h.Assets {
		items = append(items, assetSummary{
			Name:            asset.Name,
			PerpetualSymbol: asset.PerpetualSymbol,
			SpotSymbol:      asset.SpotSymbol,
		})
	}
	Ok(c, items, nil)
}

// @Summary Per-asset contract ladder
// @Description Computes the full ladder for one asset on demand. When the live snapshot is unusable the endpoint serves the last cached ladder instead.
// @Tags instruments
// @Param name path string true "asset name, e.g. ETH"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/assets/{name} [get]
func (h *InstrumentsHandler) assetDetail(c *gin.Context) {
	if h.Engine == nil || h.Settings == nil {
		Error(c, http.StatusInternalServerError, "engine unavailable", nil)
		return
	}
	name := strings.TrimSpace(c.Param("name"))
	asset, ok := h.findAsset(name)
	if !ok {
		Error(c, http.StatusNotFound, "unknown asset", nil)
		return
	}

	snap := h.Settings.Snapshot()
	detail := h.Engine.ComputeDetail(asset, analytics.Params{
		RiskFreeRate:       snap.RiskFreeRate,
		FundingHistoryDays: snap.FundingRateHistoryDays,
		CapitalUSDT:        snap.CapitalUSDT,
	}, time.Now().UTC())

	if !detail.Available {
		if cached, found := h.cachedDetail(c.Request.Context(), asset.Name); found {
			Ok(c, json.RawMessage(cached), map[string]any{
				"source": "cache",
				"reason": detail.Reason,
			})
			return
		}
		Ok(c, detail, nil)
		return
	}

	h.storeDetail(c.Request.Context(), asset.Name, detail, snap.Interval())
	Ok(c, detail, nil)
}

func (h *InstrumentsHandler) findAsset(name string) (market.Asset, bool) {
	for _, asset := range h.Assets {
		if strings.EqualFold(asset.Name, name) {
			return asset, true
		}
	}
	return market.Asset{}, false
}

func (h *InstrumentsHandler) cachedDetail(ctx context.Context, name string) ([]byte, bool) {
	if h.Views == nil {
		return nil, false
	}
	cached, found, err := h.Views.Get(ctx, cache.AssetKey(h.KeyPrefix, name))
	if err != nil {
		if h.Logger != nil && !errors.Is(err, context.Canceled) {
			h.Logger.Warn("view cache read failed", zap.String("asset", name), zap.Error(err))
		}
		return nil, false
	}
	return cached, found
}

func (h *InstrumentsHandler) storeDetail(ctx context.Context, name string, detail analytics.AssetDetail, interval time.Duration) {
	if h.Views == nil {
		return
	}
	payload, err := json.Marshal(detail)
	if err != nil {
		return
	}
	if err := h.Views.Set(ctx, cache.AssetKey(h.KeyPrefix, name), payload, 3*interval); err != nil {
		if h.Logger != nil && !errors.Is(err, context.Canceled) {
			h.Logger.Warn("view cache write failed", zap.String("asset", name), zap.Error(err))
		}
	}
}
