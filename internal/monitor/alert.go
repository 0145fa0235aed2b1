package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"basismon/internal/analytics"
	"basismon/internal/models"
	"basismon/internal/repository"
	"basismon/internal/settings"
)

// AlertKindROC tags annualized-return threshold alerts in the event table.
const AlertKindROC = "roc_threshold"

// DefaultAlertCooldown spaces repeat alerts for the same contract.
const DefaultAlertCooldown = 5 * time.Minute

// Sender delivers one alert message to the operator channel.
type Sender interface {
	Enabled() bool
	Send(ctx context.Context, message string) error
}

// ROCAlertService watches published frames and notifies when a contract's
// annualized return crosses the configured threshold. The last persisted
// event per (asset, symbol, kind) gates repeats, so the cooldown holds
// across restarts. An event is recorded only after the send succeeded; a
// failed delivery retries naturally on the next frame.
type ROCAlertService struct {
	Repo     repository.Repository
	Sender   Sender
	Settings *settings.Service
	Hub      *Hub
	Cooldown time.Duration
	Logger   *zap.Logger
}

func (s *ROCAlertService) Run(ctx context.Context) error {
	if s == nil || s.Repo == nil || s.Settings == nil || s.Hub == nil {
		return nil
	}
	if s.Cooldown <= 0 {
		s.Cooldown = DefaultAlertCooldown
	}

	sub := s.Hub.Subscribe()
	defer s.Hub.Unsubscribe(sub)

	s.Logger.Info("roc alert service started", zap.Duration("cooldown", s.Cooldown))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-sub.C():
			if !ok {
				return nil
			}
			var frame Frame
			if err := json.Unmarshal(payload, &frame); err != nil {
				s.Logger.Warn("decode frame failed", zap.Error(err))
				continue
			}
			s.evaluate(ctx, frame)
		}
	}
}

func (s *ROCAlertService) evaluate(ctx context.Context, frame Frame) {
	snap := s.Settings.Snapshot()
	if !snap.AlertsEnabled {
		return
	}
	if s.Sender == nil || !s.Sender.Enabled() {
		return
	}

	for _, row := range frame.Instruments {
		if !row.Available || row.Future == nil || row.Future.ReturnOnCapital == nil {
			continue
		}
		roc := *row.Future.ReturnOnCapital
		if roc < snap.ReturnOnCapitalThreshold {
			continue
		}

		last, err := s.Repo.GetLastAlertEvent(ctx, row.Asset, row.Future.Symbol, AlertKindROC)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				s.Logger.Warn("load last alert event failed",
					zap.String("asset", row.Asset),
					zap.String("symbol", row.Future.Symbol),
					zap.Error(err))
			}
			continue
		}
		if last != nil && frame.GeneratedAt.Sub(last.SentAt) < s.Cooldown {
			continue
		}

		msg := s.formatMessage(row, snap)
		if err := s.Sender.Send(ctx, msg); err != nil {
			if !errors.Is(err, context.Canceled) {
				s.Logger.Warn("send alert failed",
					zap.String("asset", row.Asset),
					zap.String("symbol", row.Future.Symbol),
					zap.Error(err))
			}
			continue
		}

		detail, _ := json.Marshal(row)
		evt := &models.AlertEvent{
			Asset:     row.Asset,
			Symbol:    row.Future.Symbol,
			Kind:      AlertKindROC,
			Value:     roc,
			Threshold: snap.ReturnOnCapitalThreshold,
			Message:   msg,
			Payload:   detail,
			SentAt:    frame.GeneratedAt,
		}
		if err := s.Repo.InsertAlertEvent(ctx, evt); err != nil && !errors.Is(err, context.Canceled) {
			s.Logger.Warn("persist alert event failed",
				zap.String("asset", row.Asset),
				zap.String("symbol", row.Future.Symbol),
				zap.Error(err))
		}

		s.Logger.Info("roc alert sent",
			zap.String("asset", row.Asset),
			zap.String("symbol", row.Future.Symbol),
			zap.Float64("roc", roc),
			zap.Float64("threshold", snap.ReturnOnCapitalThreshold))
	}
}

func (s *ROCAlertService) formatMessage(row analytics.InstrumentRow, snap settings.Runtime) string {
	fut := row.Future
	msg := fmt.Sprintf("ROC alert %s %s: annualized %.2f%% >= %.2f%% at %.1f days to expiry",
		row.Asset, fut.Symbol, *fut.ReturnOnCapital, snap.ReturnOnCapitalThreshold, fut.DaysUntilExpiration)

	if fut.NetProfitCurrentFR != nil {
		msg += fmt.Sprintf("\nnet %.4f%%", *fut.NetProfitCurrentFR)
		if fut.NetProfitUSDT != nil {
			msg += fmt.Sprintf(" (%.2f USDT on %.0f)", *fut.NetProfitUSDT, snap.CapitalUSDT)
		}
	}
	msg += fmt.Sprintf("\nspread %.4f%%", fut.SpreadPercent)
	if fut.FundingRateUntilExpiration != nil {
		msg += fmt.Sprintf(", funding %.4f%%", *fut.FundingRateUntilExpiration)
	}
	if row.Perpetual != nil {
		if qty := analytics.ContractsPerSide(snap.CapitalUSDT, snap.Leverage, row.Perpetual.MarkPrice); !qty.IsZero() {
			msg += fmt.Sprintf("\n%s contracts per side at %.2fx", qty.String(), snap.Leverage)
		}
	}
	return msg
}
