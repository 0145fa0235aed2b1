package settings

import (
	"errors"
	"fmt"
	"time"
)

// Keys under which runtime settings persist in runtime_settings.
const (
	KeySpreadThreshold    = "monitor.spread_threshold_percent"
	KeyFundingHistoryDays = "monitor.funding_rate_history_days"
	KeyInterval           = "monitor.interval_seconds"
	KeyROCThreshold       = "alerts.return_on_capital_threshold"
	KeyAlertsEnabled      = "alerts.enabled"
	KeyCapital            = "trade.capital_usdt"
	KeyLeverage           = "trade.leverage"
	KeyRiskFreeRate       = "model.risk_free_rate"
)

// ErrInvalid marks a runtime update rejected by validation. Nothing was
// persisted or published when an error wraps it.
var ErrInvalid = errors.New("invalid settings")

// Runtime is the operator-tunable configuration. It changes at runtime
// through the config endpoint and every consumer works from a snapshot,
// so a single computation never mixes two generations of values.
type Runtime struct {
	SpreadThresholdPercent    float64 `json:"spread_threshold_percent"`
	FundingRateHistoryDays    int     `json:"funding_rate_history_days"`
	MonitoringIntervalSeconds int     `json:"monitoring_interval_seconds"`
	ReturnOnCapitalThreshold  float64 `json:"return_on_capital_threshold"`
	AlertsEnabled             bool    `json:"alerts_enabled"`
	CapitalUSDT               float64 `json:"capital_usdt"`
	Leverage                  float64 `json:"leverage"`
	RiskFreeRate              float64 `json:"risk_free_rate"`
}

// Interval returns the monitoring cadence as a duration.
func (r Runtime) Interval() time.Duration {
	return time.Duration(r.MonitoringIntervalSeconds) * time.Second
}

// Validate checks every field against its allowed range and names the
// first offending field. A Runtime that fails validation must never be
// applied or persisted.
func (r Runtime) Validate() error {
	if r.SpreadThresholdPercent < 0 || r.SpreadThresholdPercent > 100 {
		return fmt.Errorf("spread_threshold_percent must be between 0 and 100, got %v", r.SpreadThresholdPercent)
	}
	if r.FundingRateHistoryDays < 1 || r.FundingRateHistoryDays > 365 {
		return fmt.Errorf("funding_rate_history_days must be between 1 and 365, got %d", r.FundingRateHistoryDays)
	}
	if r.MonitoringIntervalSeconds < 1 || r.MonitoringIntervalSeconds > 3600 {
		return fmt.Errorf("monitoring_interval_seconds must be between 1 and 3600, got %d", r.MonitoringIntervalSeconds)
	}
	if r.ReturnOnCapitalThreshold < 0 {
		return fmt.Errorf("return_on_capital_threshold must not be negative, got %v", r.ReturnOnCapitalThreshold)
	}
	if r.CapitalUSDT <= 0 {
		return fmt.Errorf("capital_usdt must be positive, got %v", r.CapitalUSDT)
	}
	if r.Leverage <= 0 || r.Leverage > 100 {
		return fmt.Errorf("leverage must be between 0 (exclusive) and 100, got %v", r.Leverage)
	}
	if r.RiskFreeRate < 0 || r.RiskFreeRate > 1 {
		return fmt.Errorf("risk_free_rate must be between 0 and 1, got %v", r.RiskFreeRate)
	}
	return nil
}

// Update is a partial settings change; nil fields keep their current value.
type Update struct {
	SpreadThresholdPercent    *float64 `json:"spread_threshold_percent"`
	FundingRateHistoryDays    *int     `json:"funding_rate_history_days"`
	MonitoringIntervalSeconds *int     `json:"monitoring_interval_seconds"`
	ReturnOnCapitalThreshold  *float64 `json:"return_on_capital_threshold"`
	AlertsEnabled             *bool    `json:"alerts_enabled"`
	CapitalUSDT               *float64 `json:"capital_usdt"`
	Leverage                  *float64 `json:"leverage"`
	RiskFreeRate              *float64 `json:"risk_free_rate"`
}

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool {
	return u.SpreadThresholdPercent == nil &&
		u.FundingRateHistoryDays == nil &&
		u.MonitoringIntervalSeconds == nil &&
		u.ReturnOnCapitalThreshold == nil &&
		u.AlertsEnabled == nil &&
		u.CapitalUSDT == nil &&
		u.Leverage == nil &&
		u.RiskFreeRate == nil
}

// Apply overlays the update on a copy of r and returns the result.
func (r Runtime) Apply(u Update) Runtime {
	if u.SpreadThresholdPercent != nil {
		r.SpreadThresholdPercent = *u.SpreadThresholdPercent
	}
	if u.FundingRateHistoryDays != nil {
		r.FundingRateHistoryDays = *u.FundingRateHistoryDays
	}
	if u.MonitoringIntervalSeconds != nil {
		r.MonitoringIntervalSeconds = *u.MonitoringIntervalSeconds
	}
	if u.ReturnOnCapitalThreshold != nil {
		r.ReturnOnCapitalThreshold = *u.ReturnOnCapitalThreshold
	}
	if u.AlertsEnabled != nil {
		r.AlertsEnabled = *u.AlertsEnabled
	}
	if u.CapitalUSDT != nil {
		r.CapitalUSDT = *u.CapitalUSDT
	}
	if u.Leverage != nil {
		r.Leverage = *u.Leverage
	}
	if u.RiskFreeRate != nil {
		r.RiskFreeRate = *u.RiskFreeRate
	}
	return r
}
