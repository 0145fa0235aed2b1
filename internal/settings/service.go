package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"basismon/internal/models"
	"basismon/internal/repository"
)

func settingDescriptions() map[string]string {
	return map[string]string{
		KeySpreadThreshold:    "dashboard spread threshold, percent",
		KeyFundingHistoryDays: "trailing window for the funding average, days",
		KeyInterval:           "recompute and broadcast cadence, seconds",
		KeyROCThreshold:       "annualized ROC that triggers an alert, percent",
		KeyAlertsEnabled:      "telegram alert delivery on/off",
		KeyCapital:            "working capital for position sizing, USDT",
		KeyLeverage:           "per-leg leverage multiplier",
		KeyRiskFreeRate:       "annual risk-free rate for fair value",
	}
}

func settingValues(r Runtime) map[string]any {
	return map[string]any{
		KeySpreadThreshold:    r.SpreadThresholdPercent,
		KeyFundingHistoryDays: r.FundingRateHistoryDays,
		KeyInterval:           r.MonitoringIntervalSeconds,
		KeyROCThreshold:       r.ReturnOnCapitalThreshold,
		KeyAlertsEnabled:      r.AlertsEnabled,
		KeyCapital:            r.CapitalUSDT,
		KeyLeverage:           r.Leverage,
		KeyRiskFreeRate:       r.RiskFreeRate,
	}
}

// Service owns the runtime settings lifecycle: defaults are seeded into
// the DB on first boot, stored rows overlay the defaults at startup, and
// Snapshot hands out a lock-free copy for the hot paths. Writers serialize
// through Update; readers never block.
type Service struct {
	Repo     repository.Repository
	Logger   *zap.Logger
	Defaults Runtime

	mu      sync.Mutex
	current atomic.Value
}

// EnsureDefaults inserts a row for every key that has none yet. Existing
// rows are left alone, whatever their value.
func (s *Service) EnsureDefaults(ctx context.Context) error {
	now := time.Now().UTC()
	descs := settingDescriptions()
	for key, val := range settingValues(s.Defaults) {
		existing, err := s.Repo.GetRuntimeSettingByKey(ctx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		raw, _ := json.Marshal(val)
		item := &models.RuntimeSetting{
			Key:         key,
			Value:       datatypes.JSON(raw),
			Description: descs[key],
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.Repo.UpsertRuntimeSetting(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// Load overlays stored rows on the defaults and publishes the result.
// Rows with unknown keys or unreadable values are skipped with a warning;
// if the merged result fails validation the defaults win wholesale.
func (s *Service) Load(ctx context.Context) error {
	rows, err := s.Repo.ListRuntimeSettings(ctx)
	if err != nil {
		return err
	}

	r := s.Defaults
	for _, row := range rows {
		if err := applySetting(&r, row.Key, row.Value); err != nil {
			s.Logger.Warn("skipping runtime setting",
				zap.String("key", row.Key),
				zap.Error(err))
		}
	}
	if err := r.Validate(); err != nil {
		s.Logger.Warn("stored settings failed validation, using defaults", zap.Error(err))
		r = s.Defaults
	}

	s.current.Store(r)
	return nil
}

// Snapshot returns the current settings. Safe from any goroutine.
func (s *Service) Snapshot() Runtime {
	if v := s.current.Load(); v != nil {
		return v.(Runtime)
	}
	return s.Defaults
}

// Update validates the patched settings as a whole, persists only the
// fields the update names, and publishes the new snapshot. A validation
// failure leaves both the DB and the snapshot untouched.
func (s *Service) Update(ctx context.Context, u Update) (Runtime, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.Empty() {
		return s.Snapshot(), nil
	}

	next := s.Snapshot().Apply(u)
	if err := next.Validate(); err != nil {
		return Runtime{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	now := time.Now().UTC()
	descs := settingDescriptions()
	values := settingValues(next)
	for _, key := range changedKeys(u) {
		raw, err := json.Marshal(values[key])
		if err != nil {
			return Runtime{}, fmt.Errorf("encode %s: %w", key, err)
		}
		item := &models.RuntimeSetting{
			Key:         key,
			Value:       datatypes.JSON(raw),
			Description: descs[key],
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.Repo.UpsertRuntimeSetting(ctx, item); err != nil {
			return Runtime{}, fmt.Errorf("persist %s: %w", key, err)
		}
	}

	s.current.Store(next)
	s.Logger.Info("runtime settings updated", zap.Strings("keys", changedKeys(u)))
	return next, nil
}

func changedKeys(u Update) []string {
	keys := make([]string, 0, 8)
	if u.SpreadThresholdPercent != nil {
		keys = append(keys, KeySpreadThreshold)
	}
	if u.FundingRateHistoryDays != nil {
		keys = append(keys, KeyFundingHistoryDays)
	}
	if u.MonitoringIntervalSeconds != nil {
		keys = append(keys, KeyInterval)
	}
	if u.ReturnOnCapitalThreshold != nil {
		keys = append(keys, KeyROCThreshold)
	}
	if u.AlertsEnabled != nil {
		keys = append(keys, KeyAlertsEnabled)
	}
	if u.CapitalUSDT != nil {
		keys = append(keys, KeyCapital)
	}
	if u.Leverage != nil {
		keys = append(keys, KeyLeverage)
	}
	if u.RiskFreeRate != nil {
		keys = append(keys, KeyRiskFreeRate)
	}
	return keys
}

func applySetting(r *Runtime, key string, raw datatypes.JSON) error {
	switch key {
	case KeySpreadThreshold:
		return json.Unmarshal(raw, &r.SpreadThresholdPercent)
	case KeyFundingHistoryDays:
		return json.Unmarshal(raw, &r.FundingRateHistoryDays)
	case KeyInterval:
		return json.Unmarshal(raw, &r.MonitoringIntervalSeconds)
	case KeyROCThreshold:
		return json.Unmarshal(raw, &r.ReturnOnCapitalThreshold)
	case KeyAlertsEnabled:
		return json.Unmarshal(raw, &r.AlertsEnabled)
	case KeyCapital:
		return json.Unmarshal(raw, &r.CapitalUSDT)
	case KeyLeverage:
		return json.Unmarshal(raw, &r.Leverage)
	case KeyRiskFreeRate:
		return json.Unmarshal(raw, &r.RiskFreeRate)
	default:
		return fmt.Errorf("unknown setting key %q", key)
	}
}
