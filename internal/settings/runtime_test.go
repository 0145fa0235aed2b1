package settings

import (
	"strings"
	"testing"
	"time"
)

func validRuntime() Runtime {
	return Runtime{
		SpreadThresholdPercent:    0.3,
		FundingRateHistoryDays:    30,
		MonitoringIntervalSeconds: 60,
		ReturnOnCapitalThreshold:  20,
		AlertsEnabled:             false,
		CapitalUSDT:               10000,
		Leverage:                  1,
		RiskFreeRate:              0.04,
	}
}

func TestRuntimeValidate(t *testing.T) {
	if err := validRuntime().Validate(); err != nil {
		t.Fatalf("valid runtime rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Runtime)
		field  string
	}{
		{"spread negative", func(r *Runtime) { r.SpreadThresholdPercent = -0.1 }, "spread_threshold_percent"},
		{"spread over 100", func(r *Runtime) { r.SpreadThresholdPercent = 100.5 }, "spread_threshold_percent"},
		{"days zero", func(r *Runtime) { r.FundingRateHistoryDays = 0 }, "funding_rate_history_days"},
		{"days over year", func(r *Runtime) { r.FundingRateHistoryDays = 366 }, "funding_rate_history_days"},
		{"interval zero", func(r *Runtime) { r.MonitoringIntervalSeconds = 0 }, "monitoring_interval_seconds"},
		{"interval over hour", func(r *Runtime) { r.MonitoringIntervalSeconds = 3601 }, "monitoring_interval_seconds"},
		{"roc negative", func(r *Runtime) { r.ReturnOnCapitalThreshold = -1 }, "return_on_capital_threshold"},
		{"capital zero", func(r *Runtime) { r.CapitalUSDT = 0 }, "capital_usdt"},
		{"leverage negative", func(r *Runtime) { r.Leverage = -1 }, "leverage"},
		{"leverage zero", func(r *Runtime) { r.Leverage = 0 }, "leverage"},
		{"leverage over 100", func(r *Runtime) { r.Leverage = 101 }, "leverage"},
		{"rate negative", func(r *Runtime) { r.RiskFreeRate = -0.01 }, "risk_free_rate"},
		{"rate over 1", func(r *Runtime) { r.RiskFreeRate = 1.5 }, "risk_free_rate"},
	}
	for _, c := range cases {
		r := validRuntime()
		c.mutate(&r)
		err := r.Validate()
		if err == nil {
			t.Fatalf("%s: expected validation error", c.name)
		}
		if !strings.Contains(err.Error(), c.field) {
			t.Fatalf("%s: error %q does not name %s", c.name, err, c.field)
		}
	}

	// Boundary values stay legal.
	r := validRuntime()
	r.SpreadThresholdPercent = 100
	r.FundingRateHistoryDays = 365
	r.MonitoringIntervalSeconds = 3600
	r.Leverage = 100
	r.RiskFreeRate = 1
	r.ReturnOnCapitalThreshold = 0
	if err := r.Validate(); err != nil {
		t.Fatalf("boundary runtime rejected: %v", err)
	}
}

func TestRuntimeApply(t *testing.T) {
	base := validRuntime()
	capital := 25000.0
	days := 90

	patched := base.Apply(Update{CapitalUSDT: &capital, FundingRateHistoryDays: &days})
	if patched.CapitalUSDT != 25000 || patched.FundingRateHistoryDays != 90 {
		t.Fatalf("patched=%+v, update not applied", patched)
	}
	if patched.Leverage != base.Leverage || patched.RiskFreeRate != base.RiskFreeRate {
		t.Fatalf("patched=%+v, untouched fields changed", patched)
	}
	if base.CapitalUSDT != 10000 {
		t.Fatalf("base mutated: %+v", base)
	}
}

func TestUpdateEmpty(t *testing.T) {
	if !(Update{}).Empty() {
		t.Fatalf("zero update reported non-empty")
	}
	v := true
	if (Update{AlertsEnabled: &v}).Empty() {
		t.Fatalf("update with a field reported empty")
	}
}

func TestRuntimeInterval(t *testing.T) {
	r := validRuntime()
	if got := r.Interval(); got != 60*time.Second {
		t.Fatalf("interval=%v want=60s", got)
	}
}
