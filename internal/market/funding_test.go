package market

import (
	"math"
	"testing"
	"time"
)

func TestFundingRateHistory_AverageOver(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	h := NewFundingRateHistory()
	h.Record("ETHUSDT", 0.0001, now.Add(-8*time.Hour))
	h.Record("ETHUSDT", 0.0002, now.Add(-16*time.Hour))
	h.Record("ETHUSDT", 0.0003, now.Add(-24*time.Hour))
	// Outside a 2-day window.
	h.Record("ETHUSDT", 0.0100, now.Add(-49*time.Hour))

	avg, n := h.AverageOver("ETHUSDT", 2, now)
	if n != 3 {
		t.Fatalf("n=%d want=3", n)
	}
	want := (0.0001 + 0.0002 + 0.0003) / 3
	if math.Abs(avg-want) > 1e-12 {
		t.Fatalf("avg=%v want=%v", avg, want)
	}
}

func TestFundingRateHistory_AverageOverEmpty(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	h := NewFundingRateHistory()

	if _, n := h.AverageOver("ETHUSDT", 30, now); n != 0 {
		t.Fatalf("n=%d want=0 for unknown symbol", n)
	}

	h.Record("ETHUSDT", 0.0001, now.Add(-40*24*time.Hour))
	if _, n := h.AverageOver("ETHUSDT", 30, now); n != 0 {
		t.Fatalf("n=%d want=0 when all samples are outside the window", n)
	}
}

func TestFundingRateHistory_WindowBoundaries(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	h := NewFundingRateHistory()
	// Exactly at the cutoff: excluded.
	h.Record("ETHUSDT", 0.5, now.Add(-2*24*time.Hour))
	// Timestamped after "now" (clock skew upstream): excluded.
	h.Record("ETHUSDT", 0.5, now.Add(time.Hour))
	// In-window.
	h.Record("ETHUSDT", 0.0002, now.Add(-time.Hour))

	avg, n := h.AverageOver("ETHUSDT", 2, now)
	if n != 1 {
		t.Fatalf("n=%d want=1", n)
	}
	if avg != 0.0002 {
		t.Fatalf("avg=%v want=0.0002", avg)
	}
}

func TestFundingRateHistory_DuplicatesCounted(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	h := NewFundingRateHistory()
	at := now.Add(-time.Hour)
	h.Record("ETHUSDT", 0.0001, at)
	h.Record("ETHUSDT", 0.0003, at)

	avg, n := h.AverageOver("ETHUSDT", 1, now)
	if n != 2 {
		t.Fatalf("n=%d want=2 (duplicate timestamps both count)", n)
	}
	if math.Abs(avg-0.0002) > 1e-12 {
		t.Fatalf("avg=%v want=0.0002", avg)
	}
}

func TestFundingRateHistory_LastSampleTime(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	h := NewFundingRateHistory()

	if _, ok := h.LastSampleTime("ETHUSDT"); ok {
		t.Fatalf("ok=true want=false with no samples")
	}

	h.RecordBatch("ETHUSDT", []FundingSample{
		{Symbol: "ETHUSDT", Rate: 0.0001, FundedAt: now.Add(-16 * time.Hour)},
		{Symbol: "ETHUSDT", Rate: 0.0002, FundedAt: now.Add(-8 * time.Hour)},
	})
	latest, ok := h.LastSampleTime("ETHUSDT")
	if !ok {
		t.Fatalf("ok=false want=true")
	}
	if !latest.Equal(now.Add(-8 * time.Hour)) {
		t.Fatalf("latest=%v want=%v", latest, now.Add(-8*time.Hour))
	}
}

func TestFundingRateHistory_Prune(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	h := NewFundingRateHistory()
	h.Record("ETHUSDT", 0.0001, now.Add(-400*24*time.Hour))
	h.Record("ETHUSDT", 0.0002, now.Add(-8*time.Hour))
	h.Record("BTCUSDT", 0.0003, now.Add(-400*24*time.Hour))

	dropped := h.Prune(now)
	if dropped != 2 {
		t.Fatalf("dropped=%d want=2", dropped)
	}
	if got := h.SampleCount("ETHUSDT"); got != 1 {
		t.Fatalf("ETHUSDT samples=%d want=1", got)
	}
	if got := h.SampleCount("BTCUSDT"); got != 0 {
		t.Fatalf("BTCUSDT samples=%d want=0 after full prune", got)
	}

	// The 365d average still sees the surviving sample.
	if _, n := h.AverageOver("ETHUSDT", 365, now); n != 1 {
		t.Fatalf("n=%d want=1 after prune", n)
	}
}
