package market

import (
	"sync"
	"time"
)

// MaxWindowDays bounds both retention and the backfill horizon: nothing
// ever averages over more than the 365-day window, so older samples are
// dead weight.
const MaxWindowDays = 365

// fundingPruneSlack keeps a few extra days past the longest window so that
// a sample does not flip in and out of the 365d average around prune time.
const fundingPruneSlack = 5 * 24 * time.Hour

// FundingSample is one observed funding settlement for a perpetual.
type FundingSample struct {
	Symbol   string
	Rate     float64
	FundedAt time.Time
}

// FundingRateHistory keeps rolling funding samples per perpetual and
// answers windowed averages. Samples are append-only; duplicates are the
// caller's problem and are counted as recorded. Averages depend only on
// window filtering, never on prune timing.
type FundingRateHistory struct {
	mu      sync.RWMutex
	samples map[string][]FundingSample
}

func NewFundingRateHistory() *FundingRateHistory {
	return &FundingRateHistory{samples: map[string][]FundingSample{}}
}

// Record appends one sample.
func (h *FundingRateHistory) Record(symbol string, rate float64, fundedAt time.Time) {
	h.mu.Lock()
	h.samples[symbol] = append(h.samples[symbol], FundingSample{
		Symbol:   symbol,
		Rate:     rate,
		FundedAt: fundedAt,
	})
	h.mu.Unlock()
}

// RecordBatch appends many samples under one lock, used by backfill.
func (h *FundingRateHistory) RecordBatch(symbol string, batch []FundingSample) {
	if len(batch) == 0 {
		return
	}
	h.mu.Lock()
	h.samples[symbol] = append(h.samples[symbol], batch...)
	h.mu.Unlock()
}

// AverageOver returns the arithmetic mean of samples inside the trailing
// window plus the sample count. n == 0 means no data in the window; callers
// must treat that as "unavailable", not as a zero rate.
func (h *FundingRateHistory) AverageOver(symbol string, windowDays int, now time.Time) (avg float64, n int) {
	if windowDays <= 0 {
		return 0, 0
	}
	cutoff := now.Add(-time.Duration(windowDays) * 24 * time.Hour)

	h.mu.RLock()
	defer h.mu.RUnlock()
	var sum float64
	for _, s := range h.samples[symbol] {
		if s.FundedAt.After(cutoff) && !s.FundedAt.After(now) {
			sum += s.Rate
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}

// LastSampleTime returns the newest sample timestamp for the symbol, used
// by ingestion to record only settlements it has not seen yet.
func (h *FundingRateHistory) LastSampleTime(symbol string) (time.Time, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var latest time.Time
	for _, s := range h.samples[symbol] {
		if s.FundedAt.After(latest) {
			latest = s.FundedAt
		}
	}
	return latest, !latest.IsZero()
}

// SampleCount returns the total retained samples for the symbol.
func (h *FundingRateHistory) SampleCount(symbol string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.samples[symbol])
}

// Prune drops samples older than the longest window plus slack and returns
// how many were removed.
func (h *FundingRateHistory) Prune(now time.Time) int {
	cutoff := now.Add(-time.Duration(MaxWindowDays) * 24 * time.Hour).Add(-fundingPruneSlack)

	h.mu.Lock()
	defer h.mu.Unlock()
	dropped := 0
	for symbol, list := range h.samples {
		kept := list[:0]
		for _, s := range list {
			if s.FundedAt.After(cutoff) {
				kept = append(kept, s)
			} else {
				dropped++
			}
		}
		if len(kept) == 0 {
			delete(h.samples, symbol)
			continue
		}
		h.samples[symbol] = kept
	}
	return dropped
}
