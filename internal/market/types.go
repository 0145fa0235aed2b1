package market

import (
	"time"
)

// Asset is one monitored underlying. Name doubles as the exchange base
// coin; the configured order is the canonical display order downstream.
type Asset struct {
	Name            string
	PerpetualSymbol string
	SpotSymbol      string
}

// PerpetualSnapshot is the latest observed state of an asset's perpetual
// contract. Replaced wholesale on every poll; funding history is the only
// thing kept across polls, and that lives in FundingRateHistory.
type PerpetualSnapshot struct {
	Symbol          string
	MarkPrice       float64
	LastPrice       float64
	IndexPrice      float64
	SpotPrice       float64
	FundingRate     float64 // per funding interval, e.g. 0.0001 = 0.01%
	NextFundingTime time.Time
	ObservedAt      time.Time
}

// FutureSnapshot is the latest observed state of one dated contract,
// unique by symbol within an asset.
type FutureSnapshot struct {
	Symbol       string
	MarkPrice    float64
	LastPrice    float64
	DeliveryTime time.Time
	ObservedAt   time.Time
}

// DaysUntilExpiration returns the remaining contract life in fractional
// days, floored at zero once delivery has passed.
func (f FutureSnapshot) DaysUntilExpiration(now time.Time) float64 {
	d := f.DeliveryTime.Sub(now).Hours() / 24
	if d < 0 {
		return 0
	}
	return d
}

// Snapshot is the complete stored state for one asset: the perpetual plus
// its dated ladder, sorted by delivery time.
type Snapshot struct {
	Perpetual PerpetualSnapshot
	Futures   []FutureSnapshot
	StoredAt  time.Time
}

// Stale reports whether the snapshot is older than the given tolerance.
func (s Snapshot) Stale(now time.Time, tolerance time.Duration) bool {
	if tolerance <= 0 {
		return false
	}
	return now.Sub(s.Perpetual.ObservedAt) > tolerance
}
