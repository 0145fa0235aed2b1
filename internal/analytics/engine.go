package analytics

import (
	"time"

	"basismon/internal/market"
)

// LongFundingWindowDays fixes the annualized projection window.
const LongFundingWindowDays = 365

// Params is the per-tick slice of runtime settings the math depends on.
// The caller reads one settings snapshot per tick and maps it here, so a
// concurrent settings write never mixes old and new values inside one
// computation.
type Params struct {
	RiskFreeRate       float64
	FundingHistoryDays int
	CapitalUSDT        float64
}

// Engine derives instrument views from the snapshot cache and funding
// history. It holds no per-tick state; every computation starts from a
// frozen copy of the cache entry, and a failed or missing asset yields a
// flagged row without touching any other asset.
type Engine struct {
	Cache   *market.SnapshotCache
	Funding *market.FundingRateHistory

	StalenessTolerance time.Duration
	ExpiryGrace        time.Duration
}

// ComputeAll produces one row per configured asset, in configuration order.
func (e *Engine) ComputeAll(assets []market.Asset, p Params, now time.Time) []InstrumentRow {
	rows := make([]InstrumentRow, 0, len(assets))
	for _, asset := range assets {
		rows = append(rows, e.ComputeRow(asset, p, now))
	}
	return rows
}

// ComputeRow flattens one asset into its dashboard line. Assets without a
// usable snapshot come back flagged, never dropped.
func (e *Engine) ComputeRow(asset market.Asset, p Params, now time.Time) InstrumentRow {
	row := InstrumentRow{Asset: asset.Name, ComputedAt: now}

	snap, ok := e.Cache.Get(asset.Name)
	if !ok {
		row.Reason = ReasonNoData
		return row
	}
	if snap.Stale(now, e.StalenessTolerance) {
		row.Reason = ReasonStale
		return row
	}

	row.Available = true
	row.Perpetual = e.perpetualView(snap.Perpetual, now)
	row.Future = pickRepresentative(e.ladderMetrics(snap, p, now))
	return row
}

// ComputeDetail builds the full per-asset view with every live contract.
func (e *Engine) ComputeDetail(asset market.Asset, p Params, now time.Time) AssetDetail {
	detail := AssetDetail{Asset: asset.Name, Futures: []FutureMetrics{}, ComputedAt: now}

	snap, ok := e.Cache.Get(asset.Name)
	if !ok {
		detail.Reason = ReasonNoData
		return detail
	}
	if snap.Stale(now, e.StalenessTolerance) {
		detail.Reason = ReasonStale
		return detail
	}

	detail.Available = true
	detail.Perpetual = e.perpetualView(snap.Perpetual, now)
	detail.Futures = e.ladderMetrics(snap, p, now)
	return detail
}

func (e *Engine) ladderMetrics(snap market.Snapshot, p Params, now time.Time) []FutureMetrics {
	out := make([]FutureMetrics, 0, len(snap.Futures))
	for _, fut := range snap.Futures {
		// Contracts past delivery beyond the grace window drop off the
		// ladder; inside the grace they stay with days floored at zero.
		if fut.DeliveryTime.Before(now.Add(-e.ExpiryGrace)) {
			continue
		}
		out = append(out, e.futureMetrics(snap.Perpetual, fut, p, now))
	}
	return out
}

func (e *Engine) futureMetrics(perp market.PerpetualSnapshot, fut market.FutureSnapshot, p Params, now time.Time) FutureMetrics {
	days := fut.DaysUntilExpiration(now)
	m := FutureMetrics{
		Symbol:              fut.Symbol,
		MarkPrice:           fut.MarkPrice,
		LastPrice:           fut.LastPrice,
		DeliveryTime:        fut.DeliveryTime,
		DaysUntilExpiration: days,
		SpreadPercent:       SpreadPercent(fut.MarkPrice, perp.MarkPrice),
		FairFuturesPrice:    FairPrice(perp.MarkPrice, p.RiskFreeRate, days),
		FairSpreadPercent:   FairSpreadPercent(perp.MarkPrice, p.RiskFreeRate, days),
	}

	in := ProfitInputs{
		SpreadPercent:       m.SpreadPercent,
		FairSpreadPercent:   m.FairSpreadPercent,
		DaysUntilExpiration: days,
		CapitalUSDT:         p.CapitalUSDT,
	}
	if avg, n := e.Funding.AverageOver(perp.Symbol, p.FundingHistoryDays, now); n > 0 {
		rate := avg
		in.ShortWindowRate = &rate
		m.AverageFRDaysUsed = fundingDaysUsed(n, p.FundingHistoryDays)
	}
	if avg, n := e.Funding.AverageOver(perp.Symbol, LongFundingWindowDays, now); n > 0 {
		rate := avg
		in.LongWindowRate = &rate
	}

	res := ComputeProfit(in)
	m.FundingRateUntilExpiration = res.FundingUntilExpiration
	m.FundingRate365DaysUntilExpiration = res.FundingUntilExpiration365
	m.NetProfitCurrentFR = res.NetProfitCurrentFR
	m.NetProfit365DaysFR = res.NetProfit365DaysFR
	m.NetProfitUSDT = res.NetProfitUSDT
	m.NetProfitUSDT365Days = res.NetProfitUSDT365Days
	m.ReturnOnCapital = res.ReturnOnCapital
	m.ReturnOnCapital365Days = res.ReturnOnCapital365Days
	m.Highlight = res.Highlight
	return m
}

func (e *Engine) perpetualView(perp market.PerpetualSnapshot, now time.Time) *PerpetualView {
	v := &PerpetualView{
		Symbol:          perp.Symbol,
		MarkPrice:       perp.MarkPrice,
		LastPrice:       perp.LastPrice,
		IndexPrice:      perp.IndexPrice,
		SpotPrice:       perp.SpotPrice,
		FundingRate:     perp.FundingRate,
		NextFundingTime: perp.NextFundingTime,
		ObservedAt:      perp.ObservedAt,
	}
	if avg, n := e.Funding.AverageOver(perp.Symbol, 30, now); n > 0 {
		v.AvgFunding30D = ptrFloat(avg)
	}
	if avg, n := e.Funding.AverageOver(perp.Symbol, 90, now); n > 0 {
		v.AvgFunding90D = ptrFloat(avg)
	}
	if avg, n := e.Funding.AverageOver(perp.Symbol, 180, now); n > 0 {
		v.AvgFunding180D = ptrFloat(avg)
	}
	if avg, n := e.Funding.AverageOver(perp.Symbol, 365, now); n > 0 {
		v.AvgFunding365D = ptrFloat(avg)
	}
	return v
}

// pickRepresentative selects the table-row contract: the nearest live
// expiration. The ladder arrives sorted by delivery, so the first entry
// with remaining life wins; contracts sitting at zero days inside the
// grace window are skipped.
func pickRepresentative(ladder []FutureMetrics) *FutureMetrics {
	for i := range ladder {
		if ladder[i].DaysUntilExpiration > 0 {
			m := ladder[i]
			return &m
		}
	}
	return nil
}

// fundingDaysUsed reports how many days of history actually backed the
// short-window average: three settlements per day, rounded up, capped at
// the requested window.
func fundingDaysUsed(samples, windowDays int) int {
	d := (samples + FundingIntervalsPerDay - 1) / FundingIntervalsPerDay
	if d > windowDays {
		d = windowDays
	}
	return d
}

func ptrFloat(v float64) *float64 {
	return &v
}
