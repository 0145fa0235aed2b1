package analytics

import (
	"time"
)

// Row availability markers. A row is never dropped from the payload; an
// asset the engine cannot price this tick is flagged instead.
const (
	ReasonNoData = "no_data"
	ReasonStale  = "stale"
)

// FutureMetrics is the derived view of one dated contract at one tick.
// Pointer fields are omitted from JSON when the underlying data was
// insufficient; consumers must not read an absent metric as zero.
type FutureMetrics struct {
	Symbol              string    `json:"symbol"`
	MarkPrice           float64   `json:"mark_price"`
	LastPrice           float64   `json:"last_price"`
	DeliveryTime        time.Time `json:"delivery_time"`
	DaysUntilExpiration float64   `json:"days_until_expiration"`

	SpreadPercent     float64 `json:"spread_percent"`
	FairFuturesPrice  float64 `json:"fair_futures_price"`
	FairSpreadPercent float64 `json:"fair_spread_percent"`

	FundingRateUntilExpiration        *float64 `json:"funding_rate_until_expiration,omitempty"`
	FundingRate365DaysUntilExpiration *float64 `json:"funding_rate_365days_until_expiration,omitempty"`
	NetProfitCurrentFR                *float64 `json:"net_profit_current_fr,omitempty"`
	NetProfit365DaysFR                *float64 `json:"net_profit_365days_fr,omitempty"`
	NetProfitUSDT                     *float64 `json:"net_profit_usdt,omitempty"`
	NetProfitUSDT365Days              *float64 `json:"net_profit_usdt_365days,omitempty"`
	ReturnOnCapital                   *float64 `json:"return_on_capital,omitempty"`
	ReturnOnCapital365Days            *float64 `json:"return_on_capital_365days,omitempty"`

	AverageFRDaysUsed int  `json:"average_fr_days_used"`
	Highlight         bool `json:"highlight"`
}

// PerpetualView is the perpetual card shown next to the ladder, including
// the fixed display windows for average funding.
type PerpetualView struct {
	Symbol          string    `json:"symbol"`
	MarkPrice       float64   `json:"mark_price"`
	LastPrice       float64   `json:"last_price"`
	IndexPrice      float64   `json:"index_price"`
	SpotPrice       float64   `json:"spot_price"`
	FundingRate     float64   `json:"funding_rate"`
	NextFundingTime time.Time `json:"next_funding_time"`
	ObservedAt      time.Time `json:"observed_at"`

	AvgFunding30D  *float64 `json:"avg_funding_30d,omitempty"`
	AvgFunding90D  *float64 `json:"avg_funding_90d,omitempty"`
	AvgFunding180D *float64 `json:"avg_funding_180d,omitempty"`
	AvgFunding365D *float64 `json:"avg_funding_365d,omitempty"`
}

// InstrumentRow is one line of the dashboard table: the asset's perpetual
// plus the representative dated contract.
type InstrumentRow struct {
	Asset      string         `json:"asset"`
	Available  bool           `json:"available"`
	Reason     string         `json:"reason,omitempty"`
	Perpetual  *PerpetualView `json:"perpetual,omitempty"`
	Future     *FutureMetrics `json:"future,omitempty"`
	ComputedAt time.Time      `json:"computed_at"`
}

// AssetDetail is the per-asset drill-down: the perpetual card plus every
// live contract on the ladder.
type AssetDetail struct {
	Asset      string          `json:"asset"`
	Available  bool            `json:"available"`
	Reason     string          `json:"reason,omitempty"`
	Perpetual  *PerpetualView  `json:"perpetual,omitempty"`
	Futures    []FutureMetrics `json:"futures"`
	ComputedAt time.Time       `json:"computed_at"`
}
