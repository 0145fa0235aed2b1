package bybit

import (
	"encoding/json"
	"strconv"
	"time"
)

const (
	CategoryLinear = "linear"
	CategorySpot   = "spot"
)

// Dated USDT futures carry this contract type in instruments-info.
const contractTypeLinearFutures = "LinearFutures"

// envelope wraps every V5 response; retCode zero means success.
type envelope struct {
	RetCode int             `json:"retCode"`
	RetMsg  string          `json:"retMsg"`
	Result  json.RawMessage `json:"result"`
}

type tickersResult struct {
	Category string       `json:"category"`
	List     []wireTicker `json:"list"`
}

// wireTicker is one row of /v5/market/tickers. Every numeric field arrives
// as a string; absent fields arrive empty.
type wireTicker struct {
	Symbol          string `json:"symbol"`
	LastPrice       string `json:"lastPrice"`
	IndexPrice      string `json:"indexPrice"`
	MarkPrice       string `json:"markPrice"`
	FundingRate     string `json:"fundingRate"`
	NextFundingTime string `json:"nextFundingTime"`
	DeliveryTime    string `json:"deliveryTime"`
}

func (t wireTicker) parsed() Ticker {
	return Ticker{
		Symbol:          t.Symbol,
		LastPrice:       parseFloat(t.LastPrice),
		IndexPrice:      parseFloat(t.IndexPrice),
		MarkPrice:       parseFloat(t.MarkPrice),
		FundingRate:     parseFloat(t.FundingRate),
		NextFundingTime: parseMillis(t.NextFundingTime),
		DeliveryTime:    parseMillis(t.DeliveryTime),
	}
}

// Ticker is a parsed ticker row. DeliveryTime is zero for perpetuals and
// spot; NextFundingTime is zero outside the linear category.
type Ticker struct {
	Symbol          string
	LastPrice       float64
	IndexPrice      float64
	MarkPrice       float64
	FundingRate     float64
	NextFundingTime time.Time
	DeliveryTime    time.Time
}

type instrumentsResult struct {
	Category string           `json:"category"`
	List     []wireInstrument `json:"list"`
}

type wireInstrument struct {
	Symbol       string `json:"symbol"`
	ContractType string `json:"contractType"`
	Status       string `json:"status"`
	BaseCoin     string `json:"baseCoin"`
	QuoteCoin    string `json:"quoteCoin"`
	LaunchTime   string `json:"launchTime"`
	DeliveryTime string `json:"deliveryTime"`
}

// Instrument is a parsed dated contract listing.
type Instrument struct {
	Symbol       string
	BaseCoin     string
	QuoteCoin    string
	LaunchTime   time.Time
	DeliveryTime time.Time
}

type fundingResult struct {
	Category string            `json:"category"`
	List     []wireFundingRate `json:"list"`
}

type wireFundingRate struct {
	Symbol               string `json:"symbol"`
	FundingRate          string `json:"fundingRate"`
	FundingRateTimestamp string `json:"fundingRateTimestamp"`
}

// FundingPoint is one settled funding interval.
type FundingPoint struct {
	Symbol   string
	Rate     float64
	FundedAt time.Time
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseMillis turns a millisecond-epoch string into UTC time. "0" means
// "not applicable" on the wire and maps to the zero time.
func parseMillis(s string) time.Time {
	if s == "" || s == "0" {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
