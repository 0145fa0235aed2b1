package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"golang.org/x/time/rate"

	"basismon/internal/config"
)

const DefaultBaseURL = "https://api.bybit.com"

// The funding history endpoint caps a page at 200 rows.
const maxFundingPageSize = 200

// APIError is a non-zero retCode from an otherwise healthy HTTP exchange.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bybit retCode=%d: %s", e.Code, e.Message)
}

// Client reads public V5 market data. Calls pass through a token-bucket
// limiter before they leave, and transient failures (network errors, 5xx,
// 429) retry with backoff inside the failsafe pipeline.
type Client struct {
	http     *http.Client
	baseURL  string
	limiter  *rate.Limiter
	pipeline failsafe.Executor[*http.Response]
}

func NewClient(cfg config.BybitConfig) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 10
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 20
	}

	retryPolicy := retrypolicy.NewBuilder[*http.Response]().
		HandleIf(func(resp *http.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		}).
		WithBackoff(100*time.Millisecond, 2*time.Second).
		WithMaxRetries(3).
		Build()

	return &Client{
		http:     &http.Client{Timeout: timeout},
		baseURL:  base,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		pipeline: failsafe.With[*http.Response](retryPolicy),
	}
}

// LinearTickers returns every linear-category ticker for the base coin in
// one call: the perpetual plus all dated contracts.
func (c *Client) LinearTickers(ctx context.Context, baseCoin string) ([]Ticker, error) {
	params := url.Values{}
	params.Set("category", CategoryLinear)
	params.Set("baseCoin", baseCoin)

	var res tickersResult
	if err := c.get(ctx, "/v5/market/tickers", params, &res); err != nil {
		return nil, err
	}
	out := make([]Ticker, 0, len(res.List))
	for _, t := range res.List {
		out = append(out, t.parsed())
	}
	return out, nil
}

// SpotTicker returns the spot ticker for one symbol.
func (c *Client) SpotTicker(ctx context.Context, symbol string) (Ticker, error) {
	params := url.Values{}
	params.Set("category", CategorySpot)
	params.Set("symbol", symbol)

	var res tickersResult
	if err := c.get(ctx, "/v5/market/tickers", params, &res); err != nil {
		return Ticker{}, err
	}
	if len(res.List) == 0 {
		return Ticker{}, fmt.Errorf("bybit: no spot ticker for %s", symbol)
	}
	return res.List[0].parsed(), nil
}

// DatedInstruments lists the tradable dated futures for the base coin,
// sorted by delivery time, nearest first. Perpetuals and delisted
// contracts are filtered out.
func (c *Client) DatedInstruments(ctx context.Context, baseCoin string) ([]Instrument, error) {
	params := url.Values{}
	params.Set("category", CategoryLinear)
	params.Set("baseCoin", baseCoin)
	params.Set("limit", "1000")

	var res instrumentsResult
	if err := c.get(ctx, "/v5/market/instruments-info", params, &res); err != nil {
		return nil, err
	}

	out := make([]Instrument, 0, len(res.List))
	for _, ins := range res.List {
		if ins.ContractType != contractTypeLinearFutures {
			continue
		}
		if ins.Status != "" && ins.Status != "Trading" {
			continue
		}
		delivery := parseMillis(ins.DeliveryTime)
		if delivery.IsZero() {
			continue
		}
		out = append(out, Instrument{
			Symbol:       ins.Symbol,
			BaseCoin:     ins.BaseCoin,
			QuoteCoin:    ins.QuoteCoin,
			LaunchTime:   parseMillis(ins.LaunchTime),
			DeliveryTime: delivery,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DeliveryTime.Before(out[j].DeliveryTime)
	})
	return out, nil
}

// FundingHistory returns settled funding for the symbol inside [start, end],
// oldest first. The venue serves newest-first pages of at most 200 rows;
// callers page by moving end below the oldest row they got.
func (c *Client) FundingHistory(ctx context.Context, symbol string, start, end time.Time, limit int) ([]FundingPoint, error) {
	if limit <= 0 || limit > maxFundingPageSize {
		limit = maxFundingPageSize
	}
	params := url.Values{}
	params.Set("category", CategoryLinear)
	params.Set("symbol", symbol)
	params.Set("limit", strconv.Itoa(limit))
	if !start.IsZero() {
		params.Set("startTime", strconv.FormatInt(start.UnixMilli(), 10))
	}
	if !end.IsZero() {
		params.Set("endTime", strconv.FormatInt(end.UnixMilli(), 10))
	}

	var res fundingResult
	if err := c.get(ctx, "/v5/market/funding/history", params, &res); err != nil {
		return nil, err
	}

	out := make([]FundingPoint, 0, len(res.List))
	for _, r := range res.List {
		fundedAt := parseMillis(r.FundingRateTimestamp)
		if fundedAt.IsZero() {
			continue
		}
		out = append(out, FundingPoint{
			Symbol:   r.Symbol,
			Rate:     parseFloat(r.FundingRate),
			FundedAt: fundedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FundedAt.Before(out[j].FundedAt)
	})
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("bybit %s: %w", path, err)
	}
	req.URL.RawQuery = params.Encode()

	resp, err := c.pipeline.GetWithExecution(func(_ failsafe.Execution[*http.Response]) (*http.Response, error) {
		return c.http.Do(req)
	})
	if err != nil {
		return fmt.Errorf("bybit %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("bybit %s: read body: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bybit %s: http %d", path, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("bybit %s: decode envelope: %w", path, err)
	}
	if env.RetCode != 0 {
		return &APIError{Code: env.RetCode, Message: env.RetMsg}
	}
	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("bybit %s: decode result: %w", path, err)
		}
	}
	return nil
}
