package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"basismon/internal/client/bybit"
	"basismon/internal/market"
	"basismon/internal/settings"
)

const (
	fundingPageSize  = 200
	maxBackfillPages = 12
)

// Exchange is the market-data surface the ingest loop needs. The Bybit
// client satisfies it; tests substitute a stub.
type Exchange interface {
	LinearTickers(ctx context.Context, baseCoin string) ([]bybit.Ticker, error)
	SpotTicker(ctx context.Context, symbol string) (bybit.Ticker, error)
	FundingHistory(ctx context.Context, symbol string, start, end time.Time, limit int) ([]bybit.FundingPoint, error)
}

// MarketIngestService polls the venue on the configured cadence and keeps
// the snapshot cache and funding history current. Each asset is fetched
// and committed independently; one asset failing leaves the others' data
// untouched.
type MarketIngestService struct {
	Exchange Exchange
	Assets   []market.Asset
	Cache    *market.SnapshotCache
	Funding  *market.FundingRateHistory
	Settings *settings.Service
	Logger   *zap.Logger
}

func (s *MarketIngestService) Run(ctx context.Context) error {
	if s == nil || s.Exchange == nil || s.Cache == nil || s.Funding == nil || s.Settings == nil {
		return nil
	}

	// Funding averages need history before the first computation is worth
	// anything, so the backfill runs before the first poll.
	s.Backfill(ctx)
	s.pollOnce(ctx)

	interval := s.Settings.Snapshot().Interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.pollOnce(ctx)
			if next := s.Settings.Snapshot().Interval(); next > 0 && next != interval {
				interval = next
				ticker.Reset(interval)
				s.Logger.Info("ingest interval changed", zap.Duration("interval", interval))
			}
		}
	}
}

// Backfill pulls funding history forward to now for every asset, paging
// from the retention horizon or from the newest sample already held. Also
// run by cron to heal gaps after venue outages.
func (s *MarketIngestService) Backfill(ctx context.Context) {
	horizon := time.Now().UTC().AddDate(0, 0, -market.MaxWindowDays)
	for _, asset := range s.Assets {
		if ctx.Err() != nil {
			return
		}
		if err := s.backfillSymbol(ctx, asset.PerpetualSymbol, horizon); err != nil && !errors.Is(err, context.Canceled) {
			s.Logger.Warn("funding backfill failed",
				zap.String("asset", asset.Name),
				zap.String("symbol", asset.PerpetualSymbol),
				zap.Error(err))
		}
	}
}

func (s *MarketIngestService) backfillSymbol(ctx context.Context, symbol string, horizon time.Time) error {
	start := horizon
	if last, ok := s.Funding.LastSampleTime(symbol); ok && last.After(start) {
		start = last.Add(time.Millisecond)
	}
	end := time.Now().UTC()

	total := 0
	pages := 0
	for pages < maxBackfillPages && end.After(start) {
		points, err := s.Exchange.FundingHistory(ctx, symbol, start, end, fundingPageSize)
		if err != nil {
			return err
		}
		if len(points) == 0 {
			break
		}
		batch := make([]market.FundingSample, 0, len(points))
		for _, p := range points {
			batch = append(batch, market.FundingSample{Symbol: symbol, Rate: p.Rate, FundedAt: p.FundedAt})
		}
		s.Funding.RecordBatch(symbol, batch)
		total += len(batch)
		pages++
		if len(points) < fundingPageSize {
			break
		}
		// The venue serves the newest rows in range; move the window below
		// the oldest row we got to page further back.
		end = points[0].FundedAt.Add(-time.Millisecond)
	}

	if total > 0 {
		s.Logger.Info("funding backfill",
			zap.String("symbol", symbol),
			zap.Int("samples", total),
			zap.Int("pages", pages))
	}
	return nil
}

func (s *MarketIngestService) pollOnce(ctx context.Context) {
	for _, asset := range s.Assets {
		if ctx.Err() != nil {
			return
		}
		if err := s.pollAsset(ctx, asset); err != nil && !errors.Is(err, context.Canceled) {
			s.Logger.Warn("asset poll failed",
				zap.String("asset", asset.Name),
				zap.Error(err))
		}
	}
}

func (s *MarketIngestService) pollAsset(ctx context.Context, asset market.Asset) error {
	tickers, err := s.Exchange.LinearTickers(ctx, asset.Name)
	if err != nil {
		return fmt.Errorf("linear tickers: %w", err)
	}
	now := time.Now().UTC()

	var perp market.PerpetualSnapshot
	found := false
	futures := make([]market.FutureSnapshot, 0, len(tickers))
	for _, t := range tickers {
		switch {
		case t.Symbol == asset.PerpetualSymbol:
			perp = market.PerpetualSnapshot{
				Symbol:          t.Symbol,
				MarkPrice:       t.MarkPrice,
				LastPrice:       t.LastPrice,
				IndexPrice:      t.IndexPrice,
				FundingRate:     t.FundingRate,
				NextFundingTime: t.NextFundingTime,
				ObservedAt:      now,
			}
			found = true
		case !t.DeliveryTime.IsZero():
			futures = append(futures, market.FutureSnapshot{
				Symbol:       t.Symbol,
				MarkPrice:    t.MarkPrice,
				LastPrice:    t.LastPrice,
				DeliveryTime: t.DeliveryTime,
				ObservedAt:   now,
			})
		}
	}
	if !found {
		return fmt.Errorf("perpetual %s missing from tickers", asset.PerpetualSymbol)
	}

	// Spot is a display reference; when it fails the previous value rides
	// along instead of zeroing out.
	if spot, err := s.Exchange.SpotTicker(ctx, asset.SpotSymbol); err == nil {
		perp.SpotPrice = spot.LastPrice
	} else {
		if prev, ok := s.Cache.Get(asset.Name); ok {
			perp.SpotPrice = prev.Perpetual.SpotPrice
		}
		if !errors.Is(err, context.Canceled) {
			s.Logger.Warn("spot ticker failed",
				zap.String("asset", asset.Name),
				zap.Error(err))
		}
	}

	s.Cache.Put(asset.Name, perp, futures)

	// A funding miss costs one settlement of freshness, not the prices.
	if err := s.refreshFunding(ctx, asset.PerpetualSymbol, now); err != nil && !errors.Is(err, context.Canceled) {
		s.Logger.Warn("funding refresh failed",
			zap.String("asset", asset.Name),
			zap.Error(err))
	}
	return nil
}

func (s *MarketIngestService) refreshFunding(ctx context.Context, symbol string, now time.Time) error {
	last, ok := s.Funding.LastSampleTime(symbol)
	if !ok {
		last = now.AddDate(0, 0, -market.MaxWindowDays)
	}

	points, err := s.Exchange.FundingHistory(ctx, symbol, last.Add(time.Millisecond), now, fundingPageSize)
	if err != nil {
		return err
	}
	batch := make([]market.FundingSample, 0, len(points))
	for _, p := range points {
		if !p.FundedAt.After(last) {
			continue
		}
		batch = append(batch, market.FundingSample{Symbol: symbol, Rate: p.Rate, FundedAt: p.FundedAt})
	}
	s.Funding.RecordBatch(symbol, batch)
	return nil
}
