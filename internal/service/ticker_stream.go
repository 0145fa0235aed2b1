package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"basismon/internal/client/bybit"
	"basismon/internal/config"
	"basismon/internal/market"
)

// InstrumentLister resolves the dated contracts to subscribe to.
type InstrumentLister interface {
	DatedInstruments(ctx context.Context, baseCoin string) ([]bybit.Instrument, error)
}

// TickerStreamService patches the snapshot cache from the venue's public
// ticker streams between polls. It runs one linear stream for perpetuals
// and dated contracts and one spot stream for the spot references; the
// poller remains the source of truth and the only writer that creates
// entries.
type TickerStreamService struct {
	Cfg        config.BybitConfig
	Instrument InstrumentLister
	Assets     []market.Asset
	Cache      *market.SnapshotCache
	Logger     *zap.Logger

	assetByPerp   map[string]string
	assetBySpot   map[string]string
	assetByFuture map[string]string
}

func (s *TickerStreamService) Run(ctx context.Context) error {
	if s == nil || s.Cache == nil || len(s.Assets) == 0 {
		return nil
	}

	linearTopics, spotTopics := s.resolveTopics(ctx)

	linear := bybit.NewTickerStream(bybit.StreamOptions{
		URL:    s.Cfg.LinearWSURL,
		Topics: linearTopics,
		Logger: s.Logger,
	})
	spot := bybit.NewTickerStream(bybit.StreamOptions{
		URL:    s.Cfg.SpotWSURL,
		Topics: spotTopics,
		Logger: s.Logger,
	})

	errCh := make(chan error, 2)
	go func() { errCh <- linear.Run(ctx, s.onLinearTicker) }()
	go func() { errCh <- spot.Run(ctx, s.onSpotTicker) }()

	// Streams only return on context cancellation; the first return ends
	// the service.
	return <-errCh
}

// resolveTopics builds the subscription lists. Dated contracts are looked
// up once per process run; contracts listed later are picked up by the
// poller and on the next restart.
func (s *TickerStreamService) resolveTopics(ctx context.Context) (linear, spot []string) {
	s.assetByPerp = make(map[string]string, len(s.Assets))
	s.assetBySpot = make(map[string]string, len(s.Assets))
	s.assetByFuture = map[string]string{}

	for _, asset := range s.Assets {
		s.assetByPerp[asset.PerpetualSymbol] = asset.Name
		s.assetBySpot[asset.SpotSymbol] = asset.Name
		linear = append(linear, bybit.TickerTopic(asset.PerpetualSymbol))
		spot = append(spot, bybit.TickerTopic(asset.SpotSymbol))

		if s.Instrument == nil {
			continue
		}
		instruments, err := s.Instrument.DatedInstruments(ctx, asset.Name)
		if err != nil {
			s.Logger.Warn("dated instrument lookup failed, streaming perpetual only",
				zap.String("asset", asset.Name),
				zap.Error(err))
			continue
		}
		for _, ins := range instruments {
			s.assetByFuture[ins.Symbol] = asset.Name
			linear = append(linear, bybit.TickerTopic(ins.Symbol))
		}
	}
	return linear, spot
}

func (s *TickerStreamService) onLinearTicker(u bybit.TickerUpdate) {
	symbol := u.Symbol
	if symbol == "" {
		symbol = strings.TrimPrefix(u.Topic, "tickers.")
	}
	if asset, ok := s.assetByPerp[symbol]; ok {
		s.Cache.UpdatePerpetualPrices(asset, u.MarkPrice, u.LastPrice, u.ObservedAt)
		return
	}
	if asset, ok := s.assetByFuture[symbol]; ok {
		s.Cache.UpdateFuturePrices(asset, symbol, u.MarkPrice, u.LastPrice, u.ObservedAt)
	}
}

func (s *TickerStreamService) onSpotTicker(u bybit.TickerUpdate) {
	symbol := u.Symbol
	if symbol == "" {
		symbol = strings.TrimPrefix(u.Topic, "tickers.")
	}
	if asset, ok := s.assetBySpot[symbol]; ok {
		s.Cache.UpdateSpotPrice(asset, u.LastPrice, u.ObservedAt)
	}
}
