package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"basismon/internal/analytics"
	"basismon/internal/cache"
	"basismon/internal/market"
	"basismon/internal/settings"
)

// Frame is the envelope every consumer sees: streaming subscribers get it
// as-is, the REST data endpoint serves the latest one, and the view cache
// mirrors it for cold starts. GeneratedAt lets a consumer judge age when a
// frame was served from the mirror.
type Frame struct {
	Type        string                    `json:"type"`
	Instruments []analytics.InstrumentRow `json:"instruments"`
	Settings    settings.Runtime          `json:"settings"`
	GeneratedAt time.Time                 `json:"generated_at"`
}

// FrameTypeInstruments tags the periodic full-table frame.
const FrameTypeInstruments = "instruments"

// Broadcaster recomputes the instrument table on the configured cadence
// and pushes the rendered frame to the hub, keeps it for REST readers, and
// mirrors it into the view cache. A tick that overruns the interval causes
// the next one to be skipped, never queued.
type Broadcaster struct {
	Engine    *analytics.Engine
	Assets    []market.Asset
	Settings  *settings.Service
	Hub       *Hub
	Views     cache.Store
	KeyPrefix string
	Logger    *zap.Logger

	mu        sync.RWMutex
	lastFrame []byte
	lastRows  []analytics.InstrumentRow

	busy    atomic.Bool
	skipped uint64
}

func (b *Broadcaster) Run(ctx context.Context) error {
	if b == nil || b.Engine == nil || b.Settings == nil || b.Hub == nil {
		return nil
	}

	// Publish a first frame right away so REST readers and fresh
	// subscribers never wait a full interval after boot. Rows may still
	// be flagged no_data until ingestion completes its first poll.
	b.tick(ctx, time.Now().UTC())

	interval := b.Settings.Snapshot().Interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	statsTicker := time.NewTicker(60 * time.Second)
	defer statsTicker.Stop()

	b.Logger.Info("broadcaster started",
		zap.Duration("interval", interval),
		zap.Int("assets", len(b.Assets)))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-statsTicker.C:
			b.Logger.Info("broadcaster stats",
				zap.Int("subscribers", b.Hub.Subscribers()),
				zap.Uint64("dropped_fanout", b.Hub.Dropped()),
				zap.Uint64("skipped_ticks", atomic.LoadUint64(&b.skipped)))
		case <-ticker.C:
			if !b.busy.CompareAndSwap(false, true) {
				atomic.AddUint64(&b.skipped, 1)
				b.Logger.Warn("broadcast tick skipped, previous still running")
				continue
			}
			go func(now time.Time) {
				defer b.busy.Store(false)
				b.tick(ctx, now)
			}(time.Now().UTC())

			if next := b.Settings.Snapshot().Interval(); next > 0 && next != interval {
				interval = next
				ticker.Reset(interval)
				b.Logger.Info("broadcast interval updated", zap.Duration("interval", interval))
			}
		}
	}
}

func (b *Broadcaster) tick(ctx context.Context, now time.Time) {
	snap := b.Settings.Snapshot()
	rows := b.Engine.ComputeAll(b.Assets, analytics.Params{
		RiskFreeRate:       snap.RiskFreeRate,
		FundingHistoryDays: snap.FundingRateHistoryDays,
		CapitalUSDT:        snap.CapitalUSDT,
	}, now)

	frame := Frame{
		Type:        FrameTypeInstruments,
		Instruments: rows,
		Settings:    snap,
		GeneratedAt: now,
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		b.Logger.Error("encode broadcast frame failed", zap.Error(err))
		return
	}

	b.mu.Lock()
	b.lastFrame = payload
	b.lastRows = rows
	b.mu.Unlock()

	b.Hub.Publish(payload)

	if b.Views != nil {
		// Mirror survives three missed ticks before expiring, so a reader
		// hitting the cache right after a restart still gets something.
		ttl := 3 * snap.Interval()
		if err := b.Views.Set(ctx, cache.InstrumentsKey(b.KeyPrefix), payload, ttl); err != nil && !errors.Is(err, context.Canceled) {
			b.Logger.Warn("view cache write failed", zap.Error(err))
		}
	}
}

// LastFrame returns the most recent rendered frame. ok is false until the
// first tick has published.
func (b *Broadcaster) LastFrame() ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.lastFrame == nil {
		return nil, false
	}
	return b.lastFrame, true
}

// LastRows returns the rows behind the most recent frame.
func (b *Broadcaster) LastRows() ([]analytics.InstrumentRow, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.lastRows == nil {
		return nil, false
	}
	return b.lastRows, true
}

// Skipped reports ticks dropped because the previous one was still running.
func (b *Broadcaster) Skipped() uint64 {
	return atomic.LoadUint64(&b.skipped)
}
