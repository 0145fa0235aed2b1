package market

import (
	"sort"
	"sync"
	"time"
)

// SnapshotCache is a last-value cache of the most recent complete snapshot
// per asset. Put replaces an asset's state in one step, so a reader never
// sees new futures paired with an old perpetual or vice versa. Retry and
// backoff belong to the ingestion side, not here.
type SnapshotCache struct {
	mu      sync.RWMutex
	entries map[string]Snapshot
}

func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{entries: map[string]Snapshot{}}
}

// Put stores a complete snapshot for the asset. The futures slice is copied
// and kept sorted by delivery time, nearest first.
func (c *SnapshotCache) Put(asset string, perp PerpetualSnapshot, futures []FutureSnapshot) {
	ladder := make([]FutureSnapshot, len(futures))
	copy(ladder, futures)
	sort.Slice(ladder, func(i, j int) bool {
		if ladder[i].DeliveryTime.Equal(ladder[j].DeliveryTime) {
			return ladder[i].Symbol < ladder[j].Symbol
		}
		return ladder[i].DeliveryTime.Before(ladder[j].DeliveryTime)
	})

	c.mu.Lock()
	c.entries[asset] = Snapshot{
		Perpetual: perp,
		Futures:   ladder,
		StoredAt:  time.Now().UTC(),
	}
	c.mu.Unlock()
}

// Get returns a copy of the latest snapshot for the asset. ok is false when
// ingestion has not populated the asset yet. The copy is safe to hold across
// concurrent Puts.
func (c *SnapshotCache) Get(asset string) (Snapshot, bool) {
	c.mu.RLock()
	entry, ok := c.entries[asset]
	c.mu.RUnlock()
	if !ok {
		return Snapshot{}, false
	}
	out := entry
	out.Futures = make([]FutureSnapshot, len(entry.Futures))
	copy(out.Futures, entry.Futures)
	return out, true
}

// UpdatePerpetualPrices patches mark/last on an existing entry, used by the
// streaming ticker path. Returns false when the asset has no snapshot yet;
// the stream never creates entries, only the poller does.
func (c *SnapshotCache) UpdatePerpetualPrices(asset string, mark, last float64, observedAt time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[asset]
	if !ok {
		return false
	}
	if mark > 0 {
		entry.Perpetual.MarkPrice = mark
	}
	if last > 0 {
		entry.Perpetual.LastPrice = last
	}
	entry.Perpetual.ObservedAt = observedAt
	c.entries[asset] = entry
	return true
}

// UpdateSpotPrice patches the spot reference on an existing entry.
func (c *SnapshotCache) UpdateSpotPrice(asset string, spot float64, observedAt time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[asset]
	if !ok {
		return false
	}
	if spot > 0 {
		entry.Perpetual.SpotPrice = spot
	}
	entry.Perpetual.ObservedAt = observedAt
	c.entries[asset] = entry
	return true
}

// UpdateFuturePrices patches one dated contract on an existing entry. The
// ladder slice is re-copied so snapshots handed out by Get stay frozen.
func (c *SnapshotCache) UpdateFuturePrices(asset, symbol string, mark, last float64, observedAt time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[asset]
	if !ok {
		return false
	}
	idx := -1
	for i := range entry.Futures {
		if entry.Futures[i].Symbol == symbol {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	ladder := make([]FutureSnapshot, len(entry.Futures))
	copy(ladder, entry.Futures)
	if mark > 0 {
		ladder[idx].MarkPrice = mark
	}
	if last > 0 {
		ladder[idx].LastPrice = last
	}
	ladder[idx].ObservedAt = observedAt
	entry.Futures = ladder
	c.entries[asset] = entry
	return true
}

// Assets returns the asset names currently populated, in no particular order.
func (c *SnapshotCache) Assets() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.entries))
	for name := range c.entries {
		out = append(out, name)
	}
	return out
}
