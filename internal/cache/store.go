package cache

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"basismon/internal/config"
)

// Store holds the latest rendered views keyed by endpoint. The broadcaster
// mirrors every published payload here so a freshly started process can
// serve the previous view while ingestion warms up, and so REST reads
// survive a broadcaster that has not ticked yet.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// New picks the backend named in the config. Anything other than "redis"
// falls back to the in-process store.
func New(cfg config.ViewCacheConfig) Store {
	if strings.EqualFold(cfg.Backend, "redis") {
		return NewRedisStore(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}
	return NewMemoryStore()
}

// InstrumentsKey names the cached dashboard payload.
func InstrumentsKey(prefix string) string {
	return prefix + ":view:instruments"
}

// AssetKey names the cached per-asset detail payload.
func AssetKey(prefix, asset string) string {
	return prefix + ":view:asset:" + asset
}
