package cache

import (
	"context"
	"testing"
	"time"

	"basismon/internal/config"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, found, err := s.Get(ctx, "k"); err != nil || found {
		t.Fatalf("empty store: found=%v err=%v", found, err)
	}

	if err := s.Set(ctx, "k", []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, found, err := s.Get(ctx, "k")
	if err != nil || !found {
		t.Fatalf("Get: found=%v err=%v", found, err)
	}
	if string(got) != "payload" {
		t.Fatalf("value=%q want=payload", got)
	}

	// The returned slice is a copy; mutating it must not corrupt the store.
	got[0] = 'X'
	again, _, _ := s.Get(ctx, "k")
	if string(again) != "payload" {
		t.Fatalf("stored value mutated through returned slice: %q", again)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found, _ := s.Get(ctx, "k"); found {
		t.Fatalf("value survived delete")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Set(ctx, "short", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, found, _ := s.Get(ctx, "short"); found {
		t.Fatalf("expired value still readable")
	}

	// Zero TTL pins the entry.
	if err := s.Set(ctx, "pinned", []byte("x"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, found, _ := s.Get(ctx, "pinned"); !found {
		t.Fatalf("pinned value expired")
	}
}

func TestNewPicksBackend(t *testing.T) {
	if _, ok := New(config.ViewCacheConfig{Backend: "memory"}).(*MemoryStore); !ok {
		t.Fatalf("backend=memory did not build a MemoryStore")
	}
	if _, ok := New(config.ViewCacheConfig{Backend: ""}).(*MemoryStore); !ok {
		t.Fatalf("empty backend did not fall back to memory")
	}
	if _, ok := New(config.ViewCacheConfig{Backend: "Redis", RedisAddr: "localhost:6379"}).(*RedisStore); !ok {
		t.Fatalf("backend=Redis did not build a RedisStore")
	}
}

func TestViewKeys(t *testing.T) {
	if got := InstrumentsKey("basismon"); got != "basismon:view:instruments" {
		t.Fatalf("instruments key=%q", got)
	}
	if got := AssetKey("basismon", "ETH"); got != "basismon:view:asset:ETH" {
		t.Fatalf("asset key=%q", got)
	}
}
