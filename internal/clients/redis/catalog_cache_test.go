package redis

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/catalog"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/groupcode"
	"github.com/yungbote/nutriplan-backend/internal/platform/logger"
	"github.com/yungbote/nutriplan-backend/internal/platform/ttlcache"
)

func TestSnapshotCodec(t *testing.T) {
	sub := int64(4)
	items := []catalog.FoodItem{{ID: 1, SystemID: "smae_mx", GroupCode: groupcode.Fruit, SubgroupID: &sub, Tags: []string{"dulce"}}}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	raw, err := encodeSnapshot(items, at)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	snap, err := decodeSnapshot(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !snap.StoredAt.Equal(at) || len(snap.Items) != 1 || *snap.Items[0].SubgroupID != 4 || snap.Items[0].GroupCode != groupcode.Fruit {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	empty, _ := encodeSnapshot(nil, at)
	if snap, err := decodeSnapshot(empty); err != nil || len(snap.Items) != 0 {
		t.Fatalf("an empty catalog is a valid snapshot: %v", err)
	}
	if _, err := decodeSnapshot([]byte(`{"stored_at":"2026-03-01T12:00:00Z"}`)); err == nil {
		t.Fatalf("expected error for snapshot without items")
	}
}

func TestCatalogCacheKey(t *testing.T) {
	c := &catalogCache{prefix: "np:catalog"}
	k := catalog.NewKey("smae_mx", catalog.Filter{CountryCode: "mx", StateCode: "jal"})
	if got := c.key(k); got != "np:catalog:smae_mx|MX|JAL" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestCatalogCacheRemainingUsesClock(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := ttlcache.ClockFunc(func() time.Time { return now })
	c := NewCatalogCache(logger.Nop(), nil, "np:catalog", 5*time.Minute, clock).(*catalogCache)

	if got := c.remaining(now.Add(-2 * time.Minute)); got != 3*time.Minute {
		t.Fatalf("remaining = %v, want 3m", got)
	}
	if got := c.remaining(now.Add(-10 * time.Minute)); got > 0 {
		t.Fatalf("expired snapshot should have no lifetime left, got %v", got)
	}
	if got := c.remaining(time.Time{}); got != 5*time.Minute {
		t.Fatalf("zero snapshot time keeps the full ttl, got %v", got)
	}
}

func TestCatalogCacheRoundTrip(t *testing.T) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if os.Getenv("NP_RUN_REDIS_SMOKE") != "true" || addr == "" {
		t.Skip("set NP_RUN_REDIS_SMOKE=true and REDIS_ADDR to run redis smoke tests")
	}
	ctx := context.Background()
	rdb, err := NewClient(ctx, Config{Addr: addr})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })

	cache := NewCatalogCache(logger.Nop(), rdb, "np:test:"+time.Now().Format("150405.000000"), time.Minute, nil)
	key := catalog.NewKey("smae_mx", catalog.Filter{})
	if _, ok := cache.Get(ctx, key); ok {
		t.Fatalf("expected miss on a fresh prefix")
	}
	cache.Put(ctx, key, []catalog.FoodItem{{ID: 9, Name: "Manzana"}}, time.Now())
	items, ok := cache.Get(ctx, key)
	if !ok || len(items) != 1 || items[0].Name != "Manzana" {
		t.Fatalf("expected stored snapshot, got %v ok=%v", items, ok)
	}
	cache.Put(ctx, key, nil, time.Now().Add(-2*time.Minute))
	if items, ok := cache.Get(ctx, key); !ok || len(items) != 1 {
		t.Fatalf("an already expired snapshot must not overwrite the live one")
	}
}
