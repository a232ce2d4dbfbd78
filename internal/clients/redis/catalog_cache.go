package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/catalog"
	"github.com/yungbote/nutriplan-backend/internal/platform/logger"
	"github.com/yungbote/nutriplan-backend/internal/platform/ttlcache"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// NewClient dials and pings Redis.
func NewClient(ctx context.Context, cfg Config) (*goredis.Client, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// snapshot is the stored form of one catalog entry. StoredAt is kept so a
// reader can tell how old a shared snapshot is.
type snapshot struct {
	StoredAt time.Time          `json:"stored_at"`
	Items    []catalog.FoodItem `json:"items"`
}

type catalogCache struct {
	log    *logger.Logger
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
	clock  ttlcache.Clock
}

// NewCatalogCache shares catalog snapshots across processes. Redis failures
// degrade to cache misses; they never fail a catalog read.
func NewCatalogCache(log *logger.Logger, rdb goredis.UniversalClient, prefix string, ttl time.Duration, clock ttlcache.Clock) catalog.Cache {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "nutriplan:catalog"
	}
	if clock == nil {
		clock = ttlcache.SystemClock
	}
	return &catalogCache{
		log:    log.With("client", "RedisCatalogCache"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
		clock:  clock,
	}
}

func (c *catalogCache) key(k catalog.Key) string {
	return c.prefix + ":" + k.String()
}

func (c *catalogCache) Get(ctx context.Context, key catalog.Key) ([]catalog.FoodItem, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("catalog cache read failed", "key", key.String(), "error", err)
		}
		return nil, false
	}
	snap, err := decodeSnapshot(raw)
	if err != nil {
		c.log.Warn("dropping undecodable catalog snapshot", "key", key.String(), "error", err)
		_ = c.rdb.Del(ctx, c.key(key)).Err()
		return nil, false
	}
	return snap.Items, true
}

func (c *catalogCache) Put(ctx context.Context, key catalog.Key, items []catalog.FoodItem, at time.Time) {
	if c.ttl <= 0 {
		return
	}
	raw, err := encodeSnapshot(items, at)
	if err != nil {
		c.log.Warn("catalog snapshot encode failed", "key", key.String(), "error", err)
		return
	}
	ttl := c.remaining(at)
	if ttl <= 0 {
		return
	}
	if err := c.rdb.Set(ctx, c.key(key), raw, ttl).Err(); err != nil {
		c.log.Warn("catalog cache write failed", "key", key.String(), "error", err)
	}
}

// remaining is the lifetime left for a snapshot taken at at; it counts from the
// snapshot time, not the write.
func (c *catalogCache) remaining(at time.Time) time.Duration {
	if at.IsZero() {
		return c.ttl
	}
	return c.ttl - c.clock.Now().Sub(at)
}

func encodeSnapshot(items []catalog.FoodItem, at time.Time) ([]byte, error) {
	if items == nil {
		items = []catalog.FoodItem{}
	}
	return json.Marshal(snapshot{StoredAt: at.UTC(), Items: items})
}

func decodeSnapshot(raw []byte) (snapshot, error) {
	var s snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return snapshot{}, err
	}
	if s.Items == nil {
		return snapshot{}, fmt.Errorf("snapshot has no items")
	}
	return s, nil
}
