package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/nutriplan-backend/internal/clients/redis"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/catalog"
	"github.com/yungbote/nutriplan-backend/internal/platform/logger"
	"github.com/yungbote/nutriplan-backend/internal/platform/ttlcache"
)

type Clients struct {
	Redis        *goredis.Client
	CatalogCache catalog.Cache
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	if cfg.CatalogCacheBackend != CacheBackendRedis {
		log.Info("Using in-memory catalog cache", "ttl", cfg.CatalogCacheTTL.String())
		return Clients{CatalogCache: catalog.NewMemoryCache(cfg.CatalogCacheTTL, ttlcache.SystemClock)}, nil
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis catalog cache: %w", err)
	}
	log.Info("Using redis catalog cache", "addr", cfg.Redis.Addr, "prefix", cfg.Redis.Prefix, "ttl", cfg.Redis.TTL.String())
	return Clients{
		Redis:        rdb,
		CatalogCache: redis.NewCatalogCache(log, rdb, cfg.Redis.Prefix, cfg.Redis.TTL, ttlcache.SystemClock),
	}, nil
}

func (c Clients) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
