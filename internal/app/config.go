package app

import (
	"strings"
	"time"

	"github.com/yungbote/nutriplan-backend/internal/clients/redis"
	"github.com/yungbote/nutriplan-backend/internal/data/db"
	"github.com/yungbote/nutriplan-backend/internal/platform/envutil"
	"github.com/yungbote/nutriplan-backend/internal/platform/logger"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

type Config struct {
	LogMode     string
	ServiceName string
	Port        string

	DB db.Config

	CatalogCacheTTL     time.Duration
	CatalogCacheBackend string
	Redis               redis.Config

	PlanPersistEnabled bool

	CORSOrigins     []string
	MetricsAddr     string
	ShutdownTimeout time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	cacheTTL := envutil.Seconds("CATALOG_CACHE_TTL_SECONDS", 5*time.Minute)
	backend := strings.ToLower(envutil.String("CATALOG_CACHE_BACKEND", CacheBackendMemory))
	if backend != CacheBackendMemory && backend != CacheBackendRedis {
		if log != nil {
			log.Warn("Unknown CATALOG_CACHE_BACKEND, falling back to memory", "value", backend)
		}
		backend = CacheBackendMemory
	}

	cfg := Config{
		LogMode:     envutil.String("LOG_MODE", "development"),
		ServiceName: envutil.String("OTEL_SERVICE_NAME", "nutriplan"),
		Port:        envutil.String("PORT", "8080"),
		DB: db.Config{
			Driver:           envutil.String("DB_DRIVER", db.DriverPostgres),
			PostgresHost:     envutil.String("POSTGRES_HOST", "localhost"),
			PostgresPort:     envutil.String("POSTGRES_PORT", "5432"),
			PostgresUser:     envutil.String("POSTGRES_USER", "postgres"),
			PostgresPassword: envutil.String("POSTGRES_PASSWORD", ""),
			PostgresName:     envutil.String("POSTGRES_NAME", "nutriplan"),
			PostgresSSLMode:  envutil.String("POSTGRES_SSLMODE", "disable"),
			SQLitePath:       envutil.String("SQLITE_PATH", "nutriplan.db"),
		},
		CatalogCacheTTL:     cacheTTL,
		CatalogCacheBackend: backend,
		Redis: redis.Config{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
			Prefix:   envutil.String("REDIS_CATALOG_PREFIX", "nutriplan:catalog"),
			TTL:      cacheTTL,
		},
		PlanPersistEnabled: envutil.Bool("PLAN_PERSIST_ENABLED", true),
		CORSOrigins:        envutil.List("CORS_ORIGINS"),
		MetricsAddr:        envutil.String("METRICS_ADDR", ":9090"),
		ShutdownTimeout:    envutil.Seconds("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
	}
	if cfg.CatalogCacheBackend == CacheBackendRedis && strings.TrimSpace(cfg.Redis.Addr) == "" {
		if log != nil {
			log.Warn("CATALOG_CACHE_BACKEND=redis without REDIS_ADDR, falling back to memory")
		}
		cfg.CatalogCacheBackend = CacheBackendMemory
	}
	return cfg
}
