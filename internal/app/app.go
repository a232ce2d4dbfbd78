package app

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/yungbote/nutriplan-backend/internal/data/db"
	httpapi "github.com/yungbote/nutriplan-backend/internal/http"
	"github.com/yungbote/nutriplan-backend/internal/observability"
	"github.com/yungbote/nutriplan-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	Metrics  *observability.Metrics
	Server   *httpapi.Server

	dbService    *db.Service
	otelShutdown func(context.Context) error
	closeOnce    sync.Once
}

// New wires the full service graph. The returned App owns the database and
// redis connections until Close.
func New(ctx context.Context) (*App, error) {
	a, err := newCore(ctx)
	if err != nil {
		return nil, err
	}
	handlers := wireHandlers(a.Log, a.Services, pinger{a.DB})
	a.Server = wireServer(a.Log, a.Cfg, handlers, a.Metrics)
	return a, nil
}

// NewWorker wires everything below the HTTP layer, for CLI entrypoints.
func NewWorker(ctx context.Context) (*App, error) {
	return newCore(ctx)
}

func newCore(ctx context.Context) (*App, error) {
	cfg := LoadConfig(nil)
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log.Info("Loading environment variables...")
	cfg = LoadConfig(log)

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{ServiceName: cfg.ServiceName})
	metrics := observability.Init(log)

	dbs, err := db.NewService(log, cfg.DB)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	theDB := dbs.DB()
	if err := db.AutoMigrateAll(theDB); err != nil {
		_ = dbs.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	if err := db.EnsureCatalogIndexes(theDB); err != nil {
		log.Warn("Catalog index creation failed", "error", err)
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = dbs.Close()
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, clients)

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clients,
		Services:     serviceset,
		Metrics:      metrics,
		dbService:    dbs,
		otelShutdown: otelShutdown,
	}, nil
}

// Run starts the background collectors and serves HTTP until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.Metrics != nil {
		a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
		a.Metrics.StartDBCollector(ctx, a.Log, a.DB)
		if a.Clients.Redis != nil {
			a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis)
		}
	}
	a.Log.Info("HTTP server listening", "port", a.Cfg.Port)
	return a.Server.Run(ctx)
}

// Close releases connections and flushes telemetry. Safe to call more than once.
func (a *App) Close() {
	if a == nil {
		return
	}
	a.closeOnce.Do(a.close)
}

func (a *App) close() {
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	a.Clients.Close()
	if a.dbService != nil {
		if err := a.dbService.Close(); err != nil && a.Log != nil {
			a.Log.Warn("Database close failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

type pinger struct{ db *gorm.DB }

func (p pinger) PingContext(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
