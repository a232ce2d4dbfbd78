package app

import (
	httpapi "github.com/yungbote/nutriplan-backend/internal/http"
	httpH "github.com/yungbote/nutriplan-backend/internal/http/handlers"
	"github.com/yungbote/nutriplan-backend/internal/observability"
	"github.com/yungbote/nutriplan-backend/internal/platform/logger"
)

type Handlers struct {
	Health        *httpH.HealthHandler
	ExchangePlan  *httpH.ExchangePlanHandler
	BucketProfile *httpH.BucketProfileHandler
	Catalog       *httpH.CatalogHandler
}

func wireHandlers(log *logger.Logger, services Services, db httpH.Pinger) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:        httpH.NewHealthHandler(db),
		ExchangePlan:  httpH.NewExchangePlanHandler(services.ExchangePlan),
		BucketProfile: httpH.NewBucketProfileHandler(services.BucketProfile),
		Catalog:       httpH.NewCatalogHandler(services.Catalog),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *httpapi.Server {
	return httpapi.NewServer(httpapi.ServerConfig{
		Addr:            ":" + cfg.Port,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, httpapi.RouterConfig{
		ExchangePlanHandler:  handlers.ExchangePlan,
		BucketProfileHandler: handlers.BucketProfile,
		CatalogHandler:       handlers.Catalog,
		HealthHandler:        handlers.Health,
		Log:                  log,
		Metrics:              metrics,
		CORSOrigins:          cfg.CORSOrigins,
		ServiceName:          cfg.ServiceName,
	})
}
