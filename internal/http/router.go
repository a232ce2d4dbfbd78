package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/nutriplan-backend/internal/http/handlers"
	httpMW "github.com/yungbote/nutriplan-backend/internal/http/middleware"
	"github.com/yungbote/nutriplan-backend/internal/observability"
	"github.com/yungbote/nutriplan-backend/internal/platform/logger"
)

type RouterConfig struct {
	ExchangePlanHandler  *httpH.ExchangePlanHandler
	BucketProfileHandler *httpH.BucketProfileHandler
	CatalogHandler       *httpH.CatalogHandler
	HealthHandler        *httpH.HealthHandler

	Log         *logger.Logger
	Metrics     *observability.Metrics
	CORSOrigins []string
	ServiceName string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "nutriplan"
	}
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	api := r.Group("/api")
	{
		// Exchange plans
		if cfg.ExchangePlanHandler != nil {
			api.POST("/systems/:systemId/exchange-plans", cfg.ExchangePlanHandler.Generate)
			api.GET("/systems/:systemId/exchange-plans", cfg.ExchangePlanHandler.ListForPatient)
			api.GET("/exchange-plans/:id", cfg.ExchangePlanHandler.Get)
		}

		// Catalog
		if cfg.CatalogHandler != nil {
			api.GET("/systems/:systemId/foods", cfg.CatalogHandler.List)
		}

		// Bucket profiles
		if cfg.BucketProfileHandler != nil {
			api.POST("/systems/:systemId/bucket-profiles/:version/rebuild", cfg.BucketProfileHandler.Rebuild)
			api.GET("/systems/:systemId/bucket-profiles/latest", cfg.BucketProfileHandler.Latest)
			api.GET("/systems/:systemId/bucket-profiles/:version", cfg.BucketProfileHandler.Get)
		}
	}

	return r
}
