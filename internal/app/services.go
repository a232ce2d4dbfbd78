package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/allocation"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/groupcode"
	"github.com/yungbote/nutriplan-backend/internal/platform/logger"
	"github.com/yungbote/nutriplan-backend/internal/platform/ttlcache"
	"github.com/yungbote/nutriplan-backend/internal/services"
)

type Services struct {
	Catalog       services.CatalogService
	BucketProfile services.BucketProfileService
	ExchangePlan  services.ExchangePlanService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) Services {
	log.Info("Wiring services...")
	mapper := groupcode.Default()
	log.Info("Group code keyword table loaded", "version", mapper.Version())

	catalogSvc := services.NewCatalogService(db, log, repos.Catalog, clients.CatalogCache, mapper, ttlcache.SystemClock)
	profileSvc := services.NewBucketProfileService(db, log, catalogSvc, repos.BucketProfile, mapper)

	allocOpts := allocation.DefaultOptions()
	allocOpts.Mapper = mapper
	planSvc := services.NewExchangePlanService(db, log, profileSvc, repos.SubgroupPolicy, repos.ExchangePlan, mapper, services.ExchangePlanOptions{
		Persist:    cfg.PlanPersistEnabled,
		Allocation: allocOpts,
	})

	return Services{
		Catalog:       catalogSvc,
		BucketProfile: profileSvc,
		ExchangePlan:  planSvc,
	}
}
