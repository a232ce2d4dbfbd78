package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/nutriplan-backend/internal/data/repos"
	"github.com/yungbote/nutriplan-backend/internal/platform/logger"
)

type Repos struct {
	Catalog        repos.CatalogRepo
	BucketProfile  repos.BucketProfileRepo
	SubgroupPolicy repos.SubgroupPolicyRepo
	ExchangePlan   repos.ExchangePlanRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Catalog:        repos.NewCatalogRepo(db, log),
		BucketProfile:  repos.NewBucketProfileRepo(db, log),
		SubgroupPolicy: repos.NewSubgroupPolicyRepo(db, log),
		ExchangePlan:   repos.NewExchangePlanRepo(db, log),
	}
}
