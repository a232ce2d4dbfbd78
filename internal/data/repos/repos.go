package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/nutriplan-backend/internal/data/repos/nutrition"
	"github.com/yungbote/nutriplan-backend/internal/platform/logger"
)

type CatalogRepo = nutrition.CatalogRepo
type BucketProfileRepo = nutrition.BucketProfileRepo
type SubgroupPolicyRepo = nutrition.SubgroupPolicyRepo
type ExchangePlanRepo = nutrition.ExchangePlanRepo

type CatalogFilter = nutrition.CatalogFilter
type FoodRow = nutrition.FoodRow
type CandidateRow = nutrition.CandidateRow

func NewCatalogRepo(db *gorm.DB, baseLog *logger.Logger) CatalogRepo {
	return nutrition.NewCatalogRepo(db, baseLog)
}
func NewBucketProfileRepo(db *gorm.DB, baseLog *logger.Logger) BucketProfileRepo {
	return nutrition.NewBucketProfileRepo(db, baseLog)
}
func NewSubgroupPolicyRepo(db *gorm.DB, baseLog *logger.Logger) SubgroupPolicyRepo {
	return nutrition.NewSubgroupPolicyRepo(db, baseLog)
}
func NewExchangePlanRepo(db *gorm.DB, baseLog *logger.Logger) ExchangePlanRepo {
	return nutrition.NewExchangePlanRepo(db, baseLog)
}
