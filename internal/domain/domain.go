package domain

import (
	"github.com/yungbote/nutriplan-backend/internal/domain/nutrition"
)

const (
	BucketTypeGroup              = nutrition.BucketTypeGroup
	BucketTypeSubgroup           = nutrition.BucketTypeSubgroup
	ProfileVersionStatusComplete = nutrition.ProfileVersionStatusComplete
	NutritionStateStandard       = nutrition.NutritionStateStandard
	NutritionStateDraft          = nutrition.NutritionStateDraft
)

type System = nutrition.System
type DataSource = nutrition.DataSource
type DataSourcePriority = nutrition.DataSourcePriority

type FoodGroup = nutrition.FoodGroup
type FoodSubgroup = nutrition.FoodSubgroup
type Food = nutrition.Food
type FoodNutritionValue = nutrition.FoodNutritionValue

type BucketProfile = nutrition.BucketProfile
type BucketProfileVersion = nutrition.BucketProfileVersion

type SubgroupPolicy = nutrition.SubgroupPolicy
type ExchangePlan = nutrition.ExchangePlan
