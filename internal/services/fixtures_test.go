package services

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/nutriplan-backend/internal/data/repos"
	"github.com/yungbote/nutriplan-backend/internal/data/repos/testutil"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/catalog"
	"github.com/yungbote/nutriplan-backend/internal/platform/ttlcache"
)

type seededCatalog struct {
	protein      int64
	veryLowFat   int64
	lowFat       int64
	vegetable    int64
	foodsSeeded  int
	groupsSeeded int
}

// seedExchangeSystem stores one food per group (two for the protein group,
// one in each of its subgroups) so every bucket profile equals its food.
func seedExchangeSystem(t *testing.T, db *gorm.DB, systemID string) seededCatalog {
	t.Helper()
	ctx := context.Background()
	testutil.SeedSystem(t, ctx, db, systemID)
	src := testutil.SeedDataSource(t, ctx, db, "SMAE "+systemID)
	testutil.SeedSourcePriority(t, ctx, db, systemID, src.ID, 1)

	var out seededCatalog
	add := func(group, food string, carbs, protein, fat, kcal float64) int64 {
		g := testutil.SeedGroup(t, ctx, db, systemID, group)
		f := testutil.SeedFood(t, ctx, db, systemID, g.ID, nil, food)
		testutil.SeedNutritionValue(t, ctx, db, f.ID, &src.ID, carbs, protein, fat, kcal)
		out.foodsSeeded++
		out.groupsSeeded++
		return g.ID
	}
	out.vegetable = add("Verduras", "Brócoli", 4, 2, 0, 25)
	add("Frutas", "Manzana", 15, 0, 0, 60)
	add("Leguminosas", "Frijol", 20, 8, 1, 120)
	add("Azúcares", "Miel", 10, 0, 0, 40)
	add("Cereales y tubérculos", "Tortilla", 15, 2, 0, 70)
	add("Leche", "Leche entera", 12, 9, 8, 150)
	add("Aceites y grasas", "Aceite de oliva", 0, 0, 5, 45)

	aoa := testutil.SeedGroup(t, ctx, db, systemID, "Alimentos de origen animal")
	out.groupsSeeded++
	out.protein = aoa.ID
	vlf := testutil.SeedSubgroup(t, ctx, db, systemID, aoa.ID, "Muy bajo aporte de grasa")
	lf := testutil.SeedSubgroup(t, ctx, db, systemID, aoa.ID, "Bajo aporte de grasa")
	out.veryLowFat, out.lowFat = vlf.ID, lf.ID
	for _, sg := range []int64{vlf.ID, lf.ID} {
		sgID := sg
		f := testutil.SeedFood(t, ctx, db, systemID, aoa.ID, &sgID, "Pollo")
		testutil.SeedNutritionValue(t, ctx, db, f.ID, &src.ID, 0, 7, 3, 55)
		out.foodsSeeded++
	}
	return out
}

type testServices struct {
	catalog  CatalogService
	profiles BucketProfileService
	plans    ExchangePlanService
}

func newTestServices(t *testing.T, db *gorm.DB, persist bool) testServices {
	t.Helper()
	log := testutil.Logger(t)
	catalogSvc := NewCatalogService(db, log, repos.NewCatalogRepo(db, log), catalog.NewMemoryCache(0, nil), nil, ttlcache.SystemClock)
	profileSvc := NewBucketProfileService(db, log, catalogSvc, repos.NewBucketProfileRepo(db, log), nil)
	planSvc := NewExchangePlanService(db, log, profileSvc,
		repos.NewSubgroupPolicyRepo(db, log),
		repos.NewExchangePlanRepo(db, log),
		nil,
		ExchangePlanOptions{Persist: persist},
	)
	return testServices{catalog: catalogSvc, profiles: profileSvc, plans: planSvc}
}
