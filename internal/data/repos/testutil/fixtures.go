package testutil

import (
	"context"
	"encoding/json"
	"testing"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/nutriplan-backend/internal/domain"
)

func SeedSystem(tb testing.TB, ctx context.Context, tx *gorm.DB, id string) *types.System {
	tb.Helper()
	s := &types.System{ID: id, Name: id, CountryCode: "MX", Active: true}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed system: %v", err)
	}
	return s
}

func SeedDataSource(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.DataSource {
	tb.Helper()
	ds := &types.DataSource{Name: name}
	if err := tx.WithContext(ctx).Create(ds).Error; err != nil {
		tb.Fatalf("seed data source: %v", err)
	}
	return ds
}

func SeedSourcePriority(tb testing.TB, ctx context.Context, tx *gorm.DB, systemID string, dataSourceID int64, rank int) *types.DataSourcePriority {
	tb.Helper()
	p := &types.DataSourcePriority{SystemID: systemID, DataSourceID: dataSourceID, PriorityRank: rank}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed source priority: %v", err)
	}
	return p
}

func SeedGroup(tb testing.TB, ctx context.Context, tx *gorm.DB, systemID, name string) *types.FoodGroup {
	tb.Helper()
	g := &types.FoodGroup{SystemID: systemID, Name: name}
	if err := tx.WithContext(ctx).Create(g).Error; err != nil {
		tb.Fatalf("seed group: %v", err)
	}
	return g
}

func SeedSubgroup(tb testing.TB, ctx context.Context, tx *gorm.DB, systemID string, groupID int64, name string) *types.FoodSubgroup {
	tb.Helper()
	s := &types.FoodSubgroup{SystemID: systemID, GroupID: groupID, Name: name}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed subgroup: %v", err)
	}
	return s
}

func SeedFood(tb testing.TB, ctx context.Context, tx *gorm.DB, systemID string, groupID int64, subgroupID *int64, name string, tags ...string) *types.Food {
	tb.Helper()
	if tags == nil {
		tags = []string{}
	}
	raw, _ := json.Marshal(tags)
	f := &types.Food{
		SystemID:   systemID,
		Name:       name,
		GroupID:    groupID,
		SubgroupID: subgroupID,
		Tags:       datatypes.JSON(raw),
		Active:     true,
	}
	if err := tx.WithContext(ctx).Create(f).Error; err != nil {
		tb.Fatalf("seed food: %v", err)
	}
	return f
}

// SeedNutritionValue stores a complete standard-state record for food.
func SeedNutritionValue(tb testing.TB, ctx context.Context, tx *gorm.DB, foodID int64, dataSourceID *int64, carbs, protein, fat, kcal float64) *types.FoodNutritionValue {
	tb.Helper()
	v := &types.FoodNutritionValue{
		FoodID:       foodID,
		DataSourceID: dataSourceID,
		State:        types.NutritionStateStandard,
		Calories:     PtrFloat(kcal),
		ProteinG:     PtrFloat(protein),
		CarbsG:       PtrFloat(carbs),
		FatG:         PtrFloat(fat),
		ServingQty:   1,
		ServingUnit:  "pieza",
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed nutrition value: %v", err)
	}
	return v
}

func SeedPolicy(tb testing.TB, ctx context.Context, tx *gorm.DB, systemID string, parentGroupID, subgroupID int64, condition string, sharePct float64) *types.SubgroupPolicy {
	tb.Helper()
	p := &types.SubgroupPolicy{
		SystemID:       systemID,
		ParentGroupID:  parentGroupID,
		SubgroupID:     subgroupID,
		Condition:      condition,
		TargetSharePct: sharePct,
		Active:         true,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed policy: %v", err)
	}
	return p
}

func PtrFloat(v float64) *float64 { return &v }

func PtrInt64(v int64) *int64 { return &v }

func PtrString(v string) *string { return &v }
