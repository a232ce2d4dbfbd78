package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/nutriplan-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// =========================
		// Catalog
		// =========================
		&types.System{},
		&types.DataSource{},
		&types.DataSourcePriority{},
		&types.FoodGroup{},
		&types.FoodSubgroup{},
		&types.Food{},
		&types.FoodNutritionValue{},

		// =========================
		// Bucket profiles
		// =========================
		&types.BucketProfile{},
		&types.BucketProfileVersion{},

		// =========================
		// Allocation
		// =========================
		&types.SubgroupPolicy{},
		&types.ExchangePlan{},
	)
}

// EnsureCatalogIndexes adds the Postgres-only indexes backing the catalog joins.
func EnsureCatalogIndexes(db *gorm.DB) error {
	if db.Dialector.Name() != DriverPostgres {
		return nil
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_food_system_active ON food(system_id) WHERE active;`).Error; err != nil {
		return fmt.Errorf("create idx_food_system_active: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_food_nutrition_value_food_state ON food_nutrition_value(food_id, state);`).Error; err != nil {
		return fmt.Errorf("create idx_food_nutrition_value_food_state: %w", err)
	}
	return nil
}
