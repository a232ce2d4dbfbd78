package nutrition

import "gorm.io/datatypes"

type FoodGroup struct {
	ID        int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SystemID  string `gorm:"column:system_id;type:text;not null;index" json:"system_id"`
	Name      string `gorm:"column:name;type:text;not null" json:"name"`
	SortOrder int    `gorm:"column:sort_order;not null" json:"sort_order"`
}

func (FoodGroup) TableName() string { return "food_group" }

type FoodSubgroup struct {
	ID        int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SystemID  string `gorm:"column:system_id;type:text;not null;index" json:"system_id"`
	GroupID   int64  `gorm:"column:group_id;not null;index" json:"group_id"`
	Name      string `gorm:"column:name;type:text;not null" json:"name"`
	SortOrder int    `gorm:"column:sort_order;not null" json:"sort_order"`
}

func (FoodSubgroup) TableName() string { return "food_subgroup" }

// Food is a catalog entry. Its macros live in FoodNutritionValue rows, one per
// source; the canonical one is chosen at read time.
type Food struct {
	ID         int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SystemID   string `gorm:"column:system_id;type:text;not null;index" json:"system_id"`
	Name       string `gorm:"column:name;type:text;not null" json:"name"`
	GroupID    int64  `gorm:"column:group_id;not null;index" json:"group_id"`
	SubgroupID *int64 `gorm:"column:subgroup_id;index" json:"subgroup_id,omitempty"`

	// Explicit classification that wins over keyword inference.
	GroupCodeOverride    *string `gorm:"column:group_code_override;type:text" json:"group_code_override,omitempty"`
	SubgroupCodeOverride *string `gorm:"column:subgroup_code_override;type:text" json:"subgroup_code_override,omitempty"`

	CountryCode string   `gorm:"column:country_code;type:text;index" json:"country_code,omitempty"`
	StateCode   string   `gorm:"column:state_code;type:text;index" json:"state_code,omitempty"`
	GeoWeight   *float64 `gorm:"column:geo_weight" json:"geo_weight,omitempty"`

	Tags   datatypes.JSON `gorm:"column:tags;type:jsonb" json:"tags,omitempty"`
	Active bool           `gorm:"column:active;not null;index" json:"active"`
}

func (Food) TableName() string { return "food" }

const (
	NutritionStateStandard = "standard"
	NutritionStateDraft    = "draft"
)

// FoodNutritionValue is one source's macro record for a food. Any macro may be
// missing.
type FoodNutritionValue struct {
	ID           int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	FoodID       int64  `gorm:"column:food_id;not null;index" json:"food_id"`
	DataSourceID *int64 `gorm:"column:data_source_id;index" json:"data_source_id,omitempty"`
	State        string `gorm:"column:state;type:text;not null;index" json:"state"`

	Calories *float64 `gorm:"column:calories" json:"calories,omitempty"`
	ProteinG *float64 `gorm:"column:protein_g" json:"protein_g,omitempty"`
	CarbsG   *float64 `gorm:"column:carbs_g" json:"carbs_g,omitempty"`
	FatG     *float64 `gorm:"column:fat_g" json:"fat_g,omitempty"`

	ServingQty  float64 `gorm:"column:serving_qty;not null" json:"serving_qty"`
	ServingUnit string  `gorm:"column:serving_unit;type:text" json:"serving_unit"`
}

func (FoodNutritionValue) TableName() string { return "food_nutrition_value" }
