package nutrition

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SubgroupPolicy gives a subgroup a share of its parent group's exchanges.
// Condition is empty for the default set, or one of "diabetes",
// "dyslipidemia", "hypertension", "pattern:<p>", "goal:<g>".
type SubgroupPolicy struct {
	ID              int64   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SystemID        string  `gorm:"column:system_id;type:text;not null;index:idx_subgroup_policy_parent,priority:1" json:"system_id"`
	ParentGroupID   int64   `gorm:"column:parent_group_id;not null;index:idx_subgroup_policy_parent,priority:2" json:"parent_group_id"`
	SubgroupID      int64   `gorm:"column:subgroup_id;not null" json:"subgroup_id"`
	Condition       string  `gorm:"column:condition;type:text;not null" json:"condition"`
	TargetSharePct  float64 `gorm:"column:target_share_pct;not null" json:"target_share_pct"`
	ScoreAdjustment float64 `gorm:"column:score_adjustment;not null" json:"score_adjustment"`
	Active          bool    `gorm:"column:active;not null;index" json:"active"`
}

func (SubgroupPolicy) TableName() string { return "subgroup_policy" }

// ExchangePlan is a generated plan, pinned to the profile version it was
// computed against.
type ExchangePlan struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SystemID       string         `gorm:"column:system_id;type:text;not null;index" json:"system_id"`
	ProfileVersion string         `gorm:"column:profile_version;type:text;not null" json:"profile_version"`
	PatientRef     string         `gorm:"column:patient_ref;type:text;index" json:"patient_ref,omitempty"`
	Targets        datatypes.JSON `gorm:"column:targets;type:jsonb" json:"targets"`
	Constraints    datatypes.JSON `gorm:"column:constraints;type:jsonb" json:"constraints"`
	Groups         datatypes.JSON `gorm:"column:group_plan;type:jsonb" json:"groups"`
	Subgroups      datatypes.JSON `gorm:"column:subgroup_plan;type:jsonb" json:"subgroups"`
	Warnings       datatypes.JSON `gorm:"column:warnings;type:jsonb" json:"warnings,omitempty"`
	CreatedAt      time.Time      `gorm:"column:created_at;not null;index" json:"created_at"`
}

func (ExchangePlan) TableName() string { return "exchange_plan" }
