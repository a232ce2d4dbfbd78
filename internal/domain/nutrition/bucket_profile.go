package nutrition

import (
	"time"

	"github.com/google/uuid"
)

const (
	BucketTypeGroup    = "group"
	BucketTypeSubgroup = "subgroup"

	ProfileVersionStatusComplete = "complete"
)

// BucketProfile is the persisted average exchange of one group or subgroup.
// Semantic codes are not stored; they are re-derived from DisplayName on read.
type BucketProfile struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProfileVersion string    `gorm:"column:profile_version;type:text;not null;uniqueIndex:idx_bucket_profile_key,priority:1" json:"profile_version"`
	SystemID       string    `gorm:"column:system_id;type:text;not null;uniqueIndex:idx_bucket_profile_key,priority:2" json:"system_id"`
	BucketType     string    `gorm:"column:bucket_type;type:text;not null;uniqueIndex:idx_bucket_profile_key,priority:3" json:"bucket_type"`
	BucketID       int64     `gorm:"column:bucket_id;not null;uniqueIndex:idx_bucket_profile_key,priority:4" json:"bucket_id"`
	ParentGroupID  *int64    `gorm:"column:parent_group_id" json:"parent_group_id,omitempty"`
	DisplayName    string    `gorm:"column:display_name;type:text;not null" json:"display_name"`

	SampleSize int     `gorm:"column:sample_size;not null" json:"sample_size"`
	CarbsG     float64 `gorm:"column:carbs_g;not null" json:"carbs_g"`
	ProteinG   float64 `gorm:"column:protein_g;not null" json:"protein_g"`
	FatG       float64 `gorm:"column:fat_g;not null" json:"fat_g"`
	Calories   int     `gorm:"column:calories;not null" json:"calories"`

	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

func (BucketProfile) TableName() string { return "bucket_profile" }

// BucketProfileVersion registers a profile version once its rows are fully
// written.
type BucketProfileVersion struct {
	SystemID       string    `gorm:"column:system_id;type:text;primaryKey" json:"system_id"`
	ProfileVersion string    `gorm:"column:profile_version;type:text;primaryKey" json:"profile_version"`
	Status         string    `gorm:"column:status;type:text;not null;index" json:"status"`
	RowCount       int       `gorm:"column:row_count;not null" json:"row_count"`
	CreatedAt      time.Time `gorm:"column:created_at;not null;index" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (BucketProfileVersion) TableName() string { return "bucket_profile_version" }
