package nutrition

// System is one food-exchange system (e.g. the Mexican SMAE). Groups,
// subgroups, foods and bucket profiles are all scoped to a system.
type System struct {
	ID          string `gorm:"column:id;type:text;primaryKey" json:"id"`
	Name        string `gorm:"column:name;type:text;not null" json:"name"`
	CountryCode string `gorm:"column:country_code;type:text;index" json:"country_code,omitempty"`
	Active      bool   `gorm:"column:active;not null;index" json:"active"`
}

func (System) TableName() string { return "exchange_system" }

type DataSource struct {
	ID   int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"column:name;type:text;not null;uniqueIndex" json:"name"`
}

func (DataSource) TableName() string { return "data_source" }

// DataSourcePriority ranks a nutrition data source within a system. Lower
// ranks are preferred.
type DataSourcePriority struct {
	ID           int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SystemID     string `gorm:"column:system_id;type:text;not null;uniqueIndex:idx_source_priority_system_source,priority:1" json:"system_id"`
	DataSourceID int64  `gorm:"column:data_source_id;not null;uniqueIndex:idx_source_priority_system_source,priority:2" json:"data_source_id"`
	PriorityRank int    `gorm:"column:priority_rank;not null" json:"priority_rank"`
}

func (DataSourcePriority) TableName() string { return "data_source_priority" }
