package catalog

import (
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/groupcode"
)

// FoodItem is one resolved catalog entry: canonical macros plus its semantic
// group/subgroup codes. Items are immutable snapshots within a resolution cycle.
type FoodItem struct {
	ID       int64  `json:"id"`
	SystemID string `json:"system_id"`
	Name     string `json:"name"`

	GroupID   int64               `json:"group_id"`
	GroupName string              `json:"group_name"`
	GroupCode groupcode.GroupCode `json:"group_code"`

	SubgroupID   *int64                 `json:"subgroup_id,omitempty"`
	SubgroupName string                 `json:"subgroup_name,omitempty"`
	SubgroupCode groupcode.SubgroupCode `json:"subgroup_code,omitempty"`

	CarbsG   float64 `json:"carbs_g"`
	ProteinG float64 `json:"protein_g"`
	FatG     float64 `json:"fat_g"`
	Calories float64 `json:"calories"`

	ServingQty   float64 `json:"serving_qty"`
	ServingUnit  string  `json:"serving_unit"`
	DataSourceID *int64  `json:"data_source_id,omitempty"`

	GeoWeight *float64 `json:"geo_weight,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

func (f FoodItem) clone() FoodItem {
	out := f
	if f.SubgroupID != nil {
		v := *f.SubgroupID
		out.SubgroupID = &v
	}
	if f.DataSourceID != nil {
		v := *f.DataSourceID
		out.DataSourceID = &v
	}
	if f.GeoWeight != nil {
		v := *f.GeoWeight
		out.GeoWeight = &v
	}
	if f.Tags != nil {
		out.Tags = append([]string(nil), f.Tags...)
	}
	return out
}

// Clone deep-copies a snapshot so callers never share backing arrays with a cache.
func Clone(items []FoodItem) []FoodItem {
	if items == nil {
		return nil
	}
	out := make([]FoodItem, len(items))
	for i, it := range items {
		out[i] = it.clone()
	}
	return out
}

// FoodRow is the raw catalog row as read from storage, before canonical
// values and classification are applied.
type FoodRow struct {
	ID                   int64
	SystemID             string
	Name                 string
	GroupID              int64
	GroupName            string
	SubgroupID           *int64
	SubgroupName         string
	GroupCodeOverride    string
	SubgroupCodeOverride string
	GeoWeight            *float64
	Tags                 []string
}

type GroupMeta struct {
	ID   int64
	Name string
}

type SubgroupMeta struct {
	ID      int64
	GroupID int64
	Name    string
}

// Filter narrows a catalog fetch geographically. Empty fields mean "any".
type Filter struct {
	CountryCode string
	StateCode   string
}
