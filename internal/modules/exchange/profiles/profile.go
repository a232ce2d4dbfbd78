package profiles

import (
	"math"
	"sort"

	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/groupcode"
)

type BucketType string

const (
	BucketGroup    BucketType = "group"
	BucketSubgroup BucketType = "subgroup"
)

// BucketProfile is what one exchange of a group or subgroup looks like under
// a profile version. It is uniquely keyed by (ProfileVersion, SystemID,
// BucketType, BucketID) and never exists with SampleSize < 1.
type BucketProfile struct {
	ProfileVersion string     `json:"profile_version"`
	SystemID       string     `json:"system_id"`
	BucketType     BucketType `json:"bucket_type"`
	BucketID       int64      `json:"bucket_id"`
	ParentGroupID  *int64     `json:"parent_group_id,omitempty"`
	Name           string     `json:"name"`

	SampleSize int     `json:"sample_size"`
	CarbsG     float64 `json:"carbs_g"`
	ProteinG   float64 `json:"protein_g"`
	FatG       float64 `json:"fat_g"`
	Calories   int     `json:"calories"`

	// Derived from Name at read time, never persisted. For subgroup rows
	// GroupCode is the parent's code.
	GroupCode    groupcode.GroupCode    `json:"group_code,omitempty"`
	SubgroupCode groupcode.SubgroupCode `json:"subgroup_code,omitempty"`
}

type Key struct {
	ProfileVersion string
	SystemID       string
	BucketType     BucketType
	BucketID       int64
}

func (p BucketProfile) Key() Key {
	return Key{ProfileVersion: p.ProfileVersion, SystemID: p.SystemID, BucketType: p.BucketType, BucketID: p.BucketID}
}

// Usable reports whether the profile can serve as a per-exchange unit.
func (p BucketProfile) Usable() bool {
	if p.SampleSize < 1 || p.Calories < 0 {
		return false
	}
	for _, v := range []float64{p.CarbsG, p.ProteinG, p.FatG} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ApplyCodes re-derives semantic codes from display names. Subgroup codes are
// conditioned on their parent group's code within the same set; a subgroup
// whose parent is not in the set falls back to inferring it from its own name.
func ApplyCodes(rows []BucketProfile, mapper *groupcode.Mapper) []BucketProfile {
	if mapper == nil {
		mapper = groupcode.Default()
	}
	out := make([]BucketProfile, len(rows))
	copy(out, rows)
	groupCodes := map[int64]groupcode.GroupCode{}
	for i := range out {
		if out[i].BucketType != BucketGroup {
			continue
		}
		out[i].GroupCode = mapper.InferGroupCode(out[i].Name)
		groupCodes[out[i].BucketID] = out[i].GroupCode
	}
	for i := range out {
		if out[i].BucketType != BucketSubgroup {
			continue
		}
		var parent groupcode.GroupCode
		if out[i].ParentGroupID != nil {
			parent = groupCodes[*out[i].ParentGroupID]
		}
		if parent == "" {
			parent = mapper.InferGroupCode(out[i].Name)
		}
		out[i].GroupCode = parent
		if code, ok := mapper.InferSubgroupCode(out[i].Name, parent); ok {
			out[i].SubgroupCode = code
		}
	}
	return out
}

// Split separates group rows from subgroup rows, each ordered by bucket id.
func Split(rows []BucketProfile) (groups, subgroups []BucketProfile) {
	for _, r := range rows {
		switch r.BucketType {
		case BucketGroup:
			groups = append(groups, r)
		case BucketSubgroup:
			subgroups = append(subgroups, r)
		}
	}
	sortByBucket(groups)
	sortByBucket(subgroups)
	return groups, subgroups
}

func sortByBucket(rows []BucketProfile) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].BucketID < rows[j].BucketID })
}
