package profiles

import (
	"math"
	"sort"

	"github.com/yungbote/nutriplan-backend/internal/modules/exchange"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/catalog"
)

// Sums are kept in fixed point (1e-4 g / 1e-4 kcal per unit) so that the
// result does not depend on the order foods are visited in.
const fixedScale = 10000

type accumulator struct {
	count    int64
	carbs    int64
	protein  int64
	fat      int64
	calories int64

	groupID int64
	name    string
}

func (a *accumulator) add(it catalog.FoodItem) {
	a.count++
	a.carbs += toFixed(it.CarbsG)
	a.protein += toFixed(it.ProteinG)
	a.fat += toFixed(it.FatG)
	a.calories += toFixed(it.Calories)
}

func toFixed(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int64(math.Round(v * fixedScale))
}

// roundDiv divides and rounds half away from zero.
func roundDiv(num, den int64) int64 {
	if den == 0 {
		return 0
	}
	q := num / den
	r := num % den
	if r < 0 {
		r = -r
	}
	if 2*r >= den {
		if num < 0 {
			q--
		} else {
			q++
		}
	}
	return q
}

// meanGrams is the mean rounded to 2 decimals, floored at zero.
func meanGrams(sum, count int64) float64 {
	hundredths := roundDiv(sum, count*(fixedScale/100))
	if hundredths < 0 {
		hundredths = 0
	}
	return float64(hundredths) / 100
}

// meanCalories is the mean rounded to a whole number, floored at zero.
func meanCalories(sum, count int64) int {
	v := roundDiv(sum, count*fixedScale)
	if v < 0 {
		v = 0
	}
	return int(v)
}

// Aggregate computes per-group and per-subgroup average profiles for one
// catalog snapshot. Buckets with no contributing foods are not produced. A
// subgroup whose catalog parent disagrees with the group its foods were
// filed under is a data integrity defect and fails the whole aggregation.
func Aggregate(version, systemID string, items []catalog.FoodItem, groups []catalog.GroupMeta, subgroups []catalog.SubgroupMeta) ([]BucketProfile, error) {
	groupMeta := make(map[int64]catalog.GroupMeta, len(groups))
	for _, g := range groups {
		groupMeta[g.ID] = g
	}
	subgroupMeta := make(map[int64]catalog.SubgroupMeta, len(subgroups))
	for _, s := range subgroups {
		subgroupMeta[s.ID] = s
	}

	byGroup := map[int64]*accumulator{}
	bySubgroup := map[int64]*accumulator{}

	for _, it := range items {
		ga := byGroup[it.GroupID]
		if ga == nil {
			ga = &accumulator{name: it.GroupName}
			byGroup[it.GroupID] = ga
		}
		ga.add(it)

		if it.SubgroupID == nil {
			continue
		}
		sa := bySubgroup[*it.SubgroupID]
		if sa == nil {
			sa = &accumulator{name: it.SubgroupName, groupID: it.GroupID}
			bySubgroup[*it.SubgroupID] = sa
		} else if sa.groupID != it.GroupID {
			return nil, exchange.NewDataIntegrityError(systemID, version,
				"subgroup %d has foods filed under groups %d and %d", *it.SubgroupID, sa.groupID, it.GroupID)
		}
		sa.add(it)
	}

	out := make([]BucketProfile, 0, len(byGroup)+len(bySubgroup))

	groupIDs := sortedKeys(byGroup)
	for _, id := range groupIDs {
		acc := byGroup[id]
		name := acc.name
		if m, ok := groupMeta[id]; ok && m.Name != "" {
			name = m.Name
		}
		out = append(out, acc.profile(version, systemID, BucketGroup, id, nil, name))
	}

	subgroupIDs := sortedKeys(bySubgroup)
	for _, id := range subgroupIDs {
		acc := bySubgroup[id]
		parent := acc.groupID
		name := acc.name
		if m, ok := subgroupMeta[id]; ok {
			if m.GroupID != 0 && m.GroupID != acc.groupID {
				return nil, exchange.NewDataIntegrityError(systemID, version,
					"subgroup %d declares parent group %d but its foods belong to group %d", id, m.GroupID, acc.groupID)
			}
			if m.GroupID != 0 {
				parent = m.GroupID
			}
			if m.Name != "" {
				name = m.Name
			}
		}
		p := parent
		out = append(out, acc.profile(version, systemID, BucketSubgroup, id, &p, name))
	}
	return out, nil
}

func (a *accumulator) profile(version, systemID string, bt BucketType, id int64, parent *int64, name string) BucketProfile {
	return BucketProfile{
		ProfileVersion: version,
		SystemID:       systemID,
		BucketType:     bt,
		BucketID:       id,
		ParentGroupID:  parent,
		Name:           name,
		SampleSize:     int(a.count),
		CarbsG:         meanGrams(a.carbs, a.count),
		ProteinG:       meanGrams(a.protein, a.count),
		FatG:           meanGrams(a.fat, a.count),
		Calories:       meanCalories(a.calories, a.count),
	}
}

func sortedKeys(m map[int64]*accumulator) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
