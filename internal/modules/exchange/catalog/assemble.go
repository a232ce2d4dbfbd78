package catalog

import (
	"sort"
	"strings"

	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/canonical"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/groupcode"
)

type AssembleStats struct {
	Foods          int
	Resolved       int
	NoCanonical    int
	GroupOverrides int
}

// Assemble joins raw food rows with their canonical values and classifies
// them. Foods without a canonical value are left out: they have no usable
// macro data. Explicit per-food code overrides win over inferred codes.
func Assemble(rows []FoodRow, values map[int64]canonical.Value, mapper *groupcode.Mapper) ([]FoodItem, AssembleStats) {
	if mapper == nil {
		mapper = groupcode.Default()
	}
	stats := AssembleStats{Foods: len(rows)}
	out := make([]FoodItem, 0, len(rows))
	for _, r := range rows {
		v, ok := values[r.ID]
		if !ok {
			stats.NoCanonical++
			continue
		}
		item := FoodItem{
			ID:           r.ID,
			SystemID:     r.SystemID,
			Name:         r.Name,
			GroupID:      r.GroupID,
			GroupName:    r.GroupName,
			SubgroupID:   r.SubgroupID,
			SubgroupName: r.SubgroupName,
			CarbsG:       v.CarbsG,
			ProteinG:     v.ProteinG,
			FatG:         v.FatG,
			Calories:     v.Calories,
			ServingQty:   v.ServingQty,
			ServingUnit:  v.ServingUnit,
			DataSourceID: v.DataSourceID,
			GeoWeight:    r.GeoWeight,
			Tags:         normalizeTags(r.Tags),
		}

		if override := groupcode.GroupCode(strings.TrimSpace(r.GroupCodeOverride)); override.Valid() {
			item.GroupCode = override
			stats.GroupOverrides++
		} else {
			item.GroupCode = mapper.InferGroupCode(r.GroupName)
		}

		if override := strings.TrimSpace(r.SubgroupCodeOverride); override != "" {
			item.SubgroupCode = groupcode.SubgroupCode(override)
		} else if r.SubgroupID != nil {
			if code, ok := mapper.InferSubgroupCode(r.SubgroupName, item.GroupCode); ok {
				item.SubgroupCode = code
			}
		}

		out = append(out, item)
		stats.Resolved++
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, stats
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = groupcode.Normalize(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
