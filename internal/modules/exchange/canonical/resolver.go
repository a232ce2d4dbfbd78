package canonical

import "strings"

// StateStandard is the record state that outranks every other state.
const StateStandard = "standard"

// DefaultPriorityRank ranks sources missing from the priority map (or
// candidates without a source) below every explicitly ranked source.
const DefaultPriorityRank = 1 << 30

// Candidate is one raw nutrition-value record for a food. Nil macros mean the
// source did not provide the field.
type Candidate struct {
	ID           int64
	FoodID       int64
	DataSourceID *int64
	State        string
	Calories     *float64
	ProteinG     *float64
	CarbsG       *float64
	FatG         *float64
	ServingQty   float64
	ServingUnit  string
}

// Value is the single macro profile chosen for a food.
type Value struct {
	ID           int64   `json:"id"`
	FoodID       int64   `json:"food_id"`
	DataSourceID *int64  `json:"data_source_id,omitempty"`
	Calories     float64 `json:"calories"`
	ProteinG     float64 `json:"protein_g"`
	CarbsG       float64 `json:"carbs_g"`
	FatG         float64 `json:"fat_g"`
	ServingQty   float64 `json:"serving_qty"`
	ServingUnit  string  `json:"serving_unit"`
}

// Priority maps data source id to rank; lower ranks win.
type Priority map[int64]int

func (p Priority) rank(sourceID *int64) int {
	if sourceID == nil {
		return DefaultPriorityRank
	}
	if r, ok := p[*sourceID]; ok {
		return r
	}
	return DefaultPriorityRank
}

// Utilizable reports whether all four macro fields are present.
func (c Candidate) Utilizable() bool {
	return c.Calories != nil && c.ProteinG != nil && c.CarbsG != nil && c.FatG != nil
}

func (c Candidate) value() Value {
	return Value{
		ID:           c.ID,
		FoodID:       c.FoodID,
		DataSourceID: c.DataSourceID,
		Calories:     *c.Calories,
		ProteinG:     *c.ProteinG,
		CarbsG:       *c.CarbsG,
		FatG:         *c.FatG,
		ServingQty:   c.ServingQty,
		ServingUnit:  c.ServingUnit,
	}
}

func stateRank(state string) int {
	if strings.EqualFold(strings.TrimSpace(state), StateStandard) {
		return 0
	}
	return 1
}

// better reports whether a outranks b: standard state first, then lower
// source rank, then the higher (newer) id.
func better(a, b Candidate, priority Priority) bool {
	if sa, sb := stateRank(a.State), stateRank(b.State); sa != sb {
		return sa < sb
	}
	if ra, rb := priority.rank(a.DataSourceID), priority.rank(b.DataSourceID); ra != rb {
		return ra < rb
	}
	return a.ID > b.ID
}

// SelectCanonical picks the canonical value among candidates. ok is false when
// no candidate carries all four macros; callers exclude such foods from plan
// generation rather than treating it as an error.
func SelectCanonical(candidates []Candidate, priority Priority) (Value, bool) {
	var (
		best  Candidate
		found bool
	)
	for _, c := range candidates {
		if !c.Utilizable() {
			continue
		}
		if !found || better(c, best, priority) {
			best = c
			found = true
		}
	}
	if !found {
		return Value{}, false
	}
	return best.value(), true
}

// ResolveAll reduces a bulk candidate set for a whole catalog to one
// canonical value per food id using the same ranking as SelectCanonical.
func ResolveAll(candidates []Candidate, priority Priority) map[int64]Value {
	best := make(map[int64]Candidate, len(candidates))
	for _, c := range candidates {
		if !c.Utilizable() {
			continue
		}
		cur, ok := best[c.FoodID]
		if !ok || better(c, cur, priority) {
			best[c.FoodID] = c
		}
	}
	out := make(map[int64]Value, len(best))
	for foodID, c := range best {
		out[foodID] = c.value()
	}
	return out
}

// RankedSource is one row of source-priority metadata as returned by the
// joined bulk fetch.
type RankedSource struct {
	DataSourceID int64
	Rank         int
}

// PriorityFromRows builds a Priority map. Duplicate rows for a source keep the
// best (lowest) rank.
func PriorityFromRows(rows []RankedSource) Priority {
	p := make(Priority, len(rows))
	for _, r := range rows {
		if cur, ok := p[r.DataSourceID]; ok && cur <= r.Rank {
			continue
		}
		p[r.DataSourceID] = r.Rank
	}
	return p
}
