package allocation

import (
	"math"
	"strings"

	"github.com/yungbote/nutriplan-backend/internal/modules/exchange"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/groupcode"
)

type Goal string

const (
	GoalMaintain   Goal = "maintain"
	GoalLoseFat    Goal = "lose_fat"
	GoalGainMuscle Goal = "gain_muscle"
)

func (g Goal) Valid() bool {
	switch g {
	case GoalMaintain, GoalLoseFat, GoalGainMuscle:
		return true
	}
	return false
}

// PatientConstraints is the slice of the patient profile that drives policy.
type PatientConstraints struct {
	HasDiabetes     bool     `json:"has_diabetes"`
	HasHypertension bool     `json:"has_hypertension"`
	HasDyslipidemia bool     `json:"has_dyslipidemia"`
	DietaryPattern  string   `json:"dietary_pattern,omitempty"`
	Likes           []string `json:"likes,omitempty"`
	Dislikes        []string `json:"dislikes,omitempty"`
	Goal            Goal     `json:"goal,omitempty"`
}

// HasSweetPreference reports whether any like is recognised as a sweet-snack signal.
func (c PatientConstraints) HasSweetPreference(m *groupcode.Mapper) bool {
	if m == nil {
		m = groupcode.Default()
	}
	for _, like := range c.Likes {
		if m.IsSweetSignal(like) {
			return true
		}
	}
	return false
}

// ConditionKeys lists the policy conditions the patient matches, most
// specific first, always ending with the default condition "".
func ConditionKeys(c PatientConstraints) []string {
	keys := make([]string, 0, 6)
	if c.HasDiabetes {
		keys = append(keys, "diabetes")
	}
	if c.HasDyslipidemia {
		keys = append(keys, "dyslipidemia")
	}
	if c.HasHypertension {
		keys = append(keys, "hypertension")
	}
	if p := groupcode.Normalize(c.DietaryPattern); p != "" {
		keys = append(keys, "pattern:"+p)
	}
	if g := groupcode.Normalize(string(c.Goal)); g != "" {
		keys = append(keys, "goal:"+g)
	}
	return append(keys, "")
}

// EnergyTargets are the per-day macro requirements computed upstream.
type EnergyTargets struct {
	CarbsG   float64 `json:"carbs_g"`
	ProteinG float64 `json:"protein_g"`
	FatG     float64 `json:"fat_g"`
}

const (
	KcalPerGramCarb    = 4.0
	KcalPerGramProtein = 4.0
	KcalPerGramFat     = 9.0
)

func (t EnergyTargets) Calories() float64 {
	return t.CarbsG*KcalPerGramCarb + t.ProteinG*KcalPerGramProtein + t.FatG*KcalPerGramFat
}

func (t EnergyTargets) Validate() error {
	for _, v := range []float64{t.CarbsG, t.ProteinG, t.FatG} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return exchange.ErrInvalidTargets
		}
	}
	return nil
}

// TargetsFromCalories splits a calorie budget by macro percentages (which must
// add up to 100 within half a point).
func TargetsFromCalories(kcal, carbPct, proteinPct, fatPct float64) (EnergyTargets, error) {
	if kcal < 0 || carbPct < 0 || proteinPct < 0 || fatPct < 0 {
		return EnergyTargets{}, exchange.ErrInvalidTargets
	}
	if math.Abs(carbPct+proteinPct+fatPct-100) > 0.5 {
		return EnergyTargets{}, exchange.ErrInvalidTargets
	}
	return EnergyTargets{
		CarbsG:   kcal * carbPct / 100 / KcalPerGramCarb,
		ProteinG: kcal * proteinPct / 100 / KcalPerGramProtein,
		FatG:     kcal * fatPct / 100 / KcalPerGramFat,
	}, nil
}

// Macros is a per-exchange or aggregate macro profile.
type Macros struct {
	CarbsG   float64 `json:"carbs_g"`
	ProteinG float64 `json:"protein_g"`
	FatG     float64 `json:"fat_g"`
	Calories float64 `json:"calories"`
}

func (m Macros) scale(k float64) Macros {
	return Macros{CarbsG: m.CarbsG * k, ProteinG: m.ProteinG * k, FatG: m.FatG * k, Calories: m.Calories * k}
}

func (m Macros) add(o Macros) Macros {
	return Macros{CarbsG: m.CarbsG + o.CarbsG, ProteinG: m.ProteinG + o.ProteinG, FatG: m.FatG + o.FatG, Calories: m.Calories + o.Calories}
}

type GroupPlanEntry struct {
	BucketID    int64               `json:"bucket_id"`
	Code        groupcode.GroupCode `json:"code"`
	Name        string              `json:"name"`
	Exchanges   float64             `json:"exchanges_per_day"`
	PerExchange Macros              `json:"per_exchange"`
}

type GroupPlan struct {
	Entries  []GroupPlanEntry                 `json:"entries"`
	Warnings []exchange.MissingProfileWarning `json:"warnings,omitempty"`
}

// Totals is the macro content the plan actually delivers.
func (p GroupPlan) Totals() Macros {
	var out Macros
	for _, e := range p.Entries {
		out = out.add(e.PerExchange.scale(e.Exchanges))
	}
	return out
}

// Has reports whether the plan carries at least one entry for code.
func (p GroupPlan) Has(code groupcode.GroupCode) bool {
	for _, e := range p.Entries {
		if e.Code == code {
			return true
		}
	}
	return false
}

// Exchanges sums the exchanges of every entry with code.
func (p GroupPlan) Exchanges(code groupcode.GroupCode) float64 {
	total := 0.0
	for _, e := range p.Entries {
		if e.Code == code {
			total += e.Exchanges
		}
	}
	return total
}

// SubgroupPolicy assigns a share of a parent group's exchanges to one of its
// subgroups. Condition scopes the policy to patients matching it ("" is the
// default set).
type SubgroupPolicy struct {
	ID              int64   `json:"id"`
	ParentGroupID   int64   `json:"parent_group_id"`
	SubgroupID      int64   `json:"subgroup_id"`
	Condition       string  `json:"condition,omitempty"`
	TargetSharePct  float64 `json:"target_share_pct"`
	ScoreAdjustment float64 `json:"score_adjustment"`
	Active          bool    `json:"active"`
}

func (p SubgroupPolicy) condition() string {
	return strings.ToLower(strings.TrimSpace(p.Condition))
}

type SubgroupPlanEntry struct {
	BucketID      int64                  `json:"bucket_id"`
	ParentGroupID int64                  `json:"parent_group_id"`
	Code          groupcode.SubgroupCode `json:"code,omitempty"`
	ParentCode    groupcode.GroupCode    `json:"parent_code"`
	Name          string                 `json:"name"`
	SharePct      float64                `json:"share_pct"`
	Exchanges     float64                `json:"exchanges_per_day"`
}

type SubgroupPlan struct {
	Entries  []SubgroupPlanEntry              `json:"entries"`
	Warnings []exchange.MissingProfileWarning `json:"warnings,omitempty"`
}
