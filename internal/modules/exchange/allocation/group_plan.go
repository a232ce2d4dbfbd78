package allocation

import (
	"fmt"
	"math"
	"sort"

	"github.com/yungbote/nutriplan-backend/internal/modules/exchange"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/groupcode"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/profiles"
)

type macroRole int

const (
	roleCarbohydrate macroRole = iota
	roleProtein
	roleFat
)

var roleOrder = []macroRole{roleCarbohydrate, roleProtein, roleFat}

func (r macroRole) String() string {
	switch r {
	case roleProtein:
		return "protein"
	case roleFat:
		return "fat"
	default:
		return "carbohydrate"
	}
}

func roleOf(code groupcode.GroupCode) macroRole {
	switch code {
	case groupcode.Protein:
		return roleProtein
	case groupcode.Fat, groupcode.Milk:
		return roleFat
	default:
		return roleCarbohydrate
	}
}

func (m Macros) grams(r macroRole) float64 {
	switch r {
	case roleProtein:
		return m.ProteinG
	case roleFat:
		return m.FatG
	default:
		return m.CarbsG
	}
}

func (t EnergyTargets) grams(r macroRole) float64 {
	switch r {
	case roleProtein:
		return t.ProteinG
	case roleFat:
		return t.FatG
	default:
		return t.CarbsG
	}
}

const (
	SugarPreferenceFloor = 0.5
	FatFloor             = 1.0
	ExchangeStep         = 0.5
	defaultSweeps        = 16
)

// Options tunes the group-level solve. The zero value is not useful; start
// from DefaultOptions.
type Options struct {
	// Shares is each code's share of its macro role. Shares are
	// renormalised over the codes actually present.
	Shares map[groupcode.GroupCode]float64
	Sweeps int
	Mapper *groupcode.Mapper
}

func DefaultOptions() Options {
	return Options{
		Shares: map[groupcode.GroupCode]float64{
			groupcode.Vegetable: 0.10,
			groupcode.Fruit:     0.20,
			groupcode.Legume:    0.10,
			groupcode.Sugar:     0.05,
			groupcode.Carb:      0.55,
			groupcode.Protein:   1.0,
			groupcode.Fat:       0.75,
			groupcode.Milk:      0.25,
		},
		Sweeps: defaultSweeps,
		Mapper: groupcode.Default(),
	}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if len(o.Shares) == 0 {
		o.Shares = d.Shares
	}
	if o.Sweeps <= 0 {
		o.Sweeps = d.Sweeps
	}
	if o.Mapper == nil {
		o.Mapper = d.Mapper
	}
	return o
}

type slot struct {
	entry  GroupPlanEntry
	role   macroRole
	weight float64
	count  float64
	floor  float64
	forced bool
}

// BuildGroupPlan computes exchanges per day for every usable group profile.
// Profiles that are malformed, or carry none of the macro their group is
// meant to cover, are skipped with a warning. It fails only when nothing
// usable is left.
func BuildGroupPlan(targets EnergyTargets, groupProfiles []profiles.BucketProfile, constraints PatientConstraints, opts Options) (GroupPlan, error) {
	if err := targets.Validate(); err != nil {
		return GroupPlan{}, err
	}
	opts = opts.normalized()

	var (
		plan      GroupPlan
		slots     []*slot
		systemID  string
		version   string
		seenGroup = map[int64]bool{}
	)
	for _, p := range groupProfiles {
		if p.BucketType != profiles.BucketGroup {
			continue
		}
		systemID, version = p.SystemID, p.ProfileVersion
		code := p.GroupCode
		if !code.Valid() {
			code = opts.Mapper.InferGroupCode(p.Name)
		}
		if seenGroup[p.BucketID] {
			plan.Warnings = append(plan.Warnings, groupWarning(p, code, "duplicate profile for bucket"))
			continue
		}
		seenGroup[p.BucketID] = true
		if !p.Usable() {
			plan.Warnings = append(plan.Warnings, groupWarning(p, code, "malformed profile"))
			continue
		}
		per := Macros{CarbsG: p.CarbsG, ProteinG: p.ProteinG, FatG: p.FatG, Calories: float64(p.Calories)}
		role := roleOf(code)
		if per.grams(role) <= 0 {
			plan.Warnings = append(plan.Warnings, groupWarning(p, code, fmt.Sprintf("no %s per exchange", role)))
			continue
		}
		slots = append(slots, &slot{
			entry: GroupPlanEntry{BucketID: p.BucketID, Code: code, Name: p.Name, PerExchange: per},
			role:  role,
		})
	}
	if len(slots) == 0 {
		return plan, exchange.NewDataIntegrityError(systemID, version, "no usable group profiles")
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].entry.BucketID < slots[j].entry.BucketID })
	assignWeights(slots, opts.Shares)
	solve(slots, targets, opts.Sweeps)
	applyPolicies(slots, constraints, opts.Mapper)

	plan.Entries = make([]GroupPlanEntry, 0, len(slots))
	for _, s := range slots {
		e := s.entry
		e.Exchanges = roundExchanges(s.count, s.floor, s.forced)
		plan.Entries = append(plan.Entries, e)
	}
	return plan, nil
}

func groupWarning(p profiles.BucketProfile, code groupcode.GroupCode, reason string) exchange.MissingProfileWarning {
	return exchange.MissingProfileWarning{
		BucketType: string(profiles.BucketGroup),
		BucketID:   p.BucketID,
		Code:       string(code),
		Reason:     reason,
	}
}

// assignWeights gives each slot its fraction of its role's residual. A role
// whose present codes are all configured at zero share falls back to equal
// weights.
func assignWeights(slots []*slot, shares map[groupcode.GroupCode]float64) {
	perCode := map[groupcode.GroupCode]int{}
	for _, s := range slots {
		perCode[s.entry.Code]++
	}
	roleTotal := map[macroRole]float64{}
	roleCount := map[macroRole]int{}
	counted := map[groupcode.GroupCode]bool{}
	for _, s := range slots {
		roleCount[s.role]++
		if counted[s.entry.Code] {
			continue
		}
		counted[s.entry.Code] = true
		if v := shares[s.entry.Code]; v > 0 {
			roleTotal[s.role] += v
		}
	}
	for _, s := range slots {
		total := roleTotal[s.role]
		if total <= 0 {
			s.weight = 1 / float64(roleCount[s.role])
			continue
		}
		share := math.Max(shares[s.entry.Code], 0)
		s.weight = share / total / float64(perCode[s.entry.Code])
	}
}

// solve runs block Gauss-Seidel over the three macro roles: each role covers
// what the other roles' groups leave of its target.
func solve(slots []*slot, targets EnergyTargets, sweeps int) {
	for i := 0; i < sweeps; i++ {
		for _, role := range roleOrder {
			residual := targets.grams(role)
			for _, s := range slots {
				if s.role != role {
					residual -= s.count * s.entry.PerExchange.grams(role)
				}
			}
			for _, s := range slots {
				if s.role != role {
					continue
				}
				s.count = math.Max(0, s.weight*residual/s.entry.PerExchange.grams(role))
			}
		}
	}
}

func applyPolicies(slots []*slot, c PatientConstraints, mapper *groupcode.Mapper) {
	sweet := c.HasSweetPreference(mapper)
	freedCarbs := 0.0
	for _, s := range slots {
		switch s.entry.Code {
		case groupcode.Sugar:
			before := s.count
			switch {
			case c.HasDiabetes:
				s.count, s.forced = 0, true
			case c.Goal == GoalLoseFat && sweet:
				s.floor = SugarPreferenceFloor
				s.count = math.Max(s.count, SugarPreferenceFloor)
			case c.Goal == GoalLoseFat:
				s.count, s.forced = 0, true
			}
			freedCarbs += (before - s.count) * s.entry.PerExchange.CarbsG
		case groupcode.Fat:
			if !c.HasDyslipidemia {
				s.floor = FatFloor
				s.count = math.Max(s.count, FatFloor)
			}
		}
	}
	if freedCarbs == 0 {
		return
	}
	var carbSlots []*slot
	weightSum := 0.0
	for _, s := range slots {
		if s.entry.Code == groupcode.Carb {
			carbSlots = append(carbSlots, s)
			weightSum += s.weight
		}
	}
	for _, s := range carbSlots {
		w := 1 / float64(len(carbSlots))
		if weightSum > 0 {
			w = s.weight / weightSum
		}
		s.count = math.Max(0, s.count+w*freedCarbs/s.entry.PerExchange.CarbsG)
	}
}

// roundExchanges rounds to the nearest half exchange, never below floor or zero.
func roundExchanges(v, floor float64, forced bool) float64 {
	if forced || math.IsNaN(v) {
		return 0
	}
	r := math.Round(v/ExchangeStep) * ExchangeStep
	if r < floor {
		r = floor
	}
	if r < 0 {
		r = 0
	}
	return r
}

// Uncovered names the macros that have a positive target but no group in the
// plan able to cover them.
func (p GroupPlan) Uncovered(targets EnergyTargets) []string {
	covered := map[macroRole]bool{}
	for _, e := range p.Entries {
		covered[roleOf(e.Code)] = true
	}
	var out []string
	for _, role := range roleOrder {
		if targets.grams(role) > 0 && !covered[role] {
			out = append(out, role.String())
		}
	}
	return out
}
