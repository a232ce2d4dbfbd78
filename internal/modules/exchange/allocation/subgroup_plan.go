package allocation

import (
	"math"
	"sort"

	"github.com/yungbote/nutriplan-backend/internal/modules/exchange"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/profiles"
)

// shareEpsilon absorbs float noise when rounding shares onto the half-exchange grid.
const shareEpsilon = 1e-9

type shareSlot struct {
	policy  SubgroupPolicy
	profile profiles.BucketProfile
	pct     float64
	count   float64
}

// BuildSubgroupPlan splits every parent group total across its subgroups
// according to the active policies for that parent. Groups without an active
// policy are left unsplit and do not appear in the result. The entries of one
// parent always add back up to the parent's total.
func BuildSubgroupPlan(groupPlan GroupPlan, subgroupProfiles []profiles.BucketProfile, policies []SubgroupPolicy, constraints PatientConstraints) SubgroupPlan {
	var plan SubgroupPlan

	profilesByID := map[int64]profiles.BucketProfile{}
	for _, p := range subgroupProfiles {
		if p.BucketType != profiles.BucketSubgroup {
			continue
		}
		if !p.Usable() {
			plan.Warnings = append(plan.Warnings, subgroupWarning(p.BucketID, string(p.SubgroupCode), "malformed profile"))
			continue
		}
		if _, dup := profilesByID[p.BucketID]; !dup {
			profilesByID[p.BucketID] = p
		}
	}

	byParent := map[int64][]SubgroupPolicy{}
	for _, p := range policies {
		if !p.Active {
			continue
		}
		byParent[p.ParentGroupID] = append(byParent[p.ParentGroupID], p)
	}
	conditions := ConditionKeys(constraints)

	for _, g := range groupPlan.Entries {
		selected := selectPolicies(byParent[g.BucketID], conditions)
		if len(selected) == 0 {
			continue
		}
		slots := make([]*shareSlot, 0, len(selected))
		seen := map[int64]bool{}
		for _, pol := range selected {
			if seen[pol.SubgroupID] {
				continue
			}
			seen[pol.SubgroupID] = true
			prof, ok := profilesByID[pol.SubgroupID]
			if !ok {
				plan.Warnings = append(plan.Warnings, subgroupWarning(pol.SubgroupID, "", "no profile for policy subgroup"))
				continue
			}
			if prof.ParentGroupID != nil && *prof.ParentGroupID != g.BucketID {
				plan.Warnings = append(plan.Warnings, subgroupWarning(pol.SubgroupID, string(prof.SubgroupCode), "profile belongs to another group"))
				continue
			}
			slots = append(slots, &shareSlot{policy: pol, profile: prof})
		}
		if !normalizeShares(slots) {
			continue
		}
		distribute(slots, g.Exchanges)

		sort.Slice(slots, func(i, j int) bool { return slots[i].profile.BucketID < slots[j].profile.BucketID })
		for _, s := range slots {
			plan.Entries = append(plan.Entries, SubgroupPlanEntry{
				BucketID:      s.profile.BucketID,
				ParentGroupID: g.BucketID,
				Code:          s.profile.SubgroupCode,
				ParentCode:    g.Code,
				Name:          s.profile.Name,
				SharePct:      s.pct,
				Exchanges:     s.count,
			})
		}
	}
	return plan
}

func subgroupWarning(id int64, code, reason string) exchange.MissingProfileWarning {
	return exchange.MissingProfileWarning{
		BucketType: string(profiles.BucketSubgroup),
		BucketID:   id,
		Code:       code,
		Reason:     reason,
	}
}

// selectPolicies returns the policy set of the first matching condition.
func selectPolicies(candidates []SubgroupPolicy, conditions []string) []SubgroupPolicy {
	if len(candidates) == 0 {
		return nil
	}
	for _, cond := range conditions {
		var out []SubgroupPolicy
		for _, p := range candidates {
			if p.condition() == cond {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			sort.SliceStable(out, func(i, j int) bool {
				if out[i].SubgroupID != out[j].SubgroupID {
					return out[i].SubgroupID < out[j].SubgroupID
				}
				return out[i].ID < out[j].ID
			})
			return out
		}
	}
	return nil
}

// normalizeShares rescales shares to sum to 100 over the subgroups left after
// dropping missing profiles. It reports false when no positive share remains.
func normalizeShares(slots []*shareSlot) bool {
	total := 0.0
	for _, s := range slots {
		if s.policy.TargetSharePct > 0 {
			total += s.policy.TargetSharePct
		}
	}
	if total <= 0 {
		return false
	}
	for _, s := range slots {
		if s.policy.TargetSharePct > 0 {
			s.pct = s.policy.TargetSharePct * 100 / total
		}
	}
	return true
}

// distribute rounds every share to the nearest half exchange and applies the
// signed rounding residual to the largest share. Ties go to the higher score
// adjustment, then to the lower subgroup id. A residual that would push a share
// below zero spills over to the next share in rank order.
func distribute(slots []*shareSlot, total float64) {
	assigned := 0.0
	ranked := make([]*shareSlot, 0, len(slots))
	for _, s := range slots {
		if s.pct <= 0 {
			s.count = 0
			continue
		}
		raw := total * s.pct / 100
		s.count = math.Round(raw/ExchangeStep+shareEpsilon) * ExchangeStep
		assigned += s.count
		ranked = append(ranked, s)
	}
	sort.SliceStable(ranked, func(i, j int) bool { return outranks(ranked[i], ranked[j]) })

	residual := total - assigned
	for _, s := range ranked {
		if math.Abs(residual) < shareEpsilon {
			break
		}
		if s.count+residual >= 0 {
			s.count += residual
			break
		}
		residual += s.count
		s.count = 0
	}
}

func outranks(a, b *shareSlot) bool {
	if a.pct != b.pct {
		return a.pct > b.pct
	}
	if a.policy.ScoreAdjustment != b.policy.ScoreAdjustment {
		return a.policy.ScoreAdjustment > b.policy.ScoreAdjustment
	}
	return a.profile.BucketID < b.profile.BucketID
}

// Has reports whether any subgroup entry was produced for the parent group.
func (p SubgroupPlan) Has(parentGroupID int64) bool {
	for _, e := range p.Entries {
		if e.ParentGroupID == parentGroupID {
			return true
		}
	}
	return false
}

// ParentTotal sums the subgroup exchanges filed under parentGroupID.
func (p SubgroupPlan) ParentTotal(parentGroupID int64) float64 {
	total := 0.0
	for _, e := range p.Entries {
		if e.ParentGroupID == parentGroupID {
			total += e.Exchanges
		}
	}
	return total
}
