package allocation

import (
	"testing"

	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/groupcode"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/profiles"
)

func subgroup(id, parent int64, name string) profiles.BucketProfile {
	p := parent
	return profiles.BucketProfile{
		ProfileVersion: "v1",
		SystemID:       "smae_mx",
		BucketType:     profiles.BucketSubgroup,
		BucketID:       id,
		ParentGroupID:  &p,
		Name:           name,
		SampleSize:     4,
		ProteinG:       7,
		FatG:           3,
		Calories:       55,
	}
}

func proteinPlan(total float64) GroupPlan {
	return GroupPlan{Entries: []GroupPlanEntry{
		{BucketID: 6, Code: groupcode.Protein, Name: "Alimentos de origen animal", Exchanges: total},
		{BucketID: 7, Code: groupcode.Milk, Name: "Leche", Exchanges: 2},
	}}
}

func proteinSubgroups() []profiles.BucketProfile {
	return []profiles.BucketProfile{
		subgroup(61, 6, "Muy bajo aporte de grasa"),
		subgroup(62, 6, "Bajo aporte de grasa"),
		subgroup(63, 6, "Moderado aporte de grasa"),
		subgroup(64, 6, "Alto aporte de grasa"),
	}
}

func policy(id, parent, sub int64, share float64) SubgroupPolicy {
	return SubgroupPolicy{ID: id, ParentGroupID: parent, SubgroupID: sub, TargetSharePct: share, Active: true}
}

func exchangesOf(plan SubgroupPlan, bucketID int64) (float64, bool) {
	for _, e := range plan.Entries {
		if e.BucketID == bucketID {
			return e.Exchanges, true
		}
	}
	return 0, false
}

func TestBuildSubgroupPlan_ExclusionarySplit(t *testing.T) {
	plan := BuildSubgroupPlan(proteinPlan(7.5), proteinSubgroups(), []SubgroupPolicy{
		policy(1, 6, 62, 100),
		policy(2, 6, 64, 0),
	}, PatientConstraints{})
	if got, _ := exchangesOf(plan, 62); got != 7.5 {
		t.Fatalf("100%% subgroup = %v, want 7.5", got)
	}
	got, ok := exchangesOf(plan, 64)
	if !ok || got != 0 {
		t.Fatalf("0%% subgroup = %v (listed=%v), want exactly 0", got, ok)
	}
	if plan.ParentTotal(6) != 7.5 {
		t.Fatalf("subgroups must reconstruct the parent total, got %v", plan.ParentTotal(6))
	}
	if plan.Has(7) {
		t.Fatalf("milk has no policy and must be omitted")
	}
}

func TestBuildSubgroupPlan_SumsMatchParentTotal(t *testing.T) {
	policies := []SubgroupPolicy{
		policy(1, 6, 61, 45),
		policy(2, 6, 62, 35),
		policy(3, 6, 63, 20),
	}
	for total := 0.0; total <= 12; total += ExchangeStep {
		plan := BuildSubgroupPlan(proteinPlan(total), proteinSubgroups(), policies, PatientConstraints{})
		if got := plan.ParentTotal(6); got != total {
			t.Fatalf("total %v: subgroups add up to %v", total, got)
		}
		for _, e := range plan.Entries {
			if e.Exchanges < 0 {
				t.Fatalf("total %v: negative subgroup allocation %+v", total, e)
			}
		}
	}
}

func TestBuildSubgroupPlan_RoundsSharesToNearestHalf(t *testing.T) {
	cases := []struct {
		name     string
		total    float64
		policies []SubgroupPolicy
		want     map[int64]float64
	}{
		{
			name:     "60/40 of 2",
			total:    2,
			policies: []SubgroupPolicy{policy(1, 6, 61, 60), policy(2, 6, 62, 40)},
			want:     map[int64]float64{61: 1, 62: 1},
		},
		{
			name:     "34/33/33 of 3",
			total:    3,
			policies: []SubgroupPolicy{policy(1, 6, 61, 34), policy(2, 6, 62, 33), policy(3, 6, 63, 33)},
			want:     map[int64]float64{61: 1, 62: 1, 63: 1},
		},
		{
			name:     "40/30/30 of 5",
			total:    5,
			policies: []SubgroupPolicy{policy(1, 6, 61, 40), policy(2, 6, 62, 30), policy(3, 6, 63, 30)},
			want:     map[int64]float64{61: 2, 62: 1.5, 63: 1.5},
		},
		{
			// 0.5 each leaves 0.5 unassigned for the 34% share.
			name:     "34/33/33 of 2",
			total:    2,
			policies: []SubgroupPolicy{policy(1, 6, 61, 34), policy(2, 6, 62, 33), policy(3, 6, 63, 33)},
			want:     map[int64]float64{61: 1, 62: 0.5, 63: 0.5},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan := BuildSubgroupPlan(proteinPlan(tc.total), proteinSubgroups(), tc.policies, PatientConstraints{})
			for id, want := range tc.want {
				if got, _ := exchangesOf(plan, id); got != want {
					t.Fatalf("subgroup %d = %v, want %v (entries %+v)", id, got, want, plan.Entries)
				}
			}
			if got := plan.ParentTotal(6); got != tc.total {
				t.Fatalf("subgroups add up to %v, want %v", got, tc.total)
			}
		})
	}
}

func TestBuildSubgroupPlan_ScoreAdjustmentBreaksTies(t *testing.T) {
	// 1.75 rounds up to 2 on both sides; the top-ranked share gives back 0.5.
	even := []SubgroupPolicy{policy(1, 6, 61, 50), policy(2, 6, 62, 50)}
	plan := BuildSubgroupPlan(proteinPlan(3.5), proteinSubgroups(), even, PatientConstraints{})
	a, _ := exchangesOf(plan, 61)
	b, _ := exchangesOf(plan, 62)
	if a != 1.5 || b != 2 {
		t.Fatalf("without adjustment the lower id absorbs the residual, got %v/%v", a, b)
	}

	even[1].ScoreAdjustment = 0.3
	plan = BuildSubgroupPlan(proteinPlan(3.5), proteinSubgroups(), even, PatientConstraints{})
	a, _ = exchangesOf(plan, 61)
	b, _ = exchangesOf(plan, 62)
	if a != 2 || b != 1.5 {
		t.Fatalf("got %v/%v, want 2/1.5", a, b)
	}

	thirds := []SubgroupPolicy{policy(1, 6, 61, 1), policy(2, 6, 62, 1), policy(3, 6, 63, 1)}
	plan = BuildSubgroupPlan(proteinPlan(2), proteinSubgroups(), thirds, PatientConstraints{})
	if a, _ := exchangesOf(plan, 61); a != 1 {
		t.Fatalf("positive residual should go to the lowest id on a tie, got %v", a)
	}
}

func TestBuildSubgroupPlan_NegativeResidualSpillsOver(t *testing.T) {
	// Four 0.25 shares each round up to 0.5, one exchange too many.
	quarters := []SubgroupPolicy{
		policy(1, 6, 61, 25),
		policy(2, 6, 62, 25),
		policy(3, 6, 63, 25),
		policy(4, 6, 64, 25),
	}
	plan := BuildSubgroupPlan(proteinPlan(1), proteinSubgroups(), quarters, PatientConstraints{})
	want := map[int64]float64{61: 0, 62: 0, 63: 0.5, 64: 0.5}
	for id, w := range want {
		if got, _ := exchangesOf(plan, id); got != w {
			t.Fatalf("subgroup %d = %v, want %v", id, got, w)
		}
	}
	if plan.ParentTotal(6) != 1 {
		t.Fatalf("subgroups add up to %v, want 1", plan.ParentTotal(6))
	}
}

func TestBuildSubgroupPlan_ConditionScopedPolicies(t *testing.T) {
	policies := []SubgroupPolicy{
		policy(1, 6, 61, 50),
		policy(2, 6, 64, 50),
		{ID: 3, ParentGroupID: 6, SubgroupID: 61, Condition: "dyslipidemia", TargetSharePct: 100, Active: true},
		{ID: 4, ParentGroupID: 6, SubgroupID: 64, Condition: "dyslipidemia", TargetSharePct: 0, Active: true},
		{ID: 5, ParentGroupID: 6, SubgroupID: 64, Condition: "goal:gain_muscle", TargetSharePct: 100, Active: true},
	}
	plan := BuildSubgroupPlan(proteinPlan(4), proteinSubgroups(), policies, PatientConstraints{HasDyslipidemia: true, Goal: GoalGainMuscle})
	if a, _ := exchangesOf(plan, 61); a != 4 {
		t.Fatalf("dyslipidemia policy should win over the goal policy, got %v", a)
	}
	plan = BuildSubgroupPlan(proteinPlan(4), proteinSubgroups(), policies, PatientConstraints{Goal: GoalGainMuscle})
	if b, _ := exchangesOf(plan, 64); b != 4 {
		t.Fatalf("goal policy expected, got %v", b)
	}
	plan = BuildSubgroupPlan(proteinPlan(4), proteinSubgroups(), policies, PatientConstraints{HasDiabetes: true})
	a, _ := exchangesOf(plan, 61)
	b, _ := exchangesOf(plan, 64)
	if a != 2 || b != 2 {
		t.Fatalf("default policy expected, got %v/%v", a, b)
	}
}

func TestBuildSubgroupPlan_InactivePoliciesIgnored(t *testing.T) {
	p := policy(1, 6, 61, 100)
	p.Active = false
	plan := BuildSubgroupPlan(proteinPlan(4), proteinSubgroups(), []SubgroupPolicy{p}, PatientConstraints{})
	if len(plan.Entries) != 0 {
		t.Fatalf("expected no subgroup entries, got %+v", plan.Entries)
	}
}

func TestBuildSubgroupPlan_MissingProfileRenormalises(t *testing.T) {
	plan := BuildSubgroupPlan(proteinPlan(3), proteinSubgroups()[:2], []SubgroupPolicy{
		policy(1, 6, 61, 60),
		policy(2, 6, 64, 40),
	}, PatientConstraints{})
	if a, _ := exchangesOf(plan, 61); a != 3 {
		t.Fatalf("remaining subgroup should take the whole parent, got %v", a)
	}
	if len(plan.Warnings) != 1 || plan.Warnings[0].BucketID != 64 {
		t.Fatalf("expected a warning for subgroup 64, got %+v", plan.Warnings)
	}
	for _, e := range plan.Entries {
		if e.BucketID == 61 && e.SharePct != 100 {
			t.Fatalf("share should be renormalised to 100, got %v", e.SharePct)
		}
	}
}

func TestBuildSubgroupPlan_CarriesIdentity(t *testing.T) {
	subs := profiles.ApplyCodes(append(proteinSubgroups(), profiles.BucketProfile{
		ProfileVersion: "v1", SystemID: "smae_mx", BucketType: profiles.BucketGroup, BucketID: 6,
		Name: "Alimentos de origen animal", SampleSize: 16, ProteinG: 7, FatG: 3, Calories: 55,
	}), nil)
	_, subs = profiles.Split(subs)
	plan := BuildSubgroupPlan(proteinPlan(2), subs, []SubgroupPolicy{policy(1, 6, 62, 100)}, PatientConstraints{})
	if len(plan.Entries) != 1 {
		t.Fatalf("expected one entry, got %+v", plan.Entries)
	}
	e := plan.Entries[0]
	if e.ParentGroupID != 6 || e.ParentCode != groupcode.Protein || e.Code != groupcode.ProteinLowFat || e.Name != "Bajo aporte de grasa" {
		t.Fatalf("unexpected identity %+v", e)
	}
}
