package allocation

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/yungbote/nutriplan-backend/internal/modules/exchange"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/groupcode"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/profiles"
)

func group(id int64, name string, carbs, protein, fat float64, kcal int) profiles.BucketProfile {
	return profiles.BucketProfile{
		ProfileVersion: "v1",
		SystemID:       "smae_mx",
		BucketType:     profiles.BucketGroup,
		BucketID:       id,
		Name:           name,
		SampleSize:     10,
		CarbsG:         carbs,
		ProteinG:       protein,
		FatG:           fat,
		Calories:       kcal,
	}
}

func standardGroups() []profiles.BucketProfile {
	return profiles.ApplyCodes([]profiles.BucketProfile{
		group(1, "Verduras", 4, 2, 0, 25),
		group(2, "Frutas", 15, 0, 0, 60),
		group(3, "Leguminosas", 20, 8, 1, 120),
		group(4, "Azúcares", 10, 0, 0, 40),
		group(5, "Cereales y tubérculos", 15, 2, 0, 70),
		group(6, "Alimentos de origen animal", 0, 7, 3, 55),
		group(7, "Leche", 12, 9, 8, 150),
		group(8, "Aceites y grasas", 0, 0, 5, 45),
	}, nil)
}

var everyday = EnergyTargets{CarbsG: 250, ProteinG: 90, FatG: 60}

func mustPlan(t *testing.T, targets EnergyTargets, c PatientConstraints) GroupPlan {
	t.Helper()
	plan, err := BuildGroupPlan(targets, standardGroups(), c, DefaultOptions())
	if err != nil {
		t.Fatalf("BuildGroupPlan: %v", err)
	}
	return plan
}

func TestBuildGroupPlan_CoversTargets(t *testing.T) {
	plan := mustPlan(t, everyday, PatientConstraints{Goal: GoalMaintain})
	if len(plan.Entries) != 8 {
		t.Fatalf("expected 8 entries, got %d", len(plan.Entries))
	}
	want := map[groupcode.GroupCode]float64{
		groupcode.Vegetable: 6,
		groupcode.Fruit:     3,
		groupcode.Legume:    1,
		groupcode.Sugar:     1,
		groupcode.Carb:      8.5,
		groupcode.Protein:   5.5,
		groupcode.Milk:      1.5,
		groupcode.Fat:       6.5,
	}
	for _, e := range plan.Entries {
		if math.Mod(e.Exchanges, ExchangeStep) != 0 || e.Exchanges < 0 {
			t.Fatalf("entry %s has off-grid exchanges %v", e.Code, e.Exchanges)
		}
		if e.Exchanges != want[e.Code] {
			t.Fatalf("%s: got %v exchanges, want %v", e.Code, e.Exchanges, want[e.Code])
		}
	}
	got := plan.Totals()
	if math.Abs(got.CarbsG-everyday.CarbsG) > 10 || math.Abs(got.ProteinG-everyday.ProteinG) > 5 || math.Abs(got.FatG-everyday.FatG) > 5 {
		t.Fatalf("totals drifted from targets: %+v", got)
	}
	for i := 1; i < len(plan.Entries); i++ {
		if plan.Entries[i-1].BucketID >= plan.Entries[i].BucketID {
			t.Fatalf("entries not ordered by bucket id")
		}
	}
}

func TestBuildGroupPlan_DiabetesForcesSugarToZero(t *testing.T) {
	for _, c := range []PatientConstraints{
		{HasDiabetes: true},
		{HasDiabetes: true, Goal: GoalLoseFat, Likes: []string{"chocolate", "postres"}},
		{HasDiabetes: true, Goal: GoalGainMuscle, Likes: []string{"pan dulce"}},
	} {
		plan := mustPlan(t, everyday, c)
		if got := plan.Exchanges(groupcode.Sugar); got != 0 {
			t.Fatalf("constraints %+v: sugar = %v, want 0", c, got)
		}
		if !plan.Has(groupcode.Sugar) {
			t.Fatalf("sugar entry should still be listed")
		}
	}
}

func TestBuildGroupPlan_DiabetesMovesSugarCarbsToCarbGroup(t *testing.T) {
	base := mustPlan(t, everyday, PatientConstraints{})
	diab := mustPlan(t, everyday, PatientConstraints{HasDiabetes: true})
	if diab.Exchanges(groupcode.Carb) <= base.Exchanges(groupcode.Carb) {
		t.Fatalf("carb group should absorb the sugar carbohydrate: base %v diabetes %v",
			base.Exchanges(groupcode.Carb), diab.Exchanges(groupcode.Carb))
	}
	if math.Abs(diab.Totals().CarbsG-everyday.CarbsG) > 10 {
		t.Fatalf("carbohydrate target no longer covered: %v", diab.Totals().CarbsG)
	}
}

func TestBuildGroupPlan_LoseFatSugarPolicy(t *testing.T) {
	withSweet := mustPlan(t, everyday, PatientConstraints{Goal: GoalLoseFat, Likes: []string{"pollo", "Chocolate amargo"}})
	if got := withSweet.Exchanges(groupcode.Sugar); got < SugarPreferenceFloor {
		t.Fatalf("sweet preference: sugar = %v, want >= 0.5", got)
	}
	without := mustPlan(t, everyday, PatientConstraints{Goal: GoalLoseFat, Likes: []string{"pollo"}})
	if got := without.Exchanges(groupcode.Sugar); got != 0 {
		t.Fatalf("no sweet preference: sugar = %v, want 0", got)
	}
}

func TestBuildGroupPlan_SweetFloorLiftsSmallAllocation(t *testing.T) {
	plan := mustPlan(t, EnergyTargets{CarbsG: 30, ProteinG: 90, FatG: 60}, PatientConstraints{Goal: GoalLoseFat, Likes: []string{"helado"}})
	if got := plan.Exchanges(groupcode.Sugar); got != SugarPreferenceFloor {
		t.Fatalf("sugar = %v, want the 0.5 floor", got)
	}
}

func TestBuildGroupPlan_DyslipidemiaSuppressesFatFloor(t *testing.T) {
	lean := EnergyTargets{CarbsG: 200, ProteinG: 100, FatG: 15}
	dys := mustPlan(t, lean, PatientConstraints{HasDyslipidemia: true})
	if got := dys.Exchanges(groupcode.Fat); got >= FatFloor {
		t.Fatalf("dyslipidemia: fat = %v, want the unfloored allocation below 1", got)
	}
	def := mustPlan(t, lean, PatientConstraints{})
	if got := def.Exchanges(groupcode.Fat); got < FatFloor {
		t.Fatalf("default: fat = %v, want >= 1", got)
	}
	if def.Exchanges(groupcode.Milk) != dys.Exchanges(groupcode.Milk) {
		t.Fatalf("fat floor must not touch the milk group")
	}
}

func TestBuildGroupPlan_SkipsMalformedProfiles(t *testing.T) {
	rows := standardGroups()
	rows[5].SampleSize = 0 // protein
	rows[7].FatG = 0       // fat group with no fat
	plan, err := BuildGroupPlan(everyday, rows, PatientConstraints{}, DefaultOptions())
	if err != nil {
		t.Fatalf("BuildGroupPlan: %v", err)
	}
	if plan.Has(groupcode.Protein) || plan.Has(groupcode.Fat) {
		t.Fatalf("malformed profiles must be excluded: %+v", plan.Entries)
	}
	if len(plan.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %+v", plan.Warnings)
	}
	if plan.Warnings[0].BucketID != 6 || plan.Warnings[0].Code != string(groupcode.Protein) {
		t.Fatalf("unexpected warning %+v", plan.Warnings[0])
	}
	if plan.Exchanges(groupcode.Milk) <= 0 {
		t.Fatalf("milk should cover the fat target on its own")
	}
	if got := plan.Uncovered(everyday); len(got) != 1 || got[0] != "protein" {
		t.Fatalf("Uncovered = %q, want [protein]", got)
	}
	if got := plan.Uncovered(EnergyTargets{CarbsG: 100, FatG: 20}); len(got) != 0 {
		t.Fatalf("a zero protein target needs no protein group, got %q", got)
	}
}

func TestBuildGroupPlan_NoUsableProfiles(t *testing.T) {
	rows := standardGroups()
	for i := range rows {
		rows[i].SampleSize = 0
	}
	_, err := BuildGroupPlan(everyday, rows, PatientConstraints{}, DefaultOptions())
	if !errors.Is(err, exchange.ErrDataIntegrity) {
		t.Fatalf("expected data integrity error, got %v", err)
	}
	var die *exchange.DataIntegrityError
	if !errors.As(err, &die) || die.SystemID != "smae_mx" || die.Version != "v1" {
		t.Fatalf("expected system and version on the error, got %#v", err)
	}
	if _, err := BuildGroupPlan(everyday, nil, PatientConstraints{}, DefaultOptions()); !errors.Is(err, exchange.ErrDataIntegrity) {
		t.Fatalf("expected data integrity error for empty input, got %v", err)
	}
}

func TestBuildGroupPlan_RejectsInvalidTargets(t *testing.T) {
	for _, tg := range []EnergyTargets{{CarbsG: -1}, {ProteinG: math.NaN()}, {FatG: math.Inf(1)}} {
		if _, err := BuildGroupPlan(tg, standardGroups(), PatientConstraints{}, DefaultOptions()); !errors.Is(err, exchange.ErrInvalidTargets) {
			t.Fatalf("targets %+v: expected ErrInvalidTargets, got %v", tg, err)
		}
	}
}

func TestBuildGroupPlan_OrderIndependent(t *testing.T) {
	want := mustPlan(t, everyday, PatientConstraints{Goal: GoalLoseFat, Likes: []string{"postre"}})
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		rows := standardGroups()
		r.Shuffle(len(rows), func(a, b int) { rows[a], rows[b] = rows[b], rows[a] })
		got, err := BuildGroupPlan(everyday, rows, PatientConstraints{Goal: GoalLoseFat, Likes: []string{"postre"}}, DefaultOptions())
		if err != nil {
			t.Fatalf("BuildGroupPlan: %v", err)
		}
		for j := range want.Entries {
			if got.Entries[j] != want.Entries[j] {
				t.Fatalf("shuffle %d: entry %d = %+v, want %+v", i, j, got.Entries[j], want.Entries[j])
			}
		}
	}
}

func TestBuildGroupPlan_SplitsShareBetweenSameCode(t *testing.T) {
	rows := append(standardGroups(), profiles.ApplyCodes([]profiles.BucketProfile{
		group(9, "Cereales con grasa", 15, 2, 5, 115),
	}, nil)...)
	plan, err := BuildGroupPlan(everyday, rows, PatientConstraints{}, DefaultOptions())
	if err != nil {
		t.Fatalf("BuildGroupPlan: %v", err)
	}
	var a, b float64
	for _, e := range plan.Entries {
		switch e.BucketID {
		case 5:
			a = e.Exchanges
		case 9:
			b = e.Exchanges
		}
	}
	if a == 0 || a != b {
		t.Fatalf("profiles sharing the carb code should split evenly, got %v and %v", a, b)
	}
}

func TestRoundExchanges(t *testing.T) {
	cases := []struct {
		in, floor float64
		forced    bool
		want      float64
	}{
		{1.24, 0, false, 1},
		{1.25, 0, false, 1.5},
		{1.74, 0, false, 1.5},
		{0.2, 0.5, false, 0.5},
		{0.1, 1, false, 1},
		{3.3, 0, true, 0},
		{-0.4, 0, false, 0},
	}
	for _, tc := range cases {
		if got := roundExchanges(tc.in, tc.floor, tc.forced); got != tc.want {
			t.Fatalf("roundExchanges(%v, %v, %v) = %v, want %v", tc.in, tc.floor, tc.forced, got, tc.want)
		}
	}
}

func TestEnergyTargets(t *testing.T) {
	tg := EnergyTargets{CarbsG: 250, ProteinG: 100, FatG: 60}
	if got := tg.Calories(); got != 1940 {
		t.Fatalf("Calories() = %v, want 1940", got)
	}
	got, err := TargetsFromCalories(2000, 50, 20, 30)
	if err != nil {
		t.Fatalf("TargetsFromCalories: %v", err)
	}
	if got.CarbsG != 250 || got.ProteinG != 100 || math.Abs(got.FatG-66.6667) > 1e-3 {
		t.Fatalf("unexpected targets %+v", got)
	}
	if _, err := TargetsFromCalories(2000, 50, 20, 20); !errors.Is(err, exchange.ErrInvalidTargets) {
		t.Fatalf("percentages not adding to 100 must be rejected, got %v", err)
	}
}

func TestConditionKeys(t *testing.T) {
	got := ConditionKeys(PatientConstraints{HasDiabetes: true, HasHypertension: true, DietaryPattern: " Vegetariano ", Goal: GoalLoseFat})
	want := []string{"diabetes", "hypertension", "pattern:vegetariano", "goal:lose_fat", ""}
	if len(got) != len(want) {
		t.Fatalf("ConditionKeys = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ConditionKeys = %q, want %q", got, want)
		}
	}
	if got := ConditionKeys(PatientConstraints{}); len(got) != 1 || got[0] != "" {
		t.Fatalf("empty constraints should only match the default, got %q", got)
	}
}
