package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/nutriplan-backend/internal/data/repos/testutil"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/allocation"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/groupcode"
)

func TestExchangePlanService_GenerateAndGet(t *testing.T) {
	db := testutil.DB(t)
	seeded := seedExchangeSystem(t, db, "smae_mx")
	ctx := context.Background()
	testutil.SeedPolicy(t, ctx, db, "smae_mx", seeded.protein, seeded.veryLowFat, "", 60)
	testutil.SeedPolicy(t, ctx, db, "smae_mx", seeded.protein, seeded.lowFat, "", 40)

	svc := newTestServices(t, db, true)
	if _, err := svc.profiles.Rebuild(ctx, "smae_mx", "v1"); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	in := GeneratePlanInput{
		SystemID:    "smae_mx",
		PatientRef:  "patient-1",
		Targets:     allocation.EnergyTargets{CarbsG: 250, ProteinG: 90, FatG: 60},
		Constraints: allocation.PatientConstraints{HasDiabetes: true},
	}
	plan, err := svc.plans.Generate(ctx, in)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if plan.ID == nil || plan.ProfileVersion != "v1" {
		t.Fatalf("expected persisted plan pinned to v1, got id=%v version=%q", plan.ID, plan.ProfileVersion)
	}
	if len(plan.Groups) != seeded.groupsSeeded {
		t.Fatalf("expected %d groups, got %d", seeded.groupsSeeded, len(plan.Groups))
	}

	var proteinTotal float64
	for _, g := range plan.Groups {
		if math.Mod(g.Exchanges*2, 1) != 0 {
			t.Fatalf("group %s has off-grid count %v", g.Name, g.Exchanges)
		}
		if g.Code == groupcode.Sugar && g.Exchanges != 0 {
			t.Fatalf("diabetes must zero the sugar group, got %v", g.Exchanges)
		}
		if g.Code == groupcode.Protein {
			proteinTotal = g.Exchanges
		}
	}
	if proteinTotal <= 0 {
		t.Fatalf("expected protein exchanges")
	}
	if len(plan.Subgroups) != 2 {
		t.Fatalf("expected 2 subgroup entries, got %d", len(plan.Subgroups))
	}
	var subTotal float64
	for _, sg := range plan.Subgroups {
		subTotal += sg.Exchanges
	}
	if subTotal != proteinTotal {
		t.Fatalf("subgroups add up to %v, parent has %v", subTotal, proteinTotal)
	}
	if plan.Achieved.ProteinG <= 0 || plan.Achieved.Calories <= 0 {
		t.Fatalf("expected achieved totals, got %+v", plan.Achieved)
	}

	got, err := svc.plans.Get(ctx, *plan.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ProfileVersion != "v1" || len(got.Groups) != len(plan.Groups) || len(got.Subgroups) != 2 {
		t.Fatalf("stored plan does not match generated one: %+v", got)
	}
	if got.Achieved.ProteinG != plan.Achieved.ProteinG {
		t.Fatalf("achieved protein %v, want %v", got.Achieved.ProteinG, plan.Achieved.ProteinG)
	}

	list, err := svc.plans.ListForPatient(ctx, "smae_mx", "patient-1", 10)
	if err != nil || len(list) != 1 || *list[0].ID != *plan.ID {
		t.Fatalf("ListForPatient: %v len=%d", err, len(list))
	}
}

func TestExchangePlanService_PinnedVersionIsStable(t *testing.T) {
	db := testutil.DB(t)
	seedExchangeSystem(t, db, "smae_mx")
	svc := newTestServices(t, db, false)
	ctx := context.Background()
	if _, err := svc.profiles.Rebuild(ctx, "smae_mx", "v1"); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	in := GeneratePlanInput{
		SystemID:       "smae_mx",
		ProfileVersion: "v1",
		Targets:        allocation.EnergyTargets{CarbsG: 200, ProteinG: 80, FatG: 50},
	}
	first, err := svc.plans.Generate(ctx, in)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if first.ID != nil {
		t.Fatalf("plans must not be stored when persistence is off")
	}
	second, err := svc.plans.Generate(ctx, in)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for i := range first.Groups {
		if first.Groups[i] != second.Groups[i] {
			t.Fatalf("entry %d differs between runs: %+v vs %+v", i, first.Groups[i], second.Groups[i])
		}
	}
}

func TestExchangePlanService_MissingProteinGroupAborts(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	testutil.SeedSystem(t, ctx, db, "veg")
	g := testutil.SeedGroup(t, ctx, db, "veg", "Verduras")
	f := testutil.SeedFood(t, ctx, db, "veg", g.ID, nil, "Calabaza")
	testutil.SeedNutritionValue(t, ctx, db, f.ID, nil, 4, 2, 0, 25)

	svc := newTestServices(t, db, false)
	if _, err := svc.profiles.Rebuild(ctx, "veg", "v1"); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	_, err := svc.plans.Generate(ctx, GeneratePlanInput{
		SystemID: "veg",
		Targets:  allocation.EnergyTargets{CarbsG: 100, ProteinG: 50, FatG: 30},
	})
	var die *exchange.DataIntegrityError
	if !errors.As(err, &die) {
		t.Fatalf("expected data integrity error, got %v", err)
	}
	if die.SystemID != "veg" || die.Version != "v1" {
		t.Fatalf("unexpected error identity %+v", die)
	}
}

func TestExchangePlanService_Errors(t *testing.T) {
	db := testutil.DB(t)
	testutil.SeedSystem(t, context.Background(), db, "smae_mx")
	svc := newTestServices(t, db, true)
	ctx := context.Background()

	_, err := svc.plans.Generate(ctx, GeneratePlanInput{SystemID: "smae_mx", Targets: allocation.EnergyTargets{CarbsG: 10}})
	if !errors.Is(err, exchange.ErrNoProfileVersion) {
		t.Fatalf("expected no profile version, got %v", err)
	}
	_, err = svc.plans.Generate(ctx, GeneratePlanInput{SystemID: "smae_mx", Targets: allocation.EnergyTargets{CarbsG: -1}})
	if !errors.Is(err, exchange.ErrInvalidTargets) {
		t.Fatalf("expected invalid targets, got %v", err)
	}
	if _, err := svc.plans.Generate(ctx, GeneratePlanInput{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := svc.plans.Get(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
