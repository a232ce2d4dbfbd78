package catalog

import (
	"testing"

	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/canonical"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/groupcode"
)

func i64(v int64) *int64 { return &v }

func TestAssemble_ClassifiesAndDropsUnresolved(t *testing.T) {
	rows := []FoodRow{
		{ID: 3, Name: "Pechuga de pollo", GroupID: 10, GroupName: "Alimentos de origen animal", SubgroupID: i64(101), SubgroupName: "Muy bajo aporte de grasa"},
		{ID: 1, Name: "Tortilla", GroupID: 20, GroupName: "Cereales y tubérculos", SubgroupID: i64(201), SubgroupName: "Sin grasa", Tags: []string{"Básico", "basico", " "}},
		{ID: 2, Name: "Unknown", GroupID: 20, GroupName: "Cereales y tubérculos"},
	}
	values := map[int64]canonical.Value{
		1: {ID: 11, FoodID: 1, Calories: 70, ProteinG: 2, CarbsG: 15, FatG: 0.5, ServingQty: 30, ServingUnit: "g"},
		3: {ID: 33, FoodID: 3, Calories: 40, ProteinG: 7, CarbsG: 0, FatG: 1},
	}

	items, stats := Assemble(rows, values, groupcode.Default())
	if len(items) != 2 || stats.NoCanonical != 1 || stats.Resolved != 2 {
		t.Fatalf("unexpected result: items=%d stats=%+v", len(items), stats)
	}
	if items[0].ID != 1 || items[1].ID != 3 {
		t.Fatalf("items must be ordered by id: %+v", items)
	}
	if items[0].GroupCode != groupcode.Carb || items[0].SubgroupCode != groupcode.CarbNoFat {
		t.Fatalf("unexpected codes for tortilla: %q/%q", items[0].GroupCode, items[0].SubgroupCode)
	}
	if items[1].GroupCode != groupcode.Protein || items[1].SubgroupCode != groupcode.ProteinVeryLowFat {
		t.Fatalf("unexpected codes for chicken: %q/%q", items[1].GroupCode, items[1].SubgroupCode)
	}
	if len(items[0].Tags) != 1 || items[0].Tags[0] != "basico" {
		t.Fatalf("tags should be normalised and deduplicated: %#v", items[0].Tags)
	}
	if items[0].CarbsG != 15 || items[0].ServingUnit != "g" {
		t.Fatalf("canonical macros not applied: %+v", items[0])
	}
}

func TestAssemble_OverridesWin(t *testing.T) {
	rows := []FoodRow{{
		ID: 1, GroupID: 1, GroupName: "Misc", GroupCodeOverride: "legume",
		SubgroupID: i64(5), SubgroupName: "whatever", SubgroupCodeOverride: "legume_custom",
	}}
	values := map[int64]canonical.Value{1: {FoodID: 1}}
	items, stats := Assemble(rows, values, nil)
	if items[0].GroupCode != groupcode.Legume || items[0].SubgroupCode != "legume_custom" || stats.GroupOverrides != 1 {
		t.Fatalf("override not applied: %+v", items[0])
	}

	rows[0].GroupCodeOverride = "not-a-code"
	items, _ = Assemble(rows, values, nil)
	if items[0].GroupCode != groupcode.Carb {
		t.Fatalf("invalid override must fall back to inference, got %q", items[0].GroupCode)
	}
}
