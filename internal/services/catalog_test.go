package services

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/nutriplan-backend/internal/data/repos"
	"github.com/yungbote/nutriplan-backend/internal/data/repos/testutil"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/catalog"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/groupcode"
	"github.com/yungbote/nutriplan-backend/internal/platform/ttlcache"
)

func TestCatalogService_ResolvesAndCaches(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	testutil.SeedSystem(t, ctx, db, "smae_mx")
	smae := testutil.SeedDataSource(t, ctx, db, "SMAE")
	usda := testutil.SeedDataSource(t, ctx, db, "USDA")
	testutil.SeedSourcePriority(t, ctx, db, "smae_mx", smae.ID, 1)
	testutil.SeedSourcePriority(t, ctx, db, "smae_mx", usda.ID, 2)
	fruit := testutil.SeedGroup(t, ctx, db, "smae_mx", "Frutas")
	apple := testutil.SeedFood(t, ctx, db, "smae_mx", fruit.ID, nil, "Manzana", "Dulce")
	testutil.SeedNutritionValue(t, ctx, db, apple.ID, &usda.ID, 14, 0.3, 0.2, 57)
	testutil.SeedNutritionValue(t, ctx, db, apple.ID, &smae.ID, 15, 0, 0, 60)
	testutil.SeedFood(t, ctx, db, "smae_mx", fruit.ID, nil, "Sin datos")

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := ttlcache.ClockFunc(func() time.Time { return now })
	log := testutil.Logger(t)
	svc := NewCatalogService(db, log, repos.NewCatalogRepo(db, log), catalog.NewMemoryCache(time.Minute, clock), nil, clock)

	items, err := svc.Catalog(ctx, "smae_mx", catalog.Filter{})
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("foods without a canonical value must be excluded, got %d items", len(items))
	}
	it := items[0]
	if it.CarbsG != 15 || it.DataSourceID == nil || *it.DataSourceID != smae.ID {
		t.Fatalf("expected the SMAE value to win, got %+v", it)
	}
	if it.GroupCode != groupcode.Fruit || len(it.Tags) != 1 {
		t.Fatalf("unexpected classification %+v", it)
	}

	// A new food is invisible until the snapshot expires or is refreshed.
	pear := testutil.SeedFood(t, ctx, db, "smae_mx", fruit.ID, nil, "Pera")
	testutil.SeedNutritionValue(t, ctx, db, pear.ID, &smae.ID, 15, 0, 0, 60)
	items, _ = svc.Catalog(ctx, "smae_mx", catalog.Filter{})
	if len(items) != 1 {
		t.Fatalf("expected cached snapshot, got %d items", len(items))
	}
	items, err = svc.Refresh(ctx, "smae_mx", catalog.Filter{})
	if err != nil || len(items) != 2 {
		t.Fatalf("Refresh: err=%v len=%d", err, len(items))
	}
	now = now.Add(2 * time.Minute)
	items, _ = svc.Catalog(ctx, "smae_mx", catalog.Filter{})
	if len(items) != 2 {
		t.Fatalf("expected reload after expiry, got %d items", len(items))
	}
}

func TestCatalogService_Metadata(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	testutil.SeedSystem(t, ctx, db, "smae_mx")
	g := testutil.SeedGroup(t, ctx, db, "smae_mx", "Leche")
	testutil.SeedSubgroup(t, ctx, db, "smae_mx", g.ID, "Leche descremada")

	svc := newTestServices(t, db, false)
	groups, subgroups, err := svc.catalog.Metadata(ctx, "smae_mx")
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if len(groups) != 1 || groups[0].Name != "Leche" || len(subgroups) != 1 || subgroups[0].GroupID != g.ID {
		t.Fatalf("unexpected metadata %+v %+v", groups, subgroups)
	}
	if _, _, err := svc.catalog.Metadata(ctx, ""); err == nil {
		t.Fatalf("expected error for blank system id")
	}
}
