package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/nutriplan-backend/internal/data/repos"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/canonical"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/catalog"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/groupcode"
	"github.com/yungbote/nutriplan-backend/internal/observability"
	"github.com/yungbote/nutriplan-backend/internal/pkg/dbctx"
	"github.com/yungbote/nutriplan-backend/internal/platform/logger"
	"github.com/yungbote/nutriplan-backend/internal/platform/ttlcache"
)

var tracer = otel.Tracer("nutriplan/services")

// CatalogService resolves a system's food catalog: canonical macros per food
// plus semantic group and subgroup codes.
type CatalogService interface {
	// Catalog serves from the cache when it can.
	Catalog(ctx context.Context, systemID string, f catalog.Filter) ([]catalog.FoodItem, error)
	// Refresh always re-reads storage and replaces the cached snapshot.
	Refresh(ctx context.Context, systemID string, f catalog.Filter) ([]catalog.FoodItem, error)
	Metadata(ctx context.Context, systemID string) ([]catalog.GroupMeta, []catalog.SubgroupMeta, error)
}

type catalogService struct {
	db     *gorm.DB
	log    *logger.Logger
	repo   repos.CatalogRepo
	cache  catalog.Cache
	mapper *groupcode.Mapper
	clock  ttlcache.Clock
}

func NewCatalogService(db *gorm.DB, baseLog *logger.Logger, repo repos.CatalogRepo, cache catalog.Cache, mapper *groupcode.Mapper, clock ttlcache.Clock) CatalogService {
	if cache == nil {
		cache = catalog.NoopCache()
	}
	if mapper == nil {
		mapper = groupcode.Default()
	}
	if clock == nil {
		clock = ttlcache.SystemClock
	}
	return &catalogService{
		db:     db,
		log:    baseLog.With("service", "CatalogService"),
		repo:   repo,
		cache:  cache,
		mapper: mapper,
		clock:  clock,
	}
}

func (s *catalogService) Catalog(ctx context.Context, systemID string, f catalog.Filter) ([]catalog.FoodItem, error) {
	key := catalog.NewKey(systemID, f)
	if key.SystemID == "" {
		return nil, fmt.Errorf("%w: missing system id", ErrInvalidInput)
	}
	if items, ok := s.cache.Get(ctx, key); ok {
		if m := observability.Current(); m != nil {
			m.IncCatalogCache("hit")
		}
		return items, nil
	}
	if m := observability.Current(); m != nil {
		m.IncCatalogCache("miss")
	}
	return s.load(ctx, key)
}

func (s *catalogService) Refresh(ctx context.Context, systemID string, f catalog.Filter) ([]catalog.FoodItem, error) {
	key := catalog.NewKey(systemID, f)
	if key.SystemID == "" {
		return nil, fmt.Errorf("%w: missing system id", ErrInvalidInput)
	}
	return s.load(ctx, key)
}

func (s *catalogService) load(ctx context.Context, key catalog.Key) ([]catalog.FoodItem, error) {
	ctx, span := tracer.Start(ctx, "catalog.load")
	defer span.End()
	span.SetAttributes(attribute.String("system_id", key.SystemID), attribute.String("country", key.CountryCode))

	start := time.Now()
	filter := repos.CatalogFilter{CountryCode: key.CountryCode, StateCode: key.StateCode}

	var (
		foods []repos.FoodRow
		cands []repos.CandidateRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.repo.ListFoods(dbctx.Context{Ctx: gctx}, key.SystemID, filter)
		if err != nil {
			return fmt.Errorf("list foods: %w", err)
		}
		foods = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.repo.ListCandidates(dbctx.Context{Ctx: gctx}, key.SystemID, filter)
		if err != nil {
			return fmt.Errorf("list nutrition values: %w", err)
		}
		cands = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		observeCatalogLoad("error", start)
		span.RecordError(err)
		return nil, err
	}

	candidates, priority := toCandidates(cands)
	values := canonical.ResolveAll(candidates, priority)
	rows, malformedTags := toFoodRows(foods, s.log)
	items, stats := catalog.Assemble(rows, values, s.mapper)

	s.log.Debug("catalog resolved",
		"system_id", key.SystemID,
		"country", key.CountryCode,
		"state", key.StateCode,
		"foods", stats.Foods,
		"resolved", stats.Resolved,
		"no_canonical", stats.NoCanonical,
		"group_overrides", stats.GroupOverrides,
	)
	span.SetAttributes(attribute.Int("foods", stats.Foods), attribute.Int("resolved", stats.Resolved))
	observability.ReportCatalogQuality(ctx, s.log, key.SystemID, map[string]int{
		observability.IssueNoCanonicalValue: stats.NoCanonical,
		observability.IssueMalformedTags:    malformedTags,
		observability.IssueCodeOverride:     stats.GroupOverrides,
	})

	s.cache.Put(ctx, key, items, s.clock.Now())
	observeCatalogLoad("ok", start)
	return items, nil
}

func (s *catalogService) Metadata(ctx context.Context, systemID string) ([]catalog.GroupMeta, []catalog.SubgroupMeta, error) {
	systemID = strings.TrimSpace(systemID)
	if systemID == "" {
		return nil, nil, fmt.Errorf("%w: missing system id", ErrInvalidInput)
	}
	dbc := dbctx.Context{Ctx: ctx}
	groups, err := s.repo.ListGroups(dbc, systemID)
	if err != nil {
		return nil, nil, fmt.Errorf("list groups: %w", err)
	}
	subgroups, err := s.repo.ListSubgroups(dbc, systemID)
	if err != nil {
		return nil, nil, fmt.Errorf("list subgroups: %w", err)
	}
	gm := make([]catalog.GroupMeta, 0, len(groups))
	for _, g := range groups {
		gm = append(gm, catalog.GroupMeta{ID: g.ID, Name: g.Name})
	}
	sm := make([]catalog.SubgroupMeta, 0, len(subgroups))
	for _, sg := range subgroups {
		sm = append(sm, catalog.SubgroupMeta{ID: sg.ID, GroupID: sg.GroupID, Name: sg.Name})
	}
	return gm, sm, nil
}

func toCandidates(rows []repos.CandidateRow) ([]canonical.Candidate, canonical.Priority) {
	out := make([]canonical.Candidate, 0, len(rows))
	ranked := make([]canonical.RankedSource, 0, len(rows))
	for _, r := range rows {
		out = append(out, canonical.Candidate{
			ID:           r.ID,
			FoodID:       r.FoodID,
			DataSourceID: r.DataSourceID,
			State:        r.State,
			Calories:     r.Calories,
			ProteinG:     r.ProteinG,
			CarbsG:       r.CarbsG,
			FatG:         r.FatG,
			ServingQty:   r.ServingQty,
			ServingUnit:  r.ServingUnit,
		})
		if r.DataSourceID != nil && r.PriorityRank != nil {
			ranked = append(ranked, canonical.RankedSource{DataSourceID: *r.DataSourceID, Rank: *r.PriorityRank})
		}
	}
	return out, canonical.PriorityFromRows(ranked)
}

func toFoodRows(rows []repos.FoodRow, log *logger.Logger) ([]catalog.FoodRow, int) {
	out := make([]catalog.FoodRow, 0, len(rows))
	malformed := 0
	for _, r := range rows {
		row := catalog.FoodRow{
			ID:         r.ID,
			SystemID:   r.SystemID,
			Name:       r.Name,
			GroupID:    r.GroupID,
			GroupName:  r.GroupName,
			SubgroupID: r.SubgroupID,
			GeoWeight:  r.GeoWeight,
		}
		if r.SubgroupName != nil {
			row.SubgroupName = *r.SubgroupName
		}
		if r.GroupCodeOverride != nil {
			row.GroupCodeOverride = *r.GroupCodeOverride
		}
		if r.SubgroupCodeOverride != nil {
			row.SubgroupCodeOverride = *r.SubgroupCodeOverride
		}
		if len(r.Tags) > 0 {
			if err := json.Unmarshal(r.Tags, &row.Tags); err != nil {
				log.Warn("ignoring malformed food tags", "food_id", r.ID, "error", err)
				row.Tags = nil
				malformed++
			}
		}
		out = append(out, row)
	}
	return out, malformed
}

func observeCatalogLoad(status string, start time.Time) {
	if m := observability.Current(); m != nil {
		m.ObserveCatalogLoad(status, time.Since(start))
	}
}
