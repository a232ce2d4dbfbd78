package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/nutriplan-backend/internal/data/repos"
	types "github.com/yungbote/nutriplan-backend/internal/domain"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/catalog"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/groupcode"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/profiles"
	"github.com/yungbote/nutriplan-backend/internal/observability"
	"github.com/yungbote/nutriplan-backend/internal/pkg/dbctx"
	"github.com/yungbote/nutriplan-backend/internal/platform/logger"
)

type RebuildResult struct {
	SystemID       string    `json:"system_id"`
	ProfileVersion string    `json:"profile_version"`
	Foods          int       `json:"foods"`
	Groups         int       `json:"groups"`
	Subgroups      int       `json:"subgroups"`
	BuiltAt        time.Time `json:"built_at"`
}

type BucketProfileService interface {
	// Rebuild recomputes every bucket profile of a version from a fresh
	// catalog read and atomically replaces the stored version.
	Rebuild(ctx context.Context, systemID, profileVersion string) (*RebuildResult, error)
	// Load returns a version's profiles with codes re-derived from their names.
	Load(ctx context.Context, systemID, profileVersion string) ([]profiles.BucketProfile, error)
	LatestVersion(ctx context.Context, systemID string) (string, error)
}

type bucketProfileService struct {
	db      *gorm.DB
	log     *logger.Logger
	catalog CatalogService
	repo    repos.BucketProfileRepo
	mapper  *groupcode.Mapper
}

func NewBucketProfileService(db *gorm.DB, baseLog *logger.Logger, catalogSvc CatalogService, repo repos.BucketProfileRepo, mapper *groupcode.Mapper) BucketProfileService {
	if mapper == nil {
		mapper = groupcode.Default()
	}
	return &bucketProfileService{
		db:      db,
		log:     baseLog.With("service", "BucketProfileService"),
		catalog: catalogSvc,
		repo:    repo,
		mapper:  mapper,
	}
}

func (s *bucketProfileService) Rebuild(ctx context.Context, systemID, profileVersion string) (*RebuildResult, error) {
	systemID = strings.TrimSpace(systemID)
	profileVersion = strings.TrimSpace(profileVersion)
	if systemID == "" || profileVersion == "" {
		return nil, fmt.Errorf("%w: system id and profile version are required", ErrInvalidInput)
	}

	ctx, span := tracer.Start(ctx, "bucket_profiles.rebuild")
	defer span.End()
	span.SetAttributes(attribute.String("system_id", systemID), attribute.String("profile_version", profileVersion))
	start := time.Now()

	var (
		items     []catalog.FoodItem
		groups    []catalog.GroupMeta
		subgroups []catalog.SubgroupMeta
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := s.catalog.Refresh(gctx, systemID, catalog.Filter{})
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		items = out
		return nil
	})
	g.Go(func() error {
		gm, sm, err := s.catalog.Metadata(gctx, systemID)
		if err != nil {
			return fmt.Errorf("load catalog metadata: %w", err)
		}
		groups, subgroups = gm, sm
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, s.failRebuild(span, start, err)
	}
	if len(items) == 0 {
		return nil, s.failRebuild(span, start,
			exchange.NewDataIntegrityError(systemID, profileVersion, "catalog has no foods with usable nutrition values"))
	}

	built, err := profiles.Aggregate(profileVersion, systemID, items, groups, subgroups)
	if err != nil {
		return nil, s.failRebuild(span, start, err)
	}

	rows := make([]*types.BucketProfile, 0, len(built))
	res := &RebuildResult{SystemID: systemID, ProfileVersion: profileVersion, Foods: len(items)}
	for _, p := range built {
		rows = append(rows, &types.BucketProfile{
			ProfileVersion: p.ProfileVersion,
			SystemID:       p.SystemID,
			BucketType:     string(p.BucketType),
			BucketID:       p.BucketID,
			ParentGroupID:  p.ParentGroupID,
			DisplayName:    p.Name,
			SampleSize:     p.SampleSize,
			CarbsG:         p.CarbsG,
			ProteinG:       p.ProteinG,
			FatG:           p.FatG,
			Calories:       p.Calories,
		})
		if p.BucketType == profiles.BucketGroup {
			res.Groups++
		} else {
			res.Subgroups++
		}
	}

	if err := s.repo.ReplaceVersion(dbctx.Context{Ctx: ctx}, profileVersion, systemID, rows); err != nil {
		return nil, s.failRebuild(span, start, fmt.Errorf("store profile version: %w", err))
	}
	res.BuiltAt = time.Now().UTC()

	s.log.Info("bucket profiles rebuilt",
		"system_id", systemID,
		"profile_version", profileVersion,
		"foods", res.Foods,
		"groups", res.Groups,
		"subgroups", res.Subgroups,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if m := observability.Current(); m != nil {
		m.ObserveRebuild("ok", time.Since(start))
	}
	return res, nil
}

func (s *bucketProfileService) failRebuild(span trace.Span, start time.Time, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.log.Error("bucket profile rebuild failed", "error", err)
	if m := observability.Current(); m != nil {
		m.ObserveRebuild("error", time.Since(start))
	}
	return err
}

func (s *bucketProfileService) Load(ctx context.Context, systemID, profileVersion string) ([]profiles.BucketProfile, error) {
	systemID = strings.TrimSpace(systemID)
	profileVersion = strings.TrimSpace(profileVersion)
	if systemID == "" || profileVersion == "" {
		return nil, fmt.Errorf("%w: system id and profile version are required", ErrInvalidInput)
	}
	rows, err := s.repo.Load(dbctx.Context{Ctx: ctx}, systemID, profileVersion)
	if err != nil {
		return nil, fmt.Errorf("load bucket profiles: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: system=%s version=%s", exchange.ErrNoProfileVersion, systemID, profileVersion)
	}
	out := make([]profiles.BucketProfile, 0, len(rows))
	for _, r := range rows {
		out = append(out, profiles.BucketProfile{
			ProfileVersion: r.ProfileVersion,
			SystemID:       r.SystemID,
			BucketType:     profiles.BucketType(r.BucketType),
			BucketID:       r.BucketID,
			ParentGroupID:  r.ParentGroupID,
			Name:           r.DisplayName,
			SampleSize:     r.SampleSize,
			CarbsG:         r.CarbsG,
			ProteinG:       r.ProteinG,
			FatG:           r.FatG,
			Calories:       r.Calories,
		})
	}
	return profiles.ApplyCodes(out, s.mapper), nil
}

func (s *bucketProfileService) LatestVersion(ctx context.Context, systemID string) (string, error) {
	systemID = strings.TrimSpace(systemID)
	if systemID == "" {
		return "", fmt.Errorf("%w: missing system id", ErrInvalidInput)
	}
	v, err := s.repo.LatestVersion(dbctx.Context{Ctx: ctx}, systemID)
	if err != nil {
		return "", fmt.Errorf("latest profile version: %w", err)
	}
	if v == "" {
		return "", fmt.Errorf("%w: system=%s", exchange.ErrNoProfileVersion, systemID)
	}
	return v, nil
}
