package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/nutriplan-backend/internal/data/repos"
	types "github.com/yungbote/nutriplan-backend/internal/domain"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/allocation"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/groupcode"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/profiles"
	"github.com/yungbote/nutriplan-backend/internal/observability"
	"github.com/yungbote/nutriplan-backend/internal/pkg/dbctx"
	"github.com/yungbote/nutriplan-backend/internal/platform/logger"
)

type GeneratePlanInput struct {
	SystemID string `json:"system_id"`
	// ProfileVersion pins the plan to a version; empty means the latest complete one.
	ProfileVersion string                        `json:"profile_version,omitempty"`
	PatientRef     string                        `json:"patient_ref,omitempty"`
	Targets        allocation.EnergyTargets      `json:"targets"`
	Constraints    allocation.PatientConstraints `json:"constraints"`
}

type ExchangePlanResult struct {
	ID             *uuid.UUID                       `json:"id,omitempty"`
	SystemID       string                           `json:"system_id"`
	ProfileVersion string                           `json:"profile_version"`
	PatientRef     string                           `json:"patient_ref,omitempty"`
	Targets        allocation.EnergyTargets         `json:"targets"`
	Achieved       allocation.Macros                `json:"achieved"`
	Groups         []allocation.GroupPlanEntry      `json:"groups"`
	Subgroups      []allocation.SubgroupPlanEntry   `json:"subgroups"`
	Warnings       []exchange.MissingProfileWarning `json:"warnings,omitempty"`
	CreatedAt      time.Time                        `json:"created_at"`
}

type ExchangePlanService interface {
	Generate(ctx context.Context, in GeneratePlanInput) (*ExchangePlanResult, error)
	Get(ctx context.Context, id uuid.UUID) (*ExchangePlanResult, error)
	ListForPatient(ctx context.Context, systemID, patientRef string, limit int) ([]*ExchangePlanResult, error)
}

type ExchangePlanOptions struct {
	Persist    bool
	Allocation allocation.Options
}

type exchangePlanService struct {
	db       *gorm.DB
	log      *logger.Logger
	profiles BucketProfileService
	policies repos.SubgroupPolicyRepo
	plans    repos.ExchangePlanRepo
	mapper   *groupcode.Mapper
	opts     ExchangePlanOptions
}

func NewExchangePlanService(
	db *gorm.DB,
	baseLog *logger.Logger,
	profileSvc BucketProfileService,
	policies repos.SubgroupPolicyRepo,
	plans repos.ExchangePlanRepo,
	mapper *groupcode.Mapper,
	opts ExchangePlanOptions,
) ExchangePlanService {
	if mapper == nil {
		mapper = groupcode.Default()
	}
	if opts.Allocation.Mapper == nil {
		opts.Allocation.Mapper = mapper
	}
	return &exchangePlanService{
		db:       db,
		log:      baseLog.With("service", "ExchangePlanService"),
		profiles: profileSvc,
		policies: policies,
		plans:    plans,
		mapper:   mapper,
		opts:     opts,
	}
}

func (s *exchangePlanService) Generate(ctx context.Context, in GeneratePlanInput) (*ExchangePlanResult, error) {
	in.SystemID = strings.TrimSpace(in.SystemID)
	in.ProfileVersion = strings.TrimSpace(in.ProfileVersion)
	in.PatientRef = strings.TrimSpace(in.PatientRef)
	if in.SystemID == "" {
		return nil, fmt.Errorf("%w: missing system id", ErrInvalidInput)
	}
	if err := in.Targets.Validate(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "exchange_plan.generate")
	defer span.End()
	span.SetAttributes(attribute.String("system_id", in.SystemID))
	start := time.Now()

	fail := func(err error) (*ExchangePlanResult, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if m := observability.Current(); m != nil {
			m.ObservePlanGeneration("error", time.Since(start))
		}
		return nil, err
	}

	version := in.ProfileVersion
	if version == "" {
		v, err := s.profiles.LatestVersion(ctx, in.SystemID)
		if err != nil {
			return fail(err)
		}
		version = v
	}
	span.SetAttributes(attribute.String("profile_version", version))

	var (
		rows     []profiles.BucketProfile
		policies []allocation.SubgroupPolicy
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := s.profiles.Load(gctx, in.SystemID, version)
		if err != nil {
			return err
		}
		rows = out
		return nil
	})
	g.Go(func() error {
		out, err := s.policies.ListActive(dbctx.Context{Ctx: gctx}, in.SystemID)
		if err != nil {
			return fmt.Errorf("list subgroup policies: %w", err)
		}
		policies = toPolicies(out)
		return nil
	})
	if err := g.Wait(); err != nil {
		return fail(err)
	}

	groupRows, subgroupRows := profiles.Split(rows)
	groupPlan, err := allocation.BuildGroupPlan(in.Targets, groupRows, in.Constraints, s.opts.Allocation)
	if err != nil {
		return fail(err)
	}
	if missing := groupPlan.Uncovered(in.Targets); len(missing) > 0 {
		return fail(exchange.NewDataIntegrityError(in.SystemID, version,
			"no usable group profile covers %s", strings.Join(missing, ", ")))
	}
	subgroupPlan := allocation.BuildSubgroupPlan(groupPlan, subgroupRows, policies, in.Constraints)

	res := &ExchangePlanResult{
		SystemID:       in.SystemID,
		ProfileVersion: version,
		PatientRef:     in.PatientRef,
		Targets:        in.Targets,
		Achieved:       groupPlan.Totals(),
		Groups:         groupPlan.Entries,
		Subgroups:      subgroupPlan.Entries,
		CreatedAt:      time.Now().UTC(),
	}
	res.Warnings = append(res.Warnings, groupPlan.Warnings...)
	res.Warnings = append(res.Warnings, subgroupPlan.Warnings...)
	if res.Groups == nil {
		res.Groups = []allocation.GroupPlanEntry{}
	}
	if res.Subgroups == nil {
		res.Subgroups = []allocation.SubgroupPlanEntry{}
	}

	m := observability.Current()
	for _, w := range res.Warnings {
		s.log.Warn("exchange plan warning",
			"system_id", in.SystemID,
			"profile_version", version,
			"bucket_type", w.BucketType,
			"bucket_id", w.BucketID,
			"code", w.Code,
			"reason", w.Reason,
		)
		if m != nil {
			m.IncMissingProfile(w.BucketType)
		}
	}

	if s.opts.Persist {
		row, err := toPlanRow(res, in.Constraints)
		if err != nil {
			return fail(err)
		}
		if err := s.plans.Create(dbctx.Context{Ctx: ctx}, row); err != nil {
			return fail(fmt.Errorf("store exchange plan: %w", err))
		}
		id := row.ID
		res.ID = &id
		res.CreatedAt = row.CreatedAt
	}

	s.log.Info("exchange plan generated",
		"system_id", in.SystemID,
		"profile_version", version,
		"patient_ref", in.PatientRef,
		"groups", len(res.Groups),
		"subgroups", len(res.Subgroups),
		"warnings", len(res.Warnings),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if m != nil {
		m.ObservePlanGeneration("ok", time.Since(start))
	}
	return res, nil
}

func (s *exchangePlanService) Get(ctx context.Context, id uuid.UUID) (*ExchangePlanResult, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: missing plan id", ErrInvalidInput)
	}
	row, err := s.plans.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, fmt.Errorf("load exchange plan: %w", err)
	}
	if row == nil {
		return nil, fmt.Errorf("%w: exchange plan %s", ErrNotFound, id)
	}
	return fromPlanRow(row)
}

func (s *exchangePlanService) ListForPatient(ctx context.Context, systemID, patientRef string, limit int) ([]*ExchangePlanResult, error) {
	patientRef = strings.TrimSpace(patientRef)
	if patientRef == "" {
		return nil, fmt.Errorf("%w: missing patient ref", ErrInvalidInput)
	}
	rows, err := s.plans.ListByPatientRef(dbctx.Context{Ctx: ctx}, strings.TrimSpace(systemID), patientRef, limit)
	if err != nil {
		return nil, fmt.Errorf("list exchange plans: %w", err)
	}
	out := make([]*ExchangePlanResult, 0, len(rows))
	for _, r := range rows {
		res, err := fromPlanRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

func toPolicies(rows []*types.SubgroupPolicy) []allocation.SubgroupPolicy {
	out := make([]allocation.SubgroupPolicy, 0, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		out = append(out, allocation.SubgroupPolicy{
			ID:              r.ID,
			ParentGroupID:   r.ParentGroupID,
			SubgroupID:      r.SubgroupID,
			Condition:       r.Condition,
			TargetSharePct:  r.TargetSharePct,
			ScoreAdjustment: r.ScoreAdjustment,
			Active:          r.Active,
		})
	}
	return out
}

func toPlanRow(res *ExchangePlanResult, c allocation.PatientConstraints) (*types.ExchangePlan, error) {
	row := &types.ExchangePlan{
		ID:             uuid.New(),
		SystemID:       res.SystemID,
		ProfileVersion: res.ProfileVersion,
		PatientRef:     res.PatientRef,
		CreatedAt:      res.CreatedAt,
	}
	fields := []struct {
		dst *datatypes.JSON
		v   any
	}{
		{&row.Targets, res.Targets},
		{&row.Constraints, c},
		{&row.Groups, res.Groups},
		{&row.Subgroups, res.Subgroups},
		{&row.Warnings, res.Warnings},
	}
	for _, f := range fields {
		b, err := json.Marshal(f.v)
		if err != nil {
			return nil, fmt.Errorf("encode exchange plan: %w", err)
		}
		*f.dst = datatypes.JSON(b)
	}
	return row, nil
}

func fromPlanRow(row *types.ExchangePlan) (*ExchangePlanResult, error) {
	id := row.ID
	res := &ExchangePlanResult{
		ID:             &id,
		SystemID:       row.SystemID,
		ProfileVersion: row.ProfileVersion,
		PatientRef:     row.PatientRef,
		CreatedAt:      row.CreatedAt,
	}
	fields := []struct {
		src datatypes.JSON
		dst any
	}{
		{row.Targets, &res.Targets},
		{row.Groups, &res.Groups},
		{row.Subgroups, &res.Subgroups},
		{row.Warnings, &res.Warnings},
	}
	for _, f := range fields {
		if len(f.src) == 0 || string(f.src) == "null" {
			continue
		}
		if err := json.Unmarshal(f.src, f.dst); err != nil {
			return nil, fmt.Errorf("decode exchange plan %s: %w", row.ID, err)
		}
	}
	plan := allocation.GroupPlan{Entries: res.Groups}
	res.Achieved = plan.Totals()
	if res.Groups == nil {
		res.Groups = []allocation.GroupPlanEntry{}
	}
	if res.Subgroups == nil {
		res.Subgroups = []allocation.SubgroupPlanEntry{}
	}
	return res, nil
}
