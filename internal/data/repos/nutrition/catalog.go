package nutrition

import (
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/nutriplan-backend/internal/domain"
	"github.com/yungbote/nutriplan-backend/internal/pkg/dbctx"
	"github.com/yungbote/nutriplan-backend/internal/platform/logger"
)

// CatalogFilter narrows catalog reads geographically. Foods with no country
// (or state) recorded are available everywhere.
type CatalogFilter struct {
	CountryCode string
	StateCode   string
}

// FoodRow is a food joined with its group and subgroup names.
type FoodRow struct {
	ID                   int64          `gorm:"column:id"`
	SystemID             string         `gorm:"column:system_id"`
	Name                 string         `gorm:"column:name"`
	GroupID              int64          `gorm:"column:group_id"`
	GroupName            string         `gorm:"column:group_name"`
	SubgroupID           *int64         `gorm:"column:subgroup_id"`
	SubgroupName         *string        `gorm:"column:subgroup_name"`
	GroupCodeOverride    *string        `gorm:"column:group_code_override"`
	SubgroupCodeOverride *string        `gorm:"column:subgroup_code_override"`
	GeoWeight            *float64       `gorm:"column:geo_weight"`
	Tags                 datatypes.JSON `gorm:"column:tags"`
}

// CandidateRow is one nutrition value with the priority its source holds in
// the food's system. PriorityRank is nil for unranked sources.
type CandidateRow struct {
	ID           int64    `gorm:"column:id"`
	FoodID       int64    `gorm:"column:food_id"`
	DataSourceID *int64   `gorm:"column:data_source_id"`
	State        string   `gorm:"column:state"`
	Calories     *float64 `gorm:"column:calories"`
	ProteinG     *float64 `gorm:"column:protein_g"`
	CarbsG       *float64 `gorm:"column:carbs_g"`
	FatG         *float64 `gorm:"column:fat_g"`
	ServingQty   float64  `gorm:"column:serving_qty"`
	ServingUnit  string   `gorm:"column:serving_unit"`
	PriorityRank *int     `gorm:"column:priority_rank"`
}

type CatalogRepo interface {
	ListFoods(dbc dbctx.Context, systemID string, f CatalogFilter) ([]FoodRow, error)
	ListCandidates(dbc dbctx.Context, systemID string, f CatalogFilter) ([]CandidateRow, error)
	ListGroups(dbc dbctx.Context, systemID string) ([]*types.FoodGroup, error)
	ListSubgroups(dbc dbctx.Context, systemID string) ([]*types.FoodSubgroup, error)
	GetSystem(dbc dbctx.Context, systemID string) (*types.System, error)
	ListActiveSystems(dbc dbctx.Context) ([]*types.System, error)
}

type catalogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCatalogRepo(db *gorm.DB, baseLog *logger.Logger) CatalogRepo {
	return &catalogRepo{db: db, log: baseLog.With("repo", "CatalogRepo")}
}

func scopeFoods(q *gorm.DB, systemID string, f CatalogFilter) *gorm.DB {
	q = q.Where("f.system_id = ? AND f.active = ?", systemID, true)
	if cc := strings.ToUpper(strings.TrimSpace(f.CountryCode)); cc != "" {
		q = q.Where("(f.country_code = ? OR f.country_code = '' OR f.country_code IS NULL)", cc)
	}
	if st := strings.ToUpper(strings.TrimSpace(f.StateCode)); st != "" {
		q = q.Where("(f.state_code = ? OR f.state_code = '' OR f.state_code IS NULL)", st)
	}
	return q
}

func (r *catalogRepo) ListFoods(dbc dbctx.Context, systemID string, f CatalogFilter) ([]FoodRow, error) {
	t := dbc.Conn(r.db)
	var out []FoodRow
	systemID = strings.TrimSpace(systemID)
	if systemID == "" {
		return out, nil
	}
	q := t.
		Table("food AS f").
		Select(`f.id, f.system_id, f.name, f.group_id, g.name AS group_name,
			f.subgroup_id, s.name AS subgroup_name,
			f.group_code_override, f.subgroup_code_override, f.geo_weight, f.tags`).
		Joins("JOIN food_group g ON g.id = f.group_id").
		Joins("LEFT JOIN food_subgroup s ON s.id = f.subgroup_id")
	if err := scopeFoods(q, systemID, f).Order("f.id ASC").Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListCandidates fetches every nutrition value for the scoped foods in one
// query, with the source rank joined in.
func (r *catalogRepo) ListCandidates(dbc dbctx.Context, systemID string, f CatalogFilter) ([]CandidateRow, error) {
	t := dbc.Conn(r.db)
	var out []CandidateRow
	systemID = strings.TrimSpace(systemID)
	if systemID == "" {
		return out, nil
	}
	q := t.
		Table("food_nutrition_value AS v").
		Select(`v.id, v.food_id, v.data_source_id, v.state,
			v.calories, v.protein_g, v.carbs_g, v.fat_g, v.serving_qty, v.serving_unit,
			p.priority_rank`).
		Joins("JOIN food f ON f.id = v.food_id").
		Joins("LEFT JOIN data_source_priority p ON p.data_source_id = v.data_source_id AND p.system_id = f.system_id")
	if err := scopeFoods(q, systemID, f).Order("v.food_id ASC, v.id ASC").Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *catalogRepo) ListGroups(dbc dbctx.Context, systemID string) ([]*types.FoodGroup, error) {
	t := dbc.Conn(r.db)
	var out []*types.FoodGroup
	if err := t.
		Where("system_id = ?", strings.TrimSpace(systemID)).
		Order("sort_order ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *catalogRepo) ListSubgroups(dbc dbctx.Context, systemID string) ([]*types.FoodSubgroup, error) {
	t := dbc.Conn(r.db)
	var out []*types.FoodSubgroup
	if err := t.
		Where("system_id = ?", strings.TrimSpace(systemID)).
		Order("group_id ASC, sort_order ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *catalogRepo) GetSystem(dbc dbctx.Context, systemID string) (*types.System, error) {
	t := dbc.Conn(r.db)
	systemID = strings.TrimSpace(systemID)
	if systemID == "" {
		return nil, nil
	}
	row := &types.System{}
	if err := t.
		Where("id = ?", systemID).
		Limit(1).
		Find(row).Error; err != nil {
		return nil, err
	}
	if row.ID == "" {
		return nil, nil
	}
	return row, nil
}

func (r *catalogRepo) ListActiveSystems(dbc dbctx.Context) ([]*types.System, error) {
	t := dbc.Conn(r.db)
	var out []*types.System
	if err := t.
		Where("active = ?", true).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
