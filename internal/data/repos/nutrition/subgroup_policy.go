package nutrition

import (
	"strings"

	"gorm.io/gorm"

	types "github.com/yungbote/nutriplan-backend/internal/domain"
	"github.com/yungbote/nutriplan-backend/internal/pkg/dbctx"
	"github.com/yungbote/nutriplan-backend/internal/platform/logger"
)

type SubgroupPolicyRepo interface {
	Create(dbc dbctx.Context, rows []*types.SubgroupPolicy) ([]*types.SubgroupPolicy, error)
	ListActive(dbc dbctx.Context, systemID string) ([]*types.SubgroupPolicy, error)
	SetActive(dbc dbctx.Context, id int64, active bool) error
}

type subgroupPolicyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubgroupPolicyRepo(db *gorm.DB, baseLog *logger.Logger) SubgroupPolicyRepo {
	return &subgroupPolicyRepo{db: db, log: baseLog.With("repo", "SubgroupPolicyRepo")}
}

func (r *subgroupPolicyRepo) Create(dbc dbctx.Context, rows []*types.SubgroupPolicy) ([]*types.SubgroupPolicy, error) {
	t := dbc.Conn(r.db)
	if len(rows) == 0 {
		return []*types.SubgroupPolicy{}, nil
	}
	for _, row := range rows {
		row.Condition = strings.ToLower(strings.TrimSpace(row.Condition))
	}
	if err := t.Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *subgroupPolicyRepo) ListActive(dbc dbctx.Context, systemID string) ([]*types.SubgroupPolicy, error) {
	t := dbc.Conn(r.db)
	var out []*types.SubgroupPolicy
	systemID = strings.TrimSpace(systemID)
	if systemID == "" {
		return out, nil
	}
	if err := t.
		Where("system_id = ? AND active = ?", systemID, true).
		Order("parent_group_id ASC, subgroup_id ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *subgroupPolicyRepo) SetActive(dbc dbctx.Context, id int64, active bool) error {
	t := dbc.Conn(r.db)
	return t.
		Model(&types.SubgroupPolicy{}).
		Where("id = ?", id).
		Update("active", active).Error
}
