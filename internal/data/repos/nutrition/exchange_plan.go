package nutrition

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/nutriplan-backend/internal/domain"
	"github.com/yungbote/nutriplan-backend/internal/pkg/dbctx"
	"github.com/yungbote/nutriplan-backend/internal/platform/logger"
)

type ExchangePlanRepo interface {
	Create(dbc dbctx.Context, row *types.ExchangePlan) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ExchangePlan, error)
	ListByPatientRef(dbc dbctx.Context, systemID, patientRef string, limit int) ([]*types.ExchangePlan, error)
}

type exchangePlanRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExchangePlanRepo(db *gorm.DB, baseLog *logger.Logger) ExchangePlanRepo {
	return &exchangePlanRepo{db: db, log: baseLog.With("repo", "ExchangePlanRepo")}
}

func (r *exchangePlanRepo) Create(dbc dbctx.Context, row *types.ExchangePlan) error {
	t := dbc.Conn(r.db)
	if row == nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return t.Create(row).Error
}

func (r *exchangePlanRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ExchangePlan, error) {
	t := dbc.Conn(r.db)
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*types.ExchangePlan
	if err := t.
		Where("id = ?", id).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *exchangePlanRepo) ListByPatientRef(dbc dbctx.Context, systemID, patientRef string, limit int) ([]*types.ExchangePlan, error) {
	t := dbc.Conn(r.db)
	var out []*types.ExchangePlan
	if patientRef == "" {
		return out, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := t.Where("patient_ref = ?", patientRef)
	if systemID != "" {
		q = q.Where("system_id = ?", systemID)
	}
	if err := q.Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
