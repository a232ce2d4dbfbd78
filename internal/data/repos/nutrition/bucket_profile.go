package nutrition

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/nutriplan-backend/internal/domain"
	"github.com/yungbote/nutriplan-backend/internal/pkg/dbctx"
	"github.com/yungbote/nutriplan-backend/internal/platform/logger"
)

type BucketProfileRepo interface {
	// Save upserts rows keyed by (profile_version, system_id, bucket_type, bucket_id).
	Save(dbc dbctx.Context, profileVersion, systemID string, rows []*types.BucketProfile) error
	DeleteVersion(dbc dbctx.Context, profileVersion, systemID string) (int64, error)
	// ReplaceVersion deletes, rewrites and registers a version in one transaction.
	ReplaceVersion(dbc dbctx.Context, profileVersion, systemID string, rows []*types.BucketProfile) error
	Load(dbc dbctx.Context, systemID, profileVersion string) ([]*types.BucketProfile, error)
	LatestVersion(dbc dbctx.Context, systemID string) (string, error)
	GetVersion(dbc dbctx.Context, systemID, profileVersion string) (*types.BucketProfileVersion, error)
}

type bucketProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBucketProfileRepo(db *gorm.DB, baseLog *logger.Logger) BucketProfileRepo {
	return &bucketProfileRepo{db: db, log: baseLog.With("repo", "BucketProfileRepo")}
}

func (r *bucketProfileRepo) Save(dbc dbctx.Context, profileVersion, systemID string, rows []*types.BucketProfile) error {
	t := dbc.Conn(r.db)
	profileVersion = strings.TrimSpace(profileVersion)
	systemID = strings.TrimSpace(systemID)
	if profileVersion == "" || systemID == "" || len(rows) == 0 {
		return nil
	}
	rows = compact(rows)
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		row.ProfileVersion = profileVersion
		row.SystemID = systemID
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
	}
	return t.
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "profile_version"},
				{Name: "system_id"},
				{Name: "bucket_type"},
				{Name: "bucket_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"parent_group_id",
				"display_name",
				"sample_size",
				"carbs_g",
				"protein_g",
				"fat_g",
				"calories",
			}),
		}).
		CreateInBatches(rows, 200).Error
}

func (r *bucketProfileRepo) DeleteVersion(dbc dbctx.Context, profileVersion, systemID string) (int64, error) {
	t := dbc.Conn(r.db)
	profileVersion = strings.TrimSpace(profileVersion)
	systemID = strings.TrimSpace(systemID)
	if profileVersion == "" || systemID == "" {
		return 0, nil
	}
	res := t.
		Where("profile_version = ? AND system_id = ?", profileVersion, systemID).
		Delete(&types.BucketProfile{})
	return res.RowsAffected, res.Error
}

func (r *bucketProfileRepo) ReplaceVersion(dbc dbctx.Context, profileVersion, systemID string, rows []*types.BucketProfile) error {
	t := dbc.Conn(r.db)
	profileVersion = strings.TrimSpace(profileVersion)
	systemID = strings.TrimSpace(systemID)
	if profileVersion == "" || systemID == "" {
		return nil
	}
	return t.Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		if _, err := r.DeleteVersion(inner, profileVersion, systemID); err != nil {
			return err
		}
		if err := r.Save(inner, profileVersion, systemID, rows); err != nil {
			return err
		}
		now := time.Now().UTC()
		reg := &types.BucketProfileVersion{
			SystemID:       systemID,
			ProfileVersion: profileVersion,
			Status:         types.ProfileVersionStatusComplete,
			RowCount:       len(compact(rows)),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "system_id"}, {Name: "profile_version"}},
			DoUpdates: clause.Assignments(map[string]any{
				"status":     reg.Status,
				"row_count":  reg.RowCount,
				"updated_at": now,
			}),
		}).Create(reg).Error
	})
}

func (r *bucketProfileRepo) Load(dbc dbctx.Context, systemID, profileVersion string) ([]*types.BucketProfile, error) {
	t := dbc.Conn(r.db)
	var out []*types.BucketProfile
	systemID = strings.TrimSpace(systemID)
	profileVersion = strings.TrimSpace(profileVersion)
	if systemID == "" || profileVersion == "" {
		return out, nil
	}
	if err := t.
		Where("system_id = ? AND profile_version = ?", systemID, profileVersion).
		Order("bucket_type ASC, bucket_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// LatestVersion returns the most recently registered complete version, or ""
// when the system has none. Rebuilding an existing version keeps its original
// registration time.
func (r *bucketProfileRepo) LatestVersion(dbc dbctx.Context, systemID string) (string, error) {
	t := dbc.Conn(r.db)
	systemID = strings.TrimSpace(systemID)
	if systemID == "" {
		return "", nil
	}
	var rows []*types.BucketProfileVersion
	if err := t.
		Where("system_id = ? AND status = ?", systemID, types.ProfileVersionStatusComplete).
		Order("created_at DESC, profile_version DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}
	return rows[0].ProfileVersion, nil
}

func (r *bucketProfileRepo) GetVersion(dbc dbctx.Context, systemID, profileVersion string) (*types.BucketProfileVersion, error) {
	t := dbc.Conn(r.db)
	systemID = strings.TrimSpace(systemID)
	profileVersion = strings.TrimSpace(profileVersion)
	if systemID == "" || profileVersion == "" {
		return nil, nil
	}
	row := &types.BucketProfileVersion{}
	if err := t.
		Where("system_id = ? AND profile_version = ?", systemID, profileVersion).
		Limit(1).
		Find(row).Error; err != nil {
		return nil, err
	}
	if row.ProfileVersion == "" {
		return nil, nil
	}
	return row, nil
}

func compact(rows []*types.BucketProfile) []*types.BucketProfile {
	out := make([]*types.BucketProfile, 0, len(rows))
	for _, row := range rows {
		if row != nil {
			out = append(out, row)
		}
	}
	return out
}
