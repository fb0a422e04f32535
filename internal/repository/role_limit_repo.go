package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sunilprojects/smart-campus-resource-management/internal/model"
)

// RoleLimitRepository 角色配额数据访问接口
type RoleLimitRepository interface {
	List(ctx context.Context) ([]model.RoleLimit, error)
	Upsert(ctx context.Context, limit *model.RoleLimit) error
}

type roleLimitRepo struct {
	db *gorm.DB
}

// NewRoleLimitRepo 创建 RoleLimitRepository 实例
func NewRoleLimitRepo(db *gorm.DB) RoleLimitRepository {
	return &roleLimitRepo{db: db}
}

func (r *roleLimitRepo) List(ctx context.Context) ([]model.RoleLimit, error) {
	var limits []model.RoleLimit
	err := r.db.WithContext(ctx).Order("role ASC").Find(&limits).Error
	return limits, err
}

func (r *roleLimitRepo) Upsert(ctx context.Context, limit *model.RoleLimit) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "role"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"max_active_bookings", "advance_days", "max_duration_minutes",
				"cancel_lead_hours", "updated_by", "updated_at",
			}),
		}).
		Create(limit).Error
}
