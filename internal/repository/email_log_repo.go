package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sunilprojects/smart-campus-resource-management/internal/model"
)

// EmailLogRepository 邮件发送记录数据访问接口
type EmailLogRepository interface {
	Create(ctx context.Context, log *model.EmailLog) error
	CountSince(ctx context.Context, since time.Time, status string) (int64, error)
	List(ctx context.Context, offset, limit int) ([]model.EmailLog, int64, error)
}

type emailLogRepo struct {
	db *gorm.DB
}

func NewEmailLogRepo(db *gorm.DB) EmailLogRepository {
	return &emailLogRepo{db: db}
}

func (r *emailLogRepo) Create(ctx context.Context, log *model.EmailLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *emailLogRepo) CountSince(ctx context.Context, since time.Time, status string) (int64, error) {
	var n int64
	db := r.db.WithContext(ctx).Model(&model.EmailLog{}).Where("sent_at >= ?", since)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	err := db.Count(&n).Error
	return n, err
}

func (r *emailLogRepo) List(ctx context.Context, offset, limit int) ([]model.EmailLog, int64, error) {
	var logs []model.EmailLog
	var total int64

	db := r.db.WithContext(ctx).Model(&model.EmailLog{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("sent_at DESC").Offset(offset).Limit(limit).Find(&logs).Error
	return logs, total, err
}
