package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sunilprojects/smart-campus-resource-management/internal/model"
)

// ResourceFilter 资源列表筛选条件
type ResourceFilter struct {
	CategoryID string
	Status     string
	Keyword    string // 名称或位置模糊匹配
}

// CategoryRepository 资源分类数据访问接口
type CategoryRepository interface {
	Create(ctx context.Context, category *model.ResourceCategory) error
	GetByID(ctx context.Context, id string) (*model.ResourceCategory, error)
	List(ctx context.Context) ([]model.ResourceCategory, error)
	Update(ctx context.Context, category *model.ResourceCategory) error
	Delete(ctx context.Context, id string) error
	CountResources(ctx context.Context, id string) (int64, error)
}

// ResourceRepository 资源数据访问接口
type ResourceRepository interface {
	Create(ctx context.Context, resource *model.Resource) error
	GetByID(ctx context.Context, id string) (*model.Resource, error)
	List(ctx context.Context, filter ResourceFilter, offset, limit int) ([]model.Resource, int64, error)
	ListAll(ctx context.Context) ([]model.Resource, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	UpdateStatus(ctx context.Context, id, status string, updatedBy *string) error
	SetMaintenance(ctx context.Context, id string, start, end time.Time, reason string, updatedBy *string) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// ── Category Repository 实现 ──

type categoryRepo struct {
	db *gorm.DB
}

func NewCategoryRepo(db *gorm.DB) CategoryRepository {
	return &categoryRepo{db: db}
}

func (r *categoryRepo) Create(ctx context.Context, category *model.ResourceCategory) error {
	return translateError(r.db.WithContext(ctx).Create(category).Error)
}

func (r *categoryRepo) GetByID(ctx context.Context, id string) (*model.ResourceCategory, error) {
	var category model.ResourceCategory
	err := r.db.WithContext(ctx).Where("category_id = ?", id).First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepo) List(ctx context.Context) ([]model.ResourceCategory, error) {
	var categories []model.ResourceCategory
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *categoryRepo) Update(ctx context.Context, category *model.ResourceCategory) error {
	return translateError(r.db.WithContext(ctx).Save(category).Error)
}

func (r *categoryRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("category_id = ?", id).
		Delete(&model.ResourceCategory{}).Error
}

func (r *categoryRepo) CountResources(ctx context.Context, id string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Resource{}).
		Where("category_id = ?", id).
		Count(&n).Error
	return n, err
}

// ── Resource Repository 实现 ──

type resourceRepo struct {
	db *gorm.DB
}

func NewResourceRepo(db *gorm.DB) ResourceRepository {
	return &resourceRepo{db: db}
}

func (r *resourceRepo) Create(ctx context.Context, resource *model.Resource) error {
	return r.db.WithContext(ctx).Create(resource).Error
}

func (r *resourceRepo) GetByID(ctx context.Context, id string) (*model.Resource, error) {
	var resource model.Resource
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("resource_id = ?", id).
		First(&resource).Error
	if err != nil {
		return nil, err
	}
	return &resource, nil
}

func (r *resourceRepo) List(ctx context.Context, filter ResourceFilter, offset, limit int) ([]model.Resource, int64, error) {
	var resources []model.Resource
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Resource{})
	if filter.CategoryID != "" {
		db = db.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		db = db.Where("name ILIKE ? OR location ILIKE ?", like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Preload("Category").
		Order("name ASC").
		Offset(offset).Limit(limit).
		Find(&resources).Error
	return resources, total, err
}

func (r *resourceRepo) ListAll(ctx context.Context) ([]model.Resource, error) {
	var resources []model.Resource
	err := r.db.WithContext(ctx).
		Preload("Category").
		Order("name ASC").
		Find(&resources).Error
	return resources, err
}

// Update 只写入 fields 中的列，状态与维护窗口由专用方法维护
func (r *resourceRepo) Update(ctx context.Context, id string, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&model.Resource{}).
		Where("resource_id = ?", id).
		Updates(fields).Error
}

func (r *resourceRepo) UpdateStatus(ctx context.Context, id, status string, updatedBy *string) error {
	return r.db.WithContext(ctx).
		Model(&model.Resource{}).
		Where("resource_id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_by": updatedBy,
		}).Error
}

func (r *resourceRepo) SetMaintenance(ctx context.Context, id string, start, end time.Time, reason string, updatedBy *string) error {
	return r.db.WithContext(ctx).
		Model(&model.Resource{}).
		Where("resource_id = ?", id).
		Updates(map[string]any{
			"status":             model.ResourceStatusUnderMaintenance,
			"maintenance_start":  start,
			"maintenance_end":    end,
			"maintenance_reason": reason,
			"updated_by":         updatedBy,
		}).Error
}

func (r *resourceRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Resource{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
