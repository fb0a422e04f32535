package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sunilprojects/smart-campus-resource-management/internal/booking"
	"github.com/sunilprojects/smart-campus-resource-management/internal/dto"
	"github.com/sunilprojects/smart-campus-resource-management/internal/model"
	"github.com/sunilprojects/smart-campus-resource-management/internal/notification"
	"github.com/sunilprojects/smart-campus-resource-management/internal/repository"
	pkgerrors "github.com/sunilprojects/smart-campus-resource-management/pkg/errors"
)

// ── 资源模块业务错误 ──

var (
	ErrCategoryNotFound     = errors.New("资源分类不存在")
	ErrCategoryNameExists   = errors.New("分类名称已存在")
	ErrCategoryInUse        = errors.New("分类下仍有资源，无法删除")
	ErrResourceNotFound     = errors.New("资源不存在")
	ErrResourceHasBookings  = errors.New("资源仍有已确认的预约，无法删除")
	ErrInvalidDurationRange = errors.New("最短预约时长不能大于最长预约时长")
	ErrInvalidMaintenance   = errors.New("维护时间格式无效")
)

// RuleMaintenanceSchedule 维护窗口校验失败时的规则名
const RuleMaintenanceSchedule = "maintenance_schedule"

// ResourceService 资源与分类业务接口
type ResourceService interface {
	// 分类
	CreateCategory(ctx context.Context, req *dto.CreateCategoryRequest) (*dto.CategoryResponse, error)
	ListCategories(ctx context.Context) ([]dto.CategoryResponse, error)
	UpdateCategory(ctx context.Context, id string, req *dto.UpdateCategoryRequest) (*dto.CategoryResponse, error)
	DeleteCategory(ctx context.Context, id string) error

	// 资源
	Create(ctx context.Context, req *dto.CreateResourceRequest, callerID string) (*dto.ResourceResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ResourceResponse, error)
	List(ctx context.Context, req *dto.ResourceListRequest) ([]dto.ResourceResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateResourceRequest, callerID string) (*dto.ResourceResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
	UpdateStatus(ctx context.Context, id string, req *dto.UpdateResourceStatusRequest, callerID string) error
	ScheduleMaintenance(ctx context.Context, id string, req *dto.ScheduleMaintenanceRequest, callerID string) (*dto.MaintenanceResponse, error)
	TopResources(ctx context.Context, n int) ([]dto.ResourceUsageResponse, error)
}

type resourceService struct {
	*runtime
}

// NewResourceService 创建 ResourceService 实例
func NewResourceService(rt *runtime) ResourceService {
	return &resourceService{runtime: rt}
}

// ────────────────────── 分类 ──────────────────────

func (s *resourceService) CreateCategory(ctx context.Context, req *dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	category := &model.ResourceCategory{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Icon:        req.Icon,
	}
	if err := s.repo.Category.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrCategoryNameExists
		}
		s.logger.Error("创建分类失败", zap.Error(err))
		return nil, err
	}
	resp := toCategoryResponse(category)
	return &resp, nil
}

func (s *resourceService) ListCategories(ctx context.Context) ([]dto.CategoryResponse, error) {
	categories, err := s.repo.Category.List(ctx)
	if err != nil {
		s.logger.Error("查询分类列表失败", zap.Error(err))
		return nil, err
	}
	out := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, toCategoryResponse(&categories[i]))
	}
	return out, nil
}

func (s *resourceService) UpdateCategory(ctx context.Context, id string, req *dto.UpdateCategoryRequest) (*dto.CategoryResponse, error) {
	category, err := s.repo.Category.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	if req.Name != nil {
		category.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.Icon != nil {
		category.Icon = *req.Icon
	}
	if err := s.repo.Category.Update(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrCategoryNameExists
		}
		s.logger.Error("更新分类失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	resp := toCategoryResponse(category)
	return &resp, nil
}

func (s *resourceService) DeleteCategory(ctx context.Context, id string) error {
	if _, err := s.repo.Category.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	n, err := s.repo.Category.CountResources(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrCategoryInUse
	}
	return s.repo.Category.Delete(ctx, id)
}

// ────────────────────── 资源 ──────────────────────

func (s *resourceService) Create(ctx context.Context, req *dto.CreateResourceRequest, callerID string) (*dto.ResourceResponse, error) {
	if req.CategoryID != nil {
		if err := s.ensureCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
	}

	resource := &model.Resource{
		Name:               strings.TrimSpace(req.Name),
		CategoryID:         req.CategoryID,
		Description:        req.Description,
		Capacity:           req.Capacity,
		Location:           req.Location,
		Amenities:          req.Amenities,
		ImageURL:           req.ImageURL,
		Status:             model.ResourceStatusAvailable,
		MinBookingDuration: orDefault(req.MinBookingDuration, 60),
		MaxBookingDuration: orDefault(req.MaxBookingDuration, 180),
		AdvanceBookingDays: orDefault(req.AdvanceBookingDays, 7),
		AuditModel:         model.AuditModel{CreatedBy: &callerID, UpdatedBy: &callerID},
	}
	if resource.MinBookingDuration > resource.MaxBookingDuration {
		return nil, ErrInvalidDurationRange
	}

	if err := s.repo.Resource.Create(ctx, resource); err != nil {
		s.logger.Error("创建资源失败", zap.Error(err))
		return nil, err
	}
	s.logger.Info("资源已创建", zap.String("resource_id", resource.ResourceID), zap.String("by", callerID))
	return s.GetByID(ctx, resource.ResourceID)
}

func (s *resourceService) GetByID(ctx context.Context, id string) (*dto.ResourceResponse, error) {
	resource, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	resp := toResourceResponse(resource)
	return &resp, nil
}

func (s *resourceService) List(ctx context.Context, req *dto.ResourceListRequest) ([]dto.ResourceResponse, int64, error) {
	filter := repository.ResourceFilter{
		CategoryID: req.CategoryID,
		Status:     req.Status,
		Keyword:    strings.TrimSpace(req.Keyword),
	}
	resources, total, err := s.repo.Resource.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询资源列表失败", zap.Error(err))
		return nil, 0, err
	}
	out := make([]dto.ResourceResponse, 0, len(resources))
	for i := range resources {
		out = append(out, toResourceResponse(&resources[i]))
	}
	return out, total, nil
}

// Update 与维护、预约共用资源锁，只写入请求中出现的列
func (s *resourceService) Update(ctx context.Context, id string, req *dto.UpdateResourceRequest, callerID string) (*dto.ResourceResponse, error) {
	if req.CategoryID != nil {
		if err := s.ensureCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
	}

	var updated *model.Resource
	err := s.withResourceLock(ctx, id, func(tx *repository.Repository) error {
		resource, err := s.load(ctx, tx, id)
		if err != nil {
			return err
		}
		fields := applyResourceChanges(resource, req)
		if resource.MinBookingDuration > resource.MaxBookingDuration {
			return ErrInvalidDurationRange
		}
		fields["updated_by"] = callerID

		if err := tx.Resource.Update(ctx, id, fields); err != nil {
			return err
		}
		updated, err = s.load(ctx, tx, id)
		return err
	})
	if err != nil {
		if !isResourceBusinessError(err) {
			s.logger.Error("更新资源失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	resp := toResourceResponse(updated)
	return &resp, nil
}

// Delete 软删除：状态置为 unavailable，仍有已确认预约时拒绝
func (s *resourceService) Delete(ctx context.Context, id string, callerID string) error {
	err := s.withResourceLock(ctx, id, func(tx *repository.Repository) error {
		if _, err := s.load(ctx, tx, id); err != nil {
			return err
		}
		n, err := tx.Booking.CountConfirmedByResource(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrResourceHasBookings
		}
		return tx.Resource.UpdateStatus(ctx, id, model.ResourceStatusUnavailable, &callerID)
	})
	if err != nil {
		if !isResourceBusinessError(err) {
			s.logger.Error("删除资源失败", zap.String("id", id), zap.Error(err))
		}
		return err
	}
	s.logger.Info("资源已下线", zap.String("resource_id", id), zap.String("by", callerID))
	return nil
}

func (s *resourceService) UpdateStatus(ctx context.Context, id string, req *dto.UpdateResourceStatusRequest, callerID string) error {
	return s.withResourceLock(ctx, id, func(tx *repository.Repository) error {
		if _, err := s.load(ctx, tx, id); err != nil {
			return err
		}
		return tx.Resource.UpdateStatus(ctx, id, req.Status, &callerID)
	})
}

// ────────────────────── 维护级联 ──────────────────────

// ScheduleMaintenance 把资源置为维护状态，并取消所有与维护窗口重叠的已确认预约。
// 与预约创建共用资源锁；通知在事务提交后发送。
func (s *resourceService) ScheduleMaintenance(ctx context.Context, id string, req *dto.ScheduleMaintenanceRequest, callerID string) (*dto.MaintenanceResponse, error) {
	start, err := parseMaintenanceTime(req.Start, s.loc)
	if err != nil {
		return nil, err
	}
	end, err := parseMaintenanceTime(req.End, s.loc)
	if err != nil {
		return nil, err
	}
	window, err := booking.NewMaintenanceWindow(start, end, req.Reason)
	if err != nil {
		return nil, pkgerrors.NewValidation(RuleMaintenanceSchedule, err.Error())
	}

	var (
		resource  *model.Resource
		cancelled []model.Booking
	)
	err = s.withResourceLock(ctx, id, func(tx *repository.Repository) error {
		if _, err := s.load(ctx, tx, id); err != nil {
			return err
		}
		if err := tx.Resource.SetMaintenance(ctx, id, window.Start, window.End, window.Reason, &callerID); err != nil {
			return err
		}

		confirmed, err := tx.Booking.ListConfirmedByResource(ctx, id)
		if err != nil {
			return err
		}
		affected := booking.SelectAffected(confirmed, bookingInterval, window, s.loc)

		now := s.now()
		reason := window.CancellationReason()
		for i := range affected {
			b := &affected[i]
			b.Status = model.BookingStatusCancelled
			b.CancellationReason = &reason
			b.CancelledAt = &now
			b.CancelledBy = nil
			if err := tx.Booking.UpdateStatus(ctx, b); err != nil {
				return fmt.Errorf("取消预约 %s 失败: %w", b.BookingID, err)
			}
		}
		cancelled = affected

		resource, err = s.load(ctx, tx, id)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrResourceNotFound) {
			s.logger.Error("安排维护失败", zap.String("resource_id", id), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("资源进入维护",
		zap.String("resource_id", id),
		zap.Time("start", window.Start),
		zap.Time("end", window.End),
		zap.Int("cancelled", len(cancelled)),
	)

	ids := make([]string, 0, len(cancelled))
	events := make([]notification.Event, 0, len(cancelled))
	for i := range cancelled {
		ids = append(ids, cancelled[i].BookingID)
		events = append(events, bookingEvent(notification.KindMaintenanceCancelled, &cancelled[i], resource.Name, s.now()))
	}
	s.notify(ctx, events...)

	return &dto.MaintenanceResponse{
		Resource:          toResourceResponse(resource),
		CancelledBookings: ids,
	}, nil
}

// ────────────────────── 热门资源 ──────────────────────

func (s *resourceService) TopResources(ctx context.Context, n int) ([]dto.ResourceUsageResponse, error) {
	resources, err := s.repo.Resource.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.Booking.ListForStats(ctx, repository.BookingFilter{Status: model.BookingStatusCompleted})
	if err != nil {
		return nil, err
	}
	return toUsageResponses(booking.TopResources(toResourceRefs(resources), toRecords(records), n)), nil
}

// ── 辅助函数 ──

func (s *resourceService) load(ctx context.Context, repo *repository.Repository, id string) (*model.Resource, error) {
	resource, err := repo.Resource.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	return resource, nil
}

// applyResourceChanges 把请求中的字段写回 resource，返回需要持久化的列
func applyResourceChanges(resource *model.Resource, req *dto.UpdateResourceRequest) map[string]any {
	fields := make(map[string]any)
	if req.CategoryID != nil {
		resource.CategoryID = req.CategoryID
		fields["category_id"] = *req.CategoryID
	}
	if req.Name != nil {
		resource.Name = strings.TrimSpace(*req.Name)
		fields["name"] = resource.Name
	}
	if req.Description != nil {
		resource.Description = *req.Description
		fields["description"] = resource.Description
	}
	if req.Capacity != nil {
		resource.Capacity = *req.Capacity
		fields["capacity"] = resource.Capacity
	}
	if req.Location != nil {
		resource.Location = *req.Location
		fields["location"] = resource.Location
	}
	if req.Amenities != nil {
		resource.Amenities = *req.Amenities
		fields["amenities"] = resource.Amenities
	}
	if req.ImageURL != nil {
		resource.ImageURL = *req.ImageURL
		fields["image_url"] = resource.ImageURL
	}
	if req.MinBookingDuration != nil {
		resource.MinBookingDuration = *req.MinBookingDuration
		fields["min_booking_duration"] = resource.MinBookingDuration
	}
	if req.MaxBookingDuration != nil {
		resource.MaxBookingDuration = *req.MaxBookingDuration
		fields["max_booking_duration"] = resource.MaxBookingDuration
	}
	if req.AdvanceBookingDays != nil {
		resource.AdvanceBookingDays = *req.AdvanceBookingDays
		fields["advance_booking_days"] = resource.AdvanceBookingDays
	}
	return fields
}

func isResourceBusinessError(err error) bool {
	return errors.Is(err, ErrResourceNotFound) ||
		errors.Is(err, ErrResourceHasBookings) ||
		errors.Is(err, ErrInvalidDurationRange)
}

func (s *resourceService) ensureCategory(ctx context.Context, id string) error {
	if _, err := s.repo.Category.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	return nil
}

// bookingInterval 时间损坏的预约返回零值区间，不会与任何窗口相交
func bookingInterval(b model.Booking) booking.Interval {
	iv, _ := b.Interval()
	return iv
}

var maintenanceLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseMaintenanceTime 支持 RFC3339；未带时区的值按预约时区解释
func parseMaintenanceTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range maintenanceLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidMaintenance, s)
}

func toUsageResponses(list []booking.ResourceUsage) []dto.ResourceUsageResponse {
	out := make([]dto.ResourceUsageResponse, 0, len(list))
	for _, u := range list {
		out = append(out, dto.ResourceUsageResponse{
			ResourceID:  u.ResourceID,
			Name:        u.Name,
			Completed:   u.Completed,
			Utilization: u.Utilization,
		})
	}
	return out
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
