package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sunilprojects/smart-campus-resource-management/internal/model"
	pkgerrors "github.com/sunilprojects/smart-campus-resource-management/pkg/errors"
)

// BookingFilter 预约列表筛选条件
type BookingFilter struct {
	UserID     string
	ResourceID string
	Status     string
	DateFrom   *time.Time
	DateTo     *time.Time
}

// BookingRepository 预约数据访问接口
type BookingRepository interface {
	// LockResource 在当前事务内对资源加 advisory 锁，事务结束自动释放
	LockResource(ctx context.Context, resourceID string) error
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	// UpdateStatus 按版本号更新状态与取消信息
	UpdateStatus(ctx context.Context, booking *model.Booking) error

	ListConfirmedByResourceAndDate(ctx context.Context, resourceID string, date time.Time) ([]model.Booking, error)
	ListConfirmedOverlapping(ctx context.Context, resourceID string, date time.Time, start, end string) ([]model.Booking, error)
	ListConfirmedByResource(ctx context.Context, resourceID string) ([]model.Booking, error)
	CountConfirmedByUser(ctx context.Context, userID string) (int64, error)
	CountConfirmedByResource(ctx context.Context, resourceID string) (int64, error)

	List(ctx context.Context, filter BookingFilter, offset, limit int) ([]model.Booking, int64, error)
	ListUpcoming(ctx context.Context, userID string, from time.Time, limit int) ([]model.Booking, error)
	// ListForStats 返回统计所需的预约（预加载资源与分类）
	ListForStats(ctx context.Context, filter BookingFilter) ([]model.Booking, error)
}

// bookingRepo BookingRepository 的 GORM 实现
type bookingRepo struct {
	db *gorm.DB
}

// NewBookingRepo 创建 BookingRepository 实例
func NewBookingRepo(db *gorm.DB) BookingRepository {
	return &bookingRepo{db: db}
}

func (r *bookingRepo) LockResource(ctx context.Context, resourceID string) error {
	return r.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "booking:"+resourceID).Error
}

func (r *bookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	return translateError(r.db.WithContext(ctx).Omit("User", "Resource").Create(booking).Error)
}

func (r *bookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	var booking model.Booking
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Resource").Preload("Resource.Category").
		Where("booking_id = ?", id).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepo) UpdateStatus(ctx context.Context, booking *model.Booking) error {
	oldVersion := booking.Version
	// 状态变更不涉及起止时间，跳过时长重算钩子
	result := r.db.WithContext(ctx).
		Session(&gorm.Session{SkipHooks: true}).
		Model(&model.Booking{}).
		Where("booking_id = ? AND version = ?", booking.BookingID, oldVersion).
		Updates(map[string]any{
			"status":              booking.Status,
			"cancellation_reason": booking.CancellationReason,
			"cancelled_at":        booking.CancelledAt,
			"cancelled_by":        booking.CancelledBy,
			"version":             oldVersion + 1,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	booking.Version = oldVersion + 1
	return nil
}

func (r *bookingRepo) confirmed(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("status = ?", model.BookingStatusConfirmed)
}

func (r *bookingRepo) ListConfirmedByResourceAndDate(ctx context.Context, resourceID string, date time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.confirmed(ctx).
		Where("resource_id = ? AND booking_date = ?", resourceID, dateParam(date)).
		Order("start_time ASC").
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepo) ListConfirmedOverlapping(ctx context.Context, resourceID string, date time.Time, start, end string) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.confirmed(ctx).
		Where("resource_id = ? AND booking_date = ?", resourceID, dateParam(date)).
		Where("start_time < ? AND end_time > ?", end, start).
		Order("start_time ASC").
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepo) ListConfirmedByResource(ctx context.Context, resourceID string) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.confirmed(ctx).
		Preload("User").
		Where("resource_id = ?", resourceID).
		Order("booking_date ASC, start_time ASC").
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepo) CountConfirmedByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.confirmed(ctx).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *bookingRepo) CountConfirmedByResource(ctx context.Context, resourceID string) (int64, error) {
	var n int64
	err := r.confirmed(ctx).Where("resource_id = ?", resourceID).Count(&n).Error
	return n, err
}

func applyBookingFilter(db *gorm.DB, filter BookingFilter) *gorm.DB {
	if filter.UserID != "" {
		db = db.Where("user_id = ?", filter.UserID)
	}
	if filter.ResourceID != "" {
		db = db.Where("resource_id = ?", filter.ResourceID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.DateFrom != nil {
		db = db.Where("booking_date >= ?", dateParam(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		db = db.Where("booking_date <= ?", dateParam(*filter.DateTo))
	}
	return db
}

func (r *bookingRepo) List(ctx context.Context, filter BookingFilter, offset, limit int) ([]model.Booking, int64, error) {
	var bookings []model.Booking
	var total int64

	db := applyBookingFilter(r.db.WithContext(ctx).Model(&model.Booking{}), filter)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Preload("User").
		Preload("Resource").
		Order("booking_date DESC, start_time DESC").
		Offset(offset).Limit(limit).
		Find(&bookings).Error
	return bookings, total, err
}

func (r *bookingRepo) ListUpcoming(ctx context.Context, userID string, from time.Time, limit int) ([]model.Booking, error) {
	var bookings []model.Booking
	db := r.confirmed(ctx).Where("booking_date >= ?", dateParam(from))
	if userID != "" {
		db = db.Where("user_id = ?", userID)
	}
	err := db.Preload("Resource").
		Order("booking_date ASC, start_time ASC").
		Limit(limit).
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepo) ListForStats(ctx context.Context, filter BookingFilter) ([]model.Booking, error) {
	var bookings []model.Booking
	err := applyBookingFilter(r.db.WithContext(ctx).Model(&model.Booking{}), filter).
		Preload("Resource").Preload("Resource.Category").
		Find(&bookings).Error
	return bookings, err
}
