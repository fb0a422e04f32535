package service

import (
	"context"
	"errors"
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

// ── 预约模块业务错误 ──

var (
	ErrBookingNotFound = errors.New("预约不存在")
)

// 请求参数层面的规则名
const (
	RuleBookingDate      = "booking_date"
	RuleTimeRange        = "time_range"
	RuleStatusTransition = "status_transition"
)

// BookingService 预约业务接口
type BookingService interface {
	Create(ctx context.Context, req *dto.CreateBookingRequest, callerID string) (*dto.BookingResponse, error)
	GetAvailableSlots(ctx context.Context, q *dto.SlotQuery) ([]dto.SlotResponse, error)
	CheckAvailability(ctx context.Context, q *dto.AvailabilityQuery) (*dto.AvailabilityResponse, error)
	Cancel(ctx context.Context, id string, req *dto.CancelBookingRequest, callerID, callerRole string) (*dto.BookingResponse, error)
	Complete(ctx context.Context, id string, callerID string) (*dto.BookingResponse, error)
	MarkNoShow(ctx context.Context, id string, callerID string) (*dto.BookingResponse, error)
	GetByID(ctx context.Context, id, callerID, callerRole string) (*dto.BookingResponse, error)
	ListMine(ctx context.Context, userID string, req *dto.BookingListRequest) ([]dto.BookingResponse, int64, error)
	List(ctx context.Context, req *dto.BookingListRequest) ([]dto.BookingResponse, int64, error)
	Statistics(ctx context.Context, callerID, callerRole string) (*dto.BookingStatisticsResponse, error)
}

type bookingService struct {
	*runtime
}

// NewBookingService 创建 BookingService 实例
func NewBookingService(rt *runtime) BookingService {
	return &bookingService{runtime: rt}
}

// ═══════════════════════════════════════════════════════════
// Create：规则校验 + 冲突检查 + 写入
// ═══════════════════════════════════════════════════════════
//
// 同一资源上的「校验 → 写入」由三层保护串行化：
//   1. 进程内/Redis 资源锁
//   2. 可串行化事务内的 advisory 锁
//   3. bookings_no_overlap 排他约束
// 任何一层发现并发冲突都以 ConflictError 返回。

func (s *bookingService) Create(ctx context.Context, req *dto.CreateBookingRequest, callerID string) (*dto.BookingResponse, error) {
	candidate, err := parseCandidate(req.BookingDate, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.User.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, resourceLockKey(req.ResourceID))
	if err != nil {
		s.logger.Warn("获取资源锁失败", zap.String("resource_id", req.ResourceID), zap.Error(err))
		return nil, err
	}
	defer unlock()

	var (
		created  *model.Booking
		resource *model.Resource
	)
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Booking.LockResource(ctx, req.ResourceID); err != nil {
			return err
		}

		res, err := tx.Resource.GetByID(ctx, req.ResourceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrResourceNotFound
			}
			return err
		}

		table, err := s.limits(ctx, tx)
		if err != nil {
			return err
		}
		active, err := tx.Booking.CountConfirmedByUser(ctx, user.UserID)
		if err != nil {
			return err
		}
		existing, err := tx.Booking.ListConfirmedByResourceAndDate(ctx, res.ResourceID, candidate.Date)
		if err != nil {
			return err
		}

		role := booking.Role(user.Role)
		decision := s.engine.Evaluate(booking.Input{
			Role:        role,
			Limits:      table.For(role),
			ActiveCount: int(active),
			Resource:    res.State(),
			Candidate:   candidate,
			Attendees:   req.AttendeesCount,
			Existing:    model.IntervalsOf(existing),
			Now:         s.now(),
			Location:    s.loc,
		})
		if !decision.Accepted() {
			s.logger.Info("预约被拒绝",
				zap.String("user_id", user.UserID),
				zap.String("resource_id", res.ResourceID),
				zap.String("rule", decision.Rule),
			)
			return decision.Err()
		}

		b := &model.Booking{
			UserID:         user.UserID,
			ResourceID:     res.ResourceID,
			BookingDate:    candidate.Date,
			StartTime:      candidate.Start.String(),
			EndTime:        candidate.End.String(),
			Duration:       candidate.Minutes(),
			Purpose:        req.Purpose,
			AttendeesCount: req.AttendeesCount,
			Status:         model.BookingStatusConfirmed,
		}
		if err := tx.Booking.Create(ctx, b); err != nil {
			return err
		}
		created, resource = b, res
		return nil
	})
	if err != nil {
		if !isBusinessError(err) {
			s.logger.Error("创建预约失败", zap.String("resource_id", req.ResourceID), zap.Error(err))
		}
		return nil, err
	}

	created.User = user
	created.Resource = resource
	s.logger.Info("预约已确认",
		zap.String("booking_id", created.BookingID),
		zap.String("resource_id", resource.ResourceID),
		zap.Stringer("interval", candidate),
	)
	s.notify(ctx, bookingEvent(notification.KindBookingConfirmed, created, resource.Name, s.now()))

	resp := toBookingResponse(created)
	return &resp, nil
}

// ────────────────────── 时段与可用性 ──────────────────────

func (s *bookingService) GetAvailableSlots(ctx context.Context, q *dto.SlotQuery) ([]dto.SlotResponse, error) {
	date, err := parseBookingDate(q.Date)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadResource(ctx, q.ResourceID); err != nil {
		return nil, err
	}
	existing, err := s.repo.Booking.ListConfirmedByResourceAndDate(ctx, q.ResourceID, date)
	if err != nil {
		return nil, err
	}

	out := make([]dto.SlotResponse, 0, booking.SlotCount)
	for slot := range booking.Slots(model.IntervalsOf(existing)) {
		out = append(out, dto.SlotResponse{
			StartTime: slot.Start.String(),
			EndTime:   slot.End.String(),
			Status:    string(slot.Status),
		})
	}
	return out, nil
}

// CheckAvailability 只做冲突检查，不校验配额等其他规则
func (s *bookingService) CheckAvailability(ctx context.Context, q *dto.AvailabilityQuery) (*dto.AvailabilityResponse, error) {
	candidate, err := parseCandidate(q.Date, q.StartTime, q.EndTime)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadResource(ctx, q.ResourceID); err != nil {
		return nil, err
	}
	overlapping, err := s.repo.Booking.ListConfirmedOverlapping(ctx, q.ResourceID, candidate.Date, candidate.Start.String(), candidate.End.String())
	if err != nil {
		return nil, err
	}
	if len(overlapping) > 0 {
		return &dto.AvailabilityResponse{Available: false, Message: "所选时段已被预约"}, nil
	}
	return &dto.AvailabilityResponse{Available: true}, nil
}

// ────────────────────── 状态变更 ──────────────────────

func (s *bookingService) Cancel(ctx context.Context, id string, req *dto.CancelBookingRequest, callerID, callerRole string) (*dto.BookingResponse, error) {
	b, err := s.loadBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	iv, err := b.Interval()
	if err != nil {
		return nil, err
	}
	table, err := s.limits(ctx, s.repo)
	if err != nil {
		return nil, err
	}

	role := booking.Role(callerRole)
	startAt, _ := iv.Bounds(s.loc)
	now := s.now()
	if err := booking.CheckCancellation(booking.CancelRequest{
		Status:        booking.Status(b.Status),
		OwnerID:       b.UserID,
		RequesterID:   callerID,
		RequesterRole: role,
		Limits:        table.For(role),
		Start:         startAt,
		Now:           now,
	}); err != nil {
		return nil, err
	}

	b.Status = model.BookingStatusCancelled
	b.CancelledAt = &now
	b.CancelledBy = &callerID
	if req != nil && req.Reason != "" {
		reason := req.Reason
		b.CancellationReason = &reason
	}
	if err := s.repo.Booking.UpdateStatus(ctx, b); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("取消预约失败", zap.String("booking_id", id), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("预约已取消", zap.String("booking_id", id), zap.String("by", callerID))
	s.notify(ctx, bookingEvent(notification.KindBookingCancelled, b, resourceNameOf(b), now))

	resp := toBookingResponse(b)
	return &resp, nil
}

func (s *bookingService) Complete(ctx context.Context, id string, callerID string) (*dto.BookingResponse, error) {
	return s.transition(ctx, id, booking.StatusCompleted, notification.KindBookingCompleted, callerID)
}

func (s *bookingService) MarkNoShow(ctx context.Context, id string, callerID string) (*dto.BookingResponse, error) {
	return s.transition(ctx, id, booking.StatusNoShow, notification.KindBookingNoShow, callerID)
}

// transition 管理员把已确认预约迁移到终态
func (s *bookingService) transition(ctx context.Context, id string, to booking.Status, kind notification.Kind, callerID string) (*dto.BookingResponse, error) {
	b, err := s.loadBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.CanTransition(booking.Status(b.Status), to) {
		return nil, pkgerrors.NewValidation(RuleStatusTransition, "只能变更已确认的预约")
	}

	b.Status = string(to)
	if err := s.repo.Booking.UpdateStatus(ctx, b); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新预约状态失败", zap.String("booking_id", id), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("预约状态已变更", zap.String("booking_id", id), zap.String("status", b.Status), zap.String("by", callerID))
	s.notify(ctx, bookingEvent(kind, b, resourceNameOf(b), s.now()))

	resp := toBookingResponse(b)
	return &resp, nil
}

// ────────────────────── 查询 ──────────────────────

func (s *bookingService) GetByID(ctx context.Context, id, callerID, callerRole string) (*dto.BookingResponse, error) {
	b, err := s.loadBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerRole != model.RoleAdmin && b.UserID != callerID {
		return nil, ErrNoPermission
	}
	resp := toBookingResponse(b)
	return &resp, nil
}

func (s *bookingService) ListMine(ctx context.Context, userID string, req *dto.BookingListRequest) ([]dto.BookingResponse, int64, error) {
	filter, err := bookingFilterOf(req)
	if err != nil {
		return nil, 0, err
	}
	filter.UserID = userID
	return s.list(ctx, filter, req)
}

func (s *bookingService) List(ctx context.Context, req *dto.BookingListRequest) ([]dto.BookingResponse, int64, error) {
	filter, err := bookingFilterOf(req)
	if err != nil {
		return nil, 0, err
	}
	return s.list(ctx, filter, req)
}

func (s *bookingService) list(ctx context.Context, filter repository.BookingFilter, req *dto.BookingListRequest) ([]dto.BookingResponse, int64, error) {
	bookings, total, err := s.repo.Booking.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询预约列表失败", zap.Error(err))
		return nil, 0, err
	}
	return toBookingResponses(bookings), total, nil
}

// Statistics 管理员统计全部预约，其他角色只统计本人
func (s *bookingService) Statistics(ctx context.Context, callerID, callerRole string) (*dto.BookingStatisticsResponse, error) {
	var filter repository.BookingFilter
	if callerRole != model.RoleAdmin {
		filter.UserID = callerID
	}
	list, err := s.repo.Booking.ListForStats(ctx, filter)
	if err != nil {
		s.logger.Error("查询预约统计失败", zap.Error(err))
		return nil, err
	}
	records := toRecords(list)
	sum := booking.Summarize(records)
	return &dto.BookingStatisticsResponse{
		Total:           sum.Total,
		Confirmed:       sum.Confirmed,
		Completed:       sum.Completed,
		Cancelled:       sum.Cancelled,
		NoShow:          sum.NoShow,
		AverageDuration: sum.AverageDuration,
		ByCategory:      booking.CountByCategory(records),
	}, nil
}

// ── 辅助函数 ──

func (s *bookingService) loadBooking(ctx context.Context, id string) (*model.Booking, error) {
	b, err := s.repo.Booking.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *bookingService) loadResource(ctx context.Context, id string) (*model.Resource, error) {
	res, err := s.repo.Resource.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	return res, nil
}

func parseBookingDate(s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, pkgerrors.NewValidation(RuleBookingDate, "预约日期格式无效，应为 YYYY-MM-DD")
	}
	return d, nil
}

// parseCandidate 解析申请的日期与起止时间
func parseCandidate(date, start, end string) (booking.Interval, error) {
	d, err := parseBookingDate(date)
	if err != nil {
		return booking.Interval{}, err
	}
	st, err := booking.ParseClock(start)
	if err != nil {
		return booking.Interval{}, pkgerrors.NewValidation(RuleTimeRange, err.Error())
	}
	et, err := booking.ParseClock(end)
	if err != nil {
		return booking.Interval{}, pkgerrors.NewValidation(RuleTimeRange, err.Error())
	}
	iv, err := booking.NewInterval(d, st, et)
	if err != nil {
		return booking.Interval{}, pkgerrors.NewValidation(RuleTimeRange, booking.ErrInvalidInterval.Error())
	}
	return iv, nil
}

func bookingFilterOf(req *dto.BookingListRequest) (repository.BookingFilter, error) {
	filter := repository.BookingFilter{
		UserID:     req.UserID,
		ResourceID: req.ResourceID,
		Status:     req.Status,
	}
	if req.DateFrom != "" {
		d, err := parseBookingDate(req.DateFrom)
		if err != nil {
			return filter, err
		}
		filter.DateFrom = &d
	}
	if req.DateTo != "" {
		d, err := parseBookingDate(req.DateTo)
		if err != nil {
			return filter, err
		}
		filter.DateTo = &d
	}
	return filter, nil
}

func resourceNameOf(b *model.Booking) string {
	if b.Resource == nil {
		return ""
	}
	return b.Resource.Name
}

// isBusinessError 业务拒绝无需记录错误日志
func isBusinessError(err error) bool {
	return pkgerrors.IsValidation(err) ||
		pkgerrors.IsConflict(err) ||
		errors.Is(err, ErrResourceNotFound) ||
		errors.Is(err, ErrUserNotFound)
}
