package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sunilprojects/smart-campus-resource-management/internal/booking"
	"github.com/sunilprojects/smart-campus-resource-management/internal/dto"
	"github.com/sunilprojects/smart-campus-resource-management/internal/model"
	"github.com/sunilprojects/smart-campus-resource-management/internal/repository"
)

const (
	defaultTrendDays     = 30
	userUpcomingLimit    = 3
	adminUpcomingLimit   = 5
	adminTopResourcesCap = 10
)

// 健康检查状态
const (
	HealthUp           = "up"
	HealthDown         = "down"
	HealthUnconfigured = "unconfigured"
)

// DashboardService 仪表盘与统计业务接口
type DashboardService interface {
	UserDashboard(ctx context.Context, userID string) (*dto.UserDashboardResponse, error)
	AdminDashboard(ctx context.Context) (*dto.AdminDashboardResponse, error)
	PeakHours(ctx context.Context) ([]dto.HourCountResponse, error)
	Weekdays(ctx context.Context) ([]dto.WeekdayCountResponse, error)
	Trend(ctx context.Context, days int) ([]dto.DayCountResponse, error)
	CategoryUtilization(ctx context.Context) (map[string]float64, error)
	SystemHealth(ctx context.Context) (*dto.SystemHealthResponse, error)
}

type dashboardService struct {
	*runtime
	database HealthProbe
	redis    HealthProbe
}

// NewDashboardService 创建 DashboardService 实例；probe 为 nil 表示未配置
func NewDashboardService(rt *runtime, database, redis HealthProbe) DashboardService {
	return &dashboardService{runtime: rt, database: database, redis: redis}
}

func (s *dashboardService) UserDashboard(ctx context.Context, userID string) (*dto.UserDashboardResponse, error) {
	list, err := s.repo.Booking.ListForStats(ctx, repository.BookingFilter{UserID: userID})
	if err != nil {
		s.logger.Error("查询用户预约统计失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	sum := booking.Summarize(toRecords(list))

	upcoming, err := s.repo.Booking.ListUpcoming(ctx, userID, s.today(), userUpcomingLimit)
	if err != nil {
		return nil, err
	}

	return &dto.UserDashboardResponse{
		TotalBookings:     sum.Total,
		ActiveBookings:    sum.Confirmed,
		CompletedBookings: sum.Completed,
		CancelledBookings: sum.Cancelled,
		Upcoming:          toBookingResponses(upcoming),
	}, nil
}

func (s *dashboardService) AdminDashboard(ctx context.Context) (*dto.AdminDashboardResponse, error) {
	usersByRole, err := s.repo.User.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	resourcesByStatus, err := s.repo.Resource.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.Booking.ListForStats(ctx, repository.BookingFilter{})
	if err != nil {
		s.logger.Error("查询预约统计失败", zap.Error(err))
		return nil, err
	}
	resources, err := s.repo.Resource.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	today := s.today()
	upcoming, err := s.repo.Booking.ListUpcoming(ctx, "", today, adminUpcomingLimit)
	if err != nil {
		return nil, err
	}

	records := toRecords(list)
	sum := booking.Summarize(records)
	todayCount, weekCount, monthCount := periodCounts(records, today)

	return &dto.AdminDashboardResponse{
		UsersByRole:       usersByRole,
		ResourcesByStatus: resourcesByStatus,
		BookingsByStatus: map[string]int{
			model.BookingStatusConfirmed: sum.Confirmed,
			model.BookingStatusCompleted: sum.Completed,
			model.BookingStatusCancelled: sum.Cancelled,
			model.BookingStatusNoShow:    sum.NoShow,
		},
		TodayBookings:      todayCount,
		WeekBookings:       weekCount,
		MonthBookings:      monthCount,
		BookingsByCategory: booking.CountByCategory(records),
		TopResources:       toUsageResponses(booking.TopResources(toResourceRefs(resources), records, adminTopResourcesCap)),
		Upcoming:           toBookingResponses(upcoming),
	}, nil
}

func (s *dashboardService) PeakHours(ctx context.Context) ([]dto.HourCountResponse, error) {
	records, err := s.allRecords(ctx)
	if err != nil {
		return nil, err
	}
	hours := booking.PeakHours(records)
	out := make([]dto.HourCountResponse, 0, len(hours))
	for _, h := range hours {
		out = append(out, dto.HourCountResponse{Hour: h.Hour, Count: h.Count})
	}
	return out, nil
}

func (s *dashboardService) Weekdays(ctx context.Context) ([]dto.WeekdayCountResponse, error) {
	records, err := s.allRecords(ctx)
	if err != nil {
		return nil, err
	}
	days := booking.WeekdayDistribution(records)
	out := make([]dto.WeekdayCountResponse, 0, len(days))
	for _, d := range days {
		out = append(out, dto.WeekdayCountResponse{Weekday: d.Weekday.String(), Count: d.Count})
	}
	return out, nil
}

func (s *dashboardService) Trend(ctx context.Context, days int) ([]dto.DayCountResponse, error) {
	if days <= 0 {
		days = defaultTrendDays
	}
	today := s.today()
	from := today.AddDate(0, 0, -(days - 1))
	list, err := s.repo.Booking.ListForStats(ctx, repository.BookingFilter{DateFrom: &from, DateTo: &today})
	if err != nil {
		return nil, err
	}
	trend := booking.Trend(toRecords(list), today, days)
	out := make([]dto.DayCountResponse, 0, len(trend))
	for _, d := range trend {
		out = append(out, dto.DayCountResponse{Date: d.Date.Format(time.DateOnly), Count: d.Count})
	}
	return out, nil
}

func (s *dashboardService) CategoryUtilization(ctx context.Context) (map[string]float64, error) {
	resources, err := s.repo.Resource.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.Booking.ListForStats(ctx, repository.BookingFilter{Status: model.BookingStatusCompleted})
	if err != nil {
		return nil, err
	}
	return booking.CategoryUtilization(toResourceRefs(resources), toRecords(list)), nil
}

func (s *dashboardService) SystemHealth(ctx context.Context) (*dto.SystemHealthResponse, error) {
	since := s.now().Add(-24 * time.Hour)
	sent, err := s.repo.EmailLog.CountSince(ctx, since, model.EmailStatusSent)
	if err != nil {
		return nil, err
	}
	failed, err := s.repo.EmailLog.CountSince(ctx, since, model.EmailStatusFailed)
	if err != nil {
		return nil, err
	}
	return &dto.SystemHealthResponse{
		Database:        s.probe(ctx, "database", s.database),
		Redis:           s.probe(ctx, "redis", s.redis),
		EmailsSent24h:   sent,
		EmailsFailed24h: failed,
	}, nil
}

func (s *dashboardService) probe(ctx context.Context, name string, p HealthProbe) string {
	if p == nil {
		return HealthUnconfigured
	}
	if err := p.Ping(ctx); err != nil {
		s.logger.Warn("健康检查失败", zap.String("component", name), zap.Error(err))
		return HealthDown
	}
	return HealthUp
}

func (s *dashboardService) allRecords(ctx context.Context) ([]booking.Record, error) {
	list, err := s.repo.Booking.ListForStats(ctx, repository.BookingFilter{})
	if err != nil {
		s.logger.Error("查询预约统计失败", zap.Error(err))
		return nil, err
	}
	return toRecords(list), nil
}

// periodCounts 按预约日期统计今天、本周（周一起）与本月的预约数
func periodCounts(records []booking.Record, today time.Time) (day, week, month int) {
	offset := (int(today.Weekday()) + 6) % 7
	weekStart := today.AddDate(0, 0, -offset)
	weekEnd := weekStart.AddDate(0, 0, 7)
	for _, r := range records {
		d := booking.DateOf(r.Date)
		if d.Equal(today) {
			day++
		}
		if !d.Before(weekStart) && d.Before(weekEnd) {
			week++
		}
		if d.Year() == today.Year() && d.Month() == today.Month() {
			month++
		}
	}
	return day, week, month
}
