package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sunilprojects/smart-campus-resource-management/internal/booking"
	"github.com/sunilprojects/smart-campus-resource-management/internal/model"
)

func setupTestDashboard(database, redis HealthProbe) (DashboardService, *testRepos) {
	r := newTestRepos()
	seedUser(r, "stu-1", model.RoleStudent)
	seedUser(r, "stu-2", model.RoleStudent)
	seedUser(r, "adm-1", model.RoleAdmin)
	seedResource(r, "room-1")
	seedResource(r, "room-2")
	return NewDashboardService(newTestRuntime(r, nil), database, redis), r
}

func TestPeriodCounts(t *testing.T) {
	today := time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC) // 周三
	day := func(s string) booking.Record {
		d, _ := time.Parse(time.DateOnly, s)
		return booking.Record{Date: d}
	}
	records := []booking.Record{
		day("2024-06-05"), // 今天
		day("2024-06-03"), // 本周一
		day("2024-06-09"), // 本周日
		day("2024-06-02"), // 上周日
		day("2024-06-28"),
		day("2024-05-31"),
	}

	d, w, m := periodCounts(records, today)
	if d != 1 || w != 3 || m != 5 {
		t.Errorf("期望 today=1 week=3 month=5，实际 %d/%d/%d", d, w, m)
	}
}

func TestDashboard_UserDashboard(t *testing.T) {
	svc, r := setupTestDashboard(nil, nil)
	ctx := context.Background()

	seedBooking(r, "stu-1", "room-1", "2024-06-04", "09:00", "10:00")
	seedBooking(r, "stu-1", "room-1", "2024-06-05", "09:00", "10:00")
	seedBooking(r, "stu-1", "room-2", "2024-06-06", "09:00", "10:00")
	seedBooking(r, "stu-1", "room-2", "2024-06-07", "09:00", "10:00")
	old := seedBooking(r, "stu-1", "room-1", "2024-05-20", "09:00", "10:00")
	r.bookings.bookings[old.BookingID].Status = model.BookingStatusCompleted
	seedBooking(r, "stu-2", "room-1", "2024-06-04", "11:00", "12:00")

	resp, err := svc.UserDashboard(ctx, "stu-1")
	if err != nil {
		t.Fatalf("UserDashboard 失败: %v", err)
	}
	if resp.TotalBookings != 5 || resp.ActiveBookings != 4 || resp.CompletedBookings != 1 {
		t.Errorf("计数不正确: %+v", resp)
	}
	if len(resp.Upcoming) != 3 {
		t.Fatalf("即将开始的预约最多 3 条，实际 %d", len(resp.Upcoming))
	}
	if resp.Upcoming[0].BookingDate != "2024-06-04" {
		t.Errorf("应按日期升序，首条=%s", resp.Upcoming[0].BookingDate)
	}
}

func TestDashboard_AdminDashboard(t *testing.T) {
	svc, r := setupTestDashboard(nil, nil)
	ctx := context.Background()

	seedBooking(r, "stu-1", "room-1", "2024-06-03", "09:00", "10:00")
	seedBooking(r, "stu-2", "room-2", "2024-06-06", "09:00", "10:00")
	done := seedBooking(r, "stu-1", "room-2", "2024-05-20", "09:00", "10:00")
	r.bookings.bookings[done.BookingID].Status = model.BookingStatusCompleted

	resp, err := svc.AdminDashboard(ctx)
	if err != nil {
		t.Fatalf("AdminDashboard 失败: %v", err)
	}
	if resp.UsersByRole[model.RoleStudent] != 2 || resp.UsersByRole[model.RoleAdmin] != 1 {
		t.Errorf("用户角色计数不正确: %v", resp.UsersByRole)
	}
	if resp.TodayBookings != 1 || resp.WeekBookings != 2 || resp.MonthBookings != 2 {
		t.Errorf("期间计数不正确: today=%d week=%d month=%d", resp.TodayBookings, resp.WeekBookings, resp.MonthBookings)
	}
	if resp.BookingsByStatus[model.BookingStatusConfirmed] != 2 || resp.BookingsByStatus[model.BookingStatusCompleted] != 1 {
		t.Errorf("状态计数不正确: %v", resp.BookingsByStatus)
	}
	if len(resp.TopResources) != 2 || resp.TopResources[0].ResourceID != "room-2" {
		t.Errorf("room-2 完成数最多，应排第一: %+v", resp.TopResources)
	}
	if resp.TopResources[0].Utilization != 5 {
		t.Errorf("1 次完成应估算为 5%%，实际 %.1f", resp.TopResources[0].Utilization)
	}
}

func TestDashboard_PeakHoursAndTrend(t *testing.T) {
	svc, r := setupTestDashboard(nil, nil)
	ctx := context.Background()

	seedBooking(r, "stu-1", "room-1", "2024-06-03", "09:00", "10:00")
	seedBooking(r, "stu-2", "room-2", "2024-06-03", "09:30", "10:30")
	seedBooking(r, "stu-1", "room-2", "2024-06-01", "14:00", "15:00")

	hours, err := svc.PeakHours(ctx)
	if err != nil {
		t.Fatalf("PeakHours 失败: %v", err)
	}
	if len(hours) != 12 {
		t.Fatalf("应返回 08..19 共 12 个小时，实际 %d", len(hours))
	}
	for _, h := range hours {
		if h.Hour == 9 && h.Count != 2 {
			t.Errorf("9 点应有 2 条，实际 %d", h.Count)
		}
	}

	trend, err := svc.Trend(ctx, 0)
	if err != nil {
		t.Fatalf("Trend 失败: %v", err)
	}
	if len(trend) != 30 {
		t.Fatalf("默认 30 天，实际 %d", len(trend))
	}
	last := trend[len(trend)-1]
	if last.Date != "2024-06-03" || last.Count != 2 {
		t.Errorf("最后一天应为今天且有 2 条，实际 %+v", last)
	}

	days, _ := svc.Weekdays(ctx)
	if len(days) != 7 || days[0].Weekday != "Monday" || days[0].Count != 2 {
		t.Errorf("周一应排首位且有 2 条: %+v", days)
	}
}

func TestDashboard_SystemHealth(t *testing.T) {
	svc, r := setupTestDashboard(stubProbe{}, stubProbe{err: errors.New("connection refused")})
	ctx := context.Background()

	r.emails.logs = []model.EmailLog{
		{Status: model.EmailStatusSent, SentAt: testNow.Add(-time.Hour)},
		{Status: model.EmailStatusSent, SentAt: testNow.Add(-48 * time.Hour)},
		{Status: model.EmailStatusFailed, SentAt: testNow.Add(-2 * time.Hour)},
	}

	resp, err := svc.SystemHealth(ctx)
	if err != nil {
		t.Fatalf("SystemHealth 失败: %v", err)
	}
	if resp.Database != HealthUp || resp.Redis != HealthDown {
		t.Errorf("探测结果不正确: db=%s redis=%s", resp.Database, resp.Redis)
	}
	if resp.EmailsSent24h != 1 || resp.EmailsFailed24h != 1 {
		t.Errorf("24 小时邮件统计不正确: sent=%d failed=%d", resp.EmailsSent24h, resp.EmailsFailed24h)
	}
}

func TestDashboard_SystemHealth_Unconfigured(t *testing.T) {
	svc, _ := setupTestDashboard(stubProbe{}, nil)

	resp, err := svc.SystemHealth(context.Background())
	if err != nil {
		t.Fatalf("SystemHealth 失败: %v", err)
	}
	if resp.Redis != HealthUnconfigured {
		t.Errorf("未配置 Redis 应返回 %s，实际 %s", HealthUnconfigured, resp.Redis)
	}
}
