package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sunilprojects/smart-campus-resource-management/internal/booking"
	"github.com/sunilprojects/smart-campus-resource-management/internal/dto"
	"github.com/sunilprojects/smart-campus-resource-management/internal/model"
	"github.com/sunilprojects/smart-campus-resource-management/internal/notification"
)

func setupTestResourceService() (ResourceService, *testRepos, *recordingNotifier) {
	r := newTestRepos()
	n := &recordingNotifier{}
	seedUser(r, "stu-1", model.RoleStudent)
	seedUser(r, "stu-2", model.RoleStudent)
	seedUser(r, "adm-1", model.RoleAdmin)
	seedResource(r, "room-1")
	return NewResourceService(newTestRuntime(r, n)), r, n
}

// ── 维护级联 ──

func TestResourceService_ScheduleMaintenance_CancelsOverlapping(t *testing.T) {
	svc, r, n := setupTestResourceService()
	hit := seedBooking(r, "stu-1", "room-1", "2024-06-01", "09:30", "10:30")
	after := seedBooking(r, "stu-2", "room-1", "2024-06-01", "11:00", "12:00")
	otherDay := seedBooking(r, "stu-2", "room-1", "2024-06-02", "09:30", "10:30")

	resp, err := svc.ScheduleMaintenance(context.Background(), "room-1", &dto.ScheduleMaintenanceRequest{
		Start:  "2024-06-01T09:00",
		End:    "2024-06-01T11:00",
		Reason: "projector replacement",
	}, "adm-1")
	if err != nil {
		t.Fatalf("安排维护应成功: %v", err)
	}

	if len(resp.CancelledBookings) != 1 || resp.CancelledBookings[0] != hit.BookingID {
		t.Fatalf("期望仅取消 %s，实际 %v", hit.BookingID, resp.CancelledBookings)
	}
	if resp.Resource.Status != model.ResourceStatusUnderMaintenance {
		t.Errorf("资源状态应为 under_maintenance，实际 %s", resp.Resource.Status)
	}

	cancelled, _ := r.bookings.GetByID(context.Background(), hit.BookingID)
	if cancelled.Status != model.BookingStatusCancelled {
		t.Fatalf("重叠预约应被取消，实际 %s", cancelled.Status)
	}
	if cancelled.CancellationReason == nil || *cancelled.CancellationReason != booking.MaintenanceReasonPrefix+"projector replacement" {
		t.Errorf("取消原因不正确: %v", cancelled.CancellationReason)
	}
	if cancelled.CancelledAt == nil || !cancelled.CancelledAt.Equal(testNow) {
		t.Errorf("cancelled_at 应为当前时间，实际 %v", cancelled.CancelledAt)
	}
	if cancelled.CancelledBy != nil {
		t.Errorf("维护取消不应记录取消人，实际 %v", *cancelled.CancelledBy)
	}

	for _, id := range []string{after.BookingID, otherDay.BookingID} {
		b, _ := r.bookings.GetByID(context.Background(), id)
		if b.Status != model.BookingStatusConfirmed {
			t.Errorf("预约 %s 不应受影响，实际 %s", id, b.Status)
		}
	}

	if len(n.events) != 1 {
		t.Fatalf("期望 1 条通知，实际 %d", len(n.events))
	}
	ev := n.events[0]
	if ev.Kind != notification.KindMaintenanceCancelled || ev.Recipient != "stu-1@campus.test" || ev.BookingID != hit.BookingID {
		t.Errorf("通知内容不正确: %+v", ev)
	}
}

func TestResourceService_ScheduleMaintenance_InvalidWindow(t *testing.T) {
	svc, _, _ := setupTestResourceService()

	_, err := svc.ScheduleMaintenance(context.Background(), "room-1", &dto.ScheduleMaintenanceRequest{
		Start:  "2024-06-01T11:00:00Z",
		End:    "2024-06-01T09:00:00Z",
		Reason: "x",
	}, "adm-1")
	assertValidation(t, err, RuleMaintenanceSchedule)
}

func TestResourceService_ScheduleMaintenance_BadTime(t *testing.T) {
	svc, _, _ := setupTestResourceService()

	_, err := svc.ScheduleMaintenance(context.Background(), "room-1", &dto.ScheduleMaintenanceRequest{
		Start:  "tomorrow",
		End:    "2024-06-01T09:00:00Z",
		Reason: "x",
	}, "adm-1")
	if !errors.Is(err, ErrInvalidMaintenance) {
		t.Fatalf("期望 ErrInvalidMaintenance，实际: %v", err)
	}
}

func TestResourceService_ScheduleMaintenance_NotFound(t *testing.T) {
	svc, _, _ := setupTestResourceService()

	_, err := svc.ScheduleMaintenance(context.Background(), "missing", &dto.ScheduleMaintenanceRequest{
		Start:  "2024-06-01T09:00:00Z",
		End:    "2024-06-01T11:00:00Z",
		Reason: "x",
	}, "adm-1")
	if !errors.Is(err, ErrResourceNotFound) {
		t.Fatalf("期望 ErrResourceNotFound，实际: %v", err)
	}
}

func TestResourceService_MaintenanceBlocksNewBookings(t *testing.T) {
	r := newTestRepos()
	n := &recordingNotifier{}
	seedUser(r, "stu-1", model.RoleStudent)
	seedUser(r, "adm-1", model.RoleAdmin)
	seedResource(r, "room-1")
	rt := newTestRuntime(r, n)
	resources := NewResourceService(rt)
	bookings := NewBookingService(rt)
	ctx := context.Background()

	if _, err := resources.ScheduleMaintenance(ctx, "room-1", &dto.ScheduleMaintenanceRequest{
		Start:  "2024-06-04T09:00",
		End:    "2024-06-04T11:00",
		Reason: "cleaning",
	}, "adm-1"); err != nil {
		t.Fatalf("安排维护失败: %v", err)
	}
	// 恢复可用后维护窗口仍然生效
	if err := resources.UpdateStatus(ctx, "room-1", &dto.UpdateResourceStatusRequest{Status: model.ResourceStatusAvailable}, "adm-1"); err != nil {
		t.Fatalf("更新状态失败: %v", err)
	}

	_, err := bookings.Create(ctx, bookingReq("room-1", "2024-06-04", "10:00", "11:00"), "stu-1")
	assertValidation(t, err, booking.RuleMaintenanceWindow)

	if _, err := bookings.Create(ctx, bookingReq("room-1", "2024-06-04", "11:00", "12:00"), "stu-1"); err != nil {
		t.Fatalf("维护结束后的时段应可预约: %v", err)
	}
}

// ── 资源 CRUD ──

func TestResourceService_CreateAndList(t *testing.T) {
	svc, _, _ := setupTestResourceService()
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, &dto.CreateCategoryRequest{Name: "Labs"})
	if err != nil {
		t.Fatalf("创建分类失败: %v", err)
	}
	created, err := svc.Create(ctx, &dto.CreateResourceRequest{
		Name:       "Physics Lab",
		CategoryID: &cat.ID,
		Capacity:   30,
	}, "adm-1")
	if err != nil {
		t.Fatalf("创建资源失败: %v", err)
	}
	if created.Category == nil || created.Category.Name != "Labs" {
		t.Errorf("应带出分类，实际 %+v", created.Category)
	}
	if created.MinBookingDuration != 60 || created.MaxBookingDuration != 180 || created.AdvanceBookingDays != 7 {
		t.Errorf("默认参数不正确: %+v", created)
	}

	list, total, err := svc.List(ctx, &dto.ResourceListRequest{Keyword: "physics"})
	if err != nil {
		t.Fatalf("查询资源失败: %v", err)
	}
	if total != 1 || list[0].ID != created.ID {
		t.Errorf("关键字搜索结果不正确: total=%d", total)
	}
}

func TestResourceService_Create_InvalidDurationRange(t *testing.T) {
	svc, _, _ := setupTestResourceService()

	_, err := svc.Create(context.Background(), &dto.CreateResourceRequest{
		Name:               "Hall",
		Capacity:           100,
		MinBookingDuration: 240,
		MaxBookingDuration: 60,
	}, "adm-1")
	if !errors.Is(err, ErrInvalidDurationRange) {
		t.Fatalf("期望 ErrInvalidDurationRange，实际: %v", err)
	}
}

func TestResourceService_Update(t *testing.T) {
	svc, _, _ := setupTestResourceService()
	capacity := 25
	name := "  Seminar Room  "

	resp, err := svc.Update(context.Background(), "room-1", &dto.UpdateResourceRequest{Name: &name, Capacity: &capacity}, "adm-1")
	if err != nil {
		t.Fatalf("更新资源失败: %v", err)
	}
	if resp.Name != "Seminar Room" || resp.Capacity != 25 {
		t.Errorf("更新结果不正确: %+v", resp)
	}
}

func TestResourceService_Update_KeepsConcurrentMaintenance(t *testing.T) {
	svc, r, _ := setupTestResourceService()
	ctx := context.Background()
	start := time.Date(2024, 6, 5, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	// 读取资源之后、写入之前，另一位管理员安排了维护
	r.resources.beforeUpdate = func() {
		_ = r.resources.SetMaintenance(ctx, "room-1", start, end, "空调维修", nil)
	}

	capacity := 30
	resp, err := svc.Update(ctx, "room-1", &dto.UpdateResourceRequest{Capacity: &capacity}, "adm-1")
	if err != nil {
		t.Fatalf("更新资源失败: %v", err)
	}
	if resp.Capacity != 30 {
		t.Errorf("容量应为 30，实际 %d", resp.Capacity)
	}
	if resp.Status != model.ResourceStatusUnderMaintenance {
		t.Errorf("维护状态被覆盖，实际 %s", resp.Status)
	}

	stored, _ := r.resources.GetByID(ctx, "room-1")
	if stored.MaintenanceStart == nil || !stored.MaintenanceStart.Equal(start) || stored.MaintenanceEnd == nil {
		t.Errorf("维护窗口被清空: %v - %v", stored.MaintenanceStart, stored.MaintenanceEnd)
	}
	for _, col := range []string{"status", "maintenance_start", "maintenance_end", "maintenance_reason"} {
		if _, ok := r.resources.lastFields[col]; ok {
			t.Errorf("更新不应写入 %s 列", col)
		}
	}
	if r.bookings.locks != 1 {
		t.Errorf("更新应在事务内加 advisory 锁 1 次，实际 %d", r.bookings.locks)
	}
}

func TestResourceService_Delete_SerializedWithCreate(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		r := newTestRepos()
		seedUser(r, "stu-1", model.RoleStudent)
		seedResource(r, "room-1")
		rt := newTestRuntime(r, &recordingNotifier{})
		resources := NewResourceService(rt)
		bookings := NewBookingService(rt)

		var (
			wg        sync.WaitGroup
			createErr error
			deleteErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, createErr = bookings.Create(ctx, bookingReq("room-1", "2024-06-04", "10:00", "11:00"), "stu-1")
		}()
		go func() {
			defer wg.Done()
			deleteErr = resources.Delete(ctx, "room-1", "adm-1")
		}()
		wg.Wait()

		switch {
		case createErr == nil && deleteErr == nil:
			t.Fatal("下线的资源上不应留下已确认预约")
		case createErr != nil && deleteErr != nil:
			t.Fatalf("至少一方应成功: create=%v delete=%v", createErr, deleteErr)
		case deleteErr == nil:
			assertValidation(t, createErr, booking.RuleResourceStatus)
		case !errors.Is(deleteErr, ErrResourceHasBookings):
			t.Fatalf("期望 ErrResourceHasBookings，实际: %v", deleteErr)
		}
	}
}

func TestResourceService_Delete_RefusedWithConfirmedBookings(t *testing.T) {
	svc, r, _ := setupTestResourceService()
	seedBooking(r, "stu-1", "room-1", "2024-06-04", "10:00", "11:00")

	if err := svc.Delete(context.Background(), "room-1", "adm-1"); !errors.Is(err, ErrResourceHasBookings) {
		t.Fatalf("期望 ErrResourceHasBookings，实际: %v", err)
	}
}

func TestResourceService_Delete_SoftDelete(t *testing.T) {
	svc, r, _ := setupTestResourceService()

	if err := svc.Delete(context.Background(), "room-1", "adm-1"); err != nil {
		t.Fatalf("删除资源失败: %v", err)
	}
	res, err := r.resources.GetByID(context.Background(), "room-1")
	if err != nil {
		t.Fatal("软删除后记录应仍存在")
	}
	if res.Status != model.ResourceStatusUnavailable {
		t.Errorf("期望状态 unavailable，实际 %s", res.Status)
	}
	if r.bookings.locks != 1 {
		t.Errorf("下线应在事务内加 advisory 锁 1 次，实际 %d", r.bookings.locks)
	}
}

// ── 分类 ──

func TestResourceService_Category_DuplicateAndInUse(t *testing.T) {
	svc, _, _ := setupTestResourceService()
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, &dto.CreateCategoryRequest{Name: "Rooms"})
	if err != nil {
		t.Fatalf("创建分类失败: %v", err)
	}
	if _, err := svc.CreateCategory(ctx, &dto.CreateCategoryRequest{Name: "Rooms"}); !errors.Is(err, ErrCategoryNameExists) {
		t.Errorf("期望 ErrCategoryNameExists，实际: %v", err)
	}

	if _, err := svc.Create(ctx, &dto.CreateResourceRequest{Name: "R101", CategoryID: &cat.ID, Capacity: 5}, "adm-1"); err != nil {
		t.Fatalf("创建资源失败: %v", err)
	}
	if err := svc.DeleteCategory(ctx, cat.ID); !errors.Is(err, ErrCategoryInUse) {
		t.Errorf("期望 ErrCategoryInUse，实际: %v", err)
	}
	if err := svc.DeleteCategory(ctx, "missing"); !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("期望 ErrCategoryNotFound，实际: %v", err)
	}
}

// ── 热门资源 ──

func TestResourceService_TopResources(t *testing.T) {
	svc, r, _ := setupTestResourceService()
	seedResource(r, "room-2")
	ctx := context.Background()

	for _, slot := range [][2]string{{"08:00", "09:00"}, {"09:00", "10:00"}} {
		b := seedBooking(r, "stu-1", "room-2", "2024-06-01", slot[0], slot[1])
		b.Status = model.BookingStatusCompleted
		_ = r.bookings.UpdateStatus(ctx, b)
	}

	top, err := svc.TopResources(ctx, 1)
	if err != nil {
		t.Fatalf("查询热门资源失败: %v", err)
	}
	if len(top) != 1 || top[0].ResourceID != "room-2" || top[0].Completed != 2 || top[0].Utilization != 10 {
		t.Errorf("热门资源不正确: %+v", top)
	}
}

func TestParseMaintenanceTime(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)

	got, err := parseMaintenanceTime("2024-06-01 09:00", loc)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if !got.Equal(time.Date(2024, 6, 1, 9, 0, 0, 0, loc)) {
		t.Errorf("未带时区的值应按预约时区解释，实际 %s", got)
	}

	got, err = parseMaintenanceTime("2024-06-01T09:00:00Z", loc)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if got.Location() != time.UTC || !strings.HasPrefix(got.Format(time.RFC3339), "2024-06-01T09:00:00Z") {
		t.Errorf("RFC3339 应保留原时区，实际 %s", got)
	}
}
