package service

import (
	"time"

	"github.com/sunilprojects/smart-campus-resource-management/internal/booking"
	"github.com/sunilprojects/smart-campus-resource-management/internal/dto"
	"github.com/sunilprojects/smart-campus-resource-management/internal/model"
	"github.com/sunilprojects/smart-campus-resource-management/internal/notification"
)

// ── 模型 → DTO 转换 ──

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:         u.UserID,
		Name:       u.Name,
		Email:      u.Email,
		Phone:      u.Phone,
		StudentID:  u.StudentID,
		EmployeeID: u.EmployeeID,
		Department: u.Department,
		Role:       u.Role,
		Status:     u.Status,
		CreatedAt:  u.CreatedAt.Format(time.RFC3339),
	}
}

func toCategoryResponse(c *model.ResourceCategory) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:          c.CategoryID,
		Name:        c.Name,
		Description: c.Description,
		Icon:        c.Icon,
	}
}

func toResourceResponse(r *model.Resource) dto.ResourceResponse {
	resp := dto.ResourceResponse{
		ID:                 r.ResourceID,
		Name:               r.Name,
		Description:        r.Description,
		Capacity:           r.Capacity,
		Location:           r.Location,
		Amenities:          r.Amenities,
		ImageURL:           r.ImageURL,
		Status:             r.Status,
		MinBookingDuration: r.MinBookingDuration,
		MaxBookingDuration: r.MaxBookingDuration,
		AdvanceBookingDays: r.AdvanceBookingDays,
		MaintenanceStart:   formatTimePtr(r.MaintenanceStart),
		MaintenanceEnd:     formatTimePtr(r.MaintenanceEnd),
		MaintenanceReason:  r.MaintenanceReason,
	}
	if r.Category != nil {
		c := toCategoryResponse(r.Category)
		resp.Category = &c
	}
	return resp
}

func toBookingResponse(b *model.Booking) dto.BookingResponse {
	resp := dto.BookingResponse{
		ID:                 b.BookingID,
		UserID:             b.UserID,
		ResourceID:         b.ResourceID,
		BookingDate:        b.BookingDate.Format(time.DateOnly),
		StartTime:          normalizeClock(b.StartTime),
		EndTime:            normalizeClock(b.EndTime),
		Duration:           b.Duration,
		Purpose:            b.Purpose,
		AttendeesCount:     b.AttendeesCount,
		Status:             b.Status,
		CancellationReason: b.CancellationReason,
		CancelledAt:        formatTimePtr(b.CancelledAt),
		CancelledBy:        b.CancelledBy,
		CreatedAt:          b.CreatedAt.Format(time.RFC3339),
	}
	if b.User != nil {
		resp.UserName = b.User.Name
	}
	if b.Resource != nil {
		resp.ResourceName = b.Resource.Name
	}
	return resp
}

func toBookingResponses(list []model.Booking) []dto.BookingResponse {
	out := make([]dto.BookingResponse, 0, len(list))
	for i := range list {
		out = append(out, toBookingResponse(&list[i]))
	}
	return out
}

func toReviewResponse(r *model.Review) dto.ReviewResponse {
	resp := dto.ReviewResponse{
		ID:         r.ReviewID,
		BookingID:  r.BookingID,
		ResourceID: r.ResourceID,
		UserID:     r.UserID,
		Rating:     r.Rating,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt.Format(time.RFC3339),
	}
	if r.User != nil {
		resp.UserName = r.User.Name
	}
	return resp
}

func toRoleLimitResponse(r *model.RoleLimit) dto.RoleLimitResponse {
	resp := dto.RoleLimitResponse{
		Role:               r.Role,
		MaxActiveBookings:  r.MaxActiveBookings,
		AdvanceDays:        r.AdvanceDays,
		MaxDurationMinutes: r.MaxDurationMinutes,
		CancelLeadHours:    r.CancelLeadHours,
	}
	if !r.UpdatedAt.IsZero() {
		resp.UpdatedAt = r.UpdatedAt.Format(time.RFC3339)
	}
	return resp
}

// toRecords 预约 → 统计记录；时间损坏的记录按 0 点计入
func toRecords(list []model.Booking) []booking.Record {
	out := make([]booking.Record, 0, len(list))
	for i := range list {
		b := &list[i]
		start, _ := booking.ParseClock(b.StartTime)
		category := ""
		if b.Resource != nil {
			category = b.Resource.CategoryName()
		}
		out = append(out, booking.Record{
			ResourceID: b.ResourceID,
			Category:   category,
			Date:       b.BookingDate,
			Start:      start,
			Duration:   b.Duration,
			Status:     booking.Status(b.Status),
		})
	}
	return out
}

func toResourceRefs(list []model.Resource) []booking.ResourceRef {
	out := make([]booking.ResourceRef, 0, len(list))
	for i := range list {
		out = append(out, booking.ResourceRef{
			ID:       list[i].ResourceID,
			Name:     list[i].Name,
			Category: list[i].CategoryName(),
		})
	}
	return out
}

// bookingEvent 构造预约相关通知，收件人为预约人
func bookingEvent(kind notification.Kind, b *model.Booking, resourceName string, at time.Time) notification.Event {
	ev := notification.Event{
		Kind:         kind,
		BookingID:    b.BookingID,
		ResourceName: resourceName,
		Date:         b.BookingDate.Format(time.DateOnly),
		StartTime:    normalizeClock(b.StartTime),
		EndTime:      normalizeClock(b.EndTime),
		OccurredAt:   at,
	}
	if b.User != nil {
		ev.Recipient = b.User.Email
		ev.RecipientName = b.User.Name
	}
	if b.CancellationReason != nil {
		ev.Reason = *b.CancellationReason
	}
	return ev
}

// normalizeClock 把数据库读回的 "HH:MM:SS" 统一为 "HH:MM"
func normalizeClock(s string) string {
	c, err := booking.ParseClock(s)
	if err != nil {
		return s
	}
	return c.String()
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
