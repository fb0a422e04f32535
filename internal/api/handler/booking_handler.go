package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/sunilprojects/smart-campus-resource-management/internal/dto"
	"github.com/sunilprojects/smart-campus-resource-management/internal/service"
	"github.com/sunilprojects/smart-campus-resource-management/pkg/response"
)

// BookingHandler 预约模块 HTTP 处理器
type BookingHandler struct {
	bookingSvc service.BookingService
}

// NewBookingHandler 创建 BookingHandler
func NewBookingHandler(bookingSvc service.BookingService) *BookingHandler {
	return &BookingHandler{bookingSvc: bookingSvc}
}

// CreateBooking 创建预约
// POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	b, err := h.bookingSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.Created(c, b)
}

// GetSlots 某资源某日的整点时段
// GET /api/v1/bookings/slots?resource_id=&date=
func (h *BookingHandler) GetSlots(c *gin.Context) {
	var q dto.SlotQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	slots, err := h.bookingSvc.GetAvailableSlots(c.Request.Context(), &q)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, gin.H{"list": slots})
}

// CheckAvailability 只做冲突检查的可用性探测
// GET /api/v1/bookings/availability
func (h *BookingHandler) CheckAvailability(c *gin.Context) {
	var q dto.AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.bookingSvc.CheckAvailability(c.Request.Context(), &q)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, result)
}

// ListMyBookings 我的预约
// GET /api/v1/bookings/my
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	var req dto.BookingListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, total, err := h.bookingSvc.ListMine(c.Request.Context(), callerID, &req)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ListBookings 全部预约（管理员）
// GET /api/v1/bookings
func (h *BookingHandler) ListBookings(c *gin.Context) {
	var req dto.BookingListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	list, total, err := h.bookingSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetBooking 预约详情（本人或管理员）
// GET /api/v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	b, err := h.bookingSvc.GetByID(c.Request.Context(), c.Param("id"), callerID, role)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, b)
}

// CancelBooking 取消预约
// PUT /api/v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	var req dto.CancelBookingRequest
	// 请求体可省略
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, err)
			return
		}
	}

	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	b, err := h.bookingSvc.Cancel(c.Request.Context(), c.Param("id"), &req, callerID, role)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, b)
}

// CompleteBooking 标记完成（管理员）
// PUT /api/v1/bookings/:id/complete
func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	b, err := h.bookingSvc.Complete(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, b)
}

// MarkNoShow 标记爽约（管理员）
// PUT /api/v1/bookings/:id/no-show
func (h *BookingHandler) MarkNoShow(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	b, err := h.bookingSvc.MarkNoShow(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, b)
}

// Statistics 预约统计，管理员看全局，其余角色看本人
// GET /api/v1/bookings/statistics
func (h *BookingHandler) Statistics(c *gin.Context) {
	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	stats, err := h.bookingSvc.Statistics(c.Request.Context(), callerID, role)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, stats)
}

func (h *BookingHandler) handleBookingError(c *gin.Context, err error) {
	if handleRuleError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrBookingNotFound):
		response.NotFound(c, 14004, "预约不存在")
	case errors.Is(err, service.ErrResourceNotFound):
		response.NotFound(c, 13004, "资源不存在")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12001, "用户不存在")
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 14005, "无权查看该预约")
	default:
		response.InternalError(c)
	}
}
