package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/sunilprojects/smart-campus-resource-management/internal/dto"
	"github.com/sunilprojects/smart-campus-resource-management/internal/service"
	"github.com/sunilprojects/smart-campus-resource-management/pkg/response"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	icsContentType  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	reportSvc service.ReportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(reportSvc service.ReportService) *ExportHandler {
	return &ExportHandler{reportSvc: reportSvc}
}

// ExportBookings 导出预约明细 Excel（管理员），过滤条件同预约列表
// GET /api/v1/export/bookings
func (h *ExportHandler) ExportBookings(c *gin.Context) {
	var req dto.BookingListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	buf, filename, err := h.reportSvc.ExportBookings(c.Request.Context(), &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.Attachment(c, filename, xlsxContentType, buf.Bytes())
}

// ExportMyCalendar 导出本人预约为 .ics，可导入日历应用
// GET /api/v1/bookings/my/calendar
func (h *ExportHandler) ExportMyCalendar(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	buf, filename, err := h.reportSvc.ExportCalendar(c.Request.Context(), callerID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.Attachment(c, filename, icsContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	if handleRuleError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrExportNoBookings):
		response.NotFound(c, 16001, "没有符合条件的预约")
	default:
		response.InternalError(c)
	}
}
