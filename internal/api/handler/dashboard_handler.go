package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sunilprojects/smart-campus-resource-management/internal/dto"
	"github.com/sunilprojects/smart-campus-resource-management/internal/model"
	"github.com/sunilprojects/smart-campus-resource-management/internal/service"
	"github.com/sunilprojects/smart-campus-resource-management/pkg/response"
)

// DashboardHandler 仪表盘与统计 HTTP 处理器
type DashboardHandler struct {
	dashboardSvc service.DashboardService
}

// NewDashboardHandler 创建 DashboardHandler
func NewDashboardHandler(dashboardSvc service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardSvc: dashboardSvc}
}

// Overview 按角色返回仪表盘
// GET /api/v1/dashboard
func (h *DashboardHandler) Overview(c *gin.Context) {
	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if role == model.RoleAdmin {
		data, err := h.dashboardSvc.AdminDashboard(c.Request.Context())
		if err != nil {
			response.InternalError(c)
			return
		}
		response.OK(c, data)
		return
	}

	data, err := h.dashboardSvc.UserDashboard(c.Request.Context(), callerID)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, data)
}

// PeakHours 按开始小时统计
// GET /api/v1/dashboard/peak-hours
func (h *DashboardHandler) PeakHours(c *gin.Context) {
	list, err := h.dashboardSvc.PeakHours(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// Weekdays 按星期统计
// GET /api/v1/dashboard/weekdays
func (h *DashboardHandler) Weekdays(c *gin.Context) {
	list, err := h.dashboardSvc.Weekdays(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// Trend 每日预约趋势
// GET /api/v1/dashboard/trend?days=30
func (h *DashboardHandler) Trend(c *gin.Context) {
	var q dto.TrendQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	list, err := h.dashboardSvc.Trend(c.Request.Context(), q.Days)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// CategoryUtilization 分类利用率（估算值）
// GET /api/v1/dashboard/category-utilization
func (h *DashboardHandler) CategoryUtilization(c *gin.Context) {
	data, err := h.dashboardSvc.CategoryUtilization(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, data)
}

// SystemHealth 系统健康（管理员）
// GET /api/v1/dashboard/system-health
func (h *DashboardHandler) SystemHealth(c *gin.Context) {
	data, err := h.dashboardSvc.SystemHealth(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, data)
}
