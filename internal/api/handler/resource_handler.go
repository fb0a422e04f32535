package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sunilprojects/smart-campus-resource-management/internal/dto"
	"github.com/sunilprojects/smart-campus-resource-management/internal/service"
	"github.com/sunilprojects/smart-campus-resource-management/pkg/response"
)

const defaultTopResources = 10

// ResourceHandler 资源与分类 HTTP 处理器
type ResourceHandler struct {
	resourceSvc service.ResourceService
}

// NewResourceHandler 创建 ResourceHandler
func NewResourceHandler(resourceSvc service.ResourceService) *ResourceHandler {
	return &ResourceHandler{resourceSvc: resourceSvc}
}

// ── 分类 ──

// ListCategories 分类列表
// GET /api/v1/categories
func (h *ResourceHandler) ListCategories(c *gin.Context) {
	list, err := h.resourceSvc.ListCategories(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// CreateCategory 创建分类（管理员）
// POST /api/v1/categories
func (h *ResourceHandler) CreateCategory(c *gin.Context) {
	var req dto.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	category, err := h.resourceSvc.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		h.handleResourceError(c, err)
		return
	}

	response.Created(c, category)
}

// UpdateCategory 更新分类（管理员）
// PUT /api/v1/categories/:id
func (h *ResourceHandler) UpdateCategory(c *gin.Context) {
	var req dto.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	category, err := h.resourceSvc.UpdateCategory(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleResourceError(c, err)
		return
	}

	response.OK(c, category)
}

// DeleteCategory 删除分类（管理员）
// DELETE /api/v1/categories/:id
func (h *ResourceHandler) DeleteCategory(c *gin.Context) {
	if err := h.resourceSvc.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		h.handleResourceError(c, err)
		return
	}

	response.OK(c, nil)
}

// ── 资源 ──

// ListResources 资源列表，支持分类、状态与关键字过滤
// GET /api/v1/resources
func (h *ResourceHandler) ListResources(c *gin.Context) {
	var req dto.ResourceListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	list, total, err := h.resourceSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetResource 资源详情
// GET /api/v1/resources/:id
func (h *ResourceHandler) GetResource(c *gin.Context) {
	res, err := h.resourceSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleResourceError(c, err)
		return
	}

	response.OK(c, res)
}

// CreateResource 创建资源（管理员）
// POST /api/v1/resources
func (h *ResourceHandler) CreateResource(c *gin.Context) {
	var req dto.CreateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	res, err := h.resourceSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleResourceError(c, err)
		return
	}

	response.Created(c, res)
}

// UpdateResource 更新资源（管理员）
// PUT /api/v1/resources/:id
func (h *ResourceHandler) UpdateResource(c *gin.Context) {
	var req dto.UpdateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	res, err := h.resourceSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleResourceError(c, err)
		return
	}

	response.OK(c, res)
}

// DeleteResource 下架资源（管理员，软删除）
// DELETE /api/v1/resources/:id
func (h *ResourceHandler) DeleteResource(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.resourceSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleResourceError(c, err)
		return
	}

	response.OK(c, nil)
}

// UpdateResourceStatus 更新资源状态（管理员）
// PUT /api/v1/resources/:id/status
func (h *ResourceHandler) UpdateResourceStatus(c *gin.Context) {
	var req dto.UpdateResourceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.resourceSvc.UpdateStatus(c.Request.Context(), c.Param("id"), &req, callerID); err != nil {
		h.handleResourceError(c, err)
		return
	}

	response.OK(c, nil)
}

// ScheduleMaintenance 安排维护并级联取消受影响的预约（管理员）
// POST /api/v1/resources/:id/maintenance
func (h *ResourceHandler) ScheduleMaintenance(c *gin.Context) {
	var req dto.ScheduleMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.resourceSvc.ScheduleMaintenance(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleResourceError(c, err)
		return
	}

	response.OK(c, result)
}

// TopResources 已完成预约最多的资源
// GET /api/v1/resources/top?limit=10
func (h *ResourceHandler) TopResources(c *gin.Context) {
	n := defaultTopResources
	if s := c.Query("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 || v > 100 {
			response.BadRequest(c, 10001, "limit 必须在 1-100 之间")
			return
		}
		n = v
	}

	list, err := h.resourceSvc.TopResources(c.Request.Context(), n)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

func (h *ResourceHandler) handleResourceError(c *gin.Context, err error) {
	if handleRuleError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrCategoryNotFound):
		response.NotFound(c, 13001, "资源分类不存在")
	case errors.Is(err, service.ErrCategoryNameExists):
		response.Conflict(c, 13002, "分类名称已存在")
	case errors.Is(err, service.ErrCategoryInUse):
		response.Conflict(c, 13003, "分类下仍有资源，无法删除")
	case errors.Is(err, service.ErrResourceNotFound):
		response.NotFound(c, 13004, "资源不存在")
	case errors.Is(err, service.ErrResourceHasBookings):
		response.Conflict(c, 13005, "资源仍有已确认的预约，无法删除")
	case errors.Is(err, service.ErrInvalidDurationRange):
		response.BadRequest(c, 13006, "最短预约时长不能大于最长预约时长")
	case errors.Is(err, service.ErrInvalidMaintenance):
		response.BadRequest(c, 13007, "维护时间格式无效")
	default:
		response.InternalError(c)
	}
}
