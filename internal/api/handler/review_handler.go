package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/sunilprojects/smart-campus-resource-management/internal/dto"
	"github.com/sunilprojects/smart-campus-resource-management/internal/service"
	"github.com/sunilprojects/smart-campus-resource-management/pkg/response"
)

// ReviewHandler 评价模块 HTTP 处理器
type ReviewHandler struct {
	reviewSvc service.ReviewService
}

// NewReviewHandler 创建 ReviewHandler
func NewReviewHandler(reviewSvc service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewSvc: reviewSvc}
}

// CreateReview 评价已完成的预约
// POST /api/v1/reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var req dto.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	review, err := h.reviewSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleReviewError(c, err)
		return
	}

	response.Created(c, review)
}

// ListByResource 资源的评价
// GET /api/v1/reviews/resource/:id
func (h *ReviewHandler) ListByResource(c *gin.Context) {
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		bindFailed(c, err)
		return
	}

	list, total, err := h.reviewSvc.ListByResource(c.Request.Context(), c.Param("id"), &page)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, page.GetPage(), page.GetPageSize())
}

// Summary 资源评分汇总
// GET /api/v1/reviews/resource/:id/summary
func (h *ReviewHandler) Summary(c *gin.Context) {
	sum, err := h.reviewSvc.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, sum)
}

// ListMine 我的评价
// GET /api/v1/reviews/my
func (h *ReviewHandler) ListMine(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.reviewSvc.ListMine(c.Request.Context(), callerID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// UpdateReview 修改评价（本人）
// PUT /api/v1/reviews/:id
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	var req dto.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	review, err := h.reviewSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleReviewError(c, err)
		return
	}

	response.OK(c, review)
}

// DeleteReview 删除评价（本人或管理员）
// DELETE /api/v1/reviews/:id
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.reviewSvc.Delete(c.Request.Context(), c.Param("id"), callerID, role); err != nil {
		h.handleReviewError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *ReviewHandler) handleReviewError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReviewNotFound):
		response.NotFound(c, 15001, "评价不存在")
	case errors.Is(err, service.ErrReviewExists):
		response.Conflict(c, 15002, "该预约已评价")
	case errors.Is(err, service.ErrReviewNotAllowed):
		response.BadRequest(c, 15003, "只能评价已完成的预约")
	case errors.Is(err, service.ErrBookingNotFound):
		response.NotFound(c, 14004, "预约不存在")
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 15004, "无权操作该评价")
	default:
		response.InternalError(c)
	}
}
