package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/sunilprojects/smart-campus-resource-management/internal/dto"
	"github.com/sunilprojects/smart-campus-resource-management/internal/service"
	"github.com/sunilprojects/smart-campus-resource-management/pkg/response"
)

// SystemConfigHandler 系统配置 HTTP 处理器，目前只有角色预约配额
type SystemConfigHandler struct {
	roleLimitSvc service.RoleLimitService
}

// NewSystemConfigHandler 创建 SystemConfigHandler
func NewSystemConfigHandler(roleLimitSvc service.RoleLimitService) *SystemConfigHandler {
	return &SystemConfigHandler{roleLimitSvc: roleLimitSvc}
}

// ListRoleLimits 各角色生效中的配额
// GET /api/v1/system-config/role-limits
func (h *SystemConfigHandler) ListRoleLimits(c *gin.Context) {
	list, err := h.roleLimitSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// UpdateRoleLimit 修改某角色的配额（管理员）
// PUT /api/v1/system-config/role-limits/:role
func (h *SystemConfigHandler) UpdateRoleLimit(c *gin.Context) {
	var req dto.UpdateRoleLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	limit, err := h.roleLimitSvc.Update(c.Request.Context(), c.Param("role"), &req, callerID)
	if err != nil {
		if errors.Is(err, service.ErrUnknownRole) {
			response.BadRequest(c, 16002, "未知角色")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, limit)
}
