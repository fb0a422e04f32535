package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/sunilprojects/smart-campus-resource-management/pkg/errors"
	"github.com/sunilprojects/smart-campus-resource-management/pkg/response"
)

// 预约规则相关的业务码
const (
	codeRuleViolation  = 14001
	codeConflict       = 14002
	codeOptimisticLock = 14003
)

// handleRuleError 处理规则引擎与并发控制产生的类型化错误，已处理返回 true
func handleRuleError(c *gin.Context, err error) bool {
	var ve *pkgerrors.ValidationError
	if errors.As(err, &ve) {
		response.RuleViolation(c, codeRuleViolation, ve.Message, ve.Rule)
		return true
	}

	var ce *pkgerrors.ConflictError
	if errors.As(err, &ce) {
		response.Conflict(c, codeConflict, ce.Message)
		return true
	}

	if errors.Is(err, pkgerrors.ErrOptimisticLock) {
		response.Conflict(c, codeOptimisticLock, pkgerrors.ErrOptimisticLock.Error())
		return true
	}
	return false
}

// bindFailed 统一的参数校验失败响应
func bindFailed(c *gin.Context, err error) {
	response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
}
