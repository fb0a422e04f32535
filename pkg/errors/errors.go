package errors

import (
	"errors"
	"fmt"
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ValidationError 业务规则校验失败，不可重试
// Rule 为触发失败的规则名，便于前端与日志定位
type ValidationError struct {
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Rule == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Rule, e.Message)
}

// ConflictError 时间段与已确认预约冲突，客户端可换时段重试
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// NewValidation 构造 ValidationError
func NewValidation(rule, message string) error {
	return &ValidationError{Rule: rule, Message: message}
}

// NewConflict 构造 ConflictError
func NewConflict(message string) error {
	return &ConflictError{Message: message}
}

// IsValidation 判断错误链中是否包含 ValidationError
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsConflict 判断错误链中是否包含 ConflictError
func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}
