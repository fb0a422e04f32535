package booking

import (
	"fmt"
	"time"

	pkgerrors "github.com/sunilprojects/smart-campus-resource-management/pkg/errors"
)

// Status 预约状态
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// Terminal 终态不可再变更
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// CanTransition 只允许 confirmed 迁移到三种终态
func CanTransition(from, to Status) bool {
	return from == StatusConfirmed && to.Terminal()
}

// 取消相关规则名
const (
	RuleCancelStatus = "cancel_status"
	RuleCancelOwner  = "cancel_owner"
	RuleCancelLead   = "cancel_lead_time"
)

// CancelRequest 取消请求的判定输入
type CancelRequest struct {
	Status        Status
	OwnerID       string
	RequesterID   string
	RequesterRole Role
	Limits        Limits
	Start         time.Time // 预约开始时刻（已带时区）
	Now           time.Time
}

// CheckCancellation 判定是否允许取消
// 管理员可随时取消任意已确认预约；其他人只能取消自己的预约，且必须早于开始时间减去提前量。
func CheckCancellation(req CancelRequest) error {
	if req.Status != StatusConfirmed {
		return pkgerrors.NewValidation(RuleCancelStatus, "只能取消已确认的预约")
	}
	if req.RequesterRole == RoleAdmin {
		return nil
	}
	if req.OwnerID != req.RequesterID {
		return pkgerrors.NewValidation(RuleCancelOwner, "只能取消自己的预约")
	}
	lead := time.Duration(max(req.Limits.CancelLeadHours, 0)) * time.Hour
	if !req.Now.Before(req.Start.Add(-lead)) {
		return pkgerrors.NewValidation(RuleCancelLead, cancelLeadMessage(req.Limits.CancelLeadHours))
	}
	return nil
}

func cancelLeadMessage(hours int) string {
	if hours <= 0 {
		return "预约已开始，无法取消"
	}
	return fmt.Sprintf("至少需要在开始前 %d 小时取消", hours)
}
