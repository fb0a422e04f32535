package booking

import (
	"fmt"
	"time"

	pkgerrors "github.com/sunilprojects/smart-campus-resource-management/pkg/errors"
)

// ResourceStatus 资源状态
type ResourceStatus string

const (
	ResourceAvailable        ResourceStatus = "available"
	ResourceUnderMaintenance ResourceStatus = "under_maintenance"
	ResourceUnavailable      ResourceStatus = "unavailable"
)

// 营业时间 [08:00, 20:00]
var (
	OpeningTime = NewClock(8, 0)
	ClosingTime = NewClock(20, 0)
)

// ResourceState 规则引擎关心的资源快照
type ResourceState struct {
	Status           ResourceStatus
	Capacity         int
	MinDuration      int // 分钟
	MaxDuration      int // 分钟，<=0 表示资源本身不设上限
	MaintenanceStart *time.Time
	MaintenanceEnd   *time.Time
}

// Input 一次预约评估所需的全部输入
type Input struct {
	Role        Role
	Limits      Limits
	ActiveCount int // 申请人当前已确认预约数

	Resource  ResourceState
	Candidate Interval
	Attendees *int
	Existing  []Interval // 同资源同日期的已确认预约

	Now      time.Time // 当前时刻，按 Location 折算出本地日期
	Location *time.Location
}

// Kind 评估结果类别
type Kind string

const (
	KindAccepted   Kind = ""
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
)

// Decision 评估结果；Rule 为首个失败规则名
type Decision struct {
	Rule    string
	Kind    Kind
	Message string
}

func (d Decision) Accepted() bool {
	return d.Kind == KindAccepted
}

// Err 转换为领域错误，通过时返回 nil
func (d Decision) Err() error {
	switch d.Kind {
	case KindValidation:
		return pkgerrors.NewValidation(d.Rule, d.Message)
	case KindConflict:
		return pkgerrors.NewConflict(d.Message)
	}
	return nil
}

func pass() Decision { return Decision{} }

func reject(format string, args ...any) Decision {
	return Decision{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Check 具名规则
type Check struct {
	Name string
	Fn   func(Input) Decision
}

// 规则名
const (
	RuleResourceStatus    = "resource_status"
	RuleMaintenanceWindow = "maintenance_window"
	RuleActiveQuota       = "active_quota"
	RuleAdvanceWindow     = "advance_window"
	RuleDuration          = "duration"
	RuleConflict          = "conflict"
	RuleCapacity          = "capacity"
	RuleBusinessHours     = "business_hours"
	RuleSunday            = "sunday"
)

// DefaultChecks 按固定顺序返回全部规则
func DefaultChecks() []Check {
	return []Check{
		{Name: RuleResourceStatus, Fn: checkResourceStatus},
		{Name: RuleMaintenanceWindow, Fn: checkMaintenanceWindow},
		{Name: RuleActiveQuota, Fn: checkActiveQuota},
		{Name: RuleAdvanceWindow, Fn: checkAdvanceWindow},
		{Name: RuleDuration, Fn: checkDuration},
		{Name: RuleConflict, Fn: checkConflict},
		{Name: RuleCapacity, Fn: checkCapacity},
		{Name: RuleBusinessHours, Fn: checkBusinessHours},
		{Name: RuleSunday, Fn: checkSunday},
	}
}

// Engine 有序规则引擎，遇到第一个失败即返回
type Engine struct {
	checks []Check
}

// NewEngine 使用默认规则创建引擎
func NewEngine() *Engine {
	return &Engine{checks: DefaultChecks()}
}

// NewEngineWith 使用自定义规则创建引擎
func NewEngineWith(checks ...Check) *Engine {
	return &Engine{checks: checks}
}

// Evaluate 纯函数：相同输入总得到相同结果
func (e *Engine) Evaluate(in Input) Decision {
	if in.Location == nil {
		in.Location = time.UTC
	}
	for _, c := range e.checks {
		if d := c.Fn(in); !d.Accepted() {
			d.Rule = c.Name
			return d
		}
	}
	return pass()
}

// ── 规则实现 ──

func checkResourceStatus(in Input) Decision {
	switch in.Resource.Status {
	case ResourceAvailable:
		return pass()
	case ResourceUnderMaintenance:
		return reject("资源正在维护中，暂不可预约")
	default:
		return reject("资源当前不可预约")
	}
}

func checkMaintenanceWindow(in Input) Decision {
	r := in.Resource
	if r.MaintenanceStart == nil || r.MaintenanceEnd == nil {
		return pass()
	}
	if in.Candidate.OverlapsWindow(*r.MaintenanceStart, *r.MaintenanceEnd, in.Location) {
		return reject("所选时段与资源维护时间重叠")
	}
	return pass()
}

func checkActiveQuota(in Input) Decision {
	quota := in.Limits.MaxActiveBookings
	if quota != Unlimited && in.ActiveCount >= quota {
		return reject("已达到有效预约数量上限（%d）", quota)
	}
	return pass()
}

func checkAdvanceWindow(in Input) Decision {
	today := DateOf(in.Now.In(in.Location))
	date := DateOf(in.Candidate.Date)
	if date.Before(today) {
		return reject("不能预约过去的日期")
	}
	days := in.Limits.AdvanceDays
	if days != Unlimited && date.After(today.AddDate(0, 0, days)) {
		return reject("最多只能提前 %d 天预约", days)
	}
	return pass()
}

// MaxDuration 角色上限与资源上限取较小者，均不限时返回 Unlimited
func MaxDuration(roleMax, resourceMax int) int {
	switch {
	case roleMax == Unlimited && resourceMax <= 0:
		return Unlimited
	case roleMax == Unlimited:
		return resourceMax
	case resourceMax <= 0:
		return roleMax
	}
	return min(roleMax, resourceMax)
}

func checkDuration(in Input) Decision {
	minutes := in.Candidate.Minutes()
	if minutes < in.Resource.MinDuration {
		return reject("预约时长不能少于 %d 分钟", in.Resource.MinDuration)
	}
	limit := MaxDuration(in.Limits.MaxDurationMinutes, in.Resource.MaxDuration)
	if limit != Unlimited && minutes > limit {
		return reject("预约时长不能超过 %d 分钟", limit)
	}
	return pass()
}

func checkConflict(in Input) Decision {
	for _, b := range in.Existing {
		if in.Candidate.Overlaps(b) {
			return Decision{
				Kind:    KindConflict,
				Message: fmt.Sprintf("所选时段已被预约（%s-%s）", b.Start, b.End),
			}
		}
	}
	return pass()
}

func checkCapacity(in Input) Decision {
	if in.Attendees != nil && *in.Attendees > in.Resource.Capacity {
		return reject("参与人数（%d）超过资源容量（%d）", *in.Attendees, in.Resource.Capacity)
	}
	return pass()
}

func checkBusinessHours(in Input) Decision {
	if in.Candidate.Start < OpeningTime || in.Candidate.End > ClosingTime {
		return reject("预约时间必须在 %s 至 %s 之间", OpeningTime, ClosingTime)
	}
	return pass()
}

func checkSunday(in Input) Decision {
	if in.Candidate.Date.Weekday() == time.Sunday {
		return reject("周日不开放预约")
	}
	return pass()
}
