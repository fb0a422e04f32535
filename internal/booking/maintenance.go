package booking

import (
	"errors"
	"time"
)

// MaintenanceReasonPrefix 维护级联取消时写入的取消原因前缀
const MaintenanceReasonPrefix = "Resource scheduled for maintenance: "

// ErrInvalidMaintenanceWindow 维护开始时间必须早于结束时间
var ErrInvalidMaintenanceWindow = errors.New("维护开始时间必须早于结束时间")

// MaintenanceWindow 资源维护时间窗
type MaintenanceWindow struct {
	Start  time.Time
	End    time.Time
	Reason string
}

// NewMaintenanceWindow 构造维护窗口，要求 start < end
func NewMaintenanceWindow(start, end time.Time, reason string) (MaintenanceWindow, error) {
	if !start.Before(end) {
		return MaintenanceWindow{}, ErrInvalidMaintenanceWindow
	}
	return MaintenanceWindow{Start: start, End: end, Reason: reason}, nil
}

// CancellationReason 被级联取消的预约所记录的原因
func (w MaintenanceWindow) CancellationReason() string {
	return MaintenanceReasonPrefix + w.Reason
}

// Affects 预约区间是否落入维护窗口
func (w MaintenanceWindow) Affects(iv Interval, loc *time.Location) bool {
	return iv.OverlapsWindow(w.Start, w.End, loc)
}

// SelectAffected 从已确认预约中挑出受维护影响的那些
func SelectAffected[T any](items []T, interval func(T) Interval, w MaintenanceWindow, loc *time.Location) []T {
	var out []T
	for _, it := range items {
		if w.Affects(interval(it), loc) {
			out = append(out, it)
		}
	}
	return out
}
