// Package booking 包含预约领域的纯逻辑：时间区间、时段网格、规则引擎、
// 取消协议、维护级联选择与统计聚合。本包不做任何 I/O。
package booking

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidClock    = errors.New("时间格式无效，应为 HH:MM")
	ErrInvalidInterval = errors.New("开始时间必须早于结束时间")
)

// Clock 一天中的时刻，单位为自零点起的分钟数
type Clock int

// NewClock 由时、分构造 Clock
func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock 解析 "HH:MM" 或 "HH:MM:SS"，秒被忽略
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 || len(parts[0]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
		}
	}
	return NewClock(h, m), nil
}

// MustClock 解析失败时 panic，仅用于常量与测试
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

// String 格式化为 "HH:MM"
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// On 把时刻落到指定日期与时区上
func (c Clock) On(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), 0, 0, loc)
}

// DateOf 截取日期部分，统一表示为 UTC 零点
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDate 比较两个时间的日历日期
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Interval 某日期上的半开区间 [Start, End)
type Interval struct {
	Date  time.Time
	Start Clock
	End   Clock
}

// NewInterval 构造区间，要求 start < end
func NewInterval(date time.Time, start, end Clock) (Interval, error) {
	if start >= end {
		return Interval{}, fmt.Errorf("%w: %s-%s", ErrInvalidInterval, start, end)
	}
	return Interval{Date: DateOf(date), Start: start, End: end}, nil
}

// Minutes 区间时长
func (i Interval) Minutes() int {
	return int(i.End - i.Start)
}

// Overlaps 同一日期且区间相交；首尾相接不算重叠
func (i Interval) Overlaps(o Interval) bool {
	return SameDate(i.Date, o.Date) && i.Start < o.End && i.End > o.Start
}

// Bounds 区间在 loc 时区下的起止时刻
func (i Interval) Bounds(loc *time.Location) (time.Time, time.Time) {
	return i.Start.On(i.Date, loc), i.End.On(i.Date, loc)
}

// OverlapsWindow 与任意时刻窗口 [start, end) 相交
func (i Interval) OverlapsWindow(start, end time.Time, loc *time.Location) bool {
	s, e := i.Bounds(loc)
	return s.Before(end) && e.After(start)
}

func (i Interval) String() string {
	return fmt.Sprintf("%s %s-%s", i.Date.Format(time.DateOnly), i.Start, i.End)
}
